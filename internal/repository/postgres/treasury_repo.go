package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type treasuryRepository struct {
	db *gorm.DB
}

func NewTreasuryRepository(db *gorm.DB) *treasuryRepository {
	return &treasuryRepository{db: db}
}

func (r *treasuryRepository) Create(ctx context.Context, treasury *domain.Treasury) error {
	return r.db.WithContext(ctx).Create(treasury).Error
}

func (r *treasuryRepository) GetByTeamID(ctx context.Context, teamID uuid.UUID) (*domain.Treasury, error) {
	var treasury domain.Treasury
	err := r.db.WithContext(ctx).First(&treasury, "team_id = ?", teamID).Error
	if err != nil {
		return nil, err
	}
	return &treasury, nil
}

func (r *treasuryRepository) Update(ctx context.Context, treasury *domain.Treasury) error {
	return r.db.WithContext(ctx).Save(treasury).Error
}

// ApplyEntry adjusts the balance and records the ledger line in one
// transaction. The treasury row is locked for the duration so concurrent
// mutations of the same team serialize at the database as well.
func (r *treasuryRepository) ApplyEntry(ctx context.Context, entry *domain.TreasuryEntry) (int64, error) {
	var balance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var treasury domain.Treasury
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&treasury, "team_id = ?", entry.TeamID).Error; err != nil {
			return err
		}

		if treasury.Balance+entry.Amount < 0 {
			return domain.ErrInsufficientFunds
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).Create(entry)
		if res.Error != nil {
			return res.Error
		}
		if entry.EventID != nil && res.RowsAffected == 0 {
			balance = treasury.Balance
			return domain.ErrStaleEvent
		}

		treasury.Balance += entry.Amount
		if err := tx.Save(&treasury).Error; err != nil {
			return err
		}
		balance = treasury.Balance
		return nil
	})
	return balance, err
}

func (r *treasuryRepository) ListEntries(ctx context.Context, teamID uuid.UUID, limit, offset int) ([]*domain.TreasuryEntry, error) {
	var entries []*domain.TreasuryEntry
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
