package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type warRepository struct {
	db *gorm.DB
}

func NewWarRepository(db *gorm.DB) *warRepository {
	return &warRepository{db: db}
}

func (r *warRepository) Create(ctx context.Context, war *domain.War) error {
	return r.db.WithContext(ctx).Create(war).Error
}

func (r *warRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.War, error) {
	var war domain.War
	err := r.db.WithContext(ctx).First(&war, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &war, nil
}

func (r *warRepository) Update(ctx context.Context, war *domain.War) error {
	return r.db.WithContext(ctx).Save(war).Error
}

func (r *warRepository) GetActiveBetween(ctx context.Context, teamA, teamB uuid.UUID) (*domain.War, error) {
	var war domain.War
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.WarStatusActive).
		Where("(aggressor_id = ? AND defender_id = ?) OR (aggressor_id = ? AND defender_id = ?)",
			teamA, teamB, teamB, teamA).
		First(&war).Error
	if err != nil {
		return nil, err
	}
	return &war, nil
}

func (r *warRepository) ListActive(ctx context.Context) ([]*domain.War, error) {
	var wars []*domain.War
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.WarStatusActive).
		Order("started_at ASC").
		Find(&wars).Error
	if err != nil {
		return nil, err
	}
	return wars, nil
}

func (r *warRepository) ListActiveInvolving(ctx context.Context, teamID uuid.UUID) ([]*domain.War, error) {
	var wars []*domain.War
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.WarStatusActive).
		Where("aggressor_id = ? OR defender_id = ?", teamID, teamID).
		Find(&wars).Error
	if err != nil {
		return nil, err
	}
	return wars, nil
}

// AppendBattle inserts the battle record and bumps the crediting side's
// score in one transaction. The war row is locked so concurrent battle
// events into the same war serialize; a replayed event id inserts nothing
// and surfaces domain.ErrStaleEvent.
func (r *warRepository) AppendBattle(ctx context.Context, battle *domain.WarBattle) (*domain.War, error) {
	var updated domain.War
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&updated, "id = ?", battle.WarID).Error; err != nil {
			return err
		}

		if updated.Status != domain.WarStatusActive {
			return domain.ErrWarCeased
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).Create(battle)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrStaleEvent
		}

		if battle.Side == domain.SideAggressor {
			updated.AggressorScore += battle.Value
		} else {
			updated.DefenderScore += battle.Value
		}
		return tx.Save(&updated).Error
	})
	if err != nil {
		return &updated, err
	}
	return &updated, nil
}
