package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sectorRepository struct {
	db *gorm.DB
}

func NewSectorRepository(db *gorm.DB) *sectorRepository {
	return &sectorRepository{db: db}
}

// GetOrCreate fetches a sector, creating it from the given prototype on the
// first influence event it ever sees. An existing row wins; the prototype's
// revenue figures only apply at creation.
func (r *sectorRepository) GetOrCreate(ctx context.Context, sector *domain.Sector) (*domain.Sector, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(sector).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, sector.ID)
}

func (r *sectorRepository) GetByID(ctx context.Context, sectorID string) (*domain.Sector, error) {
	var sector domain.Sector
	err := r.db.WithContext(ctx).
		Preload("Influence").
		First(&sector, "id = ?", sectorID).Error
	if err != nil {
		return nil, err
	}
	return &sector, nil
}

func (r *sectorRepository) Update(ctx context.Context, sector *domain.Sector) error {
	return r.db.WithContext(ctx).Omit("Influence").Save(sector).Error
}

func (r *sectorRepository) ListContestedExpiring(ctx context.Context, now time.Time) ([]*domain.Sector, error) {
	var sectors []*domain.Sector
	err := r.db.WithContext(ctx).
		Preload("Influence").
		Where("contested_until IS NOT NULL AND contested_until <= ?", now).
		Find(&sectors).Error
	if err != nil {
		return nil, err
	}
	return sectors, nil
}

func (r *sectorRepository) ListControlled(ctx context.Context) ([]*domain.Sector, error) {
	var sectors []*domain.Sector
	err := r.db.WithContext(ctx).
		Where("controller_id IS NOT NULL").
		Find(&sectors).Error
	if err != nil {
		return nil, err
	}
	return sectors, nil
}

func (r *sectorRepository) CountControlledBy(ctx context.Context, teamID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Sector{}).
		Where("controller_id = ?", teamID).
		Count(&count).Error
	return count, err
}

func (r *sectorRepository) ListControlledBy(ctx context.Context, teamID uuid.UUID) ([]*domain.Sector, error) {
	var sectors []*domain.Sector
	err := r.db.WithContext(ctx).
		Where("controller_id = ?", teamID).
		Find(&sectors).Error
	if err != nil {
		return nil, err
	}
	return sectors, nil
}

func (r *sectorRepository) ListInfluence(ctx context.Context, sectorID string) ([]*domain.SectorInfluence, error) {
	var influence []*domain.SectorInfluence
	err := r.db.WithContext(ctx).
		Where("sector_id = ?", sectorID).
		Order("value DESC").
		Find(&influence).Error
	if err != nil {
		return nil, err
	}
	return influence, nil
}

func (r *sectorRepository) UpsertInfluence(ctx context.Context, influence *domain.SectorInfluence) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sector_id"}, {Name: "team_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "last_delta", "last_activity_at"}),
		}).
		Create(influence).Error
}

func (r *sectorRepository) ListInfluenceIdleSince(ctx context.Context, cutoff time.Time) ([]*domain.SectorInfluence, error) {
	var influence []*domain.SectorInfluence
	err := r.db.WithContext(ctx).
		Where("last_activity_at < ? AND value > 0", cutoff).
		Find(&influence).Error
	if err != nil {
		return nil, err
	}
	return influence, nil
}

func (r *sectorRepository) DeleteInfluenceByTeam(ctx context.Context, teamID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Delete(&domain.SectorInfluence{}).Error
}

func (r *sectorRepository) ListSectorsWithInfluenceBy(ctx context.Context, teamID uuid.UUID) ([]string, error) {
	var sectorIDs []string
	err := r.db.WithContext(ctx).
		Model(&domain.SectorInfluence{}).
		Where("team_id = ? AND value > 0", teamID).
		Pluck("sector_id", &sectorIDs).Error
	if err != nil {
		return nil, err
	}
	return sectorIDs, nil
}
