package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"gorm.io/gorm"
)

type teamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *teamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *teamRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	var team domain.Team
	err := r.db.WithContext(ctx).
		Preload("Members").
		Preload("Treasury").
		First(&team, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) GetByTag(ctx context.Context, tag string) (*domain.Team, error) {
	var team domain.Team
	err := r.db.WithContext(ctx).
		Preload("Members").
		Preload("Treasury").
		First(&team, "tag = ? AND dissolved_at IS NULL", tag).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	// Members and Treasury are managed by their own repositories; saving
	// them here would upsert rows that may have been deleted mid-flow.
	return r.db.WithContext(ctx).Omit("Members", "Treasury").Save(team).Error
}

func (r *teamRepository) List(ctx context.Context, limit, offset int) ([]*domain.Team, error) {
	var teams []*domain.Team
	err := r.db.WithContext(ctx).
		Where("dissolved_at IS NULL").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}
