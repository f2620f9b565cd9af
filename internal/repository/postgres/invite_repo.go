package postgres

import (
	"context"
	"time"

	"github.com/mvaldes/quadrant-governance/internal/domain"
	"gorm.io/gorm"
)

type inviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) *inviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) Create(ctx context.Context, invite *domain.TeamInvite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *inviteRepository) GetByCode(ctx context.Context, code string) (*domain.TeamInvite, error) {
	var invite domain.TeamInvite
	err := r.db.WithContext(ctx).First(&invite, "code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteRepository) Update(ctx context.Context, invite *domain.TeamInvite) error {
	return r.db.WithContext(ctx).Save(invite).Error
}

func (r *inviteRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? AND used_at IS NULL", before).
		Delete(&domain.TeamInvite{})
	return res.RowsAffected, res.Error
}
