package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"gorm.io/gorm"
)

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *memberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *domain.TeamMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *memberRepository) GetByTeamAndActor(ctx context.Context, teamID, actorID uuid.UUID) (*domain.TeamMember, error) {
	var member domain.TeamMember
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND actor_id = ?", teamID, actorID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByActor returns the actor's membership in a live team. Memberships in
// dissolved teams are ignored.
func (r *memberRepository) GetByActor(ctx context.Context, actorID uuid.UUID) (*domain.TeamMember, error) {
	var member domain.TeamMember
	err := r.db.WithContext(ctx).
		Joins("JOIN teams ON teams.id = team_members.team_id").
		Where("team_members.actor_id = ? AND teams.dissolved_at IS NULL", actorID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*domain.TeamMember, error) {
	var members []*domain.TeamMember
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *memberRepository) CountByTeam(ctx context.Context, teamID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.TeamMember{}).
		Where("team_id = ?", teamID).
		Count(&count).Error
	return count, err
}

func (r *memberRepository) Update(ctx context.Context, member *domain.TeamMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *memberRepository) Delete(ctx context.Context, teamID, actorID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("team_id = ? AND actor_id = ?", teamID, actorID).
		Delete(&domain.TeamMember{}).Error
}
