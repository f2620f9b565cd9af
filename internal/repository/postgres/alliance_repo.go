package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type allianceRepository struct {
	db *gorm.DB
}

func NewAllianceRepository(db *gorm.DB) *allianceRepository {
	return &allianceRepository{db: db}
}

func (r *allianceRepository) Create(ctx context.Context, alliance *domain.Alliance, members []*domain.AllianceMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members").Create(alliance).Error; err != nil {
			return err
		}
		for _, m := range members {
			m.AllianceID = alliance.ID
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *allianceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Alliance, error) {
	var alliance domain.Alliance
	err := r.db.WithContext(ctx).
		Preload("Members").
		First(&alliance, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &alliance, nil
}

func (r *allianceRepository) Update(ctx context.Context, alliance *domain.Alliance) error {
	return r.db.WithContext(ctx).Omit("Members").Save(alliance).Error
}

func (r *allianceRepository) UpdateMember(ctx context.Context, member *domain.AllianceMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *allianceRepository) RemoveMemberByTeam(ctx context.Context, teamID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Delete(&domain.AllianceMember{}).Error
}

func (r *allianceRepository) ListActiveByTeam(ctx context.Context, teamID uuid.UUID) ([]*domain.Alliance, error) {
	var alliances []*domain.Alliance
	err := r.db.WithContext(ctx).
		Preload("Members").
		Joins("JOIN alliance_members ON alliance_members.alliance_id = alliances.id").
		Where("alliance_members.team_id = ? AND alliances.status = ?", teamID, domain.AllianceStatusActive).
		Find(&alliances).Error
	if err != nil {
		return nil, err
	}
	return alliances, nil
}

// ListActiveSharedBy returns active alliances that contain both teams.
// War and territory logic read pact effects from these.
func (r *allianceRepository) ListActiveSharedBy(ctx context.Context, teamA, teamB uuid.UUID) ([]*domain.Alliance, error) {
	var alliances []*domain.Alliance
	err := r.db.WithContext(ctx).
		Preload("Members").
		Joins("JOIN alliance_members a ON a.alliance_id = alliances.id").
		Joins("JOIN alliance_members b ON b.alliance_id = alliances.id").
		Where("a.team_id = ? AND b.team_id = ? AND alliances.status = ?",
			teamA, teamB, domain.AllianceStatusActive).
		Distinct().
		Find(&alliances).Error
	if err != nil {
		return nil, err
	}
	return alliances, nil
}

func (r *allianceRepository) CreateProposal(ctx context.Context, proposal *domain.PactProposal) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

func (r *allianceRepository) GetProposalByID(ctx context.Context, id uuid.UUID) (*domain.PactProposal, error) {
	var proposal domain.PactProposal
	err := r.db.WithContext(ctx).
		Preload("Votes").
		First(&proposal, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *allianceRepository) UpdateProposal(ctx context.Context, proposal *domain.PactProposal) error {
	return r.db.WithContext(ctx).Omit("Votes").Save(proposal).Error
}

func (r *allianceRepository) CastVote(ctx context.Context, vote *domain.PactVote) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "proposal_id"}, {Name: "team_id"}},
			DoNothing: true,
		}).
		Create(vote)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleEvent
	}
	return nil
}

func (r *allianceRepository) CountVotes(ctx context.Context, proposalID uuid.UUID) (int64, int64, error) {
	type voteCount struct {
		InFavor bool
		Count   int64
	}
	var counts []voteCount
	err := r.db.WithContext(ctx).
		Model(&domain.PactVote{}).
		Select("in_favor, COUNT(*) as count").
		Where("proposal_id = ?", proposalID).
		Group("in_favor").
		Find(&counts).Error
	if err != nil {
		return 0, 0, err
	}

	var inFavor, against int64
	for _, c := range counts {
		if c.InFavor {
			inFavor = c.Count
		} else {
			against = c.Count
		}
	}
	return inFavor, against, nil
}
