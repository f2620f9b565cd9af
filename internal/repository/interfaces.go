package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/domain"
)

type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error)
	GetByTag(ctx context.Context, tag string) (*domain.Team, error)
	Update(ctx context.Context, team *domain.Team) error
	List(ctx context.Context, limit, offset int) ([]*domain.Team, error)
}

type MemberRepository interface {
	Create(ctx context.Context, member *domain.TeamMember) error
	GetByTeamAndActor(ctx context.Context, teamID, actorID uuid.UUID) (*domain.TeamMember, error)
	GetByActor(ctx context.Context, actorID uuid.UUID) (*domain.TeamMember, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*domain.TeamMember, error)
	CountByTeam(ctx context.Context, teamID uuid.UUID) (int64, error)
	Update(ctx context.Context, member *domain.TeamMember) error
	Delete(ctx context.Context, teamID, actorID uuid.UUID) error
}

type InviteRepository interface {
	Create(ctx context.Context, invite *domain.TeamInvite) error
	GetByCode(ctx context.Context, code string) (*domain.TeamInvite, error)
	Update(ctx context.Context, invite *domain.TeamInvite) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type TreasuryRepository interface {
	Create(ctx context.Context, treasury *domain.Treasury) error
	GetByTeamID(ctx context.Context, teamID uuid.UUID) (*domain.Treasury, error)
	Update(ctx context.Context, treasury *domain.Treasury) error
	// ApplyEntry atomically adjusts the balance and records the ledger line
	// in one transaction. A negative total that would result fails with
	// domain.ErrInsufficientFunds; a duplicate idempotency key fails with
	// domain.ErrStaleEvent. Both leave the balance untouched.
	ApplyEntry(ctx context.Context, entry *domain.TreasuryEntry) (int64, error)
	ListEntries(ctx context.Context, teamID uuid.UUID, limit, offset int) ([]*domain.TreasuryEntry, error)
}

type SectorRepository interface {
	GetOrCreate(ctx context.Context, sector *domain.Sector) (*domain.Sector, error)
	GetByID(ctx context.Context, sectorID string) (*domain.Sector, error)
	Update(ctx context.Context, sector *domain.Sector) error
	ListContestedExpiring(ctx context.Context, now time.Time) ([]*domain.Sector, error)
	ListControlled(ctx context.Context) ([]*domain.Sector, error)
	CountControlledBy(ctx context.Context, teamID uuid.UUID) (int64, error)
	ListControlledBy(ctx context.Context, teamID uuid.UUID) ([]*domain.Sector, error)

	ListInfluence(ctx context.Context, sectorID string) ([]*domain.SectorInfluence, error)
	UpsertInfluence(ctx context.Context, influence *domain.SectorInfluence) error
	ListInfluenceIdleSince(ctx context.Context, cutoff time.Time) ([]*domain.SectorInfluence, error)
	DeleteInfluenceByTeam(ctx context.Context, teamID uuid.UUID) error
	ListSectorsWithInfluenceBy(ctx context.Context, teamID uuid.UUID) ([]string, error)
}

type WarRepository interface {
	Create(ctx context.Context, war *domain.War) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.War, error)
	Update(ctx context.Context, war *domain.War) error
	GetActiveBetween(ctx context.Context, teamA, teamB uuid.UUID) (*domain.War, error)
	ListActive(ctx context.Context) ([]*domain.War, error)
	ListActiveInvolving(ctx context.Context, teamID uuid.UUID) ([]*domain.War, error)
	// AppendBattle inserts the battle record and increments the owning
	// side's score in one transaction. Returns domain.ErrStaleEvent when
	// the event id was already applied.
	AppendBattle(ctx context.Context, battle *domain.WarBattle) (*domain.War, error)
}

type AllianceRepository interface {
	Create(ctx context.Context, alliance *domain.Alliance, members []*domain.AllianceMember) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Alliance, error)
	Update(ctx context.Context, alliance *domain.Alliance) error
	UpdateMember(ctx context.Context, member *domain.AllianceMember) error
	RemoveMemberByTeam(ctx context.Context, teamID uuid.UUID) error
	ListActiveByTeam(ctx context.Context, teamID uuid.UUID) ([]*domain.Alliance, error)
	ListActiveSharedBy(ctx context.Context, teamA, teamB uuid.UUID) ([]*domain.Alliance, error)

	CreateProposal(ctx context.Context, proposal *domain.PactProposal) error
	GetProposalByID(ctx context.Context, id uuid.UUID) (*domain.PactProposal, error)
	UpdateProposal(ctx context.Context, proposal *domain.PactProposal) error
	// CastVote records a representative's decision; voting twice on the
	// same proposal fails with domain.ErrStaleEvent.
	CastVote(ctx context.Context, vote *domain.PactVote) error
	CountVotes(ctx context.Context, proposalID uuid.UUID) (inFavor, against int64, err error)
}

type Repositories struct {
	Team     TeamRepository
	Member   MemberRepository
	Invite   InviteRepository
	Treasury TreasuryRepository
	Sector   SectorRepository
	War      WarRepository
	Alliance AllianceRepository
}
