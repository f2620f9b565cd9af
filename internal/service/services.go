package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/config"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"github.com/mvaldes/quadrant-governance/internal/repository"
)

// Services bundles the governance engine behind one wiring point. The
// membership service owns the dissolution fan-out; war, territory and
// alliance register for it here so none of them reference each other
// directly.
type Services struct {
	Membership *MembershipService
	Treasury   *TreasuryService
	Territory  *TerritoryService
	War        *WarService
	Alliance   *AllianceService
}

type warReaderFunc func(ctx context.Context, teamA, teamB uuid.UUID) (bool, error)

func (f warReaderFunc) HasActiveWarBetween(ctx context.Context, teamA, teamB uuid.UUID) (bool, error) {
	return f(ctx, teamA, teamB)
}

// NewServices wires the full service graph over one repository set
func NewServices(repos *repository.Repositories, wallet Wallet, notifier Notifier, cfg *config.Config) *Services {
	locks := newLockMap()

	membership := NewMembershipService(repos.Team, repos.Member, repos.Invite, repos.Treasury, wallet, notifier, locks, cfg)
	treasury := NewTreasuryService(repos.Team, repos.Member, repos.Treasury, notifier, locks)

	// The war engine consults alliance pacts and the alliance council
	// consults standing wars, so one side gets a late-bound reader.
	var war *WarService
	alliance := NewAllianceService(repos.Alliance, repos.Team, repos.Member,
		warReaderFunc(func(ctx context.Context, teamA, teamB uuid.UUID) (bool, error) {
			return war.HasActiveWarBetween(ctx, teamA, teamB)
		}), notifier, locks)
	war = NewWarService(repos.War, repos.Team, repos.Member, repos.Sector, treasury, alliance, notifier, locks, cfg)
	territory := NewTerritoryService(repos.Sector, repos.Team, repos.Member, treasury, alliance, notifier, locks, cfg)

	membership.OnTeamDissolved(war.HandleTeamDissolved)
	membership.OnTeamDissolved(territory.HandleTeamDissolved)
	membership.OnTeamDissolved(alliance.HandleTeamDissolved)

	return &Services{
		Membership: membership,
		Treasury:   treasury,
		Territory:  territory,
		War:        war,
		Alliance:   alliance,
	}
}

// HandleTradeCompleted routes a gameplay trade event: the trader's team
// treasury accrues tax on the earnings. Actors with no team are ignored.
func (s *Services) HandleTradeCompleted(ctx context.Context, eventID string, actorID uuid.UUID, earnings int64) error {
	member, err := s.Membership.TeamOf(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil
		}
		return err
	}
	_, err = s.Treasury.AccrueTax(ctx, member.TeamID, eventID, earnings)
	return err
}

// HandleMissionCompleted credits a mission reward to the completing
// actor's team treasury.
func (s *Services) HandleMissionCompleted(ctx context.Context, eventID string, actorID uuid.UUID, reward int64) error {
	member, err := s.Membership.TeamOf(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil
		}
		return err
	}
	_, err = s.Treasury.MissionReward(ctx, member.TeamID, eventID, reward)
	return err
}

// HandleBattleResolved routes a combat result into the war score. The
// winner's team must belong to one side of the war.
func (s *Services) HandleBattleResolved(ctx context.Context, eventID string, warID uuid.UUID, winnerTeamID uuid.UUID, value int64) error {
	war, err := s.War.GetWar(ctx, warID)
	if err != nil {
		return err
	}

	var side domain.WarSide
	switch winnerTeamID {
	case war.AggressorID:
		side = domain.SideAggressor
	case war.DefenderID:
		side = domain.SideDefender
	default:
		return fmt.Errorf("team %s is not a party to war %s: %w", winnerTeamID, warID, domain.ErrInvalidOperation)
	}

	_, err = s.War.ApplyBattleEvent(ctx, warID, eventID, side, value)
	return err
}

// HandleSectorActivity routes gameplay presence in a sector into
// influence accrual for the actor's team.
func (s *Services) HandleSectorActivity(ctx context.Context, sectorID string, actorID uuid.UUID, delta int) error {
	member, err := s.Membership.TeamOf(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil
		}
		return err
	}
	_, err = s.Territory.ApplyInfluence(ctx, sectorID, actorID, member.TeamID, delta, time.Now())
	return err
}
