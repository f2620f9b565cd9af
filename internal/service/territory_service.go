package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/config"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"github.com/mvaldes/quadrant-governance/internal/repository"
	"gorm.io/gorm"
)

// PactReader exposes the alliance pact effects territory logic consumes
type PactReader interface {
	HasTradeBonus(ctx context.Context, teamID uuid.UUID) (bool, error)
}

type TerritoryService struct {
	sectorRepo repository.SectorRepository
	teamRepo   repository.TeamRepository
	memberRepo repository.MemberRepository
	treasury   *TreasuryService
	pacts      PactReader
	notifier   Notifier
	locks      *lockMap
	cfg        *config.Config
}

func NewTerritoryService(
	sectorRepo repository.SectorRepository,
	teamRepo repository.TeamRepository,
	memberRepo repository.MemberRepository,
	treasury *TreasuryService,
	pacts PactReader,
	notifier Notifier,
	locks *lockMap,
	cfg *config.Config,
) *TerritoryService {
	return &TerritoryService{
		sectorRepo: sectorRepo,
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		treasury:   treasury,
		pacts:      pacts,
		notifier:   notifier,
		locks:      locks,
		cfg:        cfg,
	}
}

// ApplyInfluence adds delta to the team's influence in a sector, created
// lazily on first contact. The per-sector total across all teams never
// exceeds 100: excess is clipped off the contributing delta. Crossing the
// flip threshold against a standing rival opens a contested grace window;
// crossing it in an empty, uncontrolled sector takes control immediately.
func (s *TerritoryService) ApplyInfluence(ctx context.Context, sectorID string, actorID, teamID uuid.UUID, delta int, now time.Time) (*domain.SectorInfluence, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}
	if team.IsDissolved() {
		return nil, domain.ErrTeamNotFound
	}
	// The contributing actor must belong to the team it claims for
	if _, err := s.memberRepo.GetByTeamAndActor(ctx, teamID, actorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPermissionDenied
		}
		return nil, err
	}

	unlock := s.locks.Lock("sector:" + sectorID)
	defer unlock()

	sector, err := s.sectorRepo.GetOrCreate(ctx, &domain.Sector{
		ID:         sectorID,
		TaxRevenue: s.cfg.SectorTaxRevenue,
		TradeBonus: s.cfg.SectorTradeBonus,
	})
	if err != nil {
		return nil, err
	}

	influence, err := s.sectorRepo.ListInfluence(ctx, sectorID)
	if err != nil {
		return nil, err
	}

	var mine *domain.SectorInfluence
	othersTotal := 0
	rivalsHold := false
	for _, inf := range influence {
		if inf.TeamID == teamID {
			mine = inf
			continue
		}
		othersTotal += inf.Value
		if inf.Value > 0 {
			rivalsHold = true
		}
	}
	if mine == nil {
		mine = &domain.SectorInfluence{
			ID:       uuid.New(),
			SectorID: sectorID,
			TeamID:   teamID,
		}
	}

	// Clip so the sector total stays within the cap, and the team's own
	// value within [0, 100].
	applied := delta
	if room := domain.MaxSectorInfluence - othersTotal - mine.Value; applied > room {
		applied = room
	}
	if mine.Value+applied < 0 {
		applied = -mine.Value
	}

	prevValue := mine.Value
	mine.Value += applied
	mine.LastDelta = applied
	mine.LastActivityAt = now
	if err := s.sectorRepo.UpsertInfluence(ctx, mine); err != nil {
		return nil, err
	}

	if err := s.advanceContest(ctx, sector, mine, prevValue, rivalsHold, now); err != nil {
		return nil, err
	}
	return mine, nil
}

// advanceContest applies the two-phase flip rules after an influence write.
// The caller holds the sector lock.
func (s *TerritoryService) advanceContest(ctx context.Context, sector *domain.Sector, mine *domain.SectorInfluence, prevValue int, rivalsHold bool, now time.Time) error {
	teamID := mine.TeamID

	if sector.IsContested(now) {
		challenger := *sector.ChallengerID
		switch {
		case teamID == challenger && mine.Value < domain.FlipThreshold:
			// Challenger slipped under the threshold on their own
			sector.ChallengerID = nil
			sector.ContestedUntil = nil
			sector.PrevControllerID = nil
			return s.sectorRepo.Update(ctx, sector)
		case teamID != challenger && mine.LastDelta > 0:
			// Counter-influence during the window voids the contest.
			// The standing controller keeps the sector.
			sector.ChallengerID = nil
			sector.ContestedUntil = nil
			sector.PrevControllerID = nil
			return s.sectorRepo.Update(ctx, sector)
		}
		return nil
	}

	crossed := prevValue < domain.FlipThreshold && mine.Value >= domain.FlipThreshold
	alreadyControls := sector.ControllerID != nil && *sector.ControllerID == teamID
	if !crossed || alreadyControls {
		return nil
	}

	if rivalsHold || sector.ControllerID != nil {
		// Standing claims exist: open the grace window instead of
		// flipping outright.
		until := now.Add(s.cfg.ContestGrace)
		sector.ChallengerID = &teamID
		sector.PrevControllerID = sector.ControllerID
		sector.ContestedUntil = &until
		return s.sectorRepo.Update(ctx, sector)
	}

	// Empty sector, nobody to contest: control transfers immediately
	prev := sector.ControllerID
	sector.ControllerID = &teamID
	if err := s.sectorRepo.Update(ctx, sector); err != nil {
		return err
	}
	s.notifier.TerritoryControlChanged(domain.TerritoryControlChanged{
		SectorID:           sector.ID,
		PreviousController: prev,
		NewController:      &teamID,
		Timestamp:          now,
	})
	return nil
}

// ResolveContests commits or reverts every contest whose grace window has
// elapsed. A flip commits only when the challenger still holds the
// threshold and strictly leads every rival; anything less reverts to the
// pre-contest controller.
func (s *TerritoryService) ResolveContests(ctx context.Context, now time.Time) error {
	sectors, err := s.sectorRepo.ListContestedExpiring(ctx, now)
	if err != nil {
		return err
	}

	for _, sector := range sectors {
		if err := s.resolveContest(ctx, sector, now); err != nil {
			log.Printf("ERROR [territory] resolving contest in sector %s: %v", sector.ID, err)
		}
	}
	return nil
}

func (s *TerritoryService) resolveContest(ctx context.Context, stale *domain.Sector, now time.Time) error {
	unlock := s.locks.Lock("sector:" + stale.ID)
	defer unlock()

	// Reload under the lock; the sweep list may be stale
	sector, err := s.sectorRepo.GetByID(ctx, stale.ID)
	if err != nil {
		return err
	}
	if sector.ChallengerID == nil || sector.ContestedUntil == nil || now.Before(*sector.ContestedUntil) {
		return nil
	}

	challenger := *sector.ChallengerID
	influence, err := s.sectorRepo.ListInfluence(ctx, sector.ID)
	if err != nil {
		return err
	}

	challengerValue := 0
	for _, inf := range influence {
		if inf.TeamID == challenger {
			challengerValue = inf.Value
			break
		}
	}
	leads := challengerValue >= domain.FlipThreshold
	for _, inf := range influence {
		if inf.TeamID != challenger && inf.Value >= challengerValue {
			leads = false
		}
	}

	prev := sector.ControllerID
	sector.ChallengerID = nil
	sector.ContestedUntil = nil
	sector.PrevControllerID = nil

	if !leads {
		// Revert: the pre-contest controller keeps the sector
		return s.sectorRepo.Update(ctx, sector)
	}

	sector.ControllerID = &challenger
	if err := s.sectorRepo.Update(ctx, sector); err != nil {
		return err
	}
	s.notifier.TerritoryControlChanged(domain.TerritoryControlChanged{
		SectorID:           sector.ID,
		PreviousController: prev,
		NewController:      &challenger,
		Timestamp:          now,
	})
	return nil
}

// Decay reduces influence for teams with no recent sector activity. Runs on
// the sweep cadence, never from member actions. A controller decayed to
// zero loses the sector.
func (s *TerritoryService) Decay(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-s.cfg.DecayIdleAfter)
	idle, err := s.sectorRepo.ListInfluenceIdleSince(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, inf := range idle {
		if err := s.decayOne(ctx, inf, now); err != nil {
			log.Printf("ERROR [territory] decay in sector %s team %s: %v", inf.SectorID, inf.TeamID, err)
		}
	}
	return nil
}

func (s *TerritoryService) decayOne(ctx context.Context, stale *domain.SectorInfluence, now time.Time) error {
	unlock := s.locks.Lock("sector:" + stale.SectorID)
	defer unlock()

	influence, err := s.sectorRepo.ListInfluence(ctx, stale.SectorID)
	if err != nil {
		return err
	}
	var inf *domain.SectorInfluence
	for _, candidate := range influence {
		if candidate.TeamID == stale.TeamID {
			inf = candidate
			break
		}
	}
	if inf == nil || inf.Value == 0 {
		return nil
	}

	amount := s.cfg.DecayAmount
	if amount > inf.Value {
		amount = inf.Value
	}
	inf.Value -= amount
	inf.LastDelta = -amount
	// LastActivityAt stays put: decay is not activity, and the team keeps
	// decaying until it acts or bottoms out.
	if err := s.sectorRepo.UpsertInfluence(ctx, inf); err != nil {
		return err
	}

	if inf.Value > 0 {
		return nil
	}

	sector, err := s.sectorRepo.GetByID(ctx, stale.SectorID)
	if err != nil {
		return err
	}
	if sector.ControllerID != nil && *sector.ControllerID == inf.TeamID {
		prev := sector.ControllerID
		sector.ControllerID = nil
		if err := s.sectorRepo.Update(ctx, sector); err != nil {
			return err
		}
		s.notifier.TerritoryControlChanged(domain.TerritoryControlChanged{
			SectorID:           sector.ID,
			PreviousController: prev,
			NewController:      nil,
			Timestamp:          now,
		})
	}
	if sector.ChallengerID != nil && *sector.ChallengerID == inf.TeamID {
		sector.ChallengerID = nil
		sector.ContestedUntil = nil
		sector.PrevControllerID = nil
		if err := s.sectorRepo.Update(ctx, sector); err != nil {
			return err
		}
	}
	return nil
}

// RevenueTick credits controlled sectors' revenue to their controllers'
// treasuries. Idempotent per sector per tick period; uncontrolled sectors
// generate nothing.
func (s *TerritoryService) RevenueTick(ctx context.Context, now time.Time) error {
	sectors, err := s.sectorRepo.ListControlled(ctx)
	if err != nil {
		return err
	}

	period := now.Truncate(s.cfg.RevenueTickInterval).Unix()
	for _, sector := range sectors {
		controller := *sector.ControllerID
		amount := sector.TaxRevenue

		bonus, err := s.pacts.HasTradeBonus(ctx, controller)
		if err != nil {
			log.Printf("ERROR [territory] pact lookup for team %s: %v", controller, err)
		} else if bonus {
			amount += sector.TradeBonus
		}

		tickKey := fmt.Sprintf("revenue:%s:%d", sector.ID, period)
		if _, err := s.treasury.CreditRevenue(ctx, controller, tickKey, amount); err != nil {
			log.Printf("ERROR [territory] revenue for sector %s: %v", sector.ID, err)
		}
	}
	return nil
}

// SectorState returns a sector with its influence standings
func (s *TerritoryService) SectorState(ctx context.Context, sectorID string) (*domain.Sector, error) {
	sector, err := s.sectorRepo.GetByID(ctx, sectorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSectorNotFound
		}
		return nil, err
	}
	return sector, nil
}

// OwnershipMap returns the sector -> controlling team mapping
func (s *TerritoryService) OwnershipMap(ctx context.Context) (map[string]uuid.UUID, error) {
	sectors, err := s.sectorRepo.ListControlled(ctx)
	if err != nil {
		return nil, err
	}
	owners := make(map[string]uuid.UUID, len(sectors))
	for _, sector := range sectors {
		owners[sector.ID] = *sector.ControllerID
	}
	return owners, nil
}

// HandleTeamDissolved zeroes the dissolved team's influence everywhere and
// releases any control or open contest it held.
func (s *TerritoryService) HandleTeamDissolved(ctx context.Context, teamID uuid.UUID) {
	sectorIDs, err := s.sectorRepo.ListSectorsWithInfluenceBy(ctx, teamID)
	if err != nil {
		log.Printf("ERROR [territory] dissolution sweep for team %s: %v", teamID, err)
		return
	}

	for _, sectorID := range sectorIDs {
		func() {
			unlock := s.locks.Lock("sector:" + sectorID)
			defer unlock()

			sector, err := s.sectorRepo.GetByID(ctx, sectorID)
			if err != nil {
				log.Printf("ERROR [territory] dissolution in sector %s: %v", sectorID, err)
				return
			}

			changed := false
			if sector.ControllerID != nil && *sector.ControllerID == teamID {
				prev := sector.ControllerID
				sector.ControllerID = nil
				changed = true
				s.notifier.TerritoryControlChanged(domain.TerritoryControlChanged{
					SectorID:           sectorID,
					PreviousController: prev,
					NewController:      nil,
					Timestamp:          time.Now(),
				})
			}
			if sector.ChallengerID != nil && *sector.ChallengerID == teamID {
				sector.ChallengerID = nil
				sector.ContestedUntil = nil
				sector.PrevControllerID = nil
				changed = true
			}
			if changed {
				if err := s.sectorRepo.Update(ctx, sector); err != nil {
					log.Printf("ERROR [territory] dissolution in sector %s: %v", sectorID, err)
				}
			}
		}()
	}

	if err := s.sectorRepo.DeleteInfluenceByTeam(ctx, teamID); err != nil {
		log.Printf("ERROR [territory] clearing influence for team %s: %v", teamID, err)
	}
}
