package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/config"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"github.com/mvaldes/quadrant-governance/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NoFireReader reports whether an active no-fire pact binds two teams
type NoFireReader interface {
	HasNoFireBetween(ctx context.Context, teamA, teamB uuid.UUID) (bool, error)
}

type WarService struct {
	warRepo    repository.WarRepository
	teamRepo   repository.TeamRepository
	memberRepo repository.MemberRepository
	sectorRepo repository.SectorRepository
	treasury   *TreasuryService
	noFire     NoFireReader
	notifier   Notifier
	locks      *lockMap
	cfg        *config.Config
}

func NewWarService(
	warRepo repository.WarRepository,
	teamRepo repository.TeamRepository,
	memberRepo repository.MemberRepository,
	sectorRepo repository.SectorRepository,
	treasury *TreasuryService,
	noFire NoFireReader,
	notifier Notifier,
	locks *lockMap,
	cfg *config.Config,
) *WarService {
	return &WarService{
		warRepo:    warRepo,
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		sectorRepo: sectorRepo,
		treasury:   treasury,
		noFire:     noFire,
		notifier:   notifier,
		locks:      locks,
		cfg:        cfg,
	}
}

// DeclareWar opens hostilities unilaterally: no acceptance step. The
// declaration cost comes out of the aggressor's treasury before the war
// exists; a failed debit aborts the declaration entirely.
func (s *WarService) DeclareWar(ctx context.Context, aggressorID, defenderID, declaredBy uuid.UUID, terms domain.WarTerms) (*domain.War, error) {
	if aggressorID == defenderID {
		return nil, domain.ErrInvalidOperation
	}

	aggressor, err := s.liveTeam(ctx, aggressorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.liveTeam(ctx, defenderID); err != nil {
		return nil, err
	}

	member, err := s.memberRepo.GetByTeamAndActor(ctx, aggressorID, declaredBy)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPermissionDenied
		}
		return nil, err
	}
	if err := aggressor.Matrix().Authorize(member.Role, domain.ActionDeclareWar); err != nil {
		return nil, err
	}

	noFire, err := s.noFire.HasNoFireBetween(ctx, aggressorID, defenderID)
	if err != nil {
		return nil, err
	}
	if noFire {
		return nil, domain.ErrPactViolation
	}

	// Pair key orders the two ids so A-vs-B and B-vs-A share a lock
	unlock := s.locks.Lock("warpair:" + pairKey(aggressorID, defenderID))
	defer unlock()

	if _, err := s.warRepo.GetActiveBetween(ctx, aggressorID, defenderID); err == nil {
		return nil, domain.ErrAlreadyAtWar
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.treasury.DebitWarCost(ctx, aggressorID, declaredBy, s.cfg.WarDeclarationCost); err != nil {
		return nil, err
	}

	duration := time.Duration(terms.DurationHours) * time.Hour
	if duration <= 0 {
		duration = s.cfg.DefaultWarDuration
		terms.DurationHours = int(duration / time.Hour)
	}

	rawTerms, err := json.Marshal(terms)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	war := &domain.War{
		ID:          uuid.New(),
		AggressorID: aggressorID,
		DefenderID:  defenderID,
		Status:      domain.WarStatusActive,
		Terms:       datatypes.JSON(rawTerms),
		DeclaredBy:  declaredBy,
		StartedAt:   now,
		EndsAt:      now.Add(duration),
	}
	if err := s.warRepo.Create(ctx, war); err != nil {
		return nil, err
	}

	s.notifier.WarStatusChanged(domain.WarStatusChanged{
		WarID:     war.ID,
		Status:    domain.WarStatusActive,
		Timestamp: now,
	})
	return war, nil
}

// ApplyBattleEvent credits a resolved battle to one side. Idempotent by
// event id: replayed deliveries change the score exactly once and report
// success. The war may cease immediately when a terms objective is met.
func (s *WarService) ApplyBattleEvent(ctx context.Context, warID uuid.UUID, eventID string, side domain.WarSide, value int64) (*domain.War, error) {
	if !side.IsValid() || value < 0 {
		return nil, domain.ErrInvalidOperation
	}

	unlock := s.locks.Lock("war:" + warID.String())
	defer unlock()

	war, err := s.warRepo.AppendBattle(ctx, &domain.WarBattle{
		ID:      uuid.New(),
		WarID:   warID,
		EventID: eventID,
		Side:    side,
		Value:   value,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrStaleEvent):
			return war, nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, domain.ErrWarNotFound
		default:
			return nil, err
		}
	}

	if err := s.checkObjectives(ctx, war, time.Now()); err != nil {
		return nil, err
	}
	return war, nil
}

// Tick advances every active war: duration expiry and terms objectives
// cease wars; everything else is untouched. Sweep-driven.
func (s *WarService) Tick(ctx context.Context, now time.Time) error {
	wars, err := s.warRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, war := range wars {
		if err := s.tickOne(ctx, war.ID, now); err != nil {
			log.Printf("ERROR [war] tick for war %s: %v", war.ID, err)
		}
	}
	return nil
}

func (s *WarService) tickOne(ctx context.Context, warID uuid.UUID, now time.Time) error {
	unlock := s.locks.Lock("war:" + warID.String())
	defer unlock()

	war, err := s.warRepo.GetByID(ctx, warID)
	if err != nil {
		return err
	}
	if war.Status != domain.WarStatusActive {
		return nil
	}

	if !now.Before(war.EndsAt) {
		return s.cease(ctx, war, outcomeByScore(war), now)
	}
	return s.checkObjectives(ctx, war, now)
}

// checkObjectives ceases the war early when a terms-defined win condition
// holds. The caller owns the war lock.
func (s *WarService) checkObjectives(ctx context.Context, war *domain.War, now time.Time) error {
	terms, err := war.DecodeTerms()
	if err != nil {
		return err
	}

	if terms.ScoreLimit > 0 {
		if war.AggressorScore >= terms.ScoreLimit || war.DefenderScore >= terms.ScoreLimit {
			return s.cease(ctx, war, outcomeByScore(war), now)
		}
	}

	if terms.TerritoryGoal > 0 {
		aggressorHeld, err := s.sectorRepo.CountControlledBy(ctx, war.AggressorID)
		if err != nil {
			return err
		}
		defenderHeld, err := s.sectorRepo.CountControlledBy(ctx, war.DefenderID)
		if err != nil {
			return err
		}
		switch {
		case aggressorHeld >= int64(terms.TerritoryGoal):
			return s.cease(ctx, war, domain.OutcomeAggressor, now)
		case defenderHeld >= int64(terms.TerritoryGoal):
			return s.cease(ctx, war, domain.OutcomeDefender, now)
		}
	}
	return nil
}

func (s *WarService) cease(ctx context.Context, war *domain.War, outcome domain.WarOutcome, now time.Time) error {
	war.Status = domain.WarStatusCeased
	war.Outcome = &outcome
	war.CeasedAt = &now
	if err := s.warRepo.Update(ctx, war); err != nil {
		return err
	}

	s.notifier.WarStatusChanged(domain.WarStatusChanged{
		WarID:   war.ID,
		Status:  domain.WarStatusCeased,
		Outcome: &outcome,
		FinalScore: &domain.WarScore{
			Aggressor: war.AggressorScore,
			Defender:  war.DefenderScore,
		},
		Timestamp: now,
	})
	return nil
}

// GetWar returns one war by id
func (s *WarService) GetWar(ctx context.Context, warID uuid.UUID) (*domain.War, error) {
	war, err := s.warRepo.GetByID(ctx, warID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWarNotFound
		}
		return nil, err
	}
	return war, nil
}

// ActiveWars lists all wars currently active
func (s *WarService) ActiveWars(ctx context.Context) ([]*domain.War, error) {
	return s.warRepo.ListActive(ctx)
}

// HasActiveWarBetween reports whether the pair is currently at war
func (s *WarService) HasActiveWarBetween(ctx context.Context, teamA, teamB uuid.UUID) (bool, error) {
	if _, err := s.warRepo.GetActiveBetween(ctx, teamA, teamB); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// HandleTeamDissolved auto-ceases every open war the dissolved team was
// fighting; the dissolved side surrenders.
func (s *WarService) HandleTeamDissolved(ctx context.Context, teamID uuid.UUID) {
	wars, err := s.warRepo.ListActiveInvolving(ctx, teamID)
	if err != nil {
		log.Printf("ERROR [war] dissolution sweep for team %s: %v", teamID, err)
		return
	}

	now := time.Now()
	for _, war := range wars {
		outcome := domain.OutcomeAggressor
		if war.AggressorID == teamID {
			outcome = domain.OutcomeDefender
		}

		unlock := s.locks.Lock("war:" + war.ID.String())
		fresh, err := s.warRepo.GetByID(ctx, war.ID)
		if err == nil && fresh.Status == domain.WarStatusActive {
			err = s.cease(ctx, fresh, outcome, now)
		}
		unlock()
		if err != nil {
			log.Printf("ERROR [war] auto-cease for war %s: %v", war.ID, err)
		}
	}
}

func (s *WarService) liveTeam(ctx context.Context, teamID uuid.UUID) (*domain.Team, error) {
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
	return team, nil
}

func outcomeByScore(war *domain.War) domain.WarOutcome {
	switch {
	case war.AggressorScore > war.DefenderScore:
		return domain.OutcomeAggressor
	case war.DefenderScore > war.AggressorScore:
		return domain.OutcomeDefender
	default:
		return domain.OutcomeDraw
	}
}

func pairKey(a, b uuid.UUID) string {
	if a.String() < b.String() {
		return a.String() + ":" + b.String()
	}
	return b.String() + ":" + a.String()
}
