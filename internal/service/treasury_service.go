package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"github.com/mvaldes/quadrant-governance/internal/repository"
	"gorm.io/gorm"
)

type TreasuryService struct {
	teamRepo     repository.TeamRepository
	memberRepo   repository.MemberRepository
	treasuryRepo repository.TreasuryRepository
	notifier     Notifier
	locks        *lockMap
}

func NewTreasuryService(
	teamRepo repository.TeamRepository,
	memberRepo repository.MemberRepository,
	treasuryRepo repository.TreasuryRepository,
	notifier Notifier,
	locks *lockMap,
) *TreasuryService {
	return &TreasuryService{
		teamRepo:     teamRepo,
		memberRepo:   memberRepo,
		treasuryRepo: treasuryRepo,
		notifier:     notifier,
		locks:        locks,
	}
}

// Deposit credits the team treasury. Any member may deposit; negative
// amounts are rejected.
func (s *TreasuryService) Deposit(ctx context.Context, teamID, actorID uuid.UUID, amount int64) (int64, error) {
	if amount < 0 {
		return 0, domain.ErrInvalidOperation
	}
	if _, err := s.member(ctx, teamID, actorID); err != nil {
		return 0, err
	}
	return s.apply(ctx, &domain.TreasuryEntry{
		ID:      uuid.New(),
		TeamID:  teamID,
		ActorID: &actorID,
		Kind:    domain.EntryDeposit,
		Amount:  amount,
	})
}

// Withdraw debits the team treasury. Requires the withdraw capability; a
// withdrawal exceeding the balance fails atomically with the balance
// unchanged.
func (s *TreasuryService) Withdraw(ctx context.Context, teamID, actorID uuid.UUID, amount int64) (int64, error) {
	if amount < 0 {
		return 0, domain.ErrInvalidOperation
	}
	if err := s.authorize(ctx, teamID, actorID, domain.ActionWithdraw); err != nil {
		return 0, err
	}
	return s.apply(ctx, &domain.TreasuryEntry{
		ID:      uuid.New(),
		TeamID:  teamID,
		ActorID: &actorID,
		Kind:    domain.EntryWithdrawal,
		Amount:  -amount,
	})
}

// AccrueTax applies the configured tax rate to a reported earnings event.
// Idempotent per event id: a retried delivery is a no-op success.
func (s *TreasuryService) AccrueTax(ctx context.Context, teamID uuid.UUID, eventID string, earnings int64) (int64, error) {
	if earnings < 0 {
		return 0, domain.ErrInvalidOperation
	}

	treasury, err := s.treasuryRepo.GetByTeamID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.ErrTeamNotFound
		}
		return 0, err
	}

	tax := earnings * int64(treasury.TaxRate) / 100
	if tax == 0 {
		return treasury.Balance, nil
	}

	balance, err := s.apply(ctx, &domain.TreasuryEntry{
		ID:      uuid.New(),
		TeamID:  teamID,
		Kind:    domain.EntryTax,
		Amount:  tax,
		EventID: &eventID,
	})
	if errors.Is(err, domain.ErrStaleEvent) {
		return balance, nil
	}
	return balance, err
}

// MissionReward credits a completed mission's team share, idempotent per
// event id.
func (s *TreasuryService) MissionReward(ctx context.Context, teamID uuid.UUID, eventID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidOperation
	}
	balance, err := s.apply(ctx, &domain.TreasuryEntry{
		ID:      uuid.New(),
		TeamID:  teamID,
		Kind:    domain.EntryMissionReward,
		Amount:  amount,
		EventID: &eventID,
	})
	if errors.Is(err, domain.ErrStaleEvent) {
		return balance, nil
	}
	return balance, err
}

// CreditRevenue books territory revenue for a control-period tick,
// idempotent per tick key.
func (s *TreasuryService) CreditRevenue(ctx context.Context, teamID uuid.UUID, tickKey string, amount int64) (int64, error) {
	balance, err := s.apply(ctx, &domain.TreasuryEntry{
		ID:      uuid.New(),
		TeamID:  teamID,
		Kind:    domain.EntrySectorRevenue,
		Amount:  amount,
		EventID: &tickKey,
	})
	if errors.Is(err, domain.ErrStaleEvent) {
		return balance, nil
	}
	return balance, err
}

// DebitWarCost removes the war declaration cost. Used by the war engine;
// permission checks happen there.
func (s *TreasuryService) DebitWarCost(ctx context.Context, teamID, actorID uuid.UUID, amount int64) (int64, error) {
	return s.apply(ctx, &domain.TreasuryEntry{
		ID:      uuid.New(),
		TeamID:  teamID,
		ActorID: &actorID,
		Kind:    domain.EntryWarCost,
		Amount:  -amount,
	})
}

// SetTaxRate updates the team's tax rate (0-100). Gated like withdrawals.
func (s *TreasuryService) SetTaxRate(ctx context.Context, teamID, actorID uuid.UUID, rate int) error {
	if rate < 0 || rate > 100 {
		return domain.ErrInvalidOperation
	}
	if err := s.authorize(ctx, teamID, actorID, domain.ActionWithdraw); err != nil {
		return err
	}

	unlock := s.locks.Lock("treasury:" + teamID.String())
	defer unlock()

	treasury, err := s.treasuryRepo.GetByTeamID(ctx, teamID)
	if err != nil {
		return err
	}
	treasury.TaxRate = rate
	return s.treasuryRepo.Update(ctx, treasury)
}

// Balance returns the current treasury balance
func (s *TreasuryService) Balance(ctx context.Context, teamID uuid.UUID) (*domain.Treasury, error) {
	treasury, err := s.treasuryRepo.GetByTeamID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}
	return treasury, nil
}

// Ledger returns recent ledger entries, newest first
func (s *TreasuryService) Ledger(ctx context.Context, teamID uuid.UUID, limit, offset int) ([]*domain.TreasuryEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.treasuryRepo.ListEntries(ctx, teamID, limit, offset)
}

func (s *TreasuryService) apply(ctx context.Context, entry *domain.TreasuryEntry) (int64, error) {
	unlock := s.locks.Lock("treasury:" + entry.TeamID.String())
	defer unlock()

	balance, err := s.treasuryRepo.ApplyEntry(ctx, entry)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.ErrTeamNotFound
		}
		return balance, err
	}

	s.notifier.TreasuryChanged(domain.TreasuryChanged{
		TeamID:    entry.TeamID,
		Balance:   balance,
		Timestamp: time.Now(),
	})
	return balance, nil
}

func (s *TreasuryService) member(ctx context.Context, teamID, actorID uuid.UUID) (*domain.TeamMember, error) {
	member, err := s.memberRepo.GetByTeamAndActor(ctx, teamID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPermissionDenied
		}
		return nil, err
	}
	return member, nil
}

func (s *TreasuryService) authorize(ctx context.Context, teamID, actorID uuid.UUID, action domain.Action) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrTeamNotFound
		}
		return err
	}
	member, err := s.member(ctx, teamID, actorID)
	if err != nil {
		return err
	}
	return team.Matrix().Authorize(member.Role, action)
}
