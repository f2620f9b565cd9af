package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/config"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"github.com/mvaldes/quadrant-governance/internal/repository"
	"gorm.io/gorm"
)

// Wallet is the external personal-balance collaborator. Calls are bounded
// by the request context; a timeout surfaces as a retryable error, never as
// a silent state change.
type Wallet interface {
	Debit(ctx context.Context, actorID uuid.UUID, amount int64) error
}

// DissolutionHandler is invoked after a team has been soft-deleted. War,
// territory, and alliance logic register handlers instead of being
// referenced directly by the membership layer.
type DissolutionHandler func(ctx context.Context, teamID uuid.UUID)

type MembershipService struct {
	teamRepo     repository.TeamRepository
	memberRepo   repository.MemberRepository
	inviteRepo   repository.InviteRepository
	treasuryRepo repository.TreasuryRepository
	wallet       Wallet
	notifier     Notifier
	locks        *lockMap
	cfg          *config.Config

	onDissolved []DissolutionHandler
}

func NewMembershipService(
	teamRepo repository.TeamRepository,
	memberRepo repository.MemberRepository,
	inviteRepo repository.InviteRepository,
	treasuryRepo repository.TreasuryRepository,
	wallet Wallet,
	notifier Notifier,
	locks *lockMap,
	cfg *config.Config,
) *MembershipService {
	return &MembershipService{
		teamRepo:     teamRepo,
		memberRepo:   memberRepo,
		inviteRepo:   inviteRepo,
		treasuryRepo: treasuryRepo,
		wallet:       wallet,
		notifier:     notifier,
		locks:        locks,
		cfg:          cfg,
	}
}

// OnTeamDissolved registers a handler for the disbandment cascade. Must be
// called during wiring, before the service receives traffic.
func (s *MembershipService) OnTeamDissolved(h DissolutionHandler) {
	s.onDissolved = append(s.onDissolved, h)
}

type CreateTeamInput struct {
	Name     string
	Tag      string
	Type     domain.TeamType
	Capacity int
	Funding  int64
}

func (s *MembershipService) CreateTeam(ctx context.Context, founderID uuid.UUID, input CreateTeamInput) (*domain.Team, error) {
	if !domain.ValidTag(input.Tag) {
		return nil, domain.ErrInvalidTag
	}
	if !input.Type.IsValid() {
		return nil, domain.ErrInvalidOperation
	}
	if input.Funding < s.cfg.FoundingCost {
		return nil, domain.ErrInsufficientFunds
	}

	// One live team per actor
	if _, err := s.memberRepo.GetByActor(ctx, founderID); err == nil {
		return nil, domain.ErrInvalidOperation
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.teamRepo.GetByTag(ctx, input.Tag); err == nil {
		return nil, domain.ErrDuplicateTag
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Debit the founding cost from the founder's personal balance before
	// any state is created. A wallet failure aborts the whole operation.
	if err := s.wallet.Debit(ctx, founderID, s.cfg.FoundingCost); err != nil {
		return nil, err
	}

	capacity := input.Capacity
	if capacity <= 0 {
		capacity = domain.DefaultCapacity
	}

	team := &domain.Team{
		ID:        uuid.New(),
		Name:      input.Name,
		Tag:       input.Tag,
		Type:      input.Type,
		Capacity:  capacity,
		FounderID: founderID,
		CreatedAt: time.Now(),
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrDuplicateTag
		}
		return nil, err
	}

	founder := &domain.TeamMember{
		ID:       uuid.New(),
		TeamID:   team.ID,
		ActorID:  founderID,
		Role:     domain.RoleFounder,
		JoinedAt: time.Now(),
	}
	if err := s.memberRepo.Create(ctx, founder); err != nil {
		return nil, err
	}

	treasury := &domain.Treasury{
		ID:      uuid.New(),
		TeamID:  team.ID,
		Balance: 0,
		TaxRate: s.cfg.DefaultTaxRate,
	}
	if err := s.treasuryRepo.Create(ctx, treasury); err != nil {
		return nil, err
	}

	s.notifier.TeamStateChanged(domain.TeamStateChanged{
		TeamID:    team.ID,
		Change:    "created",
		ActorID:   founderID,
		Timestamp: time.Now(),
	})

	return s.teamRepo.GetByID(ctx, team.ID)
}

func (s *MembershipService) GetTeam(ctx context.Context, teamID uuid.UUID) (*domain.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

// Roster returns the team's members ordered by join time
func (s *MembershipService) Roster(ctx context.Context, teamID uuid.UUID) ([]*domain.TeamMember, error) {
	if _, err := s.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	return s.memberRepo.ListByTeam(ctx, teamID)
}

// TeamOf returns the live team membership for an actor
func (s *MembershipService) TeamOf(ctx context.Context, actorID uuid.UUID) (*domain.TeamMember, error) {
	member, err := s.memberRepo.GetByActor(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

func (s *MembershipService) Invite(ctx context.Context, teamID, inviterID, inviteeID uuid.UUID) (*domain.TeamInvite, error) {
	unlock := s.locks.Lock("team:" + teamID.String())
	defer unlock()

	team, _, err := s.authorize(ctx, teamID, inviterID, domain.ActionInvite)
	if err != nil {
		return nil, err
	}

	count, err := s.memberRepo.CountByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if count >= int64(team.Capacity) {
		return nil, domain.ErrCapacityExceeded
	}

	// Invitee must not already belong to a live team
	if _, err := s.memberRepo.GetByActor(ctx, inviteeID); err == nil {
		return nil, domain.ErrInvalidOperation
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	invite := &domain.TeamInvite{
		ID:        uuid.New(),
		TeamID:    teamID,
		InviterID: inviterID,
		InviteeID: inviteeID,
		Code:      generateInviteCode(),
		ExpiresAt: time.Now().Add(domain.InviteTTL),
		CreatedAt: time.Now(),
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, err
	}
	return invite, nil
}

func (s *MembershipService) AcceptInvite(ctx context.Context, code string, actorID uuid.UUID) (*domain.TeamMember, error) {
	invite, err := s.inviteRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInviteNotFound
		}
		return nil, err
	}
	if invite.InviteeID != actorID {
		return nil, domain.ErrPermissionDenied
	}
	if !invite.IsRedeemable(time.Now()) {
		return nil, domain.ErrInviteNotFound
	}

	unlock := s.locks.Lock("team:" + invite.TeamID.String())
	defer unlock()

	team, err := s.GetTeam(ctx, invite.TeamID)
	if err != nil {
		return nil, err
	}
	if team.IsDissolved() {
		return nil, domain.ErrTeamNotFound
	}

	// Capacity can have filled since the invite was issued
	count, err := s.memberRepo.CountByTeam(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	if count >= int64(team.Capacity) {
		return nil, domain.ErrCapacityExceeded
	}

	if _, err := s.memberRepo.GetByActor(ctx, actorID); err == nil {
		return nil, domain.ErrInvalidOperation
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	member := &domain.TeamMember{
		ID:       uuid.New(),
		TeamID:   team.ID,
		ActorID:  actorID,
		Role:     domain.RoleRecruit,
		JoinedAt: time.Now(),
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}

	now := time.Now()
	invite.UsedAt = &now
	if err := s.inviteRepo.Update(ctx, invite); err != nil {
		return nil, err
	}

	s.notifier.TeamStateChanged(domain.TeamStateChanged{
		TeamID:    team.ID,
		Change:    "member_joined",
		ActorID:   actorID,
		Timestamp: now,
	})
	return member, nil
}

func (s *MembershipService) Kick(ctx context.Context, teamID, actorID, targetID uuid.UUID) error {
	unlock := s.locks.Lock("team:" + teamID.String())
	defer unlock()

	_, actor, err := s.authorize(ctx, teamID, actorID, domain.ActionKick)
	if err != nil {
		return err
	}

	target, err := s.memberRepo.GetByTeamAndActor(ctx, teamID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrMemberNotFound
		}
		return err
	}

	if target.Role == domain.RoleFounder {
		return domain.ErrInvalidOperation
	}
	// Peers cannot remove each other; only a strictly senior member can
	if actor.Role != domain.RoleFounder && !topsRank(actor.Role, target.Role) {
		return domain.ErrPermissionDenied
	}

	if err := s.memberRepo.Delete(ctx, teamID, targetID); err != nil {
		return err
	}

	s.notifier.TeamStateChanged(domain.TeamStateChanged{
		TeamID:    teamID,
		Change:    "member_left",
		ActorID:   targetID,
		Timestamp: time.Now(),
	})
	return nil
}

func (s *MembershipService) Promote(ctx context.Context, teamID, actorID, targetID uuid.UUID) (*domain.TeamMember, error) {
	return s.changeRole(ctx, teamID, actorID, targetID, true)
}

func (s *MembershipService) Demote(ctx context.Context, teamID, actorID, targetID uuid.UUID) (*domain.TeamMember, error) {
	return s.changeRole(ctx, teamID, actorID, targetID, false)
}

func (s *MembershipService) changeRole(ctx context.Context, teamID, actorID, targetID uuid.UUID, up bool) (*domain.TeamMember, error) {
	unlock := s.locks.Lock("team:" + teamID.String())
	defer unlock()

	if _, _, err := s.authorize(ctx, teamID, actorID, domain.ActionPromote); err != nil {
		return nil, err
	}

	target, err := s.memberRepo.GetByTeamAndActor(ctx, teamID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	if target.Role == domain.RoleFounder {
		return nil, domain.ErrInvalidOperation
	}

	var next domain.TeamRole
	var ok bool
	if up {
		next, ok = target.Role.NextUp()
	} else {
		next, ok = target.Role.NextDown()
	}
	if !ok {
		return nil, domain.ErrInvalidOperation
	}

	target.Role = next
	if err := s.memberRepo.Update(ctx, target); err != nil {
		return nil, err
	}

	s.notifier.TeamStateChanged(domain.TeamStateChanged{
		TeamID:    teamID,
		Change:    "role_changed",
		ActorID:   targetID,
		Timestamp: time.Now(),
	})
	return target, nil
}

// TransferLeadership hands the founder role to another member. The outgoing
// founder steps down to officer.
func (s *MembershipService) TransferLeadership(ctx context.Context, teamID, founderID, newLeaderID uuid.UUID) error {
	unlock := s.locks.Lock("team:" + teamID.String())
	defer unlock()

	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.FounderID != founderID {
		return domain.ErrPermissionDenied
	}

	current, err := s.memberRepo.GetByTeamAndActor(ctx, teamID, founderID)
	if err != nil {
		return err
	}
	next, err := s.memberRepo.GetByTeamAndActor(ctx, teamID, newLeaderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrMemberNotFound
		}
		return err
	}

	current.Role = domain.RoleOfficer
	next.Role = domain.RoleFounder
	team.FounderID = newLeaderID

	if err := s.memberRepo.Update(ctx, current); err != nil {
		return err
	}
	if err := s.memberRepo.Update(ctx, next); err != nil {
		return err
	}
	if err := s.teamRepo.Update(ctx, team); err != nil {
		return err
	}

	s.notifier.TeamStateChanged(domain.TeamStateChanged{
		TeamID:    teamID,
		Change:    "role_changed",
		ActorID:   newLeaderID,
		Timestamp: time.Now(),
	})
	return nil
}

// Leave removes the acting member. Always permitted. A departing founder
// hands leadership to the most senior remaining member; the last member out
// disbands the team.
func (s *MembershipService) Leave(ctx context.Context, teamID, actorID uuid.UUID) error {
	unlock := s.locks.Lock("team:" + teamID.String())
	defer unlock()

	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}

	member, err := s.memberRepo.GetByTeamAndActor(ctx, teamID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrMemberNotFound
		}
		return err
	}

	if err := s.memberRepo.Delete(ctx, teamID, actorID); err != nil {
		return err
	}

	remaining, err := s.memberRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return err
	}

	if len(remaining) == 0 {
		return s.dissolve(ctx, team, actorID)
	}

	if member.Role == domain.RoleFounder {
		heir := seniorMost(remaining)
		heir.Role = domain.RoleFounder
		team.FounderID = heir.ActorID
		if err := s.memberRepo.Update(ctx, heir); err != nil {
			return err
		}
		if err := s.teamRepo.Update(ctx, team); err != nil {
			return err
		}
	}

	s.notifier.TeamStateChanged(domain.TeamStateChanged{
		TeamID:    teamID,
		Change:    "member_left",
		ActorID:   actorID,
		Timestamp: time.Now(),
	})
	return nil
}

// Disband soft-deletes the team. Founder only.
func (s *MembershipService) Disband(ctx context.Context, teamID, actorID uuid.UUID) error {
	unlock := s.locks.Lock("team:" + teamID.String())
	defer unlock()

	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.FounderID != actorID {
		return domain.ErrPermissionDenied
	}
	return s.dissolve(ctx, team, actorID)
}

func (s *MembershipService) dissolve(ctx context.Context, team *domain.Team, actorID uuid.UUID) error {
	if team.IsDissolved() {
		return domain.ErrInvalidOperation
	}

	now := time.Now()
	team.DissolvedAt = &now
	if err := s.teamRepo.Update(ctx, team); err != nil {
		return err
	}

	s.notifier.TeamStateChanged(domain.TeamStateChanged{
		TeamID:    team.ID,
		Change:    "dissolved",
		ActorID:   actorID,
		Timestamp: now,
	})

	// Cascade: influence decays to zero, open wars auto-cease, alliance
	// seats are vacated. Handlers own their aggregates and their locks.
	for _, h := range s.onDissolved {
		h(ctx, team.ID)
	}
	log.Printf("team %s (%s) dissolved", team.ID, team.Tag)
	return nil
}

// authorize loads the acting member and checks the team-type matrix
func (s *MembershipService) authorize(ctx context.Context, teamID, actorID uuid.UUID, action domain.Action) (*domain.Team, *domain.TeamMember, error) {
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}
	if team.IsDissolved() {
		return nil, nil, domain.ErrTeamNotFound
	}

	member, err := s.memberRepo.GetByTeamAndActor(ctx, teamID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrPermissionDenied
		}
		return nil, nil, err
	}

	if err := team.Matrix().Authorize(member.Role, action); err != nil {
		return nil, nil, err
	}
	return team, member, nil
}

// topsRank reports whether a strictly outranks b
func topsRank(a, b domain.TeamRole) bool {
	return a.Rank() > b.Rank()
}

// seniorMost picks the highest-ranked member, breaking ties by join time
func seniorMost(members []*domain.TeamMember) *domain.TeamMember {
	best := members[0]
	for _, m := range members[1:] {
		if m.Role.Rank() > best.Role.Rank() ||
			(m.Role.Rank() == best.Role.Rank() && m.JoinedAt.Before(best.JoinedAt)) {
			best = m
		}
	}
	return best
}

func generateInviteCode() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
