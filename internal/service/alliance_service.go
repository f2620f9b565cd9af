package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"github.com/mvaldes/quadrant-governance/internal/repository"
	"gorm.io/gorm"
)

// WarReader lets the council check standing conflicts without referencing
// the war engine directly.
type WarReader interface {
	HasActiveWarBetween(ctx context.Context, teamA, teamB uuid.UUID) (bool, error)
}

type AllianceService struct {
	allianceRepo repository.AllianceRepository
	teamRepo     repository.TeamRepository
	memberRepo   repository.MemberRepository
	wars         WarReader
	notifier     Notifier
	locks        *lockMap
}

func NewAllianceService(
	allianceRepo repository.AllianceRepository,
	teamRepo repository.TeamRepository,
	memberRepo repository.MemberRepository,
	wars WarReader,
	notifier Notifier,
	locks *lockMap,
) *AllianceService {
	return &AllianceService{
		allianceRepo: allianceRepo,
		teamRepo:     teamRepo,
		memberRepo:   memberRepo,
		wars:         wars,
		notifier:     notifier,
		locks:        locks,
	}
}

// ProspectiveMember names one team and its designated representative
type ProspectiveMember struct {
	TeamID           uuid.UUID
	RepresentativeID uuid.UUID
}

// Propose opens an alliance proposal. Any two prospective members at war
// with each other sink it immediately; the proposal activates only once
// every other representative accepts.
func (s *AllianceService) Propose(ctx context.Context, name string, initiator ProspectiveMember, others []ProspectiveMember) (*domain.Alliance, error) {
	all := append([]ProspectiveMember{initiator}, others...)
	if len(all) < 2 {
		return nil, domain.ErrInvalidOperation
	}

	seen := make(map[uuid.UUID]bool, len(all))
	for _, p := range all {
		if seen[p.TeamID] {
			return nil, domain.ErrInvalidOperation
		}
		seen[p.TeamID] = true

		team, err := s.teamRepo.GetByID(ctx, p.TeamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrTeamNotFound
			}
			return nil, err
		}
		if team.IsDissolved() {
			return nil, domain.ErrTeamNotFound
		}
	}

	// The initiating representative must hold the alliance capability in
	// their own team.
	team, err := s.teamRepo.GetByID(ctx, initiator.TeamID)
	if err != nil {
		return nil, err
	}
	member, err := s.memberRepo.GetByTeamAndActor(ctx, initiator.TeamID, initiator.RepresentativeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPermissionDenied
		}
		return nil, err
	}
	if err := team.Matrix().Authorize(member.Role, domain.ActionManageAlliance); err != nil {
		return nil, err
	}

	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			atWar, err := s.wars.HasActiveWarBetween(ctx, all[i].TeamID, all[j].TeamID)
			if err != nil {
				return nil, err
			}
			if atWar {
				return nil, domain.ErrConflictingWar
			}
		}
	}

	now := time.Now()
	alliance := &domain.Alliance{
		ID:         uuid.New(),
		Name:       name,
		Status:     domain.AllianceStatusProposed,
		Pacts:      domain.EncodePacts(nil),
		ProposedBy: initiator.RepresentativeID,
		CreatedAt:  now,
	}

	members := make([]*domain.AllianceMember, 0, len(all))
	for _, p := range all {
		m := &domain.AllianceMember{
			ID:               uuid.New(),
			TeamID:           p.TeamID,
			RepresentativeID: p.RepresentativeID,
			CreatedAt:        now,
		}
		if p.TeamID == initiator.TeamID {
			m.AcceptedAt = &now
		}
		members = append(members, m)
	}

	if err := s.allianceRepo.Create(ctx, alliance, members); err != nil {
		return nil, err
	}
	return s.allianceRepo.GetByID(ctx, alliance.ID)
}

// Respond records a prospective member's accept or reject. Acceptance by
// every representative activates the alliance; one rejection voids it.
func (s *AllianceService) Respond(ctx context.Context, allianceID, teamID, actorID uuid.UUID, accept bool) (*domain.Alliance, error) {
	unlock := s.locks.Lock("alliance:" + allianceID.String())
	defer unlock()

	alliance, err := s.get(ctx, allianceID)
	if err != nil {
		return nil, err
	}
	if alliance.Status != domain.AllianceStatusProposed {
		return nil, domain.ErrInvalidOperation
	}

	var seat *domain.AllianceMember
	for i := range alliance.Members {
		if alliance.Members[i].TeamID == teamID {
			seat = &alliance.Members[i]
			break
		}
	}
	if seat == nil {
		return nil, domain.ErrAllianceNotFound
	}
	if seat.RepresentativeID != actorID {
		return nil, domain.ErrPermissionDenied
	}

	if !accept {
		alliance.Status = domain.AllianceStatusRejected
		if err := s.allianceRepo.Update(ctx, alliance); err != nil {
			return nil, err
		}
		return alliance, nil
	}

	// Wars can have broken out since the proposal
	for _, other := range alliance.Members {
		if other.TeamID == teamID {
			continue
		}
		atWar, err := s.wars.HasActiveWarBetween(ctx, teamID, other.TeamID)
		if err != nil {
			return nil, err
		}
		if atWar {
			return nil, domain.ErrConflictingWar
		}
	}

	now := time.Now()
	seat.AcceptedAt = &now
	if err := s.allianceRepo.UpdateMember(ctx, seat); err != nil {
		return nil, err
	}

	allAccepted := true
	for _, m := range alliance.Members {
		if m.AcceptedAt == nil {
			allAccepted = false
			break
		}
	}
	if allAccepted {
		alliance.Status = domain.AllianceStatusActive
		if err := s.allianceRepo.Update(ctx, alliance); err != nil {
			return nil, err
		}
	}
	return s.allianceRepo.GetByID(ctx, allianceID)
}

// ProposePactChange puts a pact toggle to the council. The proposer's yes
// vote is cast immediately.
func (s *AllianceService) ProposePactChange(ctx context.Context, allianceID, teamID, actorID uuid.UUID, pact domain.Pact, enable bool) (*domain.PactProposal, error) {
	if !pact.IsValid() {
		return nil, domain.ErrInvalidOperation
	}

	unlock := s.locks.Lock("alliance:" + allianceID.String())
	defer unlock()

	alliance, err := s.get(ctx, allianceID)
	if err != nil {
		return nil, err
	}
	if alliance.Status != domain.AllianceStatusActive {
		return nil, domain.ErrInvalidOperation
	}
	if err := s.representative(alliance, teamID, actorID); err != nil {
		return nil, err
	}

	proposal := &domain.PactProposal{
		ID:         uuid.New(),
		AllianceID: allianceID,
		Pact:       pact,
		Enable:     enable,
		Status:     domain.PactProposalOpen,
		ProposedBy: actorID,
		CreatedAt:  time.Now(),
	}
	if err := s.allianceRepo.CreateProposal(ctx, proposal); err != nil {
		return nil, err
	}

	if err := s.castAndTally(ctx, alliance, proposal, teamID, true); err != nil {
		return nil, err
	}
	return s.allianceRepo.GetProposalByID(ctx, proposal.ID)
}

// Vote records one representative's decision on an open pact proposal. A
// simple majority of member teams adopts the change; once yes can no
// longer reach a majority the proposal is rejected; ties default to
// no change.
func (s *AllianceService) Vote(ctx context.Context, proposalID, teamID, actorID uuid.UUID, inFavor bool) (*domain.PactProposal, error) {
	proposal, err := s.allianceRepo.GetProposalByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAllianceNotFound
		}
		return nil, err
	}

	unlock := s.locks.Lock("alliance:" + proposal.AllianceID.String())
	defer unlock()

	// Reload under the lock
	proposal, err = s.allianceRepo.GetProposalByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Status != domain.PactProposalOpen {
		return nil, domain.ErrInvalidOperation
	}

	alliance, err := s.get(ctx, proposal.AllianceID)
	if err != nil {
		return nil, err
	}
	if err := s.representative(alliance, teamID, actorID); err != nil {
		return nil, err
	}

	if err := s.castAndTally(ctx, alliance, proposal, teamID, inFavor); err != nil {
		return nil, err
	}
	return s.allianceRepo.GetProposalByID(ctx, proposalID)
}

func (s *AllianceService) castAndTally(ctx context.Context, alliance *domain.Alliance, proposal *domain.PactProposal, teamID uuid.UUID, inFavor bool) error {
	err := s.allianceRepo.CastVote(ctx, &domain.PactVote{
		ID:         uuid.New(),
		ProposalID: proposal.ID,
		TeamID:     teamID,
		InFavor:    inFavor,
		CreatedAt:  time.Now(),
	})
	if err != nil && !errors.Is(err, domain.ErrStaleEvent) {
		return err
	}

	yes, no, err := s.allianceRepo.CountVotes(ctx, proposal.ID)
	if err != nil {
		return err
	}

	total := int64(len(alliance.Members))
	needed := total/2 + 1
	now := time.Now()

	switch {
	case yes >= needed:
		proposal.Status = domain.PactProposalAdopted
		proposal.ResolvedAt = &now
		if err := s.allianceRepo.UpdateProposal(ctx, proposal); err != nil {
			return err
		}
		return s.applyPactChange(ctx, alliance, proposal)
	case no > total-needed || yes+no == total:
		// Yes can no longer reach a majority, or everyone voted and the
		// tally fell short.
		proposal.Status = domain.PactProposalRejected
		proposal.ResolvedAt = &now
		return s.allianceRepo.UpdateProposal(ctx, proposal)
	}
	return nil
}

func (s *AllianceService) applyPactChange(ctx context.Context, alliance *domain.Alliance, proposal *domain.PactProposal) error {
	pacts, err := alliance.DecodePacts()
	if err != nil {
		return err
	}

	next := pacts[:0]
	for _, p := range pacts {
		if p != proposal.Pact {
			next = append(next, p)
		}
	}
	if proposal.Enable {
		next = append(next, proposal.Pact)
	}

	alliance.Pacts = domain.EncodePacts(next)
	return s.allianceRepo.Update(ctx, alliance)
}

// GetAlliance returns one alliance with its member seats
func (s *AllianceService) GetAlliance(ctx context.Context, allianceID uuid.UUID) (*domain.Alliance, error) {
	return s.get(ctx, allianceID)
}

// ListForTeam returns a team's active alliances
func (s *AllianceService) ListForTeam(ctx context.Context, teamID uuid.UUID) ([]*domain.Alliance, error) {
	return s.allianceRepo.ListActiveByTeam(ctx, teamID)
}

// HasNoFireBetween reports an active no-fire pact shared by two teams.
// Read by the war engine before any declaration.
func (s *AllianceService) HasNoFireBetween(ctx context.Context, teamA, teamB uuid.UUID) (bool, error) {
	shared, err := s.allianceRepo.ListActiveSharedBy(ctx, teamA, teamB)
	if err != nil {
		return false, err
	}
	for _, alliance := range shared {
		if alliance.HasPact(domain.PactNoFire) {
			return true, nil
		}
	}
	return false, nil
}

// HasTradeBonus reports whether any of the team's active alliances holds a
// trade-bonus pact. Read by territory revenue ticks.
func (s *AllianceService) HasTradeBonus(ctx context.Context, teamID uuid.UUID) (bool, error) {
	alliances, err := s.allianceRepo.ListActiveByTeam(ctx, teamID)
	if err != nil {
		return false, err
	}
	for _, alliance := range alliances {
		if alliance.HasPact(domain.PactTradeBonus) {
			return true, nil
		}
	}
	return false, nil
}

// HandleTeamDissolved vacates the dissolved team's seats. Alliances left
// with fewer than two members dissolve with them.
func (s *AllianceService) HandleTeamDissolved(ctx context.Context, teamID uuid.UUID) {
	alliances, err := s.allianceRepo.ListActiveByTeam(ctx, teamID)
	if err != nil {
		log.Printf("ERROR [alliance] dissolution sweep for team %s: %v", teamID, err)
		return
	}

	if err := s.allianceRepo.RemoveMemberByTeam(ctx, teamID); err != nil {
		log.Printf("ERROR [alliance] vacating seats for team %s: %v", teamID, err)
		return
	}

	now := time.Now()
	for _, alliance := range alliances {
		remaining := 0
		for _, m := range alliance.Members {
			if m.TeamID != teamID {
				remaining++
			}
		}
		if remaining < 2 {
			unlock := s.locks.Lock("alliance:" + alliance.ID.String())
			alliance.Status = domain.AllianceStatusDissolved
			alliance.DissolvedAt = &now
			if err := s.allianceRepo.Update(ctx, alliance); err != nil {
				log.Printf("ERROR [alliance] dissolving alliance %s: %v", alliance.ID, err)
			}
			unlock()
		}
	}
}

func (s *AllianceService) get(ctx context.Context, allianceID uuid.UUID) (*domain.Alliance, error) {
	alliance, err := s.allianceRepo.GetByID(ctx, allianceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAllianceNotFound
		}
		return nil, err
	}
	return alliance, nil
}

func (s *AllianceService) representative(alliance *domain.Alliance, teamID, actorID uuid.UUID) error {
	for _, m := range alliance.Members {
		if m.TeamID == teamID {
			if m.RepresentativeID != actorID {
				return domain.ErrPermissionDenied
			}
			return nil
		}
	}
	return domain.ErrAllianceNotFound
}
