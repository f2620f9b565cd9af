package service_test

import (
	"context"
	"testing"

	"github.com/mvaldes/quadrant-governance/internal/domain"
	"github.com/mvaldes/quadrant-governance/internal/service"
	"github.com/mvaldes/quadrant-governance/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type council struct {
	founders []*testutil.Actor
	teams    []*domain.Team
	alliance *domain.Alliance
}

// newCouncil founds n teams and activates an alliance between them, each
// founder serving as their team's representative.
func newCouncil(t *testing.T, ts *testutil.TestServer, n int) *council {
	t.Helper()
	ctx := context.Background()

	c := &council{}
	for i := 0; i < n; i++ {
		founder := ts.NewTestActor(t)
		c.founders = append(c.founders, founder)
		c.teams = append(c.teams, testutil.NewTeamBuilder().Build(t, ts, founder))
	}

	others := make([]service.ProspectiveMember, 0, n-1)
	for i := 1; i < n; i++ {
		others = append(others, service.ProspectiveMember{
			TeamID:           c.teams[i].ID,
			RepresentativeID: c.founders[i].ID,
		})
	}

	alliance, err := ts.Services.Alliance.Propose(ctx, "Concordat",
		service.ProspectiveMember{TeamID: c.teams[0].ID, RepresentativeID: c.founders[0].ID}, others)
	require.NoError(t, err)

	for i := 1; i < n; i++ {
		alliance, err = ts.Services.Alliance.Respond(ctx, alliance.ID, c.teams[i].ID, c.founders[i].ID, true)
		require.NoError(t, err)
	}
	require.Equal(t, domain.AllianceStatusActive, alliance.Status)
	c.alliance = alliance
	return c
}

func TestAllianceService_Propose(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	t.Run("initiator seat is pre-accepted", func(t *testing.T) {
		aFounder := ts.NewTestActor(t)
		a := testutil.NewTeamBuilder().Build(t, ts, aFounder)
		bFounder := ts.NewTestActor(t)
		b := testutil.NewTeamBuilder().Build(t, ts, bFounder)

		alliance, err := ts.Services.Alliance.Propose(ctx, "Entente",
			service.ProspectiveMember{TeamID: a.ID, RepresentativeID: aFounder.ID},
			[]service.ProspectiveMember{{TeamID: b.ID, RepresentativeID: bFounder.ID}})
		require.NoError(t, err)
		assert.Equal(t, domain.AllianceStatusProposed, alliance.Status)

		require.Len(t, alliance.Members, 2)
		for _, m := range alliance.Members {
			if m.TeamID == a.ID {
				assert.NotNil(t, m.AcceptedAt)
			} else {
				assert.Nil(t, m.AcceptedAt)
			}
		}
	})

	t.Run("needs at least two teams", func(t *testing.T) {
		founder := ts.NewTestActor(t)
		team := testutil.NewTeamBuilder().Build(t, ts, founder)

		_, err := ts.Services.Alliance.Propose(ctx, "Solo",
			service.ProspectiveMember{TeamID: team.ID, RepresentativeID: founder.ID}, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	})

	t.Run("recruit cannot initiate", func(t *testing.T) {
		aFounder := ts.NewTestActor(t)
		a := testutil.NewTeamBuilder().Build(t, ts, aFounder)
		recruit := ts.NewTestActor(t)
		testutil.JoinTeam(t, ts, a.ID, aFounder, recruit)
		bFounder := ts.NewTestActor(t)
		b := testutil.NewTeamBuilder().Build(t, ts, bFounder)

		_, err := ts.Services.Alliance.Propose(ctx, "Upstart",
			service.ProspectiveMember{TeamID: a.ID, RepresentativeID: recruit.ID},
			[]service.ProspectiveMember{{TeamID: b.ID, RepresentativeID: bFounder.ID}})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("warring teams cannot ally", func(t *testing.T) {
		aFounder, a, bFounder, b := belligerents(t, ts)
		_, err := ts.Services.War.DeclareWar(ctx, a.ID, b.ID, aFounder.ID, domain.WarTerms{})
		require.NoError(t, err)

		_, err = ts.Services.Alliance.Propose(ctx, "Impossible",
			service.ProspectiveMember{TeamID: a.ID, RepresentativeID: aFounder.ID},
			[]service.ProspectiveMember{{TeamID: b.ID, RepresentativeID: bFounder.ID}})
		assert.ErrorIs(t, err, domain.ErrConflictingWar)
	})
}

func TestAllianceService_Respond(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	propose := func(t *testing.T) (*domain.Alliance, *testutil.Actor, *domain.Team, *testutil.Actor, *domain.Team) {
		aFounder := ts.NewTestActor(t)
		a := testutil.NewTeamBuilder().Build(t, ts, aFounder)
		bFounder := ts.NewTestActor(t)
		b := testutil.NewTeamBuilder().Build(t, ts, bFounder)

		alliance, err := ts.Services.Alliance.Propose(ctx, "Pending",
			service.ProspectiveMember{TeamID: a.ID, RepresentativeID: aFounder.ID},
			[]service.ProspectiveMember{{TeamID: b.ID, RepresentativeID: bFounder.ID}})
		require.NoError(t, err)
		return alliance, aFounder, a, bFounder, b
	}

	t.Run("final acceptance activates", func(t *testing.T) {
		alliance, _, _, bFounder, b := propose(t)

		updated, err := ts.Services.Alliance.Respond(ctx, alliance.ID, b.ID, bFounder.ID, true)
		require.NoError(t, err)
		assert.Equal(t, domain.AllianceStatusActive, updated.Status)
	})

	t.Run("one rejection voids the proposal", func(t *testing.T) {
		alliance, _, _, bFounder, b := propose(t)

		updated, err := ts.Services.Alliance.Respond(ctx, alliance.ID, b.ID, bFounder.ID, false)
		require.NoError(t, err)
		assert.Equal(t, domain.AllianceStatusRejected, updated.Status)

		// Nothing more to respond to
		_, err = ts.Services.Alliance.Respond(ctx, alliance.ID, b.ID, bFounder.ID, true)
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	})

	t.Run("only the named representative may respond", func(t *testing.T) {
		alliance, _, _, bFounder, b := propose(t)

		other := ts.NewTestActor(t)
		testutil.JoinTeam(t, ts, b.ID, bFounder, other)

		_, err := ts.Services.Alliance.Respond(ctx, alliance.ID, b.ID, other.ID, true)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("war since the proposal blocks acceptance", func(t *testing.T) {
		alliance, aFounder, a, bFounder, b := propose(t)

		for _, pair := range []struct {
			founder *testutil.Actor
			team    *domain.Team
		}{{aFounder, a}, {bFounder, b}} {
			_, err := ts.Services.Treasury.Deposit(ctx, pair.team.ID, pair.founder.ID, 2000)
			require.NoError(t, err)
		}
		_, err := ts.Services.War.DeclareWar(ctx, a.ID, b.ID, aFounder.ID, domain.WarTerms{})
		require.NoError(t, err)

		_, err = ts.Services.Alliance.Respond(ctx, alliance.ID, b.ID, bFounder.ID, true)
		assert.ErrorIs(t, err, domain.ErrConflictingWar)
	})
}

func TestAllianceService_PactVotes(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	t.Run("majority adopts", func(t *testing.T) {
		c := newCouncil(t, ts, 3)

		// Proposer's yes counts; one more yes makes 2 of 3
		proposal, err := ts.Services.Alliance.ProposePactChange(ctx, c.alliance.ID, c.teams[0].ID, c.founders[0].ID, domain.PactTradeBonus, true)
		require.NoError(t, err)
		assert.Equal(t, domain.PactProposalOpen, proposal.Status)

		proposal, err = ts.Services.Alliance.Vote(ctx, proposal.ID, c.teams[1].ID, c.founders[1].ID, true)
		require.NoError(t, err)
		assert.Equal(t, domain.PactProposalAdopted, proposal.Status)

		bonus, err := ts.Services.Alliance.HasTradeBonus(ctx, c.teams[2].ID)
		require.NoError(t, err)
		assert.True(t, bonus)
	})

	t.Run("majority against rejects", func(t *testing.T) {
		c := newCouncil(t, ts, 3)

		proposal, err := ts.Services.Alliance.ProposePactChange(ctx, c.alliance.ID, c.teams[0].ID, c.founders[0].ID, domain.PactNoFire, true)
		require.NoError(t, err)

		_, err = ts.Services.Alliance.Vote(ctx, proposal.ID, c.teams[1].ID, c.founders[1].ID, false)
		require.NoError(t, err)
		proposal, err = ts.Services.Alliance.Vote(ctx, proposal.ID, c.teams[2].ID, c.founders[2].ID, false)
		require.NoError(t, err)
		assert.Equal(t, domain.PactProposalRejected, proposal.Status)

		noFire, err := ts.Services.Alliance.HasNoFireBetween(ctx, c.teams[0].ID, c.teams[1].ID)
		require.NoError(t, err)
		assert.False(t, noFire)
	})

	t.Run("tie defaults to no change", func(t *testing.T) {
		c := newCouncil(t, ts, 2)

		proposal, err := ts.Services.Alliance.ProposePactChange(ctx, c.alliance.ID, c.teams[0].ID, c.founders[0].ID, domain.PactNoFire, true)
		require.NoError(t, err)

		proposal, err = ts.Services.Alliance.Vote(ctx, proposal.ID, c.teams[1].ID, c.founders[1].ID, false)
		require.NoError(t, err)
		assert.Equal(t, domain.PactProposalRejected, proposal.Status)
	})

	t.Run("adopted disable removes the pact", func(t *testing.T) {
		c := newCouncil(t, ts, 2)

		enable, err := ts.Services.Alliance.ProposePactChange(ctx, c.alliance.ID, c.teams[0].ID, c.founders[0].ID, domain.PactTradeBonus, true)
		require.NoError(t, err)
		_, err = ts.Services.Alliance.Vote(ctx, enable.ID, c.teams[1].ID, c.founders[1].ID, true)
		require.NoError(t, err)

		bonus, err := ts.Services.Alliance.HasTradeBonus(ctx, c.teams[0].ID)
		require.NoError(t, err)
		require.True(t, bonus)

		disable, err := ts.Services.Alliance.ProposePactChange(ctx, c.alliance.ID, c.teams[0].ID, c.founders[0].ID, domain.PactTradeBonus, false)
		require.NoError(t, err)
		_, err = ts.Services.Alliance.Vote(ctx, disable.ID, c.teams[1].ID, c.founders[1].ID, true)
		require.NoError(t, err)

		bonus, err = ts.Services.Alliance.HasTradeBonus(ctx, c.teams[0].ID)
		require.NoError(t, err)
		assert.False(t, bonus)
	})

	t.Run("closed proposal takes no votes", func(t *testing.T) {
		c := newCouncil(t, ts, 2)

		proposal, err := ts.Services.Alliance.ProposePactChange(ctx, c.alliance.ID, c.teams[0].ID, c.founders[0].ID, domain.PactDefense, true)
		require.NoError(t, err)
		_, err = ts.Services.Alliance.Vote(ctx, proposal.ID, c.teams[1].ID, c.founders[1].ID, true)
		require.NoError(t, err)

		_, err = ts.Services.Alliance.Vote(ctx, proposal.ID, c.teams[1].ID, c.founders[1].ID, false)
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	})
}

func TestAllianceService_Dissolution(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	t.Run("two-member alliance collapses with a team", func(t *testing.T) {
		c := newCouncil(t, ts, 2)

		require.NoError(t, ts.Services.Membership.Disband(ctx, c.teams[1].ID, c.founders[1].ID))

		alliance, err := ts.Services.Alliance.GetAlliance(ctx, c.alliance.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AllianceStatusDissolved, alliance.Status)
		assert.NotNil(t, alliance.DissolvedAt)
	})

	t.Run("larger alliance just loses the seat", func(t *testing.T) {
		c := newCouncil(t, ts, 3)

		require.NoError(t, ts.Services.Membership.Disband(ctx, c.teams[2].ID, c.founders[2].ID))

		alliance, err := ts.Services.Alliance.GetAlliance(ctx, c.alliance.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AllianceStatusActive, alliance.Status)
		assert.Len(t, alliance.Members, 2)
	})
}
