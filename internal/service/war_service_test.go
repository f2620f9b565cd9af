package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"github.com/mvaldes/quadrant-governance/internal/service"
	"github.com/mvaldes/quadrant-governance/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// belligerents founds two combat teams with funded treasuries, ready to
// declare on each other.
func belligerents(t *testing.T, ts *testutil.TestServer) (*testutil.Actor, *domain.Team, *testutil.Actor, *domain.Team) {
	t.Helper()
	ctx := context.Background()

	aFounder := ts.NewTestActor(t)
	a := testutil.NewTeamBuilder().WithType(domain.TeamTypeCombat).Build(t, ts, aFounder)
	bFounder := ts.NewTestActor(t)
	b := testutil.NewTeamBuilder().WithType(domain.TeamTypeCombat).Build(t, ts, bFounder)

	for _, pair := range []struct {
		founder *testutil.Actor
		team    *domain.Team
	}{{aFounder, a}, {bFounder, b}} {
		_, err := ts.Services.Treasury.Deposit(ctx, pair.team.ID, pair.founder.ID, 2000)
		require.NoError(t, err)
	}
	return aFounder, a, bFounder, b
}

func TestWarService_DeclareWar(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	t.Run("declaration costs the aggressor treasury", func(t *testing.T) {
		aFounder, a, _, b := belligerents(t, ts)

		war, err := ts.Services.War.DeclareWar(ctx, a.ID, b.ID, aFounder.ID, domain.WarTerms{})
		require.NoError(t, err)
		assert.Equal(t, domain.WarStatusActive, war.Status)
		assert.Equal(t, a.ID, war.AggressorID)

		// Default duration kicks in when terms omit one
		assert.WithinDuration(t, war.StartedAt.Add(ts.Config.DefaultWarDuration), war.EndsAt, time.Second)

		treasury, err := ts.Services.Treasury.Balance(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 2000-ts.Config.WarDeclarationCost, treasury.Balance)
	})

	t.Run("empty treasury blocks the declaration", func(t *testing.T) {
		aFounder := ts.NewTestActor(t)
		a := testutil.NewTeamBuilder().WithType(domain.TeamTypeCombat).Build(t, ts, aFounder)
		bFounder := ts.NewTestActor(t)
		b := testutil.NewTeamBuilder().WithType(domain.TeamTypeCombat).Build(t, ts, bFounder)
		_ = bFounder

		_, err := ts.Services.War.DeclareWar(ctx, a.ID, b.ID, aFounder.ID, domain.WarTerms{})
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})

	t.Run("recruit cannot declare", func(t *testing.T) {
		aFounder, a, _, b := belligerents(t, ts)
		recruit := ts.NewTestActor(t)
		testutil.JoinTeam(t, ts, a.ID, aFounder, recruit)

		_, err := ts.Services.War.DeclareWar(ctx, a.ID, b.ID, recruit.ID, domain.WarTerms{})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("no war against yourself", func(t *testing.T) {
		aFounder, a, _, _ := belligerents(t, ts)
		_, err := ts.Services.War.DeclareWar(ctx, a.ID, a.ID, aFounder.ID, domain.WarTerms{})
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	})

	t.Run("one active war per pair, either direction", func(t *testing.T) {
		aFounder, a, bFounder, b := belligerents(t, ts)

		_, err := ts.Services.War.DeclareWar(ctx, a.ID, b.ID, aFounder.ID, domain.WarTerms{})
		require.NoError(t, err)

		_, err = ts.Services.War.DeclareWar(ctx, a.ID, b.ID, aFounder.ID, domain.WarTerms{})
		assert.ErrorIs(t, err, domain.ErrAlreadyAtWar)

		_, err = ts.Services.War.DeclareWar(ctx, b.ID, a.ID, bFounder.ID, domain.WarTerms{})
		assert.ErrorIs(t, err, domain.ErrAlreadyAtWar)
	})
}

func TestWarService_NoFirePactBlocksDeclaration(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	aFounder, a, bFounder, b := belligerents(t, ts)

	alliance, err := ts.Services.Alliance.Propose(ctx, "Detente",
		service.ProspectiveMember{TeamID: a.ID, RepresentativeID: aFounder.ID},
		[]service.ProspectiveMember{{TeamID: b.ID, RepresentativeID: bFounder.ID}})
	require.NoError(t, err)
	_, err = ts.Services.Alliance.Respond(ctx, alliance.ID, b.ID, bFounder.ID, true)
	require.NoError(t, err)

	proposal, err := ts.Services.Alliance.ProposePactChange(ctx, alliance.ID, a.ID, aFounder.ID, domain.PactNoFire, true)
	require.NoError(t, err)
	_, err = ts.Services.Alliance.Vote(ctx, proposal.ID, b.ID, bFounder.ID, true)
	require.NoError(t, err)

	_, err = ts.Services.War.DeclareWar(ctx, a.ID, b.ID, aFounder.ID, domain.WarTerms{})
	assert.ErrorIs(t, err, domain.ErrPactViolation)
}

func TestWarService_BattleEvents(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	aFounder, a, _, b := belligerents(t, ts)
	war, err := ts.Services.War.DeclareWar(ctx, a.ID, b.ID, aFounder.ID, domain.WarTerms{ScoreLimit: 5})
	require.NoError(t, err)

	t.Run("replayed event scores once", func(t *testing.T) {
		eventID := uuid.NewString()
		updated, err := ts.Services.War.ApplyBattleEvent(ctx, war.ID, eventID, domain.SideAggressor, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.AggressorScore)

		updated, err = ts.Services.War.ApplyBattleEvent(ctx, war.ID, eventID, domain.SideAggressor, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.AggressorScore)
	})

	t.Run("negative value rejected", func(t *testing.T) {
		_, err := ts.Services.War.ApplyBattleEvent(ctx, war.ID, uuid.NewString(), domain.SideDefender, -1)
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	})

	t.Run("score limit ceases the war", func(t *testing.T) {
		_, err := ts.Services.War.ApplyBattleEvent(ctx, war.ID, uuid.NewString(), domain.SideAggressor, 3)
		require.NoError(t, err)

		ceased, err := ts.Services.War.GetWar(ctx, war.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.WarStatusCeased, ceased.Status)
		require.NotNil(t, ceased.Outcome)
		assert.Equal(t, domain.OutcomeAggressor, *ceased.Outcome)
	})

	t.Run("ceased war takes no further battles", func(t *testing.T) {
		_, err := ts.Services.War.ApplyBattleEvent(ctx, war.ID, uuid.NewString(), domain.SideDefender, 1)
		assert.ErrorIs(t, err, domain.ErrWarCeased)
	})
}

func TestWarService_TickExpiry(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	aFounder, a, _, b := belligerents(t, ts)
	war, err := ts.Services.War.DeclareWar(ctx, a.ID, b.ID, aFounder.ID, domain.WarTerms{DurationHours: 1})
	require.NoError(t, err)

	_, err = ts.Services.War.ApplyBattleEvent(ctx, war.ID, uuid.NewString(), domain.SideDefender, 4)
	require.NoError(t, err)

	// Before the duration elapses nothing changes
	require.NoError(t, ts.Services.War.Tick(ctx, time.Now()))
	active, err := ts.Services.War.GetWar(ctx, war.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WarStatusActive, active.Status)

	// Past the end the leading side wins
	require.NoError(t, ts.Services.War.Tick(ctx, time.Now().Add(2*time.Hour)))
	ceased, err := ts.Services.War.GetWar(ctx, war.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WarStatusCeased, ceased.Status)
	require.NotNil(t, ceased.Outcome)
	assert.Equal(t, domain.OutcomeDefender, *ceased.Outcome)
}

func TestWarService_TickDraw(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	aFounder, a, _, b := belligerents(t, ts)
	war, err := ts.Services.War.DeclareWar(ctx, a.ID, b.ID, aFounder.ID, domain.WarTerms{DurationHours: 1})
	require.NoError(t, err)

	require.NoError(t, ts.Services.War.Tick(ctx, time.Now().Add(2*time.Hour)))
	ceased, err := ts.Services.War.GetWar(ctx, war.ID)
	require.NoError(t, err)
	require.NotNil(t, ceased.Outcome)
	assert.Equal(t, domain.OutcomeDraw, *ceased.Outcome)
}

func TestWarService_DissolutionSurrenders(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	aFounder, a, bFounder, b := belligerents(t, ts)
	war, err := ts.Services.War.DeclareWar(ctx, a.ID, b.ID, aFounder.ID, domain.WarTerms{})
	require.NoError(t, err)

	require.NoError(t, ts.Services.Membership.Disband(ctx, b.ID, bFounder.ID))

	ceased, err := ts.Services.War.GetWar(ctx, war.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WarStatusCeased, ceased.Status)
	require.NotNil(t, ceased.Outcome)
	assert.Equal(t, domain.OutcomeAggressor, *ceased.Outcome)
}
