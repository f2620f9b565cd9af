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

func TestMembershipService_CreateTeam(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	t.Run("successful founding", func(t *testing.T) {
		founder := ts.NewTestActor(t)
		ts.Wallet.Fund(founder.ID, 5000)

		team, err := ts.Services.Membership.CreateTeam(ctx, founder.ID, service.CreateTeamInput{
			Name:    "Ashen Concord",
			Tag:     "ASH",
			Type:    domain.TeamTypeSocial,
			Funding: 1000,
		})
		require.NoError(t, err)
		assert.Equal(t, "ASH", team.Tag)
		assert.Equal(t, domain.DefaultCapacity, team.Capacity)
		assert.Equal(t, founder.ID, team.FounderID)

		// Founding cost left the founder's wallet
		assert.Equal(t, int64(4000), ts.Wallet.Balance(founder.ID))

		// Founder holds the founder role
		member, err := ts.Services.Membership.TeamOf(ctx, founder.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleFounder, member.Role)

		// Treasury exists, empty, at the default tax rate
		treasury, err := ts.Services.Treasury.Balance(ctx, team.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), treasury.Balance)
		assert.Equal(t, ts.Config.DefaultTaxRate, treasury.TaxRate)
	})

	t.Run("tag must be 3-5 symbols", func(t *testing.T) {
		founder := ts.NewTestActor(t)
		ts.Wallet.Fund(founder.ID, 5000)

		_, err := ts.Services.Membership.CreateTeam(ctx, founder.ID, service.CreateTeamInput{
			Name: "Shorties", Tag: "AB", Type: domain.TeamTypeSocial, Funding: 1000,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidTag)
	})

	t.Run("funding below founding cost", func(t *testing.T) {
		founder := ts.NewTestActor(t)
		ts.Wallet.Fund(founder.ID, 5000)

		_, err := ts.Services.Membership.CreateTeam(ctx, founder.ID, service.CreateTeamInput{
			Name: "Paupers", Tag: "POOR", Type: domain.TeamTypeSocial, Funding: 500,
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})

	t.Run("wallet without the founding cost", func(t *testing.T) {
		founder := ts.NewTestActor(t)
		ts.Wallet.Fund(founder.ID, 100)

		_, err := ts.Services.Membership.CreateTeam(ctx, founder.ID, service.CreateTeamInput{
			Name: "Dreamers", Tag: "DRM", Type: domain.TeamTypeSocial, Funding: 1000,
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})

	t.Run("duplicate tag", func(t *testing.T) {
		a := ts.NewTestActor(t)
		b := ts.NewTestActor(t)
		testutil.NewTeamBuilder().WithTag("DUPE").Build(t, ts, a)

		ts.Wallet.Fund(b.ID, 5000)
		_, err := ts.Services.Membership.CreateTeam(ctx, b.ID, service.CreateTeamInput{
			Name: "Copycats", Tag: "DUPE", Type: domain.TeamTypeSocial, Funding: 1000,
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateTag)
	})

	t.Run("dissolved team's tag is reusable", func(t *testing.T) {
		first := ts.NewTestActor(t)
		team := testutil.NewTeamBuilder().WithTag("ECHO").Build(t, ts, first)
		require.NoError(t, ts.Services.Membership.Disband(ctx, team.ID, first.ID))

		second := ts.NewTestActor(t)
		ts.Wallet.Fund(second.ID, 5000)
		reborn, err := ts.Services.Membership.CreateTeam(ctx, second.ID, service.CreateTeamInput{
			Name: "Echo Reborn", Tag: "ECHO", Type: domain.TeamTypeSocial, Funding: 1000,
		})
		require.NoError(t, err)
		assert.Equal(t, "ECHO", reborn.Tag)
	})

	t.Run("one live team per actor", func(t *testing.T) {
		founder := ts.NewTestActor(t)
		testutil.NewTeamBuilder().Build(t, ts, founder)

		ts.Wallet.Fund(founder.ID, 5000)
		_, err := ts.Services.Membership.CreateTeam(ctx, founder.ID, service.CreateTeamInput{
			Name: "Second Home", Tag: "TWO", Type: domain.TeamTypeSocial, Funding: 1000,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	})
}

func TestMembershipService_InviteAndAccept(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	founder := ts.NewTestActor(t)
	team := testutil.NewTeamBuilder().Build(t, ts, founder)

	t.Run("joiner enters as recruit", func(t *testing.T) {
		joiner := ts.NewTestActor(t)
		member := testutil.JoinTeam(t, ts, team.ID, founder, joiner)
		assert.Equal(t, domain.RoleRecruit, member.Role)
	})

	t.Run("recruit cannot invite", func(t *testing.T) {
		recruit := ts.NewTestActor(t)
		testutil.JoinTeam(t, ts, team.ID, founder, recruit)

		outsider := ts.NewTestActor(t)
		_, err := ts.Services.Membership.Invite(ctx, team.ID, recruit.ID, outsider.ID)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("invite is single use", func(t *testing.T) {
		joiner := ts.NewTestActor(t)
		invite, err := ts.Services.Membership.Invite(ctx, team.ID, founder.ID, joiner.ID)
		require.NoError(t, err)

		_, err = ts.Services.Membership.AcceptInvite(ctx, invite.Code, joiner.ID)
		require.NoError(t, err)

		// The joiner already belongs to a team now, but a second redeem
		// must fail on the used code regardless of who tries.
		_, err = ts.Services.Membership.AcceptInvite(ctx, invite.Code, joiner.ID)
		assert.Error(t, err)
	})

	t.Run("only the invitee can redeem", func(t *testing.T) {
		invitee := ts.NewTestActor(t)
		interloper := ts.NewTestActor(t)
		invite, err := ts.Services.Membership.Invite(ctx, team.ID, founder.ID, invitee.ID)
		require.NoError(t, err)

		_, err = ts.Services.Membership.AcceptInvite(ctx, invite.Code, interloper.ID)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})
}

func TestMembershipService_Capacity(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	founder := ts.NewTestActor(t)
	team := testutil.NewTeamBuilder().WithCapacity(2).Build(t, ts, founder)

	testutil.JoinTeam(t, ts, team.ID, founder, ts.NewTestActor(t))

	// Roster is full: founder + one
	late := ts.NewTestActor(t)
	_, err := ts.Services.Membership.Invite(ctx, team.ID, founder.ID, late.ID)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
}

func TestMembershipService_Kick(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	founder := ts.NewTestActor(t)
	team := testutil.NewTeamBuilder().Build(t, ts, founder)

	officerA := ts.NewTestActor(t)
	officerB := ts.NewTestActor(t)
	recruit := ts.NewTestActor(t)
	for _, a := range []*testutil.Actor{officerA, officerB, recruit} {
		testutil.JoinTeam(t, ts, team.ID, founder, a)
	}
	for _, a := range []*testutil.Actor{officerA, officerB} {
		// recruit -> member -> veteran -> officer
		for i := 0; i < 3; i++ {
			_, err := ts.Services.Membership.Promote(ctx, team.ID, founder.ID, a.ID)
			require.NoError(t, err)
		}
	}

	t.Run("founder cannot be kicked", func(t *testing.T) {
		err := ts.Services.Membership.Kick(ctx, team.ID, officerA.ID, founder.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	})

	t.Run("peers cannot kick each other", func(t *testing.T) {
		err := ts.Services.Membership.Kick(ctx, team.ID, officerA.ID, officerB.ID)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("senior member can kick junior", func(t *testing.T) {
		err := ts.Services.Membership.Kick(ctx, team.ID, officerA.ID, recruit.ID)
		require.NoError(t, err)

		_, err = ts.Services.Membership.TeamOf(ctx, recruit.ID)
		assert.ErrorIs(t, err, domain.ErrMemberNotFound)
	})
}

func TestMembershipService_PromotionCapsAtOfficer(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	founder := ts.NewTestActor(t)
	team := testutil.NewTeamBuilder().Build(t, ts, founder)

	target := ts.NewTestActor(t)
	testutil.JoinTeam(t, ts, team.ID, founder, target)

	roles := []domain.TeamRole{domain.RoleMember, domain.RoleVeteran, domain.RoleOfficer}
	for _, want := range roles {
		member, err := ts.Services.Membership.Promote(ctx, team.ID, founder.ID, target.ID)
		require.NoError(t, err)
		assert.Equal(t, want, member.Role)
	}

	// Officer is the ceiling; founder rank moves only by transfer
	_, err := ts.Services.Membership.Promote(ctx, team.ID, founder.ID, target.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestMembershipService_TransferLeadership(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	founder := ts.NewTestActor(t)
	team := testutil.NewTeamBuilder().Build(t, ts, founder)

	successor := ts.NewTestActor(t)
	testutil.JoinTeam(t, ts, team.ID, founder, successor)

	require.NoError(t, ts.Services.Membership.TransferLeadership(ctx, team.ID, founder.ID, successor.ID))

	newLeader, err := ts.Services.Membership.TeamOf(ctx, successor.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFounder, newLeader.Role)

	// The outgoing founder steps down to officer
	old, err := ts.Services.Membership.TeamOf(ctx, founder.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOfficer, old.Role)

	updated, err := ts.Services.Membership.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, successor.ID, updated.FounderID)
}

func TestMembershipService_Leave(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	t.Run("departing founder hands off to most senior", func(t *testing.T) {
		founder := ts.NewTestActor(t)
		team := testutil.NewTeamBuilder().Build(t, ts, founder)

		veteran := ts.NewTestActor(t)
		recruit := ts.NewTestActor(t)
		testutil.JoinTeam(t, ts, team.ID, founder, veteran)
		testutil.JoinTeam(t, ts, team.ID, founder, recruit)
		for i := 0; i < 2; i++ {
			_, err := ts.Services.Membership.Promote(ctx, team.ID, founder.ID, veteran.ID)
			require.NoError(t, err)
		}

		require.NoError(t, ts.Services.Membership.Leave(ctx, team.ID, founder.ID))

		heir, err := ts.Services.Membership.TeamOf(ctx, veteran.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleFounder, heir.Role)

		// The departed founder is gone for good, not re-saved alongside the
		// team row, and the roster shrank accordingly
		_, err = ts.Services.Membership.TeamOf(ctx, founder.ID)
		assert.ErrorIs(t, err, domain.ErrMemberNotFound)

		got, err := ts.Services.Membership.GetTeam(ctx, team.ID)
		require.NoError(t, err)
		assert.Len(t, got.Members, 2)
	})

	t.Run("last member out dissolves the team", func(t *testing.T) {
		founder := ts.NewTestActor(t)
		team := testutil.NewTeamBuilder().Build(t, ts, founder)

		require.NoError(t, ts.Services.Membership.Leave(ctx, team.ID, founder.ID))

		got, err := ts.Services.Membership.GetTeam(ctx, team.ID)
		require.NoError(t, err)
		assert.True(t, got.IsDissolved())
		assert.Empty(t, got.Members)

		_, err = ts.Services.Membership.TeamOf(ctx, founder.ID)
		assert.ErrorIs(t, err, domain.ErrMemberNotFound)
	})
}

func TestMembershipService_Disband(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ctx := context.Background()

	founder := ts.NewTestActor(t)
	team := testutil.NewTeamBuilder().Build(t, ts, founder)

	officer := ts.NewTestActor(t)
	testutil.JoinTeam(t, ts, team.ID, founder, officer)

	err := ts.Services.Membership.Disband(ctx, team.ID, officer.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	require.NoError(t, ts.Services.Membership.Disband(ctx, team.ID, founder.ID))

	got, err := ts.Services.Membership.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDissolved())

	// Dissolved members are freed to found or join again
	_, err = ts.Services.Membership.TeamOf(ctx, officer.ID)
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
}
