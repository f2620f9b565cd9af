package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"github.com/mvaldes/quadrant-governance/internal/repository/postgres"
	"github.com/mvaldes/quadrant-governance/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTeamWithTreasury(t *testing.T, db *gorm.DB) *domain.Team {
	t.Helper()
	ctx := context.Background()

	teams := postgres.NewTeamRepository(db)
	treasuries := postgres.NewTreasuryRepository(db)

	team := &domain.Team{
		ID:        uuid.New(),
		Name:      "Ledger Test Team",
		Tag:       "L" + uuid.New().String()[:3],
		Type:      domain.TeamTypeSocial,
		Capacity:  domain.DefaultCapacity,
		FounderID: uuid.New(),
		CreatedAt: time.Now(),
	}
	require.NoError(t, teams.Create(ctx, team))
	require.NoError(t, treasuries.Create(ctx, &domain.Treasury{
		ID:      uuid.New(),
		TeamID:  team.ID,
		Balance: 0,
		TaxRate: 10,
	}))
	return team
}

func TestTreasuryRepository_ApplyEntry(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewTreasuryRepository(testDB.DB)
	ctx := context.Background()

	team := createTeamWithTreasury(t, testDB.DB)

	t.Run("credits and debits move the balance", func(t *testing.T) {
		balance, err := repo.ApplyEntry(ctx, &domain.TreasuryEntry{
			ID:     uuid.New(),
			TeamID: team.ID,
			Kind:   domain.EntryDeposit,
			Amount: 400,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(400), balance)

		balance, err = repo.ApplyEntry(ctx, &domain.TreasuryEntry{
			ID:     uuid.New(),
			TeamID: team.ID,
			Kind:   domain.EntryWithdrawal,
			Amount: -150,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(250), balance)
	})

	t.Run("overdraw rolls back entirely", func(t *testing.T) {
		_, err := repo.ApplyEntry(ctx, &domain.TreasuryEntry{
			ID:     uuid.New(),
			TeamID: team.ID,
			Kind:   domain.EntryWithdrawal,
			Amount: -100000,
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

		treasury, err := repo.GetByTeamID(ctx, team.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(250), treasury.Balance)

		entries, err := repo.ListEntries(ctx, team.ID, 50, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("duplicate event id applies once", func(t *testing.T) {
		eventID := uuid.NewString()
		entry := func() *domain.TreasuryEntry {
			return &domain.TreasuryEntry{
				ID:      uuid.New(),
				TeamID:  team.ID,
				Kind:    domain.EntryTax,
				Amount:  50,
				EventID: &eventID,
			}
		}

		balance, err := repo.ApplyEntry(ctx, entry())
		require.NoError(t, err)
		assert.Equal(t, int64(300), balance)

		balance, err = repo.ApplyEntry(ctx, entry())
		assert.ErrorIs(t, err, domain.ErrStaleEvent)
		assert.Equal(t, int64(300), balance)
	})

	t.Run("unknown team", func(t *testing.T) {
		_, err := repo.ApplyEntry(ctx, &domain.TreasuryEntry{
			ID:     uuid.New(),
			TeamID: uuid.New(),
			Kind:   domain.EntryDeposit,
			Amount: 10,
		})
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestInviteRepository_DeleteExpired(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewInviteRepository(testDB.DB)
	ctx := context.Background()

	team := createTeamWithTreasury(t, testDB.DB)

	stale := &domain.TeamInvite{
		ID:        uuid.New(),
		TeamID:    team.ID,
		InviterID: team.FounderID,
		InviteeID: uuid.New(),
		Code:      uuid.New().String()[:12],
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	fresh := &domain.TeamInvite{
		ID:        uuid.New(),
		TeamID:    team.ID,
		InviterID: team.FounderID,
		InviteeID: uuid.New(),
		Code:      uuid.New().String()[:12],
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, fresh))

	deleted, err := repo.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetByCode(ctx, stale.Code)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	kept, err := repo.GetByCode(ctx, fresh.Code)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, kept.ID)
}

func TestSectorRepository_UpsertInfluence(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSectorRepository(testDB.DB)
	ctx := context.Background()

	teamID := uuid.New()
	sector, err := repo.GetOrCreate(ctx, &domain.Sector{ID: "repo-sector-1", TaxRevenue: 25, TradeBonus: 8})
	require.NoError(t, err)
	assert.Equal(t, "repo-sector-1", sector.ID)
	assert.Equal(t, int64(25), sector.TaxRevenue)
	assert.Equal(t, int64(8), sector.TradeBonus)

	// Second call returns the same row; the existing revenue figures win
	again, err := repo.GetOrCreate(ctx, &domain.Sector{ID: "repo-sector-1", TaxRevenue: 99, TradeBonus: 99})
	require.NoError(t, err)
	assert.Equal(t, sector.ID, again.ID)
	assert.Equal(t, int64(25), again.TaxRevenue)

	inf := &domain.SectorInfluence{
		ID:             uuid.New(),
		SectorID:       sector.ID,
		TeamID:         teamID,
		Value:          30,
		LastDelta:      30,
		LastActivityAt: time.Now(),
	}
	require.NoError(t, repo.UpsertInfluence(ctx, inf))

	inf.Value = 45
	inf.LastDelta = 15
	require.NoError(t, repo.UpsertInfluence(ctx, inf))

	listed, err := repo.ListInfluence(ctx, sector.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 45, listed[0].Value)
}
