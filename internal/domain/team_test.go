package domain_test

import (
	"testing"
	"time"

	"github.com/mvaldes/quadrant-governance/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidTag(t *testing.T) {
	assert.True(t, domain.ValidTag("ABC"))
	assert.True(t, domain.ValidTag("ABCDE"))
	assert.True(t, domain.ValidTag("日本語"), "length counts runes, not bytes")

	assert.False(t, domain.ValidTag("AB"))
	assert.False(t, domain.ValidTag("ABCDEF"))
	assert.False(t, domain.ValidTag(""))
}

func TestTeamInvite_IsRedeemable(t *testing.T) {
	now := time.Now()
	used := now.Add(-time.Hour)

	tests := []struct {
		name   string
		invite domain.TeamInvite
		want   bool
	}{
		{"fresh invite", domain.TeamInvite{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired invite", domain.TeamInvite{ExpiresAt: now.Add(-time.Minute)}, false},
		{"used invite", domain.TeamInvite{ExpiresAt: now.Add(time.Hour), UsedAt: &used}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.invite.IsRedeemable(now))
		})
	}
}

func TestSector_IsContested(t *testing.T) {
	now := time.Now()
	open := now.Add(time.Hour)
	closed := now.Add(-time.Minute)

	assert.False(t, (&domain.Sector{}).IsContested(now))
	assert.True(t, (&domain.Sector{ContestedUntil: &open}).IsContested(now))
	assert.False(t, (&domain.Sector{ContestedUntil: &closed}).IsContested(now))
}

func TestAlliance_HasPact(t *testing.T) {
	pacts := domain.EncodePacts([]domain.Pact{domain.PactNoFire})

	active := &domain.Alliance{Status: domain.AllianceStatusActive, Pacts: pacts}
	assert.True(t, active.HasPact(domain.PactNoFire))
	assert.False(t, active.HasPact(domain.PactTradeBonus))

	// Pacts only bind while the alliance is active
	proposed := &domain.Alliance{Status: domain.AllianceStatusProposed, Pacts: pacts}
	assert.False(t, proposed.HasPact(domain.PactNoFire))
}
