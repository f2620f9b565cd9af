package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"github.com/mvaldes/quadrant-governance/internal/service"
)

// Actor is a test player identity. Identity lives outside this engine, so
// tests mint their own ids and tokens.
type Actor struct {
	ID    uuid.UUID
	Token string
}

// NewTestActor mints an actor against the server's configured secret
func (ts *TestServer) NewTestActor(t *testing.T) *Actor {
	t.Helper()
	return newActor(t, ts.Config.JWTSecret)
}

func newActor(t *testing.T, secret string) *Actor {
	t.Helper()

	id := uuid.New()
	claims := jwt.MapClaims{
		"sub": id.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return &Actor{ID: id, Token: signed}
}

// TeamBuilder creates funded teams through the membership service
type TeamBuilder struct {
	name     string
	tag      string
	teamType domain.TeamType
	capacity int
	funding  int64
}

// NewTeamBuilder creates a new TeamBuilder with default values
func NewTeamBuilder() *TeamBuilder {
	suffix := uuid.New().String()[:4]
	return &TeamBuilder{
		name:     fmt.Sprintf("Team %s", suffix),
		tag:      "T" + suffix[:3],
		teamType: domain.TeamTypeSocial,
		funding:  1000,
	}
}

// WithName sets the team name
func (b *TeamBuilder) WithName(name string) *TeamBuilder {
	b.name = name
	return b
}

// WithTag sets the team tag
func (b *TeamBuilder) WithTag(tag string) *TeamBuilder {
	b.tag = tag
	return b
}

// WithType sets the team type
func (b *TeamBuilder) WithType(teamType domain.TeamType) *TeamBuilder {
	b.teamType = teamType
	return b
}

// WithCapacity sets the roster capacity
func (b *TeamBuilder) WithCapacity(capacity int) *TeamBuilder {
	b.capacity = capacity
	return b
}

// WithFunding sets the founding capital pledge
func (b *TeamBuilder) WithFunding(funding int64) *TeamBuilder {
	b.funding = funding
	return b
}

// Build founds the team through the membership service, funding the
// founder's wallet first.
func (b *TeamBuilder) Build(t *testing.T, ts *TestServer, founder *Actor) *domain.Team {
	t.Helper()

	ts.Wallet.Fund(founder.ID, b.funding)
	team, err := ts.Services.Membership.CreateTeam(context.Background(), founder.ID, service.CreateTeamInput{
		Name:     b.name,
		Tag:      b.tag,
		Type:     b.teamType,
		Capacity: b.capacity,
		Funding:  b.funding,
	})
	if err != nil {
		t.Fatalf("failed to create team: %v", err)
	}
	return team
}

// JoinTeam invites the actor and accepts the invite, returning the new
// membership.
func JoinTeam(t *testing.T, ts *TestServer, teamID uuid.UUID, inviter, joiner *Actor) *domain.TeamMember {
	t.Helper()

	ctx := context.Background()
	invite, err := ts.Services.Membership.Invite(ctx, teamID, inviter.ID, joiner.ID)
	if err != nil {
		t.Fatalf("failed to invite: %v", err)
	}
	member, err := ts.Services.Membership.AcceptInvite(ctx, invite.Code, joiner.ID)
	if err != nil {
		t.Fatalf("failed to accept invite: %v", err)
	}
	return member
}

// DoRequest issues an authenticated JSON request against the test server
func (ts *TestServer) DoRequest(t *testing.T, actor *Actor, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.APIURL(path), reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+actor.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
