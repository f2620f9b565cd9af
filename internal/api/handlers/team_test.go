package handlers_test

import (
	"net/http"
	"testing"

	"github.com/mvaldes/quadrant-governance/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TeamResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Tag       string `json:"tag"`
	Type      string `json:"type"`
	Capacity  int    `json:"capacity"`
	FounderID string `json:"founderId"`
}

type MemberResponse struct {
	ActorID string `json:"actorId"`
	Role    string `json:"role"`
}

type InviteResponse struct {
	Code      string `json:"code"`
	TeamID    string `json:"teamId"`
	InviteeID string `json:"inviteeId"`
}

func TestTeamHandler_Create(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		funding        int64
		request        map[string]interface{}
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name:    "successful creation",
			funding: 2000,
			request: map[string]interface{}{
				"name":    "Crimson Accord",
				"tag":     "CRIM",
				"type":    "combat",
				"funding": 1000,
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result TeamResponse
				testutil.AssertJSONResponse(t, resp, &result)
				assert.NotEmpty(t, result.ID)
				assert.Equal(t, "CRIM", result.Tag)
				assert.Equal(t, "combat", result.Type)
				assert.Equal(t, 6, result.Capacity)
			},
		},
		{
			name:    "tag too short",
			funding: 2000,
			request: map[string]interface{}{
				"name":    "Shorthand",
				"tag":     "XY",
				"type":    "social",
				"funding": 1000,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "broke founder",
			funding: 0,
			request: map[string]interface{}{
				"name":    "Paupers",
				"tag":     "POOR",
				"type":    "social",
				"funding": 1000,
			},
			expectedStatus: http.StatusPaymentRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := ts.NewTestActor(t)
			if tt.funding > 0 {
				ts.Wallet.Fund(actor.ID, tt.funding)
			}

			resp := ts.DoRequest(t, actor, "POST", "/teams", tt.request)
			defer resp.Body.Close()

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}

	t.Run("unauthenticated request", func(t *testing.T) {
		resp, err := http.Post(ts.APIURL("/teams"), "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
	})
}

func TestTeamHandler_DuplicateTag(t *testing.T) {
	ts := testutil.NewTestServer(t)

	first := ts.NewTestActor(t)
	testutil.NewTeamBuilder().WithTag("SAME").Build(t, ts, first)

	second := ts.NewTestActor(t)
	ts.Wallet.Fund(second.ID, 2000)
	resp := ts.DoRequest(t, second, "POST", "/teams", map[string]interface{}{
		"name":    "Copy",
		"tag":     "SAME",
		"type":    "social",
		"funding": 1000,
	})
	defer resp.Body.Close()

	testutil.AssertErrorResponse(t, resp, http.StatusConflict, "already taken")
}

func TestTeamHandler_InviteFlow(t *testing.T) {
	ts := testutil.NewTestServer(t)

	founder := ts.NewTestActor(t)
	team := testutil.NewTeamBuilder().Build(t, ts, founder)
	joiner := ts.NewTestActor(t)

	resp := ts.DoRequest(t, founder, "POST", "/teams/"+team.ID.String()+"/invites",
		map[string]string{"inviteeId": joiner.ID.String()})
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var invite InviteResponse
	testutil.AssertJSONResponse(t, resp, &invite)
	require.NotEmpty(t, invite.Code)
	assert.Equal(t, joiner.ID.String(), invite.InviteeID)

	acceptResp := ts.DoRequest(t, joiner, "POST", "/invites/accept",
		map[string]string{"code": invite.Code})
	defer acceptResp.Body.Close()
	testutil.AssertStatusCode(t, acceptResp, http.StatusOK)

	var member MemberResponse
	testutil.AssertJSONResponse(t, acceptResp, &member)
	assert.Equal(t, "recruit", member.Role)

	t.Run("roster shows both", func(t *testing.T) {
		resp := ts.DoRequest(t, founder, "GET", "/teams/"+team.ID.String()+"/roster", nil)
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var roster []MemberResponse
		testutil.AssertJSONResponse(t, resp, &roster)
		assert.Len(t, roster, 2)
	})

	t.Run("me shows the joined team", func(t *testing.T) {
		resp := ts.DoRequest(t, joiner, "GET", "/me/team", nil)
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var result struct {
			Team   TeamResponse   `json:"team"`
			Member MemberResponse `json:"member"`
		}
		testutil.AssertJSONResponse(t, resp, &result)
		assert.Equal(t, team.ID.String(), result.Team.ID)
		assert.Equal(t, "recruit", result.Member.Role)
	})
}

func TestTeamHandler_Disband(t *testing.T) {
	ts := testutil.NewTestServer(t)

	founder := ts.NewTestActor(t)
	team := testutil.NewTeamBuilder().Build(t, ts, founder)

	outsider := ts.NewTestActor(t)
	forbidden := ts.DoRequest(t, outsider, "DELETE", "/teams/"+team.ID.String(), nil)
	defer forbidden.Body.Close()
	testutil.AssertStatusCode(t, forbidden, http.StatusForbidden)

	resp := ts.DoRequest(t, founder, "DELETE", "/teams/"+team.ID.String(), nil)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)
}
