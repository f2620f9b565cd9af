package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// APIClient handles HTTP communication with the backend. It mints its own
// actor tokens, standing in for the external identity service.
type APIClient struct {
	baseURL    string
	secret     []byte
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL, secret string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api/v1",
		secret:  []byte(secret),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Actor is a fake player identity with a signed token
type Actor struct {
	ID    uuid.UUID
	Token string
}

// NewActor mints a new actor with a one-hour token
func (c *APIClient) NewActor() *Actor {
	id := uuid.New()
	claims := jwt.MapClaims{
		"sub": id.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		panic(err)
	}
	return &Actor{ID: id, Token: signed}
}

// Response types matching backend

type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tag  string `json:"tag"`
	Type string `json:"type"`
}

type War struct {
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	AggressorScore int64   `json:"aggressorScore"`
	DefenderScore  int64   `json:"defenderScore"`
	Outcome        *string `json:"outcome"`
}

type Sector struct {
	ID           string  `json:"id"`
	ControllerID *string `json:"controllerId"`
	Contested    bool    `json:"contested"`
}

// CreateTeam founds a team; funding covers the founding cost
func (c *APIClient) CreateTeam(actor *Actor, name, tag, teamType string) (*Team, error) {
	body := map[string]interface{}{
		"name":    name,
		"tag":     tag,
		"type":    teamType,
		"funding": 5000,
	}

	var team Team
	if err := c.do(actor, http.MethodPost, "/teams", body, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// Deposit moves credits into the team treasury
func (c *APIClient) Deposit(actor *Actor, teamID string, amount int64) (int64, error) {
	var resp struct {
		Balance int64 `json:"balance"`
	}
	err := c.do(actor, http.MethodPost, "/teams/"+teamID+"/treasury/deposit", map[string]int64{"amount": amount}, &resp)
	return resp.Balance, err
}

// DeclareWar opens a war between the two teams
func (c *APIClient) DeclareWar(actor *Actor, aggressorID, defenderID string, scoreLimit int64) (*War, error) {
	body := map[string]interface{}{
		"aggressorId": aggressorID,
		"defenderId":  defenderID,
		"scoreLimit":  scoreLimit,
	}

	var war War
	if err := c.do(actor, http.MethodPost, "/wars", body, &war); err != nil {
		return nil, err
	}
	return &war, nil
}

// ReportBattle feeds one battle event and returns the war after scoring
func (c *APIClient) ReportBattle(actor *Actor, warID, winnerTeamID string, value int64) (*War, error) {
	body := map[string]interface{}{
		"eventId":      uuid.NewString(),
		"warId":        warID,
		"winnerTeamId": winnerTeamID,
		"value":        value,
	}
	if err := c.do(actor, http.MethodPost, "/events/battle-resolved", body, nil); err != nil {
		return nil, err
	}

	var war War
	if err := c.do(actor, http.MethodGet, "/wars/"+warID, nil, &war); err != nil {
		return nil, err
	}
	return &war, nil
}

// SectorActivity feeds one influence event
func (c *APIClient) SectorActivity(actor *Actor, sectorID string, delta int) error {
	body := map[string]interface{}{
		"sectorId": sectorID,
		"actorId":  actor.ID.String(),
		"delta":    delta,
	}
	return c.do(actor, http.MethodPost, "/events/sector-activity", body, nil)
}

// GetSector fetches a sector's current standing
func (c *APIClient) GetSector(actor *Actor, sectorID string) (*Sector, error) {
	var sector Sector
	if err := c.do(actor, http.MethodGet, "/sectors/"+sectorID, nil, &sector); err != nil {
		return nil, err
	}
	return &sector, nil
}

func (c *APIClient) do(actor *Actor, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+actor.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s failed (status %d): %s", method, path, resp.StatusCode, string(data))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
