package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/domain"
)

// Client talks to the external wallet service that owns personal
// balances. Every call is bounded by the configured timeout so a slow
// wallet cannot stall governance operations.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type debitRequest struct {
	ActorID uuid.UUID `json:"actorId"`
	Amount  int64     `json:"amount"`
	Reason  string    `json:"reason"`
}

// Debit removes amount from the actor's personal balance. A 402 from the
// wallet maps to domain.ErrInsufficientFunds.
func (c *Client) Debit(ctx context.Context, actorID uuid.UUID, amount int64) error {
	body, err := json.Marshal(debitRequest{ActorID: actorID, Amount: amount, Reason: "governance"})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/debits", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("wallet debit: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusPaymentRequired:
		return domain.ErrInsufficientFunds
	default:
		return fmt.Errorf("wallet debit: unexpected status %d", resp.StatusCode)
	}
}
