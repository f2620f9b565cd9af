package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/api/middleware"
	"github.com/mvaldes/quadrant-governance/internal/service"
)

type TreasuryHandler struct {
	treasury *service.TreasuryService
}

func NewTreasuryHandler(treasury *service.TreasuryService) *TreasuryHandler {
	return &TreasuryHandler{treasury: treasury}
}

type AmountRequest struct {
	Amount int64 `json:"amount"`
}

type BalanceResponse struct {
	TeamID  string `json:"teamId"`
	Balance int64  `json:"balance"`
	TaxRate int    `json:"taxRate"`
}

type LedgerEntryResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Amount    int64     `json:"amount"`
	ActorID   *string   `json:"actorId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *TreasuryHandler) teamAndActor(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid team ID", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return teamID, actorID, true
}

func (h *TreasuryHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	teamID, actorID, ok := h.teamAndActor(w, r)
	if !ok {
		return
	}

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	balance, err := h.treasury.Deposit(r.Context(), teamID, actorID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (h *TreasuryHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	teamID, actorID, ok := h.teamAndActor(w, r)
	if !ok {
		return
	}

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	balance, err := h.treasury.Withdraw(r.Context(), teamID, actorID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (h *TreasuryHandler) Balance(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid team ID", http.StatusBadRequest)
		return
	}

	treasury, err := h.treasury.Balance(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		TeamID:  treasury.TeamID.String(),
		Balance: treasury.Balance,
		TaxRate: treasury.TaxRate,
	})
}

func (h *TreasuryHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid team ID", http.StatusBadRequest)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.treasury.Ledger(r.Context(), teamID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		line := LedgerEntryResponse{
			ID:        e.ID.String(),
			Kind:      string(e.Kind),
			Amount:    e.Amount,
			CreatedAt: e.CreatedAt,
		}
		if e.ActorID != nil {
			id := e.ActorID.String()
			line.ActorID = &id
		}
		resp = append(resp, line)
	}
	writeJSON(w, http.StatusOK, resp)
}

type TaxRateRequest struct {
	Rate int `json:"rate"`
}

func (h *TreasuryHandler) SetTaxRate(w http.ResponseWriter, r *http.Request) {
	teamID, actorID, ok := h.teamAndActor(w, r)
	if !ok {
		return
	}

	var req TaxRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.treasury.SetTaxRate(r.Context(), teamID, actorID, req.Rate); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
