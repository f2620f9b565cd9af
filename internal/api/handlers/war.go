package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/api/middleware"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"github.com/mvaldes/quadrant-governance/internal/service"
)

type WarHandler struct {
	wars *service.WarService
}

func NewWarHandler(wars *service.WarService) *WarHandler {
	return &WarHandler{wars: wars}
}

type DeclareWarRequest struct {
	AggressorID   uuid.UUID `json:"aggressorId"`
	DefenderID    uuid.UUID `json:"defenderId"`
	DurationHours int       `json:"durationHours"`
	ScoreLimit    int64     `json:"scoreLimit"`
	TerritoryGoal int       `json:"territoryGoal"`
}

type WarResponse struct {
	ID             string     `json:"id"`
	AggressorID    string     `json:"aggressorId"`
	DefenderID     string     `json:"defenderId"`
	Status         string     `json:"status"`
	AggressorScore int64      `json:"aggressorScore"`
	DefenderScore  int64      `json:"defenderScore"`
	Outcome        *string    `json:"outcome,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	EndsAt         time.Time  `json:"endsAt"`
	CeasedAt       *time.Time `json:"ceasedAt,omitempty"`
}

func warResponse(war *domain.War) WarResponse {
	resp := WarResponse{
		ID:             war.ID.String(),
		AggressorID:    war.AggressorID.String(),
		DefenderID:     war.DefenderID.String(),
		Status:         string(war.Status),
		AggressorScore: war.AggressorScore,
		DefenderScore:  war.DefenderScore,
		StartedAt:      war.StartedAt,
		EndsAt:         war.EndsAt,
		CeasedAt:       war.CeasedAt,
	}
	if war.Outcome != nil {
		outcome := string(*war.Outcome)
		resp.Outcome = &outcome
	}
	return resp
}

func (h *WarHandler) Declare(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req DeclareWarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	war, err := h.wars.DeclareWar(r.Context(), req.AggressorID, req.DefenderID, actorID, domain.WarTerms{
		DurationHours: req.DurationHours,
		ScoreLimit:    req.ScoreLimit,
		TerritoryGoal: req.TerritoryGoal,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, warResponse(war))
}

func (h *WarHandler) Get(w http.ResponseWriter, r *http.Request) {
	warID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid war ID", http.StatusBadRequest)
		return
	}

	war, err := h.wars.GetWar(r.Context(), warID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, warResponse(war))
}

func (h *WarHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	wars, err := h.wars.ActiveWars(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]WarResponse, 0, len(wars))
	for _, war := range wars {
		resp = append(resp, warResponse(war))
	}
	writeJSON(w, http.StatusOK, resp)
}
