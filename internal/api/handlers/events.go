package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/mvaldes/quadrant-governance/internal/service"
)

// EventHandler ingests gameplay events from trusted game servers. Events
// carry caller-chosen ids and are safe to redeliver: a duplicate id is
// acknowledged without effect.
type EventHandler struct {
	services *service.Services
}

func NewEventHandler(services *service.Services) *EventHandler {
	return &EventHandler{services: services}
}

type TradeEventRequest struct {
	EventID  string    `json:"eventId"`
	ActorID  uuid.UUID `json:"actorId"`
	Earnings int64     `json:"earnings"`
}

func (h *EventHandler) TradeCompleted(w http.ResponseWriter, r *http.Request) {
	var req TradeEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.EventID == "" {
		http.Error(w, "eventId is required", http.StatusBadRequest)
		return
	}

	if err := h.services.HandleTradeCompleted(r.Context(), req.EventID, req.ActorID, req.Earnings); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type MissionEventRequest struct {
	EventID string    `json:"eventId"`
	ActorID uuid.UUID `json:"actorId"`
	Reward  int64     `json:"reward"`
}

func (h *EventHandler) MissionCompleted(w http.ResponseWriter, r *http.Request) {
	var req MissionEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.EventID == "" {
		http.Error(w, "eventId is required", http.StatusBadRequest)
		return
	}

	if err := h.services.HandleMissionCompleted(r.Context(), req.EventID, req.ActorID, req.Reward); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type BattleEventRequest struct {
	EventID      string    `json:"eventId"`
	WarID        uuid.UUID `json:"warId"`
	WinnerTeamID uuid.UUID `json:"winnerTeamId"`
	Value        int64     `json:"value"`
}

func (h *EventHandler) BattleResolved(w http.ResponseWriter, r *http.Request) {
	var req BattleEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.EventID == "" {
		http.Error(w, "eventId is required", http.StatusBadRequest)
		return
	}
	if req.Value <= 0 {
		http.Error(w, "value must be positive", http.StatusBadRequest)
		return
	}

	if err := h.services.HandleBattleResolved(r.Context(), req.EventID, req.WarID, req.WinnerTeamID, req.Value); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type SectorActivityRequest struct {
	SectorID string    `json:"sectorId"`
	ActorID  uuid.UUID `json:"actorId"`
	Delta    int       `json:"delta"`
}

func (h *EventHandler) SectorActivity(w http.ResponseWriter, r *http.Request) {
	var req SectorActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SectorID == "" {
		http.Error(w, "sectorId is required", http.StatusBadRequest)
		return
	}

	if err := h.services.HandleSectorActivity(r.Context(), req.SectorID, req.ActorID, req.Delta); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
