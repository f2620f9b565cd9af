package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"github.com/mvaldes/quadrant-governance/internal/service"
)

type TerritoryHandler struct {
	territory *service.TerritoryService
}

func NewTerritoryHandler(territory *service.TerritoryService) *TerritoryHandler {
	return &TerritoryHandler{territory: territory}
}

type InfluenceStanding struct {
	TeamID string `json:"teamId"`
	Value  int    `json:"value"`
	Trend  string `json:"trend"`
}

type SectorResponse struct {
	ID             string              `json:"id"`
	ControllerID   *string             `json:"controllerId"`
	ChallengerID   *string             `json:"challengerId,omitempty"`
	ContestedUntil *time.Time          `json:"contestedUntil,omitempty"`
	Contested      bool                `json:"contested"`
	Standings      []InfluenceStanding `json:"standings"`
}

func sectorResponse(sector *domain.Sector, now time.Time) SectorResponse {
	resp := SectorResponse{
		ID:             sector.ID,
		ContestedUntil: sector.ContestedUntil,
		Contested:      sector.IsContested(now),
	}
	if sector.ControllerID != nil {
		id := sector.ControllerID.String()
		resp.ControllerID = &id
	}
	if sector.ChallengerID != nil {
		id := sector.ChallengerID.String()
		resp.ChallengerID = &id
	}
	resp.Standings = make([]InfluenceStanding, 0, len(sector.Influence))
	for i := range sector.Influence {
		inf := &sector.Influence[i]
		resp.Standings = append(resp.Standings, InfluenceStanding{
			TeamID: inf.TeamID.String(),
			Value:  inf.Value,
			Trend:  string(inf.Trend()),
		})
	}
	return resp
}

func (h *TerritoryHandler) GetSector(w http.ResponseWriter, r *http.Request) {
	sectorID := chi.URLParam(r, "id")

	sector, err := h.territory.SectorState(r.Context(), sectorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sectorResponse(sector, time.Now()))
}

func (h *TerritoryHandler) OwnershipMap(w http.ResponseWriter, r *http.Request) {
	owners, err := h.territory.OwnershipMap(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make(map[string]string, len(owners))
	for sectorID, teamID := range owners {
		resp[sectorID] = teamID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}
