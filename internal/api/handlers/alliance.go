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

type AllianceHandler struct {
	alliances *service.AllianceService
}

func NewAllianceHandler(alliances *service.AllianceService) *AllianceHandler {
	return &AllianceHandler{alliances: alliances}
}

type ProposeAllianceRequest struct {
	Name   string    `json:"name"`
	TeamID uuid.UUID `json:"teamId"`
	Others []struct {
		TeamID           uuid.UUID `json:"teamId"`
		RepresentativeID uuid.UUID `json:"representativeId"`
	} `json:"others"`
}

type AllianceMemberResponse struct {
	TeamID           string     `json:"teamId"`
	RepresentativeID string     `json:"representativeId"`
	AcceptedAt       *time.Time `json:"acceptedAt,omitempty"`
}

type AllianceResponse struct {
	ID      string                   `json:"id"`
	Name    string                   `json:"name"`
	Status  string                   `json:"status"`
	Pacts   []string                 `json:"pacts"`
	Members []AllianceMemberResponse `json:"members"`
}

func allianceResponse(a *domain.Alliance) AllianceResponse {
	pacts, _ := a.DecodePacts()
	names := make([]string, 0, len(pacts))
	for _, p := range pacts {
		names = append(names, string(p))
	}

	members := make([]AllianceMemberResponse, 0, len(a.Members))
	for _, m := range a.Members {
		members = append(members, AllianceMemberResponse{
			TeamID:           m.TeamID.String(),
			RepresentativeID: m.RepresentativeID.String(),
			AcceptedAt:       m.AcceptedAt,
		})
	}

	return AllianceResponse{
		ID:      a.ID.String(),
		Name:    a.Name,
		Status:  string(a.Status),
		Pacts:   names,
		Members: members,
	}
}

func (h *AllianceHandler) Propose(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ProposeAllianceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	others := make([]service.ProspectiveMember, 0, len(req.Others))
	for _, o := range req.Others {
		others = append(others, service.ProspectiveMember{
			TeamID:           o.TeamID,
			RepresentativeID: o.RepresentativeID,
		})
	}

	alliance, err := h.alliances.Propose(r.Context(), req.Name, service.ProspectiveMember{
		TeamID:           req.TeamID,
		RepresentativeID: actorID,
	}, others)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, allianceResponse(alliance))
}

type RespondRequest struct {
	TeamID uuid.UUID `json:"teamId"`
	Accept bool      `json:"accept"`
}

func (h *AllianceHandler) Respond(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	allianceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid alliance ID", http.StatusBadRequest)
		return
	}

	var req RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	alliance, err := h.alliances.Respond(r.Context(), allianceID, req.TeamID, actorID, req.Accept)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, allianceResponse(alliance))
}

func (h *AllianceHandler) Get(w http.ResponseWriter, r *http.Request) {
	allianceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid alliance ID", http.StatusBadRequest)
		return
	}

	alliance, err := h.alliances.GetAlliance(r.Context(), allianceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, allianceResponse(alliance))
}

func (h *AllianceHandler) ListForTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuid.Parse(chi.URLParam(r, "teamId"))
	if err != nil {
		http.Error(w, "Invalid team ID", http.StatusBadRequest)
		return
	}

	alliances, err := h.alliances.ListForTeam(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]AllianceResponse, 0, len(alliances))
	for _, a := range alliances {
		resp = append(resp, allianceResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

type PactProposalRequest struct {
	TeamID uuid.UUID `json:"teamId"`
	Pact   string    `json:"pact"`
	Enable bool      `json:"enable"`
}

type PactProposalResponse struct {
	ID     string `json:"id"`
	Pact   string `json:"pact"`
	Enable bool   `json:"enable"`
	Status string `json:"status"`
}

func proposalResponse(p *domain.PactProposal) PactProposalResponse {
	return PactProposalResponse{
		ID:     p.ID.String(),
		Pact:   string(p.Pact),
		Enable: p.Enable,
		Status: string(p.Status),
	}
}

func (h *AllianceHandler) ProposePact(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	allianceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid alliance ID", http.StatusBadRequest)
		return
	}

	var req PactProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	proposal, err := h.alliances.ProposePactChange(r.Context(), allianceID, req.TeamID, actorID, domain.Pact(req.Pact), req.Enable)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proposalResponse(proposal))
}

type VoteRequest struct {
	TeamID  uuid.UUID `json:"teamId"`
	InFavor bool      `json:"inFavor"`
}

func (h *AllianceHandler) Vote(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	proposalID, err := uuid.Parse(chi.URLParam(r, "proposalId"))
	if err != nil {
		http.Error(w, "Invalid proposal ID", http.StatusBadRequest)
		return
	}

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	proposal, err := h.alliances.Vote(r.Context(), proposalID, req.TeamID, actorID, req.InFavor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposalResponse(proposal))
}
