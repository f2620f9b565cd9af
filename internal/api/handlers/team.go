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

type TeamHandler struct {
	membership *service.MembershipService
}

func NewTeamHandler(membership *service.MembershipService) *TeamHandler {
	return &TeamHandler{membership: membership}
}

type CreateTeamRequest struct {
	Name     string `json:"name"`
	Tag      string `json:"tag"`
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
	Funding  int64  `json:"funding"`
}

type TeamResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Tag       string     `json:"tag"`
	Type      string     `json:"type"`
	Capacity  int        `json:"capacity"`
	FounderID string     `json:"founderId"`
	CreatedAt time.Time  `json:"createdAt"`
	Dissolved *time.Time `json:"dissolvedAt,omitempty"`
}

type MemberResponse struct {
	ActorID  string    `json:"actorId"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

type InviteResponse struct {
	Code      string    `json:"code"`
	TeamID    string    `json:"teamId"`
	InviteeID string    `json:"inviteeId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func teamResponse(team *domain.Team) TeamResponse {
	return TeamResponse{
		ID:        team.ID.String(),
		Name:      team.Name,
		Tag:       team.Tag,
		Type:      string(team.Type),
		Capacity:  team.Capacity,
		FounderID: team.FounderID.String(),
		CreatedAt: team.CreatedAt,
		Dissolved: team.DissolvedAt,
	}
}

func memberResponse(m *domain.TeamMember) MemberResponse {
	return MemberResponse{
		ActorID:  m.ActorID.String(),
		Role:     string(m.Role),
		JoinedAt: m.JoinedAt,
	}
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	team, err := h.membership.CreateTeam(r.Context(), actorID, service.CreateTeamInput{
		Name:     req.Name,
		Tag:      req.Tag,
		Type:     domain.TeamType(req.Type),
		Capacity: req.Capacity,
		Funding:  req.Funding,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, teamResponse(team))
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid team ID", http.StatusBadRequest)
		return
	}

	team, err := h.membership.GetTeam(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teamResponse(team))
}

func (h *TeamHandler) Roster(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid team ID", http.StatusBadRequest)
		return
	}

	members, err := h.membership.Roster(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, memberResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TeamHandler) MyTeam(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	member, err := h.membership.TeamOf(r.Context(), actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	team, err := h.membership.GetTeam(r.Context(), member.TeamID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"team":   teamResponse(team),
		"member": memberResponse(member),
	})
}

type InviteRequest struct {
	InviteeID uuid.UUID `json:"inviteeId"`
}

func (h *TeamHandler) Invite(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid team ID", http.StatusBadRequest)
		return
	}

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	invite, err := h.membership.Invite(r.Context(), teamID, actorID, req.InviteeID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, InviteResponse{
		Code:      invite.Code,
		TeamID:    invite.TeamID.String(),
		InviteeID: invite.InviteeID.String(),
		ExpiresAt: invite.ExpiresAt,
	})
}

type AcceptInviteRequest struct {
	Code string `json:"code"`
}

func (h *TeamHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req AcceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	member, err := h.membership.AcceptInvite(r.Context(), req.Code, actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memberResponse(member))
}

type TargetRequest struct {
	TargetID uuid.UUID `json:"targetId"`
}

func (h *TeamHandler) memberAction(w http.ResponseWriter, r *http.Request, fn func(teamID, actorID, targetID uuid.UUID) (*domain.TeamMember, error)) {
	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid team ID", http.StatusBadRequest)
		return
	}

	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	member, err := fn(teamID, actorID, req.TargetID)
	if err != nil {
		writeError(w, err)
		return
	}
	if member == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, memberResponse(member))
}

func (h *TeamHandler) Kick(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, func(teamID, actorID, targetID uuid.UUID) (*domain.TeamMember, error) {
		return nil, h.membership.Kick(r.Context(), teamID, actorID, targetID)
	})
}

func (h *TeamHandler) Promote(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, func(teamID, actorID, targetID uuid.UUID) (*domain.TeamMember, error) {
		return h.membership.Promote(r.Context(), teamID, actorID, targetID)
	})
}

func (h *TeamHandler) Demote(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, func(teamID, actorID, targetID uuid.UUID) (*domain.TeamMember, error) {
		return h.membership.Demote(r.Context(), teamID, actorID, targetID)
	})
}

func (h *TeamHandler) TransferLeadership(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, func(teamID, actorID, targetID uuid.UUID) (*domain.TeamMember, error) {
		return nil, h.membership.TransferLeadership(r.Context(), teamID, actorID, targetID)
	})
}

func (h *TeamHandler) Leave(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid team ID", http.StatusBadRequest)
		return
	}

	if err := h.membership.Leave(r.Context(), teamID, actorID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeamHandler) Disband(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid team ID", http.StatusBadRequest)
		return
	}

	if err := h.membership.Disband(r.Context(), teamID, actorID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
