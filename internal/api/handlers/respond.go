package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mvaldes/quadrant-governance/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is a 500 and gets logged.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTeamNotFound),
		errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrInviteNotFound),
		errors.Is(err, domain.ErrSectorNotFound),
		errors.Is(err, domain.ErrWarNotFound),
		errors.Is(err, domain.ErrAllianceNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrPermissionDenied):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, domain.ErrInvalidTag),
		errors.Is(err, domain.ErrInvalidOperation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrDuplicateTag),
		errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrAlreadyAtWar),
		errors.Is(err, domain.ErrPactViolation),
		errors.Is(err, domain.ErrConflictingWar),
		errors.Is(err, domain.ErrWarCeased),
		errors.Is(err, domain.ErrStaleEvent):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("ERROR [handlers] internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
