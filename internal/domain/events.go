package domain

import (
	"time"

	"github.com/google/uuid"
)

// Outbound notifications. Collaborators (broadcast, persistence) consume
// these; the engine never blocks on their delivery.

// NotificationKind tags the outbound notification envelope
type NotificationKind string

const (
	NotifyTeamStateChanged        NotificationKind = "team_state_changed"
	NotifyTerritoryControlChanged NotificationKind = "territory_control_changed"
	NotifyWarStatusChanged        NotificationKind = "war_status_changed"
	NotifyTreasuryChanged         NotificationKind = "treasury_changed"
)

// TeamStateChanged is emitted on any roster, role, or lifecycle change
type TeamStateChanged struct {
	TeamID    uuid.UUID `json:"teamId"`
	Change    string    `json:"change"` // created, member_joined, member_left, role_changed, dissolved
	ActorID   uuid.UUID `json:"actorId"`
	Timestamp time.Time `json:"timestamp"`
}

// TerritoryControlChanged is emitted when a sector's controller transitions
type TerritoryControlChanged struct {
	SectorID           string     `json:"sector"`
	PreviousController *uuid.UUID `json:"previousController"`
	NewController      *uuid.UUID `json:"newController"`
	Timestamp          time.Time  `json:"timestamp"`
}

// WarStatusChanged is emitted on declaration and cessation
type WarStatusChanged struct {
	WarID      uuid.UUID   `json:"warId"`
	Status     WarStatus   `json:"status"`
	Outcome    *WarOutcome `json:"outcome,omitempty"`
	FinalScore *WarScore   `json:"finalScore,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// WarScore is the score pair reported with a ceased war
type WarScore struct {
	Aggressor int64 `json:"aggressor"`
	Defender  int64 `json:"defender"`
}

// TreasuryChanged is emitted after any balance mutation
type TreasuryChanged struct {
	TeamID    uuid.UUID `json:"teamId"`
	Balance   int64     `json:"balance"`
	Timestamp time.Time `json:"timestamp"`
}

// TeamDissolved is the internal signal broken out of the membership cascade:
// territory, war, and alliance logic subscribe instead of referencing the
// membership layer directly.
type TeamDissolved struct {
	TeamID    uuid.UUID `json:"teamId"`
	Timestamp time.Time `json:"timestamp"`
}
