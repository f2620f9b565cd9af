package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WarStatus represents the war lifecycle: pending -> active -> ceased.
// Declaration is unilateral, so wars skip straight to active today; pending
// remains for terms that may require escrow before hostilities open.
type WarStatus string

const (
	WarStatusPending WarStatus = "pending"
	WarStatusActive  WarStatus = "active"
	WarStatusCeased  WarStatus = "ceased"
)

// WarOutcome records who won a ceased war
type WarOutcome string

const (
	OutcomeAggressor WarOutcome = "aggressor"
	OutcomeDefender  WarOutcome = "defender"
	OutcomeDraw      WarOutcome = "draw"
)

// WarSide identifies which belligerent a battle event credits
type WarSide string

const (
	SideAggressor WarSide = "aggressor"
	SideDefender  WarSide = "defender"
)

// IsValid checks if a war side is valid
func (s WarSide) IsValid() bool {
	return s == SideAggressor || s == SideDefender
}

// WarTerms define the duration and optional win objectives agreed at
// declaration. Stored on the war as JSONB.
type WarTerms struct {
	DurationHours int `json:"durationHours"`
	// ScoreLimit ends the war early once a side reaches it. Zero disables.
	ScoreLimit int64 `json:"scoreLimit,omitempty"`
	// TerritoryGoal ends the war early once a side controls this many
	// sectors. Zero disables.
	TerritoryGoal int `json:"territoryGoal,omitempty"`
}

// War represents a conflict between two teams. Once ceased it is immutable.
type War struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AggressorID    uuid.UUID      `json:"aggressorId" gorm:"type:uuid;not null;index"`
	DefenderID     uuid.UUID      `json:"defenderId" gorm:"type:uuid;not null;index"`
	Status         WarStatus      `json:"status" gorm:"type:varchar(10);not null;default:'active'"`
	AggressorScore int64          `json:"aggressorScore" gorm:"not null;default:0"`
	DefenderScore  int64          `json:"defenderScore" gorm:"not null;default:0"`
	Terms          datatypes.JSON `json:"terms" gorm:"type:jsonb"`
	Outcome        *WarOutcome    `json:"outcome" gorm:"type:varchar(10)"`
	DeclaredBy     uuid.UUID      `json:"declaredBy" gorm:"type:uuid;not null"`
	StartedAt      time.Time      `json:"startedAt" gorm:"not null"`
	EndsAt         time.Time      `json:"endsAt" gorm:"not null"`
	CeasedAt       *time.Time     `json:"ceasedAt"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`

	// Relations
	Battles []WarBattle `json:"battles,omitempty" gorm:"foreignKey:WarID"`
}

// TableName returns the table name for GORM
func (War) TableName() string {
	return "wars"
}

// DecodeTerms unmarshals the war's terms
func (w *War) DecodeTerms() (WarTerms, error) {
	var terms WarTerms
	if len(w.Terms) == 0 {
		return terms, nil
	}
	err := json.Unmarshal(w.Terms, &terms)
	return terms, err
}

// Score returns the score for one side
func (w *War) Score(side WarSide) int64 {
	if side == SideAggressor {
		return w.AggressorScore
	}
	return w.DefenderScore
}

// Involves reports whether teamID is a belligerent in this war
func (w *War) Involves(teamID uuid.UUID) bool {
	return w.AggressorID == teamID || w.DefenderID == teamID
}

// WarBattle records one applied battle event. EventID carries the unique
// index that makes at-least-once delivery safe.
type WarBattle struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	WarID     uuid.UUID `json:"warId" gorm:"type:uuid;not null;index"`
	EventID   string    `json:"eventId" gorm:"uniqueIndex;size:128;not null"`
	Side      WarSide   `json:"side" gorm:"type:varchar(10);not null"`
	Value     int64     `json:"value" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`

	// Relations
	War *War `json:"-" gorm:"foreignKey:WarID"`
}

// TableName returns the table name for GORM
func (WarBattle) TableName() string {
	return "war_battles"
}
