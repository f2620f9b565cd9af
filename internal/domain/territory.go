package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxSectorInfluence caps the combined influence all teams hold in one
// sector. Individual values stay within 0-100 as a consequence.
const MaxSectorInfluence = 100

// FlipThreshold is the influence a team must cross before a control contest
// can begin.
const FlipThreshold = 51

// ControlTrend describes the recent direction of a team's influence in a
// sector. Derived from the last applied delta, never authoritative.
type ControlTrend string

const (
	TrendRising  ControlTrend = "rising"
	TrendFalling ControlTrend = "falling"
	TrendStable  ControlTrend = "stable"
)

// Sector represents one contested map sector. Rows are created lazily on the
// first influence event; controller transitions are the only externally
// visible state changes.
type Sector struct {
	ID               string     `json:"id" gorm:"primary_key;size:32"`
	ControllerID     *uuid.UUID `json:"controllerId" gorm:"type:uuid;index"`
	PrevControllerID *uuid.UUID `json:"prevControllerId" gorm:"type:uuid"`
	ChallengerID     *uuid.UUID `json:"challengerId" gorm:"type:uuid"`
	ContestedUntil   *time.Time `json:"contestedUntil"`
	TaxRevenue       int64      `json:"taxRevenue" gorm:"not null;default:10"`
	TradeBonus       int64      `json:"tradeBonus" gorm:"not null;default:5"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`

	// Relations
	Influence []SectorInfluence `json:"influence,omitempty" gorm:"foreignKey:SectorID"`
}

// TableName returns the table name for GORM
func (Sector) TableName() string {
	return "sectors"
}

// IsContested reports whether a flip grace window is open at now
func (s *Sector) IsContested(now time.Time) bool {
	return s.ContestedUntil != nil && now.Before(*s.ContestedUntil)
}

// SectorInfluence is one team's accumulated claim strength over a sector
type SectorInfluence struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SectorID       string    `json:"sectorId" gorm:"size:32;not null;uniqueIndex:idx_sector_team"`
	TeamID         uuid.UUID `json:"teamId" gorm:"type:uuid;not null;uniqueIndex:idx_sector_team"`
	Value          int       `json:"value" gorm:"not null;default:0"`
	LastDelta      int       `json:"lastDelta" gorm:"not null;default:0"`
	LastActivityAt time.Time `json:"lastActivityAt"`

	// Relations
	Sector *Sector `json:"-" gorm:"foreignKey:SectorID"`
}

// TableName returns the table name for GORM
func (SectorInfluence) TableName() string {
	return "sector_influence"
}

// Trend derives the control trend from the most recent applied delta
func (i *SectorInfluence) Trend() ControlTrend {
	switch {
	case i.LastDelta > 0:
		return TrendRising
	case i.LastDelta < 0:
		return TrendFalling
	default:
		return TrendStable
	}
}
