package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Pact is an alliance-level agreement constraining war and territory
// behavior
type Pact string

const (
	PactNoFire     Pact = "no_fire"
	PactTradeBonus Pact = "trade_bonus"
	PactDefense    Pact = "defense"
)

// IsValid checks if a pact kind is valid
func (p Pact) IsValid() bool {
	switch p {
	case PactNoFire, PactTradeBonus, PactDefense:
		return true
	}
	return false
}

// AllianceStatus represents the alliance lifecycle
type AllianceStatus string

const (
	AllianceStatusProposed  AllianceStatus = "proposed"
	AllianceStatusActive    AllianceStatus = "active"
	AllianceStatusRejected  AllianceStatus = "rejected"
	AllianceStatusDissolved AllianceStatus = "dissolved"
)

// Alliance is a multi-team council. It activates only after every
// prospective member team's representative accepts the proposal.
type Alliance struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string         `json:"name" gorm:"size:80;not null"`
	Status      AllianceStatus `json:"status" gorm:"type:varchar(10);not null;default:'proposed'"`
	Pacts       datatypes.JSON `json:"pacts" gorm:"type:jsonb;default:'[]'"`
	ProposedBy  uuid.UUID      `json:"proposedBy" gorm:"type:uuid;not null"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DissolvedAt *time.Time     `json:"dissolvedAt"`

	// Relations
	Members []AllianceMember `json:"members,omitempty" gorm:"foreignKey:AllianceID"`
}

// TableName returns the table name for GORM
func (Alliance) TableName() string {
	return "alliances"
}

// DecodePacts unmarshals the active pact set
func (a *Alliance) DecodePacts() ([]Pact, error) {
	var pacts []Pact
	if len(a.Pacts) == 0 {
		return pacts, nil
	}
	err := json.Unmarshal(a.Pacts, &pacts)
	return pacts, err
}

// HasPact reports whether the alliance holds pact. Only active alliances
// exert pact effects.
func (a *Alliance) HasPact(pact Pact) bool {
	if a.Status != AllianceStatusActive {
		return false
	}
	pacts, err := a.DecodePacts()
	if err != nil {
		return false
	}
	for _, p := range pacts {
		if p == pact {
			return true
		}
	}
	return false
}

// AllianceMember binds a team to an alliance through one designated
// representative actor.
type AllianceMember struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AllianceID       uuid.UUID  `json:"allianceId" gorm:"type:uuid;not null;uniqueIndex:idx_alliance_team"`
	TeamID           uuid.UUID  `json:"teamId" gorm:"type:uuid;not null;uniqueIndex:idx_alliance_team"`
	RepresentativeID uuid.UUID  `json:"representativeId" gorm:"type:uuid;not null"`
	AcceptedAt       *time.Time `json:"acceptedAt"`
	CreatedAt        time.Time  `json:"createdAt"`

	// Relations
	Alliance *Alliance `json:"-" gorm:"foreignKey:AllianceID"`
	Team     *Team     `json:"team,omitempty" gorm:"foreignKey:TeamID"`
}

// TableName returns the table name for GORM
func (AllianceMember) TableName() string {
	return "alliance_members"
}

// PactProposalStatus represents a pact change vote in progress
type PactProposalStatus string

const (
	PactProposalOpen     PactProposalStatus = "open"
	PactProposalAdopted  PactProposalStatus = "adopted"
	PactProposalRejected PactProposalStatus = "rejected"
)

// PactProposal is a pending pact change put to the council. A simple
// majority of representatives adopts it; ties default to no change.
type PactProposal struct {
	ID         uuid.UUID          `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AllianceID uuid.UUID          `json:"allianceId" gorm:"type:uuid;not null;index"`
	Pact       Pact               `json:"pact" gorm:"type:varchar(20);not null"`
	Enable     bool               `json:"enable" gorm:"not null"`
	Status     PactProposalStatus `json:"status" gorm:"type:varchar(10);not null;default:'open'"`
	ProposedBy uuid.UUID          `json:"proposedBy" gorm:"type:uuid;not null"`
	CreatedAt  time.Time          `json:"createdAt"`
	ResolvedAt *time.Time         `json:"resolvedAt"`

	// Relations
	Votes []PactVote `json:"votes,omitempty" gorm:"foreignKey:ProposalID"`
}

// TableName returns the table name for GORM
func (PactProposal) TableName() string {
	return "pact_proposals"
}

// PactVote is one representative's decision on a pact proposal
type PactVote struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProposalID uuid.UUID `json:"proposalId" gorm:"type:uuid;not null;uniqueIndex:idx_proposal_team"`
	TeamID     uuid.UUID `json:"teamId" gorm:"type:uuid;not null;uniqueIndex:idx_proposal_team"`
	InFavor    bool      `json:"inFavor" gorm:"not null"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName returns the table name for GORM
func (PactVote) TableName() string {
	return "pact_votes"
}

// EncodePacts marshals a pact set for storage
func EncodePacts(pacts []Pact) datatypes.JSON {
	if pacts == nil {
		pacts = []Pact{}
	}
	raw, _ := json.Marshal(pacts)
	return datatypes.JSON(raw)
}
