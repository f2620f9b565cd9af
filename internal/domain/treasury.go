package domain

import (
	"time"

	"github.com/google/uuid"
)

// Treasury holds a team's shared credits. Balance is never negative; a
// withdrawal that would violate that fails atomically.
type Treasury struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TeamID    uuid.UUID `json:"teamId" gorm:"type:uuid;uniqueIndex;not null"`
	Balance   int64     `json:"balance" gorm:"not null;default:0"`
	TaxRate   int       `json:"taxRate" gorm:"not null;default:0"` // percent, 0-100
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for GORM
func (Treasury) TableName() string {
	return "treasuries"
}

// TreasuryEntryKind categorizes ledger entries
type TreasuryEntryKind string

const (
	EntryDeposit       TreasuryEntryKind = "deposit"
	EntryWithdrawal    TreasuryEntryKind = "withdrawal"
	EntryTax           TreasuryEntryKind = "tax"
	EntryWarCost       TreasuryEntryKind = "war_cost"
	EntrySectorRevenue TreasuryEntryKind = "sector_revenue"
	EntryMissionReward TreasuryEntryKind = "mission_reward"
)

// TreasuryEntry is one ledger line. EventID is the idempotency key for
// at-least-once deliveries: the unique index makes a retried tax accrual or
// revenue tick a no-op instead of a double credit.
type TreasuryEntry struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TeamID    uuid.UUID         `json:"teamId" gorm:"type:uuid;not null;index"`
	ActorID   *uuid.UUID        `json:"actorId" gorm:"type:uuid"`
	Kind      TreasuryEntryKind `json:"kind" gorm:"type:varchar(20);not null"`
	Amount    int64             `json:"amount" gorm:"not null"` // signed: credits in, debits out
	EventID   *string           `json:"eventId" gorm:"uniqueIndex;size:128"`
	CreatedAt time.Time         `json:"createdAt"`

	// Relations
	Team *Team `json:"-" gorm:"foreignKey:TeamID"`
}

// TableName returns the table name for GORM
func (TreasuryEntry) TableName() string {
	return "treasury_entries"
}
