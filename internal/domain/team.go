package domain

import (
	"time"

	"github.com/google/uuid"
)

// TeamType is the closed set of charter types a team is founded under. The
// type selects the permission matrix and never changes after creation.
type TeamType string

const (
	TeamTypeSocial   TeamType = "social"
	TeamTypeEconomic TeamType = "economic"
	TeamTypeCombat   TeamType = "combat"
	TeamTypeAlliance TeamType = "alliance"
)

// IsValid checks if a team type is valid
func (t TeamType) IsValid() bool {
	switch t {
	case TeamTypeSocial, TeamTypeEconomic, TeamTypeCombat, TeamTypeAlliance:
		return true
	}
	return false
}

// DefaultCapacity is the roster ceiling applied when a team is founded
// without an explicit capacity.
const DefaultCapacity = 6

// Team represents a player group. Identity and tag are immutable after
// creation; destruction is a soft delete via DissolvedAt.
type Team struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string     `json:"name" gorm:"size:80;not null"`
	Tag         string     `json:"tag" gorm:"index:idx_teams_live_tag,unique,where:dissolved_at IS NULL;size:5;not null"`
	Type        TeamType   `json:"type" gorm:"type:varchar(20);not null;default:'social'"`
	Capacity    int        `json:"capacity" gorm:"not null;default:6"`
	FounderID   uuid.UUID  `json:"founderId" gorm:"type:uuid;not null"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DissolvedAt *time.Time `json:"dissolvedAt"`

	// Relations
	Members  []TeamMember `json:"members,omitempty" gorm:"foreignKey:TeamID"`
	Treasury *Treasury    `json:"treasury,omitempty" gorm:"foreignKey:TeamID"`
}

// TableName returns the table name for GORM
func (Team) TableName() string {
	return "teams"
}

// IsDissolved reports whether the team has been soft-deleted
func (t *Team) IsDissolved() bool {
	return t.DissolvedAt != nil
}

// Matrix returns the permission matrix for the team's type
func (t *Team) Matrix() PermissionMatrix {
	return MatrixFor(t.Type)
}

// ValidTag reports whether tag is 3-5 symbols
func ValidTag(tag string) bool {
	n := len([]rune(tag))
	return n >= 3 && n <= 5
}

// TeamMember represents an actor's membership in a team. Unique per
// (team, actor); role changes only through promote/demote operations.
type TeamMember struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TeamID   uuid.UUID `json:"teamId" gorm:"type:uuid;not null;uniqueIndex:idx_team_actor"`
	ActorID  uuid.UUID `json:"actorId" gorm:"type:uuid;not null;uniqueIndex:idx_team_actor"`
	Role     TeamRole  `json:"role" gorm:"type:varchar(20);not null;default:'recruit'"`
	JoinedAt time.Time `json:"joinedAt"`

	// Relations
	Team *Team `json:"-" gorm:"foreignKey:TeamID"`
}

// TableName returns the table name for GORM
func (TeamMember) TableName() string {
	return "team_members"
}

// InviteTTL is how long an invitation code stays redeemable
const InviteTTL = 7 * 24 * time.Hour

// TeamInvite represents a pending invitation. The code is single-use and
// expires after InviteTTL.
type TeamInvite struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TeamID    uuid.UUID  `json:"teamId" gorm:"type:uuid;not null;index"`
	InviterID uuid.UUID  `json:"inviterId" gorm:"type:uuid;not null"`
	InviteeID uuid.UUID  `json:"inviteeId" gorm:"type:uuid;not null"`
	Code      string     `json:"code" gorm:"uniqueIndex;size:32;not null"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"not null"`
	UsedAt    *time.Time `json:"usedAt"`
	CreatedAt time.Time  `json:"createdAt"`

	// Relations
	Team *Team `json:"-" gorm:"foreignKey:TeamID"`
}

// TableName returns the table name for GORM
func (TeamInvite) TableName() string {
	return "team_invites"
}

// IsRedeemable reports whether the invite is unused and unexpired at now
func (i *TeamInvite) IsRedeemable(now time.Time) bool {
	return i.UsedAt == nil && now.Before(i.ExpiresAt)
}
