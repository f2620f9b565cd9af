package domain

// TeamRole represents a member's rank within a team
type TeamRole string

const (
	RoleFounder TeamRole = "founder"
	RoleOfficer TeamRole = "officer"
	RoleVeteran TeamRole = "veteran"
	RoleMember  TeamRole = "member"
	RoleRecruit TeamRole = "recruit"
)

// AllRoles contains all valid roles from highest to lowest
var AllRoles = []TeamRole{RoleFounder, RoleOfficer, RoleVeteran, RoleMember, RoleRecruit}

// roleRank maps each role to its position in the hierarchy. Higher is senior.
var roleRank = map[TeamRole]int{
	RoleFounder: 5,
	RoleOfficer: 4,
	RoleVeteran: 3,
	RoleMember:  2,
	RoleRecruit: 1,
}

// IsValid checks if a role is valid
func (r TeamRole) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// String returns the string representation of the role
func (r TeamRole) String() string {
	return string(r)
}

// Rank returns the role's position in the total order founder > officer >
// veteran > member > recruit. Unknown roles rank below recruit.
func (r TeamRole) Rank() int {
	return roleRank[r]
}

// AtLeast reports whether r is equal to or senior to other
func (r TeamRole) AtLeast(other TeamRole) bool {
	return r.Rank() >= other.Rank()
}

// NextUp returns the role one step senior to r. Promotion stops at officer:
// founder is assigned only at creation or by leadership transfer.
func (r TeamRole) NextUp() (TeamRole, bool) {
	switch r {
	case RoleRecruit:
		return RoleMember, true
	case RoleMember:
		return RoleVeteran, true
	case RoleVeteran:
		return RoleOfficer, true
	}
	return r, false
}

// NextDown returns the role one step junior to r
func (r TeamRole) NextDown() (TeamRole, bool) {
	switch r {
	case RoleOfficer:
		return RoleVeteran, true
	case RoleVeteran:
		return RoleMember, true
	case RoleMember:
		return RoleRecruit, true
	}
	return r, false
}
