package domain

// Action represents a capability gated by the permission matrix
type Action string

const (
	ActionInvite          Action = "invite"
	ActionKick            Action = "kick"
	ActionPromote         Action = "promote"
	ActionWithdraw        Action = "withdraw"
	ActionDeclareWar      Action = "declare_war"
	ActionManageTerritory Action = "manage_territory"
	ActionManageAlliance  Action = "manage_alliance"
)

// PermissionMatrix maps each action to the minimum role required to perform
// it. Matrices are selected by team type at creation and never change.
type PermissionMatrix map[Action]TeamRole

// defaultMatrix is shared by social teams: day-to-day management is open to
// veterans, anything binding the whole team stays with officers and up.
var defaultMatrix = PermissionMatrix{
	ActionInvite:          RoleVeteran,
	ActionKick:            RoleOfficer,
	ActionPromote:         RoleOfficer,
	ActionWithdraw:        RoleOfficer,
	ActionDeclareWar:      RoleFounder,
	ActionManageTerritory: RoleVeteran,
	ActionManageAlliance:  RoleFounder,
}

// economicMatrix locks the treasury down to the founder and keeps war
// declarations out of reach entirely by requiring founder rank.
var economicMatrix = PermissionMatrix{
	ActionInvite:          RoleOfficer,
	ActionKick:            RoleOfficer,
	ActionPromote:         RoleOfficer,
	ActionWithdraw:        RoleFounder,
	ActionDeclareWar:      RoleFounder,
	ActionManageTerritory: RoleMember,
	ActionManageAlliance:  RoleOfficer,
}

// combatMatrix delegates war powers to officers
var combatMatrix = PermissionMatrix{
	ActionInvite:          RoleVeteran,
	ActionKick:            RoleOfficer,
	ActionPromote:         RoleOfficer,
	ActionWithdraw:        RoleOfficer,
	ActionDeclareWar:      RoleOfficer,
	ActionManageTerritory: RoleMember,
	ActionManageAlliance:  RoleOfficer,
}

// allianceMatrix is conservative: multi-team alliances route almost
// everything through officers.
var allianceMatrix = PermissionMatrix{
	ActionInvite:          RoleOfficer,
	ActionKick:            RoleOfficer,
	ActionPromote:         RoleOfficer,
	ActionWithdraw:        RoleOfficer,
	ActionDeclareWar:      RoleFounder,
	ActionManageTerritory: RoleVeteran,
	ActionManageAlliance:  RoleOfficer,
}

// MatrixFor returns the permission matrix configured for a team type
func MatrixFor(teamType TeamType) PermissionMatrix {
	switch teamType {
	case TeamTypeEconomic:
		return economicMatrix
	case TeamTypeCombat:
		return combatMatrix
	case TeamTypeAlliance:
		return allianceMatrix
	default:
		return defaultMatrix
	}
}

// Authorize compares a member's role against the minimum role required for
// action. Pure and deterministic; every mutating operation guards with it.
func (m PermissionMatrix) Authorize(role TeamRole, action Action) error {
	required, ok := m[action]
	if !ok {
		// Unconfigured actions are founder-only
		required = RoleFounder
	}
	if !role.AtLeast(required) {
		return ErrPermissionDenied
	}
	return nil
}
