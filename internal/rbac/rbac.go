package rbac

import "strings"

type Role string
type Action string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleL1         Role = "L1"
	RoleL2         Role = "L2"
	RoleL3         Role = "L3"
	RoleL4         Role = "L4"
	RoleVendor     Role = "VENDOR"
)

// DefaultRole is assigned when the user level is unknown or could not be
// synced. It must never be an administrative role.
const DefaultRole = RoleL2

const (
	ActionView            Action = "view"
	ActionEditProject     Action = "edit_project"
	ActionAssignLead      Action = "assign_lead"
	ActionArchive         Action = "archive"
	ActionManageStandards Action = "manage_standards"
	ActionViewMAS         Action = "view_mas"
	ActionViewRFI         Action = "view_rfi"
	ActionVendorSummary   Action = "vendor_summary"
)

// levels orders the internal hierarchy. VENDOR is deliberately absent: it is
// only comparable with SUPER_ADMIN.
var levels = map[Role]int{
	RoleL4:         1,
	RoleL3:         2,
	RoleL2:         3,
	RoleL1:         4,
	RoleSuperAdmin: 5,
}

func Known(role Role) bool {
	if role == RoleVendor {
		return true
	}
	_, ok := levels[role]
	return ok
}

// AtLeast reports whether role >= min in the partial order
// SUPER_ADMIN > L1 > L2 > L3 > L4 and SUPER_ADMIN > VENDOR.
func AtLeast(role, min Role) bool {
	if !Known(role) || !Known(min) {
		return false
	}
	if role == min || role == RoleSuperAdmin {
		return true
	}
	if role == RoleVendor || min == RoleVendor {
		return false
	}
	return levels[role] >= levels[min]
}

func Can(role Role, action Action) bool {
	switch action {
	case ActionView:
		return Known(role)
	case ActionEditProject, ActionAssignLead:
		return AtLeast(role, RoleL1)
	case ActionArchive, ActionViewRFI:
		return AtLeast(role, RoleL2)
	case ActionViewMAS:
		return AtLeast(role, RoleL2) || role == RoleVendor
	case ActionVendorSummary:
		return AtLeast(role, RoleVendor)
	case ActionManageStandards:
		return role == RoleSuperAdmin
	default:
		return false
	}
}

// Normalize maps a backend user_level tag onto a Role, falling back to
// DefaultRole for empty or unrecognized values.
func Normalize(raw string) Role {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if Known(role) {
		return role
	}
	return DefaultRole
}
