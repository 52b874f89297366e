package auth

// Permissions is the small set of capabilities the UI and services gate on.
// It is derived from a profile's role and active flag and nothing else.
type Permissions struct {
	CreateJob   bool
	EditJob     bool
	DeleteImage bool
	ManageUsers bool
}

// PermissionsForRole maps a role to its permissions. The active flag must be
// checked by the caller via PermissionsFor; an unknown role gets nothing.
func PermissionsForRole(role Role) Permissions {
	switch role {
	case RoleAdmin:
		return Permissions{CreateJob: true, EditJob: true, DeleteImage: true, ManageUsers: true}
	case RoleOperator:
		return Permissions{CreateJob: true, EditJob: true, DeleteImage: true}
	default:
		return Permissions{}
	}
}

// PermissionsFor derives permissions from a session. A nil session or a
// deactivated profile yields no permissions regardless of role.
func PermissionsFor(s *Session) Permissions {
	if s == nil || !s.Active {
		return Permissions{}
	}
	return PermissionsForRole(s.Role)
}

// Permission predicates for use with policy checks.

func CanCreateJob(p Permissions) bool   { return p.CreateJob }
func CanEditJob(p Permissions) bool     { return p.EditJob }
func CanDeleteImage(p Permissions) bool { return p.DeleteImage }
func CanManageUsers(p Permissions) bool { return p.ManageUsers }
