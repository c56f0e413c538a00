// Package permissions defines the closed vocabulary of capability flags
// and the default capability sets seeded into every workspace's roles.
package permissions

// Capability is a named boolean permission flag. The vocabulary is closed:
// looking up a name outside it always denies.
type Capability string

const (
	CanViewWorkspace   Capability = "can_view_workspace"
	CanEditWorkspace   Capability = "can_edit_workspace"
	CanDeleteWorkspace Capability = "can_delete_workspace"

	CanInviteUsers     Capability = "can_invite_users"
	CanDeactivateUsers Capability = "can_deactivate_users"
	CanChangeRoles     Capability = "can_change_roles"
	CanViewReports     Capability = "can_view_reports"

	CanViewProject           Capability = "can_view_project"
	CanEditProject           Capability = "can_edit_project"
	CanCreateProjects        Capability = "can_create_projects"
	CanEditProjects          Capability = "can_edit_projects"
	CanDeleteProjects        Capability = "can_delete_projects"
	CanViewPublicProjects    Capability = "can_view_public_projects"
	CanInviteUsersToProject  Capability = "can_invite_users_to_project"
)

// All lists every known capability, in a stable order.
var All = []Capability{
	CanViewWorkspace,
	CanEditWorkspace,
	CanDeleteWorkspace,
	CanInviteUsers,
	CanDeactivateUsers,
	CanChangeRoles,
	CanViewReports,
	CanViewProject,
	CanEditProject,
	CanCreateProjects,
	CanEditProjects,
	CanDeleteProjects,
	CanViewPublicProjects,
	CanInviteUsersToProject,
}

// CapabilitySet maps capability names to grants. It is stored on roles as a
// JSON column.
type CapabilitySet map[Capability]bool

// Has reports whether the capability is granted. An absent key denies.
func (s CapabilitySet) Has(c Capability) bool {
	return s[c]
}

// Clone returns an independent copy of the set.
func (s CapabilitySet) Clone() CapabilitySet {
	out := make(CapabilitySet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Default role names seeded into every new workspace.
const (
	RoleAdmin  = "admin"
	RoleUser   = "user"
	RoleClient = "client"
)

// RoleDescriptions holds the seeded description for each default role.
var RoleDescriptions = map[string]string{
	RoleAdmin:  "Administrator of the workspace",
	RoleUser:   "Regular user of the workspace",
	RoleClient: "Client with limited access",
}

// DefaultRoleCapabilities maps each default role name to the capability set
// it is created with: admin gets everything, user can work with projects but
// has no destructive or member-administration rights, client is view-only.
var DefaultRoleCapabilities = map[string]CapabilitySet{
	RoleAdmin: fullSet(),
	RoleUser: {
		CanViewWorkspace:        true,
		CanViewReports:          true,
		CanViewProject:          true,
		CanEditProject:          true,
		CanCreateProjects:       true,
		CanEditProjects:         true,
		CanViewPublicProjects:   true,
		CanEditWorkspace:        false,
		CanDeleteWorkspace:      false,
		CanInviteUsers:          false,
		CanDeactivateUsers:      false,
		CanChangeRoles:          false,
		CanDeleteProjects:       false,
		CanInviteUsersToProject: false,
	},
	RoleClient: {
		CanViewWorkspace:        true,
		CanViewReports:          true,
		CanViewProject:          true,
		CanViewPublicProjects:   true,
		CanEditWorkspace:        false,
		CanDeleteWorkspace:      false,
		CanInviteUsers:          false,
		CanDeactivateUsers:      false,
		CanChangeRoles:          false,
		CanEditProject:          false,
		CanCreateProjects:       false,
		CanEditProjects:         false,
		CanDeleteProjects:       false,
		CanInviteUsersToProject: false,
	},
}

// AlwaysAllowed lists capabilities every active member holds regardless of
// role: base membership implies being able to see the workspace itself.
var AlwaysAllowed = CapabilitySet{
	CanViewWorkspace: true,
}

// DefaultsFor returns a copy of the default capability set for a role name,
// or an empty set for unknown names.
func DefaultsFor(roleName string) CapabilitySet {
	defaults, ok := DefaultRoleCapabilities[roleName]
	if !ok {
		return CapabilitySet{}
	}
	return defaults.Clone()
}

func fullSet() CapabilitySet {
	s := make(CapabilitySet, len(All))
	for _, c := range All {
		s[c] = true
	}
	return s
}
