package repository

import (
	"github.com/snagadev/workspace-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(email string) (*models.User, error)

	// Update persists changes to a user
	Update(user *models.User) error
}

// WorkspaceRepository defines the interface for workspace, role and
// workspace-membership data access.
type WorkspaceRepository interface {
	// CreateWithDefaults creates a workspace, its three seeded roles and the
	// owner's admin membership within a single transaction.
	CreateWithDefaults(ws *models.Workspace, roles []models.WorkspaceRole, owner *models.WorkspaceMember) error

	// FindByID finds a workspace by ID
	FindByID(id uint64) (*models.Workspace, error)

	// Update persists changes to a workspace
	Update(ws *models.Workspace) error

	// ListForUser lists workspaces the user owns or is a member of
	ListForUser(userID uint64) ([]models.Workspace, error)

	// AddMember adds a member to a workspace
	AddMember(member *models.WorkspaceMember) error

	// FindMember finds a membership by (workspace, user), role preloaded
	FindMember(workspaceID, userID uint64) (*models.WorkspaceMember, error)

	// FindMemberByID finds a membership by its own ID within a workspace
	FindMemberByID(workspaceID, memberID uint64) (*models.WorkspaceMember, error)

	// FindMemberByEmail finds a membership by the member's email
	FindMemberByEmail(workspaceID uint64, email string) (*models.WorkspaceMember, error)

	// ListMembers lists all members of a workspace with user and role
	ListMembers(workspaceID uint64) ([]models.WorkspaceMember, error)

	// UpdateMember persists changes to a membership
	UpdateMember(member *models.WorkspaceMember) error

	// FindRole finds a role by ID scoped to the workspace
	FindRole(workspaceID, roleID uint64) (*models.WorkspaceRole, error)

	// FindRoleByName finds a role by name scoped to the workspace
	FindRoleByName(workspaceID uint64, name string) (*models.WorkspaceRole, error)

	// ListRoles lists the roles of a workspace
	ListRoles(workspaceID uint64) ([]models.WorkspaceRole, error)

	// TransferOwnership applies an ownership change atomically: the optional
	// escrow membership for the outgoing owner is created, the new owner's
	// membership is saved with its promoted role, and the owner pointer is
	// flipped, all in one transaction.
	TransferOwnership(ws *models.Workspace, newOwner *models.WorkspaceMember, escrow *models.WorkspaceMember) error
}

// ProjectRepository defines the interface for project, project-membership
// and billing data access.
type ProjectRepository interface {
	// CreateWithOwner creates a project and its creator's membership within
	// a single transaction.
	CreateWithOwner(project *models.Project, owner *models.ProjectMember) error

	// FindByID finds a project by ID with its workspace preloaded
	FindByID(id uint64) (*models.Project, error)

	// Update persists changes to a project
	Update(project *models.Project) error

	// ListForUser lists projects the user owns or is an active member of
	ListForUser(userID uint64) ([]models.Project, error)

	// AddMember adds a member to a project
	AddMember(member *models.ProjectMember) error

	// FindMember finds a membership by (project, user)
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)

	// ListMembers lists all members of a project with users preloaded
	ListMembers(projectID uint64) ([]models.ProjectMember, error)

	// SaveBilling creates or updates the billing row of a project
	SaveBilling(billing *models.ProjectBilling) error

	// FindBillingByProject finds the billing row of a project
	FindBillingByProject(projectID uint64) (*models.ProjectBilling, error)

	// CreateQuote appends a quote to a billing setup
	CreateQuote(quote *models.ProjectQuote) error

	// ListQuotes lists a page of quotes of a billing setup, newest first,
	// along with the total count
	ListQuotes(billingID uint64, limit, offset int) ([]models.ProjectQuote, int64, error)
}
