package repository

import (
	"errors"
	"fmt"

	"github.com/snagadev/workspace-api/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrCreateWorkspace is returned when creating the workspace row fails
	// inside the creation transaction.
	ErrCreateWorkspace = errors.New("workspace repository: create workspace failed")
	// ErrSeedRoles is returned when seeding the default roles fails inside
	// the creation transaction.
	ErrSeedRoles = errors.New("workspace repository: seed default roles failed")
	// ErrCreateOwnerMember is returned when creating the owner's membership
	// fails inside the creation transaction.
	ErrCreateOwnerMember = errors.New("workspace repository: create owner membership failed")
)

// GormWorkspaceRepository is a GORM implementation of WorkspaceRepository
type GormWorkspaceRepository struct {
	db *gorm.DB
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &GormWorkspaceRepository{db: db}
}

// CreateWithDefaults creates the workspace, its seeded roles and the owner's
// membership atomically. Roles must exist before any membership is granted,
// so everything runs in one transaction tied to workspace creation.
func (r *GormWorkspaceRepository) CreateWithDefaults(ws *models.Workspace, roles []models.WorkspaceRole, owner *models.WorkspaceMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ws).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateWorkspace, err)
		}

		for i := range roles {
			roles[i].WorkspaceID = ws.ID
		}
		if err := tx.Create(&roles).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrSeedRoles, err)
		}

		owner.WorkspaceID = ws.ID
		for i := range roles {
			if roles[i].Name == "admin" {
				roleID := roles[i].ID
				owner.RoleID = &roleID
				break
			}
		}
		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOwnerMember, err)
		}

		return nil
	})
}

// FindByID finds a workspace by ID
func (r *GormWorkspaceRepository) FindByID(id uint64) (*models.Workspace, error) {
	var ws models.Workspace
	if err := r.db.First(&ws, id).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

// Update persists changes to a workspace
func (r *GormWorkspaceRepository) Update(ws *models.Workspace) error {
	return r.db.Save(ws).Error
}

// ListForUser lists workspaces the user owns or is a member of
func (r *GormWorkspaceRepository) ListForUser(userID uint64) ([]models.Workspace, error) {
	var workspaces []models.Workspace
	err := r.db.
		Distinct("workspaces.*").
		Joins("LEFT JOIN workspace_members ON workspace_members.workspace_id = workspaces.id").
		Where("workspaces.owner_id = ? OR workspace_members.user_id = ?", userID, userID).
		Find(&workspaces).Error
	if err != nil {
		return nil, err
	}
	return workspaces, nil
}

// AddMember adds a member to a workspace
func (r *GormWorkspaceRepository) AddMember(member *models.WorkspaceMember) error {
	return r.db.Create(member).Error
}

// FindMember finds a membership by (workspace, user) with the role preloaded
func (r *GormWorkspaceRepository) FindMember(workspaceID, userID uint64) (*models.WorkspaceMember, error) {
	var member models.WorkspaceMember
	if err := r.db.Preload("Role").
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindMemberByID finds a membership by its own ID within a workspace
func (r *GormWorkspaceRepository) FindMemberByID(workspaceID, memberID uint64) (*models.WorkspaceMember, error) {
	var member models.WorkspaceMember
	if err := r.db.Preload("Role").
		Where("workspace_id = ? AND id = ?", workspaceID, memberID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindMemberByEmail finds a membership by the member's email
func (r *GormWorkspaceRepository) FindMemberByEmail(workspaceID uint64, email string) (*models.WorkspaceMember, error) {
	var member models.WorkspaceMember
	if err := r.db.Preload("Role").
		Joins("JOIN users ON users.id = workspace_members.user_id").
		Where("workspace_members.workspace_id = ? AND users.email = ?", workspaceID, email).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a workspace with user and role preloaded
func (r *GormWorkspaceRepository) ListMembers(workspaceID uint64) ([]models.WorkspaceMember, error) {
	var members []models.WorkspaceMember
	if err := r.db.Preload("User").Preload("Role").
		Where("workspace_id = ?", workspaceID).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateMember persists changes to a membership
func (r *GormWorkspaceRepository) UpdateMember(member *models.WorkspaceMember) error {
	return r.db.Save(member).Error
}

// FindRole finds a role by ID scoped to the workspace
func (r *GormWorkspaceRepository) FindRole(workspaceID, roleID uint64) (*models.WorkspaceRole, error) {
	var role models.WorkspaceRole
	if err := r.db.Where("workspace_id = ? AND id = ?", workspaceID, roleID).
		First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// FindRoleByName finds a role by name scoped to the workspace. Role names
// are only meaningful within their workspace, so the query always filters
// by workspace id.
func (r *GormWorkspaceRepository) FindRoleByName(workspaceID uint64, name string) (*models.WorkspaceRole, error) {
	var role models.WorkspaceRole
	if err := r.db.Where("workspace_id = ? AND name = ?", workspaceID, name).
		First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// ListRoles lists the roles of a workspace
func (r *GormWorkspaceRepository) ListRoles(workspaceID uint64) ([]models.WorkspaceRole, error) {
	var roles []models.WorkspaceRole
	if err := r.db.Where("workspace_id = ?", workspaceID).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// TransferOwnership applies the escrow membership, the new owner's promoted
// membership and the owner pointer update as one transaction. Concurrent
// readers never observe a partially applied transfer.
func (r *GormWorkspaceRepository) TransferOwnership(ws *models.Workspace, newOwner *models.WorkspaceMember, escrow *models.WorkspaceMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if escrow != nil {
			if err := tx.Create(escrow).Error; err != nil {
				return err
			}
		}

		if err := tx.Save(newOwner).Error; err != nil {
			return err
		}

		return tx.Model(&models.Workspace{}).
			Where("id = ?", ws.ID).
			Update("owner_id", ws.OwnerID).Error
	})
}
