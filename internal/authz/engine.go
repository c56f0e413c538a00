// Package authz is the single decision point for role-based access checks.
// Every protected request resolves to one Engine call taking an explicit
// capability; mapping HTTP methods to capabilities happens at the transport
// boundary, never here.
package authz

import (
	"errors"

	"github.com/snagadev/workspace-api/internal/models"
	"github.com/snagadev/workspace-api/internal/permissions"
	"github.com/snagadev/workspace-api/internal/repository"
	"gorm.io/gorm"
)

// Engine answers allow/deny for (actor, resource, capability) by composing
// the ownership override, membership state and role capability lookups.
type Engine struct {
	workspaces repository.WorkspaceRepository
	projects   repository.ProjectRepository
}

// NewEngine creates an Engine over the membership and role stores.
func NewEngine(workspaces repository.WorkspaceRepository, projects repository.ProjectRepository) *Engine {
	return &Engine{
		workspaces: workspaces,
		projects:   projects,
	}
}

// AuthorizeWorkspace decides whether the actor may exercise the capability
// on the workspace. Ownership is an absolute override; otherwise the actor
// needs an active membership and a role granting the capability, except for
// the always-allowed set every active member holds.
func (e *Engine) AuthorizeWorkspace(ws *models.Workspace, actorID uint64, capability permissions.Capability) (bool, error) {
	if ws.OwnerID == actorID {
		return true, nil
	}

	member, err := e.activeMember(ws.ID, actorID)
	if err != nil {
		return false, err
	}
	if member == nil {
		return false, nil
	}

	if permissions.AlwaysAllowed.Has(capability) {
		return true, nil
	}

	return member.Role.Allows(capability), nil
}

// AuthorizeProject decides whether the actor may exercise the capability on
// the project. Project ownership mirrors the workspace override. Viewing has
// its own rule: an active project member always sees the project, and public
// projects are additionally visible to workspace roles holding
// can_view_public_projects. Private projects are never visible without
// project membership, whatever the workspace role grants.
func (e *Engine) AuthorizeProject(project *models.Project, actorID uint64, capability permissions.Capability) (bool, error) {
	if project.OwnerID == actorID {
		return true, nil
	}

	member, err := e.activeMember(project.WorkspaceID, actorID)
	if err != nil {
		return false, err
	}
	if member == nil {
		return false, nil
	}

	if capability == permissions.CanViewProject {
		isProjectMember, err := e.activeProjectMember(project.ID, actorID)
		if err != nil {
			return false, err
		}
		if isProjectMember {
			return true, nil
		}
		return project.IsPublic && member.Role.Allows(permissions.CanViewPublicProjects), nil
	}

	return member.Role.Allows(capability), nil
}

// CanManageMember decides whether the actor may deactivate, reactivate or
// change the role of the target membership. On top of the capability check,
// a target holding the admin role can only be touched by the workspace
// owner; one admin never manages another.
func (e *Engine) CanManageMember(ws *models.Workspace, actorID uint64, target *models.WorkspaceMember, capability permissions.Capability) (bool, error) {
	if ws.OwnerID == actorID {
		return true, nil
	}

	member, err := e.activeMember(ws.ID, actorID)
	if err != nil {
		return false, err
	}
	if member == nil || !member.Role.Allows(capability) {
		return false, nil
	}

	if target.Role != nil && target.Role.Name == permissions.RoleAdmin {
		return false, nil
	}
	return true, nil
}

// CanGrantRole decides whether the actor may add or invite a member with the
// given role. Admins can invite, but granting the admin role itself is
// reserved for the owner.
func (e *Engine) CanGrantRole(ws *models.Workspace, actorID uint64, role *models.WorkspaceRole) (bool, error) {
	if ws.OwnerID == actorID {
		return true, nil
	}

	member, err := e.activeMember(ws.ID, actorID)
	if err != nil {
		return false, err
	}
	if member == nil || !member.Role.Allows(permissions.CanInviteUsers) {
		return false, nil
	}

	if role != nil && role.Name == permissions.RoleAdmin {
		return false, nil
	}
	return true, nil
}

func (e *Engine) activeMember(workspaceID, userID uint64) (*models.WorkspaceMember, error) {
	member, err := e.workspaces.FindMember(workspaceID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !member.IsActive {
		return nil, nil
	}
	return member, nil
}

func (e *Engine) activeProjectMember(projectID, userID uint64) (bool, error) {
	member, err := e.projects.FindMember(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return member.IsActive, nil
}
