package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/snagadev/workspace-api/internal/codes"
	"github.com/snagadev/workspace-api/internal/mailer"
	"github.com/snagadev/workspace-api/internal/models"
	"github.com/snagadev/workspace-api/internal/permissions"
	"github.com/snagadev/workspace-api/internal/repository"
	"github.com/snagadev/workspace-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrWorkspaceNotFound    = errors.New("workspace not found")
	ErrWorkspaceNameMissing = errors.New("workspace name is required")
	ErrRoleNotInWorkspace   = errors.New("role does not belong to this workspace")
	ErrMemberNotFound       = errors.New("member not found")
	ErrDuplicateMember      = errors.New("user is already a member of this workspace")
	ErrAlreadyInState       = errors.New("member is already in the requested state")
	ErrInactiveMember       = errors.New("member is not active")
	ErrNotCurrentOwner      = errors.New("only the current owner can transfer ownership")
	ErrNewOwnerNotMember    = errors.New("new owner must be an active member of the workspace")
	ErrAlreadyOwner         = errors.New("user already owns this workspace")
	ErrInvalidSelector      = errors.New("exactly one of user_id, email or member_id must be provided")
)

// MemberSelector identifies a workspace member by exactly one of user ID,
// email or membership row ID.
type MemberSelector struct {
	UserID   *uint64
	Email    *string
	MemberID *uint64
}

// Validate checks that exactly one selector field is set.
func (s MemberSelector) Validate() error {
	set := 0
	if s.UserID != nil {
		set++
	}
	if s.Email != nil {
		set++
	}
	if s.MemberID != nil {
		set++
	}
	if set != 1 {
		return ErrInvalidSelector
	}
	return nil
}

// WorkspaceService handles workspace lifecycle, membership administration
// and ownership transfer.
type WorkspaceService struct {
	workspaceRepo repository.WorkspaceRepository
	userRepo      repository.UserRepository
	invites       *codes.InviteStore
	mail          mailer.Mailer
}

// NewWorkspaceService creates a new WorkspaceService.
func NewWorkspaceService(workspaceRepo repository.WorkspaceRepository, userRepo repository.UserRepository, invites *codes.InviteStore, mail mailer.Mailer) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo: workspaceRepo,
		userRepo:      userRepo,
		invites:       invites,
		mail:          mail,
	}
}

// CreateWorkspaceInput represents the required information to create a
// workspace.
type CreateWorkspaceInput struct {
	Name             string
	Description      string
	Currency         string
	AvatarBackground string
	AvatarEmoji      string
}

// CreateWorkspace creates a workspace for the owner. The three default
// roles are seeded and the owner becomes an active admin member, all in one
// transaction.
func (s *WorkspaceService) CreateWorkspace(ownerID uint64, input CreateWorkspaceInput) (*models.Workspace, error) {
	if input.Name == "" {
		return nil, ErrWorkspaceNameMissing
	}

	ws := &models.Workspace{
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     ownerID,
		IsActive:    true,
	}
	if input.Currency != "" {
		ws.Currency = input.Currency
	}
	if input.AvatarBackground != "" {
		ws.AvatarBackground = input.AvatarBackground
	}
	if input.AvatarEmoji != "" {
		ws.AvatarEmoji = input.AvatarEmoji
	}

	roles := make([]models.WorkspaceRole, 0, len(permissions.DefaultRoleCapabilities))
	for _, name := range []string{permissions.RoleAdmin, permissions.RoleUser, permissions.RoleClient} {
		roles = append(roles, models.WorkspaceRole{
			Name:        name,
			Description: permissions.RoleDescriptions[name],
			Settings:    permissions.DefaultsFor(name),
		})
	}

	owner := &models.WorkspaceMember{
		UserID:   ownerID,
		Status:   models.MemberStatusActive,
		IsActive: true,
		JoinedAt: time.Now(),
	}

	if err := s.workspaceRepo.CreateWithDefaults(ws, roles, owner); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return ws, nil
}

// ListWorkspaces lists workspaces the user owns or belongs to.
func (s *WorkspaceService) ListWorkspaces(userID uint64) ([]models.Workspace, error) {
	workspaces, err := s.workspaceRepo.ListForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return workspaces, nil
}

// GetWorkspace retrieves a workspace by ID.
func (s *WorkspaceService) GetWorkspace(id uint64) (*models.Workspace, error) {
	ws, err := s.workspaceRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}
	return ws, nil
}

// UpdateWorkspaceInput holds optional workspace fields to change.
type UpdateWorkspaceInput struct {
	Name             *string
	Description      *string
	Currency         *string
	AvatarBackground *string
	AvatarEmoji      *string
	IsActive         *bool
}

// UpdateWorkspace applies partial changes to a workspace.
func (s *WorkspaceService) UpdateWorkspace(ws *models.Workspace, input UpdateWorkspaceInput) (*models.Workspace, error) {
	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrWorkspaceNameMissing
		}
		ws.Name = *input.Name
	}
	if input.Description != nil {
		ws.Description = *input.Description
	}
	if input.Currency != nil {
		ws.Currency = *input.Currency
	}
	if input.AvatarBackground != nil {
		ws.AvatarBackground = *input.AvatarBackground
	}
	if input.AvatarEmoji != nil {
		ws.AvatarEmoji = *input.AvatarEmoji
	}
	if input.IsActive != nil {
		ws.IsActive = *input.IsActive
	}

	if err := s.workspaceRepo.Update(ws); err != nil {
		return nil, fmt.Errorf("failed to update workspace: %w", err)
	}
	return ws, nil
}

// GetRole retrieves a role scoped to a workspace.
func (s *WorkspaceService) GetRole(workspaceID, roleID uint64) (*models.WorkspaceRole, error) {
	role, err := s.workspaceRepo.FindRole(workspaceID, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotInWorkspace
		}
		return nil, fmt.Errorf("failed to find role: %w", err)
	}
	return role, nil
}

// ListRoles lists the roles defined in a workspace.
func (s *WorkspaceService) ListRoles(workspaceID uint64) ([]models.WorkspaceRole, error) {
	roles, err := s.workspaceRepo.ListRoles(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// ListMembers lists the members of a workspace with users and roles.
func (s *WorkspaceService) ListMembers(workspaceID uint64) ([]models.WorkspaceMember, error) {
	members, err := s.workspaceRepo.ListMembers(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// InviteMemberInput represents an invitation by email with an optional
// initial role.
type InviteMemberInput struct {
	Email    string
	RoleID   *uint64
	HourRate *float64
}

// InviteMember adds a user to a workspace by email. Unknown emails get a
// placeholder inactive account plus an invite email with an activation
// token; known users are attached directly. A user can be added to a
// workspace only once.
func (s *WorkspaceService) InviteMember(ctx context.Context, ws *models.Workspace, input InviteMemberInput) (*models.WorkspaceMember, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	var role *models.WorkspaceRole
	if input.RoleID != nil {
		var err error
		role, err = s.workspaceRepo.FindRole(ws.ID, *input.RoleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrRoleNotInWorkspace
			}
			return nil, fmt.Errorf("failed to find role: %w", err)
		}
	}

	user, err := s.userRepo.FindByEmail(email)
	switch {
	case err == nil:
		if _, err := s.workspaceRepo.FindMember(ws.ID, user.ID); err == nil {
			return nil, ErrDuplicateMember
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check membership: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &models.User{Email: email, IsActive: false}
		if err := s.userRepo.Create(user); err != nil {
			return nil, fmt.Errorf("failed to create invited user: %w", err)
		}

		token, err := s.invites.Issue(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to issue invite token: %w", err)
		}
		if err := s.mail.Send(ctx, user.Email, mailer.TemplateWorkspaceInvite, map[string]any{
			"workspace_name": ws.Name,
			"token":          token,
		}); err != nil {
			log.Printf("Failed to send invite email to %s: %v", user.Email, err)
		}
	default:
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	member := &models.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      user.ID,
		Status:      models.MemberStatusInvited,
		HourRate:    input.HourRate,
		IsActive:    true,
		JoinedAt:    time.Now(),
	}
	if role != nil {
		member.RoleID = &role.ID
	}
	if user.IsActive {
		member.Status = models.MemberStatusActive
	}

	if err := s.workspaceRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return member, nil
}

// ResolveMember finds a workspace membership through a selector.
func (s *WorkspaceService) ResolveMember(workspaceID uint64, selector MemberSelector) (*models.WorkspaceMember, error) {
	if err := selector.Validate(); err != nil {
		return nil, err
	}

	var (
		member *models.WorkspaceMember
		err    error
	)
	switch {
	case selector.UserID != nil:
		member, err = s.workspaceRepo.FindMember(workspaceID, *selector.UserID)
	case selector.Email != nil:
		member, err = s.workspaceRepo.FindMemberByEmail(workspaceID, utils.NormalizeEmail(*selector.Email))
	default:
		member, err = s.workspaceRepo.FindMemberByID(workspaceID, *selector.MemberID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	return member, nil
}

// SetMemberActive activates or deactivates a membership. Deactivation
// suspends the member; reactivation restores active status. Requesting the
// state the member is already in is an error.
func (s *WorkspaceService) SetMemberActive(member *models.WorkspaceMember, active bool) (*models.WorkspaceMember, error) {
	if member.IsActive == active {
		return nil, ErrAlreadyInState
	}

	member.IsActive = active
	if active {
		member.Status = models.MemberStatusActive
	} else {
		member.Status = models.MemberStatusSuspended
	}

	if err := s.workspaceRepo.UpdateMember(member); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return member, nil
}

// ChangeMemberRole assigns a different role of the same workspace to an
// active member.
func (s *WorkspaceService) ChangeMemberRole(member *models.WorkspaceMember, roleID uint64) (*models.WorkspaceMember, error) {
	if !member.IsActive {
		return nil, ErrInactiveMember
	}

	role, err := s.workspaceRepo.FindRole(member.WorkspaceID, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotInWorkspace
		}
		return nil, fmt.Errorf("failed to find role: %w", err)
	}

	member.RoleID = &role.ID
	member.Role = role
	if err := s.workspaceRepo.UpdateMember(member); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return member, nil
}

// TransferOwnership moves a workspace to a new owner. Only the current
// owner may initiate it; the target must be an active member. The new
// owner is promoted to the admin role, and the outgoing owner keeps (or
// gains) an active admin membership so they are not locked out.
func (s *WorkspaceService) TransferOwnership(ws *models.Workspace, actorID uint64, selector MemberSelector) (*models.Workspace, error) {
	if ws.OwnerID != actorID {
		return nil, ErrNotCurrentOwner
	}

	target, err := s.ResolveMember(ws.ID, selector)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, ErrNewOwnerNotMember
		}
		return nil, err
	}
	if !target.IsActive {
		return nil, ErrNewOwnerNotMember
	}
	if target.UserID == ws.OwnerID {
		return nil, ErrAlreadyOwner
	}

	adminRole, err := s.workspaceRepo.FindRoleByName(ws.ID, permissions.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin role: %w", err)
	}

	var escrow *models.WorkspaceMember
	if _, err := s.workspaceRepo.FindMember(ws.ID, ws.OwnerID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check owner membership: %w", err)
		}
		escrow = &models.WorkspaceMember{
			WorkspaceID: ws.ID,
			UserID:      ws.OwnerID,
			RoleID:      &adminRole.ID,
			Status:      models.MemberStatusActive,
			IsActive:    true,
			JoinedAt:    time.Now(),
		}
	}

	target.RoleID = &adminRole.ID
	target.Role = adminRole
	ws.OwnerID = target.UserID

	if err := s.workspaceRepo.TransferOwnership(ws, target, escrow); err != nil {
		return nil, fmt.Errorf("failed to transfer ownership: %w", err)
	}
	return ws, nil
}
