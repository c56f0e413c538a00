package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snagadev/workspace-api/internal/authz"
	"github.com/snagadev/workspace-api/internal/dto"
	apierrors "github.com/snagadev/workspace-api/internal/errors"
	"github.com/snagadev/workspace-api/internal/middleware"
	"github.com/snagadev/workspace-api/internal/permissions"
	"github.com/snagadev/workspace-api/internal/services"
)

// WorkspaceHandler coordinates workspace and membership HTTP handlers.
type WorkspaceHandler struct {
	workspaceService *services.WorkspaceService
	engine           *authz.Engine
}

// NewWorkspaceHandler creates a new WorkspaceHandler.
func NewWorkspaceHandler(workspaceService *services.WorkspaceService, engine *authz.Engine) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		engine:           engine,
	}
}

// CreateWorkspace creates a workspace owned by the caller.
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateWorkspaceRequest struct {
		Name             string `json:"name" binding:"required,max=255"`
		Description      string `json:"description"`
		Currency         string `json:"currency" binding:"omitempty,len=3"`
		AvatarBackground string `json:"avatar_background" binding:"omitempty,max=7"`
		AvatarEmoji      string `json:"avatar_emoji" binding:"omitempty,max=8"`
	}

	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ws, err := h.workspaceService.CreateWorkspace(userID, services.CreateWorkspaceInput{
		Name:             req.Name,
		Description:      req.Description,
		Currency:         req.Currency,
		AvatarBackground: req.AvatarBackground,
		AvatarEmoji:      req.AvatarEmoji,
	})
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToWorkspaceDTO(*ws))
}

// ListWorkspaces lists workspaces the caller owns or belongs to.
func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	workspaces, err := h.workspaceService.ListWorkspaces(userID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	out := make([]dto.WorkspaceDTO, len(workspaces))
	for i, ws := range workspaces {
		out[i] = dto.ToWorkspaceDTO(ws)
	}
	c.JSON(http.StatusOK, gin.H{"workspaces": out})
}

// GetWorkspace returns the workspace with its members and roles.
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	members, err := h.workspaceService.ListMembers(ws.ID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}
	roles, err := h.workspaceService.ListRoles(ws.ID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceDetailDTO(*ws, members, roles))
}

// UpdateWorkspace applies partial changes to the workspace.
func (h *WorkspaceHandler) UpdateWorkspace(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	type UpdateWorkspaceRequest struct {
		Name             *string `json:"name" binding:"omitempty,max=255"`
		Description      *string `json:"description"`
		Currency         *string `json:"currency" binding:"omitempty,len=3"`
		AvatarBackground *string `json:"avatar_background" binding:"omitempty,max=7"`
		AvatarEmoji      *string `json:"avatar_emoji" binding:"omitempty,max=8"`
		IsActive         *bool   `json:"is_active"`
	}

	var req UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ws, err := h.workspaceService.UpdateWorkspace(ws, services.UpdateWorkspaceInput{
		Name:             req.Name,
		Description:      req.Description,
		Currency:         req.Currency,
		AvatarBackground: req.AvatarBackground,
		AvatarEmoji:      req.AvatarEmoji,
		IsActive:         req.IsActive,
	})
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceDTO(*ws))
}

// ListRoles lists the roles of the workspace.
func (h *WorkspaceHandler) ListRoles(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	roles, err := h.workspaceService.ListRoles(ws.ID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	out := make([]dto.WorkspaceRoleDTO, len(roles))
	for i, role := range roles {
		out[i] = dto.ToWorkspaceRoleDTO(role)
	}
	c.JSON(http.StatusOK, gin.H{"roles": out})
}

// ListMembers lists the members of the workspace.
func (h *WorkspaceHandler) ListMembers(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	members, err := h.workspaceService.ListMembers(ws.ID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	out := make([]dto.WorkspaceMemberDTO, len(members))
	for i, member := range members {
		out[i] = dto.ToWorkspaceMemberDTO(member)
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

// InviteMember adds a user to the workspace by email. Granting the admin
// role through an invite is reserved for the owner.
func (h *WorkspaceHandler) InviteMember(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}
	userID, _ := middleware.GetUserID(c)

	type InviteMemberRequest struct {
		Email    string   `json:"email" binding:"required,email"`
		RoleID   *uint64  `json:"role_id"`
		HourRate *float64 `json:"hour_rate" binding:"omitempty,gte=0"`
	}

	var req InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.RoleID != nil {
		role, err := h.workspaceService.GetRole(ws.ID, *req.RoleID)
		if err != nil {
			respondWorkspaceError(c, err)
			return
		}
		allowed, err := h.engine.CanGrantRole(ws, userID, role)
		if err != nil {
			apierrors.InternalError(c, "")
			return
		}
		if !allowed {
			apierrors.Forbidden(c)
			return
		}
	}

	member, err := h.workspaceService.InviteMember(c.Request.Context(), ws, services.InviteMemberInput{
		Email:    req.Email,
		RoleID:   req.RoleID,
		HourRate: req.HourRate,
	})
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToWorkspaceMemberDTO(*member))
}

type memberSelectorRequest struct {
	UserID   *uint64 `json:"user_id"`
	Email    *string `json:"email"`
	MemberID *uint64 `json:"member_id"`
}

func (r memberSelectorRequest) selector() services.MemberSelector {
	return services.MemberSelector{
		UserID:   r.UserID,
		Email:    r.Email,
		MemberID: r.MemberID,
	}
}

// DeactivateMember suspends a membership.
func (h *WorkspaceHandler) DeactivateMember(c *gin.Context) {
	h.setMemberActive(c, false)
}

// ReactivateMember restores a suspended membership.
func (h *WorkspaceHandler) ReactivateMember(c *gin.Context) {
	h.setMemberActive(c, true)
}

func (h *WorkspaceHandler) setMemberActive(c *gin.Context, active bool) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req memberSelectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.workspaceService.ResolveMember(ws.ID, req.selector())
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	allowed, err := h.engine.CanManageMember(ws, userID, member, permissions.CanDeactivateUsers)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}
	if !allowed {
		apierrors.Forbidden(c)
		return
	}

	member, err = h.workspaceService.SetMemberActive(member, active)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceMemberDTO(*member))
}

// ChangeMemberRole assigns a different workspace role to a member. Granting
// the admin role is reserved for the owner, and admins cannot re-role other
// admins.
func (h *WorkspaceHandler) ChangeMemberRole(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}
	userID, _ := middleware.GetUserID(c)

	type ChangeRoleRequest struct {
		memberSelectorRequest
		RoleID uint64 `json:"role_id" binding:"required"`
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.workspaceService.ResolveMember(ws.ID, req.selector())
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	role, err := h.workspaceService.GetRole(ws.ID, req.RoleID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	allowed, err := h.engine.CanManageMember(ws, userID, member, permissions.CanChangeRoles)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}
	if allowed {
		allowed, err = h.engine.CanGrantRole(ws, userID, role)
		if err != nil {
			apierrors.InternalError(c, "")
			return
		}
	}
	if !allowed {
		apierrors.Forbidden(c)
		return
	}

	member, err = h.workspaceService.ChangeMemberRole(member, role.ID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceMemberDTO(*member))
}

// TransferOwnership hands the workspace to another active member. Only the
// current owner can initiate it.
func (h *WorkspaceHandler) TransferOwnership(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req memberSelectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ws, err := h.workspaceService.TransferOwnership(ws, userID, req.selector())
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceDTO(*ws))
}

func respondWorkspaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrWorkspaceNameMissing),
		errors.Is(err, services.ErrInvalidSelector),
		errors.Is(err, services.ErrRoleNotInWorkspace),
		errors.Is(err, services.ErrInactiveMember),
		errors.Is(err, services.ErrNewOwnerNotMember),
		errors.Is(err, services.ErrAlreadyOwner):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrWorkspaceNotFound),
		errors.Is(err, services.ErrMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrDuplicateMember),
		errors.Is(err, services.ErrAlreadyInState):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrNotCurrentOwner):
		apierrors.Forbidden(c)
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
