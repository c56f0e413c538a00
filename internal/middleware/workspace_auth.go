package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/snagadev/workspace-api/internal/authz"
	"github.com/snagadev/workspace-api/internal/constants"
	"github.com/snagadev/workspace-api/internal/database"
	apierrors "github.com/snagadev/workspace-api/internal/errors"
	"github.com/snagadev/workspace-api/internal/models"
	"github.com/snagadev/workspace-api/internal/permissions"
	"gorm.io/gorm"
)

// workspaceMethodCapability is the transport-level fallback used when a
// route does not name a capability explicitly: reads need viewing, writes
// need editing, deletes need deleting.
func workspaceMethodCapability(method string) permissions.Capability {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return permissions.CanViewWorkspace
	case http.MethodDelete:
		return permissions.CanDeleteWorkspace
	default:
		return permissions.CanEditWorkspace
	}
}

// RequireWorkspaceCapability loads the workspace from the :id parameter and
// runs the capability check for the current user. An empty capability falls
// back to the HTTP method mapping. Non-members get 404 rather than 403 so a
// workspace's existence is never leaked; members failing the check get a
// generic 403.
func RequireWorkspaceCapability(engine *authz.Engine, capability permissions.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		wsID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid workspace ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var ws models.Workspace
		if err := database.GetDB().First(&ws, wsID).Error; err != nil {
			apierrors.NotFound(c, "Workspace not found")
			c.Abort()
			return
		}

		var member models.WorkspaceMember
		memberErr := database.GetDB().
			Preload("Role").
			Where("workspace_id = ? AND user_id = ?", ws.ID, userID).
			First(&member).Error
		if memberErr != nil && !errors.Is(memberErr, gorm.ErrRecordNotFound) {
			apierrors.InternalError(c, "")
			c.Abort()
			return
		}

		// Strangers see nothing, not even that the workspace exists.
		if ws.OwnerID != userID && memberErr != nil {
			apierrors.NotFound(c, "Workspace not found")
			c.Abort()
			return
		}

		required := capability
		if required == "" {
			required = workspaceMethodCapability(c.Request.Method)
		}

		allowed, err := engine.AuthorizeWorkspace(&ws, userID, required)
		if err != nil {
			apierrors.InternalError(c, "")
			c.Abort()
			return
		}
		if !allowed {
			apierrors.Forbidden(c)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyWorkspace, &ws)
		if memberErr == nil {
			c.Set(constants.ContextKeyMember, &member)
		}
		c.Next()
	}
}

// GetWorkspace retrieves the workspace loaded by RequireWorkspaceCapability.
func GetWorkspace(c *gin.Context) (*models.Workspace, bool) {
	value, exists := c.Get(constants.ContextKeyWorkspace)
	if !exists {
		return nil, false
	}
	ws, ok := value.(*models.Workspace)
	return ws, ok
}

// GetWorkspaceMember retrieves the caller's membership if one was loaded.
// Owners without a membership row have none.
func GetWorkspaceMember(c *gin.Context) (*models.WorkspaceMember, bool) {
	value, exists := c.Get(constants.ContextKeyMember)
	if !exists {
		return nil, false
	}
	member, ok := value.(*models.WorkspaceMember)
	return member, ok
}
