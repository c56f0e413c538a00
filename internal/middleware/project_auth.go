package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/snagadev/workspace-api/internal/authz"
	"github.com/snagadev/workspace-api/internal/constants"
	"github.com/snagadev/workspace-api/internal/database"
	apierrors "github.com/snagadev/workspace-api/internal/errors"
	"github.com/snagadev/workspace-api/internal/models"
	"github.com/snagadev/workspace-api/internal/permissions"
)

func projectMethodCapability(method string) permissions.Capability {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return permissions.CanViewProject
	default:
		return permissions.CanEditProject
	}
}

// RequireProjectCapability loads the project from the :id parameter and runs
// the capability check. A denied view reads as 404: invisible projects do
// not exist as far as the caller can tell. Denied writes on a visible
// project get 403.
func RequireProjectCapability(engine *authz.Engine, capability permissions.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var project models.Project
		if err := database.GetDB().Preload("Workspace").First(&project, projectID).Error; err != nil {
			apierrors.NotFound(c, "Project not found")
			c.Abort()
			return
		}

		visible, err := engine.AuthorizeProject(&project, userID, permissions.CanViewProject)
		if err != nil {
			apierrors.InternalError(c, "")
			c.Abort()
			return
		}
		if !visible {
			apierrors.NotFound(c, "Project not found")
			c.Abort()
			return
		}

		required := capability
		if required == "" {
			required = projectMethodCapability(c.Request.Method)
		}

		if required != permissions.CanViewProject {
			allowed, err := engine.AuthorizeProject(&project, userID, required)
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
		}

		c.Set(constants.ContextKeyProject, &project)
		c.Next()
	}
}

// GetProject retrieves the project loaded by RequireProjectCapability.
func GetProject(c *gin.Context) (*models.Project, bool) {
	value, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return nil, false
	}
	project, ok := value.(*models.Project)
	return project, ok
}
