package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snagadev/workspace-api/internal/dto"
	apierrors "github.com/snagadev/workspace-api/internal/errors"
	"github.com/snagadev/workspace-api/internal/middleware"
	"github.com/snagadev/workspace-api/internal/models"
	"github.com/snagadev/workspace-api/internal/services"
	"github.com/snagadev/workspace-api/internal/utils"
)

// ProjectHandler coordinates project and billing HTTP handlers.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// CreateProject creates a project inside the workspace from the URL.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}
	userID, _ := middleware.GetUserID(c)

	type CreateProjectRequest struct {
		Name             string `json:"name" binding:"required,max=150"`
		Key              string `json:"key" binding:"required,max=10"`
		Description      string `json:"description"`
		IsPublic         *bool  `json:"is_public"`
		IsBillable       *bool  `json:"is_billable"`
		AvatarBackground string `json:"avatar_background" binding:"omitempty,max=7"`
		AvatarEmoji      string `json:"avatar_emoji" binding:"omitempty,max=8"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(ws.ID, userID, services.CreateProjectInput{
		Name:             req.Name,
		Key:              req.Key,
		Description:      req.Description,
		IsPublic:         req.IsPublic,
		IsBillable:       req.IsBillable,
		AvatarBackground: req.AvatarBackground,
		AvatarEmoji:      req.AvatarEmoji,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// ListProjects lists projects the caller owns or is a member of.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	projects, err := h.projectService.ListProjects(userID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	out := make([]dto.ProjectDTO, len(projects))
	for i, project := range projects {
		out[i] = dto.ToProjectDTO(project)
	}
	c.JSON(http.StatusOK, gin.H{"projects": out})
}

// GetProject returns the project with its members.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	members, err := h.projectService.ListProjectMembers(project.ID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDetailDTO(*project, members))
}

// UpdateProject applies partial changes to the project.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	type UpdateProjectRequest struct {
		Name             *string `json:"name" binding:"omitempty,max=150"`
		Key              *string `json:"key" binding:"omitempty,max=10"`
		Description      *string `json:"description"`
		IsPublic         *bool   `json:"is_public"`
		IsBillable       *bool   `json:"is_billable"`
		IsActive         *bool   `json:"is_active"`
		AvatarBackground *string `json:"avatar_background" binding:"omitempty,max=7"`
		AvatarEmoji      *string `json:"avatar_emoji" binding:"omitempty,max=8"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.UpdateProject(project, services.UpdateProjectInput{
		Name:             req.Name,
		Key:              req.Key,
		Description:      req.Description,
		IsPublic:         req.IsPublic,
		IsBillable:       req.IsBillable,
		IsActive:         req.IsActive,
		AvatarBackground: req.AvatarBackground,
		AvatarEmoji:      req.AvatarEmoji,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// ListProjectMembers lists the members of the project.
func (h *ProjectHandler) ListProjectMembers(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	members, err := h.projectService.ListProjectMembers(project.ID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	out := make([]dto.ProjectMemberDTO, len(members))
	for i, member := range members {
		out[i] = dto.ToProjectMemberDTO(member)
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

// AddProjectMember attaches an active workspace member to the project.
func (h *ProjectHandler) AddProjectMember(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	type AddMemberRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.projectService.AddProjectMember(project, req.UserID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectMemberDTO(*member))
}

// GetBilling returns the billing setup of the project.
func (h *ProjectHandler) GetBilling(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	billing, err := h.projectService.GetBilling(project.ID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectBillingDTO(*billing))
}

// SaveBilling creates or replaces the billing setup of the project.
func (h *ProjectHandler) SaveBilling(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	type BillingRequest struct {
		Type  models.BillingType `json:"type" binding:"omitempty,oneof=hourly fixed subscription per_task non_billable"`
		Limit float64            `json:"limit" binding:"gte=0"`
	}

	var req BillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	billing, err := h.projectService.SaveBilling(project.ID, services.BillingInput{
		Type:  req.Type,
		Limit: req.Limit,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectBillingDTO(*billing))
}

// AddQuote appends a ledger entry to the project's billing setup.
func (h *ProjectHandler) AddQuote(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	type QuoteRequest struct {
		Description string           `json:"description"`
		QuoteType   models.QuoteType `json:"quote_type" binding:"omitempty,oneof=deposit withdrawal invoice refund"`
		Amount      float64          `json:"amount" binding:"required"`
	}

	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	quote, err := h.projectService.AddQuote(project.ID, services.QuoteInput{
		Description: req.Description,
		QuoteType:   req.QuoteType,
		Amount:      req.Amount,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectQuoteDTO(*quote))
}

// ListQuotes lists a page of the project's billing ledger.
func (h *ProjectHandler) ListQuotes(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	quotes, total, err := h.projectService.ListQuotes(project.ID, params)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	out := make([]dto.ProjectQuoteDTO, len(quotes))
	for i, quote := range quotes {
		out[i] = dto.ToProjectQuoteDTO(quote)
	}
	c.JSON(http.StatusOK, gin.H{
		"quotes": out,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNameMissing),
		errors.Is(err, services.ErrProjectKeyMissing),
		errors.Is(err, services.ErrNotWorkspaceMember):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrBillingNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrDuplicateProjectMember):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
