package dto

import (
	"time"

	"github.com/snagadev/workspace-api/internal/models"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID               uint64    `json:"id"`
	WorkspaceID      uint64    `json:"workspace_id"`
	Name             string    `json:"name"`
	Key              string    `json:"key"`
	Description      string    `json:"description"`
	IsPublic         bool      `json:"is_public"`
	IsBillable       bool      `json:"is_billable"`
	IsActive         bool      `json:"is_active"`
	AvatarBackground string    `json:"avatar_background"`
	AvatarEmoji      string    `json:"avatar_emoji"`
	OwnerID          uint64    `json:"owner_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// ProjectMemberDTO represents a project member in API responses
type ProjectMemberDTO struct {
	ID       uint64    `json:"id"`
	User     UserDTO   `json:"user"`
	IsActive bool      `json:"is_active"`
	JoinedAt time.Time `json:"joined_at"`
}

// ProjectDetailDTO represents a project with its members
type ProjectDetailDTO struct {
	ProjectDTO
	Members []ProjectMemberDTO `json:"members"`
}

// ProjectBillingDTO represents a project's billing setup
type ProjectBillingDTO struct {
	ID        uint64             `json:"id"`
	ProjectID uint64             `json:"project_id"`
	Type      models.BillingType `json:"type"`
	Limit     float64            `json:"limit"`
}

// ProjectQuoteDTO represents a billing ledger entry
type ProjectQuoteDTO struct {
	ID          uint64           `json:"id"`
	Description string           `json:"description"`
	QuoteType   models.QuoteType `json:"quote_type"`
	Amount      float64          `json:"amount"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:               project.ID,
		WorkspaceID:      project.WorkspaceID,
		Name:             project.Name,
		Key:              project.Key,
		Description:      project.Description,
		IsPublic:         project.IsPublic,
		IsBillable:       project.IsBillable,
		IsActive:         project.IsActive,
		AvatarBackground: project.AvatarBackground,
		AvatarEmoji:      project.AvatarEmoji,
		OwnerID:          project.OwnerID,
		CreatedAt:        project.CreatedAt,
	}
}

// ToProjectMemberDTO converts a project member to DTO
func ToProjectMemberDTO(member models.ProjectMember) ProjectMemberDTO {
	return ProjectMemberDTO{
		ID:       member.ID,
		User:     ToUserDTO(member.User),
		IsActive: member.IsActive,
		JoinedAt: member.JoinedAt,
	}
}

// ToProjectDetailDTO converts a project with members to a detailed DTO
func ToProjectDetailDTO(project models.Project, members []models.ProjectMember) ProjectDetailDTO {
	memberDTOs := make([]ProjectMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToProjectMemberDTO(member)
	}
	return ProjectDetailDTO{
		ProjectDTO: ToProjectDTO(project),
		Members:    memberDTOs,
	}
}

// ToProjectBillingDTO converts a billing row to DTO
func ToProjectBillingDTO(billing models.ProjectBilling) ProjectBillingDTO {
	return ProjectBillingDTO{
		ID:        billing.ID,
		ProjectID: billing.ProjectID,
		Type:      billing.Type,
		Limit:     billing.Limit,
	}
}

// ToProjectQuoteDTO converts a quote to DTO
func ToProjectQuoteDTO(quote models.ProjectQuote) ProjectQuoteDTO {
	return ProjectQuoteDTO{
		ID:          quote.ID,
		Description: quote.Description,
		QuoteType:   quote.QuoteType,
		Amount:      quote.Amount,
		CreatedAt:   quote.CreatedAt,
	}
}
