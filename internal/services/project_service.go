package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/snagadev/workspace-api/internal/models"
	"github.com/snagadev/workspace-api/internal/repository"
	"github.com/snagadev/workspace-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound        = errors.New("project not found")
	ErrProjectNameMissing     = errors.New("project name is required")
	ErrProjectKeyMissing      = errors.New("project key is required")
	ErrDuplicateProjectMember = errors.New("user is already a member of this project")
	ErrNotWorkspaceMember     = errors.New("user is not an active member of the workspace")
	ErrBillingNotFound        = errors.New("project has no billing setup")
)

// ProjectService handles project lifecycle, project membership and billing.
type ProjectService struct {
	projectRepo   repository.ProjectRepository
	workspaceRepo repository.WorkspaceRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, workspaceRepo repository.WorkspaceRepository) *ProjectService {
	return &ProjectService{
		projectRepo:   projectRepo,
		workspaceRepo: workspaceRepo,
	}
}

// CreateProjectInput represents the required information to create a
// project.
type CreateProjectInput struct {
	Name             string
	Key              string
	Description      string
	IsPublic         *bool
	IsBillable       *bool
	AvatarBackground string
	AvatarEmoji      string
}

// CreateProject creates a project inside a workspace. The creator becomes
// the project owner and its first member, in one transaction.
func (s *ProjectService) CreateProject(workspaceID, ownerID uint64, input CreateProjectInput) (*models.Project, error) {
	if input.Name == "" {
		return nil, ErrProjectNameMissing
	}
	if input.Key == "" {
		return nil, ErrProjectKeyMissing
	}

	project := &models.Project{
		WorkspaceID: workspaceID,
		Name:        input.Name,
		Key:         input.Key,
		Description: input.Description,
		IsPublic:    true,
		IsBillable:  true,
		IsActive:    true,
		OwnerID:     ownerID,
	}
	if input.IsPublic != nil {
		project.IsPublic = *input.IsPublic
	}
	if input.IsBillable != nil {
		project.IsBillable = *input.IsBillable
	}
	if input.AvatarBackground != "" {
		project.AvatarBackground = input.AvatarBackground
	}
	if input.AvatarEmoji != "" {
		project.AvatarEmoji = input.AvatarEmoji
	}

	owner := &models.ProjectMember{
		UserID:   ownerID,
		IsActive: true,
		JoinedAt: time.Now(),
	}

	if err := s.projectRepo.CreateWithOwner(project, owner); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// ListProjects lists projects the user owns or is an active member of.
func (s *ProjectService) ListProjects(userID uint64) ([]models.Project, error) {
	projects, err := s.projectRepo.ListForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject retrieves a project by ID.
func (s *ProjectService) GetProject(id uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// UpdateProjectInput holds optional project fields to change.
type UpdateProjectInput struct {
	Name             *string
	Key              *string
	Description      *string
	IsPublic         *bool
	IsBillable       *bool
	IsActive         *bool
	AvatarBackground *string
	AvatarEmoji      *string
}

// UpdateProject applies partial changes to a project.
func (s *ProjectService) UpdateProject(project *models.Project, input UpdateProjectInput) (*models.Project, error) {
	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrProjectNameMissing
		}
		project.Name = *input.Name
	}
	if input.Key != nil {
		if *input.Key == "" {
			return nil, ErrProjectKeyMissing
		}
		project.Key = *input.Key
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.IsPublic != nil {
		project.IsPublic = *input.IsPublic
	}
	if input.IsBillable != nil {
		project.IsBillable = *input.IsBillable
	}
	if input.IsActive != nil {
		project.IsActive = *input.IsActive
	}
	if input.AvatarBackground != nil {
		project.AvatarBackground = *input.AvatarBackground
	}
	if input.AvatarEmoji != nil {
		project.AvatarEmoji = *input.AvatarEmoji
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

// ListProjectMembers lists the members of a project.
func (s *ProjectService) ListProjectMembers(projectID uint64) ([]models.ProjectMember, error) {
	members, err := s.projectRepo.ListMembers(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	return members, nil
}

// AddProjectMember attaches a user to a project. The user must already be
// an active member of the surrounding workspace and can join a project only
// once.
func (s *ProjectService) AddProjectMember(project *models.Project, userID uint64) (*models.ProjectMember, error) {
	wsMember, err := s.workspaceRepo.FindMember(project.WorkspaceID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotWorkspaceMember
		}
		return nil, fmt.Errorf("failed to check workspace membership: %w", err)
	}
	if !wsMember.IsActive {
		return nil, ErrNotWorkspaceMember
	}

	if _, err := s.projectRepo.FindMember(project.ID, userID); err == nil {
		return nil, ErrDuplicateProjectMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check project membership: %w", err)
	}

	member := &models.ProjectMember{
		ProjectID: project.ID,
		UserID:    userID,
		IsActive:  true,
		JoinedAt:  time.Now(),
	}
	if err := s.projectRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add project member: %w", err)
	}
	return member, nil
}

// BillingInput holds the billing configuration of a project.
type BillingInput struct {
	Type  models.BillingType
	Limit float64
}

// SaveBilling creates or replaces the billing setup of a project.
func (s *ProjectService) SaveBilling(projectID uint64, input BillingInput) (*models.ProjectBilling, error) {
	billing, err := s.projectRepo.FindBillingByProject(projectID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to find billing: %w", err)
		}
		billing = &models.ProjectBilling{ProjectID: projectID}
	}

	if input.Type != "" {
		billing.Type = input.Type
	}
	billing.Limit = input.Limit

	if err := s.projectRepo.SaveBilling(billing); err != nil {
		return nil, fmt.Errorf("failed to save billing: %w", err)
	}
	return billing, nil
}

// GetBilling retrieves the billing setup of a project.
func (s *ProjectService) GetBilling(projectID uint64) (*models.ProjectBilling, error) {
	billing, err := s.projectRepo.FindBillingByProject(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBillingNotFound
		}
		return nil, fmt.Errorf("failed to find billing: %w", err)
	}
	return billing, nil
}

// QuoteInput represents a single ledger entry to append.
type QuoteInput struct {
	Description string
	QuoteType   models.QuoteType
	Amount      float64
}

// AddQuote appends a quote to the project's billing ledger.
func (s *ProjectService) AddQuote(projectID uint64, input QuoteInput) (*models.ProjectQuote, error) {
	billing, err := s.GetBilling(projectID)
	if err != nil {
		return nil, err
	}

	quote := &models.ProjectQuote{
		ProjectBillingID: billing.ID,
		Description:      input.Description,
		Amount:           input.Amount,
		QuoteType:        models.QuoteTypeInvoice,
	}
	if input.QuoteType != "" {
		quote.QuoteType = input.QuoteType
	}

	if err := s.projectRepo.CreateQuote(quote); err != nil {
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}
	return quote, nil
}

// ListQuotes lists a page of the project's billing ledger, newest first,
// along with the total entry count.
func (s *ProjectService) ListQuotes(projectID uint64, params utils.PaginationParams) ([]models.ProjectQuote, int64, error) {
	billing, err := s.GetBilling(projectID)
	if err != nil {
		return nil, 0, err
	}

	quotes, total, err := s.projectRepo.ListQuotes(billing.ID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, total, nil
}
