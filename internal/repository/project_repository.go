package repository

import (
	"errors"
	"fmt"

	"github.com/snagadev/workspace-api/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrCreateProject is returned when creating the project row fails
	// inside the creation transaction.
	ErrCreateProject = errors.New("project repository: create project failed")
	// ErrCreateProjectMember is returned when creating the creator's
	// membership fails inside the creation transaction.
	ErrCreateProjectMember = errors.New("project repository: create project member failed")
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// CreateWithOwner creates the project and the creator's membership atomically
func (r *GormProjectRepository) CreateWithOwner(project *models.Project, owner *models.ProjectMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateProject, err)
		}

		owner.ProjectID = project.ID
		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateProjectMember, err)
		}

		return nil
	})
}

// FindByID finds a project by ID with its workspace preloaded
func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.Preload("Workspace").First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// Update persists changes to a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

// ListForUser lists projects the user owns or is an active member of
func (r *GormProjectRepository) ListForUser(userID uint64) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.
		Distinct("projects.*").
		Joins("LEFT JOIN project_members ON project_members.project_id = projects.id").
		Where("projects.owner_id = ? OR (project_members.user_id = ? AND project_members.is_active = ?)", userID, userID, true).
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// AddMember adds a member to a project
func (r *GormProjectRepository) AddMember(member *models.ProjectMember) error {
	return r.db.Create(member).Error
}

// FindMember finds a membership by (project, user)
func (r *GormProjectRepository) FindMember(projectID, userID uint64) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a project with users preloaded
func (r *GormProjectRepository) ListMembers(projectID uint64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := r.db.Preload("User").
		Where("project_id = ?", projectID).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// SaveBilling creates or updates the billing row of a project
func (r *GormProjectRepository) SaveBilling(billing *models.ProjectBilling) error {
	return r.db.Save(billing).Error
}

// FindBillingByProject finds the billing row of a project
func (r *GormProjectRepository) FindBillingByProject(projectID uint64) (*models.ProjectBilling, error) {
	var billing models.ProjectBilling
	if err := r.db.Where("project_id = ?", projectID).First(&billing).Error; err != nil {
		return nil, err
	}
	return &billing, nil
}

// CreateQuote appends a quote to a billing setup
func (r *GormProjectRepository) CreateQuote(quote *models.ProjectQuote) error {
	return r.db.Create(quote).Error
}

// ListQuotes lists a page of quotes of a billing setup, newest first
func (r *GormProjectRepository) ListQuotes(billingID uint64, limit, offset int) ([]models.ProjectQuote, int64, error) {
	var total int64
	if err := r.db.Model(&models.ProjectQuote{}).
		Where("project_billing_id = ?", billingID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quotes []models.ProjectQuote
	if err := r.db.Where("project_billing_id = ?", billingID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&quotes).Error; err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}
