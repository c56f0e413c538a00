package models

import "time"

// ProjectMember links a user to a project, at most once per project.
// The creator of a project becomes its first member automatically.
type ProjectMember struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	ProjectID uint64    `gorm:"not null;uniqueIndex:idx_project_user" json:"project_id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_project_user" json:"user_id"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	JoinedAt  time.Time `json:"joined_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
