package models

import (
	"time"
)

type Workspace struct {
	ID               uint64    `gorm:"primarykey" json:"id"`
	Name             string    `gorm:"type:varchar(255);not null" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	Currency         string    `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	AvatarBackground string    `gorm:"type:varchar(7);default:'#ffffff'" json:"avatar_background"`
	AvatarEmoji      string    `gorm:"type:varchar(8);default:'🏢'" json:"avatar_emoji"`
	IsActive         bool      `gorm:"not null;default:true" json:"is_active"`
	OwnerID          uint64    `gorm:"not null;index" json:"owner_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relations
	Owner   User              `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Roles   []WorkspaceRole   `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
	Members []WorkspaceMember `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}
