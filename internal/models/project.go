package models

import "time"

type Project struct {
	ID               uint64    `gorm:"primarykey" json:"id"`
	WorkspaceID      uint64    `gorm:"not null;index" json:"workspace_id"`
	Name             string    `gorm:"type:varchar(150);not null" json:"name"`
	Key              string    `gorm:"type:varchar(10);not null" json:"key"`
	Description      string    `gorm:"type:text" json:"description"`
	IsPublic         bool      `gorm:"not null;default:true" json:"is_public"`
	IsBillable       bool      `gorm:"not null;default:true" json:"is_billable"`
	IsActive         bool      `gorm:"not null;default:true" json:"is_active"`
	AvatarBackground string    `gorm:"type:varchar(7);default:'#ffffff'" json:"avatar_background"`
	AvatarEmoji      string    `gorm:"type:varchar(8);default:'🚀'" json:"avatar_emoji"`
	OwnerID          uint64    `gorm:"not null;index" json:"owner_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relations
	Workspace Workspace       `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	Owner     User            `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members   []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}
