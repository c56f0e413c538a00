package models

import "time"

type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "active"
	MemberStatusInvited   MemberStatus = "invited"
	MemberStatusPending   MemberStatus = "pending"
	MemberStatusSuspended MemberStatus = "suspended"
)

// WorkspaceMember links a user to a workspace. A user can be added to a
// workspace only once. A member without a role has no capabilities beyond
// base membership. Members are deactivated, never deleted.
type WorkspaceMember struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	WorkspaceID uint64       `gorm:"not null;uniqueIndex:idx_workspace_user" json:"workspace_id"`
	UserID      uint64       `gorm:"not null;uniqueIndex:idx_workspace_user" json:"user_id"`
	RoleID      *uint64      `gorm:"index" json:"role_id"`
	Status      MemberStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	HourRate    *float64     `gorm:"type:decimal(10,2)" json:"hour_rate"`
	IsActive    bool         `gorm:"not null;default:true" json:"is_active"`
	JoinedAt    time.Time    `json:"joined_at"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations
	Workspace Workspace      `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	User      User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      *WorkspaceRole `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}
