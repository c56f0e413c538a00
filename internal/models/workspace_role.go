package models

import (
	"github.com/snagadev/workspace-api/internal/permissions"
)

// WorkspaceRole belongs to exactly one workspace; roles are never shared
// across workspaces. Settings is the role's capability map and any
// capability absent from it is denied.
type WorkspaceRole struct {
	ID          uint64                    `gorm:"primarykey" json:"id"`
	WorkspaceID uint64                    `gorm:"not null;index" json:"workspace_id"`
	Name        string                    `gorm:"type:varchar(50);not null" json:"name"`
	Description string                    `gorm:"type:text" json:"description"`
	Settings    permissions.CapabilitySet `gorm:"serializer:json" json:"settings"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
}

// Allows reports whether this role grants the capability. A missing key
// means deny.
func (r *WorkspaceRole) Allows(capability permissions.Capability) bool {
	if r == nil {
		return false
	}
	return r.Settings.Has(capability)
}
