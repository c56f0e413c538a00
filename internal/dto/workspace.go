package dto

import (
	"time"

	"github.com/snagadev/workspace-api/internal/models"
	"github.com/snagadev/workspace-api/internal/permissions"
)

// WorkspaceDTO represents a workspace in API responses
type WorkspaceDTO struct {
	ID               uint64    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Currency         string    `json:"currency"`
	AvatarBackground string    `json:"avatar_background"`
	AvatarEmoji      string    `json:"avatar_emoji"`
	IsActive         bool      `json:"is_active"`
	OwnerID          uint64    `json:"owner_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// WorkspaceRoleDTO represents a role in API responses
type WorkspaceRoleDTO struct {
	ID          uint64                    `json:"id"`
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Settings    permissions.CapabilitySet `json:"settings"`
}

// WorkspaceMemberDTO represents a member in API responses
type WorkspaceMemberDTO struct {
	ID       uint64              `json:"id"`
	User     UserDTO             `json:"user"`
	Role     *WorkspaceRoleDTO   `json:"role,omitempty"`
	Status   models.MemberStatus `json:"status"`
	HourRate *float64            `json:"hour_rate,omitempty"`
	IsActive bool                `json:"is_active"`
	JoinedAt time.Time           `json:"joined_at"`
}

// WorkspaceDetailDTO represents a workspace with its members and roles
type WorkspaceDetailDTO struct {
	WorkspaceDTO
	Members []WorkspaceMemberDTO `json:"members"`
	Roles   []WorkspaceRoleDTO   `json:"roles"`
}

// ToWorkspaceDTO converts a Workspace model to WorkspaceDTO
func ToWorkspaceDTO(ws models.Workspace) WorkspaceDTO {
	return WorkspaceDTO{
		ID:               ws.ID,
		Name:             ws.Name,
		Description:      ws.Description,
		Currency:         ws.Currency,
		AvatarBackground: ws.AvatarBackground,
		AvatarEmoji:      ws.AvatarEmoji,
		IsActive:         ws.IsActive,
		OwnerID:          ws.OwnerID,
		CreatedAt:        ws.CreatedAt,
	}
}

// ToWorkspaceRoleDTO converts a WorkspaceRole model to WorkspaceRoleDTO
func ToWorkspaceRoleDTO(role models.WorkspaceRole) WorkspaceRoleDTO {
	return WorkspaceRoleDTO{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Settings:    role.Settings,
	}
}

// ToWorkspaceMemberDTO converts a member to DTO
func ToWorkspaceMemberDTO(member models.WorkspaceMember) WorkspaceMemberDTO {
	dto := WorkspaceMemberDTO{
		ID:       member.ID,
		User:     ToUserDTO(member.User),
		Status:   member.Status,
		HourRate: member.HourRate,
		IsActive: member.IsActive,
		JoinedAt: member.JoinedAt,
	}
	if member.Role != nil {
		role := ToWorkspaceRoleDTO(*member.Role)
		dto.Role = &role
	}
	return dto
}

// ToWorkspaceDetailDTO converts a workspace with members and roles to a
// detailed DTO
func ToWorkspaceDetailDTO(ws models.Workspace, members []models.WorkspaceMember, roles []models.WorkspaceRole) WorkspaceDetailDTO {
	memberDTOs := make([]WorkspaceMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToWorkspaceMemberDTO(member)
	}
	roleDTOs := make([]WorkspaceRoleDTO, len(roles))
	for i, role := range roles {
		roleDTOs[i] = ToWorkspaceRoleDTO(role)
	}

	return WorkspaceDetailDTO{
		WorkspaceDTO: ToWorkspaceDTO(ws),
		Members:      memberDTOs,
		Roles:        roleDTOs,
	}
}
