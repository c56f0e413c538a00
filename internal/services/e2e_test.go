package services

import (
	"context"
	"testing"

	"github.com/snagadev/workspace-api/internal/authz"
	"github.com/snagadev/workspace-api/internal/models"
	"github.com/snagadev/workspace-api/internal/permissions"
	"github.com/snagadev/workspace-api/internal/repository"
	"github.com/stretchr/testify/require"
)

// Walks the whole lifecycle: workspace creation with seeded roles, invites,
// capability checks against member administration, and ownership transfer.
func TestWorkspaceLifecycle(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	engine := authz.NewEngine(
		repository.NewWorkspaceRepository(env.db),
		repository.NewProjectRepository(env.db),
	)

	owner := env.registerUser(t, "owner@example.com")
	alice := env.registerUser(t, "alice@example.com")
	bob := env.registerUser(t, "bob@example.com")

	ws, err := env.workspaces.CreateWorkspace(owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)

	roles, err := env.workspaces.ListRoles(ws.ID)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	var userRole models.WorkspaceRole
	for _, role := range roles {
		if role.Name == permissions.RoleUser {
			userRole = role
		}
	}

	// Two members join with the "user" role.
	_, err = env.workspaces.InviteMember(ctx, ws, InviteMemberInput{
		Email:  alice.Email,
		RoleID: &userRole.ID,
	})
	require.NoError(t, err)
	bobMember, err := env.workspaces.InviteMember(ctx, ws, InviteMemberInput{
		Email:  bob.Email,
		RoleID: &userRole.ID,
	})
	require.NoError(t, err)

	// Alice, holding only the "user" role, may not deactivate Bob.
	bobMember, err = env.workspaces.ResolveMember(ws.ID, MemberSelector{MemberID: uintPtr(bobMember.ID)})
	require.NoError(t, err)
	allowed, err := engine.CanManageMember(ws, alice.ID, bobMember, permissions.CanDeactivateUsers)
	require.NoError(t, err)
	require.False(t, allowed)

	// The owner may, through the ownership override.
	allowed, err = engine.CanManageMember(ws, owner.ID, bobMember, permissions.CanDeactivateUsers)
	require.NoError(t, err)
	require.True(t, allowed)
	_, err = env.workspaces.SetMemberActive(bobMember, false)
	require.NoError(t, err)

	// Ownership moves to Alice: she becomes admin, the old owner keeps an
	// active membership, and the owner pointer flips.
	ws, err = env.workspaces.TransferOwnership(ws, owner.ID, MemberSelector{UserID: uintPtr(alice.ID)})
	require.NoError(t, err)
	require.Equal(t, alice.ID, ws.OwnerID)

	aliceMember, err := env.workspaces.ResolveMember(ws.ID, MemberSelector{UserID: uintPtr(alice.ID)})
	require.NoError(t, err)
	require.Equal(t, permissions.RoleAdmin, aliceMember.Role.Name)

	oldOwner, err := env.workspaces.ResolveMember(ws.ID, MemberSelector{UserID: uintPtr(owner.ID)})
	require.NoError(t, err)
	require.True(t, oldOwner.IsActive)

	// The new owner passes every check through the ownership override.
	allowed, err = engine.AuthorizeWorkspace(ws, alice.ID, permissions.CanDeleteWorkspace)
	require.NoError(t, err)
	require.True(t, allowed)
}
