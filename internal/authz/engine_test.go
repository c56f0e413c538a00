package authz

import (
	"testing"
	"time"

	"github.com/snagadev/workspace-api/internal/models"
	"github.com/snagadev/workspace-api/internal/permissions"
	"github.com/snagadev/workspace-api/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type engineTestEnv struct {
	db     *gorm.DB
	engine *Engine
}

func setupEngineTestEnv(t *testing.T) engineTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.WorkspaceRole{},
		&models.WorkspaceMember{},
		&models.Project{},
		&models.ProjectMember{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return engineTestEnv{
		db:     db,
		engine: NewEngine(repository.NewWorkspaceRepository(db), repository.NewProjectRepository(db)),
	}
}

func (env engineTestEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "hashed", IsActive: true}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env engineTestEnv) createWorkspace(t *testing.T, ownerID uint64) *models.Workspace {
	t.Helper()
	ws := &models.Workspace{Name: "Acme", Currency: "USD", IsActive: true, OwnerID: ownerID}
	require.NoError(t, env.db.Create(ws).Error)
	return ws
}

func (env engineTestEnv) createRole(t *testing.T, wsID uint64, name string) *models.WorkspaceRole {
	t.Helper()
	role := &models.WorkspaceRole{
		WorkspaceID: wsID,
		Name:        name,
		Description: permissions.RoleDescriptions[name],
		Settings:    permissions.DefaultsFor(name),
	}
	require.NoError(t, env.db.Create(role).Error)
	return role
}

func (env engineTestEnv) addMember(t *testing.T, wsID, userID uint64, roleID *uint64, active bool) *models.WorkspaceMember {
	t.Helper()
	member := &models.WorkspaceMember{
		WorkspaceID: wsID,
		UserID:      userID,
		RoleID:      roleID,
		Status:      models.MemberStatusActive,
		IsActive:    active,
		JoinedAt:    time.Now(),
	}
	require.NoError(t, env.db.Create(member).Error)
	return member
}

func TestEngine_OwnershipOverridesEverything(t *testing.T) {
	env := setupEngineTestEnv(t)

	owner := env.createUser(t, "owner@example.com")
	ws := env.createWorkspace(t, owner.ID)

	// The owner has no membership row at all, yet every capability passes,
	// including ones no role would grant.
	for _, capability := range permissions.All {
		allowed, err := env.engine.AuthorizeWorkspace(ws, owner.ID, capability)
		require.NoError(t, err)
		require.True(t, allowed, "owner should hold %s", capability)
	}
}

func TestEngine_OwnershipOverridesInactiveMembership(t *testing.T) {
	env := setupEngineTestEnv(t)

	owner := env.createUser(t, "owner@example.com")
	ws := env.createWorkspace(t, owner.ID)
	client := env.createRole(t, ws.ID, permissions.RoleClient)
	env.addMember(t, ws.ID, owner.ID, &client.ID, false)

	allowed, err := env.engine.AuthorizeWorkspace(ws, owner.ID, permissions.CanDeleteWorkspace)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestEngine_NonMemberDenied(t *testing.T) {
	env := setupEngineTestEnv(t)

	owner := env.createUser(t, "owner@example.com")
	stranger := env.createUser(t, "stranger@example.com")
	ws := env.createWorkspace(t, owner.ID)

	allowed, err := env.engine.AuthorizeWorkspace(ws, stranger.ID, permissions.CanViewWorkspace)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestEngine_InactiveMemberDenied(t *testing.T) {
	env := setupEngineTestEnv(t)

	owner := env.createUser(t, "owner@example.com")
	user := env.createUser(t, "user@example.com")
	ws := env.createWorkspace(t, owner.ID)
	admin := env.createRole(t, ws.ID, permissions.RoleAdmin)
	env.addMember(t, ws.ID, user.ID, &admin.ID, false)

	// An admin role does not help once the membership is inactive.
	for _, capability := range []permissions.Capability{
		permissions.CanViewWorkspace,
		permissions.CanEditWorkspace,
		permissions.CanInviteUsers,
	} {
		allowed, err := env.engine.AuthorizeWorkspace(ws, user.ID, capability)
		require.NoError(t, err)
		require.False(t, allowed)
	}
}

func TestEngine_AlwaysAllowedForActiveMembers(t *testing.T) {
	env := setupEngineTestEnv(t)

	owner := env.createUser(t, "owner@example.com")
	user := env.createUser(t, "user@example.com")
	ws := env.createWorkspace(t, owner.ID)

	// No role at all: base membership still grants viewing, nothing else.
	env.addMember(t, ws.ID, user.ID, nil, true)

	allowed, err := env.engine.AuthorizeWorkspace(ws, user.ID, permissions.CanViewWorkspace)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = env.engine.AuthorizeWorkspace(ws, user.ID, permissions.CanEditWorkspace)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestEngine_RoleCapabilityLookup(t *testing.T) {
	env := setupEngineTestEnv(t)

	owner := env.createUser(t, "owner@example.com")
	user := env.createUser(t, "user@example.com")
	ws := env.createWorkspace(t, owner.ID)
	role := env.createRole(t, ws.ID, permissions.RoleUser)
	env.addMember(t, ws.ID, user.ID, &role.ID, true)

	allowed, err := env.engine.AuthorizeWorkspace(ws, user.ID, permissions.CanCreateProjects)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = env.engine.AuthorizeWorkspace(ws, user.ID, permissions.CanDeactivateUsers)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestEngine_AdminCannotManageAdmin(t *testing.T) {
	env := setupEngineTestEnv(t)

	owner := env.createUser(t, "owner@example.com")
	actor := env.createUser(t, "admin1@example.com")
	target := env.createUser(t, "admin2@example.com")
	ws := env.createWorkspace(t, owner.ID)
	admin := env.createRole(t, ws.ID, permissions.RoleAdmin)

	env.addMember(t, ws.ID, actor.ID, &admin.ID, true)
	targetMember := env.addMember(t, ws.ID, target.ID, &admin.ID, true)
	targetMember.Role = admin

	allowed, err := env.engine.CanManageMember(ws, actor.ID, targetMember, permissions.CanChangeRoles)
	require.NoError(t, err)
	require.False(t, allowed)

	// The owner may, even against an admin.
	allowed, err = env.engine.CanManageMember(ws, owner.ID, targetMember, permissions.CanChangeRoles)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestEngine_AdminCanManageRegularMember(t *testing.T) {
	env := setupEngineTestEnv(t)

	owner := env.createUser(t, "owner@example.com")
	actor := env.createUser(t, "admin@example.com")
	target := env.createUser(t, "user@example.com")
	ws := env.createWorkspace(t, owner.ID)
	admin := env.createRole(t, ws.ID, permissions.RoleAdmin)
	user := env.createRole(t, ws.ID, permissions.RoleUser)

	env.addMember(t, ws.ID, actor.ID, &admin.ID, true)
	targetMember := env.addMember(t, ws.ID, target.ID, &user.ID, true)
	targetMember.Role = user

	allowed, err := env.engine.CanManageMember(ws, actor.ID, targetMember, permissions.CanDeactivateUsers)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestEngine_AdminCannotGrantAdminRole(t *testing.T) {
	env := setupEngineTestEnv(t)

	owner := env.createUser(t, "owner@example.com")
	actor := env.createUser(t, "admin@example.com")
	ws := env.createWorkspace(t, owner.ID)
	admin := env.createRole(t, ws.ID, permissions.RoleAdmin)
	user := env.createRole(t, ws.ID, permissions.RoleUser)
	env.addMember(t, ws.ID, actor.ID, &admin.ID, true)

	allowed, err := env.engine.CanGrantRole(ws, actor.ID, admin)
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = env.engine.CanGrantRole(ws, actor.ID, user)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = env.engine.CanGrantRole(ws, owner.ID, admin)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestEngine_ProjectVisibility(t *testing.T) {
	env := setupEngineTestEnv(t)

	owner := env.createUser(t, "owner@example.com")
	viewer := env.createUser(t, "viewer@example.com")
	ws := env.createWorkspace(t, owner.ID)
	client := env.createRole(t, ws.ID, permissions.RoleClient)
	env.addMember(t, ws.ID, viewer.ID, &client.ID, true)

	public := &models.Project{
		WorkspaceID: ws.ID, Name: "Site", Key: "SITE",
		IsPublic: true, IsActive: true, OwnerID: owner.ID,
	}
	require.NoError(t, env.db.Create(public).Error)

	private := &models.Project{
		WorkspaceID: ws.ID, Name: "Skunkworks", Key: "SKNK",
		IsPublic: false, IsActive: true, OwnerID: owner.ID,
	}
	require.NoError(t, env.db.Create(private).Error)

	// Public project: visible via the workspace-level override.
	allowed, err := env.engine.AuthorizeProject(public, viewer.ID, permissions.CanViewProject)
	require.NoError(t, err)
	require.True(t, allowed)

	// Private project: invisible without project membership, whatever the
	// workspace role says.
	allowed, err = env.engine.AuthorizeProject(private, viewer.ID, permissions.CanViewProject)
	require.NoError(t, err)
	require.False(t, allowed)

	// Project membership makes it visible.
	require.NoError(t, env.db.Create(&models.ProjectMember{
		ProjectID: private.ID, UserID: viewer.ID, IsActive: true, JoinedAt: time.Now(),
	}).Error)

	allowed, err = env.engine.AuthorizeProject(private, viewer.ID, permissions.CanViewProject)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestEngine_ProjectOwnershipOverride(t *testing.T) {
	env := setupEngineTestEnv(t)

	owner := env.createUser(t, "owner@example.com")
	creator := env.createUser(t, "creator@example.com")
	ws := env.createWorkspace(t, owner.ID)

	project := &models.Project{
		WorkspaceID: ws.ID, Name: "Tool", Key: "TOOL",
		IsPublic: false, IsActive: true, OwnerID: creator.ID,
	}
	require.NoError(t, env.db.Create(project).Error)

	// Project owner passes without any workspace membership.
	allowed, err := env.engine.AuthorizeProject(project, creator.ID, permissions.CanEditProject)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestEngine_ProjectEditRequiresWorkspaceRole(t *testing.T) {
	env := setupEngineTestEnv(t)

	owner := env.createUser(t, "owner@example.com")
	member := env.createUser(t, "member@example.com")
	ws := env.createWorkspace(t, owner.ID)
	client := env.createRole(t, ws.ID, permissions.RoleClient)
	env.addMember(t, ws.ID, member.ID, &client.ID, true)

	project := &models.Project{
		WorkspaceID: ws.ID, Name: "Site", Key: "SITE",
		IsPublic: true, IsActive: true, OwnerID: owner.ID,
	}
	require.NoError(t, env.db.Create(project).Error)

	// Even a project member cannot edit without the workspace capability.
	require.NoError(t, env.db.Create(&models.ProjectMember{
		ProjectID: project.ID, UserID: member.ID, IsActive: true, JoinedAt: time.Now(),
	}).Error)

	allowed, err := env.engine.AuthorizeProject(project, member.ID, permissions.CanEditProject)
	require.NoError(t, err)
	require.False(t, allowed)
}
