package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/snagadev/workspace-api/internal/authz"
	"github.com/snagadev/workspace-api/internal/codes"
	"github.com/snagadev/workspace-api/internal/constants"
	"github.com/snagadev/workspace-api/internal/database"
	"github.com/snagadev/workspace-api/internal/dto"
	"github.com/snagadev/workspace-api/internal/middleware"
	"github.com/snagadev/workspace-api/internal/models"
	"github.com/snagadev/workspace-api/internal/permissions"
	"github.com/snagadev/workspace-api/internal/repository"
	"github.com/snagadev/workspace-api/internal/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testUserHeader = "X-Test-User"

type workspaceTestEnv struct {
	db               *gorm.DB
	router           *gin.Engine
	workspaceService *services.WorkspaceService
	authService      *services.AuthService
}

func setupWorkspaceTestEnv(t *testing.T) workspaceTestEnv {
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

	database.SetDB(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
	})

	userRepo := repository.NewUserRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	mail := &recordingMailer{}
	inviteStore := codes.NewInviteStore(client)

	authService := services.NewAuthService(userRepo, codes.NewStore(client, "test-salt"), inviteStore, mail)
	workspaceService := services.NewWorkspaceService(workspaceRepo, userRepo, inviteStore, mail)
	engine := authz.NewEngine(workspaceRepo, projectRepo)
	handler := NewWorkspaceHandler(workspaceService, engine)

	r := gin.New()
	// Test stand-in for the session middleware: the acting user comes from
	// a header.
	r.Use(func(c *gin.Context) {
		if raw := c.GetHeader(testUserHeader); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			require.NoError(t, err)
			c.Set(constants.ContextKeyUserID, id)
		}
		c.Next()
	})

	r.POST("/api/workspaces", handler.CreateWorkspace)
	r.GET("/api/workspaces/:id",
		middleware.RequireWorkspaceCapability(engine, permissions.CanViewWorkspace),
		handler.GetWorkspace)
	r.PUT("/api/workspaces/:id",
		middleware.RequireWorkspaceCapability(engine, ""),
		handler.UpdateWorkspace)
	r.POST("/api/workspaces/:id/members",
		middleware.RequireWorkspaceCapability(engine, permissions.CanInviteUsers),
		handler.InviteMember)
	r.POST("/api/workspaces/:id/members/deactivate",
		middleware.RequireWorkspaceCapability(engine, permissions.CanDeactivateUsers),
		handler.DeactivateMember)
	r.POST("/api/workspaces/:id/members/role",
		middleware.RequireWorkspaceCapability(engine, permissions.CanChangeRoles),
		handler.ChangeMemberRole)
	r.POST("/api/workspaces/:id/transfer-ownership",
		middleware.RequireWorkspaceCapability(engine, permissions.CanEditWorkspace),
		handler.TransferOwnership)

	return workspaceTestEnv{
		db:               db,
		router:           r,
		workspaceService: workspaceService,
		authService:      authService,
	}
}

func (env workspaceTestEnv) do(t *testing.T, method, path string, userID uint64, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(testUserHeader, strconv.FormatUint(userID, 10))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env workspaceTestEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := env.authService.Register(services.RegisterInput{Email: email, Password: "supersecret"})
	require.NoError(t, err)
	return user
}

func (env workspaceTestEnv) roleByName(t *testing.T, wsID uint64, name string) models.WorkspaceRole {
	t.Helper()
	roles, err := env.workspaceService.ListRoles(wsID)
	require.NoError(t, err)
	for _, role := range roles {
		if role.Name == name {
			return role
		}
	}
	t.Fatalf("role %s not found in workspace %d", name, wsID)
	return models.WorkspaceRole{}
}

func TestWorkspaceHandler_CreateWorkspace(t *testing.T) {
	env := setupWorkspaceTestEnv(t)
	owner := env.createUser(t, "owner@example.com")

	w := env.do(t, http.MethodPost, "/api/workspaces", owner.ID, map[string]string{"name": "Acme"})
	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.WorkspaceDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Acme", response.Name)
	require.Equal(t, owner.ID, response.OwnerID)
}

func TestWorkspaceHandler_StrangersGet404(t *testing.T) {
	env := setupWorkspaceTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	stranger := env.createUser(t, "stranger@example.com")

	ws, err := env.workspaceService.CreateWorkspace(owner.ID, services.CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)

	path := "/api/workspaces/" + strconv.FormatUint(ws.ID, 10)

	// The workspace's existence is not revealed to non-members.
	w := env.do(t, http.MethodGet, path, stranger.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, path, owner.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWorkspaceHandler_EditDeniedWithoutCapability(t *testing.T) {
	env := setupWorkspaceTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	member := env.createUser(t, "member@example.com")

	ws, err := env.workspaceService.CreateWorkspace(owner.ID, services.CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	clientRole := env.roleByName(t, ws.ID, permissions.RoleClient)
	_, err = env.workspaceService.InviteMember(context.Background(), ws, services.InviteMemberInput{
		Email:  member.Email,
		RoleID: &clientRole.ID,
	})
	require.NoError(t, err)

	path := "/api/workspaces/" + strconv.FormatUint(ws.ID, 10)

	// A client-role member can view but not edit; the denial stays generic.
	w := env.do(t, http.MethodGet, path, member.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, path, member.ID, map[string]string{"name": "Hijacked"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, path, owner.ID, map[string]string{"name": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWorkspaceHandler_AdminCannotGrantAdminRole(t *testing.T) {
	env := setupWorkspaceTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	admin := env.createUser(t, "admin@example.com")
	env.createUser(t, "recruit@example.com")

	ws, err := env.workspaceService.CreateWorkspace(owner.ID, services.CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	adminRole := env.roleByName(t, ws.ID, permissions.RoleAdmin)
	_, err = env.workspaceService.InviteMember(context.Background(), ws, services.InviteMemberInput{
		Email:  admin.Email,
		RoleID: &adminRole.ID,
	})
	require.NoError(t, err)

	path := "/api/workspaces/" + strconv.FormatUint(ws.ID, 10) + "/members"

	// An admin can invite, but handing out the admin role is owner-only.
	w := env.do(t, http.MethodPost, path, admin.ID, map[string]any{
		"email":   "recruit@example.com",
		"role_id": adminRole.ID,
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, path, owner.ID, map[string]any{
		"email":   "recruit@example.com",
		"role_id": adminRole.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestWorkspaceHandler_AdminCannotDeactivateAdmin(t *testing.T) {
	env := setupWorkspaceTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	admin1 := env.createUser(t, "admin1@example.com")
	admin2 := env.createUser(t, "admin2@example.com")

	ws, err := env.workspaceService.CreateWorkspace(owner.ID, services.CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	adminRole := env.roleByName(t, ws.ID, permissions.RoleAdmin)
	for _, u := range []*models.User{admin1, admin2} {
		_, err = env.workspaceService.InviteMember(context.Background(), ws, services.InviteMemberInput{
			Email:  u.Email,
			RoleID: &adminRole.ID,
		})
		require.NoError(t, err)
	}

	path := "/api/workspaces/" + strconv.FormatUint(ws.ID, 10) + "/members/deactivate"

	w := env.do(t, http.MethodPost, path, admin1.ID, map[string]any{"user_id": admin2.ID})
	require.Equal(t, http.StatusForbidden, w.Code)

	// The owner may deactivate an admin.
	w = env.do(t, http.MethodPost, path, owner.ID, map[string]any{"user_id": admin2.ID})
	require.Equal(t, http.StatusOK, w.Code)

	// Doing it again conflicts with the current state.
	w = env.do(t, http.MethodPost, path, owner.ID, map[string]any{"user_id": admin2.ID})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestWorkspaceHandler_TransferOwnership(t *testing.T) {
	env := setupWorkspaceTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	successor := env.createUser(t, "successor@example.com")

	ws, err := env.workspaceService.CreateWorkspace(owner.ID, services.CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	_, err = env.workspaceService.InviteMember(context.Background(), ws, services.InviteMemberInput{
		Email: successor.Email,
	})
	require.NoError(t, err)

	path := "/api/workspaces/" + strconv.FormatUint(ws.ID, 10) + "/transfer-ownership"

	// A non-owner cannot take the workspace, even by targeting themselves.
	w := env.do(t, http.MethodPost, path, successor.ID, map[string]any{"user_id": successor.ID})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, path, owner.ID, map[string]any{"user_id": successor.ID})
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.WorkspaceDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, successor.ID, response.OwnerID)
}
