package services

import (
	"context"
	"testing"

	"github.com/snagadev/workspace-api/internal/models"
	"github.com/snagadev/workspace-api/internal/utils"
	"github.com/stretchr/testify/require"
)

func (env serviceTestEnv) createWorkspaceWithMember(t *testing.T) (owner, member *models.User, ws *models.Workspace) {
	t.Helper()

	owner = env.registerUser(t, "owner@example.com")
	member = env.registerUser(t, "member@example.com")

	ws, err := env.workspaces.CreateWorkspace(owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	_, err = env.workspaces.InviteMember(context.Background(), ws, InviteMemberInput{Email: member.Email})
	require.NoError(t, err)
	return owner, member, ws
}

func TestProjectService_CreateAddsOwnerMembership(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner, _, ws := env.createWorkspaceWithMember(t)

	project, err := env.projects.CreateProject(ws.ID, owner.ID, CreateProjectInput{
		Name: "Website",
		Key:  "WEB",
	})
	require.NoError(t, err)
	require.Equal(t, ws.ID, project.WorkspaceID)
	require.True(t, project.IsPublic)
	require.True(t, project.IsBillable)

	members, err := env.projects.ListProjectMembers(project.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, owner.ID, members[0].UserID)
	require.True(t, members[0].IsActive)
}

func TestProjectService_CreateValidation(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner, _, ws := env.createWorkspaceWithMember(t)

	_, err := env.projects.CreateProject(ws.ID, owner.ID, CreateProjectInput{Key: "WEB"})
	require.ErrorIs(t, err, ErrProjectNameMissing)

	_, err = env.projects.CreateProject(ws.ID, owner.ID, CreateProjectInput{Name: "Website"})
	require.ErrorIs(t, err, ErrProjectKeyMissing)
}

func TestProjectService_AddMemberRequiresWorkspaceMembership(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner, member, ws := env.createWorkspaceWithMember(t)
	outsider := env.registerUser(t, "outsider@example.com")

	project, err := env.projects.CreateProject(ws.ID, owner.ID, CreateProjectInput{Name: "Website", Key: "WEB"})
	require.NoError(t, err)

	_, err = env.projects.AddProjectMember(project, outsider.ID)
	require.ErrorIs(t, err, ErrNotWorkspaceMember)

	added, err := env.projects.AddProjectMember(project, member.ID)
	require.NoError(t, err)
	require.Equal(t, member.ID, added.UserID)

	// At most one membership per (project, user).
	_, err = env.projects.AddProjectMember(project, member.ID)
	require.ErrorIs(t, err, ErrDuplicateProjectMember)
}

func TestProjectService_AddMemberRejectsDeactivatedWorkspaceMember(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner, member, ws := env.createWorkspaceWithMember(t)

	wsMember, err := env.workspaces.ResolveMember(ws.ID, MemberSelector{UserID: uintPtr(member.ID)})
	require.NoError(t, err)
	_, err = env.workspaces.SetMemberActive(wsMember, false)
	require.NoError(t, err)

	project, err := env.projects.CreateProject(ws.ID, owner.ID, CreateProjectInput{Name: "Website", Key: "WEB"})
	require.NoError(t, err)

	_, err = env.projects.AddProjectMember(project, member.ID)
	require.ErrorIs(t, err, ErrNotWorkspaceMember)
}

func TestProjectService_ListForUser(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner, member, ws := env.createWorkspaceWithMember(t)

	p1, err := env.projects.CreateProject(ws.ID, owner.ID, CreateProjectInput{Name: "One", Key: "ONE"})
	require.NoError(t, err)
	_, err = env.projects.CreateProject(ws.ID, owner.ID, CreateProjectInput{Name: "Two", Key: "TWO"})
	require.NoError(t, err)

	_, err = env.projects.AddProjectMember(p1, member.ID)
	require.NoError(t, err)

	ownerProjects, err := env.projects.ListProjects(owner.ID)
	require.NoError(t, err)
	require.Len(t, ownerProjects, 2)

	memberProjects, err := env.projects.ListProjects(member.ID)
	require.NoError(t, err)
	require.Len(t, memberProjects, 1)
	require.Equal(t, p1.ID, memberProjects[0].ID)
}

func TestProjectService_UpdateProject(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner, _, ws := env.createWorkspaceWithMember(t)

	project, err := env.projects.CreateProject(ws.ID, owner.ID, CreateProjectInput{Name: "Website", Key: "WEB"})
	require.NoError(t, err)

	isPublic := false
	updated, err := env.projects.UpdateProject(project, UpdateProjectInput{
		Name:     strPtr("Site"),
		IsPublic: &isPublic,
	})
	require.NoError(t, err)
	require.Equal(t, "Site", updated.Name)
	require.False(t, updated.IsPublic)

	_, err = env.projects.UpdateProject(project, UpdateProjectInput{Name: strPtr("")})
	require.ErrorIs(t, err, ErrProjectNameMissing)
}

func TestProjectService_Billing(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner, _, ws := env.createWorkspaceWithMember(t)

	project, err := env.projects.CreateProject(ws.ID, owner.ID, CreateProjectInput{Name: "Website", Key: "WEB"})
	require.NoError(t, err)

	_, err = env.projects.GetBilling(project.ID)
	require.ErrorIs(t, err, ErrBillingNotFound)
	_, err = env.projects.AddQuote(project.ID, QuoteInput{Amount: 100})
	require.ErrorIs(t, err, ErrBillingNotFound)

	billing, err := env.projects.SaveBilling(project.ID, BillingInput{
		Type:  models.BillingTypeHourly,
		Limit: 5000,
	})
	require.NoError(t, err)
	require.Equal(t, models.BillingTypeHourly, billing.Type)
	require.Equal(t, 5000.0, billing.Limit)

	// Saving again updates in place, no second row.
	billing, err = env.projects.SaveBilling(project.ID, BillingInput{
		Type:  models.BillingTypeFixed,
		Limit: 8000,
	})
	require.NoError(t, err)
	require.Equal(t, models.BillingTypeFixed, billing.Type)

	var count int64
	require.NoError(t, env.db.Model(&models.ProjectBilling{}).Where("project_id = ?", project.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)

	quote, err := env.projects.AddQuote(project.ID, QuoteInput{
		Description: "Kickoff invoice",
		QuoteType:   models.QuoteTypeInvoice,
		Amount:      1500,
	})
	require.NoError(t, err)
	require.Equal(t, billing.ID, quote.ProjectBillingID)

	_, err = env.projects.AddQuote(project.ID, QuoteInput{Amount: 300})
	require.NoError(t, err)

	quotes, total, err := env.projects.ListQuotes(project.ID, utils.PaginationParams{Limit: 20})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	require.Equal(t, int64(2), total)

	// A page size of one still reports the full count.
	quotes, total, err = env.projects.ListQuotes(project.ID, utils.PaginationParams{Limit: 1})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	require.Equal(t, int64(2), total)
}
