package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/snagadev/workspace-api/internal/authz"
	"github.com/snagadev/workspace-api/internal/codes"
	"github.com/snagadev/workspace-api/internal/config"
	"github.com/snagadev/workspace-api/internal/constants"
	"github.com/snagadev/workspace-api/internal/database"
	"github.com/snagadev/workspace-api/internal/handlers"
	"github.com/snagadev/workspace-api/internal/mailer"
	"github.com/snagadev/workspace-api/internal/middleware"
	"github.com/snagadev/workspace-api/internal/permissions"
	"github.com/snagadev/workspace-api/internal/repository"
	"github.com/snagadev/workspace-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis backs one-time codes, invite tokens and throttling
	redisClient, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	// Setup session middleware with Redis
	store, err := redisStore.NewStore(
		10,
		"tcp",
		cfg.RedisAddr(),
		"",
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Wire repositories, stores and services
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	projectRepo := repository.NewProjectRepository(db)

	codeStore := codes.NewStore(redisClient, cfg.CodeSalt)
	inviteStore := codes.NewInviteStore(redisClient)
	mail := mailer.NewLogMailer()
	engine := authz.NewEngine(workspaceRepo, projectRepo)

	authService := services.NewAuthService(userRepo, codeStore, inviteStore, mail)
	workspaceService := services.NewWorkspaceService(workspaceRepo, userRepo, inviteStore, mail)
	projectService := services.NewProjectService(projectRepo, workspaceRepo)

	authHandler := handlers.NewAuthHandler(authService)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService, engine)
	projectHandler := handlers.NewProjectHandler(projectService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Workspace API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/password-reset", authHandler.RequestPasswordReset)
			auth.POST("/password-reset/check", authHandler.CheckPasswordReset)
			auth.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)
			auth.POST("/set-password", authHandler.SetPassword)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
			auth.PUT("/me", middleware.RequireAuth(), authHandler.UpdateCurrentUser)
		}

		// User lookup (protected)
		users := api.Group("/users")
		users.Use(middleware.RequireAuth())
		{
			users.GET("/:id", authHandler.GetUser)
		}

		// Workspace routes (protected)
		workspaces := api.Group("/workspaces")
		workspaces.Use(middleware.RequireAuth())
		{
			workspaces.POST("", workspaceHandler.CreateWorkspace)
			workspaces.GET("", workspaceHandler.ListWorkspaces)
			workspaces.GET("/:id",
				middleware.RequireWorkspaceCapability(engine, permissions.CanViewWorkspace),
				workspaceHandler.GetWorkspace)
			workspaces.PUT("/:id",
				middleware.RequireWorkspaceCapability(engine, ""),
				workspaceHandler.UpdateWorkspace)
			workspaces.GET("/:id/roles",
				middleware.RequireWorkspaceCapability(engine, permissions.CanViewWorkspace),
				workspaceHandler.ListRoles)
			workspaces.GET("/:id/members",
				middleware.RequireWorkspaceCapability(engine, permissions.CanViewWorkspace),
				workspaceHandler.ListMembers)
			workspaces.POST("/:id/members",
				middleware.RequireWorkspaceCapability(engine, permissions.CanInviteUsers),
				workspaceHandler.InviteMember)
			workspaces.POST("/:id/members/deactivate",
				middleware.RequireWorkspaceCapability(engine, permissions.CanDeactivateUsers),
				workspaceHandler.DeactivateMember)
			workspaces.POST("/:id/members/reactivate",
				middleware.RequireWorkspaceCapability(engine, permissions.CanDeactivateUsers),
				workspaceHandler.ReactivateMember)
			workspaces.POST("/:id/members/role",
				middleware.RequireWorkspaceCapability(engine, permissions.CanChangeRoles),
				workspaceHandler.ChangeMemberRole)
			workspaces.POST("/:id/transfer-ownership",
				middleware.RequireWorkspaceCapability(engine, permissions.CanEditWorkspace),
				workspaceHandler.TransferOwnership)
			workspaces.POST("/:id/projects",
				middleware.RequireWorkspaceCapability(engine, permissions.CanCreateProjects),
				projectHandler.CreateProject)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id",
				middleware.RequireProjectCapability(engine, permissions.CanViewProject),
				projectHandler.GetProject)
			projects.PUT("/:id",
				middleware.RequireProjectCapability(engine, ""),
				projectHandler.UpdateProject)
			projects.GET("/:id/members",
				middleware.RequireProjectCapability(engine, permissions.CanViewProject),
				projectHandler.ListProjectMembers)
			projects.POST("/:id/members",
				middleware.RequireProjectCapability(engine, permissions.CanInviteUsersToProject),
				projectHandler.AddProjectMember)
			projects.GET("/:id/billing",
				middleware.RequireProjectCapability(engine, permissions.CanViewReports),
				projectHandler.GetBilling)
			projects.PUT("/:id/billing",
				middleware.RequireProjectCapability(engine, permissions.CanEditProject),
				projectHandler.SaveBilling)
			projects.GET("/:id/billing/quotes",
				middleware.RequireProjectCapability(engine, permissions.CanViewReports),
				projectHandler.ListQuotes)
			projects.POST("/:id/billing/quotes",
				middleware.RequireProjectCapability(engine, permissions.CanEditProject),
				projectHandler.AddQuote)
		}
	}

	// Start server
	log.Printf("Server starting on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
