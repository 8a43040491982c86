package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wegovern/governance-api/internal/middleware"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/realtime"
	"github.com/wegovern/governance-api/internal/repository"
	"github.com/wegovern/governance-api/internal/services"
	"gorm.io/gorm"
)

// Dependencies is everything the HTTP layer needs
type Dependencies struct {
	DB       *gorm.DB
	Gatherer prometheus.Gatherer

	OrgRepo    repository.OrganizationRepository
	MotionRepo repository.MotionRepository
	TaskRepo   repository.TaskRepository
	IssueRepo  repository.IssueRepository

	Auth          *services.AuthService
	Organizations *services.OrganizationService
	Motions       *services.MotionService
	Lifecycle     *services.MotionLifecycle
	Ledger        *services.VoteLedger
	Approvals     *services.ApprovalService
	Tasks         *services.TaskService
	Issues        *services.IssueService
	Comments      *services.CommentService
	AI            *services.AIService
	Hub           *realtime.Hub
}

// RegisterRoutes mounts /health, /metrics and the /api tree on r. Session
// middleware must already be installed on r.
func RegisterRoutes(r *gin.Engine, d Dependencies) {
	authHandler := NewAuthHandler(d.Auth)
	orgHandler := NewOrganizationHandler(d.Organizations)
	motionHandler := NewMotionHandler(d.Motions, d.Organizations, d.AI)
	voteHandler := NewVoteHandler(d.Lifecycle, d.Ledger, d.Motions, d.Organizations)
	approvalHandler := NewApprovalHandler(d.Approvals)
	taskHandler := NewTaskHandler(d.Tasks)
	issueHandler := NewIssueHandler(d.Issues)
	commentHandler := NewCommentHandler(d.Comments)
	realtimeHandler := NewRealtimeHandler(d.Hub)

	r.GET("/health", NewHealthHandler(d.DB).Health)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	orgAccess := middleware.RequireOrganizationAccess(d.OrgRepo)
	managers := middleware.RequireOrganizationRole(models.RoleOwner, models.RoleAdmin)
	owners := middleware.RequireOrganizationRole(models.RoleOwner)
	motionAccess := middleware.RequireMotionAccess(d.MotionRepo, d.OrgRepo)
	taskAccess := middleware.RequireTaskAccess(d.TaskRepo)
	issueAccess := middleware.RequireIssueAccess(d.IssueRepo, d.OrgRepo)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		orgs := api.Group("/organizations")
		orgs.Use(middleware.RequireAuth())
		{
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("", orgHandler.ListOrganizations)
			orgs.POST("/join", orgHandler.JoinOrganization)
			orgs.GET("/:id", orgAccess, orgHandler.GetOrganization)
			orgs.PUT("/:id", orgAccess, managers, orgHandler.UpdateOrganization)
			orgs.DELETE("/:id", orgAccess, owners, orgHandler.DeleteOrganization)
			orgs.POST("/:id/regenerate-code", orgAccess, managers, orgHandler.RegenerateInviteCode)
			orgs.DELETE("/:id/members/:user_id", orgAccess, managers, orgHandler.RemoveMember)
			orgs.PUT("/:id/members/:user_id/role", orgAccess, owners, orgHandler.ChangeMemberRole)
			orgs.GET("/:id/events", orgAccess, realtimeHandler.StreamEvents)
		}

		motions := api.Group("/motions")
		motions.Use(middleware.RequireAuth())
		{
			motions.GET("", motionHandler.ListMotions)
			motions.POST("", motionHandler.CreateMotion)
			motions.POST("/draft-tasks", motionHandler.DraftTasks)
			motions.GET("/:id", motionAccess, motionHandler.GetMotion)
			motions.PUT("/:id", motionAccess, motionHandler.UpdateMotion)
			motions.DELETE("/:id", motionAccess, motionHandler.DeleteMotion)
		}

		votes := api.Group("/votes")
		votes.Use(middleware.RequireAuth())
		{
			votes.POST("", voteHandler.CastVote)
			votes.GET("", voteHandler.ListVotes)
			votes.GET("/tally", voteHandler.GetTally)
			votes.DELETE("/:id", voteHandler.DeleteVote)
		}

		approvals := api.Group("/approvals")
		approvals.Use(middleware.RequireAuth())
		{
			approvals.GET("", approvalHandler.ListApprovals)
			approvals.POST("", approvalHandler.CreateApproval)
			approvals.GET("/stats", approvalHandler.GetApprovalStats)
			approvals.POST("/:id/process", approvalHandler.ProcessApproval)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskAccess, taskHandler.GetTask)
			tasks.PATCH("/:id", taskAccess, taskHandler.UpdateTask)
			tasks.PATCH("/:id/status", taskAccess, taskHandler.ChangeTaskStatus)
			tasks.DELETE("/:id", taskAccess, taskHandler.DeleteTask)
		}

		issues := api.Group("/issues")
		issues.Use(middleware.RequireAuth())
		{
			issues.GET("", issueHandler.ListIssues)
			issues.POST("", issueHandler.CreateIssue)
			issues.GET("/stats", issueHandler.GetIssueStats)
			issues.GET("/:id", issueAccess, issueHandler.GetIssue)
			issues.PUT("/:id", issueAccess, issueHandler.UpdateIssue)
			issues.DELETE("/:id", issueAccess, issueHandler.DeleteIssue)
		}

		comments := api.Group("/comments")
		comments.Use(middleware.RequireAuth())
		{
			comments.GET("", commentHandler.ListComments)
			comments.POST("", commentHandler.CreateComment)
			comments.PUT("/:id", commentHandler.UpdateComment)
			comments.DELETE("/:id", commentHandler.DeleteComment)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "error": "Route not found"})
	})
}
