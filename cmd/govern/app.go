package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/wegovern/governance-api/internal/config"
	"github.com/wegovern/governance-api/internal/database"
	"github.com/wegovern/governance-api/internal/handlers"
	"github.com/wegovern/governance-api/internal/metrics"
	"github.com/wegovern/governance-api/internal/notify"
	"github.com/wegovern/governance-api/internal/realtime"
	"github.com/wegovern/governance-api/internal/repository"
	"github.com/wegovern/governance-api/internal/services"
	"gorm.io/gorm"
)

const notifyTimeout = 30 * time.Second

// app holds the wired services shared by the serve and reconcile commands
type app struct {
	db        *gorm.DB
	hub       *realtime.Hub
	relay     *realtime.RedisBroadcaster
	redis     *redis.Client
	async     *notify.Async
	lifecycle *services.MotionLifecycle
	deps      handlers.Dependencies
}

// newApp opens the database and builds every service. reg may be nil, in
// which case metrics are collected but not exported.
func newApp(cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) (*app, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	motionRepo := repository.NewMotionRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	issueRepo := repository.NewIssueRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	a := &app{db: db, hub: realtime.NewHub(logger)}

	var broadcaster realtime.Broadcaster = a.hub
	if cfg.RealtimeRedis {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
		a.relay = realtime.NewRedisBroadcaster(a.redis, a.hub, logger)
		broadcaster = a.relay
	}

	var dispatcher notify.Dispatcher = notify.Nop{}
	sender := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: "WeGovern",
	})
	if sender.IsConfigured() {
		email := notify.NewEmailDispatcher(motionRepo, voteRepo, orgRepo, sender, cfg.FrontendURL, logger)
		a.async = notify.NewAsync(email, notifyTimeout, logger)
		dispatcher = a.async
	} else {
		logger.Info("smtp not configured, email notifications disabled")
	}

	ledger := services.NewVoteLedger(voteRepo, motionRepo, userRepo, broadcaster, m, logger)
	a.lifecycle = services.NewMotionLifecycle(ledger, motionRepo, orgRepo, dispatcher, broadcaster, m, logger)

	aiService := services.NewAIService(cfg.OpenAIAPIKey)
	if aiService == nil {
		logger.Info("OPENAI_API_KEY not set, task drafting disabled")
	}

	a.deps = handlers.Dependencies{
		DB:            db,
		Gatherer:      reg,
		OrgRepo:       orgRepo,
		MotionRepo:    motionRepo,
		TaskRepo:      taskRepo,
		IssueRepo:     issueRepo,
		Auth:          services.NewAuthService(userRepo),
		Organizations: services.NewOrganizationService(orgRepo),
		Motions:       services.NewMotionService(motionRepo, orgRepo, issueRepo, dispatcher, broadcaster, logger),
		Lifecycle:     a.lifecycle,
		Ledger:        ledger,
		Approvals:     services.NewApprovalService(approvalRepo, orgRepo, dispatcher, broadcaster, logger),
		Tasks:         services.NewTaskService(taskRepo, orgRepo, motionRepo, issueRepo),
		Issues:        services.NewIssueService(issueRepo, orgRepo, broadcaster, logger),
		Comments:      services.NewCommentService(commentRepo, motionRepo, issueRepo, taskRepo, orgRepo, broadcaster, logger),
		AI:            aiService,
		Hub:           a.hub,
	}

	return a, nil
}

// Close waits for queued notifications and releases connections.
func (a *app) Close() error {
	if a.async != nil {
		a.async.Wait()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}
