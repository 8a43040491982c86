package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/wegovern/governance-api/internal/metrics"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/realtime"
	"github.com/wegovern/governance-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type statusNotice struct {
	MotionID uint64
	Status   models.MotionStatus
}

type recordingDispatcher struct {
	mu         sync.Mutex
	statuses   []statusNotice
	newMotions []uint64
	err        error
}

func (d *recordingDispatcher) NotifyMotionStatusChange(_ context.Context, motionID uint64, status models.MotionStatus) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses = append(d.statuses, statusNotice{MotionID: motionID, Status: status})
	return d.err
}

func (d *recordingDispatcher) NotifyNewMotion(_ context.Context, motionID uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.newMotions = append(d.newMotions, motionID)
	return d.err
}

func (d *recordingDispatcher) statusNotices() []statusNotice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]statusNotice(nil), d.statuses...)
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []realtime.Event
	err    error
}

func (b *recordingBroadcaster) Publish(_ context.Context, _ uint64, ev realtime.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return b.err
}

func (b *recordingBroadcaster) ofType(t realtime.EventType) []realtime.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []realtime.Event
	for _, ev := range b.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// env wires every service against one in-memory database.
type env struct {
	db          *gorm.DB
	dispatcher  *recordingDispatcher
	broadcaster *recordingBroadcaster
	metrics     *metrics.Metrics
	voterSeq    int

	userRepo     repository.UserRepository
	orgRepo      repository.OrganizationRepository
	motionRepo   repository.MotionRepository
	voteRepo     repository.VoteRepository
	taskRepo     repository.TaskRepository
	approvalRepo repository.ApprovalRepository
	issueRepo    repository.IssueRepository
	commentRepo  repository.CommentRepository

	ledger    *VoteLedger
	lifecycle *MotionLifecycle
	motions   *MotionService
	approvals *ApprovalService
	tasks     *TaskService
	issues    *IssueService
	comments  *CommentService
	orgs      *OrganizationService
	auth      *AuthService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Motion{},
		&models.Vote{},
		&models.Task{},
		&models.Approval{},
		&models.Issue{},
		&models.Comment{},
	))

	e := &env{
		db:           db,
		dispatcher:   &recordingDispatcher{},
		broadcaster:  &recordingBroadcaster{},
		metrics:      metrics.New(prometheus.NewRegistry()),
		userRepo:     repository.NewUserRepository(db),
		orgRepo:      repository.NewOrganizationRepository(db),
		motionRepo:   repository.NewMotionRepository(db),
		voteRepo:     repository.NewVoteRepository(db),
		taskRepo:     repository.NewTaskRepository(db),
		approvalRepo: repository.NewApprovalRepository(db),
		issueRepo:    repository.NewIssueRepository(db),
		commentRepo:  repository.NewCommentRepository(db),
	}

	e.ledger = NewVoteLedger(e.voteRepo, e.motionRepo, e.userRepo, e.broadcaster, e.metrics, nil)
	e.lifecycle = NewMotionLifecycle(e.ledger, e.motionRepo, e.orgRepo, e.dispatcher, e.broadcaster, e.metrics, nil)
	e.motions = NewMotionService(e.motionRepo, e.orgRepo, e.issueRepo, e.dispatcher, e.broadcaster, nil)
	e.approvals = NewApprovalService(e.approvalRepo, e.orgRepo, e.dispatcher, e.broadcaster, nil)
	e.tasks = NewTaskService(e.taskRepo, e.orgRepo, e.motionRepo, e.issueRepo)
	e.issues = NewIssueService(e.issueRepo, e.orgRepo, e.broadcaster, nil)
	e.comments = NewCommentService(e.commentRepo, e.motionRepo, e.issueRepo, e.taskRepo, e.orgRepo, e.broadcaster, nil)
	e.orgs = NewOrganizationService(e.orgRepo)
	e.auth = NewAuthService(e.userRepo)

	return e
}

func (e *env) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Email: name + "@example.com", FirstName: name, PasswordHash: "hashed"}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *env) org(t *testing.T, threshold int, owner *models.User) *models.Organization {
	t.Helper()
	org, err := e.orgs.CreateOrganization(CreateOrganizationInput{
		Name:               fmt.Sprintf("Org of %s", owner.FirstName),
		OwnerID:            owner.ID,
		MajorityVoteNumber: &threshold,
	})
	require.NoError(t, err)
	return org
}

func (e *env) join(t *testing.T, org *models.Organization, role models.OrganizationRole, users ...*models.User) {
	t.Helper()
	for _, u := range users {
		require.NoError(t, e.orgRepo.AddMember(&models.OrganizationMember{OrganizationID: org.ID, UserID: u.ID, Role: role}))
	}
}

// members creates n users with the member role in org.
func (e *env) members(t *testing.T, org *models.Organization, n int) []*models.User {
	t.Helper()
	users := make([]*models.User, n)
	for i := range users {
		e.voterSeq++
		users[i] = e.user(t, fmt.Sprintf("voter%d", e.voterSeq))
	}
	e.join(t, org, models.RoleMember, users...)
	return users
}

func (e *env) motion(t *testing.T, org *models.Organization, author *models.User, tasks ...string) *models.Motion {
	t.Helper()
	input := CreateMotionInput{OrganizationID: org.ID, AuthorID: author.ID, Summary: "Budget", Text: "Adopt the annual budget"}
	for _, a := range tasks {
		input.Tasks = append(input.Tasks, MotionTaskInput{Action: a})
	}
	m, err := e.motions.CreateMotion(context.Background(), input)
	require.NoError(t, err)
	return m
}

func (e *env) reload(t *testing.T, motionID uint64) *models.Motion {
	t.Helper()
	m, err := e.motionRepo.FindByID(motionID, "Tasks")
	require.NoError(t, err)
	return m
}

func (e *env) vote(t *testing.T, motion *models.Motion, voter *models.User, vt models.VoteType) *models.Vote {
	t.Helper()
	v, err := e.lifecycle.CastVote(context.Background(), CastVoteInput{MotionID: motion.ID, VoterID: voter.ID, VoteType: vt})
	require.NoError(t, err)
	return v
}
