package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/wegovern/governance-api/internal/constants"
	"github.com/wegovern/governance-api/internal/database"
	"github.com/wegovern/governance-api/internal/metrics"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/notify"
	"github.com/wegovern/governance-api/internal/realtime"
	"github.com/wegovern/governance-api/internal/repository"
	"github.com/wegovern/governance-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testPassword = "supersecret"

// apiEnv is the full router over an in-memory database
type apiEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	registry *prometheus.Registry
	hub      *realtime.Hub
	deps     Dependencies
	userSeq  int
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))
	return db
}

func setupAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := openTestDB(t)
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	hub := realtime.NewHub(nil)

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	motionRepo := repository.NewMotionRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	issueRepo := repository.NewIssueRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	ledger := services.NewVoteLedger(voteRepo, motionRepo, userRepo, hub, m, nil)
	deps := Dependencies{
		DB:            db,
		Gatherer:      registry,
		OrgRepo:       orgRepo,
		MotionRepo:    motionRepo,
		TaskRepo:      taskRepo,
		IssueRepo:     issueRepo,
		Auth:          services.NewAuthService(userRepo),
		Organizations: services.NewOrganizationService(orgRepo),
		Motions:       services.NewMotionService(motionRepo, orgRepo, issueRepo, notify.Nop{}, hub, nil),
		Lifecycle:     services.NewMotionLifecycle(ledger, motionRepo, orgRepo, notify.Nop{}, hub, m, nil),
		Ledger:        ledger,
		Approvals:     services.NewApprovalService(approvalRepo, orgRepo, notify.Nop{}, hub, nil),
		Tasks:         services.NewTaskService(taskRepo, orgRepo, motionRepo, issueRepo),
		Issues:        services.NewIssueService(issueRepo, orgRepo, hub, nil),
		Comments:      services.NewCommentService(commentRepo, motionRepo, issueRepo, taskRepo, orgRepo, hub, nil),
		Hub:           hub,
	}

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(r, deps)

	return &apiEnv{db: db, router: r, registry: registry, hub: hub, deps: deps}
}

// testUser is a signed-up user with a live session cookie
type testUser struct {
	*models.User
	cookie string
}

func (e *apiEnv) signup(t *testing.T, name string) *testUser {
	t.Helper()
	e.userSeq++
	email := fmt.Sprintf("%s%d@example.com", name, e.userSeq)

	user, err := e.deps.Auth.Signup(services.SignupInput{Email: email, Password: testPassword, FirstName: name})
	require.NoError(t, err)

	w := e.request(t, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": testPassword}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")
	return &testUser{User: user, cookie: cookies[0].Name + "=" + cookies[0].Value}
}

// org creates an organization owned by owner with the given members
func (e *apiEnv) org(t *testing.T, threshold int, owner *testUser, members ...*testUser) *models.Organization {
	t.Helper()
	org, err := e.deps.Organizations.CreateOrganization(services.CreateOrganizationInput{
		Name:               owner.FirstName + "'s org",
		OwnerID:            owner.ID,
		MajorityVoteNumber: &threshold,
	})
	require.NoError(t, err)
	for _, m := range members {
		_, err := e.deps.Organizations.JoinOrganizationByInvite(m.ID, org.InviteCode)
		require.NoError(t, err)
	}
	return org
}

func (e *apiEnv) motion(t *testing.T, org *models.Organization, author *testUser, tasks ...string) *models.Motion {
	t.Helper()
	input := services.CreateMotionInput{OrganizationID: org.ID, AuthorID: author.ID, Summary: "Budget", Text: "Adopt the annual budget"}
	for _, a := range tasks {
		input.Tasks = append(input.Tasks, services.MotionTaskInput{Action: a})
	}
	m, err := e.deps.Motions.CreateMotion(context.Background(), input)
	require.NoError(t, err)
	return m
}

// request sends body as JSON, authenticated as as when non-nil
func (e *apiEnv) request(t *testing.T, method, path string, body any, as *testUser) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Cookie", as.cookie)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type jsonBody map[string]any
