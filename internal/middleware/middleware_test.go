package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wegovern/governance-api/internal/constants"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/repository"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	org    *models.Organization
	owner  *models.User
	member *models.User
	other  *models.User
}

func setupMiddlewareTest(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Motion{},
		&models.Vote{},
		&models.Task{},
		&models.Issue{},
	))

	f := fixture{db: db}
	users := make([]*models.User, 3)
	for i := range users {
		users[i] = &models.User{Email: fmt.Sprintf("user%d@example.com", i), PasswordHash: "hashed"}
		require.NoError(t, db.Create(users[i]).Error)
	}
	f.owner, f.member, f.other = users[0], users[1], users[2]

	f.org = &models.Organization{Name: "Board", InviteCode: "BOARD", MajorityVoteNumber: 1}
	require.NoError(t, db.Create(f.org).Error)
	for _, m := range []models.OrganizationMember{
		{OrganizationID: f.org.ID, UserID: f.owner.ID, Role: models.RoleOwner, JoinedAt: time.Now()},
		{OrganizationID: f.org.ID, UserID: f.member.ID, Role: models.RoleMember, JoinedAt: time.Now()},
	} {
		require.NoError(t, db.Create(&m).Error)
	}

	return f
}

// serve runs the chain for userID (0 means anonymous) and returns the status
func serve(t *testing.T, route, path string, userID uint64, chain ...gin.HandlerFunc) int {
	t.Helper()

	r := gin.New()
	handlers := []gin.HandlerFunc{func(c *gin.Context) {
		if userID != 0 {
			c.Set(constants.ContextKeyUserID, userID)
		}
		c.Next()
	}}
	handlers = append(handlers, chain...)
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET(route, handlers...)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w.Code
}

func TestGetUserID(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  uint64
		ok    bool
	}{
		{"uint64", uint64(7), 7, true},
		{"uint", uint(7), 7, true},
		{"int", 7, 7, true},
		{"int64 from session codec", int64(7), 7, true},
		{"negative", -1, 0, false},
		{"string", "7", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Set(constants.ContextKeyUserID, tt.value)

			got, ok := GetUserID(c)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetUserID(c)
	assert.False(t, ok)
}

func TestRequireOrganizationAccess(t *testing.T) {
	f := setupMiddlewareTest(t)
	access := RequireOrganizationAccess(repository.NewOrganizationRepository(f.db))
	path := fmt.Sprintf("/orgs/%d", f.org.ID)

	assert.Equal(t, http.StatusNoContent, serve(t, "/orgs/:id", path, f.member.ID, access))
	assert.Equal(t, http.StatusNotFound, serve(t, "/orgs/:id", path, f.other.ID, access))
	assert.Equal(t, http.StatusNotFound, serve(t, "/orgs/:id", "/orgs/999", f.owner.ID, access))
	assert.Equal(t, http.StatusBadRequest, serve(t, "/orgs/:id", "/orgs/abc", f.owner.ID, access))
	assert.Equal(t, http.StatusUnauthorized, serve(t, "/orgs/:id", path, 0, access))

	ownersOnly := RequireOrganizationRole(models.RoleOwner, models.RoleAdmin)
	assert.Equal(t, http.StatusNoContent, serve(t, "/orgs/:id", path, f.owner.ID, access, ownersOnly))
	assert.Equal(t, http.StatusForbidden, serve(t, "/orgs/:id", path, f.member.ID, access, ownersOnly))
	// Role checks need the membership loaded first
	assert.Equal(t, http.StatusForbidden, serve(t, "/orgs/:id", path, f.owner.ID, ownersOnly))
}

func TestRequireOrganizationAccess_DatabaseError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM `organizations`").WillReturnError(assert.AnError)

	access := RequireOrganizationAccess(repository.NewOrganizationRepository(db))
	assert.Equal(t, http.StatusInternalServerError, serve(t, "/orgs/:id", "/orgs/1", 1, access))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireTaskAccess(t *testing.T) {
	f := setupMiddlewareTest(t)
	task := &models.Task{Action: "Paint", Status: models.TaskStatusNotStarted, OrganizationID: f.org.ID, CreatorID: f.owner.ID}
	require.NoError(t, f.db.Create(task).Error)

	var loaded models.Task
	access := RequireTaskAccess(repository.NewTaskRepository(f.db))
	capture := func(c *gin.Context) {
		loaded, _ = GetTask(c)
		c.Next()
	}
	path := fmt.Sprintf("/tasks/%d", task.ID)

	assert.Equal(t, http.StatusNoContent, serve(t, "/tasks/:id", path, f.member.ID, access, capture))
	assert.Equal(t, task.ID, loaded.ID)
	assert.Equal(t, f.owner.ID, loaded.Creator.ID)
	assert.Equal(t, f.org.Name, loaded.Organization.Name)

	assert.Equal(t, http.StatusNotFound, serve(t, "/tasks/:id", path, f.other.ID, access))
	assert.Equal(t, http.StatusNotFound, serve(t, "/tasks/:id", "/tasks/999", f.member.ID, access))
	assert.Equal(t, http.StatusBadRequest, serve(t, "/tasks/:id", "/tasks/x", f.member.ID, access))
}

func TestRequireMotionAccess(t *testing.T) {
	f := setupMiddlewareTest(t)
	motion := &models.Motion{OrganizationID: f.org.ID, AuthorID: f.owner.ID, Text: "Adopt", Status: models.MotionStatusPending}
	require.NoError(t, f.db.Create(motion).Error)

	access := RequireMotionAccess(repository.NewMotionRepository(f.db), repository.NewOrganizationRepository(f.db))
	path := fmt.Sprintf("/motions/%d", motion.ID)

	assert.Equal(t, http.StatusNoContent, serve(t, "/motions/:id", path, f.member.ID, access))
	assert.Equal(t, http.StatusNotFound, serve(t, "/motions/:id", path, f.other.ID, access))
	assert.Equal(t, http.StatusNotFound, serve(t, "/motions/:id", "/motions/42", f.member.ID, access))
	assert.Equal(t, http.StatusUnauthorized, serve(t, "/motions/:id", path, 0, access))
}

func TestRequireIssueAccess(t *testing.T) {
	f := setupMiddlewareTest(t)
	issue := &models.Issue{OrganizationID: f.org.ID, Title: "Leaking roof", Status: models.IssueStatusOpen, Priority: models.IssuePriorityHigh, CreatorID: f.owner.ID}
	require.NoError(t, f.db.Create(issue).Error)

	var loaded models.Issue
	access := RequireIssueAccess(repository.NewIssueRepository(f.db), repository.NewOrganizationRepository(f.db))
	capture := func(c *gin.Context) {
		loaded, _ = GetIssue(c)
		c.Next()
	}
	path := fmt.Sprintf("/issues/%d", issue.ID)

	assert.Equal(t, http.StatusNoContent, serve(t, "/issues/:id", path, f.member.ID, access, capture))
	assert.Equal(t, "Leaking roof", loaded.Title)
	assert.Equal(t, http.StatusNotFound, serve(t, "/issues/:id", path, f.other.ID, access))
	assert.Equal(t, http.StatusNotFound, serve(t, "/issues/:id", "/issues/42", f.member.ID, access))
	assert.Equal(t, http.StatusBadRequest, serve(t, "/issues/:id", "/issues/x", f.member.ID, access))
}
