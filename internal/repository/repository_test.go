package repository

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wegovern/governance-api/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	org    *models.Organization
	author *models.User
}

func setupRepositoryTest(t *testing.T) fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
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
		&models.Approval{},
		&models.Issue{},
		&models.Comment{},
	))

	author := &models.User{Email: "author@example.com", PasswordHash: "hashed"}
	require.NoError(t, db.Create(author).Error)

	org := &models.Organization{Name: "Board", InviteCode: "BOARD", MajorityVoteNumber: 2}
	require.NoError(t, db.Create(org).Error)

	return fixture{db: db, org: org, author: author}
}

func (f fixture) createMotion(t *testing.T, status models.MotionStatus, taskStatuses ...models.TaskStatus) *models.Motion {
	t.Helper()

	motion := &models.Motion{
		OrganizationID: f.org.ID,
		AuthorID:       f.author.ID,
		Text:           "Adopt the budget",
		Status:         status,
	}
	tasks := make([]models.Task, len(taskStatuses))
	for i, s := range taskStatuses {
		tasks[i] = models.Task{Action: "follow up", Status: s, CreatorID: f.author.ID}
	}

	require.NoError(t, NewMotionRepository(f.db).Create(motion, tasks, nil))
	return motion
}

func taskStatuses(t *testing.T, db *gorm.DB, motionID uint64) []models.TaskStatus {
	t.Helper()

	var statuses []models.TaskStatus
	require.NoError(t, db.Model(&models.Task{}).Where("motion_id = ?", motionID).Order("id").Pluck("status", &statuses).Error)
	return statuses
}

func TestMotionRepository_DecidePassedPromotesOnlyUnapprovedTasks(t *testing.T) {
	f := setupRepositoryTest(t)
	repo := NewMotionRepository(f.db)
	motion := f.createMotion(t, models.MotionStatusPending,
		models.TaskStatusUnapproved, models.TaskStatusInProgress, models.TaskStatusCompleted, models.TaskStatusUnapproved)
	other := f.createMotion(t, models.MotionStatusPending, models.TaskStatusUnapproved)

	decidedAt := time.Now().UTC().Truncate(time.Second)
	decided, err := repo.Decide(motion.ID, models.MotionStatusPassed, decidedAt)
	require.NoError(t, err)
	assert.True(t, decided)

	reloaded, err := repo.FindByID(motion.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MotionStatusPassed, reloaded.Status)
	require.NotNil(t, reloaded.DecidedAt)
	assert.True(t, reloaded.DecidedAt.Equal(decidedAt))

	assert.Equal(t, []models.TaskStatus{
		models.TaskStatusNotStarted, models.TaskStatusInProgress, models.TaskStatusCompleted, models.TaskStatusNotStarted,
	}, taskStatuses(t, f.db, motion.ID))
	assert.Equal(t, []models.TaskStatus{models.TaskStatusUnapproved}, taskStatuses(t, f.db, other.ID))
}

func TestMotionRepository_DecideDefeatedLeavesTasksUnapproved(t *testing.T) {
	f := setupRepositoryTest(t)
	repo := NewMotionRepository(f.db)
	motion := f.createMotion(t, models.MotionStatusPending, models.TaskStatusUnapproved)

	decided, err := repo.Decide(motion.ID, models.MotionStatusDefeated, time.Now())
	require.NoError(t, err)
	assert.True(t, decided)

	assert.Equal(t, []models.TaskStatus{models.TaskStatusUnapproved}, taskStatuses(t, f.db, motion.ID))
}

func TestMotionRepository_DecideIsOneShot(t *testing.T) {
	f := setupRepositoryTest(t)
	repo := NewMotionRepository(f.db)
	motion := f.createMotion(t, models.MotionStatusPending)

	first := time.Now().UTC().Truncate(time.Second)
	decided, err := repo.Decide(motion.ID, models.MotionStatusPassed, first)
	require.NoError(t, err)
	require.True(t, decided)

	decided, err = repo.Decide(motion.ID, models.MotionStatusDefeated, first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, decided)

	reloaded, err := repo.FindByID(motion.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MotionStatusPassed, reloaded.Status)
	assert.True(t, reloaded.DecidedAt.Equal(first))
}

func TestMotionRepository_DecideSkipsUnapprovedMotion(t *testing.T) {
	f := setupRepositoryTest(t)
	repo := NewMotionRepository(f.db)
	motion := f.createMotion(t, models.MotionStatusUnapproved, models.TaskStatusUnapproved)

	decided, err := repo.Decide(motion.ID, models.MotionStatusPassed, time.Now())
	require.NoError(t, err)
	assert.False(t, decided)
	assert.Equal(t, []models.TaskStatus{models.TaskStatusUnapproved}, taskStatuses(t, f.db, motion.ID))
}

func TestMotionRepository_DecideRollsBackOnPersistenceFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `motions` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `tasks` SET")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	decided, err := NewMotionRepository(db).Decide(7, models.MotionStatusPassed, time.Now())

	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, decided)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMotionRepository_ListIDsByStatus(t *testing.T) {
	f := setupRepositoryTest(t)
	repo := NewMotionRepository(f.db)
	a := f.createMotion(t, models.MotionStatusPending)
	f.createMotion(t, models.MotionStatusUnapproved)
	c := f.createMotion(t, models.MotionStatusPending)
	f.createMotion(t, models.MotionStatusPassed)

	ids, err := repo.ListIDsByStatus(models.MotionStatusPending)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a.ID, c.ID}, ids)
}

func TestMotionRepository_CreateWithApproval(t *testing.T) {
	f := setupRepositoryTest(t)
	motion := &models.Motion{OrganizationID: f.org.ID, AuthorID: f.author.ID, Text: "Hire", Status: models.MotionStatusUnapproved}
	approval := &models.Approval{Type: models.ApprovalTypeMotion, SubmittedByID: f.author.ID}

	require.NoError(t, NewMotionRepository(f.db).Create(motion, []models.Task{{Action: "post ad", Status: models.TaskStatusUnapproved, CreatorID: f.author.ID}}, approval))

	assert.Equal(t, motion.ID, approval.RelatedID)
	assert.Equal(t, f.org.ID, approval.OrganizationID)
	require.Len(t, motion.Tasks, 1)
	assert.Equal(t, motion.ID, *motion.Tasks[0].MotionID)
	assert.Equal(t, f.org.ID, motion.Tasks[0].OrganizationID)
}

func TestMotionRepository_UpdateTextNeverWritesStatus(t *testing.T) {
	f := setupRepositoryTest(t)
	repo := NewMotionRepository(f.db)
	motion := f.createMotion(t, models.MotionStatusPending)

	motion.Text = "Adopt the revised budget"
	motion.Status = models.MotionStatusPassed
	require.NoError(t, repo.UpdateText(motion))

	reloaded, err := repo.FindByID(motion.ID)
	require.NoError(t, err)
	assert.Equal(t, "Adopt the revised budget", reloaded.Text)
	assert.Equal(t, models.MotionStatusPending, reloaded.Status)
}

func TestMotionRepository_DeleteRemovesVotesAndTasks(t *testing.T) {
	f := setupRepositoryTest(t)
	repo := NewMotionRepository(f.db)
	motion := f.createMotion(t, models.MotionStatusPending, models.TaskStatusUnapproved)
	require.NoError(t, NewVoteRepository(f.db).Create(&models.Vote{MotionID: motion.ID, UserID: f.author.ID, Type: models.VoteFor}))

	require.NoError(t, repo.Delete(motion.ID))

	_, err := repo.FindByID(motion.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	votes, err := NewVoteRepository(f.db).ListByMotion(motion.ID, false)
	require.NoError(t, err)
	assert.Empty(t, votes)
	assert.Empty(t, taskStatuses(t, f.db, motion.ID))
}

func TestTaskRepository_CreateUnderDecidedMotion(t *testing.T) {
	f := setupRepositoryTest(t)
	repo := NewTaskRepository(f.db)
	passed := f.createMotion(t, models.MotionStatusPassed)
	defeated := f.createMotion(t, models.MotionStatusDefeated)

	task := &models.Task{Action: "sign", Status: models.TaskStatusUnapproved, OrganizationID: f.org.ID, CreatorID: f.author.ID, MotionID: &passed.ID}
	require.NoError(t, repo.Create(task, nil))
	assert.Equal(t, models.TaskStatusNotStarted, task.Status)
	assert.Equal(t, []models.TaskStatus{models.TaskStatusNotStarted}, taskStatuses(t, f.db, passed.ID))

	held := &models.Task{Action: "file", Status: models.TaskStatusUnapproved, OrganizationID: f.org.ID, CreatorID: f.author.ID, MotionID: &defeated.ID}
	require.NoError(t, repo.Create(held, nil))
	assert.Equal(t, []models.TaskStatus{models.TaskStatusUnapproved}, taskStatuses(t, f.db, defeated.ID))
}

func TestVoteRepository_UniquePerMotionAndUser(t *testing.T) {
	f := setupRepositoryTest(t)
	repo := NewVoteRepository(f.db)
	motion := f.createMotion(t, models.MotionStatusPending)

	require.NoError(t, repo.Create(&models.Vote{MotionID: motion.ID, UserID: f.author.ID, Type: models.VoteFor}))
	err := repo.Create(&models.Vote{MotionID: motion.ID, UserID: f.author.ID, Type: models.VoteAgainst})
	assert.ErrorIs(t, err, ErrVoteExists)

	found, err := repo.FindByMotionAndUser(motion.ID, f.author.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoteFor, found.Type)
}

func TestVoteRepository_ListByMotionInCastOrder(t *testing.T) {
	f := setupRepositoryTest(t)
	repo := NewVoteRepository(f.db)
	motion := f.createMotion(t, models.MotionStatusPending)

	var voters []uint64
	for _, email := range []string{"zed@example.com", "amy@example.com", "bob@example.com"} {
		u := &models.User{Email: email, PasswordHash: "hashed"}
		require.NoError(t, f.db.Create(u).Error)
		require.NoError(t, repo.Create(&models.Vote{MotionID: motion.ID, UserID: u.ID, Type: models.VoteFor}))
		voters = append(voters, u.ID)
	}

	votes, err := repo.ListByMotion(motion.ID, true)
	require.NoError(t, err)
	require.Len(t, votes, 3)
	for i, v := range votes {
		assert.Equal(t, voters[i], v.UserID)
		assert.Equal(t, voters[i], v.User.ID)
	}
}

func TestVoteRepository_CountByType(t *testing.T) {
	f := setupRepositoryTest(t)
	repo := NewVoteRepository(f.db)
	motion := f.createMotion(t, models.MotionStatusPending)
	other := f.createMotion(t, models.MotionStatusPending)

	types := []models.VoteType{models.VoteFor, models.VoteAgainst, models.VoteFor}
	for i, vt := range types {
		u := &models.User{Email: fmt.Sprintf("voter%d@example.com", i), PasswordHash: "hashed"}
		require.NoError(t, f.db.Create(u).Error)
		require.NoError(t, repo.Create(&models.Vote{MotionID: motion.ID, UserID: u.ID, Type: vt}))
	}
	require.NoError(t, repo.Create(&models.Vote{MotionID: other.ID, UserID: f.author.ID, Type: models.VoteAgainst}))

	counts, err := repo.CountByType(motion.ID)
	require.NoError(t, err)
	assert.Equal(t, map[models.VoteType]int{models.VoteFor: 2, models.VoteAgainst: 1}, counts)

	empty, err := repo.CountByType(999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestVoteRepository_DeleteMissing(t *testing.T) {
	f := setupRepositoryTest(t)

	err := NewVoteRepository(f.db).Delete(999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
