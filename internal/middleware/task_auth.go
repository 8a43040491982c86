package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wegovern/governance-api/internal/constants"
	apierrors "github.com/wegovern/governance-api/internal/errors"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/repository"
)

// RequireTaskAccess checks if the user has access to a task
// User must be a member of the task's organization
func RequireTaskAccess(taskRepo repository.TaskRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		task, err := taskRepo.FindByID(taskID, "Creator", "Assignee", "Organization")
		if err != nil {
			respondLookupError(c, err, "Task not found")
			return
		}

		isMember, err := taskRepo.IsMember(task.OrganizationID, userID)
		if err != nil {
			apierrors.InternalError(c, "")
			c.Abort()
			return
		}
		if !isMember {
			// Return 404 instead of 403 to avoid leaking task existence
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, *task)
		c.Next()
	}
}

// RequireMotionAccess loads the motion named by :id and checks that the
// user belongs to its organization
func RequireMotionAccess(motionRepo repository.MotionRepository, orgRepo repository.OrganizationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		motionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid motion ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		motion, err := motionRepo.FindByID(motionID)
		if err != nil {
			respondLookupError(c, err, "Motion not found")
			return
		}

		if _, err := orgRepo.FindMember(motion.OrganizationID, userID); err != nil {
			respondLookupError(c, err, "Motion not found")
			return
		}

		c.Set(constants.ContextKeyMotion, *motion)
		c.Next()
	}
}

// RequireIssueAccess loads the issue named by :id and checks that the
// user belongs to its organization
func RequireIssueAccess(issueRepo repository.IssueRepository, orgRepo repository.OrganizationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		issueID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid issue ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		issue, err := issueRepo.FindByID(issueID)
		if err != nil {
			respondLookupError(c, err, "Issue not found")
			return
		}

		if _, err := orgRepo.FindMember(issue.OrganizationID, userID); err != nil {
			respondLookupError(c, err, "Issue not found")
			return
		}

		c.Set(constants.ContextKeyIssue, *issue)
		c.Next()
	}
}

// GetIssue returns the issue loaded by RequireIssueAccess
func GetIssue(c *gin.Context) (models.Issue, bool) {
	value, exists := c.Get(constants.ContextKeyIssue)
	if !exists {
		return models.Issue{}, false
	}
	issue, ok := value.(models.Issue)
	return issue, ok
}

// GetTask returns the task loaded by RequireTaskAccess
func GetTask(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := value.(models.Task)
	return task, ok
}
