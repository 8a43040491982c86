package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wegovern/governance-api/internal/constants"
	apierrors "github.com/wegovern/governance-api/internal/errors"
	"github.com/wegovern/governance-api/internal/middleware"
	"github.com/wegovern/governance-api/internal/services"
)

// respondServiceError maps service sentinels onto API errors. Anything
// unrecognised is logged and reported as a 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDuplicateVote):
		apierrors.DuplicateVote(c)

	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrInvalidVoteType),
		errors.Is(err, services.ErrVoteInputMissing),
		errors.Is(err, services.ErrMotionTextRequired),
		errors.Is(err, services.ErrInvalidMotionStatus),
		errors.Is(err, services.ErrTaskActionRequired),
		errors.Is(err, services.ErrInvalidTaskAssignee),
		errors.Is(err, services.ErrOrganizationRequired),
		errors.Is(err, services.ErrInvalidThreshold),
		errors.Is(err, services.ErrInvalidApprovalType),
		errors.Is(err, services.ErrInvalidApprovalStatus),
		errors.Is(err, services.ErrInvalidApprovalAction),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrInvalidOrganizationName),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrCannotRemoveYourself),
		errors.Is(err, services.ErrCannotChangeOwnRole),
		errors.Is(err, services.ErrInvalidTaskStatus),
		errors.Is(err, services.ErrTaskMotionMismatch),
		errors.Is(err, services.ErrIssueTitleRequired),
		errors.Is(err, services.ErrInvalidIssueStatus),
		errors.Is(err, services.ErrInvalidIssuePriority),
		errors.Is(err, services.ErrIssueMismatch),
		errors.Is(err, services.ErrCommentTextRequired),
		errors.Is(err, services.ErrCommentTargetRequired),
		errors.Is(err, services.ErrCommentParentMismatch):
		apierrors.BadRequest(c, err.Error())

	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)

	case errors.Is(err, services.ErrNotOrganizationMember),
		errors.Is(err, services.ErrMotionPermission),
		errors.Is(err, services.ErrTaskPermissionDenied),
		errors.Is(err, services.ErrApprovalPermission),
		errors.Is(err, services.ErrIssuePermission),
		errors.Is(err, services.ErrCommentPermission):
		apierrors.Forbidden(c, err.Error())

	case errors.Is(err, services.ErrMotionNotFound),
		errors.Is(err, services.ErrVoteNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrIssueNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrApprovalNotFound),
		errors.Is(err, services.ErrApprovalTargetNotFound),
		errors.Is(err, services.ErrOrganizationNotFound),
		errors.Is(err, services.ErrOrganizationMemberNotFound),
		errors.Is(err, services.ErrInvalidInviteCode):
		apierrors.NotFound(c, err.Error())

	case errors.Is(err, services.ErrMotionNotOpen),
		errors.Is(err, services.ErrMotionDecided):
		apierrors.MotionClosed(c, err.Error())
	case errors.Is(err, services.ErrApprovalAlreadyProcessed),
		errors.Is(err, services.ErrApprovalTargetNotWaiting):
		apierrors.AlreadyProcessed(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrAlreadyOrganizationMember),
		errors.Is(err, services.ErrTaskNotApproved):
		apierrors.Conflict(c, err.Error())

	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.NothingToDraft(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")

	default:
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		apierrors.InternalError(c, "")
	}
}

// currentUser returns the authenticated user ID, answering 401 when the
// request has none.
func currentUser(c *gin.Context) (uint64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return userID, ok
}

// uintParam parses a path parameter, answering 400 when it is malformed.
func uintParam(c *gin.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return v, true
}

// uintQuery parses an optional query parameter. A present but malformed
// value answers 400.
func uintQuery(c *gin.Context, name string) (*uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return nil, false
	}
	return &v, true
}

// requiredUintQuery is uintQuery for parameters that must be present.
func requiredUintQuery(c *gin.Context, name string) (uint64, bool) {
	v, ok := uintQuery(c, name)
	if !ok {
		return 0, false
	}
	if v == nil {
		apierrors.BadRequest(c, name+" is required")
		return 0, false
	}
	return *v, true
}
