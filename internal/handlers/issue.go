package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wegovern/governance-api/internal/dto"
	apierrors "github.com/wegovern/governance-api/internal/errors"
	"github.com/wegovern/governance-api/internal/middleware"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/services"
)

// IssueHandler serves the issue tracker
type IssueHandler struct {
	issues *services.IssueService
}

// NewIssueHandler creates a new IssueHandler
func NewIssueHandler(issues *services.IssueService) *IssueHandler {
	return &IssueHandler{issues: issues}
}

// ListIssues returns the issues of an organization, newest first.
// Can filter by status, priority and assigned_to_me.
func (h *IssueHandler) ListIssues(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orgID, ok := requiredUintQuery(c, "organization_id")
	if !ok {
		return
	}

	input := services.ListIssuesInput{
		OrganizationID: orgID,
		UserID:         userID,
		AssignedToMe:   queryBool(c, "assigned_to_me"),
	}
	if raw := c.Query("status"); raw != "" {
		st := models.IssueStatus(raw)
		input.Status = &st
	}
	if raw := c.Query("priority"); raw != "" {
		p := models.IssuePriority(raw)
		input.Priority = &p
	}

	issues, counts, err := h.issues.ListIssues(input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"issues": dto.ToIssueDTOs(issues, counts),
	})
}

// GetIssueStats counts the issues of an organization by status and priority
func (h *IssueHandler) GetIssueStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orgID, ok := requiredUintQuery(c, "organization_id")
	if !ok {
		return
	}

	stats, err := h.issues.IssueStats(orgID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToIssueStatsDTO(stats))
}

// GetIssue returns an issue with its link counts
func (h *IssueHandler) GetIssue(c *gin.Context) {
	issue, ok := middleware.GetIssue(c)
	if !ok {
		apierrors.InternalError(c, "Issue not found in context")
		return
	}

	loaded, counts, err := h.issues.GetIssue(issue.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToIssueDTO(*loaded, counts))
}

// CreateIssue opens an issue
func (h *IssueHandler) CreateIssue(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateIssueRequest struct {
		OrganizationID uint64  `json:"organization_id" binding:"required"`
		Title          string  `json:"title" binding:"required"`
		Description    string  `json:"description"`
		Status         string  `json:"status"`
		Priority       string  `json:"priority"`
		AssigneeID     *uint64 `json:"assignee_id"`
	}

	var req CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	issue, counts, err := h.issues.CreateIssue(c.Request.Context(), services.CreateIssueInput{
		OrganizationID: req.OrganizationID,
		CreatorID:      userID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         models.IssueStatus(req.Status),
		Priority:       models.IssuePriority(req.Priority),
		AssigneeID:     req.AssigneeID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToIssueDTO(*issue, counts))
}

// UpdateIssue changes the fields present in the body. assignee_id may be
// set to null to clear it.
func (h *IssueHandler) UpdateIssue(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	issue, ok := middleware.GetIssue(c)
	if !ok {
		apierrors.InternalError(c, "Issue not found in context")
		return
	}

	var rawReq map[string]any
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var input services.UpdateIssueInput
	if v, ok := rawReq["title"].(string); ok {
		input.Title = &v
	}
	if v, ok := rawReq["description"].(string); ok {
		input.Description = &v
	}
	if v, ok := rawReq["status"].(string); ok {
		st := models.IssueStatus(v)
		input.Status = &st
	}
	if v, ok := rawReq["priority"].(string); ok {
		p := models.IssuePriority(v)
		input.Priority = &p
	}
	if raw, sent := rawReq["assignee_id"]; sent {
		if raw == nil {
			input.ClearAssignee = true
		} else {
			id, ok := jsonID(raw)
			if !ok {
				apierrors.BadRequest(c, "Invalid assignee_id")
				return
			}
			input.AssigneeID = &id
		}
	}

	updated, counts, err := h.issues.UpdateIssue(c.Request.Context(), issue.ID, userID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToIssueDTO(*updated, counts))
}

// DeleteIssue deletes an issue. Linked motions and tasks are kept.
func (h *IssueHandler) DeleteIssue(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	issue, ok := middleware.GetIssue(c)
	if !ok {
		apierrors.InternalError(c, "Issue not found in context")
		return
	}

	if err := h.issues.DeleteIssue(c.Request.Context(), issue.ID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Issue deleted successfully",
	})
}
