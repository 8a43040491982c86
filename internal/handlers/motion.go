package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wegovern/governance-api/internal/dto"
	apierrors "github.com/wegovern/governance-api/internal/errors"
	"github.com/wegovern/governance-api/internal/services"
	"github.com/wegovern/governance-api/internal/utils"
)

// MotionHandler serves motion CRUD and AI task drafting
type MotionHandler struct {
	motions   *services.MotionService
	orgs      *services.OrganizationService
	aiService *services.AIService
}

// NewMotionHandler creates a new MotionHandler. aiService may be nil.
func NewMotionHandler(motions *services.MotionService, orgs *services.OrganizationService, aiService *services.AIService) *MotionHandler {
	return &MotionHandler{
		motions:   motions,
		orgs:      orgs,
		aiService: aiService,
	}
}

type motionTaskRequest struct {
	Action      string     `json:"action" binding:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  *uint64    `json:"assignee_id"`
}

// ListMotions returns the motions of an organization, newest first
func (h *MotionHandler) ListMotions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	orgID, ok := requiredUintQuery(c, "organization_id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	motions, total, err := h.motions.ListMotions(services.ListMotionsInput{
		OrganizationID: orgID,
		UserID:         userID,
		Status:         c.Query("status"),
		Page:           params.Page,
		PageSize:       params.Limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMotionListResponse(motions, params.Page, params.Limit, total))
}

// CreateMotion files a new motion together with the tasks it commits to
func (h *MotionHandler) CreateMotion(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateMotionRequest struct {
		OrganizationID uint64              `json:"organization_id" binding:"required"`
		Summary        string              `json:"summary"`
		Text           string              `json:"text" binding:"required"`
		Discussion     string              `json:"discussion"`
		IssueID        *uint64             `json:"issue_id"`
		Tasks          []motionTaskRequest `json:"tasks" binding:"dive"`
	}

	var req CreateMotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.CreateMotionInput{
		OrganizationID: req.OrganizationID,
		AuthorID:       userID,
		Summary:        req.Summary,
		Text:           req.Text,
		Discussion:     req.Discussion,
		IssueID:        req.IssueID,
	}
	for _, t := range req.Tasks {
		input.Tasks = append(input.Tasks, services.MotionTaskInput{
			Action:      t.Action,
			Description: t.Description,
			DueDate:     t.DueDate,
			AssigneeID:  t.AssigneeID,
		})
	}

	motion, err := h.motions.CreateMotion(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMotionDTO(*motion, true))
}

// GetMotion returns a motion with its votes and tasks
func (h *MotionHandler) GetMotion(c *gin.Context) {
	motionID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	motion, err := h.motions.GetMotion(motionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMotionDTO(*motion, true))
}

// UpdateMotion edits the text of an undecided motion
func (h *MotionHandler) UpdateMotion(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	motionID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	type UpdateMotionRequest struct {
		Summary    *string `json:"summary"`
		Text       *string `json:"text"`
		Discussion *string `json:"discussion"`
		IssueID    *uint64 `json:"issue_id"`
	}

	var req UpdateMotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	motion, err := h.motions.UpdateMotion(motionID, userID, services.UpdateMotionInput{
		Summary:    req.Summary,
		Text:       req.Text,
		Discussion: req.Discussion,
		IssueID:    req.IssueID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMotionDTO(*motion, true))
}

// DeleteMotion deletes a motion with its votes and tasks
func (h *MotionHandler) DeleteMotion(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	motionID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.motions.DeleteMotion(motionID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Motion deleted successfully",
	})
}

// DraftTasks suggests the tasks a motion text implies using AI
func (h *MotionHandler) DraftTasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type DraftTasksRequest struct {
		Text           string `json:"text" binding:"required"`
		OrganizationID uint64 `json:"organization_id" binding:"required"`
	}

	var req DraftTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if _, err := h.orgs.Membership(req.OrganizationID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	tasks, err := h.aiService.DraftTasks(c.Request.Context(), req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
	})
}
