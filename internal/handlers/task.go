package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wegovern/governance-api/internal/dto"
	apierrors "github.com/wegovern/governance-api/internal/errors"
	"github.com/wegovern/governance-api/internal/middleware"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/services"
	"github.com/wegovern/governance-api/internal/utils"
)

type TaskHandler struct {
	tasks *services.TaskService
}

func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// ListTasks returns all tasks accessible by the current user
// Can filter by organization_id, motion_id, issue_id, status, assigned_to_me and due_today
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	organizationID, ok := uintQuery(c, "organization_id")
	if !ok {
		return
	}
	motionID, ok := uintQuery(c, "motion_id")
	if !ok {
		return
	}
	issueID, ok := uintQuery(c, "issue_id")
	if !ok {
		return
	}

	var status *models.TaskStatus
	if raw := c.Query("status"); raw != "" {
		st := models.TaskStatus(raw)
		if !st.Valid() {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		status = &st
	}

	params := utils.GetPaginationParams(c)

	tasks, total, err := h.tasks.ListTasks(services.ListTasksInput{
		UserID:         userID,
		OrganizationID: organizationID,
		MotionID:       motionID,
		IssueID:        issueID,
		AssignedToMe:   queryBool(c, "assigned_to_me"),
		DueToday:       queryBool(c, "due_today"),
		Status:         status,
		SortByDueDate:  c.Query("sort") == "due_date",
		Page:           params.Page,
		PageSize:       params.Limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// GetTask returns a specific task by ID
// Task is already loaded with relations by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Action         string     `json:"action" binding:"required"`
		Description    string     `json:"description"`
		DueDate        *time.Time `json:"due_date"`
		OrganizationID uint64     `json:"organization_id" binding:"required"`
		AssigneeID     *uint64    `json:"assignee_id"`
		MotionID       *uint64    `json:"motion_id"`
		IssueID        *uint64    `json:"issue_id"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.CreateTask(services.CreateTaskInput{
		Action:         req.Action,
		Description:    req.Description,
		DueDate:        req.DueDate,
		OrganizationID: req.OrganizationID,
		CreatorID:      userID,
		AssigneeID:     req.AssigneeID,
		MotionID:       req.MotionID,
		IssueID:        req.IssueID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates an existing task. Only the fields present in the
// body change; due_date, assignee_id and issue_id may be set to null to
// clear them.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]any
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var input services.UpdateTaskInput
	if v, ok := rawReq["action"].(string); ok {
		input.Action = &v
	}
	if v, ok := rawReq["description"].(string); ok {
		input.Description = &v
	}
	if v, ok := rawReq["status"].(string); ok {
		st := models.TaskStatus(v)
		input.Status = &st
	}
	if raw, sent := rawReq["due_date"]; sent {
		if raw == nil {
			input.ClearDueDate = true
		} else {
			s, _ := raw.(string)
			parsed, err := time.Parse(time.RFC3339, s)
			if err != nil {
				apierrors.BadRequest(c, "Invalid due_date, expected RFC 3339")
				return
			}
			input.DueDate = &parsed
		}
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
	if raw, sent := rawReq["issue_id"]; sent {
		if raw == nil {
			input.ClearIssue = true
		} else {
			id, ok := jsonID(raw)
			if !ok {
				apierrors.BadRequest(c, "Invalid issue_id")
				return
			}
			input.IssueID = &id
		}
	}

	updated, err := h.tasks.UpdateTask(task.ID, userID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// ChangeTaskStatus moves a task between NOT_STARTED, IN_PROGRESS and COMPLETED
func (h *TaskHandler) ChangeTaskStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type ChangeStatusRequest struct {
		Status string `json:"status" binding:"required"`
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.tasks.ChangeTaskStatus(task.ID, userID, models.TaskStatus(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.tasks.DeleteTask(task.ID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

func queryBool(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}

// jsonID converts a decoded JSON number to an ID
func jsonID(v any) (uint64, bool) {
	f, ok := v.(float64)
	if !ok || f < 1 || f != float64(uint64(f)) {
		return 0, false
	}
	return uint64(f), true
}
