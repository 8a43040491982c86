package dto

import (
	"time"

	"github.com/wegovern/governance-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Name      string `json:"name"`
}

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID                    uint64 `json:"id"`
	Name                  string `json:"name"`
	InviteCode            string `json:"invite_code,omitempty"`
	MajorityVoteNumber    int    `json:"majority_vote_number"`
	RequireMotionApproval bool   `json:"require_motion_approval"`
	RequireTaskApproval   bool   `json:"require_task_approval"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64            `json:"id"`
	Action         string            `json:"action"`
	Description    string            `json:"description"`
	Status         models.TaskStatus `json:"status"`
	DueDate        *time.Time        `json:"due_date"`
	CompletedAt    *time.Time        `json:"completed_at"`
	MotionID       *uint64           `json:"motion_id"`
	IssueID        *uint64           `json:"issue_id"`
	CreatorID      uint64            `json:"creator_id"`
	AssigneeID     *uint64           `json:"assignee_id"`
	OrganizationID uint64            `json:"organization_id"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Creator        *UserDTO          `json:"creator,omitempty"`
	Assignee       *UserDTO          `json:"assignee,omitempty"`
	Organization   *OrganizationDTO  `json:"organization,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Name:      user.DisplayName(),
	}
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization, includeInviteCode bool) OrganizationDTO {
	dto := OrganizationDTO{
		ID:                    org.ID,
		Name:                  org.Name,
		MajorityVoteNumber:    org.MajorityVoteNumber,
		RequireMotionApproval: org.RequireMotionApproval,
		RequireTaskApproval:   org.RequireTaskApproval,
	}
	if includeInviteCode {
		dto.InviteCode = org.InviteCode
	}
	return dto
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:             task.ID,
		Action:         task.Action,
		Description:    task.Description,
		Status:         task.Status,
		DueDate:        task.DueDate,
		CompletedAt:    task.CompletedAt,
		MotionID:       task.MotionID,
		IssueID:        task.IssueID,
		CreatorID:      task.CreatorID,
		AssigneeID:     task.AssigneeID,
		OrganizationID: task.OrganizationID,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}

	// Include creator if preloaded
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}

	if task.Assignee != nil && task.Assignee.ID != 0 {
		assignee := ToUserDTO(*task.Assignee)
		dto.Assignee = &assignee
	}

	// Include organization if preloaded
	if task.Organization.ID != 0 {
		org := ToOrganizationDTO(task.Organization, false)
		dto.Organization = &org
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	return TaskListResponse{
		Tasks:      ToTaskDTOs(tasks),
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages(totalCount, pageSize),
	}
}

func totalPages(totalCount int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((totalCount + int64(pageSize) - 1) / int64(pageSize))
}
