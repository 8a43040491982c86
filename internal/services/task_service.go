package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskPermissionDenied = errors.New("user does not have permission to modify this task")
	ErrTaskNotApproved      = errors.New("task has not been approved yet")
	ErrInvalidTaskStatus    = errors.New("invalid task status")
	ErrTaskMotionMismatch   = errors.New("motion belongs to a different organization")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo   repository.TaskRepository
	orgRepo    repository.OrganizationRepository
	motionRepo repository.MotionRepository
	issueRepo  repository.IssueRepository
	now        func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	orgRepo repository.OrganizationRepository,
	motionRepo repository.MotionRepository,
	issueRepo repository.IssueRepository,
) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		orgRepo:    orgRepo,
		motionRepo: motionRepo,
		issueRepo:  issueRepo,
		now:        time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID         uint64
	OrganizationID *uint64
	MotionID       *uint64
	IssueID        *uint64
	AssignedToMe   bool
	DueToday       bool
	Status         *models.TaskStatus
	SortByDueDate  bool
	Page           int
	PageSize       int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Action         string
	Description    string
	DueDate        *time.Time
	OrganizationID uint64
	CreatorID      uint64
	AssigneeID     *uint64
	MotionID       *uint64
	IssueID        *uint64
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Action        *string
	Description   *string
	Status        *models.TaskStatus
	DueDate       *time.Time
	ClearDueDate  bool
	AssigneeID    *uint64
	ClearAssignee bool
	IssueID       *uint64
	ClearIssue    bool
}

// ListTasks returns tasks accessible to a user based on the provided filters
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	orgIDs, err := s.resolveAccessibleOrganizationIDs(input.UserID, input.OrganizationID)
	if err != nil {
		return nil, 0, err
	}

	if len(orgIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	filter := repository.TaskFilter{
		OrganizationIDs: orgIDs,
		MotionID:        input.MotionID,
		IssueID:         input.IssueID,
		Status:          input.Status,
		Page:            input.Page,
		PageSize:        input.PageSize,
		SortByDueDate:   input.SortByDueDate,
	}

	if input.AssignedToMe {
		filter.AssigneeID = &input.UserID
	}
	if input.DueToday {
		now := s.now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		endOfDay := startOfDay.Add(24 * time.Hour)
		filter.DueDateFrom = &startOfDay
		filter.DueDateTo = &endOfDay
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Creator", "Assignee", "Organization")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask creates a task. Tasks attached to a motion wait for the
// motion to pass; standalone tasks wait for an approval when the
// organization requires one.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	action := strings.TrimSpace(input.Action)
	if action == "" {
		return nil, ErrTaskActionRequired
	}

	org, err := s.orgRepo.FindByID(input.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	if err := ensureMember(s.orgRepo, org.ID, input.CreatorID); err != nil {
		return nil, err
	}
	if err := s.ensureAssignee(org.ID, input.AssigneeID); err != nil {
		return nil, err
	}
	if err := ensureIssueInOrganization(s.issueRepo, org.ID, input.IssueID); err != nil {
		return nil, err
	}

	task := &models.Task{
		Action:         action,
		Description:    input.Description,
		Status:         models.TaskStatusNotStarted,
		DueDate:        input.DueDate,
		OrganizationID: org.ID,
		CreatorID:      input.CreatorID,
		AssigneeID:     input.AssigneeID,
		MotionID:       input.MotionID,
		IssueID:        input.IssueID,
	}

	var approval *models.Approval
	if input.MotionID != nil {
		motion, err := s.motionRepo.FindByID(*input.MotionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrMotionNotFound
			}
			return nil, fmt.Errorf("failed to find motion: %w", err)
		}
		if motion.OrganizationID != org.ID {
			return nil, ErrTaskMotionMismatch
		}
		if motion.Status != models.MotionStatusPassed {
			task.Status = models.TaskStatusUnapproved
		}
	} else if org.RequireTaskApproval {
		task.Status = models.TaskStatusUnapproved
		approval = &models.Approval{
			Type:          models.ApprovalTypeTask,
			Status:        models.ApprovalStatusPending,
			SubmittedByID: input.CreatorID,
			Description:   "Task approval: " + action,
		}
	}

	if err := s.taskRepo.Create(task, approval); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.GetTask(task.ID)
}

// UpdateTask updates an existing task
func (s *TaskService) UpdateTask(taskID, actorID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.authorize(taskID, actorID)
	if err != nil {
		return nil, err
	}

	if input.Action != nil {
		action := strings.TrimSpace(*input.Action)
		if action == "" {
			return nil, ErrTaskActionRequired
		}
		task.Action = action
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.ClearAssignee {
		task.AssigneeID = nil
	} else if input.AssigneeID != nil {
		if err := s.ensureAssignee(task.OrganizationID, input.AssigneeID); err != nil {
			return nil, err
		}
		task.AssigneeID = input.AssigneeID
	}
	if input.ClearIssue {
		task.IssueID = nil
	} else if input.IssueID != nil {
		if err := ensureIssueInOrganization(s.issueRepo, task.OrganizationID, input.IssueID); err != nil {
			return nil, err
		}
		task.IssueID = input.IssueID
	}
	if input.Status != nil {
		if err := s.applyStatus(task, *input.Status); err != nil {
			return nil, err
		}
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.GetTask(task.ID)
}

// ChangeTaskStatus moves an approved task between NOT_STARTED,
// IN_PROGRESS and COMPLETED
func (s *TaskService) ChangeTaskStatus(taskID, actorID uint64, status models.TaskStatus) (*models.Task, error) {
	return s.UpdateTask(taskID, actorID, UpdateTaskInput{Status: &status})
}

// DeleteTask deletes a task if the actor is allowed to modify it
func (s *TaskService) DeleteTask(taskID, actorID uint64) error {
	if _, err := s.authorize(taskID, actorID); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// applyStatus keeps CompletedAt in step with the COMPLETED status.
func (s *TaskService) applyStatus(task *models.Task, status models.TaskStatus) error {
	if !status.Valid() || status == models.TaskStatusUnapproved {
		return ErrInvalidTaskStatus
	}
	if task.Status == models.TaskStatusUnapproved {
		return ErrTaskNotApproved
	}

	switch {
	case status == models.TaskStatusCompleted && task.Status != models.TaskStatusCompleted:
		now := s.now()
		task.CompletedAt = &now
	case status != models.TaskStatusCompleted:
		task.CompletedAt = nil
	}
	task.Status = status
	return nil
}

// authorize allows the creator, the assignee and organization admins.
func (s *TaskService) authorize(taskID, actorID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if task.CreatorID == actorID || (task.AssigneeID != nil && *task.AssigneeID == actorID) {
		return task, nil
	}

	member, err := s.orgRepo.FindMember(task.OrganizationID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskPermissionDenied
		}
		return nil, fmt.Errorf("failed to verify organization membership: %w", err)
	}
	if !member.Role.CanProcessApprovals() {
		return nil, ErrTaskPermissionDenied
	}

	return task, nil
}

func (s *TaskService) ensureAssignee(orgID uint64, assigneeID *uint64) error {
	if assigneeID == nil {
		return nil
	}
	ok, err := s.taskRepo.IsMember(orgID, *assigneeID)
	if err != nil {
		return fmt.Errorf("failed to verify assignee: %w", err)
	}
	if !ok {
		return ErrInvalidTaskAssignee
	}
	return nil
}

// resolveAccessibleOrganizationIDs returns the organization IDs the user can access
func (s *TaskService) resolveAccessibleOrganizationIDs(userID uint64, organizationID *uint64) ([]uint64, error) {
	if organizationID != nil {
		if err := ensureMember(s.orgRepo, *organizationID, userID); err != nil {
			return nil, err
		}
		return []uint64{*organizationID}, nil
	}

	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization memberships: %w", err)
	}

	orgIDs := make([]uint64, 0, len(memberships))
	for _, m := range memberships {
		orgIDs = append(orgIDs, m.OrganizationID)
	}

	return orgIDs, nil
}
