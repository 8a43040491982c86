package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/notify"
	"github.com/wegovern/governance-api/internal/realtime"
	"github.com/wegovern/governance-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrMotionTextRequired   = errors.New("motion text is required")
	ErrInvalidMotionStatus  = errors.New("invalid motion status")
	ErrMotionDecided        = errors.New("a decided motion cannot be edited")
	ErrMotionPermission     = errors.New("only the author or an organization admin can modify this motion")
	ErrTaskActionRequired   = errors.New("task action is required")
	ErrInvalidTaskAssignee  = errors.New("assignee is not a member of the organization")
	ErrOrganizationRequired = errors.New("organization ID is required")
)

// MotionService handles motion business logic
type MotionService struct {
	motionRepo  repository.MotionRepository
	orgRepo     repository.OrganizationRepository
	issueRepo   repository.IssueRepository
	dispatcher  notify.Dispatcher
	broadcaster realtime.Broadcaster
	logger      *slog.Logger
}

// NewMotionService creates a new MotionService
func NewMotionService(
	motionRepo repository.MotionRepository,
	orgRepo repository.OrganizationRepository,
	issueRepo repository.IssueRepository,
	dispatcher notify.Dispatcher,
	broadcaster realtime.Broadcaster,
	logger *slog.Logger,
) *MotionService {
	if dispatcher == nil {
		dispatcher = notify.Nop{}
	}
	if broadcaster == nil {
		broadcaster = realtime.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MotionService{
		motionRepo:  motionRepo,
		orgRepo:     orgRepo,
		issueRepo:   issueRepo,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		logger:      logger.With("component", "motion_service"),
	}
}

// MotionTaskInput describes a task to run if the motion passes
type MotionTaskInput struct {
	Action      string
	Description string
	DueDate     *time.Time
	AssigneeID  *uint64
}

// CreateMotionInput represents input for creating a motion
type CreateMotionInput struct {
	OrganizationID uint64
	AuthorID       uint64
	Summary        string
	Text           string
	Discussion     string
	IssueID        *uint64
	Tasks          []MotionTaskInput
}

// UpdateMotionInput holds the editable fields of a motion
type UpdateMotionInput struct {
	Summary    *string
	Text       *string
	Discussion *string
	IssueID    *uint64
}

// ListMotionsInput represents filters for listing motions
type ListMotionsInput struct {
	OrganizationID uint64
	UserID         uint64
	Status         string
	Page           int
	PageSize       int
}

// CreateMotion files a motion with its tasks. Organizations that require
// motion approval get the motion as unapproved plus an approval request;
// otherwise it opens for voting immediately.
func (s *MotionService) CreateMotion(ctx context.Context, input CreateMotionInput) (*models.Motion, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrMotionTextRequired
	}
	if input.OrganizationID == 0 {
		return nil, ErrOrganizationRequired
	}

	org, err := s.orgRepo.FindByID(input.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	if err := ensureMember(s.orgRepo, org.ID, input.AuthorID); err != nil {
		return nil, err
	}
	if err := ensureIssueInOrganization(s.issueRepo, org.ID, input.IssueID); err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(input.Tasks))
	for _, t := range input.Tasks {
		action := strings.TrimSpace(t.Action)
		if action == "" {
			return nil, ErrTaskActionRequired
		}
		if t.AssigneeID != nil {
			if err := ensureMember(s.orgRepo, org.ID, *t.AssigneeID); err != nil {
				if errors.Is(err, ErrNotOrganizationMember) {
					return nil, ErrInvalidTaskAssignee
				}
				return nil, err
			}
		}
		tasks = append(tasks, models.Task{
			Action:      action,
			Description: t.Description,
			Status:      models.TaskStatusUnapproved,
			DueDate:     t.DueDate,
			CreatorID:   input.AuthorID,
			AssigneeID:  t.AssigneeID,
			IssueID:     input.IssueID,
		})
	}

	motion := &models.Motion{
		OrganizationID: org.ID,
		AuthorID:       input.AuthorID,
		IssueID:        input.IssueID,
		Summary:        strings.TrimSpace(input.Summary),
		Text:           text,
		Discussion:     input.Discussion,
		Status:         models.MotionStatusPending,
	}

	var approval *models.Approval
	if org.RequireMotionApproval {
		motion.Status = models.MotionStatusUnapproved
		approval = &models.Approval{
			Type:          models.ApprovalTypeMotion,
			Status:        models.ApprovalStatusPending,
			SubmittedByID: input.AuthorID,
			Description:   "Motion approval: " + motionLabel(motion),
		}
	}

	if err := s.motionRepo.Create(motion, tasks, approval); err != nil {
		return nil, fmt.Errorf("failed to create motion: %w", err)
	}

	s.publish(ctx, realtime.EventMotionCreated, motion)
	if motion.Status == models.MotionStatusPending {
		if err := s.dispatcher.NotifyNewMotion(ctx, motion.ID); err != nil {
			s.logger.Warn("failed to send new motion notification", "motion_id", motion.ID, "error", err)
		}
	}

	return s.GetMotion(motion.ID)
}

// GetMotion returns a motion with its author, votes and tasks
func (s *MotionService) GetMotion(motionID uint64) (*models.Motion, error) {
	motion, err := s.motionRepo.FindByID(motionID, "Author", "Votes", "Votes.User", "Tasks", "Tasks.Assignee")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMotionNotFound
		}
		return nil, fmt.Errorf("failed to find motion: %w", err)
	}
	return motion, nil
}

// ListMotions lists the motions of an organization the user belongs to
func (s *MotionService) ListMotions(input ListMotionsInput) ([]models.Motion, int64, error) {
	if input.OrganizationID == 0 {
		return nil, 0, ErrOrganizationRequired
	}
	if err := ensureMember(s.orgRepo, input.OrganizationID, input.UserID); err != nil {
		return nil, 0, err
	}

	filter := repository.MotionFilter{
		OrganizationID: input.OrganizationID,
		Page:           input.Page,
		PageSize:       input.PageSize,
	}
	if strings.TrimSpace(input.Status) != "" {
		status, err := models.ParseMotionStatus(input.Status)
		if err != nil {
			return nil, 0, ErrInvalidMotionStatus
		}
		filter.Status = &status
	}

	motions, total, err := s.motionRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list motions: %w", err)
	}
	return motions, total, nil
}

// UpdateMotion edits the text fields of an undecided motion. Status is
// never changed here.
func (s *MotionService) UpdateMotion(motionID, actorID uint64, input UpdateMotionInput) (*models.Motion, error) {
	motion, err := s.authorize(motionID, actorID)
	if err != nil {
		return nil, err
	}
	if motion.Status.Decided() {
		return nil, ErrMotionDecided
	}

	if input.Text != nil {
		text := strings.TrimSpace(*input.Text)
		if text == "" {
			return nil, ErrMotionTextRequired
		}
		motion.Text = text
	}
	if input.Summary != nil {
		motion.Summary = strings.TrimSpace(*input.Summary)
	}
	if input.Discussion != nil {
		motion.Discussion = *input.Discussion
	}
	if input.IssueID != nil {
		if err := ensureIssueInOrganization(s.issueRepo, motion.OrganizationID, input.IssueID); err != nil {
			return nil, err
		}
		motion.IssueID = input.IssueID
	}

	if err := s.motionRepo.UpdateText(motion); err != nil {
		return nil, fmt.Errorf("failed to update motion: %w", err)
	}

	return s.GetMotion(motionID)
}

// DeleteMotion deletes a motion with its votes and tasks
func (s *MotionService) DeleteMotion(motionID, actorID uint64) error {
	if _, err := s.authorize(motionID, actorID); err != nil {
		return err
	}

	if err := s.motionRepo.Delete(motionID); err != nil {
		return fmt.Errorf("failed to delete motion: %w", err)
	}
	return nil
}

// authorize allows the author and the organization's owners and admins.
func (s *MotionService) authorize(motionID, actorID uint64) (*models.Motion, error) {
	motion, err := s.motionRepo.FindByID(motionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMotionNotFound
		}
		return nil, fmt.Errorf("failed to find motion: %w", err)
	}

	if motion.AuthorID == actorID {
		return motion, nil
	}

	member, err := s.orgRepo.FindMember(motion.OrganizationID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMotionPermission
		}
		return nil, fmt.Errorf("failed to verify organization membership: %w", err)
	}
	if !member.Role.CanProcessApprovals() {
		return nil, ErrMotionPermission
	}

	return motion, nil
}

func (s *MotionService) publish(ctx context.Context, eventType realtime.EventType, motion *models.Motion) {
	ev := realtime.NewEvent(eventType, motion.OrganizationID, motion.ID, motion)
	if err := s.broadcaster.Publish(ctx, motion.OrganizationID, ev); err != nil {
		s.logger.Warn("failed to publish motion event", "motion_id", motion.ID, "type", eventType, "error", err)
	}
}

func motionLabel(m *models.Motion) string {
	if m.Summary != "" {
		return m.Summary
	}
	const maxRunes = 80
	if r := []rune(m.Text); len(r) > maxRunes {
		return string(r[:maxRunes]) + "..."
	}
	return m.Text
}

// ensureMember verifies that a user belongs to an organization
func ensureMember(orgRepo repository.OrganizationRepository, orgID, userID uint64) error {
	if _, err := orgRepo.FindMember(orgID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotOrganizationMember
		}
		return fmt.Errorf("failed to verify organization membership: %w", err)
	}
	return nil
}
