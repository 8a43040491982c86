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
	ErrApprovalNotFound         = errors.New("approval not found")
	ErrApprovalAlreadyProcessed = errors.New("approval has already been processed")
	ErrApprovalPermission       = errors.New("only organization owners and admins can process approvals")
	ErrInvalidApprovalType      = errors.New("invalid approval type")
	ErrInvalidApprovalStatus    = errors.New("invalid approval status")
	ErrInvalidApprovalAction    = errors.New("action must be \"approve\" or \"reject\"")
	ErrApprovalTargetNotFound   = errors.New("the motion or task under approval no longer exists")
	ErrApprovalTargetNotWaiting = errors.New("the motion or task under approval is not awaiting approval")
)

// Approval actions
const (
	ApprovalActionApprove = "approve"
	ApprovalActionReject  = "reject"
)

// ApprovalService runs the approval workflow for motions and tasks
type ApprovalService struct {
	approvalRepo repository.ApprovalRepository
	orgRepo      repository.OrganizationRepository
	dispatcher   notify.Dispatcher
	broadcaster  realtime.Broadcaster
	logger       *slog.Logger
	now          func() time.Time
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	approvalRepo repository.ApprovalRepository,
	orgRepo repository.OrganizationRepository,
	dispatcher notify.Dispatcher,
	broadcaster realtime.Broadcaster,
	logger *slog.Logger,
) *ApprovalService {
	if dispatcher == nil {
		dispatcher = notify.Nop{}
	}
	if broadcaster == nil {
		broadcaster = realtime.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ApprovalService{
		approvalRepo: approvalRepo,
		orgRepo:      orgRepo,
		dispatcher:   dispatcher,
		broadcaster:  broadcaster,
		logger:       logger.With("component", "approval_service"),
		now:          time.Now,
	}
}

// ListApprovalsInput represents filters for listing approvals
type ListApprovalsInput struct {
	OrganizationID uint64
	ActorID        uint64
	Type           string
	Status         string
	SubmittedByID  *uint64
	SubmittedFrom  *time.Time
	SubmittedTo    *time.Time
}

// CreateApprovalInput represents a new approval request
type CreateApprovalInput struct {
	OrganizationID uint64
	SubmittedByID  uint64
	Type           models.ApprovalType
	RelatedID      uint64
	Description    string
}

// ProcessApprovalInput represents an approve or reject decision
type ProcessApprovalInput struct {
	ApprovalID uint64
	ActorID    uint64
	Action     string
	Comments   string
}

// ListApprovals returns the approvals of an organization, newest first
func (s *ApprovalService) ListApprovals(input ListApprovalsInput) ([]models.Approval, error) {
	if err := s.requireApprover(input.OrganizationID, input.ActorID); err != nil {
		return nil, err
	}

	filter := repository.ApprovalFilter{
		OrganizationID: input.OrganizationID,
		SubmittedByID:  input.SubmittedByID,
		SubmittedFrom:  input.SubmittedFrom,
		SubmittedTo:    input.SubmittedTo,
	}
	if input.Type != "" {
		t := models.ApprovalType(input.Type)
		if !validApprovalType(t) {
			return nil, ErrInvalidApprovalType
		}
		filter.Type = &t
	}
	if input.Status != "" {
		st := models.ApprovalStatus(strings.ToLower(input.Status))
		switch st {
		case models.ApprovalStatusPending, models.ApprovalStatusApproved, models.ApprovalStatusRejected:
		default:
			return nil, ErrInvalidApprovalStatus
		}
		filter.Status = &st
	}

	approvals, err := s.approvalRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	return approvals, nil
}

// CreateApproval files an approval request on behalf of a member
func (s *ApprovalService) CreateApproval(input CreateApprovalInput) (*models.Approval, error) {
	if !validApprovalType(input.Type) {
		return nil, ErrInvalidApprovalType
	}
	if err := ensureMember(s.orgRepo, input.OrganizationID, input.SubmittedByID); err != nil {
		return nil, err
	}

	approval := &models.Approval{
		OrganizationID: input.OrganizationID,
		Type:           input.Type,
		Status:         models.ApprovalStatusPending,
		Description:    input.Description,
		RelatedID:      input.RelatedID,
		SubmittedByID:  input.SubmittedByID,
	}
	if err := s.approvalRepo.Create(approval); err != nil {
		return nil, fmt.Errorf("failed to create approval: %w", err)
	}
	return approval, nil
}

// ProcessApproval approves or rejects a pending approval. Approving a
// motion opens it for voting; approving a task lets work start on it.
func (s *ApprovalService) ProcessApproval(ctx context.Context, input ProcessApprovalInput) (*models.Approval, error) {
	if input.Action != ApprovalActionApprove && input.Action != ApprovalActionReject {
		return nil, ErrInvalidApprovalAction
	}

	approval, err := s.approvalRepo.FindByID(input.ApprovalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApprovalNotFound
		}
		return nil, fmt.Errorf("failed to find approval: %w", err)
	}

	if err := s.requireApprover(approval.OrganizationID, input.ActorID); err != nil {
		return nil, err
	}
	if approval.Status != models.ApprovalStatusPending {
		return nil, ErrApprovalAlreadyProcessed
	}

	resolution := repository.ApprovalResolution{
		ProcessedByID: input.ActorID,
		ProcessedAt:   s.now().UTC(),
		Description:   approval.Description,
	}
	if c := strings.TrimSpace(input.Comments); c != "" {
		resolution.Description = strings.TrimSpace(approval.Description + "\n\nComments: " + c)
	}

	switch {
	case input.Action == ApprovalActionReject:
		err = s.approvalRepo.Reject(approval.ID, resolution)
	case approval.Type == models.ApprovalTypeMotion:
		var motion *models.Motion
		motion, err = s.approvalRepo.ApproveMotion(approval.ID, resolution)
		if err == nil {
			s.announceMotion(ctx, motion)
		}
	case approval.Type == models.ApprovalTypeTask:
		_, err = s.approvalRepo.ApproveTask(approval.ID, resolution)
	default:
		return nil, ErrInvalidApprovalType
	}

	if err != nil {
		switch {
		case errors.Is(err, repository.ErrApprovalProcessed):
			return nil, ErrApprovalAlreadyProcessed
		case errors.Is(err, repository.ErrMotionNotUnapproved), errors.Is(err, repository.ErrTaskNotUnapproved):
			return nil, ErrApprovalTargetNotWaiting
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrApprovalTargetNotFound
		}
		return nil, fmt.Errorf("failed to process approval: %w", err)
	}

	return s.approvalRepo.FindByID(approval.ID)
}

// ApprovalStats counts an organization's approvals by type and status
func (s *ApprovalService) ApprovalStats(orgID, actorID uint64) ([]repository.ApprovalStat, error) {
	if err := s.requireApprover(orgID, actorID); err != nil {
		return nil, err
	}

	stats, err := s.approvalRepo.Stats(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approval stats: %w", err)
	}
	return stats, nil
}

func (s *ApprovalService) announceMotion(ctx context.Context, motion *models.Motion) {
	ev := realtime.NewEvent(realtime.EventMotionApproved, motion.OrganizationID, motion.ID, motion)
	if err := s.broadcaster.Publish(ctx, motion.OrganizationID, ev); err != nil {
		s.logger.Warn("failed to publish motion approval", "motion_id", motion.ID, "error", err)
	}
	if err := s.dispatcher.NotifyNewMotion(ctx, motion.ID); err != nil {
		s.logger.Warn("failed to send new motion notification", "motion_id", motion.ID, "error", err)
	}
}

func (s *ApprovalService) requireApprover(orgID, userID uint64) error {
	member, err := s.orgRepo.FindMember(orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrApprovalPermission
		}
		return fmt.Errorf("failed to verify organization membership: %w", err)
	}
	if !member.Role.CanProcessApprovals() {
		return ErrApprovalPermission
	}
	return nil
}

func validApprovalType(t models.ApprovalType) bool {
	return t == models.ApprovalTypeMotion || t == models.ApprovalTypeTask
}
