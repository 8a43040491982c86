package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/realtime"
	"github.com/wegovern/governance-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound       = errors.New("comment not found")
	ErrCommentTextRequired   = errors.New("comment text is required")
	ErrCommentTargetRequired = errors.New("exactly one of motion ID, issue ID or task ID is required")
	ErrCommentPermission     = errors.New("only the author can modify this comment")
	ErrCommentParentMismatch = errors.New("parent comment belongs to a different record")
)

// CommentService handles discussion threads on motions, issues and tasks
type CommentService struct {
	commentRepo repository.CommentRepository
	motionRepo  repository.MotionRepository
	issueRepo   repository.IssueRepository
	taskRepo    repository.TaskRepository
	orgRepo     repository.OrganizationRepository
	broadcaster realtime.Broadcaster
	logger      *slog.Logger
	now         func() time.Time
}

// NewCommentService creates a new CommentService
func NewCommentService(
	commentRepo repository.CommentRepository,
	motionRepo repository.MotionRepository,
	issueRepo repository.IssueRepository,
	taskRepo repository.TaskRepository,
	orgRepo repository.OrganizationRepository,
	broadcaster realtime.Broadcaster,
	logger *slog.Logger,
) *CommentService {
	if broadcaster == nil {
		broadcaster = realtime.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentService{
		commentRepo: commentRepo,
		motionRepo:  motionRepo,
		issueRepo:   issueRepo,
		taskRepo:    taskRepo,
		orgRepo:     orgRepo,
		broadcaster: broadcaster,
		logger:      logger.With("component", "comment_service"),
		now:         time.Now,
	}
}

// CreateCommentInput represents input for creating a comment
type CreateCommentInput struct {
	Target   repository.CommentTarget
	AuthorID uint64
	ParentID *uint64
	Text     string
}

// CommentEventPayload is the payload of a comment event
type CommentEventPayload struct {
	Action  string          `json:"action"`
	Comment *models.Comment `json:"comment"`
}

// CreateComment posts a comment. A reply to a reply is attached to the
// top-level comment of its thread.
func (s *CommentService) CreateComment(ctx context.Context, input CreateCommentInput) (*models.Comment, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrCommentTextRequired
	}

	orgID, err := s.resolveOrganization(input.Target)
	if err != nil {
		return nil, err
	}
	if err := ensureMember(s.orgRepo, orgID, input.AuthorID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		OrganizationID: orgID,
		MotionID:       input.Target.MotionID,
		IssueID:        input.Target.IssueID,
		TaskID:         input.Target.TaskID,
		UserID:         input.AuthorID,
		Text:           text,
	}

	if input.ParentID != nil {
		parent, err := s.findLive(*input.ParentID)
		if err != nil {
			return nil, err
		}
		if !sameTarget(parent, input.Target) {
			return nil, ErrCommentParentMismatch
		}
		comment.ParentID = &parent.ID
		if parent.ParentID != nil {
			comment.ParentID = parent.ParentID
		}
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	created, err := s.find(comment.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "created", created)
	return created, nil
}

// ListComments returns the threads on a motion, issue or task
func (s *CommentService) ListComments(target repository.CommentTarget, viewerID uint64) ([]models.Comment, error) {
	orgID, err := s.resolveOrganization(target)
	if err != nil {
		return nil, err
	}
	if err := ensureMember(s.orgRepo, orgID, viewerID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByTarget(target)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// UpdateComment replaces the text of the actor's own comment
func (s *CommentService) UpdateComment(ctx context.Context, commentID, actorID uint64, text string) (*models.Comment, error) {
	comment, err := s.authorize(commentID, actorID)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentTextRequired
	}

	if err := s.commentRepo.UpdateText(comment.ID, text, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	updated, err := s.find(comment.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "updated", updated)
	return updated, nil
}

// DeleteComment soft deletes the actor's own comment. Its replies stay.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, actorID uint64) error {
	comment, err := s.authorize(commentID, actorID)
	if err != nil {
		return err
	}

	if err := s.commentRepo.SoftDelete(comment.ID, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	deleted, err := s.find(comment.ID)
	if err != nil {
		return err
	}
	s.publish(ctx, "deleted", deleted)
	return nil
}

// resolveOrganization loads the single target of a comment and returns
// the organization it belongs to.
func (s *CommentService) resolveOrganization(target repository.CommentTarget) (uint64, error) {
	set := 0
	for _, id := range []*uint64{target.MotionID, target.IssueID, target.TaskID} {
		if id != nil {
			set++
		}
	}
	if set != 1 {
		return 0, ErrCommentTargetRequired
	}

	switch {
	case target.MotionID != nil:
		motion, err := s.motionRepo.FindByID(*target.MotionID)
		if err != nil {
			return 0, lookupError(err, ErrMotionNotFound, "motion")
		}
		return motion.OrganizationID, nil
	case target.IssueID != nil:
		issue, err := s.issueRepo.FindByID(*target.IssueID)
		if err != nil {
			return 0, lookupError(err, ErrIssueNotFound, "issue")
		}
		return issue.OrganizationID, nil
	default:
		task, err := s.taskRepo.FindByID(*target.TaskID)
		if err != nil {
			return 0, lookupError(err, ErrTaskNotFound, "task")
		}
		return task.OrganizationID, nil
	}
}

// authorize lets only the author touch a live comment.
func (s *CommentService) authorize(commentID, actorID uint64) (*models.Comment, error) {
	comment, err := s.findLive(commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actorID {
		return nil, ErrCommentPermission
	}
	return comment, nil
}

func (s *CommentService) findLive(commentID uint64) (*models.Comment, error) {
	comment, err := s.find(commentID)
	if err != nil {
		return nil, err
	}
	if comment.IsDeleted {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

func (s *CommentService) find(commentID uint64) (*models.Comment, error) {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		return nil, lookupError(err, ErrCommentNotFound, "comment")
	}
	return comment, nil
}

func (s *CommentService) publish(ctx context.Context, action string, comment *models.Comment) {
	var motionID uint64
	if comment.MotionID != nil {
		motionID = *comment.MotionID
	}
	ev := realtime.NewEvent(realtime.EventComment, comment.OrganizationID, motionID, CommentEventPayload{Action: action, Comment: comment})
	if err := s.broadcaster.Publish(ctx, comment.OrganizationID, ev); err != nil {
		s.logger.Warn("failed to publish comment event", "comment_id", comment.ID, "action", action, "error", err)
	}
}

func sameTarget(c *models.Comment, target repository.CommentTarget) bool {
	eq := func(a, b *uint64) bool {
		return (a == nil && b == nil) || (a != nil && b != nil && *a == *b)
	}
	return eq(c.MotionID, target.MotionID) && eq(c.IssueID, target.IssueID) && eq(c.TaskID, target.TaskID)
}

func lookupError(err, notFound error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("failed to find %s: %w", what, err)
}
