package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/realtime"
	"github.com/wegovern/governance-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrIssueNotFound        = errors.New("issue not found")
	ErrIssueTitleRequired   = errors.New("issue title is required")
	ErrInvalidIssueStatus   = errors.New("invalid issue status")
	ErrInvalidIssuePriority = errors.New("invalid issue priority")
	ErrIssuePermission      = errors.New("only the creator, the assignee or an organization admin can modify this issue")
	ErrIssueMismatch        = errors.New("issue belongs to a different organization")
)

// IssueService handles issue business logic
type IssueService struct {
	issueRepo   repository.IssueRepository
	orgRepo     repository.OrganizationRepository
	broadcaster realtime.Broadcaster
	logger      *slog.Logger
}

// NewIssueService creates a new IssueService
func NewIssueService(
	issueRepo repository.IssueRepository,
	orgRepo repository.OrganizationRepository,
	broadcaster realtime.Broadcaster,
	logger *slog.Logger,
) *IssueService {
	if broadcaster == nil {
		broadcaster = realtime.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IssueService{
		issueRepo:   issueRepo,
		orgRepo:     orgRepo,
		broadcaster: broadcaster,
		logger:      logger.With("component", "issue_service"),
	}
}

// CreateIssueInput represents input for creating an issue
type CreateIssueInput struct {
	OrganizationID uint64
	CreatorID      uint64
	Title          string
	Description    string
	Status         models.IssueStatus
	Priority       models.IssuePriority
	AssigneeID     *uint64
}

// UpdateIssueInput represents input for updating an issue
type UpdateIssueInput struct {
	Title         *string
	Description   *string
	Status        *models.IssueStatus
	Priority      *models.IssuePriority
	AssigneeID    *uint64
	ClearAssignee bool
}

// ListIssuesInput represents filters for listing issues
type ListIssuesInput struct {
	OrganizationID uint64
	UserID         uint64
	Status         *models.IssueStatus
	Priority       *models.IssuePriority
	AssignedToMe   bool
}

// IssueEventPayload is the payload of an issue event
type IssueEventPayload struct {
	Action string        `json:"action"`
	Issue  *models.Issue `json:"issue"`
}

// ListIssues lists the issues of an organization with what links to them
func (s *IssueService) ListIssues(input ListIssuesInput) ([]models.Issue, map[uint64]repository.IssueLinkCounts, error) {
	if input.OrganizationID == 0 {
		return nil, nil, ErrOrganizationRequired
	}
	if err := ensureMember(s.orgRepo, input.OrganizationID, input.UserID); err != nil {
		return nil, nil, err
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, nil, ErrInvalidIssueStatus
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, nil, ErrInvalidIssuePriority
	}

	filter := repository.IssueFilter{
		OrganizationID: input.OrganizationID,
		Status:         input.Status,
		Priority:       input.Priority,
	}
	if input.AssignedToMe {
		filter.AssigneeID = &input.UserID
	}

	issues, err := s.issueRepo.List(filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list issues: %w", err)
	}

	ids := make([]uint64, len(issues))
	for i, issue := range issues {
		ids[i] = issue.ID
	}
	counts, err := s.issueRepo.LinkCounts(ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count issue links: %w", err)
	}

	return issues, counts, nil
}

// GetIssue returns an issue with its creator, assignee and link counts
func (s *IssueService) GetIssue(issueID uint64) (*models.Issue, repository.IssueLinkCounts, error) {
	issue, err := s.findIssue(issueID, "Creator", "Assignee")
	if err != nil {
		return nil, repository.IssueLinkCounts{}, err
	}

	counts, err := s.issueRepo.LinkCounts([]uint64{issue.ID})
	if err != nil {
		return nil, repository.IssueLinkCounts{}, fmt.Errorf("failed to count issue links: %w", err)
	}
	return issue, counts[issue.ID], nil
}

// CreateIssue opens an issue. Status defaults to OPEN and priority to MEDIUM.
func (s *IssueService) CreateIssue(ctx context.Context, input CreateIssueInput) (*models.Issue, repository.IssueLinkCounts, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, repository.IssueLinkCounts{}, ErrIssueTitleRequired
	}
	if input.OrganizationID == 0 {
		return nil, repository.IssueLinkCounts{}, ErrOrganizationRequired
	}

	if input.Status == "" {
		input.Status = models.IssueStatusOpen
	}
	if !input.Status.Valid() {
		return nil, repository.IssueLinkCounts{}, ErrInvalidIssueStatus
	}
	if input.Priority == "" {
		input.Priority = models.IssuePriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, repository.IssueLinkCounts{}, ErrInvalidIssuePriority
	}

	if _, err := s.orgRepo.FindByID(input.OrganizationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.IssueLinkCounts{}, ErrOrganizationNotFound
		}
		return nil, repository.IssueLinkCounts{}, fmt.Errorf("failed to find organization: %w", err)
	}
	if err := ensureMember(s.orgRepo, input.OrganizationID, input.CreatorID); err != nil {
		return nil, repository.IssueLinkCounts{}, err
	}
	if err := s.ensureAssignee(input.OrganizationID, input.AssigneeID); err != nil {
		return nil, repository.IssueLinkCounts{}, err
	}

	issue := &models.Issue{
		OrganizationID: input.OrganizationID,
		Title:          title,
		Description:    input.Description,
		Status:         input.Status,
		Priority:       input.Priority,
		CreatorID:      input.CreatorID,
		AssigneeID:     input.AssigneeID,
	}
	if err := s.issueRepo.Create(issue); err != nil {
		return nil, repository.IssueLinkCounts{}, fmt.Errorf("failed to create issue: %w", err)
	}

	created, counts, err := s.GetIssue(issue.ID)
	if err != nil {
		return nil, repository.IssueLinkCounts{}, err
	}
	s.publish(ctx, "created", created)
	return created, counts, nil
}

// UpdateIssue changes the fields present in input
func (s *IssueService) UpdateIssue(ctx context.Context, issueID, actorID uint64, input UpdateIssueInput) (*models.Issue, repository.IssueLinkCounts, error) {
	issue, err := s.authorize(issueID, actorID)
	if err != nil {
		return nil, repository.IssueLinkCounts{}, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, repository.IssueLinkCounts{}, ErrIssueTitleRequired
		}
		issue.Title = title
	}
	if input.Description != nil {
		issue.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, repository.IssueLinkCounts{}, ErrInvalidIssueStatus
		}
		issue.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, repository.IssueLinkCounts{}, ErrInvalidIssuePriority
		}
		issue.Priority = *input.Priority
	}
	if input.ClearAssignee {
		issue.AssigneeID = nil
	} else if input.AssigneeID != nil {
		if err := s.ensureAssignee(issue.OrganizationID, input.AssigneeID); err != nil {
			return nil, repository.IssueLinkCounts{}, err
		}
		issue.AssigneeID = input.AssigneeID
	}

	if err := s.issueRepo.Update(issue); err != nil {
		return nil, repository.IssueLinkCounts{}, fmt.Errorf("failed to update issue: %w", err)
	}

	updated, counts, err := s.GetIssue(issue.ID)
	if err != nil {
		return nil, repository.IssueLinkCounts{}, err
	}
	s.publish(ctx, "updated", updated)
	return updated, counts, nil
}

// DeleteIssue removes an issue. Linked motions and tasks survive unlinked.
func (s *IssueService) DeleteIssue(ctx context.Context, issueID, actorID uint64) error {
	issue, err := s.authorize(issueID, actorID)
	if err != nil {
		return err
	}

	if err := s.issueRepo.Delete(issueID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIssueNotFound
		}
		return fmt.Errorf("failed to delete issue: %w", err)
	}

	s.publish(ctx, "deleted", issue)
	return nil
}

// IssueStats counts the issues of an organization by status and priority
func (s *IssueService) IssueStats(organizationID, userID uint64) ([]repository.IssueStat, error) {
	if organizationID == 0 {
		return nil, ErrOrganizationRequired
	}
	if err := ensureMember(s.orgRepo, organizationID, userID); err != nil {
		return nil, err
	}

	stats, err := s.issueRepo.Stats(organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue stats: %w", err)
	}
	return stats, nil
}

// authorize allows the creator, the assignee and organization admins.
func (s *IssueService) authorize(issueID, actorID uint64) (*models.Issue, error) {
	issue, err := s.findIssue(issueID)
	if err != nil {
		return nil, err
	}

	if issue.CreatorID == actorID || (issue.AssigneeID != nil && *issue.AssigneeID == actorID) {
		return issue, nil
	}

	member, err := s.orgRepo.FindMember(issue.OrganizationID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIssuePermission
		}
		return nil, fmt.Errorf("failed to verify organization membership: %w", err)
	}
	if !member.Role.CanProcessApprovals() {
		return nil, ErrIssuePermission
	}

	return issue, nil
}

func (s *IssueService) findIssue(issueID uint64, preload ...string) (*models.Issue, error) {
	issue, err := s.issueRepo.FindByID(issueID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, fmt.Errorf("failed to find issue: %w", err)
	}
	return issue, nil
}

func (s *IssueService) ensureAssignee(orgID uint64, assigneeID *uint64) error {
	if assigneeID == nil {
		return nil
	}
	if err := ensureMember(s.orgRepo, orgID, *assigneeID); err != nil {
		if errors.Is(err, ErrNotOrganizationMember) {
			return ErrInvalidTaskAssignee
		}
		return err
	}
	return nil
}

func (s *IssueService) publish(ctx context.Context, action string, issue *models.Issue) {
	ev := realtime.NewEvent(realtime.EventIssue, issue.OrganizationID, 0, IssueEventPayload{Action: action, Issue: issue})
	if err := s.broadcaster.Publish(ctx, issue.OrganizationID, ev); err != nil {
		s.logger.Warn("failed to publish issue event", "issue_id", issue.ID, "action", action, "error", err)
	}
}

// ensureIssueInOrganization checks that an optional issue link points at
// an issue of orgID.
func ensureIssueInOrganization(issueRepo repository.IssueRepository, orgID uint64, issueID *uint64) error {
	if issueID == nil {
		return nil
	}
	issue, err := issueRepo.FindByID(*issueID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIssueNotFound
		}
		return fmt.Errorf("failed to find issue: %w", err)
	}
	if issue.OrganizationID != orgID {
		return ErrIssueMismatch
	}
	return nil
}
