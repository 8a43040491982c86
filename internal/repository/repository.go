package repository

import (
	"errors"
	"time"

	"github.com/wegovern/governance-api/internal/models"
)

var (
	// ErrApprovalProcessed is returned when an approval was processed by a concurrent request.
	ErrApprovalProcessed = errors.New("approval repository: approval already processed")
	// ErrMotionNotUnapproved is returned when a motion approval targets a motion that is no longer unapproved.
	ErrMotionNotUnapproved = errors.New("approval repository: motion is not awaiting approval")
	// ErrTaskNotUnapproved is returned when a task approval targets a task that is no longer unapproved.
	ErrTaskNotUnapproved = errors.New("approval repository: task is not awaiting approval")
	// ErrVoteExists is returned when the (motion, user) pair already has a vote.
	ErrVoteExists = errors.New("vote repository: user already voted on this motion")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email address
	FindByEmail(email string) (*models.User, error)
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// CreateWithOwner creates an organization and its owner membership in one transaction
	CreateWithOwner(org *models.Organization, owner *models.OrganizationMember) error

	// FindByID finds an organization by ID
	FindByID(id uint64) (*models.Organization, error)

	// FindByInviteCode finds an organization by invite code
	FindByInviteCode(code string) (*models.Organization, error)

	// Update updates an organization
	Update(org *models.Organization) error

	// Delete deletes an organization and all related data
	Delete(id uint64) error

	// AddMember adds a member to an organization
	AddMember(member *models.OrganizationMember) error

	// RemoveMember removes a member from an organization
	RemoveMember(organizationID, userID uint64) error

	// UpdateMemberRole changes the role of an existing member
	UpdateMemberRole(organizationID, userID uint64, role models.OrganizationRole) error

	// FindMember finds a specific organization member
	FindMember(organizationID, userID uint64) (*models.OrganizationMember, error)

	// ListMembersByUserID lists all organizations a user is a member of
	ListMembersByUserID(userID uint64) ([]models.OrganizationMember, error)

	// ListMembers lists all members of an organization
	ListMembers(organizationID uint64) ([]models.OrganizationMember, error)
}

// MotionRepository defines the interface for motion data access
type MotionRepository interface {
	// Create creates a motion with its tasks and an optional approval in one transaction.
	// Task and approval references to the motion are filled in after insert.
	Create(motion *models.Motion, tasks []models.Task, approval *models.Approval) error

	// FindByID finds a motion by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Motion, error)

	// List retrieves motions with filtering and pagination
	List(filter MotionFilter) ([]models.Motion, int64, error)

	// ListIDsByStatus returns the IDs of all motions in the given status, oldest first
	ListIDsByStatus(status models.MotionStatus) ([]uint64, error)

	// UpdateText updates the editable text fields of a motion. Status is never written.
	UpdateText(motion *models.Motion) error

	// Delete deletes a motion together with its votes, tasks and comments
	Delete(id uint64) error

	// Decide moves a pending motion to outcome, stamps decidedAt and, for a
	// passed outcome, promotes the motion's UNAPPROVED tasks to NOT_STARTED,
	// all in one transaction. It reports false without writing anything when
	// the motion was no longer pending.
	Decide(id uint64, outcome models.MotionStatus, decidedAt time.Time) (bool, error)
}

// MotionFilter holds filtering options for listing motions
type MotionFilter struct {
	OrganizationID uint64
	Status         *models.MotionStatus
	Page           int
	PageSize       int
}

// VoteRepository defines the interface for vote data access
type VoteRepository interface {
	// Create inserts a vote. A second vote for the same (motion, user) pair
	// fails with ErrVoteExists.
	Create(vote *models.Vote) error

	// FindByID finds a vote by ID
	FindByID(id uint64) (*models.Vote, error)

	// FindByMotionAndUser finds the vote a user cast on a motion
	FindByMotionAndUser(motionID, userID uint64) (*models.Vote, error)

	// ListByMotion lists the votes of a motion in cast order
	ListByMotion(motionID uint64, preloadUser bool) ([]models.Vote, error)

	// CountByType counts the votes of a motion grouped by vote type
	CountByType(motionID uint64) (map[models.VoteType]int, error)

	// Delete removes a vote
	Delete(id uint64) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task and, when approval is non-nil, the approval
	// request for it in the same transaction. An UNAPPROVED task whose motion
	// has passed by insert time is stored as NOT_STARTED.
	Create(task *models.Task, approval *models.Approval) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete soft deletes a task
	Delete(id uint64) error

	// IsMember reports whether the user belongs to the organization
	IsMember(organizationID, userID uint64) (bool, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	OrganizationIDs []uint64
	MotionID        *uint64
	IssueID         *uint64
	Status          *models.TaskStatus
	CreatorID       *uint64
	AssigneeID      *uint64
	DueDateFrom     *time.Time
	DueDateTo       *time.Time
	SortByDueDate   bool
	Page            int
	PageSize        int
}

// ApprovalRepository defines the interface for approval data access
type ApprovalRepository interface {
	// Create creates an approval request
	Create(approval *models.Approval) error

	// FindByID finds an approval by ID with submitter and processor preloaded
	FindByID(id uint64) (*models.Approval, error)

	// List retrieves approvals of an organization, newest first
	List(filter ApprovalFilter) ([]models.Approval, error)

	// Reject marks a pending approval as rejected
	Reject(id uint64, resolution ApprovalResolution) error

	// ApproveMotion marks a pending motion approval as approved and moves
	// its motion from unapproved to pending in one transaction
	ApproveMotion(id uint64, resolution ApprovalResolution) (*models.Motion, error)

	// ApproveTask marks a pending task approval as approved and promotes
	// its task from UNAPPROVED to NOT_STARTED in one transaction
	ApproveTask(id uint64, resolution ApprovalResolution) (*models.Task, error)

	// Stats counts approvals of an organization grouped by type and status
	Stats(organizationID uint64) ([]ApprovalStat, error)
}

// ApprovalFilter holds filtering options for listing approvals
type ApprovalFilter struct {
	OrganizationID uint64
	Type           *models.ApprovalType
	Status         *models.ApprovalStatus
	SubmittedByID  *uint64
	SubmittedFrom  *time.Time
	SubmittedTo    *time.Time
}

// ApprovalResolution records who processed an approval and when
type ApprovalResolution struct {
	ProcessedByID uint64
	ProcessedAt   time.Time
	Description   string
}

// ApprovalStat is one row of ApprovalRepository.Stats
type ApprovalStat struct {
	Type   models.ApprovalType
	Status models.ApprovalStatus
	Count  int64
}

// IssueRepository defines the interface for issue data access
type IssueRepository interface {
	// Create creates an issue
	Create(issue *models.Issue) error

	// FindByID finds an issue by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Issue, error)

	// List lists the issues of an organization, newest first, with
	// creator and assignee preloaded
	List(filter IssueFilter) ([]models.Issue, error)

	// Update saves the editable fields of an issue
	Update(issue *models.Issue) error

	// Delete soft deletes an issue, unlinks its motions and tasks and
	// removes its comments
	Delete(id uint64) error

	// Stats counts the issues of an organization grouped by status and priority
	Stats(organizationID uint64) ([]IssueStat, error)

	// LinkCounts counts the motions, tasks and live comments of each issue
	LinkCounts(issueIDs []uint64) (map[uint64]IssueLinkCounts, error)
}

// IssueFilter holds filtering options for listing issues
type IssueFilter struct {
	OrganizationID uint64
	Status         *models.IssueStatus
	Priority       *models.IssuePriority
	AssigneeID     *uint64
}

// IssueStat is one (status, priority) group of IssueRepository.Stats
type IssueStat struct {
	Status   models.IssueStatus
	Priority models.IssuePriority
	Count    int64
}

// IssueLinkCounts counts what points at an issue
type IssueLinkCounts struct {
	Motions  int64 `json:"motion_count"`
	Tasks    int64 `json:"task_count"`
	Comments int64 `json:"comment_count"`
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a comment
	Create(comment *models.Comment) error

	// FindByID finds a comment by ID with its author
	FindByID(id uint64) (*models.Comment, error)

	// ListByTarget lists the top-level comments on one motion, issue or
	// task in creation order, with live replies nested. A deleted
	// top-level comment is kept only while it has live replies.
	ListByTarget(target CommentTarget) ([]models.Comment, error)

	// UpdateText replaces the text of a comment and stamps editedAt
	UpdateText(id uint64, text string, editedAt time.Time) error

	// SoftDelete marks a comment deleted and replaces its text
	SoftDelete(id uint64, deletedAt time.Time) error
}

// CommentTarget names the single record a comment belongs to
type CommentTarget struct {
	MotionID *uint64
	IssueID  *uint64
	TaskID   *uint64
}
