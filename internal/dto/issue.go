package dto

import (
	"time"

	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/repository"
)

// IssueDTO represents an issue with the number of records linked to it
type IssueDTO struct {
	ID             uint64               `json:"id"`
	OrganizationID uint64               `json:"organization_id"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Status         models.IssueStatus   `json:"status"`
	Priority       models.IssuePriority `json:"priority"`
	CreatorID      uint64               `json:"creator_id"`
	AssigneeID     *uint64              `json:"assignee_id"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Creator        *UserDTO             `json:"creator,omitempty"`
	Assignee       *UserDTO             `json:"assignee,omitempty"`
	MotionCount    int64                `json:"motion_count"`
	TaskCount      int64                `json:"task_count"`
	CommentCount   int64                `json:"comment_count"`
}

// IssueStatsDTO counts the issues of an organization
type IssueStatsDTO struct {
	Total      int64                          `json:"total"`
	ByStatus   map[models.IssueStatus]int64   `json:"by_status"`
	ByPriority map[models.IssuePriority]int64 `json:"by_priority"`
}

// ToIssueDTO converts an Issue model to IssueDTO
func ToIssueDTO(issue models.Issue, counts repository.IssueLinkCounts) IssueDTO {
	dto := IssueDTO{
		ID:             issue.ID,
		OrganizationID: issue.OrganizationID,
		Title:          issue.Title,
		Description:    issue.Description,
		Status:         issue.Status,
		Priority:       issue.Priority,
		CreatorID:      issue.CreatorID,
		AssigneeID:     issue.AssigneeID,
		CreatedAt:      issue.CreatedAt,
		UpdatedAt:      issue.UpdatedAt,
		MotionCount:    counts.Motions,
		TaskCount:      counts.Tasks,
		CommentCount:   counts.Comments,
	}
	if issue.Creator.ID != 0 {
		creator := ToUserDTO(issue.Creator)
		dto.Creator = &creator
	}
	if issue.Assignee != nil && issue.Assignee.ID != 0 {
		assignee := ToUserDTO(*issue.Assignee)
		dto.Assignee = &assignee
	}
	return dto
}

// ToIssueDTOs converts a slice of issues, looking up each one's counts
func ToIssueDTOs(issues []models.Issue, counts map[uint64]repository.IssueLinkCounts) []IssueDTO {
	items := make([]IssueDTO, len(issues))
	for i, issue := range issues {
		items[i] = ToIssueDTO(issue, counts[issue.ID])
	}
	return items
}

// ToIssueStatsDTO folds (status, priority) groups into totals per status
// and per priority. Every known status and priority is present.
func ToIssueStatsDTO(stats []repository.IssueStat) IssueStatsDTO {
	out := IssueStatsDTO{
		ByStatus: map[models.IssueStatus]int64{
			models.IssueStatusOpen:       0,
			models.IssueStatusInProgress: 0,
			models.IssueStatusResolved:   0,
			models.IssueStatusClosed:     0,
		},
		ByPriority: map[models.IssuePriority]int64{
			models.IssuePriorityLow:    0,
			models.IssuePriorityMedium: 0,
			models.IssuePriorityHigh:   0,
			models.IssuePriorityUrgent: 0,
		},
	}
	for _, s := range stats {
		out.Total += s.Count
		out.ByStatus[s.Status] += s.Count
		out.ByPriority[s.Priority] += s.Count
	}
	return out
}
