package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusUnapproved TaskStatus = "UNAPPROVED"
	TaskStatusNotStarted TaskStatus = "NOT_STARTED"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusUnapproved, TaskStatusNotStarted, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Action         string         `gorm:"not null" json:"action"`
	Description    string         `gorm:"type:text" json:"description"`
	Status         TaskStatus     `gorm:"type:varchar(20);not null;default:'NOT_STARTED';index" json:"status"`
	DueDate        *time.Time     `json:"due_date"`
	CompletedAt    *time.Time     `json:"completed_at"`
	MotionID       *uint64        `gorm:"index" json:"motion_id"`
	IssueID        *uint64        `gorm:"index" json:"issue_id"`
	OrganizationID uint64         `gorm:"not null;index" json:"organization_id"`
	CreatorID      uint64         `gorm:"not null" json:"creator_id"`
	AssigneeID     *uint64        `gorm:"index" json:"assignee_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Creator      User         `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Assignee     *User        `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}
