package models

import "time"

type ApprovalType string

const (
	ApprovalTypeMotion ApprovalType = "motion_approval"
	ApprovalTypeTask   ApprovalType = "task_approval"
)

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

type Approval struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	OrganizationID uint64         `gorm:"not null;index" json:"organization_id"`
	Type           ApprovalType   `gorm:"type:varchar(30);not null;index" json:"type"`
	Status         ApprovalStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Description    string         `gorm:"type:text" json:"description"`
	RelatedID      uint64         `gorm:"not null" json:"related_id"`
	SubmittedByID  uint64         `gorm:"not null" json:"submitted_by_id"`
	ProcessedByID  *uint64        `json:"processed_by_id"`
	SubmittedAt    time.Time      `gorm:"autoCreateTime" json:"submitted_at"`
	ProcessedAt    *time.Time     `json:"processed_at"`

	// Relations
	SubmittedBy User  `gorm:"foreignKey:SubmittedByID" json:"submitted_by,omitempty"`
	ProcessedBy *User `gorm:"foreignKey:ProcessedByID" json:"processed_by,omitempty"`
}
