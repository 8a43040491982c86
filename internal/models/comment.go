package models

import "time"

// DeletedCommentText replaces the text of a comment its author deleted.
const DeletedCommentText = "Deleted by User"

// Comment belongs to exactly one of a motion, an issue or a task. Replies
// point at a top-level comment through ParentID.
type Comment struct {
	ID             uint64     `gorm:"primarykey" json:"id"`
	OrganizationID uint64     `gorm:"not null;index" json:"organization_id"`
	MotionID       *uint64    `gorm:"index" json:"motion_id"`
	IssueID        *uint64    `gorm:"index" json:"issue_id"`
	TaskID         *uint64    `gorm:"index" json:"task_id"`
	ParentID       *uint64    `gorm:"index" json:"parent_id"`
	UserID         uint64     `gorm:"not null" json:"user_id"`
	Text           string     `gorm:"type:text;not null" json:"text"`
	IsDeleted      bool       `gorm:"not null;default:false" json:"is_deleted"`
	EditedAt       *time.Time `json:"edited_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Relations
	User    User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Replies []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}
