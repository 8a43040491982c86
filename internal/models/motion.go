package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type MotionStatus string

const (
	MotionStatusUnapproved MotionStatus = "unapproved"
	MotionStatusPending    MotionStatus = "pending"
	MotionStatusPassed     MotionStatus = "passed"
	MotionStatusDefeated   MotionStatus = "defeated"
)

// ParseMotionStatus normalizes a status string of any casing to its
// canonical value.
func ParseMotionStatus(s string) (MotionStatus, error) {
	status := MotionStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case MotionStatusUnapproved, MotionStatusPending, MotionStatusPassed, MotionStatusDefeated:
		return status, nil
	}
	return "", fmt.Errorf("unknown motion status %q", s)
}

// Decided reports whether the status is a terminal voting outcome.
func (s MotionStatus) Decided() bool {
	return s == MotionStatusPassed || s == MotionStatusDefeated
}

type Motion struct {
	ID             uint64       `gorm:"primarykey" json:"id"`
	OrganizationID uint64       `gorm:"not null;index" json:"organization_id"`
	AuthorID       uint64       `gorm:"not null;index" json:"author_id"`
	IssueID        *uint64      `gorm:"index" json:"issue_id"`
	Summary        string       `gorm:"type:varchar(255)" json:"summary"`
	Text           string       `gorm:"type:text;not null" json:"text"`
	Discussion     string       `gorm:"type:text" json:"discussion"`
	Status         MotionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// DecidedAt is set once, when the motion leaves pending.
	DecidedAt *time.Time     `json:"decided_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Author       User         `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Votes        []Vote       `gorm:"foreignKey:MotionID" json:"votes,omitempty"`
	Tasks        []Task       `gorm:"foreignKey:MotionID" json:"tasks,omitempty"`
}
