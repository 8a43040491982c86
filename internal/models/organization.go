package models

import (
	"time"

	"gorm.io/gorm"
)

type Organization struct {
	ID         uint64 `gorm:"primarykey" json:"id"`
	Name       string `gorm:"type:varchar(255);not null" json:"name"`
	InviteCode string `gorm:"type:varchar(50);uniqueIndex;not null" json:"invite_code"`

	// MajorityVoteNumber is the absolute number of for or against votes
	// that decides a motion.
	MajorityVoteNumber    int            `gorm:"not null;default:1" json:"majority_vote_number"`
	RequireMotionApproval bool           `gorm:"not null;default:false" json:"require_motion_approval"`
	RequireTaskApproval   bool           `gorm:"not null;default:false" json:"require_task_approval"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members []OrganizationMember `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
	Motions []Motion             `gorm:"foreignKey:OrganizationID" json:"motions,omitempty"`
}
