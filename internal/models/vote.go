package models

import "time"

type VoteType string

const (
	VoteFor     VoteType = "for"
	VoteAgainst VoteType = "against"
)

// Valid reports whether t is a known vote type.
func (t VoteType) Valid() bool {
	return t == VoteFor || t == VoteAgainst
}

// Vote is immutable once cast. Votes are hard deleted so the
// (motion_id, user_id) unique index stays authoritative.
type Vote struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	MotionID  uint64    `gorm:"not null;uniqueIndex:idx_votes_motion_user" json:"motion_id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_votes_motion_user" json:"user_id"`
	Type      VoteType  `gorm:"type:varchar(10);not null" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Motion Motion `gorm:"foreignKey:MotionID" json:"-"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
