package dto

import (
	"time"

	"github.com/wegovern/governance-api/internal/models"
)

// CommentDTO represents a comment as seen by one viewer
type CommentDTO struct {
	ID             uint64       `json:"id"`
	OrganizationID uint64       `json:"organization_id"`
	MotionID       *uint64      `json:"motion_id"`
	IssueID        *uint64      `json:"issue_id"`
	TaskID         *uint64      `json:"task_id"`
	ParentID       *uint64      `json:"parent_id"`
	UserID         uint64       `json:"user_id"`
	User           *UserDTO     `json:"user,omitempty"`
	Text           string       `json:"text"`
	IsDeleted      bool         `json:"is_deleted"`
	IsEdited       bool         `json:"is_edited"`
	Editable       bool         `json:"editable"`
	EditedAt       *time.Time   `json:"edited_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	Replies        []CommentDTO `json:"replies"`
}

// ToCommentDTO converts a Comment model for viewerID. Only the author of a
// live comment may edit it.
func ToCommentDTO(comment models.Comment, viewerID uint64) CommentDTO {
	dto := CommentDTO{
		ID:             comment.ID,
		OrganizationID: comment.OrganizationID,
		MotionID:       comment.MotionID,
		IssueID:        comment.IssueID,
		TaskID:         comment.TaskID,
		ParentID:       comment.ParentID,
		UserID:         comment.UserID,
		Text:           comment.Text,
		IsDeleted:      comment.IsDeleted,
		IsEdited:       comment.EditedAt != nil,
		Editable:       !comment.IsDeleted && comment.UserID == viewerID,
		EditedAt:       comment.EditedAt,
		CreatedAt:      comment.CreatedAt,
		UpdatedAt:      comment.UpdatedAt,
		Replies:        ToCommentDTOs(comment.Replies, viewerID),
	}
	if comment.User.ID != 0 {
		user := ToUserDTO(comment.User)
		dto.User = &user
	}
	return dto
}

// ToCommentDTOs converts a slice of comments for viewerID
func ToCommentDTOs(comments []models.Comment, viewerID uint64) []CommentDTO {
	items := make([]CommentDTO, len(comments))
	for i, comment := range comments {
		items[i] = ToCommentDTO(comment, viewerID)
	}
	return items
}
