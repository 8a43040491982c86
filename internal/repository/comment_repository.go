package repository

import (
	"time"

	"github.com/wegovern/governance-api/internal/models"
	"gorm.io/gorm"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

// Create creates a comment
func (r *GormCommentRepository) Create(comment *models.Comment) error {
	return r.db.Omit("User", "Replies").Create(comment).Error
}

// FindByID finds a comment by ID with its author
func (r *GormCommentRepository) FindByID(id uint64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByTarget lists top-level comments on a target with live replies nested
func (r *GormCommentRepository) ListByTarget(target CommentTarget) ([]models.Comment, error) {
	query := r.db.Model(&models.Comment{}).Where("comments.parent_id IS NULL")
	switch {
	case target.MotionID != nil:
		query = query.Where("comments.motion_id = ?", *target.MotionID)
	case target.IssueID != nil:
		query = query.Where("comments.issue_id = ?", *target.IssueID)
	case target.TaskID != nil:
		query = query.Where("comments.task_id = ?", *target.TaskID)
	default:
		return []models.Comment{}, nil
	}

	liveReplies := r.db.Table("comments AS r").Select("1").
		Where("r.parent_id = comments.id AND r.is_deleted = ?", false)
	query = query.Where("comments.is_deleted = ? OR EXISTS (?)", false, liveReplies)

	var comments []models.Comment
	if err := query.
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_deleted = ?", false).Order("created_at ASC").Order("id ASC")
		}).
		Preload("Replies.User").
		Order("comments.created_at ASC").Order("comments.id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// UpdateText replaces the text of a live comment
func (r *GormCommentRepository) UpdateText(id uint64, text string, editedAt time.Time) error {
	return r.updateLive(id, map[string]interface{}{
		"text":      text,
		"edited_at": editedAt,
	})
}

// SoftDelete marks a live comment deleted and replaces its text
func (r *GormCommentRepository) SoftDelete(id uint64, deletedAt time.Time) error {
	return r.updateLive(id, map[string]interface{}{
		"text":       models.DeletedCommentText,
		"is_deleted": true,
		"edited_at":  deletedAt,
	})
}

func (r *GormCommentRepository) updateLive(id uint64, values map[string]interface{}) error {
	result := r.db.Model(&models.Comment{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
