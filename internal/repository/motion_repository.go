package repository

import (
	"time"

	"github.com/wegovern/governance-api/internal/database"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/utils"
	"gorm.io/gorm"
)

// GormMotionRepository is a GORM implementation of MotionRepository
type GormMotionRepository struct {
	db *gorm.DB
}

// NewMotionRepository creates a new MotionRepository
func NewMotionRepository(db *gorm.DB) MotionRepository {
	return &GormMotionRepository{db: db}
}

// Create creates a motion with its tasks and an optional approval request
func (r *GormMotionRepository) Create(motion *models.Motion, tasks []models.Task, approval *models.Approval) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tasks", "Votes").Create(motion).Error; err != nil {
			return err
		}

		if len(tasks) > 0 {
			for i := range tasks {
				tasks[i].MotionID = &motion.ID
				tasks[i].OrganizationID = motion.OrganizationID
			}
			if err := tx.Create(&tasks).Error; err != nil {
				return err
			}
			motion.Tasks = tasks
		}

		if approval != nil {
			approval.RelatedID = motion.ID
			approval.OrganizationID = motion.OrganizationID
			if err := tx.Create(approval).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// FindByID finds a motion by ID with optional preloading
func (r *GormMotionRepository) FindByID(id uint64, preload ...string) (*models.Motion, error) {
	var motion models.Motion
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&motion, id).Error; err != nil {
		return nil, err
	}

	return &motion, nil
}

// List retrieves motions with filtering and pagination
func (r *GormMotionRepository) List(filter MotionFilter) ([]models.Motion, int64, error) {
	var motions []models.Motion

	query := r.db.Model(&models.Motion{}).Where("motions.organization_id = ?", filter.OrganizationID)
	if filter.Status != nil {
		query = query.Where("motions.status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("motions.created_at DESC").Order("motions.id DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	if err := listQuery.Preload("Author").Preload("Votes").Find(&motions).Error; err != nil {
		return nil, 0, err
	}

	return motions, total, nil
}

// ListIDsByStatus returns the IDs of all motions in the given status, oldest first
func (r *GormMotionRepository) ListIDsByStatus(status models.MotionStatus) ([]uint64, error) {
	var ids []uint64
	if err := r.db.Model(&models.Motion{}).
		Where("status = ?", status).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateText updates the editable text fields of a motion
func (r *GormMotionRepository) UpdateText(motion *models.Motion) error {
	return r.db.Model(&models.Motion{ID: motion.ID}).
		Select("summary", "text", "discussion", "issue_id").
		Updates(map[string]interface{}{
			"summary":    motion.Summary,
			"text":       motion.Text,
			"discussion": motion.Discussion,
			"issue_id":   motion.IssueID,
		}).Error
}

// Delete deletes a motion together with its votes, tasks and comments
func (r *GormMotionRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("motion_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return err
		}

		if err := tx.Where("motion_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Where("motion_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Motion{}, id).Error
	})
}

// Decide applies a voting outcome and its task cascade atomically
func (r *GormMotionRepository) Decide(id uint64, outcome models.MotionStatus, decidedAt time.Time) (bool, error) {
	decided := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		// The status predicate makes the transition happen exactly once
		// across concurrent evaluators.
		result := tx.Model(&models.Motion{}).
			Where("id = ? AND status = ?", id, models.MotionStatusPending).
			Updates(map[string]interface{}{
				"status":     outcome,
				"decided_at": decidedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if outcome == models.MotionStatusPassed {
			if err := tx.Model(&models.Task{}).
				Where("motion_id = ? AND status = ?", id, models.TaskStatusUnapproved).
				Update("status", models.TaskStatusNotStarted).Error; err != nil {
				return err
			}
		}

		decided = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return decided, nil
}
