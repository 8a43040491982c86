package repository

import (
	"github.com/wegovern/governance-api/internal/models"
	"gorm.io/gorm"
)

// GormApprovalRepository is a GORM implementation of ApprovalRepository
type GormApprovalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository creates a new ApprovalRepository
func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &GormApprovalRepository{db: db}
}

// Create creates an approval request
func (r *GormApprovalRepository) Create(approval *models.Approval) error {
	return r.db.Omit("SubmittedBy", "ProcessedBy").Create(approval).Error
}

// FindByID finds an approval by ID
func (r *GormApprovalRepository) FindByID(id uint64) (*models.Approval, error) {
	var approval models.Approval
	if err := r.db.Preload("SubmittedBy").Preload("ProcessedBy").First(&approval, id).Error; err != nil {
		return nil, err
	}
	return &approval, nil
}

// List retrieves approvals of an organization, newest first
func (r *GormApprovalRepository) List(filter ApprovalFilter) ([]models.Approval, error) {
	query := r.db.Where("organization_id = ?", filter.OrganizationID)

	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SubmittedByID != nil {
		query = query.Where("submitted_by_id = ?", *filter.SubmittedByID)
	}
	if filter.SubmittedFrom != nil {
		query = query.Where("submitted_at >= ?", *filter.SubmittedFrom)
	}
	if filter.SubmittedTo != nil {
		query = query.Where("submitted_at <= ?", *filter.SubmittedTo)
	}

	var approvals []models.Approval
	if err := query.Preload("SubmittedBy").Preload("ProcessedBy").
		Order("submitted_at DESC").Order("id DESC").
		Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}

// Reject marks a pending approval as rejected
func (r *GormApprovalRepository) Reject(id uint64, resolution ApprovalResolution) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return resolve(tx, id, models.ApprovalStatusRejected, resolution)
	})
}

// ApproveMotion approves a motion approval and opens its motion for voting
func (r *GormApprovalRepository) ApproveMotion(id uint64, resolution ApprovalResolution) (*models.Motion, error) {
	var motion models.Motion

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var approval models.Approval
		if err := tx.First(&approval, id).Error; err != nil {
			return err
		}

		if err := resolve(tx, id, models.ApprovalStatusApproved, resolution); err != nil {
			return err
		}

		result := tx.Model(&models.Motion{}).
			Where("id = ? AND status = ?", approval.RelatedID, models.MotionStatusUnapproved).
			Update("status", models.MotionStatusPending)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrMotionNotUnapproved
		}

		return tx.First(&motion, approval.RelatedID).Error
	})
	if err != nil {
		return nil, err
	}

	return &motion, nil
}

// ApproveTask approves a task approval and promotes its task
func (r *GormApprovalRepository) ApproveTask(id uint64, resolution ApprovalResolution) (*models.Task, error) {
	var task models.Task

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var approval models.Approval
		if err := tx.First(&approval, id).Error; err != nil {
			return err
		}

		if err := resolve(tx, id, models.ApprovalStatusApproved, resolution); err != nil {
			return err
		}

		result := tx.Model(&models.Task{}).
			Where("id = ? AND status = ?", approval.RelatedID, models.TaskStatusUnapproved).
			Update("status", models.TaskStatusNotStarted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotUnapproved
		}

		return tx.First(&task, approval.RelatedID).Error
	})
	if err != nil {
		return nil, err
	}

	return &task, nil
}

// Stats counts approvals grouped by type and status
func (r *GormApprovalRepository) Stats(organizationID uint64) ([]ApprovalStat, error) {
	var stats []ApprovalStat
	if err := r.db.Model(&models.Approval{}).
		Select("type, status, COUNT(*) AS count").
		Where("organization_id = ?", organizationID).
		Group("type, status").
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// resolve moves a pending approval to status. Only one request can win.
func resolve(tx *gorm.DB, id uint64, status models.ApprovalStatus, resolution ApprovalResolution) error {
	result := tx.Model(&models.Approval{}).
		Where("id = ? AND status = ?", id, models.ApprovalStatusPending).
		Updates(map[string]interface{}{
			"status":          status,
			"processed_by_id": resolution.ProcessedByID,
			"processed_at":    resolution.ProcessedAt,
			"description":     resolution.Description,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrApprovalProcessed
	}
	return nil
}
