package repository

import (
	"github.com/wegovern/governance-api/internal/database"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task and its optional approval request. An
// UNAPPROVED task under a motion that has already passed is stored as
// NOT_STARTED; the motion row is locked so a concurrent Decide cannot slip
// between the check and the insert.
func (r *GormTaskRepository) Create(task *models.Task, approval *models.Approval) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if task.MotionID != nil && task.Status == models.TaskStatusUnapproved {
			var motion models.Motion
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id", "status").
				First(&motion, *task.MotionID).Error; err != nil {
				return err
			}
			if motion.Status == models.MotionStatusPassed {
				task.Status = models.TaskStatusNotStarted
			}
		}

		if err := tx.Omit("Creator", "Assignee", "Organization").Create(task).Error; err != nil {
			return err
		}

		if approval == nil {
			return nil
		}

		approval.RelatedID = task.ID
		approval.OrganizationID = task.OrganizationID
		return tx.Create(approval).Error
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	if len(filter.OrganizationIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	query := r.db.Model(&models.Task{}).Where("tasks.organization_id IN ?", filter.OrganizationIDs)

	// Apply filters
	if filter.MotionID != nil {
		query = query.Where("tasks.motion_id = ?", *filter.MotionID)
	}
	if filter.IssueID != nil {
		query = query.Where("tasks.issue_id = ?", *filter.IssueID)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.CreatorID != nil {
		query = query.Where("tasks.creator_id = ?", *filter.CreatorID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date < ?", *filter.DueDateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.SortByDueDate {
		listQuery = listQuery.Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date ASC")
	} else {
		listQuery = listQuery.Order("tasks.created_at DESC").Order("tasks.id DESC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	if err := listQuery.Preload("Creator").Preload("Assignee").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Omit("Creator", "Assignee", "Organization").Save(task).Error
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Task{}, id).Error
}

// IsMember reports whether the user belongs to the organization
func (r *GormTaskRepository) IsMember(organizationID, userID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&models.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Count(&count).Error
	return count > 0, err
}
