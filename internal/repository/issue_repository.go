package repository

import (
	"github.com/wegovern/governance-api/internal/models"
	"gorm.io/gorm"
)

// GormIssueRepository is a GORM implementation of IssueRepository
type GormIssueRepository struct {
	db *gorm.DB
}

// NewIssueRepository creates a new IssueRepository
func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &GormIssueRepository{db: db}
}

// Create creates an issue
func (r *GormIssueRepository) Create(issue *models.Issue) error {
	return r.db.Omit("Creator", "Assignee", "Organization").Create(issue).Error
}

// FindByID finds an issue by ID with optional preloading
func (r *GormIssueRepository) FindByID(id uint64, preload ...string) (*models.Issue, error) {
	var issue models.Issue
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&issue, id).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

// List lists the issues of an organization, newest first
func (r *GormIssueRepository) List(filter IssueFilter) ([]models.Issue, error) {
	query := r.db.Model(&models.Issue{}).Where("organization_id = ?", filter.OrganizationID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}

	var issues []models.Issue
	if err := query.Preload("Creator").Preload("Assignee").
		Order("created_at DESC").Order("id DESC").
		Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

// Update saves the editable fields of an issue
func (r *GormIssueRepository) Update(issue *models.Issue) error {
	return r.db.Model(issue).
		Select("title", "description", "status", "priority", "assignee_id").
		Updates(issue).Error
}

// Delete soft deletes an issue. Motions and tasks that pointed at it keep
// existing with their link cleared.
func (r *GormIssueRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Motion{}).Where("issue_id = ?", id).Update("issue_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("issue_id = ?", id).Update("issue_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("issue_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Issue{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Stats counts issues grouped by status and priority
func (r *GormIssueRepository) Stats(organizationID uint64) ([]IssueStat, error) {
	var stats []IssueStat
	if err := r.db.Model(&models.Issue{}).
		Select("status, priority, COUNT(*) AS count").
		Where("organization_id = ?", organizationID).
		Group("status, priority").
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

type linkCount struct {
	IssueID uint64
	Count   int64
}

// LinkCounts counts motions, tasks and live comments per issue
func (r *GormIssueRepository) LinkCounts(issueIDs []uint64) (map[uint64]IssueLinkCounts, error) {
	counts := make(map[uint64]IssueLinkCounts, len(issueIDs))
	if len(issueIDs) == 0 {
		return counts, nil
	}

	count := func(query *gorm.DB, apply func(*IssueLinkCounts, int64)) error {
		var rows []linkCount
		if err := query.Select("issue_id, COUNT(*) AS count").
			Where("issue_id IN ?", issueIDs).
			Group("issue_id").
			Scan(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			c := counts[row.IssueID]
			apply(&c, row.Count)
			counts[row.IssueID] = c
		}
		return nil
	}

	if err := count(r.db.Model(&models.Motion{}), func(c *IssueLinkCounts, n int64) { c.Motions = n }); err != nil {
		return nil, err
	}
	if err := count(r.db.Model(&models.Task{}), func(c *IssueLinkCounts, n int64) { c.Tasks = n }); err != nil {
		return nil, err
	}
	if err := count(r.db.Model(&models.Comment{}).Where("is_deleted = ?", false), func(c *IssueLinkCounts, n int64) { c.Comments = n }); err != nil {
		return nil, err
	}

	return counts, nil
}
