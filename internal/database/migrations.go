package database

import (
	"fmt"
	"log/slog"

	"github.com/wegovern/governance-api/internal/models"
	"gorm.io/gorm"
)

// compositeIndex is an index not expressible through a single struct tag.
type compositeIndex struct {
	model   any
	name    string
	columns string
}

var compositeIndexes = []compositeIndex{
	// Reconciliation scans pending motions per organization.
	{&models.Motion{}, "idx_motions_org_status", "organization_id, status"},
	// Tally reads votes in cast order.
	{&models.Vote{}, "idx_votes_motion_id_id", "motion_id, id"},
	// The passed cascade filters tasks on (motion_id, status).
	{&models.Task{}, "idx_tasks_motion_status", "motion_id, status"},
	{&models.Approval{}, "idx_approvals_org_status", "organization_id, status"},
	{&models.OrganizationMember{}, "idx_org_members_user_id", "user_id"},
	// Issue stats group on (status, priority) within one organization.
	{&models.Issue{}, "idx_issues_org_status_priority", "organization_id, status, priority"},
}

// AddIndexes adds composite indexes that the hot paths rely on. Existing
// indexes are skipped so the call is safe to repeat.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.model, idx.name) {
			slog.Debug("index already exists, skipping", "index", idx.name)
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to resolve table for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Info("created index", "index", idx.name, "table", stmt.Schema.Table, "columns", idx.columns)
	}

	return nil
}
