package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/wegovern/governance-api/internal/config"
	"github.com/wegovern/governance-api/internal/database"
	"github.com/wegovern/governance-api/internal/services"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			db, err := database.Open(cfg)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			return database.Migrate(db)
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Decide every pending motion whose votes already reached the threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			a, err := newApp(cfg, slog.Default(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			return runReconcile(cmd.Context(), a.lifecycle, cmd.OutOrStdout())
		},
	}
}

type reconciler interface {
	ReconcileAll(ctx context.Context) (services.ReconcileReport, error)
}

// runReconcile prints the sweep report even when some motions failed, then
// returns the joined failures.
func runReconcile(ctx context.Context, r reconciler, w io.Writer) error {
	report, sweepErr := r.ReconcileAll(ctx)

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(out))

	if sweepErr != nil {
		return fmt.Errorf("%d motions could not be reconciled: %w", report.Failed, sweepErr)
	}
	return nil
}
