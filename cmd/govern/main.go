package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wegovern/governance-api/internal/config"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "govern",
	Short: "Governance API: motions, votes, approvals and tasks for organizations",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load(v)
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
	SilenceUsage: true,
}

func main() {
	addPersistentFlags()
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// Flags are bound to the same keys as the environment variables, so a
// flag given on the command line wins over the environment.
func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("db-driver", "mysql", "database driver (mysql, postgres)")
	flags.String("db-host", "localhost", "database host")
	flags.String("db-name", "governance", "database name")
	for _, name := range []string{"log-level", "db-driver", "db-host", "db-name"} {
		_ = v.BindPFlag(envKey(name), flags.Lookup(name))
	}
}

func envKey(flag string) string {
	return strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}
