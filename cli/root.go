// Package cli holds the toolbank command tree: serve, migrate and reconcile.
package cli

import (
	"context"
	"log/slog"

	"toolbank/app"
	"toolbank/config"

	"github.com/spf13/cobra"
)

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "toolbank",
		Short: "Community tool lending registry",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
	}
	root.PersistentFlags().String("db-driver", "", "Database driver (postgres|sqlite), overrides DB_DRIVER")
	root.PersistentFlags().String("sqlite-path", "", "SQLite database file, overrides SQLITE_PATH")
	root.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error), overrides LOG_LEVEL")

	root.AddCommand(NewServeCmd())
	root.AddCommand(NewMigrateCmd())
	root.AddCommand(NewReconcileCmd())
	return root
}

func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

// loadConfig reads the environment and applies the persistent flag
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger) {
	cfg := config.New()
	if v, _ := cmd.Flags().GetString("db-driver"); v != "" {
		cfg.Database.Driver = v
	}
	if v, _ := cmd.Flags().GetString("sqlite-path"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, app.NewLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
}
