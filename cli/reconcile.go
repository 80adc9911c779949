package cli

import (
	"fmt"

	"toolbank/app"
	"toolbank/db"
	"toolbank/reconcile"
	"toolbank/services"

	"github.com/spf13/cobra"
)

// NewReconcileCmd creates the "reconcile" subcommand: one repair pass over
// the availability flags, then exit.
func NewReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Repair tools flagged available while on loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log := loadConfig(cmd)
			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			tools := services.NewToolService(db.NewRepo(a.DB), services.WithLocker(a.Locker))
			res, err := reconcile.NewScheduler(tools, cfg.Reconcile.Schedule, log).RunOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fixed %d tool(s) %v, %d out of service without a loan\n",
				len(res.Fixed), res.Fixed, res.Idle)
			return nil
		},
	}
}
