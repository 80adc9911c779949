package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"toolbank/app"
	"toolbank/db"
	"toolbank/reconcile"
	"toolbank/routes"
	"toolbank/services"
	"toolbank/telemetry"

	"github.com/spf13/cobra"
)

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().IntP("port", "p", 0, "Listen port, overrides PORT")
	cmd.Flags().String("host", "", "Listen host, overrides HOST")
	cmd.Flags().Bool("no-reconcile", false, "Disable the periodic availability reconciler")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log := loadConfig(cmd)
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.HTTP.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.HTTP.Host = host
	}
	if off, _ := cmd.Flags().GetBool("no-reconcile"); off {
		cfg.Reconcile.Enabled = false
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown", "err", err)
		}
	}()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	routes.RegisterRoutes(a.Router, a)

	if cfg.Reconcile.Enabled {
		tools := services.NewToolService(db.NewRepo(a.DB), services.WithLocker(a.Locker))
		sched := reconcile.NewScheduler(tools, cfg.Reconcile.Schedule, log)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("starting reconciler: %w", err)
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.Global.ShutdownTimeout)
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Global.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
