package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/duostore/api"
	"github.com/xraph/duostore/bootstrap"
	"github.com/xraph/duostore/cron"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Bring up the data layer and serve the health API",
	Long: `Initialises the selector, migrates the active catalog store, probes it on
the health schedule and serves GET /health, GET /status and the GET /events
stream until SIGINT or SIGTERM. Exits with status 1 when no store can be
brought up.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	sel := a.selector
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = sel.Shutdown(sctx)
	}()

	if _, err := bootstrap.Run(ctx, sel, bootstrap.WithLogger(a.logger)); err != nil {
		a.logger.Error("refusing to serve traffic", slog.String("error", err.Error()))
		return err
	}

	// The document catalog is migrated by the selector if it takes over
	// later.
	store, err := sel.Catalog()
	if err != nil {
		return err
	}
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}

	if a.cfg.HealthSchedule != "" {
		sched := cron.NewScheduler(a.logger, cron.WithTaskTimeout(a.cfg.Selector.HealthTimeout*2))
		if err := sched.Register("health", a.cfg.HealthSchedule, func(ctx context.Context) error {
			if r := sel.HealthCheck(ctx); !r.Healthy {
				return errors.New(r.Error)
			}
			return nil
		}); err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = sched.Stop(context.Background()) }()
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           api.New(sel, a.logger, api.WithBroker(a.broker)).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", slog.String("addr", srv.Addr))
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
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	}

	// Open event streams would hold Shutdown until the timeout.
	a.broker.Close()

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		a.logger.Warn("http server shutdown", slog.String("error", err.Error()))
	}
	return nil
}
