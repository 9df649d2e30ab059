// Package api runs the read-only inventory server behind "rhsmctl serve".
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/robfig/cron/v3"

	"github.com/treydock/puppet-subscription-manager/pkg/runner"
	"github.com/treydock/puppet-subscription-manager/pkg/server"
)

const (
	name = "rhsmctl-api"

	// DefaultRefreshSchedule re-collects facts hourly.
	DefaultRefreshSchedule = "@every 1h"
)

// Options configures Serve.
type Options struct {
	Version string
	Runner  runner.Runner
	Factory FactoryFunc
	Config  *server.Config

	// RefreshSchedule is a cron expression; empty disables background refresh.
	RefreshSchedule string
}

// Routes returns the API handlers keyed by path.
func Routes(h *Handlers) map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"/v1/facts": h.HandleFacts,
		"/v1/pools": h.HandlePools,
	}
}

// Serve starts the API server and blocks until shutdown. Facts are
// collected once at startup and then on the refresh schedule.
func Serve(ctx context.Context, opts Options) error {
	if opts.Runner == nil {
		return fmt.Errorf("api server requires a runner")
	}

	slog.Info("starting",
		slog.String("name", name),
		slog.String("version", opts.Version),
	)

	h := NewHandlers(opts.Version, opts.Runner, opts.Factory)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.RefreshSchedule != "" {
		c, err := scheduleRefresh(ctx, h, opts.RefreshSchedule)
		if err != nil {
			return err
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	go func() {
		_ = h.Refresh(ctx)
	}()

	s := server.New(
		server.WithName(name),
		server.WithVersion(opts.Version),
		server.WithConfig(opts.Config),
		server.WithHandler(Routes(h)),
	)

	if err := s.Run(ctx); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func scheduleRefresh(ctx context.Context, h *Handlers, spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		_ = h.Refresh(ctx)
	}); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	slog.Debug("scheduled fact refresh", slog.String("schedule", spec))
	return c, nil
}
