package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/opgrid/internal/boundary"
	"github.com/specialistvlad/opgrid/internal/comm"
	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/engine"
	"github.com/specialistvlad/opgrid/internal/hostbridge"
)

// Run builds one engine per rank and drives them: with a host URL the
// single rank serves the host controller, otherwise every stage of the
// interface runs in order.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
		defer a.closeHealthcheckServer()
	}

	a.logger.Info("🚀 Starting ranks...", "ranks", a.config.Ranks)
	err := comm.Run(a.config.Ranks, func(c comm.Communicator) error {
		return a.runRank(ctx, c)
	})
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.")
	return nil
}

func (a *App) runRank(ctx context.Context, c comm.Communicator) error {
	e, err := engine.New(ctx, engine.Options{
		Comm:       c,
		Mesh:       a.meshes[c.Rank()],
		Interface:  a.iface,
		Operations: a.operations,
		Registry:   a.registry,
	})
	if err != nil {
		return fmt.Errorf("rank %d: %w", c.Rank(), err)
	}
	ctx = ctxlog.With(ctx, "engine_id", e.ID().String(), "rank", e.Rank())
	defer e.Finalize(ctx)

	if a.config.HostURL != "" {
		ctxlog.FromContext(ctx).Info("Serving host controller.", "url", a.config.HostURL)
		return hostbridge.Run(ctx, hostbridge.Options{URL: a.config.HostURL}, boundary.New(ctx, e))
	}

	if err := e.Initialize(ctx); err != nil {
		return fmt.Errorf("rank %d: %w", c.Rank(), err)
	}
	if err := e.RunStages(ctx); err != nil {
		return fmt.Errorf("rank %d: %w", c.Rank(), err)
	}
	return nil
}
