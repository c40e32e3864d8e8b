package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/mesh"
	"github.com/specialistvlad/opgrid/internal/model"
	"github.com/specialistvlad/opgrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	ctx        context.Context
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	iface      *model.Interface
	operations []*model.Node
	meshes     []*mesh.Decomposition
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads and
// cross-checks every configuration file, so a returned App is ready to run.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	app := &App{
		outW:   outW,
		ctx:    ctx,
		logger: logger,
		config: cfg,
	}
	if err := app.load(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create and populate the registry with operation factories.
	app.registry = registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(app.registry)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "functions", app.registry.Functions())

	if err := app.registry.Validate(ctx, app.operations, app.iface); err != nil {
		return nil, err
	}
	logger.Debug("Registry validation passed.")
	return app, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
