// Package boundary exposes an engine to hosts that cannot handle Go errors.
// Every call returns an integer status and logs the underlying error.
package boundary

import (
	"context"
	"errors"
	"log/slog"

	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/shared"
)

// Status codes returned to the host.
const (
	StatusOK            = 0
	StatusConfiguration = 1
	StatusValidation    = 2
	StatusIO            = 3
	StatusFailure       = -1
)

// Engine is the part of engine.Engine the boundary drives.
type Engine interface {
	Initialize(ctx context.Context) error
	Finalize(ctx context.Context) error
	Compute(ctx context.Context, name string) error
	ImportData(ctx context.Context, name string, buf *shared.Buffer) error
	ExportData(ctx context.Context, name string, buf *shared.Buffer) error
	ExportDataMap(l layout.Layout) ([]int, error)
}

// Boundary wraps an Engine with status-returning calls.
type Boundary struct {
	ctx    context.Context
	engine Engine
	logger *slog.Logger
}

// New returns a boundary that runs every call under ctx.
func New(ctx context.Context, e Engine) *Boundary {
	return &Boundary{ctx: ctx, engine: e, logger: ctxlog.FromContext(ctx)}
}

// StatusOf classifies an error.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, engineerr.ErrConfiguration):
		return StatusConfiguration
	case errors.Is(err, engineerr.ErrValidation):
		return StatusValidation
	case errors.Is(err, engineerr.ErrIO):
		return StatusIO
	default:
		return StatusFailure
	}
}

func (b *Boundary) status(call string, err error, args ...any) int {
	st := StatusOf(err)
	if err != nil {
		b.logger.Error("Boundary call failed.", append([]any{"call", call, "status", st, "error", err}, args...)...)
	}
	return st
}

// Initialize imports initial shared values.
func (b *Boundary) Initialize() int {
	return b.status("initialize", b.engine.Initialize(b.ctx))
}

// Finalize releases the engine.
func (b *Boundary) Finalize() int {
	return b.status("finalize", b.engine.Finalize(b.ctx))
}

// Compute runs the named operation.
func (b *Boundary) Compute(name string) int {
	return b.status("compute", b.engine.Compute(b.ctx, name), "operation", name)
}

// ImportData pushes data into the engine.
func (b *Boundary) ImportData(name string, l layout.Layout, data []float64) int {
	return b.status("import_data", b.engine.ImportData(b.ctx, name, shared.NewBuffer(l, data)), "name", name)
}

// ExportData pulls data out of the engine, sized to what the engine holds.
func (b *Boundary) ExportData(name string, l layout.Layout) ([]float64, int) {
	buf := &shared.Buffer{Layout: l, Dynamic: true}
	if st := b.status("export_data", b.engine.ExportData(b.ctx, name, buf), "name", name); st != StatusOK {
		return nil, st
	}
	return buf.Values, StatusOK
}

// ExportDataMap returns the global IDs this rank owns for l.
func (b *Boundary) ExportDataMap(l layout.Layout) ([]int, int) {
	ids, err := b.engine.ExportDataMap(l)
	if st := b.status("export_data_map", err, "layout", l.String()); st != StatusOK {
		return nil, st
	}
	return ids, StatusOK
}
