// Package testutil provides fixtures shared by the engine, module and app
// tests: temporary configuration files, single- and multi-rank engines,
// and a goroutine-safe log buffer.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/opgrid/internal/comm"
	"github.com/specialistvlad/opgrid/internal/engine"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/mesh"
	"github.com/specialistvlad/opgrid/internal/model"
	"github.com/specialistvlad/opgrid/internal/registry"
	"github.com/specialistvlad/opgrid/internal/shared"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles writes files (relative path to content) under a fresh
// temporary directory and returns it.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// Operations parses operation blocks. filename anchors relative paths.
func Operations(t *testing.T, filename, src string) []*model.Node {
	t.Helper()
	nodes, err := model.ParseOperations(filename, []byte(src))
	require.NoError(t, err)
	return nodes
}

// NewRegistry registers modules into a fresh factory registry.
func NewRegistry(modules ...registry.Module) *registry.Registry {
	reg := registry.New()
	for _, m := range modules {
		m.Register(reg)
	}
	return reg
}

// NewEngine builds a single-rank engine over d from operations source.
func NewEngine(t *testing.T, d *mesh.Decomposition, ops string, modules ...registry.Module) *engine.Engine {
	t.Helper()
	e, err := BuildEngine(d, Operations(t, "ops.hcl", ops), modules...)
	require.NoError(t, err)
	return e
}

// BuildEngine is NewEngine without assertions, for tests expecting a
// construction failure.
func BuildEngine(d *mesh.Decomposition, nodes []*model.Node, modules ...registry.Module) (*engine.Engine, error) {
	return engine.New(context.Background(), engine.Options{
		Comm:       comm.Self(),
		Mesh:       d,
		Operations: nodes,
		Registry:   NewRegistry(modules...),
	})
}

// RunRanks builds one engine per mesh, each on its own rank, and calls fn
// on every rank. fn runs off the test goroutine and must report failures
// by returning them.
func RunRanks(t *testing.T, meshes []*mesh.Decomposition, ops string, fn func(e *engine.Engine) error, modules ...registry.Module) {
	t.Helper()
	nodes := Operations(t, "ops.hcl", ops)
	reg := NewRegistry(modules...)

	err := comm.Run(len(meshes), func(c comm.Communicator) error {
		e, err := engine.New(context.Background(), engine.Options{
			Comm:       c,
			Mesh:       meshes[c.Rank()],
			Operations: nodes,
			Registry:   reg,
		})
		if err != nil {
			return err
		}
		return fn(e)
	})
	require.NoError(t, err)
}

// Import pushes values into a single-rank engine.
func Import(t *testing.T, e *engine.Engine, name string, l layout.Layout, values ...float64) {
	t.Helper()
	require.NoError(t, e.ImportData(context.Background(), name, shared.NewBuffer(l, values)))
}

// Export pulls the full value of an argument out of a single-rank engine.
func Export(t *testing.T, e *engine.Engine, name string, l layout.Layout) []float64 {
	t.Helper()
	buf := &shared.Buffer{Layout: l, Dynamic: true}
	require.NoError(t, e.ExportData(context.Background(), name, buf))
	return buf.Values
}

// Compute runs an operation on a single-rank engine.
func Compute(t *testing.T, e *engine.Engine, name string) {
	t.Helper()
	require.NoError(t, e.Compute(context.Background(), name))
}

// ImportGlobal imports a node field given the global value of every node.
// It is collective and returns errors so it can run on any rank.
func ImportGlobal(ctx context.Context, e *engine.Engine, name string, values map[int]float64) error {
	nodes := e.Mesh().AllNodes()
	local := make([]float64, len(nodes))
	for i, gid := range nodes {
		local[i] = values[gid]
	}
	return e.ImportData(ctx, name, shared.NewBuffer(layout.NodeField, local))
}

// ExportOwned exports a node field and returns the global values of the
// nodes this rank owns. It is collective.
func ExportOwned(ctx context.Context, e *engine.Engine, name string) ([]float64, error) {
	buf := &shared.Buffer{Layout: layout.NodeField, Dynamic: true}
	if err := e.ExportData(ctx, name, buf); err != nil {
		return nil, err
	}
	return buf.Values[:e.Mesh().OwnedNodeCount()], nil
}
