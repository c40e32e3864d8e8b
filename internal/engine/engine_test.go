package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/specialistvlad/opgrid/internal/comm"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/mesh"
	"github.com/specialistvlad/opgrid/internal/model"
	"github.com/specialistvlad/opgrid/internal/op"
	"github.com/specialistvlad/opgrid/internal/registry"
	"github.com/specialistvlad/opgrid/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// declareOp declares one argument per "arg" block and counts executions.
type declareOp struct {
	args  []layout.Argument
	calls *int
	fail  bool
	host  op.Host
	scale float64
}

func (d *declareOp) Arguments() []layout.Argument { return d.args }

func (d *declareOp) Execute(context.Context) error {
	*d.calls++
	if d.fail {
		return errBoom
	}
	if d.scale == 0 {
		return nil
	}
	in, err := d.host.Registry().Value(d.args[0].Name)
	if err != nil {
		return err
	}
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = d.scale * v
	}
	return d.host.Registry().SetValue(d.args[1].Name, out)
}

type testModule struct {
	calls *int
}

func (m testModule) Register(r *registry.Registry) {
	r.RegisterFactory("Declare", func(_ context.Context, host op.Host, node *model.Node) (op.LocalOp, error) {
		d := &declareOp{calls: m.calls, host: host}
		for _, b := range node.Blocks("arg") {
			ls, err := b.RequiredString("layout")
			if err != nil {
				return nil, err
			}
			l, err := layout.Parse(ls)
			if err != nil {
				return nil, err
			}
			n, err := b.IntOr("length", 0)
			if err != nil {
				return nil, err
			}
			d.args = append(d.args, layout.NewArgument(l, b.Label(0), n))
		}
		var err error
		if d.fail, err = node.BoolOr("fail", false); err != nil {
			return nil, err
		}
		if d.scale, err = node.FloatOr("scale", 0); err != nil {
			return nil, err
		}
		return d, nil
	})
}

const opsSrc = `
operation "Declare" "Setup" {
  arg "Design" {
    layout = "nodal_field"
  }
  arg "Volume" {
    layout = "element_field"
  }
  arg "Objective" {
    layout = "scalar"
  }
  arg "Moments" {
    layout = "scalar"
    length = 2
  }
}

operation "Declare" "Double" {
  scale = 2
  arg "Objective" {
    layout = "scalar"
  }
  arg "Doubled" {
    layout = "scalar"
  }
}

operation "Declare" "Explode" {
  fail = true
}
`

const ifaceSrc = `
shared_data "Topology" {
  argument      = "Design"
  layout        = "nodal_field"
  initial_value = 0.5
}

shared_data "Objective Value" {
  argument = "Objective"
  layout   = "scalar"
}

shared_data "Seed" {
  layout        = "scalar"
  size          = 3
  initial_value = 7
}

stage "Loop" {
  operations = ["Setup", "Double"]
  repeat     = 3
}
`

type fixture struct {
	engine *Engine
	calls  *int
}

func newFixture(t *testing.T, c comm.Communicator, d *mesh.Decomposition, ops, iface string) fixture {
	t.Helper()
	calls := new(int)
	reg := registry.New()
	testModule{calls: calls}.Register(reg)

	nodes, err := model.ParseOperations("ops.hcl", []byte(ops))
	require.NoError(t, err)
	var in *model.Interface
	if iface != "" {
		in, err = model.ParseInterface("interface.hcl", []byte(iface))
		require.NoError(t, err)
	}

	e, err := New(context.Background(), Options{Comm: c, Mesh: d, Interface: in, Operations: nodes, Registry: reg})
	require.NoError(t, err)
	return fixture{engine: e, calls: calls}
}

func TestNew_RegistersDeclaredArguments(t *testing.T) {
	t.Parallel()

	// Arrange & Act
	f := newFixture(t, nil, mesh.Serial(4, 3), opsSrc, "")
	reg := f.engine.Registry()

	// Assert
	n, err := reg.NodeFieldLength("Design")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	e, err := reg.ElementField("Volume")
	require.NoError(t, err)
	assert.Len(t, e, 3)

	v, err := reg.Value("Objective")
	require.NoError(t, err)
	assert.Len(t, v, 1)

	v, err = reg.Value("Moments")
	require.NoError(t, err)
	assert.Len(t, v, 2)

	assert.Equal(t, []string{"Double", "Explode", "Setup"}, f.engine.OperationNames())
	assert.Equal(t, 0, f.engine.Rank())
	assert.NotEmpty(t, f.engine.ID().String())
	assert.Zero(t, *f.calls, "construction must not execute")
}

func TestNew_ConflictingDeclarations(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	testModule{calls: new(int)}.Register(reg)
	nodes, err := model.ParseOperations("ops.hcl", []byte(`
operation "Declare" "A" {
  arg "X" {
    layout = "scalar"
  }
}
operation "Declare" "B" {
  arg "X" {
    layout = "element_field"
  }
}
`))
	require.NoError(t, err)

	_, err = New(context.Background(), Options{Mesh: mesh.Serial(1, 1), Operations: nodes, Registry: reg})

	var dup *engineerr.DuplicateArgumentError
	assert.ErrorAs(t, err, &dup)
}

func TestNew_UnknownFunction(t *testing.T) {
	t.Parallel()

	nodes, err := model.ParseOperations("ops.hcl", []byte(`operation "Nope" "A" {}`))
	require.NoError(t, err)

	_, err = New(context.Background(), Options{Mesh: mesh.Serial(1, 0), Operations: nodes, Registry: registry.New()})

	assert.ErrorIs(t, err, engineerr.ErrConfiguration)
}

func TestNew_RequiresRegistryAndMesh(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Options{Mesh: mesh.Serial(1, 0)})
	assert.ErrorIs(t, err, engineerr.ErrConfiguration)

	_, err = New(context.Background(), Options{Registry: registry.New()})
	assert.ErrorIs(t, err, engineerr.ErrConfiguration)
}

func TestNew_OneRankFailsEveryRankReturns(t *testing.T) {
	t.Parallel()

	// Arrange: the factory rejects a rank without elements, which only
	// rank 1 is.
	reg := registry.New()
	reg.RegisterFactory("NeedsElements", func(_ context.Context, host op.Host, node *model.Node) (op.LocalOp, error) {
		if host.Mesh().ElementCount() == 0 {
			return nil, node.Errorf("rank %d has no elements", host.Comm().Rank())
		}
		return &declareOp{calls: new(int), host: host}, nil
	})
	nodes, err := model.ParseOperations("ops.hcl", []byte(`operation "NeedsElements" "Check" {}`))
	require.NoError(t, err)
	m0, err := mesh.New(0, []int{0, 1}, nil, []mesh.Element{{ID: 0, Nodes: []int{0, 1}, Measure: 1}})
	require.NoError(t, err)
	m1, err := mesh.New(1, []int{2}, nil, nil)
	require.NoError(t, err)
	meshes := []*mesh.Decomposition{m0, m1}
	errs := make([]error, 2)

	// Act
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = comm.Run(2, func(c comm.Communicator) error {
			_, errs[c.Rank()] = New(context.Background(), Options{Comm: c, Mesh: meshes[c.Rank()], Operations: nodes, Registry: reg})
			return nil
		})
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("a rank is still waiting in a collective")
	}

	// Assert
	for rank, err := range errs {
		assert.ErrorIs(t, err, engineerr.ErrConfiguration, "rank %d", rank)
	}
	assert.Contains(t, errs[0].Error(), "another rank")
	assert.Contains(t, errs[1].Error(), "no elements")
}

func TestCompute(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, mesh.Serial(2, 1), opsSrc, "")
	ctx := context.Background()

	t.Run("unknown operation lists available names", func(t *testing.T) {
		err := f.engine.Compute(ctx, "nonexistent")

		var unknown *engineerr.UnknownOperationError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "nonexistent", unknown.Name)
		assert.Contains(t, err.Error(), "Setup")
	})

	t.Run("operation error is returned unchanged", func(t *testing.T) {
		err := f.engine.Compute(ctx, "Explode")
		assert.Same(t, errBoom, err)
	})
}

func TestCompute_IsIdempotent(t *testing.T) {
	t.Parallel()

	// Arrange
	f := newFixture(t, nil, mesh.Serial(1, 0), opsSrc, "")
	ctx := context.Background()
	require.NoError(t, f.engine.ImportData(ctx, "Objective", shared.NewBuffer(layout.Scalar, []float64{1.5, 2})))

	// Act
	require.NoError(t, f.engine.Compute(ctx, "Double"))
	first, err := f.engine.Registry().Value("Doubled")
	require.NoError(t, err)
	first = append([]float64(nil), first...)
	require.NoError(t, f.engine.Compute(ctx, "Double"))
	second, err := f.engine.Registry().Value("Doubled")
	require.NoError(t, err)

	// Assert
	assert.Equal(t, []float64{3, 4}, first)
	assert.Equal(t, first, second)
}

func TestRunStage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, mesh.Serial(2, 1), opsSrc, ifaceSrc)
	stage, err := f.engine.Interface().Stage("Loop")
	require.NoError(t, err)

	require.NoError(t, f.engine.RunStage(context.Background(), stage))

	assert.Equal(t, 6, *f.calls)
}

func TestRunStage_StopsOnCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, mesh.Serial(2, 1), opsSrc, ifaceSrc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.engine.RunStages(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, *f.calls)
}

func TestRunStages_RequiresInterface(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, mesh.Serial(1, 0), opsSrc, "")
	assert.ErrorIs(t, f.engine.RunStages(context.Background()), engineerr.ErrConfiguration)
}

func TestFinalize(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, mesh.Serial(1, 0), opsSrc, "")
	ctx := context.Background()

	require.NoError(t, f.engine.Finalize(ctx))
	require.NoError(t, f.engine.Finalize(ctx), "finalize twice is harmless")

	assert.Zero(t, f.engine.Registry().Len())
	assert.ErrorIs(t, f.engine.Compute(ctx, "Setup"), engineerr.ErrConfiguration)
	assert.ErrorIs(t, f.engine.ImportData(ctx, "Objective", shared.NewBuffer(layout.Scalar, []float64{1})), engineerr.ErrConfiguration)
}

// runRanks builds one engine per rank over meshes and runs fn on each. fn
// runs on the rank's goroutine, so it reports failures by returning them.
func runRanks(t *testing.T, meshes []*mesh.Decomposition, fn func(e *Engine) error) {
	t.Helper()
	reg := registry.New()
	testModule{calls: new(int)}.Register(reg)
	nodes, err := model.ParseOperations("ops.hcl", []byte(opsSrc))
	require.NoError(t, err)

	err = comm.Run(len(meshes), func(c comm.Communicator) error {
		e, err := New(context.Background(), Options{Comm: c, Mesh: meshes[c.Rank()], Operations: nodes, Registry: reg})
		if err != nil {
			return err
		}
		return fn(e)
	})
	require.NoError(t, err)
}
