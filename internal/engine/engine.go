package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/specialistvlad/opgrid/internal/comm"
	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/field"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/mesh"
	"github.com/specialistvlad/opgrid/internal/model"
	"github.com/specialistvlad/opgrid/internal/op"
	"github.com/specialistvlad/opgrid/internal/registry"
	"github.com/specialistvlad/opgrid/internal/shared"
)

// Options configures a new Engine.
type Options struct {
	// Comm is duplicated and owned by the engine. Nil means a single rank.
	Comm comm.Communicator
	// Mesh is this rank's part of the decomposition.
	Mesh *mesh.Decomposition
	// Interface supplies shared data and stages. It may be nil.
	Interface  *model.Interface
	Operations []*model.Node
	Registry   *registry.Registry
}

// Engine owns one rank's registry and operations.
type Engine struct {
	id     uuid.UUID
	comm   comm.Communicator
	mesh   *mesh.Decomposition
	iface  *model.Interface
	data   *shared.Registry
	logger *slog.Logger

	ops     map[string]op.LocalOp
	aliases map[string]string

	finalized bool
}

// New builds an engine and every operation it is configured with. It is
// collective over opts.Comm.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Registry == nil {
		return nil, engineerr.Configf("engine needs an operation registry")
	}
	if opts.Mesh == nil {
		return nil, engineerr.Configf("engine needs a mesh decomposition")
	}
	c := opts.Comm
	if c == nil {
		c = comm.Self()
	}

	e := &Engine{
		id:      uuid.New(),
		comm:    c.Dup(),
		mesh:    opts.Mesh,
		iface:   opts.Interface,
		ops:     make(map[string]op.LocalOp, len(opts.Operations)),
		aliases: make(map[string]string),
	}
	ctx = ctxlog.With(ctx, "engine_id", e.id.String(), "rank", e.comm.Rank())
	e.logger = ctxlog.FromContext(ctx)

	nodeMap, err := field.NewMap(e.comm, e.mesh)
	if err != nil {
		return nil, err
	}
	e.data = shared.New(nodeMap, e.mesh.ElementCount())

	// Operations may reject the local part of the mesh, so the ranks agree
	// before any of them returns.
	if err := op.Agree(e.comm, "engine construction", e.build(ctx, opts)); err != nil {
		return nil, err
	}

	e.logger.Debug("Engine created.",
		"operations", len(e.ops),
		"arguments", e.data.Len(),
		"ranks", e.comm.Size(),
	)
	return e, nil
}

func (e *Engine) build(ctx context.Context, opts Options) error {
	for _, node := range opts.Operations {
		if err := e.addOperation(ctx, opts.Registry, node); err != nil {
			return err
		}
	}
	return e.registerSharedData()
}

func (e *Engine) addOperation(ctx context.Context, reg *registry.Registry, node *model.Node) error {
	name := node.Name()
	if _, dup := e.ops[name]; dup {
		return engineerr.Configf("operation %q defined twice", name)
	}
	factory, ok := reg.Factory(node.Function())
	if !ok {
		return node.Errorf("unknown function %q; registered functions: %v", node.Function(), reg.Functions())
	}

	operation, err := factory(ctx, e, node)
	if err != nil {
		return err
	}

	args := operation.Arguments()
	for _, arg := range args {
		if err := e.data.Register(arg); err != nil {
			return fmt.Errorf("operation %q: declaring argument %s: %w", name, arg, err)
		}
	}
	e.ops[name] = operation
	e.logger.Debug("Operation constructed.", "operation", name, "function", node.Function(), "arguments", len(args))
	return nil
}

func (e *Engine) registerSharedData() error {
	if e.iface == nil {
		return nil
	}
	for _, sd := range e.iface.SharedData {
		if err := e.data.Register(layout.NewArgument(sd.Layout, sd.Argument, sd.Size)); err != nil {
			return err
		}
		e.aliases[sd.Name] = sd.Argument
	}
	return nil
}

// ID identifies the engine in logs.
func (e *Engine) ID() uuid.UUID { return e.id }

// Rank is the engine's rank in its communicator.
func (e *Engine) Rank() int { return e.comm.Rank() }

// Registry implements op.Host.
func (e *Engine) Registry() *shared.Registry { return e.data }

// Comm implements op.Host.
func (e *Engine) Comm() comm.Communicator { return e.comm }

// Mesh implements op.Host.
func (e *Engine) Mesh() *mesh.Decomposition { return e.mesh }

// Interface returns the interface the engine was built with, or nil.
func (e *Engine) Interface() *model.Interface { return e.iface }

// OperationNames returns the sorted names Compute accepts.
func (e *Engine) OperationNames() []string {
	names := make([]string, 0, len(e.ops))
	for name := range e.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compute runs the named operation. Errors from the operation are returned
// unchanged.
func (e *Engine) Compute(ctx context.Context, name string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	operation, ok := e.ops[name]
	if !ok {
		return &engineerr.UnknownOperationError{Name: name, Available: e.OperationNames()}
	}
	e.logger.Debug("Computing operation.", "operation", name)
	return operation.Execute(ctxlog.WithLogger(ctx, e.logger.With("operation", name)))
}

// Initialize imports the initial value of every shared data entry that
// declares one.
func (e *Engine) Initialize(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if e.iface == nil {
		return nil
	}
	for _, sd := range e.iface.SharedData {
		if sd.InitialValue == nil {
			continue
		}
		n, err := e.localLength(sd.Layout, sd.Argument, sd.Size)
		if err != nil {
			return err
		}
		values := make([]float64, n)
		for i := range values {
			values[i] = *sd.InitialValue
		}
		if err := e.ImportData(ctx, sd.Name, &shared.Buffer{Layout: sd.Layout, Values: values}); err != nil {
			return err
		}
	}
	e.logger.Info("Engine initialized.")
	return nil
}

// Finalize releases every operation and registry entry. The engine cannot
// be used afterwards.
func (e *Engine) Finalize(context.Context) error {
	if e.finalized {
		return nil
	}
	e.data.Clear()
	clear(e.ops)
	e.finalized = true
	e.logger.Info("Engine finalized.")
	return nil
}

func (e *Engine) checkOpen() error {
	if e.finalized {
		return engineerr.Configf("engine %s is finalized", e.id)
	}
	return nil
}

func (e *Engine) localLength(l layout.Layout, name string, size int) (int, error) {
	switch l {
	case layout.Scalar:
		if size > 0 {
			return size, nil
		}
		v, err := e.data.Value(name)
		return len(v), err
	case layout.NodeField:
		return e.data.NodeFieldLength(name)
	case layout.ElementField:
		return e.data.ElementCount(), nil
	default:
		return 0, engineerr.Configf("argument %q has undefined layout", name)
	}
}
