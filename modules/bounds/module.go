// Package bounds builds the lower and upper bound vectors of the design
// variables and clamps a design field into them.
package bounds

import (
	"context"
	"math"

	"github.com/specialistvlad/opgrid/internal/comm"
	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/model"
	"github.com/specialistvlad/opgrid/internal/op"
	"github.com/specialistvlad/opgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers SetLowerBounds, SetUpperBounds and EnforceBounds.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFactory("SetLowerBounds", newSetBounds("Lower Bound Value", "Lower Bound Vector"))
	r.RegisterFactory("SetUpperBounds", newSetBounds("Upper Bound Value", "Upper Bound Vector"))
	r.RegisterFactory("EnforceBounds", NewEnforceBounds)
}

// SetBounds spreads a scalar bound over every node, then pins the fixed
// nodes to their own value.
type SetBounds struct {
	host       op.Host
	value      string
	output     string
	fixedNodes []int
	fixedValue float64
}

func newSetBounds(defaultValue, defaultOutput string) op.Factory {
	return func(_ context.Context, host op.Host, node *model.Node) (op.LocalOp, error) {
		if err := node.Allow([]string{"value", "output", "fixed_nodes", "fixed_value"}, nil); err != nil {
			return nil, err
		}
		s := &SetBounds{host: host}
		var err error
		if s.value, err = node.StringOr("value", defaultValue); err != nil {
			return nil, err
		}
		if s.output, err = node.StringOr("output", defaultOutput); err != nil {
			return nil, err
		}
		if s.fixedNodes, err = node.IntList("fixed_nodes"); err != nil {
			return nil, err
		}
		if len(s.fixedNodes) > 0 {
			if s.fixedValue, err = node.RequiredFloat("fixed_value"); err != nil {
				return nil, err
			}
		}
		return s, nil
	}
}

// Arguments declares the scalar bound and the bound vector.
func (s *SetBounds) Arguments() []layout.Argument {
	return []layout.Argument{
		layout.NewArgument(layout.Scalar, s.value, 1),
		layout.NewArgument(layout.NodeField, s.output, 0),
	}
}

// Execute rewrites the whole bound vector.
func (s *SetBounds) Execute(ctx context.Context) error {
	r := s.host.Registry()
	value, err := r.Value(s.value)
	if err != nil {
		return err
	}
	if len(value) == 0 {
		return engineerr.Validationf("bound value %q is empty", s.value)
	}
	out, err := r.NodeField(s.output)
	if err != nil {
		return err
	}

	out.FillGlobal(value[0])
	pinned := 0
	for _, gid := range s.fixedNodes {
		if i, ok := s.host.Mesh().LocalIndex(gid); ok {
			out.SetGlobal(i, s.fixedValue)
			pinned++
		}
	}
	ctxlog.FromContext(ctx).Debug("Set bound vector.", "output", s.output, "value", value[0], "pinned", pinned)
	return nil
}

// EnforceBounds clamps a design field into [lower, upper] in place.
type EnforceBounds struct {
	host     op.Host
	lower    string
	upper    string
	topology string
}

// NewEnforceBounds builds an EnforceBounds operation.
func NewEnforceBounds(_ context.Context, host op.Host, node *model.Node) (op.LocalOp, error) {
	if err := node.Allow([]string{"lower", "upper", "topology"}, nil); err != nil {
		return nil, err
	}
	e := &EnforceBounds{host: host}
	var err error
	if e.lower, err = node.StringOr("lower", "Lower Bound Vector"); err != nil {
		return nil, err
	}
	if e.upper, err = node.StringOr("upper", "Upper Bound Vector"); err != nil {
		return nil, err
	}
	if e.topology, err = node.StringOr("topology", "Topology"); err != nil {
		return nil, err
	}
	return e, nil
}

// Arguments declares the two bound vectors and the clamped field.
func (e *EnforceBounds) Arguments() []layout.Argument {
	return []layout.Argument{
		layout.NewArgument(layout.NodeField, e.lower, 0),
		layout.NewArgument(layout.NodeField, e.upper, 0),
		layout.NewArgument(layout.NodeField, e.topology, 0),
	}
}

// Execute clamps every node. An inverted bound on any rank fails the call
// on every rank before anything is written.
func (e *EnforceBounds) Execute(ctx context.Context) error {
	r := e.host.Registry()
	lowerField, err := r.NodeField(e.lower)
	if err != nil {
		return err
	}
	upperField, err := r.NodeField(e.upper)
	if err != nil {
		return err
	}
	topology, err := r.NodeField(e.topology)
	if err != nil {
		return err
	}
	lower := lowerField.Consistent()
	upper := upperField.Consistent()
	x := topology.Consistent()

	bad := -1
	for i := range x {
		if lower[i] > upper[i] {
			bad = i
			break
		}
	}
	flag := 0.0
	if bad >= 0 {
		flag = 1
	}
	worst, err := e.host.Comm().AllReduce(comm.Max, []float64{flag})
	if err != nil {
		return err
	}
	if worst[0] > 0 {
		if bad >= 0 {
			gid := topology.Map().GlobalIDs()[bad]
			return engineerr.Validationf("node %d: lower bound %v exceeds upper bound %v", gid, lower[bad], upper[bad])
		}
		return engineerr.Validationf("lower bound exceeds upper bound on another rank")
	}

	clamped := 0
	for i, v := range x {
		c := math.Min(math.Max(v, lower[i]), upper[i])
		if c != v {
			clamped++
		}
		topology.SetGlobal(i, c)
	}
	ctxlog.FromContext(ctx).Debug("Enforced bounds.", "topology", e.topology, "clamped", clamped)
	return nil
}
