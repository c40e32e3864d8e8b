// Package aggregator combines several arguments of one layout into a
// weighted sum.
package aggregator

import (
	"context"

	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/model"
	"github.com/specialistvlad/opgrid/internal/op"
	"github.com/specialistvlad/opgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the Aggregator factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFactory("Aggregator", New)
}

type term struct {
	name   string
	weight float64
	normal string
}

// Aggregator writes Σ weightᵢ/normalᵢ · inputᵢ into its output. Node fields
// are combined in additive form, which a weighted sum preserves.
type Aggregator struct {
	host   op.Host
	layout layout.Layout
	terms  []term
	output string
}

// New builds an Aggregator from
//
//	operation "Aggregator" "<name>" {
//	  layout = "scalar"
//	  input "<arg>" { weight = 0.5  normal = "<scalar arg>" }
//	  output "<arg>" {}
//	}
func New(_ context.Context, host op.Host, node *model.Node) (op.LocalOp, error) {
	if err := node.Allow([]string{"layout"}, []string{"input", "output"}); err != nil {
		return nil, err
	}
	ls, err := node.StringOr("layout", "")
	if err != nil {
		return nil, err
	}
	a := &Aggregator{host: host}
	if a.layout, err = op.ParseLayout(ls, layout.Scalar, layout.Scalar, layout.NodeField, layout.ElementField); err != nil {
		return nil, err
	}

	inputs := node.Blocks("input")
	if len(inputs) == 0 {
		return nil, node.Errorf("at least one input block is required")
	}
	for _, in := range inputs {
		t := term{name: in.Label(0)}
		if t.name == "" {
			return nil, in.Errorf("input block needs an argument label")
		}
		if t.weight, err = in.FloatOr("weight", 1); err != nil {
			return nil, err
		}
		if t.normal, err = in.StringOr("normal", ""); err != nil {
			return nil, err
		}
		a.terms = append(a.terms, t)
	}

	out, err := node.Block("output")
	if err != nil {
		return nil, err
	}
	if out == nil || out.Label(0) == "" {
		return nil, node.Errorf("an output block with an argument label is required")
	}
	a.output = out.Label(0)
	return a, nil
}

// Arguments declares every input and normal plus the output.
func (a *Aggregator) Arguments() []layout.Argument {
	args := make([]layout.Argument, 0, 2*len(a.terms)+1)
	for _, t := range a.terms {
		args = append(args, layout.NewArgument(a.layout, t.name, 0))
		if t.normal != "" {
			args = append(args, layout.NewArgument(layout.Scalar, t.normal, 1))
		}
	}
	return append(args, layout.NewArgument(a.layout, a.output, 0))
}

// Execute recomputes the output from the current inputs.
func (a *Aggregator) Execute(ctx context.Context) error {
	r := a.host.Registry()

	var sum []float64
	for _, t := range a.terms {
		scale := t.weight
		if t.normal != "" {
			normal, err := r.Value(t.normal)
			if err != nil {
				return err
			}
			if len(normal) == 0 || normal[0] == 0 {
				return &engineerr.DivisionByZeroError{Context: "aggregator input " + t.name + ": normal " + t.normal + " is zero"}
			}
			scale /= normal[0]
		}

		in, err := op.Data(r, a.layout, t.name)
		if err != nil {
			return err
		}
		if sum == nil {
			sum = make([]float64, len(in))
		} else if len(in) != len(sum) {
			return &engineerr.SizeMismatchError{Argument: t.name, Expected: len(sum), Got: len(in)}
		}
		for i, v := range in {
			sum[i] += scale * v
		}
	}

	if err := op.Store(r, a.layout, a.output, sum); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Aggregated inputs.", "inputs", len(a.terms), "output", a.output, "length", len(sum))
	return nil
}
