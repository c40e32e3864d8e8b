// Package chainrule applies the chain rule to field gradients: the
// gradient of a criterion with respect to several intermediate fields is
// folded with the criterion's partial derivatives.
package chainrule

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

// Register registers the ChainRule factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFactory("ChainRule", New)
}

// ChainRule writes Σ partials[i] · inputs[i] into its output.
type ChainRule struct {
	host     op.Host
	layout   layout.Layout
	partials string
	inputs   []string
	output   string
}

// New builds a ChainRule operation from
//
//	operation "ChainRule" "<name>" {
//	  layout   = "nodal_field"
//	  partials = "<scalar of length N>"
//	  input "<field 1>" {}
//	  ...
//	  output "<field>" {}
//	}
func New(_ context.Context, host op.Host, node *model.Node) (op.LocalOp, error) {
	if err := node.Allow([]string{"layout", "partials"}, []string{"input", "output"}); err != nil {
		return nil, err
	}
	ls, err := node.StringOr("layout", "")
	if err != nil {
		return nil, err
	}
	c := &ChainRule{host: host}
	if c.layout, err = op.ParseLayout(ls, layout.NodeField, layout.NodeField, layout.ElementField); err != nil {
		return nil, err
	}
	if c.partials, err = node.RequiredString("partials"); err != nil {
		return nil, err
	}
	for _, in := range node.Blocks("input") {
		if in.Label(0) == "" {
			return nil, in.Errorf("input block needs an argument label")
		}
		c.inputs = append(c.inputs, in.Label(0))
	}
	if len(c.inputs) == 0 {
		return nil, node.Errorf("at least one input block is required")
	}
	out, err := node.Block("output")
	if err != nil {
		return nil, err
	}
	if out == nil || out.Label(0) == "" {
		return nil, node.Errorf("an output block with an argument label is required")
	}
	c.output = out.Label(0)
	return c, nil
}

// Arguments declares one partial per input, the inputs and the output.
func (c *ChainRule) Arguments() []layout.Argument {
	args := []layout.Argument{layout.NewArgument(layout.Scalar, c.partials, len(c.inputs))}
	for _, in := range c.inputs {
		args = append(args, layout.NewArgument(c.layout, in, 0))
	}
	return append(args, layout.NewArgument(c.layout, c.output, 0))
}

// Execute recomputes the output.
func (c *ChainRule) Execute(ctx context.Context) error {
	r := c.host.Registry()
	partials, err := r.Value(c.partials)
	if err != nil {
		return err
	}
	if len(partials) != len(c.inputs) {
		return &engineerr.SizeMismatchError{Argument: c.partials, Expected: len(c.inputs), Got: len(partials)}
	}

	var sum []float64
	for i, name := range c.inputs {
		in, err := op.Data(r, c.layout, name)
		if err != nil {
			return err
		}
		if sum == nil {
			sum = make([]float64, len(in))
		}
		for j, v := range in {
			sum[j] += partials[i] * v
		}
	}
	if err := op.Store(r, c.layout, c.output, sum); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Applied chain rule.", "inputs", len(c.inputs), "output", c.output)
	return nil
}
