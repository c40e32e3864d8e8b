// Package statistics implements the stochastic reductions of an uncertain
// criterion: its mean, standard deviation and mean plus a multiple of the
// standard deviation, together with their gradients.
package statistics

import (
	"context"

	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/model"
	"github.com/specialistvlad/opgrid/internal/op"
	"github.com/specialistvlad/opgrid/internal/registry"
	"github.com/specialistvlad/opgrid/internal/statistics"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers MeanPlusStdDev and MeanPlusStdDevGradient.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFactory("MeanPlusStdDev", NewMeasure)
	r.RegisterFactory("MeanPlusStdDevGradient", NewGradient)
}

type sample struct {
	name        string
	probability float64
}

type output struct {
	name    string
	measure statistics.Measure
}

// Measure reduces a set of weighted samples to one or more statistics,
// entry by entry.
type Measure struct {
	host    op.Host
	layout  layout.Layout
	samples []sample
	outputs []output
}

// NewMeasure builds a MeanPlusStdDev operation from
//
//	operation "MeanPlusStdDev" "<name>" {
//	  layout = "scalar"
//	  input "<arg>" { probability = 0.5 }
//	  output "<arg>" { statistic = "mean_plus_2_std_dev" }
//	}
func NewMeasure(_ context.Context, host op.Host, node *model.Node) (op.LocalOp, error) {
	if err := node.Allow([]string{"layout"}, []string{"input", "output"}); err != nil {
		return nil, err
	}
	ls, err := node.StringOr("layout", "")
	if err != nil {
		return nil, err
	}
	m := &Measure{host: host}
	if m.layout, err = op.ParseLayout(ls, layout.Scalar, layout.Scalar, layout.NodeField, layout.ElementField); err != nil {
		return nil, err
	}
	if m.samples, err = parseSamples(node, "input"); err != nil {
		return nil, err
	}
	if m.outputs, err = parseOutputs(node); err != nil {
		return nil, err
	}
	return m, nil
}

func parseSamples(node *model.Node, blockType string) ([]sample, error) {
	blocks := node.Blocks(blockType)
	if len(blocks) == 0 {
		return nil, node.Errorf("at least one %s block is required", blockType)
	}
	samples := make([]sample, 0, len(blocks))
	for _, b := range blocks {
		if err := b.Allow([]string{"probability"}, nil); err != nil {
			return nil, err
		}
		s := sample{name: b.Label(0)}
		if s.name == "" {
			return nil, b.Errorf("%s block needs an argument label", blockType)
		}
		var err error
		if s.probability, err = b.RequiredFloat("probability"); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseOutputs(node *model.Node) ([]output, error) {
	blocks := node.Blocks("output")
	if len(blocks) == 0 {
		return nil, node.Errorf("at least one output block is required")
	}
	outputs := make([]output, 0, len(blocks))
	for _, b := range blocks {
		if err := b.Allow([]string{"statistic"}, nil); err != nil {
			return nil, err
		}
		o := output{name: b.Label(0)}
		if o.name == "" {
			return nil, b.Errorf("output block needs an argument label")
		}
		stat, err := b.RequiredString("statistic")
		if err != nil {
			return nil, err
		}
		if o.measure, err = statistics.ParseMeasure(stat); err != nil {
			return nil, b.Errorf("%v", err)
		}
		outputs = append(outputs, o)
	}
	return outputs, nil
}

// Arguments declares the samples and outputs, all in the operation's
// layout.
func (m *Measure) Arguments() []layout.Argument {
	args := make([]layout.Argument, 0, len(m.samples)+len(m.outputs))
	for _, s := range m.samples {
		args = append(args, layout.NewArgument(m.layout, s.name, 0))
	}
	for _, o := range m.outputs {
		args = append(args, layout.NewArgument(m.layout, o.name, 0))
	}
	return args
}

// Execute recomputes every output. Node fields are reduced in consistent
// form since the standard deviation is not additive.
func (m *Measure) Execute(ctx context.Context) error {
	pairs := make([]statistics.FieldPair, len(m.samples))
	for i, s := range m.samples {
		values, err := m.read(s.name)
		if err != nil {
			return err
		}
		pairs[i] = statistics.NewFieldPair(values, s.probability)
	}

	n := len(pairs[0].Sample)
	mean := make([]float64, n)
	stdDev := make([]float64, n)
	if err := statistics.MeanField(pairs, mean); err != nil {
		return err
	}
	if err := statistics.StdDevField(mean, pairs, stdDev); err != nil {
		return err
	}

	results := make([][]float64, len(m.outputs))
	for k, o := range m.outputs {
		res := make([]float64, n)
		for j := range res {
			res[j] = o.measure.Value(mean[j], stdDev[j])
		}
		results[k] = res
	}
	for k, o := range m.outputs {
		if err := m.write(o.name, results[k]); err != nil {
			return err
		}
	}
	ctxlog.FromContext(ctx).Debug("Computed sample statistics.", "samples", len(pairs), "outputs", len(m.outputs), "length", n)
	return nil
}

func (m *Measure) read(name string) ([]float64, error) {
	if m.layout != layout.NodeField {
		return op.Data(m.host.Registry(), m.layout, name)
	}
	v, err := m.host.Registry().NodeField(name)
	if err != nil {
		return nil, err
	}
	return v.Consistent(), nil
}

func (m *Measure) write(name string, values []float64) error {
	if m.layout != layout.NodeField {
		return op.Store(m.host.Registry(), m.layout, name, values)
	}
	v, err := m.host.Registry().NodeField(name)
	if err != nil {
		return err
	}
	if v.MyLength() != len(values) {
		return &engineerr.SizeMismatchError{Argument: name, Expected: v.MyLength(), Got: len(values)}
	}
	for i, x := range values {
		v.SetGlobal(i, x)
	}
	return nil
}
