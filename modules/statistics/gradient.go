package statistics

import (
	"context"

	"github.com/specialistvlad/opgrid/internal/ctxlog"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/model"
	"github.com/specialistvlad/opgrid/internal/op"
	"github.com/specialistvlad/opgrid/internal/statistics"
)

// Gradient differentiates a statistic of a scalar criterion with respect
// to the design field, given one gradient sample per value sample.
//
// Every statistic gradient is linear in the gradient samples, so node
// fields are combined in additive form.
type Gradient struct {
	host      op.Host
	layout    layout.Layout
	values    []sample
	gradients []sample
	outputs   []output
}

// NewGradient builds a MeanPlusStdDevGradient operation from
//
//	operation "MeanPlusStdDevGradient" "<name>" {
//	  criterion_value { sample "<scalar>" { probability = 0.5 } }
//	  criterion_gradient { sample "<field>" { probability = 0.5 } }
//	  output "<field>" { statistic = "mean_plus_2_std_dev" }
//	}
//
// The two sample sets must list the same probabilities in the same order.
func NewGradient(_ context.Context, host op.Host, node *model.Node) (op.LocalOp, error) {
	if err := node.Allow([]string{"layout"}, []string{"criterion_value", "criterion_gradient", "output"}); err != nil {
		return nil, err
	}
	ls, err := node.StringOr("layout", "")
	if err != nil {
		return nil, err
	}
	g := &Gradient{host: host}
	if g.layout, err = op.ParseLayout(ls, layout.NodeField, layout.NodeField, layout.ElementField); err != nil {
		return nil, err
	}
	if g.values, err = criterionSamples(node, "criterion_value"); err != nil {
		return nil, err
	}
	if g.gradients, err = criterionSamples(node, "criterion_gradient"); err != nil {
		return nil, err
	}
	if err := statistics.MatchProbabilities(probabilities(g.values), probabilities(g.gradients)); err != nil {
		return nil, node.Invalidf("%v", err)
	}
	if g.outputs, err = parseOutputs(node); err != nil {
		return nil, err
	}
	return g, nil
}

func criterionSamples(node *model.Node, blockType string) ([]sample, error) {
	b, err := node.Block(blockType)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, node.Errorf("a %s block is required", blockType)
	}
	if err := b.Allow(nil, []string{"sample"}); err != nil {
		return nil, err
	}
	return parseSamples(b, "sample")
}

func probabilities(samples []sample) []float64 {
	p := make([]float64, len(samples))
	for i, s := range samples {
		p[i] = s.probability
	}
	return p
}

// Arguments declares the scalar criterion values, the gradient samples and
// the outputs.
func (g *Gradient) Arguments() []layout.Argument {
	args := make([]layout.Argument, 0, len(g.values)+len(g.gradients)+len(g.outputs))
	for _, s := range g.values {
		args = append(args, layout.NewArgument(layout.Scalar, s.name, 1))
	}
	for _, s := range g.gradients {
		args = append(args, layout.NewArgument(g.layout, s.name, 0))
	}
	for _, o := range g.outputs {
		args = append(args, layout.NewArgument(g.layout, o.name, 0))
	}
	return args
}

// Execute recomputes every output gradient.
func (g *Gradient) Execute(ctx context.Context) error {
	r := g.host.Registry()

	values := make([]statistics.ScalarPair, len(g.values))
	for i, s := range g.values {
		v, err := r.Value(s.name)
		if err != nil {
			return err
		}
		if len(v) == 0 {
			return engineerr.Validationf("criterion value %q is empty", s.name)
		}
		values[i] = statistics.NewScalarPair(v[0], s.probability)
	}
	gradients := make([]statistics.FieldPair, len(g.gradients))
	for i, s := range g.gradients {
		v, err := op.Data(r, g.layout, s.name)
		if err != nil {
			return err
		}
		gradients[i] = statistics.NewFieldPair(v, s.probability)
	}

	mean, err := statistics.Mean(values)
	if err != nil {
		return err
	}
	stdDev, err := statistics.StdDev(mean, values)
	if err != nil {
		return err
	}

	n := len(gradients[0].Sample)
	results := make([][]float64, len(g.outputs))
	for k, o := range g.outputs {
		res := make([]float64, n)
		switch o.measure.Kind {
		case statistics.KindMean:
			err = statistics.MeanField(gradients, res)
		case statistics.KindStdDev:
			err = statistics.StdDevGradient(mean, stdDev, values, gradients, res)
		default:
			err = statistics.MeanPlusStdDevGradient(mean, stdDev, o.measure.Multiplier, values, gradients, res)
		}
		if err != nil {
			return err
		}
		results[k] = res
	}
	for k, o := range g.outputs {
		if err := op.Store(r, g.layout, o.name, results[k]); err != nil {
			return err
		}
	}
	ctxlog.FromContext(ctx).Debug("Computed statistic gradients.", "mean", mean, "std_dev", stdDev, "outputs", len(g.outputs))
	return nil
}
