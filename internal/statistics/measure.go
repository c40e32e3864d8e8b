package statistics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/specialistvlad/opgrid/internal/engineerr"
)

// ProbabilityTolerance bounds the difference between the probability of a
// value sample and its paired gradient sample.
const ProbabilityTolerance = 1e-16

// Kind selects which statistic a measure computes.
type Kind int

const (
	KindMean Kind = iota
	KindStdDev
	KindMeanPlusStdDev
)

// Measure is a parsed statistic name.
type Measure struct {
	Kind       Kind
	Multiplier float64
}

// ParseMeasure accepts "mean", "std_dev" and "mean_plus_<k>_std_dev" where
// k is any finite float, negative included. Matching is case-insensitive.
func ParseMeasure(name string) (Measure, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	switch s {
	case "mean":
		return Measure{Kind: KindMean}, nil
	case "std_dev":
		return Measure{Kind: KindStdDev, Multiplier: 1}, nil
	}
	rest, ok := strings.CutPrefix(s, "mean_plus_")
	if ok {
		rest, ok = strings.CutSuffix(rest, "_std_dev")
	}
	if !ok || rest == "" {
		return Measure{}, engineerr.Configf("statistic %q must be one of mean, std_dev, mean_plus_<k>_std_dev", name)
	}
	k, err := strconv.ParseFloat(rest, 64)
	if err != nil || math.IsNaN(k) || math.IsInf(k, 0) {
		return Measure{}, engineerr.Configf("statistic %q: multiplier %q is not a finite number", name, rest)
	}
	return Measure{Kind: KindMeanPlusStdDev, Multiplier: k}, nil
}

// String renders the canonical statistic name.
func (m Measure) String() string {
	switch m.Kind {
	case KindMean:
		return "mean"
	case KindStdDev:
		return "std_dev"
	default:
		return fmt.Sprintf("mean_plus_%s_std_dev", strconv.FormatFloat(m.Multiplier, 'g', -1, 64))
	}
}

// Value combines a mean and standard deviation into the measure.
func (m Measure) Value(mean, stdDev float64) float64 {
	switch m.Kind {
	case KindMean:
		return mean
	case KindStdDev:
		return stdDev
	default:
		return mean + m.Multiplier*stdDev
	}
}

// MatchProbabilities checks that two sample sets describe the same
// scenario: equal counts and equal per-sample probabilities.
func MatchProbabilities(values, gradients []float64) error {
	if len(values) != len(gradients) {
		return engineerr.Validationf("criterion value has %d samples but criterion gradient has %d", len(values), len(gradients))
	}
	for i := range values {
		if math.Abs(values[i]-gradients[i]) > ProbabilityTolerance {
			return engineerr.Validationf("sample %d: value probability %v does not match gradient probability %v", i, values[i], gradients[i])
		}
	}
	return nil
}
