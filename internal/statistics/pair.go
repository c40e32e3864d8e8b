package statistics

import (
	"math"

	"github.com/specialistvlad/opgrid/internal/engineerr"
)

// SampleProbPair is one realization of a stochastic sample. S is float64
// for scalar samples and []float64 for field samples. Pairs are rebuilt
// from the registry on every use and never stored.
type SampleProbPair[S any] struct {
	Length      int
	Sample      S
	Probability float64
}

// ScalarPair is a scalar sample with its probability.
type ScalarPair = SampleProbPair[float64]

// FieldPair is a field sample with its probability.
type FieldPair = SampleProbPair[[]float64]

// NewScalarPair returns a pair of length one.
func NewScalarPair(sample, probability float64) ScalarPair {
	return ScalarPair{Length: 1, Sample: sample, Probability: probability}
}

// NewFieldPair returns a pair whose length is the sample's length. The
// sample is not copied.
func NewFieldPair(sample []float64, probability float64) FieldPair {
	return FieldPair{Length: len(sample), Sample: sample, Probability: probability}
}

func checkProbability[S any](pairs []SampleProbPair[S], what string) error {
	if len(pairs) == 0 {
		return engineerr.Validationf("%s: sample set is empty", what)
	}
	for i, p := range pairs {
		if math.IsNaN(p.Probability) || math.IsInf(p.Probability, 0) || p.Probability <= 0 {
			return engineerr.Validationf("%s: sample %d has probability %v, must be positive", what, i, p.Probability)
		}
	}
	return nil
}

func checkFieldLengths(pairs []FieldPair, n int, what string) error {
	for _, p := range pairs {
		if p.Length != n || len(p.Sample) != n {
			return &engineerr.SizeMismatchError{Argument: what, Expected: n, Got: len(p.Sample)}
		}
	}
	return nil
}

func checkFinite(what string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return engineerr.Validationf("%s: value %v is not finite", what, v)
		}
	}
	return nil
}
