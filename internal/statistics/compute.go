package statistics

import (
	"math"

	"github.com/specialistvlad/opgrid/internal/engineerr"
)

// Mean returns Σ pᵢ·sᵢ.
func Mean(pairs []ScalarPair) (float64, error) {
	if err := checkProbability(pairs, "sample set mean"); err != nil {
		return 0, err
	}
	var mean float64
	for _, p := range pairs {
		mean += p.Probability * p.Sample
	}
	return mean, nil
}

// MeanField writes the elementwise mean of pairs into out.
func MeanField(pairs []FieldPair, out []float64) error {
	if err := checkProbability(pairs, "sample set mean"); err != nil {
		return err
	}
	if err := checkFieldLengths(pairs, len(out), "sample set mean"); err != nil {
		return err
	}
	clear(out)
	for _, p := range pairs {
		for j, s := range p.Sample {
			out[j] += p.Probability * s
		}
	}
	return nil
}

// StdDev returns sqrt(Σ pᵢ·(sᵢ-mean)²).
func StdDev(mean float64, pairs []ScalarPair) (float64, error) {
	if err := checkProbability(pairs, "sample set standard deviation"); err != nil {
		return 0, err
	}
	if err := checkFinite("sample set standard deviation: mean", mean); err != nil {
		return 0, err
	}
	var variance float64
	for _, p := range pairs {
		d := p.Sample - mean
		variance += p.Probability * d * d
	}
	return math.Sqrt(variance), nil
}

// StdDevField writes the elementwise standard deviation of pairs about mean
// into out.
func StdDevField(mean []float64, pairs []FieldPair, out []float64) error {
	const what = "sample set standard deviation"
	if err := checkProbability(pairs, what); err != nil {
		return err
	}
	if len(mean) != len(out) {
		return &engineerr.SizeMismatchError{Argument: what, Expected: len(out), Got: len(mean)}
	}
	if err := checkFieldLengths(pairs, len(out), what); err != nil {
		return err
	}
	if err := checkFinite(what+": mean", mean...); err != nil {
		return err
	}
	for j := range out {
		var variance float64
		for _, p := range pairs {
			d := p.Sample[j] - mean[j]
			variance += p.Probability * d * d
		}
		out[j] = math.Sqrt(variance)
	}
	return nil
}

// MeanPlusStdDevGradient adds the gradient of mean + k·stdDev into out:
//
//	out[j] += Σ pᵢ·gᵢ[j] + (k/σ)·pᵢ·(fᵢ-μ)·(gᵢ[j]-ḡ[j])
//
// where ḡ is the probability-weighted mean of the gradient samples, not of
// the value samples. The value and gradient sets must pair up one to one.
func MeanPlusStdDevGradient(mean, stdDev, k float64, values []ScalarPair, gradients []FieldPair, out []float64) error {
	if err := checkGradientInputs(mean, stdDev, k, values, gradients, out); err != nil {
		return err
	}
	gradMean := make([]float64, len(out))
	for _, g := range gradients {
		for j, s := range g.Sample {
			gradMean[j] += g.Probability * s
		}
	}
	scale := k / stdDev
	for i, g := range gradients {
		dev := values[i].Sample - mean
		for j, s := range g.Sample {
			out[j] += g.Probability*s + scale*g.Probability*dev*(s-gradMean[j])
		}
	}
	return nil
}

// StdDevGradient adds the gradient of the standard deviation alone into
// out: (1/σ)·Σ pᵢ·(fᵢ-μ)·(gᵢ[j]-ḡ[j]).
func StdDevGradient(mean, stdDev float64, values []ScalarPair, gradients []FieldPair, out []float64) error {
	if err := checkGradientInputs(mean, stdDev, 1, values, gradients, out); err != nil {
		return err
	}
	gradMean := make([]float64, len(out))
	for _, g := range gradients {
		for j, s := range g.Sample {
			gradMean[j] += g.Probability * s
		}
	}
	for i, g := range gradients {
		dev := values[i].Sample - mean
		for j, s := range g.Sample {
			out[j] += g.Probability * dev * (s - gradMean[j]) / stdDev
		}
	}
	return nil
}

func checkGradientInputs(mean, stdDev, k float64, values []ScalarPair, gradients []FieldPair, out []float64) error {
	const what = "mean plus standard deviation gradient"
	if err := checkProbability(values, what+": values"); err != nil {
		return err
	}
	if err := checkProbability(gradients, what+": gradients"); err != nil {
		return err
	}
	if len(values) != len(gradients) {
		return engineerr.Validationf("%s: %d value samples but %d gradient samples", what, len(values), len(gradients))
	}
	if err := checkFieldLengths(gradients, len(out), what); err != nil {
		return err
	}
	if err := checkFinite(what, mean, stdDev, k); err != nil {
		return err
	}
	if stdDev == 0 {
		return &engineerr.DivisionByZeroError{Context: what + ": standard deviation is zero"}
	}
	return nil
}
