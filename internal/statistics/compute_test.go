package statistics

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valuePairs() []ScalarPair {
	return []ScalarPair{
		NewScalarPair(5, 0.2),
		NewScalarPair(2, 0.1),
		NewScalarPair(3, 0.3),
		NewScalarPair(4, 0.15),
		NewScalarPair(1, 0.25),
	}
}

func gradientPairs() []FieldPair {
	return []FieldPair{
		NewFieldPair([]float64{1, 3}, 0.2),
		NewFieldPair([]float64{2, 3}, 0.1),
		NewFieldPair([]float64{4, 5}, 0.3),
		NewFieldPair([]float64{3, 8}, 0.15),
		NewFieldPair([]float64{8, 11}, 0.25),
	}
}

func TestMean(t *testing.T) {
	t.Parallel()

	mean, err := Mean(valuePairs())

	require.NoError(t, err)
	assert.InDelta(t, 2.95, mean, 1e-6)
}

func TestStdDev(t *testing.T) {
	t.Parallel()

	sd, err := StdDev(2.95, valuePairs())

	require.NoError(t, err)
	assert.InDelta(t, 1.430908802125419, sd, 1e-6)
}

func TestMeanPlusStdDevGradient(t *testing.T) {
	t.Parallel()

	// Arrange
	mean, err := Mean(valuePairs())
	require.NoError(t, err)
	sd, err := StdDev(mean, valuePairs())
	require.NoError(t, err)
	out := make([]float64, 2)

	// Act
	err = MeanPlusStdDevGradient(mean, sd, 2, valuePairs(), gradientPairs(), out)

	// Assert
	require.NoError(t, err)
	want := []float64{-0.3493, 2.0415}
	if diff := cmp.Diff(want, out, cmpopts.EquateApprox(0, 1e-4)); diff != "" {
		t.Errorf("gradient mismatch (-want +got):\n%s", diff)
	}
}

func TestMeanPlusStdDevGradient_Accumulates(t *testing.T) {
	t.Parallel()

	out := []float64{1, 1}

	err := MeanPlusStdDevGradient(2.95, 1.430908802125419, 2, valuePairs(), gradientPairs(), out)

	require.NoError(t, err)
	assert.InDelta(t, 0.6507, out[0], 1e-4)
	assert.InDelta(t, 3.0415, out[1], 1e-4)
}

func TestStdDevGradient(t *testing.T) {
	t.Parallel()

	out := make([]float64, 2)

	err := StdDevGradient(2.95, 1.430908802125419, valuePairs(), gradientPairs(), out)

	require.NoError(t, err)
	assert.InDelta(t, -2.19965, out[0], 1e-4)
	assert.InDelta(t, -2.15423, out[1], 1e-4)
}

func TestMeanField_AndStdDevField(t *testing.T) {
	t.Parallel()

	pairs := []FieldPair{
		NewFieldPair([]float64{1, 10}, 0.5),
		NewFieldPair([]float64{3, 10}, 0.5),
	}
	mean := make([]float64, 2)
	sd := make([]float64, 2)

	require.NoError(t, MeanField(pairs, mean))
	require.NoError(t, StdDevField(mean, pairs, sd))

	assert.Equal(t, []float64{2, 10}, mean)
	assert.Equal(t, []float64{1, 0}, sd)
}

func TestMeanField_IsNotAccumulating(t *testing.T) {
	t.Parallel()

	pairs := []FieldPair{NewFieldPair([]float64{4}, 0.5)}
	out := []float64{100}

	require.NoError(t, MeanField(pairs, out))
	first := out[0]
	require.NoError(t, MeanField(pairs, out))

	assert.Equal(t, 2.0, first)
	assert.Equal(t, first, out[0])
}

func TestEmptyInputsFail(t *testing.T) {
	t.Parallel()

	_, err := Mean(nil)
	assert.ErrorIs(t, err, engineerr.ErrValidation)

	_, err = StdDev(1, nil)
	assert.ErrorIs(t, err, engineerr.ErrValidation)

	err = MeanField(nil, make([]float64, 2))
	assert.ErrorIs(t, err, engineerr.ErrValidation)

	err = MeanPlusStdDevGradient(1, 1, 1, nil, nil, make([]float64, 2))
	assert.ErrorIs(t, err, engineerr.ErrValidation)
}

func TestInvalidInputs(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		call func() error
	}{
		{"zero probability", func() error {
			_, err := Mean([]ScalarPair{NewScalarPair(1, 0)})
			return err
		}},
		{"negative probability", func() error {
			_, err := Mean([]ScalarPair{NewScalarPair(1, -0.5)})
			return err
		}},
		{"non-finite mean", func() error {
			_, err := StdDev(math.NaN(), valuePairs())
			return err
		}},
		{"non-finite multiplier", func() error {
			return MeanPlusStdDevGradient(2.95, 1.4, math.Inf(1), valuePairs(), gradientPairs(), make([]float64, 2))
		}},
		{"count mismatch", func() error {
			return MeanPlusStdDevGradient(2.95, 1.4, 2, valuePairs()[:4], gradientPairs(), make([]float64, 2))
		}},
		{"field length mismatch", func() error {
			return MeanPlusStdDevGradient(2.95, 1.4, 2, valuePairs(), gradientPairs(), make([]float64, 3))
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.call(), engineerr.ErrValidation)
		})
	}
}

func TestMeanPlusStdDevGradient_ZeroStdDev(t *testing.T) {
	t.Parallel()

	out := make([]float64, 2)

	err := MeanPlusStdDevGradient(2.95, 0, 2, valuePairs(), gradientPairs(), out)

	var dbz *engineerr.DivisionByZeroError
	require.ErrorAs(t, err, &dbz)
	assert.Equal(t, []float64{0, 0}, out, "output must not be touched on failure")
	for _, v := range out {
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v))
	}
}
