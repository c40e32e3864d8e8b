package statistics

import (
	"testing"

	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMeasure(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want Measure
	}{
		{"mean", Measure{Kind: KindMean}},
		{"STD_DEV", Measure{Kind: KindStdDev, Multiplier: 1}},
		{"mean_plus_2_std_dev", Measure{Kind: KindMeanPlusStdDev, Multiplier: 2}},
		{"mean_plus_-1.5_std_dev", Measure{Kind: KindMeanPlusStdDev, Multiplier: -1.5}},
		{" mean_plus_0.25_std_dev ", Measure{Kind: KindMeanPlusStdDev, Multiplier: 0.25}},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMeasure(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseMeasure_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "median", "mean_plus__std_dev", "mean_plus_two_std_dev", "mean_plus_2", "mean_plus_inf_std_dev"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseMeasure(in)
			assert.ErrorIs(t, err, engineerr.ErrConfiguration)
		})
	}
}

func TestMeasure_StringAndValue(t *testing.T) {
	t.Parallel()

	m, err := ParseMeasure("mean_plus_3_std_dev")
	require.NoError(t, err)

	assert.Equal(t, "mean_plus_3_std_dev", m.String())
	assert.Equal(t, 7.0, m.Value(1, 2))
	assert.Equal(t, "mean", Measure{Kind: KindMean}.String())
	assert.Equal(t, 2.0, Measure{Kind: KindStdDev}.Value(1, 2))
}

func TestMatchProbabilities(t *testing.T) {
	t.Parallel()

	assert.NoError(t, MatchProbabilities([]float64{0.5, 0.5}, []float64{0.5, 0.5}))

	err := MatchProbabilities([]float64{0.5}, []float64{0.5, 0.5})
	assert.ErrorIs(t, err, engineerr.ErrValidation)

	err = MatchProbabilities([]float64{0.5, 0.5}, []float64{0.5, 0.4})
	assert.ErrorIs(t, err, engineerr.ErrValidation)
}
