package op

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/specialistvlad/opgrid/internal/comm"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/field"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/mesh"
	"github.com/specialistvlad/opgrid/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestData(t *testing.T) {
	t.Parallel()

	m, err := field.NewMap(comm.Self(), mesh.Serial(3, 2))
	require.NoError(t, err)
	r := shared.New(m, 2)
	require.NoError(t, r.RegisterScalar("s", 1))
	require.NoError(t, r.RegisterNodeField("n"))
	require.NoError(t, r.RegisterElementField("e"))

	s, err := Data(r, layout.Scalar, "s")
	require.NoError(t, err)
	assert.Len(t, s, 1)

	n, err := Data(r, layout.NodeField, "n")
	require.NoError(t, err)
	assert.Len(t, n, 3)

	e, err := Data(r, layout.ElementField, "e")
	require.NoError(t, err)
	assert.Len(t, e, 2)

	_, err = Data(r, layout.Scalar, "n")
	var mismatch *engineerr.LayoutMismatchError
	assert.ErrorAs(t, err, &mismatch)

	_, err = Data(r, layout.Scalar, "missing")
	var unknown *engineerr.UnknownArgumentError
	assert.ErrorAs(t, err, &unknown)
}

func TestStore(t *testing.T) {
	t.Parallel()

	m, err := field.NewMap(comm.Self(), mesh.Serial(3, 2))
	require.NoError(t, err)
	r := shared.New(m, 2)
	require.NoError(t, r.RegisterScalar("s", 1))
	require.NoError(t, r.RegisterNodeField("n"))

	require.NoError(t, Store(r, layout.Scalar, "s", []float64{1, 2, 3}))
	s, err := r.Value("s")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, s, "scalars take the stored length")

	require.NoError(t, Store(r, layout.NodeField, "n", []float64{4, 5, 6}))
	n, err := r.NodeFieldData("n")
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6}, n)

	var sizeErr *engineerr.SizeMismatchError
	assert.ErrorAs(t, Store(r, layout.NodeField, "n", []float64{1}), &sizeErr)
	var mismatch *engineerr.LayoutMismatchError
	assert.ErrorAs(t, Store(r, layout.Scalar, "n", []float64{1}), &mismatch)
}

func TestParseLayout(t *testing.T) {
	t.Parallel()

	l, err := ParseLayout("", layout.Scalar, layout.Scalar, layout.NodeField)
	require.NoError(t, err)
	assert.Equal(t, layout.Scalar, l)

	l, err = ParseLayout("nodal_field", layout.Scalar, layout.Scalar, layout.NodeField)
	require.NoError(t, err)
	assert.Equal(t, layout.NodeField, l)

	_, err = ParseLayout("element_field", layout.Scalar, layout.Scalar)
	assert.ErrorIs(t, err, engineerr.ErrConfiguration)
}

func TestOnRoot_Broadcasts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	got := make([][]float64, 2)
	err := comm.Run(2, func(c comm.Communicator) error {
		v, err := OnRoot(c, "harvest", func() ([]float64, error) {
			calls.Add(1)
			return []float64{4, 2}, nil
		})
		got[c.Rank()] = v
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []float64{4, 2}, got[0])
	assert.Equal(t, []float64{4, 2}, got[1])
}

func TestOnRoot_ErrorReachesEveryRank(t *testing.T) {
	t.Parallel()

	errs := make([]error, 2)
	_ = comm.Run(2, func(c comm.Communicator) error {
		_, errs[c.Rank()] = OnRoot(c, "harvest", func() ([]float64, error) {
			return nil, engineerr.IO(errors.New("missing"), "open file")
		})
		return nil
	})

	for rank, err := range errs {
		assert.ErrorIs(t, err, engineerr.ErrIO, "rank %d", rank)
	}
	assert.Contains(t, errs[0].Error(), "open file")
	assert.Contains(t, errs[1].Error(), "rank 0")
}

func TestAgree(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		local map[int]error
		kind  error
	}{
		{"all succeed", nil, nil},
		{"one rank config", map[int]error{2: engineerr.Configf("bad mesh")}, engineerr.ErrConfiguration},
		{"worst kind wins", map[int]error{0: engineerr.Configf("a"), 1: engineerr.IO(errors.New("b"), "c")}, engineerr.ErrIO},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			errs := make([]error, 3)

			// Act
			_ = comm.Run(3, func(c comm.Communicator) error {
				errs[c.Rank()] = Agree(c, "engine construction", tc.local[c.Rank()])
				return nil
			})

			// Assert
			for rank, err := range errs {
				if local, ok := tc.local[rank]; ok {
					assert.Same(t, local, err, "rank %d keeps its own error", rank)
					continue
				}
				if tc.kind == nil {
					assert.NoError(t, err, "rank %d", rank)
					continue
				}
				assert.ErrorIs(t, err, tc.kind, "rank %d", rank)
				assert.Contains(t, err.Error(), "another rank")
			}
		})
	}
}

func TestOnRoot_Self(t *testing.T) {
	t.Parallel()

	v, err := OnRoot(comm.Self(), "x", func() ([]float64, error) { return []float64{1}, nil })

	require.NoError(t, err)
	assert.Equal(t, []float64{1}, v)
}
