package testutil

import (
	"testing"

	"github.com/specialistvlad/opgrid/internal/mesh"
	"github.com/stretchr/testify/require"
)

// LineMesh is four nodes 0-1-2-3 joined by three unit elements, on one
// rank.
func LineMesh(t *testing.T) *mesh.Decomposition {
	t.Helper()
	d, err := mesh.New(0, []int{0, 1, 2, 3}, nil, []mesh.Element{
		{ID: 0, Nodes: []int{0, 1}, Measure: 1},
		{ID: 1, Nodes: []int{1, 2}, Measure: 1},
		{ID: 2, Nodes: []int{2, 3}, Measure: 1},
	})
	require.NoError(t, err)
	return d
}

// TwoRankLineMesh splits LineMesh across two ranks. Rank 0 owns nodes 0
// and 1 and elements 0 and 1; rank 1 owns nodes 2 and 3 and element 2.
// Nodes 1 and 2 are held by both ranks.
func TwoRankLineMesh(t *testing.T) []*mesh.Decomposition {
	t.Helper()
	d0, err := mesh.New(0, []int{0, 1}, []int{2}, []mesh.Element{
		{ID: 0, Nodes: []int{0, 1}, Measure: 1},
		{ID: 1, Nodes: []int{1, 2}, Measure: 1},
	})
	require.NoError(t, err)
	d1, err := mesh.New(1, []int{2, 3}, []int{1}, []mesh.Element{
		{ID: 2, Nodes: []int{2, 3}, Measure: 1},
	})
	require.NoError(t, err)
	return []*mesh.Decomposition{d0, d1}
}
