// Package mesh is the engine's view of the finite-element decomposition it
// runs on. It does not hold geometry beyond what operations need: which
// global node IDs a rank owns or ghosts, and which elements it owns with
// their connectivity and measure.
package mesh

import (
	"fmt"
	"slices"
)

// Element is a locally owned mesh element.
type Element struct {
	ID      int     `yaml:"id"`
	Nodes   []int   `yaml:"nodes"`
	Measure float64 `yaml:"measure"`
}

// Decomposition is one rank's share of the mesh. Local node indices place
// the owned nodes first, in order, followed by the ghost nodes.
type Decomposition struct {
	Rank       int
	OwnedNodes []int
	GhostNodes []int
	Elements   []Element

	local map[int]int
}

// New validates the parts and builds a decomposition.
func New(rank int, owned, ghost []int, elements []Element) (*Decomposition, error) {
	d := &Decomposition{
		Rank:       rank,
		OwnedNodes: slices.Clone(owned),
		GhostNodes: slices.Clone(ghost),
		Elements:   slices.Clone(elements),
		local:      make(map[int]int, len(owned)+len(ghost)),
	}

	for i, gid := range d.AllNodes() {
		if gid < 0 {
			return nil, fmt.Errorf("rank %d: negative global node id %d", rank, gid)
		}
		if _, dup := d.local[gid]; dup {
			return nil, fmt.Errorf("rank %d: global node id %d listed more than once", rank, gid)
		}
		d.local[gid] = i
	}

	seen := make(map[int]struct{}, len(elements))
	for _, e := range d.Elements {
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("rank %d: element id %d listed more than once", rank, e.ID)
		}
		seen[e.ID] = struct{}{}
		if e.Measure < 0 {
			return nil, fmt.Errorf("rank %d: element %d has negative measure %g", rank, e.ID, e.Measure)
		}
		for _, n := range e.Nodes {
			if _, ok := d.local[n]; !ok {
				return nil, fmt.Errorf("rank %d: element %d references node %d which is neither owned nor ghosted", rank, e.ID, n)
			}
		}
	}
	return d, nil
}

// Serial returns a one-rank decomposition with the given node and element
// counts, unit measures and no connectivity.
func Serial(nodes, elements int) *Decomposition {
	owned := make([]int, nodes)
	for i := range owned {
		owned[i] = i
	}
	elems := make([]Element, elements)
	for i := range elems {
		elems[i] = Element{ID: i, Measure: 1}
	}
	d, err := New(0, owned, nil, elems)
	if err != nil {
		panic(err) // unreachable: generated ids are unique and non-negative
	}
	return d
}

// NodeCount is the local node count, owned plus ghost.
func (d *Decomposition) NodeCount() int { return len(d.OwnedNodes) + len(d.GhostNodes) }

// OwnedNodeCount is the number of nodes this rank owns.
func (d *Decomposition) OwnedNodeCount() int { return len(d.OwnedNodes) }

// ElementCount is the number of locally owned elements.
func (d *Decomposition) ElementCount() int { return len(d.Elements) }

// AllNodes returns owned then ghost global IDs in local order.
func (d *Decomposition) AllNodes() []int {
	return append(slices.Clone(d.OwnedNodes), d.GhostNodes...)
}

// ElementIDs returns the global IDs of the owned elements in local order.
func (d *Decomposition) ElementIDs() []int {
	ids := make([]int, len(d.Elements))
	for i, e := range d.Elements {
		ids[i] = e.ID
	}
	return ids
}

// LocalIndex maps a global node ID to its local index.
func (d *Decomposition) LocalIndex(gid int) (int, bool) {
	i, ok := d.local[gid]
	return i, ok
}

// HasConnectivity reports whether every element lists its nodes.
func (d *Decomposition) HasConnectivity() bool {
	for _, e := range d.Elements {
		if len(e.Nodes) == 0 {
			return false
		}
	}
	return true
}
