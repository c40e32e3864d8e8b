package field

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/opgrid/internal/comm"
	"github.com/specialistvlad/opgrid/internal/mesh"
)

// ref addresses one entry of one rank's local view.
type ref struct {
	rank  int
	index int
}

// Map is the node ownership layout shared by every vector on a rank.
type Map struct {
	comm  comm.Communicator
	owned int
	gids  []int

	// multiplicity[i] is the number of ranks holding local node i.
	multiplicity []float64
	// ghostSource[j] is the owner entry mirrored by ghost j.
	ghostSource []ref
	// copies[i] lists every entry, on any rank, that holds owned node i.
	copies [][]ref
}

// NewMap builds the ownership layout. It is collective and fails the same
// way on every rank when the decomposition is inconsistent.
func NewMap(c comm.Communicator, d *mesh.Decomposition) (*Map, error) {
	ownedByRank := c.AllGatherInts(d.OwnedNodes)
	localByRank := c.AllGatherInts(d.AllNodes())

	owner := make(map[int]ref)
	for r, ids := range ownedByRank {
		for i, gid := range ids {
			if prev, dup := owner[gid]; dup {
				return nil, fmt.Errorf("node %d is owned by both rank %d and rank %d", gid, prev.rank, r)
			}
			owner[gid] = ref{rank: r, index: i}
		}
	}

	holders := make(map[int][]ref)
	for r, ids := range localByRank {
		for i, gid := range ids {
			if _, ok := owner[gid]; !ok {
				return nil, fmt.Errorf("node %d on rank %d has no owner", gid, r)
			}
			holders[gid] = append(holders[gid], ref{rank: r, index: i})
		}
	}

	m := &Map{
		comm:         c,
		owned:        len(d.OwnedNodes),
		gids:         d.AllNodes(),
		multiplicity: make([]float64, d.NodeCount()),
		ghostSource:  make([]ref, len(d.GhostNodes)),
		copies:       make([][]ref, len(d.OwnedNodes)),
	}
	for i, gid := range m.gids {
		m.multiplicity[i] = float64(len(holders[gid]))
	}
	for j, gid := range d.GhostNodes {
		m.ghostSource[j] = owner[gid]
	}
	for i, gid := range d.OwnedNodes {
		refs := holders[gid]
		sort.Slice(refs, func(a, b int) bool { return refs[a].rank < refs[b].rank })
		m.copies[i] = refs
	}
	return m, nil
}

// Comm returns the communicator the map reconciles over.
func (m *Map) Comm() comm.Communicator { return m.comm }

// MyLength is the local entry count, owned plus ghost.
func (m *Map) MyLength() int { return len(m.gids) }

// OwnedLength is the number of locally owned entries.
func (m *Map) OwnedLength() int { return m.owned }

// GlobalIDs returns the global node IDs in local order.
func (m *Map) GlobalIDs() []int { return append([]int(nil), m.gids...) }

// Multiplicity returns how many ranks hold local node i.
func (m *Map) Multiplicity(i int) float64 { return m.multiplicity[i] }
