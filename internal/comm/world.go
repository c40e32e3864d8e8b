package comm

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// round is one collective call in flight. Every rank deposits its payload;
// the last arrival closes done and all ranks read the same vals.
type round struct {
	vals    []any
	arrived int
	done    chan struct{}
}

// hub is the rendezvous point shared by the ranks of one communicator.
type hub struct {
	mu   sync.Mutex
	size int
	cur  *round
}

func newHub(size int) *hub {
	return &hub{size: size}
}

// exchange blocks until all ranks have contributed and returns every
// rank's payload indexed by rank. The returned slice must not be mutated.
func (h *hub) exchange(rank int, v any) []any {
	h.mu.Lock()
	r := h.cur
	if r == nil {
		r = &round{vals: make([]any, h.size), done: make(chan struct{})}
		h.cur = r
	}
	r.vals[rank] = v
	r.arrived++
	if r.arrived == h.size {
		h.cur = nil
		close(r.done)
	}
	h.mu.Unlock()

	<-r.done
	return r.vals
}

// member is one rank's handle on a shared hub.
type member struct {
	rank int
	hub  *hub
}

// NewWorld returns size communicators that share one in-process
// rendezvous. Each must be driven by its own goroutine.
func NewWorld(size int) []Communicator {
	if size < 1 {
		panic(fmt.Sprintf("comm: world size must be positive, got %d", size))
	}
	h := newHub(size)
	out := make([]Communicator, size)
	for r := range out {
		out[r] = &member{rank: r, hub: h}
	}
	return out
}

// Run creates a world of size ranks and runs fn once per rank, each in its
// own goroutine. It returns the first error any rank reports. A rank that
// fails must still reach every collective the others expect, so fn should
// only fail on conditions that are symmetric across ranks.
func Run(size int, fn func(c Communicator) error) error {
	var g errgroup.Group
	for _, c := range NewWorld(size) {
		g.Go(func() error {
			return fn(c)
		})
	}
	return g.Wait()
}

func (m *member) Rank() int { return m.rank }
func (m *member) Size() int { return m.hub.size }

func (m *member) Barrier() {
	m.hub.exchange(m.rank, nil)
}

func (m *member) AllReduce(op Op, in []float64) ([]float64, error) {
	return reduce(op, m.AllGather(in))
}

func (m *member) Broadcast(root int, data []float64) ([]float64, error) {
	if root < 0 || root >= m.hub.size {
		return nil, fmt.Errorf("broadcast root %d out of range for size %d", root, m.hub.size)
	}
	parts := m.AllGather(data)
	return parts[root], nil
}

func (m *member) AllGather(local []float64) [][]float64 {
	vals := m.hub.exchange(m.rank, append([]float64(nil), local...))
	out := make([][]float64, len(vals))
	for r, v := range vals {
		out[r] = append([]float64(nil), v.([]float64)...)
	}
	return out
}

func (m *member) AllGatherInts(local []int) [][]int {
	vals := m.hub.exchange(m.rank, append([]int(nil), local...))
	out := make([][]int, len(vals))
	for r, v := range vals {
		out[r] = append([]int(nil), v.([]int)...)
	}
	return out
}

// Dup agrees on a fresh hub proposed by rank 0.
func (m *member) Dup() Communicator {
	var proposal *hub
	if m.rank == 0 {
		proposal = newHub(m.hub.size)
	}
	vals := m.hub.exchange(m.rank, proposal)
	return &member{rank: m.rank, hub: vals[0].(*hub)}
}
