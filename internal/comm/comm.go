package comm

import (
	"fmt"
	"math"
)

// Op is a reduction operator for AllReduce.
type Op int

const (
	// Sum adds the contributions of all ranks.
	Sum Op = iota
	// Max keeps the largest contribution.
	Max
	// Min keeps the smallest contribution.
	Min
)

// String returns the operator name.
func (o Op) String() string {
	switch o {
	case Sum:
		return "sum"
	case Max:
		return "max"
	case Min:
		return "min"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Communicator is a group of cooperating ranks. Rank is in [0, Size).
type Communicator interface {
	Rank() int
	Size() int

	// Barrier blocks until every rank has entered it.
	Barrier()

	// AllReduce combines equally sized vectors elementwise across ranks and
	// returns the result on every rank.
	AllReduce(op Op, in []float64) ([]float64, error)

	// Broadcast returns root's data on every rank. Non-root ranks may pass nil.
	Broadcast(root int, data []float64) ([]float64, error)

	// AllGather returns every rank's contribution, indexed by rank.
	AllGather(local []float64) [][]float64

	// AllGatherInts is AllGather for integer payloads such as global IDs.
	AllGatherInts(local []int) [][]int

	// Dup returns a new communicator over the same ranks whose collectives
	// never interleave with the receiver's. It is itself collective.
	Dup() Communicator
}

// reduce folds the gathered contributions with op.
func reduce(op Op, parts [][]float64) ([]float64, error) {
	if len(parts) == 0 {
		return nil, nil
	}
	n := len(parts[0])
	for r, p := range parts {
		if len(p) != n {
			return nil, fmt.Errorf("allreduce length mismatch: rank 0 sent %d values, rank %d sent %d", n, r, len(p))
		}
	}

	out := make([]float64, n)
	for i := range out {
		switch op {
		case Sum:
			for _, p := range parts {
				out[i] += p[i]
			}
		case Max:
			out[i] = math.Inf(-1)
			for _, p := range parts {
				out[i] = math.Max(out[i], p[i])
			}
		case Min:
			out[i] = math.Inf(1)
			for _, p := range parts {
				out[i] = math.Min(out[i], p[i])
			}
		default:
			return nil, fmt.Errorf("unsupported reduction %s", op)
		}
	}
	return out, nil
}
