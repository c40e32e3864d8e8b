package field

// Vector is one distributed node field. Its local storage is allocated once
// and never resized, so views returned by ExtractView stay valid for the
// vector's lifetime.
type Vector struct {
	m    *Map
	data []float64
}

// NewVector allocates a zeroed vector over m.
func NewVector(m *Map) *Vector {
	return &Vector{m: m, data: make([]float64, m.MyLength())}
}

// Map returns the ownership layout of the vector.
func (v *Vector) Map() *Map { return v.m }

// MyLength is the local entry count, owned plus ghost.
func (v *Vector) MyLength() int { return len(v.data) }

// ExtractView returns the live local storage, owned entries first.
func (v *Vector) ExtractView() []float64 { return v.data }

// Import overwrites every ghost entry with its owner's value.
func (v *Vector) Import() {
	parts := v.m.comm.AllGather(v.data[:v.m.owned])
	for j, src := range v.m.ghostSource {
		v.data[v.m.owned+j] = parts[src.rank][src.index]
	}
}

// DisAssemble splits each entry evenly among the ranks holding the node.
func (v *Vector) DisAssemble() {
	for i := range v.data {
		v.data[i] /= v.m.multiplicity[i]
	}
}

// LocalExport folds every rank's contribution into the owner and then
// refreshes the ghosts, leaving the vector in consistent form.
func (v *Vector) LocalExport() {
	v.assembleInto(v.data)
	v.Import()
}

// Consistent returns the assembled value of every local entry without
// modifying the vector.
func (v *Vector) Consistent() []float64 {
	out := append([]float64(nil), v.data...)
	v.assembleInto(out)

	parts := v.m.comm.AllGather(out[:v.m.owned])
	for j, src := range v.m.ghostSource {
		out[v.m.owned+j] = parts[src.rank][src.index]
	}
	return out
}

// Assembled returns the global values of the owned entries.
func (v *Vector) Assembled() []float64 {
	return v.Consistent()[:v.m.owned]
}

// FillGlobal stores value as the global value of every node.
func (v *Vector) FillGlobal(value float64) {
	for i := range v.data {
		v.data[i] = value / v.m.multiplicity[i]
	}
}

// SetGlobal stores value as the global value of local node i.
func (v *Vector) SetGlobal(i int, value float64) {
	v.data[i] = value / v.m.multiplicity[i]
}

// Zero clears the local storage.
func (v *Vector) Zero() {
	clear(v.data)
}

// assembleInto sums every rank's copy of each owned node into dst.
func (v *Vector) assembleInto(dst []float64) {
	parts := v.m.comm.AllGather(v.data)
	for i, refs := range v.m.copies {
		var sum float64
		for _, r := range refs {
			sum += parts[r.rank][r.index]
		}
		dst[i] = sum
	}
}
