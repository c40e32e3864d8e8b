package shared

import "github.com/specialistvlad/opgrid/internal/layout"

// Buffer is data crossing the host boundary. On export the length of
// Values is the length the caller expects, unless Dynamic is set, in which
// case Values is replaced with whatever the registry holds.
type Buffer struct {
	Layout  layout.Layout
	Values  []float64
	Dynamic bool
}

// NewBuffer returns a buffer holding a copy of values.
func NewBuffer(l layout.Layout, values []float64) *Buffer {
	return &Buffer{Layout: l, Values: append([]float64(nil), values...)}
}

// Size is the number of values in the buffer.
func (b *Buffer) Size() int { return len(b.Values) }
