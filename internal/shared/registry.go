package shared

import (
	"sort"

	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/field"
	"github.com/specialistvlad/opgrid/internal/layout"
)

// Registry maps argument names to their backing stores. It is owned by one
// engine and is not safe for concurrent use.
type Registry struct {
	nodeMap  *field.Map
	elements elementContainer

	scalars       map[string][]float64
	nodeFields    map[string]*field.Vector
	elementFields map[string]int
}

// New creates an empty registry. Node fields are laid out over m and
// element fields hold elementCount values.
func New(m *field.Map, elementCount int) *Registry {
	return &Registry{
		nodeMap:       m,
		elements:      elementContainer{length: elementCount},
		scalars:       make(map[string][]float64),
		nodeFields:    make(map[string]*field.Vector),
		elementFields: make(map[string]int),
	}
}

// Register creates the store for a declared argument. A zero scalar length
// means a single value; field lengths always come from the mesh.
func (r *Registry) Register(arg layout.Argument) error {
	switch arg.Layout {
	case layout.Scalar:
		length := arg.Length
		if length <= 0 {
			length = 1
		}
		return r.RegisterScalar(arg.Name, length)
	case layout.NodeField:
		return r.RegisterNodeField(arg.Name)
	case layout.ElementField:
		return r.RegisterElementField(arg.Name)
	default:
		return engineerr.Configf("argument %q has undefined layout", arg.Name)
	}
}

// RegisterScalar creates a zeroed scalar vector. Registering an existing
// scalar is a no-op.
func (r *Registry) RegisterScalar(name string, length int) error {
	if err := r.checkConflict(name, layout.Scalar); err != nil {
		return err
	}
	if _, ok := r.scalars[name]; !ok {
		r.scalars[name] = make([]float64, length)
	}
	return nil
}

// RegisterNodeField creates a zeroed node field. Registering an existing
// node field is a no-op.
func (r *Registry) RegisterNodeField(name string) error {
	if err := r.checkConflict(name, layout.NodeField); err != nil {
		return err
	}
	if _, ok := r.nodeFields[name]; !ok {
		r.nodeFields[name] = field.NewVector(r.nodeMap)
	}
	return nil
}

// RegisterElementField creates a zeroed element field. Registering an
// existing element field is a no-op.
func (r *Registry) RegisterElementField(name string) error {
	if err := r.checkConflict(name, layout.ElementField); err != nil {
		return err
	}
	if _, ok := r.elementFields[name]; !ok {
		r.elementFields[name] = r.elements.add()
	}
	return nil
}

func (r *Registry) checkConflict(name string, want layout.Layout) error {
	if have := r.Layout(name); have != layout.Undefined && have != want {
		return &engineerr.DuplicateArgumentError{Name: name, Existing: have, Requested: want}
	}
	return nil
}

// Layout returns the layout name is registered with, or Undefined.
func (r *Registry) Layout(name string) layout.Layout {
	if _, ok := r.scalars[name]; ok {
		return layout.Scalar
	}
	if _, ok := r.nodeFields[name]; ok {
		return layout.NodeField
	}
	if _, ok := r.elementFields[name]; ok {
		return layout.ElementField
	}
	return layout.Undefined
}

// Value returns the live scalar vector registered under name. Writes
// through the returned slice are visible to later readers.
func (r *Registry) Value(name string) ([]float64, error) {
	v, ok := r.scalars[name]
	if !ok {
		return nil, r.notFound(name, layout.Scalar)
	}
	return v, nil
}

// SetValue replaces a scalar's contents, resizing it to len(values).
func (r *Registry) SetValue(name string, values []float64) error {
	v, ok := r.scalars[name]
	if !ok {
		return r.notFound(name, layout.Scalar)
	}
	if len(v) != len(values) {
		v = make([]float64, len(values))
		r.scalars[name] = v
	}
	copy(v, values)
	return nil
}

// NodeField returns the distributed vector registered under name.
func (r *Registry) NodeField(name string) (*field.Vector, error) {
	v, ok := r.nodeFields[name]
	if !ok {
		return nil, r.notFound(name, layout.NodeField)
	}
	return v, nil
}

// NodeFieldData returns the live local view of a node field.
func (r *Registry) NodeFieldData(name string) ([]float64, error) {
	v, err := r.NodeField(name)
	if err != nil {
		return nil, err
	}
	return v.ExtractView(), nil
}

// NodeFieldLength returns the local length of a node field.
func (r *Registry) NodeFieldLength(name string) (int, error) {
	v, err := r.NodeField(name)
	if err != nil {
		return 0, err
	}
	return v.MyLength(), nil
}

// ElementField returns the live column of an element field. Its length is
// always the local element count.
func (r *Registry) ElementField(name string) ([]float64, error) {
	i, ok := r.elementFields[name]
	if !ok {
		return nil, r.notFound(name, layout.ElementField)
	}
	return r.elements.column(i), nil
}

// ElementCount is the length of every element field.
func (r *Registry) ElementCount() int { return r.elements.length }

// NodeMap is the ownership layout shared by every node field.
func (r *Registry) NodeMap() *field.Map { return r.nodeMap }

// Names returns the sorted names registered under l.
func (r *Registry) Names(l layout.Layout) []string {
	var names []string
	switch l {
	case layout.Scalar:
		for n := range r.scalars {
			names = append(names, n)
		}
	case layout.NodeField:
		for n := range r.nodeFields {
			names = append(names, n)
		}
	case layout.ElementField:
		for n := range r.elementFields {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// Len is the total number of registered arguments.
func (r *Registry) Len() int {
	return len(r.scalars) + len(r.nodeFields) + len(r.elementFields)
}

// Clear drops every entry.
func (r *Registry) Clear() {
	clear(r.scalars)
	clear(r.nodeFields)
	clear(r.elementFields)
	r.elements.columns = nil
}

func (r *Registry) notFound(name string, l layout.Layout) error {
	var others []string
	for _, other := range []layout.Layout{layout.Scalar, layout.NodeField, layout.ElementField} {
		if other != l {
			others = append(others, r.Names(other)...)
		}
	}
	sort.Strings(others)
	return &engineerr.UnknownArgumentError{Name: name, Category: l.String(), Available: r.Names(l), Others: others}
}
