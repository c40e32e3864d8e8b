package op

import (
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/shared"
)

// Data returns the live local storage of an argument, checking that it is
// registered under the expected layout.
func Data(r *shared.Registry, l layout.Layout, name string) ([]float64, error) {
	if have := r.Layout(name); have != layout.Undefined && have != l {
		return nil, &engineerr.LayoutMismatchError{Name: name, Actual: have, Requested: l}
	}
	switch l {
	case layout.Scalar:
		return r.Value(name)
	case layout.NodeField:
		return r.NodeFieldData(name)
	case layout.ElementField:
		return r.ElementField(name)
	default:
		return nil, engineerr.Configf("argument %q: layout %s has no storage", name, l)
	}
}

// ParseLayout reads a layout name, defaulting to def when s is empty, and
// rejects layouts an operation does not support.
func ParseLayout(s string, def layout.Layout, supported ...layout.Layout) (layout.Layout, error) {
	l := def
	if s != "" {
		var err error
		if l, err = layout.Parse(s); err != nil {
			return layout.Undefined, engineerr.Configf("%v", err)
		}
	}
	for _, ok := range supported {
		if l == ok {
			return l, nil
		}
	}
	return layout.Undefined, engineerr.Configf("layout %s is not supported here; supported: %v", l, supported)
}

// Store writes values as the new content of an argument. Scalars take the
// length of values; fields must match their local length.
func Store(r *shared.Registry, l layout.Layout, name string, values []float64) error {
	if l == layout.Scalar {
		if have := r.Layout(name); have != layout.Undefined && have != l {
			return &engineerr.LayoutMismatchError{Name: name, Actual: have, Requested: l}
		}
		return r.SetValue(name, values)
	}
	dst, err := Data(r, l, name)
	if err != nil {
		return err
	}
	if len(dst) != len(values) {
		return &engineerr.SizeMismatchError{Argument: name, Expected: len(dst), Got: len(values)}
	}
	copy(dst, values)
	return nil
}
