// Package layout describes how a named quantity is distributed across the
// ranks of a job and how operations declare the arguments they touch.
package layout

import (
	"fmt"
	"strings"
)

// Layout is the shape and distribution category of a named data argument.
// It never changes once an argument is registered.
type Layout int

const (
	// Undefined is the zero value and is never a legal registry layout.
	Undefined Layout = iota
	// Scalar is a small vector of doubles replicated on every rank.
	Scalar
	// NodeField holds one value per mesh node with owned and ghost entries.
	NodeField
	// ElementField holds one value per locally owned mesh element.
	ElementField
)

// String returns the configuration spelling of the layout.
func (l Layout) String() string {
	switch l {
	case Scalar:
		return "scalar"
	case NodeField:
		return "nodal_field"
	case ElementField:
		return "element_field"
	default:
		return "undefined"
	}
}

// Parse converts a configuration spelling into a Layout. It accepts the
// spellings produced by String plus a few common aliases.
func Parse(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scalar", "value", "global":
		return Scalar, nil
	case "nodal_field", "node_field", "nodal field", "node field":
		return NodeField, nil
	case "element_field", "element field":
		return ElementField, nil
	default:
		return Undefined, fmt.Errorf("unknown layout %q: expected one of scalar, nodal_field, element_field", s)
	}
}
