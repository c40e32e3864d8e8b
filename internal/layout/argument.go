package layout

import "fmt"

// Argument is one entry of an operation's argument declaration list.
//
// Length is advisory: zero means the size is inferred from the mesh for
// fields and defaults to a single value for scalars. Write marks the
// argument for visual output and has no effect on data exchange.
type Argument struct {
	Layout Layout
	Name   string
	Length int
	Write  bool
}

// NewArgument returns a declaration for a read/write argument.
func NewArgument(l Layout, name string, length int) Argument {
	return Argument{Layout: l, Name: name, Length: length}
}

// String renders the declaration for diagnostics.
func (a Argument) String() string {
	return fmt.Sprintf("%s(%s, length=%d)", a.Name, a.Layout, a.Length)
}
