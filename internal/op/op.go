// Package op defines the contract between the engine and the operations it
// dispatches by name.
//
// An operation is built once from its configuration node, declares its
// arguments once, and is then executed any number of times. All data flows
// through the shared registry: Execute takes no inputs beyond the context
// and returns nothing but an error.
package op

import (
	"context"

	"github.com/specialistvlad/opgrid/internal/comm"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/mesh"
	"github.com/specialistvlad/opgrid/internal/model"
	"github.com/specialistvlad/opgrid/internal/shared"
)

// LocalOp is implemented by every operation.
//
// Execute must recompute its outputs from its declared inputs on every call
// and must validate every input before writing any output.
type LocalOp interface {
	Arguments() []layout.Argument
	Execute(ctx context.Context) error
}

// Host is what an operation may reach from its engine. The registry is only
// populated after every operation has declared its arguments, so factories
// must not read it; Execute may.
type Host interface {
	Registry() *shared.Registry
	Comm() comm.Communicator
	Mesh() *mesh.Decomposition
}

// Factory builds an operation from its configuration node.
type Factory func(ctx context.Context, host Host, node *model.Node) (LocalOp, error)
