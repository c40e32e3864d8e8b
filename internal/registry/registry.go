package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/opgrid/internal/op"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the operation factories of a single application instance.
type Registry struct {
	factories map[string]op.Factory
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		factories: make(map[string]op.Factory),
	}
}

// RegisterFactory registers the factory for an operation function.
func (r *Registry) RegisterFactory(function string, factory op.Factory) {
	if _, exists := r.factories[function]; exists {
		panic(fmt.Sprintf("operation factory with name '%s' already registered", function))
	}
	slog.Debug("Registering operation factory.", "function", function)
	r.factories[function] = factory
}

// Factory returns the factory registered for function.
func (r *Registry) Factory(function string) (op.Factory, bool) {
	f, ok := r.factories[function]
	return f, ok
}

// Functions returns the sorted names of every registered function.
func (r *Registry) Functions() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
