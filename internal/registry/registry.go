package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/specialistvlad/xpigraph/internal/transform"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered transforms of a single application instance.
type Registry struct {
	transforms map[string]transform.Func
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		transforms: make(map[string]transform.Func),
	}
}

// RegisterTransform registers fn under name. Registering a name twice is a
// programming error and panics.
func (r *Registry) RegisterTransform(name string, fn transform.Func) {
	if _, exists := r.transforms[name]; exists {
		panic(fmt.Sprintf("transform with name '%s' already registered", name))
	}
	slog.Debug("Registering transform.", "name", name)
	r.transforms[name] = fn
}

// Transform returns the transform registered under name.
func (r *Registry) Transform(name string) (transform.Func, bool) {
	fn, ok := r.transforms[name]
	return fn, ok
}

// Names returns the registered transform names in lexical order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.transforms))
}

// Sequence resolves names into a runnable transform sequence.
func (r *Registry) Sequence(names []string) (transform.Sequence, error) {
	seq := make(transform.Sequence, 0, len(names))
	for _, name := range names {
		fn, ok := r.transforms[name]
		if !ok {
			return nil, fmt.Errorf("unknown transform '%s'", name)
		}
		seq = append(seq, transform.Step{Name: name, Fn: fn})
	}
	return seq, nil
}
