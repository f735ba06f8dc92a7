package generators

import (
	"sort"

	"github.com/pkg/errors"
)

// Registry maps generator names (e.g. "java:c") to their factories.
//
// It is created once by the driver and passed along: there is no global registry.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a Registry with all the generators of this package registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.mustRegister("java:c", func(ctx *Context) Generator { return NewJavaC(ctx) })
	r.mustRegister("java:java", func(ctx *Context) Generator { return NewJavaJava(ctx) })
	r.mustRegister("debug:list-types", func(ctx *Context) Generator { return NewListTypes(ctx) })
	return r
}

// Register adds a generator. It fails if the name is already taken.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" || factory == nil {
		return errors.New("generator registration requires a name and a factory")
	}
	if _, found := r.factories[name]; found {
		return errors.Errorf("generator %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

func (r *Registry) mustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Has returns whether a generator with the name is registered.
func (r *Registry) Has(name string) bool {
	_, found := r.factories[name]
	return found
}

// Names returns the sorted names of the registered generators.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the named generator for the context.
func (r *Registry) New(name string, ctx *Context) (Generator, error) {
	factory, found := r.factories[name]
	if !found {
		return nil, errors.Errorf("unknown generator %q, valid values are %q", name, r.Names())
	}
	return factory(ctx), nil
}
