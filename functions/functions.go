// Package functions holds the descriptors of the native library functions to be bound: their ordered
// parameters, passing modes, optional overrides and inter-parameter dependencies.
//
// Descriptors are loaded once (see package loader) and are read-only afterward.
package functions

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Param describes one parameter of a native function.
type Param struct {
	// Name of the parameter, unique within its function.
	Name string

	// Type is the type id, a key into the type table (e.g. "GRAPH", "INTEGER").
	Type string

	// Mode is the passing mode.
	Mode Mode

	// Default is the optional default value text given in the descriptor (e.g. "0" in "INTEGER n=0").
	Default string
}

// String implements fmt.Stringer, in the same format used by function files.
func (p Param) String() string {
	s := fmt.Sprintf("%s %s %s", p.Mode, p.Type, p.Name)
	if p.Default != "" {
		s += "=" + p.Default
	}
	return s
}

// Function describes a native function.
type Function struct {
	// Name of the native function, e.g. "igraph_vcount".
	Name string

	// DisplayName overrides the name derived for the binding, if not empty.
	DisplayName string

	// ReturnType is the explicit return type id, if not empty.
	ReturnType string

	// Params in native call-site order.
	Params []Param

	// Deps maps a parameter name to the ordered names of the parameters whose native variables are
	// substituted into its conversion template (as %C1%, %C2%, ...).
	Deps map[string][]string

	// Ignore lists the generator families that must skip this function (e.g. "JavaC").
	Ignore []string
}

// Param returns the parameter with the given name.
func (f *Function) Param(name string) (Param, bool) {
	for _, p := range f.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// ParamsWithMode returns the parameters with the given mode, in declaration order.
func (f *Function) ParamsWithMode(mode Mode) []Param {
	var params []Param
	for _, p := range f.Params {
		if p.Mode == mode {
			params = append(params, p)
		}
	}
	return params
}

// Outputs returns the OUT and INOUT parameters, in declaration order.
func (f *Function) Outputs() []Param {
	var params []Param
	for _, p := range f.Params {
		if p.Mode.IsOutput() {
			params = append(params, p)
		}
	}
	return params
}

// Dependencies returns the ordered dependencies declared for the parameter, or nil.
func (f *Function) Dependencies(param string) []string {
	return f.Deps[param]
}

// IgnoredBy returns whether the generator family asked to skip this function.
func (f *Function) IgnoredBy(family string) bool {
	return family != "" && slices.Contains(f.Ignore, family)
}

// Validate checks the structure of the descriptor: a name, unique parameter names, valid modes and
// dependencies referring to declared parameters.
//
// It doesn't check types: those are only checked against the type table at generation time.
func (f *Function) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("function with empty name")
	}
	seen := make(map[string]bool, len(f.Params))
	for i, p := range f.Params {
		if p.Name == "" {
			return errors.Errorf("%s: parameter #%d has no name", f.Name, i)
		}
		if p.Type == "" {
			return errors.Errorf("%s: parameter %q has no type", f.Name, p.Name)
		}
		if !p.Mode.IsAMode() {
			return errors.Errorf("%s: parameter %q has invalid mode %s", f.Name, p.Name, p.Mode)
		}
		if seen[p.Name] {
			return errors.Errorf("%s: duplicate parameter %q", f.Name, p.Name)
		}
		seen[p.Name] = true
	}
	for name, deps := range f.Deps {
		if !seen[name] {
			return errors.Errorf("%s: dependencies declared for unknown parameter %q", f.Name, name)
		}
		for _, dep := range deps {
			if !seen[dep] {
				return errors.Errorf("%s: parameter %q depends on unknown parameter %q", f.Name, name, dep)
			}
		}
	}
	return nil
}

// Set is the ordered, read-only collection of function descriptors.
type Set struct {
	functions []*Function
	index     map[string]int
}

// NewSet validates the descriptors and returns them as a Set, preserving the given order.
func NewSet(fns ...*Function) (*Set, error) {
	s := &Set{index: make(map[string]int, len(fns))}
	for _, fn := range fns {
		if err := s.add(fn); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Set) add(fn *Function) error {
	if fn == nil {
		return errors.New("nil function descriptor")
	}
	if err := fn.Validate(); err != nil {
		return err
	}
	if _, found := s.index[fn.Name]; found {
		return errors.Errorf("function %q defined more than once", fn.Name)
	}
	s.index[fn.Name] = len(s.functions)
	s.functions = append(s.functions, fn)
	return nil
}

// Len returns the number of functions.
func (s *Set) Len() int {
	return len(s.functions)
}

// All returns the functions in declaration order. The returned slice must not be modified.
func (s *Set) All() []*Function {
	return s.functions
}

// Names returns the function names in declaration order.
func (s *Set) Names() []string {
	names := make([]string, len(s.functions))
	for i, fn := range s.functions {
		names[i] = fn.Name
	}
	return names
}

// Get returns the function with the given name.
func (s *Set) Get(name string) (*Function, bool) {
	idx, found := s.index[name]
	if !found {
		return nil, false
	}
	return s.functions[idx], true
}
