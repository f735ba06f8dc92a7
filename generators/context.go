// Package generators produces binding code from the type table and the function descriptors.
//
// Generators are created from an explicit Registry (see NewRegistry) with a Context holding the read-only
// inputs of the run. Per-function generation goes through Emit, which writes functions in declaration order
// and never aborts the batch because of a single function.
package generators

import (
	"io"

	"github.com/gomlx/stimulus/config"
	"github.com/gomlx/stimulus/functions"
	"github.com/gomlx/stimulus/typetable"
	"github.com/pkg/errors"
)

// Context holds the read-only inputs of a generation run.
type Context struct {
	Types     *typetable.Table
	Functions *functions.Set
	Target    *config.Target
}

// NewContext returns a Context after checking its inputs.
func NewContext(types *typetable.Table, fns *functions.Set, target *config.Target) (*Context, error) {
	if types == nil || fns == nil || target == nil {
		return nil, errors.New("generators.NewContext: types, functions and target are all required")
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	return &Context{Types: types, Functions: fns, Target: target}, nil
}

// CheckTypes returns an error if a parameter of fn refers to a type id not defined in the type table.
//
// This is a structural error of the inputs, as opposed to a type that is defined but lacks some rule.
func (ctx *Context) CheckTypes(fn *functions.Function) error {
	for _, p := range fn.Params {
		if !ctx.Types.Has(p.Type) {
			return errors.Errorf("unknown type %s of parameter %q in %s", p.Type, p.Name, fn.Name)
		}
	}
	return nil
}

// Generator writes a complete output for a run.
type Generator interface {
	// Generate writes the output to w. Inputs are the paths of the input files given to the generator
	// (preludes or templates, depending on the generator).
	Generate(w io.Writer, inputs []string) error
}

// Factory creates a Generator for a run.
type Factory func(ctx *Context) Generator
