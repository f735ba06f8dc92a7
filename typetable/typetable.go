// Package typetable holds the per-type rules used to generate bindings: how each type is declared in
// the native and foreign representations, how it is converted in each direction for each passing
// mode, and how it is passed in the native call.
//
// Absence of a rule is a valid state, meaning the type can't be used in that role: it only becomes an
// error when generation needs it.
package typetable

import (
	"sort"

	"github.com/gomlx/stimulus/functions"
	"github.com/gomlx/stimulus/templates"
	"github.com/pkg/errors"
)

// Representation selects one side of the language boundary.
type Representation int

const (
	// Native is the C side, used when calling the wrapped library.
	Native Representation = iota

	// Foreign is the side exposed to the target language.
	Foreign
)

// String implements fmt.Stringer.
func (r Representation) String() string {
	switch r {
	case Native:
		return "Native"
	case Foreign:
		return "Foreign"
	}
	return "Representation(?)"
}

// Direction of a conversion.
type Direction int

const (
	// InConv converts foreign values into native ones, before the native call.
	// It is also where OUT parameters get their memory allocated.
	InConv Direction = iota

	// OutConv converts native values back into foreign ones, after the native call.
	// It is also where resources allocated by InConv are released, for any mode.
	OutConv
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case InConv:
		return "InConv"
	case OutConv:
		return "OutConv"
	}
	return "Direction(?)"
}

// Repr is how a type is declared in one representation.
type Repr struct {
	// Decl is a full declaration statement template (e.g. "igraph_vector_t %C%;").
	Decl templates.Template

	// TypeName is the plain type name (e.g. "igraph_integer_t"), used when there is no Decl.
	TypeName templates.Template
}

// Ok returns whether the representation has any rule.
func (r Repr) Ok() bool {
	return r.Decl.Ok() || r.TypeName.Ok()
}

// Descriptor holds the rules of one type.
type Descriptor struct {
	// ID of the type, e.g. "GRAPH".
	ID string

	Native, Foreign Repr

	// InConv and OutConv map a passing mode to the conversion template for that mode.
	InConv, OutConv map[functions.Mode]templates.Template

	// Call is the expression used as argument of the native call (e.g. "&%C%"). If absent the
	// native variable is passed as is.
	Call templates.Template
}

// Repr returns the rules of the given representation.
func (d *Descriptor) Repr(r Representation) Repr {
	if r == Foreign {
		return d.Foreign
	}
	return d.Native
}

// TypeName returns the plain type name in the given representation, if defined.
func (d *Descriptor) TypeName(r Representation) (string, bool) {
	return d.Repr(r).TypeName.Text()
}

// Conversion returns the conversion template for the direction and mode. The template is absent if
// the type has no such conversion.
func (d *Descriptor) Conversion(dir Direction, mode functions.Mode) templates.Template {
	convs := d.InConv
	if dir == OutConv {
		convs = d.OutConv
	}
	return convs[mode] // Zero value is templates.None.
}

// Table maps type ids to their descriptors. It is built once and read-only afterward.
type Table struct {
	descriptors map[string]*Descriptor
}

// New creates a Table with the given descriptors. Later descriptors with the same id replace earlier ones,
// which allows layering type files.
func New(descriptors ...*Descriptor) (*Table, error) {
	t := &Table{descriptors: make(map[string]*Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d == nil || d.ID == "" {
			return nil, errors.New("type descriptor without id")
		}
		t.descriptors[d.ID] = d
	}
	return t, nil
}

// Lookup returns the descriptor of the type id.
func (t *Table) Lookup(id string) (*Descriptor, bool) {
	d, found := t.descriptors[id]
	return d, found
}

// Has returns whether the type id is defined.
func (t *Table) Has(id string) bool {
	_, found := t.descriptors[id]
	return found
}

// Len returns the number of types defined.
func (t *Table) Len() int {
	return len(t.descriptors)
}

// IDs returns the sorted type ids.
func (t *Table) IDs() []string {
	ids := make([]string, 0, len(t.descriptors))
	for id := range t.descriptors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
