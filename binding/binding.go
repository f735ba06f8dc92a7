// Package binding derives the calling convention of the binding of a native function: its resolved return
// type, the receiver ("self") parameter if any, whether it's static, and the list of foreign arguments.
//
// Resolve is a pure function of the function descriptor, the type table and the target conventions. Both
// the full glue generator and the declaration-only generator use it.
package binding

import (
	"strings"

	"github.com/gomlx/stimulus/config"
	"github.com/gomlx/stimulus/functions"
	"github.com/gomlx/stimulus/typetable"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Argument is one argument of the binding, in the resolved representation.
type Argument struct {
	// Name of the parameter.
	Name string

	// Type id of the parameter.
	Type string

	// TypeName in the resolved representation.
	TypeName string
}

// Decl returns the argument declaration, e.g. "jlong n".
func (a Argument) Decl() string {
	return a.TypeName + " " + a.Name
}

// Metadata is the calling convention of a binding. It is created by Resolve and not modified afterward.
type Metadata struct {
	// NativeName of the wrapped function.
	NativeName string

	// Name of the binding method.
	Name string

	// Modifiers of the method, e.g. ["public", "static"].
	Modifiers []string

	// ReturnType is the resolved return type id.
	ReturnType string

	// ReturnTypeName is the name of ReturnType in the resolved representation.
	ReturnTypeName string

	// Arguments are the IN parameters other than the receiver, in declaration order.
	Arguments []Argument

	// Receiver is the name of the receiver parameter, or empty if there is none.
	Receiver string

	// IsStatic is true if there is no receiver.
	IsStatic bool
}

// HasReceiver returns whether a receiver parameter was found.
func (m *Metadata) HasReceiver() bool {
	return m.Receiver != ""
}

// ArgumentDecls returns a new slice with the declarations of the arguments.
func (m *Metadata) ArgumentDecls() []string {
	decls := make([]string, len(m.Arguments))
	for i, arg := range m.Arguments {
		decls[i] = arg.Decl()
	}
	return decls
}

// ModifiersString returns the modifiers joined by spaces.
func (m *Metadata) ModifiersString() string {
	return strings.Join(m.Modifiers, " ")
}

// ReturnType resolves the return type id of the binding:
//
//   - if exactly one parameter is OUT or INOUT, its type (an explicit return type is then ignored);
//   - if no parameter is OUT or INOUT, the explicit return type;
//   - otherwise it fails with UnsupportedCallingConvention.
func ReturnType(fn *functions.Function) (string, error) {
	outputs := fn.Outputs()
	switch {
	case len(outputs) == 1:
		return outputs[0].Type, nil
	case len(outputs) == 0 && fn.ReturnType != "":
		return fn.ReturnType, nil
	case len(outputs) == 0:
		return "", Errorf(UnsupportedCallingConvention, fn.Name,
			"calling convention unsupported: no OUT or INOUT parameter and no return type")
	default:
		return "", Errorf(UnsupportedCallingConvention, fn.Name,
			"calling convention unsupported: %d OUT or INOUT parameters, at most one is supported", len(outputs))
	}
}

// Resolve derives the Metadata of the binding of fn, with argument and return types named in the
// representation rep.
//
// It fails with UnsupportedCallingConvention if the outputs of fn don't fit a single return value, or with
// UnknownType if an argument or the return type has no type name in rep.
func Resolve(fn *functions.Function, table *typetable.Table, target *config.Target, rep typetable.Representation) (*Metadata, error) {
	md := &Metadata{
		NativeName: fn.Name,
		Name:       fn.DisplayName,
		Modifiers:  []string{"public"},
	}
	if md.Name == "" {
		md.Name = CamelCase(target.MethodName(fn.Name))
	}

	var err error
	md.ReturnType, err = ReturnType(fn)
	if err != nil {
		return nil, err
	}

	// The first IN handle is the receiver; other IN parameters are the arguments.
	for _, p := range fn.ParamsWithMode(functions.IN) {
		if md.Receiver == "" && p.Type == target.HandleType {
			md.Receiver = p.Name
			continue
		}
		typeName, ok := typeNameOf(table, p.Type, rep)
		if !ok {
			return nil, Errorf(UnknownType, fn.Name, "unknown input type %s of %q (needs %s), skipping",
				p.Type, p.Name, keyOf(target, rep))
		}
		md.Arguments = append(md.Arguments, Argument{Name: p.Name, Type: p.Type, TypeName: typeName})
	}

	// Constructor-like functions produce a new handle through an OUT parameter.
	if md.Receiver == "" {
		for _, p := range fn.ParamsWithMode(functions.OUT) {
			if p.Type == target.HandleType {
				md.Receiver = p.Name
				break
			}
		}
	}

	var ok bool
	md.ReturnTypeName, ok = typeNameOf(table, md.ReturnType, rep)
	if !ok {
		return nil, Errorf(UnknownType, fn.Name, "unknown return type %s (needs %s), skipping",
			md.ReturnType, keyOf(target, rep))
	}

	md.IsStatic = md.Receiver == ""
	if md.IsStatic {
		md.Modifiers = append(md.Modifiers, "static")
		md.Name = UpperFirst(md.Name)
	}
	return md, nil
}

func typeNameOf(table *typetable.Table, id string, rep typetable.Representation) (string, bool) {
	d, found := table.Lookup(id)
	if !found {
		return "", false
	}
	return d.TypeName(rep)
}

// keyOf returns the type file key holding the type name for the representation, for error messages.
func keyOf(target *config.Target, rep typetable.Representation) string {
	if rep == typetable.Foreign {
		return target.Keys.ForeignType
	}
	return target.Keys.NativeType
}

// CamelCase converts a snake_case name to camelCase: "degree_sequence" -> "degreeSequence".
// Parts after the first have their first character upper-cased and the rest lower-cased, so "3d" stays
// "3d": "layout_drl_3d" -> "layoutDrl3d".
func CamelCase(name string) string {
	parts := strings.Split(name, "_")
	lower := cases.Lower(language.Und)
	var sb strings.Builder
	sb.WriteString(parts[0])
	for _, part := range parts[1:] {
		sb.WriteString(UpperFirst(lower.String(part)))
	}
	return sb.String()
}

// UpperFirst upper-cases the first letter of name, keeping the rest as is.
func UpperFirst(name string) string {
	for i := range name {
		if i > 0 {
			return cases.Upper(language.Und).String(name[:i]) + name[i:]
		}
	}
	return cases.Upper(language.Und).String(name)
}
