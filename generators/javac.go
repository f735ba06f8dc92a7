package generators

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gomlx/stimulus/binding"
	"github.com/gomlx/stimulus/functions"
	"github.com/gomlx/stimulus/templates"
	"github.com/gomlx/stimulus/typetable"
	"github.com/pkg/errors"
)

// JavaC generates the JNI C glue: one exported C function per native function, converting the
// arguments from Java, calling the library and converting the results back.
//
// Each function is assembled from chunks (header, declarations, setup, input conversion, call,
// output conversion, teardown) filled into a fixed template.
type JavaC struct {
	ctx *Context
}

// NewJavaC creates the JNI C glue generator.
func NewJavaC(ctx *Context) *JavaC {
	return &JavaC{ctx: ctx}
}

// Family implements FunctionGenerator.
func (g *JavaC) Family() string { return "JavaC" }

// Comment implements FunctionGenerator.
func (g *JavaC) Comment(msg string) string {
	return "/* " + strings.ReplaceAll(msg, "*/", "* /") + " */\n"
}

// Generate implements Generator. The inputs are copied verbatim before the generated functions.
func (g *JavaC) Generate(w io.Writer, inputs []string) error {
	for _, input := range inputs {
		if err := copyFile(w, input); err != nil {
			return err
		}
	}
	_, err := Emit(w, g.ctx, g)
	return err
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open input")
	}
	defer func() { _ = f.Close() }()
	if _, err = io.Copy(w, f); err != nil {
		return errors.Wrapf(err, "failed to copy input %q", path)
	}
	return nil
}

// functionTemplate receives, in order: native function name, header, declarations, setup, input
// conversion, call, output conversion, teardown and the name of the result variable.
const functionTemplate = `
/*-------------------------------------------/
/ %-42s /
/-------------------------------------------*/
%s {
                                        /* Declarations */
%s

%s
                                        /* Convert input */
%s
                                        /* Call library */
%s
                                        /* Convert output */
%s

%s

  return %s;
}
`

// GenerateFunction implements FunctionGenerator.
func (g *JavaC) GenerateFunction(fn *functions.Function) (string, error) {
	md, err := binding.Resolve(fn, g.ctx.Types, g.ctx.Target, typetable.Foreign)
	if err != nil {
		return "", err
	}
	a := &assembler{ctx: g.ctx, fn: fn, md: md}
	decl, err := a.declarations()
	if err != nil {
		return "", err
	}
	inConv, err := a.inputConversion()
	if err != nil {
		return "", err
	}
	call, err := a.call()
	if err != nil {
		return "", err
	}
	outConv, err := a.outputConversion()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(functionTemplate, fn.Name, a.header(), decl, a.setup(), inConv, call, outConv, a.teardown(),
		g.ctx.Target.Variables.ForeignResult), nil
}

// assembler builds the chunks of one function. Each chunk is derived only from the resolved metadata,
// the function descriptor and the type table.
type assembler struct {
	ctx *Context
	fn  *functions.Function
	md  *binding.Metadata
}

const indent = "  "

// descriptor returns the type descriptor of the type id, or an UnknownType error.
func (a *assembler) descriptor(id string) (*typetable.Descriptor, error) {
	d, found := a.ctx.Types.Lookup(id)
	if !found {
		return nil, binding.Errorf(binding.UnknownType, a.fn.Name, "unknown type %s, skipping", id)
	}
	return d, nil
}

// header is the signature of the exported entry point.
func (a *assembler) header() string {
	args := []string{"JNIEnv *env"}
	if a.md.IsStatic {
		args = append(args, "jclass cls")
	} else {
		args = append(args, "jobject "+a.md.Receiver)
	}
	args = append(args, a.md.ArgumentDecls()...)
	return fmt.Sprintf("JNIEXPORT %s JNICALL %s(%s)",
		a.md.ReturnTypeName, a.ctx.Target.EntryPoint(a.md.Name), strings.Join(args, ", "))
}

// declare renders the declaration of a variable in the representation rep: the full declaration
// template if there is one, "<type name> <variable>;" otherwise. It returns false if the type has no
// rule for the representation.
func declare(repr typetable.Repr, variable string, bindings templates.Bindings) (string, bool) {
	if decl, ok := repr.Decl.Render(bindings); ok {
		return decl, true
	}
	if typeName, ok := repr.TypeName.Text(); ok {
		return typeName + " " + variable + ";", true
	}
	return "", false
}

// declarations declares: a native variable for every parameter, a foreign variable for OUT parameters,
// the native return value, the foreign result and, for instance methods returning a new handle, the
// class of the receiver.
func (a *assembler) declarations() (string, error) {
	target := a.ctx.Target
	var lines []string
	add := func(line string, ok bool) {
		if ok && line != "" {
			lines = append(lines, indent+line)
		}
	}

	for _, p := range a.fn.Params {
		d, err := a.descriptor(p.Type)
		if err != nil {
			return "", err
		}
		cName := target.NativeVar(p.Name)
		decl, ok := declare(d.Native, cName, templates.Bindings{templates.Native: cName, templates.Ident: p.Name})
		if !ok {
			return "", binding.Errorf(binding.UnknownType, a.fn.Name, "unknown type %s of %q (needs %s), skipping",
				p.Type, p.Name, target.Keys.NativeType)
		}
		add(decl, ok)
	}
	for _, p := range a.fn.ParamsWithMode(functions.OUT) {
		d, err := a.descriptor(p.Type)
		if err != nil {
			return "", err
		}
		jName := target.ForeignVar(p.Name)
		add(declare(d.Foreign, jName, templates.Bindings{templates.Foreign: jName, templates.Ident: p.Name}))
	}

	// Functions reporting through parameters return an error code.
	nativeReturnType := a.fn.ReturnType
	if nativeReturnType == "" {
		nativeReturnType = target.DefaultReturnType
	}
	d, err := a.descriptor(nativeReturnType)
	if err != nil {
		return "", err
	}
	nativeResult, foreignResult := target.Variables.NativeResult, target.Variables.ForeignResult
	decl, ok := declare(d.Native, nativeResult, templates.Bindings{templates.Native: nativeResult, templates.Ident: foreignResult})
	if !ok {
		return "", binding.Errorf(binding.UnknownType, a.fn.Name, "unknown return type %s (needs %s), skipping",
			nativeReturnType, target.Keys.NativeType)
	}
	add(decl, ok)

	d, err = a.descriptor(a.md.ReturnType)
	if err != nil {
		return "", err
	}
	add(declare(d.Foreign, foreignResult, templates.Bindings{templates.Foreign: foreignResult, templates.Ident: foreignResult}))

	if !a.md.IsStatic && a.md.ReturnType == target.HandleType {
		add(fmt.Sprintf("jclass cls = (*env)->GetObjectClass(env, %s);", a.md.Receiver), true)
	}
	return strings.Join(lines, "\n"), nil
}

func (a *assembler) setup() string {
	return indent + a.ctx.Target.Hooks.Setup + "();"
}

func (a *assembler) teardown() string {
	return indent + a.ctx.Target.Hooks.Teardown + "();"
}

// inputConversion renders the input conversion of every parameter, whatever its mode: OUT parameters may
// need allocations here. Dependencies are bound to %C1%, %C2%, ... in declaration order.
func (a *assembler) inputConversion() (string, error) {
	target := a.ctx.Target
	var lines []string
	for _, p := range a.fn.Params {
		d, err := a.descriptor(p.Type)
		if err != nil {
			return "", err
		}
		bindings := templates.Bindings{templates.Native: target.NativeVar(p.Name), templates.Ident: p.Name}
		for i, dep := range a.fn.Dependencies(p.Name) {
			bindings[templates.Dependency(i+1)] = target.NativeVar(dep)
		}
		if text, ok := d.Conversion(typetable.InConv, p.Mode).Render(bindings); ok && text != "" {
			lines = append(lines, indent+text)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// call invokes the native function over all parameters, unless a Java exception is already pending.
func (a *assembler) call() (string, error) {
	target := a.ctx.Target
	args := make([]string, 0, len(a.fn.Params))
	for _, p := range a.fn.Params {
		d, err := a.descriptor(p.Type)
		if err != nil {
			return "", err
		}
		cName := target.NativeVar(p.Name)
		arg, ok := d.Call.Render(templates.Bindings{templates.Native: cName, templates.Ident: p.Name})
		if !ok {
			arg = cName
		}
		args = append(args, arg)
	}
	nativeResult := target.Variables.NativeResult
	lines := []string{
		"  if ((*env)->ExceptionCheck(env)) {",
		fmt.Sprintf("    %s = %s;", nativeResult, target.Codes.InvalidArgument),
		"  } else {",
		fmt.Sprintf("    %s = %s(%s);", nativeResult, a.fn.Name, strings.Join(args, ", ")),
		"  }",
	}
	return strings.Join(lines, "\n"), nil
}

// outputConversion renders the output conversion of every parameter (which also releases what the input
// conversion allocated), and then sets the foreign result:
//
//   - without outputs, from the output conversion of the native return value;
//   - with a single output, from that output, if the native call succeeded.
func (a *assembler) outputConversion() (string, error) {
	target := a.ctx.Target
	var lines []string
	for _, p := range a.fn.Params {
		d, err := a.descriptor(p.Type)
		if err != nil {
			return "", err
		}
		jName := target.ForeignVar(p.Name)
		bindings := templates.Bindings{templates.Native: target.NativeVar(p.Name), templates.Ident: jName, templates.Foreign: jName}
		if text, ok := d.Conversion(typetable.OutConv, p.Mode).Render(bindings); ok && text != "" {
			lines = append(lines, indent+text)
		}
	}

	nativeResult, foreignResult := target.Variables.NativeResult, target.Variables.ForeignResult
	outputs := a.fn.Outputs()
	switch len(outputs) {
	case 0:
		d, err := a.descriptor(a.md.ReturnType)
		if err != nil {
			return "", err
		}
		bindings := templates.Bindings{templates.Native: nativeResult, templates.Ident: foreignResult, templates.Foreign: foreignResult}
		if text, ok := d.Conversion(typetable.OutConv, functions.OUT).Render(bindings); ok && text != "" {
			lines = append(lines, indent+text)
		}
		return strings.Join(lines, "\n"), nil

	case 1:
		out := outputs[0]
		if out.Mode == functions.OUT {
			lines = append(lines, fmt.Sprintf("%s%s = %s;", indent, foreignResult, target.ForeignVar(out.Name)))
		} else {
			lines = append(lines, fmt.Sprintf("%s%s = %s;", indent, foreignResult, out.Name))
		}
		guarded := make([]string, 0, len(lines)+4)
		guarded = append(guarded, fmt.Sprintf("if (%s == %s) {", nativeResult, target.Codes.Success))
		guarded = append(guarded, lines...)
		guarded = append(guarded,
			"} else {",
			fmt.Sprintf("%s%s = %s;", indent, foreignResult, target.Codes.Failure),
			"}")
		for i, line := range guarded {
			guarded[i] = indent + line
		}
		return strings.Join(guarded, "\n"), nil

	default:
		return "", binding.Errorf(binding.UnsupportedCallingConvention, a.fn.Name,
			"the case of multiple outputs is not supported")
	}
}
