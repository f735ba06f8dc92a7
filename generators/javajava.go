package generators

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gomlx/stimulus/binding"
	"github.com/gomlx/stimulus/functions"
	"github.com/gomlx/stimulus/typetable"
	"github.com/pkg/errors"
)

// JavaJava generates the Java side: one native method declaration per function, inserted in a template
// file in place of the marker line.
type JavaJava struct {
	ctx *Context
}

// NewJavaJava creates the Java declarations generator.
func NewJavaJava(ctx *Context) *JavaJava {
	return &JavaJava{ctx: ctx}
}

// Family implements FunctionGenerator.
func (g *JavaJava) Family() string { return "JavaJava" }

// Comment implements FunctionGenerator.
func (g *JavaJava) Comment(msg string) string {
	return "    // " + msg + "\n"
}

// GenerateFunction implements FunctionGenerator.
func (g *JavaJava) GenerateFunction(fn *functions.Function) (string, error) {
	md, err := binding.Resolve(fn, g.ctx.Types, g.ctx.Target, typetable.Foreign)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("    %s native %s %s(%s);\n",
		md.ModifiersString(), md.ReturnTypeName, md.Name, strings.Join(md.ArgumentDecls(), ", ")), nil
}

// Generate implements Generator. It requires exactly one input, the template: lines containing the
// marker are replaced by the declarations, other lines are copied unchanged.
func (g *JavaJava) Generate(w io.Writer, inputs []string) error {
	if len(inputs) != 1 {
		return errors.Errorf("the Java declarations generator requires exactly one input (the template), got %d", len(inputs))
	}
	f, err := os.Open(inputs[0])
	if err != nil {
		return errors.Wrapf(err, "failed to open template")
	}
	defer func() { _ = f.Close() }()
	return g.expand(w, f)
}

func (g *JavaJava) expand(w io.Writer, template io.Reader) error {
	r := bufio.NewReader(template)
	for {
		line, readErr := r.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return errors.Wrapf(readErr, "failed to read template")
		}
		if strings.Contains(line, g.ctx.Target.Marker) {
			if _, err := Emit(w, g.ctx, g); err != nil {
				return err
			}
		} else if line != "" {
			if _, err := io.WriteString(w, line); err != nil {
				return errors.Wrapf(err, "failed to write output")
			}
		}
		if readErr == io.EOF {
			return nil
		}
	}
}
