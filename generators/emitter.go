package generators

import (
	"fmt"
	"io"

	"github.com/gomlx/stimulus/binding"
	"github.com/gomlx/stimulus/functions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// FunctionGenerator generates the code of one function at a time.
type FunctionGenerator interface {
	// Family is the name function descriptors use in their IGNORE lists to skip this generator.
	Family() string

	// GenerateFunction returns the code for fn. On error the function is replaced by a comment with the
	// error message.
	GenerateFunction(fn *functions.Function) (string, error)

	// Comment formats msg as a comment in the generated language, including the trailing new line.
	Comment(msg string) string
}

// Stats counts what happened to the functions of a run.
type Stats struct {
	// Generated functions had their code written.
	Generated int

	// Commented functions failed with a function-scoped error, and a comment was written instead.
	Commented int

	// Skipped functions refer to undefined types: nothing was written.
	Skipped int

	// Ignored functions asked to be ignored by the generator family.
	Ignored int
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("%d generated, %d commented, %d skipped, %d ignored", s.Generated, s.Commented, s.Skipped, s.Ignored)
}

// Emit generates all functions of the context in declaration order and writes them to w.
//
// A function referring to an undefined type is logged and skipped. A function whose generation fails is
// logged and replaced by a comment. Only errors writing to w are returned.
func Emit(w io.Writer, ctx *Context, gen FunctionGenerator) (Stats, error) {
	var stats Stats
	for _, fn := range ctx.Functions.All() {
		if fn.IgnoredBy(gen.Family()) {
			klog.V(2).Infof("%s: ignored by %s", fn.Name, gen.Family())
			stats.Ignored++
			continue
		}
		if err := ctx.CheckTypes(fn); err != nil {
			klog.Errorf("Skipping function: %v", err)
			stats.Skipped++
			continue
		}

		text, err := gen.GenerateFunction(fn)
		if err != nil {
			if kind, ok := binding.KindOf(err); ok {
				klog.Errorf("%s (%s)", err, kind)
			} else {
				klog.Errorf("Failed to generate %s: %+v", fn.Name, err)
			}
			text = gen.Comment(err.Error())
			stats.Commented++
		} else {
			klog.V(2).Infof("%s: generated", fn.Name)
			stats.Generated++
		}
		if _, err = io.WriteString(w, text); err != nil {
			return stats, errors.Wrapf(err, "failed to write output for %s", fn.Name)
		}
	}
	klog.V(1).Infof("%s: %s", gen.Family(), stats)
	return stats, nil
}
