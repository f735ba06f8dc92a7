package generators

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
)

// ListTypes is a debugging generator: it lists the type ids used by the functions, with the number of
// references, and flags those not defined in the type table.
type ListTypes struct {
	ctx *Context
}

// NewListTypes creates the type listing generator.
func NewListTypes(ctx *Context) *ListTypes {
	return &ListTypes{ctx: ctx}
}

// Family is the name used in IGNORE lists to leave a function out of the listing.
func (g *ListTypes) Family() string { return "ListTypes" }

// Generate implements Generator. Inputs are not used.
func (g *ListTypes) Generate(w io.Writer, _ []string) error {
	counts := make(map[string]int)
	for _, fn := range g.ctx.Functions.All() {
		if fn.IgnoredBy(g.Family()) {
			continue
		}
		for _, p := range fn.Params {
			counts[p.Type]++
		}
		if fn.ReturnType != "" {
			counts[fn.ReturnType]++
		}
	}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		line := fmt.Sprintf("%s\t%d", id, counts[id])
		if !g.ctx.Types.Has(id) {
			line += "\t(undefined)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return errors.Wrapf(err, "failed to write output")
		}
	}
	return nil
}
