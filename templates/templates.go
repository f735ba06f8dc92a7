// Package templates implements the placeholder substitution used by the type table's declaration,
// conversion and call templates.
//
// Templates are opaque text with a small closed set of placeholders:
//
//   - %C% is replaced by the generated native variable name (e.g. "c_graph").
//   - %I% is replaced by the identifier of the value (parameter name, or foreign variable in output conversions).
//   - %J% is replaced by the generated foreign variable name (e.g. "j_graph").
//   - %C1%, %C2%, ... are replaced by the native variable names of the declared dependencies, in order.
//
// Any other text, including unknown placeholders, is left untouched.
package templates

import (
	"fmt"
	"sort"
	"strings"
)

// Key identifies one placeholder recognized in templates.
type Key string

const (
	// Native is the placeholder %C%, for the generated native variable name.
	Native Key = "C"

	// Ident is the placeholder %I%, for the identifier of the value.
	Ident Key = "I"

	// Foreign is the placeholder %J%, for the generated foreign variable name.
	Foreign Key = "J"
)

// Dependency returns the key of the i-th dependency placeholder (%C1%, %C2%, ...). It is 1-based.
func Dependency(i int) Key {
	if i < 1 {
		panic(fmt.Sprintf("templates.Dependency(%d): index is 1-based", i))
	}
	return Key(fmt.Sprintf("C%d", i))
}

// Placeholder returns the text of the placeholder as it appears in a template, e.g. "%C%".
func (k Key) Placeholder() string {
	return "%" + string(k) + "%"
}

// Bindings maps placeholders to the text that replaces them.
type Bindings map[Key]string

// Substitute replaces every bound placeholder in template by its value.
//
// Substitution is a single left-to-right pass: replaced text is never scanned again, so values may
// safely contain "%" characters. Unbound placeholders are kept as is.
func Substitute(template string, bindings Bindings) string {
	if len(bindings) == 0 || !strings.Contains(template, "%") {
		return template
	}
	// Sorted keys make the replacer deterministic.
	keys := make([]Key, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	oldNew := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		oldNew = append(oldNew, k.Placeholder(), bindings[k])
	}
	return strings.NewReplacer(oldNew...).Replace(template)
}

// Template is an optional template text. The zero value is an absent template, which is different
// from a present but empty one.
type Template struct {
	text  string
	valid bool
}

// None is the absent template.
var None = Template{}

// Of returns a present template with the given text.
func Of(text string) Template {
	return Template{text: text, valid: true}
}

// Ok returns whether the template is present.
func (t Template) Ok() bool {
	return t.valid
}

// Text returns the raw template text and whether it is present.
func (t Template) Text() (string, bool) {
	return t.text, t.valid
}

// Render substitutes the bindings into the template. It returns false if the template is absent.
func (t Template) Render(bindings Bindings) (string, bool) {
	if !t.valid {
		return "", false
	}
	return Substitute(t.text, bindings), true
}

// String implements fmt.Stringer.
func (t Template) String() string {
	if !t.valid {
		return "<none>"
	}
	return fmt.Sprintf("%q", t.text)
}
