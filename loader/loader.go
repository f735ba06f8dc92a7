// Package loader reads type files and function files (YAML) into a typetable.Table and a functions.Set.
//
// A type file maps type ids to their rules, using the keys configured in config.KeysConfig:
//
//	GRAPH:
//	  CTYPE: igraph_t
//	  JAVATYPE: jobject
//	  INCONV:
//	    IN: if (Java_igraph_to_graph(env, %I%, &%C%)) { return NULL; }
//	  CALL: "&%C%"
//
// A function file maps native function names to their descriptors:
//
//	igraph_degree:
//	  PARAMS: GRAPH graph, OUT VECTOR_INT res, VERTEX_SELECTOR vids, NEIMODE mode=ALL
//	  DEPS: vids ON graph
//	  NAME-JAVA: degrees
//	  IGNORE: RR
//	igraph_vcount:
//	  PARAMS: GRAPH graph
//	  RETURN: INTEGER
//
// Mapping order is preserved: functions are generated in file order.
package loader

import (
	"os"
	"strings"

	"github.com/gomlx/stimulus/config"
	"github.com/gomlx/stimulus/functions"
	"github.com/gomlx/stimulus/templates"
	"github.com/gomlx/stimulus/typetable"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

// Keys of function files, other than the display-name override whose key is configurable.
const (
	ParamsKey = "PARAMS"
	ReturnKey = "RETURN"
	DepsKey   = "DEPS"
	IgnoreKey = "IGNORE"
)

// LoadTypes reads the type files in order. Types defined in later files replace those defined earlier.
func LoadTypes(keys config.KeysConfig, paths ...string) (*typetable.Table, error) {
	var all []*typetable.Descriptor
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading type file")
		}
		descriptors, err := ParseTypes(keys, data, path)
		if err != nil {
			return nil, err
		}
		klog.V(1).Infof("loaded %d types from %q", len(descriptors), path)
		all = append(all, descriptors...)
	}
	return typetable.New(all...)
}

// ParseTypes parses the contents of one type file. The path is only used in error messages.
func ParseTypes(keys config.KeysConfig, data []byte, path string) ([]*typetable.Descriptor, error) {
	root, err := parseDocument(data, path)
	if err != nil || root == nil {
		return nil, err
	}
	var descriptors []*typetable.Descriptor
	err = forEachEntry(root, path, func(id string, node *yaml.Node) error {
		d, err := parseType(keys, id, node, path)
		if err != nil {
			return err
		}
		descriptors = append(descriptors, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return descriptors, nil
}

func parseType(keys config.KeysConfig, id string, node *yaml.Node, path string) (*typetable.Descriptor, error) {
	d := &typetable.Descriptor{ID: id}
	if isNull(node) {
		return d, nil
	}
	err := forEachEntry(node, path, func(key string, value *yaml.Node) error {
		var err error
		switch key {
		case keys.NativeType:
			d.Native.TypeName, err = scalarTemplate(value, path)
		case keys.NativeDecl:
			d.Native.Decl, err = scalarTemplate(value, path)
		case keys.ForeignType:
			d.Foreign.TypeName, err = scalarTemplate(value, path)
		case keys.ForeignDecl:
			d.Foreign.Decl, err = scalarTemplate(value, path)
		case keys.Call:
			d.Call, err = scalarTemplate(value, path)
		case keys.InConv:
			d.InConv, err = parseConversions(value, path)
		case keys.OutConv:
			d.OutConv, err = parseConversions(value, path)
		default:
			// Keys of other targets.
		}
		return err
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "type %s", id)
	}
	return d, nil
}

// parseConversions parses a mapping from passing mode to conversion template.
func parseConversions(node *yaml.Node, path string) (map[functions.Mode]templates.Template, error) {
	if isNull(node) {
		return nil, nil
	}
	convs := make(map[functions.Mode]templates.Template)
	err := forEachEntry(node, path, func(key string, value *yaml.Node) error {
		mode, err := functions.ModeString(key)
		if err != nil {
			return errors.Errorf("%s:%d: invalid conversion mode %q", path, value.Line, key)
		}
		convs[mode], err = scalarTemplate(value, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// LoadFunctions reads the function files in order. A function defined again in a later file replaces the
// earlier definition, keeping its original position.
func LoadFunctions(target *config.Target, paths ...string) (*functions.Set, error) {
	var all []*functions.Function
	position := make(map[string]int)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading function file")
		}
		fns, err := ParseFunctions(target.NameOverrideKey, data, path)
		if err != nil {
			return nil, err
		}
		klog.V(1).Infof("loaded %d functions from %q", len(fns), path)
		for _, fn := range fns {
			if idx, found := position[fn.Name]; found {
				all[idx] = fn
				continue
			}
			position[fn.Name] = len(all)
			all = append(all, fn)
		}
	}
	return functions.NewSet(all...)
}

// ParseFunctions parses the contents of one function file. nameKey is the key of the display-name
// override (e.g. "NAME-JAVA"). The path is only used in error messages.
func ParseFunctions(nameKey string, data []byte, path string) ([]*functions.Function, error) {
	root, err := parseDocument(data, path)
	if err != nil || root == nil {
		return nil, err
	}
	var fns []*functions.Function
	seen := make(map[string]bool)
	err = forEachEntry(root, path, func(name string, node *yaml.Node) error {
		if seen[name] {
			return errors.Errorf("%s:%d: function %s defined more than once", path, node.Line, name)
		}
		seen[name] = true
		fn, err := parseFunction(nameKey, name, node, path)
		if err != nil {
			return errors.WithMessagef(err, "%s:%d: function %s", path, node.Line, name)
		}
		if err = fn.Validate(); err != nil {
			return errors.WithMessagef(err, "%s:%d", path, node.Line)
		}
		fns = append(fns, fn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fns, nil
}

func parseFunction(nameKey, name string, node *yaml.Node, path string) (*functions.Function, error) {
	fn := &functions.Function{Name: name}
	if isNull(node) {
		return fn, nil
	}
	err := forEachEntry(node, path, func(key string, value *yaml.Node) error {
		if key == IgnoreKey {
			var err error
			fn.Ignore, err = stringList(value, path)
			return err
		}
		if key != ParamsKey && key != ReturnKey && key != DepsKey && key != nameKey {
			// Other targets' keys.
			return nil
		}
		text, err := scalar(value, path)
		if err != nil {
			return err
		}
		switch key {
		case ParamsKey:
			fn.Params, err = ParseParams(text)
		case ReturnKey:
			fn.ReturnType = strings.TrimSpace(text)
		case DepsKey:
			fn.Deps, err = ParseDeps(text)
		default:
			fn.DisplayName = strings.TrimSpace(text)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return fn, nil
}

// ParseParams parses a comma-separated parameter list, each parameter in the form "[MODE] TYPE name[=default]".
// The mode defaults to IN. Commas inside brackets or quotes, as in default values, don't separate parameters.
func ParseParams(text string) ([]functions.Param, error) {
	var params []functions.Param
	for _, item := range splitTopLevel(text, ',') {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		decl, defaultValue, _ := strings.Cut(item, "=")
		p := functions.Param{Default: strings.TrimSpace(defaultValue)}
		fields := strings.Fields(decl)
		switch len(fields) {
		case 2:
			p.Type, p.Name = fields[0], fields[1]
		case 3:
			mode, err := functions.ModeString(fields[0])
			if err != nil {
				return nil, errors.Errorf("parameter %q: unknown mode %q", item, fields[0])
			}
			p.Mode, p.Type, p.Name = mode, fields[1], fields[2]
		default:
			return nil, errors.Errorf("parameter %q: expected \"[MODE] TYPE name\"", item)
		}
		params = append(params, p)
	}
	return params, nil
}

// ParseDeps parses a comma-separated dependency list, each in the form "name ON dep1 dep2 ...".
func ParseDeps(text string) (map[string][]string, error) {
	deps := make(map[string][]string)
	for _, item := range strings.Split(text, ",") {
		fields := strings.Fields(item)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 || fields[1] != "ON" {
			return nil, errors.Errorf("dependency %q: expected \"name ON dep1 dep2 ...\"", strings.TrimSpace(item))
		}
		if _, found := deps[fields[0]]; found {
			return nil, errors.Errorf("dependencies of %q declared more than once", fields[0])
		}
		deps[fields[0]] = fields[2:]
	}
	if len(deps) == 0 {
		return nil, nil
	}
	return deps, nil
}

// splitTopLevel splits text on sep, except when sep is inside (), [], {} or quotes.
func splitTopLevel(text string, sep rune) []string {
	var (
		parts []string
		depth int
		quote rune
		start int
	)
	for i, r := range text {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			if depth > 0 {
				depth--
			}
		case r == sep && depth == 0:
			parts = append(parts, text[start:i])
			start = i + 1
		}
	}
	return append(parts, text[start:])
}

// parseDocument returns the top-level mapping node, or nil for an empty document.
func parseDocument(data []byte, path string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if isNull(root) {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.Errorf("%s:%d: expected a mapping at the top level", path, root.Line)
	}
	return root, nil
}

// forEachEntry calls fn for each key/value pair of a mapping node, in order.
func forEachEntry(node *yaml.Node, path string, fn func(key string, value *yaml.Node) error) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("%s:%d: expected a mapping", path, node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return errors.Errorf("%s:%d: expected a scalar key", path, key.Line)
		}
		if err := fn(key.Value, value); err != nil {
			return err
		}
	}
	return nil
}

func isNull(node *yaml.Node) bool {
	return node == nil || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}

func scalar(node *yaml.Node, path string) (string, error) {
	if isNull(node) {
		return "", nil
	}
	if node.Kind != yaml.ScalarNode {
		return "", errors.Errorf("%s:%d: expected a scalar value", path, node.Line)
	}
	return node.Value, nil
}

// scalarTemplate returns a present template for a scalar value, and an absent one for a null value.
func scalarTemplate(node *yaml.Node, path string) (templates.Template, error) {
	if isNull(node) {
		return templates.None, nil
	}
	text, err := scalar(node, path)
	if err != nil {
		return templates.None, err
	}
	return templates.Of(text), nil
}

// stringList accepts either a comma-separated scalar or a sequence of scalars.
func stringList(node *yaml.Node, path string) ([]string, error) {
	var items []string
	switch {
	case isNull(node):
		return nil, nil
	case node.Kind == yaml.SequenceNode:
		for _, item := range node.Content {
			text, err := scalar(item, path)
			if err != nil {
				return nil, err
			}
			items = append(items, strings.TrimSpace(text))
		}
	default:
		text, err := scalar(node, path)
		if err != nil {
			return nil, err
		}
		for _, item := range strings.Split(text, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
	}
	return items, nil
}
