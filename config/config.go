// Package config defines the conventions of a binding target: names, generated variable prefixes,
// result codes and housekeeping hooks, and the keys used in type files.
//
// Default returns the conventions of the igraph JNI bindings. Load reads overrides from a YAML file and
// from STIMULUS_* environment variables.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Target holds the conventions of the generated bindings.
type Target struct {
	// Package of the foreign class, e.g. "net.sf.igraph".
	Package string `mapstructure:"package"`

	// ClassName of the foreign class holding the methods, e.g. "Graph".
	ClassName string `mapstructure:"class_name"`

	// HandleType is the type id of the library's primary object, used to detect receivers.
	HandleType string `mapstructure:"handle_type"`

	// FunctionPrefix is stripped from native function names to derive method names.
	FunctionPrefix string `mapstructure:"function_prefix"`

	// NameOverrideKey is the key of function files holding the display-name override.
	NameOverrideKey string `mapstructure:"name_override_key"`

	// DefaultReturnType is the type id of the native return value of functions without an explicit
	// return type (they report results through parameters and return an error code).
	DefaultReturnType string `mapstructure:"default_return_type"`

	// Marker is the sentinel line content replaced by the generated declarations in template mode.
	Marker string `mapstructure:"marker"`

	Variables VariablesConfig `mapstructure:"variables"`
	Codes     CodesConfig     `mapstructure:"codes"`
	Hooks     HooksConfig     `mapstructure:"hooks"`
	Keys      KeysConfig      `mapstructure:"keys"`
}

// VariablesConfig holds the naming of generated local variables.
type VariablesConfig struct {
	NativePrefix  string `mapstructure:"native_prefix"`
	ForeignPrefix string `mapstructure:"foreign_prefix"`
	NativeResult  string `mapstructure:"native_result"`
	ForeignResult string `mapstructure:"foreign_result"`
}

// CodesConfig holds the native result codes used by the generated code.
type CodesConfig struct {
	Success         string `mapstructure:"success"`
	InvalidArgument string `mapstructure:"invalid_argument"`

	// Failure is the foreign result when the native call didn't succeed.
	Failure string `mapstructure:"failure"`
}

// HooksConfig holds the zero-argument routines called before and after conversions.
type HooksConfig struct {
	Setup    string `mapstructure:"setup"`
	Teardown string `mapstructure:"teardown"`
}

// KeysConfig holds the keys of the type files read for this target.
type KeysConfig struct {
	NativeType  string `mapstructure:"native_type"`
	NativeDecl  string `mapstructure:"native_decl"`
	ForeignType string `mapstructure:"foreign_type"`
	ForeignDecl string `mapstructure:"foreign_decl"`
	InConv      string `mapstructure:"in_conv"`
	OutConv     string `mapstructure:"out_conv"`
	Call        string `mapstructure:"call"`
}

// Default returns the conventions of the igraph JNI bindings.
func Default() *Target {
	return &Target{
		Package:           "net.sf.igraph",
		ClassName:         "Graph",
		HandleType:        "GRAPH",
		FunctionPrefix:    "igraph_",
		NameOverrideKey:   "NAME-JAVA",
		DefaultReturnType: "ERROR",
		Marker:            "%STIMULUS%",
		Variables: VariablesConfig{
			NativePrefix:  "c_",
			ForeignPrefix: "j_",
			NativeResult:  "c__result",
			ForeignResult: "result",
		},
		Codes: CodesConfig{
			Success:         "0",
			InvalidArgument: "IGRAPH_EINVAL",
			Failure:         "0",
		},
		Hooks: HooksConfig{
			Setup:    "Java_igraph_before",
			Teardown: "Java_igraph_after",
		},
		Keys: KeysConfig{
			NativeType:  "CTYPE",
			NativeDecl:  "CDECL",
			ForeignType: "JAVATYPE",
			ForeignDecl: "JAVADECL",
			InConv:      "INCONV",
			OutConv:     "OUTCONV",
			Call:        "CALL",
		},
	}
}

// setDefaults registers every key with its default value: viper only binds environment variables
// of known keys.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("package", d.Package)
	v.SetDefault("class_name", d.ClassName)
	v.SetDefault("handle_type", d.HandleType)
	v.SetDefault("function_prefix", d.FunctionPrefix)
	v.SetDefault("name_override_key", d.NameOverrideKey)
	v.SetDefault("default_return_type", d.DefaultReturnType)
	v.SetDefault("marker", d.Marker)

	v.SetDefault("variables.native_prefix", d.Variables.NativePrefix)
	v.SetDefault("variables.foreign_prefix", d.Variables.ForeignPrefix)
	v.SetDefault("variables.native_result", d.Variables.NativeResult)
	v.SetDefault("variables.foreign_result", d.Variables.ForeignResult)

	v.SetDefault("codes.success", d.Codes.Success)
	v.SetDefault("codes.invalid_argument", d.Codes.InvalidArgument)
	v.SetDefault("codes.failure", d.Codes.Failure)

	v.SetDefault("hooks.setup", d.Hooks.Setup)
	v.SetDefault("hooks.teardown", d.Hooks.Teardown)

	v.SetDefault("keys.native_type", d.Keys.NativeType)
	v.SetDefault("keys.native_decl", d.Keys.NativeDecl)
	v.SetDefault("keys.foreign_type", d.Keys.ForeignType)
	v.SetDefault("keys.foreign_decl", d.Keys.ForeignDecl)
	v.SetDefault("keys.in_conv", d.Keys.InConv)
	v.SetDefault("keys.out_conv", d.Keys.OutConv)
	v.SetDefault("keys.call", d.Keys.Call)
}

// Load returns the target conventions.
//
// If path is empty, it looks for an optional stimulus.yaml in the current directory, and uses the defaults
// if there is none. Otherwise, the file at path must exist. In both cases STIMULUS_<KEY> environment
// variables override the values (e.g. STIMULUS_HOOKS_SETUP for hooks.setup).
func Load(path string) (*Target, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("stimulus")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("STIMULUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrapf(err, "failed to read configuration")
		}
	}

	var target Target
	if err := v.Unmarshal(&target); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal configuration")
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	return &target, nil
}

// Validate checks that the conventions can produce valid code.
func (t *Target) Validate() error {
	required := []struct{ key, value string }{
		{"class_name", t.ClassName},
		{"handle_type", t.HandleType},
		{"default_return_type", t.DefaultReturnType},
		{"marker", t.Marker},
		{"variables.native_prefix", t.Variables.NativePrefix},
		{"variables.foreign_prefix", t.Variables.ForeignPrefix},
		{"variables.native_result", t.Variables.NativeResult},
		{"variables.foreign_result", t.Variables.ForeignResult},
		{"codes.success", t.Codes.Success},
		{"codes.invalid_argument", t.Codes.InvalidArgument},
		{"keys.native_type", t.Keys.NativeType},
		{"keys.foreign_type", t.Keys.ForeignType},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errors.Errorf("configuration %q must not be empty", r.key)
		}
	}
	if t.Variables.NativePrefix == t.Variables.ForeignPrefix {
		return errors.Errorf("native and foreign variable prefixes must differ, both are %q", t.Variables.NativePrefix)
	}
	return nil
}

// NativeVar returns the name of the native local variable generated for a parameter.
func (t *Target) NativeVar(param string) string {
	return t.Variables.NativePrefix + param
}

// ForeignVar returns the name of the foreign local variable generated for a parameter.
func (t *Target) ForeignVar(param string) string {
	return t.Variables.ForeignPrefix + param
}

// MethodName strips the function prefix from the native function name.
func (t *Target) MethodName(native string) string {
	return strings.TrimPrefix(native, t.FunctionPrefix)
}

// EntryPoint returns the exported native entry point name of a method, e.g.
// "Java_net_sf_igraph_Graph_vcount".
func (t *Target) EntryPoint(method string) string {
	parts := []string{"Java"}
	if t.Package != "" {
		parts = append(parts, strings.ReplaceAll(t.Package, ".", "_"))
	}
	parts = append(parts, t.ClassName, method)
	return strings.Join(parts, "_")
}
