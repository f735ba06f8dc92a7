// stimulus generates the bindings of a C library (igraph) for another language, from YAML files
// describing the library's types and functions.
//
// Example, generating the JNI C glue:
//
//	stimulus -l java:c -t types-C.yaml -t types-Java.yaml -f functions.yaml -i prelude.c -o igraph_java.c
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gomlx/stimulus/config"
	"github.com/gomlx/stimulus/generators"
	"github.com/gomlx/stimulus/loader"
	"github.com/janpfeifer/gonb/common"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// pathList is a repeatable flag of file paths.
type pathList []string

func (l *pathList) String() string {
	return strings.Join(*l, ",")
}

func (l *pathList) Set(value string) error {
	if value == "" {
		return errors.New("empty path")
	}
	*l = append(*l, common.ReplaceTildeInDir(value))
	return nil
}

var (
	flagGenerator = flag.String("l", "", "Generator to use, e.g. \"java:c\". See -list for the available ones.")
	flagOutput    = flag.String("o", "", "Output file. If empty, output goes to stdout.")
	flagConfig    = flag.String("c", "", "Configuration file (YAML) of the target conventions. "+
		"If empty, ./stimulus.yaml is used if present, otherwise the igraph Java defaults.")
	flagList = flag.Bool("list", false, "List the available generators and exit.")

	flagTypes, flagFunctions, flagInputs pathList
)

func init() {
	flag.Var(&flagTypes, "t", "Type file (YAML). Can be repeated: later files override types of earlier ones.")
	flag.Var(&flagFunctions, "f", "Function file (YAML). Can be repeated: later files override functions of earlier ones.")
	flag.Var(&flagInputs, "i", "Input file of the generator (prelude for java:c, class template for java:java). Can be repeated.")
}

// options of one run of the generator.
type options struct {
	Generator  string
	Output     string
	ConfigPath string
	Types      []string
	Functions  []string
	Inputs     []string
}

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `stimulus generates language bindings of igraph from YAML descriptions
of its types (-t) and functions (-f), using the generator selected with -l.

Usage:
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	registry := generators.NewRegistry()
	if *flagList {
		for _, name := range registry.Names() {
			must.M1(fmt.Println(name))
		}
		return
	}

	opts := options{
		Generator:  *flagGenerator,
		Output:     common.ReplaceTildeInDir(*flagOutput),
		ConfigPath: common.ReplaceTildeInDir(*flagConfig),
		Types:      flagTypes,
		Functions:  flagFunctions,
		Inputs:     flagInputs,
	}
	if err := run(registry, opts); err != nil {
		klog.Fatalf("Error: %+v", err)
	}
}

// run loads the configuration, types and functions, and writes the output of the selected generator.
func run(registry *generators.Registry, opts options) (err error) {
	if opts.Generator == "" {
		return errors.Errorf("no generator selected (-l), valid values are %q", registry.Names())
	}
	if !registry.Has(opts.Generator) {
		return errors.Errorf("unknown generator %q, valid values are %q", opts.Generator, registry.Names())
	}
	if len(opts.Types) == 0 || len(opts.Functions) == 0 {
		return errors.New("at least one type file (-t) and one function file (-f) are required")
	}

	target, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	types, err := loader.LoadTypes(target.Keys, opts.Types...)
	if err != nil {
		return err
	}
	fns, err := loader.LoadFunctions(target, opts.Functions...)
	if err != nil {
		return err
	}
	klog.V(1).Infof("Loaded %d types and %d functions", types.Len(), fns.Len())
	ctx, err := generators.NewContext(types, fns, target)
	if err != nil {
		return err
	}
	gen, err := registry.New(opts.Generator, ctx)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if opts.Output != "" {
		var f *os.File
		f, err = os.Create(opts.Output)
		if err != nil {
			return errors.Wrapf(err, "failed to create output file")
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = errors.Wrapf(closeErr, "failed to close output file %q", opts.Output)
			}
		}()
		out = f
	}
	w := bufio.NewWriter(out)
	if err = gen.Generate(w, opts.Inputs); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return errors.Wrapf(err, "failed to write output")
	}
	return nil
}
