package generators

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/gomlx/stimulus/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// section returns the indented section title line of the function template.
func section(title string) string {
	return strings.Repeat(" ", 40) + "/* " + title + " */"
}

func TestJavaC_VCount(t *testing.T) {
	ctx := newTestContext(t, "igraph_vcount:\n  PARAMS: GRAPH graph\n  RETURN: INTEGER\n")
	fn, _ := ctx.Functions.Get("igraph_vcount")
	got, err := NewJavaC(ctx).GenerateFunction(fn)
	require.NoError(t, err)

	want := strings.Join([]string{
		"",
		"/*-------------------------------------------/",
		fmt.Sprintf("/ %-42s /", "igraph_vcount"),
		"/-------------------------------------------*/",
		"JNIEXPORT jlong JNICALL Java_net_sf_igraph_Graph_vcount(JNIEnv *env, jobject graph) {",
		section("Declarations"),
		"  igraph_t c_graph;",
		"  igraph_integer_t c__result;",
		"  jlong result;",
		"",
		"  Java_igraph_before();",
		section("Convert input"),
		"  if (Java_igraph_to_graph(env, graph, &c_graph)) { return NULL; }",
		section("Call library"),
		"  if ((*env)->ExceptionCheck(env)) {",
		"    c__result = IGRAPH_EINVAL;",
		"  } else {",
		"    c__result = igraph_vcount(&c_graph);",
		"  }",
		section("Convert output"),
		"  result = (jlong) c__result;",
		"",
		"  Java_igraph_after();",
		"",
		"  return result;",
		"}",
		"",
	}, "\n")
	require.Equal(t, want, got)
}

func TestJavaC_PlainCallArguments(t *testing.T) {
	// Without a CALL rule the native variable is passed as is.
	types := strings.Replace(testTypesYAML, "  CALL: '&%C%'\nINTEGER:", "INTEGER:", 1)
	require.NotEqual(t, testTypesYAML, types)
	ctx := newTestContextWithTypes(t, types, "igraph_vcount:\n  PARAMS: GRAPH graph\n  RETURN: INTEGER\n")
	fn, _ := ctx.Functions.Get("igraph_vcount")
	got, err := NewJavaC(ctx).GenerateFunction(fn)
	require.NoError(t, err)
	require.Contains(t, got, "JNIEXPORT jlong JNICALL Java_net_sf_igraph_Graph_vcount(JNIEnv *env, jobject graph) {\n")
	require.Contains(t, got, "\n    c__result = igraph_vcount(c_graph);\n")
	require.Contains(t, got, "\n  igraph_t c_graph;\n")
}

func TestJavaC_MissingNativeType(t *testing.T) {
	types := testTypesYAML + "JONLY:\n  JAVATYPE: jlong\n"
	ctx := newTestContextWithTypes(t, types, `
igraph_f:
  PARAMS: GRAPH graph, JONLY x
  RETURN: INTEGER
igraph_g:
  PARAMS: GRAPH graph
  RETURN: JONLY
igraph_vcount:
  PARAMS: GRAPH graph
  RETURN: INTEGER
`)
	gen := NewJavaC(ctx)

	fn, _ := ctx.Functions.Get("igraph_f")
	_, err := gen.GenerateFunction(fn)
	kind, ok := binding.KindOf(err)
	require.True(t, ok)
	require.Equal(t, binding.UnknownType, kind)
	require.ErrorContains(t, err, `unknown type JONLY of "x" (needs CTYPE)`)

	fn, _ = ctx.Functions.Get("igraph_g")
	_, err = gen.GenerateFunction(fn)
	kind, _ = binding.KindOf(err)
	require.Equal(t, binding.UnknownType, kind)
	require.ErrorContains(t, err, "unknown return type JONLY (needs CTYPE)")

	// Both become comments, and no call is generated for them.
	var buf bytes.Buffer
	stats, err := Emit(&buf, ctx, gen)
	require.NoError(t, err)
	require.Equal(t, Stats{Generated: 1, Commented: 2}, stats)
	require.NotContains(t, buf.String(), "igraph_f(")
	require.NotContains(t, buf.String(), "igraph_g(")
	require.Contains(t, buf.String(), "/* igraph_f: unknown type JONLY of \"x\" (needs CTYPE), skipping */\n")
}

func TestJavaC_SingleOutput(t *testing.T) {
	ctx := newTestContext(t, testFunctionsYAML)
	fn, _ := ctx.Functions.Get("igraph_degree")
	got, err := NewJavaC(ctx).GenerateFunction(fn)
	require.NoError(t, err)

	require.Contains(t, got,
		"JNIEXPORT jobject JNICALL Java_net_sf_igraph_Graph_degrees(JNIEnv *env, jobject graph, jobject vids, jboolean loops) {")
	require.Contains(t, got, strings.Join([]string{
		section("Declarations"),
		"  igraph_t c_graph;",
		"  igraph_vector_int_t c_res;",
		"  igraph_vs_t c_vids;",
		"  igraph_bool_t c_loops;",
		"  jobject j_res;",
		"  igraph_error_t c__result;",
		"  jobject result;",
		"",
	}, "\n"))

	// Dependencies are bound in declaration order.
	require.Contains(t, got, "  Java_igraph_vs_init(&c_vids, env, vids, &c_graph);\n")
	require.Contains(t, got, "    c__result = igraph_degree(&c_graph, &c_res, c_vids, c_loops);\n")

	// The result is only taken from the output if the call succeeded.
	require.Contains(t, got, strings.Join([]string{
		section("Convert output"),
		"    if (c__result == 0) {",
		"      j_res = Java_igraph_from_vector_int(env, &c_res); igraph_vector_int_destroy(&c_res);",
		"      igraph_vs_destroy(&c_vids);",
		"      result = j_res;",
		"    } else {",
		"      result = 0;",
		"    }",
		"",
	}, "\n"))
	require.NotContains(t, got, "GetObjectClass")
}

func TestJavaC_Constructor(t *testing.T) {
	ctx := newTestContext(t, testFunctionsYAML)
	fn, _ := ctx.Functions.Get("igraph_empty")
	got, err := NewJavaC(ctx).GenerateFunction(fn)
	require.NoError(t, err)

	require.Contains(t, got,
		"JNIEXPORT jobject JNICALL Java_net_sf_igraph_Graph_empty(JNIEnv *env, jobject graph, jlong n, jboolean directed) {")
	require.Contains(t, got, "  jobject j_graph;\n")
	require.Contains(t, got, "  jclass cls = (*env)->GetObjectClass(env, graph);\n")
	require.Contains(t, got, "      j_graph = Java_igraph_from_graph(env, cls, &c_graph);\n      result = j_graph;\n")
	require.Contains(t, got, "    c__result = igraph_empty(&c_graph, c_n, c_directed);\n")
}

func TestJavaC_InOut(t *testing.T) {
	ctx := newTestContext(t, testFunctionsYAML)
	fn, _ := ctx.Functions.Get("igraph_rewire")
	got, err := NewJavaC(ctx).GenerateFunction(fn)
	require.NoError(t, err)
	require.Contains(t, got, "JNICALL Java_net_sf_igraph_Graph_Rewire(JNIEnv *env, jclass cls, jlong n) {")
	require.Contains(t, got, "      result = graph;\n")
	require.NotContains(t, got, "GetObjectClass")
}

func TestJavaC_Errors(t *testing.T) {
	ctx := newTestContext(t, testFunctionsYAML)
	gen := NewJavaC(ctx)

	fn, _ := ctx.Functions.Get("igraph_transitivity_local")
	_, err := gen.GenerateFunction(fn)
	kind, ok := binding.KindOf(err)
	require.True(t, ok)
	require.Equal(t, binding.UnknownType, kind)

	fn, _ = ctx.Functions.Get("igraph_density")
	_, err = gen.GenerateFunction(fn)
	kind, _ = binding.KindOf(err)
	require.Equal(t, binding.UnsupportedCallingConvention, kind)

	assert.Equal(t, "/* a * / b */\n", gen.Comment("a */ b"))
}

func TestJavaC_Generate(t *testing.T) {
	ctx := newTestContext(t, testFunctionsYAML)
	prelude := writeTemp(t, "prelude.c", "#include <jni.h>\n#include <igraph.h>\n")
	var buf bytes.Buffer
	require.NoError(t, NewJavaC(ctx).Generate(&buf, []string{prelude}))
	got := buf.String()

	require.True(t, strings.HasPrefix(got, "#include <jni.h>\n#include <igraph.h>\n\n/*---"))

	// Functions in declaration order; errors become comments and the batch continues.
	order := []string{
		"Java_net_sf_igraph_Graph_vcount(",
		"Java_net_sf_igraph_Graph_degrees(",
		"Java_net_sf_igraph_Graph_empty(",
		"/* igraph_transitivity_local: unknown return type MATRIX (needs JAVATYPE), skipping */\n",
		"/* igraph_density: calling convention unsupported: 2 OUT or INOUT parameters, at most one is supported */\n",
		"Java_net_sf_igraph_Graph_Rewire(",
	}
	last := -1
	for _, s := range order {
		pos := strings.Index(got, s)
		require.Greaterf(t, pos, last, "%q missing or out of order", s)
		last = pos
	}

	// Functions referring to undefined types are skipped without output.
	require.NotContains(t, got, "igraph_mystery")

	require.Error(t, NewJavaC(ctx).Generate(&buf, []string{prelude + ".missing"}))
}

// allocTracker follows allocations ("<prefix>_init(&var") and releases ("<prefix>_destroy(&var") in
// generated code.
type allocTracker struct {
	live map[string]int
}

var (
	allocRegexp   = regexp.MustCompile(`\w+_init\(&(\w+)`)
	releaseRegexp = regexp.MustCompile(`\w+_destroy\(&(\w+)`)
)

func newAllocTracker() *allocTracker {
	return &allocTracker{live: make(map[string]int)}
}

func (tr *allocTracker) scan(code string) {
	for _, m := range allocRegexp.FindAllStringSubmatch(code, -1) {
		tr.live[m[1]]++
	}
	for _, m := range releaseRegexp.FindAllStringSubmatch(code, -1) {
		tr.live[m[1]]--
	}
}

// leaks returns the variables whose allocations and releases don't match.
func (tr *allocTracker) leaks() map[string]int {
	leaks := make(map[string]int)
	for v, n := range tr.live {
		if n != 0 {
			leaks[v] = n
		}
	}
	return leaks
}

func TestJavaC_AllocationsReleased(t *testing.T) {
	ctx := newTestContext(t, testFunctionsYAML+`
igraph_neighbors:
  PARAMS: GRAPH graph, VECTOR_INT vids, OUT VECTOR_INT res
`)
	gen := NewJavaC(ctx)
	allocated := 0
	for _, fn := range ctx.Functions.All() {
		if ctx.CheckTypes(fn) != nil {
			continue
		}
		code, err := gen.GenerateFunction(fn)
		if err != nil {
			continue
		}
		tr := newAllocTracker()
		tr.scan(code)
		allocated += len(tr.live)
		require.Emptyf(t, tr.leaks(), "unbalanced allocations in %s:\n%s", fn.Name, code)
	}
	// igraph_degree: c_res, c_vids; igraph_neighbors: c_vids, c_res.
	require.Equal(t, 4, allocated)
}

func TestEmit_Stats(t *testing.T) {
	ctx := newTestContext(t, testFunctionsYAML)
	var buf bytes.Buffer
	stats, err := Emit(&buf, ctx, NewJavaC(ctx))
	require.NoError(t, err)
	require.Equal(t, Stats{Generated: 4, Commented: 2, Skipped: 1}, stats)
	require.Equal(t, "4 generated, 2 commented, 1 skipped, 0 ignored", stats.String())

	buf.Reset()
	stats, err = Emit(&buf, ctx, NewJavaJava(ctx))
	require.NoError(t, err)
	require.Equal(t, Stats{Generated: 3, Commented: 2, Skipped: 1, Ignored: 1}, stats)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, fmt.Errorf("disk full") }

func TestEmit_WriteError(t *testing.T) {
	ctx := newTestContext(t, testFunctionsYAML)
	_, err := Emit(failingWriter{}, ctx, NewJavaC(ctx))
	require.ErrorContains(t, err, "disk full")
}
