package functions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode(t *testing.T) {
	require.Equal(t, IN, Mode(0), "IN must be the zero value, it's the default mode")
	for _, name := range []string{"OUT", "out"} {
		m, err := ModeString(name)
		require.NoError(t, err)
		require.Equal(t, OUT, m)
	}
	_, err := ModeString("OPTIONAL")
	require.Error(t, err)
	require.Equal(t, "INOUT", INOUT.String())
	require.Equal(t, "Mode(7)", Mode(7).String())
	require.Equal(t, []string{"IN", "OUT", "INOUT"}, ModeStrings())

	assert.False(t, IN.IsOutput())
	assert.True(t, OUT.IsOutput())
	assert.True(t, INOUT.IsOutput())
}

func degreeFunction() *Function {
	return &Function{
		Name: "igraph_degree",
		Params: []Param{
			{Name: "graph", Type: "GRAPH"},
			{Name: "res", Type: "VECTOR_INT", Mode: OUT},
			{Name: "vids", Type: "VERTEX_SELECTOR"},
			{Name: "mode", Type: "NEIMODE", Default: "ALL"},
			{Name: "loops", Type: "BOOLEAN"},
		},
		Deps:   map[string][]string{"vids": {"graph"}},
		Ignore: []string{"RR"},
	}
}

func TestFunction(t *testing.T) {
	fn := degreeFunction()
	require.NoError(t, fn.Validate())

	p, found := fn.Param("mode")
	require.True(t, found)
	require.Equal(t, "IN NEIMODE mode=ALL", p.String())
	_, found = fn.Param("weights")
	require.False(t, found)

	require.Len(t, fn.ParamsWithMode(IN), 4)
	outputs := fn.Outputs()
	require.Len(t, outputs, 1)
	require.Equal(t, "res", outputs[0].Name)

	require.Equal(t, []string{"graph"}, fn.Dependencies("vids"))
	require.Nil(t, fn.Dependencies("graph"))

	require.True(t, fn.IgnoredBy("RR"))
	require.False(t, fn.IgnoredBy("JavaC"))
	require.False(t, fn.IgnoredBy(""))
}

func TestFunction_Validate(t *testing.T) {
	fn := degreeFunction()
	fn.Params = append(fn.Params, Param{Name: "graph", Type: "GRAPH"})
	require.ErrorContains(t, fn.Validate(), `duplicate parameter "graph"`)

	fn = degreeFunction()
	fn.Deps["res"] = []string{"weights"}
	require.ErrorContains(t, fn.Validate(), `depends on unknown parameter "weights"`)

	fn = degreeFunction()
	fn.Deps["weights"] = []string{"graph"}
	require.ErrorContains(t, fn.Validate(), `unknown parameter "weights"`)

	fn = degreeFunction()
	fn.Params[1].Mode = Mode(5)
	require.ErrorContains(t, fn.Validate(), "invalid mode")

	fn = degreeFunction()
	fn.Params[2].Type = ""
	require.ErrorContains(t, fn.Validate(), "has no type")
}

func TestSet(t *testing.T) {
	vcount := &Function{Name: "igraph_vcount", ReturnType: "INTEGER", Params: []Param{{Name: "graph", Type: "GRAPH"}}}
	set, err := NewSet(vcount, degreeFunction())
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	require.Equal(t, []string{"igraph_vcount", "igraph_degree"}, set.Names())
	fn, found := set.Get("igraph_degree")
	require.True(t, found)
	require.Equal(t, "igraph_degree", fn.Name)
	_, found = set.Get("igraph_ecount")
	require.False(t, found)

	_, err = NewSet(vcount, degreeFunction(), vcount)
	require.ErrorContains(t, err, `"igraph_vcount" defined more than once`)
	_, err = NewSet(nil)
	require.Error(t, err)
}
