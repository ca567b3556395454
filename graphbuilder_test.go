package shadex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const scenarioRegistry = `
Constant = => value @ f32
Attr     = v @ f32 => value @ f32
Add      = a @ f32; b @ f32 => value @ f32
Vec3     = x @ f32; y @ f32; z @ f32 => value @ (component: [3] -> f32)
Out      = val @ (x: [1024], y: [1024], component: [3] -> f32) =>
`

func mustLoadScenarioWorld(t *testing.T) *TypeWorld {
	t.Helper()
	world, diags := LoadTypeWorld(scenarioRegistry)
	require.Equal(t, 0, diags.Len())
	return world
}

func TestBuildGraphSimpleWiring(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	graph, diags := BuildGraph(world, `c = Constant(); o = Out(c.value)`)
	require.Nil(t, diags.Err())
	require.Equal(t, 2, graph.Len())

	outRef, ok, err := graph.OutputNode()
	require.NoError(t, err)
	require.True(t, ok)

	outNode, _ := graph.Node(outRef)
	require.Len(t, outNode.Inputs, 1)
	require.NotNil(t, outNode.Inputs[0])
	require.Equal(t, 0, outNode.Inputs[0].OutputIndex)
}

func TestBuildGraphNullIsFreeVariable(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	graph, diags := BuildGraph(world, `o = Out(NULL)`)
	require.Nil(t, diags.Err())

	outRef, ok, err := graph.OutputNode()
	require.NoError(t, err)
	require.True(t, ok)
	outNode, _ := graph.Node(outRef)
	require.Nil(t, outNode.Inputs[0])
}

func TestBuildGraphUnknownTypeIsMissingNodeType(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	_, diags := BuildGraph(world, `c = NoSuchType()`)
	require.NotNil(t, diags.Err())
}

func TestBuildGraphArgumentMustBeValueRef(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	_, diags := BuildGraph(world, `a = Add(1.0, 2.0)`)
	require.NotNil(t, diags.Err())
}

func TestBuildGraphOutputSelectionByName(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	graph, diags := BuildGraph(world, `
r = Constant()
g = Constant()
bl = Constant()
v = Vec3(r.value, g.value, bl.value)
o = Out(v.value)
`)
	require.Nil(t, diags.Err())
	require.Equal(t, 5, graph.Len())
}

func TestBuildGraphUnknownOutputNameIsError(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	_, diags := BuildGraph(world, `c = Constant(); x = c.nope`)
	require.NotNil(t, diags.Err())
}
