package shadex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAnalyzeTrivialConstantShader covers spec section 8 scenario 1.
func TestAnalyzeTrivialConstantShader(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	graph, diags := BuildGraph(world, `c = Constant(); o = Out(c.value)`)
	require.Nil(t, diags.Err())

	outRef, ok, err := graph.OutputNode()
	require.NoError(t, err)
	require.True(t, ok)

	analysis, aDiags := Analyze(graph)
	require.Nil(t, aDiags.Err())

	notes, terr := analysis.AnalyzeInput(NodeInputRef{SourceNode: outRef, InputIndex: 0})
	require.Nil(t, terr)

	promotion, ok := notes.TypeSource.(OutputPromotionSource)
	require.True(t, ok)
	require.Len(t, promotion.AddedConstantWRT, 3)
	for _, name := range []string{"x", "y", "component"} {
		require.Contains(t, promotion.AddedConstantWRT, name)
	}
}

// TestAnalyzeVec3IntoOut covers spec section 8 scenario 3.
func TestAnalyzeVec3IntoOut(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	graph, diags := BuildGraph(world, `
r = Constant()
g = Constant()
bl = Constant()
v = Vec3(r.value, g.value, bl.value)
o = Out(v.value)
`)
	require.Nil(t, diags.Err())

	vRef, ok := findNodeByTypeName(t, graph, "Vec3")
	require.True(t, ok)
	outRef, ok, err := graph.OutputNode()
	require.NoError(t, err)
	require.True(t, ok)

	analysis, aDiags := Analyze(graph)
	require.Nil(t, aDiags.Err())

	vecOutNotes, terr := analysis.AnalyzeOutput(ValueRef{Node: vRef, OutputIndex: 0})
	require.Nil(t, terr)
	require.Contains(t, vecOutNotes.FormalType.Inputs, "component")

	inputNotes, terr := analysis.AnalyzeInput(NodeInputRef{SourceNode: outRef, InputIndex: 0})
	require.Nil(t, terr)
	promotion, ok := inputNotes.TypeSource.(OutputPromotionSource)
	require.True(t, ok)
	require.NotContains(t, promotion.AddedConstantWRT, "component")
	require.Contains(t, promotion.AddedConstantWRT, "x")
	require.Contains(t, promotion.AddedConstantWRT, "y")
}

// TestAnalyzeFreeVariable covers spec section 8 scenario 4.
func TestAnalyzeFreeVariable(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	graph, diags := BuildGraph(world, `o = Out(NULL)`)
	require.Nil(t, diags.Err())

	outRef, ok, err := graph.OutputNode()
	require.NoError(t, err)
	require.True(t, ok)

	analysis, aDiags := Analyze(graph)
	require.Nil(t, aDiags.Err())

	notes, terr := analysis.AnalyzeInput(NodeInputRef{SourceNode: outRef, InputIndex: 0})
	require.Nil(t, terr)

	fv, ok := notes.TypeSource.(FreeVariableSource)
	require.True(t, ok)
	require.Equal(t, "val", fv.ItselfName)

	for _, name := range []string{"x", "y", "component", "val"} {
		require.Contains(t, notes.FormalType.Inputs, name)
	}
}

// TestAnalyzeTypeErrorIsLocalized covers spec section 8 scenario 5: one
// bad wire fails, while the rest of the graph's ports still analyze Ok.
func TestAnalyzeTypeErrorIsLocalized(t *testing.T) {
	src := `
Constant   = => value @ f32
BadPrimitive = => value @ i32
Attr       = v @ f32 => value @ f32
Add        = a @ f32; b @ f32 => value @ f32
Out        = val @ (x: [1024], y: [1024], component: [3] -> f32) =>
`
	world, diags := LoadTypeWorld(src)
	require.Nil(t, diags.Err())

	graph, gDiags := BuildGraph(world, `
good = Constant()
bad = BadPrimitive()
s = Add(good.value, bad.value)
o = Out(s.value)
`)
	require.Nil(t, gDiags.Err())

	sRef, ok := findNodeByTypeName(t, graph, "Add")
	require.True(t, ok)

	analysis, _ := Analyze(graph)

	_, terr := analysis.AnalyzeInput(NodeInputRef{SourceNode: sRef, InputIndex: 1})
	require.NotNil(t, terr)
	require.Equal(t, KindPrimitiveMismatch, terr.Kind)

	_, terr = analysis.AnalyzeInput(NodeInputRef{SourceNode: sRef, InputIndex: 0})
	require.Nil(t, terr)
}

// TestAnalyzePrimitivePreservation covers spec section 8 universal
// invariant 7: a successfully-analyzed output's primitive always
// matches its declared one.
func TestAnalyzePrimitivePreservation(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	graph, diags := BuildGraph(world, `c = Constant(); o = Out(c.value)`)
	require.Nil(t, diags.Err())

	cRef, ok := findNodeByTypeName(t, graph, "Constant")
	require.True(t, ok)

	analysis, aDiags := Analyze(graph)
	require.Nil(t, aDiags.Err())

	notes, terr := analysis.AnalyzeOutput(ValueRef{Node: cRef, OutputIndex: 0})
	require.Nil(t, terr)
	require.Equal(t, F32(), notes.FormalType.Output)
}

// TestAnalyzeIsDeterministic covers spec section 8 universal invariants
// 1 and 2: re-running analysis over the same graph yields identical
// notes.
func TestAnalyzeIsDeterministic(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	graph, diags := BuildGraph(world, `c = Constant(); o = Out(c.value)`)
	require.Nil(t, diags.Err())

	outRef, _, _ := graph.OutputNode()

	a1, _ := Analyze(graph)
	n1, _ := a1.AnalyzeInput(NodeInputRef{SourceNode: outRef, InputIndex: 0})

	a2, _ := Analyze(graph)
	n2, _ := a2.AnalyzeInput(NodeInputRef{SourceNode: outRef, InputIndex: 0})

	require.True(t, n1.FormalType.Equal(&n2.FormalType))
}

func findNodeByTypeName(t *testing.T, graph *NodeGraph, name string) (NodeRef, bool) {
	t.Helper()
	for _, ref := range graph.NodeRefs() {
		info := graph.TypeOf(ref)
		if info != nil && info.Name == name {
			return ref, true
		}
	}
	return 0, false
}
