package shadex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddNodeEnforcesPortCount(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	graph := NewNodeGraph(world)
	addRef, _ := world.Lookup("Add")

	_, err := graph.AddNode(addRef, nil, nil)
	require.Error(t, err)
}

func TestAddNodeEnforcesValidValueRef(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	graph := NewNodeGraph(world)
	constantRef, _ := world.Lookup("Constant")
	attrRef, _ := world.Lookup("Attr")

	_, err := graph.AddNode(attrRef, []*ValueRef{{Node: 99, OutputIndex: 0}}, nil)
	require.Error(t, err)

	cRef, err := graph.AddNode(constantRef, nil, nil)
	require.NoError(t, err)
	_, err = graph.AddNode(attrRef, []*ValueRef{{Node: cRef, OutputIndex: 5}}, nil)
	require.Error(t, err)
}

func TestAddNodeAllowsFreeVariables(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	graph := NewNodeGraph(world)
	attrRef, _ := world.Lookup("Attr")

	ref, err := graph.AddNode(attrRef, []*ValueRef{nil}, nil)
	require.NoError(t, err)
	node, ok := graph.Node(ref)
	require.True(t, ok)
	require.Nil(t, node.Inputs[0])
}

func TestOutputNodeRejectsMoreThanOne(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	graph, diags := BuildGraph(world, `o1 = Out(NULL); o2 = Out(NULL)`)
	require.Nil(t, diags.Err())

	_, _, err := graph.OutputNode()
	require.Error(t, err)
}

func TestOutputNodeNoneIsOkNotFound(t *testing.T) {
	world := mustLoadScenarioWorld(t)
	graph, diags := BuildGraph(world, `c = Constant()`)
	require.Nil(t, diags.Err())

	_, ok, err := graph.OutputNode()
	require.NoError(t, err)
	require.False(t, ok)
}
