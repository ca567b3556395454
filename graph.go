package shadex

import (
	"fmt"
	"sort"
)

// NodeRef is the stable integer identity of a node instance within a
// single NodeGraph.
type NodeRef int

// ValueRef identifies one specific output of one node.
type ValueRef struct {
	Node        NodeRef
	OutputIndex int
}

func (r ValueRef) String() string {
	return fmt.Sprintf("%d.%d", r.Node, r.OutputIndex)
}

// Node is one instance in a NodeGraph: a shared reference to its
// declared type, plus one input slot per declared input port. A nil
// entry in Inputs is a free variable (deliberately unconnected); a
// non-nil entry wires that input to a specific upstream output.
// ExtraData is an opaque per-instance payload (e.g. a Constant node's
// literal, or an Attr node's binding name).
type Node struct {
	TypeRef   NodeTypeRef
	Inputs    []*ValueRef
	ExtraData *string
}

// NodeGraph is a DAG of node instances with input-port wiring to value
// refs, built against a single TypeWorld. Mutation is restricted to
// AddNode (invariants 1 and 2 are checked there); cycles (invariant 3)
// are detected lazily by the emitter, per spec section 4.6.
type NodeGraph struct {
	world  *TypeWorld
	nodes  map[NodeRef]*Node
	nextID int
}

// NewNodeGraph creates an empty graph against world.
func NewNodeGraph(world *TypeWorld) *NodeGraph {
	return &NodeGraph{world: world, nodes: make(map[NodeRef]*Node)}
}

// World returns the graph's type registry.
func (g *NodeGraph) World() *TypeWorld { return g.world }

// AddNode inserts a new node instance of the given declared type,
// enforcing invariant 1 (port-count match) and invariant 2 (every
// ValueRef names an existing node and a valid output index on it).
// inputs must have exactly as many entries as the type declares input
// ports; pass nil for a free variable.
func (g *NodeGraph) AddNode(typeRef NodeTypeRef, inputs []*ValueRef, extraData *string) (NodeRef, error) {
	info := g.world.Info(typeRef)
	if info == nil {
		return 0, newTypeError(KindMissingNodeType, "node type reference does not resolve in this graph's type world")
	}
	if len(inputs) != len(info.Inputs) {
		return 0, newTypeError(KindMissingNodeType,
			fmt.Sprintf("node type %q declares %d input(s), got %d", info.Name, len(info.Inputs), len(inputs)))
	}
	for i, in := range inputs {
		if in == nil {
			continue
		}
		src, ok := g.nodes[in.Node]
		if !ok {
			return 0, newTypeError(KindMissingNodeType,
				fmt.Sprintf("input %d references non-existent node %d", i, in.Node))
		}
		srcInfo := g.world.Info(src.TypeRef)
		if srcInfo == nil || in.OutputIndex < 0 || in.OutputIndex >= len(srcInfo.Outputs) {
			return 0, newTypeError(KindMissingNodeType,
				fmt.Sprintf("input %d references invalid output index %d on node %d", i, in.OutputIndex, in.Node))
		}
	}

	g.nextID++
	ref := NodeRef(g.nextID)
	inputsCopy := make([]*ValueRef, len(inputs))
	copy(inputsCopy, inputs)
	g.nodes[ref] = &Node{TypeRef: typeRef, Inputs: inputsCopy, ExtraData: extraData}
	return ref, nil
}

// Node looks up a node instance by reference.
func (g *NodeGraph) Node(ref NodeRef) (*Node, bool) {
	n, ok := g.nodes[ref]
	return n, ok
}

// TypeOf is a convenience for g.World().Info(g.Node(ref).TypeRef).
func (g *NodeGraph) TypeOf(ref NodeRef) *NodeTypeInfo {
	n, ok := g.nodes[ref]
	if !ok {
		return nil
	}
	return g.world.Info(n.TypeRef)
}

// NodeRefs returns every node reference in the graph, in ascending
// (i.e. insertion) order, for deterministic iteration.
func (g *NodeGraph) NodeRefs() []NodeRef {
	refs := make([]NodeRef, 0, len(g.nodes))
	for r := range g.nodes {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}

// Len reports the number of nodes in the graph.
func (g *NodeGraph) Len() int { return len(g.nodes) }

// OutputNode locates the unique node with execution tag Out (invariant
// 4). ok is false if none exists; err is non-nil if more than one does.
func (g *NodeGraph) OutputNode() (ref NodeRef, ok bool, err error) {
	for _, r := range g.NodeRefs() {
		info := g.TypeOf(r)
		if info != nil && info.Tag == TagOut {
			if ok {
				return 0, false, newTypeError(KindMissingOutput, "more than one Out node in graph")
			}
			ref, ok = r, true
		}
	}
	return ref, ok, nil
}
