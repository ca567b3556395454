package shadex

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/go-hclog"
)

// This file is the shader emitter (spec section 4.6): a topological
// walk from the graph's unique Out node that emits one WGSL-like
// function per visited node, each wrapping its inputs' generated
// function names. It is a direct port of
// original_source/shadex-backend/src/execution/proof_of_concept.rs's
// Executor, with its per-node cache widened to also remember a
// negative result (a *TypeError) so a node reachable from two paths is
// only emitted, or only fails, once. The emitter does not consult the
// formal type analyzer at all — emission and type analysis are
// separate passes over the same graph, exactly as in the source this
// is ported from.

// ShaderFragment is one emitted function plus the name it was given,
// the return value of a successful Run or a successful recursive step
// of it.
type ShaderFragment struct {
	Text string
	Name string
}

// nameGenerator hands out "id0", "id1", ... — reset once per Run so
// names are stable and readable within a single emission.
type nameGenerator struct{ nextID int }

func (g *nameGenerator) generate() string {
	name := fmt.Sprintf("id%d", g.nextID)
	g.nextID++
	return name
}

func (g *nameGenerator) reset() { g.nextID = 0 }

// Emitter holds the name generator state across one Run.
type Emitter struct {
	namer nameGenerator
	log   hclog.Logger
}

// NewEmitter creates an emitter with a fresh name generator.
func NewEmitter(opts ...Option) *Emitter {
	o := newOptions(opts...)
	return &Emitter{log: o.log}
}

type fragCache struct {
	frag *ShaderFragment
	err  *TypeError
}

// Run walks from graph's unique Out node and emits a complete shader
// fragment for it. It resets the emitter's name generator first, so
// repeated calls on the same Emitter produce the same names for the
// same graph.
func (e *Emitter) Run(graph *NodeGraph) (*ShaderFragment, *TypeError) {
	e.namer.reset()

	outRef, ok, err := graph.OutputNode()
	if err != nil {
		return nil, err.(*TypeError)
	}
	if !ok {
		return nil, newTypeError(KindMissingOutput, "graph has no Out node")
	}
	node, _ := graph.Node(outRef)
	if len(node.Inputs) == 0 || node.Inputs[0] == nil {
		err := newNodeTypeError(KindUnconnectedInput, outRef, "Out node's input is unconnected")
		e.log.Warn("emission failed", "node", outRef, "error", err)
		return nil, err
	}

	e.log.Trace("emitting from Out node", "node", outRef)
	cache := make(map[NodeRef]*fragCache)
	inProgress := make(map[NodeRef]bool)
	return e.makeProg(cache, inProgress, *node.Inputs[0], graph)
}

// makeProg emits the fragment for one node, recursing into its wired
// inputs first (inputs are emitted before the node that consumes
// them, since each emitted function calls its inputs' generated
// names). inProgress implements the CyclicGraph check: re-entering a
// node whose emission has started but not finished means the graph
// has a cycle.
func (e *Emitter) makeProg(cache map[NodeRef]*fragCache, inProgress map[NodeRef]bool, ref ValueRef, graph *NodeGraph) (*ShaderFragment, *TypeError) {
	if c, ok := cache[ref.Node]; ok {
		return c.frag, c.err
	}
	if inProgress[ref.Node] {
		err := newNodeTypeError(KindCyclicGraph, ref.Node, "cycle detected during shader emission")
		e.log.Warn("emission failed", "node", ref.Node, "error", err)
		cache[ref.Node] = &fragCache{err: err}
		return nil, err
	}
	inProgress[ref.Node] = true
	defer delete(inProgress, ref.Node)

	e.log.Trace("emitting node", "node", ref.Node)

	fail := func(err *TypeError) (*ShaderFragment, *TypeError) {
		e.log.Warn("emission failed", "node", ref.Node, "error", err)
		cache[ref.Node] = &fragCache{err: err}
		return nil, err
	}

	node, ok := graph.Node(ref.Node)
	if !ok {
		return fail(newNodeTypeError(KindMissingNodeType, ref.Node, "node not found"))
	}
	info := graph.TypeOf(ref.Node)
	if info == nil {
		return fail(newNodeTypeError(KindMissingNodeType, ref.Node, "node type does not resolve"))
	}

	succeed := func(frag *ShaderFragment) (*ShaderFragment, *TypeError) {
		e.log.Debug("node emitted", "node", ref.Node, "tag", info.Tag, "name", frag.Name)
		cache[ref.Node] = &fragCache{frag: frag}
		return frag, nil
	}

	// Mirrors proof_of_concept.rs: inps is an Option that goes None on an
	// unconnected input without error; only the tags that actually read
	// an input (Add, Vector3) unwrap it and fail if it's missing. Constant
	// and Attr never touch node.Inputs, so an unconnected input on either
	// is not an error.
	input := func(idx int) (*ShaderFragment, *TypeError) {
		if idx >= len(node.Inputs) || node.Inputs[idx] == nil {
			return nil, newNodeTypeError(KindUnconnectedInput, ref.Node, fmt.Sprintf("input %d is unconnected", idx))
		}
		return e.makeProg(cache, inProgress, *node.Inputs[idx], graph)
	}

	switch info.Tag {
	case TagAdd:
		a, err := input(0)
		if err != nil {
			return fail(err)
		}
		b, err := input(1)
		if err != nil {
			return fail(err)
		}
		name := e.namer.generate()
		text := fmt.Sprintf(
			"%s\n%s\nfn %s(x: f32, y: f32, component: u32) -> f32 { return %s(x,y,component) + %s(x,y,component); }",
			a.Text, b.Text, name, a.Name, b.Name,
		)
		frag := &ShaderFragment{Text: text, Name: name}
		return succeed(frag)

	case TagVector3:
		x, err := input(0)
		if err != nil {
			return fail(err)
		}
		y, err := input(1)
		if err != nil {
			return fail(err)
		}
		z, err := input(2)
		if err != nil {
			return fail(err)
		}
		name := e.namer.generate()
		text := fmt.Sprintf(
			"%s\n%s\n%s\nfn %s(x: f32, y: f32, component: u32) -> f32 { if component == 0 { return %s(x,y,component); } if component == 1 { return %s(x,y,component); } return %s(x,y,component); }",
			x.Text, y.Text, z.Text, name, x.Name, y.Name, z.Name,
		)
		frag := &ShaderFragment{Text: text, Name: name}
		return succeed(frag)

	case TagConstant:
		var val float64
		if node.ExtraData != nil {
			val, _ = strconv.ParseFloat(*node.ExtraData, 64)
		}
		name := e.namer.generate()
		text := fmt.Sprintf("fn %s(x: f32, y: f32, component: u32) -> f32 { return %vf; }", name, val)
		frag := &ShaderFragment{Text: text, Name: name}
		return succeed(frag)

	case TagAttr:
		attrName := ""
		if node.ExtraData != nil {
			attrName = *node.ExtraData
		}
		name := e.namer.generate()
		text := fmt.Sprintf("fn %s(x: f32, y: f32, component: u32) -> f32 { return %s; }", name, attrName)
		frag := &ShaderFragment{Text: text, Name: name}
		return succeed(frag)

	case TagExp:
		return fail(newNodeTypeError(KindUnsupportedOp, ref.Node, "Exp has no emission rule yet"))

	case TagOut:
		return fail(newNodeTypeError(KindUnsupportedOp, ref.Node, "Out cannot be an input's source"))

	default:
		return fail(newNodeTypeError(KindUnsupportedOp, ref.Node, fmt.Sprintf("node type %q has no execution tag", info.Name)))
	}
}
