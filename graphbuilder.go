package shadex

import (
	"fmt"
	"strconv"
)

// This file is the graph builder (spec section 4.4): it evaluates the
// shadex node-construction mini-language directly against a NodeGraph,
// in one recursive-descent pass — there is no separate AST, matching
// the mini-language's own description as a sequence of expressions
// evaluated left to right against a running identifier scope:
//
//	expr   ::= IDENT
//	         | FLOAT
//	         | IDENT '=' expr
//	         | IDENT (':' IDENT)? '(' exprs ')'
//	         | expr '.' IDENT
//	         | 'NULL'
//
// A bare integer literal (no decimal point) is accepted as the FLOAT
// production too but evaluates to a gbInt rather than a gbFloat,
// realizing the spec's Value::Int(i) variant — nothing else in the
// grammar produces one.
//
// extra_data (the optional ':' tag before a construction's argument
// list) accepts an identifier, integer, or float token — not just
// IDENT — since the original parser grabs the raw text up to the
// constructor's '(' verbatim (parsing.rs's `take_until("(")`), and a
// Constant node's extra_data is itself a numeric literal.

// gbValue is the mini-language's runtime value: Value ∈ {Float, Int,
// NodeRef, ValueRef(Option<VR>)}.
type gbValue interface{ gbValueTag() string }

type gbFloat float64

func (gbFloat) gbValueTag() string { return "Float" }

type gbInt int

func (gbInt) gbValueTag() string { return "Int" }

type gbNode NodeRef

func (gbNode) gbValueTag() string { return "NodeRef" }

// gbValueRef wraps Option<ValueRef>: Ref == nil is the explicit free
// variable (from NULL, or an omitted/absent wire).
type gbValueRef struct{ Ref *ValueRef }

func (gbValueRef) gbValueTag() string { return "ValueRef" }

// GraphBuilder evaluates the graph-construction language against a
// single TypeWorld, materializing nodes into its NodeGraph as it goes.
type GraphBuilder struct {
	world *TypeWorld
	graph *NodeGraph
	scope map[string]gbValue
	diags *Diagnostics
}

// NewGraphBuilder creates a builder with an empty graph and scope.
func NewGraphBuilder(world *TypeWorld) *GraphBuilder {
	return &GraphBuilder{
		world: world,
		graph: NewNodeGraph(world),
		scope: make(map[string]gbValue),
		diags: &Diagnostics{},
	}
}

// Graph returns the graph under construction.
func (b *GraphBuilder) Graph() *NodeGraph { return b.graph }

// BuildGraph parses and evaluates a graph-construction source file
// (spec section 6.2) against world, returning the materialized graph.
// Evaluation stops at the first statement it cannot parse or evaluate;
// that failure (and only it) is recorded in the returned Diagnostics,
// since later statements may depend on scope state a failed statement
// never established.
func BuildGraph(world *TypeWorld, src string) (*NodeGraph, *Diagnostics) {
	b := NewGraphBuilder(world)
	c := newCursor(lex(src))
	for !c.atEOF() {
		if _, err := b.parseExpr(c); err != nil {
			b.diags.Add(err)
			break
		}
		// The formal grammar has no statement separator — each expr is
		// self-terminating — but every worked example in the spec
		// chains statements with ';', so an optional one (or several)
		// is consumed between statements.
		for c.acceptPunct(";") {
		}
	}
	return b.graph, b.diags
}

func (b *GraphBuilder) parseExpr(c *tokenCursor) (gbValue, *TypeError) {
	v, err := b.parsePrimary(c)
	if err != nil {
		return nil, err
	}
	for c.acceptPunct(".") {
		t := c.next()
		if t.kind != tokIdent {
			return nil, newTypeError(KindParseFailure, "expected output name after '.'")
		}
		v, err = b.selectOutput(v, t.text)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (b *GraphBuilder) parsePrimary(c *tokenCursor) (gbValue, *TypeError) {
	t := c.peek()
	switch {
	case t.kind == tokFloat:
		c.next()
		f, _ := strconv.ParseFloat(t.text, 64)
		return gbFloat(f), nil

	case t.kind == tokInt:
		c.next()
		n, _ := strconv.Atoi(t.text)
		return gbInt(n), nil

	case t.kind == tokIdent && t.text == "NULL":
		c.next()
		return gbValueRef{Ref: nil}, nil

	case t.kind == tokIdent:
		name := t.text
		c.next()

		if c.acceptPunct("=") {
			rhs, err := b.parseExpr(c)
			if err != nil {
				return nil, err
			}
			b.scope[name] = rhs
			return rhs, nil
		}

		if c.peek().kind == tokPunct && c.peek().text == ":" {
			save := c.pos
			c.next() // ':'
			tagTok := c.next()
			validTag := tagTok.kind == tokIdent || tagTok.kind == tokInt || tagTok.kind == tokFloat
			if !validTag || !c.acceptPunct("(") {
				c.pos = save
				return nil, newTypeError(KindParseFailure, fmt.Sprintf("expected ':' extra-data '(' after %q", name))
			}
			tag := tagTok.text
			return b.construct(name, &tag, c)
		}

		if c.acceptPunct("(") {
			return b.construct(name, nil, c)
		}

		val, ok := b.scope[name]
		if !ok {
			return nil, newTypeError(KindParseFailure, fmt.Sprintf("undefined identifier %q", name))
		}
		return val, nil

	default:
		return nil, newTypeError(KindParseFailure, fmt.Sprintf("unexpected token %q", t.text))
	}
}

// construct evaluates `IDENT (':' IDENT)? '(' exprs ')'`: typeName must
// already be registered, and each argument expression must evaluate to
// a ValueRef value (possibly the explicit free variable).
func (b *GraphBuilder) construct(typeName string, extraData *string, c *tokenCursor) (gbValue, *TypeError) {
	ref, ok := b.world.Lookup(typeName)
	if !ok {
		return nil, newTypeError(KindMissingNodeType, fmt.Sprintf("unknown node type %q", typeName))
	}
	info := b.world.Info(ref)

	var args []*ValueRef
	if !c.acceptPunct(")") {
		for {
			v, err := b.parseExpr(c)
			if err != nil {
				return nil, err
			}
			vref, err := asValueRef(v)
			if err != nil {
				return nil, err
			}
			args = append(args, vref)
			if c.acceptPunct(",") {
				continue
			}
			break
		}
		if !c.acceptPunct(")") {
			return nil, newTypeError(KindParseFailure, fmt.Sprintf("%q: expected ')'", typeName))
		}
	}

	if len(args) != len(info.Inputs) {
		return nil, newTypeError(KindMissingNodeType,
			fmt.Sprintf("node type %q expects %d argument(s), got %d", typeName, len(info.Inputs), len(args)))
	}

	nodeRef, err := b.graph.AddNode(ref, args, extraData)
	if err != nil {
		if te, ok := err.(*TypeError); ok {
			return nil, te
		}
		return nil, newTypeError(KindMissingNodeType, err.Error())
	}
	return gbNode(nodeRef), nil
}

func asValueRef(v gbValue) (*ValueRef, *TypeError) {
	vr, ok := v.(gbValueRef)
	if !ok {
		return nil, newTypeError(KindParseFailure, "construction argument must be a wired output or NULL")
	}
	return vr.Ref, nil
}

// selectOutput evaluates `expr '.' IDENT`: the left side must be a
// node, and the name must match one of its declared output names.
func (b *GraphBuilder) selectOutput(v gbValue, name string) (gbValue, *TypeError) {
	node, ok := v.(gbNode)
	if !ok {
		return nil, newTypeError(KindParseFailure, "'.' selection requires a node value")
	}
	info := b.graph.TypeOf(NodeRef(node))
	if info == nil {
		return nil, newNodeTypeError(KindMissingNodeType, NodeRef(node), "node has no resolvable type")
	}
	idx, ok := info.OutputIndexByName(name)
	if !ok {
		return nil, newNodeTypeError(KindParseFailure, NodeRef(node),
			fmt.Sprintf("node type %q has no output named %q", info.Name, name))
	}
	return gbValueRef{Ref: &ValueRef{Node: NodeRef(node), OutputIndex: idx}}, nil
}
