package shadex

import (
	"fmt"
	"strconv"
)

// This file implements the surface grammar of spec section 4.2:
//
//	primitive   ::= 'i32' | 'f32' | 'u32' ('[' INT ']')? | '[' INT ']'
//	arg         ::= IDENT ':' argtype
//	argtype     ::= primitive | '(' fn ')'
//	fn          ::= ('(' ')' | arg (',' arg)*) '->' primitive
//	value_type  ::= primitive | fn
//
// and the node-type declaration language:
//
//	NAME '=' (arg (';' arg)*)? '=>' (named_output (';' named_output)*)?
//	named_output ::= IDENT '@' value_type
//
// value_type (used at the named-output / named-input position) is
// written "sugar": a function type may optionally be wrapped in parens
// there, matching every worked example in spec section 6.1. Nested
// argtypes (inside a fn's own argument list) always require the
// wrapping parens.

func parsePrimitive(c *tokenCursor) (PrimitiveType, bool) {
	t := c.peek()
	switch {
	case t.kind == tokIdent && t.text == "i32":
		c.next()
		return I32(), true
	case t.kind == tokIdent && t.text == "f32":
		c.next()
		return F32(), true
	case t.kind == tokIdent && t.text == "u32":
		c.next()
		if c.peek().kind == tokPunct && c.peek().text == "[" {
			save := c.pos
			if bound, ok := parseBracketBound(c); ok {
				return BoundedU32(bound), true
			}
			c.pos = save
		}
		return U32(), true
	case t.kind == tokPunct && t.text == "[":
		if bound, ok := parseBracketBound(c); ok {
			return BoundedU32(bound), true
		}
		return PrimitiveType{}, false
	default:
		return PrimitiveType{}, false
	}
}

func parseBracketBound(c *tokenCursor) (uint32, bool) {
	save := c.pos
	if !c.acceptPunct("[") {
		return 0, false
	}
	t := c.next()
	if t.kind != tokInt {
		c.pos = save
		return 0, false
	}
	n, err := strconv.ParseUint(t.text, 10, 32)
	if err != nil {
		c.pos = save
		return 0, false
	}
	if !c.acceptPunct("]") {
		c.pos = save
		return 0, false
	}
	return uint32(n), true
}

// argtype ::= primitive | '(' fn ')' — nested function arguments always
// require the wrapping parens.
func parseArgType(c *tokenCursor) (*ValueType, bool) {
	save := c.pos
	if prim, ok := parsePrimitive(c); ok {
		return &ValueType{Output: prim}, true
	}
	c.pos = save
	if c.acceptPunct("(") {
		if fv, ok := parseFnBody(c); ok {
			if c.acceptPunct(")") {
				return fv, true
			}
		}
	}
	c.pos = save
	return nil, false
}

// arg ::= IDENT ':' argtype
func parseArg(c *tokenCursor) (string, *ValueType, bool) {
	save := c.pos
	t := c.next()
	if t.kind != tokIdent {
		c.pos = save
		return "", nil, false
	}
	if !c.acceptPunct(":") {
		c.pos = save
		return "", nil, false
	}
	typ, ok := parseArgType(c)
	if !ok {
		c.pos = save
		return "", nil, false
	}
	return t.text, typ, true
}

// fn (without any wrapping parens of its own) ::= ('(' ')' | arg (',' arg)*) '->' primitive
func parseFnBody(c *tokenCursor) (*ValueType, bool) {
	save := c.pos

	if c.acceptPunct("(") {
		if c.acceptPunct(")") {
			if c.acceptPunct("->") {
				if prim, ok := parsePrimitive(c); ok {
					return &ValueType{Output: prim}, true
				}
			}
		}
		c.pos = save
		return nil, false
	}

	args := map[string]*ValueType{}
	name, typ, ok := parseArg(c)
	if !ok {
		c.pos = save
		return nil, false
	}
	args[name] = typ
	for c.peek().kind == tokPunct && c.peek().text == "," {
		c.next()
		name, typ, ok := parseArg(c)
		if !ok {
			c.pos = save
			return nil, false
		}
		if _, dup := args[name]; dup {
			// Invariant 5: argument names must be unique within a
			// ValueType's inputs. A duplicate is a parse-level failure.
			c.pos = save
			return nil, false
		}
		args[name] = typ
	}

	if !c.acceptPunct("->") {
		c.pos = save
		return nil, false
	}
	prim, ok := parsePrimitive(c)
	if !ok {
		c.pos = save
		return nil, false
	}
	return &ValueType{Inputs: args, Output: prim}, true
}

// value_type ::= primitive | fn, with an fn optionally wrapped in a
// single layer of parens (the sugar every worked example in the spec
// uses at the port-declaration position).
func parseValueType(c *tokenCursor) (*ValueType, bool) {
	save := c.pos

	if c.acceptPunct("(") {
		if fv, ok := parseFnBody(c); ok {
			if c.acceptPunct(")") {
				return fv, true
			}
		}
		c.pos = save
	}

	if prim, ok := parsePrimitive(c); ok {
		return &ValueType{Output: prim}, true
	}
	c.pos = save

	if fv, ok := parseFnBody(c); ok {
		return fv, true
	}
	c.pos = save
	return nil, false
}

// ParseValueType parses a single, complete value-type declaration (spec
// section 4.2's `value_type` production), as used for standalone
// testing of the type grammar.
func ParseValueType(src string) (ValueType, *TypeError) {
	c := newCursor(lex(src))
	v, ok := parseValueType(c)
	if !ok || !c.atEOF() {
		return ValueType{}, newTypeError(KindParseFailure, "could not parse value type: "+src)
	}
	return *v, nil
}

// parsePortSegment parses one "IDENT '@' value_type" port declaration
// from a self-contained slice of tokens (already isolated from its
// siblings by splitting on top-level ';'). Parse failures are scoped to
// this single port: the caller still gets a usable InputInfo/OutputInfo
// with a TypeError in its PortType, per spec section 4.2.
func parsePortSegment(segment []token) (name string, pt PortType) {
	c := newCursor(append(append([]token{}, segment...), token{kind: tokEOF}))
	t := c.next()
	if t.kind != tokIdent {
		return "", portTypeErr(newTypeError(KindParseFailure, "expected port name"))
	}
	name = t.text
	if !c.acceptPunct("@") {
		return name, portTypeErr(newTypeError(KindParseFailure, fmt.Sprintf("port %q: expected '@'", name)))
	}
	v, ok := parseValueType(c)
	if !ok || !c.atEOF() {
		return name, portTypeErr(newTypeError(KindParseFailure, fmt.Sprintf("port %q: could not parse value type", name)))
	}
	return name, portTypeOf(*v)
}

// splitOnTopLevelSemicolons splits a token slice (with its trailing EOF
// token, if any, stripped by the caller) on ';' tokens. The grammar
// never admits a ';' inside a value_type, so no bracket-depth tracking
// is needed: every ';' is a genuine port separator.
func splitOnTopLevelSemicolons(toks []token) [][]token {
	var segments [][]token
	start := 0
	for i, t := range toks {
		if t.kind == tokPunct && t.text == ";" {
			segments = append(segments, toks[start:i])
			start = i + 1
		}
	}
	segments = append(segments, toks[start:])
	// Drop purely-empty trailing segments (e.g. a declaration with no
	// ports at all yields one empty segment here).
	var out [][]token
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		out = append(out, seg)
	}
	return out
}

type parsedDecl struct {
	name    string
	inputs  []InputInfo
	outputs []OutputInfo
}

// parseNodeTypeDeclarations parses a sequence of node-type declarations
// (spec section 4.2):
//
//	NAME '=' (arg (';' arg)*)? '=>' (named_output (';' named_output)*)?
//
// Declaration-level structural errors (a missing '=' or '=>') abort
// parsing of the remainder of the file, reported via the returned
// Diagnostics; a malformed individual port's value_type does not abort
// anything — it is isolated to that port via splitOnTopLevelSemicolons
// and recorded in its PortType.
func parseNodeTypeDeclarations(src string) ([]parsedDecl, *Diagnostics) {
	diags := &Diagnostics{}
	toks := lex(src)
	c := newCursor(toks)

	var decls []parsedDecl
	for !c.atEOF() {
		nameTok := c.next()
		if nameTok.kind != tokIdent {
			diags.Add(newTypeError(KindParseFailure, fmt.Sprintf("expected declaration name, got %q", nameTok.text)))
			return decls, diags
		}
		if !c.acceptPunct("=") {
			diags.Add(newTypeError(KindParseFailure, fmt.Sprintf("declaration %q: expected '='", nameTok.text)))
			return decls, diags
		}

		inputToks := collectUntilPunct(c, "=>")
		if !c.acceptPunct("=>") {
			diags.Add(newTypeError(KindParseFailure, fmt.Sprintf("declaration %q: expected '=>'", nameTok.text)))
			return decls, diags
		}
		outputToks := collectUntilNextDeclaration(c)

		decl := parsedDecl{name: nameTok.text}
		for _, seg := range splitOnTopLevelSemicolons(inputToks) {
			name, pt := parsePortSegment(seg)
			decl.inputs = append(decl.inputs, InputInfo{Name: name, Type: pt})
		}
		for _, seg := range splitOnTopLevelSemicolons(outputToks) {
			name, pt := parsePortSegment(seg)
			decl.outputs = append(decl.outputs, OutputInfo{Name: name, HasName: name != "", Type: pt})
		}
		decls = append(decls, decl)
	}
	return decls, diags
}

// collectUntilPunct consumes and returns tokens up to (not including) the
// next top-level occurrence of the given punctuation, which is never
// nested inside a value_type.
func collectUntilPunct(c *tokenCursor, punct string) []token {
	var out []token
	for {
		t := c.peek()
		if t.kind == tokEOF || (t.kind == tokPunct && t.text == punct) {
			return out
		}
		out = append(out, c.next())
	}
}

// collectUntilNextDeclaration consumes an output-port list: everything
// up to EOF or the start of the next declaration. A declaration start is
// recognized as IDENT followed directly by '=' — a sequence that never
// otherwise appears in a value_type, since value_type never contains a
// literal '='.
func collectUntilNextDeclaration(c *tokenCursor) []token {
	var out []token
	for {
		t := c.peek()
		if t.kind == tokEOF {
			return out
		}
		if t.kind == tokIdent {
			next := c.peekAt(1)
			if next.kind == tokPunct && next.text == "=" {
				return out
			}
		}
		out = append(out, c.next())
	}
}
