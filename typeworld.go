package shadex

// This file is the type-world loader (system overview component
// "Type-world loader", spec section 2): it drives the grammar in
// typeparser.go and turns the parsed declarations into a TypeWorld,
// assigning each declared name its ExecutionTag. The declaration
// grammar itself carries no tag syntax (spec section 4.2's
// node-type-declaration production has none) — tags are a separate,
// out-of-band annotation keyed on the declared name, the same way the
// Rust prototype initializes every freshly-parsed NodeTypeInfo with the
// Err sentinel annotation and relies on a later pass to assign the real
// one (shadex-backend/src/parsing/type_parsing.rs always constructs
// `annotation: ExecutionInformation::ERR`).
var builtinExecutionTags = map[string]ExecutionTag{
	"Add":      TagAdd,
	"Exp":      TagExp,
	"Constant": TagConstant,
	"Attr":     TagAttr,
	"Out":      TagOut,
	"Vector3":  TagVector3,
	"Vec3":     TagVector3,
}

// LoadTypeWorld parses a type-declaration file (spec section 6.1) and
// returns the populated, read-only-thereafter TypeWorld. Per-port parse
// failures are recorded in-line in the registry (a port's PortType.Err)
// rather than aborting the load; diags additionally aggregates every
// error seen, for callers that want one failure value.
func LoadTypeWorld(src string, opts ...Option) (*TypeWorld, *Diagnostics) {
	o := newOptions(opts...)
	decls, diags := parseNodeTypeDeclarations(src)
	world := NewTypeWorld()
	for _, d := range decls {
		tag := builtinExecutionTags[d.name]
		o.log.Trace("declaring node type", "name", d.name, "tag", tag)
		info := &NodeTypeInfo{
			Name:    d.name,
			Inputs:  d.inputs,
			Outputs: d.outputs,
			Tag:     tag,
		}
		world.Declare(d.name, info)
		for _, in := range d.inputs {
			if !in.Type.OK() {
				o.log.Warn("port failed to parse", "declaration", d.name, "port", in.Name, "error", in.Type.Err)
				diags.Add(in.Type.Err)
			}
		}
		for _, out := range d.outputs {
			if !out.Type.OK() {
				o.log.Warn("port failed to parse", "declaration", d.name, "port", out.Name, "error", out.Type.Err)
				diags.Add(out.Type.Err)
			}
		}
	}
	return world, diags
}
