package shadex

// ExecutionTag enumerates the shader emitter's cases for a node type.
// TagErr is the sentinel used when a node type's declaration could not
// be fully resolved (e.g. during incremental construction by callers
// outside the parser).
type ExecutionTag int

const (
	TagErr ExecutionTag = iota
	TagAdd
	TagExp
	TagConstant
	TagAttr
	TagOut
	TagVector3
)

func (t ExecutionTag) String() string {
	switch t {
	case TagAdd:
		return "Add"
	case TagExp:
		return "Exp"
	case TagConstant:
		return "Constant"
	case TagAttr:
		return "Attr"
	case TagOut:
		return "Out"
	case TagVector3:
		return "Vector3"
	default:
		return "Err"
	}
}

// PortType is a declared ValueType, or the TypeError produced trying to
// parse it. Exactly one of Value/Err is meaningful.
type PortType struct {
	Value ValueType
	Err   *TypeError
}

// OK reports whether the port's declared type parsed successfully.
func (p PortType) OK() bool { return p.Err == nil }

func portTypeOf(v ValueType) PortType { return PortType{Value: v} }

func portTypeErr(err *TypeError) PortType { return PortType{Err: err} }

// InputInfo declares one input port of a node type.
type InputInfo struct {
	Name string
	Type PortType
}

// OutputInfo declares one output port of a node type. Name may be
// absent (HasName false) for unnamed outputs.
type OutputInfo struct {
	Name    string
	HasName bool
	Type    PortType
}

// NodeTypeInfo is the declaration of a node kind: its ordered input and
// output ports and its execution tag. NodeTypeInfo values are shared —
// every node instance referencing the same declared name points at the
// same *NodeTypeInfo allocation via a NodeTypeRef handle into a
// TypeWorld.
type NodeTypeInfo struct {
	Name    string
	Inputs  []InputInfo
	Outputs []OutputInfo
	Tag     ExecutionTag
}

// OutputIndexByName returns the index of the named output, or false if
// no output of that name exists (including outputs with no name at
// all).
func (t *NodeTypeInfo) OutputIndexByName(name string) (int, bool) {
	for i, o := range t.Outputs {
		if o.HasName && o.Name == name {
			return i, true
		}
	}
	return 0, false
}

// NodeTypeRef is an opaque handle into a TypeWorld. The zero value
// refers to no declared type.
type NodeTypeRef struct {
	id int
}

// Valid reports whether the reference was ever issued by a TypeWorld.
func (r NodeTypeRef) Valid() bool { return r.id > 0 }

// TypeWorld is the node-type registry (spec section 4.3): it maps
// declared names to shared NodeTypeInfo objects, populated once and
// read-only thereafter. Every lookup of the same declared name yields
// the same NodeTypeRef (and therefore the same *NodeTypeInfo).
type TypeWorld struct {
	types  []*NodeTypeInfo // index 0 unused, so the zero NodeTypeRef is invalid
	byName map[string]NodeTypeRef
}

// NewTypeWorld creates an empty registry.
func NewTypeWorld() *TypeWorld {
	return &TypeWorld{
		types:  []*NodeTypeInfo{nil},
		byName: make(map[string]NodeTypeRef),
	}
}

// Declare registers a node type under name, returning its handle. If
// name was already declared its NodeTypeInfo is replaced but the
// existing NodeTypeRef is reused, preserving structural identity for
// anything that already holds the ref.
func (w *TypeWorld) Declare(name string, info *NodeTypeInfo) NodeTypeRef {
	if ref, ok := w.byName[name]; ok {
		w.types[ref.id] = info
		return ref
	}
	ref := NodeTypeRef{id: len(w.types)}
	w.types = append(w.types, info)
	w.byName[name] = ref
	return ref
}

// Lookup resolves a declared name to its handle.
func (w *TypeWorld) Lookup(name string) (NodeTypeRef, bool) {
	ref, ok := w.byName[name]
	return ref, ok
}

// Info dereferences a handle to its shared NodeTypeInfo. Returns nil for
// an invalid or unknown reference.
func (w *TypeWorld) Info(ref NodeTypeRef) *NodeTypeInfo {
	if ref.id <= 0 || ref.id >= len(w.types) {
		return nil
	}
	return w.types[ref.id]
}

// Names returns every declared name, in declaration order.
func (w *TypeWorld) Names() []string {
	names := make([]string, 0, len(w.byName))
	for i := 1; i < len(w.types); i++ {
		for n, r := range w.byName {
			if r.id == i {
				names = append(names, n)
				break
			}
		}
	}
	return names
}
