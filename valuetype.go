package shadex

import (
	"fmt"
	"sort"
	"strings"
)

// PrimitiveKind enumerates the three primitive families a port can
// carry. U32 additionally carries boundedness (see PrimitiveType).
type PrimitiveKind int

const (
	KindF32 PrimitiveKind = iota
	KindI32
	KindU32
)

// PrimitiveType is F32, I32, or a bounded/unbounded U32. Equality is
// structural: it is an ordinary comparable struct, so ==/!= already do
// the right thing (Bounded(n) and Unbounded are distinct, as are two
// different bounds).
type PrimitiveType struct {
	Kind    PrimitiveKind
	Bounded bool
	Bound   uint32 // meaningful only when Kind == KindU32 && Bounded
}

// F32 is the unparameterized 32-bit float primitive.
func F32() PrimitiveType { return PrimitiveType{Kind: KindF32} }

// I32 is the unparameterized 32-bit signed integer primitive.
func I32() PrimitiveType { return PrimitiveType{Kind: KindI32} }

// U32 is the unbounded 32-bit unsigned integer primitive.
func U32() PrimitiveType { return PrimitiveType{Kind: KindU32} }

// BoundedU32 is a u32 bounded above (exclusive) by n.
func BoundedU32(n uint32) PrimitiveType {
	return PrimitiveType{Kind: KindU32, Bounded: true, Bound: n}
}

func (p PrimitiveType) String() string {
	switch p.Kind {
	case KindF32:
		return "f32"
	case KindI32:
		return "i32"
	case KindU32:
		if !p.Bounded {
			return "u32"
		}
		return fmt.Sprintf("[%d]", p.Bound)
	default:
		return "?"
	}
}

// AuxiliaryAssessment reports the index-like capabilities a primitive
// confers. Only sufficiently-bounded u32 primitives can index anything:
// bound <= 1024 for a texture axis, bound <= 4 for a vector component.
type AuxiliaryAssessment struct {
	CanIndexTextureAxis bool
	CanIndexVector      bool
}

// Assess computes the auxiliary assessment for a bare primitive.
func Assess(p PrimitiveType) AuxiliaryAssessment {
	if p.Kind != KindU32 || !p.Bounded {
		return AuxiliaryAssessment{}
	}
	return AuxiliaryAssessment{
		CanIndexTextureAxis: p.Bound <= 1024,
		CanIndexVector:      p.Bound <= 4,
	}
}

// ValueType is a parameterized type: a map from argument name to a
// (boxed, conceptually) ValueType, plus an output primitive. A ValueType
// with no Inputs is a bare scalar.
type ValueType struct {
	Inputs map[string]*ValueType
	Output PrimitiveType
}

// Primitive constructs a non-parameterized ValueType wrapping p.
func Primitive(p PrimitiveType) ValueType {
	return ValueType{Output: p}
}

// IsPrimitive reports whether v has no arguments.
func (v *ValueType) IsPrimitive() bool {
	return len(v.Inputs) == 0
}

// Equal performs structural equality: same output primitive, same
// argument names, each pairwise-equal (recursively).
func (v *ValueType) Equal(other *ValueType) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.Output != other.Output {
		return false
	}
	if len(v.Inputs) != len(other.Inputs) {
		return false
	}
	for name, t := range v.Inputs {
		o, ok := other.Inputs[name]
		if !ok || !t.Equal(o) {
			return false
		}
	}
	return true
}

// AuxiliaryAssessment reports the index-like capabilities of v's output
// primitive (see the package-level Assess); non-primitive ValueTypes
// assess as conferring none, since only a bare bounded u32 can serve as
// a texture axis or vector component index.
func (v *ValueType) AuxiliaryAssessment() AuxiliaryAssessment {
	if v == nil || !v.IsPrimitive() {
		return AuxiliaryAssessment{}
	}
	return Assess(v.Output)
}

// Clone returns a deep copy.
func (v *ValueType) Clone() *ValueType {
	if v == nil {
		return nil
	}
	out := &ValueType{Output: v.Output}
	if len(v.Inputs) > 0 {
		out.Inputs = make(map[string]*ValueType, len(v.Inputs))
		for k, t := range v.Inputs {
			out.Inputs[k] = t.Clone()
		}
	}
	return out
}

// sortedArgNames returns v's argument names sorted, for deterministic
// display by String.
func (v *ValueType) sortedArgNames() []string {
	names := make([]string, 0, len(v.Inputs))
	for n := range v.Inputs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// String renders v in the declaration surface syntax: a bare primitive
// if Inputs is empty, else "(name1: t1, ..., nameN: tN -> output)" with
// arguments sorted by name for determinism.
func (v *ValueType) String() string {
	if v == nil {
		return "<nil>"
	}
	if len(v.Inputs) == 0 {
		return v.Output.String()
	}
	names := v.sortedArgNames()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s: %s", n, v.Inputs[n].String())
	}
	return "(" + strings.Join(parts, ", ") + " -> " + v.Output.String() + ")"
}
