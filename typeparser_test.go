package shadex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseValueTypePrimitives(t *testing.T) {
	cases := []struct {
		Src  string
		Want PrimitiveType
	}{
		{"f32", F32()},
		{"i32", I32()},
		{"u32", U32()},
		{"[1024]", BoundedU32(1024)},
	}
	for _, c := range cases {
		t.Run(c.Src, func(t *testing.T) {
			v, err := ParseValueType(c.Src)
			require.Nil(t, err)
			require.True(t, v.IsPrimitive())
			require.Equal(t, c.Want, v.Output)
		})
	}
}

func TestParseValueTypeFnBareAndWrapped(t *testing.T) {
	want := &ValueType{
		Inputs: map[string]*ValueType{
			"x":         {Output: BoundedU32(1024)},
			"y":         {Output: BoundedU32(1024)},
			"component": {Output: BoundedU32(3)},
		},
		Output: F32(),
	}

	bare, err := ParseValueType("x: [1024], y: [1024], component: [3] -> f32")
	require.Nil(t, err)
	require.True(t, want.Equal(&bare))

	wrapped, err := ParseValueType("(x: [1024], y: [1024], component: [3] -> f32)")
	require.Nil(t, err)
	require.True(t, want.Equal(&wrapped))
}

func TestParseValueTypeNestedFnRequiresParens(t *testing.T) {
	v, err := ParseValueType("component: (component: [3] -> f32) -> f32")
	require.Nil(t, err)
	require.NotNil(t, v.Inputs["component"])
	require.False(t, v.Inputs["component"].IsPrimitive())

	_, err = ParseValueType("component: component: [3] -> f32 -> f32")
	require.NotNil(t, err)
}

func TestParseValueTypeEmptyArgFn(t *testing.T) {
	v, err := ParseValueType("() -> f32")
	require.Nil(t, err)
	require.True(t, v.IsPrimitive())
	require.Equal(t, F32(), v.Output)
}

func TestParseValueTypeRejectsDuplicateArgNames(t *testing.T) {
	_, err := ParseValueType("x: f32, x: i32 -> f32")
	require.NotNil(t, err)
	require.Equal(t, KindParseFailure, err.Kind)
}

func TestParseValueTypeGarbageIsParseFailure(t *testing.T) {
	_, err := ParseValueType("not a type at all !!")
	require.NotNil(t, err)
	require.Equal(t, KindParseFailure, err.Kind)
}

func TestParseNodeTypeDeclarationsHappyPath(t *testing.T) {
	src := `
Constant = => value @ f32
Attr     = v @ f32 => value @ f32
Add      = a @ f32; b @ f32 => value @ f32
Vec3     = x @ f32; y @ f32; z @ f32 => value @ (component: [3] -> f32)
Out      = val @ (x: [1024], y: [1024], component: [3] -> f32) =>
`
	world, diags := LoadTypeWorld(src)
	require.Equal(t, 0, diags.Len())

	for _, name := range []string{"Constant", "Attr", "Add", "Vec3", "Out"} {
		ref, ok := world.Lookup(name)
		require.True(t, ok, "expected %q to be declared", name)
		require.NotNil(t, world.Info(ref))
	}

	constant := world.Info(mustLookup(t, world, "Constant"))
	require.Len(t, constant.Inputs, 0)
	require.Len(t, constant.Outputs, 1)
	require.Equal(t, TagConstant, constant.Tag)

	out := world.Info(mustLookup(t, world, "Out"))
	require.Equal(t, TagOut, out.Tag)
	require.Len(t, out.Inputs, 1)
	require.True(t, out.Inputs[0].Type.OK())
	require.False(t, out.Inputs[0].Type.Value.IsPrimitive())
}

func TestParseNodeTypeDeclarationsIsolatesPortLevelErrors(t *testing.T) {
	// The second port of Broken fails to parse; the first port and the
	// entire next declaration must still come through intact.
	src := `
Broken = a @ f32; b @ not_a_type => value @ f32
Constant = => value @ f32
`
	world, diags := LoadTypeWorld(src)
	require.Greater(t, diags.Len(), 0)

	broken := world.Info(mustLookup(t, world, "Broken"))
	require.True(t, broken.Inputs[0].Type.OK())
	require.False(t, broken.Inputs[1].Type.OK())
	require.Equal(t, KindParseFailure, broken.Inputs[1].Type.Err.Kind)

	constant := world.Info(mustLookup(t, world, "Constant"))
	require.True(t, constant.Outputs[0].Type.OK())
}

func mustLookup(t *testing.T, world *TypeWorld, name string) NodeTypeRef {
	t.Helper()
	ref, ok := world.Lookup(name)
	require.True(t, ok)
	return ref
}
