package shadex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeWorldDeclareReusesRefOnRedeclare(t *testing.T) {
	world := NewTypeWorld()
	first := world.Declare("Constant", &NodeTypeInfo{Name: "Constant", Tag: TagConstant})
	second := world.Declare("Constant", &NodeTypeInfo{Name: "Constant", Tag: TagConstant, Outputs: []OutputInfo{{Name: "value", HasName: true}}})

	require.Equal(t, first, second)
	require.Len(t, world.Info(second).Outputs, 1)
}

func TestTypeWorldLookupUnknown(t *testing.T) {
	world := NewTypeWorld()
	_, ok := world.Lookup("NoSuchType")
	require.False(t, ok)
}

func TestNodeTypeRefZeroValueInvalid(t *testing.T) {
	var ref NodeTypeRef
	require.False(t, ref.Valid())

	world := NewTypeWorld()
	require.Nil(t, world.Info(ref))
}

func TestOutputIndexByNameIgnoresUnnamedOutputs(t *testing.T) {
	info := &NodeTypeInfo{
		Outputs: []OutputInfo{
			{HasName: false},
			{Name: "value", HasName: true},
		},
	}
	idx, ok := info.OutputIndexByName("value")
	require.True(t, ok)
	require.Equal(t, 1, idx)

	_, ok = info.OutputIndexByName("")
	require.False(t, ok)
}
