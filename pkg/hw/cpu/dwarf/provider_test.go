package dwarf

import (
	"testing"

	"github.com/cucaracha-dbg/cucaracha/pkg/hw/cpu/symbols"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixtureProvider(t *testing.T) (*Provider, fixtureOffsets) {
	t.Helper()
	sections, off := buildFixtureSections()
	session := NewSession(sections, nil)
	require.NoError(t, session.Parse(nil, nil))
	provider, err := NewProvider(session)
	require.NoError(t, err)
	return provider, off
}

func TestProviderTypeLookups(t *testing.T) {
	provider, _ := newFixtureProvider(t)

	typeID, ok := provider.TypeID("int")
	require.True(t, ok)

	kind, ok := provider.TypeTag(typeID)
	require.True(t, ok)
	assert.Equal(t, symbols.TagBase, kind)

	size, ok := provider.TypeSize(typeID)
	require.True(t, ok)
	assert.Equal(t, uint64(4), size)

	name, ok := provider.TypeName(typeID)
	require.True(t, ok)
	assert.Equal(t, "int", name)

	_, notFound := provider.TypeID("does_not_exist")
	assert.False(t, notFound)
}

func TestProviderFunctionAt(t *testing.T) {
	provider, _ := newFixtureProvider(t)

	name, disp := provider.FunctionAt(0, 0x1000)
	assert.Equal(t, "main", name)
	assert.Equal(t, uint64(0), disp)

	name, disp = provider.FunctionAt(0, 0x1010)
	assert.Equal(t, "main", name)
	assert.Equal(t, uint64(0x10), disp)

	name, _ = provider.FunctionAt(0, 0x5000)
	assert.Equal(t, "", name)
}

func TestProviderFrameLocals(t *testing.T) {
	provider, _ := newFixtureProvider(t)

	frame := symbols.FrameDescriptor{FrameBase: 0}

	all := provider.FrameLocals(frame, 0x1000, false)
	names := make(map[string]bool)
	for _, l := range all {
		names[l.Name] = true
	}
	assert.True(t, names["argc"], "expected formal parameter argc")
	assert.True(t, names["count"], "expected nested lexical block local count")

	argsOnly := provider.FrameLocals(frame, 0x1000, true)
	for _, l := range argsOnly {
		assert.NotEqual(t, "count", l.Name, "argumentsOnly must exclude locals")
	}
}

func TestProviderFieldLookupsOnNonStruct(t *testing.T) {
	provider, _ := newFixtureProvider(t)
	typeID, ok := provider.TypeID("int")
	require.True(t, ok)

	_, ok = provider.FieldNames(typeID)
	assert.False(t, ok, "a base type has no members")

	_, ok = provider.FieldTypeAndOffset(typeID, "anything")
	assert.False(t, ok)
}

func TestProviderUnknownTypeID(t *testing.T) {
	provider, _ := newFixtureProvider(t)
	_, ok := provider.TypeTag(999999)
	assert.False(t, ok)
	_, ok = provider.TypeSize(999999)
	assert.False(t, ok)
	_, ok = provider.TypeName(999999)
	assert.False(t, ok)
}
