package dwarf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAbbrevSection(t *testing.T) []byte {
	t.Helper()
	var b []byte
	// Code 1: DW_TAG_compile_unit, has children, one attr (DW_AT_name, DW_FORM_string)
	b = append(b, 0x01)                         // code
	b = append(b, byte(TagCompileUnit))         // tag
	b = append(b, 0x01)                         // has_children = true
	b = append(b, byte(AttrName), byte(FormString))
	b = append(b, 0x00, 0x00) // terminator pair

	// Code 2: DW_TAG_subprogram, no children, DW_AT_low_pc/DW_FORM_addr
	b = append(b, 0x02)
	b = append(b, byte(TagSubprogram))
	b = append(b, 0x00)
	b = append(b, byte(AttrLowpc), byte(FormAddr))
	b = append(b, 0x00, 0x00)

	// terminator for the table
	b = append(b, 0x00)
	return b
}

func TestAbbrevTableLookupAndMemoize(t *testing.T) {
	section := buildAbbrevSection(t)
	table := NewAbbrevTable(section, 0)

	e1, err := table.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, TagCompileUnit, e1.Tag)
	assert.True(t, e1.HasChildren)
	require.Len(t, e1.Attrs, 1)
	assert.Equal(t, AttrName, e1.Attrs[0].Attr)
	assert.Equal(t, FormString, e1.Attrs[0].Form)

	e2, err := table.Lookup(2)
	require.NoError(t, err)
	assert.Equal(t, TagSubprogram, e2.Tag)
	assert.False(t, e2.HasChildren)

	// Second lookup of an already-scanned code must hit the memo, not rescan.
	e1Again, err := table.Lookup(1)
	require.NoError(t, err)
	assert.Same(t, e1, e1Again)
}

func TestAbbrevTableUnknownCode(t *testing.T) {
	section := buildAbbrevSection(t)
	table := NewAbbrevTable(section, 0)

	_, err := table.Lookup(99)
	assert.ErrorIs(t, err, ErrUnknownForm)
}

func TestAbbrevTableDoneShortCircuits(t *testing.T) {
	section := buildAbbrevSection(t)
	table := NewAbbrevTable(section, 0)

	_, err := table.Lookup(99)
	assert.Error(t, err)
	assert.True(t, table.done)

	// Once done, a lookup of a previously memoized code still works from cache.
	_, err = table.Lookup(1)
	assert.NoError(t, err)
}
