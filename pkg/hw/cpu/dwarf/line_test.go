package dwarf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildLineProgramSection assembles a minimal DWARF4 .debug_line program
// for one CU: two statement rows ("test.c" lines 1 and 10) followed by an
// end-of-sequence terminator, exercising DW_LNS_copy/advance_pc/advance_line
// and DW_LNE_set_address/end_sequence.
func buildLineProgramSection() []byte {
	var header []byte
	header = append(header, byte(4), byte(0)) // version 4
	header = appendU32LE(header, 0)           // header_length, unused by this parser

	header = appendU8(header, 1)          // minimum_instruction_length
	header = appendU8(header, 1)          // default_is_stmt
	header = append(header, byte(int8(-5))) // line_base
	header = appendU8(header, 14)         // line_range
	header = appendU8(header, 13)         // opcode_base

	stdOpLens := []uint8{0, 1, 1, 1, 1, 0, 0, 0, 1, 0, 0, 1}
	for _, n := range stdOpLens {
		header = appendU8(header, n)
	}

	header = appendU8(header, 0) // no include directories

	header = appendCString(header, "test.c")
	header = appendULEB(header, 0) // directory index
	header = appendULEB(header, 0) // mtime
	header = appendULEB(header, 0) // length
	header = appendU8(header, 0)   // end of file_names

	var program []byte
	// DW_LNE_set_address 0x1000
	program = appendU8(program, 0x00)
	program = appendULEB(program, 5) // sub-opcode + 4-byte address
	program = appendU8(program, lneSetAddress)
	program = appendU32LE(program, 0x1000)
	// DW_LNS_copy -> row (0x1000, line 1)
	program = appendU8(program, lnsCopy)
	// DW_LNS_advance_pc 4
	program = appendU8(program, lnsAdvancePC)
	program = appendULEB(program, 4)
	// DW_LNS_advance_line +9
	program = appendU8(program, lnsAdvanceLine)
	program = appendSLEB(program, 9)
	// DW_LNS_copy -> row (0x1004, line 10)
	program = appendU8(program, lnsCopy)
	// DW_LNS_advance_pc 4
	program = appendU8(program, lnsAdvancePC)
	program = appendULEB(program, 4)
	// DW_LNE_end_sequence -> row (0x1008, EndSequence)
	program = appendU8(program, 0x00)
	program = appendULEB(program, 1)
	program = appendU8(program, lneEndSequence)

	body := append(header, program...)
	var section []byte
	section = appendU32LE(section, uint32(len(body)))
	section = append(section, body...)
	return section
}

func TestParseLineTableBasicRows(t *testing.T) {
	section := buildLineProgramSection()
	table, err := ParseLineTable(section, 0, 4)
	require.NoError(t, err)

	rows := table.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, uint64(0x1000), rows[0].Address)
	assert.Equal(t, 1, rows[0].Line)
	assert.Equal(t, "test.c", rows[0].File)
	assert.False(t, rows[0].EndSequence)

	assert.Equal(t, uint64(0x1004), rows[1].Address)
	assert.Equal(t, 10, rows[1].Line)

	assert.Equal(t, uint64(0x1008), rows[2].Address)
	assert.True(t, rows[2].EndSequence)
}

func TestLineTableLookup(t *testing.T) {
	section := buildLineProgramSection()
	table, err := ParseLineTable(section, 0, 4)
	require.NoError(t, err)

	file, line, disp, ok := table.Lookup(0x1000)
	require.True(t, ok)
	assert.Equal(t, "test.c", file)
	assert.Equal(t, 1, line)
	assert.Equal(t, uint64(0), disp)

	_, line, disp, ok = table.Lookup(0x1003)
	require.True(t, ok)
	assert.Equal(t, 1, line)
	assert.Equal(t, uint64(3), disp)

	_, line, _, ok = table.Lookup(0x1004)
	require.True(t, ok)
	assert.Equal(t, 10, line)

	_, _, _, ok = table.Lookup(0x1008)
	assert.False(t, ok, "landing exactly on the end-of-sequence marker reports no line info")

	_, _, _, ok = table.Lookup(0x2000)
	assert.False(t, ok, "past the last sequence reports no line info")

	_, _, _, ok = table.Lookup(0x0FFF)
	assert.False(t, ok, "before the first row reports no line info")
}

func TestLineTableLookupEmptyTable(t *testing.T) {
	var table LineTable
	_, _, _, ok := table.Lookup(0x1000)
	assert.False(t, ok)
}
