package dwarf

// fixture_test.go builds a small, hand-assembled DWARF4/32-bit CU shared by
// session_test.go and provider_test.go: one compile_unit containing a base
// type "int", a function "main" with a formal parameter "argc" located via
// DW_OP_fbreg, and a lexical block holding a local "count".

type fixtureOffsets struct {
	cuStart      uint64
	baseType     uint64
	subprogram   uint64
	param        uint64
	lexBlock     uint64
	local        uint64
}

func appendULEB(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			return buf
		}
	}
}

func appendSLEB(buf []byte, v int64) []byte {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}

func appendU8(buf []byte, v uint8) []byte { return append(buf, v) }

func appendU32LE(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendCString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}

// buildFixtureAbbrev returns a .debug_abbrev table for the fixture's six
// DIE shapes.
func buildFixtureAbbrev() []byte {
	var b []byte

	// code 1: compile_unit, children, name/producer/stmt_list
	b = appendULEB(b, 1)
	b = appendULEB(b, uint64(TagCompileUnit))
	b = appendU8(b, 1)
	b = appendULEB(b, uint64(AttrName))
	b = appendULEB(b, uint64(FormStrp))
	b = appendULEB(b, uint64(AttrProducer))
	b = appendULEB(b, uint64(FormStrp))
	b = appendULEB(b, uint64(AttrStmtList))
	b = appendULEB(b, uint64(FormSecOffset))
	b = appendULEB(b, 0)
	b = appendULEB(b, 0)

	// code 2: base_type, no children, name/byte_size
	b = appendULEB(b, 2)
	b = appendULEB(b, uint64(TagBaseType))
	b = appendU8(b, 0)
	b = appendULEB(b, uint64(AttrName))
	b = appendULEB(b, uint64(FormString))
	b = appendULEB(b, uint64(AttrByteSize))
	b = appendULEB(b, uint64(FormData1))
	b = appendULEB(b, 0)
	b = appendULEB(b, 0)

	// code 3: subprogram, children, name/low_pc/high_pc/type
	b = appendULEB(b, 3)
	b = appendULEB(b, uint64(TagSubprogram))
	b = appendU8(b, 1)
	b = appendULEB(b, uint64(AttrName))
	b = appendULEB(b, uint64(FormString))
	b = appendULEB(b, uint64(AttrLowpc))
	b = appendULEB(b, uint64(FormAddr))
	b = appendULEB(b, uint64(AttrHighpc))
	b = appendULEB(b, uint64(FormData4))
	b = appendULEB(b, uint64(AttrType))
	b = appendULEB(b, uint64(FormRef4))
	b = appendULEB(b, 0)
	b = appendULEB(b, 0)

	// code 4: formal_parameter, no children, name/type/location
	b = appendULEB(b, 4)
	b = appendULEB(b, uint64(TagFormalParameter))
	b = appendU8(b, 0)
	b = appendULEB(b, uint64(AttrName))
	b = appendULEB(b, uint64(FormString))
	b = appendULEB(b, uint64(AttrType))
	b = appendULEB(b, uint64(FormRef4))
	b = appendULEB(b, uint64(AttrLocation))
	b = appendULEB(b, uint64(FormExprloc))
	b = appendULEB(b, 0)
	b = appendULEB(b, 0)

	// code 5: lexical_block, children, low_pc/high_pc
	b = appendULEB(b, 5)
	b = appendULEB(b, uint64(TagLexicalBlock))
	b = appendU8(b, 1)
	b = appendULEB(b, uint64(AttrLowpc))
	b = appendULEB(b, uint64(FormAddr))
	b = appendULEB(b, uint64(AttrHighpc))
	b = appendULEB(b, uint64(FormData4))
	b = appendULEB(b, 0)
	b = appendULEB(b, 0)

	// code 6: variable, no children, name/type/location
	b = appendULEB(b, 6)
	b = appendULEB(b, uint64(TagVariable))
	b = appendU8(b, 0)
	b = appendULEB(b, uint64(AttrName))
	b = appendULEB(b, uint64(FormString))
	b = appendULEB(b, uint64(AttrType))
	b = appendULEB(b, uint64(FormRef4))
	b = appendULEB(b, uint64(AttrLocation))
	b = appendULEB(b, uint64(FormExprloc))
	b = appendULEB(b, 0)
	b = appendULEB(b, 0)

	b = appendULEB(b, 0) // table terminator
	return b
}

// buildFixtureSections assembles a single-CU .debug_info/.debug_str pair
// (plus an empty .debug_line/.debug_aranges, exercised separately by
// line_test.go/aranges_test.go) implementing the DIE tree documented above
// this file, and returns the recorded byte offsets of each DIE for
// assertions once a Session has resolved references against them.
func buildFixtureSections() (Sections, fixtureOffsets) {
	var str []byte
	nameOff := uint64(len(str))
	str = appendCString(str, "main.c")
	producerOff := uint64(len(str))
	str = appendCString(str, "cucaracha-clang")

	abbrev := buildFixtureAbbrev()

	var off fixtureOffsets

	// Header is written last once the body length is known; build the body
	// first and prepend the 11-byte DWARF4/32-bit header.
	var body []byte

	// compile_unit (code 1)
	body = appendULEB(body, 1)
	body = appendU32LE(body, uint32(nameOff))
	body = appendU32LE(body, uint32(producerOff))
	body = appendU32LE(body, 0) // DW_AT_stmt_list -> .debug_line offset 0

	// base_type "int" (code 2)
	off.baseType = 11 + uint64(len(body))
	body = appendULEB(body, 2)
	body = appendCString(body, "int")
	body = appendU8(body, 4)

	// subprogram "main" (code 3)
	off.subprogram = 11 + uint64(len(body))
	body = appendULEB(body, 3)
	body = appendCString(body, "main")
	body = appendU32LE(body, 0x1000) // DW_AT_low_pc
	body = appendU32LE(body, 0x40)   // DW_AT_high_pc (DWARF4 offset form)
	body = appendU32LE(body, uint32(off.baseType))

	// formal_parameter "argc" (code 4), child of subprogram
	off.param = 11 + uint64(len(body))
	body = appendULEB(body, 4)
	body = appendCString(body, "argc")
	body = appendU32LE(body, uint32(off.baseType))
	var argcLoc []byte
	argcLoc = appendU8(argcLoc, 0x91) // DW_OP_fbreg
	argcLoc = appendSLEB(argcLoc, 8)
	body = appendULEB(body, uint64(len(argcLoc)))
	body = append(body, argcLoc...)

	// lexical_block, child of subprogram
	off.lexBlock = 11 + uint64(len(body))
	body = appendULEB(body, 5)
	body = appendU32LE(body, 0x1010) // DW_AT_low_pc
	body = appendU32LE(body, 0x10)   // DW_AT_high_pc

	// variable "count", child of lexical_block
	off.local = 11 + uint64(len(body))
	body = appendULEB(body, 6)
	body = appendCString(body, "count")
	body = appendU32LE(body, uint32(off.baseType))
	var countLoc []byte
	countLoc = appendU8(countLoc, 0x91) // DW_OP_fbreg
	countLoc = appendSLEB(countLoc, -4)
	body = appendULEB(body, uint64(len(countLoc)))
	body = append(body, countLoc...)

	body = appendULEB(body, 0) // end lexical_block's children
	body = appendULEB(body, 0) // end subprogram's children
	body = appendULEB(body, 0) // end compile_unit's children

	var info []byte
	length := uint32(7 + len(body)) // version(2)+abbrev_offset(4)+addr_size(1)+body
	info = appendU32LE(info, length)
	info = append(info, byte(4), byte(0)) // version 4, little-endian u16
	info = appendU32LE(info, 0)           // debug_abbrev_offset
	info = appendU8(info, 4)              // address_size
	info = append(info, body...)

	off.cuStart = 0

	return Sections{Info: info, Abbrev: abbrev, Str: str}, off
}
