package dwarf

import (
	"fmt"
	"sort"
)

// LineRow is one row of a compilation unit's line-number matrix: the
// address where a source position starts being true, until the next row or
// an EndSequence (spec.md §4.4).
type LineRow struct {
	Address    uint64
	File       string
	Line       int
	Column     int
	IsStmt     bool
	EndSequence bool
}

// LineTable is the decoded, address-sorted line matrix for one CU's
// .debug_line program.
type LineTable struct {
	rows []LineRow
}

// lineProgramHeader is the fixed part of a .debug_line program header
// (spec.md §4.4), decoded once before running the state machine.
type lineProgramHeader struct {
	unitEnd                uint64
	version                uint16
	minInstructionLength   uint8
	defaultIsStmt          bool
	lineBase               int8
	lineRange              uint8
	opcodeBase             uint8
	standardOpcodeLengths  []uint8
	includeDirectories     []string
	fileNames              []string
	programStart           uint64
}

func parseLineProgramHeader(r *ByteReader) (lineProgramHeader, bool, error) {
	length, is64, err := r.ReadLength()
	if err != nil {
		return lineProgramHeader{}, is64, err
	}
	lengthFieldSize := uint64(4)
	if is64 {
		lengthFieldSize = 12
	}
	start := r.Pos() - lengthFieldSize
	unitEnd := start + lengthFieldSize + length

	version, err := r.ReadU16()
	if err != nil {
		return lineProgramHeader{}, is64, fmt.Errorf("%w: line program version: %v", ErrTruncatedSection, err)
	}

	_, err = r.ReadOffset(is64) // header_length / prologue_length, unused: we trust programStart below
	if err != nil {
		return lineProgramHeader{}, is64, fmt.Errorf("%w: line program header length: %v", ErrTruncatedSection, err)
	}

	minInstrLen, err := r.ReadU8()
	if err != nil {
		return lineProgramHeader{}, is64, err
	}
	defaultIsStmt, err := r.ReadU8()
	if err != nil {
		return lineProgramHeader{}, is64, err
	}

	lineBaseRaw, err := r.ReadU8()
	if err != nil {
		return lineProgramHeader{}, is64, err
	}
	lineRange, err := r.ReadU8()
	if err != nil {
		return lineProgramHeader{}, is64, err
	}
	opcodeBase, err := r.ReadU8()
	if err != nil {
		return lineProgramHeader{}, is64, err
	}

	stdOpLengths := make([]uint8, opcodeBase-1)
	for i := range stdOpLengths {
		stdOpLengths[i], err = r.ReadU8()
		if err != nil {
			return lineProgramHeader{}, is64, err
		}
	}

	var includeDirs []string
	for {
		s, err := r.ReadString()
		if err != nil {
			return lineProgramHeader{}, is64, err
		}
		if s == "" {
			break
		}
		includeDirs = append(includeDirs, s)
	}

	var fileNames []string
	// A zero-indexed placeholder keeps DW_LNS_set_file's file index
	// (1-based in DWARF 2-4) directly usable against this slice.
	fileNames = append(fileNames, "")
	for {
		s, err := r.ReadString()
		if err != nil {
			return lineProgramHeader{}, is64, err
		}
		if s == "" {
			break
		}
		if _, err := r.ReadULEB128(); err != nil { // directory index
			return lineProgramHeader{}, is64, err
		}
		if _, err := r.ReadULEB128(); err != nil { // mtime
			return lineProgramHeader{}, is64, err
		}
		if _, err := r.ReadULEB128(); err != nil { // file length
			return lineProgramHeader{}, is64, err
		}
		fileNames = append(fileNames, s)
	}

	return lineProgramHeader{
		unitEnd:               unitEnd,
		version:                version,
		minInstructionLength:  minInstrLen,
		defaultIsStmt:         defaultIsStmt != 0,
		lineBase:              int8(lineBaseRaw),
		lineRange:             lineRange,
		opcodeBase:            opcodeBase,
		standardOpcodeLengths: stdOpLengths,
		includeDirectories:    includeDirs,
		fileNames:             fileNames,
		programStart:          r.Pos(),
	}, is64, nil
}

// Standard line-number program opcodes (DW_LNS_*).
const (
	lnsCopy             = 0x01
	lnsAdvancePC        = 0x02
	lnsAdvanceLine      = 0x03
	lnsSetFile          = 0x04
	lnsSetColumn        = 0x05
	lnsNegateStmt       = 0x06
	lnsSetBasicBlock    = 0x07
	lnsConstAddPC       = 0x08
	lnsFixedAdvancePC   = 0x09
	lnsSetPrologueEnd   = 0x0a
	lnsSetEpilogueBegin = 0x0b
	lnsSetISA           = 0x0c
)

// Extended line-number program opcodes (DW_LNE_*).
const (
	lneEndSequence  = 0x01
	lneSetAddress   = 0x02
	lneDefineFile   = 0x03
)

// ParseLineTable runs the line-number program for one CU starting at
// stmtListOffset (the CU's DW_AT_stmt_list) within section (.debug_line),
// per the state machine of spec.md §4.4.
func ParseLineTable(section []byte, stmtListOffset uint64, addressSize int) (*LineTable, error) {
	r := NewByteReaderAt(section, stmtListOffset)
	hdr, _, err := parseLineProgramHeader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: .debug_line@%d: %v", ErrNoLineInfo, stmtListOffset, err)
	}

	if err := r.SetPos(hdr.programStart); err != nil {
		return nil, err
	}

	var (
		table       LineTable
		address     uint64
		file        = 1
		line        = 1
		column      = 0
		isStmt      = hdr.defaultIsStmt
	)

	emit := func(endSeq bool) {
		name := ""
		if file >= 0 && file < len(hdr.fileNames) {
			name = hdr.fileNames[file]
		}
		table.rows = append(table.rows, LineRow{
			Address:     address,
			File:        name,
			Line:        line,
			Column:      column,
			IsStmt:      isStmt,
			EndSequence: endSeq,
		})
	}

	resetRegisters := func() {
		address = 0
		file = 1
		line = 1
		column = 0
		isStmt = hdr.defaultIsStmt
	}

	for r.Pos() < hdr.unitEnd {
		opcode, err := r.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("%w: reading opcode: %v", ErrTruncatedSection, err)
		}

		switch {
		case opcode == 0:
			// Extended opcode: ULEB128 length, then the sub-opcode and its
			// operands within that length.
			length, err := r.ReadULEB128()
			if err != nil {
				return nil, err
			}
			subOpcodeStart := r.Pos()
			subOpcode, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			switch subOpcode {
			case lneEndSequence:
				emit(true)
				resetRegisters()
			case lneSetAddress:
				address, err = r.ReadULong(addressSize)
				if err != nil {
					return nil, err
				}
			case lneDefineFile:
				if _, err := r.ReadString(); err != nil {
					return nil, err
				}
				for i := 0; i < 3; i++ {
					if _, err := r.ReadULEB128(); err != nil {
						return nil, err
					}
				}
			default:
				// Unknown vendor extension: skip by length, don't fail the
				// whole CU's line table over it.
			}
			if err := r.SetPos(subOpcodeStart + length); err != nil {
				return nil, err
			}

		case opcode < hdr.opcodeBase:
			switch int(opcode) {
			case lnsCopy:
				emit(false)
			case lnsAdvancePC:
				adv, err := r.ReadULEB128()
				if err != nil {
					return nil, err
				}
				address += adv * uint64(hdr.minInstructionLength)
			case lnsAdvanceLine:
				adv, err := r.ReadSLEB128()
				if err != nil {
					return nil, err
				}
				line += int(adv)
			case lnsSetFile:
				f, err := r.ReadULEB128()
				if err != nil {
					return nil, err
				}
				file = int(f)
			case lnsSetColumn:
				c, err := r.ReadULEB128()
				if err != nil {
					return nil, err
				}
				column = int(c)
			case lnsNegateStmt:
				isStmt = !isStmt
			case lnsSetBasicBlock, lnsSetPrologueEnd, lnsSetEpilogueBegin:
				// No registers in LineRow track these; read nothing further.
			case lnsConstAddPC:
				adjusted := int(255) - int(hdr.opcodeBase)
				address += uint64(adjusted/int(hdr.lineRange)) * uint64(hdr.minInstructionLength)
			case lnsFixedAdvancePC:
				adv, err := r.ReadU16()
				if err != nil {
					return nil, err
				}
				address += uint64(adv)
			case lnsSetISA:
				if _, err := r.ReadULEB128(); err != nil {
					return nil, err
				}
			default:
				// A standard opcode beyond what this core interprets: skip
				// its declared operand count.
				n := int(hdr.standardOpcodeLengths[opcode-1])
				for i := 0; i < n; i++ {
					if _, err := r.ReadULEB128(); err != nil {
						return nil, err
					}
				}
			}

		default:
			// Special opcode: advances both address and line in one byte.
			adjusted := int(opcode) - int(hdr.opcodeBase)
			addrAdv := adjusted / int(hdr.lineRange)
			lineAdv := int(hdr.lineBase) + adjusted%int(hdr.lineRange)
			address += uint64(addrAdv) * uint64(hdr.minInstructionLength)
			line += lineAdv
			emit(false)
		}
	}

	sort.Slice(table.rows, func(i, j int) bool { return table.rows[i].Address < table.rows[j].Address })
	return &table, nil
}

// Lookup finds the row whose range covers pc: the last row with
// Address <= pc that is not itself an EndSequence terminator. It returns the
// file, line, and pc's displacement from that row's address (spec.md §4.4
// scenario S3). ok is false if pc falls before the first row, past the last
// sequence, or lands exactly on an EndSequence marker.
func (t *LineTable) Lookup(pc uint64) (file string, line int, displacement uint64, ok bool) {
	if len(t.rows) == 0 {
		return "", 0, 0, false
	}
	idx := sort.Search(len(t.rows), func(i int) bool { return t.rows[i].Address > pc }) - 1
	if idx < 0 {
		return "", 0, 0, false
	}
	row := t.rows[idx]
	if row.EndSequence {
		return "", 0, 0, false
	}
	return row.File, row.Line, pc - row.Address, true
}

// Rows returns the table's rows in address order, for callers that need to
// walk the whole matrix (e.g. a symbol browser listing source lines).
func (t *LineTable) Rows() []LineRow {
	return t.rows
}
