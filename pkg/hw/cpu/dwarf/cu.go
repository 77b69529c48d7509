package dwarf

import "fmt"

// CompilationUnit is one translation unit's debug info (spec.md §3). It is
// immutable once parsed and post-processed; its Symbols are never moved or
// reallocated afterwards, so a *Symbol handed to a consumer stays valid for
// the session's lifetime.
type CompilationUnit struct {
	Start        uint64 // offset of the CU header in .debug_info
	End          uint64 // offset one past the end of this CU
	Version      uint16
	Is64Bit      bool
	AddressSize  int
	AbbrevOffset uint64

	Root *Symbol
	Void *Symbol

	abbrev *AbbrevTable
}

// minCUVersion/maxCUVersion bound the DWARF versions this core accepts
// (spec.md §1: "DWARF v2-4"); anything else is reported and the CU is
// skipped, never fatal to the session.
const (
	minCUVersion = 2
	maxCUVersion = 4
)

// cuHeader is the decoded fixed part of a CU header, before any DIEs are
// read.
type cuHeader struct {
	length       uint64
	is64         bool
	version      uint16
	abbrevOffset uint64
	addressSize  int
	headerEnd    uint64 // position right after the header, where DIE 0 starts
	unitEnd      uint64 // position one past the whole CU (header + DIEs)
}

// parseCUHeader reads "initial-length, version, debug-abbrev-offset,
// address-size" starting at the reader's current position (spec.md §4.3).
func parseCUHeader(r *ByteReader) (cuHeader, error) {
	start := r.Pos()
	length, is64, err := r.ReadLength()
	if err != nil {
		return cuHeader{}, err
	}
	lengthFieldSize := uint64(4)
	if is64 {
		lengthFieldSize = 12
	}
	unitEnd := start + lengthFieldSize + length

	version, err := r.ReadU16()
	if err != nil {
		return cuHeader{}, fmt.Errorf("%w: reading CU version: %v", ErrTruncatedSection, err)
	}
	abbrevOffset, err := r.ReadOffset(is64)
	if err != nil {
		return cuHeader{}, fmt.Errorf("%w: reading abbrev offset: %v", ErrTruncatedSection, err)
	}
	addrSize, err := r.ReadU8()
	if err != nil {
		return cuHeader{}, fmt.Errorf("%w: reading address size: %v", ErrTruncatedSection, err)
	}
	if addrSize != 4 && addrSize != 8 {
		return cuHeader{}, fmt.Errorf("%w: unsupported address size %d", ErrTruncatedSection, addrSize)
	}

	return cuHeader{
		length:       length,
		is64:         is64,
		version:      version,
		abbrevOffset: abbrevOffset,
		addressSize:  int(addrSize),
		headerEnd:    r.Pos(),
		unitEnd:      unitEnd,
	}, nil
}

// decodeFormValue reads one attribute's raw value per its form (the
// "Form -> variant table" of spec.md §3/§4.3), resolving DW_FORM_indirect
// transparently by reading another form code and recursing.
func decodeFormValue(r *ByteReader, cu *CompilationUnit, debugStr []byte, form Form) (AttrValue, error) {
	switch form {
	case FormAddr:
		v, err := r.ReadULong(cu.AddressSize)
		if err != nil {
			return nil, err
		}
		return AddressValue(v), nil

	case FormData1:
		v, err := r.ReadU8()
		return ConstantValue{Raw: uint64(v)}, err
	case FormData2:
		v, err := r.ReadU16()
		return ConstantValue{Raw: uint64(v)}, err
	case FormData4:
		v, err := r.ReadU32()
		return ConstantValue{Raw: uint64(v)}, err
	case FormData8:
		v, err := r.ReadU64()
		return ConstantValue{Raw: v}, err
	case FormUdata:
		v, err := r.ReadULEB128()
		return ConstantValue{Raw: v}, err
	case FormSdata:
		v, err := r.ReadSLEB128()
		return ConstantValue{Raw: uint64(v), Signed: true}, err

	case FormString:
		s, err := r.ReadString()
		return StringValue(s), err
	case FormStrp:
		off, err := r.ReadOffset(cu.Is64Bit)
		if err != nil {
			return nil, err
		}
		s, err := ReadStringAt(debugStr, off)
		if err != nil {
			return nil, err
		}
		return StringValue(s), nil

	case FormFlag:
		v, err := r.ReadU8()
		return FlagValue(v != 0), err
	case FormFlagPresent:
		return FlagValue(true), nil

	case FormBlock1:
		n, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		b, err := r.ReadBlock(int(n))
		return BlockValue(b), err
	case FormBlock2:
		n, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		b, err := r.ReadBlock(int(n))
		return BlockValue(b), err
	case FormBlock4:
		n, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		b, err := r.ReadBlock(int(n))
		return BlockValue(b), err
	case FormBlock:
		n, err := r.ReadULEB128()
		if err != nil {
			return nil, err
		}
		b, err := r.ReadBlock(int(n))
		return BlockValue(b), err
	case FormExprloc:
		n, err := r.ReadULEB128()
		if err != nil {
			return nil, err
		}
		b, err := r.ReadBlock(int(n))
		return ExpressionLocationValue(b), err

	case FormRef1:
		v, err := r.ReadU8()
		return ReferenceValue(cu.Start + uint64(v)), err
	case FormRef2:
		v, err := r.ReadU16()
		return ReferenceValue(cu.Start + uint64(v)), err
	case FormRef4:
		v, err := r.ReadU32()
		return ReferenceValue(cu.Start + uint64(v)), err
	case FormRef8:
		v, err := r.ReadU64()
		return ReferenceValue(cu.Start + v), err
	case FormRefUdata:
		v, err := r.ReadULEB128()
		return ReferenceValue(cu.Start + v), err
	case FormRefAddr:
		v, err := r.ReadOffset(cu.Is64Bit)
		return ReferenceValue(v), err

	case FormSecOffset:
		v, err := r.ReadOffset(cu.Is64Bit)
		return SecOffsetValue(v), err

	case FormIndirect:
		innerForm, err := r.ReadULEB128()
		if err != nil {
			return nil, err
		}
		return decodeFormValue(r, cu, debugStr, Form(innerForm))

	case FormRefSig8:
		// Type-unit signature references (.debug_types) are out of scope
		// (spec.md Non-goals); read past the 8-byte signature and treat as
		// invalid so the rest of the DIE still decodes correctly.
		if _, err := r.ReadU64(); err != nil {
			return nil, err
		}
		return InvalidValue{}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownForm, form)
	}
}

// buildDIETree parses DIEs from r (positioned at the first DIE of the CU)
// until cu.End, following the parent-stack algorithm of spec.md §4.3: a
// code of 0 pops the current parent, otherwise a DIE is built, attached to
// the current parent, and pushed as the new parent iff its abbreviation
// declares children. The very first DIE at depth 0 becomes cu.Root itself
// (the compile_unit/partial_unit DIE), not a child of it — a well-formed CU
// has exactly one DIE at depth 0. Newly built symbols are recorded in
// byOffset as they are constructed, so forward references anywhere in the
// session can later be resolved against a single, fully populated index.
func buildDIETree(r *ByteReader, cu *CompilationUnit, debugStr []byte, byOffset map[uint64]*Symbol) error {
	var stack []*Symbol

	for r.Pos() < cu.End {
		dieOffset := r.Pos()
		code, err := r.ReadULEB128()
		if err != nil {
			return fmt.Errorf("%w: CU@%d: reading DIE code at %d: %v", ErrTruncatedSection, cu.Start, dieOffset, err)
		}

		if code == 0 {
			if len(stack) == 0 {
				// A stray terminator at CU scope; nothing left to pop.
				continue
			}
			stack = stack[:len(stack)-1]
			continue
		}

		entry, err := cu.abbrev.Lookup(code)
		if err != nil {
			return fmt.Errorf("CU@%d: DIE@%d: %w", cu.Start, dieOffset, err)
		}

		sym := &Symbol{
			Tag:        entry.Tag,
			Offset:     int64(dieOffset),
			Attributes: make(Attributes, len(entry.Attrs)),
			CU:         cu,
		}

		for _, spec := range entry.Attrs {
			val, err := decodeFormValue(r, cu, debugStr, spec.Form)
			if err != nil {
				return fmt.Errorf("CU@%d: DIE@%d: attribute %s: %w", cu.Start, dieOffset, spec.Attr, err)
			}
			// Block-form DW_AT_location/DW_AT_data_member_location (DWARF
			// 2/3) hold the same expression bytes as DW_FORM_exprloc.
			if b, ok := val.(BlockValue); ok && (spec.Attr == AttrLocation || spec.Attr == AttrDataMemberLoc) {
				val = ExpressionLocationValue(b)
			}
			// Duplicate attributes keep the last value (spec.md §4.3 step 4):
			// a plain map write already does this.
			sym.Attributes[spec.Attr] = val
		}

		byOffset[dieOffset] = sym

		if len(stack) == 0 {
			if cu.Root == nil {
				cu.Root = sym
			} else {
				// A malformed stream with more than one depth-0 DIE: attach
				// as a stray sibling of the root rather than losing it.
				sym.Parent = cu.Root
				cu.Root.Children = append(cu.Root.Children, sym)
			}
		} else {
			parent := stack[len(stack)-1]
			sym.Parent = parent
			parent.Children = append(parent.Children, sym)
		}

		// A DIE whose abbreviation declares has_children=true but whose
		// first child is immediately the terminator is a valid, empty
		// child list (spec.md Open Question 2, resolved in SPEC_FULL.md):
		// pushing it onto the parent stack and then immediately popping it
		// on the next code==0 read produces exactly that.
		if entry.HasChildren {
			stack = append(stack, sym)
		}
	}

	return nil
}
