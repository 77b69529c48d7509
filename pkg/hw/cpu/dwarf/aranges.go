package dwarf

import (
	"fmt"
	"sort"
)

// ArangeEntry maps one contiguous address range to the CU that owns it
// (spec.md §4.6).
type ArangeEntry struct {
	Low    uint64
	High   uint64 // exclusive
	CU     *CompilationUnit
}

// ArangeIndex is a sorted, binary-searchable index of address ranges,
// either decoded from .debug_aranges or synthesized from each CU's
// subprogram DW_AT_low_pc/DW_AT_high_pc when the section is absent or a CU
// has no entry in it (spec.md §4.6 "falls back to low_pc/high_pc").
type ArangeIndex struct {
	entries []ArangeEntry
}

// BuildArangeIndex decodes section (.debug_aranges) when non-empty,
// otherwise synthesizes ranges by scanning every CU's subprogram DIEs for
// DW_AT_low_pc/DW_AT_high_pc.
func BuildArangeIndex(section []byte, cus []*CompilationUnit) (*ArangeIndex, error) {
	idx := &ArangeIndex{}

	if len(section) > 0 {
		if err := idx.parseSection(section, cus); err != nil {
			return nil, err
		}
	}

	if len(idx.entries) == 0 {
		idx.synthesizeFromCUs(cus)
	}

	sort.Slice(idx.entries, func(i, j int) bool { return idx.entries[i].Low < idx.entries[j].Low })
	return idx, nil
}

func cuAt(cus []*CompilationUnit, debugInfoOffset uint64) *CompilationUnit {
	for _, cu := range cus {
		if cu.Start == debugInfoOffset {
			return cu
		}
	}
	return nil
}

func (idx *ArangeIndex) parseSection(section []byte, cus []*CompilationUnit) error {
	r := NewByteReader(section)
	for !r.Done() {
		start := r.Pos()
		length, is64, err := r.ReadLength()
		if err != nil {
			return fmt.Errorf("%w: .debug_aranges@%d: %v", ErrTruncatedSection, start, err)
		}
		lengthFieldSize := uint64(4)
		if is64 {
			lengthFieldSize = 12
		}
		setEnd := start + lengthFieldSize + length

		if _, err := r.ReadU16(); err != nil { // version
			return err
		}
		debugInfoOffset, err := r.ReadOffset(is64)
		if err != nil {
			return err
		}
		addressSize, err := r.ReadU8()
		if err != nil {
			return err
		}
		if _, err := r.ReadU8(); err != nil { // segment_selector_size
			return err
		}

		// Tuples are aligned to a multiple of 2*address_size from the start
		// of the set, per the DWARF aranges header rule.
		tupleSize := 2 * int(addressSize)
		headerLen := int(r.Pos() - start)
		if pad := (tupleSize - headerLen%tupleSize) % tupleSize; pad > 0 {
			if _, err := r.ReadBlock(pad); err != nil {
				return err
			}
		}

		cu := cuAt(cus, debugInfoOffset)

		for r.Pos() < setEnd {
			low, err := r.ReadULong(int(addressSize))
			if err != nil {
				return err
			}
			length, err := r.ReadULong(int(addressSize))
			if err != nil {
				return err
			}
			if low == 0 && length == 0 {
				break
			}
			if cu != nil {
				idx.entries = append(idx.entries, ArangeEntry{Low: low, High: low + length, CU: cu})
			}
		}

		if err := r.SetPos(setEnd); err != nil {
			return err
		}
	}
	return nil
}

func (idx *ArangeIndex) synthesizeFromCUs(cus []*CompilationUnit) {
	for _, cu := range cus {
		var visit func(*Symbol)
		visit = func(sym *Symbol) {
			if sym.Tag == TagSubprogram {
				low, high, ok := subprogramRange(sym)
				if ok {
					idx.entries = append(idx.entries, ArangeEntry{Low: low, High: high, CU: cu})
				}
			}
			for _, c := range sym.Children {
				visit(c)
			}
		}
		if cu.Root != nil {
			visit(cu.Root)
		}
	}
}

func subprogramRange(sym *Symbol) (low, high uint64, ok bool) {
	lowVal, hasLow := sym.Attr(AttrLowpc)
	highVal, hasHigh := sym.Attr(AttrHighpc)
	if !hasLow || !hasHigh {
		return 0, 0, false
	}
	lowAddr, isLow := lowVal.(AddressValue)
	if !isLow {
		return 0, 0, false
	}
	switch h := highVal.(type) {
	case AddressValue:
		// DWARF 2/3 style: DW_AT_high_pc is itself an absolute address.
		return uint64(lowAddr), uint64(h), true
	case ConstantValue:
		// DWARF4 style: DW_AT_high_pc is an offset from low_pc.
		return uint64(lowAddr), uint64(lowAddr) + h.Uint64(), true
	default:
		return 0, 0, false
	}
}

// Lookup returns the CompilationUnit whose range contains pc, if any.
func (idx *ArangeIndex) Lookup(pc uint64) (*CompilationUnit, bool) {
	i := sort.Search(len(idx.entries), func(i int) bool { return idx.entries[i].Low > pc }) - 1
	if i < 0 {
		return nil, false
	}
	e := idx.entries[i]
	if pc >= e.Low && pc < e.High {
		return e.CU, true
	}
	return nil, false
}
