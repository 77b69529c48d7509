package dwarf

import "fmt"

// AbbrevAttrSpec is one (attribute, form) pair declared by an abbreviation.
type AbbrevAttrSpec struct {
	Attr Attribute
	Form Form
}

// AbbrevEntry is a CU-local schema for one DIE shape: its tag, whether it
// has children, and its ordered attribute/form list (spec.md §4.2).
type AbbrevEntry struct {
	Code        uint64
	Tag         Tag
	HasChildren bool
	Attrs       []AbbrevAttrSpec
}

// AbbrevTable is a lazy decoder of .debug_abbrev for one CU. Entries are
// memoized by code as they are scanned; a "last position" is kept so
// repeated lookups resume scanning where the previous one left off instead
// of restarting from the CU's abbrev offset every time (spec.md §4.2:
// "keeping a last position so subsequent lookups resume in O(1)
// amortized").
type AbbrevTable struct {
	section []byte
	pos     uint64 // next unscanned position, absolute within section
	done    bool   // true once the code-0 terminator has been scanned
	entries map[uint64]*AbbrevEntry
}

// NewAbbrevTable creates a table that will scan section starting at offset
// (the CU's debug_abbrev_offset) the first time an uncached code is
// requested.
func NewAbbrevTable(section []byte, offset uint64) *AbbrevTable {
	return &AbbrevTable{
		section: section,
		pos:     offset,
		entries: make(map[uint64]*AbbrevEntry),
	}
}

// Lookup returns the abbreviation for code, scanning forward and memoizing
// every entry seen along the way.
func (t *AbbrevTable) Lookup(code uint64) (*AbbrevEntry, error) {
	if e, ok := t.entries[code]; ok {
		return e, nil
	}
	if t.done {
		return nil, fmt.Errorf("%w: unknown abbreviation code %d", ErrUnknownForm, code)
	}

	for {
		r := NewByteReaderAt(t.section, t.pos)
		entryCode, err := r.ReadULEB128()
		if err != nil {
			return nil, fmt.Errorf("%w: reading abbreviation code: %v", ErrTruncatedSection, err)
		}
		if entryCode == 0 {
			t.pos = r.Pos()
			t.done = true
			if e, ok := t.entries[code]; ok {
				return e, nil
			}
			return nil, fmt.Errorf("%w: unknown abbreviation code %d", ErrUnknownForm, code)
		}

		tagVal, err := r.ReadULEB128()
		if err != nil {
			return nil, fmt.Errorf("%w: reading abbreviation tag: %v", ErrTruncatedSection, err)
		}
		hasChildren, err := r.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("%w: reading children flag: %v", ErrTruncatedSection, err)
		}

		entry := &AbbrevEntry{
			Code:        entryCode,
			Tag:         Tag(tagVal),
			HasChildren: hasChildren != 0,
		}

		for {
			attrVal, err := r.ReadULEB128()
			if err != nil {
				return nil, fmt.Errorf("%w: reading attribute spec: %v", ErrTruncatedSection, err)
			}
			formVal, err := r.ReadULEB128()
			if err != nil {
				return nil, fmt.Errorf("%w: reading form spec: %v", ErrTruncatedSection, err)
			}
			if attrVal == 0 && formVal == 0 {
				break
			}
			entry.Attrs = append(entry.Attrs, AbbrevAttrSpec{
				Attr: Attribute(attrVal),
				Form: Form(formVal),
			})
		}

		t.entries[entryCode] = entry
		t.pos = r.Pos()

		if entryCode == code {
			return entry, nil
		}
	}
}
