package dwarf

// AttrValue is the decoded value of one DIE attribute. It is a closed
// tagged variant — one concrete type per form family named in spec.md §3 —
// following the same isX() marker-method idiom as mc.VariableLocation
// (pkg/hw/cpu/mc/debuginfo.go): consumers type-switch exhaustively instead
// of relying on open polymorphism, which would let new, DWARF-spec-illegal
// variants creep in.
type AttrValue interface {
	isAttrValue()
}

// AddressValue is a target address (DW_FORM_addr), already passed through
// the session's address normalizer exactly once.
type AddressValue uint64

func (AddressValue) isAttrValue() {}

// ConstantValue is a fixed-width or LEB128 constant (DW_FORM_data*,
// DW_FORM_sdata, DW_FORM_udata). Signed records whether Raw should be
// interpreted as a two's-complement int64 or a plain uint64.
type ConstantValue struct {
	Raw    uint64
	Signed bool
}

func (ConstantValue) isAttrValue() {}

// Int64 interprets the constant as signed.
func (c ConstantValue) Int64() int64 { return int64(c.Raw) }

// Uint64 interprets the constant as unsigned.
func (c ConstantValue) Uint64() uint64 { return c.Raw }

// BlockValue is an uninterpreted byte block (DW_FORM_block*), borrowed from
// the owning section.
type BlockValue []byte

func (BlockValue) isAttrValue() {}

// StringValue is a decoded string (DW_FORM_string, DW_FORM_strp).
type StringValue string

func (StringValue) isAttrValue() {}

// FlagValue is a boolean (DW_FORM_flag, DW_FORM_flag_present).
type FlagValue bool

func (FlagValue) isAttrValue() {}

// ReferenceValue is an unresolved reference to another DIE, stored as an
// absolute offset into .debug_info (spec.md §3: "Offsets in references are
// stored relative to the CU's starting file offset for Ref1/2/4/8/uData
// forms, and absolute for RefAddr" — this core normalizes both cases to an
// absolute offset at decode time so resolution never needs to know which
// form produced it).
type ReferenceValue uint64

func (ReferenceValue) isAttrValue() {}

// ResolvedReferenceValue is a ReferenceValue that post-processing resolved
// to its target Symbol.
type ResolvedReferenceValue struct {
	Symbol *Symbol
}

func (ResolvedReferenceValue) isAttrValue() {}

// ExpressionLocationValue is a DWARF location expression (DW_FORM_exprloc,
// or a block-form DW_AT_location/DW_AT_data_member_location), to be
// interpreted by the location evaluator (location.go).
type ExpressionLocationValue []byte

func (ExpressionLocationValue) isAttrValue() {}

// SecOffsetValue is an offset into another section (DW_FORM_sec_offset):
// DW_AT_stmt_list into .debug_line, DW_AT_ranges into .debug_ranges.
type SecOffsetValue uint64

func (SecOffsetValue) isAttrValue() {}

// InvalidValue marks an attribute whose value this core does not decode:
// a DW_FORM_ref_sig8 type-unit signature (cu.go) decodes to it so the rest
// of the DIE still parses. A malformed form never produces it; it aborts the
// whole CU (spec.md §7) instead.
type InvalidValue struct{}

func (InvalidValue) isAttrValue() {}
