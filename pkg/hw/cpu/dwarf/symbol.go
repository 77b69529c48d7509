package dwarf

// Attributes is the attribute map of one Symbol, keyed by attribute enum.
// Duplicate attributes on one DIE keep the last value decoded (spec.md
// §4.3 step 4), which a plain map assignment already gives us for free.
type Attributes map[Attribute]AttrValue

// Symbol is one Debug Information Entry (DIE): a tag, its attributes, and
// its place in the CU's tree. Symbols are arena-owned by their
// CompilationUnit (spec.md Design Notes "Cyclic graphs") — Type references
// that form cycles through pointer/struct members are plain *Symbol
// pointers into that arena, never a separately heap-managed object graph,
// so a self-referential struct-through-pointer does not need special
// casing anywhere in this package.
type Symbol struct {
	// ID is a dense, session-wide index assigned in DIE traversal order
	// (spec.md §4.7 "id↔DIE is kept in a single vector"). It is distinct
	// from Offset: higher layers treat ID as an opaque 32-bit token and
	// never assume it relates to file layout.
	ID uint32

	Tag        Tag
	Attributes Attributes

	// Offset is the absolute byte offset of this DIE in .debug_info, or -1
	// for the synthetic void symbol every CU's root gets as its first
	// child (spec.md §3 invariant).
	Offset int64

	Parent   *Symbol
	Children []*Symbol

	CU *CompilationUnit
}

// Attr returns the decoded value of an attribute, if present.
func (s *Symbol) Attr(a Attribute) (AttrValue, bool) {
	if s == nil || s.Attributes == nil {
		return nil, false
	}
	v, ok := s.Attributes[a]
	return v, ok
}

// Name returns DW_AT_name, or "" if absent or not a string.
func (s *Symbol) Name() string {
	v, ok := s.Attr(AttrName)
	if !ok {
		return ""
	}
	if str, ok := v.(StringValue); ok {
		return string(str)
	}
	return ""
}

// IsVoid reports whether this is the synthetic void symbol injected for its
// owning CU.
func (s *Symbol) IsVoid() bool {
	return s != nil && s.Offset == -1 && s.Tag == TagVoid
}

// TypeSymbol follows DW_AT_type to the referenced Symbol, if it has already
// been resolved by post-processing. It returns false for an unresolved
// Reference (treated as absent, per spec.md §3's invariant on unresolved
// references) or a missing attribute.
func (s *Symbol) TypeSymbol() (*Symbol, bool) {
	v, ok := s.Attr(AttrType)
	if !ok {
		return nil, false
	}
	resolved, ok := v.(ResolvedReferenceValue)
	if !ok || resolved.Symbol == nil {
		return nil, false
	}
	return resolved.Symbol, true
}

// ChildrenWithTag returns the direct children carrying the given tag, in
// source order.
func (s *Symbol) ChildrenWithTag(tag Tag) []*Symbol {
	var out []*Symbol
	for _, c := range s.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// HasVirtuality reports whether DW_AT_virtuality is present and not
// DW_VIRTUALITY_none (see the Open Question this core resolves in
// SPEC_FULL.md: Provider.FieldTypeAndOffset records an UnsupportedExpression
// diagnostic for such a member and reports it as not found, rather than a
// silently wrong offset).
func (s *Symbol) HasVirtuality() bool {
	v, ok := s.Attr(AttrVirtuality)
	if !ok {
		return false
	}
	c, ok := v.(ConstantValue)
	return ok && c.Raw != VirtualityNone
}
