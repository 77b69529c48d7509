package dwarf

import (
	"fmt"
	"sync/atomic"
)

// Sections is the raw byte content of every DWARF section this core reads.
// Callers (the ELF/Mach-O/PE loader, or a test fixture) are responsible for
// slicing these out of whatever container format holds them; this package
// never looks at a container format itself.
type Sections struct {
	Info    []byte // .debug_info
	Abbrev  []byte // .debug_abbrev
	Str     []byte // .debug_str
	Line    []byte // .debug_line
	Ranges  []byte // .debug_ranges
	Aranges []byte // .debug_aranges
}

// CancelToken lets a long parse be aborted between CUs and between DIEs
// (spec.md §5 "checked between CUs and between DIEs"). A nil CancelToken is
// the same as one that never cancels.
type CancelToken interface {
	Cancelled() bool
}

// AtomicCancelToken is a CancelToken any goroutine can flip with Cancel, safe
// for concurrent use by the parsing goroutine and whatever goroutine decides
// to abort it (e.g. a UI "stop" button).
type AtomicCancelToken struct {
	flag atomic.Bool
}

// Cancel requests cancellation; idempotent.
func (t *AtomicCancelToken) Cancel() { t.flag.Store(true) }

// Cancelled implements CancelToken.
func (t *AtomicCancelToken) Cancelled() bool { return t.flag.Load() }

func cancelled(tok CancelToken) bool {
	return tok != nil && tok.Cancelled()
}

// ErrCancelled is returned by Parse when a CancelToken fires mid-parse.
// Whatever CUs had already finished their structural pass remain usable; the
// session just never reaches the reference-resolution and specification-merge
// passes.
var ErrCancelled = fmt.Errorf("parse cancelled")

// AddressNormalizer adjusts a decoded DW_FORM_addr value into whatever
// address space the caller actually wants symbols resolved in — typically
// adding a runtime load/image base to a link-time address (spec.md §3,
// §4.3: "Address-form values are passed through a caller-supplied address
// normalizer exactly once at parse time"). It is applied to every
// AddressValue attribute exactly once, during Parse's reference-resolution
// pass. A nil AddressNormalizer is the identity function.
type AddressNormalizer func(addr uint64) uint64

func (n AddressNormalizer) apply(addr uint64) uint64 {
	if n == nil {
		return addr
	}
	return n(addr)
}

// Session owns every CompilationUnit parsed from one set of Sections, plus
// the session-wide indices post-processing needs to resolve references that
// cross CU boundaries (spec.md §3, §5).
type Session struct {
	Sections    Sections
	CUs         []*CompilationUnit
	Diagnostics *DiagnosticSink

	byOffset map[uint64]*Symbol
	byID     []*Symbol
}

// NewSession creates an empty session over the given sections. sink may be
// nil, in which case a no-op sink is used.
func NewSession(sections Sections, sink *DiagnosticSink) *Session {
	if sink == nil {
		sink = NewDiagnosticSink()
	}
	return &Session{
		Sections:    sections,
		Diagnostics: sink,
		byOffset:    make(map[uint64]*Symbol),
	}
}

// ByOffset looks up a Symbol by its absolute .debug_info offset.
func (s *Session) ByOffset(offset uint64) (*Symbol, bool) {
	sym, ok := s.byOffset[offset]
	return sym, ok
}

// ByID looks up a Symbol by its dense session-wide ID.
func (s *Session) ByID(id uint32) (*Symbol, bool) {
	if int(id) >= len(s.byID) {
		return nil, false
	}
	return s.byID[id], true
}

// Parse runs the full pipeline of spec.md §4.3/§5 over Sections.Info:
//
//  1. structural pass — parse every CU's header and DIE tree, in file order,
//     recording each CU's Symbols in byOffset once its tree is complete and
//     injecting the synthetic void type as the CU root's first child. A CU
//     whose DIE tree fails to parse is recorded as a diagnostic and skipped;
//     an unreadable CU header ends the scan, keeping the CUs before it.
//  2. reference-resolution pass — over all CUs in the same order, rewrite
//     every ReferenceValue into a ResolvedReferenceValue (or leave it
//     unresolved, which Symbol.TypeSymbol treats as absent), normalize
//     AddressValue attributes through normalize, and assign dense IDs in
//     traversal order.
//  3. specification-merge pass — over all CUs in the same order, apply each
//     DW_AT_specification one-way merge.
//
// All three passes run over the complete CU set before the next pass begins,
// because a CU parsed late may be the target of a reference emitted by a CU
// parsed early (spec.md §3 "forward and cross-CU references"); doing all
// three passes per-CU before moving on would leave such references
// unresolved. normalize may be nil, in which case AddressValue attributes
// pass through unchanged.
func (s *Session) Parse(cancel CancelToken, normalize AddressNormalizer) error {
	r := NewByteReader(s.Sections.Info)

	for !r.Done() {
		if cancelled(cancel) {
			s.Diagnostics.Record(Diagnostic{Kind: DiagCancelled, Message: "parse cancelled before next CU"})
			return ErrCancelled
		}

		cuStart := r.Pos()
		hdr, err := parseCUHeader(r)
		if err != nil {
			// Without a valid header the next CU's start is unknown: abandon
			// this CU and stop scanning, keeping the CUs parsed so far.
			s.Diagnostics.Record(Diagnostic{Kind: DiagTruncatedSection, CUOffset: cuStart, DIEOffset: -1, Message: err.Error()})
			break
		}
		if hdr.version < minCUVersion || hdr.version > maxCUVersion {
			s.Diagnostics.Record(Diagnostic{
				Kind:     DiagUnsupportedVersion,
				CUOffset: cuStart,
				Message:  fmt.Sprintf("unsupported DWARF version %d, skipping CU", hdr.version),
			})
			if err := r.SetPos(hdr.unitEnd); err != nil {
				return fmt.Errorf("CU@%d: %w", cuStart, err)
			}
			continue
		}

		cu := &CompilationUnit{
			Start:        cuStart,
			End:          hdr.unitEnd,
			Version:      hdr.version,
			Is64Bit:      hdr.is64,
			AddressSize:  hdr.addressSize,
			AbbrevOffset: hdr.abbrevOffset,
			abbrev:       NewAbbrevTable(s.Sections.Abbrev, hdr.abbrevOffset),
		}
		cu.Void = &Symbol{Tag: TagVoid, Offset: -1, CU: cu}

		if err := r.SetPos(hdr.headerEnd); err != nil {
			return fmt.Errorf("CU@%d: %w", cuStart, err)
		}
		cuSymbols := make(map[uint64]*Symbol)
		err = buildDIETree(r, cu, s.Sections.Str, cuSymbols)
		if err == nil && cu.Root == nil {
			err = fmt.Errorf("%w: CU@%d has no root DIE", ErrTruncatedSection, cuStart)
		}
		if err != nil {
			// A corrupt CU is skipped; none of its symbols reach byOffset.
			s.Diagnostics.Record(Diagnostic{Kind: DiagTruncatedSection, CUOffset: cuStart, DIEOffset: -1, Message: err.Error()})
			if err := r.SetPos(hdr.unitEnd); err != nil {
				return fmt.Errorf("CU@%d: %w", cuStart, err)
			}
			continue
		}
		for off, sym := range cuSymbols {
			s.byOffset[off] = sym
		}
		// The synthetic void type rides along as the root's first child so
		// every CU can report a "no type" target (spec.md §4.4) without a
		// sentinel ID collision with any real DIE offset.
		cu.Void.Parent = cu.Root
		cu.Root.Children = append([]*Symbol{cu.Void}, cu.Root.Children...)

		s.CUs = append(s.CUs, cu)

		if err := r.SetPos(hdr.unitEnd); err != nil {
			return fmt.Errorf("CU@%d: %w", cuStart, err)
		}
	}

	for _, cu := range s.CUs {
		if cancelled(cancel) {
			s.Diagnostics.Record(Diagnostic{Kind: DiagCancelled, CUOffset: cu.Start, Message: "parse cancelled during reference resolution"})
			return ErrCancelled
		}
		s.resolveReferences(cu, normalize)
		s.backfillVoidTypes(cu)
	}

	for _, cu := range s.CUs {
		if cancelled(cancel) {
			s.Diagnostics.Record(Diagnostic{Kind: DiagCancelled, CUOffset: cu.Start, Message: "parse cancelled during specification merge"})
			return ErrCancelled
		}
		s.mergeSpecifications(cu)
	}

	return nil
}

// resolveReferences walks cu's DIE tree assigning dense IDs in traversal
// order, rewriting ReferenceValue attributes to ResolvedReferenceValue (an
// unresolved target is left as the original ReferenceValue and is treated as
// absent by Symbol.TypeSymbol), and passing every AddressValue attribute
// through normalize exactly once (spec.md §3, §4.3).
func (s *Session) resolveReferences(cu *CompilationUnit, normalize AddressNormalizer) {
	s.walk(cu.Root, func(sym *Symbol) {
		sym.ID = uint32(len(s.byID))
		s.byID = append(s.byID, sym)

		for attr, val := range sym.Attributes {
			switch v := val.(type) {
			case ReferenceValue:
				if target, found := s.byOffset[uint64(v)]; found {
					sym.Attributes[attr] = ResolvedReferenceValue{Symbol: target}
				} else {
					s.Diagnostics.Record(Diagnostic{
						Kind:      DiagUnresolvedReference,
						CUOffset:  cu.Start,
						DIEOffset: sym.Offset,
						Message:   fmt.Sprintf("%s: unresolved reference to offset %d", attr, uint64(v)),
					})
				}
			case AddressValue:
				sym.Attributes[attr] = AddressValue(normalize.apply(uint64(v)))
			}
		}
	})
}

// backfillVoidTypes implements spec.md §3's invariant: a PointerType or
// Typedef DIE lacking an explicit DW_AT_type acquires one pointing at its
// CU's synthetic void symbol, so ElementType/TypeSymbol always resolve to
// some symbol for these tags instead of reporting "absent".
func (s *Session) backfillVoidTypes(cu *CompilationUnit) {
	s.walk(cu.Root, func(sym *Symbol) {
		if sym.Tag != TagPointerType && sym.Tag != TagTypedef {
			return
		}
		if _, ok := sym.Attr(AttrType); ok {
			return
		}
		if sym.Attributes == nil {
			sym.Attributes = make(Attributes)
		}
		sym.Attributes[AttrType] = ResolvedReferenceValue{Symbol: cu.Void}
	})
}

// mergeSpecifications applies DW_AT_specification's one-way merge: a
// declaration DIE's attributes are copied onto its specification's target,
// overwriting whatever the target already has there, once, never the
// reverse (spec.md §3 "overwriting existing entries"). Running this after
// reference resolution guarantees DW_AT_specification itself is already a
// ResolvedReferenceValue.
func (s *Session) mergeSpecifications(cu *CompilationUnit) {
	s.walk(cu.Root, func(sym *Symbol) {
		v, ok := sym.Attr(AttrSpecification)
		if !ok {
			return
		}
		resolved, ok := v.(ResolvedReferenceValue)
		if !ok || resolved.Symbol == nil {
			return
		}
		target := resolved.Symbol
		for attr, val := range sym.Attributes {
			if attr == AttrSpecification {
				continue
			}
			target.Attributes[attr] = val
		}
	})
}

func (s *Session) walk(sym *Symbol, visit func(*Symbol)) {
	if sym == nil {
		return
	}
	visit(sym)
	for _, child := range sym.Children {
		s.walk(child, visit)
	}
}
