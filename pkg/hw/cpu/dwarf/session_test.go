package dwarf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionParseBuildsTreeAndResolvesReferences(t *testing.T) {
	sections, off := buildFixtureSections()
	session := NewSession(sections, nil)

	err := session.Parse(nil, nil)
	require.NoError(t, err)
	require.Len(t, session.CUs, 1)

	cu := session.CUs[0]
	assert.Equal(t, uint16(4), cu.Version)
	assert.False(t, cu.Is64Bit)
	assert.Equal(t, "main.c", cu.Root.Name())

	producer, ok := cu.Root.Attr(AttrProducer)
	require.True(t, ok)
	assert.Equal(t, StringValue("cucaracha-clang"), producer)

	// The synthetic void symbol rides as the root's first child.
	require.NotEmpty(t, cu.Root.Children)
	assert.True(t, cu.Root.Children[0].IsVoid())

	baseType, ok := session.ByOffset(off.baseType)
	require.True(t, ok)
	assert.Equal(t, TagBaseType, baseType.Tag)
	assert.Equal(t, "int", baseType.Name())

	subprogram, ok := session.ByOffset(off.subprogram)
	require.True(t, ok)
	assert.Equal(t, TagSubprogram, subprogram.Tag)
	typeSym, ok := subprogram.TypeSymbol()
	require.True(t, ok, "DW_AT_type reference should have resolved")
	assert.Same(t, baseType, typeSym)

	param, ok := session.ByOffset(off.param)
	require.True(t, ok)
	paramType, ok := param.TypeSymbol()
	require.True(t, ok)
	assert.Same(t, baseType, paramType)
}

func TestSessionParseAssignsDenseIDs(t *testing.T) {
	sections, _ := buildFixtureSections()
	session := NewSession(sections, nil)
	require.NoError(t, session.Parse(nil, nil))

	cu := session.CUs[0]
	seen := make(map[uint32]bool)
	var walk func(*Symbol)
	walk = func(s *Symbol) {
		assert.False(t, seen[s.ID], "ID %d assigned twice", s.ID)
		seen[s.ID] = true
		sym, ok := session.ByID(s.ID)
		require.True(t, ok)
		assert.Same(t, s, sym)
		for _, c := range s.Children {
			walk(c)
		}
	}
	walk(cu.Root)
}

func TestSessionParseCancellation(t *testing.T) {
	sections, _ := buildFixtureSections()
	session := NewSession(sections, nil)

	tok := &AtomicCancelToken{}
	tok.Cancel()

	err := session.Parse(tok, nil)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestSessionParseSkipsUnsupportedVersion(t *testing.T) {
	sections, _ := buildFixtureSections()
	// Corrupt the version field (bytes 4-5 of the CU header) to something
	// outside [2,4]; the session must skip this CU rather than abort.
	info := make([]byte, len(sections.Info))
	copy(info, sections.Info)
	info[4] = 6
	info[5] = 0
	sections.Info = info

	session := NewSession(sections, nil)
	err := session.Parse(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, session.CUs)

	diags := session.Diagnostics.All()
	require.NotEmpty(t, diags)
	assert.Equal(t, DiagUnsupportedVersion, diags[0].Kind)
}

func TestSessionByOffsetAndByIDMiss(t *testing.T) {
	session := NewSession(Sections{}, nil)
	_, ok := session.ByOffset(123)
	assert.False(t, ok)
	_, ok = session.ByID(0)
	assert.False(t, ok)
}

func TestSessionParseNormalizesAddressesExactlyOnce(t *testing.T) {
	sections, off := buildFixtureSections()
	session := NewSession(sections, nil)

	var calls int
	normalize := func(addr uint64) uint64 {
		calls++
		return addr + 0x10000
	}

	require.NoError(t, session.Parse(nil, normalize))

	subprogram, ok := session.ByOffset(off.subprogram)
	require.True(t, ok)
	low, ok := subprogram.Attr(AttrLowpc)
	require.True(t, ok)
	assert.Equal(t, AddressValue(0x1000+0x10000), low)

	lexBlock, ok := session.ByOffset(off.lexBlock)
	require.True(t, ok)
	lexLow, ok := lexBlock.Attr(AttrLowpc)
	require.True(t, ok)
	assert.Equal(t, AddressValue(0x1010+0x10000), lexLow)

	// The fixture carries exactly two DW_FORM_addr attributes (the
	// subprogram's and the lexical block's DW_AT_low_pc); a third call
	// would mean some address got normalized twice.
	assert.Equal(t, 2, calls, "normalizer must run exactly once per AddressValue attribute")
}

func TestSessionParseNilNormalizerIsIdentity(t *testing.T) {
	sections, off := buildFixtureSections()
	session := NewSession(sections, nil)
	require.NoError(t, session.Parse(nil, nil))

	subprogram, ok := session.ByOffset(off.subprogram)
	require.True(t, ok)
	low, ok := subprogram.Attr(AttrLowpc)
	require.True(t, ok)
	assert.Equal(t, AddressValue(0x1000), low)
}

func TestBackfillVoidTypesOnMissingType(t *testing.T) {
	cu := &CompilationUnit{}
	cu.Void = &Symbol{Tag: TagVoid, Offset: -1, CU: cu}
	ptr := &Symbol{Tag: TagPointerType, Attributes: Attributes{}, CU: cu}
	typedef := &Symbol{Tag: TagTypedef, Attributes: Attributes{}, CU: cu}
	cu.Root = &Symbol{Tag: TagCompileUnit, Children: []*Symbol{ptr, typedef}, CU: cu}

	session := &Session{}
	session.backfillVoidTypes(cu)

	target, ok := ptr.TypeSymbol()
	require.True(t, ok)
	assert.True(t, target.IsVoid())

	target, ok = typedef.TypeSymbol()
	require.True(t, ok)
	assert.True(t, target.IsVoid())
}

func TestBackfillVoidTypesLeavesExplicitTypeAlone(t *testing.T) {
	cu := &CompilationUnit{}
	cu.Void = &Symbol{Tag: TagVoid, Offset: -1, CU: cu}
	real := &Symbol{Tag: TagBaseType, Attributes: Attributes{AttrName: StringValue("int")}, CU: cu}
	ptr := &Symbol{Tag: TagPointerType, Attributes: Attributes{AttrType: ResolvedReferenceValue{Symbol: real}}, CU: cu}
	cu.Root = &Symbol{Tag: TagCompileUnit, Children: []*Symbol{real, ptr}, CU: cu}

	session := &Session{}
	session.backfillVoidTypes(cu)

	target, ok := ptr.TypeSymbol()
	require.True(t, ok)
	assert.Same(t, real, target)
}

func TestMergeSpecificationsOneWayMerge(t *testing.T) {
	cu := &CompilationUnit{}
	decl := &Symbol{
		Tag: TagSubprogram,
		Attributes: Attributes{
			AttrName:          StringValue("helper"),
			AttrDeclLine:      ConstantValue{Raw: 42},
			AttrLowpc:         AddressValue(0x3000),
			AttrSpecification: ResolvedReferenceValue{},
		},
		CU: cu,
	}
	target := &Symbol{
		Tag: TagSubprogram,
		Attributes: Attributes{
			AttrLowpc: AddressValue(0x2000),
		},
		CU: cu,
	}
	decl.Attributes[AttrSpecification] = ResolvedReferenceValue{Symbol: target}
	cu.Root = &Symbol{Tag: TagCompileUnit, Children: []*Symbol{target, decl}, CU: cu}

	session := &Session{}
	session.mergeSpecifications(cu)

	name, ok := target.Attr(AttrName)
	require.True(t, ok)
	assert.Equal(t, StringValue("helper"), name)

	// Pre-existing attributes on the target are overwritten by the decl's,
	// per spec's one-way merge.
	low, ok := target.Attr(AttrLowpc)
	require.True(t, ok)
	assert.Equal(t, AddressValue(0x3000), low)
}
