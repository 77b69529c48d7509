package dwarf

import (
	"sort"
	"sync"

	"github.com/cucaracha-dbg/cucaracha/pkg/hw/cpu/symbols"
)

// tagToKind maps the DWARF tags this core resolves as "a type" onto the
// backend-neutral symbols.TagKind the façade contract requires (spec.md
// §4.7/§6).
var tagToKind = map[Tag]symbols.TagKind{
	TagBaseType:       symbols.TagBase,
	TagPointerType:    symbols.TagPointer,
	TagArrayType:      symbols.TagArray,
	TagStructureType:  symbols.TagStruct,
	TagUnionType:      symbols.TagUnion,
	TagClassType:      symbols.TagClass,
	TagEnumerationType: symbols.TagEnum,
	TagSubroutineType: symbols.TagFunction,
	TagTypedef:        symbols.TagTypedef,
}

// funcEntry is one subprogram's address range, indexed separately from
// ArangeIndex because function lookups need DIE-level granularity, not just
// which CU owns an address.
type funcEntry struct {
	low, high uint64
	sym       *Symbol
}

// Provider is the DWARF-backed implementation of symbols.Provider
// (spec.md §4.7, §6): it owns a parsed Session plus the lazily built
// indices that make name and address lookups fast.
type Provider struct {
	session *Session
	aranges *ArangeIndex

	funcs []funcEntry

	lineTablesMu sync.Mutex
	lineTables   map[uint64]*LineTable // keyed by CU.Start

	byNameOnce sync.Once
	byName     map[string]*Symbol
}

var _ symbols.Provider = (*Provider)(nil)

// NewProvider builds a façade over a Session that has already completed
// Parse. Address indices (aranges, function ranges) are built eagerly since
// every lookup needs them; the by-name type index is left to the first
// caller via sync.Once (spec.md §5 "concurrent first callers observe the
// same populated index exactly once").
func NewProvider(session *Session) (*Provider, error) {
	aranges, err := BuildArangeIndex(session.Sections.Aranges, session.CUs)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		session:    session,
		aranges:    aranges,
		lineTables: make(map[uint64]*LineTable),
	}

	for _, cu := range session.CUs {
		var visit func(*Symbol)
		visit = func(sym *Symbol) {
			if sym.Tag == TagSubprogram {
				if low, high, ok := subprogramRange(sym); ok {
					p.funcs = append(p.funcs, funcEntry{low: low, high: high, sym: sym})
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

	return p, nil
}

func (p *Provider) ensureNameIndex() {
	p.byNameOnce.Do(func() {
		p.byName = make(map[string]*Symbol)
		for _, cu := range p.session.CUs {
			var visit func(*Symbol)
			visit = func(sym *Symbol) {
				if _, isType := tagToKind[sym.Tag]; isType {
					if name := sym.Name(); name != "" {
						if _, exists := p.byName[name]; !exists {
							p.byName[name] = sym
						}
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
	})
}

func (p *Provider) symbolByID(typeID uint32) (*Symbol, bool) {
	return p.session.ByID(typeID)
}

// TypeNames returns every name the by-name type index resolves, sorted, for
// UIs that want to list or browse the known types (cmd/cpu/symbolbrowser.go)
// rather than look one up directly. It forces the same lazy index TypeID
// builds on first use.
func (p *Provider) TypeNames() []string {
	p.ensureNameIndex()
	names := make([]string, 0, len(p.byName))
	for name := range p.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TypeTag implements symbols.Provider.
func (p *Provider) TypeTag(typeID uint32) (symbols.TagKind, bool) {
	sym, ok := p.symbolByID(typeID)
	if !ok {
		return symbols.TagUnknown, false
	}
	if sym.IsVoid() {
		return symbols.TagUnknown, false
	}
	kind, ok := tagToKind[sym.Tag]
	if !ok {
		return symbols.TagUnknown, false
	}
	return kind, true
}

// TypeSize implements symbols.Provider.
func (p *Provider) TypeSize(typeID uint32) (uint64, bool) {
	sym, ok := p.symbolByID(typeID)
	if !ok {
		return 0, false
	}
	v, ok := sym.Attr(AttrByteSize)
	if !ok {
		return 0, false
	}
	c, ok := v.(ConstantValue)
	if !ok {
		return 0, false
	}
	return c.Uint64(), true
}

// TypeID implements symbols.Provider, resolving a type by name through the
// lazily built by-name index.
func (p *Provider) TypeID(name string) (uint32, bool) {
	p.ensureNameIndex()
	sym, ok := p.byName[name]
	if !ok {
		return 0, false
	}
	return sym.ID, true
}

// TypeName implements symbols.Provider.
func (p *Provider) TypeName(typeID uint32) (string, bool) {
	sym, ok := p.symbolByID(typeID)
	if !ok {
		return "", false
	}
	name := sym.Name()
	return name, name != ""
}

// ElementType implements symbols.Provider, following DW_AT_type (pointee,
// array element, or typedef target, all modeled the same way).
func (p *Provider) ElementType(typeID uint32) (uint32, bool) {
	sym, ok := p.symbolByID(typeID)
	if !ok {
		return 0, false
	}
	target, ok := sym.TypeSymbol()
	if !ok {
		return 0, false
	}
	return target.ID, true
}

// FieldNames implements symbols.Provider.
func (p *Provider) FieldNames(typeID uint32) ([]string, bool) {
	sym, ok := p.symbolByID(typeID)
	if !ok {
		return nil, false
	}
	members := sym.ChildrenWithTag(TagMember)
	if len(members) == 0 {
		return nil, false
	}
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name())
	}
	return names, true
}

// FieldTypeAndOffset implements symbols.Provider. A virtual member
// (spec.md's virtuality Open Question) is reported as not found, with an
// UnsupportedExpression diagnostic recorded, rather than returning a
// possibly-wrong offset.
func (p *Provider) FieldTypeAndOffset(typeID uint32, fieldName string) (symbols.FieldInfo, bool) {
	sym, ok := p.symbolByID(typeID)
	if !ok {
		return symbols.FieldInfo{}, false
	}
	for _, m := range sym.ChildrenWithTag(TagMember) {
		if m.Name() != fieldName {
			continue
		}
		if m.HasVirtuality() {
			var cuStart uint64
			if m.CU != nil {
				cuStart = m.CU.Start
			}
			p.session.Diagnostics.Record(Diagnostic{
				Kind:      DiagUnsupportedExpression,
				CUOffset:  cuStart,
				DIEOffset: m.Offset,
				Message:   ErrUnsupportedExpression.Error() + ": DW_AT_virtuality on member " + fieldName,
			})
			return symbols.FieldInfo{}, false
		}
		typeSym, ok := m.TypeSymbol()
		if !ok {
			return symbols.FieldInfo{}, false
		}
		offset, ok := memberOffset(m)
		if !ok {
			return symbols.FieldInfo{}, false
		}
		return symbols.FieldInfo{Name: fieldName, TypeID: typeSym.ID, ByteOffset: offset}, true
	}
	return symbols.FieldInfo{}, false
}

func memberOffset(m *Symbol) (uint64, bool) {
	v, ok := m.Attr(AttrDataMemberLoc)
	if !ok {
		return 0, true // absent defaults to offset 0 (e.g. a union member)
	}
	switch val := v.(type) {
	case ConstantValue:
		return val.Uint64(), true
	case ExpressionLocationValue:
		res, err := EvaluateLocation(val, 0, nil)
		if err != nil || res.Kind != LocAddress {
			return 0, false
		}
		return res.Address, true
	default:
		return 0, false
	}
}

// SourceLineAt implements symbols.Provider. processAddress is accepted for
// symmetry with FunctionAt/FrameLocals (a future multi-module loader may use
// it to pick among address spaces); this single-image provider resolves
// purely from relativeAddress. With no line info it returns an empty file
// name and processAddress as the displacement.
func (p *Provider) SourceLineAt(processAddress, relativeAddress uint64) (string, int, uint64) {
	cu, ok := p.aranges.Lookup(relativeAddress)
	if !ok {
		return "", 0, processAddress
	}
	table, err := p.lineTableFor(cu)
	if err != nil {
		return "", 0, processAddress
	}
	file, line, disp, ok := table.Lookup(relativeAddress)
	if !ok {
		return "", 0, processAddress
	}
	return file, line, disp
}

func (p *Provider) lineTableFor(cu *CompilationUnit) (*LineTable, error) {
	p.lineTablesMu.Lock()
	defer p.lineTablesMu.Unlock()

	if t, ok := p.lineTables[cu.Start]; ok {
		return t, nil
	}

	v, ok := cu.Root.Attr(AttrStmtList)
	if !ok {
		return nil, ErrNoLineInfo
	}
	off, ok := v.(SecOffsetValue)
	if !ok {
		return nil, ErrNoLineInfo
	}
	table, err := ParseLineTable(p.session.Sections.Line, uint64(off), cu.AddressSize)
	if err != nil {
		return nil, err
	}
	p.lineTables[cu.Start] = table
	return table, nil
}

// FunctionAt implements symbols.Provider.
func (p *Provider) FunctionAt(processAddress, relativeAddress uint64) (string, uint64) {
	for _, f := range p.funcs {
		if relativeAddress >= f.low && relativeAddress < f.high {
			return f.sym.Name(), relativeAddress - f.low
		}
	}
	return "", 0
}

// FrameLocals implements symbols.Provider: it finds the function owning
// relativeAddress and reports its formal parameters (always) and local
// variables (unless argumentsOnly), each with whatever location the
// expression evaluator could resolve against frame.FrameBase.
func (p *Provider) FrameLocals(frame symbols.FrameDescriptor, relativeAddress uint64, argumentsOnly bool) []symbols.Local {
	var fn *Symbol
	for _, f := range p.funcs {
		if relativeAddress >= f.low && relativeAddress < f.high {
			fn = f.sym
			break
		}
	}
	if fn == nil {
		return nil
	}

	var locals []symbols.Local
	var visit func(*Symbol)
	visit = func(sym *Symbol) {
		switch sym.Tag {
		case TagFormalParameter:
			locals = append(locals, localFrom(sym, frame.FrameBase))
		case TagVariable:
			if !argumentsOnly {
				locals = append(locals, localFrom(sym, frame.FrameBase))
			}
		case TagLexicalBlock:
			for _, c := range sym.Children {
				visit(c)
			}
		}
	}
	for _, c := range fn.Children {
		visit(c)
	}
	return locals
}

func localFrom(sym *Symbol, frameBase int64) symbols.Local {
	local := symbols.Local{Name: sym.Name()}
	if t, ok := sym.TypeSymbol(); ok {
		local.TypeID = t.ID
	}

	v, ok := sym.Attr(AttrLocation)
	if !ok {
		return local
	}
	expr, ok := v.(ExpressionLocationValue)
	if !ok {
		return local
	}
	res, err := EvaluateLocation(expr, frameBase, nil)
	if err != nil {
		return local
	}
	switch res.Kind {
	case LocAddress:
		local.Location = symbols.VarLocation{Kind: symbols.VarLocAddress, Address: res.Address}
	case LocRegister:
		local.Location = symbols.VarLocation{Kind: symbols.VarLocRegister, Register: res.Register}
	case LocValue:
		local.Location = symbols.VarLocation{Kind: symbols.VarLocConstant, Constant: res.Value}
	}
	return local
}
