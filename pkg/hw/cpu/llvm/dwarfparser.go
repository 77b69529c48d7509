package llvm

// DWARF Debug Information Parser
//
// This file adapts the hand-rolled DWARF decoder in pkg/hw/cpu/dwarf into
// Cucaracha's mc.DebugInfo model. DWARF (Debugging With Attributed Record
// Formats) is the standard debug info format used by compilers like GCC and
// Clang on Unix-like systems.
//
// When code is compiled with debug info (-g flag), the compiler generates
// several DWARF sections in the ELF file:
//
//   - .debug_info: Compilation units, functions, variables, types
//   - .debug_line: Line number program mapping addresses to source lines
//   - .debug_abbrev: Abbreviation tables for .debug_info encoding
//   - .debug_str: String table for debug info
//   - .debug_aranges/.debug_ranges: Address-range tables
//
// This parser extracts:
//
//   1. Line Information: Maps instruction addresses to source file/line/column
//   2. Function Information: Function names, address ranges, parameters
//   3. Variable Information: Local variables, their types and storage locations
//   4. Scope Information: Lexical scopes (blocks) within functions
//
// Variables can be stored in registers, on the stack, or as constants; the
// decoding of DW_OP_reg*/DW_OP_breg*/DW_OP_fbreg/DW_OP_plus_uconst below
// stays symbolic (a base register plus an offset) rather than fully
// evaluated, because the live debugger supplies the actual register values
// only once execution reaches a breakpoint.
//
// The Cucaracha CPU uses registers r0-r9 (general purpose), sp (r13), lr (r14).
// mapDWARFRegister maps DWARF register numbers onto that encoding.
//
// Note: addresses in DWARF are relative to the ELF file's layout. When the
// code is loaded at a different address (e.g., 0x10000), the MemoryResolver
// remaps all debug info addresses accordingly.

import (
	"debug/elf"
	"fmt"

	dwarfcore "github.com/cucaracha-dbg/cucaracha/pkg/hw/cpu/dwarf"
	"github.com/cucaracha-dbg/cucaracha/pkg/hw/cpu/mc"
)

// DWARFParser extracts debug information from DWARF sections in ELF files,
// by driving a dwarfcore.Session/dwarfcore.Provider, and converts the result
// into Cucaracha's mc.DebugInfo structure.
type DWARFParser struct {
	elfFile   *elf.File
	session   *dwarfcore.Session
	provider  *dwarfcore.Provider
	debugInfo *mc.DebugInfo
}

func sectionData(f *elf.File, name string) []byte {
	sec := f.Section(name)
	if sec == nil {
		return nil
	}
	data, err := sec.Data()
	if err != nil {
		return nil
	}
	return data
}

// NewDWARFParser creates a new DWARF parser for the given ELF file.
func NewDWARFParser(elfFile *elf.File) (*DWARFParser, error) {
	sections := dwarfcore.Sections{
		Info:    sectionData(elfFile, ".debug_info"),
		Abbrev:  sectionData(elfFile, ".debug_abbrev"),
		Str:     sectionData(elfFile, ".debug_str"),
		Line:    sectionData(elfFile, ".debug_line"),
		Ranges:  sectionData(elfFile, ".debug_ranges"),
		Aranges: sectionData(elfFile, ".debug_aranges"),
	}
	if len(sections.Info) == 0 {
		return nil, fmt.Errorf("no DWARF data")
	}

	session := dwarfcore.NewSession(sections, nil)
	// Best effort: Parse skips a CU whose DIE tree is malformed and stops at
	// an unreadable CU header; whatever CUs it built stay in session.CUs and
	// are still worth reporting, so its error is ignored here.
	_ = session.Parse(nil, nil)

	provider, err := dwarfcore.NewProvider(session)
	if err != nil {
		return nil, fmt.Errorf("building symbol provider: %w", err)
	}

	return &DWARFParser{
		elfFile:   elfFile,
		session:   session,
		provider:  provider,
		debugInfo: mc.NewDebugInfo(),
	}, nil
}

// Parse extracts all debug information from the DWARF data.
func (p *DWARFParser) Parse() (*mc.DebugInfo, error) {
	p.parseLineInfo()
	p.parseCompilationUnits()
	return p.debugInfo, nil
}

// parseLineInfo extracts source line number information from .debug_line.
// DWARF line info only records entries at statement boundaries; this
// propagates each row to cover every instruction address (every 4 bytes)
// until the next row or an end-of-sequence marker.
func (p *DWARFParser) parseLineInfo() {
	const instrSize = 4

	for _, cu := range p.session.CUs {
		v, ok := cu.Root.Attr(dwarfcore.AttrStmtList)
		if !ok {
			continue
		}
		off, ok := v.(dwarfcore.SecOffsetValue)
		if !ok {
			continue
		}
		table, err := dwarfcore.ParseLineTable(p.session.Sections.Line, uint64(off), cu.AddressSize)
		if err != nil {
			continue
		}

		rows := table.Rows()
		for i, row := range rows {
			if row.EndSequence {
				continue
			}
			loc := &mc.SourceLocation{File: row.File, Line: row.Line, Column: row.Column}

			endAddr := row.Address + instrSize
			if i+1 < len(rows) {
				endAddr = rows[i+1].Address
			}
			for addr := row.Address; addr < endAddr; addr += instrSize {
				p.debugInfo.InstructionLocations[uint32(addr)] = loc
			}
		}
	}
}

// parseCompilationUnits extracts function and variable information by
// walking each CU's already-built DIE tree.
func (p *DWARFParser) parseCompilationUnits() {
	for _, cu := range p.session.CUs {
		if name := cu.Root.Name(); name != "" {
			p.debugInfo.CompilationUnit = name
		}
		if v, ok := cu.Root.Attr(dwarfcore.AttrProducer); ok {
			if s, ok := v.(dwarfcore.StringValue); ok {
				p.debugInfo.Producer = string(s)
			}
		}

		for _, child := range cu.Root.Children {
			if child.IsVoid() {
				continue
			}
			p.walkSubtree(child, nil, nil)
		}
	}

	p.buildInstructionVariables()
}

// walkSubtree mirrors the teacher's original flat-reader state machine
// (currentFunc/scopeStack) but drives it from the tree cu.go already built,
// instead of re-deriving parent/child structure from a children-flag and an
// end-of-children marker.
func (p *DWARFParser) walkSubtree(sym *dwarfcore.Symbol, currentFunc *mc.FunctionDebugInfo, scopeStack []*mc.ScopeInfo) {
	switch sym.Tag {
	case dwarfcore.TagSubprogram:
		funcInfo := &mc.FunctionDebugInfo{Name: sym.Name()}

		if low, ok := sym.Attr(dwarfcore.AttrLowpc); ok {
			if addr, ok := low.(dwarfcore.AddressValue); ok {
				funcInfo.StartAddress = uint32(addr)
			}
		}
		if high, ok := sym.Attr(dwarfcore.AttrHighpc); ok {
			switch h := high.(type) {
			case dwarfcore.AddressValue:
				funcInfo.EndAddress = uint32(h)
			case dwarfcore.ConstantValue:
				funcInfo.EndAddress = funcInfo.StartAddress + uint32(h.Uint64())
			}
		}
		if dl, ok := sym.Attr(dwarfcore.AttrDeclLine); ok {
			if c, ok := dl.(dwarfcore.ConstantValue); ok {
				funcInfo.StartLine = int(c.Int64())
			}
		}
		if df, ok := sym.Attr(dwarfcore.AttrDeclFile); ok {
			if c, ok := df.(dwarfcore.ConstantValue); ok {
				funcInfo.SourceFile = p.getFileName(int(c.Uint64()))
			}
		}

		if funcInfo.Name != "" {
			p.debugInfo.Functions[funcInfo.Name] = funcInfo
		}
		for _, c := range sym.Children {
			p.walkSubtree(c, funcInfo, nil)
		}

	case dwarfcore.TagFormalParameter:
		if currentFunc != nil {
			if v := p.parseVariable(sym); v != nil {
				v.IsParameter = true
				currentFunc.Parameters = append(currentFunc.Parameters, *v)
			}
		}

	case dwarfcore.TagVariable:
		if currentFunc != nil {
			if v := p.parseVariable(sym); v != nil {
				if len(scopeStack) > 0 {
					top := scopeStack[len(scopeStack)-1]
					top.Variables = append(top.Variables, *v)
				} else {
					currentFunc.LocalVariables = append(currentFunc.LocalVariables, *v)
				}
			}
		}

	case dwarfcore.TagLexicalBlock:
		if currentFunc == nil {
			return
		}
		scope := &mc.ScopeInfo{}
		if low, ok := sym.Attr(dwarfcore.AttrLowpc); ok {
			if addr, ok := low.(dwarfcore.AddressValue); ok {
				scope.StartAddress = uint32(addr)
			}
		}
		if high, ok := sym.Attr(dwarfcore.AttrHighpc); ok {
			switch h := high.(type) {
			case dwarfcore.AddressValue:
				scope.EndAddress = uint32(h)
			case dwarfcore.ConstantValue:
				scope.EndAddress = scope.StartAddress + uint32(h.Uint64())
			}
		}
		nested := append(append([]*mc.ScopeInfo{}, scopeStack...), scope)
		for _, c := range sym.Children {
			p.walkSubtree(c, currentFunc, nested)
		}
		currentFunc.Scopes = append(currentFunc.Scopes, *scope)

	default:
		for _, c := range sym.Children {
			p.walkSubtree(c, currentFunc, scopeStack)
		}
	}
}

// parseVariable extracts variable information from a DIE, resolving its
// type's name and size through the provider built over the same session.
func (p *DWARFParser) parseVariable(sym *dwarfcore.Symbol) *mc.VariableInfo {
	name := sym.Name()
	if name == "" {
		return nil
	}

	v := &mc.VariableInfo{Name: name}
	if typeSym, ok := sym.TypeSymbol(); ok {
		if tn, ok := p.provider.TypeName(typeSym.ID); ok {
			v.TypeName = tn
		}
		if sz, ok := p.provider.TypeSize(typeSym.ID); ok {
			v.Size = int(sz)
		}
	}
	v.Location = p.parseLocation(sym)
	return v
}

// parseLocation extracts the location of a variable from a DIE's
// DW_AT_location.
func (p *DWARFParser) parseLocation(sym *dwarfcore.Symbol) mc.VariableLocation {
	v, ok := sym.Attr(dwarfcore.AttrLocation)
	if !ok {
		return nil
	}
	switch loc := v.(type) {
	case dwarfcore.ExpressionLocationValue:
		return p.decodeLocationExpr([]byte(loc))
	case dwarfcore.ConstantValue:
		return mc.ConstantLocation{Value: loc.Int64()}
	default:
		return nil
	}
}

// decodeLocationExpr decodes a DWARF location expression into a symbolic
// mc.VariableLocation. This is deliberately not a full stack-machine
// evaluation (see dwarfcore.EvaluateLocation for that): the live debugger
// resolves a base register's actual value itself, at the instant it reads
// the variable, so this only needs to capture which register and what
// offset.
func (p *DWARFParser) decodeLocationExpr(expr []byte) mc.VariableLocation {
	if len(expr) == 0 {
		return nil
	}

	const (
		dwOpPlusUconst = 0x23
		dwOpReg0       = 0x50
		dwOpReg31      = 0x6f
		dwOpBreg0      = 0x70
		dwOpBreg31     = 0x8f
		dwOpFbreg      = 0x91
	)

	op := expr[0]
	rest := dwarfcore.NewByteReader(expr[1:])

	switch {
	case op >= dwOpReg0 && op <= dwOpReg31:
		return mc.RegisterLocation{Register: p.mapDWARFRegister(uint32(op - dwOpReg0))}

	case op >= dwOpBreg0 && op <= dwOpBreg31:
		var offset int64
		if len(expr) > 1 {
			var err error
			offset, err = rest.ReadSLEB128()
			if err != nil {
				return nil
			}
		}
		return mc.MemoryLocation{BaseRegister: p.mapDWARFRegister(uint32(op - dwOpBreg0)), Offset: int32(offset)}

	case op == dwOpFbreg:
		if len(expr) <= 1 {
			return nil
		}
		offset, err := rest.ReadSLEB128()
		if err != nil {
			return nil
		}
		// Frame base is typically SP for Cucaracha-targeted code.
		return mc.MemoryLocation{BaseRegister: 13, Offset: int32(offset)}

	case op == dwOpPlusUconst:
		if len(expr) <= 1 {
			return nil
		}
		offset, err := rest.ReadULEB128()
		if err != nil {
			return nil
		}
		return mc.MemoryLocation{BaseRegister: 13, Offset: int32(offset)}

	default:
		return nil
	}
}

// mapDWARFRegister maps a DWARF register number to a Cucaracha register.
// For ARM-like targets DWARF registers 0-12 map directly; r0-r9 land at
// Cucaracha's 16-25 encoding, sp/lr/pc keep their DWARF numbers (13/14/15).
func (p *DWARFParser) mapDWARFRegister(dwarfReg uint32) uint32 {
	switch {
	case dwarfReg <= 9:
		return dwarfReg + 16
	case dwarfReg == 13, dwarfReg == 14, dwarfReg == 15:
		return dwarfReg
	default:
		return dwarfReg
	}
}

// getFileName returns the file name for a given file index. Correlating
// DW_AT_decl_file against a CU's line-program file table is not wired up
// yet; this always returns "", same limitation the original parser had.
func (p *DWARFParser) getFileName(index int) string {
	return ""
}

// buildInstructionVariables populates InstructionVariables from function
// scopes, so a debugger can list what's in scope at any instruction address
// without re-walking the DIE tree on every step.
func (p *DWARFParser) buildInstructionVariables() {
	for _, funcInfo := range p.debugInfo.Functions {
		for addr := funcInfo.StartAddress; addr < funcInfo.EndAddress; addr += 4 {
			var vars []mc.VariableInfo
			vars = append(vars, funcInfo.Parameters...)
			vars = append(vars, funcInfo.LocalVariables...)

			for _, scope := range funcInfo.Scopes {
				if addr >= scope.StartAddress && addr < scope.EndAddress {
					vars = append(vars, scope.Variables...)
				}
			}

			if len(vars) > 0 {
				p.debugInfo.InstructionVariables[addr] = vars
			}
		}
	}
}
