package llvm

import (
	"testing"

	"github.com/cucaracha-dbg/cucaracha/pkg/hw/cpu/mc"
	"github.com/stretchr/testify/assert"
)

// TestDecodeLocationExpr tests DWARF location expression decoding
func TestDecodeLocationExpr(t *testing.T) {
	// Create a minimal parser just for location decoding tests
	parser := &DWARFParser{}

	tests := []struct {
		name        string
		expr        []byte
		expectedLoc mc.VariableLocation
		expectedNil bool
	}{
		{
			name:        "empty expression",
			expr:        []byte{},
			expectedNil: true,
		},
		// DW_OP_reg tests (0x50-0x6f)
		{
			name:        "DW_OP_reg0 (r0)",
			expr:        []byte{0x50},
			expectedLoc: mc.RegisterLocation{Register: 16}, // r0 maps to 16
		},
		{
			name:        "DW_OP_reg1 (r1)",
			expr:        []byte{0x51},
			expectedLoc: mc.RegisterLocation{Register: 17}, // r1 maps to 17
		},
		{
			name:        "DW_OP_reg9 (r9)",
			expr:        []byte{0x59},
			expectedLoc: mc.RegisterLocation{Register: 25}, // r9 maps to 25
		},
		{
			name:        "DW_OP_reg13 (sp)",
			expr:        []byte{0x5D},
			expectedLoc: mc.RegisterLocation{Register: 13}, // sp stays 13
		},
		{
			name:        "DW_OP_reg14 (lr)",
			expr:        []byte{0x5E},
			expectedLoc: mc.RegisterLocation{Register: 14}, // lr stays 14
		},
		{
			name:        "DW_OP_reg15 (pc)",
			expr:        []byte{0x5F},
			expectedLoc: mc.RegisterLocation{Register: 15}, // pc stays 15
		},
		// DW_OP_breg tests (0x70-0x8f) - base register + offset
		{
			name: "DW_OP_breg0 with positive offset",
			expr: []byte{0x70, 0x08}, // [r0 + 8]
			expectedLoc: mc.MemoryLocation{
				BaseRegister: 16, // r0 maps to 16
				Offset:       8,
			},
		},
		{
			name: "DW_OP_breg13 (sp) with positive offset",
			expr: []byte{0x7D, 0x10}, // [sp + 16]
			expectedLoc: mc.MemoryLocation{
				BaseRegister: 13, // sp stays 13
				Offset:       16,
			},
		},
		{
			name: "DW_OP_breg13 (sp) with negative offset",
			expr: []byte{0x7D, 0x7C}, // [sp - 4]
			expectedLoc: mc.MemoryLocation{
				BaseRegister: 13, // sp stays 13
				Offset:       -4,
			},
		},
		{
			name: "DW_OP_breg13 with zero offset",
			expr: []byte{0x7D, 0x00}, // [sp + 0]
			expectedLoc: mc.MemoryLocation{
				BaseRegister: 13,
				Offset:       0,
			},
		},
		{
			name: "DW_OP_breg with large positive offset",
			expr: []byte{0x7D, 0x80, 0x01}, // [sp + 128]
			expectedLoc: mc.MemoryLocation{
				BaseRegister: 13,
				Offset:       128,
			},
		},
		// DW_OP_fbreg tests (0x91) - frame base relative
		{
			name: "DW_OP_fbreg with positive offset",
			expr: []byte{0x91, 0x10}, // [fp + 16]
			expectedLoc: mc.MemoryLocation{
				BaseRegister: 13, // Uses SP as frame base
				Offset:       16,
			},
		},
		{
			name: "DW_OP_fbreg with negative offset",
			expr: []byte{0x91, 0x7C}, // [fp - 4]
			expectedLoc: mc.MemoryLocation{
				BaseRegister: 13,
				Offset:       -4,
			},
		},
		{
			name: "DW_OP_fbreg with zero offset",
			expr: []byte{0x91, 0x00}, // [fp + 0]
			expectedLoc: mc.MemoryLocation{
				BaseRegister: 13,
				Offset:       0,
			},
		},
		// DW_OP_plus_uconst tests (0x23) - add unsigned constant
		{
			name: "DW_OP_plus_uconst offset 28",
			expr: []byte{0x23, 0x1C}, // [sp + 28]
			expectedLoc: mc.MemoryLocation{
				BaseRegister: 13, // SP
				Offset:       28,
			},
		},
		{
			name: "DW_OP_plus_uconst offset 24",
			expr: []byte{0x23, 0x18}, // [sp + 24]
			expectedLoc: mc.MemoryLocation{
				BaseRegister: 13,
				Offset:       24,
			},
		},
		{
			name: "DW_OP_plus_uconst offset 0",
			expr: []byte{0x23, 0x00}, // [sp + 0]
			expectedLoc: mc.MemoryLocation{
				BaseRegister: 13,
				Offset:       0,
			},
		},
		{
			name: "DW_OP_plus_uconst large offset",
			expr: []byte{0x23, 0x80, 0x02}, // [sp + 256]
			expectedLoc: mc.MemoryLocation{
				BaseRegister: 13,
				Offset:       256,
			},
		},
		// Unknown/unsupported opcodes
		{
			name:        "unsupported opcode DW_OP_addr",
			expr:        []byte{0x03, 0x00, 0x00, 0x00, 0x00}, // DW_OP_addr
			expectedNil: true,
		},
		{
			name:        "unsupported opcode DW_OP_stack_val",
			expr:        []byte{0x9F},
			expectedNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parser.decodeLocationExpr(tt.expr)

			if tt.expectedNil {
				assert.Nil(t, result, "expected nil location")
			} else {
				assert.NotNil(t, result, "expected non-nil location")
				assert.Equal(t, tt.expectedLoc, result)
			}
		})
	}
}

// TestMapDWARFRegister tests the DWARF to Cucaracha register mapping
func TestMapDWARFRegister(t *testing.T) {
	parser := &DWARFParser{}

	tests := []struct {
		name           string
		dwarfReg       uint32
		expectedCucReg uint32
	}{
		// General purpose registers r0-r9 map to internal indices 16-25
		{"r0", 0, 16},
		{"r1", 1, 17},
		{"r2", 2, 18},
		{"r3", 3, 19},
		{"r4", 4, 20},
		{"r5", 5, 21},
		{"r6", 6, 22},
		{"r7", 7, 23},
		{"r8", 8, 24},
		{"r9", 9, 25},
		// Special registers stay as-is
		{"sp (r13)", 13, 13},
		{"lr (r14)", 14, 14},
		{"pc (r15)", 15, 15},
		// Registers outside r0-r9 and special regs pass through
		{"r10", 10, 10},
		{"r11", 11, 11},
		{"r12", 12, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parser.mapDWARFRegister(tt.dwarfReg)
			assert.Equal(t, tt.expectedCucReg, result)
		})
	}
}

// TestLocationExprWithRegisterMapping ensures register mapping is applied
// correctly when decoding location expressions
func TestLocationExprWithRegisterMapping(t *testing.T) {
	parser := &DWARFParser{}

	tests := []struct {
		name    string
		expr    []byte
		checkFn func(t *testing.T, loc mc.VariableLocation)
	}{
		{
			name: "DW_OP_reg0 should map to internal register 16",
			expr: []byte{0x50},
			checkFn: func(t *testing.T, loc mc.VariableLocation) {
				regLoc, ok := loc.(mc.RegisterLocation)
				assert.True(t, ok, "expected RegisterLocation")
				assert.Equal(t, uint32(16), regLoc.Register, "r0 should map to 16")
			},
		},
		{
			name: "DW_OP_breg0 should map base register to 16",
			expr: []byte{0x70, 0x04},
			checkFn: func(t *testing.T, loc mc.VariableLocation) {
				memLoc, ok := loc.(mc.MemoryLocation)
				assert.True(t, ok, "expected MemoryLocation")
				assert.Equal(t, uint32(16), memLoc.BaseRegister, "r0 should map to 16")
				assert.Equal(t, int32(4), memLoc.Offset)
			},
		},
		{
			name: "DW_OP_breg13 should keep SP as 13",
			expr: []byte{0x7D, 0x10},
			checkFn: func(t *testing.T, loc mc.VariableLocation) {
				memLoc, ok := loc.(mc.MemoryLocation)
				assert.True(t, ok, "expected MemoryLocation")
				assert.Equal(t, uint32(13), memLoc.BaseRegister, "sp should stay 13")
				assert.Equal(t, int32(16), memLoc.Offset)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := parser.decodeLocationExpr(tt.expr)
			assert.NotNil(t, loc)
			tt.checkFn(t, loc)
		})
	}
}

// TestNewDebugInfo tests that NewDebugInfo creates properly initialized maps
func TestNewDebugInfo(t *testing.T) {
	info := mc.NewDebugInfo()

	assert.NotNil(t, info)
	assert.NotNil(t, info.InstructionLocations, "InstructionLocations should be initialized")
	assert.NotNil(t, info.Functions, "Functions should be initialized")
	assert.NotNil(t, info.InstructionVariables, "InstructionVariables should be initialized")

	// Should be empty
	assert.Empty(t, info.InstructionLocations)
	assert.Empty(t, info.Functions)
	assert.Empty(t, info.InstructionVariables)
}

// TestVariableLocationTypes tests that all VariableLocation types implement the interface
func TestVariableLocationTypes(t *testing.T) {
	// This test ensures the interface is implemented correctly
	var loc mc.VariableLocation

	// RegisterLocation
	loc = mc.RegisterLocation{Register: 16}
	assert.NotNil(t, loc)
	regLoc, ok := loc.(mc.RegisterLocation)
	assert.True(t, ok)
	assert.Equal(t, uint32(16), regLoc.Register)

	// MemoryLocation
	loc = mc.MemoryLocation{BaseRegister: 13, Offset: 24}
	assert.NotNil(t, loc)
	memLoc, ok := loc.(mc.MemoryLocation)
	assert.True(t, ok)
	assert.Equal(t, uint32(13), memLoc.BaseRegister)
	assert.Equal(t, int32(24), memLoc.Offset)

	// ConstantLocation
	loc = mc.ConstantLocation{Value: 42}
	assert.NotNil(t, loc)
	constLoc, ok := loc.(mc.ConstantLocation)
	assert.True(t, ok)
	assert.Equal(t, int64(42), constLoc.Value)
}

// TestDecodeLocationExprEdgeCases tests edge cases in location expression decoding
func TestDecodeLocationExprEdgeCases(t *testing.T) {
	parser := &DWARFParser{}

	t.Run("DW_OP_breg without offset byte defaults to zero", func(t *testing.T) {
		// Only the opcode, no offset - should use 0
		expr := []byte{0x7D} // DW_OP_breg13 (sp)
		loc := parser.decodeLocationExpr(expr)
		assert.NotNil(t, loc)
		memLoc, ok := loc.(mc.MemoryLocation)
		assert.True(t, ok)
		assert.Equal(t, int32(0), memLoc.Offset)
	})

	t.Run("DW_OP_fbreg without offset byte returns nil", func(t *testing.T) {
		// DW_OP_fbreg requires at least one offset byte
		expr := []byte{0x91} // DW_OP_fbreg alone
		loc := parser.decodeLocationExpr(expr)
		assert.Nil(t, loc)
	})

	t.Run("DW_OP_plus_uconst without offset byte returns nil", func(t *testing.T) {
		// DW_OP_plus_uconst requires at least one offset byte
		expr := []byte{0x23} // DW_OP_plus_uconst alone
		loc := parser.decodeLocationExpr(expr)
		assert.Nil(t, loc)
	})
}

// TestSourceLocationString tests the String() method of SourceLocation
func TestSourceLocationString(t *testing.T) {
	tests := []struct {
		name     string
		loc      mc.SourceLocation
		expected string
	}{
		{
			name: "with column",
			loc: mc.SourceLocation{
				File:   "test.c",
				Line:   42,
				Column: 10,
			},
			expected: "test.c:42:10",
		},
		{
			name: "without column",
			loc: mc.SourceLocation{
				File:   "main.c",
				Line:   100,
				Column: 0,
			},
			expected: "main.c:100",
		},
		{
			name: "line 1 column 1",
			loc: mc.SourceLocation{
				File:   "source.cpp",
				Line:   1,
				Column: 1,
			},
			expected: "source.cpp:1:1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.loc.String()
			assert.Equal(t, tt.expected, result)
		})
	}
}

// TestVariableInfoFields tests VariableInfo structure
func TestVariableInfoFields(t *testing.T) {
	v := mc.VariableInfo{
		Name:        "myVar",
		TypeName:    "int",
		Size:        4,
		Location:    mc.MemoryLocation{BaseRegister: 13, Offset: 24},
		IsParameter: false,
	}

	assert.Equal(t, "myVar", v.Name)
	assert.Equal(t, "int", v.TypeName)
	assert.Equal(t, 4, v.Size)
	assert.False(t, v.IsParameter)

	memLoc, ok := v.Location.(mc.MemoryLocation)
	assert.True(t, ok)
	assert.Equal(t, uint32(13), memLoc.BaseRegister)
	assert.Equal(t, int32(24), memLoc.Offset)
}

// TestFunctionDebugInfoFields tests FunctionDebugInfo structure
func TestFunctionDebugInfoFields(t *testing.T) {
	f := mc.FunctionDebugInfo{
		Name:         "main",
		StartAddress: 0x10000,
		EndAddress:   0x10100,
		SourceFile:   "main.c",
		StartLine:    5,
		Parameters: []mc.VariableInfo{
			{Name: "argc", TypeName: "int", Size: 4},
			{Name: "argv", TypeName: "char**", Size: 4},
		},
		LocalVariables: []mc.VariableInfo{
			{Name: "x", TypeName: "int", Size: 4},
		},
	}

	assert.Equal(t, "main", f.Name)
	assert.Equal(t, uint32(0x10000), f.StartAddress)
	assert.Equal(t, uint32(0x10100), f.EndAddress)
	assert.Len(t, f.Parameters, 2)
	assert.Len(t, f.LocalVariables, 1)
}

// TestSourceLocationPropagation tests that DWARF line info is propagated to all
// instruction addresses between entries. DWARF only records line info at statement
// boundaries, so the parser must fill in intermediate instruction addresses.
func TestSourceLocationPropagation(t *testing.T) {
	debugInfo := mc.NewDebugInfo()

	type lineEntryData struct {
		addr   uint32
		file   string
		line   int
		column int
	}
	entries := []lineEntryData{
		{addr: 0x100, file: "test.c", line: 10, column: 1},
		{addr: 0x110, file: "test.c", line: 15, column: 5},
		{addr: 0x120, file: "test.c", line: 20, column: 1},
	}

	const instrSize = 4
	for i, entry := range entries {
		loc := &mc.SourceLocation{
			File:   entry.file,
			Line:   entry.line,
			Column: entry.column,
		}

		var endAddr uint32
		if i+1 < len(entries) {
			endAddr = entries[i+1].addr
		} else {
			endAddr = entry.addr + instrSize
		}

		for addr := entry.addr; addr < endAddr; addr += instrSize {
			debugInfo.InstructionLocations[addr] = loc
		}
	}

	for addr := uint32(0x100); addr < 0x110; addr += 4 {
		loc := debugInfo.GetSourceLocation(addr)
		assert.NotNil(t, loc, "Expected source location at address 0x%X", addr)
		assert.Equal(t, "test.c", loc.File)
		assert.Equal(t, 10, loc.Line, "Address 0x%X should have line 10", addr)
	}

	for addr := uint32(0x110); addr < 0x120; addr += 4 {
		loc := debugInfo.GetSourceLocation(addr)
		assert.NotNil(t, loc, "Expected source location at address 0x%X", addr)
		assert.Equal(t, "test.c", loc.File)
		assert.Equal(t, 15, loc.Line, "Address 0x%X should have line 15", addr)
	}

	loc := debugInfo.GetSourceLocation(0x120)
	assert.NotNil(t, loc)
	assert.Equal(t, 20, loc.Line)

	assert.Nil(t, debugInfo.GetSourceLocation(0x0FC))
	assert.Nil(t, debugInfo.GetSourceLocation(0x124))
}
