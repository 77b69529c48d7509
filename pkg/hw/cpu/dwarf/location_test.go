package dwarf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateLocationFbreg(t *testing.T) {
	var expr []byte
	expr = appendU8(expr, opFbreg)
	expr = appendSLEB(expr, -8)

	res, err := EvaluateLocation(expr, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, LocAddress, res.Kind)
	assert.Equal(t, uint64(92), res.Address)
}

func TestEvaluateLocationRegister(t *testing.T) {
	expr := []byte{opReg0 + 3}
	res, err := EvaluateLocation(expr, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, LocRegister, res.Kind)
	assert.Equal(t, uint32(3), res.Register)
}

func TestEvaluateLocationBregNeedsRegisterProvider(t *testing.T) {
	var expr []byte
	expr = appendU8(expr, opBreg0+5)
	expr = appendSLEB(expr, 4)

	_, err := EvaluateLocation(expr, 0, nil)
	assert.ErrorIs(t, err, ErrUnsupportedExpression)

	provider := func(reg uint32) (int64, bool) {
		if reg == 5 {
			return 1000, true
		}
		return 0, false
	}
	res, err := EvaluateLocation(expr, 0, provider)
	require.NoError(t, err)
	assert.Equal(t, LocAddress, res.Kind)
	assert.Equal(t, uint64(1004), res.Address)
}

func TestEvaluateLocationArithmetic(t *testing.T) {
	// DW_OP_lit5 DW_OP_lit3 DW_OP_plus -> 8
	expr := []byte{opLit0 + 5, opLit0 + 3, opPlus}
	res, err := EvaluateLocation(expr, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), res.Address)
}

func TestEvaluateLocationPlusUconst(t *testing.T) {
	var expr []byte
	expr = appendU8(expr, opLit0+2)
	expr = appendU8(expr, opPlusUconst)
	expr = appendULEB(expr, 10)

	res, err := EvaluateLocation(expr, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), res.Address)
}

func TestEvaluateLocationUnsupportedOps(t *testing.T) {
	tests := []struct {
		name string
		expr []byte
	}{
		{"call_frame_cfa", []byte{opCallFrameCFA}},
		{"deref", []byte{opLit0, opDeref}},
		{"unknown opcode", []byte{0xFE}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvaluateLocation(tt.expr, 0, nil)
			assert.Error(t, err)
		})
	}
}

func TestEvaluateLocationEmptyExpression(t *testing.T) {
	_, err := EvaluateLocation(nil, 0, nil)
	assert.ErrorIs(t, err, ErrUnsupportedExpression)
}

func TestEvaluateLocationDup(t *testing.T) {
	expr := []byte{opLit0 + 7, opDup, opPlus}
	res, err := EvaluateLocation(expr, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(14), res.Address)
}

func TestEvaluateLocationStackValueIsAValueNotAnAddress(t *testing.T) {
	// DW_OP_lit5 DW_OP_stack_value -> the constant 5, not address 5.
	expr := []byte{opLit0 + 5, opStackValue}
	res, err := EvaluateLocation(expr, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, LocValue, res.Kind)
	assert.Equal(t, int64(5), res.Value)
}

func TestEvaluateLocationWithoutStackValueIsAnAddress(t *testing.T) {
	// The same constant without DW_OP_stack_value is reported as an
	// address, distinguishing a computed value from a location to read.
	expr := []byte{opLit0 + 5}
	res, err := EvaluateLocation(expr, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, LocAddress, res.Kind)
	assert.Equal(t, uint64(5), res.Address)
}

func TestEvaluateLocationStackValueEmptyStack(t *testing.T) {
	_, err := EvaluateLocation([]byte{opStackValue}, 0, nil)
	assert.ErrorIs(t, err, ErrUnsupportedExpression)
}
