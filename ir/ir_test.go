package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qclabs/qcl/lang/ast"
)

func TestGateArity(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(2, Gate{Kind: ast.GateCNOT}.Arity())
	assert.Equal(2, Gate{Kind: ast.GateSWAP}.Arity())
	assert.Equal(1, Gate{Kind: ast.GateH}.Arity())
}

func TestGateStringIncludesAngleForRotations(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("H", Gate{Kind: ast.GateH}.String())
	assert.Contains(Gate{Kind: ast.GateRX, Angle: 1.5}.String(), "1.5")
}

func TestQubitsInFindsNestedQubits(t *testing.T) {
	assert := assert.New(t)
	v := VTuple{Vals: []Value{VQubit{ID: 2}, VArray{Vals: []Value{VQubit{ID: 5}}}}}
	assert.ElementsMatch([]QubitId{2, 5}, QubitsIn(v))
}

func TestQubitsInNonQubitValueIsEmpty(t *testing.T) {
	assert := assert.New(t)
	assert.Empty(QubitsIn(VInt{V: 3}))
}

func TestNewFunctionAllocatesDistinctIds(t *testing.T) {
	assert := assert.New(t)
	fn := NewFunction("f", nil, ast.UnitType{})
	q0 := fn.NewQubit()
	q1 := fn.NewQubit()
	assert.NotEqual(q0, q1)
	assert.Equal(2, fn.QubitCount())
}
