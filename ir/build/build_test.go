package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qclabs/qcl/ir"
	"github.com/qclabs/qcl/lang/diag"
	"github.com/qclabs/qcl/lang/parser"
	"github.com/qclabs/qcl/lang/sema"
)

func buildSource(t *testing.T, src string) (*ir.Module, diag.List) {
	t.Helper()
	prog, diags := parser.Parse(src)
	require.False(t, diags.HasErrors(), "parse diags: %v", diags)
	res := sema.Analyze(prog)
	require.False(t, res.Diags.HasErrors(), "sema diags: %v", res.Diags)
	return Build(prog, res)
}

const bellSource = `
fn main() -> int {
	let q0: qubit = |0>;
	let q1: qubit = |0>;
	H(q0);
	CNOT(q0, q1);
	let c0 = measure(q0);
	let c1 = measure(q1);
	return 0;
}
`

func TestBuildBellProgram(t *testing.T) {
	assert := assert.New(t)
	mod, diags := buildSource(t, bellSource)
	assert.False(diags.HasErrors())
	require.Len(t, mod.Functions, 1)
	fn := mod.Functions[0]
	assert.Equal(2, fn.QubitCount())
	assert.Equal(2, fn.CbitCount())
}

func TestBuildConstantBoundedLoopUnrolls(t *testing.T) {
	assert := assert.New(t)
	mod, diags := buildSource(t, `
fn main() -> int {
	let q0: qubit = |0>;
	for i in range(0, 3) {
		H(q0);
	}
	let c0 = measure(q0);
	return 0;
}
`)
	assert.False(diags.HasErrors())
	fn := mod.Functions[0]
	gateCount := 0
	for _, id := range fn.BlockOrder {
		for _, op := range fn.Blocks[id].Ops {
			if _, ok := op.(ir.ApplyGate); ok {
				gateCount++
			}
		}
	}
	assert.Equal(3, gateCount)
}

func TestBuildRejectsNonConstantLoopBound(t *testing.T) {
	assert := assert.New(t)
	prog, diags := parser.Parse(`
fn main(n: int) -> int {
	let q0: qubit = |0>;
	for i in range(0, n) {
		H(q0);
	}
	let c0 = measure(q0);
	return 0;
}
`)
	assert.False(diags.HasErrors())
	res := sema.Analyze(prog)
	assert.False(res.Diags.HasErrors())
	_, buildDiags := Build(prog, res)
	assert.True(buildDiags.HasErrors())
}
