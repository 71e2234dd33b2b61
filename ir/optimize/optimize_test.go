package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qclabs/qcl/ir"
	"github.com/qclabs/qcl/ir/build"
	"github.com/qclabs/qcl/ir/verify"
	"github.com/qclabs/qcl/lang/parser"
	"github.com/qclabs/qcl/lang/sema"
)

func buildModule(t *testing.T, src string) *ir.Module {
	t.Helper()
	prog, diags := parser.Parse(src)
	require.False(t, diags.HasErrors(), "parse diags: %v", diags)
	res := sema.Analyze(prog)
	require.False(t, res.Diags.HasErrors(), "sema diags: %v", res.Diags)
	mod, buildDiags := build.Build(prog, res)
	require.False(t, buildDiags.HasErrors(), "build diags: %v", buildDiags)
	return mod
}

func countGates(fn *ir.Function) int {
	n := 0
	for _, id := range fn.BlockOrder {
		for _, op := range fn.Blocks[id].Ops {
			if _, ok := op.(ir.ApplyGate); ok {
				n++
			}
		}
	}
	return n
}

func TestDeadQubitEliminationDropsUnusedQubit(t *testing.T) {
	mod := buildModule(t, `
fn main() -> int {
	let q0: qubit = |0>;
	let q1: qubit = |0>;
	H(q0);
	let c0 = measure(q0);
	return 0;
}
`)
	optimized := Run(mod)
	verifyRes := verify.Module(optimized)
	assert.True(t, verifyRes.OK(), "verify errors: %v", verifyRes.Errors)
}

func TestGateCancellationRemovesAdjacentSelfInverse(t *testing.T) {
	mod := buildModule(t, `
fn main() -> int {
	let q0: qubit = |0>;
	H(q0);
	H(q0);
	let c0 = measure(q0);
	return 0;
}
`)
	before := countGates(mod.Functions[0])
	optimized := Run(mod)
	after := countGates(optimized.Functions[0])
	assert.Equal(t, 2, before)
	assert.Equal(t, 0, after)
}

func TestGateCancellationKeepsNonInversePair(t *testing.T) {
	mod := buildModule(t, `
fn main() -> int {
	let q0: qubit = |0>;
	H(q0);
	X(q0);
	let c0 = measure(q0);
	return 0;
}
`)
	optimized := Run(mod)
	assert.Equal(t, 2, countGates(optimized.Functions[0]))
}
