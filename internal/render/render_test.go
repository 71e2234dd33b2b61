package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qclabs/qcl/ir"
	"github.com/qclabs/qcl/ir/build"
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

func TestLayoutCountsQubitRowsAndSteps(t *testing.T) {
	assert := assert.New(t)
	mod := buildModule(t, `
fn main() -> int {
	let q0: qubit = |0>;
	let q1: qubit = |0>;
	H(q0);
	CNOT(q0, q1);
	let c0 = measure(q0);
	let c1 = measure(q1);
	return 0;
}
`)
	numQubits, steps := layout(mod.Functions[0])
	assert.Equal(2, numQubits)
	assert.Len(steps, 4)
	assert.Equal("gate", steps[0].kind)
	assert.Equal("gate", steps[1].kind)
	assert.Equal("measure", steps[2].kind)
}

func TestRenderProducesNonEmptyImage(t *testing.T) {
	assert := assert.New(t)
	mod := buildModule(t, `
fn main() -> int {
	let q0: qubit = |0>;
	H(q0);
	let c0 = measure(q0);
	return 0;
}
`)
	img, err := New(40).Render(mod.Functions[0])
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Greater(bounds.Dx(), 0)
	assert.Greater(bounds.Dy(), 0)
}
