package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qclabs/qcl/lang/parser"
)

func analyzeSource(t *testing.T, src string) Result {
	t.Helper()
	prog, diags := parser.Parse(src)
	require.False(t, diags.HasErrors(), "parse diags: %v", diags)
	return Analyze(prog)
}

func TestAnalyzeBellProgramOK(t *testing.T) {
	assert := assert.New(t)
	res := analyzeSource(t, `
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
	assert.False(res.Diags.HasErrors(), "diags: %v", res.Diags)
}

func TestAnalyzeRejectsMeasureAfterMeasure(t *testing.T) {
	assert := assert.New(t)
	res := analyzeSource(t, `
fn main() -> int {
	let q0: qubit = |0>;
	let c0 = measure(q0);
	let c1 = measure(q0);
	return 0;
}
`)
	assert.True(res.Diags.HasErrors())
}

func TestAnalyzeRejectsCNOTSameBinding(t *testing.T) {
	assert := assert.New(t)
	res := analyzeSource(t, `
fn main() -> int {
	let q0: qubit = |0>;
	CNOT(q0, q0);
	let c0 = measure(q0);
	return 0;
}
`)
	assert.True(res.Diags.HasErrors())
}

func TestAnalyzeRejectsMeasureOfNonQuantum(t *testing.T) {
	assert := assert.New(t)
	res := analyzeSource(t, `
fn main() -> int {
	let x: int = 5;
	let c0 = measure(x);
	return 0;
}
`)
	assert.True(res.Diags.HasErrors())
}

func TestAnalyzeRejectsTypeMismatch(t *testing.T) {
	assert := assert.New(t)
	res := analyzeSource(t, `
fn helper(n: int) -> int { return n; }
fn main() -> int {
	let q0: qubit = |0>;
	return helper(q0);
}
`)
	assert.True(res.Diags.HasErrors())
}
