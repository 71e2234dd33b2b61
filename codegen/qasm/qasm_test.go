package qasm

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

func TestGenerateBellProgram(t *testing.T) {
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
	out, stats, err := Generate(mod)
	require.NoError(t, err)
	assert.Contains(out, "OPENQASM 2.0;")
	assert.Contains(out, "qreg q[2];")
	assert.Contains(out, "creg c[2];")
	assert.Contains(out, "h q[0];")
	assert.Contains(out, "cx q[0], q[1];")
	assert.Contains(out, "measure q[0] -> c[0];")
	assert.Equal(2, stats.Qubits)
	assert.Equal(2, stats.Cbits)
	assert.Equal(2, stats.Gates)
	assert.Equal(2, stats.Measurements)
}

func TestGenerateLegacyQregInitialization(t *testing.T) {
	assert := assert.New(t)
	mod := buildModule(t, `
fn main() -> int {
	qreg q[3] = |101>;
	let c0 = measure(q[0]);
	let c1 = measure(q[1]);
	let c2 = measure(q[2]);
	return 0;
}
`)
	out, stats, err := Generate(mod)
	require.NoError(t, err)
	assert.Contains(out, "qreg q[3];")
	assert.Contains(out, "x q[0];")
	assert.NotContains(out, "x q[1];")
	assert.Contains(out, "x q[2];")
	assert.Contains(out, "measure q[0] -> c[0];")
	assert.Contains(out, "measure q[1] -> c[1];")
	assert.Contains(out, "measure q[2] -> c[2];")
	assert.Equal(3, stats.Qubits)
	assert.Equal(3, stats.Measurements)
}

func TestGenerateUsesSoleFunctionWhenNoMain(t *testing.T) {
	assert := assert.New(t)
	mod := buildModule(t, `
fn entry() -> int {
	let q0: qubit = |0>;
	H(q0);
	let c0 = measure(q0);
	return 0;
}
`)
	out, _, err := Generate(mod)
	require.NoError(t, err)
	assert.Contains(out, "h q[0];")
}

func TestGenerateAmbiguousEntryErrors(t *testing.T) {
	mod := buildModule(t, `
fn helper() -> int {
	let q0: qubit = |0>;
	let c0 = measure(q0);
	return 0;
}
fn other() -> int {
	let q0: qubit = |0>;
	let c0 = measure(q0);
	return 0;
}
`)
	_, _, err := Generate(mod)
	assert.ErrorIs(t, err, ErrNoEntryFunction)
}

func TestGenerateRotationGateFormatsAngle(t *testing.T) {
	assert := assert.New(t)
	mod := buildModule(t, `
fn main() -> int {
	let q0: qubit = |0>;
	RX(1.5707963268, q0);
	let c0 = measure(q0);
	return 0;
}
`)
	out, _, err := Generate(mod)
	require.NoError(t, err)
	assert.Contains(out, "rx(1.5707963268) q[0];")
}
