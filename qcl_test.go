package qcl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func TestCompileBellProgram(t *testing.T) {
	assert := assert.New(t)
	out, err := Compile(bellSource)
	require.NoError(t, err)
	assert.Contains(out, "OPENQASM 2.0;")
	assert.Contains(out, "cx q[0], q[1];")
}

func TestCompileWithStatsReportsGateCounts(t *testing.T) {
	assert := assert.New(t)
	res, err := CompileWithStats(bellSource, true)
	require.NoError(t, err)
	assert.Equal(2, res.Stats.Qubits)
	assert.Equal(2, res.Stats.Cbits)
	assert.Equal(2, res.Stats.Gates)
	assert.Equal(2, res.Stats.Measurements)
}

func TestCompileWithStatsOptimizerCancelsAdjacentGates(t *testing.T) {
	assert := assert.New(t)
	src := `
fn main() -> int {
	let q0: qubit = |0>;
	H(q0);
	H(q0);
	let c0 = measure(q0);
	return 0;
}
`
	optimized, err := CompileWithStats(src, true)
	require.NoError(t, err)
	unoptimized, err := CompileWithStats(src, false)
	require.NoError(t, err)

	assert.Equal(0, optimized.Stats.Gates)
	assert.Equal(2, unoptimized.Stats.Gates)
}

func TestCompileReturnsDiagnosticsOnParseError(t *testing.T) {
	_, err := Compile("fn main( { ###")
	require.Error(t, err)
}

func TestCompileReturnsDiagnosticsOnSemaError(t *testing.T) {
	_, err := Compile(`
fn main() -> int {
	let x: int = 5;
	let c0 = measure(x);
	return 0;
}
`)
	require.Error(t, err)
}

func TestCapabilitiesListsCoreFeatures(t *testing.T) {
	assert := assert.New(t)
	caps := Capabilities()
	assert.Contains(caps, "qasm2")
	assert.Contains(caps, "statevector-sim")
}

func TestVersionIsNonEmpty(t *testing.T) {
	assert.NotEmpty(t, Version())
}
