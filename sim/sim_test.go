package sim

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

func TestRunXFlipsQubitToOne(t *testing.T) {
	assert := assert.New(t)
	mod := buildModule(t, `
fn main() -> int {
	let q0: qubit = |0>;
	X(q0);
	let c0 = measure(q0);
	return 0;
}
`)
	res, err := Run(mod.Functions[0], Options{Seed: 1})
	require.NoError(t, err)
	require.Len(t, res.Measurements, 1)
	assert.True(res.Measurements[0].Result)
}

func TestRunBellPairCorrelatedOutcomes(t *testing.T) {
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
	res, err := Run(mod.Functions[0], Options{Seed: 42})
	require.NoError(t, err)
	require.Len(t, res.Measurements, 2)
	assert.Equal(res.Measurements[0].Result, res.Measurements[1].Result)
}

func TestRunUnimplementedGateErrors(t *testing.T) {
	mod := buildModule(t, `
fn main() -> int {
	let q0: qubit = |0>;
	Y(q0);
	let c0 = measure(q0);
	return 0;
}
`)
	_, err := Run(mod.Functions[0], Options{Seed: 1})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNotImplemented)
}

func TestResultLogFormatsMeasurements(t *testing.T) {
	assert := assert.New(t)
	r := Result{Measurements: []MeasurementEvent{{Qubit: 0, Cbit: 0, Result: true}}}
	log := r.Log()
	assert.Contains(log, "MEASURE q[0] -> 1")
}
