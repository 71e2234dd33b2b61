package itsubaki

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
	events, err := Run(mod.Functions[0])
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(events[0].Result)
}

func TestRunSupportsYZSAndSwap(t *testing.T) {
	assert := assert.New(t)
	mod := buildModule(t, `
fn main() -> int {
	let q0: qubit = |0>;
	let q1: qubit = |0>;
	X(q0);
	Y(q0);
	Z(q0);
	S(q0);
	SWAP(q0, q1);
	let c0 = measure(q0);
	let c1 = measure(q1);
	return 0;
}
`)
	events, err := Run(mod.Functions[0])
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(events[1].Result)
}

func TestRunUnallocatedMeasureErrors(t *testing.T) {
	fn := ir.NewFunction("main", nil, nil)
	entry := fn.NewBlock()
	fn.EntryBlock = entry.ID
	entry.Ops = append(entry.Ops, ir.Measure{Qubit: 0, Cbit: 0})
	entry.Ops = append(entry.Ops, ir.Return{})

	_, err := Run(fn)
	require.Error(t, err)
}
