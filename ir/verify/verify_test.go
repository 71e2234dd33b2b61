package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qclabs/qcl/ir"
	"github.com/qclabs/qcl/ir/build"
	"github.com/qclabs/qcl/lang/ast"
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

func TestVerifyValidModuleOK(t *testing.T) {
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
	res := Module(mod)
	assert.True(t, res.OK(), "errors: %v", res.Errors)
}

func TestVerifyWarnsOnHighQubitCount(t *testing.T) {
	fn := ir.NewFunction("main", nil, ast.UnitType{})
	entry := fn.NewBlock()
	fn.EntryBlock = entry.ID
	for i := 0; i < MaxQubitsWarnThreshold+1; i++ {
		q := fn.NewQubit()
		entry.Ops = append(entry.Ops, ir.AllocQubit{Result: q})
	}
	entry.Ops = append(entry.Ops, ir.Return{})

	mod := &ir.Module{Name: "m", Functions: []*ir.Function{fn}}
	res := Module(mod)
	assert.NotEmpty(t, res.Warnings)
}

func TestVerifyDetectsMissingTerminator(t *testing.T) {
	fn := ir.NewFunction("main", nil, ast.UnitType{})
	entry := fn.NewBlock()
	fn.EntryBlock = entry.ID
	q := fn.NewQubit()
	entry.Ops = append(entry.Ops, ir.AllocQubit{Result: q})

	mod := &ir.Module{Name: "m", Functions: []*ir.Function{fn}}
	res := Module(mod)
	assert.False(t, res.OK())
}

func TestVerifyDetectsUnreachableBlock(t *testing.T) {
	fn := ir.NewFunction("main", nil, ast.UnitType{})
	entry := fn.NewBlock()
	fn.EntryBlock = entry.ID
	entry.Ops = append(entry.Ops, ir.Return{})

	orphan := fn.NewBlock()
	orphan.Ops = append(orphan.Ops, ir.Return{})

	mod := &ir.Module{Name: "m", Functions: []*ir.Function{fn}}
	res := Module(mod)
	assert.NotEmpty(t, res.Warnings)
}
