// Package qasm translates a QIR function into OpenQASM 2.0 text, scoped to
// a single entry-point function (by convention, "main") per the resolved
// design decision recorded in DESIGN.md — the original per-function
// register-naming scheme collides across multiple functions.
package qasm

import (
	"fmt"
	"strings"

	"github.com/qclabs/qcl/lang/ast"
	"github.com/qclabs/qcl/ir"
)

// EntryFunctionName is the function the generator emits; QIR functions
// other than this one are not lowered to QASM in this revision.
const EntryFunctionName = "main"

// Stats reports aggregate circuit statistics alongside the generated text.
type Stats struct {
	Qubits       int
	Cbits        int
	Gates        int
	Measurements int
}

// ErrNoEntryFunction is returned when the module has no function named
// EntryFunctionName and more than one (or zero) candidate functions, so
// the entry point is ambiguous.
var ErrNoEntryFunction = fmt.Errorf("qasm: module has no %q function and entry point is ambiguous", EntryFunctionName)

// Generate emits the fixed OPENQASM 2.0 prelude followed by the entry
// function's register declarations and translated operations. It selects
// the function named EntryFunctionName if present; otherwise, if the
// module has exactly one function, that function is the entry point;
// otherwise the entry point is ambiguous and ErrNoEntryFunction is
// returned.
func Generate(mod *ir.Module) (string, Stats, error) {
	var entry *ir.Function
	for _, fn := range mod.Functions {
		if fn.Name == EntryFunctionName {
			entry = fn
			break
		}
	}
	if entry == nil && len(mod.Functions) == 1 {
		entry = mod.Functions[0]
	}
	if entry == nil {
		return "", Stats{}, ErrNoEntryFunction
	}
	return GenerateFunction(entry)
}

// GenerateFunction generates QASM for a single function directly, bypassing
// the EntryFunctionName lookup — useful for tests that exercise the
// per-op translation table on non-"main" functions.
func GenerateFunction(fn *ir.Function) (string, Stats, error) {
	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")

	nq, nc := fn.QubitCount(), fn.CbitCount()
	if nq > 0 {
		fmt.Fprintf(&sb, "qreg q[%d];\n", nq)
	}
	if nc > 0 {
		fmt.Fprintf(&sb, "creg c[%d];\n", nc)
	}
	if nq > 0 || nc > 0 {
		sb.WriteString("\n")
	}

	var stats Stats
	stats.Qubits, stats.Cbits = nq, nc

	for _, id := range fn.BlockOrder {
		b := fn.Blocks[id]
		for _, op := range b.Ops {
			line, err := translateOp(op, &stats)
			if err != nil {
				return "", Stats{}, err
			}
			sb.WriteString(line)
		}
	}
	return sb.String(), stats, nil
}

func translateOp(op ir.Op, stats *Stats) (string, error) {
	switch o := op.(type) {
	case ir.AllocQubit:
		if o.InitState == ir.One {
			return fmt.Sprintf("x q[%d];\n", o.Result), nil
		}
		return "", nil
	case ir.AllocCbit:
		return "", nil
	case ir.ApplyGate:
		stats.Gates++
		return translateGate(o)
	case ir.Measure:
		stats.Measurements++
		return fmt.Sprintf("measure q[%d] -> c[%d];\n", o.Qubit, o.Cbit), nil
	case ir.Return, ir.Jump, ir.Branch, ir.Reset, ir.Comment,
		ir.ClassicalAssign, ir.BinaryOp, ir.UnaryOp,
		ir.MakeStruct, ir.ExtractField, ir.MakeArray, ir.ArrayGet:
		return "", nil
	default:
		return "", fmt.Errorf("qasm: unsupported op %T", op)
	}
}

func qubitArgs(args []ir.Value) ([]ir.QubitId, bool) {
	out := make([]ir.QubitId, 0, len(args))
	for _, a := range args {
		q, ok := a.(ir.VQubit)
		if !ok {
			return nil, false
		}
		out = append(out, q.ID)
	}
	return out, true
}

func translateGate(o ir.ApplyGate) (string, error) {
	qs, ok := qubitArgs(o.Args)
	if !ok {
		return "", fmt.Errorf("qasm: gate %s argument did not resolve to a qubit", o.Gate)
	}
	name := gateQasmName(o.Gate)
	switch len(qs) {
	case 1:
		return fmt.Sprintf("%s q[%d];\n", name, qs[0]), nil
	case 2:
		return fmt.Sprintf("%s q[%d], q[%d];\n", name, qs[0], qs[1]), nil
	default:
		return "", fmt.Errorf("qasm: gate %s has unsupported arity %d", o.Gate, len(qs))
	}
}

func gateQasmName(g ir.Gate) string {
	switch g.Kind {
	case ast.GateH:
		return "h"
	case ast.GateX:
		return "x"
	case ast.GateY:
		return "y"
	case ast.GateZ:
		return "z"
	case ast.GateS:
		return "s"
	case ast.GateT:
		return "t"
	case ast.GateCNOT:
		return "cx"
	case ast.GateSWAP:
		return "swap"
	case ast.GateRX:
		return fmt.Sprintf("rx(%s)", formatAngle(g.Angle))
	case ast.GateRY:
		return fmt.Sprintf("ry(%s)", formatAngle(g.Angle))
	case ast.GateRZ:
		return fmt.Sprintf("rz(%s)", formatAngle(g.Angle))
	default:
		return g.Kind.String()
	}
}

func formatAngle(a float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.10f", a), "0"), ".")
}
