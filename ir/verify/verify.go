// Package verify implements the QIR analyzer (verifier): reachability,
// termination, SSA, qubit-count, type-consistency, and critical-edge
// checks run after optimization and before code generation.
package verify

import (
	"fmt"

	"github.com/qclabs/qcl/ir"
)

// MaxQubitsWarnThreshold is the qubit-count sanity threshold past which a
// warning (not an error) is produced.
const MaxQubitsWarnThreshold = 30

// Result bundles the verifier's findings. Errors is non-empty iff the
// module fails verification.
type Result struct {
	Errors   []string
	Warnings []string
}

func (r Result) OK() bool { return len(r.Errors) == 0 }

func (r *Result) err(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Module verifies every function of mod.
func Module(mod *ir.Module) Result {
	var res Result
	for _, fn := range mod.Functions {
		verifyFunction(fn, &res)
	}
	return res
}

func verifyFunction(fn *ir.Function, res *Result) {
	checkReachability(fn, res)
	checkTermination(fn, res)
	checkSSA(fn, res)
	checkQubitCount(fn, res)
	checkTypeSanity(fn, res)
	checkCriticalEdges(fn, res)
}

func checkReachability(fn *ir.Function, res *Result) {
	seen := map[ir.BlockId]bool{fn.EntryBlock: true}
	queue := []ir.BlockId{fn.EntryBlock}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		b := fn.Blocks[id]
		if b == nil {
			continue
		}
		for _, s := range b.Successors {
			if !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}
	for _, id := range fn.BlockOrder {
		if !seen[id] {
			res.warn("function %q: block b%d is unreachable from the entry block", fn.Name, id)
		}
	}
}

func checkTermination(fn *ir.Function, res *Result) {
	for _, id := range fn.BlockOrder {
		b := fn.Blocks[id]
		if b == nil || len(b.Ops) == 0 {
			continue
		}
		last := b.Ops[len(b.Ops)-1]
		if !ir.IsTerminator(last) {
			res.err("function %q: block b%d does not end in a terminator", fn.Name, id)
		}
	}
}

func checkSSA(fn *ir.Function, res *Result) {
	defs := map[ir.TempId]int{}
	var uses []ir.TempId

	recordValueUse := func(v ir.Value) {
		if t, ok := v.(ir.VTemp); ok {
			uses = append(uses, t.ID)
		}
	}

	for _, id := range fn.BlockOrder {
		b := fn.Blocks[id]
		for _, op := range b.Ops {
			switch o := op.(type) {
			case ir.ApplyGate:
				for _, a := range o.Args {
					recordValueUse(a)
				}
				if o.Result != nil {
					defs[*o.Result]++
				}
			case ir.ClassicalAssign:
				recordValueUse(o.Value)
				defs[o.Target]++
			case ir.BinaryOp:
				recordValueUse(o.LHS)
				recordValueUse(o.RHS)
				defs[o.Result]++
			case ir.UnaryOp:
				recordValueUse(o.Operand)
				defs[o.Result]++
			case ir.Branch:
				recordValueUse(o.Cond)
			case ir.Return:
				if o.Value != nil {
					recordValueUse(o.Value)
				}
			case ir.MakeStruct:
				for _, v := range o.FieldValues {
					recordValueUse(v)
				}
				defs[o.Result]++
			case ir.ExtractField:
				recordValueUse(o.Struct)
				defs[o.Result]++
			case ir.MakeArray:
				for _, v := range o.Elements {
					recordValueUse(v)
				}
				defs[o.Result]++
			case ir.ArrayGet:
				recordValueUse(o.Array)
				defs[o.Result]++
			}
		}
	}

	for t, n := range defs {
		if n > 1 {
			res.err("function %q: temp t%d is defined %d times, violating SSA", fn.Name, t, n)
		}
	}
	for _, t := range uses {
		if defs[t] == 0 {
			res.err("function %q: temp t%d is used but never defined", fn.Name, t)
		}
	}
}

func checkQubitCount(fn *ir.Function, res *Result) {
	if fn.QubitCount() > MaxQubitsWarnThreshold {
		res.warn("function %q: allocates %d qubits, exceeding the sanity threshold of %d", fn.Name, fn.QubitCount(), MaxQubitsWarnThreshold)
	}
}

func checkTypeSanity(fn *ir.Function, res *Result) {
	for _, id := range fn.BlockOrder {
		b := fn.Blocks[id]
		for _, op := range b.Ops {
			bo, ok := op.(ir.BinaryOp)
			if !ok {
				continue
			}
			if !valuesLookCompatible(bo.LHS, bo.RHS) {
				res.warn("function %q: binary op %v has operands of differing kinds (%T vs %T)", fn.Name, bo.Op, bo.LHS, bo.RHS)
			}
		}
	}
}

func valuesLookCompatible(a, b ir.Value) bool {
	// Temps and variables are opaque at this level (their producing op was
	// already type-checked in §4.4); only flag when both sides are
	// concrete literals of differing kinds.
	switch a.(type) {
	case ir.VTemp, ir.VVariable, ir.VNull:
		return true
	}
	switch b.(type) {
	case ir.VTemp, ir.VVariable, ir.VNull:
		return true
	}
	return fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
}

func checkCriticalEdges(fn *ir.Function, res *Result) {
	for _, id := range fn.BlockOrder {
		b := fn.Blocks[id]
		if b == nil || len(b.Successors) <= 1 {
			continue
		}
		for _, s := range b.Successors {
			sb := fn.Blocks[s]
			if sb != nil && len(sb.Predecessors) > 1 {
				res.warn("function %q: critical edge b%d -> b%d (pred>1, succ>1)", fn.Name, id, s)
			}
		}
	}
}
