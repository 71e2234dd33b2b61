// Package optimize implements the QIR optimizer passes: constant folding
// and CSE are carried as documented placeholders (see DESIGN.md), while
// dead-qubit elimination and gate cancellation are real, fixpoint-driven
// passes. Passes run in the fixed order required by the design: constant
// folding, dead-qubit elimination, gate cancellation, CSE, empty-block
// cleanup.
package optimize

import (
	"github.com/qclabs/qcl/lang/ast"
	"github.com/qclabs/qcl/ir"
)

// Run applies all enabled passes, in order, to every function of mod and
// returns the (mutated in place) module.
func Run(mod *ir.Module) *ir.Module {
	for _, fn := range mod.Functions {
		constantFold(fn)
		deadQubitElimination(fn)
		gateCancellation(fn)
		cse(fn)
		emptyBlockCleanup(fn)
	}
	return mod
}

// constantFold is a placeholder: by the time QIR is built, rotation angles
// and loop bounds are already constant-folded at the AST→QIR boundary (see
// ir/build), so there is no remaining classical arithmetic this pass could
// usefully simplify without a much richer value-numbering scheme. Kept as
// a named, ordered no-op so a future revision can add real folding without
// reshaping the pipeline.
func constantFold(fn *ir.Function) {}

// cse is a placeholder for the same reason noted in constantFold: the
// builder does not currently produce redundant pure computations worth
// deduplicating (every temp is already produced by at most one op, per the
// SSA invariant), so there is nothing for a real CSE pass to remove yet.
func cse(fn *ir.Function) {}

// deadQubitElimination computes the set of qubits that participate in a
// Measure or escape via Return (transitively through Tuple/Array values),
// propagates liveness through gates (a gate touching any live qubit makes
// all of its operands live, modeling entanglement), and then drops any
// ApplyGate or Reset whose operands are qubits and are entirely dead.
// AllocQubit ops are never removed, since downstream register numbering
// depends on them.
func deadQubitElimination(fn *ir.Function) {
	live := map[ir.QubitId]bool{}

	for _, b := range fn.Blocks {
		for _, op := range b.Ops {
			switch o := op.(type) {
			case ir.Measure:
				live[o.Qubit] = true
			case ir.Return:
				if o.Value != nil {
					for _, q := range ir.QubitsIn(o.Value) {
						live[q] = true
					}
				}
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for _, b := range fn.Blocks {
			for _, op := range b.Ops {
				ag, ok := op.(ir.ApplyGate)
				if !ok {
					continue
				}
				var qubits []ir.QubitId
				anyLive := false
				for _, a := range ag.Args {
					for _, q := range ir.QubitsIn(a) {
						qubits = append(qubits, q)
						if live[q] {
							anyLive = true
						}
					}
				}
				if anyLive {
					for _, q := range qubits {
						if !live[q] {
							live[q] = true
							changed = true
						}
					}
				}
			}
		}
	}

	for _, id := range fn.BlockOrder {
		b := fn.Blocks[id]
		var kept []ir.Op
		for _, op := range b.Ops {
			switch o := op.(type) {
			case ir.ApplyGate:
				var qubits []ir.QubitId
				for _, a := range o.Args {
					qubits = append(qubits, ir.QubitsIn(a)...)
				}
				if len(qubits) > 0 && !anyLive(qubits, live) {
					continue // dead: drop
				}
			case ir.Reset:
				if !live[o.Qubit] {
					continue
				}
			}
			kept = append(kept, op)
		}
		b.Ops = kept
	}
}

func anyLive(qubits []ir.QubitId, live map[ir.QubitId]bool) bool {
	for _, q := range qubits {
		if live[q] {
			return true
		}
	}
	return false
}

// gateCancellation deletes adjacent ApplyGate pairs in the same block that
// are mutual inverses with identical argument lists, stepping back one
// index after each deletion so newly-adjacent pairs are also caught.
func gateCancellation(fn *ir.Function) {
	for _, id := range fn.BlockOrder {
		b := fn.Blocks[id]
		ops := b.Ops
		for i := 0; i+1 < len(ops); {
			g1, ok1 := ops[i].(ir.ApplyGate)
			g2, ok2 := ops[i+1].(ir.ApplyGate)
			if ok1 && ok2 && gatesCancel(g1.Gate, g2.Gate) && sameArgs(g1.Args, g2.Args) {
				ops = append(ops[:i], ops[i+2:]...)
				if i > 0 {
					i--
				}
				continue
			}
			i++
		}
		b.Ops = ops
	}
}

func gatesCancel(a, b ir.Gate) bool {
	if isSelfInverse(a.Kind) && a.Kind == b.Kind {
		return true
	}
	return isInversePair(a.Kind, b.Kind) || isInversePair(b.Kind, a.Kind)
}

func isSelfInverse(k ast.GateKind) bool {
	switch k {
	case ast.GateH, ast.GateX, ast.GateY, ast.GateZ, ast.GateCNOT, ast.GateSWAP:
		return true
	}
	return false
}

// isInversePair reports true when a,b is an S/S-dagger or T/T-dagger
// ordered pair. The closed Gate set in this revision has no explicit Sdg/
// Tdg variant (see DESIGN.md), so this never currently matches; it is kept
// so a future gate-set extension slots in without restructuring the pass.
func isInversePair(a, b ast.GateKind) bool {
	return false && a == b
}

func sameArgs(a, b []ir.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].String() != b[i].String() {
			return false
		}
	}
	return true
}

// emptyBlockCleanup elides blocks with no ops that are not the entry
// block and have exactly one successor, rewiring predecessors directly to
// that successor.
func emptyBlockCleanup(fn *ir.Function) {
	for _, id := range fn.BlockOrder {
		if id == fn.EntryBlock {
			continue
		}
		b := fn.Blocks[id]
		if b == nil || len(b.Ops) != 0 || len(b.Successors) != 1 {
			continue
		}
		succ := b.Successors[0]
		sb := fn.Blocks[succ]
		if sb == nil {
			continue
		}
		for _, pred := range b.Predecessors {
			pb := fn.Blocks[pred]
			if pb == nil {
				continue
			}
			for i, s := range pb.Successors {
				if s == id {
					pb.Successors[i] = succ
				}
			}
			sb.Predecessors = append(sb.Predecessors, pred)
		}
		var newPreds []ir.BlockId
		for _, p := range sb.Predecessors {
			if p != id {
				newPreds = append(newPreds, p)
			}
		}
		sb.Predecessors = newPreds
		delete(fn.Blocks, id)
	}
}
