// Package itsubaki provides an alternate statevector backend built on
// github.com/itsubaki/q, exercised for cross-validation against the
// from-scratch sim package and to cover gates (Y, Z, S, SWAP, RX/RY/RZ) that
// sim.Run does not implement in this revision. T is not supported here
// either and is reported as an unsupported gate.
package itsubaki

import (
	"fmt"

	qsim "github.com/itsubaki/q"

	"github.com/qclabs/qcl/ir"
	"github.com/qclabs/qcl/lang/ast"
)

// MeasurementEvent mirrors sim.MeasurementEvent so callers can compare
// outcomes across backends without importing both packages' result types.
type MeasurementEvent struct {
	Qubit  ir.QubitId
	Cbit   ir.CbitId
	Result bool
}

// Run executes fn's QIR on an itsubaki/q simulator instance, following the
// same single-block, then-branch-taking CFG traversal rules as sim.Run.
func Run(fn *ir.Function) ([]MeasurementEvent, error) {
	backend := qsim.New()
	qubits := map[ir.QubitId]*qsim.Qubit{}

	var events []MeasurementEvent
	blockID := fn.EntryBlock
	for {
		b := fn.Blocks[blockID]
		if b == nil {
			return events, fmt.Errorf("itsubaki: jumped to undefined block b%d", blockID)
		}
		next, done, err := runBlock(backend, qubits, b, &events)
		if err != nil {
			return events, err
		}
		if done {
			return events, nil
		}
		blockID = next
	}
}

func runBlock(backend *qsim.Q, qubits map[ir.QubitId]*qsim.Qubit, b *ir.Block, events *[]MeasurementEvent) (ir.BlockId, bool, error) {
	for _, op := range b.Ops {
		switch o := op.(type) {
		case ir.AllocQubit:
			qb := backend.Zero()
			if o.InitState == ir.One {
				backend.X(qb)
			}
			qubits[o.Result] = qb
		case ir.ApplyGate:
			if err := applyGate(backend, qubits, o); err != nil {
				return 0, false, err
			}
		case ir.Measure:
			qb, ok := qubits[o.Qubit]
			if !ok {
				return 0, false, fmt.Errorf("itsubaki: measure of unallocated qubit q%d", o.Qubit)
			}
			m := backend.Measure(qb)
			*events = append(*events, MeasurementEvent{Qubit: o.Qubit, Cbit: o.Cbit, Result: m.IsOne()})
		case ir.Jump:
			return o.Target, false, nil
		case ir.Branch:
			return o.ThenBlock, false, nil
		case ir.Return:
			return 0, true, nil
		}
	}
	return 0, true, nil
}

func applyGate(backend *qsim.Q, qubits map[ir.QubitId]*qsim.Qubit, o ir.ApplyGate) error {
	qs, err := resolveQubits(qubits, o.Args)
	if err != nil {
		return err
	}
	switch o.Gate.Kind {
	case ast.GateH:
		backend.H(qs[0])
	case ast.GateX:
		backend.X(qs[0])
	case ast.GateY:
		backend.Y(qs[0])
	case ast.GateZ:
		backend.Z(qs[0])
	case ast.GateS:
		backend.S(qs[0])
	case ast.GateCNOT:
		backend.CNOT(qs[0], qs[1])
	case ast.GateSWAP:
		backend.Swap(qs[0], qs[1])
	case ast.GateRX:
		backend.RX(o.Gate.Angle, qs[0])
	case ast.GateRY:
		backend.RY(o.Gate.Angle, qs[0])
	case ast.GateRZ:
		backend.RZ(o.Gate.Angle, qs[0])
	default:
		return fmt.Errorf("itsubaki: unsupported gate %s", o.Gate)
	}
	return nil
}

func resolveQubits(qubits map[ir.QubitId]*qsim.Qubit, args []ir.Value) ([]*qsim.Qubit, error) {
	out := make([]*qsim.Qubit, 0, len(args))
	for _, a := range args {
		qv, ok := a.(ir.VQubit)
		if !ok {
			return nil, fmt.Errorf("itsubaki: gate argument did not resolve to a qubit")
		}
		qb, ok := qubits[qv.ID]
		if !ok {
			return nil, fmt.Errorf("itsubaki: use of unallocated qubit q%d", qv.ID)
		}
		out = append(out, qb)
	}
	return out, nil
}
