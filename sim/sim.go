// Package sim implements the default statevector simulator: a dense
// complex128 amplitude array executed directly against QIR, grounded on
// the from-scratch gate math of the teacher project's qsim package but
// restricted to the gate set this revision actually implements (H, X,
// CNOT — every other gate surfaces ErrNotImplemented, per §4.9).
package sim

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/qclabs/qcl/lang/ast"
	"github.com/qclabs/qcl/ir"
)

// ErrNotImplemented is returned when the QIR asks the simulator to apply a
// gate outside {H, X, CNOT}.
var ErrNotImplemented = errors.New("sim: gate not implemented in this simulator revision")

// ErrStepLimitExceeded guards against runaway CFG traversal.
var ErrStepLimitExceeded = errors.New("sim: step limit exceeded")

// DefaultMaxSteps bounds execution when the caller does not specify one.
const DefaultMaxSteps = 1_000_000

// MeasurementEvent is one recorded measurement outcome.
type MeasurementEvent struct {
	Qubit  ir.QubitId
	Cbit   ir.CbitId
	Result bool // true = |1>
}

// Options configures a single Run.
type Options struct {
	Seed     int64
	MaxSteps int
}

// Result is everything a simulation run produces.
type Result struct {
	Measurements []MeasurementEvent
	Amplitudes   []complex128
}

// Log renders the measurement trace in the textual form described by the
// external interface: one line per Measure, bracketed by header/trailer.
func (r Result) Log() string {
	out := "--- simulation log ---\n"
	for _, m := range r.Measurements {
		bit := 0
		if m.Result {
			bit = 1
		}
		out += fmt.Sprintf("  MEASURE q[%d] -> %d\n", m.Qubit, bit)
	}
	out += "--- end log ---\n"
	return out
}

// state is the dense statevector; it grows by doubling whenever a new
// qubit is allocated (appending zero amplitudes on the high bit).
type state struct {
	amplitudes []complex128
	numQubits  int
}

func newState() *state {
	return &state{amplitudes: []complex128{1}, numQubits: 0}
}

func (s *state) allocQubit(init ir.BitState) ir.QubitId {
	id := ir.QubitId(s.numQubits)
	old := s.amplitudes
	grown := make([]complex128, len(old)*2)
	// The new qubit is the new high bit; its |0> component gets the old
	// amplitudes unchanged, its |1> component starts at zero, then is
	// swapped in if the literal initializes to One.
	copy(grown[:len(old)], old)
	if init == ir.One {
		copy(grown[len(old):], old)
		for i := range grown[:len(old)] {
			grown[i] = 0
		}
	}
	s.amplitudes = grown
	s.numQubits++
	return id
}

func (s *state) applyH(q ir.QubitId) {
	mask := 1 << uint(q)
	inv := complex(1/math.Sqrt2, 0)
	for i := range s.amplitudes {
		if i&mask == 0 {
			j := i | mask
			a0, a1 := s.amplitudes[i], s.amplitudes[j]
			s.amplitudes[i] = inv * (a0 + a1)
			s.amplitudes[j] = inv * (a0 - a1)
		}
	}
}

func (s *state) applyX(q ir.QubitId) {
	mask := 1 << uint(q)
	for i := range s.amplitudes {
		if i&mask == 0 {
			j := i | mask
			s.amplitudes[i], s.amplitudes[j] = s.amplitudes[j], s.amplitudes[i]
		}
	}
}

func (s *state) applyCNOT(control, target ir.QubitId) {
	cmask := 1 << uint(control)
	tmask := 1 << uint(target)
	for i := range s.amplitudes {
		if i&cmask != 0 && i&tmask == 0 {
			j := i | tmask
			s.amplitudes[i], s.amplitudes[j] = s.amplitudes[j], s.amplitudes[i]
		}
	}
}

func (s *state) measure(q ir.QubitId, rng *rand.Rand) bool {
	mask := 1 << uint(q)
	var probOne float64
	for i, a := range s.amplitudes {
		if i&mask != 0 {
			probOne += real(a * cmplx.Conj(a))
		}
	}
	result := rng.Float64() < probOne

	var norm float64
	for i, a := range s.amplitudes {
		keep := (i&mask != 0) == result
		if keep {
			norm += real(a * cmplx.Conj(a))
		} else {
			s.amplitudes[i] = 0
		}
	}
	if norm > 1e-12 {
		inv := complex(1/math.Sqrt(norm), 0)
		for i := range s.amplitudes {
			if (i&mask != 0) == result {
				s.amplitudes[i] *= inv
			}
		}
	}
	return result
}

// Run executes fn's QIR starting at its entry block.
func Run(fn *ir.Function, opts Options) (Result, error) {
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	s := newState()
	qubitOf := map[ir.QubitId]ir.QubitId{} // QIR-level id -> simulator-level id
	var result Result

	blockID := fn.EntryBlock
	steps := 0
	for {
		b := fn.Blocks[blockID]
		if b == nil {
			return result, fmt.Errorf("sim: jumped to undefined block b%d", blockID)
		}
		for _, op := range b.Ops {
			steps++
			if steps > maxSteps {
				return result, ErrStepLimitExceeded
			}
			switch o := op.(type) {
			case ir.AllocQubit:
				qubitOf[o.Result] = s.allocQubit(o.InitState)
			case ir.ApplyGate:
				if err := applyGate(s, qubitOf, o); err != nil {
					return result, err
				}
			case ir.Measure:
				sq, ok := qubitOf[o.Qubit]
				if !ok {
					return result, fmt.Errorf("sim: measure of unallocated qubit q%d", o.Qubit)
				}
				outcome := s.measure(sq, rng)
				result.Measurements = append(result.Measurements, MeasurementEvent{Qubit: o.Qubit, Cbit: o.Cbit, Result: outcome})
			case ir.Jump:
				blockID = o.Target
				goto nextBlock
			case ir.Branch:
				// Documented limitation (§4.9): the classical condition is
				// not evaluated; the then-successor is always taken.
				blockID = o.ThenBlock
				goto nextBlock
			case ir.Return:
				result.Amplitudes = s.amplitudes
				return result, nil
			}
		}
		result.Amplitudes = s.amplitudes
		return result, nil
	nextBlock:
		continue
	}
}

func applyGate(s *state, qubitOf map[ir.QubitId]ir.QubitId, o ir.ApplyGate) error {
	qs, err := simQubits(qubitOf, o.Args)
	if err != nil {
		return err
	}
	switch o.Gate.Kind {
	case ast.GateH:
		s.applyH(qs[0])
		return nil
	case ast.GateX:
		s.applyX(qs[0])
		return nil
	case ast.GateCNOT:
		s.applyCNOT(qs[0], qs[1])
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrNotImplemented, o.Gate)
	}
}

func simQubits(qubitOf map[ir.QubitId]ir.QubitId, args []ir.Value) ([]ir.QubitId, error) {
	out := make([]ir.QubitId, 0, len(args))
	for _, a := range args {
		qv, ok := a.(ir.VQubit)
		if !ok {
			return nil, fmt.Errorf("sim: gate argument did not resolve to a qubit")
		}
		sq, ok := qubitOf[qv.ID]
		if !ok {
			return nil, fmt.Errorf("sim: use of unallocated qubit q%d", qv.ID)
		}
		out = append(out, sq)
	}
	return out, nil
}
