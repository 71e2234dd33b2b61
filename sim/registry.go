package sim

import (
	"fmt"
	"sync"

	"github.com/qclabs/qcl/ir"
	"github.com/qclabs/qcl/sim/itsubaki"
)

// Runner executes a compiled function's QIR and returns its measurement
// trace. Both the from-scratch and itsubaki/q backends implement it,
// adapted from the teacher's OneShotRunner/registry split so callers can
// select a backend by name instead of importing one directly.
type Runner interface {
	Run(fn *ir.Function) ([]MeasurementEvent, error)
}

// RunnerFactory builds a new Runner instance, parameterized by Options
// where the backend supports them (the from-scratch backend honors Seed
// and MaxSteps; itsubaki/q ignores them and runs to completion).
type RunnerFactory func(opts Options) Runner

type scratchRunner struct{ opts Options }

func (r scratchRunner) Run(fn *ir.Function) ([]MeasurementEvent, error) {
	res, err := Run(fn, r.opts)
	return res.Measurements, err
}

type itsubakiRunner struct{}

func (itsubakiRunner) Run(fn *ir.Function) ([]MeasurementEvent, error) {
	events, err := itsubaki.Run(fn)
	if err != nil {
		return nil, err
	}
	out := make([]MeasurementEvent, len(events))
	for i, e := range events {
		out[i] = MeasurementEvent{Qubit: e.Qubit, Cbit: e.Cbit, Result: e.Result}
	}
	return out, nil
}

// Registry is a thread-safe name -> RunnerFactory table.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]RunnerFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]RunnerFactory)}
}

// Register adds a named factory. It errors if the name is taken or either
// argument is zero-valued.
func (r *Registry) Register(name string, factory RunnerFactory) error {
	if name == "" {
		return fmt.Errorf("sim: runner name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("sim: runner factory cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("sim: runner %q is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Create builds a new Runner from the factory registered under name.
func (r *Registry) Create(name string, opts Options) (Runner, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("sim: unknown runner %q", name)
	}
	return factory(opts), nil
}

// Names lists the registered runner names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

var defaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register("qsim", func(opts Options) Runner { return scratchRunner{opts} })
	reg.Register("itsubaki", func(opts Options) Runner { return itsubakiRunner{} })
	return reg
}

// DefaultRegistry returns the package's built-in registry, pre-populated
// with the "qsim" (from-scratch) and "itsubaki" backends.
func DefaultRegistry() *Registry { return defaultRegistry }

// CreateRunner builds a named runner from the default registry.
func CreateRunner(name string, opts Options) (Runner, error) {
	return defaultRegistry.Create(name, opts)
}
