package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryHasBuiltinBackends(t *testing.T) {
	assert := assert.New(t)
	names := DefaultRegistry().Names()
	assert.Contains(names, "qsim")
	assert.Contains(names, "itsubaki")
}

func TestCreateRunnerUnknownNameErrors(t *testing.T) {
	_, err := CreateRunner("nonexistent", Options{})
	require.Error(t, err)
}

func TestRegistryRejectsDuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("a", func(opts Options) Runner { return scratchRunner{opts} }))
	err := reg.Register("a", func(opts Options) Runner { return scratchRunner{opts} })
	require.Error(t, err)
}

func TestRegistryCreateBuildsScratchRunner(t *testing.T) {
	assert := assert.New(t)
	runner, err := CreateRunner("qsim", Options{Seed: 7})
	require.NoError(t, err)
	mod := buildModule(t, `
fn main() -> int {
	let q0: qubit = |0>;
	X(q0);
	let c0 = measure(q0);
	return 0;
}
`)
	events, err := runner.Run(mod.Functions[0])
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(events[0].Result)
}
