package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunShotsAggregatesHistogram(t *testing.T) {
	assert := assert.New(t)
	mod := buildModule(t, `
fn main() -> int {
	let q0: qubit = |0>;
	X(q0);
	let c0 = measure(q0);
	return 0;
}
`)
	runner, err := CreateRunner("qsim", Options{Seed: 3})
	require.NoError(t, err)

	hist, err := RunShots(runner, mod.Functions[0], ShotsOptions{Shots: 10, Workers: 2})
	require.NoError(t, err)

	total := 0
	for _, c := range hist {
		total += c
	}
	assert.Equal(10, total)
	assert.Equal(10, hist["1"])
}

func TestFormatHistogramSortsAndPercentages(t *testing.T) {
	assert := assert.New(t)
	out := FormatHistogram(map[string]int{"1": 3, "0": 7}, 10)
	lines := []string{"|0>: 7 (70.00%)\n", "|1>: 3 (30.00%)\n"}
	assert.Equal(lines[0]+lines[1], out)
}

func TestBitstringOfNoMeasurementsIsEmpty(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("", bitstringOf(nil))
}
