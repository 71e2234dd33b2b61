package sim

import (
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/qclabs/qcl/ir"
)

// ShotsOptions configures a repeated-execution run.
type ShotsOptions struct {
	Shots   int // total executions; <=0 defaults to 1024
	Workers int // concurrent workers; <=0 defaults to runtime.NumCPU()
}

// RunShots executes fn Shots times across a static worker pool, aggregating
// each run's classical measurement outcomes into a bitstring histogram,
// adapted from the teacher's RunParallelStatic executor onto a Runner
// instead of a pre-built circuit.Circuit.
func RunShots(runner Runner, fn *ir.Function, opts ShotsOptions) (map[string]int, error) {
	shots := opts.Shots
	if shots <= 0 {
		shots = 1024
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > shots {
		workers = shots
	}

	per := shots / workers
	extra := shots % workers

	hist := make(map[string]int, shots)
	var mu sync.Mutex
	errCh := make(chan error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		cnt := per
		if w < extra {
			cnt++
		}
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for i := 0; i < n; i++ {
				events, err := runner.Run(fn)
				if err != nil {
					select {
					case errCh <- err:
					default:
					}
					return
				}
				key := bitstringOf(events)
				mu.Lock()
				hist[key]++
				mu.Unlock()
			}
		}(cnt)
	}
	wg.Wait()
	close(errCh)

	if err, ok := <-errCh; ok {
		return hist, fmt.Errorf("sim: shots run failed: %w", err)
	}
	return hist, nil
}

// bitstringOf renders a shot's measurement events as a classical-bit
// string ordered by cbit index, "0" for any cbit never measured.
func bitstringOf(events []MeasurementEvent) string {
	maxCbit := -1
	for _, e := range events {
		if int(e.Cbit) > maxCbit {
			maxCbit = int(e.Cbit)
		}
	}
	if maxCbit < 0 {
		return ""
	}
	bits := make([]byte, maxCbit+1)
	for i := range bits {
		bits[i] = '0'
	}
	for _, e := range events {
		if e.Result {
			bits[e.Cbit] = '1'
		}
	}
	return string(bits)
}

// FormatHistogram renders a shot histogram sorted by bitstring, matching
// the %s: %d (%.2f%%) line shape the teacher's cmd demo printed.
func FormatHistogram(hist map[string]int, shots int) string {
	keys := make([]string, 0, len(hist))
	for k := range hist {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		count := hist[k]
		pct := float64(count) / float64(shots) * 100
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString(">: ")
		b.WriteString(strconv.Itoa(count))
		b.WriteString(fmt.Sprintf(" (%.2f%%)\n", pct))
	}
	return b.String()
}
