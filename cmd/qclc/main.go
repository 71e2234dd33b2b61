// Command qclc compiles a QCL source file to OpenQASM 2.0, and optionally
// simulates the result with the from-scratch statevector backend.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/qclabs/qcl/ir"
	"github.com/qclabs/qcl/ir/build"
	"github.com/qclabs/qcl/lang/parser"
	"github.com/qclabs/qcl/lang/sema"
	"github.com/qclabs/qcl"
	"github.com/qclabs/qcl/sim"
)

func main() {
	optimize := flag.Bool("optimize", true, "run IR optimization passes")
	simulate := flag.Bool("sim", false, "run the statevector simulator and print the measurement log")
	seed := flag.Int64("seed", 0, "simulator PRNG seed")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: qclc [-optimize] [-sim] [-seed N] <file.qcl>")
		os.Exit(2)
	}

	src, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "qclc: %v\n", err)
		os.Exit(1)
	}

	result, err := qcl.CompileWithStats(string(src), *optimize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qclc: compile failed:\n%v\n", err)
		os.Exit(1)
	}

	fmt.Print(result.Qasm)
	fmt.Fprintf(os.Stderr, "# qubits=%d cbits=%d gates=%d measurements=%d\n",
		result.Stats.Qubits, result.Stats.Cbits, result.Stats.Gates, result.Stats.Measurements)

	if !*simulate {
		return
	}

	prog, diags := parser.Parse(string(src))
	if diags.HasErrors() {
		fmt.Fprintf(os.Stderr, "qclc: %v\n", diags)
		os.Exit(1)
	}
	semaRes := sema.Analyze(prog)
	mod, buildDiags := build.Build(prog, semaRes)
	if buildDiags.HasErrors() {
		fmt.Fprintf(os.Stderr, "qclc: %v\n", buildDiags)
		os.Exit(1)
	}
	var fn *ir.Function
	for _, f := range mod.Functions {
		if f.Name == "main" {
			fn = f
			break
		}
	}
	if fn == nil {
		fmt.Fprintln(os.Stderr, "qclc: -sim requires a main function")
		os.Exit(1)
	}
	simRes, err := sim.Run(fn, sim.Options{Seed: *seed})
	if err != nil {
		fmt.Fprintf(os.Stderr, "qclc: simulation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, simRes.Log())
}
