// Package qcl is the library entry point for the compiler: lex, parse,
// analyze, build, optimize, verify, and emit OpenQASM 2.0 in one linear
// pass over whole-program source text.
package qcl

import (
	"fmt"

	"github.com/qclabs/qcl/codegen/qasm"
	"github.com/qclabs/qcl/internal/logger"
	"github.com/qclabs/qcl/ir/build"
	"github.com/qclabs/qcl/ir/optimize"
	"github.com/qclabs/qcl/ir/verify"
	"github.com/qclabs/qcl/lang/diag"
	"github.com/qclabs/qcl/lang/parser"
	"github.com/qclabs/qcl/lang/sema"
)

// version is the compiler's own semantic version, independent of the
// language it compiles.
const version = "0.1.0"

// Stats reports aggregate circuit statistics for a successful compilation.
type Stats struct {
	Qubits       int
	Cbits        int
	Gates        int
	Measurements int
}

// CompileResult is the success value of CompileWithStats.
type CompileResult struct {
	Qasm  string
	Stats Stats
}

var log = logger.NewLogger(logger.LoggerOptions{})

// Compile lowers source to OpenQASM 2.0 text, with optimization enabled.
// On any diagnostic error it returns the accumulated diag.List as the
// error value (it implements error).
func Compile(source string) (string, error) {
	res, err := CompileWithStats(source, true)
	if err != nil {
		return "", err
	}
	return res.Qasm, nil
}

// CompileWithStats runs the full pipeline, toggling the optimizer, and
// returns the generated QASM alongside aggregate statistics.
func CompileWithStats(source string, optimizeEnabled bool) (CompileResult, error) {
	prog, parseDiags := parser.Parse(source)
	if parseDiags.HasErrors() {
		log.Debug().Int("errors", len(parseDiags.Errors())).Msg("qcl: parse failed")
		return CompileResult{}, parseDiags
	}

	semaRes := sema.Analyze(prog)
	if semaRes.Diags.HasErrors() {
		log.Debug().Int("errors", len(semaRes.Diags.Errors())).Msg("qcl: semantic analysis failed")
		return CompileResult{}, semaRes.Diags
	}

	mod, buildDiags := build.Build(prog, semaRes)
	if buildDiags.HasErrors() {
		log.Debug().Int("errors", len(buildDiags.Errors())).Msg("qcl: IR build failed")
		return CompileResult{}, buildDiags
	}

	if optimizeEnabled {
		mod = optimize.Run(mod)
	}

	verifyRes := verify.Module(mod)
	if !verifyRes.OK() {
		var diags diag.List
		for _, e := range verifyRes.Errors {
			diags = append(diags, diag.Diagnostic{Kind: diag.IRVerifyError, Severity: diag.SeverityError, Message: e})
		}
		log.Debug().Int("errors", len(verifyRes.Errors)).Msg("qcl: IR verification failed")
		return CompileResult{}, diags
	}
	for _, w := range verifyRes.Warnings {
		log.Warn().Msg("qcl: " + w)
	}

	text, qstats, err := qasm.Generate(mod)
	if err != nil {
		return CompileResult{}, fmt.Errorf("qcl: qasm generation: %w", err)
	}

	return CompileResult{
		Qasm: text,
		Stats: Stats{
			Qubits:       qstats.Qubits,
			Cbits:        qstats.Cbits,
			Gates:        qstats.Gates,
			Measurements: qstats.Measurements,
		},
	}, nil
}

// Capabilities lists the feature strings this build of the compiler
// supports, reflecting the resolved Open Questions recorded in DESIGN.md.
func Capabilities() []string {
	return []string{
		"qasm2",
		"statevector-sim",
		"statevector-sim-itsubaki",
		"affine-qubit-checking",
		"gate-cancellation",
		"dead-qubit-elimination",
		"constant-bounded-loop-unrolling",
		"if-while-inlined-no-cfg",
		"constant-folded-rotation-angles",
		"single-entry-function-qasm",
	}
}

// Version returns the compiler's own semantic version string.
func Version() string { return version }
