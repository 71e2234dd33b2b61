package sema

import (
	"fmt"
	"strings"

	"github.com/qclabs/qcl/lang/ast"
	"github.com/qclabs/qcl/lang/diag"
	"github.com/qclabs/qcl/token"
)

// affState is a per-binding point in the affine quantum-resource state
// machine (§4.4.1). Uninitialized bindings are simply absent from the
// environment map, so only two live states are needed here.
type affState int

const (
	affAlive affState = iota
	affConsumed
)

type affBinding struct {
	state    affState
	initSpan token.Span
}

// pathOf computes a binding's synthetic tracking name: a bare variable
// name, or `base.field`/`tup.<index>` for struct-field and tuple-component
// qubits, per §4.4.1 and §9.
func pathOf(e ast.Expr) (string, bool) {
	switch v := e.(type) {
	case ast.Variable:
		return v.Name, true
	case ast.MemberAccess:
		base, ok := pathOf(v.Base)
		if !ok {
			return "", false
		}
		return base + "." + v.Field, true
	case ast.Index:
		base, ok := pathOf(v.Base)
		if !ok {
			return "", false
		}
		lit, ok := v.Index.(ast.LiteralInt)
		if !ok {
			return "", false // non-constant index: element can't be tracked individually
		}
		return fmt.Sprintf("%s.%d", base, lit.Value), true
	default:
		return "", false
	}
}

func assignPath(name string, memberPath []string) string {
	if len(memberPath) == 0 {
		return name
	}
	return name + "." + strings.Join(memberPath, ".")
}

// useQubitPath checks that path is currently Alive, without changing its
// state (reading/gate-applying a qubit doesn't consume it).
func (a *Analyzer) useQubitPath(path string, span token.Span) {
	b, ok := a.aff[path]
	if !ok {
		return // not a tracked quantum binding (e.g. a classical name)
	}
	if b.state == affConsumed {
		a.diagf(diag.AffineError, span, "use of already-consumed qubit binding %q", path)
	}
}

// consumeQubitPath transitions path to Consumed, erroring if it was already
// Consumed (double-consume). A path that is not tracked is ignored.
func (a *Analyzer) consumeQubitPath(path string, span token.Span) {
	b, ok := a.aff[path]
	if !ok {
		return
	}
	if b.state == affConsumed {
		a.diagf(diag.AffineError, span, "use of already-consumed qubit binding %q", path)
		return
	}
	b.state = affConsumed
}

// consumeReturnValue walks a return expression, consuming every quantum
// path it transfers out of the function.
func (a *Analyzer) consumeReturnValue(e ast.Expr) {
	switch v := e.(type) {
	case ast.Variable:
		a.consumeQubitPath(v.Name, v.Sp)
	case ast.MemberAccess, ast.Index:
		if p, ok := pathOf(e); ok {
			a.consumeQubitPath(p, e.Span())
		}
	case ast.TupleLit:
		for _, el := range v.Elems {
			a.consumeReturnValue(el)
		}
	case ast.StructLit:
		for _, f := range v.Fields {
			a.consumeReturnValue(f.Value)
		}
	case ast.GateApply:
		if len(v.Args) > 0 {
			if p, ok := pathOf(v.Args[0]); ok {
				a.consumeQubitPath(p, v.Sp)
			}
		}
	default:
		// Measure/Call/literals: any quantum consumption already happened
		// while type-checking the expression itself.
	}
}

// checkFunctionExitAffine errors on any binding still Alive when the
// function returns, regardless of return type.
func (a *Analyzer) checkFunctionExitAffine(fn ast.Function) {
	for path, b := range a.aff {
		if b.state == affAlive {
			a.diagf(diag.AffineError, fn.Span, "function %q ends with unconsumed qubit binding %q", fn.Name, path)
		}
	}
}
