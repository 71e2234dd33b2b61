// Package sema implements QCL's two-pass semantic analyzer: collecting
// top-level definitions, then type- and affine-checking function bodies.
package sema

import (
	"fmt"

	"github.com/qclabs/qcl/lang/ast"
	"github.com/qclabs/qcl/lang/diag"
	"github.com/qclabs/qcl/lang/symbols"
	"github.com/qclabs/qcl/lang/types"
	"github.com/qclabs/qcl/token"
)

// errType is a sentinel type returned when analysis cannot determine a
// real type, letting later checks proceed without cascading diagnostics.
var errType = ast.NamedType{Name: "<error>"}

func isErrType(t ast.Type) bool {
	nt, ok := t.(ast.NamedType)
	return ok && nt.Name == "<error>"
}

// FuncSig is a resolved function signature.
type FuncSig struct {
	Params    []ast.Type
	Return    ast.Type
	IsQuantum bool
}

// Result bundles everything downstream stages need: the populated type
// registry, resolved function signatures, and diagnostics.
type Result struct {
	Registry *types.Registry
	FuncSigs map[string]FuncSig
	Diags    diag.List
}

// Analyzer runs the two-pass analysis described in the language design's
// §4.4, including the affine quantum-resource checker (§4.4.1).
type Analyzer struct {
	reg      *types.Registry
	syms     *symbols.Table
	diags    diag.List
	funcSigs map[string]FuncSig

	loopDepth        int
	inQuantumContext bool
	currentFunc      string
	aff              map[string]*affBinding
}

// Analyze runs both passes over prog and returns the result. Pass 2 only
// runs if pass 1 produced no errors, matching the propagation policy of
// §7: "pass 1 aborts compilation before pass 2 if any definition-level
// error occurred."
func Analyze(prog *ast.Program) Result {
	a := &Analyzer{
		reg:      types.New(),
		syms:     symbols.New(),
		funcSigs: map[string]FuncSig{},
	}
	a.pass1(prog)
	if !a.diags.HasErrors() {
		a.pass2(prog)
	}
	return Result{Registry: a.reg, FuncSigs: a.funcSigs, Diags: a.diags}
}

func (a *Analyzer) diagAt(kind diag.Kind, span token.Span, msg string) {
	a.diags = append(a.diags, diag.Diagnostic{Kind: kind, Severity: diag.SeverityError, Message: msg, Span: span})
}

func (a *Analyzer) diagf(kind diag.Kind, span token.Span, format string, args ...interface{}) {
	a.diagAt(kind, span, fmt.Sprintf(format, args...))
}

// --- pass 1: collect ---

func (a *Analyzer) pass1(prog *ast.Program) {
	for _, ta := range prog.TypeAliases {
		if err := a.reg.DefineAlias(ta.Name, ta.Target); err != nil {
			a.diagAt(diag.TypeError, ta.Span, err.Error())
		}
	}
	for _, sd := range prog.StructDefs {
		if err := a.reg.DefineStruct(sd); err != nil {
			a.diagAt(diag.TypeError, sd.Span, err.Error())
			continue
		}
		for _, f := range sd.Fields {
			if _, err := a.reg.Resolve(f.Type); err != nil {
				a.diagAt(diag.TypeError, f.Span, err.Error())
			}
		}
	}
	for _, fn := range prog.Functions {
		if _, exists := a.funcSigs[fn.Name]; exists {
			a.diagf(diag.TypeError, fn.Span, "function %q already defined", fn.Name)
			continue
		}
		params := make([]ast.Type, len(fn.Params))
		isQuantum := false
		for i, p := range fn.Params {
			rt, err := a.reg.Resolve(p.Type)
			if err != nil {
				a.diagAt(diag.TypeError, p.Span, err.Error())
				rt = errType
			}
			params[i] = rt
			if a.reg.IsQuantum(rt) {
				isQuantum = true
			}
		}
		ret, err := a.reg.Resolve(fn.ReturnType)
		if err != nil {
			a.diagAt(diag.TypeError, fn.Span, err.Error())
			ret = errType
		}
		if a.reg.IsQuantum(ret) {
			isQuantum = true
		}
		a.funcSigs[fn.Name] = FuncSig{Params: params, Return: ret, IsQuantum: isQuantum}
	}
}

// --- pass 2: analyze function bodies ---

func (a *Analyzer) pass2(prog *ast.Program) {
	for _, fn := range prog.Functions {
		a.analyzeFunction(fn)
	}
}

func (a *Analyzer) analyzeFunction(fn ast.Function) {
	a.currentFunc = fn.Name
	a.loopDepth = 0
	a.inQuantumContext = false
	a.aff = map[string]*affBinding{}
	a.syms.PushScope()
	defer a.syms.PopScope()

	sig := a.funcSigs[fn.Name]
	for i, p := range fn.Params {
		if p.Mutable && a.reg.IsQuantum(sig.Params[i]) {
			a.diagf(diag.TypeError, p.Span, "parameter %q: quantum bindings cannot be declared mutable", p.Name)
		}
		_ = a.syms.Insert(p.Name, symbols.Symbol{Kind: symbols.KindVariable, Type: sig.Params[i], Mutable: p.Mutable, Defined: true})
		if a.reg.IsQuantum(sig.Params[i]) {
			a.aff[p.Name] = &affBinding{state: affAlive, initSpan: p.Span}
		}
	}
	for _, s := range fn.Body {
		a.analyzeStmt(s)
	}
	a.checkFunctionExitAffine(fn)
}

func (a *Analyzer) analyzeStmt(s ast.Stmt) {
	switch st := s.(type) {
	case ast.LetStmt:
		a.analyzeLet(st)
	case ast.AssignStmt:
		a.analyzeAssign(st)
	case ast.BlockStmt:
		a.syms.PushScope()
		defer a.syms.PopScope()
		for _, inner := range st.Stmts {
			a.analyzeStmt(inner)
		}
	case ast.IfStmt:
		a.analyzeExpr(st.Cond)
		a.analyzeStmt(st.Then)
		if st.Else != nil {
			a.analyzeStmt(st.Else)
		}
	case ast.WhileStmt:
		a.analyzeExpr(st.Cond)
		a.loopDepth++
		a.analyzeStmt(st.Body)
		a.loopDepth--
	case ast.ForRangeStmt:
		a.analyzeExpr(st.From)
		a.analyzeExpr(st.To)
		if st.Step != nil {
			a.analyzeExpr(st.Step)
		}
		a.syms.PushScope()
		_ = a.syms.Insert(st.Var, symbols.Symbol{Kind: symbols.KindVariable, Type: ast.IntType{}, Defined: true})
		a.loopDepth++
		a.analyzeStmt(st.Body)
		a.loopDepth--
		a.syms.PopScope()
	case ast.QIfStmt:
		prev := a.inQuantumContext
		a.inQuantumContext = true
		a.analyzeExpr(st.Cond)
		a.analyzeStmt(st.Then)
		if st.Else != nil {
			a.analyzeStmt(st.Else)
		}
		a.inQuantumContext = prev
	case ast.QForRangeStmt:
		prev := a.inQuantumContext
		a.inQuantumContext = true
		a.analyzeExpr(st.From)
		a.analyzeExpr(st.To)
		if st.Step != nil {
			a.analyzeExpr(st.Step)
		}
		a.syms.PushScope()
		_ = a.syms.Insert(st.Var, symbols.Symbol{Kind: symbols.KindVariable, Type: ast.IntType{}, Defined: true})
		a.loopDepth++
		a.analyzeStmt(st.Body)
		a.loopDepth--
		a.syms.PopScope()
		a.inQuantumContext = prev
	case ast.ReturnStmt:
		if st.Value != nil {
			a.analyzeExpr(st.Value)
			a.consumeReturnValue(st.Value)
		}
	case ast.BreakStmt:
		if a.loopDepth == 0 {
			a.diagAt(diag.TypeError, st.Sp, "break outside of a loop")
		}
	case ast.ContinueStmt:
		if a.loopDepth == 0 {
			a.diagAt(diag.TypeError, st.Sp, "continue outside of a loop")
		}
	case ast.TypeAliasStmt:
		if err := a.reg.DefineAlias(st.Alias.Name, st.Alias.Target); err != nil {
			a.diagAt(diag.TypeError, st.Sp, err.Error())
		}
	case ast.StructDefStmt:
		if err := a.reg.DefineStruct(st.Def); err != nil {
			a.diagAt(diag.TypeError, st.Sp, err.Error())
		}
	case ast.ExprStmt:
		a.analyzeExpr(st.X)
	default:
		// unreachable for the closed Stmt set
	}
}

func (a *Analyzer) analyzeLet(st ast.LetStmt) {
	declared := st.Type
	var resolved ast.Type
	if declared != nil {
		rt, err := a.reg.Resolve(declared)
		if err != nil {
			a.diagAt(diag.TypeError, st.Sp, err.Error())
			rt = errType
		}
		resolved = rt
	}
	if st.Value != nil {
		qregLit := false
		if qreg, ok := resolved.(ast.QregType); ok {
			if lit, ok := st.Value.(ast.LiteralQubit); ok {
				qregLit = true
				if len(lit.Bits.Bits) != qreg.Size {
					a.diagf(diag.TypeError, st.Sp, "qreg literal has %d bits, declared size is %d", len(lit.Bits.Bits), qreg.Size)
				}
			}
		}
		actual := a.analyzeExpr(st.Value)
		if resolved == nil {
			resolved = actual
		} else if !qregLit && !isErrType(resolved) && !isErrType(actual) && !types.AreCompatible(resolved, actual) {
			a.diagf(diag.TypeError, st.Sp, "cannot assign %s to %s binding %q", actual, resolved, st.Name)
		}
	}
	if resolved == nil {
		resolved = errType
	}
	if st.Mutable && a.reg.IsQuantum(resolved) {
		a.diagf(diag.TypeError, st.Sp, "quantum binding %q cannot be declared mutable", st.Name)
	}
	if err := a.syms.Insert(st.Name, symbols.Symbol{Kind: symbols.KindVariable, Type: resolved, Mutable: st.Mutable, Defined: true}); err != nil {
		a.diagAt(diag.TypeError, st.Sp, err.Error())
	}
	if a.reg.IsQuantum(resolved) && st.Value != nil {
		// A plain move (`let new = old;`) consumes the source binding;
		// every other initializer form (qubit/qreg literal, gate-apply,
		// measure result is never quantum) starts a fresh Alive binding.
		if src, ok := st.Value.(ast.Variable); ok {
			a.consumeQubitPath(src.Name, st.Sp)
		}
		if qreg, ok := resolved.(ast.QregType); ok {
			// A qreg decomposes into qreg.Size independently allocated
			// qubits (§4.4.2's Index rule resolves Qreg[i] to Qubit), so
			// each element is tracked as its own affine binding rather
			// than the qreg name as one combined resource.
			for i := 0; i < qreg.Size; i++ {
				a.aff[fmt.Sprintf("%s.%d", st.Name, i)] = &affBinding{state: affAlive, initSpan: st.Sp}
			}
		} else {
			a.aff[st.Name] = &affBinding{state: affAlive, initSpan: st.Sp}
		}
	}
}

func (a *Analyzer) analyzeAssign(st ast.AssignStmt) {
	sym, ok := a.syms.Lookup(st.Name)
	if !ok {
		a.diagf(diag.TypeError, st.Sp, "assignment to undefined name %q", st.Name)
		a.analyzeExpr(st.Value)
		return
	}
	path := assignPath(st.Name, st.MemberPath)
	isQuantum := a.reg.IsQuantum(sym.Type)

	// The only legal reassignment of a quantum binding is a gate-apply
	// that rebinds it to itself (`q = H(q);`), per §4.4.1's "gate-apply
	// (as producing rebinding)" transition.
	selfGateRebind := false
	if ga, ok := st.Value.(ast.GateApply); ok && len(ga.Args) > 0 {
		if p, ok2 := pathOf(ga.Args[0]); ok2 && p == path {
			selfGateRebind = true
		}
	}

	if !sym.Mutable && !(isQuantum && selfGateRebind) {
		a.diagf(diag.TypeError, st.Sp, "assignment to non-mutable binding %q", st.Name)
	}
	if isQuantum && !selfGateRebind {
		a.diagf(diag.AffineError, st.Sp, "quantum binding %q cannot be reassigned directly; gate-apply or measure it instead", st.Name)
	}

	actual := a.analyzeExpr(st.Value)
	if !isErrType(sym.Type) && !isErrType(actual) && !types.AreCompatible(sym.Type, actual) {
		a.diagf(diag.TypeError, st.Sp, "cannot assign %s to %s binding %q", actual, sym.Type, st.Name)
	}
	if isQuantum && selfGateRebind {
		// Already Alive and validated via the GateApply's own operand
		// checks in analyzeGateApply; nothing further to transition.
		_ = path
	}
}

// analyzeExpr type-checks e per the rules in §4.4 and returns its resolved
// type (errType on failure, so callers can keep going).
func (a *Analyzer) analyzeExpr(e ast.Expr) ast.Type {
	switch ex := e.(type) {
	case ast.LiteralInt:
		return ast.IntType{}
	case ast.LiteralFloat:
		return ast.FloatType{}
	case ast.LiteralBool:
		return ast.BoolType{}
	case ast.LiteralString:
		return ast.StringType{}
	case ast.LiteralQubit:
		return ast.QubitType{}
	case ast.Variable:
		sym, ok := a.syms.Lookup(ex.Name)
		if !ok {
			a.diagf(diag.TypeError, ex.Sp, "undefined name %q", ex.Name)
			return errType
		}
		return sym.Type
	case ast.Binary:
		return a.analyzeBinary(ex)
	case ast.Unary:
		operand := a.analyzeExpr(ex.Operand)
		switch ex.Op {
		case ast.OpNeg:
			if !isErrType(operand) && !isNumeric(operand) {
				a.diagf(diag.TypeError, ex.Sp, "unary '-' requires a numeric operand, got %s", operand)
			}
			return operand
		case ast.OpNot:
			if !isErrType(operand) && !isBool(operand) {
				a.diagf(diag.TypeError, ex.Sp, "unary '!' requires a bool operand, got %s", operand)
			}
			return ast.BoolType{}
		default:
			return operand
		}
	case ast.Call:
		return a.analyzeCall(ex)
	case ast.Measure:
		operand := a.analyzeExpr(ex.Operand)
		if !isErrType(operand) && !a.reg.IsQuantum(operand) {
			a.diagAt(diag.TypeError, ex.Sp, "measure() requires a quantum operand")
		}
		if p, ok := pathOf(ex.Operand); ok {
			a.consumeQubitPath(p, ex.Sp)
		}
		return ast.CbitType{}
	case ast.GateApply:
		return a.analyzeGateApply(ex)
	case ast.Index:
		return a.analyzeIndex(ex)
	case ast.MemberAccess:
		return a.analyzeMemberAccess(ex)
	case ast.TupleLit:
		elemTypes := make([]ast.Type, len(ex.Elems))
		for i, el := range ex.Elems {
			elemTypes[i] = a.analyzeExpr(el)
		}
		return ast.TupleType{Elems: elemTypes}
	case ast.StructLit:
		return a.analyzeStructLit(ex)
	default:
		return errType
	}
}

func isNumeric(t ast.Type) bool {
	switch t.(type) {
	case ast.IntType, ast.FloatType:
		return true
	}
	return false
}

func isBool(t ast.Type) bool {
	_, ok := t.(ast.BoolType)
	return ok
}

func (a *Analyzer) analyzeBinary(ex ast.Binary) ast.Type {
	lhs := a.analyzeExpr(ex.Left)
	rhs := a.analyzeExpr(ex.Right)
	if isErrType(lhs) || isErrType(rhs) {
		return errType
	}
	switch ex.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		if !isNumeric(lhs) || !isNumeric(rhs) {
			a.diagf(diag.TypeError, ex.Sp, "arithmetic operator requires numeric operands, got %s and %s", lhs, rhs)
			return errType
		}
		if _, lf := lhs.(ast.FloatType); lf {
			return ast.FloatType{}
		}
		if _, rf := rhs.(ast.FloatType); rf {
			return ast.FloatType{}
		}
		return ast.IntType{}
	case ast.OpEq, ast.OpNeq:
		if !types.AreCompatible(lhs, rhs) && !types.AreCompatible(rhs, lhs) {
			a.diagf(diag.TypeError, ex.Sp, "comparison requires compatible operands, got %s and %s", lhs, rhs)
		}
		return ast.BoolType{}
	case ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		if !isNumeric(lhs) || !isNumeric(rhs) {
			a.diagf(diag.TypeError, ex.Sp, "relational operator requires numeric operands, got %s and %s", lhs, rhs)
		}
		return ast.BoolType{}
	case ast.OpAnd, ast.OpOr, ast.OpXor:
		if !isBool(lhs) || !isBool(rhs) {
			a.diagf(diag.TypeError, ex.Sp, "logical operator requires bool operands, got %s and %s", lhs, rhs)
		}
		return ast.BoolType{}
	case ast.OpAssign, ast.OpAddAssign, ast.OpSubAssign, ast.OpMulAssign, ast.OpDivAssign:
		if !types.AreCompatible(lhs, rhs) {
			a.diagf(diag.TypeError, ex.Sp, "cannot assign %s to %s", rhs, lhs)
		}
		return lhs
	default:
		return errType
	}
}

func (a *Analyzer) analyzeCall(ex ast.Call) ast.Type {
	sig, ok := a.funcSigs[ex.Callee]
	if !ok {
		a.diagf(diag.TypeError, ex.Sp, "call to undefined function %q", ex.Callee)
		for _, arg := range ex.Args {
			a.analyzeExpr(arg)
		}
		return errType
	}
	if len(ex.Args) != len(sig.Params) {
		a.diagf(diag.TypeError, ex.Sp, "function %q expects %d arguments, got %d", ex.Callee, len(sig.Params), len(ex.Args))
	}
	for i, arg := range ex.Args {
		at := a.analyzeExpr(arg)
		if i < len(sig.Params) && !isErrType(at) && !types.AreCompatible(sig.Params[i], at) {
			a.diagf(diag.TypeError, arg.Span(), "argument %d to %q: expected %s, got %s", i+1, ex.Callee, sig.Params[i], at)
		}
		// Passing a quantum binding into a function transfers ownership: the
		// callee consumes it, so the caller can no longer use it afterward.
		if i < len(sig.Params) && a.reg.IsQuantum(sig.Params[i]) {
			if p, ok := pathOf(arg); ok {
				a.consumeQubitPath(p, arg.Span())
			}
		}
	}
	return sig.Return
}

func (a *Analyzer) analyzeGateApply(ex ast.GateApply) ast.Type {
	if ex.Gate.Angle != nil {
		angleTy := a.analyzeExpr(ex.Gate.Angle)
		if !isErrType(angleTy) && !isNumeric(angleTy) {
			a.diagAt(diag.TypeError, ex.Sp, "rotation angle must be numeric")
		}
	}
	if len(ex.Args) != ex.Gate.Arity() {
		a.diagf(diag.TypeError, ex.Sp, "gate %s expects %d qubit argument(s), got %d", ex.Gate.Kind, ex.Gate.Arity(), len(ex.Args))
	}
	var first ast.Type = errType
	paths := make([]string, len(ex.Args))
	for i, arg := range ex.Args {
		at := a.analyzeExpr(arg)
		if i == 0 {
			first = at
		}
		if !isErrType(at) && !a.reg.IsQuantum(at) {
			a.diagf(diag.TypeError, arg.Span(), "gate argument must be quantum, got %s", at)
		}
		if p, ok := pathOf(arg); ok {
			paths[i] = p
			a.useQubitPath(p, arg.Span())
		}
	}
	if ex.Gate.Kind == ast.GateCNOT || ex.Gate.Kind == ast.GateSWAP {
		if len(paths) == 2 && paths[0] != "" && paths[0] == paths[1] {
			a.diagf(diag.AffineError, ex.Sp, "%s: control and target must be distinct bindings, both are %q", ex.Gate.Kind, paths[0])
		}
	}
	return first
}

func (a *Analyzer) analyzeIndex(ex ast.Index) ast.Type {
	idxTy := a.analyzeExpr(ex.Index)
	if !isErrType(idxTy) && !isIntType(idxTy) {
		a.diagAt(diag.TypeError, ex.Sp, "index must be an int")
	}
	baseTy := a.analyzeExpr(ex.Base)
	switch bt := baseTy.(type) {
	case ast.ArrayType:
		return bt.Elem
	case ast.QregType:
		return ast.QubitType{}
	case ast.NamedType:
		return errType
	default:
		if !isErrType(baseTy) {
			a.diagf(diag.TypeError, ex.Sp, "cannot index into %s", baseTy)
		}
		return errType
	}
}

func isIntType(t ast.Type) bool {
	_, ok := t.(ast.IntType)
	return ok
}

func (a *Analyzer) analyzeMemberAccess(ex ast.MemberAccess) ast.Type {
	baseTy := a.analyzeExpr(ex.Base)
	switch bt := baseTy.(type) {
	case ast.NamedType:
		def, ok := a.reg.LookupStruct(bt.Name)
		if !ok {
			a.diagf(diag.TypeError, ex.Sp, "unknown struct %q", bt.Name)
			return errType
		}
		for _, f := range def.Fields {
			if f.Name == ex.Field {
				return f.Type
			}
		}
		a.diagf(diag.TypeError, ex.Sp, "struct %q has no field %q", bt.Name, ex.Field)
		return errType
	case ast.TupleType:
		idx, err := parseTupleIndex(ex.Field)
		if err != nil || idx < 0 || idx >= len(bt.Elems) {
			a.diagf(diag.TypeError, ex.Sp, "invalid tuple index %q", ex.Field)
			return errType
		}
		return bt.Elems[idx]
	default:
		if !isErrType(baseTy) {
			a.diagf(diag.TypeError, ex.Sp, "cannot access member %q on %s", ex.Field, baseTy)
		}
		return errType
	}
}

func parseTupleIndex(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not numeric")
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

func (a *Analyzer) analyzeStructLit(ex ast.StructLit) ast.Type {
	def, ok := a.reg.LookupStruct(ex.Name)
	if !ok {
		a.diagf(diag.TypeError, ex.Sp, "unknown struct %q", ex.Name)
		for _, f := range ex.Fields {
			a.analyzeExpr(f.Value)
		}
		return errType
	}
	seen := map[string]bool{}
	for _, f := range ex.Fields {
		seen[f.Name] = true
		actual := a.analyzeExpr(f.Value)
		found := false
		for _, df := range def.Fields {
			if df.Name == f.Name {
				found = true
				if !isErrType(actual) && !types.AreCompatible(df.Type, actual) {
					a.diagf(diag.TypeError, ex.Sp, "field %q: expected %s, got %s", f.Name, df.Type, actual)
				}
			}
		}
		if !found {
			a.diagf(diag.TypeError, ex.Sp, "struct %q has no field %q", ex.Name, f.Name)
		}
	}
	for _, df := range def.Fields {
		if !seen[df.Name] {
			a.diagf(diag.TypeError, ex.Sp, "missing field %q in struct literal for %q", df.Name, ex.Name)
		}
	}
	return ast.NamedType{Name: ex.Name}
}
