// Package build lowers a type-checked AST into QIR, per the rules: quantum
// declarations become AllocQubit/AllocCbit ops, gate-applies and measures
// become their QIR equivalents, constant-bounded ForRange loops are fully
// unrolled, and If/While bodies are inlined sequentially rather than
// emitting real control flow (a documented simplification carried over
// unchanged — see DESIGN.md's Open Question resolution).
package build

import (
	"fmt"

	"github.com/qclabs/qcl/lang/ast"
	"github.com/qclabs/qcl/lang/diag"
	"github.com/qclabs/qcl/lang/sema"
	"github.com/qclabs/qcl/lang/types"
	"github.com/qclabs/qcl/ir"
)

// Builder lowers an entire Program using the registry and function
// signatures produced by the semantic analyzer.
type Builder struct {
	reg      *types.Registry
	funcSigs map[string]sema.FuncSig
	funcs    map[string]ast.Function
	diags    diag.List
}

// Build lowers every function in prog to its own QIR function. Functions
// are lowered independently; a call to a user-defined function at an
// expression site is handled by inlining (see funcBuilder.buildCall),
// since the QIR op set intentionally has no Call instruction.
func Build(prog *ast.Program, res sema.Result) (*ir.Module, diag.List) {
	b := &Builder{reg: res.Registry, funcSigs: res.FuncSigs, funcs: map[string]ast.Function{}}
	for _, fn := range prog.Functions {
		b.funcs[fn.Name] = fn
	}
	mod := &ir.Module{Name: "qcl", Version: "0.1.0", Metadata: map[string]string{}}
	for _, fn := range prog.Functions {
		irFn := b.buildFunction(fn)
		mod.Functions = append(mod.Functions, irFn)
		mod.GlobalQubits += irFn.QubitCount()
		mod.GlobalCbits += irFn.CbitCount()
	}
	return mod, b.diags
}

func (b *Builder) buildErr(msg string) {
	b.diags = append(b.diags, diag.Diagnostic{Kind: diag.IRBuildError, Severity: diag.SeverityError, Message: msg})
}

const maxInlineDepth = 32

// funcBuilder holds the per-function lowering state: the destination IR
// function, the single block all ops are appended to (see package doc),
// the name->Value environment, and a constant-folding environment for
// unrolled loop variables.
type funcBuilder struct {
	b       *Builder
	f       *ir.Function
	block   *ir.Block
	env     map[string]ir.Value
	consts  map[string]int64
	depth   int
}

func (b *Builder) buildFunction(fn ast.Function) *ir.Function {
	sig := b.funcSigs[fn.Name]
	f := ir.NewFunction(fn.Name, sig.Params, sig.Return)
	entry := f.NewBlock()
	f.EntryBlock = entry.ID

	fb := &funcBuilder{b: b, f: f, block: entry, env: map[string]ir.Value{}, consts: map[string]int64{}}
	for i, p := range fn.Params {
		fb.env[p.Name] = fb.allocParam(sig.Params[i])
	}
	for _, s := range fn.Body {
		fb.buildStmt(s)
	}
	if len(fb.block.Ops) == 0 || !ir.IsTerminator(fb.block.Ops[len(fb.block.Ops)-1]) {
		fb.emit(ir.Return{})
	}
	return f
}

// allocParam materializes an incoming quantum parameter as freshly
// allocated qubit identities local to this function (the caller's identity
// is not visible across the function boundary in this model).
func (fb *funcBuilder) allocParam(t ast.Type) ir.Value {
	switch v := t.(type) {
	case ast.QubitType:
		return ir.VQubit{ID: fb.f.NewQubit()}
	case ast.QregType:
		vals := make([]ir.Value, v.Size)
		for i := range vals {
			vals[i] = ir.VQubit{ID: fb.f.NewQubit()}
		}
		return ir.VArray{Vals: vals}
	case ast.CbitType:
		return ir.VCbit{ID: fb.f.NewCbit()}
	default:
		return ir.VNull{}
	}
}

func (fb *funcBuilder) emit(op ir.Op) {
	fb.block.Ops = append(fb.block.Ops, op)
}

func (fb *funcBuilder) buildStmt(s ast.Stmt) {
	switch st := s.(type) {
	case ast.LetStmt:
		fb.buildLet(st)
	case ast.AssignStmt:
		fb.buildAssign(st)
	case ast.BlockStmt:
		for _, inner := range st.Stmts {
			fb.buildStmt(inner)
		}
	case ast.IfStmt:
		// Documented simplification: both arms are lowered unconditionally
		// and sequentially rather than as real control flow.
		fb.buildExpr(st.Cond)
		fb.buildStmt(st.Then)
		if st.Else != nil {
			fb.buildStmt(st.Else)
		}
	case ast.WhileStmt:
		// Documented simplification: the body is lowered for a single
		// iteration, not repeated.
		fb.buildExpr(st.Cond)
		fb.buildStmt(st.Body)
	case ast.ForRangeStmt:
		fb.buildForRange(st.Var, st.From, st.To, st.Step, st.Body)
	case ast.QIfStmt:
		fb.buildExpr(st.Cond)
		fb.buildStmt(st.Then)
		if st.Else != nil {
			fb.buildStmt(st.Else)
		}
	case ast.QForRangeStmt:
		fb.buildForRange(st.Var, st.From, st.To, st.Step, st.Body)
	case ast.ReturnStmt:
		var v ir.Value
		if st.Value != nil {
			v = fb.buildExpr(st.Value)
		}
		fb.emit(ir.Return{Value: v})
	case ast.BreakStmt, ast.ContinueStmt:
		// Loops are unrolled at build time; break/continue within a
		// constant-bounded loop body are not re-entrant control flow in
		// this revision and are rejected with an IRBuildError rather than
		// silently miscompiled.
		fb.b.buildErr("break/continue inside a loop body is not lowered to control flow in this revision")
	case ast.TypeAliasStmt, ast.StructDefStmt, ast.ExprStmt:
		if es, ok := s.(ast.ExprStmt); ok {
			fb.buildExpr(es.X)
		}
	default:
	}
}

func (fb *funcBuilder) buildForRange(varName string, from, to, step ast.Expr, body ast.Stmt) {
	lo, ok1 := fb.constInt(from)
	hi, ok2 := fb.constInt(to)
	stepV := int64(1)
	if step != nil {
		s, ok3 := fb.constInt(step)
		if !ok3 {
			fb.b.buildErr("for-range step must be a constant integer expression")
			return
		}
		stepV = s
	}
	if !ok1 || !ok2 {
		fb.b.buildErr("for-range bounds must be constant integer expressions; non-constant bounds are not supported")
		return
	}
	if stepV == 0 {
		fb.b.buildErr("for-range step must be non-zero")
		return
	}
	prev, had := fb.consts[varName]
	for i := lo; (stepV > 0 && i < hi) || (stepV < 0 && i > hi); i += stepV {
		fb.consts[varName] = i
		fb.env[varName] = ir.VInt{V: i}
		fb.buildStmt(body)
	}
	if had {
		fb.consts[varName] = prev
	} else {
		delete(fb.consts, varName)
	}
	delete(fb.env, varName)
}

func (fb *funcBuilder) buildLet(st ast.LetStmt) {
	var declared ast.Type
	if st.Type != nil {
		declared, _ = fb.b.reg.Resolve(st.Type)
	}

	if qt, ok := declared.(ast.QubitType); ok {
		_ = qt
		bit := fb.literalQubitBit(st.Value)
		qid := fb.f.NewQubit()
		fb.emit(ir.AllocQubit{Result: qid, InitState: bit})
		fb.env[st.Name] = ir.VQubit{ID: qid}
		return
	}
	if qreg, ok := declared.(ast.QregType); ok {
		bits := fb.literalQregBits(st.Value, qreg.Size)
		vals := make([]ir.Value, qreg.Size)
		for i := 0; i < qreg.Size; i++ {
			qid := fb.f.NewQubit()
			fb.emit(ir.AllocQubit{Result: qid, InitState: bits[i]})
			vals[i] = ir.VQubit{ID: qid}
		}
		fb.env[st.Name] = ir.VArray{Vals: vals}
		return
	}
	if arr, ok := declared.(ast.ArrayType); ok && st.Value == nil {
		if _, isCbit := arr.Elem.(ast.CbitType); isCbit {
			vals := make([]ir.Value, arr.Size)
			for i := 0; i < arr.Size; i++ {
				cid := fb.f.NewCbit()
				fb.emit(ir.AllocCbit{Result: cid})
				vals[i] = ir.VCbit{ID: cid}
			}
			fb.env[st.Name] = ir.VArray{Vals: vals}
			return
		}
	}

	var v ir.Value = ir.VNull{}
	if st.Value != nil {
		v = fb.buildExpr(st.Value)
	}
	fb.env[st.Name] = v
	if iv, ok := v.(ir.VInt); ok {
		fb.consts[st.Name] = iv.V
	}
}

func (fb *funcBuilder) buildAssign(st ast.AssignStmt) {
	if ga, ok := st.Value.(ast.GateApply); ok && len(st.MemberPath) == 0 {
		// `x = H(x);`-style gate-apply rebind: physical qubit identity is
		// unchanged, only a bookkeeping temp result is produced.
		fb.buildGateApply(ga)
		return
	}
	v := fb.buildExpr(st.Value)
	if len(st.MemberPath) == 0 {
		fb.env[st.Name] = v
		if iv, ok := v.(ir.VInt); ok {
			fb.consts[st.Name] = iv.V
		}
		return
	}
	// Struct-field/tuple-component assignment: rebuild the aggregate value
	// with the target component replaced.
	base, ok := fb.env[st.Name]
	if !ok {
		return
	}
	fb.env[st.Name] = replaceMember(base, st.MemberPath, v)
}

func replaceMember(base ir.Value, path []string, v ir.Value) ir.Value {
	if len(path) == 0 {
		return v
	}
	switch agg := base.(type) {
	case ir.VTuple:
		idx, err := parseIndex(path[0])
		if err != nil || idx < 0 || idx >= len(agg.Vals) {
			return base
		}
		out := append([]ir.Value(nil), agg.Vals...)
		out[idx] = replaceMember(out[idx], path[1:], v)
		return ir.VTuple{Vals: out}
	default:
		return base
	}
}

func parseIndex(s string) (int, error) {
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

// literalQubitBit extracts the single init bit from a `|b⟩` literal
// initializer; defaults to Zero for any other initializer form (the
// semantic analyzer has already validated the source program).
func (fb *funcBuilder) literalQubitBit(e ast.Expr) ir.BitState {
	if lit, ok := e.(ast.LiteralQubit); ok && len(lit.Bits.Bits) > 0 {
		if lit.Bits.Bits[0] == 1 {
			return ir.One
		}
	}
	return ir.Zero
}

func (fb *funcBuilder) literalQregBits(e ast.Expr, n int) []ir.BitState {
	out := make([]ir.BitState, n)
	if lit, ok := e.(ast.LiteralQubit); ok {
		for i := 0; i < n && i < len(lit.Bits.Bits); i++ {
			if lit.Bits.Bits[i] == 1 {
				out[i] = ir.One
			}
		}
	}
	return out
}

// buildExpr lowers e to a Value, emitting ops into the current block as a
// side effect.
func (fb *funcBuilder) buildExpr(e ast.Expr) ir.Value {
	switch ex := e.(type) {
	case ast.LiteralInt:
		return ir.VInt{V: ex.Value}
	case ast.LiteralFloat:
		return ir.VFloat{V: ex.Value}
	case ast.LiteralBool:
		return ir.VBool{V: ex.Value}
	case ast.LiteralString:
		return ir.VString{V: ex.Value}
	case ast.LiteralQubit:
		qid := fb.f.NewQubit()
		state := ir.Zero
		if len(ex.Bits.Bits) > 0 && ex.Bits.Bits[0] == 1 {
			state = ir.One
		}
		fb.emit(ir.AllocQubit{Result: qid, InitState: state})
		return ir.VQubit{ID: qid}
	case ast.Variable:
		if v, ok := fb.env[ex.Name]; ok {
			return v
		}
		return ir.VVariable{Name: ex.Name}
	case ast.Binary:
		return fb.buildBinary(ex)
	case ast.Unary:
		operand := fb.buildExpr(ex.Operand)
		t := fb.f.NewTemp()
		fb.emit(ir.UnaryOp{Op: ex.Op, Operand: operand, Result: t})
		return ir.VTemp{ID: t}
	case ast.Call:
		return fb.buildCall(ex)
	case ast.Measure:
		operand := fb.buildExpr(ex.Operand)
		qv, ok := operand.(ir.VQubit)
		if !ok {
			fb.b.buildErr("measure operand did not lower to a single qubit")
			return ir.VNull{}
		}
		cid := fb.f.NewCbit()
		fb.emit(ir.Measure{Qubit: qv.ID, Cbit: cid})
		return ir.VCbit{ID: cid}
	case ast.GateApply:
		return fb.buildGateApply(ex)
	case ast.Index:
		base := fb.buildExpr(ex.Base)
		idx, ok := fb.constInt(ex.Index)
		if !ok {
			fb.b.buildErr("array/qreg index must be a constant integer expression")
			return ir.VNull{}
		}
		switch b := base.(type) {
		case ir.VArray:
			if int(idx) >= 0 && int(idx) < len(b.Vals) {
				return b.Vals[idx]
			}
		}
		return ir.VNull{}
	case ast.MemberAccess:
		base := fb.buildExpr(ex.Base)
		switch b := base.(type) {
		case ir.VTuple:
			if i, err := parseIndex(ex.Field); err == nil && i >= 0 && i < len(b.Vals) {
				return b.Vals[i]
			}
		}
		return ir.VNull{}
	case ast.TupleLit:
		vals := make([]ir.Value, len(ex.Elems))
		for i, el := range ex.Elems {
			vals[i] = fb.buildExpr(el)
		}
		return ir.VTuple{Vals: vals}
	case ast.StructLit:
		vals := make([]ir.Value, len(ex.Fields))
		for i, f := range ex.Fields {
			vals[i] = fb.buildExpr(f.Value)
		}
		t := fb.f.NewTemp()
		fb.emit(ir.MakeStruct{Name: ex.Name, FieldValues: vals, Result: t})
		return ir.VTemp{ID: t}
	default:
		return ir.VNull{}
	}
}

func (fb *funcBuilder) buildBinary(ex ast.Binary) ir.Value {
	lhs := fb.buildExpr(ex.Left)
	rhs := fb.buildExpr(ex.Right)
	t := fb.f.NewTemp()
	fb.emit(ir.BinaryOp{Op: ex.Op, LHS: lhs, RHS: rhs, Result: t})
	return ir.VTemp{ID: t}
}

func (fb *funcBuilder) buildGateApply(ex ast.GateApply) ir.Value {
	var angle float64
	if ex.Gate.Angle != nil {
		a, ok := fb.constFloat(ex.Gate.Angle)
		if !ok {
			fb.b.buildErr(fmt.Sprintf("rotation angle for %s must be a constant expression", ex.Gate.Kind))
		}
		angle = a
	}
	args := make([]ir.Value, len(ex.Args))
	for i, a := range ex.Args {
		args[i] = fb.buildExpr(a)
	}
	t := fb.f.NewTemp()
	fb.emit(ir.ApplyGate{Gate: ir.Gate{Kind: ex.Gate.Kind, Angle: angle}, Args: args, Result: &t})
	if len(args) > 0 {
		return args[0]
	}
	return ir.VNull{}
}

func (fb *funcBuilder) buildCall(ex ast.Call) ir.Value {
	fn, ok := fb.b.funcs[ex.Callee]
	if !ok {
		fb.b.buildErr(fmt.Sprintf("call to undefined function %q", ex.Callee))
		return ir.VNull{}
	}
	if fb.depth >= maxInlineDepth {
		fb.b.buildErr(fmt.Sprintf("call to %q exceeds maximum inlining depth (recursive?)", ex.Callee))
		return ir.VNull{}
	}
	args := make([]ir.Value, len(ex.Args))
	for i, a := range ex.Args {
		args[i] = fb.buildExpr(a)
	}
	inner := &funcBuilder{b: fb.b, f: fb.f, block: fb.block, env: map[string]ir.Value{}, consts: map[string]int64{}, depth: fb.depth + 1}
	for i, p := range fn.Params {
		if i < len(args) {
			inner.env[p.Name] = args[i]
		}
	}
	var ret ir.Value = ir.VNull{}
	for _, s := range fn.Body {
		if rs, ok := s.(ast.ReturnStmt); ok {
			if rs.Value != nil {
				ret = inner.buildExpr(rs.Value)
			}
			break
		}
		inner.buildStmt(s)
	}
	return ret
}

// constInt attempts to fold e to a compile-time integer, used for for-range
// bounds and index expressions.
func (fb *funcBuilder) constInt(e ast.Expr) (int64, bool) {
	v, ok := fb.constEval(e)
	if !ok {
		return 0, false
	}
	i, ok := v.(int64)
	return i, ok
}

func (fb *funcBuilder) constFloat(e ast.Expr) (float64, bool) {
	v, ok := fb.constEval(e)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

// constEval is a small constant-expression evaluator over int64/float64/
// bool, grounded by the loop-variable substitution environment. It never
// reads runtime quantum state; any reference to a non-constant name fails.
func (fb *funcBuilder) constEval(e ast.Expr) (interface{}, bool) {
	switch ex := e.(type) {
	case ast.LiteralInt:
		return ex.Value, true
	case ast.LiteralFloat:
		return ex.Value, true
	case ast.LiteralBool:
		return ex.Value, true
	case ast.Variable:
		if v, ok := fb.consts[ex.Name]; ok {
			return v, true
		}
		return nil, false
	case ast.Unary:
		v, ok := fb.constEval(ex.Operand)
		if !ok {
			return nil, false
		}
		switch ex.Op {
		case ast.OpNeg:
			switch x := v.(type) {
			case int64:
				return -x, true
			case float64:
				return -x, true
			}
		case ast.OpNot:
			if b, ok := v.(bool); ok {
				return !b, true
			}
		}
		return nil, false
	case ast.Binary:
		l, ok1 := fb.constEval(ex.Left)
		r, ok2 := fb.constEval(ex.Right)
		if !ok1 || !ok2 {
			return nil, false
		}
		return evalConstBinary(ex.Op, l, r)
	default:
		return nil, false
	}
}

func evalConstBinary(op ast.BinaryOp, l, r interface{}) (interface{}, bool) {
	lf, lIsF := toFloat(l)
	rf, rIsF := toFloat(r)
	if !lIsF || !rIsF {
		return nil, false
	}
	_, lInt := l.(int64)
	_, rInt := r.(int64)
	bothInt := lInt && rInt
	switch op {
	case ast.OpAdd:
		if bothInt {
			return l.(int64) + r.(int64), true
		}
		return lf + rf, true
	case ast.OpSub:
		if bothInt {
			return l.(int64) - r.(int64), true
		}
		return lf - rf, true
	case ast.OpMul:
		if bothInt {
			return l.(int64) * r.(int64), true
		}
		return lf * rf, true
	case ast.OpDiv:
		if bothInt {
			if r.(int64) == 0 {
				return nil, false
			}
			return l.(int64) / r.(int64), true
		}
		if rf == 0 {
			return nil, false
		}
		return lf / rf, true
	default:
		return nil, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
