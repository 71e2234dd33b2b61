// Package parser implements a recursive-descent parser with precedence
// climbing for QCL, per the grammar in the language design's §4.1-4.2.
package parser

import (
	"fmt"
	"strconv"

	"github.com/qclabs/qcl/lang/ast"
	"github.com/qclabs/qcl/lang/diag"
	"github.com/qclabs/qcl/lang/lexer"
	"github.com/qclabs/qcl/token"
)

// Parser consumes a pre-lexed token stream and builds a Program, recovering
// from errors by skipping to the next statement/declaration boundary and
// accumulating diagnostics instead of aborting.
type Parser struct {
	toks  []token.Token
	pos   int
	diags diag.List
}

// Parse lexes and parses src in one call, returning the (possibly partial)
// program and any diagnostics raised by either stage.
func Parse(src string) (*ast.Program, diag.List) {
	lx := lexer.New(src)
	toks := lx.Tokens()
	p := &Parser{toks: toks, diags: lx.Diagnostics()}
	prog := p.parseProgram(src)
	return prog, p.diags
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) check(k token.Kind) bool { return p.at(k) }

func (p *Parser) match(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

func (p *Parser) expect(k token.Kind, hint string) token.Token {
	if t, ok := p.match(k); ok {
		return t
	}
	p.errorf(p.cur().Span, hint, "expected %s, found %s", k, p.cur().Kind)
	return p.cur()
}

func (p *Parser) errorf(sp token.Span, hint, format string, args ...interface{}) {
	p.diags = append(p.diags, diag.Diagnostic{
		Kind: diag.ParseError, Severity: diag.SeverityError,
		Message: fmt.Sprintf(format, args...), Hint: hint, Span: sp,
	})
}

func (p *Parser) parseProgram(src string) *ast.Program {
	prog := &ast.Program{Source: src}
	for !p.at(token.EOF) {
		switch {
		case p.at(token.KwFn):
			if fn, ok := p.parseFunction(); ok {
				prog.Functions = append(prog.Functions, fn)
			} else {
				p.recoverToTopLevel()
			}
		case p.at(token.KwType):
			if ta, ok := p.parseTypeAliasDecl(); ok {
				prog.TypeAliases = append(prog.TypeAliases, ta)
			} else {
				p.recoverToTopLevel()
			}
		case p.at(token.KwStruct):
			if sd, ok := p.parseStructDecl(); ok {
				prog.StructDefs = append(prog.StructDefs, sd)
			} else {
				p.recoverToTopLevel()
			}
		default:
			p.errorf(p.cur().Span, "expected 'fn', 'type', or 'struct'", "unexpected token %s at top level", p.cur().Kind)
			p.advance()
			p.recoverToTopLevel()
		}
	}
	return prog
}

func (p *Parser) recoverToTopLevel() {
	for !p.at(token.EOF) {
		if p.at(token.KwFn) || p.at(token.KwType) || p.at(token.KwStruct) {
			return
		}
		p.advance()
	}
}

func (p *Parser) recoverToStatement() {
	for !p.at(token.EOF) {
		if p.at(token.Semi) {
			p.advance()
			return
		}
		if p.at(token.RBrace) {
			return
		}
		p.advance()
	}
}

// --- top-level declarations ---

func (p *Parser) parseFunction() (ast.Function, bool) {
	start := p.cur().Span
	p.expect(token.KwFn, "")
	name := p.expect(token.Ident, "expected a function name")
	fn := ast.Function{Name: name.Literal}
	p.expect(token.LParen, "")
	for !p.at(token.RParen) && !p.at(token.EOF) {
		pstart := p.cur().Span
		mutable := false
		if _, ok := p.match(token.KwMut); ok {
			mutable = true
		}
		pname := p.expect(token.Ident, "expected a parameter name")
		p.expect(token.Colon, "")
		ty := p.parseType()
		fn.Params = append(fn.Params, ast.Param{Name: pname.Literal, Type: ty, Mutable: mutable, Span: pstart.Merge(p.cur().Span)})
		if _, ok := p.match(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen, "")
	fn.ReturnType = ast.UnitType{}
	if _, ok := p.match(token.Arrow); ok {
		fn.ReturnType = p.parseType()
	}
	body, ok := p.parseBlock()
	fn.Body = body.Stmts
	fn.Span = start.Merge(body.Sp)
	return fn, ok
}

func (p *Parser) parseTypeAliasDecl() (ast.TypeAlias, bool) {
	start := p.cur().Span
	p.expect(token.KwType, "")
	name := p.expect(token.Ident, "expected a type name")
	p.expect(token.Assign, "")
	target := p.parseType()
	end := p.expect(token.Semi, "expected ';' after type alias")
	return ast.TypeAlias{Name: name.Literal, Target: target, Span: start.Merge(end.Span)}, true
}

func (p *Parser) parseStructDecl() (ast.StructDef, bool) {
	start := p.cur().Span
	p.expect(token.KwStruct, "")
	name := p.expect(token.Ident, "expected a struct name")
	p.expect(token.LBrace, "")
	sd := ast.StructDef{Name: name.Literal}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		fstart := p.cur().Span
		fname := p.expect(token.Ident, "expected a field name")
		p.expect(token.Colon, "")
		fty := p.parseType()
		sd.Fields = append(sd.Fields, ast.StructField{Name: fname.Literal, Type: fty, Span: fstart.Merge(p.cur().Span)})
		if _, ok := p.match(token.Comma); !ok {
			break
		}
	}
	end := p.expect(token.RBrace, "")
	sd.Span = start.Merge(end.Span)
	return sd, true
}

// --- types ---

func (p *Parser) parseType() ast.Type {
	var base ast.Type
	switch {
	case p.at(token.KwInt):
		p.advance()
		base = ast.IntType{}
	case p.at(token.KwFloat):
		p.advance()
		base = ast.FloatType{}
	case p.at(token.KwBool):
		p.advance()
		base = ast.BoolType{}
	case p.at(token.KwString):
		p.advance()
		base = ast.StringType{}
	case p.at(token.KwQubit):
		p.advance()
		base = ast.QubitType{}
	case p.at(token.KwCbit):
		p.advance()
		base = ast.CbitType{}
	case p.at(token.KwQreg):
		p.advance()
		p.expect(token.LBracket, "")
		n := p.expect(token.IntLit, "expected a qreg size")
		p.expect(token.RBracket, "")
		size, _ := strconv.Atoi(n.Literal)
		return ast.QregType{Size: size}
	case p.at(token.LParen):
		p.advance()
		var elems []ast.Type
		for !p.at(token.RParen) && !p.at(token.EOF) {
			elems = append(elems, p.parseType())
			if _, ok := p.match(token.Comma); !ok {
				break
			}
		}
		p.expect(token.RParen, "")
		base = ast.TupleType{Elems: elems}
	case p.at(token.Ident):
		name := p.advance()
		base = ast.NamedType{Name: name.Literal}
	default:
		p.errorf(p.cur().Span, "expected a type", "unexpected token %s in type position", p.cur().Kind)
		p.advance()
		base = ast.NamedType{Name: "<error>"}
	}
	for p.at(token.LBracket) {
		p.advance()
		n := p.expect(token.IntLit, "expected an array size")
		p.expect(token.RBracket, "")
		size, _ := strconv.Atoi(n.Literal)
		base = ast.ArrayType{Elem: base, Size: size}
	}
	return base
}

// --- statements ---

func (p *Parser) parseBlock() (ast.BlockStmt, bool) {
	start := p.expect(token.LBrace, "expected '{'")
	blk := ast.BlockStmt{}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if s, ok := p.parseStatement(); ok {
			blk.Stmts = append(blk.Stmts, s)
		} else {
			p.recoverToStatement()
		}
	}
	end := p.expect(token.RBrace, "expected '}'")
	blk.Sp = start.Span.Merge(end.Span)
	return blk, true
}

func (p *Parser) parseStatement() (ast.Stmt, bool) {
	switch {
	case p.at(token.LBrace):
		b, ok := p.parseBlock()
		return b, ok
	case p.at(token.KwLet):
		return p.parseLet()
	case p.at(token.KwIf):
		return p.parseIf()
	case p.at(token.KwWhile):
		return p.parseWhile()
	case p.at(token.KwFor):
		return p.parseForRange()
	case p.at(token.KwQIf):
		return p.parseQIf()
	case p.at(token.KwQFor):
		return p.parseQForRange()
	case p.at(token.KwReturn):
		return p.parseReturn()
	case p.at(token.KwBreak):
		t := p.advance()
		end := p.expect(token.Semi, "expected ';' after break")
		return ast.BreakStmt{Sp: t.Span.Merge(end.Span)}, true
	case p.at(token.KwContinue):
		t := p.advance()
		end := p.expect(token.Semi, "expected ';' after continue")
		return ast.ContinueStmt{Sp: t.Span.Merge(end.Span)}, true
	case p.at(token.KwType):
		ta, ok := p.parseTypeAliasDecl()
		return ast.TypeAliasStmt{Alias: ta, Sp: ta.Span}, ok
	case p.at(token.KwStruct):
		sd, ok := p.parseStructDecl()
		return ast.StructDefStmt{Def: sd, Sp: sd.Span}, ok
	case p.isLegacyDecl():
		return p.parseLegacyDecl()
	default:
		return p.parseExprOrAssignStatement()
	}
}

// isLegacyDecl reports whether the upcoming tokens start a C-style
// declaration `type name [= expr];` (§4.2's "legacy" form), distinguished
// from an expression statement by a type keyword or qreg followed by an
// identifier.
func (p *Parser) isLegacyDecl() bool {
	switch p.cur().Kind {
	case token.KwInt, token.KwFloat, token.KwBool, token.KwString,
		token.KwQubit, token.KwCbit, token.KwQreg:
		return p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.Ident
	}
	return false
}

func (p *Parser) parseLegacyDecl() (ast.Stmt, bool) {
	start := p.cur().Span
	if p.at(token.KwQreg) {
		return p.parseLegacyQregDecl(start)
	}
	ty := p.parseType()
	name := p.expect(token.Ident, "expected a variable name")
	var value ast.Expr
	if _, ok := p.match(token.Assign); ok {
		value = p.parseExpr()
	}
	end := p.expect(token.Semi, "expected ';'")
	return ast.LetStmt{Name: name.Literal, Type: ty, Value: value, Mutable: false, Sp: start.Merge(end.Span)}, true
}

// parseLegacyQregDecl handles the legacy `qreg name[N] = |bits>;` form,
// where the size suffix follows the name rather than the keyword — unlike
// an inline `qreg[N]` type annotation, which parseType handles directly.
func (p *Parser) parseLegacyQregDecl(start token.Span) (ast.Stmt, bool) {
	p.advance() // qreg
	name := p.expect(token.Ident, "expected a variable name")
	size := 0
	if _, ok := p.match(token.LBracket); ok {
		n := p.expect(token.IntLit, "expected a qreg size")
		p.expect(token.RBracket, "")
		size, _ = strconv.Atoi(n.Literal)
	}
	var value ast.Expr
	if _, ok := p.match(token.Assign); ok {
		value = p.parseExpr()
	}
	end := p.expect(token.Semi, "expected ';'")
	return ast.LetStmt{Name: name.Literal, Type: ast.QregType{Size: size}, Value: value, Mutable: false, Sp: start.Merge(end.Span)}, true
}

func (p *Parser) parseLet() (ast.Stmt, bool) {
	start := p.expect(token.KwLet, "")
	mutable := false
	if _, ok := p.match(token.KwMut); ok {
		mutable = true
	}
	name := p.expect(token.Ident, "expected a variable name")
	var ty ast.Type
	if _, ok := p.match(token.Colon); ok {
		ty = p.parseType()
	}
	p.expect(token.Assign, "expected '=' in let binding")
	value := p.parseExpr()
	end := p.expect(token.Semi, "expected ';'")
	return ast.LetStmt{Name: name.Literal, Type: ty, Value: value, Mutable: mutable, Sp: start.Span.Merge(end.Span)}, true
}

func (p *Parser) parseIf() (ast.Stmt, bool) {
	start := p.expect(token.KwIf, "")
	cond := p.parseExpr()
	then, _ := p.parseBlock()
	s := ast.IfStmt{Cond: cond, Then: then, Sp: start.Span.Merge(then.Sp)}
	if _, ok := p.match(token.KwElse); ok {
		if p.at(token.KwIf) {
			elseStmt, _ := p.parseIf()
			s.Else = elseStmt
			s.Sp = s.Sp.Merge(elseStmt.Span())
		} else {
			elseBlk, _ := p.parseBlock()
			s.Else = elseBlk
			s.Sp = s.Sp.Merge(elseBlk.Sp)
		}
	}
	return s, true
}

func (p *Parser) parseQIf() (ast.Stmt, bool) {
	start := p.expect(token.KwQIf, "")
	cond := p.parseExpr()
	then, _ := p.parseBlock()
	s := ast.QIfStmt{Cond: cond, Then: then, Sp: start.Span.Merge(then.Sp)}
	if _, ok := p.match(token.KwQElse); ok {
		elseBlk, _ := p.parseBlock()
		s.Else = elseBlk
		s.Sp = s.Sp.Merge(elseBlk.Sp)
	} else if _, ok := p.match(token.KwElse); ok {
		elseBlk, _ := p.parseBlock()
		s.Else = elseBlk
		s.Sp = s.Sp.Merge(elseBlk.Sp)
	}
	return s, true
}

func (p *Parser) parseWhile() (ast.Stmt, bool) {
	start := p.expect(token.KwWhile, "")
	cond := p.parseExpr()
	body, _ := p.parseBlock()
	return ast.WhileStmt{Cond: cond, Body: body, Sp: start.Span.Merge(body.Sp)}, true
}

func (p *Parser) parseForRangeCommon() (string, ast.Expr, ast.Expr, ast.Expr, token.Span) {
	name := p.expect(token.Ident, "expected a loop variable")
	p.expect(token.KwIn, "expected 'in'")
	p.expect(token.KwRange, "expected 'range'")
	p.expect(token.LParen, "")
	from := p.parseExpr()
	p.expect(token.Comma, "")
	to := p.parseExpr()
	var step ast.Expr
	if _, ok := p.match(token.Comma); ok {
		step = p.parseExpr()
	}
	end := p.expect(token.RParen, "")
	return name.Literal, from, to, step, end.Span
}

func (p *Parser) parseForRange() (ast.Stmt, bool) {
	start := p.expect(token.KwFor, "")
	name, from, to, step, _ := p.parseForRangeCommon()
	body, _ := p.parseBlock()
	return ast.ForRangeStmt{Var: name, From: from, To: to, Step: step, Body: body, Sp: start.Span.Merge(body.Sp)}, true
}

func (p *Parser) parseQForRange() (ast.Stmt, bool) {
	start := p.expect(token.KwQFor, "")
	name, from, to, step, _ := p.parseForRangeCommon()
	body, _ := p.parseBlock()
	return ast.QForRangeStmt{Var: name, From: from, To: to, Step: step, Body: body, Sp: start.Span.Merge(body.Sp)}, true
}

func (p *Parser) parseReturn() (ast.Stmt, bool) {
	start := p.expect(token.KwReturn, "")
	var val ast.Expr
	if !p.at(token.Semi) {
		val = p.parseExpr()
	}
	end := p.expect(token.Semi, "expected ';' after return")
	return ast.ReturnStmt{Value: val, Sp: start.Span.Merge(end.Span)}, true
}

// parseExprOrAssignStatement disambiguates `name = expr;` / `name.path = expr;`
// assignment forms from plain expression statements by attempting the
// assignment only when the parsed primary is a bare name or member chain
// immediately followed by `=` or a compound-assign operator.
func (p *Parser) parseExprOrAssignStatement() (ast.Stmt, bool) {
	start := p.cur().Span
	expr := p.parseExpr()
	end := p.expect(token.Semi, "expected ';' after expression")
	sp := start.Merge(end.Span)
	if bin, ok := expr.(ast.Binary); ok && isAssignOp(bin.Op) {
		if name, path, ok := asAssignTarget(bin.Left); ok {
			return ast.AssignStmt{Name: name, MemberPath: path, Value: desugarCompound(bin), Sp: sp}, true
		}
	}
	return ast.ExprStmt{X: expr, Sp: sp}, true
}

func isAssignOp(op ast.BinaryOp) bool {
	switch op {
	case ast.OpAssign, ast.OpAddAssign, ast.OpSubAssign, ast.OpMulAssign, ast.OpDivAssign:
		return true
	}
	return false
}

func asAssignTarget(e ast.Expr) (string, []string, bool) {
	switch v := e.(type) {
	case ast.Variable:
		return v.Name, nil, true
	case ast.MemberAccess:
		name, path, ok := asAssignTarget(v.Base)
		if !ok {
			return "", nil, false
		}
		return name, append(path, v.Field), true
	}
	return "", nil, false
}

func desugarCompound(bin ast.Binary) ast.Expr {
	if bin.Op == ast.OpAssign {
		return bin.Right
	}
	var op ast.BinaryOp
	switch bin.Op {
	case ast.OpAddAssign:
		op = ast.OpAdd
	case ast.OpSubAssign:
		op = ast.OpSub
	case ast.OpMulAssign:
		op = ast.OpMul
	case ast.OpDivAssign:
		op = ast.OpDiv
	}
	return ast.Binary{Left: bin.Left, Op: op, Right: bin.Right, Sp: bin.Sp}
}

// --- expressions: precedence climbing ---
// assignment (right-assoc) > or > and > equality > relational > additive >
// multiplicative > unary > primary

func (p *Parser) parseExpr() ast.Expr { return p.parseAssignment() }

func (p *Parser) parseAssignment() ast.Expr {
	left := p.parseOr()
	var op ast.BinaryOp
	switch p.cur().Kind {
	case token.Assign:
		op = ast.OpAssign
	case token.PlusEq:
		op = ast.OpAddAssign
	case token.MinusEq:
		op = ast.OpSubAssign
	case token.StarEq:
		op = ast.OpMulAssign
	case token.SlashEq:
		op = ast.OpDivAssign
	default:
		return left
	}
	p.advance()
	right := p.parseAssignment()
	return ast.Binary{Left: left, Op: op, Right: right, Sp: left.Span().Merge(right.Span())}
}

func (p *Parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.at(token.OrOr) {
		p.advance()
		right := p.parseAnd()
		left = ast.Binary{Left: left, Op: ast.OpOr, Right: right, Sp: left.Span().Merge(right.Span())}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	for p.at(token.AndAnd) {
		p.advance()
		right := p.parseEquality()
		left = ast.Binary{Left: left, Op: ast.OpAnd, Right: right, Sp: left.Span().Merge(right.Span())}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	left := p.parseRelational()
	for p.at(token.Eq) || p.at(token.NotEq) {
		op := ast.OpEq
		if p.at(token.NotEq) {
			op = ast.OpNeq
		}
		p.advance()
		right := p.parseRelational()
		left = ast.Binary{Left: left, Op: op, Right: right, Sp: left.Span().Merge(right.Span())}
	}
	return left
}

func (p *Parser) parseRelational() ast.Expr {
	left := p.parseAdditive()
	for {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case token.Lt:
			op = ast.OpLt
		case token.Gt:
			op = ast.OpGt
		case token.LtEq:
			op = ast.OpLe
		case token.GtEq:
			op = ast.OpGe
		default:
			return left
		}
		p.advance()
		right := p.parseAdditive()
		left = ast.Binary{Left: left, Op: op, Right: right, Sp: left.Span().Merge(right.Span())}
	}
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case token.Plus:
			op = ast.OpAdd
		case token.Minus:
			op = ast.OpSub
		default:
			return left
		}
		p.advance()
		right := p.parseMultiplicative()
		left = ast.Binary{Left: left, Op: op, Right: right, Sp: left.Span().Merge(right.Span())}
	}
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case token.Star:
			op = ast.OpMul
		case token.Slash:
			op = ast.OpDiv
		case token.Caret:
			op = ast.OpXor
		default:
			return left
		}
		p.advance()
		right := p.parseUnary()
		left = ast.Binary{Left: left, Op: op, Right: right, Sp: left.Span().Merge(right.Span())}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur().Kind {
	case token.Minus:
		t := p.advance()
		operand := p.parseUnary()
		return ast.Unary{Op: ast.OpNeg, Operand: operand, Sp: t.Span.Merge(operand.Span())}
	case token.Bang:
		t := p.advance()
		operand := p.parseUnary()
		return ast.Unary{Op: ast.OpNot, Operand: operand, Sp: t.Span.Merge(operand.Span())}
	case token.PlusPlus:
		t := p.advance()
		operand := p.parseUnary()
		return ast.Unary{Op: ast.OpPreIncrement, Operand: operand, Sp: t.Span.Merge(operand.Span())}
	case token.MinusMinus:
		t := p.advance()
		operand := p.parseUnary()
		return ast.Unary{Op: ast.OpPreDecrement, Operand: operand, Sp: t.Span.Merge(operand.Span())}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.Dot:
			p.advance()
			field := p.expect(token.Ident, "expected a field name")
			e = ast.MemberAccess{Base: e, Field: field.Literal, Sp: e.Span().Merge(field.Span)}
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			end := p.expect(token.RBracket, "expected ']'")
			e = ast.Index{Base: e, Index: idx, Sp: e.Span().Merge(end.Span)}
		case token.PlusPlus:
			t := p.advance()
			e = ast.Unary{Op: ast.OpPostIncrement, Operand: e, Sp: e.Span().Merge(t.Span)}
		case token.MinusMinus:
			t := p.advance()
			e = ast.Unary{Op: ast.OpPostDecrement, Operand: e, Sp: e.Span().Merge(t.Span)}
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	switch p.cur().Kind {
	case token.IntLit:
		t := p.advance()
		v, _ := strconv.ParseInt(t.Literal, 10, 64)
		return ast.LiteralInt{Value: v, Sp: t.Span}
	case token.FloatLit:
		t := p.advance()
		v, _ := strconv.ParseFloat(t.Literal, 64)
		return ast.LiteralFloat{Value: v, Sp: t.Span}
	case token.KwTrue:
		t := p.advance()
		return ast.LiteralBool{Value: true, Sp: t.Span}
	case token.KwFalse:
		t := p.advance()
		return ast.LiteralBool{Value: false, Sp: t.Span}
	case token.StringLit:
		t := p.advance()
		return ast.LiteralString{Value: t.Literal, Sp: t.Span}
	case token.QubitLit:
		t := p.advance()
		bits := make([]byte, len(t.Literal))
		for i := 0; i < len(t.Literal); i++ {
			if t.Literal[i] == '1' {
				bits[i] = 1
			}
		}
		return ast.LiteralQubit{Bits: ast.BitString{Bits: bits, Span: t.Span}, Sp: t.Span}
	case token.LParen:
		start := p.advance()
		if p.at(token.RParen) {
			end := p.advance()
			return ast.TupleLit{Sp: start.Span.Merge(end.Span)}
		}
		first := p.parseExpr()
		if _, ok := p.match(token.Comma); ok {
			elems := []ast.Expr{first}
			for !p.at(token.RParen) && !p.at(token.EOF) {
				elems = append(elems, p.parseExpr())
				if _, ok := p.match(token.Comma); !ok {
					break
				}
			}
			end := p.expect(token.RParen, "expected ')'")
			return ast.TupleLit{Elems: elems, Sp: start.Span.Merge(end.Span)}
		}
		end := p.expect(token.RParen, "expected ')'")
		_ = end
		return first
	case token.Ident:
		return p.parseIdentStartingExpr()
	default:
		sp := p.cur().Span
		p.errorf(sp, "expected an expression", "unexpected token %s", p.cur().Kind)
		p.advance()
		return ast.LiteralInt{Value: 0, Sp: sp}
	}
}

func (p *Parser) parseIdentStartingExpr() ast.Expr {
	name := p.advance()
	if p.at(token.LBrace) && isStructLiteralContext(p) {
		return p.parseStructLiteral(name)
	}
	if !p.at(token.LParen) {
		return ast.Variable{Name: name.Literal, Sp: name.Span}
	}
	p.advance() // (
	var args []ast.Expr
	for !p.at(token.RParen) && !p.at(token.EOF) {
		args = append(args, p.parseExpr())
		if _, ok := p.match(token.Comma); !ok {
			break
		}
	}
	end := p.expect(token.RParen, "expected ')'")
	sp := name.Span.Merge(end.Span)

	if name.Literal == "measure" {
		if len(args) != 1 {
			p.errorf(sp, "measure takes exactly one argument", "measure(...) called with %d arguments", len(args))
		}
		var arg ast.Expr
		if len(args) > 0 {
			arg = args[0]
		}
		return ast.Measure{Operand: arg, Sp: sp}
	}
	if kind, ok := ast.GateByName(name.Literal); ok {
		g := ast.Gate{Kind: kind}
		gateArgs := args
		if kind == ast.GateRX || kind == ast.GateRY || kind == ast.GateRZ {
			if len(args) > 0 {
				g.Angle = args[0]
				gateArgs = args[1:]
			}
		}
		return ast.GateApply{Gate: g, Args: gateArgs, Sp: sp}
	}
	return ast.Call{Callee: name.Literal, Args: args, Sp: sp}
}

// isStructLiteralContext is a small lookahead heuristic: `Name { field: ... }`
// is a struct literal only when the brace is immediately followed by an
// identifier and a colon (or an immediate close brace), which keeps it from
// swallowing a following block statement like `if cond { ... }`.
func isStructLiteralContext(p *Parser) bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	next := p.toks[p.pos+1]
	if next.Kind == token.RBrace {
		return true
	}
	return next.Kind == token.Ident && p.pos+2 < len(p.toks) && p.toks[p.pos+2].Kind == token.Colon
}

func (p *Parser) parseStructLiteral(name token.Token) ast.Expr {
	p.expect(token.LBrace, "")
	var fields []ast.StructFieldInit
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		fname := p.expect(token.Ident, "expected a field name")
		p.expect(token.Colon, "")
		fval := p.parseExpr()
		fields = append(fields, ast.StructFieldInit{Name: fname.Literal, Value: fval})
		if _, ok := p.match(token.Comma); !ok {
			break
		}
	}
	end := p.expect(token.RBrace, "expected '}'")
	return ast.StructLit{Name: name.Literal, Fields: fields, Sp: name.Span.Merge(end.Span)}
}
