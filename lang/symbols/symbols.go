// Package symbols implements the lexically scoped symbol table used by the
// semantic analyzer.
package symbols

import (
	"fmt"

	"github.com/qclabs/qcl/lang/ast"
)

// Kind distinguishes the four symbol flavors the table can hold.
type Kind int

const (
	KindVariable Kind = iota
	KindFunction
	KindTypeAlias
	KindStruct
)

// Symbol is one entry in a scope.
type Symbol struct {
	Kind Kind

	// Variable
	Type    ast.Type
	Mutable bool
	Defined bool

	// Function
	Params     []ast.Type
	ReturnType ast.Type

	// TypeAlias
	AliasTarget ast.Type

	// Struct
	StructDef ast.StructDef
}

// Table is a stack of scopes, each a name-to-Symbol map. Shadowing across
// scopes is allowed; redefinition within the same scope fails.
type Table struct {
	scopes []map[string]Symbol
}

// New creates a Table with a single (global) scope already pushed.
func New() *Table {
	t := &Table{}
	t.PushScope()
	return t
}

// PushScope opens a new, empty scope on top of the stack.
func (t *Table) PushScope() {
	t.scopes = append(t.scopes, map[string]Symbol{})
}

// PopScope discards the innermost scope. Safe to call even if a caller
// above already failed and is unwinding via a deferred PopScope, which is
// how scope balance is guaranteed on every exit path.
func (t *Table) PopScope() {
	if len(t.scopes) == 0 {
		return
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Depth reports the number of currently open scopes, for tests that assert
// scopes are balanced.
func (t *Table) Depth() int { return len(t.scopes) }

// Insert adds name to the innermost scope. It fails if name already exists
// in that same scope (shadowing an outer scope's name is fine).
func (t *Table) Insert(name string, sym Symbol) error {
	top := t.scopes[len(t.scopes)-1]
	if _, exists := top[name]; exists {
		return fmt.Errorf("symbol %q already defined in this scope", name)
	}
	top[name] = sym
	return nil
}

// Lookup searches scopes from innermost to outermost.
func (t *Table) Lookup(name string) (Symbol, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i][name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

// LookupLocal searches only the innermost scope, used by redefinition
// checks that must not see outer-scope shadowing as a conflict.
func (t *Table) LookupLocal(name string) (Symbol, bool) {
	top := t.scopes[len(t.scopes)-1]
	sym, ok := top[name]
	return sym, ok
}
