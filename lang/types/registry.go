// Package types resolves QCL type syntax against declared aliases and
// struct definitions, and answers structural questions like "is this type
// quantum".
package types

import (
	"fmt"

	"github.com/qclabs/qcl/lang/ast"
)

// Registry maps type-alias and struct names to their definitions.
type Registry struct {
	aliases map[string]ast.Type
	structs map[string]ast.StructDef
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{aliases: map[string]ast.Type{}, structs: map[string]ast.StructDef{}}
}

// ErrUnknownType is returned (wrapped) when a Named type cannot be resolved.
var ErrUnknownType = fmt.Errorf("unknown type")

// DefineAlias registers a type alias. It fails if the name is already used.
func (r *Registry) DefineAlias(name string, target ast.Type) error {
	if _, ok := r.aliases[name]; ok {
		return fmt.Errorf("type alias %q already defined", name)
	}
	if _, ok := r.structs[name]; ok {
		return fmt.Errorf("name %q already used by a struct", name)
	}
	r.aliases[name] = target
	return nil
}

// DefineStruct registers a struct definition. It fails if the name is
// already used by a struct or a type alias; field types are not resolved
// here.
func (r *Registry) DefineStruct(def ast.StructDef) error {
	if _, ok := r.structs[def.Name]; ok {
		return fmt.Errorf("struct %q already defined", def.Name)
	}
	if _, ok := r.aliases[def.Name]; ok {
		return fmt.Errorf("name %q already used by a type alias", def.Name)
	}
	r.structs[def.Name] = def
	return nil
}

// LookupStruct returns the struct definition for name, if any.
func (r *Registry) LookupStruct(name string) (ast.StructDef, bool) {
	d, ok := r.structs[name]
	return d, ok
}

// Resolve walks t, mapping Named(n) to a built-in, the alias target
// (recursively), or a retained struct-named placeholder. Resolve is total
// on well-formed programs and idempotent; an unresolvable Named(n) returns
// ErrUnknownType.
func (r *Registry) Resolve(t ast.Type) (ast.Type, error) {
	return r.resolveDepth(t, 0)
}

func (r *Registry) resolveDepth(t ast.Type, depth int) (ast.Type, error) {
	if depth > 64 {
		return nil, fmt.Errorf("type alias cycle detected")
	}
	switch v := t.(type) {
	case ast.NamedType:
		if target, ok := r.aliases[v.Name]; ok {
			return r.resolveDepth(target, depth+1)
		}
		if _, ok := r.structs[v.Name]; ok {
			return v, nil
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, v.Name)
	case ast.ArrayType:
		elem, err := r.resolveDepth(v.Elem, depth+1)
		if err != nil {
			return nil, err
		}
		return ast.ArrayType{Elem: elem, Size: v.Size}, nil
	case ast.TupleType:
		elems := make([]ast.Type, len(v.Elems))
		for i, e := range v.Elems {
			re, err := r.resolveDepth(e, depth+1)
			if err != nil {
				return nil, err
			}
			elems[i] = re
		}
		return ast.TupleType{Elems: elems}, nil
	case ast.FuncType:
		params := make([]ast.Type, len(v.Params))
		for i, e := range v.Params {
			re, err := r.resolveDepth(e, depth+1)
			if err != nil {
				return nil, err
			}
			params[i] = re
		}
		ret, err := r.resolveDepth(v.Return, depth+1)
		if err != nil {
			return nil, err
		}
		return ast.FuncType{Params: params, Return: ret}, nil
	default:
		return t, nil
	}
}

// IsQuantum is structural: true for Qubit, Qreg, any compound transitively
// containing one, and named structs whose definition contains a quantum
// field.
func (r *Registry) IsQuantum(t ast.Type) bool {
	return r.isQuantumDepth(t, 0)
}

func (r *Registry) isQuantumDepth(t ast.Type, depth int) bool {
	if depth > 64 {
		return false
	}
	switch v := t.(type) {
	case ast.QubitType, ast.QregType:
		return true
	case ast.ArrayType:
		return r.isQuantumDepth(v.Elem, depth+1)
	case ast.TupleType:
		for _, e := range v.Elems {
			if r.isQuantumDepth(e, depth+1) {
				return true
			}
		}
		return false
	case ast.NamedType:
		if target, ok := r.aliases[v.Name]; ok {
			return r.isQuantumDepth(target, depth+1)
		}
		if def, ok := r.structs[v.Name]; ok {
			for _, f := range def.Fields {
				if r.isQuantumDepth(f.Type, depth+1) {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

// AreCompatible reports whether a value of type actual can be used where
// expected is required: identical types match, and Int widens to Float.
func AreCompatible(expected, actual ast.Type) bool {
	if TypesEqual(expected, actual) {
		return true
	}
	if _, isFloat := expected.(ast.FloatType); isFloat {
		if _, isInt := actual.(ast.IntType); isInt {
			return true
		}
	}
	return false
}

// TypesEqual performs a structural equality check over the closed Type set.
func TypesEqual(a, b ast.Type) bool {
	switch av := a.(type) {
	case ast.IntType:
		_, ok := b.(ast.IntType)
		return ok
	case ast.FloatType:
		_, ok := b.(ast.FloatType)
		return ok
	case ast.BoolType:
		_, ok := b.(ast.BoolType)
		return ok
	case ast.StringType:
		_, ok := b.(ast.StringType)
		return ok
	case ast.QubitType:
		_, ok := b.(ast.QubitType)
		return ok
	case ast.CbitType:
		_, ok := b.(ast.CbitType)
		return ok
	case ast.UnitType:
		_, ok := b.(ast.UnitType)
		return ok
	case ast.QregType:
		bv, ok := b.(ast.QregType)
		return ok && av.Size == bv.Size
	case ast.ArrayType:
		bv, ok := b.(ast.ArrayType)
		return ok && av.Size == bv.Size && TypesEqual(av.Elem, bv.Elem)
	case ast.TupleType:
		bv, ok := b.(ast.TupleType)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !TypesEqual(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case ast.NamedType:
		bv, ok := b.(ast.NamedType)
		return ok && av.Name == bv.Name
	case ast.FuncType:
		bv, ok := b.(ast.FuncType)
		if !ok || len(av.Params) != len(bv.Params) {
			return false
		}
		for i := range av.Params {
			if !TypesEqual(av.Params[i], bv.Params[i]) {
				return false
			}
		}
		return TypesEqual(av.Return, bv.Return)
	default:
		return false
	}
}
