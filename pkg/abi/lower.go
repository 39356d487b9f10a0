package abi

import (
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/xplshn/glc/pkg/ast"
	"github.com/xplshn/glc/pkg/util"
)

// LowerType maps a source type to its low-level representation. Class
// values are object references and lower to opaque byte pointers; the
// richer object layout is the code generator's concern.
func LowerType(t *ast.Type, wordSize int) lltypes.Type {
	if t == nil {
		return lltypes.Void
	}
	switch t.Kind {
	case ast.TYPE_VOID:
		return lltypes.Void
	case ast.TYPE_BOOL:
		return lltypes.I1
	case ast.TYPE_INT:
		return lltypes.NewInt(uint64(t.Bits))
	case ast.TYPE_FLOAT:
		if t.Bits == 32 {
			return lltypes.Float
		}
		return lltypes.Double
	case ast.TYPE_POINTER:
		return lltypes.NewPointer(LowerType(t.Base, wordSize))
	case ast.TYPE_CLASS:
		return lltypes.I8Ptr
	case ast.TYPE_STRUCT:
		fields := make([]lltypes.Type, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = LowerType(f.Type, wordSize)
		}
		return lltypes.NewStruct(fields...)
	case ast.TYPE_FUNC:
		params := make([]lltypes.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = LowerType(p, wordSize)
		}
		ft := lltypes.NewFunc(LowerType(t.Return, wordSize), params...)
		ft.Variadic = t.Variadic
		return lltypes.NewPointer(ft)
	}
	util.ICE("abi: cannot lower type %s (kind %d)", t, t.Kind)
	return nil
}

// align returns the smallest y >= x such that y % a == 0.
func align(x, a int64) int64 {
	y := x + a - 1
	return y - y%a
}

// SizeOf is the in-memory size of t in bytes for the given word size.
func SizeOf(t *ast.Type, wordSize int) int64 {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case ast.TYPE_VOID:
		return 0
	case ast.TYPE_BOOL:
		return 1
	case ast.TYPE_INT, ast.TYPE_FLOAT:
		return int64(t.Bits) / 8
	case ast.TYPE_POINTER, ast.TYPE_CLASS, ast.TYPE_FUNC:
		return int64(wordSize)
	case ast.TYPE_STRUCT:
		var size int64
		for _, f := range t.Fields {
			size = align(size, AlignOf(f.Type, wordSize))
			size += SizeOf(f.Type, wordSize)
		}
		return align(size, AlignOf(t, wordSize))
	}
	util.ICE("abi: cannot size type %s (kind %d)", t, t.Kind)
	return 0
}

// AlignOf is the natural alignment of t in bytes.
func AlignOf(t *ast.Type, wordSize int) int64 {
	if t == nil {
		return 1
	}
	switch t.Kind {
	case ast.TYPE_STRUCT:
		a := int64(1)
		for _, f := range t.Fields {
			if fa := AlignOf(f.Type, wordSize); fa > a {
				a = fa
			}
		}
		return a
	default:
		if s := SizeOf(t, wordSize); s > 0 {
			if s > int64(wordSize) {
				return int64(wordSize)
			}
			return s
		}
		return 1
	}
}
