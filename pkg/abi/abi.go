// Package abi decides how values cross function boundaries for a given
// calling convention: whether a return value travels through a hidden sret
// pointer, whether a by-value aggregate is passed indirectly, and how the
// low-level parameter list of a function is rewritten to match. Two
// strategies are live at once, one for the compilation target's native
// convention and one for compiler intrinsics.
package abi

import (
	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/xplshn/glc/pkg/ast"
)

// Rewrite transforms one value crossing a call boundary. FromNative
// produces the rewritten representation used on the wire; ToNative
// reconstructs the original-shaped value from it. RewrittenType is the
// low-level type both sides of the call must agree on.
type Rewrite interface {
	ToNative(t *ast.Type, v value.Value, b *ir.Block) value.Value
	FromNative(t *ast.Type, v value.Value, b *ir.Block) value.Value
	RewrittenType(t *ast.Type, low lltypes.Type) lltypes.Type
}

// StoreRewrite is an optional capability: reconstruct the native value
// directly into caller-supplied storage without materializing it first.
type StoreRewrite interface {
	ToNativeStore(t *ast.Type, v value.Value, dst value.Value, b *ir.Block)
}

// StoreNative stores the reconstructed native form of v into dst, using the
// rewrite's direct-to-location path when it has one.
func StoreNative(rw Rewrite, t *ast.Type, v value.Value, dst value.Value, b *ir.Block) {
	if sr, ok := rw.(StoreRewrite); ok {
		sr.ToNativeStore(t, v, dst, b)
		return
	}
	b.NewStore(rw.ToNative(t, v, b), dst)
}

// Arg is one value slot of a lowered signature: a parameter, or the return
// value. LowType starts as the plain lowering of Type and is replaced by
// the rewrite's type when a rewrite applies.
type Arg struct {
	Type    *ast.Type
	LowType lltypes.Type
	Rewrite Rewrite // nil: passed directly
	ByVal   bool    // indirect by-value parameter (caller-allocated copy)
}

// Signature is the low-level shape of one function type. It is built once
// per source function type and rewritten in place by a TargetABI.
type Signature struct {
	Source *ast.Type // TYPE_FUNC

	Ret      *Arg
	RetInArg bool // return through a hidden sret pointer argument
	Params   []*Arg
	Variadic bool

	rewritten bool
}

// NewSignature lowers a source function type without applying any
// convention-specific rewriting.
func NewSignature(ft *ast.Type, wordSize int) *Signature {
	sig := &Signature{
		Source:   ft,
		Ret:      &Arg{Type: ft.Return, LowType: LowerType(ft.Return, wordSize)},
		Variadic: ft.Variadic,
	}
	for _, p := range ft.Params {
		sig.Params = append(sig.Params, &Arg{Type: p, LowType: LowerType(p, wordSize)})
	}
	return sig
}

func (s *Signature) Rewritten() bool { return s.rewritten }

// LowRet is the low-level return type after rewriting.
func (s *Signature) LowRet() lltypes.Type {
	if s.RetInArg {
		return lltypes.Void
	}
	return s.Ret.LowType
}

// LowParams is the full low-level parameter type list, hidden sret pointer
// first when the return goes through one.
func (s *Signature) LowParams() []lltypes.Type {
	var out []lltypes.Type
	if s.RetInArg {
		out = append(out, lltypes.NewPointer(s.Ret.LowType))
	}
	for _, p := range s.Params {
		out = append(out, p.LowType)
	}
	return out
}

// TargetABI is implemented once per supported calling convention.
type TargetABI interface {
	// ReturnInArg reports whether the return value must be passed
	// through a hidden pointer argument.
	ReturnInArg(ft *ast.Type) bool
	// PassByVal reports whether a by-value parameter of this type is
	// passed via an implicit pointer to a caller-allocated temporary.
	PassByVal(t *ast.Type) bool
	// NewFunctionType and DoneWithFunctionType bracket the rewriting of
	// one signature, for strategies that keep scratch state.
	NewFunctionType(ft *ast.Type)
	DoneWithFunctionType()
	// RewriteFunctionType mutates sig to reflect the convention.
	// Idempotent: a second invocation on the same signature is a no-op.
	RewriteFunctionType(sig *Signature)
}

// RewriteSignature runs the full rewrite lifecycle on sig.
func RewriteSignature(t TargetABI, sig *Signature) {
	if sig.rewritten {
		return
	}
	t.NewFunctionType(sig.Source)
	t.RewriteFunctionType(sig)
	t.DoneWithFunctionType()
}
