package abi

import (
	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/xplshn/glc/pkg/ast"
	"github.com/xplshn/glc/pkg/util"
)

// maxRegisterBytes is the classification threshold: aggregates larger than
// two eightbytes always go to memory under the SysV model.
const maxRegisterBytes = 16

// sysvABI approximates the x86-64 SysV classification: aggregates above the
// register threshold (or with non-trivial copy semantics) are returned via
// sret and passed byval; small aggregates are packed into an integer of
// their size.
type sysvABI struct {
	wordSize int
}

// ForTarget returns the strategy for the compilation target's native
// calling convention.
func ForTarget(wordSize int) TargetABI {
	return &sysvABI{wordSize: wordSize}
}

func (a *sysvABI) classifyIndirect(t *ast.Type) bool {
	if !t.IsStruct() {
		return false
	}
	return t.NonTrivialCopy || SizeOf(t, a.wordSize) > maxRegisterBytes
}

func (a *sysvABI) ReturnInArg(ft *ast.Type) bool {
	if ft.Kind != ast.TYPE_FUNC {
		util.ICE("abi: ReturnInArg on non-function type %s", ft)
	}
	return a.classifyIndirect(ft.Return)
}

func (a *sysvABI) PassByVal(t *ast.Type) bool { return a.classifyIndirect(t) }

// The SysV classification keeps no scratch state across a rewrite, so the
// lifecycle hooks have nothing to do.
func (a *sysvABI) NewFunctionType(ft *ast.Type) {}
func (a *sysvABI) DoneWithFunctionType()        {}

func (a *sysvABI) RewriteFunctionType(sig *Signature) {
	if sig.rewritten {
		return
	}
	sig.rewritten = true

	if a.ReturnInArg(sig.Source) {
		sig.RetInArg = true
	} else if sig.Ret.Type.IsStruct() && SizeOf(sig.Ret.Type, a.wordSize) > 0 {
		a.applyIntegerRewrite(sig.Ret)
	}

	for _, p := range sig.Params {
		switch {
		case a.PassByVal(p.Type):
			p.ByVal = true
			a.applyRewrite(p, &indirectRewrite{wordSize: a.wordSize})
		case p.Type.IsStruct() && SizeOf(p.Type, a.wordSize) > 0:
			a.applyIntegerRewrite(p)
		}
	}
}

func (a *sysvABI) applyIntegerRewrite(arg *Arg) {
	a.applyRewrite(arg, &integerRewrite{wordSize: a.wordSize})
}

func (a *sysvABI) applyRewrite(arg *Arg, rw Rewrite) {
	arg.Rewrite = rw
	arg.LowType = rw.RewrittenType(arg.Type, arg.LowType)
}

// indirectRewrite passes a by-value aggregate through a pointer to a
// caller-allocated temporary.
type indirectRewrite struct{ wordSize int }

func (r *indirectRewrite) RewrittenType(t *ast.Type, low lltypes.Type) lltypes.Type {
	return lltypes.NewPointer(low)
}

func (r *indirectRewrite) FromNative(t *ast.Type, v value.Value, b *ir.Block) value.Value {
	tmp := b.NewAlloca(LowerType(t, r.wordSize))
	tmp.SetName("byval.tmp")
	b.NewStore(v, tmp)
	return tmp
}

func (r *indirectRewrite) ToNative(t *ast.Type, v value.Value, b *ir.Block) value.Value {
	return b.NewLoad(LowerType(t, r.wordSize), v)
}

// ToNativeStore copies straight from the incoming pointer into dst,
// skipping the intermediate value StoreNative would otherwise build.
func (r *indirectRewrite) ToNativeStore(t *ast.Type, v value.Value, dst value.Value, b *ir.Block) {
	b.NewStore(b.NewLoad(LowerType(t, r.wordSize), v), dst)
}

// integerRewrite packs a small aggregate into an integer of its size, the
// form register passing expects.
type integerRewrite struct{ wordSize int }

func (r *integerRewrite) intType(t *ast.Type) *lltypes.IntType {
	return lltypes.NewInt(uint64(SizeOf(t, r.wordSize) * 8))
}

func (r *integerRewrite) RewrittenType(t *ast.Type, low lltypes.Type) lltypes.Type {
	return r.intType(t)
}

func (r *integerRewrite) FromNative(t *ast.Type, v value.Value, b *ir.Block) value.Value {
	low := LowerType(t, r.wordSize)
	tmp := b.NewAlloca(low)
	tmp.SetName("pack.tmp")
	b.NewStore(v, tmp)
	cast := b.NewBitCast(tmp, lltypes.NewPointer(r.intType(t)))
	return b.NewLoad(r.intType(t), cast)
}

func (r *integerRewrite) ToNative(t *ast.Type, v value.Value, b *ir.Block) value.Value {
	low := LowerType(t, r.wordSize)
	tmp := b.NewAlloca(low)
	tmp.SetName("unpack.tmp")
	cast := b.NewBitCast(tmp, lltypes.NewPointer(r.intType(t)))
	b.NewStore(v, cast)
	return b.NewLoad(low, tmp)
}
