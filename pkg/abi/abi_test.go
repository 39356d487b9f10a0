package abi

import (
	"testing"

	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/glc/pkg/ast"
)

const testWordSize = 8

func pairType() *ast.Type {
	return ast.NewStruct("pair",
		ast.Field{Name: "a", Type: ast.TypeInt32},
		ast.Field{Name: "b", Type: ast.TypeInt32},
	)
}

func tripleType() *ast.Type {
	return ast.NewStruct("triple",
		ast.Field{Name: "x", Type: ast.TypeInt64},
		ast.Field{Name: "y", Type: ast.TypeInt64},
		ast.Field{Name: "z", Type: ast.TypeInt64},
	)
}

func rewritten(t *testing.T, ft *ast.Type) *Signature {
	t.Helper()
	sig := NewSignature(ft, testWordSize)
	RewriteSignature(ForTarget(testWordSize), sig)
	return sig
}

func TestSizeAndAlignment(t *testing.T) {
	require.Equal(t, int64(8), SizeOf(pairType(), testWordSize))
	require.Equal(t, int64(4), AlignOf(pairType(), testWordSize))
	require.Equal(t, int64(24), SizeOf(tripleType(), testWordSize))
	require.Equal(t, int64(8), AlignOf(tripleType(), testWordSize))

	// padding between a narrow and a wide field
	mixed := ast.NewStruct("mixed",
		ast.Field{Name: "a", Type: ast.TypeInt32},
		ast.Field{Name: "b", Type: ast.TypeInt64},
	)
	require.Equal(t, int64(16), SizeOf(mixed, testWordSize))
	require.Equal(t, int64(8), AlignOf(mixed, testWordSize))
}

func TestClassLowersToOpaquePointer(t *testing.T) {
	cls := ast.NewClass("Widget", nil)
	require.True(t, LowerType(cls, testWordSize).Equal(lltypes.I8Ptr))
	require.Equal(t, int64(testWordSize), SizeOf(cls, testWordSize))
}

func TestSmallStructPacksIntoInteger(t *testing.T) {
	sig := rewritten(t, ast.NewFunc(pairType(), pairType()))

	require.False(t, sig.RetInArg)
	require.NotNil(t, sig.Ret.Rewrite)
	require.True(t, sig.Ret.LowType.Equal(lltypes.I64))

	p := sig.Params[0]
	require.False(t, p.ByVal)
	require.NotNil(t, p.Rewrite)
	require.True(t, p.LowType.Equal(lltypes.I64))
	require.True(t, sig.LowRet().Equal(lltypes.I64))
}

func TestLargeStructGoesIndirect(t *testing.T) {
	sig := rewritten(t, ast.NewFunc(tripleType(), tripleType()))

	require.True(t, sig.RetInArg)
	require.True(t, sig.LowRet().Equal(lltypes.Void))

	p := sig.Params[0]
	require.True(t, p.ByVal)
	require.NotNil(t, p.Rewrite)

	low := sig.LowParams()
	require.Len(t, low, 2)
	require.True(t, low[0].Equal(lltypes.NewPointer(sig.Ret.LowType)))
	_, isPtr := p.LowType.(*lltypes.PointerType)
	require.True(t, isPtr)
}

func TestNonTrivialCopyForcesIndirect(t *testing.T) {
	small := pairType()
	small.NonTrivialCopy = true
	target := ForTarget(testWordSize)

	require.True(t, target.PassByVal(small))
	require.True(t, target.ReturnInArg(ast.NewFunc(small)))

	sig := rewritten(t, ast.NewFunc(small, small))
	require.True(t, sig.RetInArg)
	require.True(t, sig.Params[0].ByVal)
}

func TestRewriteIsIdempotent(t *testing.T) {
	sig := rewritten(t, ast.NewFunc(tripleType(), tripleType(), pairType()))
	require.True(t, sig.Rewritten())

	retLow, p0Low, p1Low := sig.Ret.LowType, sig.Params[0].LowType, sig.Params[1].LowType
	RewriteSignature(ForTarget(testWordSize), sig)

	require.True(t, sig.RetInArg)
	require.True(t, sig.Ret.LowType.Equal(retLow))
	require.True(t, sig.Params[0].LowType.Equal(p0Low))
	require.True(t, sig.Params[1].LowType.Equal(p1Low))
	require.Len(t, sig.LowParams(), 3)
}

func TestIntegerRewriteRoundTrip(t *testing.T) {
	sig := rewritten(t, ast.NewFunc(ast.TypeVoid, pairType()))
	rw := sig.Params[0].Rewrite
	require.NotNil(t, rw)

	m := ir.NewModule()
	f := m.NewFunc("scratch", lltypes.Void)
	b := f.NewBlock("entry")

	low := LowerType(pairType(), testWordSize)
	slot := b.NewAlloca(low)
	native := b.NewLoad(low, slot)

	packed := rw.FromNative(pairType(), native, b)
	require.True(t, packed.Type().Equal(lltypes.I64))

	back := rw.ToNative(pairType(), packed, b)
	require.True(t, back.Type().Equal(low))
}

func TestIndirectRewriteStoresThroughPointer(t *testing.T) {
	sig := rewritten(t, ast.NewFunc(ast.TypeVoid, tripleType()))
	rw := sig.Params[0].Rewrite
	require.NotNil(t, rw)

	m := ir.NewModule()
	f := m.NewFunc("scratch", lltypes.Void)
	b := f.NewBlock("entry")

	low := LowerType(tripleType(), testWordSize)
	slot := b.NewAlloca(low)
	native := b.NewLoad(low, slot)

	ptr := rw.FromNative(tripleType(), native, b)
	require.True(t, ptr.Type().Equal(lltypes.NewPointer(low)))

	// the direct-to-location path must end in a store into dst
	dst := b.NewAlloca(low)
	StoreNative(rw, tripleType(), ptr, dst, b)
	last, ok := b.Insts[len(b.Insts)-1].(*ir.InstStore)
	require.True(t, ok)
	require.Equal(t, dst, last.Dst)
}

func TestEmptyStructStaysDirect(t *testing.T) {
	empty := ast.NewStruct("empty")
	sig := rewritten(t, ast.NewFunc(empty, empty))

	require.False(t, sig.RetInArg)
	require.Nil(t, sig.Ret.Rewrite)
	require.Nil(t, sig.Params[0].Rewrite)
}

func TestIntrinsicSignatureUntouched(t *testing.T) {
	sig := NewSignature(ast.NewFunc(tripleType(), tripleType()), testWordSize)
	RewriteSignature(ForIntrinsics(), sig)

	require.True(t, sig.Rewritten())
	require.False(t, sig.RetInArg)
	require.Nil(t, sig.Ret.Rewrite)
	require.Nil(t, sig.Params[0].Rewrite)
	require.False(t, sig.Params[0].ByVal)
}
