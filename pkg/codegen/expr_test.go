package codegen

import (
	"testing"

	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/glc/pkg/ast"
)

func storesIn(b *ir.Block) []*ir.InstStore {
	var out []*ir.InstStore
	for _, inst := range b.Insts {
		if st, ok := inst.(*ir.InstStore); ok {
			out = append(out, st)
		}
	}
	return out
}

// An integer literal has no width of its own; it must take the width of the
// slot it feeds instead of defaulting to i64 and tripping over the store.
func TestIntegerLiteralTakesSlotWidth(t *testing.T) {
	mod := lowerYAML(t, `
funcs:
  - name: f
    body:
      - var: { name: x, type: int32, init: { int: 5 } }
      - assign: { name: x, value: { int: 9 } }
      - var: { name: ok, type: bool, init: { int: 1 } }
`)
	entry := findFunc(t, mod, "f").Blocks[0]
	stores := storesIn(entry)
	require.Len(t, stores, 3)
	require.True(t, stores[0].Src.Type().Equal(lltypes.I32))
	require.True(t, stores[1].Src.Type().Equal(lltypes.I32))
	require.True(t, stores[2].Src.Type().Equal(lltypes.I1))
}

func TestIntegerLiteralInCallArgument(t *testing.T) {
	mod := lowerYAML(t, `
funcs:
  - name: take
    extern: true
    params:
      - { name: n, type: int16 }
  - name: g
    body:
      - call: { fn: take, args: [{ int: 7 }] }
`)
	entry := findFunc(t, mod, "g").Blocks[0]
	call := soleCall(t, entry, "take")
	require.True(t, call.Args[0].Type().Equal(lltypes.I16))
}

func TestIntegerLiteralInReturn(t *testing.T) {
	mod := lowerYAML(t, `
funcs:
  - name: h
    ret: int8
    body:
      - return: { int: 3 }
`)
	entry := findFunc(t, mod, "h").Blocks[0]
	ret, ok := entry.Term.(*ir.TermRet)
	require.True(t, ok)
	require.True(t, ret.X.Type().Equal(lltypes.I8))
}

func TestVariadicTailLiteralDefaultsToI64(t *testing.T) {
	mod := lowerYAML(t, `
funcs:
  - name: trace
    extern: true
    variadic: true
    params:
      - { name: code, type: int32 }
  - name: g
    body:
      - call: { fn: trace, args: [{ int: 1 }, { int: 2 }] }
`)
	entry := findFunc(t, mod, "g").Blocks[0]
	call := soleCall(t, entry, "trace")
	require.Len(t, call.Args, 2)
	require.True(t, call.Args[0].Type().Equal(lltypes.I32))
	require.True(t, call.Args[1].Type().Equal(lltypes.I64))
}

func TestLiteralRangeChecks(t *testing.T) {
	require.True(t, literalFits(127, ast.TypeInt8))
	require.False(t, literalFits(128, ast.TypeInt8))
	require.True(t, literalFits(-128, ast.TypeInt8))
	require.False(t, literalFits(-129, ast.TypeInt8))
	require.True(t, literalFits(255, ast.TypeUint8))
	require.False(t, literalFits(256, ast.TypeUint8))
	require.False(t, literalFits(-1, ast.TypeUint8))
	require.True(t, literalFits(1<<62, ast.TypeInt64))
}
