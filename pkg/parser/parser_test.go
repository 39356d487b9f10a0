package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xplshn/glc/pkg/ast"
)

func TestParseValidProgram(t *testing.T) {
	res, err := Parse("valid.yaml", []byte(`
target: arm64
classes:
  - name: Base
  - name: Derived
    base: Base
structs:
  - name: point
    fields:
      - { name: x, type: int32 }
      - { name: y, type: int32 }
funcs:
  - name: risky
    extern: true
  - name: move
    extern: true
    params:
      - { name: p, type: point }
  - name: run
    body:
      - var: { name: n, type: int64, init: { int: 42 } }
      - assign: { name: n, value: { int: 7 } }
      - try:
          body:
            - call: risky
          catches:
            - class: Derived
              var: d
              body: []
          finally:
            - call: risky
      - return:
`))
	require.NoError(t, err)
	require.Equal(t, "arm64", res.Target)

	prog := res.Program
	base := prog.FindClass("Base")
	derived := prog.FindClass("Derived")
	require.NotNil(t, base)
	require.NotNil(t, derived)
	require.Equal(t, base, derived.Base)
	require.True(t, derived.DerivesFrom(base))

	risky := prog.FindFunc("risky").Data.(ast.FuncDeclNode)
	require.Nil(t, risky.Body)

	move := prog.FindFunc("move").Data.(ast.FuncDeclNode)
	require.Len(t, move.FuncType.Params, 1)
	require.True(t, move.FuncType.Params[0].IsStruct())

	run := prog.FindFunc("run").Data.(ast.FuncDeclNode)
	require.NotNil(t, run.Body)
	stmts := run.Body.Data.(ast.BlockNode).Stmts
	require.Len(t, stmts, 4)
	require.Equal(t, ast.VarDecl, stmts[0].Type)
	require.Equal(t, ast.Assign, stmts[1].Type)
	require.Equal(t, ast.Try, stmts[2].Type)
	require.Equal(t, ast.Return, stmts[3].Type)

	try := stmts[2].Data.(ast.TryNode)
	require.Len(t, try.Catches, 1)
	require.Equal(t, derived, try.Catches[0].Class)
	require.NotNil(t, try.Catches[0].Var)
	require.NotNil(t, try.Finally)

	ret := stmts[3].Data.(ast.ReturnNode)
	require.Nil(t, ret.Expr)
}

func TestCallShorthand(t *testing.T) {
	res, err := Parse("shorthand.yaml", []byte(`
funcs:
  - name: helper
    extern: true
  - name: run
    body:
      - call: helper
`))
	require.NoError(t, err)

	run := res.Program.FindFunc("run").Data.(ast.FuncDeclNode)
	stmts := run.Body.Data.(ast.BlockNode).Stmts
	require.Len(t, stmts, 1)
	require.Equal(t, ast.FuncCall, stmts[0].Type)
	require.Equal(t, "helper", stmts[0].Data.(ast.FuncCallNode).Name)
}

func TestUnknownBaseClass(t *testing.T) {
	_, err := Parse("bad.yaml", []byte(`
classes:
  - name: Derived
    base: Missing
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown base class 'Missing'")
}

func TestErrorsAccumulate(t *testing.T) {
	_, err := Parse("bad.yaml", []byte(`
funcs:
  - name: broken
    params:
      - { name: p, type: nosuchtype }
    body:
      - throw: NoSuchClass
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown type 'nosuchtype'")
	require.Contains(t, err.Error(), "throw of unknown class 'NoSuchClass'")
}

func TestTryRequiresHandlerOrFinally(t *testing.T) {
	_, err := Parse("bad.yaml", []byte(`
funcs:
  - name: run
    body:
      - try:
          body:
            - return:
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "neither catch nor finally")
}

func TestExternWithBodyRejected(t *testing.T) {
	_, err := Parse("bad.yaml", []byte(`
funcs:
  - name: ext
    extern: true
    body:
      - return:
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not have a body")
}

func TestPointerTypeSyntax(t *testing.T) {
	res, err := Parse("ptr.yaml", []byte(`
funcs:
  - name: take
    extern: true
    params:
      - { name: p, type: "*int32" }
`))
	require.NoError(t, err)

	take := res.Program.FindFunc("take").Data.(ast.FuncDeclNode)
	p := take.FuncType.Params[0]
	require.Equal(t, ast.TYPE_POINTER, p.Kind)
	require.Equal(t, ast.TypeInt32, p.Base)
}
