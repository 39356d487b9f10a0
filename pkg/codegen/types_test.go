package codegen

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/glc/pkg/config"
	"github.com/xplshn/glc/pkg/parser"
)

func findTypeInfoGlobal(t *testing.T, m *ir.Module, class string) *ir.Global {
	t.Helper()
	for _, g := range m.Globals {
		if strings.HasPrefix(g.Name(), "_gxti_"+class+"_") {
			return g
		}
	}
	t.Fatalf("no TypeInfo global for class %q", class)
	return nil
}

func TestTypeInfoGlobalLayout(t *testing.T) {
	mod := lowerYAML(t, multiCatchSrc)

	base := findTypeInfoGlobal(t, mod, "Base")
	require.True(t, base.Immutable)
	baseInit, ok := base.Init.(*constant.Struct)
	require.True(t, ok)
	require.Len(t, baseInit.Fields, 2)
	_, isNull := baseInit.Fields[0].(*constant.Null)
	require.True(t, isNull, "root class must have a null base reference")
	_, isNull = baseInit.Fields[1].(*constant.Null)
	require.False(t, isNull, "class name is embedded by default")

	// the derived TypeInfo points back at the base's global
	derived := findTypeInfoGlobal(t, mod, "DerivedA")
	derivedInit := derived.Init.(*constant.Struct)
	baseRef, ok := derivedInit.Fields[0].(*constant.ExprBitCast)
	require.True(t, ok)
	require.Equal(t, base, baseRef.From)
}

func TestTypeInfoNamesCanBeDisabled(t *testing.T) {
	res, err := parser.Parse("test.yaml", []byte(multiCatchSrc))
	require.NoError(t, err)
	cfg := config.NewConfig()
	cfg.SetTarget("amd64", "amd64_sysv")
	cfg.SetFeature(config.FeatTypeInfoNames, false)
	mod := NewContext(cfg).Generate(res.Program)

	base := findTypeInfoGlobal(t, mod, "Base")
	baseInit := base.Init.(*constant.Struct)
	_, isNull := baseInit.Fields[1].(*constant.Null)
	require.True(t, isNull)
}

func TestTypeInfoEmittedOncePerClass(t *testing.T) {
	mod := lowerYAML(t, multiCatchSrc)

	var count int
	for _, g := range mod.Globals {
		if strings.HasPrefix(g.Name(), "_gxti_Base_") {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestStringConstantsInterned(t *testing.T) {
	mod := lowerYAML(t, `
funcs:
  - name: consume
    extern: true
    params:
      - { name: s, type: string }
  - name: speak
    body:
      - call: { fn: consume, args: [{ str: hello }] }
      - call: { fn: consume, args: [{ str: hello }] }
      - call: { fn: consume, args: [{ str: world }] }
`)
	var count int
	for _, g := range mod.Globals {
		if strings.HasPrefix(g.Name(), "str.") {
			count++
		}
	}
	require.Equal(t, 2, count, "identical strings must share one global")
}
