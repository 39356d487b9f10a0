package codegen

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/xplshn/glc/pkg/ast"
	"github.com/xplshn/glc/pkg/config"
	"github.com/xplshn/glc/pkg/util"
)

// classInfo carries the emitted TypeInfo for one class: the global itself
// and its i8* reference used in selector argument lists and typeid lookups.
type classInfo struct {
	typ    *ast.Type
	global *ir.Global
	ref    constant.Constant
}

// typeInfoLowType is the layout of an emitted TypeInfo global:
// { base TypeInfo, class name }.
func (c *Context) typeInfoLowType() *lltypes.StructType {
	if c.typeInfoType == nil {
		t := lltypes.NewStruct(lltypes.I8Ptr, lltypes.I8Ptr)
		c.mod.NewTypeDef("gx.typeinfo", t)
		c.typeInfoType = t
	}
	return c.typeInfoType
}

// classInfo returns the TypeInfo for a class, emitting it (and its base
// chain) on first use.
func (c *Context) classInfo(t *ast.Type) *classInfo {
	if !t.IsClass() {
		util.ICE("classInfo on non-class type %s", t)
	}
	if ci, ok := c.classes[t.Name]; ok {
		return ci
	}

	tiType := c.typeInfoLowType()
	baseRef := constant.Constant(constant.NewNull(lltypes.I8Ptr))
	if t.Base != nil {
		baseRef = c.classInfo(t.Base).ref
	}
	nameRef := constant.Constant(constant.NewNull(lltypes.I8Ptr))
	if c.cfg.IsFeatureEnabled(config.FeatTypeInfoNames) {
		nameRef = c.globalString(t.Name)
	}

	g := c.mod.NewGlobalDef(mangleTypeInfo(t.Name), constant.NewStruct(tiType, baseRef, nameRef))
	g.Immutable = true
	ci := &classInfo{
		typ:    t,
		global: g,
		ref:    constant.NewBitCast(g, lltypes.I8Ptr),
	}
	c.classes[t.Name] = ci
	c.log.Debug().Str("class", t.Name).Str("symbol", g.Name()).Msg("emitted typeinfo")
	return ci
}

// globalString interns a NUL-terminated string constant and returns its
// i8* reference.
func (c *Context) globalString(s string) constant.Constant {
	if ref, ok := c.strings[s]; ok {
		return ref
	}
	arr := constant.NewCharArrayFromString(s + "\x00")
	g := c.mod.NewGlobalDef(fmt.Sprintf("str.%x", xxhash.Sum64String(s)), arr)
	g.Immutable = true
	zero := constant.NewInt(lltypes.I32, 0)
	ref := constant.NewGetElementPtr(arr.Typ, g, zero, zero)
	c.strings[s] = ref
	return ref
}

// mangleTypeInfo builds the stable symbol name for a class's TypeInfo.
// The hash suffix keeps symbols from unrelated units distinct without
// carrying the whole qualified name.
func mangleTypeInfo(name string) string {
	return fmt.Sprintf("_gxti_%s_%x", name, xxhash.Sum64String(name)&0xffffffff)
}
