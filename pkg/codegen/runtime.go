package codegen

import (
	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/xplshn/glc/pkg/util"
)

// Unwinding intrinsics of the single-personality EH model. The landing-pad
// constructor is built directly on these rather than on any higher-level
// try/catch facility.
const (
	intrinsicEHException = "llvm.eh.exception"
	intrinsicEHSelector  = "llvm.eh.selector"
	intrinsicEHTypeidFor = "llvm.eh.typeid.for"
)

// intrinsic returns the declaration of a compiler intrinsic, adding it to
// the module on first use.
func (c *Context) intrinsic(name string) *ir.Func {
	if f, ok := c.intrinsics[name]; ok {
		return f
	}
	var f *ir.Func
	switch name {
	case intrinsicEHException:
		f = c.mod.NewFunc(name, lltypes.I8Ptr)
	case intrinsicEHSelector:
		f = c.mod.NewFunc(name, lltypes.I32,
			ir.NewParam("exn", lltypes.I8Ptr),
			ir.NewParam("personality", lltypes.I8Ptr))
		f.Sig.Variadic = true
	case intrinsicEHTypeidFor:
		f = c.mod.NewFunc(name, lltypes.I32, ir.NewParam("ti", lltypes.I8Ptr))
	default:
		util.ICE("unknown intrinsic '%s'", name)
	}
	c.intrinsics[name] = f
	return f
}

// runtimeFunc resolves one of the configured unwinding runtime entry
// points by name, declaring it on first use. The backend only ever sees
// these as external symbols.
func (c *Context) runtimeFunc(name string) *ir.Func {
	if f, ok := c.runtimeFns[name]; ok {
		return f
	}
	var f *ir.Func
	switch name {
	case c.cfg.Runtime.Personality:
		f = c.mod.NewFunc(name, lltypes.I32)
		f.Sig.Variadic = true
	case c.cfg.Runtime.ResumeUnwind:
		f = c.mod.NewFunc(name, lltypes.Void, ir.NewParam("exn", lltypes.I8Ptr))
	case c.cfg.Runtime.Throw:
		f = c.mod.NewFunc(name, lltypes.Void, ir.NewParam("obj", lltypes.I8Ptr))
	case c.cfg.Runtime.ExceptionNew:
		f = c.mod.NewFunc(name, lltypes.I8Ptr, ir.NewParam("ti", lltypes.I8Ptr))
	default:
		util.ICE("unknown runtime symbol '%s'", name)
	}
	c.runtimeFns[name] = f
	return f
}
