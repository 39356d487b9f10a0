package codegen

import (
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/xplshn/glc/pkg/abi"
	"github.com/xplshn/glc/pkg/ast"
	"github.com/xplshn/glc/pkg/util"
)

func (c *Context) genExpr(node *ast.Node) value.Value {
	switch node.Type {
	case ast.Number:
		// no constraining slot (a variadic tail argument): default to the
		// widest native integer
		return constant.NewInt(lltypes.I64, node.Data.(ast.NumberNode).Value)
	case ast.String:
		return c.globalString(node.Data.(ast.StringNode).Value)
	case ast.Ident:
		name := node.Data.(ast.IdentNode).Name
		sym := c.lookup(name)
		if sym == nil {
			util.Error(node.Pos, "use of undeclared variable '%s'", name)
		}
		return c.block.NewLoad(abi.LowerType(sym.Type, c.cfg.WordSize), sym.Addr)
	case ast.FuncCall:
		return c.genCall(node)
	}
	util.ICE("cannot lower node type %d as an expression", node.Type)
	return nil
}

// genExprAs lowers an expression whose result feeds a slot of a known
// source type. Integer literals carry no width of their own and take it
// from the slot; every other expression form determines its own type.
func (c *Context) genExprAs(node *ast.Node, want *ast.Type) value.Value {
	if node.Type != ast.Number || want == nil {
		return c.genExpr(node)
	}
	v := node.Data.(ast.NumberNode).Value
	switch want.Kind {
	case ast.TYPE_INT:
		if !literalFits(v, want) {
			util.Error(node.Pos, "integer literal %d does not fit in type '%s'", v, want)
		}
		return constant.NewInt(lltypes.NewInt(uint64(want.Bits)), v)
	case ast.TYPE_BOOL:
		if v != 0 && v != 1 {
			util.Error(node.Pos, "integer literal %d is not a valid '%s' value", v, want)
		}
		return constant.NewInt(lltypes.I1, v)
	}
	util.Error(node.Pos, "integer literal cannot produce a value of type '%s'", want)
	return nil
}

func literalFits(v int64, t *ast.Type) bool {
	if t.Bits >= 64 {
		return true
	}
	if t.Signed {
		return v >= -(int64(1)<<(t.Bits-1)) && v < int64(1)<<(t.Bits-1)
	}
	return v >= 0 && v < int64(1)<<t.Bits
}

// genCall lowers one direct call, routing arguments and the return value
// through the callee's rewritten signature.
func (c *Context) genCall(node *ast.Node) value.Value {
	data := node.Data.(ast.FuncCallNode)
	fi := c.funcs[data.Name]
	if fi == nil {
		util.Error(node.Pos, "call to undeclared function '%s'", data.Name)
	}
	sig := fi.sig
	if len(data.Args) < len(sig.Params) || (len(data.Args) > len(sig.Params) && !sig.Variadic) {
		util.Error(node.Pos, "'%s' expects %d argument(s), got %d", data.Name, len(sig.Params), len(data.Args))
	}

	var args []value.Value
	var sretTmp value.Value
	if sig.RetInArg {
		tmp := c.block.NewAlloca(sig.Ret.LowType)
		tmp.SetName("sret.tmp")
		sretTmp = tmp
		args = append(args, tmp)
	}
	for i, argNode := range data.Args {
		var v value.Value
		if i < len(sig.Params) {
			p := sig.Params[i]
			v = c.genExprAs(argNode, p.Type)
			if p.Rewrite != nil {
				v = p.Rewrite.FromNative(p.Type, v, c.block)
			}
		} else {
			v = c.genExpr(argNode)
		}
		args = append(args, v)
	}

	ret := c.emitCall(fi.irFunc, args...)
	switch {
	case sig.RetInArg:
		return c.block.NewLoad(sig.Ret.LowType, sretTmp)
	case sig.Ret.Rewrite != nil:
		return sig.Ret.Rewrite.ToNative(sig.Ret.Type, ret, c.block)
	default:
		return ret
	}
}

// emitCall emits a call, or an invoke unwinding to the active landing pad
// when the call site sits inside a protected region.
func (c *Context) emitCall(callee value.Value, args ...value.Value) value.Value {
	if pad := c.pad.get(); pad != nil {
		cont := c.newBlock("invoke.cont")
		inv := c.block.NewInvoke(callee, args, cont, pad)
		c.block = cont
		return inv
	}
	return c.block.NewCall(callee, args...)
}
