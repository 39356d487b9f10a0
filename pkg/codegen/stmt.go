package codegen

import (
	"github.com/xplshn/glc/pkg/abi"
	"github.com/xplshn/glc/pkg/ast"
	"github.com/xplshn/glc/pkg/config"
	"github.com/xplshn/glc/pkg/util"
)

func (c *Context) genStmt(node *ast.Node) {
	switch node.Type {
	case ast.Block:
		c.genBlock(node)
	case ast.VarDecl:
		c.genVarDecl(node)
	case ast.Assign:
		c.genAssign(node)
	case ast.Return:
		c.genReturn(node)
	case ast.Try:
		c.genTry(node)
	case ast.Throw:
		c.genThrow(node)
	case ast.FuncCall:
		c.genExpr(node)
	default:
		util.ICE("cannot lower node type %d as a statement", node.Type)
	}
}

func (c *Context) genBlock(node *ast.Node) {
	data := node.Data.(ast.BlockNode)
	c.pushScope()
	for i, stmt := range data.Stmts {
		if c.terminated() {
			if c.cfg.IsWarningEnabled(config.WarnUnreachableCode) {
				util.Warn("unreachable-code", data.Stmts[i].Pos, "unreachable code")
			}
			break
		}
		c.genStmt(stmt)
	}
	c.popScope()
}

func (c *Context) genVarDecl(node *ast.Node) {
	data := node.Data.(ast.VarDeclNode)
	addr := c.block.NewAlloca(abi.LowerType(data.DeclType, c.cfg.WordSize))
	addr.SetName(data.Name)
	if data.Init != nil {
		c.block.NewStore(c.genExprAs(data.Init, data.DeclType), addr)
	}
	c.declare(data.Name, data.DeclType, addr)
}

func (c *Context) genAssign(node *ast.Node) {
	data := node.Data.(ast.AssignNode)
	sym := c.lookup(data.Name)
	if sym == nil {
		util.Error(node.Pos, "assignment to undeclared variable '%s'", data.Name)
	}
	c.block.NewStore(c.genExprAs(data.Value, sym.Type), sym.Addr)
}

func (c *Context) genReturn(node *ast.Node) {
	data := node.Data.(ast.ReturnNode)
	sig := c.fnSig
	switch {
	case sig.RetInArg:
		if data.Expr == nil {
			util.Error(node.Pos, "missing return value")
		}
		c.block.NewStore(c.genExprAs(data.Expr, sig.Ret.Type), c.sret)
		c.block.NewRet(nil)
	case sig.Ret.Type.IsVoid():
		c.block.NewRet(nil)
	default:
		if data.Expr == nil {
			util.Error(node.Pos, "missing return value")
		}
		v := c.genExprAs(data.Expr, sig.Ret.Type)
		if sig.Ret.Rewrite != nil {
			v = sig.Ret.Rewrite.FromNative(sig.Ret.Type, v, c.block)
		}
		c.block.NewRet(v)
	}
}

// genTry lowers one try/catch/finally statement. Handler bodies are
// generated up front into their target blocks; the landing pad for this
// nesting level is built eagerly at push time so every raising call in the
// protected body shares one dispatch block.
//
// A statement with both catches and a finally is split into a try-finally
// wrapping a try-catch. The finally scope then encloses the handlers: the
// cleanup runs after a completed handler, and is replayed when a handler
// body itself raises.
func (c *Context) genTry(node *ast.Node) {
	data := node.Data.(ast.TryNode)
	if !c.cfg.IsFeatureEnabled(config.FeatExceptions) {
		util.Error(node.Pos, "try statement while exception lowering is disabled (-Fno-exceptions)")
	}

	if data.Finally != nil && len(data.Catches) > 0 {
		inner := ast.NewTry(node.Pos, ast.TryNode{Body: data.Body, Catches: data.Catches})
		data = ast.TryNode{Body: inner, Finally: data.Finally}
	}

	for i, clause := range data.Catches {
		if c.cfg.IsWarningEnabled(config.WarnDeadCatch) {
			for _, earlier := range data.Catches[:i] {
				if clause.Class.DerivesFrom(earlier.Class) {
					util.Warn("dead-catch", clause.Pos,
						"catch of '%s' is unreachable, already handled by catch of '%s'",
						clause.Class, earlier.Class)
					break
				}
			}
		}
	}
	if data.Finally != nil {
		if b, ok := data.Finally.Data.(ast.BlockNode); ok && len(b.Stmts) == 0 &&
			c.cfg.IsWarningEnabled(config.WarnEmptyFinally) {
			util.Warn("empty-finally", data.Finally.Pos, "finally clause has an empty body")
		}
		if c.cfg.IsWarningEnabled(config.WarnExtra) {
			if thr := firstThrow(data.Finally); thr != nil {
				util.Warn("extra", thr.Pos, "throw inside a finally clause replaces the in-flight exception")
			}
		}
	}

	end := c.newBlock("try.end")

	for _, clause := range data.Catches {
		c.pad.addCatch(c, clause, end)
	}
	if data.Finally != nil {
		c.pad.addFinally(data.Finally)
	}

	landing := c.newBlock("landingpad")
	c.pad.push(c, landing)
	c.genStmt(data.Body)
	c.pad.pop()

	// the normal (non-unwinding) path through the finally body
	if data.Finally != nil && !c.terminated() {
		c.genStmt(data.Finally)
	}
	if !c.terminated() {
		c.block.NewBr(end)
	}
	c.block = end
}

// firstThrow finds a throw statement that would escape the given subtree.
// It does not descend into nested try statements: those have their own
// handling for anything raised inside them.
func firstThrow(node *ast.Node) *ast.Node {
	switch node.Type {
	case ast.Throw:
		return node
	case ast.Block:
		for _, stmt := range node.Data.(ast.BlockNode).Stmts {
			if thr := firstThrow(stmt); thr != nil {
				return thr
			}
		}
	}
	return nil
}

// genThrow allocates an exception object for the class and hands it to the
// runtime's throw entry point, which never returns.
func (c *Context) genThrow(node *ast.Node) {
	data := node.Data.(ast.ThrowNode)
	if !c.cfg.IsFeatureEnabled(config.FeatExceptions) {
		util.Error(node.Pos, "throw statement while exception lowering is disabled (-Fno-exceptions)")
	}
	if data.Class == nil || !data.Class.IsClass() {
		util.ICE("throw of a non-class type")
	}
	ci := c.classInfo(data.Class)
	obj := c.emitCall(c.runtimeFunc(c.cfg.Runtime.ExceptionNew), ci.ref)
	c.emitCall(c.runtimeFunc(c.cfg.Runtime.Throw), obj)
	if !c.terminated() {
		c.block.NewUnreachable()
	}
}
