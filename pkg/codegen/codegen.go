// Package codegen lowers the program description to LLVM IR. It owns the
// exception scope stack and landing-pad construction; argument and return
// passing is delegated to the abi package.
package codegen

import (
	"fmt"
	"os"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/rs/zerolog"

	"github.com/xplshn/glc/pkg/abi"
	"github.com/xplshn/glc/pkg/ast"
	"github.com/xplshn/glc/pkg/config"
	"github.com/xplshn/glc/pkg/util"
)

type symbol struct {
	Name string
	Type *ast.Type
	Addr value.Value // address of the variable's storage
	Next *symbol
}

type scope struct {
	Symbols *symbol
	Parent  *scope
}

func newScope(parent *scope) *scope { return &scope{Parent: parent} }

type funcInfo struct {
	irFunc *ir.Func
	sig    *abi.Signature
	decl   ast.FuncDeclNode
}

// Context is the single-function-at-a-time generation state. Code
// generation is strictly sequential; none of this is safe for concurrent
// use and none of it needs to be.
type Context struct {
	cfg *config.Config
	log zerolog.Logger
	mod *ir.Module

	fn           *ir.Func
	fnSig        *abi.Signature
	sret         value.Value // hidden return pointer of the current function
	block        *ir.Block   // insertion point
	currentScope *scope
	pad          *landingPad

	funcs      map[string]*funcInfo
	classes    map[string]*classInfo
	sigs       map[*ast.Type]*abi.Signature
	strings    map[string]constant.Constant
	intrinsics map[string]*ir.Func
	runtimeFns map[string]*ir.Func

	abiNative    abi.TargetABI
	abiIntrinsic abi.TargetABI

	typeInfoType *lltypes.StructType
	blockCount   int
}

func NewContext(cfg *config.Config) *Context {
	logger := zerolog.Nop()
	if cfg.Verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel)
	}
	c := &Context{
		cfg:          cfg,
		log:          logger,
		mod:          ir.NewModule(),
		currentScope: newScope(nil),
		funcs:        make(map[string]*funcInfo),
		classes:      make(map[string]*classInfo),
		sigs:         make(map[*ast.Type]*abi.Signature),
		strings:      make(map[string]constant.Constant),
		intrinsics:   make(map[string]*ir.Func),
		runtimeFns:   make(map[string]*ir.Func),
		abiNative:    abi.ForTarget(cfg.WordSize),
		abiIntrinsic: abi.ForIntrinsics(),
	}
	c.mod.TargetTriple = cfg.Triple
	return c
}

// Generate lowers one program to an LLVM module.
func (c *Context) Generate(prog *ast.Program) *ir.Module {
	for _, cls := range prog.Classes {
		c.classInfo(cls)
	}
	for _, f := range prog.Funcs {
		c.declareFunc(f)
	}
	for _, f := range prog.Funcs {
		if f.Data.(ast.FuncDeclNode).Body != nil {
			c.defineFunc(f)
		}
	}
	return c.mod
}

// signature returns the rewritten low-level signature for a source function
// type, applying the strategy matching the call kind.
func (c *Context) signature(ft *ast.Type, intrinsic bool) *abi.Signature {
	if sig, ok := c.sigs[ft]; ok {
		return sig
	}
	sig := abi.NewSignature(ft, c.cfg.WordSize)
	strategy := c.abiNative
	if intrinsic {
		strategy = c.abiIntrinsic
	}
	abi.RewriteSignature(strategy, sig)
	c.sigs[ft] = sig
	return sig
}

func (c *Context) declareFunc(node *ast.Node) {
	decl := node.Data.(ast.FuncDeclNode)
	if _, ok := c.funcs[decl.Name]; ok {
		util.Error(node.Pos, "function '%s' declared twice", decl.Name)
	}
	sig := c.signature(decl.FuncType, decl.IsIntrinsic)

	var params []*ir.Param
	if sig.RetInArg {
		params = append(params, ir.NewParam("sret", lltypes.NewPointer(sig.Ret.LowType)))
	}
	for i, p := range sig.Params {
		name := fmt.Sprintf("p%d", i)
		if i < len(decl.ParamNames) {
			name = decl.ParamNames[i]
		}
		params = append(params, ir.NewParam(name, p.LowType))
	}
	f := c.mod.NewFunc(decl.Name, sig.LowRet(), params...)
	f.Sig.Variadic = sig.Variadic
	c.funcs[decl.Name] = &funcInfo{irFunc: f, sig: sig, decl: decl}
}

func (c *Context) defineFunc(node *ast.Node) {
	decl := node.Data.(ast.FuncDeclNode)
	fi := c.funcs[decl.Name]
	c.log.Debug().Str("func", decl.Name).Msg("generating function")

	c.fn = fi.irFunc
	c.fnSig = fi.sig
	c.sret = nil
	c.pad = &landingPad{}
	c.block = c.fn.NewBlock("entry")
	c.pushScope()

	paramOffset := 0
	if fi.sig.RetInArg {
		c.sret = c.fn.Params[0]
		paramOffset = 1
	}
	for i, arg := range fi.sig.Params {
		name := fmt.Sprintf("p%d", i)
		if i < len(decl.ParamNames) {
			name = decl.ParamNames[i]
		}
		p := c.fn.Params[paramOffset+i]
		addr := c.block.NewAlloca(abi.LowerType(arg.Type, c.cfg.WordSize))
		addr.SetName(name + ".addr")
		if arg.Rewrite != nil {
			abi.StoreNative(arg.Rewrite, arg.Type, p, addr, c.block)
		} else {
			c.block.NewStore(p, addr)
		}
		c.declare(name, arg.Type, addr)
	}

	c.genStmt(decl.Body)

	if !c.terminated() {
		if fi.sig.Ret.Type.IsVoid() {
			c.block.NewRet(nil)
		} else {
			// falling off the end of a value-returning function is the
			// front end's problem; keep the block well-formed
			c.block.NewUnreachable()
		}
	}

	if c.cfg.IsFeatureEnabled(config.FeatVerifyStack) && c.pad.depth() != 0 {
		util.ICE("exception scope stack unbalanced at end of '%s' (%d frames left)", decl.Name, c.pad.depth())
	}
	c.popScope()
}

// newBlock appends a uniquely named block to the current function.
func (c *Context) newBlock(name string) *ir.Block {
	c.blockCount++
	return c.fn.NewBlock(fmt.Sprintf("%s%d", name, c.blockCount))
}

// terminated reports whether the insertion block already has a terminator.
func (c *Context) terminated() bool { return c.block.Term != nil }

func (c *Context) pushScope() { c.currentScope = newScope(c.currentScope) }
func (c *Context) popScope()  { c.currentScope = c.currentScope.Parent }

func (c *Context) declare(name string, typ *ast.Type, addr value.Value) {
	c.currentScope.Symbols = &symbol{Name: name, Type: typ, Addr: addr, Next: c.currentScope.Symbols}
}

func (c *Context) lookup(name string) *symbol {
	for s := c.currentScope; s != nil; s = s.Parent {
		for sym := s.Symbols; sym != nil; sym = sym.Next {
			if sym.Name == name {
				return sym
			}
		}
	}
	return nil
}

// bitcast emits a bitcast unless the value already has the wanted type.
func (c *Context) bitcast(v value.Value, to lltypes.Type) value.Value {
	if v.Type().Equal(to) {
		return v
	}
	return c.block.NewBitCast(v, to)
}
