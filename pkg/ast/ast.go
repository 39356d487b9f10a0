// Package ast defines the lowered program representation the backend
// consumes. Semantic analysis happens in the front end; nodes arrive here
// fully resolved (catch clauses reference class types, calls reference
// declared functions, NestedRefs counts are already computed).
package ast

import (
	"github.com/xplshn/glc/pkg/token"
)

// NodeType defines the kind of a node in the lowered tree.
type NodeType int

// Node types enum
const (
	// Expressions
	Number NodeType = iota
	String
	Ident
	FuncCall

	// Statements
	FuncDecl
	VarDecl
	Assign
	Return
	Block
	Try
	Throw
)

// Node represents a node in the lowered program tree.
type Node struct {
	Type NodeType
	Pos  token.Pos
	Data interface{}
}

// --- Node Data Structs ---

type NumberNode struct{ Value int64 }
type StringNode struct{ Value string }
type IdentNode struct{ Name string }
type FuncCallNode struct {
	Name string
	Args []*Node
}

type FuncDeclNode struct {
	Name        string
	FuncType    *Type
	ParamNames  []string
	Body        *Node // nil for external declarations
	IsIntrinsic bool  // compiler intrinsic: uses the intrinsic ABI
}

type VarDeclNode struct {
	Name     string
	DeclType *Type
	Init     *Node
	// NestedRefs counts references to this variable from nested
	// functions, as computed by the front end's closure analysis. A
	// caught variable with NestedRefs > 0 needs its own stable storage.
	NestedRefs int
}

type AssignNode struct {
	Name  string
	Value *Node
}

type ReturnNode struct{ Expr *Node }

type BlockNode struct{ Stmts []*Node }

// CatchClause describes one catch of a try statement. Class must be a
// resolved class type before the statement reaches the code generator.
type CatchClause struct {
	Pos   token.Pos
	Class *Type
	Var   *Node // VarDecl for the bound variable, nil if unnamed
	Body  *Node
}

type TryNode struct {
	Body    *Node
	Catches []*CatchClause
	Finally *Node // nil when the try has no finally clause
}

type ThrowNode struct{ Class *Type }

func newNode(pos token.Pos, nodeType NodeType, data interface{}) *Node {
	return &Node{Type: nodeType, Pos: pos, Data: data}
}

func NewNumber(pos token.Pos, value int64) *Node {
	return newNode(pos, Number, NumberNode{Value: value})
}

func NewString(pos token.Pos, value string) *Node {
	return newNode(pos, String, StringNode{Value: value})
}

func NewIdent(pos token.Pos, name string) *Node {
	return newNode(pos, Ident, IdentNode{Name: name})
}

func NewFuncCall(pos token.Pos, name string, args []*Node) *Node {
	return newNode(pos, FuncCall, FuncCallNode{Name: name, Args: args})
}

func NewFuncDecl(pos token.Pos, data FuncDeclNode) *Node {
	return newNode(pos, FuncDecl, data)
}

func NewVarDecl(pos token.Pos, data VarDeclNode) *Node {
	return newNode(pos, VarDecl, data)
}

func NewAssign(pos token.Pos, name string, value *Node) *Node {
	return newNode(pos, Assign, AssignNode{Name: name, Value: value})
}

func NewReturn(pos token.Pos, expr *Node) *Node {
	return newNode(pos, Return, ReturnNode{Expr: expr})
}

func NewBlock(pos token.Pos, stmts []*Node) *Node {
	return newNode(pos, Block, BlockNode{Stmts: stmts})
}

func NewTry(pos token.Pos, data TryNode) *Node {
	return newNode(pos, Try, data)
}

func NewThrow(pos token.Pos, class *Type) *Node {
	return newNode(pos, Throw, ThrowNode{Class: class})
}

// Program is one fully lowered compilation unit.
type Program struct {
	Classes []*Type
	Funcs   []*Node // FuncDecl nodes, externs included
}

func (p *Program) FindClass(name string) *Type {
	for _, c := range p.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (p *Program) FindFunc(name string) *Node {
	for _, f := range p.Funcs {
		if f.Data.(FuncDeclNode).Name == name {
			return f
		}
	}
	return nil
}
