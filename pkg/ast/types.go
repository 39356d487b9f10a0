package ast

// TypeKind defines the kind of a source-language type.
type TypeKind int

// Type kinds enum
const (
	TYPE_VOID TypeKind = iota
	TYPE_INT
	TYPE_FLOAT
	TYPE_BOOL
	TYPE_POINTER
	TYPE_STRUCT
	TYPE_CLASS
	TYPE_FUNC
)

// Type represents a type in the source type system. Classes are reference
// types (values of class type are object pointers); structs are value
// aggregates and the only types the ABI may rewrite.
type Type struct {
	Kind   TypeKind
	Name   string
	Bits   int  // width for TYPE_INT / TYPE_FLOAT
	Signed bool // for TYPE_INT

	Base *Type // pointee for TYPE_POINTER, base class for TYPE_CLASS

	// TYPE_STRUCT
	Fields []Field
	// NonTrivialCopy marks aggregates whose copy semantics force
	// indirect passing regardless of size (postblit/destructor in the
	// source language).
	NonTrivialCopy bool

	// TYPE_FUNC
	Params   []*Type
	Return   *Type
	Variadic bool
}

type Field struct {
	Name string
	Type *Type
}

// Pre-defined types
var (
	TypeVoid    = &Type{Kind: TYPE_VOID, Name: "void"}
	TypeBool    = &Type{Kind: TYPE_BOOL, Name: "bool", Bits: 1}
	TypeInt8    = &Type{Kind: TYPE_INT, Name: "int8", Bits: 8, Signed: true}
	TypeUint8   = &Type{Kind: TYPE_INT, Name: "uint8", Bits: 8}
	TypeInt16   = &Type{Kind: TYPE_INT, Name: "int16", Bits: 16, Signed: true}
	TypeUint16  = &Type{Kind: TYPE_INT, Name: "uint16", Bits: 16}
	TypeInt32   = &Type{Kind: TYPE_INT, Name: "int32", Bits: 32, Signed: true}
	TypeUint32  = &Type{Kind: TYPE_INT, Name: "uint32", Bits: 32}
	TypeInt64   = &Type{Kind: TYPE_INT, Name: "int64", Bits: 64, Signed: true}
	TypeUint64  = &Type{Kind: TYPE_INT, Name: "uint64", Bits: 64}
	TypeFloat32 = &Type{Kind: TYPE_FLOAT, Name: "float32", Bits: 32}
	TypeFloat64 = &Type{Kind: TYPE_FLOAT, Name: "float64", Bits: 64}
	TypeBytePtr = &Type{Kind: TYPE_POINTER, Name: "*uint8", Base: TypeUint8}
)

func NewPointer(base *Type) *Type {
	return &Type{Kind: TYPE_POINTER, Name: "*" + base.Name, Base: base}
}

func NewStruct(name string, fields ...Field) *Type {
	return &Type{Kind: TYPE_STRUCT, Name: name, Fields: fields}
}

func NewClass(name string, base *Type) *Type {
	return &Type{Kind: TYPE_CLASS, Name: name, Base: base}
}

func NewFunc(ret *Type, params ...*Type) *Type {
	return &Type{Kind: TYPE_FUNC, Return: ret, Params: params}
}

func (t *Type) IsClass() bool  { return t != nil && t.Kind == TYPE_CLASS }
func (t *Type) IsStruct() bool { return t != nil && t.Kind == TYPE_STRUCT }
func (t *Type) IsVoid() bool   { return t == nil || t.Kind == TYPE_VOID }

// DerivesFrom reports whether t is other or has other on its base chain.
func (t *Type) DerivesFrom(other *Type) bool {
	for c := t; c != nil; c = c.Base {
		if c == other {
			return true
		}
	}
	return false
}

func (t *Type) String() string {
	if t == nil {
		return "void"
	}
	return t.Name
}
