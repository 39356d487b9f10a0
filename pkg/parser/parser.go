// Package parser loads lowered program descriptions from YAML. The real
// front end lives elsewhere; descriptions arrive with semantic analysis
// already done (resolved class names, nested-reference counts), and this
// loader only validates referential consistency before handing the tree to
// the code generator.
package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/xplshn/glc/pkg/ast"
	"github.com/xplshn/glc/pkg/token"
	"github.com/xplshn/glc/pkg/util"
)

// Result is one loaded compilation unit plus file-level hints that are not
// part of the program itself.
type Result struct {
	Program *ast.Program
	Target  string // target profile hint, may be empty
}

// Parser holds the state for loading one description file.
type Parser struct {
	fileIndex int
	errs      *multierror.Error
	classes   map[string]*ast.Type
	structs   map[string]*ast.Type
}

// ParseFile reads and loads one program description.
func ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program description: %w", err)
	}
	return Parse(path, data)
}

// Parse loads a program description from memory. All validation issues are
// collected and returned together.
func Parse(name string, data []byte) (*Result, error) {
	p := &Parser{
		fileIndex: util.AddSourceFile(name, data),
		classes:   make(map[string]*ast.Type),
		structs:   make(map[string]*ast.Type),
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	prog := &ast.Program{}
	for _, cd := range doc.Classes {
		prog.Classes = append(prog.Classes, p.loadClass(cd))
	}
	for _, sd := range doc.Structs {
		p.loadStruct(sd)
	}
	for _, fd := range doc.Funcs {
		prog.Funcs = append(prog.Funcs, p.loadFunc(fd))
	}

	if err := p.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &Result{Program: prog, Target: doc.Target}, nil
}

func (p *Parser) pos(line, col int) token.Pos {
	return token.Pos{FileIndex: p.fileIndex, Line: line, Column: col}
}

func (p *Parser) errorf(line int, format string, args ...interface{}) {
	p.errs = multierror.Append(p.errs, fmt.Errorf("line %d: "+format, append([]interface{}{line}, args...)...))
}

// --- document layout ---

type fileDoc struct {
	Target  string      `yaml:"target"`
	Classes []classDoc  `yaml:"classes"`
	Structs []structDoc `yaml:"structs"`
	Funcs   []funcDoc   `yaml:"funcs"`
}

type classDoc struct {
	Name string `yaml:"name"`
	Base string `yaml:"base"`
	line int
}

func (d *classDoc) UnmarshalYAML(n *yaml.Node) error {
	type alias classDoc
	var a alias
	if err := n.Decode(&a); err != nil {
		return err
	}
	*d = classDoc(a)
	d.line = n.Line
	return nil
}

type structDoc struct {
	Name           string     `yaml:"name"`
	NonTrivialCopy bool       `yaml:"nontrivial_copy"`
	Fields         []fieldDoc `yaml:"fields"`
	line           int
}

func (d *structDoc) UnmarshalYAML(n *yaml.Node) error {
	type alias structDoc
	var a alias
	if err := n.Decode(&a); err != nil {
		return err
	}
	*d = structDoc(a)
	d.line = n.Line
	return nil
}

type fieldDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type paramDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type funcDoc struct {
	Name      string     `yaml:"name"`
	Ret       string     `yaml:"ret"`
	Params    []paramDoc `yaml:"params"`
	Variadic  bool       `yaml:"variadic"`
	Extern    bool       `yaml:"extern"`
	Intrinsic bool       `yaml:"intrinsic"`
	Body      []stmtDoc  `yaml:"body"`
	line      int
}

func (d *funcDoc) UnmarshalYAML(n *yaml.Node) error {
	type alias funcDoc
	var a alias
	if err := n.Decode(&a); err != nil {
		return err
	}
	*d = funcDoc(a)
	d.line = n.Line
	return nil
}

type stmtDoc struct {
	Call   *callDoc   `yaml:"call"`
	Try    *tryDoc    `yaml:"try"`
	Throw  string     `yaml:"throw"`
	Return *exprDoc   `yaml:"return"`
	Var    *varDoc    `yaml:"var"`
	Assign *assignDoc `yaml:"assign"`

	hasReturn bool
	line, col int
}

func (d *stmtDoc) UnmarshalYAML(n *yaml.Node) error {
	type alias stmtDoc
	var a alias
	if err := n.Decode(&a); err != nil {
		return err
	}
	*d = stmtDoc(a)
	d.line, d.col = n.Line, n.Column
	// a bare `return:` decodes to a nil pointer; remember the key was there
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == "return" {
			d.hasReturn = true
		}
	}
	return nil
}

// callDoc accepts both the shorthand `call: name` and the full mapping
// form with arguments.
type callDoc struct {
	Fn   string    `yaml:"fn"`
	Args []exprDoc `yaml:"args"`
	line int
}

func (d *callDoc) UnmarshalYAML(n *yaml.Node) error {
	line := n.Line
	if n.Kind == yaml.ScalarNode {
		d.line = line
		return n.Decode(&d.Fn)
	}
	type alias callDoc
	var a alias
	if err := n.Decode(&a); err != nil {
		return err
	}
	*d = callDoc(a)
	d.line = line
	return nil
}

type tryDoc struct {
	Body    []stmtDoc  `yaml:"body"`
	Catches []catchDoc `yaml:"catches"`
	Finally []stmtDoc  `yaml:"finally"`
}

type catchDoc struct {
	Class      string    `yaml:"class"`
	Var        string    `yaml:"var"`
	NestedRefs int       `yaml:"nested_refs"`
	Body       []stmtDoc `yaml:"body"`
	line       int
}

func (d *catchDoc) UnmarshalYAML(n *yaml.Node) error {
	type alias catchDoc
	var a alias
	if err := n.Decode(&a); err != nil {
		return err
	}
	*d = catchDoc(a)
	d.line = n.Line
	return nil
}

type varDoc struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Init       *exprDoc `yaml:"init"`
	NestedRefs int      `yaml:"nested_refs"`
}

type assignDoc struct {
	Name  string  `yaml:"name"`
	Value exprDoc `yaml:"value"`
}

type exprDoc struct {
	Int  *int64   `yaml:"int"`
	Str  *string  `yaml:"str"`
	Var  *string  `yaml:"var"`
	Call *callDoc `yaml:"call"`

	line, col int
}

func (d *exprDoc) UnmarshalYAML(n *yaml.Node) error {
	type alias exprDoc
	var a alias
	if err := n.Decode(&a); err != nil {
		return err
	}
	*d = exprDoc(a)
	d.line, d.col = n.Line, n.Column
	return nil
}

// --- conversion to ast ---

func (p *Parser) loadClass(d classDoc) *ast.Type {
	if d.Name == "" {
		p.errorf(d.line, "class with no name")
	}
	if _, dup := p.classes[d.Name]; dup {
		p.errorf(d.line, "class '%s' declared twice", d.Name)
	}
	var base *ast.Type
	if d.Base != "" {
		base = p.classes[d.Base]
		if base == nil {
			p.errorf(d.line, "class '%s': unknown base class '%s' (bases must be declared first)", d.Name, d.Base)
		}
	}
	cls := ast.NewClass(d.Name, base)
	p.classes[d.Name] = cls
	return cls
}

func (p *Parser) loadStruct(d structDoc) {
	if _, dup := p.structs[d.Name]; dup {
		p.errorf(d.line, "struct '%s' declared twice", d.Name)
	}
	var fields []ast.Field
	for _, f := range d.Fields {
		fields = append(fields, ast.Field{Name: f.Name, Type: p.typeByName(f.Type, d.line)})
	}
	st := ast.NewStruct(d.Name, fields...)
	st.NonTrivialCopy = d.NonTrivialCopy
	p.structs[d.Name] = st
}

var builtinTypes = map[string]*ast.Type{
	"void": ast.TypeVoid, "bool": ast.TypeBool,
	"int8": ast.TypeInt8, "uint8": ast.TypeUint8,
	"int16": ast.TypeInt16, "uint16": ast.TypeUint16,
	"int32": ast.TypeInt32, "uint32": ast.TypeUint32,
	"int64": ast.TypeInt64, "uint64": ast.TypeUint64,
	"float32": ast.TypeFloat32, "float64": ast.TypeFloat64,
	"string": ast.TypeBytePtr,
}

func (p *Parser) typeByName(name string, line int) *ast.Type {
	if name == "" {
		return ast.TypeVoid
	}
	if strings.HasPrefix(name, "*") {
		return ast.NewPointer(p.typeByName(name[1:], line))
	}
	if t, ok := builtinTypes[name]; ok {
		return t
	}
	if t, ok := p.structs[name]; ok {
		return t
	}
	if t, ok := p.classes[name]; ok {
		return t
	}
	p.errorf(line, "unknown type '%s'", name)
	return ast.TypeVoid
}

func (p *Parser) loadFunc(d funcDoc) *ast.Node {
	if d.Name == "" {
		p.errorf(d.line, "function with no name")
	}
	var params []*ast.Type
	var names []string
	for _, pd := range d.Params {
		params = append(params, p.typeByName(pd.Type, d.line))
		names = append(names, pd.Name)
	}
	ft := ast.NewFunc(p.typeByName(d.Ret, d.line), params...)
	ft.Variadic = d.Variadic

	decl := ast.FuncDeclNode{
		Name:        d.Name,
		FuncType:    ft,
		ParamNames:  names,
		IsIntrinsic: d.Intrinsic,
	}
	if !d.Extern {
		decl.Body = p.loadBlock(d.Body, d.line)
	} else if len(d.Body) > 0 {
		p.errorf(d.line, "external function '%s' must not have a body", d.Name)
	}
	return ast.NewFuncDecl(p.pos(d.line, 1), decl)
}

func (p *Parser) loadBlock(stmts []stmtDoc, line int) *ast.Node {
	var out []*ast.Node
	for i := range stmts {
		out = append(out, p.loadStmt(&stmts[i]))
	}
	return ast.NewBlock(p.pos(line, 1), out)
}

func (p *Parser) loadStmt(d *stmtDoc) *ast.Node {
	pos := p.pos(d.line, d.col)
	switch {
	case d.Try != nil:
		return p.loadTry(d.Try, pos)
	case d.Throw != "":
		cls := p.classes[d.Throw]
		if cls == nil {
			p.errorf(d.line, "throw of unknown class '%s'", d.Throw)
			cls = ast.NewClass(d.Throw, nil)
		}
		return ast.NewThrow(pos, cls)
	case d.Call != nil:
		return p.loadCall(d.Call)
	case d.hasReturn:
		var expr *ast.Node
		if d.Return != nil {
			expr = p.loadExpr(d.Return)
		}
		return ast.NewReturn(pos, expr)
	case d.Var != nil:
		var init *ast.Node
		if d.Var.Init != nil {
			init = p.loadExpr(d.Var.Init)
		}
		return ast.NewVarDecl(pos, ast.VarDeclNode{
			Name:       d.Var.Name,
			DeclType:   p.typeByName(d.Var.Type, d.line),
			Init:       init,
			NestedRefs: d.Var.NestedRefs,
		})
	case d.Assign != nil:
		return ast.NewAssign(pos, d.Assign.Name, p.loadExpr(&d.Assign.Value))
	}
	p.errorf(d.line, "statement with no recognized form (want one of: call, try, throw, return, var, assign)")
	return ast.NewBlock(pos, nil)
}

func (p *Parser) loadTry(d *tryDoc, pos token.Pos) *ast.Node {
	data := ast.TryNode{Body: p.loadBlock(d.Body, pos.Line)}
	for i := range d.Catches {
		cd := &d.Catches[i]
		cls := p.classes[cd.Class]
		if cls == nil {
			p.errorf(cd.line, "catch of unknown class '%s'", cd.Class)
			cls = ast.NewClass(cd.Class, nil)
		}
		clause := &ast.CatchClause{
			Pos:   p.pos(cd.line, 1),
			Class: cls,
			Body:  p.loadBlock(cd.Body, cd.line),
		}
		if cd.Var != "" {
			clause.Var = ast.NewVarDecl(p.pos(cd.line, 1), ast.VarDeclNode{
				Name:       cd.Var,
				DeclType:   cls,
				NestedRefs: cd.NestedRefs,
			})
		}
		data.Catches = append(data.Catches, clause)
	}
	if len(d.Catches) == 0 && d.Finally == nil {
		p.errorf(pos.Line, "try statement with neither catch nor finally")
	}
	if d.Finally != nil {
		data.Finally = p.loadBlock(d.Finally, pos.Line)
	}
	return ast.NewTry(pos, data)
}

func (p *Parser) loadCall(d *callDoc) *ast.Node {
	if d.Fn == "" {
		p.errorf(d.line, "call with no function name")
	}
	var args []*ast.Node
	for i := range d.Args {
		args = append(args, p.loadExpr(&d.Args[i]))
	}
	return ast.NewFuncCall(p.pos(d.line, 1), d.Fn, args)
}

func (p *Parser) loadExpr(d *exprDoc) *ast.Node {
	pos := p.pos(d.line, d.col)
	switch {
	case d.Int != nil:
		return ast.NewNumber(pos, *d.Int)
	case d.Str != nil:
		return ast.NewString(pos, *d.Str)
	case d.Var != nil:
		return ast.NewIdent(pos, *d.Var)
	case d.Call != nil:
		return p.loadCall(d.Call)
	}
	p.errorf(d.line, "expression with no recognized form (want one of: int, str, var, call)")
	return ast.NewNumber(pos, 0)
}
