package ast

// Node is the base interface for all AST nodes
type Node interface {
	Pos() (line, col int)
}

// Statement nodes
type Stmt interface {
	Node
	stmtNode()
}

// Expression nodes
type Expr interface {
	Node
	exprNode()
}

// Module represents one parsed source file: an ordered sequence of
// top-level statements (classes, functions and free statements).
type Module struct {
	Body []Stmt
}

func (m *Module) Pos() (int, int) {
	if len(m.Body) > 0 {
		return m.Body[0].Pos()
	}
	return 0, 0
}

// Operator is a binary or augmented-assignment operator. The names match
// the node names of the CPython ast module.
type Operator string

const (
	Add      Operator = "Add"
	Sub      Operator = "Sub"
	Mult     Operator = "Mult"
	Div      Operator = "Div"
	FloorDiv Operator = "FloorDiv"
	Mod      Operator = "Mod"
	Pow      Operator = "Pow"
	MatMult  Operator = "MatMult"
	BitAnd   Operator = "BitAnd"
	BitOr    Operator = "BitOr"
	BitXor   Operator = "BitXor"
	LShift   Operator = "LShift"
	RShift   Operator = "RShift"
)

// UnaryOperator is a prefix operator
type UnaryOperator string

const (
	Not    UnaryOperator = "Not"
	USub   UnaryOperator = "USub"
	UAdd   UnaryOperator = "UAdd"
	Invert UnaryOperator = "Invert"
)

// BoolOperator joins the operands of a BoolOp
type BoolOperator string

const (
	And BoolOperator = "And"
	Or  BoolOperator = "Or"
)

// CmpOp is a comparison operator inside a Compare chain
type CmpOp string

const (
	Eq    CmpOp = "Eq"
	NotEq CmpOp = "NotEq"
	Lt    CmpOp = "Lt"
	LtE   CmpOp = "LtE"
	Gt    CmpOp = "Gt"
	GtE   CmpOp = "GtE"
	Is    CmpOp = "Is"
	IsNot CmpOp = "IsNot"
	In    CmpOp = "In"
	NotIn CmpOp = "NotIn"
)

// --- Statements ---

// FunctionDef represents a function or method definition
type FunctionDef struct {
	Name    string
	Params  []*Param
	Returns Expr // return annotation, nil when absent
	Body    []Stmt
	Line    int
	Column  int
}

func (f *FunctionDef) Pos() (int, int) { return f.Line, f.Column }
func (f *FunctionDef) stmtNode()       {}

// Param represents a function parameter
type Param struct {
	Name       string
	Annotation Expr // nil when absent
	Default    Expr // nil when absent
	Line       int
	Column     int
}

func (p *Param) Pos() (int, int) { return p.Line, p.Column }

// ClassDef represents a class definition
type ClassDef struct {
	Name   string
	Bases  []Expr
	Body   []Stmt
	Line   int
	Column int
}

func (c *ClassDef) Pos() (int, int) { return c.Line, c.Column }
func (c *ClassDef) stmtNode()       {}

// Assign represents `t1 = t2 = value`
type Assign struct {
	Targets []Expr
	Value   Expr
	Line    int
	Column  int
}

func (a *Assign) Pos() (int, int) { return a.Line, a.Column }
func (a *Assign) stmtNode()       {}

// AugAssign represents `target op= value`
type AugAssign struct {
	Target Expr
	Op     Operator
	Value  Expr
	Line   int
	Column int
}

func (a *AugAssign) Pos() (int, int) { return a.Line, a.Column }
func (a *AugAssign) stmtNode()       {}

// AnnAssign represents `target: annotation [= value]`
type AnnAssign struct {
	Target     Expr
	Annotation Expr
	Value      Expr // nil when absent
	Line       int
	Column     int
}

func (a *AnnAssign) Pos() (int, int) { return a.Line, a.Column }
func (a *AnnAssign) stmtNode()       {}

// ExprStmt represents an expression evaluated for its side effects
type ExprStmt struct {
	Value  Expr
	Line   int
	Column int
}

func (e *ExprStmt) Pos() (int, int) { return e.Line, e.Column }
func (e *ExprStmt) stmtNode()       {}

// Return represents a return statement; Value is nil for a bare return
type Return struct {
	Value  Expr
	Line   int
	Column int
}

func (r *Return) Pos() (int, int) { return r.Line, r.Column }
func (r *Return) stmtNode()       {}

// If represents if/elif/else. An elif chain is an Orelse holding a single If.
type If struct {
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
	Line   int
	Column int
}

func (i *If) Pos() (int, int) { return i.Line, i.Column }
func (i *If) stmtNode()       {}

// For represents `for target in iter:`
type For struct {
	Target Expr
	Iter   Expr
	Body   []Stmt
	Orelse []Stmt
	Line   int
	Column int
}

func (f *For) Pos() (int, int) { return f.Line, f.Column }
func (f *For) stmtNode()       {}

// While represents `while test:`
type While struct {
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
	Line   int
	Column int
}

func (w *While) Pos() (int, int) { return w.Line, w.Column }
func (w *While) stmtNode()       {}

// Pass represents a pass statement
type Pass struct {
	Line   int
	Column int
}

func (p *Pass) Pos() (int, int) { return p.Line, p.Column }
func (p *Pass) stmtNode()       {}

// Break represents a break statement
type Break struct {
	Line   int
	Column int
}

func (b *Break) Pos() (int, int) { return b.Line, b.Column }
func (b *Break) stmtNode()       {}

// Continue represents a continue statement
type Continue struct {
	Line   int
	Column int
}

func (c *Continue) Pos() (int, int) { return c.Line, c.Column }
func (c *Continue) stmtNode()       {}

// UnsupportedStmt stands in for a statement kind outside the supported
// subset (try, with, import, ...). Kind is the CPython node name.
type UnsupportedStmt struct {
	Kind   string
	Line   int
	Column int
}

func (u *UnsupportedStmt) Pos() (int, int) { return u.Line, u.Column }
func (u *UnsupportedStmt) stmtNode()       {}

// --- Expressions ---

// Name represents an identifier reference
type Name struct {
	ID     string
	Line   int
	Column int
}

func (n *Name) Pos() (int, int) { return n.Line, n.Column }
func (n *Name) exprNode()       {}

// ConstKind classifies a Constant
type ConstKind int

const (
	ConstNone ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstString
)

// String returns the string representation of the constant kind
func (k ConstKind) String() string {
	switch k {
	case ConstNone:
		return "None"
	case ConstBool:
		return "bool"
	case ConstInt:
		return "int"
	case ConstFloat:
		return "float"
	case ConstString:
		return "str"
	default:
		return "unknown"
	}
}

// Constant represents a literal. Value holds the literal text for numbers,
// the decoded contents for strings, and "True"/"False" for booleans.
type Constant struct {
	Kind   ConstKind
	Value  string
	Line   int
	Column int
}

func (c *Constant) Pos() (int, int) { return c.Line, c.Column }
func (c *Constant) exprNode()       {}

// Attribute represents `value.attr`
type Attribute struct {
	Value  Expr
	Attr   string
	Line   int
	Column int
}

func (a *Attribute) Pos() (int, int) { return a.Line, a.Column }
func (a *Attribute) exprNode()       {}

// Keyword is a `name=value` call argument
type Keyword struct {
	Name  string
	Value Expr
}

// Call represents `func(args, name=value)`
type Call struct {
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
	Line     int
	Column   int
}

func (c *Call) Pos() (int, int) { return c.Line, c.Column }
func (c *Call) exprNode()       {}

// UnaryOp represents a prefix operation
type UnaryOp struct {
	Op      UnaryOperator
	Operand Expr
	Line    int
	Column  int
}

func (u *UnaryOp) Pos() (int, int) { return u.Line, u.Column }
func (u *UnaryOp) exprNode()       {}

// BinOp represents a binary arithmetic or bitwise operation
type BinOp struct {
	Left   Expr
	Op     Operator
	Right  Expr
	Line   int
	Column int
}

func (b *BinOp) Pos() (int, int) { return b.Line, b.Column }
func (b *BinOp) exprNode()       {}

// BoolOp represents `a and b and c` / `a or b`, flattened
type BoolOp struct {
	Op     BoolOperator
	Values []Expr
	Line   int
	Column int
}

func (b *BoolOp) Pos() (int, int) { return b.Line, b.Column }
func (b *BoolOp) exprNode()       {}

// Compare represents a comparison chain: Left Ops[0] Comparators[0] Ops[1] ...
type Compare struct {
	Left        Expr
	Ops         []CmpOp
	Comparators []Expr
	Line        int
	Column      int
}

func (c *Compare) Pos() (int, int) { return c.Line, c.Column }
func (c *Compare) exprNode()       {}

// Subscript represents `value[index]`
type Subscript struct {
	Value  Expr
	Index  Expr
	Line   int
	Column int
}

func (s *Subscript) Pos() (int, int) { return s.Line, s.Column }
func (s *Subscript) exprNode()       {}

// Slice represents `lower:upper:step` inside a subscript
type Slice struct {
	Lower  Expr
	Upper  Expr
	Step   Expr
	Line   int
	Column int
}

func (s *Slice) Pos() (int, int) { return s.Line, s.Column }
func (s *Slice) exprNode()       {}

// JoinedStr represents an f-string. Values holds string Constants for the
// literal segments and FormattedValues for the interpolations.
type JoinedStr struct {
	Values []Expr
	Line   int
	Column int
}

func (j *JoinedStr) Pos() (int, int) { return j.Line, j.Column }
func (j *JoinedStr) exprNode()       {}

// FormattedValue is one `{value!conv:spec}` interpolation
type FormattedValue struct {
	Value      Expr
	Conversion byte // 0, 's', 'r' or 'a'
	FormatSpec string
	Line       int
	Column     int
}

func (f *FormattedValue) Pos() (int, int) { return f.Line, f.Column }
func (f *FormattedValue) exprNode()       {}

// IfExp represents `body if test else orelse`
type IfExp struct {
	Test   Expr
	Body   Expr
	Orelse Expr
	Line   int
	Column int
}

func (i *IfExp) Pos() (int, int) { return i.Line, i.Column }
func (i *IfExp) exprNode()       {}

// List represents a list display `[a, b]`
type List struct {
	Elts   []Expr
	Line   int
	Column int
}

func (l *List) Pos() (int, int) { return l.Line, l.Column }
func (l *List) exprNode()       {}

// Tuple represents a tuple display `a, b` or `(a, b)`
type Tuple struct {
	Elts   []Expr
	Line   int
	Column int
}

func (t *Tuple) Pos() (int, int) { return t.Line, t.Column }
func (t *Tuple) exprNode()       {}

// Dict represents a dict display `{k: v}`
type Dict struct {
	Keys   []Expr
	Values []Expr
	Line   int
	Column int
}

func (d *Dict) Pos() (int, int) { return d.Line, d.Column }
func (d *Dict) exprNode()       {}

// UnsupportedExpr stands in for an expression kind outside the supported
// subset (lambda, comprehensions, starred, ...). Kind is the CPython node name.
type UnsupportedExpr struct {
	Kind   string
	Line   int
	Column int
}

func (u *UnsupportedExpr) Pos() (int, int) { return u.Line, u.Column }
func (u *UnsupportedExpr) exprNode()       {}
