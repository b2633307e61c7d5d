package lower

import (
	"fmt"
	"strings"

	"github.com/lhaig/pylower/internal/ast"
)

var binaryOps = map[ast.Operator]string{
	ast.Add:      "+",
	ast.Sub:      "-",
	ast.Mult:     "*",
	ast.Div:      "/",
	ast.FloorDiv: "/",
	ast.Mod:      "%",
	ast.BitAnd:   "&",
	ast.BitOr:    "|",
	ast.BitXor:   "^",
	ast.LShift:   "<<",
	ast.RShift:   ">>",
}

var compareOps = map[ast.CmpOp]string{
	ast.Eq:    "==",
	ast.NotEq: "!=",
	ast.Lt:    "<",
	ast.LtE:   "<=",
	ast.Gt:    ">",
	ast.GtE:   ">=",
	ast.Is:    "==",
	ast.IsNot: "!=",
}

// lowerExpr translates an expression into C expression text
func (c *Context) lowerExpr(e ast.Expr) string {
	switch n := e.(type) {
	case nil:
		return ""

	case *ast.Name:
		if renamed, ok := c.renames[n.ID]; ok {
			return renamed
		}
		return cIdent(n.ID)

	case *ast.Constant:
		return c.lowerConstant(n)

	case *ast.Attribute:
		return c.lowerExpr(n.Value) + "->" + cIdent(n.Attr)

	case *ast.Call:
		return c.lowerCall(n)

	case *ast.UnaryOp:
		if k, ok := n.Operand.(*ast.Constant); ok && n.Op == ast.USub && (k.Kind == ast.ConstInt || k.Kind == ast.ConstFloat) {
			return "-" + k.Value
		}
		operand := c.lowerExpr(n.Operand)
		switch n.Op {
		case ast.Not:
			return "!(" + operand + ")"
		case ast.USub:
			return "-(" + operand + ")"
		case ast.Invert:
			return "~(" + operand + ")"
		default:
			return operand
		}

	case *ast.BinOp:
		return c.lowerBinOp(n)

	case *ast.BoolOp:
		op := " && "
		if n.Op == ast.Or {
			op = " || "
		}
		parts := make([]string, len(n.Values))
		for i, v := range n.Values {
			parts[i] = c.lowerExpr(v)
		}
		return "(" + strings.Join(parts, op) + ")"

	case *ast.Compare:
		return c.lowerCompare(n)

	case *ast.Subscript:
		if _, ok := n.Index.(*ast.Slice); ok {
			return c.placeholder(n, "slice")
		}
		if _, ok := n.Index.(*ast.Tuple); ok {
			return c.placeholder(n, "tuple subscript")
		}
		return c.lowerExpr(n.Value) + "[" + c.lowerExpr(n.Index) + "]"

	case *ast.JoinedStr:
		return c.lowerJoinedStr(n)

	case *ast.IfExp:
		return "(" + c.lowerExpr(n.Test) + " ? " + c.lowerExpr(n.Body) + " : " + c.lowerExpr(n.Orelse) + ")"

	case *ast.List:
		return c.lowerList(n)

	case *ast.Tuple:
		return c.placeholder(n, "Tuple")

	case *ast.Dict:
		return c.placeholder(n, "Dict")

	case *ast.UnsupportedExpr:
		return c.placeholder(n, n.Kind)

	default:
		return c.placeholder(e, fmt.Sprintf("%T", e))
	}
}

func (c *Context) lowerConstant(n *ast.Constant) string {
	switch n.Kind {
	case ast.ConstNone:
		c.usesNull = true
		return "NULL"
	case ast.ConstBool:
		if n.Value == "True" {
			return "1"
		}
		return "0"
	case ast.ConstString:
		return cQuote(n.Value)
	default:
		return n.Value
	}
}

func (c *Context) lowerBinOp(n *ast.BinOp) string {
	left, right := c.lowerExpr(n.Left), c.lowerExpr(n.Right)
	if n.Op == ast.Pow {
		c.need("math.h")
		return "pow(" + left + ", " + right + ")"
	}
	op, ok := binaryOps[n.Op]
	if !ok {
		return c.placeholder(n, "operator "+n.Op.Symbol())
	}
	return "(" + left + " " + op + " " + right + ")"
}

// lowerCompare lowers a comparison chain of k operators into k pairwise
// comparisons joined by &&
func (c *Context) lowerCompare(n *ast.Compare) string {
	parts := make([]string, 0, len(n.Ops))
	left := c.lowerExpr(n.Left)
	for i, op := range n.Ops {
		right := c.lowerExpr(n.Comparators[i])
		sym, ok := compareOps[op]
		if !ok {
			return c.placeholder(n, "comparison '"+op.Symbol()+"'")
		}
		parts = append(parts, "("+left+" "+sym+" "+right+")")
		left = right
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " && ") + ")"
}

// lowerList lowers a homogeneous list of literals to a compound literal
func (c *Context) lowerList(n *ast.List) string {
	if len(n.Elts) == 0 {
		return c.placeholder(n, "empty List")
	}
	elem := ""
	for _, e := range n.Elts {
		t := InferType(e, "")
		if t == "" || (elem != "" && t != elem) {
			return c.placeholder(n, "List")
		}
		elem = t
	}
	parts := make([]string, len(n.Elts))
	for i, e := range n.Elts {
		parts[i] = c.lowerExpr(e)
	}
	return "(" + elem + "[]){" + strings.Join(parts, ", ") + "}"
}

// lowerCall dispatches on the callee: method calls through the vtable,
// constructors, builtins, then ordinary calls
func (c *Context) lowerCall(n *ast.Call) string {
	switch fn := n.Func.(type) {
	case *ast.Attribute:
		if s, ok := c.lowerSuperCall(n, fn); ok {
			return s
		}
		if rec := c.receiverClass(fn.Value); rec != nil {
			if _, ok := rec.Lookup(fn.Attr); ok {
				recv := c.lowerExpr(fn.Value)
				return recv + "->vtable->" + cIdent(fn.Attr) + "(" + joinArgs(recv, c.lowerArgs(n)) + ")"
			}
		}

	case *ast.Name:
		if fn.ID == "print" {
			return c.lowerPrint(n)
		}
		if rec, ok := c.classes[fn.ID]; ok {
			return rec.Name + "_new(" + strings.Join(c.lowerArgs(n), ", ") + ")"
		}
		if s, ok := c.lowerBuiltin(fn.ID, n); ok {
			return s
		}
	}

	return c.lowerExpr(n.Func) + "(" + strings.Join(c.lowerArgs(n), ", ") + ")"
}

// lowerArgs lowers positional arguments followed by keyword values, which
// are passed positionally
func (c *Context) lowerArgs(n *ast.Call) []string {
	args := make([]string, 0, len(n.Args)+len(n.Keywords))
	for _, a := range n.Args {
		args = append(args, c.lowerExpr(a))
	}
	for _, kw := range n.Keywords {
		c.warnExpr(n, "keyword argument '%s' passed positionally", kw.Name)
		args = append(args, c.lowerExpr(kw.Value))
	}
	return args
}

// receiverClass returns the class of a method-call receiver when it is
// statically known: a local bound to a class, or a field holding one
func (c *Context) receiverClass(e ast.Expr) *ClassRecord {
	switch v := e.(type) {
	case *ast.Name:
		if l, ok := c.scope.Lookup(v.ID); ok && l.Class != "" {
			return c.classes[l.Class]
		}
	case *ast.Attribute:
		if f := c.fieldOf(v); f != nil && f.Class != "" {
			return c.classes[f.Class]
		}
	}
	return nil
}

// fieldOf resolves `recv.attr` to a field when recv is a class instance
func (c *Context) fieldOf(a *ast.Attribute) *Field {
	rec := c.receiverClass(a.Value)
	if rec == nil {
		return nil
	}
	f, _ := rec.Field(a.Attr)
	return f
}

// lowerSuperCall lowers super().m(args) inside a method into a direct call
// of the base class's implementation
func (c *Context) lowerSuperCall(n *ast.Call, fn *ast.Attribute) (string, bool) {
	inner, ok := fn.Value.(*ast.Call)
	if !ok || !isName(inner.Func, "super") || c.class == nil {
		return "", false
	}
	owner := c.classes[c.owner]
	if owner == nil || owner.Base == "" {
		return c.placeholder(n, "super() without a known base"), true
	}
	base := c.classes[owner.Base]
	if _, ok := base.Lookup(fn.Attr); !ok {
		return c.placeholder(n, "super()."+fn.Attr), true
	}
	self := "(" + base.Name + " *)" + c.self
	return base.Name + "_" + fn.Attr + "(" + joinArgs(self, c.lowerArgs(n)) + ")", true
}

// lowerBuiltin lowers the builtins that have a direct C counterpart
func (c *Context) lowerBuiltin(name string, n *ast.Call) (string, bool) {
	if len(n.Args) != 1 || len(n.Keywords) != 0 {
		return "", false
	}
	if _, shadowed := c.funcs[name]; shadowed {
		return "", false
	}
	arg := c.lowerExpr(n.Args[0])
	switch name {
	case "len":
		c.need("string.h")
		return "strlen(" + arg + ")", true
	case "int":
		return "((int)(" + arg + "))", true
	case "float":
		return "((double)(" + arg + "))", true
	case "abs":
		return "((" + arg + ") < 0 ? -(" + arg + ") : (" + arg + "))", true
	case "str":
		return c.formatCall("%"+formatVerb(c.exprType(n.Args[0])), []string{arg}), true
	}
	return "", false
}

// lowerPrint lowers print(...) to printf. Plain arguments use a verb
// chosen from their type; f-string arguments are spliced into the format.
func (c *Context) lowerPrint(n *ast.Call) string {
	c.need("stdio.h")

	sep, end := " ", "\n"
	for _, kw := range n.Keywords {
		s, ok := kw.Value.(*ast.Constant)
		if !ok || s.Kind != ast.ConstString {
			c.warnExpr(n, "print keyword '%s' must be a string literal; ignored", kw.Name)
			continue
		}
		switch kw.Name {
		case "sep":
			sep = s.Value
		case "end":
			end = s.Value
		default:
			c.warnExpr(n, "print keyword '%s' ignored", kw.Name)
		}
	}

	if len(n.Args) == 0 {
		return "printf(" + cQuote(escapePercent(end)) + ")"
	}

	var format strings.Builder
	var args []string
	for i, a := range n.Args {
		if i > 0 {
			format.WriteString(escapePercent(sep))
		}
		if js, ok := a.(*ast.JoinedStr); ok {
			f, vals := c.splitJoinedStr(js)
			format.WriteString(f)
			args = append(args, vals...)
			continue
		}
		format.WriteString("%" + formatVerb(c.exprType(a)))
		args = append(args, c.lowerExpr(a))
	}
	format.WriteString(escapePercent(end))
	return "printf(" + joinArgs(cQuote(format.String()), args) + ")"
}

// lowerJoinedStr lowers an f-string to a py_format call threading every
// interpolated value; an f-string without values is a plain literal
func (c *Context) lowerJoinedStr(n *ast.JoinedStr) string {
	format, args := c.splitJoinedStr(n)
	if len(args) == 0 {
		return cQuote(strings.ReplaceAll(format, "%%", "%"))
	}
	return c.formatCall(format, args)
}

func (c *Context) formatCall(format string, args []string) string {
	c.usesFormat = true
	c.need("stdio.h")
	c.need("stdlib.h")
	c.need("stdarg.h")
	return "py_format(" + joinArgs(cQuote(format), args) + ")"
}

// splitJoinedStr returns the printf format of an f-string and its lowered
// values
func (c *Context) splitJoinedStr(n *ast.JoinedStr) (string, []string) {
	var format strings.Builder
	var args []string
	for _, v := range n.Values {
		switch part := v.(type) {
		case *ast.Constant:
			format.WriteString(escapePercent(part.Value))
		case *ast.FormattedValue:
			verb := c.conversion(part)
			if part.Conversion == 'r' && c.exprType(part.Value) == TypeString {
				verb = "'" + verb + "'"
			}
			format.WriteString(verb)
			args = append(args, c.lowerExpr(part.Value))
		default:
			format.WriteString("%s")
			args = append(args, c.lowerExpr(v))
		}
	}
	return format.String(), args
}

// conversion translates a format spec such as ".2f", ">8" or "05d" into a
// printf conversion; an unsupported spec falls back to the type's verb
func (c *Context) conversion(fv *ast.FormattedValue) string {
	verb := formatVerb(c.exprType(fv.Value))
	spec := fv.FormatSpec
	if spec == "" {
		return "%" + verb
	}

	var flags string
	i := 0
	if i < len(spec) && strings.ContainsRune("<>^", rune(spec[i])) {
		if spec[i] == '<' {
			flags = "-"
		}
		i++
	}
	if i < len(spec) && spec[i] == '0' {
		flags += "0"
		i++
	}
	start := i
	for i < len(spec) && spec[i] >= '0' && spec[i] <= '9' {
		i++
	}
	width := spec[start:i]
	var prec string
	if i < len(spec) && spec[i] == '.' {
		start = i
		i++
		for i < len(spec) && spec[i] >= '0' && spec[i] <= '9' {
			i++
		}
		prec = spec[start:i]
	}
	if i < len(spec) && strings.ContainsRune("dfeEgGxXocs", rune(spec[i])) {
		verb = string(spec[i])
		i++
	}
	if i != len(spec) {
		c.warnExpr(fv, "format spec '%s' not supported; using %%%s", spec, verb)
		return "%" + formatVerb(c.exprType(fv.Value))
	}
	return "%" + flags + width + prec + verb
}

// escapePercent doubles % so literal text survives as a printf format
func escapePercent(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}

// cQuote renders s as a C string literal
func cQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\000`)
		default:
			if ch < 0x20 || ch == 0x7f {
				fmt.Fprintf(&sb, `\%03o`, ch)
			} else {
				sb.WriteByte(ch)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
