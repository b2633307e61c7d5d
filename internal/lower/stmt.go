package lower

import (
	"fmt"
	"strings"

	"github.com/lhaig/pylower/internal/ast"
)

func (c *Context) lowerBody(body []ast.Stmt) {
	for _, s := range body {
		c.lowerStmt(s)
	}
}

// lowerStmt lowers one statement into the current writer. A failure inside
// the statement rolls back its partial output and leaves a marker comment.
func (c *Context) lowerStmt(stmt ast.Stmt) {
	w := c.w
	n, indent := w.mark()
	defer func() {
		if r := recover(); r != nil {
			w.reset(n, indent)
			w.emitLine("/* error: statement could not be lowered */")
			c.warnStmt(stmt, "statement could not be lowered: %v", r)
		}
	}()

	switch s := stmt.(type) {
	case *ast.Assign:
		c.lowerAssign(s)
	case *ast.AnnAssign:
		c.lowerAnnAssign(s)
	case *ast.AugAssign:
		c.lowerAugAssign(s)
	case *ast.ExprStmt:
		if isDocstring(s) {
			return
		}
		if u, ok := s.Value.(*ast.UnsupportedExpr); ok && u.Kind == "Ellipsis" {
			return
		}
		w.emitLine(c.lowerExpr(s.Value) + ";")
	case *ast.Return:
		if s.Value == nil {
			w.emitLine("return;")
			return
		}
		w.emitLine("return " + c.lowerExpr(s.Value) + ";")
	case *ast.If:
		c.lowerIf(s, false)
	case *ast.For:
		c.lowerFor(s)
	case *ast.While:
		w.emitLine("while (" + c.cond(s.Test) + ") {")
		w.incIndent()
		c.lowerBody(s.Body)
		w.decIndent()
		w.emitLine("}")
		c.dropElse(s, s.Orelse, "while")
	case *ast.Pass:
	case *ast.Break:
		w.emitLine("break;")
	case *ast.Continue:
		w.emitLine("continue;")
	case *ast.FunctionDef:
		c.unsupportedStmt(s, "nested function "+s.Name)
	case *ast.ClassDef:
		c.unsupportedStmt(s, "nested class "+s.Name)
	case *ast.UnsupportedStmt:
		c.unsupportedStmt(s, s.Kind)
	default:
		c.unsupportedStmt(stmt, fmt.Sprintf("%T", stmt))
	}
}

func (c *Context) unsupportedStmt(s ast.Stmt, what string) {
	c.warnStmt(s, "unsupported statement %s skipped", what)
	c.w.emitLinef("/* unsupported: %s */", what)
}

// lowerAssign lowers `t1 = t2 = value`. The value is evaluated once into
// the first supported target and later targets copy it.
func (c *Context) lowerAssign(s *ast.Assign) {
	value := c.lowerExpr(s.Value)
	first := ""
	for _, target := range s.Targets {
		v := value
		if first != "" {
			v = first
		}
		text, ok := c.assignTo(target, s.Value, v)
		if ok && first == "" {
			first = text
		}
	}
}

// assignTo emits one assignment of the already lowered value v and returns
// the C text of the target
func (c *Context) assignTo(target, value ast.Expr, v string) (string, bool) {
	switch t := target.(type) {
	case *ast.Name:
		ctype, class := c.valueType(value)
		name := c.lowerExpr(t)
		isNew := c.scope.DeclareOrAssign(t.ID, ctype)
		if isNew {
			c.scope.bindClass(t.ID, class)
		}
		if isNew && !c.scope.Hoisted(t.ID) {
			c.w.emitLine(declare(ctype, name) + " = " + v + ";")
		} else {
			c.w.emitLine(name + " = " + v + ";")
		}
		return name, true

	case *ast.Attribute:
		if c.class != nil && isName(t.Value, c.self) {
			ctype, class := c.valueType(value)
			c.class.addField(t.Attr, ctype, class)
		}
		text := c.lowerExpr(t)
		c.w.emitLine(text + " = " + v + ";")
		return text, true

	case *ast.Subscript:
		text := c.lowerExpr(t)
		c.w.emitLine(text + " = " + v + ";")
		return text, true
	}

	c.warnExpr(target, "assignment to %s is not supported", ast.ExprString(target))
	c.w.emitLinef("/* unsupported assignment to %s */", ast.ExprString(target))
	return "", false
}

// valueType is the declared type of a first assignment. Literals follow
// InferType, constructor calls give the class pointer, and a typed local
// or field passes its type on.
func (c *Context) valueType(value ast.Expr) (string, string) {
	generic := c.opts.GenericType
	if call, ok := value.(*ast.Call); ok {
		if fn, ok := call.Func.(*ast.Name); ok {
			if rec, ok := c.classes[fn.ID]; ok {
				return rec.Name + " *", rec.Name
			}
		}
	}
	if t := InferType(value, generic); t != generic {
		return t, ""
	}
	switch v := value.(type) {
	case *ast.Name:
		if l, ok := c.scope.Lookup(v.ID); ok {
			return l.Type, l.Class
		}
	case *ast.Attribute:
		if f := c.fieldOf(v); f != nil {
			return f.Type, f.Class
		}
	}
	return generic, ""
}

func (c *Context) lowerAnnAssign(s *ast.AnnAssign) {
	ctype := c.declaredType(s.Annotation)
	class := c.classOfType(ctype)

	switch t := s.Target.(type) {
	case *ast.Name:
		name := c.lowerExpr(t)
		isNew := c.scope.DeclareOrAssign(t.ID, ctype)
		if isNew {
			c.scope.bindClass(t.ID, class)
		}
		inline := isNew && !c.scope.Hoisted(t.ID)
		switch {
		case s.Value == nil && inline:
			c.w.emitLine(declare(ctype, name) + ";")
		case s.Value == nil:
		case inline:
			c.w.emitLine(declare(ctype, name) + " = " + c.lowerExpr(s.Value) + ";")
		default:
			c.w.emitLine(name + " = " + c.lowerExpr(s.Value) + ";")
		}
	case *ast.Attribute:
		if c.class != nil && isName(t.Value, c.self) {
			c.class.addField(t.Attr, ctype, class)
		}
		if s.Value != nil {
			c.w.emitLine(c.lowerExpr(t) + " = " + c.lowerExpr(s.Value) + ";")
		}
	default:
		if s.Value != nil {
			c.w.emitLine(c.lowerExpr(t) + " = " + c.lowerExpr(s.Value) + ";")
		}
	}
}

// lowerAugAssign never declares: the target must already exist
func (c *Context) lowerAugAssign(s *ast.AugAssign) {
	target := c.lowerExpr(s.Target)
	value := c.lowerExpr(s.Value)
	if s.Op == ast.Pow {
		c.need("math.h")
		c.w.emitLine(target + " = pow(" + target + ", " + value + ");")
		return
	}
	op, ok := binaryOps[s.Op]
	if !ok {
		c.warnStmt(s, "unsupported augmented operator %s=", s.Op.Symbol())
		c.w.emitLinef("/* unsupported: %s %s= ... */", target, s.Op.Symbol())
		return
	}
	if n, ok := s.Target.(*ast.Name); ok {
		if _, declared := c.scope.Lookup(n.ID); !declared {
			c.warnStmt(s, "augmented assignment to undeclared name '%s'", n.ID)
		}
	}
	c.w.emitLine(target + " " + op + "= " + value + ";")
}

// lowerIf emits if / else if / else. An elif arrives as an Orelse holding
// a single If and continues the chain on the closing brace's line.
func (c *Context) lowerIf(s *ast.If, chained bool) {
	head := "if (" + c.cond(s.Test) + ") {"
	if chained {
		c.w.emitLine("} else " + head)
	} else {
		c.w.emitLine(head)
	}
	c.w.incIndent()
	c.lowerBody(s.Body)
	c.w.decIndent()

	if len(s.Orelse) == 1 {
		if elif, ok := s.Orelse[0].(*ast.If); ok {
			c.lowerIf(elif, true)
			return
		}
	}
	if len(s.Orelse) > 0 {
		c.w.emitLine("} else {")
		c.w.incIndent()
		c.lowerBody(s.Orelse)
		c.w.decIndent()
	}
	c.w.emitLine("}")
}

// cond lowers a condition, dropping one pair of parentheses that wraps the
// whole expression
func (c *Context) cond(e ast.Expr) string {
	return stripParens(c.lowerExpr(e))
}

func stripParens(s string) string {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return s
	}
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case inString:
			if ch == '\\' {
				i++
			} else if ch == '"' {
				inString = false
			}
		case ch == '"':
			inString = true
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return s
			}
		}
	}
	return s[1 : len(s)-1]
}

// rangeCall returns the range() call of a loop that lowers to a counted
// for: a plain name target over range with one to three positional
// arguments, when no user function shadows range
func (c *Context) rangeCall(s *ast.For) (*ast.Call, bool) {
	if _, simple := s.Target.(*ast.Name); !simple {
		return nil, false
	}
	call, ok := s.Iter.(*ast.Call)
	if !ok || !isName(call.Func, "range") || len(call.Args) < 1 || len(call.Args) > 3 || len(call.Keywords) != 0 {
		return nil, false
	}
	if _, shadowed := c.funcs["range"]; shadowed {
		return nil, false
	}
	return call, true
}

func (c *Context) lowerFor(s *ast.For) {
	target, simple := s.Target.(*ast.Name)
	if call, ok := c.rangeCall(s); ok {
		c.lowerRange(s, target, call.Args)
		return
	}

	what := ast.ExprString(s.Target) + " in " + ast.ExprString(s.Iter)
	c.warnStmt(s, "for loop over %s is not supported; body disabled", ast.ExprString(s.Iter))
	if simple {
		if c.scope.DeclareOrAssign(target.ID, c.opts.GenericType) {
			init := c.lowerExpr(target) + " = 0;"
			if !c.scope.Hoisted(target.ID) {
				init = declare(c.opts.GenericType, init)
			}
			c.w.emitLine(init)
		}
	}
	c.w.emitLinef("/* for %s: unsupported iterable */", strings.ReplaceAll(what, "*/", "* /"))
	c.w.emitLine("if (0) {")
	c.w.incIndent()
	c.lowerBody(s.Body)
	c.w.decIndent()
	c.w.emitLine("}")
	c.dropElse(s, s.Orelse, "for")
}

// lowerRange lowers `for i in range(...)` to a counted loop. One argument
// is the stop, two are start and stop, a third is the step. A literal
// negative step counts down.
func (c *Context) lowerRange(s *ast.For, target *ast.Name, args []ast.Expr) {
	start, step := "0", "1"
	var stop string
	switch len(args) {
	case 1:
		stop = c.lowerExpr(args[0])
	default:
		start = c.lowerExpr(args[0])
		stop = c.lowerExpr(args[1])
	}
	down := false
	if len(args) == 3 {
		step = c.lowerExpr(args[2])
		down = isNegativeLiteral(args[2])
		if isZeroLiteral(args[2]) {
			c.warnStmt(s, "range() step is zero")
		}
	}

	name := c.lowerExpr(target)
	init := name + " = " + start
	if c.scope.declareHere(target.ID, TypeInt) {
		init = declare(TypeInt, init)
	}
	cmp := " < "
	if down {
		cmp = " > "
	}
	incr := name + " += " + step
	if step == "1" {
		incr = name + "++"
	}
	c.w.emitLine("for (" + init + "; " + name + cmp + stop + "; " + incr + ") {")
	c.w.incIndent()
	c.lowerBody(s.Body)
	c.w.decIndent()
	c.w.emitLine("}")
	c.dropElse(s, s.Orelse, "for")
}

func isNegativeLiteral(e ast.Expr) bool {
	u, ok := e.(*ast.UnaryOp)
	if !ok || u.Op != ast.USub {
		return false
	}
	k, ok := u.Operand.(*ast.Constant)
	return ok && (k.Kind == ast.ConstInt || k.Kind == ast.ConstFloat)
}

func isZeroLiteral(e ast.Expr) bool {
	k, ok := e.(*ast.Constant)
	return ok && k.Kind == ast.ConstInt && strings.Trim(k.Value, "0") == ""
}

func (c *Context) dropElse(s ast.Stmt, orelse []ast.Stmt, loop string) {
	if len(orelse) == 0 {
		return
	}
	c.warnStmt(s, "else clause of %s loop is not supported and was dropped", loop)
	c.w.emitLinef("/* %s-else clause dropped */", loop)
}
