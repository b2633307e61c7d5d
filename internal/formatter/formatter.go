package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lhaig/pylower/internal/ast"
)

// Format takes a parsed module and returns canonical source for it: four
// space indentation, two blank lines around top-level definitions, one
// between methods, and only the parentheses precedence requires.
//
// Constructs outside the supported subset were not kept by the frontend;
// an unsupported statement is written as a `pass` carrying a comment and an
// unsupported expression as `...`.
func Format(mod *ast.Module) string {
	f := &formatter{}
	if mod != nil {
		f.formatModule(mod)
	}
	return f.sb.String()
}

type formatter struct {
	sb     strings.Builder
	indent int
}

// --- helpers (same pattern as the C emitter) ---

func (f *formatter) emitLine(s string) {
	if s == "" {
		f.sb.WriteString("\n")
	} else {
		f.sb.WriteString(f.indentStr())
		f.sb.WriteString(s)
		f.sb.WriteString("\n")
	}
}

func (f *formatter) emitLinef(format string, args ...any) {
	f.sb.WriteString(f.indentStr())
	f.sb.WriteString(fmt.Sprintf(format, args...))
	f.sb.WriteString("\n")
}

func (f *formatter) incIndent() { f.indent++ }
func (f *formatter) decIndent() { f.indent-- }

func (f *formatter) indentStr() string {
	return strings.Repeat("    ", f.indent)
}

func (f *formatter) blankLine() {
	f.sb.WriteString("\n")
}

// --- module-level ---

func (f *formatter) formatModule(mod *ast.Module) {
	var prev ast.Stmt
	for _, stmt := range mod.Body {
		if prev != nil && (isDefinition(stmt) || isDefinition(prev)) {
			f.blankLine()
			f.blankLine()
		}
		f.formatStmt(stmt)
		prev = stmt
	}
}

func isDefinition(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.FunctionDef, *ast.ClassDef:
		return true
	}
	return false
}

// --- definitions ---

func (f *formatter) formatFunctionDef(fn *ast.FunctionDef) {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = f.formatParam(p)
	}
	ret := ""
	if fn.Returns != nil {
		ret = " -> " + f.formatExpr(fn.Returns)
	}
	f.emitLinef("def %s(%s)%s:", fn.Name, strings.Join(params, ", "), ret)
	f.formatBody(fn.Body)
}

func (f *formatter) formatParam(p *ast.Param) string {
	s := p.Name
	switch {
	case p.Annotation != nil && p.Default != nil:
		s += ": " + f.formatExpr(p.Annotation) + " = " + f.formatExpr(p.Default)
	case p.Annotation != nil:
		s += ": " + f.formatExpr(p.Annotation)
	case p.Default != nil:
		s += "=" + f.formatExpr(p.Default)
	}
	return s
}

func (f *formatter) formatClassDef(cls *ast.ClassDef) {
	if len(cls.Bases) == 0 {
		f.emitLinef("class %s:", cls.Name)
	} else {
		f.emitLinef("class %s(%s):", cls.Name, f.formatExprList(cls.Bases))
	}

	f.incIndent()
	defer f.decIndent()
	if len(cls.Body) == 0 {
		f.emitLine("pass")
		return
	}
	for i, stmt := range cls.Body {
		if i > 0 && (isDefinition(stmt) || isDefinition(cls.Body[i-1])) {
			f.blankLine()
		}
		f.formatStmt(stmt)
	}
}

// --- statements ---

func (f *formatter) formatBody(body []ast.Stmt) {
	f.incIndent()
	defer f.decIndent()
	if len(body) == 0 {
		f.emitLine("pass")
		return
	}
	for _, stmt := range body {
		f.formatStmt(stmt)
	}
}

func (f *formatter) formatStmt(s ast.Stmt) {
	switch stmt := s.(type) {
	case *ast.FunctionDef:
		f.formatFunctionDef(stmt)

	case *ast.ClassDef:
		f.formatClassDef(stmt)

	case *ast.Assign:
		targets := make([]string, len(stmt.Targets))
		for i, t := range stmt.Targets {
			targets[i] = f.formatTarget(t)
		}
		f.emitLinef("%s = %s", strings.Join(targets, " = "), f.formatTarget(stmt.Value))

	case *ast.AugAssign:
		f.emitLinef("%s %s= %s", f.formatExpr(stmt.Target), stmt.Op.Symbol(), f.formatTarget(stmt.Value))

	case *ast.AnnAssign:
		if stmt.Value != nil {
			f.emitLinef("%s: %s = %s", f.formatExpr(stmt.Target), f.formatExpr(stmt.Annotation), f.formatTarget(stmt.Value))
		} else {
			f.emitLinef("%s: %s", f.formatExpr(stmt.Target), f.formatExpr(stmt.Annotation))
		}

	case *ast.ExprStmt:
		f.emitLine(f.formatTarget(stmt.Value))

	case *ast.Return:
		if stmt.Value != nil {
			f.emitLinef("return %s", f.formatTarget(stmt.Value))
		} else {
			f.emitLine("return")
		}

	case *ast.If:
		f.formatIf(stmt, "if")

	case *ast.For:
		f.emitLinef("for %s in %s:", f.formatTarget(stmt.Target), f.formatTarget(stmt.Iter))
		f.formatBody(stmt.Body)
		f.formatElse(stmt.Orelse)

	case *ast.While:
		f.emitLinef("while %s:", f.formatExpr(stmt.Test))
		f.formatBody(stmt.Body)
		f.formatElse(stmt.Orelse)

	case *ast.Pass:
		f.emitLine("pass")

	case *ast.Break:
		f.emitLine("break")

	case *ast.Continue:
		f.emitLine("continue")

	case *ast.UnsupportedStmt:
		f.emitLinef("pass  # unsupported: %s", stmt.Kind)
	}
}

func (f *formatter) formatIf(stmt *ast.If, keyword string) {
	f.emitLinef("%s %s:", keyword, f.formatExpr(stmt.Test))
	f.formatBody(stmt.Body)
	if len(stmt.Orelse) == 1 {
		if elif, ok := stmt.Orelse[0].(*ast.If); ok {
			f.formatIf(elif, "elif")
			return
		}
	}
	f.formatElse(stmt.Orelse)
}

func (f *formatter) formatElse(orelse []ast.Stmt) {
	if len(orelse) == 0 {
		return
	}
	f.emitLine("else:")
	f.formatBody(orelse)
}

// formatTarget formats an expression in a position where a bare tuple is
// allowed
func (f *formatter) formatTarget(e ast.Expr) string {
	if t, ok := e.(*ast.Tuple); ok && len(t.Elts) > 1 {
		return f.formatExprList(t.Elts)
	}
	return f.formatExpr(e)
}

// --- expressions ---

// Precedence levels, loosest first
const (
	precTest    = iota + 1 // x if c else y
	precOr                 // or
	precAnd                // and
	precNot                // not x
	precCompare            // < == in is ...
	precBitOr              // |
	precBitXor             // ^
	precBitAnd             // &
	precShift              // << >>
	precArith              // + -
	precTerm               // * / // % @
	precUnary              // -x +x ~x
	precPower              // **
	precPostfix            // calls, attributes, subscripts
	precAtom
)

func (f *formatter) formatExpr(e ast.Expr) string {
	return f.formatExprPrec(e, 0)
}

func (f *formatter) formatExprList(exprs []ast.Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = f.formatExpr(e)
	}
	return strings.Join(parts, ", ")
}

// formatExprPrec formats an expression, wrapping in parens if needed based on parent precedence.
func (f *formatter) formatExprPrec(e ast.Expr, parentPrec int) string {
	result, prec := f.render(e)
	if prec < parentPrec {
		return "(" + result + ")"
	}
	return result
}

// render returns the unparenthesized text of e and its precedence
func (f *formatter) render(e ast.Expr) (string, int) {
	switch expr := e.(type) {
	case *ast.Name:
		return expr.ID, precAtom

	case *ast.Constant:
		if expr.Kind == ast.ConstString {
			return quote(expr.Value), precAtom
		}
		return expr.Value, precAtom

	case *ast.Attribute:
		return f.formatExprPrec(expr.Value, precPostfix) + "." + expr.Attr, precPostfix

	case *ast.Call:
		args := make([]string, 0, len(expr.Args)+len(expr.Keywords))
		for _, a := range expr.Args {
			args = append(args, f.formatExpr(a))
		}
		for _, kw := range expr.Keywords {
			args = append(args, kw.Name+"="+f.formatExpr(kw.Value))
		}
		return f.formatExprPrec(expr.Func, precPostfix) + "(" + strings.Join(args, ", ") + ")", precPostfix

	case *ast.Subscript:
		return f.formatExprPrec(expr.Value, precPostfix) + "[" + f.formatTarget(expr.Index) + "]", precPostfix

	case *ast.Slice:
		s := f.formatOptional(expr.Lower) + ":" + f.formatOptional(expr.Upper)
		if expr.Step != nil {
			s += ":" + f.formatExpr(expr.Step)
		}
		return s, precAtom

	case *ast.UnaryOp:
		if expr.Op == ast.Not {
			return "not " + f.formatExprPrec(expr.Operand, precNot), precNot
		}
		return unarySymbol(expr.Op) + f.formatExprPrec(expr.Operand, precUnary), precUnary

	case *ast.BinOp:
		prec := binaryPrecedence(expr.Op)
		left, right := prec, prec+1 // +1 for left-associativity
		if expr.Op == ast.Pow {
			left, right = prec+1, precUnary
		}
		return f.formatExprPrec(expr.Left, left) + " " + expr.Op.Symbol() + " " + f.formatExprPrec(expr.Right, right), prec

	case *ast.BoolOp:
		prec, op := precAnd, " and "
		if expr.Op == ast.Or {
			prec, op = precOr, " or "
		}
		parts := make([]string, len(expr.Values))
		for i, v := range expr.Values {
			parts[i] = f.formatExprPrec(v, prec+1)
		}
		return strings.Join(parts, op), prec

	case *ast.Compare:
		var sb strings.Builder
		sb.WriteString(f.formatExprPrec(expr.Left, precCompare+1))
		for i, op := range expr.Ops {
			sb.WriteString(" " + op.Symbol() + " ")
			if i < len(expr.Comparators) {
				sb.WriteString(f.formatExprPrec(expr.Comparators[i], precCompare+1))
			}
		}
		return sb.String(), precCompare

	case *ast.IfExp:
		return f.formatExprPrec(expr.Body, precTest+1) + " if " + f.formatExprPrec(expr.Test, precTest+1) +
			" else " + f.formatExprPrec(expr.Orelse, precTest), precTest

	case *ast.JoinedStr:
		return f.formatFString(expr), precAtom

	case *ast.List:
		return "[" + f.formatExprList(expr.Elts) + "]", precAtom

	case *ast.Tuple:
		if len(expr.Elts) == 1 {
			return "(" + f.formatExpr(expr.Elts[0]) + ",)", precAtom
		}
		return "(" + f.formatExprList(expr.Elts) + ")", precAtom

	case *ast.Dict:
		parts := make([]string, len(expr.Keys))
		for i := range expr.Keys {
			parts[i] = f.formatExpr(expr.Keys[i]) + ": " + f.formatExpr(expr.Values[i])
		}
		return "{" + strings.Join(parts, ", ") + "}", precAtom

	default:
		return "...", precAtom
	}
}

func (f *formatter) formatOptional(e ast.Expr) string {
	if e == nil {
		return ""
	}
	return f.formatExpr(e)
}

func (f *formatter) formatFString(js *ast.JoinedStr) string {
	var sb strings.Builder
	sb.WriteString(`f"`)
	for _, v := range js.Values {
		switch part := v.(type) {
		case *ast.Constant:
			lit := escape(part.Value)
			lit = strings.NewReplacer("{", "{{", "}", "}}").Replace(lit)
			sb.WriteString(lit)
		case *ast.FormattedValue:
			sb.WriteString("{")
			inner := f.formatExpr(part.Value)
			if strings.HasPrefix(inner, "{") {
				inner = " " + inner
			}
			sb.WriteString(inner)
			if part.Conversion != 0 {
				sb.WriteString("!" + string(part.Conversion))
			}
			if part.FormatSpec != "" {
				sb.WriteString(":" + part.FormatSpec)
			}
			sb.WriteString("}")
		}
	}
	sb.WriteString(`"`)
	return sb.String()
}

// quote writes a double-quoted literal for s
func quote(s string) string {
	return `"` + escape(s) + `"`
}

func escape(s string) string {
	q := strconv.Quote(s)
	return q[1 : len(q)-1]
}

func unarySymbol(op ast.UnaryOperator) string {
	switch op {
	case ast.USub:
		return "-"
	case ast.UAdd:
		return "+"
	default:
		return "~"
	}
}

func binaryPrecedence(op ast.Operator) int {
	switch op {
	case ast.BitOr:
		return precBitOr
	case ast.BitXor:
		return precBitXor
	case ast.BitAnd:
		return precBitAnd
	case ast.LShift, ast.RShift:
		return precShift
	case ast.Add, ast.Sub:
		return precArith
	case ast.Pow:
		return precPower
	default:
		return precTerm
	}
}
