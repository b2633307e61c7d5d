package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Print returns a tree-like string representation of the AST for debugging
func Print(node Node) string {
	var sb strings.Builder
	printNode(&sb, node, 0)
	return sb.String()
}

func printNode(sb *strings.Builder, node Node, indent int) {
	if node == nil {
		return
	}

	prefix := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *Module:
		sb.WriteString(prefix + "Module\n")
		printStmts(sb, n.Body, indent+1)

	case *FunctionDef:
		sb.WriteString(fmt.Sprintf("%sFunction: %s\n", prefix, n.Name))
		if len(n.Params) > 0 {
			sb.WriteString(fmt.Sprintf("%s  Params:\n", prefix))
			for _, p := range n.Params {
				printNode(sb, p, indent+2)
			}
		} else {
			sb.WriteString(fmt.Sprintf("%s  Params: none\n", prefix))
		}
		if n.Returns != nil {
			sb.WriteString(fmt.Sprintf("%s  Returns: %s\n", prefix, ExprString(n.Returns)))
		}
		sb.WriteString(fmt.Sprintf("%s  Body:\n", prefix))
		printStmts(sb, n.Body, indent+2)

	case *Param:
		line := prefix + n.Name
		if n.Annotation != nil {
			line += ": " + ExprString(n.Annotation)
		}
		if n.Default != nil {
			line += " = " + ExprString(n.Default)
		}
		sb.WriteString(line + "\n")

	case *ClassDef:
		bases := ""
		if len(n.Bases) > 0 {
			bases = " (" + joinExprs(n.Bases) + ")"
		}
		sb.WriteString(fmt.Sprintf("%sClass: %s%s\n", prefix, n.Name, bases))
		printStmts(sb, n.Body, indent+1)

	case *Assign:
		targets := make([]string, len(n.Targets))
		for i, t := range n.Targets {
			targets[i] = ExprString(t)
		}
		sb.WriteString(fmt.Sprintf("%sAssign: %s = %s\n", prefix, strings.Join(targets, " = "), ExprString(n.Value)))

	case *AugAssign:
		sb.WriteString(fmt.Sprintf("%sAugAssign: %s %s= %s\n", prefix, ExprString(n.Target), operatorSymbols[n.Op], ExprString(n.Value)))

	case *AnnAssign:
		line := fmt.Sprintf("%sAnnAssign: %s: %s", prefix, ExprString(n.Target), ExprString(n.Annotation))
		if n.Value != nil {
			line += " = " + ExprString(n.Value)
		}
		sb.WriteString(line + "\n")

	case *ExprStmt:
		sb.WriteString(fmt.Sprintf("%sExpr: %s\n", prefix, ExprString(n.Value)))

	case *Return:
		if n.Value != nil {
			sb.WriteString(fmt.Sprintf("%sReturn: %s\n", prefix, ExprString(n.Value)))
		} else {
			sb.WriteString(prefix + "Return\n")
		}

	case *If:
		sb.WriteString(fmt.Sprintf("%sIf: %s\n", prefix, ExprString(n.Test)))
		sb.WriteString(fmt.Sprintf("%s  Then:\n", prefix))
		printStmts(sb, n.Body, indent+2)
		if len(n.Orelse) > 0 {
			sb.WriteString(fmt.Sprintf("%s  Else:\n", prefix))
			printStmts(sb, n.Orelse, indent+2)
		}

	case *For:
		sb.WriteString(fmt.Sprintf("%sFor: %s in %s\n", prefix, ExprString(n.Target), ExprString(n.Iter)))
		printStmts(sb, n.Body, indent+1)

	case *While:
		sb.WriteString(fmt.Sprintf("%sWhile: %s\n", prefix, ExprString(n.Test)))
		printStmts(sb, n.Body, indent+1)

	case *Pass:
		sb.WriteString(prefix + "Pass\n")

	case *Break:
		sb.WriteString(prefix + "Break\n")

	case *Continue:
		sb.WriteString(prefix + "Continue\n")

	case *UnsupportedStmt:
		sb.WriteString(fmt.Sprintf("%sUnsupported: %s\n", prefix, n.Kind))

	case Expr:
		sb.WriteString(prefix + ExprString(n) + "\n")

	default:
		sb.WriteString(fmt.Sprintf("%s<unknown node %T>\n", prefix, node))
	}
}

func printStmts(sb *strings.Builder, stmts []Stmt, indent int) {
	for _, s := range stmts {
		printNode(sb, s, indent)
	}
}

var operatorSymbols = map[Operator]string{
	Add:      "+",
	Sub:      "-",
	Mult:     "*",
	Div:      "/",
	FloorDiv: "//",
	Mod:      "%",
	Pow:      "**",
	MatMult:  "@",
	BitAnd:   "&",
	BitOr:    "|",
	BitXor:   "^",
	LShift:   "<<",
	RShift:   ">>",
}

var cmpSymbols = map[CmpOp]string{
	Eq:    "==",
	NotEq: "!=",
	Lt:    "<",
	LtE:   "<=",
	Gt:    ">",
	GtE:   ">=",
	Is:    "is",
	IsNot: "is not",
	In:    "in",
	NotIn: "not in",
}

// Symbol returns the source spelling of the operator
func (o Operator) Symbol() string { return operatorSymbols[o] }

// Symbol returns the source spelling of the comparison operator
func (c CmpOp) Symbol() string { return cmpSymbols[c] }

// ExprString renders an expression back in source form. It is used for
// diagnostics and for the comments of degraded constructs.
func ExprString(e Expr) string {
	switch n := e.(type) {
	case nil:
		return ""
	case *Name:
		return n.ID
	case *Constant:
		switch n.Kind {
		case ConstNone:
			return "None"
		case ConstString:
			return strconv.Quote(n.Value)
		default:
			return n.Value
		}
	case *Attribute:
		return ExprString(n.Value) + "." + n.Attr
	case *Call:
		args := make([]string, 0, len(n.Args)+len(n.Keywords))
		for _, a := range n.Args {
			args = append(args, ExprString(a))
		}
		for _, kw := range n.Keywords {
			args = append(args, kw.Name+"="+ExprString(kw.Value))
		}
		return ExprString(n.Func) + "(" + strings.Join(args, ", ") + ")"
	case *UnaryOp:
		switch n.Op {
		case Not:
			return "not " + ExprString(n.Operand)
		case USub:
			return "-" + ExprString(n.Operand)
		case UAdd:
			return "+" + ExprString(n.Operand)
		default:
			return "~" + ExprString(n.Operand)
		}
	case *BinOp:
		return "(" + ExprString(n.Left) + " " + operatorSymbols[n.Op] + " " + ExprString(n.Right) + ")"
	case *BoolOp:
		op := " and "
		if n.Op == Or {
			op = " or "
		}
		parts := make([]string, len(n.Values))
		for i, v := range n.Values {
			parts[i] = ExprString(v)
		}
		return "(" + strings.Join(parts, op) + ")"
	case *Compare:
		var sb strings.Builder
		sb.WriteString(ExprString(n.Left))
		for i, op := range n.Ops {
			sb.WriteString(" " + cmpSymbols[op] + " ")
			if i < len(n.Comparators) {
				sb.WriteString(ExprString(n.Comparators[i]))
			}
		}
		return sb.String()
	case *Subscript:
		return ExprString(n.Value) + "[" + ExprString(n.Index) + "]"
	case *Slice:
		s := ExprString(n.Lower) + ":" + ExprString(n.Upper)
		if n.Step != nil {
			s += ":" + ExprString(n.Step)
		}
		return s
	case *JoinedStr:
		var sb strings.Builder
		sb.WriteString(`f"`)
		for _, v := range n.Values {
			switch part := v.(type) {
			case *Constant:
				sb.WriteString(strings.NewReplacer("{", "{{", "}", "}}").Replace(part.Value))
			case *FormattedValue:
				sb.WriteString("{" + ExprString(part.Value) + "}")
			}
		}
		sb.WriteString(`"`)
		return sb.String()
	case *FormattedValue:
		return "{" + ExprString(n.Value) + "}"
	case *IfExp:
		return ExprString(n.Body) + " if " + ExprString(n.Test) + " else " + ExprString(n.Orelse)
	case *List:
		return "[" + joinExprs(n.Elts) + "]"
	case *Tuple:
		return "(" + joinExprs(n.Elts) + ")"
	case *Dict:
		parts := make([]string, len(n.Keys))
		for i := range n.Keys {
			parts[i] = ExprString(n.Keys[i]) + ": " + ExprString(n.Values[i])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *UnsupportedExpr:
		return "<" + n.Kind + ">"
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = ExprString(e)
	}
	return strings.Join(parts, ", ")
}
