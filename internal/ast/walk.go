package ast

// Inspect traverses the tree rooted at node in depth-first order. It calls
// fn for each node; if fn returns false, the children of that node are
// skipped. Nested function and class bodies are visited like any other.
func Inspect(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *Module:
		inspectStmts(n.Body, fn)
	case *FunctionDef:
		for _, p := range n.Params {
			inspectExpr(p.Annotation, fn)
			inspectExpr(p.Default, fn)
		}
		inspectExpr(n.Returns, fn)
		inspectStmts(n.Body, fn)
	case *ClassDef:
		inspectExprs(n.Bases, fn)
		inspectStmts(n.Body, fn)
	case *Assign:
		inspectExprs(n.Targets, fn)
		inspectExpr(n.Value, fn)
	case *AugAssign:
		inspectExpr(n.Target, fn)
		inspectExpr(n.Value, fn)
	case *AnnAssign:
		inspectExpr(n.Target, fn)
		inspectExpr(n.Annotation, fn)
		inspectExpr(n.Value, fn)
	case *ExprStmt:
		inspectExpr(n.Value, fn)
	case *Return:
		inspectExpr(n.Value, fn)
	case *If:
		inspectExpr(n.Test, fn)
		inspectStmts(n.Body, fn)
		inspectStmts(n.Orelse, fn)
	case *For:
		inspectExpr(n.Target, fn)
		inspectExpr(n.Iter, fn)
		inspectStmts(n.Body, fn)
		inspectStmts(n.Orelse, fn)
	case *While:
		inspectExpr(n.Test, fn)
		inspectStmts(n.Body, fn)
		inspectStmts(n.Orelse, fn)
	case *Attribute:
		inspectExpr(n.Value, fn)
	case *Call:
		inspectExpr(n.Func, fn)
		inspectExprs(n.Args, fn)
		for _, kw := range n.Keywords {
			inspectExpr(kw.Value, fn)
		}
	case *UnaryOp:
		inspectExpr(n.Operand, fn)
	case *BinOp:
		inspectExpr(n.Left, fn)
		inspectExpr(n.Right, fn)
	case *BoolOp:
		inspectExprs(n.Values, fn)
	case *Compare:
		inspectExpr(n.Left, fn)
		inspectExprs(n.Comparators, fn)
	case *Subscript:
		inspectExpr(n.Value, fn)
		inspectExpr(n.Index, fn)
	case *Slice:
		inspectExpr(n.Lower, fn)
		inspectExpr(n.Upper, fn)
		inspectExpr(n.Step, fn)
	case *JoinedStr:
		inspectExprs(n.Values, fn)
	case *FormattedValue:
		inspectExpr(n.Value, fn)
	case *IfExp:
		inspectExpr(n.Test, fn)
		inspectExpr(n.Body, fn)
		inspectExpr(n.Orelse, fn)
	case *List:
		inspectExprs(n.Elts, fn)
	case *Tuple:
		inspectExprs(n.Elts, fn)
	case *Dict:
		inspectExprs(n.Keys, fn)
		inspectExprs(n.Values, fn)
	}
}

func inspectStmts(stmts []Stmt, fn func(Node) bool) {
	for _, s := range stmts {
		Inspect(s, fn)
	}
}

func inspectExprs(exprs []Expr, fn func(Node) bool) {
	for _, e := range exprs {
		inspectExpr(e, fn)
	}
}

// inspectExpr skips absent optional expressions
func inspectExpr(e Expr, fn func(Node) bool) {
	if e == nil {
		return
	}
	Inspect(e, fn)
}
