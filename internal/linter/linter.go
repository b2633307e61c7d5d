package linter

import (
	"strings"
	"unicode"

	"github.com/lhaig/pylower/internal/ast"
	"github.com/lhaig/pylower/internal/diagnostic"
)

// Linter reports constructs that will not survive lowering intact, plus a
// few naming and hygiene checks. It reports warnings (never errors) using
// the diagnostic system.
type Linter struct {
	mod     *ast.Module
	diag    *diagnostic.Diagnostics
	classes map[string]bool
	// name of the emitted entry function
	entryPoint string
}

// Lint runs all lint rules on the given module and returns diagnostics.
func Lint(mod *ast.Module) *diagnostic.Diagnostics {
	return LintWithEntry(mod, "main")
}

// LintWithEntry is Lint for an entry point other than main
func LintWithEntry(mod *ast.Module, entryPoint string) *diagnostic.Diagnostics {
	l := &Linter{
		mod:        mod,
		diag:       diagnostic.New(),
		classes:    make(map[string]bool),
		entryPoint: entryPoint,
	}
	if mod == nil {
		return l.diag
	}

	for _, stmt := range mod.Body {
		switch s := stmt.(type) {
		case *ast.FunctionDef:
			l.lintFunction(s, "")
		case *ast.ClassDef:
			l.lintClass(s)
		default:
			l.lintStmts([]ast.Stmt{s})
		}
	}
	l.diag.Sort()
	return l.diag
}

func (l *Linter) lintFunction(fn *ast.FunctionDef, class string) {
	name := fn.Name
	if class != "" {
		name = class + "." + fn.Name
	}

	l.checkEmptyFunctionBody(name, fn)
	if class == "" {
		l.checkFunctionNaming(fn.Name, fn.Line, fn.Column)
		l.checkEntryPointClash(fn)
	} else if !isDunder(fn.Name) {
		l.checkFunctionNaming(fn.Name, fn.Line, fn.Column)
	}

	params := fn.Params
	if class != "" {
		if len(params) == 0 {
			l.diag.Warningf(fn.Line, fn.Column, "method '%s' has no receiver parameter", name)
		} else {
			params = params[1:]
		}
	}
	for _, p := range params {
		if p.Default != nil {
			l.diag.Warningf(p.Line, p.Column, "default value of parameter '%s' in '%s' is dropped when lowered", p.Name, name)
		}
	}

	used := collectUsedNames(fn.Body)
	l.checkUnusedParams(name, params, used)
	l.checkUnusedVariables(fn.Body, used)
	l.lintStmts(fn.Body)
}

func (l *Linter) lintClass(cls *ast.ClassDef) {
	l.checkClassNaming(cls.Name, cls.Line, cls.Column)
	l.checkBases(cls)
	l.classes[cls.Name] = true

	for _, stmt := range cls.Body {
		switch s := stmt.(type) {
		case *ast.FunctionDef:
			l.lintFunction(s, cls.Name)
		case *ast.Pass:
		case *ast.ExprStmt:
			if isDocOrEllipsis(s) {
				continue
			}
			l.diag.Warningf(s.Line, s.Column, "statement in class '%s' body is dropped when lowered", cls.Name)
		default:
			line, col := stmt.Pos()
			l.diag.Warningf(line, col, "statement in class '%s' body is dropped when lowered", cls.Name)
		}
	}
}

// lintStmts applies the portability rules to a statement list and every
// expression inside it
func (l *Linter) lintStmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		ast.Inspect(stmt, func(n ast.Node) bool {
			switch s := n.(type) {
			case *ast.FunctionDef:
				if s != stmt {
					l.diag.Warningf(s.Line, s.Column, "nested function '%s' is not supported", s.Name)
					return false
				}
			case *ast.ClassDef:
				l.diag.Warningf(s.Line, s.Column, "nested class '%s' is not supported", s.Name)
				return false
			case *ast.UnsupportedStmt:
				l.diag.Warningf(s.Line, s.Column, "%s statement is not supported", s.Kind)
			case *ast.UnsupportedExpr:
				if s.Kind == "Ellipsis" {
					return true
				}
				l.diag.Warningf(s.Line, s.Column, "%s expression is not supported", s.Kind)
			case *ast.For:
				l.checkFor(s)
			case *ast.While:
				if len(s.Orelse) > 0 {
					l.diag.Warningf(s.Line, s.Column, "while-else clause is dropped when lowered")
				}
			case *ast.Compare:
				for _, op := range s.Ops {
					if op == ast.In || op == ast.NotIn {
						l.diag.Warningf(s.Line, s.Column, "membership test '%s' is not supported", op.Symbol())
					}
				}
			case *ast.Subscript:
				if _, ok := s.Index.(*ast.Slice); ok {
					l.diag.Warningf(s.Line, s.Column, "slicing is not supported")
				}
			case *ast.Tuple:
				l.diag.Warningf(s.Line, s.Column, "tuple values are not supported")
				return false
			case *ast.Dict:
				l.diag.Warningf(s.Line, s.Column, "dict values are not supported")
			case *ast.Call:
				if isName(s.Func, "print") {
					return true
				}
				for _, kw := range s.Keywords {
					l.diag.Warningf(s.Line, s.Column, "keyword argument '%s' is passed positionally", kw.Name)
				}
			}
			return true
		})
	}
}

// --- Lint rules ---

// checkFor warns about loops that lower to a disabled block or lose parts
func (l *Linter) checkFor(s *ast.For) {
	if len(s.Orelse) > 0 {
		l.diag.Warningf(s.Line, s.Column, "for-else clause is dropped when lowered")
	}
	call, ok := s.Iter.(*ast.Call)
	if !ok || !isName(call.Func, "range") || len(call.Args) < 1 || len(call.Args) > 3 {
		l.diag.Warningf(s.Line, s.Column, "for loop over '%s' is not a range() loop; its body will be disabled", ast.ExprString(s.Iter))
		return
	}
	if _, ok := s.Target.(*ast.Name); !ok {
		l.diag.Warningf(s.Line, s.Column, "range() loop target '%s' must be a plain name", ast.ExprString(s.Target))
	}
	if len(call.Args) == 3 && !isLiteralNumber(call.Args[2]) {
		l.diag.Warningf(s.Line, s.Column, "range() step '%s' is not a literal; the loop is assumed to count up", ast.ExprString(call.Args[2]))
	}
}

// checkBases warns about base lists the lowering degrades
func (l *Linter) checkBases(cls *ast.ClassDef) {
	if len(cls.Bases) > 1 {
		l.diag.Warningf(cls.Line, cls.Column, "class '%s' uses multiple inheritance; only the first base is kept", cls.Name)
	}
	if len(cls.Bases) == 0 {
		return
	}
	base, ok := cls.Bases[0].(*ast.Name)
	if !ok {
		l.diag.Warningf(cls.Line, cls.Column, "class '%s' has a non-name base '%s'", cls.Name, ast.ExprString(cls.Bases[0]))
		return
	}
	if base.ID != "object" && !l.classes[base.ID] {
		l.diag.Warningf(cls.Line, cls.Column, "class '%s' inherits from '%s', which is not defined before it", cls.Name, base.ID)
	}
}

// checkEmptyFunctionBody warns if a function body only passes
func (l *Linter) checkEmptyFunctionBody(name string, fn *ast.FunctionDef) {
	for _, s := range fn.Body {
		switch v := s.(type) {
		case *ast.Pass:
			continue
		case *ast.ExprStmt:
			if isDocOrEllipsis(v) {
				continue
			}
		}
		return
	}
	l.diag.Warningf(fn.Line, fn.Column, "function '%s' has an empty body", name)
}

func (l *Linter) checkEntryPointClash(fn *ast.FunctionDef) {
	if fn.Name == l.entryPoint {
		l.diag.Warningf(fn.Line, fn.Column, "function '%s' clashes with the entry point and will be renamed to '%s_'", fn.Name, fn.Name)
	}
}

// checkFunctionNaming warns if a function/method name is not snake_case.
func (l *Linter) checkFunctionNaming(name string, line, col int) {
	if !isSnakeCase(name) {
		l.diag.Warningf(line, col, "function '%s' should use snake_case naming", name)
	}
}

// checkClassNaming warns if a class name is not PascalCase.
func (l *Linter) checkClassNaming(name string, line, col int) {
	if !isPascalCase(name) {
		l.diag.Warningf(line, col, "class '%s' should use PascalCase naming", name)
	}
}

// checkUnusedParams warns about parameters that are never read in the body.
func (l *Linter) checkUnusedParams(scopeName string, params []*ast.Param, used map[string]bool) {
	for _, p := range params {
		if !used[p.Name] && !strings.HasPrefix(p.Name, "_") {
			l.diag.Warningf(p.Line, p.Column, "parameter '%s' in '%s' is never used", p.Name, scopeName)
		}
	}
}

// checkUnusedVariables warns about names assigned in a function but never
// read. Each name is reported once, at its first assignment.
func (l *Linter) checkUnusedVariables(body []ast.Stmt, used map[string]bool) {
	reported := make(map[string]bool)
	inspectStmts(body, func(n ast.Node) bool {
		var target ast.Expr
		switch s := n.(type) {
		case *ast.Assign:
			for _, t := range s.Targets {
				l.reportUnused(t, used, reported)
			}
			return true
		case *ast.AnnAssign:
			target = s.Target
		default:
			return true
		}
		l.reportUnused(target, used, reported)
		return true
	})
}

func (l *Linter) reportUnused(target ast.Expr, used, reported map[string]bool) {
	name, ok := target.(*ast.Name)
	if !ok || used[name.ID] || reported[name.ID] || strings.HasPrefix(name.ID, "_") {
		return
	}
	reported[name.ID] = true
	l.diag.Warningf(name.Line, name.Column, "variable '%s' is assigned but never used", name.ID)
}

// --- Name collection helpers ---

// collectUsedNames collects every identifier that is read in a body.
// Plain assignment targets are writes; augmented targets are reads too.
func collectUsedNames(body []ast.Stmt) map[string]bool {
	used := make(map[string]bool)
	writes := make(map[*ast.Name]bool)
	inspectStmts(body, func(n ast.Node) bool {
		switch s := n.(type) {
		case *ast.Assign:
			for _, t := range s.Targets {
				if name, ok := t.(*ast.Name); ok {
					writes[name] = true
				}
			}
		case *ast.AnnAssign:
			if name, ok := s.Target.(*ast.Name); ok {
				writes[name] = true
			}
		case *ast.For:
			if name, ok := s.Target.(*ast.Name); ok {
				writes[name] = true
			}
		case *ast.Name:
			if !writes[s] {
				used[s.ID] = true
			}
		}
		return true
	})
	return used
}

func inspectStmts(body []ast.Stmt, fn func(ast.Node) bool) {
	for _, s := range body {
		ast.Inspect(s, fn)
	}
}

// --- Naming convention helpers ---

// isSnakeCase returns true if the name follows snake_case conventions:
// lowercase letters, digits, and underscores only, not starting with a digit.
func isSnakeCase(name string) bool {
	if len(name) == 0 || unicode.IsDigit(rune(name[0])) {
		return false
	}
	for _, r := range name {
		if !unicode.IsLower(r) && r != '_' && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isPascalCase returns true if the name starts with an uppercase letter
// and contains no underscores.
func isPascalCase(name string) bool {
	if len(name) == 0 {
		return false
	}
	runes := []rune(name)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	return !strings.ContainsRune(name, '_')
}

func isDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

func isDocOrEllipsis(s *ast.ExprStmt) bool {
	switch v := s.Value.(type) {
	case *ast.Constant:
		return v.Kind == ast.ConstString
	case *ast.UnsupportedExpr:
		return v.Kind == "Ellipsis"
	}
	return false
}

func isName(e ast.Expr, id string) bool {
	n, ok := e.(*ast.Name)
	return ok && n.ID == id
}

func isLiteralNumber(e ast.Expr) bool {
	if u, ok := e.(*ast.UnaryOp); ok && (u.Op == ast.USub || u.Op == ast.UAdd) {
		e = u.Operand
	}
	c, ok := e.(*ast.Constant)
	return ok && (c.Kind == ast.ConstInt || c.Kind == ast.ConstFloat)
}
