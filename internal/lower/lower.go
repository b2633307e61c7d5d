// Package lower translates a parsed module of the restricted Python subset
// into C text. Lowering is a single top-down pass over the module; classes
// become a struct, a function-pointer table and a constructor.
package lower

import (
	"fmt"

	"github.com/lhaig/pylower/internal/ast"
	"github.com/lhaig/pylower/internal/diagnostic"
)

// Result is the output of one lowering invocation
type Result struct {
	C           string
	Diagnostics *diagnostic.Diagnostics
	// Classes lists the lowered classes in declaration order
	Classes []*ClassRecord
}

// funcInfo describes a lowered free function
type funcInfo struct {
	Name  string
	CName string
	Ret   string
}

// Context is the mutable state of one lowering invocation. It is passed
// explicitly through the recursive descent and discarded afterwards.
type Context struct {
	opts  Options
	diags *diagnostic.Diagnostics

	// state of the function being lowered
	scope *Scope
	class *ClassRecord
	self  string
	owner string
	w     *writer

	classes    map[string]*ClassRecord
	classOrder []*ClassRecord
	funcs      map[string]*funcInfo
	renames    map[string]string

	// emitted fragments
	forwards   []string
	structs    []string
	prototypes []string
	functions  []string
	entry      *writer
	entryScope *Scope

	includes   map[string]bool
	usesFormat bool
	usesNull   bool
}

func newContext(opts Options) *Context {
	c := &Context{
		opts:     opts,
		diags:    diagnostic.New(),
		classes:  make(map[string]*ClassRecord),
		funcs:    make(map[string]*funcInfo),
		renames:  make(map[string]string),
		includes: make(map[string]bool),
	}
	c.entry = c.newWriter()
	c.entry.incIndent()
	c.entryScope = NewScope()
	return c
}

// Lower translates mod into C text. It never fails: unsupported constructs
// degrade to placeholders and are reported as warnings, and an internal
// failure yields the empty program with an error diagnostic.
func Lower(mod *ast.Module, opts Options) (res *Result) {
	opts = opts.withDefaults()
	c := newContext(opts)

	defer func() {
		if r := recover(); r != nil {
			c.diags.Errorf(0, 0, "internal lowering failure: %v", r)
			res = &Result{C: EmptyProgram(opts), Diagnostics: c.diags}
		}
	}()

	if mod == nil {
		return &Result{C: EmptyProgram(opts), Diagnostics: c.diags}
	}

	c.collectFunctions(mod)
	c.planHoisting(c.entryScope, entryStmts(mod.Body))
	for _, stmt := range mod.Body {
		switch s := stmt.(type) {
		case *ast.FunctionDef:
			c.lowerFunction(s)
		case *ast.ClassDef:
			c.lowerClass(s)
		default:
			c.lowerEntryStmt(s)
		}
	}

	return &Result{C: c.emit(), Diagnostics: c.diags, Classes: c.classOrder}
}

// collectFunctions registers top-level function names before lowering so
// calls to functions defined further down resolve
func (c *Context) collectFunctions(mod *ast.Module) {
	for _, stmt := range mod.Body {
		fn, ok := stmt.(*ast.FunctionDef)
		if !ok {
			continue
		}
		cname := cIdent(fn.Name)
		if cname != fn.Name {
			c.renames[fn.Name] = cname
		}
		if cname == c.opts.EntryPoint {
			cname = fn.Name + "_"
			c.renames[fn.Name] = cname
			c.diags.Infof(fn.Line, fn.Column, "function %s renamed to %s to avoid the entry point", fn.Name, cname)
		}
		c.funcs[fn.Name] = &funcInfo{Name: fn.Name, CName: cname}
	}
}

// lowerEntryStmt lowers a top-level statement into the entry point
func (c *Context) lowerEntryStmt(stmt ast.Stmt) {
	if guard, ok := stmt.(*ast.If); ok && isMainGuard(guard.Test) {
		for _, s := range guard.Body {
			c.lowerEntryStmt(s)
		}
		return
	}
	c.withFunction(c.entry, c.entryScope, nil, func() {
		c.lowerStmt(stmt)
	})
}

// entryStmts lists the statements lowered into the entry point, with the
// body of a main guard spliced in place
func entryStmts(body []ast.Stmt) []ast.Stmt {
	var out []ast.Stmt
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *ast.FunctionDef, *ast.ClassDef:
		case *ast.If:
			if isMainGuard(s.Test) {
				out = append(out, entryStmts(s.Body)...)
			} else {
				out = append(out, s)
			}
		default:
			out = append(out, s)
		}
	}
	return out
}

// withFunction runs fn with the per-function state swapped in
func (c *Context) withFunction(w *writer, scope *Scope, class *ClassRecord, fn func()) {
	savedW, savedScope, savedClass := c.w, c.scope, c.class
	c.w, c.scope, c.class = w, scope, class
	defer func() {
		c.w, c.scope, c.class = savedW, savedScope, savedClass
	}()
	fn()
}

// isMainGuard matches `__name__ == "__main__"` in either order
func isMainGuard(test ast.Expr) bool {
	cmp, ok := test.(*ast.Compare)
	if !ok || len(cmp.Ops) != 1 || cmp.Ops[0] != ast.Eq {
		return false
	}
	return (isName(cmp.Left, "__name__") && isString(cmp.Comparators[0], "__main__")) ||
		(isString(cmp.Left, "__main__") && isName(cmp.Comparators[0], "__name__"))
}

func isName(e ast.Expr, id string) bool {
	n, ok := e.(*ast.Name)
	return ok && n.ID == id
}

func isString(e ast.Expr, s string) bool {
	c, ok := e.(*ast.Constant)
	return ok && c.Kind == ast.ConstString && c.Value == s
}

func isDocstring(s *ast.ExprStmt) bool {
	c, ok := s.Value.(*ast.Constant)
	return ok && c.Kind == ast.ConstString
}

func (c *Context) warnStmt(s ast.Stmt, format string, args ...any) {
	line, col := s.Pos()
	c.diags.Warningf(line, col, format, args...)
}

func (c *Context) warnExpr(e ast.Expr, format string, args ...any) {
	line, col := e.Pos()
	c.diags.Warningf(line, col, format, args...)
}

// placeholder is the inert expression an unsupported shape lowers to
func (c *Context) placeholder(e ast.Expr, what string) string {
	c.warnExpr(e, "unsupported expression %s lowered to a placeholder", what)
	return fmt.Sprintf("0 /* unsupported: %s */", what)
}
