package lower

import (
	"github.com/lhaig/pylower/internal/ast"
)

// block is one C block of a function body: the body itself, an if or else
// branch, a loop body, or the header of a counted for loop
type block struct {
	parent *block
}

func (b *block) within(outer *block) bool {
	for ; b != nil; b = b.parent {
		if b == outer {
			return true
		}
	}
	return false
}

// binding is where a local is first assigned
type binding struct {
	at      *block
	escapes bool
}

// hoistPlanner finds the locals whose C declaration cannot stay where they
// are first assigned. A local first assigned in a nested block and used
// outside it, or read before its first assignment, must be declared at the
// top of the function.
type hoistPlanner struct {
	c        *Context
	scope    *Scope
	bindings map[string]*binding
	seen     map[string]bool
}

// planHoisting marks the hoisted locals of body in scope. Names the scope
// already holds, such as parameters, are never hoisted.
func (c *Context) planHoisting(scope *Scope, body []ast.Stmt) {
	p := &hoistPlanner{
		c:        c,
		scope:    scope,
		bindings: make(map[string]*binding),
		seen:     make(map[string]bool),
	}
	p.stmts(body, &block{})
	for name, b := range p.bindings {
		if b.escapes {
			scope.hoist(name)
		}
	}
}

func (p *hoistPlanner) stmts(body []ast.Stmt, at *block) {
	for _, s := range body {
		p.stmt(s, at)
	}
}

func (p *hoistPlanner) stmt(stmt ast.Stmt, at *block) {
	switch s := stmt.(type) {
	case *ast.Assign:
		p.uses(s.Value, at)
		for _, target := range s.Targets {
			if n, ok := target.(*ast.Name); ok {
				p.bind(n.ID, at)
			} else {
				p.uses(target, at)
			}
		}
	case *ast.AnnAssign:
		if s.Value != nil {
			p.uses(s.Value, at)
		}
		if n, ok := s.Target.(*ast.Name); ok {
			p.bind(n.ID, at)
		} else {
			p.uses(s.Target, at)
		}
	case *ast.AugAssign:
		p.uses(s.Target, at)
		p.uses(s.Value, at)
	case *ast.ExprStmt:
		p.uses(s.Value, at)
	case *ast.Return:
		if s.Value != nil {
			p.uses(s.Value, at)
		}
	case *ast.If:
		p.uses(s.Test, at)
		p.stmts(s.Body, &block{parent: at})
		if len(s.Orelse) > 0 {
			p.stmts(s.Orelse, &block{parent: at})
		}
	case *ast.While:
		p.uses(s.Test, at)
		p.stmts(s.Body, &block{parent: at})
	case *ast.For:
		target, simple := s.Target.(*ast.Name)
		if _, ok := p.c.rangeCall(s); ok {
			p.uses(s.Iter, at)
			header := &block{parent: at}
			p.bind(target.ID, header)
			p.stmts(s.Body, &block{parent: header})
			return
		}
		p.uses(s.Iter, at)
		if simple {
			p.bind(target.ID, at)
		}
		p.stmts(s.Body, &block{parent: at})
	}
}

func (p *hoistPlanner) bind(name string, at *block) {
	if _, declared := p.scope.Lookup(name); declared {
		return
	}
	b, ok := p.bindings[name]
	if !ok {
		p.bindings[name] = &binding{at: at, escapes: p.seen[name]}
		p.seen[name] = true
		return
	}
	if !at.within(b.at) {
		b.escapes = true
	}
}

// uses records every name read in e
func (p *hoistPlanner) uses(e ast.Expr, at *block) {
	ast.Inspect(e, func(n ast.Node) bool {
		name, ok := n.(*ast.Name)
		if !ok {
			return true
		}
		if b, bound := p.bindings[name.ID]; bound {
			if !at.within(b.at) {
				b.escapes = true
			}
		} else {
			p.seen[name.ID] = true
		}
		return true
	})
}
