package lower

import (
	"strings"

	"github.com/lhaig/pylower/internal/ast"
)

// param is a lowered parameter
type param struct {
	Name string
	Type string
}

func (p param) String() string { return declare(p.Type, cIdent(p.Name)) }

func paramList(sig string) string {
	if sig == "" {
		return "void"
	}
	return sig
}

func joinParams(params []param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// lowerParams types each parameter from its annotation and drops defaults
func (c *Context) lowerParams(fn *ast.FunctionDef, params []*ast.Param) []param {
	out := make([]param, 0, len(params))
	for _, p := range params {
		if p.Default != nil {
			c.diags.Warningf(p.Line, p.Column, "default value of parameter '%s' in %s is dropped", p.Name, fn.Name)
		}
		out = append(out, param{Name: p.Name, Type: c.declaredType(p.Annotation)})
	}
	return out
}

// returnType resolves the declared return type, or infers void versus the
// generic type from whether the body returns a value
func (c *Context) returnType(fn *ast.FunctionDef) string {
	if fn.Returns != nil {
		if t, ok := c.annotationType(fn.Returns); ok {
			return t
		}
		line, col := fn.Returns.Pos()
		c.diags.Warningf(line, col, "unsupported return annotation '%s'; using %s", ast.ExprString(fn.Returns), c.opts.GenericType)
		return c.opts.GenericType
	}
	if returnsValue(fn) {
		return c.opts.GenericType
	}
	return TypeVoid
}

// returnsValue reports whether fn has a `return <expr>` outside nested
// definitions
func returnsValue(fn *ast.FunctionDef) bool {
	found := false
	ast.Inspect(&ast.Module{Body: fn.Body}, func(n ast.Node) bool {
		switch s := n.(type) {
		case *ast.FunctionDef, *ast.ClassDef:
			return false
		case *ast.Return:
			if s.Value != nil {
				found = true
			}
		}
		return !found
	})
	return found
}

// lowerFunction emits a free function with its prototype
func (c *Context) lowerFunction(fn *ast.FunctionDef) {
	info, ok := c.funcs[fn.Name]
	if !ok {
		info = &funcInfo{Name: fn.Name, CName: fn.Name}
		c.funcs[fn.Name] = info
	}
	params := c.lowerParams(fn, fn.Params)
	info.Ret = c.returnType(fn)

	scope := NewScope()
	for _, p := range params {
		if !scope.Declare(p.Name, p.Type) {
			c.diags.Warningf(fn.Line, fn.Column, "duplicate parameter '%s' in %s", p.Name, fn.Name)
		}
		scope.bindClass(p.Name, c.classOfType(p.Type))
	}

	sig := retPrefix(info.Ret) + info.CName + "(" + paramList(joinParams(params)) + ")"
	c.emitFunction(sig, fn.Body, scope, nil)
}

// lowerMethod emits one entry of a class's merged table as Cls_method,
// taking the receiver as an explicit first parameter
func (c *Context) lowerMethod(rec *ClassRecord, m *Method) {
	fn := m.Def
	self := receiverName(fn)
	if len(fn.Params) == 0 {
		c.diags.Warningf(fn.Line, fn.Column, "method %s.%s has no receiver parameter; assuming self", rec.Name, fn.Name)
	}

	params := c.lowerParams(fn, methodParams(fn))
	m.Sig = joinParams(params)
	m.Ret = c.returnType(fn)

	scope := NewScope()
	scope.Declare(self, rec.Name+" *")
	scope.bindClass(self, rec.Name)
	for _, p := range params {
		scope.Declare(p.Name, p.Type)
		scope.bindClass(p.Name, c.classOfType(p.Type))
	}

	recv := param{Name: self, Type: rec.Name + " *"}
	sig := retPrefix(m.Ret) + rec.Name + "_" + m.Name + "(" + joinParams(append([]param{recv}, params...)) + ")"

	savedSelf, savedOwner := c.self, c.owner
	c.self, c.owner = self, m.Owner
	defer func() { c.self, c.owner = savedSelf, savedOwner }()
	c.emitFunction(sig, fn.Body, scope, rec)
}

// emitFunction lowers a body under sig into the function bucket
func (c *Context) emitFunction(sig string, body []ast.Stmt, scope *Scope, class *ClassRecord) {
	c.prototypes = append(c.prototypes, sig+";")

	c.planHoisting(scope, body)
	w := c.newWriter()
	w.emitLine(sig + " {")
	start, _ := w.mark()
	w.incIndent()
	c.withFunction(w, scope, class, func() {
		c.lowerBody(body)
	})
	w.decIndent()
	w.insertLines(start, scope.hoistedDecls())
	w.emitLine("}")
	c.functions = append(c.functions, w.String())
}
