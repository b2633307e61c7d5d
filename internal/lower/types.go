package lower

import (
	"strings"

	"github.com/lhaig/pylower/internal/ast"
)

// C types produced by inference and annotation mapping
const (
	TypeInt    = "int"
	TypeDouble = "double"
	TypeString = "char *"
	TypeVoid   = "void"
)

// InferType returns the declared type for the first assignment of value:
// int, double or char * for literals of those kinds and generic for every
// other shape. Booleans are ints and a negated number keeps the type of
// the number.
func InferType(value ast.Expr, generic string) string {
	switch v := value.(type) {
	case *ast.Constant:
		switch v.Kind {
		case ast.ConstInt, ast.ConstBool:
			return TypeInt
		case ast.ConstFloat:
			return TypeDouble
		case ast.ConstString:
			return TypeString
		}
	case *ast.UnaryOp:
		if c, ok := v.Operand.(*ast.Constant); ok && (v.Op == ast.USub || v.Op == ast.UAdd) {
			if c.Kind == ast.ConstInt || c.Kind == ast.ConstFloat {
				return InferType(c, generic)
			}
		}
	case *ast.JoinedStr:
		return TypeString
	}
	return generic
}

// annotationType maps a type annotation to a C type. ok is false when the
// annotation is not understood.
func (c *Context) annotationType(ann ast.Expr) (string, bool) {
	switch a := ann.(type) {
	case *ast.Name:
		switch a.ID {
		case "int", "bool":
			return TypeInt, true
		case "float":
			return TypeDouble, true
		case "str":
			return TypeString, true
		case "list":
			return "int *", true
		}
		if _, ok := c.classes[a.ID]; ok {
			return a.ID + " *", true
		}
	case *ast.Constant:
		if a.Kind == ast.ConstNone {
			return TypeVoid, true
		}
		if a.Kind == ast.ConstString {
			return c.annotationType(&ast.Name{ID: a.Value})
		}
	case *ast.Subscript:
		outer, ok := a.Value.(*ast.Name)
		if !ok || (outer.ID != "list" && outer.ID != "List") {
			return "", false
		}
		elem, ok := c.annotationType(a.Index)
		if !ok || elem == TypeVoid {
			return "", false
		}
		return pointerTo(elem), true
	}
	return "", false
}

// declaredType resolves an optional annotation, falling back to the
// generic type
func (c *Context) declaredType(ann ast.Expr) string {
	if ann == nil {
		return c.opts.GenericType
	}
	if t, ok := c.annotationType(ann); ok && t != TypeVoid {
		return t
	}
	line, col := ann.Pos()
	c.diags.Warningf(line, col, "unsupported annotation '%s'; using %s", ast.ExprString(ann), c.opts.GenericType)
	return c.opts.GenericType
}

// classOfType returns the class name of a `Cls *` type
func (c *Context) classOfType(ctype string) string {
	name := strings.TrimSpace(strings.TrimSuffix(ctype, "*"))
	if _, ok := c.classes[name]; ok && strings.HasSuffix(ctype, "*") {
		return name
	}
	return ""
}

func pointerTo(ctype string) string {
	if strings.HasSuffix(ctype, "*") {
		return ctype + "*"
	}
	return ctype + " *"
}

func elementOf(ctype string) string {
	switch ctype {
	case "int *":
		return TypeInt
	case "double *":
		return TypeDouble
	case "char **":
		return TypeString
	case TypeString:
		return "char"
	}
	return ""
}

// declare renders a declaration of name with the given type
func declare(ctype, name string) string {
	if strings.HasSuffix(ctype, "*") {
		return ctype + name
	}
	return ctype + " " + name
}

// reservedC holds the C keywords and the names the emitted code defines
// itself. A Python identifier in this set gets a trailing underscore.
var reservedC = map[string]bool{
	"auto": true, "bool": true, "case": true, "char": true, "const": true,
	"default": true, "do": true, "double": true, "enum": true, "extern": true,
	"float": true, "goto": true, "inline": true, "int": true, "long": true,
	"register": true, "restrict": true, "short": true, "signed": true,
	"sizeof": true, "static": true, "struct": true, "switch": true,
	"typedef": true, "union": true, "unsigned": true, "void": true,
	"volatile": true, "NULL": true, "py_format": true, "vtable": true,
}

// cIdent makes a Python identifier safe to use as a C identifier
func cIdent(name string) string {
	if reservedC[name] {
		return name + "_"
	}
	return name
}

// exprType makes a best effort at the C type of an expression, using what
// is known about locals, fields and functions. It returns the generic type
// when nothing better is known.
func (c *Context) exprType(e ast.Expr) string {
	generic := c.opts.GenericType
	switch v := e.(type) {
	case *ast.Constant:
		if v.Kind == ast.ConstNone {
			return generic
		}
		return InferType(v, generic)
	case *ast.JoinedStr:
		return TypeString
	case *ast.Name:
		if l, ok := c.scope.Lookup(v.ID); ok {
			return l.Type
		}
	case *ast.Attribute:
		if f := c.fieldOf(v); f != nil {
			return f.Type
		}
	case *ast.UnaryOp:
		if v.Op == ast.Not {
			return TypeInt
		}
		return c.exprType(v.Operand)
	case *ast.BoolOp, *ast.Compare:
		return TypeInt
	case *ast.BinOp:
		if v.Op == ast.Pow {
			return TypeDouble
		}
		l, r := c.exprType(v.Left), c.exprType(v.Right)
		switch {
		case l == TypeDouble && (r == TypeDouble || r == TypeInt), r == TypeDouble && l == TypeInt:
			return TypeDouble
		case l == TypeInt && r == TypeInt:
			return TypeInt
		}
	case *ast.IfExp:
		return c.exprType(v.Body)
	case *ast.Subscript:
		if elem := elementOf(c.exprType(v.Value)); elem != "" {
			return elem
		}
	case *ast.Call:
		return c.callType(v)
	}
	return generic
}

func (c *Context) callType(call *ast.Call) string {
	generic := c.opts.GenericType
	switch fn := call.Func.(type) {
	case *ast.Name:
		switch fn.ID {
		case "len", "int":
			return TypeInt
		case "float":
			return TypeDouble
		case "str":
			return TypeString
		case "abs":
			if len(call.Args) == 1 {
				return c.exprType(call.Args[0])
			}
		}
		if _, ok := c.classes[fn.ID]; ok {
			return fn.ID + " *"
		}
		if f, ok := c.funcs[fn.ID]; ok && f.Ret != "" && f.Ret != TypeVoid {
			return f.Ret
		}
	case *ast.Attribute:
		if rec := c.receiverClass(fn.Value); rec != nil {
			if m, ok := rec.Lookup(fn.Attr); ok && m.Ret != "" && m.Ret != TypeVoid {
				return m.Ret
			}
		}
	}
	return generic
}

// formatVerb picks the printf conversion for a value of the given type
func formatVerb(ctype string) string {
	switch ctype {
	case TypeInt:
		return "d"
	case TypeDouble:
		return "f"
	case "char":
		return "c"
	}
	return "s"
}
