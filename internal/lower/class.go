package lower

import (
	"github.com/lhaig/pylower/internal/ast"
)

// Method is one entry of a class's merged method table
type Method struct {
	Name string
	Def  *ast.FunctionDef
	// Owner is the class that declared the method
	Owner string
	// Ret is the C return type, known once the method has been lowered
	Ret string
	// Sig is the parameter list after the receiver, e.g. "void *a, int b"
	Sig string
}

// Field is an instance attribute assigned through the receiver
type Field struct {
	Name  string
	Type  string
	Class string
}

// ClassRecord holds a class's merged method table and instance layout
type ClassRecord struct {
	Name    string
	Base    string
	Methods []*Method
	Fields  []*Field

	methodIndex map[string]int
	fieldIndex  map[string]int
}

// newClassRecord builds the merged method table: the base's methods in
// their order, then the class's own declarations, where a name already
// present replaces the inherited entry in place.
func newClassRecord(name string, base *ClassRecord, own []*ast.FunctionDef) *ClassRecord {
	rec := &ClassRecord{
		Name:        name,
		methodIndex: make(map[string]int),
		fieldIndex:  make(map[string]int),
	}
	if base != nil {
		rec.Base = base.Name
		for _, m := range base.Methods {
			rec.setMethod(&Method{Name: m.Name, Def: m.Def, Owner: m.Owner})
		}
		for _, f := range base.Fields {
			rec.addField(f.Name, f.Type, f.Class)
		}
	}
	for _, def := range own {
		rec.setMethod(&Method{Name: def.Name, Def: def, Owner: name})
	}
	return rec
}

func (r *ClassRecord) setMethod(m *Method) {
	if i, ok := r.methodIndex[m.Name]; ok {
		r.Methods[i] = m
		return
	}
	r.methodIndex[m.Name] = len(r.Methods)
	r.Methods = append(r.Methods, m)
}

// Lookup returns the method with the given name
func (r *ClassRecord) Lookup(name string) (*Method, bool) {
	i, ok := r.methodIndex[name]
	if !ok {
		return nil, false
	}
	return r.Methods[i], true
}

// MethodNames returns the merged table's method names in slot order
func (r *ClassRecord) MethodNames() []string {
	names := make([]string, len(r.Methods))
	for i, m := range r.Methods {
		names[i] = m.Name
	}
	return names
}

// Field returns the instance attribute with the given name
func (r *ClassRecord) Field(name string) (*Field, bool) {
	i, ok := r.fieldIndex[name]
	if !ok {
		return nil, false
	}
	return r.Fields[i], true
}

func (r *ClassRecord) addField(name, ctype, class string) *Field {
	if f, ok := r.Field(name); ok {
		return f
	}
	f := &Field{Name: name, Type: ctype, Class: class}
	r.fieldIndex[name] = len(r.Fields)
	r.Fields = append(r.Fields, f)
	return f
}

// lowerClass emits the struct, vtable, methods and constructor of a class
func (c *Context) lowerClass(cls *ast.ClassDef) {
	base := c.resolveBase(cls)

	var own []*ast.FunctionDef
	for _, stmt := range cls.Body {
		switch s := stmt.(type) {
		case *ast.FunctionDef:
			own = append(own, s)
		case *ast.Pass:
		case *ast.ExprStmt:
			if isDocstring(s) {
				continue
			}
			c.warnStmt(s, "class body statement dropped from %s", cls.Name)
		default:
			c.warnStmt(s, "class body statement dropped from %s", cls.Name)
		}
	}

	rec := newClassRecord(cls.Name, base, own)
	c.classes[rec.Name] = rec
	c.classOrder = append(c.classOrder, rec)

	for _, m := range rec.Methods {
		c.lowerMethod(rec, m)
	}
	c.emitClassStructs(rec)
	c.emitConstructor(rec)
}

// resolveBase finds the single base class. Unknown bases degrade to no
// base; extra bases are ignored.
func (c *Context) resolveBase(cls *ast.ClassDef) *ClassRecord {
	if len(cls.Bases) == 0 {
		return nil
	}
	if len(cls.Bases) > 1 {
		c.diags.Warningf(cls.Line, cls.Column, "class %s: multiple inheritance is not supported; only the first base is used", cls.Name)
	}
	name, ok := cls.Bases[0].(*ast.Name)
	if !ok {
		c.diags.Warningf(cls.Line, cls.Column, "class %s: base '%s' is not a class name; treated as no base", cls.Name, ast.ExprString(cls.Bases[0]))
		return nil
	}
	if name.ID == "object" {
		return nil
	}
	rec, ok := c.classes[name.ID]
	if !ok {
		c.diags.Warningf(cls.Line, cls.Column, "class %s: unknown base class '%s'; treated as no base", cls.Name, name.ID)
		return nil
	}
	return rec
}

func (c *Context) emitClassStructs(rec *ClassRecord) {
	c.forwards = append(c.forwards, "typedef struct "+rec.Name+" "+rec.Name+";")

	w := c.newWriter()
	w.emitLinef("typedef struct %s_vtable {", rec.Name)
	w.incIndent()
	if len(rec.Methods) == 0 {
		w.emitLine("char reserved;")
	}
	for _, m := range rec.Methods {
		params := rec.Name + " *self"
		if m.Sig != "" {
			params += ", " + m.Sig
		}
		w.emitLinef("%s(*%s)(%s);", retPrefix(m.Ret), cIdent(m.Name), params)
	}
	w.decIndent()
	w.emitLinef("} %s_vtable;", rec.Name)
	w.emitLine("")
	w.emitLinef("struct %s {", rec.Name)
	w.incIndent()
	w.emitLinef("%s_vtable *vtable;", rec.Name)
	for _, f := range rec.Fields {
		w.emitLine(declare(f.Type, cIdent(f.Name)) + ";")
	}
	w.decIndent()
	w.emitLine("};")
	c.structs = append(c.structs, w.String())
}

// emitConstructor synthesizes Cls_new: allocate the instance and its
// vtable, wire every slot, then run __init__ when the table has one
func (c *Context) emitConstructor(rec *ClassRecord) {
	c.need("stdlib.h")

	init, hasInit := rec.Lookup("__init__")
	params, args := "", []string{}
	obj := "obj"
	if hasInit {
		params = init.Sig
		for _, p := range methodParams(init.Def) {
			if p.Name == obj {
				obj = "obj_"
			}
			args = append(args, cIdent(p.Name))
		}
	}

	sig := rec.Name + " *" + rec.Name + "_new(" + paramList(params) + ")"
	c.prototypes = append(c.prototypes, sig+";")

	w := c.newWriter()
	w.emitLine(sig + " {")
	w.incIndent()
	w.emitLinef("%s *%s = malloc(sizeof(%s));", rec.Name, obj, rec.Name)
	w.emitLinef("%s->vtable = malloc(sizeof(%s_vtable));", obj, rec.Name)
	for _, m := range rec.Methods {
		w.emitLinef("%s->vtable->%s = %s_%s;", obj, cIdent(m.Name), rec.Name, m.Name)
	}
	if hasInit {
		w.emitLinef("%s___init__(%s);", rec.Name, joinArgs(obj, args))
	}
	w.emitLinef("return %s;", obj)
	w.decIndent()
	w.emitLine("}")
	c.functions = append(c.functions, w.String())
}

// methodParams returns a method's parameters after the receiver
func methodParams(def *ast.FunctionDef) []*ast.Param {
	if len(def.Params) == 0 {
		return nil
	}
	return def.Params[1:]
}

func receiverName(def *ast.FunctionDef) string {
	if len(def.Params) == 0 {
		return "self"
	}
	return def.Params[0].Name
}

func joinArgs(first string, rest []string) string {
	out := first
	for _, a := range rest {
		out += ", " + a
	}
	return out
}

// retPrefix renders a return type ready to be followed by a name
func retPrefix(ctype string) string {
	if ctype == "" {
		ctype = TypeVoid
	}
	return declare(ctype, "")
}
