// Package pyjson decodes the JSON rendering of a CPython ast tree, as
// produced by ast2json-style dumpers, into an *ast.Module. Every node is an
// object whose "_type" names the CPython node class; positions come from
// "lineno" and "col_offset".
package pyjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lhaig/pylower/internal/ast"
)

type object = map[string]any

// Decode parses data and converts the tree. Node kinds outside the
// supported subset become Unsupported nodes; only malformed JSON or a
// malformed tree is an error.
func Decode(data []byte) (*ast.Module, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decoding AST JSON: %w", err)
	}
	obj, ok := root.(object)
	if !ok {
		return nil, fmt.Errorf("decoding AST JSON: root is %s, want an object", kindOf(root))
	}
	if t := typeOf(obj); t != "Module" {
		return nil, fmt.Errorf("decoding AST JSON: root node is %q, want \"Module\"", t)
	}

	d := &decoder{}
	mod := &ast.Module{Body: d.stmts(obj, "body")}
	if d.err != nil {
		return nil, d.err
	}
	return mod, nil
}

// decoder keeps the first structural error; conversion carries on with
// zero values so one walk reports it
type decoder struct {
	err error
}

func (d *decoder) fail(obj object, format string, args ...any) {
	if d.err != nil {
		return
	}
	line, _ := pos(obj)
	d.err = fmt.Errorf("decoding AST JSON: line %d: %s", line, fmt.Sprintf(format, args...))
}

func typeOf(obj object) string {
	t, _ := obj["_type"].(string)
	return t
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case object:
		return "an object"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	}
	return fmt.Sprintf("%T", v)
}

// pos converts lineno and the 0-based col_offset to 1-based positions
func pos(obj object) (int, int) {
	return intField(obj, "lineno"), intField(obj, "col_offset") + 1
}

func intField(obj object, key string) int {
	n, ok := obj[key].(json.Number)
	if !ok {
		return 0
	}
	v, err := n.Int64()
	if err != nil {
		return 0
	}
	return int(v)
}

func (d *decoder) str(obj object, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		d.fail(obj, "%s.%s is %s, want a string", typeOf(obj), key, kindOf(v))
		return ""
	}
}

func (d *decoder) child(obj object, key string) object {
	switch v := obj[key].(type) {
	case object:
		return v
	case nil:
		return nil
	default:
		d.fail(obj, "%s.%s is %s, want a node", typeOf(obj), key, kindOf(v))
		return nil
	}
}

func (d *decoder) list(obj object, key string) []object {
	switch v := obj[key].(type) {
	case nil:
		return nil
	case []any:
		out := make([]object, 0, len(v))
		for _, item := range v {
			node, ok := item.(object)
			if !ok {
				if item != nil {
					d.fail(obj, "%s.%s holds %s, want nodes", typeOf(obj), key, kindOf(item))
				}
				out = append(out, nil)
				continue
			}
			out = append(out, node)
		}
		return out
	default:
		d.fail(obj, "%s.%s is %s, want an array", typeOf(obj), key, kindOf(v))
		return nil
	}
}

// opName reads an operator field, which CPython renders as a node
// ({"_type": "Add"})
func (d *decoder) opName(obj object, key string) string {
	op := d.child(obj, key)
	if op == nil {
		d.fail(obj, "%s.%s is missing", typeOf(obj), key)
		return ""
	}
	return typeOf(op)
}

// --- statements ---

func (d *decoder) stmts(obj object, key string) []ast.Stmt {
	nodes := d.list(obj, key)
	out := make([]ast.Stmt, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		out = append(out, d.stmt(n))
	}
	return out
}

func (d *decoder) stmt(obj object) ast.Stmt {
	line, col := pos(obj)
	switch typeOf(obj) {
	case "FunctionDef":
		return d.functionDef(obj)
	case "ClassDef":
		return &ast.ClassDef{
			Name:   d.str(obj, "name"),
			Bases:  d.exprs(obj, "bases"),
			Body:   d.stmts(obj, "body"),
			Line:   line,
			Column: col,
		}
	case "Assign":
		return &ast.Assign{Targets: d.exprs(obj, "targets"), Value: d.expr(d.child(obj, "value")), Line: line, Column: col}
	case "AugAssign":
		return &ast.AugAssign{
			Target: d.expr(d.child(obj, "target")),
			Op:     ast.Operator(d.opName(obj, "op")),
			Value:  d.expr(d.child(obj, "value")),
			Line:   line,
			Column: col,
		}
	case "AnnAssign":
		return &ast.AnnAssign{
			Target:     d.expr(d.child(obj, "target")),
			Annotation: d.expr(d.child(obj, "annotation")),
			Value:      d.optExpr(obj, "value"),
			Line:       line,
			Column:     col,
		}
	case "Expr":
		return &ast.ExprStmt{Value: d.expr(d.child(obj, "value")), Line: line, Column: col}
	case "Return":
		return &ast.Return{Value: d.optExpr(obj, "value"), Line: line, Column: col}
	case "If":
		return &ast.If{
			Test:   d.expr(d.child(obj, "test")),
			Body:   d.stmts(obj, "body"),
			Orelse: d.stmts(obj, "orelse"),
			Line:   line,
			Column: col,
		}
	case "For":
		return &ast.For{
			Target: d.expr(d.child(obj, "target")),
			Iter:   d.expr(d.child(obj, "iter")),
			Body:   d.stmts(obj, "body"),
			Orelse: d.stmts(obj, "orelse"),
			Line:   line,
			Column: col,
		}
	case "While":
		return &ast.While{
			Test:   d.expr(d.child(obj, "test")),
			Body:   d.stmts(obj, "body"),
			Orelse: d.stmts(obj, "orelse"),
			Line:   line,
			Column: col,
		}
	case "Pass":
		return &ast.Pass{Line: line, Column: col}
	case "Break":
		return &ast.Break{Line: line, Column: col}
	case "Continue":
		return &ast.Continue{Line: line, Column: col}
	case "":
		d.fail(obj, "statement node without _type")
		return &ast.UnsupportedStmt{Kind: "unknown", Line: line, Column: col}
	default:
		return &ast.UnsupportedStmt{Kind: typeOf(obj), Line: line, Column: col}
	}
}

func (d *decoder) functionDef(obj object) *ast.FunctionDef {
	line, col := pos(obj)
	fn := &ast.FunctionDef{
		Name:    d.str(obj, "name"),
		Returns: d.optExpr(obj, "returns"),
		Body:    d.stmts(obj, "body"),
		Line:    line,
		Column:  col,
	}

	args := d.child(obj, "args")
	if args == nil {
		return fn
	}
	// defaults align with the tail of posonlyargs + args
	positional := append(d.list(args, "posonlyargs"), d.list(args, "args")...)
	defaults := d.list(args, "defaults")
	offset := len(positional) - len(defaults)
	for i, a := range positional {
		if a == nil {
			continue
		}
		pline, pcol := pos(a)
		p := &ast.Param{
			Name:       d.str(a, "arg"),
			Annotation: d.optExpr(a, "annotation"),
			Line:       pline,
			Column:     pcol,
		}
		if i >= offset && offset >= 0 && defaults[i-offset] != nil {
			p.Default = d.expr(defaults[i-offset])
		}
		fn.Params = append(fn.Params, p)
	}
	return fn
}

// --- expressions ---

func (d *decoder) exprs(obj object, key string) []ast.Expr {
	nodes := d.list(obj, key)
	out := make([]ast.Expr, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		out = append(out, d.expr(n))
	}
	return out
}

func (d *decoder) optExpr(obj object, key string) ast.Expr {
	child := d.child(obj, key)
	if child == nil {
		return nil
	}
	return d.expr(child)
}

func (d *decoder) expr(obj object) ast.Expr {
	if obj == nil {
		return &ast.UnsupportedExpr{Kind: "missing"}
	}
	line, col := pos(obj)
	switch typeOf(obj) {
	case "Name":
		return &ast.Name{ID: d.str(obj, "id"), Line: line, Column: col}
	case "Constant", "NameConstant", "Num", "Str":
		return d.constant(obj)
	case "Attribute":
		return &ast.Attribute{Value: d.expr(d.child(obj, "value")), Attr: d.str(obj, "attr"), Line: line, Column: col}
	case "Call":
		call := &ast.Call{Func: d.expr(d.child(obj, "func")), Line: line, Column: col}
		for _, a := range d.list(obj, "args") {
			if a == nil {
				continue
			}
			call.Args = append(call.Args, d.expr(a))
		}
		for _, kw := range d.list(obj, "keywords") {
			if kw == nil {
				continue
			}
			call.Keywords = append(call.Keywords, &ast.Keyword{Name: d.str(kw, "arg"), Value: d.expr(d.child(kw, "value"))})
		}
		return call
	case "UnaryOp":
		return &ast.UnaryOp{Op: ast.UnaryOperator(d.opName(obj, "op")), Operand: d.expr(d.child(obj, "operand")), Line: line, Column: col}
	case "BinOp":
		return &ast.BinOp{
			Left:   d.expr(d.child(obj, "left")),
			Op:     ast.Operator(d.opName(obj, "op")),
			Right:  d.expr(d.child(obj, "right")),
			Line:   line,
			Column: col,
		}
	case "BoolOp":
		return &ast.BoolOp{Op: ast.BoolOperator(d.opName(obj, "op")), Values: d.exprs(obj, "values"), Line: line, Column: col}
	case "Compare":
		cmp := &ast.Compare{Left: d.expr(d.child(obj, "left")), Comparators: d.exprs(obj, "comparators"), Line: line, Column: col}
		for _, op := range d.list(obj, "ops") {
			if op != nil {
				cmp.Ops = append(cmp.Ops, ast.CmpOp(typeOf(op)))
			}
		}
		if len(cmp.Ops) != len(cmp.Comparators) {
			d.fail(obj, "Compare has %d operators and %d comparators", len(cmp.Ops), len(cmp.Comparators))
		}
		return cmp
	case "Subscript":
		index := d.child(obj, "slice")
		if typeOf(index) == "Index" {
			index = d.child(index, "value")
		}
		return &ast.Subscript{Value: d.expr(d.child(obj, "value")), Index: d.expr(index), Line: line, Column: col}
	case "Slice":
		return &ast.Slice{
			Lower:  d.optExpr(obj, "lower"),
			Upper:  d.optExpr(obj, "upper"),
			Step:   d.optExpr(obj, "step"),
			Line:   line,
			Column: col,
		}
	case "JoinedStr":
		return &ast.JoinedStr{Values: d.exprs(obj, "values"), Line: line, Column: col}
	case "FormattedValue":
		return d.formattedValue(obj)
	case "IfExp":
		return &ast.IfExp{
			Test:   d.expr(d.child(obj, "test")),
			Body:   d.expr(d.child(obj, "body")),
			Orelse: d.expr(d.child(obj, "orelse")),
			Line:   line,
			Column: col,
		}
	case "List":
		return &ast.List{Elts: d.exprs(obj, "elts"), Line: line, Column: col}
	case "Tuple":
		return &ast.Tuple{Elts: d.exprs(obj, "elts"), Line: line, Column: col}
	case "Dict":
		return &ast.Dict{Keys: d.exprs(obj, "keys"), Values: d.exprs(obj, "values"), Line: line, Column: col}
	case "":
		d.fail(obj, "expression node without _type")
		return &ast.UnsupportedExpr{Kind: "unknown", Line: line, Column: col}
	default:
		return &ast.UnsupportedExpr{Kind: typeOf(obj), Line: line, Column: col}
	}
}

// constant handles Constant and the pre-3.8 literal nodes
func (d *decoder) constant(obj object) ast.Expr {
	line, col := pos(obj)
	key := "value"
	switch typeOf(obj) {
	case "Num":
		key = "n"
	case "Str":
		key = "s"
	}
	c := &ast.Constant{Line: line, Column: col}
	switch v := obj[key].(type) {
	case nil:
		c.Kind = ast.ConstNone
		c.Value = "None"
	case bool:
		c.Kind = ast.ConstBool
		c.Value = "False"
		if v {
			c.Value = "True"
		}
	case json.Number:
		c.Value = v.String()
		c.Kind = ast.ConstInt
		if strings.ContainsAny(c.Value, ".eE") {
			c.Kind = ast.ConstFloat
		}
	case string:
		c.Kind = ast.ConstString
		c.Value = v
	default:
		d.fail(obj, "constant value is %s", kindOf(v))
	}
	return c
}

func (d *decoder) formattedValue(obj object) ast.Expr {
	line, col := pos(obj)
	fv := &ast.FormattedValue{Value: d.expr(d.child(obj, "value")), Line: line, Column: col}
	switch conv := intField(obj, "conversion"); conv {
	case 's', 'r', 'a':
		fv.Conversion = byte(conv)
	}
	if spec := d.child(obj, "format_spec"); spec != nil {
		var sb strings.Builder
		for _, part := range d.list(spec, "values") {
			if part == nil {
				continue
			}
			// a nested replacement field leaves a spec the lowerer rejects
			if typeOf(part) != "Constant" {
				sb.WriteString("{}")
				continue
			}
			sb.WriteString(d.str(part, "value"))
		}
		fv.FormatSpec = sb.String()
	}
	return fv
}
