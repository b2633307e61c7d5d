package pyjson

import (
	"strings"
	"testing"

	"github.com/lhaig/pylower/internal/ast"
	"github.com/nalgeon/be"
)

// sqJSON is `def sq(x): return x*x` as rendered by ast2json
const sqJSON = `{
  "_type": "Module",
  "body": [
    {
      "_type": "FunctionDef",
      "name": "sq",
      "lineno": 1,
      "col_offset": 0,
      "args": {
        "_type": "arguments",
        "posonlyargs": [],
        "args": [{"_type": "arg", "arg": "x", "annotation": null, "lineno": 1, "col_offset": 7}],
        "vararg": null,
        "kwonlyargs": [],
        "kw_defaults": [],
        "kwarg": null,
        "defaults": []
      },
      "body": [
        {
          "_type": "Return",
          "lineno": 1,
          "col_offset": 11,
          "value": {
            "_type": "BinOp",
            "lineno": 1,
            "col_offset": 18,
            "left": {"_type": "Name", "id": "x", "ctx": {"_type": "Load"}, "lineno": 1, "col_offset": 18},
            "op": {"_type": "Mult"},
            "right": {"_type": "Name", "id": "x", "ctx": {"_type": "Load"}, "lineno": 1, "col_offset": 20}
          }
        }
      ],
      "decorator_list": [],
      "returns": null
    }
  ],
  "type_ignores": []
}`

func TestDecodeFunction(t *testing.T) {
	mod, err := Decode([]byte(sqJSON))
	be.Err(t, err, nil)
	be.Equal(t, len(mod.Body), 1)

	fn, ok := mod.Body[0].(*ast.FunctionDef)
	be.True(t, ok)
	be.Equal(t, fn.Name, "sq")
	be.Equal(t, len(fn.Params), 1)
	be.Equal(t, fn.Params[0].Name, "x")
	be.Equal(t, fn.Params[0].Column, 8)

	ret := fn.Body[0].(*ast.Return)
	bin := ret.Value.(*ast.BinOp)
	be.Equal(t, bin.Op, ast.Mult)
	be.Equal(t, ast.ExprString(bin), "(x * x)")
	line, col := bin.Pos()
	be.Equal(t, line, 1)
	be.Equal(t, col, 19)
}

func TestDecodeConstants(t *testing.T) {
	tests := []struct {
		value string
		kind  ast.ConstKind
		text  string
	}{
		{`1`, ast.ConstInt, "1"},
		{`2.5`, ast.ConstFloat, "2.5"},
		{`1e-05`, ast.ConstFloat, "1e-05"},
		{`"hi"`, ast.ConstString, "hi"},
		{`true`, ast.ConstBool, "True"},
		{`false`, ast.ConstBool, "False"},
		{`null`, ast.ConstNone, "None"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			src := `{"_type": "Module", "body": [{"_type": "Expr", "value": {"_type": "Constant", "value": ` + tt.value + `}}]}`
			mod, err := Decode([]byte(src))
			be.Err(t, err, nil)
			c := mod.Body[0].(*ast.ExprStmt).Value.(*ast.Constant)
			be.Equal(t, c.Kind, tt.kind)
			be.Equal(t, c.Value, tt.text)
		})
	}
}

func TestDecodeLegacyLiterals(t *testing.T) {
	src := `{"_type": "Module", "body": [
		{"_type": "Expr", "value": {"_type": "Num", "n": 3}},
		{"_type": "Expr", "value": {"_type": "Str", "s": "x"}},
		{"_type": "Expr", "value": {"_type": "NameConstant", "value": null}},
		{"_type": "Expr", "value": {"_type": "Subscript",
			"value": {"_type": "Name", "id": "a"},
			"slice": {"_type": "Index", "value": {"_type": "Num", "n": 0}}}}
	]}`
	mod, err := Decode([]byte(src))
	be.Err(t, err, nil)
	values := make([]string, len(mod.Body))
	for i, s := range mod.Body {
		values[i] = ast.ExprString(s.(*ast.ExprStmt).Value)
	}
	be.Equal(t, values, []string{"3", `"x"`, "None", "a[0]"})
}

func TestDecodeClassAndControlFlow(t *testing.T) {
	src := `{"_type": "Module", "body": [
	  {"_type": "ClassDef", "name": "Dog", "lineno": 1, "col_offset": 0,
	   "bases": [{"_type": "Name", "id": "Animal"}], "keywords": [],
	   "body": [{"_type": "Pass"}]},
	  {"_type": "For", "lineno": 3, "col_offset": 0,
	   "target": {"_type": "Name", "id": "i"},
	   "iter": {"_type": "Call", "func": {"_type": "Name", "id": "range"},
	            "args": [{"_type": "Constant", "value": 3}], "keywords": []},
	   "body": [{"_type": "If",
	             "test": {"_type": "Compare", "left": {"_type": "Name", "id": "i"},
	                      "ops": [{"_type": "Lt"}, {"_type": "LtE"}],
	                      "comparators": [{"_type": "Constant", "value": 1}, {"_type": "Constant", "value": 2}]},
	             "body": [{"_type": "Break"}],
	             "orelse": [{"_type": "Continue"}]}],
	   "orelse": []},
	  {"_type": "While", "test": {"_type": "BoolOp", "op": {"_type": "And"},
	     "values": [{"_type": "Name", "id": "a"}, {"_type": "UnaryOp", "op": {"_type": "Not"}, "operand": {"_type": "Name", "id": "b"}}]},
	   "body": [{"_type": "AugAssign", "target": {"_type": "Name", "id": "n"}, "op": {"_type": "Sub"}, "value": {"_type": "Constant", "value": 1}}],
	   "orelse": []}
	]}`
	mod, err := Decode([]byte(src))
	be.Err(t, err, nil)
	be.Equal(t, len(mod.Body), 3)

	cls := mod.Body[0].(*ast.ClassDef)
	be.Equal(t, cls.Name, "Dog")
	be.Equal(t, ast.ExprString(cls.Bases[0]), "Animal")

	loop := mod.Body[1].(*ast.For)
	be.Equal(t, ast.ExprString(loop.Iter), "range(3)")
	cond := loop.Body[0].(*ast.If)
	be.Equal(t, ast.ExprString(cond.Test), "i < 1 <= 2")
	_, isContinue := cond.Orelse[0].(*ast.Continue)
	be.True(t, isContinue)

	w := mod.Body[2].(*ast.While)
	be.Equal(t, ast.ExprString(w.Test), "(a and not b)")
	aug := w.Body[0].(*ast.AugAssign)
	be.Equal(t, aug.Op, ast.Sub)
}

func TestDecodeDefaultsAndAnnotations(t *testing.T) {
	src := `{"_type": "Module", "body": [{"_type": "FunctionDef", "name": "f",
	  "args": {"_type": "arguments", "posonlyargs": [],
	    "args": [{"_type": "arg", "arg": "a", "annotation": {"_type": "Name", "id": "int"}},
	             {"_type": "arg", "arg": "b"}],
	    "defaults": [{"_type": "Constant", "value": 2}]},
	  "returns": {"_type": "Name", "id": "float"},
	  "body": [{"_type": "Pass"}]}]}`
	mod, err := Decode([]byte(src))
	be.Err(t, err, nil)
	fn := mod.Body[0].(*ast.FunctionDef)
	be.Equal(t, ast.ExprString(fn.Params[0].Annotation), "int")
	be.Equal(t, fn.Params[0].Default, nil)
	be.Equal(t, ast.ExprString(fn.Params[1].Default), "2")
	be.Equal(t, ast.ExprString(fn.Returns), "float")
}

func TestDecodeFString(t *testing.T) {
	src := `{"_type": "Module", "body": [{"_type": "Expr", "value": {"_type": "JoinedStr", "values": [
	  {"_type": "Constant", "value": "x="},
	  {"_type": "FormattedValue", "value": {"_type": "Name", "id": "x"}, "conversion": 114,
	   "format_spec": {"_type": "JoinedStr", "values": [{"_type": "Constant", "value": ".2f"}]}}
	]}}]}`
	mod, err := Decode([]byte(src))
	be.Err(t, err, nil)
	js := mod.Body[0].(*ast.ExprStmt).Value.(*ast.JoinedStr)
	be.Equal(t, len(js.Values), 2)
	fv := js.Values[1].(*ast.FormattedValue)
	be.Equal(t, fv.Conversion, byte('r'))
	be.Equal(t, fv.FormatSpec, ".2f")
}

func TestDecodeUnsupportedNodes(t *testing.T) {
	src := `{"_type": "Module", "body": [
	  {"_type": "Import", "lineno": 1, "col_offset": 0, "names": []},
	  {"_type": "Expr", "value": {"_type": "Lambda", "lineno": 2, "col_offset": 0}}
	]}`
	mod, err := Decode([]byte(src))
	be.Err(t, err, nil)
	imp := mod.Body[0].(*ast.UnsupportedStmt)
	be.Equal(t, imp.Kind, "Import")
	lam := mod.Body[1].(*ast.ExprStmt).Value.(*ast.UnsupportedExpr)
	be.Equal(t, lam.Kind, "Lambda")
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"invalid json", `{"_type": `, "decoding AST JSON"},
		{"array root", `[]`, "root is an array"},
		{"wrong root", `{"_type": "Expression"}`, `root node is "Expression"`},
		{"body not array", `{"_type": "Module", "body": 3}`, "want an array"},
		{"missing type", `{"_type": "Module", "body": [{"lineno": 4}]}`, "line 4: statement node without _type"},
		{"bad name", `{"_type": "Module", "body": [{"_type": "Expr", "value": {"_type": "Name", "id": 1}}]}`, "Name.id is a number"},
		{"compare arity", `{"_type": "Module", "body": [{"_type": "Expr", "value": {"_type": "Compare", "left": {"_type": "Name", "id": "a"}, "ops": [{"_type": "Lt"}], "comparators": []}}]}`, "1 operators and 0 comparators"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src))
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), tt.want))
		})
	}
}
