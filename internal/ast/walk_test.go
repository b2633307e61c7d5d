package ast

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestInspect_VisitsAllNodes(t *testing.T) {
	mod := &Module{Body: []Stmt{
		&FunctionDef{
			Name:    "f",
			Params:  []*Param{{Name: "a", Annotation: &Name{ID: "int"}}},
			Returns: &Name{ID: "int"},
			Body: []Stmt{
				&For{
					Target: &Name{ID: "i"},
					Iter:   &Call{Func: &Name{ID: "range"}, Args: []Expr{&Name{ID: "a"}}},
					Body:   []Stmt{&ExprStmt{Value: &UnsupportedExpr{Kind: "Lambda"}}},
				},
				&Return{Value: &BinOp{Left: &Name{ID: "a"}, Op: Add, Right: &Constant{Kind: ConstInt, Value: "1"}}},
			},
		},
	}}

	var names []string
	var unsupported int
	Inspect(mod, func(n Node) bool {
		switch n := n.(type) {
		case *Name:
			names = append(names, n.ID)
		case *UnsupportedExpr:
			unsupported++
		}
		return true
	})

	be.Equal(t, names, []string{"int", "int", "i", "range", "a", "a"})
	be.Equal(t, unsupported, 1)
}

func TestInspect_PruneChildren(t *testing.T) {
	mod := &Module{Body: []Stmt{
		&ClassDef{Name: "C", Body: []Stmt{
			&FunctionDef{Name: "m", Body: []Stmt{&Pass{}}},
		}},
		&Pass{},
	}}

	var passes int
	Inspect(mod, func(n Node) bool {
		if _, ok := n.(*ClassDef); ok {
			return false
		}
		if _, ok := n.(*Pass); ok {
			passes++
		}
		return true
	})
	be.Equal(t, passes, 1)
}
