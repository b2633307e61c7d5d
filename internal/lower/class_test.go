package lower

import (
	"testing"

	"github.com/nalgeon/be"
)

func classRecord(t *testing.T, res *Result, name string) *ClassRecord {
	t.Helper()
	for _, rec := range res.Classes {
		if rec.Name == name {
			return rec
		}
	}
	t.Fatalf("class %s not lowered", name)
	return nil
}

func TestMergedTableWithoutBase(t *testing.T) {
	src := `class A:
    def one(self):
        pass

    def two(self):
        pass
`
	res := lowerSource(t, src)
	rec := classRecord(t, res, "A")
	be.Equal(t, rec.Base, "")
	be.Equal(t, rec.MethodNames(), []string{"one", "two"})
	for _, m := range rec.Methods {
		be.Equal(t, m.Owner, "A")
	}
}

func TestMergedTableSingleOverride(t *testing.T) {
	src := `class A:
    def one(self):
        pass

    def two(self):
        pass

    def three(self):
        pass

class B(A):
    def two(self):
        return 2
`
	res := lowerSource(t, src)
	base := classRecord(t, res, "A")
	sub := classRecord(t, res, "B")

	be.Equal(t, sub.Base, "A")
	be.Equal(t, sub.MethodNames(), base.MethodNames())

	for i, m := range sub.Methods {
		if m.Name == "two" {
			be.Equal(t, m.Owner, "B")
			be.True(t, m.Def != base.Methods[i].Def)
			continue
		}
		be.Equal(t, m.Owner, "A")
		be.True(t, m.Def == base.Methods[i].Def)
	}
}

func TestMergedTableAppendsNewMethods(t *testing.T) {
	src := `class A:
    def one(self):
        pass

class B(A):
    def extra(self):
        pass

    def one(self):
        pass
`
	res := lowerSource(t, src)
	be.Equal(t, classRecord(t, res, "B").MethodNames(), []string{"one", "extra"})
}

func TestThreeLevelInheritance(t *testing.T) {
	src := `class A:
    def a(self):
        return 1

class B(A):
    def b(self):
        return 2

class C(B):
    def a(self):
        return 3
`
	res := lowerSource(t, src)
	c := classRecord(t, res, "C")
	be.Equal(t, c.MethodNames(), []string{"a", "b"})
	m, ok := c.Lookup("a")
	be.True(t, ok)
	be.Equal(t, m.Owner, "C")
	m, _ = c.Lookup("b")
	be.Equal(t, m.Owner, "B")
	assertContains(t, res.C, "obj->vtable->a = C_a;", "obj->vtable->b = C_b;")
}

func TestClassRecordFields(t *testing.T) {
	src := `class P:
    def __init__(self, x: float):
        self.x = x
        self.label = "p"
        self.x = 2.0
`
	res := lowerSource(t, src)
	rec := classRecord(t, res, "P")
	be.Equal(t, len(rec.Fields), 2)
	f, ok := rec.Field("x")
	be.True(t, ok)
	be.Equal(t, f.Type, "double")
	f, _ = rec.Field("label")
	be.Equal(t, f.Type, "char *")
	assertContains(t, res.C, "    double x;\n    char *label;\n")
}

func TestMultipleInheritanceUsesFirstBase(t *testing.T) {
	src := `class A:
    def m(self):
        pass

class B:
    pass

class C(A, B):
    pass
`
	res := lowerSource(t, src)
	be.Equal(t, classRecord(t, res, "C").Base, "A")
	be.True(t, containsWarning(res, "multiple inheritance"))
}

func TestMethodCallOnUnknownReceiver(t *testing.T) {
	res := lowerSource(t, "x = thing()\nx.run(1)\n")
	assertContains(t, res.C, "x->run(1);")
}

func TestConstructorAvoidsParameterClash(t *testing.T) {
	src := `class Box:
    def __init__(self, obj):
        self.obj = obj
`
	res := lowerSource(t, src)
	assertContains(t, res.C,
		"Box *Box_new(void *obj) {",
		"Box *obj_ = malloc(sizeof(Box));",
		"Box___init__(obj_, obj);",
		"return obj_;",
	)
}

func TestClassTypedParameter(t *testing.T) {
	src := `class Shape:
    def area(self) -> float:
        return 0.0

def describe(s: Shape) -> float:
    return s.area()
`
	res := lowerSource(t, src)
	assertContains(t, res.C, "double describe(Shape *s) {", "return s->vtable->area(s);")
}
