package formatter

import (
	"strings"
	"testing"

	"github.com/lhaig/pylower/internal/parser"
	"github.com/nalgeon/be"
)

// helper: parse source, format, return formatted string
func formatSource(t *testing.T, source string) string {
	t.Helper()
	mod, diags := parser.ParseSource(source)
	if diags.HasErrors() {
		t.Fatalf("parse error: %s", diags.Format("<test>"))
	}
	return Format(mod)
}

// --- Per-construct tests ---

func TestFormatFunction(t *testing.T) {
	got := formatSource(t, "def sq(x):return x*x\n")
	be.Equal(t, got, "def sq(x):\n    return x * x\n")
}

func TestFormatParams(t *testing.T) {
	got := formatSource(t, "def f(a:int,b=2,c:float=1.5)->float:\n  return a\n")
	if !strings.Contains(got, "def f(a: int, b=2, c: float = 1.5) -> float:") {
		t.Errorf("expected canonical parameters, got:\n%s", got)
	}
}

func TestFormatClass(t *testing.T) {
	src := `class Dog( Animal ):
  def speak(self):
    return "woof"
  def wag(self): pass
class Empty: pass
`
	want := `class Dog(Animal):
    def speak(self):
        return "woof"

    def wag(self):
        pass


class Empty:
    pass
`
	be.Equal(t, formatSource(t, src), want)
}

func TestFormatTopLevelSpacing(t *testing.T) {
	src := "x = 1\ny = 2\ndef f():\n    pass\nprint(f())\n"
	want := "x = 1\ny = 2\n\n\ndef f():\n    pass\n\n\nprint(f())\n"
	be.Equal(t, formatSource(t, src), want)
}

func TestFormatIfElifElse(t *testing.T) {
	src := `if x>1:
    y=1
elif x==1:
    y=2
else:
    y=3
`
	want := `if x > 1:
    y = 1
elif x == 1:
    y = 2
else:
    y = 3
`
	be.Equal(t, formatSource(t, src), want)
}

func TestFormatNestedElseIfIsNotFlattened(t *testing.T) {
	src := `if a:
    pass
else:
    if b:
        pass
    x = 1
`
	got := formatSource(t, src)
	if strings.Contains(got, "elif") {
		t.Errorf("else block with more than an if must stay nested, got:\n%s", got)
	}
}

func TestFormatLoops(t *testing.T) {
	src := `for i in range(0,10,2):
    if i==4: continue
    total+=i
else:
    pass
while n>0:
    n-=1
    break
`
	got := formatSource(t, src)
	for _, want := range []string{
		"for i in range(0, 10, 2):",
		"    if i == 4:\n        continue",
		"    total += i",
		"else:\n    pass",
		"while n > 0:",
		"    n -= 1",
		"    break",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatAssignments(t *testing.T) {
	got := formatSource(t, "a=b=0\nn:int=3\nm:float\nself.x=y\nx **= 2\n")
	be.Equal(t, got, "a = b = 0\nn: int = 3\nm: float\nself.x = y\nx **= 2\n")
}

func TestFormatPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x = (a + b) * c", "x = (a + b) * c"},
		{"x = a + (b * c)", "x = a + b * c"},
		{"x = a - (b - c)", "x = a - (b - c)"},
		{"x = (a - b) - c", "x = a - b - c"},
		{"x = 2 ** 3 ** 2", "x = 2 ** 3 ** 2"},
		{"x = (2 ** 3) ** 2", "x = (2 ** 3) ** 2"},
		{"x = -a ** 2", "x = -a ** 2"},
		{"x = (-a) ** 2", "x = (-a) ** 2"},
		{"x = not (a and b)", "x = not (a and b)"},
		{"x = (a or b) and c", "x = (a or b) and c"},
		{"x = a < b < c", "x = a < b < c"},
		{"x = (a + b).real", "x = (a + b).real"},
		{"x = f(a)(b)[0]", "x = f(a)(b)[0]"},
		{"x = a if b else c", "x = a if b else c"},
		{"x = a & b | c ^ d", "x = a & b | c ^ d"},
		{"x = a // b % c", "x = a // b % c"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			be.Equal(t, formatSource(t, tt.src+"\n"), tt.want+"\n")
		})
	}
}

func TestFormatLiterals(t *testing.T) {
	src := `s = 'it"s'
n = None
b = True
xs = [1, 2.5, "a"]
p = (1,)
print(xs[1:2], sep=", ")
`
	want := `s = "it\"s"
n = None
b = True
xs = [1, 2.5, "a"]
p = (1,)
print(xs[1:2], sep=", ")
`
	be.Equal(t, formatSource(t, src), want)
}

func TestFormatFString(t *testing.T) {
	got := formatSource(t, `print(f'{name!r:>10} has {n} {{items}}')`+"\n")
	be.Equal(t, got, `print(f"{name!r:>10} has {n} {{items}}")`+"\n")
}

func TestFormatUnsupported(t *testing.T) {
	got := formatSource(t, "import os\nf = lambda x: x\n")
	be.Equal(t, got, "pass  # unsupported: Import\nf = ...\n")
}

func TestFormatNil(t *testing.T) {
	be.Equal(t, Format(nil), "")
}

// --- Idempotency ---

func TestFormatIsIdempotent(t *testing.T) {
	src := `class Shape:
    """A shape."""
    def area(self) -> float:
        return 0.0
class Square(Shape):
    def __init__(self, side: float):
        self.side = side
    def area(self):
        return self.side ** 2
def describe(s: Shape):
    a = s.area()
    if a > 10 and not a == 11:
        print(f"big {a:.2f}")
    elif a < 0 or a > 1000:
        print("odd")
    for i in range(3):
        a -= i * (2 + i)
    return a
if __name__ == "__main__":
    describe(Square(3.0))
`
	once := formatSource(t, src)
	twice := formatSource(t, once)
	be.Equal(t, twice, once)
}
