package main

import (
	"strings"
	"testing"

	"github.com/lhaig/pylower/internal/lower"
	"github.com/nalgeon/be"
)

func TestIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"x = 1", false},
		{"def f():", true},
		{"def f():\n    return 1", true},
		{"def f():\n    return 1\n", false},
		{"def f(): return 1", false},
		{"print(1,", true},
		{"print(1,\n      2)", false},
		{`print("(")`, false},
		{"x = 1 + \\", true},
		{"if x:  # note", true},
		{"s = 'a:'", false},
	}
	for _, tt := range tests {
		if got := incomplete(tt.src); got != tt.want {
			t.Errorf("incomplete(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestSessionAccumulates(t *testing.T) {
	s := &session{opts: lower.DefaultOptions()}

	res := s.eval("def sq(x):\n    return x * x\n")
	be.Equal(t, res.Diagnostics.HasErrors(), false)

	res = s.eval("print(sq(3))")
	be.Equal(t, res.Diagnostics.HasErrors(), false)
	be.True(t, strings.Contains(res.CSource, "void *sq(void *x) {"))
	be.True(t, strings.Contains(res.CSource, "sq(3)"))
	be.True(t, strings.HasSuffix(s.source.String(), "print(sq(3))\n"))
}

func TestSessionRejectsBadSnippet(t *testing.T) {
	s := &session{opts: lower.DefaultOptions()}
	s.eval("x = 1\n")
	before := s.source.String()

	res := s.eval("def (:\n")
	be.True(t, res.Diagnostics.HasErrors())
	be.Equal(t, s.source.String(), before)

	s.reset()
	be.Equal(t, s.source.String(), "")
}
