package linter

import (
	"strings"
	"testing"

	"github.com/lhaig/pylower/internal/parser"
)

func parseAndLint(t *testing.T, source string) []string {
	t.Helper()
	mod, diags := parser.ParseSource(source)
	if diags.HasErrors() {
		t.Fatalf("Parser errors: %s", diags.Format("test"))
	}

	diag := Lint(mod)
	var warnings []string
	for _, d := range diag.All() {
		warnings = append(warnings, d.Message)
	}
	return warnings
}

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

// --- Empty function body ---

func TestEmptyFunctionBody(t *testing.T) {
	source := `def noop():
    """Does nothing."""
    pass
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "empty body") {
		t.Errorf("Expected empty body warning, got: %v", warnings)
	}
}

func TestNonEmptyFunctionBodyNoWarning(t *testing.T) {
	source := `def greet():
    return 0
`
	warnings := parseAndLint(t, source)
	if containsWarning(warnings, "empty body") {
		t.Errorf("Did not expect empty body warning, got: %v", warnings)
	}
}

// --- Loops ---

func TestNonRangeLoop(t *testing.T) {
	source := `def total(xs):
    t = 0
    for x in xs:
        t += x
    return t
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "for loop over 'xs' is not a range() loop") {
		t.Errorf("Expected non-range loop warning, got: %v", warnings)
	}
}

func TestRangeLoopNoWarning(t *testing.T) {
	source := `def total(n):
    t = 0
    for i in range(0, n, 2):
        t += i
    return t
`
	warnings := parseAndLint(t, source)
	if len(warnings) != 0 {
		t.Errorf("Expected no warnings, got: %v", warnings)
	}
}

func TestRangeLoopVariableStep(t *testing.T) {
	source := `def count(n, s):
    for i in range(n, 0, s):
        print(i)
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "range() step 's' is not a literal") {
		t.Errorf("Expected variable step warning, got: %v", warnings)
	}
}

func TestNegativeLiteralStepNoWarning(t *testing.T) {
	source := `for i in range(10, 0, -1):
    print(i)
`
	warnings := parseAndLint(t, source)
	if containsWarning(warnings, "step") {
		t.Errorf("Did not expect step warning, got: %v", warnings)
	}
}

func TestLoopElseDropped(t *testing.T) {
	source := `n = 3
while n > 0:
    n -= 1
else:
    print("done")
for i in range(2):
    pass
else:
    pass
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "while-else clause is dropped") {
		t.Errorf("Expected while-else warning, got: %v", warnings)
	}
	if !containsWarning(warnings, "for-else clause is dropped") {
		t.Errorf("Expected for-else warning, got: %v", warnings)
	}
}

// --- Classes ---

func TestUnknownBase(t *testing.T) {
	source := `class Dog(Animal):
    def speak(self):
        return "woof"
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "inherits from 'Animal', which is not defined before it") {
		t.Errorf("Expected unknown base warning, got: %v", warnings)
	}
}

func TestKnownAndObjectBasesNoWarning(t *testing.T) {
	source := `class Animal(object):
    def speak(self):
        return "..."

class Dog(Animal):
    def speak(self):
        return "woof"
`
	warnings := parseAndLint(t, source)
	if len(warnings) != 0 {
		t.Errorf("Expected no warnings, got: %v", warnings)
	}
}

func TestMultipleInheritance(t *testing.T) {
	source := `class A:
    pass

class B:
    pass

class C(A, B):
    pass
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "multiple inheritance") {
		t.Errorf("Expected multiple inheritance warning, got: %v", warnings)
	}
}

func TestClassBodyStatementDropped(t *testing.T) {
	source := `class Config:
    """Settings."""
    debug = True
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "statement in class 'Config' body is dropped") {
		t.Errorf("Expected dropped statement warning, got: %v", warnings)
	}
}

func TestMethodWithoutReceiver(t *testing.T) {
	source := `class Util:
    def helper():
        return 1
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "method 'Util.helper' has no receiver parameter") {
		t.Errorf("Expected receiver warning, got: %v", warnings)
	}
}

// --- Unsupported constructs ---

func TestNestedFunction(t *testing.T) {
	source := `def outer():
    def inner():
        return 1
    return inner()
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "nested function 'inner'") {
		t.Errorf("Expected nested function warning, got: %v", warnings)
	}
}

func TestUnsupportedStatementAndExpression(t *testing.T) {
	source := `import os
f = lambda x: x
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "Import statement is not supported") {
		t.Errorf("Expected Import warning, got: %v", warnings)
	}
	if !containsWarning(warnings, "Lambda expression is not supported") {
		t.Errorf("Expected Lambda warning, got: %v", warnings)
	}
}

func TestMembershipAndSlicing(t *testing.T) {
	source := `def has(xs, x):
    return x in xs[1:]
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "membership test 'in'") {
		t.Errorf("Expected membership warning, got: %v", warnings)
	}
	if !containsWarning(warnings, "slicing is not supported") {
		t.Errorf("Expected slicing warning, got: %v", warnings)
	}
}

func TestKeywordArguments(t *testing.T) {
	source := `def area(w, h):
    return w * h

a = area(h=2, w=3)
print(a, sep=", ")
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "keyword argument 'h' is passed positionally") {
		t.Errorf("Expected keyword argument warning, got: %v", warnings)
	}
	if containsWarning(warnings, "keyword argument 'sep'") {
		t.Errorf("print keywords should not be reported, got: %v", warnings)
	}
}

func TestDefaultValueDropped(t *testing.T) {
	source := `def greet(name, greeting="hi"):
    return greeting + name
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "default value of parameter 'greeting' in 'greet' is dropped") {
		t.Errorf("Expected default warning, got: %v", warnings)
	}
}

func TestEntryPointClash(t *testing.T) {
	source := `def main():
    print("hi")
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "will be renamed to 'main_'") {
		t.Errorf("Expected entry point warning, got: %v", warnings)
	}
}

// --- Naming conventions ---

func TestFunctionNaming(t *testing.T) {
	source := `def doThing():
    return 1
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "function 'doThing' should use snake_case") {
		t.Errorf("Expected snake_case warning, got: %v", warnings)
	}
}

func TestDunderMethodNamingNoWarning(t *testing.T) {
	source := `class Point:
    def __init__(self, x):
        self.x = x
`
	warnings := parseAndLint(t, source)
	if containsWarning(warnings, "snake_case") {
		t.Errorf("Did not expect naming warning, got: %v", warnings)
	}
}

func TestClassNaming(t *testing.T) {
	source := `class my_shape:
    pass
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "class 'my_shape' should use PascalCase") {
		t.Errorf("Expected PascalCase warning, got: %v", warnings)
	}
}

func TestIsSnakeCase(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"snake_case", true},
		{"x", true},
		{"_private", true},
		{"v2", true},
		{"camelCase", false},
		{"PascalCase", false},
		{"2start", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isSnakeCase(tt.name); got != tt.want {
			t.Errorf("isSnakeCase(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsPascalCase(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Point", true},
		{"HTTPServer", true},
		{"point", false},
		{"My_Class", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isPascalCase(tt.name); got != tt.want {
			t.Errorf("isPascalCase(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// --- Unused names ---

func TestUnusedParameter(t *testing.T) {
	source := `def first(a, b):
    return a
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "parameter 'b' in 'first' is never used") {
		t.Errorf("Expected unused parameter warning, got: %v", warnings)
	}
	if containsWarning(warnings, "parameter 'a'") {
		t.Errorf("Did not expect warning for 'a', got: %v", warnings)
	}
}

func TestUnderscoreParameterNoWarning(t *testing.T) {
	source := `def ignore(_x):
    return 0
`
	warnings := parseAndLint(t, source)
	if containsWarning(warnings, "never used") {
		t.Errorf("Did not expect unused warning, got: %v", warnings)
	}
}

func TestMethodReceiverNotReportedUnused(t *testing.T) {
	source := `class Dog:
    def speak(self):
        return "woof"
`
	warnings := parseAndLint(t, source)
	if containsWarning(warnings, "never used") {
		t.Errorf("Did not expect unused warning, got: %v", warnings)
	}
}

func TestUnusedVariable(t *testing.T) {
	source := `def f():
    tmp = 1
    tmp = 2
    n = 3
    return n
`
	warnings := parseAndLint(t, source)
	if !containsWarning(warnings, "variable 'tmp' is assigned but never used") {
		t.Errorf("Expected unused variable warning, got: %v", warnings)
	}
	count := 0
	for _, w := range warnings {
		if strings.Contains(w, "'tmp'") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected one warning for 'tmp', got %d: %v", count, warnings)
	}
}

func TestAugmentedAssignmentCountsAsUse(t *testing.T) {
	source := `def f():
    total = 0
    total += 1
`
	warnings := parseAndLint(t, source)
	if containsWarning(warnings, "'total'") {
		t.Errorf("Did not expect warning for 'total', got: %v", warnings)
	}
}

func TestLintNilModule(t *testing.T) {
	if n := Lint(nil).Count(); n != 0 {
		t.Errorf("Expected no diagnostics, got %d", n)
	}
}
