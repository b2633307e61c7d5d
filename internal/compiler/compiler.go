package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lhaig/pylower/internal/ast"
	"github.com/lhaig/pylower/internal/diagnostic"
	"github.com/lhaig/pylower/internal/linter"
	"github.com/lhaig/pylower/internal/lower"
	"github.com/lhaig/pylower/internal/parser"
	"github.com/lhaig/pylower/internal/pyjson"
)

// Result holds the output of a compilation
type Result struct {
	Diagnostics *diagnostic.Diagnostics
	CSource     string
	Classes     []*lower.ClassRecord
}

// Parse runs the native frontend only.
func Parse(source string) (*ast.Module, *diagnostic.Diagnostics) {
	return parser.ParseSource(source)
}

// Compile runs the full pipeline: parse -> lower.
// When the frontend reports errors, CSource is the empty program and the
// diagnostics carry the parse errors.
func Compile(source string, opts lower.Options) *Result {
	mod, diags := Parse(source)
	if diags.HasErrors() {
		return &Result{Diagnostics: diags, CSource: lower.EmptyProgram(opts)}
	}
	return lowerModule(mod, diags, opts)
}

// CompileJSON is Compile for a JSON dump of a CPython AST.
func CompileJSON(data []byte, opts lower.Options) *Result {
	diags := diagnostic.New()
	mod, err := pyjson.Decode(data)
	if err != nil {
		diags.Errorf(0, 0, "%s", err)
		return &Result{Diagnostics: diags, CSource: lower.EmptyProgram(opts)}
	}
	return lowerModule(mod, diags, opts)
}

func lowerModule(mod *ast.Module, diags *diagnostic.Diagnostics, opts lower.Options) *Result {
	res := lower.Lower(mod, opts)
	diags.Merge(res.Diagnostics, "")
	diags.Sort()
	return &Result{Diagnostics: diags, CSource: res.C, Classes: res.Classes}
}

// Translate returns the C text for source. It never fails: unparseable
// input and internal failures both yield the empty program.
func Translate(source string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = lower.EmptyProgram(lower.DefaultOptions())
		}
	}()
	return Compile(source, lower.DefaultOptions()).CSource
}

// TranslateJSON is Translate for a JSON dump of a CPython AST.
func TranslateJSON(data []byte) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = lower.EmptyProgram(lower.DefaultOptions())
		}
	}()
	return CompileJSON(data, lower.DefaultOptions()).CSource
}

// Check runs parse + lower without keeping the output, returning every
// error and degradation warning.
func Check(source string) *diagnostic.Diagnostics {
	return Compile(source, lower.DefaultOptions()).Diagnostics
}

// Lint runs parse + the portability linter.
func Lint(source string, opts lower.Options) *diagnostic.Diagnostics {
	mod, diags := Parse(source)
	if diags.HasErrors() {
		return diags
	}
	entry := opts.EntryPoint
	if entry == "" {
		entry = lower.DefaultOptions().EntryPoint
	}
	diags.Merge(linter.LintWithEntry(mod, entry), "")
	diags.Sort()
	return diags
}

// EmitC runs the full pipeline and writes the C source to outPath. The file
// is written even when the diagnostics carry errors, so a batch of files
// always produces a complete set of outputs.
func EmitC(source, outPath string, opts lower.Options) (*Result, error) {
	res := Compile(source, opts)
	if err := writeOutput(outPath, res.CSource); err != nil {
		return res, err
	}
	return res, nil
}

func writeOutput(outPath, text string) error {
	outDir := filepath.Dir(outPath)
	if outDir != "." && outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := os.WriteFile(outPath, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}
