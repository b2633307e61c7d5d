package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/lhaig/pylower/internal/ast"
	"github.com/lhaig/pylower/internal/compiler"
	"github.com/lhaig/pylower/internal/diagnostic"
	"github.com/lhaig/pylower/internal/formatter"
	"github.com/lhaig/pylower/internal/lower"
	"github.com/lhaig/pylower/internal/mdcase"
	"github.com/lhaig/pylower/internal/pyjson"
)

const usage = `pylowerc - lowers a Python subset to C

Usage:
  pylowerc translate [options] <file.py|file.json>   Print (or write) the lowered C
  pylowerc batch [options] <indir> <outdir>          Lower every file under indir
  pylowerc check [-json] <file>                      Report errors and degradations
  pylowerc lint <file.py>                            Report portability and style issues
  pylowerc dump [-json] <file>                       Print the parsed tree
  pylowerc fmt [-w] <file.py>                        Print (or rewrite) canonical source
  pylowerc repl                                      Lower snippets interactively
  pylowerc selftest <case.md>...                     Run Markdown golden cases

Run 'pylowerc <command> -h' for the options of a command.

Examples:
  pylowerc translate demo.py                 Print demo.py lowered to C
  pylowerc translate -o demo.c demo.py       Write demo.c
  pylowerc batch -workers 4 src/ out/        Lower src/**/*.py into out/**/*.c
  pylowerc check -json tree.json             Check a CPython AST dump
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "translate":
		os.Exit(handleTranslate(args))
	case "batch":
		os.Exit(handleBatch(args))
	case "check":
		os.Exit(handleCheck(args))
	case "lint":
		os.Exit(handleLint(args))
	case "dump":
		os.Exit(handleDump(args))
	case "fmt":
		os.Exit(handleFmt(args))
	case "repl":
		os.Exit(handleRepl(args))
	case "selftest":
		os.Exit(handleSelftest(args))
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// lowerFlags registers the options shared by every command that lowers
func lowerFlags(fs *flag.FlagSet) *lower.Options {
	opts := lower.DefaultOptions()
	fs.StringVar(&opts.EntryPoint, "entry", opts.EntryPoint, "name of the emitted entry function")
	fs.StringVar(&opts.GenericType, "generic", opts.GenericType, "C type for values of unknown type")
	fs.StringVar(&opts.Indent, "indent", opts.Indent, "indentation per nesting level")
	return &opts
}

// inputFile returns the single positional argument of a command
func inputFile(fs *flag.FlagSet) (string, bool) {
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: %s expects exactly one input file\n", fs.Name())
		return "", false
	}
	return fs.Arg(0), true
}

func isJSONInput(path string, forced bool) bool {
	return forced || strings.EqualFold(filepath.Ext(path), ".json")
}

func compileFile(path string, json bool, opts lower.Options) (*compiler.Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isJSONInput(path, json) {
		return compiler.CompileJSON(source, opts), nil
	}
	return compiler.Compile(string(source), opts), nil
}

func printWarnings(diag *diagnostic.Diagnostics, filePath string) {
	for _, d := range diag.All() {
		if d.Severity != diagnostic.Error {
			fmt.Fprintf(os.Stderr, "%s:%d:%d: %s: %s\n", filePath, d.Line, d.Column, d.Severity, d.Message)
		}
	}
}

func handleTranslate(args []string) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	opts := lowerFlags(fs)
	out := fs.String("o", "", "write the C text to this file instead of stdout")
	json := fs.Bool("json", false, "input is a CPython AST JSON dump (implied by .json)")
	quiet := fs.Bool("q", false, "do not print warnings")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	filePath, ok := inputFile(fs)
	if !ok {
		return 2
	}

	res, err := compileFile(filePath, *json, *opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		return 1
	}
	if res.Diagnostics.HasErrors() {
		fmt.Fprintln(os.Stderr, res.Diagnostics.Format(filePath))
	} else if !*quiet {
		printWarnings(res.Diagnostics, filePath)
	}

	if *out == "" {
		fmt.Print(res.CSource)
	} else {
		if err := os.WriteFile(*out, []byte(res.CSource), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %s\n", err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", *out)
	}
	if res.Diagnostics.HasErrors() {
		return 1
	}
	return 0
}

func handleBatch(args []string) int {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	opts := lowerFlags(fs)
	workers := fs.Int("workers", 0, "files lowered at once (default: number of CPUs)")
	timeout := fs.Duration("timeout", compiler.DefaultTimeout, "per-file time limit")
	json := fs.Bool("json", false, "inputs are CPython AST JSON dumps")
	inExt := fs.String("in-ext", "", "input extension (default .py, or .json with -json)")
	outExt := fs.String("out-ext", ".c", "output extension")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: batch expects an input and an output directory")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	report, err := compiler.Batch(ctx, fs.Arg(0), fs.Arg(1), compiler.BatchOptions{
		Workers:   *workers,
		Timeout:   *timeout,
		InputExt:  *inExt,
		OutputExt: *outExt,
		JSON:      *json,
		Lower:     *opts,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}

	diag := report.Diagnostics()
	for _, d := range diag.Warnings() {
		fmt.Fprintf(os.Stderr, "%s:%d:%d: warning: %s\n", d.File, d.Line, d.Column, d.Message)
	}
	failed := len(report.Failed())
	fmt.Printf("Lowered %d file(s) in %s: %d failed, %d warning(s)\n",
		len(report.Files), time.Since(start).Round(time.Millisecond), failed, diag.WarningCount())
	if failed > 0 {
		return 1
	}
	return 0
}

func handleCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	json := fs.Bool("json", false, "input is a CPython AST JSON dump (implied by .json)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	filePath, ok := inputFile(fs)
	if !ok {
		return 2
	}

	res, err := compileFile(filePath, *json, lower.DefaultOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		return 1
	}
	if res.Diagnostics.HasErrors() {
		fmt.Fprintln(os.Stderr, res.Diagnostics.Format(filePath))
		return 1
	}
	for _, d := range res.Diagnostics.All() {
		fmt.Printf("%s:%d:%d: %s: %s\n", filePath, d.Line, d.Column, d.Severity, d.Message)
	}

	fmt.Println("No errors found.")
	return 0
}

func handleLint(args []string) int {
	fs := flag.NewFlagSet("lint", flag.ContinueOnError)
	entry := fs.String("entry", "main", "name of the emitted entry function")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	filePath, ok := inputFile(fs)
	if !ok {
		return 2
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		return 1
	}

	diag := compiler.Lint(string(source), lower.Options{EntryPoint: *entry})
	if diag.HasErrors() {
		fmt.Fprintln(os.Stderr, diag.Format(filePath))
		return 1
	}
	if diag.Count() == 0 {
		fmt.Println("No lint warnings.")
		return 0
	}

	fmt.Print(diag.Format(filePath))
	fmt.Println()
	fmt.Printf("%d warning(s) found.\n", diag.Count())
	return 0
}

func handleDump(args []string) int {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	json := fs.Bool("json", false, "input is a CPython AST JSON dump (implied by .json)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	filePath, ok := inputFile(fs)
	if !ok {
		return 2
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		return 1
	}

	var mod *ast.Module
	if isJSONInput(filePath, *json) {
		mod, err = pyjson.Decode(source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return 1
		}
	} else {
		var diag *diagnostic.Diagnostics
		mod, diag = compiler.Parse(string(source))
		if diag.HasErrors() {
			fmt.Fprintln(os.Stderr, diag.Format(filePath))
			return 1
		}
	}
	fmt.Print(ast.Print(mod))
	return 0
}

func handleFmt(args []string) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	write := fs.Bool("w", false, "rewrite the file in place")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	filePath, ok := inputFile(fs)
	if !ok {
		return 2
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		return 1
	}
	mod, diag := compiler.Parse(string(source))
	if diag.HasErrors() {
		fmt.Fprintln(os.Stderr, diag.Format(filePath))
		return 1
	}

	out := formatter.Format(mod)
	if !*write {
		fmt.Print(out)
		return 0
	}
	if out == string(source) {
		return 0
	}
	if err := os.WriteFile(filePath, []byte(out), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %s\n", err)
		return 1
	}
	fmt.Printf("Formatted %s\n", filePath)
	return 0
}

func handleSelftest(args []string) int {
	fs := flag.NewFlagSet("selftest", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "list every case")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no case files specified")
		return 2
	}

	passed, failed := 0, 0
	for _, file := range fs.Args() {
		content, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
			return 1
		}
		cases, err := mdcase.Extract(string(content))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", file, err)
			return 1
		}
		for _, tc := range cases {
			failures := runCase(tc)
			if len(failures) == 0 {
				passed++
				if *verbose {
					fmt.Printf("ok   %s:%d %s\n", file, tc.Line, tc.Name)
				}
				continue
			}
			failed++
			fmt.Printf("FAIL %s:%d %s\n", file, tc.Line, tc.Name)
			for _, f := range failures {
				fmt.Printf("    %s\n", strings.ReplaceAll(f.Error(), "\n", "\n    "))
			}
		}
	}

	fmt.Printf("%d passed, %d failed\n", passed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func runCase(tc mdcase.Case) []error {
	var res *compiler.Result
	if tc.InputType == mdcase.InputJSON {
		res = compiler.CompileJSON([]byte(tc.Input), lower.DefaultOptions())
	} else {
		res = compiler.Compile(tc.Input, lower.DefaultOptions())
	}
	var warnings []string
	for _, d := range res.Diagnostics.Warnings() {
		warnings = append(warnings, d.Message)
	}
	return tc.Check(res.CSource, warnings)
}
