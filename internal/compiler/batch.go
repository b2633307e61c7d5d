package compiler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/lhaig/pylower/internal/diagnostic"
	"github.com/lhaig/pylower/internal/lower"
	"golang.org/x/sync/errgroup"
)

// BatchOptions configures a directory translation
type BatchOptions struct {
	// Workers bounds the number of files translated at once (default NumCPU)
	Workers int
	// Timeout is the per-file limit (default 10s)
	Timeout time.Duration
	// InputExt selects the files to translate (default ".py", or ".json"
	// when JSON is set)
	InputExt string
	// OutputExt replaces InputExt in output names (default ".c")
	OutputExt string
	// JSON treats inputs as CPython AST JSON dumps
	JSON bool
	Lower  lower.Options
	Logger *log.Logger
}

// DefaultTimeout is the per-file limit used when BatchOptions.Timeout is zero
const DefaultTimeout = 10 * time.Second

func (o BatchOptions) withDefaults() BatchOptions {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.InputExt == "" {
		o.InputExt = ".py"
		if o.JSON {
			o.InputExt = ".json"
		}
	}
	if o.OutputExt == "" {
		o.OutputExt = ".c"
	}
	if o.Logger == nil {
		o.Logger = log.New(os.Stderr, "pylower: ", 0)
	}
	return o
}

// FileResult is the outcome for one input file
type FileResult struct {
	Input  string
	Output string // empty when nothing was written
	// Diagnostics of the translation, tagged with Input
	Diagnostics *diagnostic.Diagnostics
	Err         error
}

// BatchReport collects per-file results in input order
type BatchReport struct {
	Files []FileResult
}

// Failed returns the files whose translation or write failed
func (r *BatchReport) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Diagnostics merges every file's diagnostics
func (r *BatchReport) Diagnostics() *diagnostic.Diagnostics {
	all := diagnostic.New()
	for _, f := range r.Files {
		all.Merge(f.Diagnostics, f.Input)
	}
	all.Sort()
	return all
}

// Err joins the per-file failures, or returns nil when every file succeeded
func (r *BatchReport) Err() error {
	var errs []error
	for _, f := range r.Failed() {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// ErrTimeout is wrapped by a FileResult error when translation exceeded
// BatchOptions.Timeout
var ErrTimeout = errors.New("translation timed out")

// Batch translates every input file under inDir and writes a like-named
// output file under outDir, mirroring subdirectories. A per-file failure is
// logged and recorded in the report; it does not stop the batch. The
// returned error is non-nil only when inDir cannot be walked or ctx is
// cancelled.
func Batch(ctx context.Context, inDir, outDir string, opts BatchOptions) (*BatchReport, error) {
	opts = opts.withDefaults()

	inputs, err := discoverInputs(inDir, opts.InputExt)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{Files: make([]FileResult, len(inputs))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, rel := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := translateFile(gctx, inDir, outDir, rel, opts)
			report.Files[i] = res
			if isCancellation(res.Err) {
				return res.Err
			}
			if res.Err != nil {
				opts.Logger.Printf("%s: %v", res.Input, res.Err)
			}
			return nil
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return report, fmt.Errorf("batch cancelled: %w", err)
	}

	opts.Logger.Printf("translated %d files, %d failed", len(inputs), len(report.Failed()))
	return report, nil
}

// discoverInputs walks root and returns the paths (relative to root) of
// every file with the given extension, sorted
func discoverInputs(root, ext string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read input dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path %s is not a directory", root)
	}

	var inputs []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		inputs = append(inputs, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk input dir: %w", err)
	}
	sort.Strings(inputs)
	return inputs, nil
}

// outputPath maps an input path (relative to the input root) to its output
// path under outDir
func outputPath(outDir, rel, inExt, outExt string) string {
	return filepath.Join(outDir, strings.TrimSuffix(rel, inExt)+outExt)
}

// translateFile runs one input through the engine and writes the result.
// The engine has no cancellation of its own, so a translation that
// outlives the timeout is abandoned and the empty program is written in
// its place.
func translateFile(ctx context.Context, inDir, outDir, rel string, opts BatchOptions) FileResult {
	inPath := filepath.Join(inDir, rel)
	res := FileResult{Input: inPath}

	source, err := os.ReadFile(inPath)
	if err != nil {
		res.Err = fmt.Errorf("failed to read input: %w", err)
		return res
	}

	tctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	done := make(chan *Result, 1)
	go func() {
		done <- compileSafely(source, opts)
	}()

	var text string
	select {
	case out := <-done:
		res.Diagnostics = diagnostic.New()
		res.Diagnostics.Merge(out.Diagnostics, inPath)
		text = out.CSource
		if out.Diagnostics.HasErrors() {
			res.Err = fmt.Errorf("translation errors, wrote empty program:\n%s", out.Diagnostics.Format(inPath))
		}
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		res.Err = fmt.Errorf("%w after %s, wrote empty program", ErrTimeout, opts.Timeout)
		text = lower.EmptyProgram(opts.Lower)
	}

	out := outputPath(outDir, rel, opts.InputExt, opts.OutputExt)
	if err := writeOutput(out, text); err != nil {
		res.Err = errors.Join(res.Err, err)
		return res
	}
	res.Output = out
	return res
}

// isCancellation reports whether err came from the batch context rather
// than from the file itself
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// compileSafely never panics and never returns nil
func compileSafely(source []byte, opts BatchOptions) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			diags := diagnostic.New()
			diags.Errorf(0, 0, "internal failure: %v", r)
			res = &Result{Diagnostics: diags, CSource: lower.EmptyProgram(opts.Lower)}
		}
	}()
	if opts.JSON {
		return CompileJSON(source, opts.Lower)
	}
	return Compile(string(source), opts.Lower)
}
