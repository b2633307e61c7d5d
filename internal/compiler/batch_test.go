package compiler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nalgeon/be"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		be.Err(t, os.MkdirAll(filepath.Dir(path), 0755), nil)
		be.Err(t, os.WriteFile(path, []byte(content), 0644), nil)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	be.Err(t, err, nil)
	return string(data)
}

func quietOptions(buf *bytes.Buffer) BatchOptions {
	return BatchOptions{Workers: 2, Logger: log.New(buf, "", 0)}
}

func TestBatchTranslatesEveryFile(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{
		"sq.py":          "def sq(x): return x*x\n",
		"pkg/hello.py":   "print(\"hi\")\n",
		"notes.txt":      "not python",
		"pkg/deep/z.py":  "",
		"pkg/skip.py.bk": "x = 1\n",
	})

	var logs bytes.Buffer
	report, err := Batch(context.Background(), in, out, quietOptions(&logs))
	be.Err(t, err, nil)
	be.Equal(t, len(report.Files), 3)
	be.Equal(t, len(report.Failed()), 0)
	be.Err(t, report.Err(), nil)

	// inputs are reported in sorted order
	be.Equal(t, report.Files[0].Input, filepath.Join(in, "pkg/deep/z.py"))
	be.Equal(t, report.Files[1].Input, filepath.Join(in, "pkg/hello.py"))
	be.Equal(t, report.Files[2].Input, filepath.Join(in, "sq.py"))

	be.True(t, strings.Contains(readFile(t, filepath.Join(out, "sq.c")), "void *sq(void *x) {"))
	be.True(t, strings.Contains(readFile(t, filepath.Join(out, "pkg", "hello.c")), `printf("%s\n", "hi");`))
	be.Equal(t, readFile(t, filepath.Join(out, "pkg", "deep", "z.c")), emptyProgram)

	_, err = os.Stat(filepath.Join(out, "notes.c"))
	be.True(t, os.IsNotExist(err))
	be.True(t, strings.Contains(logs.String(), "translated 3 files, 0 failed"))
}

func TestBatchFailureDoesNotAbort(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{
		"bad.py":  "def f(:\n",
		"good.py": "x = 1\n",
	})

	var logs bytes.Buffer
	report, err := Batch(context.Background(), in, out, quietOptions(&logs))
	be.Err(t, err, nil)

	failed := report.Failed()
	be.Equal(t, len(failed), 1)
	be.Equal(t, failed[0].Input, filepath.Join(in, "bad.py"))
	be.True(t, report.Err() != nil)

	// the failing file still gets the empty program
	be.Equal(t, readFile(t, filepath.Join(out, "bad.c")), emptyProgram)
	be.True(t, strings.Contains(readFile(t, filepath.Join(out, "good.c")), "int x = 1;"))
	be.True(t, strings.Contains(logs.String(), "bad.py"))
}

func TestBatchDiagnosticsAreTaggedWithFile(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{"loop.py": "for c in s:\n    pass\n"})

	var logs bytes.Buffer
	report, err := Batch(context.Background(), in, out, quietOptions(&logs))
	be.Err(t, err, nil)

	diags := report.Diagnostics()
	be.Equal(t, diags.WarningCount(), 1)
	be.Equal(t, diags.Warnings()[0].File, filepath.Join(in, "loop.py"))
}

func TestBatchJSONInputs(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{
		"a.json": `{"_type": "Module", "body": [{"_type": "Pass"}]}`,
		"a.py":   "this is ignored",
	})

	var logs bytes.Buffer
	opts := quietOptions(&logs)
	opts.JSON = true
	report, err := Batch(context.Background(), in, out, opts)
	be.Err(t, err, nil)
	be.Equal(t, len(report.Files), 1)
	be.Equal(t, report.Files[0].Output, filepath.Join(out, "a.c"))
	be.Equal(t, readFile(t, filepath.Join(out, "a.c")), emptyProgram)
}

func TestBatchCustomExtensions(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{"m.pyl": "y = 2.5\n"})

	var logs bytes.Buffer
	opts := quietOptions(&logs)
	opts.InputExt, opts.OutputExt = ".pyl", ".h"
	_, err := Batch(context.Background(), in, out, opts)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(readFile(t, filepath.Join(out, "m.h")), "double y = 2.5;"))
}

func TestBatchMissingInputDir(t *testing.T) {
	var logs bytes.Buffer
	_, err := Batch(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), quietOptions(&logs))
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "failed to read input dir"))
}

func TestBatchInputIsFile(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{"a.py": "x = 1\n"})
	var logs bytes.Buffer
	_, err := Batch(context.Background(), filepath.Join(in, "a.py"), t.TempDir(), quietOptions(&logs))
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "not a directory"))
}

func TestBatchCancelled(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{"a.py": "x = 1\n", "b.py": "y = 2\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var logs bytes.Buffer
	_, err := Batch(ctx, in, out, quietOptions(&logs))
	be.True(t, errors.Is(err, context.Canceled))
}

func TestBatchCancelledWhileTranslating(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{"big.py": strings.Repeat("x = 1 + 2 * 3\n", 400000)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(20*time.Millisecond, cancel)

	var logs bytes.Buffer
	opts := quietOptions(&logs)
	opts.Workers = 1
	opts.Timeout = time.Minute
	report, err := Batch(ctx, in, out, opts)
	be.True(t, errors.Is(err, context.Canceled))
	be.True(t, report != nil)
	be.Equal(t, strings.Contains(logs.String(), "translated"), false)
}

func TestTranslateFileTimeout(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	// large enough that lowering cannot finish within a nanosecond
	writeFiles(t, in, map[string]string{"big.py": strings.Repeat("x = 1 + 2 * 3\n", 20000)})

	opts := BatchOptions{Timeout: time.Nanosecond}.withDefaults()
	res := translateFile(context.Background(), in, out, "big.py", opts)
	be.True(t, errors.Is(res.Err, ErrTimeout))
	be.Equal(t, readFile(t, filepath.Join(out, "big.c")), emptyProgram)
}

func TestBatchOptionsDefaults(t *testing.T) {
	opts := BatchOptions{}.withDefaults()
	be.True(t, opts.Workers > 0)
	be.Equal(t, opts.Timeout, DefaultTimeout)
	be.Equal(t, opts.InputExt, ".py")
	be.Equal(t, opts.OutputExt, ".c")
	be.True(t, opts.Logger != nil)

	opts = BatchOptions{JSON: true}.withDefaults()
	be.Equal(t, opts.InputExt, ".json")
}

func TestOutputPath(t *testing.T) {
	be.Equal(t, outputPath("out", filepath.Join("a", "b.py"), ".py", ".c"), filepath.Join("out", "a", "b.c"))
}
