package lower

import (
	"bytes"
	"fmt"
	"strings"
)

// writer accumulates one emitted fragment
type writer struct {
	buf    bytes.Buffer
	indent int
	unit   string
}

func (c *Context) newWriter() *writer {
	return &writer{unit: c.opts.Indent}
}

func (w *writer) emitLinef(format string, args ...any) {
	w.emitLine(fmt.Sprintf(format, args...))
}

func (w *writer) emitLine(s string) {
	if s == "" {
		w.buf.WriteString("\n")
		return
	}
	w.buf.WriteString(w.indentStr())
	w.buf.WriteString(s)
	w.buf.WriteString("\n")
}

func (w *writer) incIndent() { w.indent++ }
func (w *writer) decIndent() { w.indent-- }

func (w *writer) indentStr() string {
	return strings.Repeat(w.unit, w.indent)
}

// mark and reset let a failed statement roll back its partial output
func (w *writer) mark() (int, int) { return w.buf.Len(), w.indent }

func (w *writer) reset(n, indent int) {
	w.buf.Truncate(n)
	w.indent = indent
}

// insertLines writes lines at byte offset at, one indent level deep
func (w *writer) insertLines(at int, lines []string) {
	if len(lines) == 0 {
		return
	}
	tail := append([]byte(nil), w.buf.Bytes()[at:]...)
	w.buf.Truncate(at)
	for _, l := range lines {
		w.buf.WriteString(w.unit + l + "\n")
	}
	w.buf.Write(tail)
}

func (w *writer) String() string {
	return w.buf.String()
}

// includeOrder is the fixed order of the preamble headers
var includeOrder = []string{"stdio.h", "stdlib.h", "string.h", "math.h", "stdarg.h", "stddef.h"}

const formatHelper = `static char *py_format(const char *fmt, ...) {
%[1]sva_list ap;
%[1]sva_start(ap, fmt);
%[1]sint n = vsnprintf(NULL, 0, fmt, ap);
%[1]sva_end(ap);
%[1]schar *buf = malloc(n + 1);
%[1]sva_start(ap, fmt);
%[1]svsnprintf(buf, n + 1, fmt, ap);
%[1]sva_end(ap);
%[1]sreturn buf;
}
`

// need records that the output references a standard header
func (c *Context) need(header string) {
	c.includes[header] = true
}

// emit assembles the buckets in their fixed order: includes, helper,
// struct declarations, prototypes, function bodies, entry point
func (c *Context) emit() string {
	if c.usesNull && !c.includes["stdio.h"] && !c.includes["stdlib.h"] && !c.includes["string.h"] {
		c.need("stddef.h")
	}

	var sb strings.Builder
	section := func(s string) {
		sb.WriteString(s)
		sb.WriteString("\n")
	}

	var includes []string
	for _, h := range includeOrder {
		if c.includes[h] {
			includes = append(includes, "#include <"+h+">\n")
		}
	}
	if len(includes) > 0 {
		section(strings.Join(includes, ""))
	}
	if c.usesFormat {
		section(fmt.Sprintf(formatHelper, c.opts.Indent))
	}
	if len(c.forwards) > 0 {
		section(strings.Join(c.forwards, "\n") + "\n")
	}
	for _, s := range c.structs {
		section(s)
	}
	if len(c.prototypes) > 0 {
		section(strings.Join(c.prototypes, "\n") + "\n")
	}
	for _, f := range c.functions {
		section(f)
	}

	c.entry.insertLines(0, c.entryScope.hoistedDecls())
	sb.WriteString("int " + c.opts.EntryPoint + "() {\n")
	sb.WriteString(c.entry.String())
	sb.WriteString(c.opts.Indent + "return 0;\n")
	sb.WriteString("}\n")
	return sb.String()
}

// EmptyProgram returns the minimal valid program: an entry point that
// does nothing
func EmptyProgram(opts Options) string {
	opts = opts.withDefaults()
	return "int " + opts.EntryPoint + "() {\n" + opts.Indent + "return 0;\n}\n"
}
