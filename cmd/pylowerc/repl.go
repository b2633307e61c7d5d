package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lhaig/pylower/internal/compiler"
	"github.com/lhaig/pylower/internal/lower"
	"github.com/peterh/liner"
)

const (
	historyFile = ".pylower_history"
	promptMain  = ">>> "
	promptCont  = "... "
	replBanner  = `pylower repl: enter Python, get C. A block ends at an empty line.
Commands: :source  :reset  :quit`
)

// session accumulates accepted snippets so later input can use earlier
// functions and classes
type session struct {
	source strings.Builder
	opts   lower.Options
}

// eval lowers the session extended by code. The snippet is kept only when
// it parses.
func (s *session) eval(code string) *compiler.Result {
	candidate := s.source.String() + code
	if !strings.HasSuffix(candidate, "\n") {
		candidate += "\n"
	}
	res := compiler.Compile(candidate, s.opts)
	if !res.Diagnostics.HasErrors() {
		s.source.Reset()
		s.source.WriteString(candidate)
	}
	return res
}

func (s *session) reset() {
	s.source.Reset()
}

// incomplete reports whether src needs more lines: an open bracket, a
// trailing backslash, or a block header that has not been closed by an
// empty line
func incomplete(src string) bool {
	lines := strings.Split(src, "\n")
	last := lines[len(lines)-1]
	if strings.TrimSpace(last) == "" {
		return false
	}
	if strings.HasSuffix(last, "\\") || bracketDepth(src) > 0 {
		return true
	}
	for _, l := range lines {
		if strings.HasSuffix(strings.TrimSpace(stripComment(l)), ":") {
			return true
		}
	}
	return false
}

func bracketDepth(src string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case quote != 0:
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case ch == '(' || ch == '[' || ch == '{':
			depth++
		case ch == ')' || ch == ']' || ch == '}':
			depth--
		}
	}
	return depth
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 && !strings.ContainsAny(line[:i], `'"`) {
		return line[:i]
	}
	return line
}

func handleRepl(_ []string) int {
	fmt.Println(replBanner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetMultiLineMode(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := &session{opts: lower.DefaultOptions()}
	for {
		code, ok := readSnippet(ln)
		if !ok {
			fmt.Println()
			return 0
		}

		switch strings.TrimSpace(code) {
		case "":
			continue
		case ":quit", ":q":
			return 0
		case ":reset":
			s.reset()
			fmt.Println("session cleared")
			continue
		case ":source":
			fmt.Print(s.source.String())
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			fmt.Println("unknown command. Commands: :source :reset :quit")
			continue
		}

		res := s.eval(code)
		if res.Diagnostics.HasErrors() {
			fmt.Fprintln(os.Stderr, res.Diagnostics.Format("<repl>"))
			continue
		}
		printWarnings(res.Diagnostics, "<repl>")
		fmt.Print(res.CSource)
		if !strings.Contains(code, "\n") {
			ln.AppendHistory(code)
		}
	}
}

// readSnippet reads lines until the input is complete. It returns false
// at end of input.
func readSnippet(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(b.String()) {
			return b.String(), true
		}
	}
}
