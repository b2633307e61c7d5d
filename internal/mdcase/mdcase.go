// Package mdcase extracts golden lowering cases from Markdown documents.
//
// A case starts at a heading "Test: <name>" and holds one input fence
// (python or json) followed by assertion fences:
//
//	c         the emitted text must equal the fence content
//	contains  every non-blank line must occur in the emitted text
//	absent    no non-blank line may occur in the emitted text
//	warning   every non-blank line must occur in some warning
package mdcase

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType is the language of a case's input fence
type InputType string

const (
	InputPython InputType = "python"
	InputJSON   InputType = "json"
)

// AssertionType is the language of an assertion fence
type AssertionType string

const (
	AssertExact    AssertionType = "c"
	AssertContains AssertionType = "contains"
	AssertAbsent   AssertionType = "absent"
	AssertWarning  AssertionType = "warning"
)

// Assertion is one assertion fence
type Assertion struct {
	Type    AssertionType
	Content string
	Line    int
}

// Case is one golden case
type Case struct {
	Name       string
	Input      string
	InputType  InputType
	Assertions []Assertion
	Line       int
}

// Extract parses a Markdown document and returns its cases in order
func Extract(markdown string) ([]Case, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []Case
	var current *Case

	flush := func() error {
		if current == nil {
			return nil
		}
		if err := validate(current); err != nil {
			return err
		}
		cases = append(cases, *current)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkSkipChildren, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			current = &Case{
				Name: strings.TrimSpace(strings.TrimPrefix(heading, "Test: ")),
				Line: lineOf(n, source),
			}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			lang := string(n.Language(source))
			line := lineOf(n, source)
			content := blockContent(n, source)

			if current == nil {
				if lang != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence outside of a test case", line, lang)
				}
				return ast.WalkContinue, nil
			}

			switch {
			case isInput(lang):
				if current.InputType != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences in test '%s'", line, current.Name)
				}
				current.Input = content
				current.InputType = InputType(lang)
			case isAssertion(lang):
				current.Assertions = append(current.Assertions, Assertion{
					Type:    AssertionType(lang),
					Content: strings.TrimRight(content, "\n"),
					Line:    line,
				})
			case lang == "":
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, lang, current.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading cases: %w", err)
	}
	if err := flush(); err != nil {
		return nil, fmt.Errorf("reading cases: %w", err)
	}
	return cases, nil
}

// Check runs every assertion of the case against the emitted text and the
// warning messages and returns one error per failed assertion
func (c Case) Check(emitted string, warnings []string) []error {
	var failures []error
	for _, a := range c.Assertions {
		if err := a.Check(emitted, warnings); err != nil {
			failures = append(failures, err)
		}
	}
	return failures
}

// Check runs one assertion
func (a Assertion) Check(emitted string, warnings []string) error {
	switch a.Type {
	case AssertExact:
		want := strings.TrimRight(a.Content, "\n") + "\n"
		if emitted != want {
			return fmt.Errorf("line %d: emitted text differs\n--- want\n%s--- got\n%s", a.Line, want, emitted)
		}
	case AssertContains:
		for _, l := range lines(a.Content) {
			if !strings.Contains(emitted, l) {
				return fmt.Errorf("line %d: missing %q in\n%s", a.Line, l, emitted)
			}
		}
	case AssertAbsent:
		for _, l := range lines(a.Content) {
			if strings.Contains(emitted, l) {
				return fmt.Errorf("line %d: unexpected %q in\n%s", a.Line, l, emitted)
			}
		}
	case AssertWarning:
		for _, l := range lines(a.Content) {
			if !anyContains(warnings, l) {
				return fmt.Errorf("line %d: no warning mentions %q (got %q)", a.Line, l, warnings)
			}
		}
	default:
		return fmt.Errorf("line %d: unknown assertion %q", a.Line, a.Type)
	}
	return nil
}

func lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func anyContains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}

func isInput(lang string) bool {
	return lang == string(InputPython) || lang == string(InputJSON)
}

func isAssertion(lang string) bool {
	switch AssertionType(lang) {
	case AssertExact, AssertContains, AssertAbsent, AssertWarning:
		return true
	}
	return false
}

func validate(c *Case) error {
	if c.InputType == "" {
		return fmt.Errorf("test '%s' has no input fence", c.Name)
	}
	if len(c.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", c.Name)
	}
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func blockContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	segs := block.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func lineOf(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 0
	}
	return bytes.Count(source[:node.Lines().At(0).Start], []byte("\n")) + 1
}
