// Package diag defines the structured Diagnostic type shared by the
// parser, validator and executor (spec §4.9), and the stable code tables
// for MQL-SYN-####, MQL-SEM-#### and MQL-RUN-#### (spec §6, §7).
//
// Diagnostics are data, never out-of-band panics: parser.Parse returns
// (*ast.Query, []Diagnostic) and validator.Validate returns []Diagnostic, so
// the linter is literally "parse+validate and collect diagnostics" (spec
// §9 "Diagnostics as data").
package diag

import (
	"fmt"
	"strings"

	"github.com/darhnoel/markql-sub000/internal/lexer"
)

// Severity of a Diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "WARN"
	}
	return "ERROR"
}

// Span is a half-open byte range into the original source text.
type Span struct {
	Start int
	End   int
}

// Diagnostic is a single structured error or warning.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Help     string   `json:"help,omitempty"`
	DocRef   string   `json:"doc_ref,omitempty"`
	Span     Span     `json:"span"`
	Snippet  string   `json:"snippet,omitempty"`
	Related  []string `json:"related,omitempty"`
}

func docRef(code string) string {
	return "https://markql.dev/docs/diagnostics/" + code
}

// New builds a Diagnostic, computing its caret snippet from src.
func New(sev Severity, code, message, help string, span Span, src string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  message,
		Help:     help,
		DocRef:   docRef(code),
		Span:     span,
		Snippet:  snippet(src, span),
	}
}

// snippet renders a one-line source excerpt with a caret under span.Start.
func snippet(src string, span Span) string {
	if src == "" {
		return ""
	}
	line, col := lexer.LineCol(src, span.Start)

	lineStart := strings.LastIndex(src[:min(span.Start, len(src))], "\n") + 1
	lineEnd := strings.IndexByte(src[lineStart:], '\n')
	if lineEnd < 0 {
		lineEnd = len(src)
	} else {
		lineEnd += lineStart
	}
	lineText := src[lineStart:lineEnd]

	width := span.End - span.Start
	if width < 1 {
		width = 1
	}
	caret := strings.Repeat(" ", col-1) + strings.Repeat("^", width)
	return fmt.Sprintf("line %d:%d\n%s\n%s", line, col, lineText, caret)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Text renders a single diagnostic in the stable text form:
// "SEV[CODE]: message" followed by the caret frame, related notes and a
// trailing "help:" line.
func (d Diagnostic) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]: %s\n", d.Severity, d.Code, d.Message)
	if d.Snippet != "" {
		b.WriteString(d.Snippet)
		b.WriteString("\n")
	}
	for _, r := range d.Related {
		fmt.Fprintf(&b, "note: %s\n", r)
	}
	if d.Help != "" {
		fmt.Fprintf(&b, "help: %s\n", d.Help)
	}
	return b.String()
}

// RenderText renders a list of diagnostics as the CLI's text output.
func RenderText(diags []Diagnostic) string {
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(d.Text())
	}
	return b.String()
}
