// Package diag defines compiler diagnostics and their human-readable
// rendering, shared across every pipeline stage.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/qclabs/qcl/token"
)

// Kind names a diagnostic's taxonomy bucket (§7 of the language design).
type Kind string

const (
	LexError      Kind = "LexError"
	ParseError    Kind = "ParseError"
	TypeError     Kind = "TypeError"
	AffineError   Kind = "AffineError"
	IRBuildError  Kind = "IRBuildError"
	IRVerifyError Kind = "IRVerifyError"
	SimError      Kind = "SimError"
)

// Severity distinguishes errors (which fail compilation) from warnings
// (which never do).
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is one compiler-reported issue with an optional hint.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Message  string
	Hint     string
	Span     token.Span
}

func (d Diagnostic) IsError() bool { return d.Severity == SeverityError }

// Render formats a diagnostic as "line:col: message", an optional
// "  hint: …" line, and — when source is provided — the offending source
// line with a caret under the column.
func (d Diagnostic) Render(source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d:%d: %s", d.Span.Line, d.Span.Column, d.Message)
	if d.Hint != "" {
		fmt.Fprintf(&b, "\n  hint: %s", d.Hint)
	}
	if source != "" {
		if line, ok := sourceLine(source, d.Span.Line); ok {
			b.WriteByte('\n')
			b.WriteString(line)
			b.WriteByte('\n')
			col := d.Span.Column
			if col < 1 {
				col = 1
			}
			b.WriteString(strings.Repeat(" ", col-1))
			b.WriteByte('^')
		}
	}
	return b.String()
}

func sourceLine(source string, n int) (string, bool) {
	lines := strings.Split(source, "\n")
	if n < 1 || n > len(lines) {
		return "", false
	}
	return lines[n-1], true
}

// List is a collection of diagnostics, printed in source order.
type List []Diagnostic

// HasErrors reports whether any diagnostic in the list is an error.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Errors filters the list down to error-severity diagnostics.
func (l List) Errors() List {
	out := make(List, 0, len(l))
	for _, d := range l {
		if d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

// Warnings filters the list down to warning-severity diagnostics.
func (l List) Warnings() List {
	out := make(List, 0, len(l))
	for _, d := range l {
		if !d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

func (l List) Error() string {
	sorted := append(List(nil), l...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Span.Line != sorted[j].Span.Line {
			return sorted[i].Span.Line < sorted[j].Span.Line
		}
		return sorted[i].Span.Column < sorted[j].Span.Column
	})
	parts := make([]string, len(sorted))
	for i, d := range sorted {
		parts[i] = fmt.Sprintf("%d:%d: %s", d.Span.Line, d.Span.Column, d.Message)
	}
	return strings.Join(parts, "\n")
}
