// Package diag is the diagnostics sink every static-error-producing pass
// writes to (HIR passes, the type checker's callers, the pattern-match
// compiler). Diagnostics never abort a pass outright; compilation
// continues where safely possible so a single run reports as many
// problems as it can.
package diag

import "fmt"

// ID is a closed set of diagnostic identifiers.
type ID string

const (
	InvalidSyntax         ID = "InvalidSyntax"
	InvalidType           ID = "InvalidType"
	InvalidSymbol         ID = "InvalidSymbol"
	DuplicateSymbol       ID = "DuplicateSymbol"
	MissingTrait          ID = "MissingTrait"
	InvalidImplementation ID = "InvalidImplementation"
	NonExhaustiveMatch    ID = "NonExhaustiveMatch"
	FieldLimitExceeded    ID = "FieldLimitExceeded"
	VariantLimitExceeded  ID = "VariantLimitExceeded"
)

type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	}
	return "?"
}

// Location mirrors the external lexer's SourceLocation: inclusive line
// and column ranges.
type Location struct {
	File        string
	StartLine   int
	EndLine     int
	StartColumn int
	EndColumn   int
}

func (l Location) String() string {
	if l.StartLine == l.EndLine {
		return fmt.Sprintf("%s:%d:%d-%d", l.File, l.StartLine, l.StartColumn, l.EndColumn)
	}
	return fmt.Sprintf("%s:%d:%d-%d:%d", l.File, l.StartLine, l.StartColumn, l.EndLine, l.EndColumn)
}

// Diagnostic is one reported issue.
type Diagnostic struct {
	IDCode   ID
	Severity Severity
	File     string
	Location Location
	Message  string
}

// Sink collects diagnostics across passes. Not safe for concurrent
// writes from multiple goroutines without external synchronization;
// the HIR pipeline runs one pass at a time so a bare slice suffices.
type Sink struct {
	items []Diagnostic
}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) Report(d Diagnostic) {
	s.items = append(s.items, d)
}

func (s *Sink) Errorf(id ID, loc Location, format string, args ...interface{}) {
	s.Report(Diagnostic{IDCode: id, Severity: Error, File: loc.File, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any Error-severity diagnostic was reported.
// The HIR pipeline halts at the first pass for which this is true.
func (s *Sink) HasErrors() bool {
	for _, d := range s.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

func (s *Sink) All() []Diagnostic { return append([]Diagnostic(nil), s.items...) }

func (s *Sink) Reset() { s.items = nil }
