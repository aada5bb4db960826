package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Presenter renders diagnostics to a writer, using color when the
// target is a terminal (mirroring existing fatih/color usage
// in internal/repl for interactive output).
type Presenter struct {
	Out io.Writer

	errorColor   *color.Color
	warningColor *color.Color
	noteColor    *color.Color
}

func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{
		Out:          out,
		errorColor:   color.New(color.FgRed, color.Bold),
		warningColor: color.New(color.FgYellow, color.Bold),
		noteColor:    color.New(color.FgCyan),
	}
}

func (p *Presenter) Present(d Diagnostic) {
	sev := p.colorFor(d.Severity).Sprint(d.Severity.String())
	fmt.Fprintf(p.Out, "%s: %s: %s [%s]\n", d.Location.String(), sev, d.Message, d.IDCode)
}

func (p *Presenter) PresentAll(ds []Diagnostic) {
	for _, d := range ds {
		p.Present(d)
	}
}

func (p *Presenter) colorFor(s Severity) *color.Color {
	switch s {
	case Error:
		return p.errorColor
	case Warning:
		return p.warningColor
	default:
		return p.noteColor
	}
}

// ExitCode maps diagnostics to the exit code policy: 0 for a
// clean run, 1 if any Error-severity diagnostic was produced.
func ExitCode(ds []Diagnostic) int {
	for _, d := range ds {
		if d.Severity == Error {
			return 1
		}
	}
	return 0
}
