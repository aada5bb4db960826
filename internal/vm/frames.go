package vm

import (
	"fmt"
	"io"

	"github.com/sunholo/ailang/internal/process"
)

// Frame is one entry of a call-frame trace, rendered when the VM hits
// a fatal condition (malformed bytecode, out-of-range opcode
// arguments). These paths must be unreachable from well-typed source.
type Frame struct {
	Name string
	File string
	Line int
}

// FrameTrace captures the process's context stack innermost-first.
func FrameTrace(p *process.Process) []Frame {
	var frames []Frame
	for i := p.Depth() - 1; i >= 0; i-- {
		ctx := p.ContextAt(i)
		if ctx == nil || ctx.Code == nil {
			continue
		}
		line := ctx.Code.Line
		if idx := ctx.InstructionIndex - 1; idx >= 0 && idx < len(ctx.Code.Instructions) {
			line = ctx.Code.Instructions[idx].Line
		}
		frames = append(frames, Frame{Name: ctx.Code.Name, File: ctx.Code.File, Line: line})
	}
	return frames
}

// WriteFrameTrace renders a trace in the innermost-first format the
// fatal-condition handler prints before exiting.
func WriteFrameTrace(w io.Writer, frames []Frame) {
	for _, f := range frames {
		name := f.Name
		if name == "" {
			name = "<block>"
		}
		fmt.Fprintf(w, "  %s (%s:%d)\n", name, f.File, f.Line)
	}
}

// fatalError carries a fatal-condition report up to the driver, which
// prints the trace and exits with a failure status.
type fatalError struct {
	Message string
	Frames  []Frame
}

func (e *fatalError) Error() string { return e.Message }

func newFatal(p *process.Process, format string, args ...interface{}) *fatalError {
	return &fatalError{Message: fmt.Sprintf(format, args...), Frames: FrameTrace(p)}
}
