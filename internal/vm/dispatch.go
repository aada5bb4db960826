package vm

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sunholo/ailang/internal/bytecode"
	"github.com/sunholo/ailang/internal/heap"
	"github.com/sunholo/ailang/internal/process"
)

// Outcome reports why RunUntilSuspend returned, so the pool worker
// knows whether to resubmit the process, hand it to the GC pool, or
// drop it.
type Outcome int

const (
	OutcomeFinished Outcome = iota
	OutcomeReductionsExhausted
	OutcomeAwaitingMessage
	OutcomeNeedsGC
	OutcomeThrewUnhandled
	OutcomeFatal
)

// RunUntilSuspend drives one process's dispatch loop until it
// finishes, exhausts its reduction budget, blocks on an empty mailbox,
// or crosses a GC safepoint. A non-nil error is a fatal condition
// (malformed bytecode, out-of-range register); these are bugs in the
// emitter, never reachable from well-typed source.
func (v *VM) RunUntilSuspend(p *process.Process) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomeFatal
			err = newFatal(p, "fatal VM condition: %v", r)
		}
	}()

	p.SetStatus(process.StatusRunning)
	for {
		ctx := p.Current()
		if ctx == nil {
			p.SetStatus(process.StatusFinished)
			return OutcomeFinished, nil
		}

		in, ok := ctx.Fetch()
		if !ok {
			p.PopContext()
			if out, done := v.afterContextExit(p); done {
				return out, nil
			}
			continue
		}

		switch in.Op {
		// Register/literal moves.
		case bytecode.OpSetInt:
			ctx.SetRegister(in.Arg0, heap.TaggedInt(int64(in.Arg1)))
		case bytecode.OpSetFloat:
			ctx.SetRegister(in.Arg0, boxFloat(p, ctx.Code.Literals.FloatAt(in.Arg1)))
		case bytecode.OpSetString:
			ctx.SetRegister(in.Arg0, boxString(p, ctx.Code.Literals.StringAt(in.Arg1)))
		case bytecode.OpSetBool:
			ctx.SetRegister(in.Arg0, heap.TaggedInt(int64(in.Arg1&1)))
		case bytecode.OpSetNil:
			ctx.SetRegister(in.Arg0, heap.ObjectPointer{})
		case bytecode.OpSetBlock:
			code := codeFromCache(ctx, in)
			var captured *process.Binding
			if code.Captures {
				captured = ctx.Binding
			}
			ctx.SetRegister(in.Arg0, boxBlock(p, code, captured))
		case bytecode.OpMoveRegister:
			ctx.SetRegister(in.Arg0, ctx.GetRegister(in.Arg1))
		case bytecode.OpSetLocal:
			ctx.SetLocal(in.Arg0, ctx.GetRegister(in.Arg1))
		case bytecode.OpGetLocal:
			ctx.SetRegister(in.Arg0, ctx.GetLocal(in.Arg1))
		case bytecode.OpSetGlobal:
			p.SetGlobal(in.Arg0, ctx.GetRegister(in.Arg1))
		case bytecode.OpGetGlobal:
			ctx.SetRegister(in.Arg0, p.GetGlobal(in.Arg1))
		case bytecode.OpSetModuleGlobal:
			ctx.Module.SetGlobal(in.Arg0, ctx.GetRegister(in.Arg1))
		case bytecode.OpGetModuleGlobal:
			if g, ok := ctx.Module.GetGlobal(in.Arg1).(heap.ObjectPointer); ok {
				ctx.SetRegister(in.Arg0, g)
			} else {
				ctx.SetRegister(in.Arg0, heap.ObjectPointer{})
			}

		// Integer arithmetic & comparison.
		case bytecode.OpIntAdd:
			if !v.binaryIntOp(p, ctx, in, func(a, b int64) (int64, bool) { return a + b, true }) {
				return OutcomeThrewUnhandled, nil
			}
		case bytecode.OpIntSub:
			if !v.binaryIntOp(p, ctx, in, func(a, b int64) (int64, bool) { return a - b, true }) {
				return OutcomeThrewUnhandled, nil
			}
		case bytecode.OpIntMul:
			if !v.binaryIntOp(p, ctx, in, func(a, b int64) (int64, bool) { return a * b, true }) {
				return OutcomeThrewUnhandled, nil
			}
		case bytecode.OpIntDiv:
			if !v.binaryIntOp(p, ctx, in, func(a, b int64) (int64, bool) {
				if b == 0 {
					return 0, false
				}
				return a / b, true
			}) {
				return OutcomeThrewUnhandled, nil
			}
		case bytecode.OpIntMod:
			if !v.binaryIntOp(p, ctx, in, func(a, b int64) (int64, bool) {
				if b == 0 {
					return 0, false
				}
				return a % b, true
			}) {
				return OutcomeThrewUnhandled, nil
			}
		case bytecode.OpIntLt:
			if !v.compareIntOp(p, ctx, in, func(a, b int64) bool { return a < b }) {
				return OutcomeThrewUnhandled, nil
			}
		case bytecode.OpIntGt:
			if !v.compareIntOp(p, ctx, in, func(a, b int64) bool { return a > b }) {
				return OutcomeThrewUnhandled, nil
			}
		case bytecode.OpIntEq:
			if !v.compareIntOp(p, ctx, in, func(a, b int64) bool { return a == b }) {
				return OutcomeThrewUnhandled, nil
			}

		// Float arithmetic & comparison.
		case bytecode.OpFloatAdd:
			if !v.binaryFloatOp(p, ctx, in, func(a, b float64) float64 { return a + b }) {
				return OutcomeThrewUnhandled, nil
			}
		case bytecode.OpFloatSub:
			if !v.binaryFloatOp(p, ctx, in, func(a, b float64) float64 { return a - b }) {
				return OutcomeThrewUnhandled, nil
			}
		case bytecode.OpFloatMul:
			if !v.binaryFloatOp(p, ctx, in, func(a, b float64) float64 { return a * b }) {
				return OutcomeThrewUnhandled, nil
			}
		case bytecode.OpFloatDiv:
			if !v.binaryFloatOp(p, ctx, in, func(a, b float64) float64 { return a / b }) {
				return OutcomeThrewUnhandled, nil
			}
		case bytecode.OpFloatLt:
			if !v.compareFloatOp(p, ctx, in, func(a, b float64) bool { return a < b }) {
				return OutcomeThrewUnhandled, nil
			}
		case bytecode.OpFloatGt:
			if !v.compareFloatOp(p, ctx, in, func(a, b float64) bool { return a > b }) {
				return OutcomeThrewUnhandled, nil
			}
		case bytecode.OpFloatEq:
			if !v.compareFloatOp(p, ctx, in, func(a, b float64) bool { return a == b }) {
				return OutcomeThrewUnhandled, nil
			}

		// Array/string.
		case bytecode.OpArrayInsert, bytecode.OpArrayAt, bytecode.OpArrayRemove,
			bytecode.OpArrayLength, bytecode.OpArrayClear,
			bytecode.OpStringToBytes, bytecode.OpBytesToString,
			bytecode.OpStringLower, bytecode.OpStringUpper,
			bytecode.OpStringLength, bytecode.OpStringSize:
			if !v.arrayStringOp(p, ctx, in) {
				return OutcomeThrewUnhandled, nil
			}

		// IO.
		case bytecode.OpStdinRead, bytecode.OpStdoutWrite, bytecode.OpStderrWrite,
			bytecode.OpFileOpen, bytecode.OpFileRead, bytecode.OpFileReadLine,
			bytecode.OpFileReadExact, bytecode.OpFileWrite, bytecode.OpFileSeek,
			bytecode.OpFileFlush, bytecode.OpFileSize:
			if !v.ioOp(p, ctx, in) {
				return OutcomeThrewUnhandled, nil
			}

		// Control flow.
		case bytecode.OpGoto:
			ctx.InstructionIndex = in.Arg0
		case bytecode.OpGotoIfTrue:
			if truthy(ctx.GetRegister(in.Arg0)) {
				ctx.InstructionIndex = in.Arg1
			}
		case bytecode.OpGotoIfFalse:
			if !truthy(ctx.GetRegister(in.Arg0)) {
				ctx.InstructionIndex = in.Arg1
			}
		case bytecode.OpReturn:
			v.doReturn(p, ctx, in)
			if out, done := v.afterContextExit(p); done {
				return out, nil
			}
			continue
		case bytecode.OpThrow:
			if !v.throwValue(p, ctx.GetRegister(in.Arg0)) {
				p.SetStatus(process.StatusFinished)
				return OutcomeThrewUnhandled, nil
			}
			continue
		case bytecode.OpRunBlock:
			if !v.doRunBlock(p, ctx, in) {
				return OutcomeThrewUnhandled, nil
			}
			continue
		case bytecode.OpTailCall:
			if !v.doTailCall(p, ctx, in) {
				return OutcomeThrewUnhandled, nil
			}
			continue
		case bytecode.OpSendMessage:
			if !v.doSendMessage(p, ctx, in) {
				return OutcomeThrewUnhandled, nil
			}
			continue
		case bytecode.OpLoadModule:
			v.doLoadModule(p, ctx, in)
			continue

		// Object model.
		case bytecode.OpSetAttribute, bytecode.OpGetAttribute, bytecode.OpHasAttribute,
			bytecode.OpRemoveAttribute, bytecode.OpGetPrototype, bytecode.OpSetPrototype,
			bytecode.OpGetAttributeNames, bytecode.OpRespondsTo, bytecode.OpObjectEquals,
			bytecode.OpCaptureBinding:
			if !v.objectOp(p, ctx, in) {
				return OutcomeThrewUnhandled, nil
			}

		// Process primitives.
		case bytecode.OpSpawnProcess:
			if !v.doSpawnProcess(p, ctx, in) {
				return OutcomeThrewUnhandled, nil
			}
		case bytecode.OpSendProcessMessage:
			v.sendProcessMessage(ctx, in)
		case bytecode.OpReceiveProcessMessage:
			msg, ok := p.Mailbox.Receive()
			if !ok {
				ctx.Rewind()
				p.SetStatus(process.StatusAwaitingMessage)
				return OutcomeAwaitingMessage, nil
			}
			ctx.SetRegister(in.Arg0, msg)
		case bytecode.OpGetCurrentPid:
			ctx.SetRegister(in.Arg0, heap.TaggedInt(int64(p.Pid.Index)))

		// Time.
		case bytecode.OpMonotonicNanos:
			ctx.SetRegister(in.Arg0, heap.TaggedInt(time.Since(v.startTime).Nanoseconds()))
		case bytecode.OpMonotonicMillis:
			ctx.SetRegister(in.Arg0, heap.TaggedInt(time.Since(v.startTime).Milliseconds()))

		default:
			return OutcomeFatal, newFatal(p, "opcode %d is not part of the instruction set", in.Op)
		}

		if p.ReductionsExhausted() {
			p.ResetReductions()
			p.SetStatus(process.StatusSuspended)
			return OutcomeReductionsExhausted, nil
		}
	}
}

// afterContextExit runs the per-pop bookkeeping: the GC safepoint and
// the reduction check. done=true means the caller must return out.
func (v *VM) afterContextExit(p *process.Process) (Outcome, bool) {
	if p.Depth() == 0 {
		return 0, false // outer loop reports OutcomeFinished
	}
	if p.NeedsGC(v.Config.YoungThreshold, v.Config.MailboxThreshold()) {
		p.SetStatus(process.StatusSuspendedForGC)
		return OutcomeNeedsGC, true
	}
	if p.ReductionsExhausted() {
		p.ResetReductions()
		p.SetStatus(process.StatusSuspended)
		return OutcomeReductionsExhausted, true
	}
	return 0, false
}

// codeFromCache resolves a nested code block referenced by an
// instruction's literal-pool index.
func codeFromCache(ctx *process.ExecutionContext, in bytecode.Instruction) *bytecode.CompiledCode {
	if ctx.Code.Literals != nil {
		return ctx.Code.Literals.CodeAt(in.Arg1)
	}
	return ctx.Code.CodeObjects[in.Arg1]
}

// sendProcessMessage implements the SendProcessMessage opcode:
// per-sender FIFO is automatic since each sender calls this
// sequentially and Mailbox.Send appends under its own mutex. A target
// parked on an empty mailbox is woken and requeued onto its pool.
func (v *VM) sendProcessMessage(ctx *process.ExecutionContext, in bytecode.Instruction) {
	target, ok := v.Registry.Get(process.Pid{Index: uint64(ctx.GetRegister(in.Arg0).IntegerValue())})
	if !ok {
		return
	}
	target.Mailbox.Send(ctx.GetRegister(in.Arg1))
	if target.Status() == process.StatusAwaitingMessage {
		target.SetStatus(process.StatusSuspended)
		v.poolByName(target.Pool).Submit(target)
	}
}

// throwValue walks the context stack from innermost to outermost
// looking for a catch entry covering the throw site; returns false if
// the stack is exhausted unhandled.
func (v *VM) throwValue(p *process.Process, value heap.ObjectPointer) bool {
	for {
		ctx := p.Current()
		if ctx == nil {
			return false
		}
		if entry, ok := ctx.Code.HandlerFor(ctx.InstructionIndex - 1); ok {
			ctx.InstructionIndex = entry.JumpTo
			ctx.SetRegister(entry.Register, value)
			return true
		}
		if _, ok := p.PopContext(); !ok {
			return false
		}
	}
}

// raiseCode throws a small-integer error value, the shape IO opcodes
// use for OS failures.
func (v *VM) raiseCode(p *process.Process, code int64) bool {
	return v.throwValue(p, heap.TaggedInt(code))
}

// raiseMessage throws a boxed string, used for type-mismatch errors in
// arithmetic and collection opcodes.
func (v *VM) raiseMessage(p *process.Process, msg string) bool {
	return v.throwValue(p, boxString(p, msg))
}

func (v *VM) binaryIntOp(p *process.Process, ctx *process.ExecutionContext, in bytecode.Instruction, f func(a, b int64) (int64, bool)) bool {
	a, okA := asInt(ctx.GetRegister(in.Arg1))
	b, okB := asInt(ctx.GetRegister(in.Arg2))
	if !okA || !okB {
		return v.raiseMessage(p, "integer operation on a non-integer value")
	}
	result, ok := f(a, b)
	if !ok {
		return v.raiseMessage(p, "division by zero")
	}
	ctx.SetRegister(in.Arg0, heap.TaggedInt(result))
	return true
}

func (v *VM) compareIntOp(p *process.Process, ctx *process.ExecutionContext, in bytecode.Instruction, f func(a, b int64) bool) bool {
	a, okA := asInt(ctx.GetRegister(in.Arg1))
	b, okB := asInt(ctx.GetRegister(in.Arg2))
	if !okA || !okB {
		return v.raiseMessage(p, "integer comparison on a non-integer value")
	}
	ctx.SetRegister(in.Arg0, boolResult(f(a, b)))
	return true
}

func (v *VM) binaryFloatOp(p *process.Process, ctx *process.ExecutionContext, in bytecode.Instruction, f func(a, b float64) float64) bool {
	a, okA := asFloat(ctx.GetRegister(in.Arg1))
	b, okB := asFloat(ctx.GetRegister(in.Arg2))
	if !okA || !okB {
		return v.raiseMessage(p, "float operation on a non-float value")
	}
	ctx.SetRegister(in.Arg0, boxFloat(p, f(a, b)))
	return true
}

func (v *VM) compareFloatOp(p *process.Process, ctx *process.ExecutionContext, in bytecode.Instruction, f func(a, b float64) bool) bool {
	a, okA := asFloat(ctx.GetRegister(in.Arg1))
	b, okB := asFloat(ctx.GetRegister(in.Arg2))
	if !okA || !okB {
		return v.raiseMessage(p, "float comparison on a non-float value")
	}
	ctx.SetRegister(in.Arg0, boolResult(f(a, b)))
	return true
}

func boolResult(b bool) heap.ObjectPointer {
	if b {
		return heap.TaggedInt(1)
	}
	return heap.TaggedInt(0)
}

// arrayStringOp covers the array/string opcode family.
func (v *VM) arrayStringOp(p *process.Process, ctx *process.ExecutionContext, in bytecode.Instruction) bool {
	switch in.Op {
	case bytecode.OpArrayInsert:
		obj, elems, ok := asArrayObject(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseMessage(p, "array operation on a non-array value")
		}
		idx, okIdx := asInt(ctx.GetRegister(in.Arg2))
		if !okIdx || idx < 0 || idx > int64(len(elems)) {
			return v.raiseMessage(p, "array index out of bounds")
		}
		val := ctx.GetRegister(in.Arg3)
		elems = append(elems, heap.ObjectPointer{})
		copy(elems[idx+1:], elems[idx:])
		elems[idx] = val
		obj.Value = elems
		ctx.SetRegister(in.Arg0, val)

	case bytecode.OpArrayAt:
		_, elems, ok := asArrayObject(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseMessage(p, "array operation on a non-array value")
		}
		idx, okIdx := asInt(ctx.GetRegister(in.Arg2))
		if !okIdx || idx < 0 || idx >= int64(len(elems)) {
			return v.raiseMessage(p, "array index out of bounds")
		}
		ctx.SetRegister(in.Arg0, elems[idx])

	case bytecode.OpArrayRemove:
		obj, elems, ok := asArrayObject(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseMessage(p, "array operation on a non-array value")
		}
		idx, okIdx := asInt(ctx.GetRegister(in.Arg2))
		if !okIdx || idx < 0 || idx >= int64(len(elems)) {
			return v.raiseMessage(p, "array index out of bounds")
		}
		removed := elems[idx]
		obj.Value = append(elems[:idx], elems[idx+1:]...)
		ctx.SetRegister(in.Arg0, removed)

	case bytecode.OpArrayLength:
		_, elems, ok := asArrayObject(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseMessage(p, "array operation on a non-array value")
		}
		ctx.SetRegister(in.Arg0, heap.TaggedInt(int64(len(elems))))

	case bytecode.OpArrayClear:
		obj, _, ok := asArrayObject(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseMessage(p, "array operation on a non-array value")
		}
		obj.Value = []heap.ObjectPointer{}
		ctx.SetRegister(in.Arg0, ctx.GetRegister(in.Arg1))

	case bytecode.OpStringToBytes:
		s, ok := asString(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseMessage(p, "string operation on a non-string value")
		}
		ctx.SetRegister(in.Arg0, boxBytes(p, []byte(s)))

	case bytecode.OpBytesToString:
		b, ok := asBytes(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseMessage(p, "bytes operation on a non-bytes value")
		}
		ctx.SetRegister(in.Arg0, boxString(p, string(b)))

	case bytecode.OpStringLower:
		s, ok := asString(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseMessage(p, "string operation on a non-string value")
		}
		ctx.SetRegister(in.Arg0, boxString(p, strings.ToLower(s)))

	case bytecode.OpStringUpper:
		s, ok := asString(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseMessage(p, "string operation on a non-string value")
		}
		ctx.SetRegister(in.Arg0, boxString(p, strings.ToUpper(s)))

	case bytecode.OpStringLength:
		s, ok := asString(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseMessage(p, "string operation on a non-string value")
		}
		ctx.SetRegister(in.Arg0, heap.TaggedInt(int64(len([]rune(s)))))

	case bytecode.OpStringSize:
		s, ok := asString(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseMessage(p, "string operation on a non-string value")
		}
		ctx.SetRegister(in.Arg0, heap.TaggedInt(int64(len(s))))
	}
	return true
}

// fileOpenFlags maps the bounded mode enum onto os.OpenFile flags.
func fileOpenFlags(mode bytecode.FileMode) (int, bool) {
	switch mode {
	case bytecode.FileReadOnly:
		return os.O_RDONLY, true
	case bytecode.FileWriteOnly:
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, true
	case bytecode.FileAppend:
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, true
	case bytecode.FileReadWrite:
		return os.O_RDWR | os.O_CREATE, true
	case bytecode.FileReadAppend:
		return os.O_RDWR | os.O_CREATE | os.O_APPEND, true
	default:
		return 0, false
	}
}

// ioOp covers the IO opcode family. Failures throw the stable integer
// code derived from the OS error, which handlers can catch and
// inspect.
func (v *VM) ioOp(p *process.Process, ctx *process.ExecutionContext, in bytecode.Instruction) bool {
	switch in.Op {
	case bytecode.OpStdinRead:
		data, err := io.ReadAll(v.Stdin)
		if err != nil {
			return v.raiseCode(p, ioErrorCode(err))
		}
		ctx.SetRegister(in.Arg0, boxString(p, string(data)))

	case bytecode.OpStdoutWrite:
		return v.writeStream(p, ctx, in, v.Stdout)

	case bytecode.OpStderrWrite:
		return v.writeStream(p, ctx, in, v.Stderr)

	case bytecode.OpFileOpen:
		path, okPath := asString(ctx.GetRegister(in.Arg1))
		modeVal, okMode := asInt(ctx.GetRegister(in.Arg2))
		if !okPath || !okMode {
			return v.raiseCode(p, ioErrorInvalidInput)
		}
		mode := bytecode.FileMode(modeVal)
		flags, okFlags := fileOpenFlags(mode)
		if !okFlags {
			return v.raiseCode(p, ioErrorInvalidInput)
		}
		f, err := os.OpenFile(path, flags, 0o644)
		if err != nil {
			return v.raiseCode(p, ioErrorCode(err))
		}
		ctx.SetRegister(in.Arg0, boxFile(p, f, mode))

	case bytecode.OpFileRead:
		fv, ok := asFile(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseCode(p, ioErrorInvalidInput)
		}
		data, err := io.ReadAll(fv.File)
		if err != nil {
			return v.raiseCode(p, ioErrorCode(err))
		}
		ctx.SetRegister(in.Arg0, boxString(p, string(data)))

	case bytecode.OpFileReadLine:
		fv, ok := asFile(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseCode(p, ioErrorInvalidInput)
		}
		line, err := bufio.NewReader(fv.File).ReadString('\n')
		if err != nil && err != io.EOF {
			return v.raiseCode(p, ioErrorCode(err))
		}
		ctx.SetRegister(in.Arg0, boxString(p, line))

	case bytecode.OpFileReadExact:
		fv, okFile := asFile(ctx.GetRegister(in.Arg1))
		n, okN := asInt(ctx.GetRegister(in.Arg2))
		if !okFile || !okN || n < 0 {
			return v.raiseCode(p, ioErrorInvalidInput)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(fv.File, buf); err != nil {
			return v.raiseCode(p, ioErrorCode(err))
		}
		ctx.SetRegister(in.Arg0, boxBytes(p, buf))

	case bytecode.OpFileWrite:
		fv, ok := asFile(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseCode(p, ioErrorInvalidInput)
		}
		data, okData := writableBytes(ctx.GetRegister(in.Arg2))
		if !okData {
			return v.raiseCode(p, ioErrorInvalidInput)
		}
		n, err := fv.File.Write(data)
		if err != nil {
			return v.raiseCode(p, ioErrorCode(err))
		}
		ctx.SetRegister(in.Arg0, heap.TaggedInt(int64(n)))

	case bytecode.OpFileSeek:
		fv, okFile := asFile(ctx.GetRegister(in.Arg1))
		offset, okOff := asInt(ctx.GetRegister(in.Arg2))
		if !okFile || !okOff {
			return v.raiseCode(p, ioErrorInvalidInput)
		}
		pos, err := fv.File.Seek(offset, io.SeekStart)
		if err != nil {
			return v.raiseCode(p, ioErrorCode(err))
		}
		ctx.SetRegister(in.Arg0, heap.TaggedInt(pos))

	case bytecode.OpFileFlush:
		fv, ok := asFile(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseCode(p, ioErrorInvalidInput)
		}
		if err := fv.File.Sync(); err != nil {
			return v.raiseCode(p, ioErrorCode(err))
		}
		ctx.SetRegister(in.Arg0, heap.ObjectPointer{})

	case bytecode.OpFileSize:
		fv, ok := asFile(ctx.GetRegister(in.Arg1))
		if !ok {
			return v.raiseCode(p, ioErrorInvalidInput)
		}
		info, err := fv.File.Stat()
		if err != nil {
			return v.raiseCode(p, ioErrorCode(err))
		}
		ctx.SetRegister(in.Arg0, heap.TaggedInt(info.Size()))
	}
	return true
}

func (v *VM) writeStream(p *process.Process, ctx *process.ExecutionContext, in bytecode.Instruction, w io.Writer) bool {
	data, ok := writableBytes(ctx.GetRegister(in.Arg1))
	if !ok {
		return v.raiseCode(p, ioErrorInvalidInput)
	}
	n, err := w.Write(data)
	if err != nil {
		return v.raiseCode(p, ioErrorCode(err))
	}
	ctx.SetRegister(in.Arg0, heap.TaggedInt(int64(n)))
	return true
}

func writableBytes(ptr heap.ObjectPointer) ([]byte, bool) {
	if s, ok := asString(ptr); ok {
		return []byte(s), true
	}
	if b, ok := asBytes(ptr); ok {
		return b, true
	}
	return nil, false
}

// objectOp covers the object-model opcode family.
func (v *VM) objectOp(p *process.Process, ctx *process.ExecutionContext, in bytecode.Instruction) bool {
	attrName := func(reg int) (string, bool) {
		return asString(ctx.GetRegister(reg))
	}

	switch in.Op {
	case bytecode.OpSetAttribute:
		obj := ctx.GetRegister(in.Arg1).Object()
		name, okName := attrName(in.Arg2)
		if obj == nil || !okName {
			return v.raiseMessage(p, "attribute assignment on a non-object value")
		}
		val := ctx.GetRegister(in.Arg3)
		obj.Attrs[name] = val
		ctx.SetRegister(in.Arg0, val)

	case bytecode.OpGetAttribute:
		obj := ctx.GetRegister(in.Arg1).Object()
		name, okName := attrName(in.Arg2)
		if obj == nil || !okName {
			return v.raiseMessage(p, "attribute access on a non-object value")
		}
		ctx.SetRegister(in.Arg0, obj.Attrs[name])

	case bytecode.OpHasAttribute:
		obj := ctx.GetRegister(in.Arg1).Object()
		name, okName := attrName(in.Arg2)
		if obj == nil || !okName {
			return v.raiseMessage(p, "attribute access on a non-object value")
		}
		_, has := obj.Attrs[name]
		ctx.SetRegister(in.Arg0, boolResult(has))

	case bytecode.OpRemoveAttribute:
		obj := ctx.GetRegister(in.Arg1).Object()
		name, okName := attrName(in.Arg2)
		if obj == nil || !okName {
			return v.raiseMessage(p, "attribute access on a non-object value")
		}
		removed := obj.Attrs[name]
		delete(obj.Attrs, name)
		ctx.SetRegister(in.Arg0, removed)

	case bytecode.OpGetPrototype:
		obj := ctx.GetRegister(in.Arg1).Object()
		if obj == nil {
			return v.raiseMessage(p, "prototype access on a non-object value")
		}
		ctx.SetRegister(in.Arg0, obj.Prototype)

	case bytecode.OpSetPrototype:
		obj := ctx.GetRegister(in.Arg1).Object()
		if obj == nil {
			return v.raiseMessage(p, "prototype assignment on a non-object value")
		}
		obj.Prototype = ctx.GetRegister(in.Arg2)
		ctx.SetRegister(in.Arg0, ctx.GetRegister(in.Arg2))

	case bytecode.OpGetAttributeNames:
		obj := ctx.GetRegister(in.Arg1).Object()
		if obj == nil {
			return v.raiseMessage(p, "attribute access on a non-object value")
		}
		names := make([]string, 0, len(obj.Attrs))
		for name := range obj.Attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		elems := make([]heap.ObjectPointer, len(names))
		for i, name := range names {
			elems[i] = boxString(p, name)
		}
		ctx.SetRegister(in.Arg0, boxArray(p, elems))

	case bytecode.OpRespondsTo:
		obj := ctx.GetRegister(in.Arg1).Object()
		name, okName := attrName(in.Arg2)
		if obj == nil || !okName {
			ctx.SetRegister(in.Arg0, boolResult(false))
			return true
		}
		// An object responds to a message when the attribute (or its
		// prototype chain's) holds a runnable block.
		responds := false
		for cur := obj; cur != nil; cur = cur.Prototype.Object() {
			if attr, has := cur.Attrs[name]; has {
				_, responds = asBlock(attr)
				break
			}
		}
		ctx.SetRegister(in.Arg0, boolResult(responds))

	case bytecode.OpObjectEquals:
		a := ctx.GetRegister(in.Arg1)
		b := ctx.GetRegister(in.Arg2)
		equal := false
		switch {
		case a.IsInteger() && b.IsInteger():
			equal = a.IntegerValue() == b.IntegerValue()
		case !a.IsInteger() && !b.IsInteger():
			equal = a.Object() == b.Object()
		}
		ctx.SetRegister(in.Arg0, boolResult(equal))

	case bytecode.OpCaptureBinding:
		ctx.SetRegister(in.Arg0, box(p, ctx.Binding))
	}
	return true
}

// doReturn pops the current context and writes its value to the
// caller's assigned register. A block return (ReturnKind ==
// ReturnFromBlock) instead unwinds every context up to the one whose
// binding matches the capturing block's own binding.
func (v *VM) doReturn(p *process.Process, ctx *process.ExecutionContext, in bytecode.Instruction) {
	value := ctx.GetRegister(in.Arg1)
	kind := bytecode.ReturnKind(in.Arg2)

	if kind == bytecode.ReturnFromBlock {
		target := ctx.CapturedBinding
		for {
			popped, ok := p.PopContext()
			if !ok {
				return
			}
			if popped.Binding == target {
				break
			}
		}
	} else {
		p.PopContext()
	}

	if caller := p.Current(); caller != nil {
		caller.SetRegister(ctx.ReturnRegister, value)
	}
}

// marshalArguments copies the caller's argument registers into the
// callee's leading locals, checking the declared signature: missing
// required arguments or an overflow without a rest-arg slot throw;
// with a rest-arg the overflow is absorbed into an array stored in the
// slot after the declared arguments.
func (v *VM) marshalArguments(p *process.Process, caller *process.ExecutionContext, callee *process.ExecutionContext, code *bytecode.CompiledCode, firstArg, count int) bool {
	if count < code.RequiredCount {
		return v.raiseMessage(p, "too few arguments for this block")
	}
	if count > code.ArgumentCount && !code.OptionalRestArg {
		return v.raiseMessage(p, "too many arguments for this block")
	}

	declared := count
	if declared > code.ArgumentCount {
		declared = code.ArgumentCount
	}
	for i := 0; i < declared; i++ {
		callee.SetLocal(i, caller.GetRegister(firstArg+i))
	}
	if code.OptionalRestArg {
		rest := make([]heap.ObjectPointer, 0, count-declared)
		for i := declared; i < count; i++ {
			rest = append(rest, caller.GetRegister(firstArg+i))
		}
		callee.SetLocal(code.ArgumentCount, boxArray(p, rest))
	}
	return true
}

// resolveCallable returns the code and captured binding an invocation
// target names: a boxed block in a register, falling back to a literal
// code object for emitters that inline the callee.
func resolveCallable(ctx *process.ExecutionContext, in bytecode.Instruction) (*bytecode.CompiledCode, *process.Binding) {
	if in.Arg1 >= 0 && in.Arg1 < len(ctx.Registers) {
		if block, ok := asBlock(ctx.GetRegister(in.Arg1)); ok {
			return block.Code, block.Binding
		}
	}
	code := codeFromCache(ctx, in)
	var captured *process.Binding
	if code.Captures {
		captured = ctx.Binding
	}
	return code, captured
}

// doRunBlock pushes a new execution context for the callee. The
// callee's binding is fresh unless the block captures, in which case
// its parent is the capturing binding.
func (v *VM) doRunBlock(p *process.Process, ctx *process.ExecutionContext, in bytecode.Instruction) bool {
	code, captured := resolveCallable(ctx, in)
	binding := process.NewBinding(code.LocalsCount, captured)
	callee := process.NewExecutionContext(code, binding, ctx.Receiver, in.Arg0)
	callee.Module = ctx.Module
	if captured != nil {
		callee.CapturedBinding = captured
	}
	if !v.marshalArguments(p, ctx, callee, code, in.Arg2, in.Arg3) {
		return false
	}
	p.PushContext(callee)
	return true
}

// doTailCall clears the current context's locals and registers and
// resets the instruction cursor without allocating a new frame.
func (v *VM) doTailCall(p *process.Process, ctx *process.ExecutionContext, in bytecode.Instruction) bool {
	code, _ := resolveCallable(ctx, in)

	if in.Arg3 < code.RequiredCount {
		return v.raiseMessage(p, "too few arguments for this block")
	}
	if in.Arg3 > code.ArgumentCount && !code.OptionalRestArg {
		return v.raiseMessage(p, "too many arguments for this block")
	}
	args := make([]heap.ObjectPointer, in.Arg3)
	for i := range args {
		args[i] = ctx.GetRegister(in.Arg2 + i)
	}

	ctx.TailReset(code)
	declared := in.Arg3
	if declared > code.ArgumentCount {
		declared = code.ArgumentCount
	}
	for i := 0; i < declared; i++ {
		ctx.SetLocal(i, args[i])
	}
	if code.OptionalRestArg {
		ctx.SetLocal(code.ArgumentCount, boxArray(p, args[declared:]))
	}
	return true
}

// doSendMessage resolves the message name against the receiver's
// attribute chain and runs the found block with the receiver installed.
func (v *VM) doSendMessage(p *process.Process, ctx *process.ExecutionContext, in bytecode.Instruction) bool {
	receiver := ctx.GetRegister(in.Arg1)
	name := ctx.Code.Literals.StringAt(in.Arg2)

	var block *BlockValue
	for cur := receiver.Object(); cur != nil; cur = cur.Prototype.Object() {
		if attr, has := cur.Attrs[name]; has {
			if b, ok := asBlock(attr); ok {
				block = b
			}
			break
		}
	}
	if block == nil {
		return v.raiseMessage(p, "the receiver does not respond to '"+name+"'")
	}

	binding := process.NewBinding(block.Code.LocalsCount, block.Binding)
	callee := process.NewExecutionContext(block.Code, binding, receiver, in.Arg0)
	callee.Module = ctx.Module
	if block.Binding != nil {
		callee.CapturedBinding = block.Binding
	}
	if !v.marshalArguments(p, ctx, callee, block.Code, in.Arg3, in.Arg4) {
		return false
	}
	p.PushContext(callee)
	return true
}

// doSpawnProcess creates a new process in the pool named by the
// instruction's pool id, pushes the spawn block as its first context,
// and returns the child pid.
func (v *VM) doSpawnProcess(p *process.Process, ctx *process.ExecutionContext, in bytecode.Instruction) bool {
	block, ok := asBlock(ctx.GetRegister(in.Arg1))
	if !ok {
		return v.raiseMessage(p, "spawn requires a block")
	}
	child := v.Spawn(poolNameForID(in.Arg2))
	binding := process.NewBinding(block.Code.LocalsCount, nil)
	childCtx := process.NewExecutionContext(block.Code, binding, heap.ObjectPointer{}, 0)
	childCtx.Module = ctx.Module
	child.PushContext(childCtx)
	v.Schedule(child)
	ctx.SetRegister(in.Arg0, heap.TaggedInt(int64(child.Pid.Index)))
	return true
}

// doLoadModule enforces module-once semantics: the module named by the
// literal string at in.Arg1 runs its initializer on first load only;
// repeat loads write nil into the result register.
func (v *VM) doLoadModule(p *process.Process, ctx *process.ExecutionContext, in bytecode.Instruction) {
	name := ctx.Code.Literals.StringAt(in.Arg1)
	m, ok := v.Modules.Get(name)
	if !ok {
		return
	}
	if !m.MarkExecuted() {
		ctx.SetRegister(in.Arg0, heap.ObjectPointer{})
		return
	}
	if m.Code == nil || len(m.Code.Instructions) == 0 {
		return
	}
	init := process.NewExecutionContext(m.Code, process.NewBinding(m.Code.LocalsCount, nil), heap.ObjectPointer{}, in.Arg0)
	init.Module = m
	p.PushContext(init)
}
