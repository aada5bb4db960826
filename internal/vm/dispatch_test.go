package vm

import (
	"testing"

	"github.com/sunholo/ailang/internal/bytecode"
	"github.com/sunholo/ailang/internal/config"
	"github.com/sunholo/ailang/internal/heap"
	"github.com/sunholo/ailang/internal/process"
)

func pushCode(vmInst *VM, code *bytecode.CompiledCode) (*process.Process, *process.ExecutionContext) {
	p := vmInst.Spawn("primary")
	ctx := process.NewExecutionContext(code, process.NewBinding(code.LocalsCount, nil), heap.ObjectPointer{}, 0)
	p.PushContext(ctx)
	return p, ctx
}

// TestSchedulerFairness covers: given a CPU-bound
// process and a fixed reduction budget, the process yields exactly
// once its reduction counter is exhausted.
func TestSchedulerFairness(t *testing.T) {
	cfg := config.Default()
	cfg.Reductions = 5
	vmInst := New(cfg)
	code := &bytecode.CompiledCode{
		RegistersCount: 1,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpGoto, Arg0: 0},
		},
	}
	p, _ := pushCode(vmInst, code)

	// A bare Goto never pops a context, so reductions only tick on pops;
	// exercise PopContext directly to confirm the budget gates yielding.
	for i := 0; i < cfg.Reductions; i++ {
		if p.ReductionsExhausted() {
			t.Fatalf("reductions exhausted too early at iteration %d", i)
		}
		p.PopContext()
	}
	if !p.ReductionsExhausted() {
		t.Fatal("expected reductions exhausted after the full budget")
	}
}

// TestTwoProcessInterleaving: with a worker repeatedly running
// whichever process is next, a process exhausting its reductions
// yields so the other gets to run.
func TestTwoProcessInterleaving(t *testing.T) {
	cfg := config.Default()
	cfg.Reductions = 3
	vmInst := New(cfg)

	// Each call frame runs one Return; the process re-enters by having
	// a stack of nested frames, so every pop ticks the counter.
	leaf := &bytecode.CompiledCode{RegistersCount: 1}
	makeProc := func() *process.Process {
		p := vmInst.Spawn("primary")
		for i := 0; i < 10; i++ {
			p.PushContext(process.NewExecutionContext(leaf, process.NewBinding(0, nil), heap.ObjectPointer{}, 0))
		}
		return p
	}
	a := makeProc()
	b := makeProc()

	outcomeA, err := vmInst.RunUntilSuspend(a)
	if err != nil {
		t.Fatal(err)
	}
	if outcomeA != OutcomeReductionsExhausted {
		t.Fatalf("expected A to yield on reductions, got %v", outcomeA)
	}
	if a.Depth() == 0 {
		t.Fatal("A must not have finished inside one reduction budget")
	}

	outcomeB, err := vmInst.RunUntilSuspend(b)
	if err != nil {
		t.Fatal(err)
	}
	if outcomeB != OutcomeReductionsExhausted {
		t.Fatalf("expected B to run and yield as well, got %v", outcomeB)
	}
}

// TestExceptionUnwinding covers: throw transfers
// control to the innermost enclosing catch whose range covers the
// throw site and writes the value into the designated register.
func TestExceptionUnwinding(t *testing.T) {
	code := &bytecode.CompiledCode{
		RegistersCount: 2,
		CatchTable:     []bytecode.CatchEntry{{Start: 0, End: 2, JumpTo: 10, Register: 1}},
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpSetInt, Arg0: 0, Arg1: 42},
			{Op: bytecode.OpThrow, Arg0: 0},
		},
	}
	vmInst := New(config.Default())
	p, ctx := pushCode(vmInst, code)

	ctx.Fetch() // advance past SetInt, mirroring dispatch's own bookkeeping
	ctx.SetRegister(0, heap.TaggedInt(42))
	ctx.Fetch() // advance past Throw before throwValue inspects InstructionIndex-1

	ok := vmInst.throwValue(p, ctx.GetRegister(0))
	if !ok {
		t.Fatal("expected the throw to be caught")
	}
	if ctx.InstructionIndex != 10 {
		t.Fatalf("expected jump to handler at 10, got %d", ctx.InstructionIndex)
	}
	if ctx.GetRegister(1).IntegerValue() != 42 {
		t.Fatalf("expected caught value 42 in register 1, got %v", ctx.GetRegister(1))
	}
}

// TestThrowAcrossContexts: a throw in an inner frame with no handler
// unwinds to an outer frame whose catch table covers its call site.
func TestThrowAcrossContexts(t *testing.T) {
	outer := &bytecode.CompiledCode{
		RegistersCount: 2,
		CatchTable:     []bytecode.CatchEntry{{Start: 0, End: 1, JumpTo: 5, Register: 1}},
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpRunBlock, Arg0: 0, Arg1: 0},
		},
	}
	inner := &bytecode.CompiledCode{
		RegistersCount: 1,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpSetInt, Arg0: 0, Arg1: 7},
			{Op: bytecode.OpThrow, Arg0: 0},
		},
	}
	vmInst := New(config.Default())
	p, outerCtx := pushCode(vmInst, outer)
	outerCtx.Fetch() // the RunBlock is "in flight" at index 0

	innerCtx := process.NewExecutionContext(inner, process.NewBinding(0, nil), heap.ObjectPointer{}, 0)
	p.PushContext(innerCtx)
	innerCtx.Fetch()
	innerCtx.SetRegister(0, heap.TaggedInt(7))
	innerCtx.Fetch()

	if !vmInst.throwValue(p, innerCtx.GetRegister(0)) {
		t.Fatal("expected the outer handler to catch")
	}
	if p.Current() != outerCtx {
		t.Fatal("expected the inner context to be popped")
	}
	if outerCtx.InstructionIndex != 5 {
		t.Fatalf("expected jump to 5, got %d", outerCtx.InstructionIndex)
	}
	if outerCtx.GetRegister(1).IntegerValue() != 7 {
		t.Fatal("expected the thrown value in the outer catch register")
	}
}

// TestThrowUnhandledTerminatesProcess covers the "reaching the top
// without a handler" half of exception handling.
func TestThrowUnhandledTerminatesProcess(t *testing.T) {
	code := &bytecode.CompiledCode{
		RegistersCount: 1,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpThrow, Arg0: 0},
		},
	}
	vmInst := New(config.Default())
	p, _ := pushCode(vmInst, code)

	outcome, err := vmInst.RunUntilSuspend(p)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeThrewUnhandled {
		t.Fatalf("expected OutcomeThrewUnhandled, got %v", outcome)
	}
	if p.Status() != process.StatusFinished {
		t.Fatal("expected process to finish after an unhandled throw")
	}
}

// TestDivisionByZeroThrows: arithmetic failures raise catchable
// values instead of crashing the worker.
func TestDivisionByZeroThrows(t *testing.T) {
	code := &bytecode.CompiledCode{
		RegistersCount: 3,
		CatchTable:     []bytecode.CatchEntry{{Start: 0, End: 3, JumpTo: 9, Register: 2}},
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpSetInt, Arg0: 0, Arg1: 10},
			{Op: bytecode.OpSetInt, Arg0: 1, Arg1: 0},
			{Op: bytecode.OpIntDiv, Arg0: 2, Arg1: 0, Arg2: 1},
		},
	}
	vmInst := New(config.Default())
	p, ctx := pushCode(vmInst, code)

	outcome, err := vmInst.RunUntilSuspend(p)
	if err != nil {
		t.Fatal(err)
	}
	// The handler jump target (9) is past the end of the code, so the
	// context runs off its end and finishes cleanly after catching.
	if outcome != OutcomeFinished {
		t.Fatalf("expected the throw to be caught and the process to finish, got %v", outcome)
	}
	if ctx.InstructionIndex < 9 {
		t.Fatal("expected execution to resume at the handler")
	}
}

// TestModuleLoadOnce covers module-once semantics end to end through the
// VM's LoadModule opcode.
func TestModuleLoadOnce(t *testing.T) {
	lits := bytecode.NewConstantCache()
	nameIdx := lits.String("demo")
	code := &bytecode.CompiledCode{
		RegistersCount: 1,
		Literals:       lits,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpLoadModule, Arg0: 0, Arg1: nameIdx},
			{Op: bytecode.OpLoadModule, Arg0: 0, Arg1: nameIdx},
		},
	}
	vmInst := New(config.Default())
	vmInst.Modules.Register(bytecode.NewModule("demo", "demo.own", &bytecode.CompiledCode{}, bytecode.NewConstantCache()))

	p, ctx := pushCode(vmInst, code)

	in1, _ := ctx.Fetch()
	vmInst.doLoadModule(p, ctx, in1)
	if ctx.GetRegister(0).IsNil() == false {
		t.Fatal("first load of a module with empty code must leave the result register nil")
	}

	in2, _ := ctx.Fetch()
	vmInst.doLoadModule(p, ctx, in2)
	if !ctx.GetRegister(0).IsNil() {
		t.Fatal("second load must write nil into the result register")
	}
}

// TestModuleInitializerRunsOnFirstLoad: a module with a non-empty
// top-level block executes it exactly once.
func TestModuleInitializerRunsOnFirstLoad(t *testing.T) {
	lits := bytecode.NewConstantCache()
	nameIdx := lits.String("demo")

	initCode := &bytecode.CompiledCode{
		Name:           "demo.init",
		RegistersCount: 1,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpSetInt, Arg0: 0, Arg1: 99},
			{Op: bytecode.OpReturn, Arg0: 0, Arg1: 0},
		},
	}
	code := &bytecode.CompiledCode{
		RegistersCount: 1,
		Literals:       lits,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpLoadModule, Arg0: 0, Arg1: nameIdx},
			{Op: bytecode.OpLoadModule, Arg0: 0, Arg1: nameIdx},
		},
	}
	vmInst := New(config.Default())
	vmInst.Modules.Register(bytecode.NewModule("demo", "demo.own", initCode, bytecode.NewConstantCache()))

	p, ctx := pushCode(vmInst, code)
	outcome, err := vmInst.RunUntilSuspend(p)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeFinished {
		t.Fatalf("expected a clean finish, got %v", outcome)
	}
	// First load ran the initializer, whose Return wrote 99 into the
	// loader's result register; the second wrote nil over it.
	if !ctx.GetRegister(0).IsNil() {
		t.Fatal("second load must write nil into the result register")
	}
}

// TestMessageFIFO covers per-sender FIFO ordering at the VM level: sends
// from one process to another are delivered to its mailbox in order.
func TestMessageFIFO(t *testing.T) {
	vmInst := New(config.Default())
	code := &bytecode.CompiledCode{RegistersCount: 2}
	_, ctx := pushCode(vmInst, code)
	receiver := vmInst.Spawn("primary")

	ctx.SetRegister(0, heap.TaggedInt(int64(receiver.Pid.Index)))
	send := bytecode.Instruction{Op: bytecode.OpSendProcessMessage, Arg0: 0, Arg1: 1}
	for _, val := range []int64{1, 2, 3} {
		ctx.SetRegister(1, heap.TaggedInt(val))
		vmInst.sendProcessMessage(ctx, send)
	}

	for _, want := range []int64{1, 2, 3} {
		got, ok := receiver.Mailbox.Receive()
		if !ok || got.IntegerValue() != want {
			t.Fatalf("expected %d, got %v (ok=%v)", want, got, ok)
		}
	}
}

// TestReceiveSuspendsAndResumes: an empty mailbox rewinds the receive
// instruction and parks the process; a later send wakes it and the
// same opcode re-executes.
func TestReceiveSuspendsAndResumes(t *testing.T) {
	code := &bytecode.CompiledCode{
		RegistersCount: 1,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpReceiveProcessMessage, Arg0: 0},
		},
	}
	vmInst := New(config.Default())
	p, ctx := pushCode(vmInst, code)

	outcome, err := vmInst.RunUntilSuspend(p)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeAwaitingMessage {
		t.Fatalf("expected OutcomeAwaitingMessage, got %v", outcome)
	}
	if ctx.InstructionIndex != 0 {
		t.Fatal("expected the receive instruction to be rewound")
	}
	if p.Status() != process.StatusAwaitingMessage {
		t.Fatal("expected the process to be parked awaiting a message")
	}

	p.Mailbox.Send(heap.TaggedInt(41))
	outcome, err = vmInst.RunUntilSuspend(p)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeFinished {
		t.Fatalf("expected the resumed process to finish, got %v", outcome)
	}
	if ctx.GetRegister(0).IntegerValue() != 41 {
		t.Fatal("expected the delivered message in the result register")
	}
}

// TestSpawnSendReceive: end-to-end process primitive flow.
func TestSpawnSendReceive(t *testing.T) {
	childCode := &bytecode.CompiledCode{
		Name:           "child",
		RegistersCount: 1,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpReceiveProcessMessage, Arg0: 0},
		},
	}
	lits := bytecode.NewConstantCache()
	childIdx := lits.Code(childCode)

	parentCode := &bytecode.CompiledCode{
		Name:           "parent",
		RegistersCount: 3,
		Literals:       lits,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpSetBlock, Arg0: 0, Arg1: childIdx},
			{Op: bytecode.OpSpawnProcess, Arg0: 1, Arg1: 0, Arg2: PoolPrimary},
			{Op: bytecode.OpSetInt, Arg0: 2, Arg1: 13},
			{Op: bytecode.OpSendProcessMessage, Arg0: 1, Arg1: 2},
		},
	}
	vmInst := New(config.Default())
	p, ctx := pushCode(vmInst, parentCode)

	outcome, err := vmInst.RunUntilSuspend(p)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeFinished {
		t.Fatalf("expected the parent to finish, got %v", outcome)
	}

	childPid := process.Pid{Index: uint64(ctx.GetRegister(1).IntegerValue())}
	child, ok := vmInst.Registry.Get(childPid)
	if !ok {
		t.Fatal("expected the spawned child in the registry")
	}
	outcome, err = vmInst.RunUntilSuspend(child)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeFinished {
		t.Fatalf("expected the child to receive and finish, got %v", outcome)
	}
	if child.Current() != nil {
		t.Fatal("child context stack should be empty")
	}
}

// TestTailCallReusesFrame: TailCall resets the frame in place instead
// of pushing a new context.
func TestTailCallReusesFrame(t *testing.T) {
	target := &bytecode.CompiledCode{
		Name:           "target",
		ArgumentCount:  1,
		RequiredCount:  1,
		LocalsCount:    1,
		RegistersCount: 2,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpGetLocal, Arg0: 0, Arg1: 0},
		},
	}
	lits := bytecode.NewConstantCache()
	targetIdx := lits.Code(target)

	caller := &bytecode.CompiledCode{
		Name:           "caller",
		RegistersCount: 2,
		Literals:       lits,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpSetInt, Arg0: 0, Arg1: 5},
			{Op: bytecode.OpTailCall, Arg0: 0, Arg1: targetIdx, Arg2: 0, Arg3: 1},
		},
	}
	// Arg1 names a register first; register 0 holds an int, not a
	// block, so resolution falls back to the literal pool.
	vmInst := New(config.Default())
	p, ctx := pushCode(vmInst, caller)

	depthBefore := p.Depth()
	outcome, err := vmInst.RunUntilSuspend(p)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeFinished {
		t.Fatalf("expected a clean finish, got %v", outcome)
	}
	if depthBefore != 1 {
		t.Fatalf("expected a single frame throughout, started with %d", depthBefore)
	}
	if ctx.Code != target {
		t.Fatal("expected the frame to now run the tail-called code")
	}
	if ctx.GetRegister(0).IntegerValue() != 5 {
		t.Fatal("expected the argument to be marshalled into local 0")
	}
}

// TestArgumentCountMismatchThrows: calling a block with fewer
// arguments than required raises a catchable value.
func TestArgumentCountMismatchThrows(t *testing.T) {
	target := &bytecode.CompiledCode{
		ArgumentCount:  2,
		RequiredCount:  2,
		LocalsCount:    2,
		RegistersCount: 1,
	}
	lits := bytecode.NewConstantCache()
	targetIdx := lits.Code(target)
	caller := &bytecode.CompiledCode{
		RegistersCount: 1,
		Literals:       lits,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpRunBlock, Arg0: 0, Arg1: targetIdx, Arg2: 0, Arg3: 0},
		},
	}
	vmInst := New(config.Default())
	p, _ := pushCode(vmInst, caller)

	outcome, err := vmInst.RunUntilSuspend(p)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeThrewUnhandled {
		t.Fatalf("expected an unhandled throw for the bad call, got %v", outcome)
	}
}

// TestRestArgAbsorbsOverflow: a block with a rest-arg slot accepts
// extra arguments as an array.
func TestRestArgAbsorbsOverflow(t *testing.T) {
	target := &bytecode.CompiledCode{
		ArgumentCount:   1,
		RequiredCount:   1,
		OptionalRestArg: true,
		LocalsCount:     2,
		RegistersCount:  1,
	}
	lits := bytecode.NewConstantCache()
	targetIdx := lits.Code(target)
	caller := &bytecode.CompiledCode{
		RegistersCount: 3,
		Literals:       lits,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpSetInt, Arg0: 0, Arg1: 1},
			{Op: bytecode.OpSetInt, Arg0: 1, Arg1: 2},
			{Op: bytecode.OpSetInt, Arg0: 2, Arg1: 3},
			{Op: bytecode.OpRunBlock, Arg0: 0, Arg1: targetIdx, Arg2: 0, Arg3: 3},
		},
	}
	vmInst := New(config.Default())
	p, _ := pushCode(vmInst, caller)

	outcome, err := vmInst.RunUntilSuspend(p)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeFinished {
		t.Fatalf("expected a clean finish, got %v", outcome)
	}
}
