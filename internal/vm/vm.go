package vm

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/sunholo/ailang/internal/bytecode"
	"github.com/sunholo/ailang/internal/config"
	"github.com/sunholo/ailang/internal/gc"
	"github.com/sunholo/ailang/internal/heap"
	"github.com/sunholo/ailang/internal/process"
)

// Pool ids used by SpawnProcess's pool argument.
const (
	PoolPrimary  = 0
	PoolBlocking = 1
)

func poolNameForID(id int) string {
	if id == PoolBlocking {
		return "blocking"
	}
	return "primary"
}

// VM owns the named worker pools, the global allocator, the module
// registry, and the process registry.
type VM struct {
	Config   config.Config
	Global   *heap.GlobalAllocator
	Modules  *ModuleRegistry
	Registry *process.Registry

	Primary  *Pool
	Blocking *Pool
	GC       *Pool

	// IO streams the IO opcodes target; swapped out by tests and the
	// REPL.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	startTime time.Time

	collectorsMu sync.Mutex
	collectors   map[uint64]*gc.Collector

	mainMu      sync.Mutex
	mainPid     uint64
	mainOutcome Outcome
	mainFatal   error
	done        chan struct{}
	doneOnce    sync.Once
}

func New(cfg config.Config) *VM {
	return &VM{
		Config:     cfg,
		Global:     heap.NewGlobalAllocator(),
		Modules:    NewModuleRegistry(),
		Registry:   process.NewRegistry(),
		Primary:    NewPool("primary", cfg.PrimaryThreads),
		Blocking:   NewPool("blocking", cfg.BlockingThreads),
		GC:         NewPool("gc", cfg.GCThreads),
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		startTime:  time.Now(),
		collectors: make(map[uint64]*gc.Collector),
		done:       make(chan struct{}),
	}
}

// Spawn creates a new process in the named pool. The caller pushes the
// initial context and then schedules the process via Schedule, so a
// worker can never observe an empty context stack.
func (v *VM) Spawn(pool string) *process.Process {
	pid := v.Registry.NextPid()
	p := process.New(pid, pool, v.Global, v.Config.Reductions)
	v.Registry.Add(p)

	v.collectorsMu.Lock()
	v.collectors[pid.Index] = gc.NewCollector(p.Allocator, v.Config.TracerThreads)
	v.collectorsMu.Unlock()

	return p
}

// Schedule submits a ready process onto its pool's injector.
func (v *VM) Schedule(p *process.Process) {
	v.poolByName(p.Pool).Submit(p)
}

func (v *VM) collectorFor(p *process.Process) *gc.Collector {
	v.collectorsMu.Lock()
	defer v.collectorsMu.Unlock()
	return v.collectors[p.Pid.Index]
}

func (v *VM) poolByName(name string) *Pool {
	switch name {
	case "blocking":
		return v.Blocking
	case "gc":
		return v.GC
	default:
		return v.Primary
	}
}

// Start launches every pool's workers. Mutator workers drive processes
// through RunUntilSuspend and route them by outcome; GC workers run
// collection cycles and reschedule the collected process exactly once.
func (v *VM) Start() {
	run := func(_ int, p *process.Process) {
		outcome, err := v.RunUntilSuspend(p)
		v.routeOutcome(p, outcome, err)
	}
	v.Primary.Start(run)
	v.Blocking.Start(run)

	v.GC.Start(func(_ int, p *process.Process) {
		v.collectProcess(p)
		p.SetStatus(process.StatusSuspended)
		v.poolByName(p.Pool).Submit(p)
	})
}

func (v *VM) routeOutcome(p *process.Process, outcome Outcome, err error) {
	switch outcome {
	case OutcomeReductionsExhausted:
		v.poolByName(p.Pool).Submit(p)
	case OutcomeNeedsGC:
		v.GC.Submit(p)
	case OutcomeAwaitingMessage:
		// Parked. The next sendProcessMessage to this pid requeues it.
	case OutcomeFinished, OutcomeThrewUnhandled:
		v.Registry.Remove(p.Pid)
		v.finishIfMain(p, outcome, nil)
	case OutcomeFatal:
		if fatal, ok := err.(*fatalError); ok {
			fmt.Fprintf(v.Stderr, "%s\n", fatal.Message)
			WriteFrameTrace(v.Stderr, fatal.Frames)
		}
		v.Registry.Remove(p.Pid)
		v.finishIfMain(p, outcome, err)
	}
}

// collectProcess runs the collection scope the process's counters call
// for, logging timings when configured.
func (v *VM) collectProcess(p *process.Process) {
	collector := v.collectorFor(p)
	if collector == nil {
		return
	}
	var result gc.Result
	if p.NeedsMatureGC(v.Config.MatureThreshold) {
		result = collector.CollectMature(p.Roots())
	} else {
		result = collector.CollectYoung(p.Roots())
	}
	if v.Config.PrintGCTimings {
		scope := "young"
		if result.Scope == gc.ScopeMature {
			scope = "mature"
		}
		label := color.New(color.FgCyan).Sprintf("gc[%s]", scope)
		fmt.Fprintf(v.Stderr, "%s pid=%d marked=%d promoted=%d evacuated=%d freed=%d in %s\n",
			label, p.Pid.Index, result.Stats.Marked, result.Stats.Promoted,
			result.Stats.Evacuated, result.Freed, result.Duration)
	}
}

// RunMain spawns the entry code as the main process, starts the pools,
// and blocks until the main process terminates. The exit code is 0 for
// clean termination and 1 for an unhandled throw or fatal condition.
func (v *VM) RunMain(mod *bytecode.Module) int {
	p := v.Spawn("primary")
	v.mainMu.Lock()
	v.mainPid = p.Pid.Index
	v.mainMu.Unlock()

	ctx := process.NewExecutionContext(mod.Code, process.NewBinding(mod.Code.LocalsCount, nil), heap.ObjectPointer{}, 0)
	ctx.Module = mod
	p.PushContext(ctx)
	mod.MarkExecuted()

	v.Schedule(p)
	v.Start()
	<-v.done
	v.Stop()

	v.mainMu.Lock()
	defer v.mainMu.Unlock()
	if v.mainOutcome == OutcomeFinished {
		return 0
	}
	return 1
}

func (v *VM) finishIfMain(p *process.Process, outcome Outcome, err error) {
	v.mainMu.Lock()
	isMain := p.Pid.Index == v.mainPid && v.mainPid != 0
	if isMain {
		v.mainOutcome = outcome
		v.mainFatal = err
	}
	v.mainMu.Unlock()
	if isMain {
		v.doneOnce.Do(func() { close(v.done) })
	}
}

func (v *VM) Stop() {
	v.Primary.Stop()
	v.Blocking.Stop()
	v.GC.Stop()
}

// CollectYoung runs a minor GC cycle for one process synchronously,
// used both by the GC pool and directly by tests and gc-stats.
func (v *VM) CollectYoung(p *process.Process) gc.Result {
	collector := v.collectorFor(p)
	result := collector.CollectYoung(p.Roots())
	p.SetStatus(process.StatusSuspended)
	return result
}

// CollectMature runs a full cycle for one process synchronously.
func (v *VM) CollectMature(p *process.Process) gc.Result {
	collector := v.collectorFor(p)
	result := collector.CollectMature(p.Roots())
	p.SetStatus(process.StatusSuspended)
	return result
}
