package process

import (
	"sync"
	"sync/atomic"

	"github.com/sunholo/ailang/internal/heap"
)

// Status tracks a process's scheduling state.
type Status int32

const (
	StatusRunning Status = iota
	StatusSuspended
	StatusSuspendedForGC
	StatusAwaitingMessage
	StatusFinished
)

// Pid identifies a process within its pool registry. The uuid half
// keeps pids unique across restarts of a pool; the index is what the
// wire-visible SpawnProcess/SendProcessMessage opcodes carry.
type Pid struct {
	Index uint64
	ID    string
}

// Process owns a stack of execution contexts, a mailbox, a local
// allocator, and status flags. The remembered
// set and tracer pool that collect this process's heap live in
// package gc, reached through a *gc.Collector the VM attaches at
// spawn time, so package process has no dependency on package gc.
type Process struct {
	Pid       Pid
	Pool      string
	Contexts  []*ExecutionContext
	Mailbox   *Mailbox
	Allocator *heap.LocalAllocator

	status           int32
	reductions       int
	reductionsPerRun int
	globals          []heap.ObjectPointer

	mu sync.Mutex
}

func New(pid Pid, pool string, global *heap.GlobalAllocator, reductionsPerRun int) *Process {
	return &Process{
		Pid:              pid,
		Pool:             pool,
		Mailbox:          NewMailbox(),
		Allocator:        heap.NewLocalAllocator(global),
		reductionsPerRun: reductionsPerRun,
		reductions:       reductionsPerRun,
	}
}

func (p *Process) Status() Status { return Status(atomic.LoadInt32(&p.status)) }

func (p *Process) SetStatus(s Status) { atomic.StoreInt32(&p.status, int32(s)) }

// PushContext appends a new frame, implementing RunBlock/SendMessage's
// frame-push half.
func (p *Process) PushContext(ctx *ExecutionContext) {
	p.mu.Lock()
	p.Contexts = append(p.Contexts, ctx)
	p.mu.Unlock()
}

// PopContext removes and returns the innermost frame. Every pop is
// also a reduction-counter tick; the GC safepoint check is made by the
// VM dispatch loop after a Return, not here.
func (p *Process) PopContext() (*ExecutionContext, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.Contexts)
	if n == 0 {
		return nil, false
	}
	ctx := p.Contexts[n-1]
	p.Contexts = p.Contexts[:n-1]
	p.reductions--
	return ctx, true
}

func (p *Process) Current() *ExecutionContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Contexts) == 0 {
		return nil
	}
	return p.Contexts[len(p.Contexts)-1]
}

func (p *Process) Depth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Contexts)
}

// ContextAt returns the i-th context from the bottom of the stack, or
// nil when out of range. Used by the fatal-condition frame tracer.
func (p *Process) ContextAt(i int) *ExecutionContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.Contexts) {
		return nil
	}
	return p.Contexts[i]
}

// SetGlobal stores a process-level global, growing the table on
// demand; globals are GC roots.
func (p *Process) SetGlobal(idx int, v heap.ObjectPointer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.globals) <= idx {
		p.globals = append(p.globals, heap.ObjectPointer{})
	}
	p.globals[idx] = v
}

func (p *Process) GetGlobal(idx int) heap.ObjectPointer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if idx < 0 || idx >= len(p.globals) {
		return heap.ObjectPointer{}
	}
	return p.globals[idx]
}

// ReductionsExhausted reports whether the per-process reduction
// counter has hit zero, meaning the scheduler must requeue this
// process to preserve fairness.
func (p *Process) ReductionsExhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reductions <= 0
}

func (p *Process) ResetReductions() {
	p.mu.Lock()
	p.reductions = p.reductionsPerRun
	p.mu.Unlock()
}

// NeedsGC reports the scheduler's safepoint test: a young-generation
// allocation threshold or a mailbox-size threshold has been crossed.
func (p *Process) NeedsGC(youngThreshold, mailboxThreshold int) bool {
	return p.Allocator.Generation().YoungBytes() >= youngThreshold ||
		p.Mailbox.Len() >= mailboxThreshold
}

// NeedsMatureGC reports whether enough mature-generation block
// allocations have accumulated to warrant a full collection.
func (p *Process) NeedsMatureGC(matureThreshold int) bool {
	return p.Allocator.Generation().MatureBlockAllocations()*heap.BlockSize >= matureThreshold
}

// Roots collects every live execution context's registers and locals,
// plus every mailbox message, for the GC tracer's root set.
func (p *Process) Roots() []heap.ObjectPointer {
	p.mu.Lock()
	defer p.mu.Unlock()

	var roots []heap.ObjectPointer
	for _, ctx := range p.Contexts {
		roots = append(roots, ctx.Registers...)
		for b := ctx.Binding; b != nil; b = b.Parent {
			roots = append(roots, b.Locals...)
		}
	}
	roots = append(roots, p.globals...)
	roots = append(roots, p.Mailbox.Snapshot()...)
	return roots
}
