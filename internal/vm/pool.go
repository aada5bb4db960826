// Package vm implements the scheduler and the bytecode dispatch loop:
// named worker pools with work-stealing deques, per-process reduction
// accounting, and GC safepoints at context exits.
package vm

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sunholo/ailang/internal/gc"
	"github.com/sunholo/ailang/internal/process"
)

// Pool is a named group of worker goroutines sharing a work-stealing
// injector/deque set, the same primitive the GC tracer pool uses.
type Pool struct {
	Name     string
	workers  int
	injector *gc.Injector
	deques   []*gc.Deque
	busy     int32
	stop     int32
	wg       sync.WaitGroup
}

func NewPool(name string, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{Name: name, workers: workers, injector: gc.NewInjector()}
	p.deques = make([]*gc.Deque, workers)
	for i := range p.deques {
		p.deques[i] = gc.NewDeque()
	}
	return p
}

// Submit enqueues a process onto the pool's shared injector; any idle
// worker will eventually pick it up.
func (p *Pool) Submit(proc *process.Process) {
	p.injector.Push(proc)
}

// Start launches the pool's workers, each repeatedly taking a process
// and calling run on it until the process yields, finishes, or is
// handed to the GC pool.
func (p *Pool) Start(run func(id int, proc *process.Process)) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.loop(i, run)
	}
}

func (p *Pool) loop(id int, run func(id int, proc *process.Process)) {
	defer p.wg.Done()
	mine := p.deques[id]
	atomic.AddInt32(&p.busy, 1)

	take := func() (*process.Process, bool) {
		if v, ok := mine.Pop(); ok {
			return v.(*process.Process), true
		}
		if v, ok := p.injector.Pop(); ok {
			return v.(*process.Process), true
		}
		for i := range p.deques {
			if i == id {
				continue
			}
			if v, ok := p.deques[i].Steal(); ok {
				return v.(*process.Process), true
			}
		}
		return nil, false
	}

	for atomic.LoadInt32(&p.stop) == 0 {
		proc, ok := take()
		if !ok {
			runtime.Gosched()
			continue
		}
		run(id, proc)
	}
}

func (p *Pool) Requeue(proc *process.Process) { p.injector.Push(proc) }

func (p *Pool) Stop() {
	atomic.StoreInt32(&p.stop, 1)
}

func (p *Pool) Wait() { p.wg.Wait() }
