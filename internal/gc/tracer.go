package gc

import (
	"sync"
	"sync/atomic"

	"github.com/sunholo/ailang/internal/heap"
)

// Scope distinguishes a minor (young-only) collection from a full
// mature collection.
type Scope int

const (
	ScopeYoung Scope = iota
	ScopeMature
)

// Statistics accumulates per-worker counts that the pool sums for the
// whole cycle.
type Statistics struct {
	Marked    int64
	Evacuated int64
	Promoted  int64
}

func (s *Statistics) add(other Statistics) {
	s.Marked += other.Marked
	s.Evacuated += other.Evacuated
	s.Promoted += other.Promoted
}

// PoolConfig wires a tracer pool to one process's heap: which objects
// must be promoted or evacuated, how to copy them, and what to do when
// a promoted object still references the young generation.
type PoolConfig struct {
	Workers int

	// EvacuationCandidate reports whether the object sits in a block
	// flagged by PrepareForCollection.
	EvacuationCandidate func(*heap.Object) bool

	// ShouldPromote reports whether the object's bucket has aged out of
	// the nursery.
	ShouldPromote func(*heap.Object) bool

	// MoveMature copies the object into the mature generation and
	// returns the copy. Required when ShouldPromote can return true.
	MoveMature func(*heap.Object) *heap.Object

	// MoveWithinYoung copies the object into a fresh slot of its own
	// bucket. Required when EvacuationCandidate can return true.
	MoveWithinYoung func(*heap.Object) *heap.Object

	// OnPromote is invoked with the promoted copy and any young
	// children found in its payload, for remembered-set upkeep.
	OnPromote func(promoted *heap.Object, young []*heap.Object)
}

// Pool is a per-process pool of N worker tracers sharing a global
// injector, one local deque per worker, and a busy counter used to
// detect when every worker is idle and no work remains anywhere.
type Pool struct {
	cfg      PoolConfig
	injector *Injector
	deques   []*Deque
	busy     int32

	// markedObjs collects, per worker, every object left marked by the
	// cycle so the collector can reset marks afterwards.
	markedObjs [][]*heap.Object
}

// NewPool builds a pool of cfg.Workers worker slots.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	p := &Pool{cfg: cfg, injector: NewInjector()}
	p.deques = make([]*Deque, cfg.Workers)
	for i := range p.deques {
		p.deques[i] = NewDeque()
	}
	p.markedObjs = make([][]*heap.Object, cfg.Workers)
	return p
}

// children returns every ObjectPointer reachable directly from o: its
// prototype, its attributes, and (for boxed arrays) its element slice.
func children(o *heap.Object) []heap.ObjectPointer {
	out := make([]heap.ObjectPointer, 0, len(o.Attrs)+2)
	if !o.Prototype.IsNil() {
		out = append(out, o.Prototype)
	}
	for _, v := range o.Attrs {
		out = append(out, v)
	}
	if arr, ok := o.Value.([]heap.ObjectPointer); ok {
		out = append(out, arr...)
	}
	return out
}

// Collect traces roots to exhaustion and returns the summed
// statistics for the cycle.
func (p *Pool) Collect(roots []heap.ObjectPointer) Statistics {
	for _, r := range roots {
		if obj := r.Object(); obj != nil {
			p.injector.Push(obj)
		}
	}

	atomic.StoreInt32(&p.busy, int32(p.cfg.Workers))
	var wg sync.WaitGroup
	results := make([]Statistics, p.cfg.Workers)

	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			results[id] = p.run(id)
		}(i)
	}
	wg.Wait()

	var total Statistics
	for _, r := range results {
		total.add(r)
	}
	return total
}

// MarkedObjects returns every object the last Collect left marked, so
// the owning collector can reset marks before the next cycle.
func (p *Pool) MarkedObjects() []*heap.Object {
	var out []*heap.Object
	for _, objs := range p.markedObjs {
		out = append(out, objs...)
	}
	return out
}

// run is a single worker's loop: pop local, pop global, steal from
// peers, and return once no worker is busy and no work exists. The
// busy counter is decremented before the worker starts stealing and
// incremented after stolen work is acquired, so no in-flight work can
// be lost to the termination check.
func (p *Pool) run(id int) Statistics {
	var stats Statistics
	mine := p.deques[id]

	takeLocal := func() (interface{}, bool) {
		if v, ok := mine.Pop(); ok {
			return v, true
		}
		return p.injector.Pop()
	}
	steal := func() (interface{}, bool) {
		for i := range p.deques {
			if i == id {
				continue
			}
			if v, ok := p.deques[i].Steal(); ok {
				return v, true
			}
		}
		return nil, false
	}

	idle := false
	for {
		v, ok := takeLocal()
		if !ok {
			if !idle {
				idle = true
				atomic.AddInt32(&p.busy, -1)
			}
			v, ok = steal()
		}
		if !ok {
			if atomic.LoadInt32(&p.busy) == 0 && p.injector.Len() == 0 && allEmpty(p.deques) {
				return stats
			}
			continue
		}
		if idle {
			idle = false
			atomic.AddInt32(&p.busy, 1)
		}
		obj := v.(*heap.Object)
		p.visit(id, obj, mine, &stats)
	}
}

func allEmpty(deques []*Deque) bool {
	for _, d := range deques {
		if d.Len() > 0 {
			return false
		}
	}
	return true
}

// visit implements the per-pointer tracing work: inspect status, act
// accordingly, then push children.
func (p *Pool) visit(id int, obj *heap.Object, local *Deque, stats *Statistics) {
	switch obj.GetStatus() {
	case heap.StatusResolve:
		// Already forwarded: trace the forwarding target instead.
		if obj.IsForwarded() {
			if target := obj.ForwardedTo().Object(); target != nil && !target.IsMarked() {
				local.Push(target)
			}
		}
		return
	case heap.StatusPendingMove:
		// Another worker is mid-copy; defer until it publishes Resolve.
		local.Push(obj)
		return
	}

	// A marked object is fully processed: its children are already on
	// a deque, and move targets are marked by their installer.
	if obj.IsMarked() {
		return
	}

	if p.cfg.ShouldPromote != nil && p.cfg.MoveMature != nil && p.cfg.ShouldPromote(obj) {
		if !obj.BeginMove() {
			local.Push(obj)
			return
		}
		moved := p.cfg.MoveMature(obj)
		moved.Mark()
		p.remember(id, moved)
		stats.Marked++
		stats.Promoted++
		obj.Forward(heap.FromObject(moved))
		obj.SetStatus(heap.StatusResolve)

		var young []*heap.Object
		for _, c := range children(moved) {
			if child := c.Object(); child != nil {
				if child.Age >= 0 {
					young = append(young, child)
				}
				local.Push(child)
			}
		}
		if p.cfg.OnPromote != nil {
			p.cfg.OnPromote(moved, young)
		}
		return
	}

	if p.cfg.EvacuationCandidate != nil && p.cfg.MoveWithinYoung != nil && p.cfg.EvacuationCandidate(obj) {
		if !obj.BeginMove() {
			local.Push(obj)
			return
		}
		moved := p.cfg.MoveWithinYoung(obj)
		moved.Mark()
		p.remember(id, moved)
		stats.Marked++
		stats.Evacuated++
		obj.Forward(heap.FromObject(moved))
		obj.SetStatus(heap.StatusResolve)
		for _, c := range children(moved) {
			if child := c.Object(); child != nil {
				local.Push(child)
			}
		}
		return
	}

	if !obj.Mark() {
		return // another worker already claimed this object
	}
	p.remember(id, obj)
	stats.Marked++
	if obj.Block != nil {
		obj.Block.MarkLine(obj.Line)
	}
	for _, c := range children(obj) {
		if child := c.Object(); child != nil {
			local.Push(child)
		}
	}
}

func (p *Pool) remember(id int, obj *heap.Object) {
	p.markedObjs[id] = append(p.markedObjs[id], obj)
}
