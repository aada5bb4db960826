package gc

import (
	"time"

	"github.com/sunholo/ailang/internal/heap"
)

// Collector ties a tracer Pool to one process's allocator and
// remembered set, implementing the minor/mature cycle distinction from
// the tracer pool.
type Collector struct {
	alloc      *heap.LocalAllocator
	remembered *RememberedSet
	workers    int
}

func NewCollector(alloc *heap.LocalAllocator, workers int) *Collector {
	return &Collector{alloc: alloc, remembered: NewRememberedSet(), workers: workers}
}

func (c *Collector) Remembered() *RememberedSet { return c.remembered }

// Result reports one collection cycle's outcome.
type Result struct {
	Scope    Scope
	Stats    Statistics
	Duration time.Duration
	Freed    int // blocks returned to the global allocator
}

// copyInto clones obj's payload into a fresh slot of bucket. The old
// object is left behind for the tracer to forward.
func (c *Collector) copyInto(bucket *heap.Bucket, obj *heap.Object) *heap.Object {
	moved := c.alloc.NewObjectIn(bucket, obj.Value)
	moved.Attrs = obj.Attrs
	moved.Prototype = obj.Prototype
	return moved
}

// CollectYoung runs a minor cycle: compute evacuation candidates from
// the hole histograms, clear line marks so survivors re-mark, trace the
// young generation (with the remembered set as extra roots), promote
// survivors out of aged-out buckets, sweep dead blocks, and age the
// buckets.
func (c *Collector) CollectYoung(roots []heap.ObjectPointer) Result {
	start := time.Now()
	gen := c.alloc.Generation()

	for _, bk := range gen.Young() {
		bk.PrepareForCollection(true)
		for _, b := range bk.Blocks() {
			b.ClearLineMarks()
		}
		bk.EnsureCleanAllocationBlock(c.alloc.Global())
	}

	allRoots := append(append([]heap.ObjectPointer{}, roots...), objectsToPointers(c.remembered.Roots())...)

	pool := NewPool(PoolConfig{
		Workers: c.workers,
		EvacuationCandidate: func(o *heap.Object) bool {
			return o.Age >= 0 && o.Block != nil && o.Block.Fragmented
		},
		ShouldPromote: func(o *heap.Object) bool {
			return o.Age >= 0 && o.Home != nil && o.Home.Promote
		},
		MoveMature: func(o *heap.Object) *heap.Object {
			return c.copyInto(gen.Mature(), o)
		},
		MoveWithinYoung: func(o *heap.Object) *heap.Object {
			return c.copyInto(o.Home, o)
		},
		OnPromote: func(promoted *heap.Object, young []*heap.Object) {
			if len(young) > 0 {
				c.remembered.Add(promoted)
			}
		},
	})
	stats := pool.Collect(allRoots)

	freed := 0
	for _, bk := range gen.Young() {
		freed += bk.ReturnEmptyBlocks(c.alloc.Global())
	}
	gen.IncrementAges()

	for _, o := range pool.MarkedObjects() {
		o.ResetMark()
	}

	return Result{Scope: ScopeYoung, Stats: stats, Duration: time.Since(start), Freed: freed}
}

// CollectMature traces the whole process (young and mature blocks),
// prunes the remembered set, and sweeps both generations.
func (c *Collector) CollectMature(roots []heap.ObjectPointer) Result {
	start := time.Now()
	gen := c.alloc.Generation()

	buckets := append(append([]*heap.Bucket{}, gen.Young()...), gen.Mature())
	for _, bk := range buckets {
		bk.PrepareForCollection(false)
		for _, b := range bk.Blocks() {
			b.ClearLineMarks()
		}
	}

	pool := NewPool(PoolConfig{Workers: c.workers})
	stats := pool.Collect(roots)

	// Prune while marks are still live, then sweep and reset.
	c.remembered.Prune()

	freed := 0
	for _, bk := range buckets {
		freed += bk.ReturnEmptyBlocks(c.alloc.Global())
	}
	gen.ResetMatureAllocations()

	for _, o := range pool.MarkedObjects() {
		o.ResetMark()
	}

	return Result{Scope: ScopeMature, Stats: stats, Duration: time.Since(start), Freed: freed}
}

func objectsToPointers(objs []*heap.Object) []heap.ObjectPointer {
	out := make([]heap.ObjectPointer, len(objs))
	for i, o := range objs {
		out[i] = heap.FromObject(o)
	}
	return out
}
