package heap

import "sync"

// GlobalAllocator hands out fresh blocks to per-process local
// allocators. It keeps two pools: recyclable blocks (swept blocks that
// still have holes to fill) and fully free blocks. It is the only part
// of the heap shared across processes, so it is the only part that
// needs a lock; everything downstream of a handed-out block is
// process-local and lock-free.
type GlobalAllocator struct {
	mu         sync.Mutex
	free       []*Block
	recyclable []*Block
	issued     int
}

func NewGlobalAllocator() *GlobalAllocator { return &GlobalAllocator{} }

// RequestBlock pops a recyclable block, then a free block, then
// allocates a fresh one.
func (g *GlobalAllocator) RequestBlock() *Block {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	if n := len(g.recyclable); n > 0 {
		b := g.recyclable[n-1]
		g.recyclable = g.recyclable[:n-1]
		return b
	}
	if n := len(g.free); n > 0 {
		b := g.free[n-1]
		g.free = g.free[:n-1]
		return b
	}
	return NewBlock()
}

// ReturnBlock gives a block back after a collection: blocks that still
// have holes go to the recyclable pool, fully dead blocks are reset
// and go to the free pool.
func (g *GlobalAllocator) ReturnBlock(b *Block) {
	b.CountHoles()
	g.mu.Lock()
	defer g.mu.Unlock()
	if b.HasHoles() && b.LiveLines() > 0 {
		g.recyclable = append(g.recyclable, b)
		return
	}
	b.Reset()
	g.free = append(g.free, b)
}

func (g *GlobalAllocator) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.issued
}

func (g *GlobalAllocator) FreeBlocks() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.free)
}

func (g *GlobalAllocator) RecyclableBlocks() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.recyclable)
}

// LocalAllocator is the per-process allocation front end: a bump
// pointer into the current eden block, refilled from the global pool
// on overflow. No locking here: only the owning process
// ever touches it between safepoints.
type LocalAllocator struct {
	global *GlobalAllocator
	gen    *Generation
}

func NewLocalAllocator(global *GlobalAllocator) *LocalAllocator {
	la := &LocalAllocator{global: global, gen: NewGeneration()}
	return la
}

func (la *LocalAllocator) Generation() *Generation { return la.gen }
func (la *LocalAllocator) Global() *GlobalAllocator { return la.global }

// Allocate bump-allocates size bytes in the eden bucket, requesting a
// new block from the global pool on overflow and counting the block
// allocation toward the young-collection threshold.
func (la *LocalAllocator) Allocate(size int) (slice []byte, line int) {
	newBlock, s, l, _ := la.gen.Eden().AllocateForMutator(la.global, size)
	if newBlock {
		la.gen.CountYoungBlockAllocation()
	}
	return s, l
}

// objectSlot is the bookkeeping size reserved per object header in its
// block's line accounting. The Go runtime owns the header's actual
// storage; the slot keeps Immix line occupancy honest.
const objectSlot = 64

// NewObjectIn allocates an Object in the given bucket, recording which
// block and bucket the object resides in so the tracer can consult
// evacuation candidacy and promotion flags per object.
func (la *LocalAllocator) NewObjectIn(bucket *Bucket, value interface{}) *Object {
	newBlock, _, line, block := bucket.AllocateForMutator(la.global, objectSlot)
	if newBlock {
		switch bucket.Age {
		case AgeMature:
			la.gen.CountMatureBlockAllocation()
		case AgePermanent:
			// The permanent arena never triggers collections.
		default:
			la.gen.CountYoungBlockAllocation()
		}
	}
	obj := NewObject(value)
	obj.Age = bucket.Age
	obj.Block = block
	obj.Line = line
	obj.Home = bucket
	return obj
}

func (la *LocalAllocator) NewYoung(value interface{}) *Object {
	return la.NewObjectIn(la.gen.Eden(), value)
}

func (la *LocalAllocator) NewMature(value interface{}) *Object {
	return la.NewObjectIn(la.gen.Mature(), value)
}

func (la *LocalAllocator) NewPermanent(value interface{}) *Object {
	return la.NewObjectIn(la.gen.Permanent(), value)
}
