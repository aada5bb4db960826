package heap

// Bucket is one age generation's set of blocks. The young generation keeps three buckets so a
// survivor ages through two minor collections before it is promoted
// to the mature bucket; the permanent bucket holds objects the
// collector never traces for reclamation (module globals, interned
// literals).
type Bucket struct {
	Age int

	// Promote is set once this bucket reaches the maximum young age;
	// survivors found in a promoting bucket move to the mature
	// generation on the next trace.
	Promote bool

	blocks  []*Block
	current *Block
}

func NewBucket(age int) *Bucket { return &Bucket{Age: age} }

func (bk *Bucket) AddBlock(b *Block) {
	bk.blocks = append(bk.blocks, b)
	bk.current = b
}

func (bk *Bucket) Blocks() []*Block { return bk.blocks }

// AllocateForMutator bump-allocates size bytes in the bucket's current
// block, requesting a fresh block from the global allocator when the
// current one is full. newBlock reports whether a request was needed,
// which the caller uses to advance its allocation counters.
func (bk *Bucket) AllocateForMutator(global *GlobalAllocator, size int) (newBlock bool, slice []byte, line int, block *Block) {
	if bk.current != nil {
		if s, l, ok := bk.current.Bump(size); ok {
			return false, s, l, bk.current
		}
	}
	bk.AddBlock(global.RequestBlock())
	s, l, _ := bk.current.Bump(size)
	return true, s, l, bk.current
}

// PrepareForCollection computes the fragmentation decision: every
// block's holes are recounted, hole/live-line histograms are built,
// and, when evacuation is enabled, blocks whose hole count lies at or
// above the derived threshold are flagged as evacuation candidates.
// The threshold is the smallest hole-count bin at which the live lines
// needing a new home still fit in the space the remaining blocks have
// free, so compaction never flags more data than it can absorb.
func (bk *Bucket) PrepareForCollection(evacuate bool) {
	markHist := make(map[int]int)
	availHist := make(map[int]int)
	maxHoles := 0
	// Evacuation headroom: the holes in this bucket's own blocks plus
	// one fresh block the global allocator can always supply.
	available := LinesPerBlock

	for _, b := range bk.blocks {
		b.Fragmented = false
		holes := b.CountHoles()
		if holes == 0 {
			continue
		}
		if holes > maxHoles {
			maxHoles = holes
		}
		free := LinesPerBlock - b.LiveLines()
		markHist[holes] += b.LiveLines()
		availHist[holes] += free
		available += free
	}

	if !evacuate || maxHoles == 0 {
		return
	}

	required := 0
	threshold := maxHoles + 1
	for bin := maxHoles; bin > 0; bin-- {
		required += markHist[bin]
		available -= availHist[bin]
		if required > available {
			break
		}
		threshold = bin
	}

	for _, b := range bk.blocks {
		if b.holes >= threshold {
			b.Fragmented = true
		}
	}
}

// EnsureCleanAllocationBlock makes sure the bucket's current block is
// not itself an evacuation candidate, so survivors copied out of
// fragmented blocks land in a block that will survive the sweep.
func (bk *Bucket) EnsureCleanAllocationBlock(global *GlobalAllocator) {
	if bk.current != nil && bk.current.Fragmented {
		bk.AddBlock(global.RequestBlock())
	}
}

// ReturnEmptyBlocks sweeps this bucket after a trace: blocks with no
// live lines go back to the global allocator, the rest stay. The
// caller must have re-marked live lines during the trace.
func (bk *Bucket) ReturnEmptyBlocks(global *GlobalAllocator) int {
	kept := bk.blocks[:0]
	freed := 0
	for _, b := range bk.blocks {
		if b.LiveLines() == 0 {
			global.ReturnBlock(b)
			freed++
			continue
		}
		kept = append(kept, b)
	}
	bk.blocks = kept
	if len(kept) == 0 {
		bk.current = nil
	} else {
		bk.current = kept[len(kept)-1]
	}
	return freed
}

// Generation holds the three rotating young buckets, the mature
// bucket, and the process-local permanent bucket.
const (
	AgeMature    = -1
	AgePermanent = -2
	YoungBuckets = 3
)

type Generation struct {
	young [YoungBuckets]*Bucket
	eden  int // index of `young` currently accepting new allocations

	mature    *Bucket
	permanent *Bucket

	// Block-allocation counters since the last collection of each
	// scope, consulted by the scheduler's safepoint checks.
	youngBlockAllocations  int
	matureBlockAllocations int
}

func NewGeneration() *Generation {
	g := &Generation{
		mature:    NewBucket(AgeMature),
		permanent: NewBucket(AgePermanent),
	}
	for i := range g.young {
		g.young[i] = NewBucket(i)
	}
	return g
}

func (g *Generation) Eden() *Bucket      { return g.young[g.eden] }
func (g *Generation) Mature() *Bucket    { return g.mature }
func (g *Generation) Permanent() *Bucket { return g.permanent }

// Young returns the three young buckets in index (not age) order.
func (g *Generation) Young() []*Bucket { return g.young[:] }

// IncrementAges ages every young bucket by one (mod the bucket count)
// after a successful young collection: the bucket that wraps back to
// age zero becomes the new eden, and the bucket reaching the maximum
// age is marked for promotion so its survivors move to the mature
// generation on the next trace.
func (g *Generation) IncrementAges() {
	for i, bk := range g.young {
		bk.Age = (bk.Age + 1) % YoungBuckets
		bk.Promote = bk.Age == YoungBuckets-1
		if bk.Age == 0 {
			g.eden = i
		}
	}
	g.youngBlockAllocations = 0
}

func (g *Generation) YoungBucket(age int) *Bucket {
	for _, bk := range g.young {
		if bk.Age == age {
			return bk
		}
	}
	return nil
}

// PromoteAge reports whether an object currently at the given young
// age has aged out of the nursery and must move to the mature bucket
// on its next surviving collection.
func PromoteAge(age int) bool { return age >= YoungBuckets-1 }

func (g *Generation) CountYoungBlockAllocation()  { g.youngBlockAllocations++ }
func (g *Generation) CountMatureBlockAllocation() { g.matureBlockAllocations++ }

func (g *Generation) YoungBlockAllocations() int  { return g.youngBlockAllocations }
func (g *Generation) MatureBlockAllocations() int { return g.matureBlockAllocations }

func (g *Generation) ResetMatureAllocations() { g.matureBlockAllocations = 0 }

// YoungBytes approximates the live young-generation size as the bytes
// backed by young blocks, the quantity the allocation-threshold
// safepoint compares against.
func (g *Generation) YoungBytes() int {
	blocks := 0
	for _, bk := range g.young {
		blocks += len(bk.blocks)
	}
	return blocks * BlockSize
}
