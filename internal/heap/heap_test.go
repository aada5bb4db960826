package heap

import "testing"

func TestBlockBumpOverflows(t *testing.T) {
	b := NewBlock()
	_, _, ok := b.Bump(BlockSize - 1)
	if !ok {
		t.Fatal("expected first bump to fit")
	}
	if _, _, ok := b.Bump(2); ok {
		t.Fatal("expected second bump to overflow")
	}
}

func TestGlobalAllocatorReuse(t *testing.T) {
	g := NewGlobalAllocator()
	b := g.RequestBlock()
	g.ReturnBlock(b)
	if got := g.RequestBlock(); got != b {
		t.Fatal("expected returned block to be reused")
	}
}

func TestLocalAllocatorPromotesAcrossAges(t *testing.T) {
	g := NewGlobalAllocator()
	la := NewLocalAllocator(g)
	young := la.NewYoung("hello")
	if young.Age != 0 {
		t.Fatalf("expected eden object age 0, got %d", young.Age)
	}
	mature := la.NewMature("world")
	if mature.Age != AgeMature {
		t.Fatalf("expected mature object age %d, got %d", AgeMature, mature.Age)
	}
}

func TestPromoteAge(t *testing.T) {
	if PromoteAge(0) {
		t.Fatal("age 0 should not promote yet")
	}
	if !PromoteAge(YoungBuckets - 1) {
		t.Fatal("oldest young age should promote")
	}
}

func TestObjectForwarding(t *testing.T) {
	o := NewObject(1)
	to := TaggedInt(5)
	if o.IsForwarded() {
		t.Fatal("fresh object must not be forwarded")
	}
	o.Forward(to)
	if !o.IsForwarded() {
		t.Fatal("expected object to report forwarded")
	}
	if o.ForwardedTo().IntegerValue() != 5 {
		t.Fatal("expected forwarding target to round-trip")
	}
}

func TestGlobalAllocatorRecyclesHoleyBlocks(t *testing.T) {
	g := NewGlobalAllocator()
	b := g.RequestBlock()
	// Simulate a swept block with one live line followed by a hole.
	b.MarkLine(0)
	g.ReturnBlock(b)
	if g.RecyclableBlocks() != 1 {
		t.Fatalf("expected a holey block on the recyclable pool, got %d", g.RecyclableBlocks())
	}
	if got := g.RequestBlock(); got != b {
		t.Fatal("expected the recyclable block to be handed out first")
	}
}

func TestBucketAllocateForMutatorReportsNewBlock(t *testing.T) {
	g := NewGlobalAllocator()
	bk := NewBucket(0)
	newBlock, _, _, _ := bk.AllocateForMutator(g, 64)
	if !newBlock {
		t.Fatal("first allocation must request a block")
	}
	newBlock, _, _, _ = bk.AllocateForMutator(g, 64)
	if newBlock {
		t.Fatal("second small allocation must reuse the current block")
	}
	newBlock, _, _, _ = bk.AllocateForMutator(g, BlockSize)
	if !newBlock {
		t.Fatal("oversized allocation must spill into a fresh block")
	}
}

func TestIncrementAgesRotatesEdenAndMarksPromotion(t *testing.T) {
	gen := NewGeneration()
	eden := gen.Eden()
	if eden.Age != 0 {
		t.Fatalf("expected eden age 0, got %d", eden.Age)
	}
	gen.IncrementAges()
	if eden.Age != 1 {
		t.Fatalf("expected old eden to age to 1, got %d", eden.Age)
	}
	if gen.Eden() == eden {
		t.Fatal("expected a different bucket to become eden")
	}
	gen.IncrementAges()
	if eden.Age != 2 || !eden.Promote {
		t.Fatalf("expected the original eden to reach max age with the promote flag set, got age=%d promote=%v", eden.Age, eden.Promote)
	}
}

func TestPrepareForCollectionFlagsFragmentedBlocks(t *testing.T) {
	g := NewGlobalAllocator()
	bk := NewBucket(0)

	sparse := g.RequestBlock()
	sparse.MarkLine(0)
	sparse.MarkLine(5)
	bk.AddBlock(sparse)

	dense := g.RequestBlock()
	for i := 0; i < LinesPerBlock; i++ {
		dense.MarkLine(i)
	}
	bk.AddBlock(dense)

	bk.PrepareForCollection(true)
	if !sparse.Fragmented {
		t.Fatal("expected the sparse block to be an evacuation candidate")
	}
	if dense.Fragmented {
		t.Fatal("a fully live block must never be evacuated")
	}
}

func TestReturnEmptyBlocksSweeps(t *testing.T) {
	g := NewGlobalAllocator()
	bk := NewBucket(0)
	dead := g.RequestBlock()
	bk.AddBlock(dead)
	live := g.RequestBlock()
	live.MarkLine(0)
	bk.AddBlock(live)

	freed := bk.ReturnEmptyBlocks(g)
	if freed != 1 {
		t.Fatalf("expected 1 freed block, got %d", freed)
	}
	if len(bk.Blocks()) != 1 || bk.Blocks()[0] != live {
		t.Fatal("expected only the live block to remain")
	}
}
