package process

import (
	"testing"

	"github.com/sunholo/ailang/internal/bytecode"
	"github.com/sunholo/ailang/internal/heap"
)

func TestMailboxFIFO(t *testing.T) {
	m := NewMailbox()
	m.Send(heap.TaggedInt(1))
	m.Send(heap.TaggedInt(2))
	v, ok := m.Receive()
	if !ok || v.IntegerValue() != 1 {
		t.Fatalf("expected first message to be 1, got %v", v)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 message left, got %d", m.Len())
	}
}

func TestReceiveOnEmptyMailbox(t *testing.T) {
	m := NewMailbox()
	if _, ok := m.Receive(); ok {
		t.Fatal("expected receive on empty mailbox to fail")
	}
}

func TestContextRewindOnEmptyReceive(t *testing.T) {
	code := &bytecode.CompiledCode{
		RegistersCount: 1,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpReceiveProcessMessage},
		},
	}
	ctx := NewExecutionContext(code, NewBinding(0, nil), heap.ObjectPointer{}, 0)
	_, ok := ctx.Fetch()
	if !ok {
		t.Fatal("expected to fetch the single instruction")
	}
	if ctx.InstructionIndex != 1 {
		t.Fatalf("expected cursor to advance to 1, got %d", ctx.InstructionIndex)
	}
	ctx.Rewind()
	if ctx.InstructionIndex != 0 {
		t.Fatalf("expected rewind to restore cursor to 0, got %d", ctx.InstructionIndex)
	}
}

func TestReductionsExhausted(t *testing.T) {
	global := heap.NewGlobalAllocator()
	reg := NewRegistry()
	p := New(reg.NextPid(), "primary", global, 2)
	code := &bytecode.CompiledCode{RegistersCount: 0, LocalsCount: 0}
	p.PushContext(NewExecutionContext(code, NewBinding(0, nil), heap.ObjectPointer{}, 0))
	p.PushContext(NewExecutionContext(code, NewBinding(0, nil), heap.ObjectPointer{}, 0))

	if p.ReductionsExhausted() {
		t.Fatal("reductions should not be exhausted yet")
	}
	p.PopContext()
	p.PopContext()
	if !p.ReductionsExhausted() {
		t.Fatal("expected reductions to be exhausted after 2 pops")
	}
	p.ResetReductions()
	if p.ReductionsExhausted() {
		t.Fatal("expected reset to restore reduction budget")
	}
}

func TestRegistryAssignsUniquePids(t *testing.T) {
	reg := NewRegistry()
	a := reg.NextPid()
	b := reg.NextPid()
	if a.Index == b.Index {
		t.Fatal("expected distinct pid indices")
	}
	if a.ID == b.ID {
		t.Fatal("expected distinct pid uuids")
	}
}
