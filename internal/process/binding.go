// Package process implements the per-process runtime state:
// execution contexts, bindings, mailboxes, and
// the process itself.
package process

import "github.com/sunholo/ailang/internal/heap"

// Binding is a local scope: a flat slot array plus an optional parent,
// forming a singly linked chain. A closure's binding may outlive the
// frame that created it, so bindings are heap-allocated independently
// of ExecutionContext.
type Binding struct {
	Parent *Binding
	Locals []heap.ObjectPointer
}

func NewBinding(localCount int, parent *Binding) *Binding {
	return &Binding{Parent: parent, Locals: make([]heap.ObjectPointer, localCount)}
}

func (b *Binding) Get(index int) heap.ObjectPointer { return b.Locals[index] }
func (b *Binding) Set(index int, v heap.ObjectPointer) { b.Locals[index] = v }

// Depth counts how many ancestors this binding has, used when a block
// return must unwind contexts up to the one whose binding matches the
// capturing block's top binding.
func (b *Binding) Depth() int {
	d := 0
	for p := b.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}
