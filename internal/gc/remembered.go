package gc

import (
	"sync"

	"github.com/sunholo/ailang/internal/heap"
)

// RememberedSet holds mature-to-young back-pointers: when
// the tracer promotes an object whose payload still references a
// young object, that pointer is recorded here so the next minor
// collection can treat it as an extra root without re-scanning the
// whole mature generation.
type RememberedSet struct {
	mu      sync.Mutex
	pointers map[*heap.Object]bool
}

func NewRememberedSet() *RememberedSet {
	return &RememberedSet{pointers: make(map[*heap.Object]bool)}
}

func (r *RememberedSet) Add(o *heap.Object) {
	r.mu.Lock()
	r.pointers[o] = true
	r.mu.Unlock()
}

func (r *RememberedSet) Remove(o *heap.Object) {
	r.mu.Lock()
	delete(r.pointers, o)
	r.mu.Unlock()
}

func (r *RememberedSet) Contains(o *heap.Object) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pointers[o]
}

func (r *RememberedSet) Roots() []*heap.Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*heap.Object, 0, len(r.pointers))
	for o := range r.pointers {
		out = append(out, o)
	}
	return out
}

// Prune drops entries for objects no longer marked, called at the end
// of a mature collection cycle.
func (r *RememberedSet) Prune() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for o := range r.pointers {
		if !o.IsMarked() {
			delete(r.pointers, o)
		}
	}
}

func (r *RememberedSet) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pointers)
}
