package process

import (
	"sync"

	"github.com/google/uuid"
)

// Registry assigns pids and tracks every live process in a pool.
type Registry struct {
	mu      sync.RWMutex
	next    uint64
	byIndex map[uint64]*Process
}

func NewRegistry() *Registry {
	return &Registry{byIndex: make(map[uint64]*Process)}
}

func (r *Registry) NextPid() Pid {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	return Pid{Index: r.next, ID: uuid.NewString()}
}

func (r *Registry) Add(p *Process) {
	r.mu.Lock()
	r.byIndex[p.Pid.Index] = p
	r.mu.Unlock()
}

func (r *Registry) Remove(pid Pid) {
	r.mu.Lock()
	delete(r.byIndex, pid.Index)
	r.mu.Unlock()
}

func (r *Registry) Get(pid Pid) (*Process, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byIndex[pid.Index]
	return p, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byIndex)
}
