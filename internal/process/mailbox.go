package process

import (
	"sync"

	"github.com/sunholo/ailang/internal/heap"
)

// Mailbox is a lock-protected FIFO of pointers sent by other processes.
type Mailbox struct {
	mu    sync.Mutex
	queue []heap.ObjectPointer
}

func NewMailbox() *Mailbox { return &Mailbox{} }

func (m *Mailbox) Send(v heap.ObjectPointer) {
	m.mu.Lock()
	m.queue = append(m.queue, v)
	m.mu.Unlock()
}

// Receive pops the oldest message, reporting ok=false on an empty
// mailbox so the caller can suspend the process.
func (m *Mailbox) Receive() (heap.ObjectPointer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return heap.ObjectPointer{}, false
	}
	v := m.queue[0]
	m.queue = m.queue[1:]
	return v, true
}

// Snapshot copies the queued messages for the GC root scan. The lock
// is held just long enough to freeze the mailbox's root set.
func (m *Mailbox) Snapshot() []heap.ObjectPointer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]heap.ObjectPointer(nil), m.queue...)
}

func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
