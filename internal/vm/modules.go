package vm

import (
	"sync"

	"github.com/sunholo/ailang/internal/bytecode"
)

// ModuleRegistry is reader-writer-locked; each module's executed flag
// is its own atomic CAS so first-loader-runs semantics hold without
// holding the registry lock during execution.
type ModuleRegistry struct {
	mu      sync.RWMutex
	modules map[string]*bytecode.Module
}

func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{modules: make(map[string]*bytecode.Module)}
}

func (r *ModuleRegistry) Register(m *bytecode.Module) {
	r.mu.Lock()
	r.modules[m.Name] = m
	r.mu.Unlock()
}

func (r *ModuleRegistry) Get(name string) (*bytecode.Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}
