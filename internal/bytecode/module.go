package bytecode

import "sync/atomic"

// Module holds a name, its compiled code object, a global scope, a
// literal table, and an atomic "executed-once" flag.
type Module struct {
	Name       string
	SourcePath string
	Code       *CompiledCode
	Literals   *ConstantCache

	globals    []interface{}
	globalIdx  map[string]int
	executed   int32 // atomic: 0 = not yet run, 1 = run
}

func NewModule(name, sourcePath string, code *CompiledCode, literals *ConstantCache) *Module {
	return &Module{
		Name:       name,
		SourcePath: sourcePath,
		Code:       code,
		Literals:   literals,
		globalIdx:  make(map[string]int),
	}
}

// DefineGlobal reserves a slot for a module-level global, returning its
// index (stable for the module's lifetime).
func (m *Module) DefineGlobal(name string) int {
	if idx, ok := m.globalIdx[name]; ok {
		return idx
	}
	idx := len(m.globals)
	m.globals = append(m.globals, nil)
	m.globalIdx[name] = idx
	return idx
}

func (m *Module) GlobalIndex(name string) (int, bool) {
	idx, ok := m.globalIdx[name]
	return idx, ok
}

func (m *Module) GetGlobal(idx int) interface{} { return m.globals[idx] }
func (m *Module) SetGlobal(idx int, v interface{}) { m.globals[idx] = v }

// MarkExecuted performs the first-loader-runs CAS: returns true only for the caller that actually
// transitions the flag, i.e. the caller that must run the initializer.
func (m *Module) MarkExecuted() (firstRunner bool) {
	return atomic.CompareAndSwapInt32(&m.executed, 0, 1)
}

func (m *Module) Executed() bool {
	return atomic.LoadInt32(&m.executed) == 1
}
