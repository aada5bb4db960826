package process

import (
	"github.com/sunholo/ailang/internal/bytecode"
	"github.com/sunholo/ailang/internal/heap"
)

// ExecutionContext is one in-flight call: the code being run, its
// binding, a register file, the receiver, and the instruction cursor.
// Processes keep a stack of these, one per nested RunBlock/SendMessage.
type ExecutionContext struct {
	Code             *bytecode.CompiledCode
	Module           *bytecode.Module
	Binding          *Binding
	Registers        []heap.ObjectPointer
	Receiver         heap.ObjectPointer
	InstructionIndex int
	ReturnRegister   int

	// CapturedBinding is non-nil only for contexts created by running a
	// capturing block; block-return unwinding stops at the first
	// context whose Binding equals the capturing block's top binding.
	CapturedBinding *Binding
}

func NewExecutionContext(code *bytecode.CompiledCode, binding *Binding, receiver heap.ObjectPointer, returnRegister int) *ExecutionContext {
	return &ExecutionContext{
		Code:           code,
		Binding:        binding,
		Registers:      make([]heap.ObjectPointer, code.RegistersCount),
		Receiver:       receiver,
		ReturnRegister: returnRegister,
	}
}

func (c *ExecutionContext) GetRegister(i int) heap.ObjectPointer   { return c.Registers[i] }
func (c *ExecutionContext) SetRegister(i int, v heap.ObjectPointer) { c.Registers[i] = v }

func (c *ExecutionContext) GetLocal(i int) heap.ObjectPointer   { return c.Binding.Get(i) }
func (c *ExecutionContext) SetLocal(i int, v heap.ObjectPointer) { c.Binding.Set(i, v) }

// TailReset clears locals and registers and rewinds the instruction
// cursor, implementing `TailCall` without allocating a new frame.
func (c *ExecutionContext) TailReset(code *bytecode.CompiledCode) {
	c.Code = code
	c.Binding = NewBinding(code.LocalsCount, nil)
	c.Registers = make([]heap.ObjectPointer, code.RegistersCount)
	c.InstructionIndex = 0
}

// Fetch returns the instruction at the current cursor and advances it,
// or ok=false when the context has run off the end of its code block.
func (c *ExecutionContext) Fetch() (bytecode.Instruction, bool) {
	if c.InstructionIndex >= len(c.Code.Instructions) {
		return bytecode.Instruction{}, false
	}
	in := c.Code.Instructions[c.InstructionIndex]
	c.InstructionIndex++
	return in, true
}

// Rewind moves the cursor back one instruction, used when
// ReceiveProcessMessage finds an empty mailbox so the same opcode
// re-executes on resume.
func (c *ExecutionContext) Rewind() {
	if c.InstructionIndex > 0 {
		c.InstructionIndex--
	}
}
