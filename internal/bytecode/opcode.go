// Package bytecode models the instruction set, compiled-code blocks,
// modules, and literal pools the VM loop dispatches. Bytecode files
// are read elsewhere; this package only models the in-memory
// representation a loader would populate.
package bytecode

// Opcode enumerates every instruction family the VM dispatches on. Exact
// arithmetic/IO opcode semantics are summarized, not enumerated
// instruction-by-instruction.
type Opcode int

const (
	// Register/literal moves
	OpSetInt Opcode = iota
	OpSetFloat
	OpSetString
	OpSetBool
	OpSetBlock
	OpSetNil
	OpMoveRegister
	OpSetLocal
	OpGetLocal
	OpSetGlobal
	OpGetGlobal
	OpSetModuleGlobal
	OpGetModuleGlobal

	// Arithmetic & comparison
	OpIntAdd
	OpIntSub
	OpIntMul
	OpIntDiv
	OpIntMod
	OpIntLt
	OpIntGt
	OpIntEq
	OpFloatAdd
	OpFloatSub
	OpFloatMul
	OpFloatDiv
	OpFloatLt
	OpFloatGt
	OpFloatEq

	// Array/string
	OpArrayInsert
	OpArrayAt
	OpArrayRemove
	OpArrayLength
	OpArrayClear
	OpStringToBytes
	OpBytesToString
	OpStringLower
	OpStringUpper
	OpStringLength
	OpStringSize

	// IO
	OpStdinRead
	OpStdoutWrite
	OpStderrWrite
	OpFileOpen
	OpFileRead
	OpFileReadLine
	OpFileReadExact
	OpFileWrite
	OpFileSeek
	OpFileFlush
	OpFileSize

	// Control flow
	OpGoto
	OpGotoIfTrue
	OpGotoIfFalse
	OpReturn
	OpThrow
	OpRunBlock
	OpTailCall
	OpSendMessage
	OpLoadModule

	// Object model
	OpSetAttribute
	OpGetAttribute
	OpHasAttribute
	OpRemoveAttribute
	OpGetPrototype
	OpSetPrototype
	OpGetAttributeNames
	OpRespondsTo
	OpObjectEquals
	OpCaptureBinding

	// Process primitives
	OpSpawnProcess
	OpSendProcessMessage
	OpReceiveProcessMessage
	OpGetCurrentPid

	// Time
	OpMonotonicNanos
	OpMonotonicMillis
)

// FileMode is the bounded IO-file-open mode enum.
type FileMode int

const (
	FileReadOnly FileMode = iota
	FileWriteOnly
	FileAppend
	FileReadWrite
	FileReadAppend
)

// ReturnKind distinguishes a regular Return from a block return.
type ReturnKind int

const (
	ReturnNormal ReturnKind = iota
	ReturnFromBlock
)
