package vm

import (
	"os"

	"github.com/sunholo/ailang/internal/bytecode"
	"github.com/sunholo/ailang/internal/heap"
	"github.com/sunholo/ailang/internal/process"
)

// BlockValue is the payload of a boxed language block: compiled code
// plus the binding it captured when SetBlock materialised it.
type BlockValue struct {
	Code    *bytecode.CompiledCode
	Binding *process.Binding
}

// FileValue wraps an open file handle together with the bounded mode
// it was opened with.
type FileValue struct {
	File *os.File
	Mode bytecode.FileMode
}

// Boxing helpers. Everything that is not a small integer lives in the
// owning process's young generation.

func box(p *process.Process, value interface{}) heap.ObjectPointer {
	return heap.FromObject(p.Allocator.NewYoung(value))
}

func boxString(p *process.Process, s string) heap.ObjectPointer  { return box(p, s) }
func boxFloat(p *process.Process, f float64) heap.ObjectPointer  { return box(p, f) }
func boxBytes(p *process.Process, b []byte) heap.ObjectPointer   { return box(p, b) }
func boxArray(p *process.Process, elems []heap.ObjectPointer) heap.ObjectPointer {
	return box(p, elems)
}

func boxBlock(p *process.Process, code *bytecode.CompiledCode, binding *process.Binding) heap.ObjectPointer {
	return box(p, &BlockValue{Code: code, Binding: binding})
}

func boxFile(p *process.Process, f *os.File, mode bytecode.FileMode) heap.ObjectPointer {
	return box(p, &FileValue{File: f, Mode: mode})
}

func asInt(ptr heap.ObjectPointer) (int64, bool) {
	if ptr.IsInteger() {
		return ptr.IntegerValue(), true
	}
	return 0, false
}

func asFloat(ptr heap.ObjectPointer) (float64, bool) {
	if ptr.IsInteger() {
		return float64(ptr.IntegerValue()), true
	}
	if obj := ptr.Object(); obj != nil {
		if f, ok := obj.Value.(float64); ok {
			return f, true
		}
	}
	return 0, false
}

func asString(ptr heap.ObjectPointer) (string, bool) {
	if obj := ptr.Object(); obj != nil {
		if s, ok := obj.Value.(string); ok {
			return s, true
		}
	}
	return "", false
}

func asBytes(ptr heap.ObjectPointer) ([]byte, bool) {
	if obj := ptr.Object(); obj != nil {
		if b, ok := obj.Value.([]byte); ok {
			return b, true
		}
	}
	return nil, false
}

// asArrayObject returns the boxed array's header so callers can
// mutate the element slice in place.
func asArrayObject(ptr heap.ObjectPointer) (*heap.Object, []heap.ObjectPointer, bool) {
	if obj := ptr.Object(); obj != nil {
		if elems, ok := obj.Value.([]heap.ObjectPointer); ok {
			return obj, elems, true
		}
	}
	return nil, nil, false
}

func asBlock(ptr heap.ObjectPointer) (*BlockValue, bool) {
	if obj := ptr.Object(); obj != nil {
		if b, ok := obj.Value.(*BlockValue); ok {
			return b, true
		}
	}
	return nil, false
}

func asFile(ptr heap.ObjectPointer) (*FileValue, bool) {
	if obj := ptr.Object(); obj != nil {
		if f, ok := obj.Value.(*FileValue); ok {
			return f, true
		}
	}
	return nil, false
}

func truthy(v heap.ObjectPointer) bool {
	if v.IsInteger() {
		return v.IntegerValue() != 0
	}
	return v.Object() != nil
}
