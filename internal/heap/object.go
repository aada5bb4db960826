// Package heap implements the per-process Immix-style heap: blocks,
// lines, generation buckets, and the global block allocator. Objects live in generations: three young age buckets (ages 0,
// 1, 2, rotating via an eden index), a mature bucket (age -1), and a
// process-global permanent arena (age -2).
package heap

import "sync/atomic"

// Status tags what a tracer must do with an object it is about to visit.
type Status int32

const (
	StatusNone Status = iota
	StatusResolve
	StatusPromote
	StatusEvacuate
	StatusPendingMove
)

// ObjectPointer is a machine word whose low bit tags small integers;
// otherwise it points at an Object header. Modeled here as a pointer
// wrapper rather than a raw uintptr since Go doesn't allow tagged
// pointers into its managed heap; the low-bit-tag invariant is
// preserved logically via IsInteger/IntegerValue instead.
type ObjectPointer struct {
	obj     *Object
	tagged  bool
	intVal  int64
}

func TaggedInt(v int64) ObjectPointer { return ObjectPointer{tagged: true, intVal: v} }
func FromObject(o *Object) ObjectPointer { return ObjectPointer{obj: o} }

func (p ObjectPointer) IsInteger() bool   { return p.tagged }
func (p ObjectPointer) IntegerValue() int64 { return p.intVal }
func (p ObjectPointer) Object() *Object   { return p.obj }
func (p ObjectPointer) IsNil() bool       { return !p.tagged && p.obj == nil }

// Object is a heap object header: a prototype link, an attribute map,
// a value slot (for boxed primitives/strings/arrays), and mark bits.
// Forwarding during evacuation replaces Forward and sets the forward
// bit.
type Object struct {
	Prototype ObjectPointer
	Attrs     map[string]ObjectPointer
	Value     interface{}

	marked    int32 // atomic
	status    int32 // atomic Status
	forward   ObjectPointer
	forwarded int32 // atomic bool

	Age   int     // which bucket generation this object currently lives in; -1 = mature, -2 = permanent
	Block *Block  // the Immix block this object's slot accounting lives in
	Line  int     // the line within Block the object's slot starts on
	Home  *Bucket // the bucket the object was last allocated/moved into
}

func NewObject(value interface{}) *Object {
	return &Object{Value: value, Attrs: make(map[string]ObjectPointer)}
}

func (o *Object) Mark() bool {
	return atomic.CompareAndSwapInt32(&o.marked, 0, 1)
}

func (o *Object) IsMarked() bool {
	return atomic.LoadInt32(&o.marked) == 1
}

func (o *Object) ResetMark() {
	atomic.StoreInt32(&o.marked, 0)
}

func (o *Object) SetStatus(s Status) {
	atomic.StoreInt32(&o.status, int32(s))
}

// BeginMove claims this object for promotion/evacuation by moving its
// status from None to PendingMove. Only the winning worker performs the
// copy; racing workers observe PendingMove and re-enqueue the pointer
// until the installer publishes Resolve.
func (o *Object) BeginMove() bool {
	return atomic.CompareAndSwapInt32(&o.status, int32(StatusNone), int32(StatusPendingMove))
}

func (o *Object) GetStatus() Status {
	return Status(atomic.LoadInt32(&o.status))
}

// Forward installs the forwarding pointer and publishes it with a
// release-ordered store: any
// worker observing `forwarded == 1` is guaranteed to see the finished
// `forward` value, because the atomic store happens after the plain
// write.
func (o *Object) Forward(to ObjectPointer) {
	o.forward = to
	atomic.StoreInt32(&o.forwarded, 1)
}

func (o *Object) IsForwarded() bool {
	return atomic.LoadInt32(&o.forwarded) == 1
}

func (o *Object) ForwardedTo() ObjectPointer {
	return o.forward
}
