package runtime

import (
	"fmt"

	"github.com/wippyai/grain-runtime/errors"
	"github.com/wippyai/grain-runtime/tags"
)

// IncRef bumps the reference count of a heap value and returns its
// argument. Safe to call on any tagged word; simple numbers, shorts, and
// constants are identity-counted.
func (rt *Runtime) IncRef(v uint32) uint32 {
	if !tags.IsPointer(v) {
		return v
	}
	c, ok := rt.refs[v]
	if !ok {
		rt.Panic(fmt.Sprintf("incRef of unknown heap pointer %#x", v))
	}
	rt.refs[v] = c + 1
	return v
}

// DecRef releases one reference. At zero the object's reference-carrying
// fields are released recursively, its finalizer (if any) fires, and the
// block returns to the allocator. Safe to call on any tagged word.
func (rt *Runtime) DecRef(v uint32) {
	if !tags.IsPointer(v) {
		return
	}
	c, ok := rt.refs[v]
	if !ok {
		rt.Panic(fmt.Sprintf("decRef of unknown heap pointer %#x", v))
	}
	if c > 1 {
		rt.refs[v] = c - 1
		return
	}
	rt.release(v)
}

// RefCount reports the current count of a heap value, or zero for
// non-heap words. Diagnostic.
func (rt *Runtime) RefCount(v uint32) int32 {
	return rt.refs[v]
}

// LiveObjects reports how many heap objects are currently registered.
// Diagnostic.
func (rt *Runtime) LiveObjects() int {
	return len(rt.refs)
}

// SetFinalizer registers a handler to run when v's count reaches zero.
// The target must be a heap object. Finalizers fire exactly once and must
// not resurrect the object.
func (rt *Runtime) SetFinalizer(v uint32, fn Finalizer) error {
	if !tags.IsPointer(v) {
		return errors.InvalidArgument(errors.PhaseRuntime,
			"finalizer target %#x is not a heap object", v)
	}
	if _, ok := rt.refs[v]; !ok {
		return errors.InvalidArgument(errors.PhaseRuntime,
			"finalizer target %#x is not live", v)
	}
	rt.finalizers[v] = fn
	return nil
}

func (rt *Runtime) release(v uint32) {
	// Fields first, then the finalizer, then the block.
	for _, child := range rt.children(v) {
		rt.DecRef(child)
	}
	if fn, ok := rt.finalizers[v]; ok {
		delete(rt.finalizers, v)
		fn(v)
	}
	delete(rt.refs, v)
	if err := rt.alloc.Free(v); err != nil {
		rt.Panic(err.Error())
	}
}

// children returns the reference-carrying fields of a heap object.
func (rt *Runtime) children(v uint32) []uint32 {
	kind := tags.HeapKind(rt.readU32(v))
	var base, arity uint32
	switch kind {
	case tags.KindTuple, tags.KindArray:
		arity = rt.readU32(v + tags.TupleArityOffset)
		base = v + tags.TuplePayloadOffset
	case tags.KindRecord:
		arity = rt.readU32(v + tags.RecordArityOffset)
		base = v + tags.RecordPayloadOffset
	case tags.KindADT:
		arity = rt.readU32(v + tags.ADTArityOffset)
		base = v + tags.ADTPayloadOffset
	case tags.KindLambda:
		arity = rt.readU32(v + tags.LambdaArityOffset)
		base = v + tags.LambdaPayloadOffset
	case tags.KindBoxedNumber:
		if tags.BoxedKind(rt.readU32(v+tags.BoxedSubTagOffset)) == tags.BoxedRational {
			return []uint32{
				rt.readU32(v + tags.RationalNumOffset),
				rt.readU32(v + tags.RationalDenOffset),
			}
		}
		return nil
	default:
		// Strings, bytes, and the scalar boxes carry no references.
		return nil
	}
	children := make([]uint32, 0, arity)
	for i := uint32(0); i < arity; i++ {
		children = append(children, rt.readU32(base+i*4))
	}
	return children
}
