package runtime

import (
	"github.com/wippyai/grain-runtime/errors"
	"github.com/wippyai/grain-runtime/meta"
	"github.com/wippyai/grain-runtime/tags"
	"github.com/wippyai/grain-runtime/usv"
)

// Value constructors. Every constructor returns a value owned by the
// caller: its count is already one. Field arguments are stored as-is; the
// constructor takes over the caller's reference to each field.

// NewString allocates a string object holding s. s must be valid UTF-8;
// callers converting raw bytes go through BytesToString.
func (rt *Runtime) NewString(s string) uint32 {
	ptr := rt.allocObject(tags.KindString, tags.BytesPayloadOffset+uint32(len(s)))
	rt.writeU32(ptr+tags.BytesLengthOffset, uint32(len(s)))
	rt.writeBytes(ptr+tags.BytesPayloadOffset, []byte(s))
	return ptr
}

// NewBytesFrom allocates a bytes object holding a copy of b.
func (rt *Runtime) NewBytesFrom(b []byte) uint32 {
	ptr := rt.allocObject(tags.KindBytes, tags.BytesPayloadOffset+uint32(len(b)))
	rt.writeU32(ptr+tags.BytesLengthOffset, uint32(len(b)))
	rt.writeBytes(ptr+tags.BytesPayloadOffset, b)
	return ptr
}

// StringValue copies a string object's payload out as a Go string.
func (rt *Runtime) StringValue(v uint32) (string, error) {
	kind, ok := rt.HeapKindOf(v)
	if !ok || (kind != tags.KindString && kind != tags.KindBytes) {
		return "", errors.InvalidArgument(errors.PhaseRuntime, "%#x is not a string", v)
	}
	n := rt.readU32(v + tags.BytesLengthOffset)
	return string(rt.readBytes(v+tags.BytesPayloadOffset, n)), nil
}

// NewTuple allocates a tuple from its fields.
func (rt *Runtime) NewTuple(fields ...uint32) uint32 {
	ptr := rt.allocObject(tags.KindTuple, tags.TuplePayloadOffset+4*uint32(len(fields)))
	rt.writeU32(ptr+tags.TupleArityOffset, uint32(len(fields)))
	for i, f := range fields {
		rt.writeU32(ptr+tags.TuplePayloadOffset+4*uint32(i), f)
	}
	return ptr
}

// NewArray allocates a mutable array from its elements.
func (rt *Runtime) NewArray(elems ...uint32) uint32 {
	ptr := rt.allocObject(tags.KindArray, tags.TuplePayloadOffset+4*uint32(len(elems)))
	rt.writeU32(ptr+tags.TupleArityOffset, uint32(len(elems)))
	for i, e := range elems {
		rt.writeU32(ptr+tags.TuplePayloadOffset+4*uint32(i), e)
	}
	return ptr
}

// NewRecord allocates a record value.
func (rt *Runtime) NewRecord(moduleHash, typeHash uint32, fields ...uint32) uint32 {
	ptr := rt.allocObject(tags.KindRecord, tags.RecordPayloadOffset+4*uint32(len(fields)))
	rt.writeU32(ptr+tags.RecordModuleHashOffset, moduleHash)
	rt.writeU32(ptr+tags.RecordTypeHashOffset, typeHash)
	rt.writeU32(ptr+tags.RecordArityOffset, uint32(len(fields)))
	for i, f := range fields {
		rt.writeU32(ptr+tags.RecordPayloadOffset+4*uint32(i), f)
	}
	return ptr
}

// NewVariant allocates an ADT variant value.
func (rt *Runtime) NewVariant(typeHash, typeID, variantID uint32, fields ...uint32) uint32 {
	ptr := rt.allocObject(tags.KindADT, tags.ADTPayloadOffset+4*uint32(len(fields)))
	rt.writeU32(ptr+tags.ADTTypeHashOffset, typeHash)
	rt.writeU32(ptr+tags.ADTTypeIDOffset, typeID)
	rt.writeU32(ptr+tags.ADTVariantOffset, variantID)
	rt.writeU32(ptr+tags.ADTArityOffset, uint32(len(fields)))
	for i, f := range fields {
		rt.writeU32(ptr+tags.ADTPayloadOffset+4*uint32(i), f)
	}
	return ptr
}

// NewClosure allocates a closure over a function index and its captures.
func (rt *Runtime) NewClosure(funcIndex uint32, captures ...uint32) uint32 {
	ptr := rt.allocObject(tags.KindLambda, tags.LambdaPayloadOffset+4*uint32(len(captures)))
	rt.writeU32(ptr+tags.LambdaArityOffset, uint32(len(captures)))
	rt.writeU32(ptr+tags.LambdaFuncOffset, funcIndex)
	for i, c := range captures {
		rt.writeU32(ptr+tags.LambdaPayloadOffset+4*uint32(i), c)
	}
	return ptr
}

// MakeChar encodes a Unicode scalar as a tagged char.
func (rt *Runtime) MakeChar(r rune) (uint32, error) {
	if !usv.IsScalar(r) {
		return 0, errors.InvalidArgument(errors.PhaseRuntime,
			"U+%04X is not a Unicode scalar value", r)
	}
	return tags.MakeShort(tags.ShortChar, uint32(r)), nil
}

// Array accessors. Arrays are the only compound with user-facing indexed
// mutation; both directions are bounds-checked.

// ArrayLength reads an array's element count.
func (rt *Runtime) ArrayLength(arr uint32) (uint32, error) {
	if kind, ok := rt.HeapKindOf(arr); !ok || kind != tags.KindArray {
		return 0, errors.InvalidArgument(errors.PhaseRuntime, "%#x is not an array", arr)
	}
	return rt.readU32(arr + tags.TupleArityOffset), nil
}

// ArrayGet returns the element at index i with the caller owning a fresh
// reference.
func (rt *Runtime) ArrayGet(i int64, arr uint32) (uint32, error) {
	n, err := rt.ArrayLength(arr)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= int64(n) {
		return 0, errors.IndexOutOfBounds(errors.PhaseRuntime, i, int64(n))
	}
	return rt.IncRef(rt.readU32(arr + tags.TuplePayloadOffset + 4*uint32(i))), nil
}

// ArraySet replaces the element at index i, releasing the old element and
// taking over the caller's reference to v.
func (rt *Runtime) ArraySet(i int64, v, arr uint32) error {
	n, err := rt.ArrayLength(arr)
	if err != nil {
		return err
	}
	if i < 0 || i >= int64(n) {
		return errors.IndexOutOfBounds(errors.PhaseRuntime, i, int64(n))
	}
	slot := arr + tags.TuplePayloadOffset + 4*uint32(i)
	old := rt.readU32(slot)
	rt.writeU32(slot, v)
	rt.DecRef(old)
	return nil
}

// TupleGet reads a tuple field without transferring ownership.
func (rt *Runtime) TupleGet(i uint32, tup uint32) uint32 {
	return rt.readU32(tup + tags.TuplePayloadOffset + 4*i)
}

// Built-in constructors used by compiled Pervasives and by hosts.

var builtinHashes = struct {
	list, option, result, rangeT, exception uint32
}{
	list:      meta.HashTypeName("Pervasives.List"),
	option:    meta.HashTypeName("Pervasives.Option"),
	result:    meta.HashTypeName("Pervasives.Result"),
	rangeT:    meta.HashTypeName("Pervasives.Range"),
	exception: meta.HashTypeName("Pervasives.Exception"),
}

// NewNone returns Option.None.
func (rt *Runtime) NewNone() uint32 {
	return rt.NewVariant(builtinHashes.option, tags.BuiltinOption, tags.VariantOptionNone)
}

// NewSome wraps v in Option.Some.
func (rt *Runtime) NewSome(v uint32) uint32 {
	return rt.NewVariant(builtinHashes.option, tags.BuiltinOption, tags.VariantOptionSome, v)
}

// NewOk wraps v in Result.Ok.
func (rt *Runtime) NewOk(v uint32) uint32 {
	return rt.NewVariant(builtinHashes.result, tags.BuiltinResult, tags.VariantResultOk, v)
}

// NewErr wraps e in Result.Err.
func (rt *Runtime) NewErr(e uint32) uint32 {
	return rt.NewVariant(builtinHashes.result, tags.BuiltinResult, tags.VariantResultErr, e)
}

// NewList builds a proper list from elems, consuming one reference per
// element.
func (rt *Runtime) NewList(elems ...uint32) uint32 {
	acc := rt.NewVariant(builtinHashes.list, tags.BuiltinList, tags.VariantListNil)
	for i := len(elems) - 1; i >= 0; i-- {
		acc = rt.NewVariant(builtinHashes.list, tags.BuiltinList, tags.VariantListCons, elems[i], acc)
	}
	return acc
}
