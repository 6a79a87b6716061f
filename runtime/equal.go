package runtime

import (
	"github.com/wippyai/grain-runtime/tags"
)

// Structural equality and ordering over tagged value graphs.

// valueClass buckets kinds for cross-kind comparison. Numbers form one
// class regardless of representation; everything else compares within its
// own class and orders across classes by ascending class rank.
type valueClass int

const (
	classNumber valueClass = iota
	classShort             // Int8/Uint8/Int16/Uint16, per sub-kind
	classChar
	classBool
	classVoid
	classUnit
	classString
	classBytes
	classTuple
	classArray
	classRecord
	classADT
	classLambda
)

func (rt *Runtime) classOf(v uint32) valueClass {
	if tags.IsSimpleNumber(v) {
		return classNumber
	}
	if tags.IsShort(v) {
		if tags.ShortKindOf(v) == tags.ShortChar {
			return classChar
		}
		return classShort
	}
	if tags.IsConst(v) {
		switch v {
		case tags.ValueTrue, tags.ValueFalse:
			return classBool
		case tags.ValueVoid:
			return classVoid
		default:
			return classUnit
		}
	}
	kind, _ := rt.HeapKindOf(v)
	switch kind {
	case tags.KindString:
		return classString
	case tags.KindBytes:
		return classBytes
	case tags.KindTuple:
		return classTuple
	case tags.KindArray:
		return classArray
	case tags.KindRecord:
		return classRecord
	case tags.KindADT:
		return classADT
	case tags.KindLambda:
		return classLambda
	default:
		return classNumber // Int32/Uint32/Float32 boxes and boxed numbers
	}
}

type ptrPair struct{ a, b uint32 }

// Equal reports whether a and b have the same kind and observable
// content. Mutable structures may form cycles; a re-entered pair is
// treated as equal, bisimulation-style.
func (rt *Runtime) Equal(a, b uint32) bool {
	return rt.equalRec(a, b, make(map[ptrPair]bool))
}

func (rt *Runtime) equalRec(a, b uint32, visiting map[ptrPair]bool) bool {
	// Identical words: simple numbers, shorts, constants, shared pointers.
	if a == b {
		return true
	}

	ca, cb := rt.classOf(a), rt.classOf(b)
	if ca == classNumber && cb == classNumber {
		return rt.NumberEqual(a, b)
	}
	if ca != cb {
		return false
	}
	if !tags.IsPointer(a) || !tags.IsPointer(b) {
		// Non-heap values of the same class compare by word, which the
		// shortcut above already rejected.
		return false
	}

	switch ca {
	case classString, classBytes:
		return rt.bytesEqual(a, b)
	case classLambda:
		// Closures compare only by identity.
		return false
	case classTuple, classArray:
		pair := ptrPair{a, b}
		if visiting[pair] {
			return true
		}
		visiting[pair] = true
		defer delete(visiting, pair)
		na := rt.readU32(a + tags.TupleArityOffset)
		nb := rt.readU32(b + tags.TupleArityOffset)
		if na != nb {
			return false
		}
		for i := uint32(0); i < na; i++ {
			if !rt.equalRec(rt.readU32(a+tags.TuplePayloadOffset+4*i),
				rt.readU32(b+tags.TuplePayloadOffset+4*i), visiting) {
				return false
			}
		}
		return true
	case classRecord:
		pair := ptrPair{a, b}
		if visiting[pair] {
			return true
		}
		visiting[pair] = true
		defer delete(visiting, pair)
		if rt.readU32(a+tags.RecordModuleHashOffset) != rt.readU32(b+tags.RecordModuleHashOffset) ||
			rt.readU32(a+tags.RecordTypeHashOffset) != rt.readU32(b+tags.RecordTypeHashOffset) {
			return false
		}
		na := rt.readU32(a + tags.RecordArityOffset)
		if na != rt.readU32(b+tags.RecordArityOffset) {
			return false
		}
		for i := uint32(0); i < na; i++ {
			if !rt.equalRec(rt.readU32(a+tags.RecordPayloadOffset+4*i),
				rt.readU32(b+tags.RecordPayloadOffset+4*i), visiting) {
				return false
			}
		}
		return true
	case classADT:
		if rt.readU32(a+tags.ADTTypeHashOffset) != rt.readU32(b+tags.ADTTypeHashOffset) ||
			rt.readU32(a+tags.ADTVariantOffset) != rt.readU32(b+tags.ADTVariantOffset) {
			return false
		}
		na := rt.readU32(a + tags.ADTArityOffset)
		if na != rt.readU32(b+tags.ADTArityOffset) {
			return false
		}
		for i := uint32(0); i < na; i++ {
			if !rt.equalRec(rt.readU32(a+tags.ADTPayloadOffset+4*i),
				rt.readU32(b+tags.ADTPayloadOffset+4*i), visiting) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (rt *Runtime) bytesEqual(a, b uint32) bool {
	na := rt.readU32(a + tags.BytesLengthOffset)
	nb := rt.readU32(b + tags.BytesLengthOffset)
	if na != nb {
		return false
	}
	pa := rt.readBytes(a+tags.BytesPayloadOffset, na)
	pb := rt.readBytes(b+tags.BytesPayloadOffset, nb)
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

// Compare returns a negative, zero, or positive result, extending
// equality with a lexicographic field order and ascending class rank for
// mismatched kinds. NaN sorts after +Inf to keep the order total.
func (rt *Runtime) Compare(a, b uint32) int {
	return rt.compareRec(a, b, make(map[ptrPair]bool))
}

func (rt *Runtime) compareRec(a, b uint32, visiting map[ptrPair]bool) int {
	if a == b {
		return 0
	}

	ca, cb := rt.classOf(a), rt.classOf(b)
	if ca == classNumber && cb == classNumber {
		na, _ := rt.numericOf(a)
		nb, _ := rt.numericOf(b)
		if c, ok := numericCompare(na, nb); ok {
			return c
		}
		// NaN involved: NaN sorts above everything, two NaNs tie.
		switch {
		case na.nan() && nb.nan():
			return 0
		case na.nan():
			return 1
		default:
			return -1
		}
	}
	if ca != cb {
		return int(ca) - int(cb)
	}

	switch ca {
	case classShort:
		if ka, kb := tags.ShortKindOf(a), tags.ShortKindOf(b); ka != kb {
			return int(ka) - int(kb)
		}
		return cmpInt64(int64(tags.ShortSigned(a)), int64(tags.ShortSigned(b)))
	case classChar:
		return cmpInt64(int64(tags.CharValue(a)), int64(tags.CharValue(b)))
	case classBool, classVoid, classUnit:
		return cmpInt64(int64(a), int64(b))
	case classString, classBytes:
		return rt.bytesCompare(a, b)
	case classLambda:
		return cmpInt64(int64(a), int64(b))
	case classTuple, classArray:
		pair := ptrPair{a, b}
		if visiting[pair] {
			return 0
		}
		visiting[pair] = true
		defer delete(visiting, pair)
		na := rt.readU32(a + tags.TupleArityOffset)
		nb := rt.readU32(b + tags.TupleArityOffset)
		if na != nb {
			return cmpInt64(int64(na), int64(nb))
		}
		for i := uint32(0); i < na; i++ {
			if c := rt.compareRec(rt.readU32(a+tags.TuplePayloadOffset+4*i),
				rt.readU32(b+tags.TuplePayloadOffset+4*i), visiting); c != 0 {
				return c
			}
		}
		return 0
	case classRecord:
		pair := ptrPair{a, b}
		if visiting[pair] {
			return 0
		}
		visiting[pair] = true
		defer delete(visiting, pair)
		if c := cmpInt64(int64(rt.readU32(a+tags.RecordModuleHashOffset)),
			int64(rt.readU32(b+tags.RecordModuleHashOffset))); c != 0 {
			return c
		}
		if c := cmpInt64(int64(rt.readU32(a+tags.RecordTypeHashOffset)),
			int64(rt.readU32(b+tags.RecordTypeHashOffset))); c != 0 {
			return c
		}
		na := rt.readU32(a + tags.RecordArityOffset)
		nb := rt.readU32(b + tags.RecordArityOffset)
		if na != nb {
			return cmpInt64(int64(na), int64(nb))
		}
		for i := uint32(0); i < na; i++ {
			if c := rt.compareRec(rt.readU32(a+tags.RecordPayloadOffset+4*i),
				rt.readU32(b+tags.RecordPayloadOffset+4*i), visiting); c != 0 {
				return c
			}
		}
		return 0
	case classADT:
		if c := cmpInt64(int64(rt.readU32(a+tags.ADTTypeHashOffset)),
			int64(rt.readU32(b+tags.ADTTypeHashOffset))); c != 0 {
			return c
		}
		if c := cmpInt64(int64(rt.readU32(a+tags.ADTVariantOffset)),
			int64(rt.readU32(b+tags.ADTVariantOffset))); c != 0 {
			return c
		}
		na := rt.readU32(a + tags.ADTArityOffset)
		nb := rt.readU32(b + tags.ADTArityOffset)
		if na != nb {
			return cmpInt64(int64(na), int64(nb))
		}
		for i := uint32(0); i < na; i++ {
			if c := rt.compareRec(rt.readU32(a+tags.ADTPayloadOffset+4*i),
				rt.readU32(b+tags.ADTPayloadOffset+4*i), visiting); c != 0 {
				return c
			}
		}
		return 0
	default:
		return 0
	}
}

func (rt *Runtime) bytesCompare(a, b uint32) int {
	na := rt.readU32(a + tags.BytesLengthOffset)
	nb := rt.readU32(b + tags.BytesLengthOffset)
	pa := rt.readBytes(a+tags.BytesPayloadOffset, na)
	pb := rt.readBytes(b+tags.BytesPayloadOffset, nb)
	n := len(pa)
	if len(pb) < n {
		n = len(pb)
	}
	for i := 0; i < n; i++ {
		if pa[i] != pb[i] {
			return int(pa[i]) - int(pb[i])
		}
	}
	return len(pa) - len(pb)
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
