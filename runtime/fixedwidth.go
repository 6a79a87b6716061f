package runtime

import (
	"math"

	"github.com/wippyai/grain-runtime/errors"
	"github.com/wippyai/grain-runtime/tags"
)

// Host-side primitives for the fixed-width numeric modules. Arithmetic
// wraps two's-complement on overflow; floats follow IEEE-754; reinterpret
// conversions are exact bit copies. The compiler inlines most of these as
// WASM instructions, but the runtime carries the same operations for
// host-driven code and for the short kinds packed into tagged words.

// FixedOp selects a binary fixed-width operation.
type FixedOp int

const (
	FixedAdd FixedOp = iota
	FixedSub
	FixedMul
	FixedDiv
	FixedRem
	FixedAnd
	FixedOr
	FixedXor
	FixedShl
	FixedShr
)

var shortBits = map[tags.ShortKind]uint{
	tags.ShortInt8:   8,
	tags.ShortInt16:  16,
	tags.ShortUint8:  8,
	tags.ShortUint16: 16,
}

func shortIsSigned(k tags.ShortKind) bool {
	return k == tags.ShortInt8 || k == tags.ShortInt16
}

// ShortOp applies a binary operation to two shorts of the same sub-kind,
// wrapping to the kind's width. Shifts use only the low bits of the right
// operand, matching WASM shift semantics.
func (rt *Runtime) ShortOp(op FixedOp, a, b uint32) (uint32, error) {
	if !tags.IsShort(a) || !tags.IsShort(b) {
		return 0, errors.InvalidArgument(errors.PhaseNumber, "operands are not short values")
	}
	kind := tags.ShortKindOf(a)
	if kind != tags.ShortKindOf(b) || kind == tags.ShortChar {
		return 0, errors.InvalidArgument(errors.PhaseNumber, "mismatched short kinds")
	}
	bitWidth := shortBits[kind]
	mask := uint32(1)<<bitWidth - 1

	av := tags.ShortPayload(a) & mask
	bv := tags.ShortPayload(b) & mask

	var out uint32
	switch op {
	case FixedAdd:
		out = av + bv
	case FixedSub:
		out = av - bv
	case FixedMul:
		out = av * bv
	case FixedDiv:
		if bv == 0 {
			return 0, errors.DivisionByZero(errors.PhaseNumber)
		}
		if shortIsSigned(kind) {
			out = uint32(signExtend(av, bitWidth) / signExtend(bv, bitWidth))
		} else {
			out = av / bv
		}
	case FixedRem:
		if bv == 0 {
			return 0, errors.DivisionByZero(errors.PhaseNumber)
		}
		if shortIsSigned(kind) {
			out = uint32(signExtend(av, bitWidth) % signExtend(bv, bitWidth))
		} else {
			out = av % bv
		}
	case FixedAnd:
		out = av & bv
	case FixedOr:
		out = av | bv
	case FixedXor:
		out = av ^ bv
	case FixedShl:
		out = av << (bv & (uint32(bitWidth) - 1))
	case FixedShr:
		if shortIsSigned(kind) {
			out = uint32(signExtend(av, bitWidth) >> (bv & (uint32(bitWidth) - 1)))
		} else {
			out = av >> (bv & (uint32(bitWidth) - 1))
		}
	}
	return tags.MakeShort(kind, out&mask), nil
}

func signExtend(v uint32, bitWidth uint) int32 {
	shift := 32 - bitWidth
	return int32(v<<shift) >> shift
}

// Int32Op applies a wrapping binary operation to two 32-bit boxes. The
// left operand's box kind selects signed or unsigned division and shift.
func (rt *Runtime) Int32Op(op FixedOp, a, b uint32) (uint32, error) {
	av, err := rt.int32Value(a)
	if err != nil {
		return 0, err
	}
	bv, err := rt.int32Value(b)
	if err != nil {
		return 0, err
	}
	kind, _ := rt.HeapKindOf(a)
	signed := kind == tags.KindInt32
	var out int32
	switch op {
	case FixedAdd:
		out = av + bv
	case FixedSub:
		out = av - bv
	case FixedMul:
		out = av * bv
	case FixedDiv:
		if bv == 0 {
			return 0, errors.DivisionByZero(errors.PhaseNumber)
		}
		if signed {
			out = av / bv
		} else {
			out = int32(uint32(av) / uint32(bv))
		}
	case FixedRem:
		if bv == 0 {
			return 0, errors.DivisionByZero(errors.PhaseNumber)
		}
		if signed {
			out = av % bv
		} else {
			out = int32(uint32(av) % uint32(bv))
		}
	case FixedAnd:
		out = av & bv
	case FixedOr:
		out = av | bv
	case FixedXor:
		out = av ^ bv
	case FixedShl:
		out = av << (uint32(bv) & 31)
	case FixedShr:
		if signed {
			out = av >> (uint32(bv) & 31)
		} else {
			out = int32(uint32(av) >> (uint32(bv) & 31))
		}
	}
	if signed {
		return rt.NewInt32(out), nil
	}
	return rt.NewUint32(uint32(out)), nil
}

// Int64Op applies a wrapping binary operation to two 64-bit boxes. The
// left operand's sub-tag selects signed or unsigned division and shift.
func (rt *Runtime) Int64Op(op FixedOp, a, b uint32) (uint32, error) {
	av, err := rt.int64Value(a)
	if err != nil {
		return 0, err
	}
	bv, err := rt.int64Value(b)
	if err != nil {
		return 0, err
	}
	signed := tags.BoxedKind(rt.readU32(a+tags.BoxedSubTagOffset)) == tags.BoxedInt64
	var out int64
	switch op {
	case FixedAdd:
		out = av + bv
	case FixedSub:
		out = av - bv
	case FixedMul:
		out = av * bv
	case FixedDiv:
		if bv == 0 {
			return 0, errors.DivisionByZero(errors.PhaseNumber)
		}
		if signed {
			out = av / bv
		} else {
			out = int64(uint64(av) / uint64(bv))
		}
	case FixedRem:
		if bv == 0 {
			return 0, errors.DivisionByZero(errors.PhaseNumber)
		}
		if signed {
			out = av % bv
		} else {
			out = int64(uint64(av) % uint64(bv))
		}
	case FixedAnd:
		out = av & bv
	case FixedOr:
		out = av | bv
	case FixedXor:
		out = av ^ bv
	case FixedShl:
		out = av << (uint64(bv) & 63)
	case FixedShr:
		if signed {
			out = av >> (uint64(bv) & 63)
		} else {
			out = int64(uint64(av) >> (uint64(bv) & 63))
		}
	}
	if signed {
		return rt.NewInt64(out), nil
	}
	return rt.NewUint64(uint64(out)), nil
}

// Float64Op applies a binary IEEE operation to two boxed Float64 values.
func (rt *Runtime) Float64Op(op FixedOp, a, b uint32) (uint32, error) {
	av, err := rt.float64Value(a)
	if err != nil {
		return 0, err
	}
	bv, err := rt.float64Value(b)
	if err != nil {
		return 0, err
	}
	var out float64
	switch op {
	case FixedAdd:
		out = av + bv
	case FixedSub:
		out = av - bv
	case FixedMul:
		out = av * bv
	case FixedDiv:
		out = av / bv
	default:
		return 0, errors.InvalidArgument(errors.PhaseNumber, "operation undefined on floats")
	}
	return rt.NewFloat64(out), nil
}

func (rt *Runtime) int32Value(v uint32) (int32, error) {
	if kind, ok := rt.HeapKindOf(v); ok && (kind == tags.KindInt32 || kind == tags.KindUint32) {
		return int32(rt.readU32(v + tags.Scalar32PayloadOffset)), nil
	}
	return 0, errors.InvalidArgument(errors.PhaseNumber, "%#x is not a 32-bit box", v)
}

func (rt *Runtime) int64Value(v uint32) (int64, error) {
	if kind, ok := rt.HeapKindOf(v); ok && kind == tags.KindBoxedNumber {
		sub := tags.BoxedKind(rt.readU32(v + tags.BoxedSubTagOffset))
		if sub == tags.BoxedInt64 || sub == tags.BoxedUint64 {
			return int64(rt.readU64(v + tags.BoxedPayloadOffset)), nil
		}
	}
	return 0, errors.InvalidArgument(errors.PhaseNumber, "%#x is not a 64-bit box", v)
}

func (rt *Runtime) float64Value(v uint32) (float64, error) {
	if kind, ok := rt.HeapKindOf(v); ok && kind == tags.KindBoxedNumber {
		if tags.BoxedKind(rt.readU32(v+tags.BoxedSubTagOffset)) == tags.BoxedFloat64 {
			return math.Float64frombits(rt.readU64(v + tags.BoxedPayloadOffset)), nil
		}
	}
	return 0, errors.InvalidArgument(errors.PhaseNumber, "%#x is not a float64 box", v)
}

// Bit-reinterpretation conversions: exact bit copies between same-width
// integer and float boxes.

// ReinterpretInt32ToFloat32 copies the bits of an Int32/Uint32 box into a
// Float32 box.
func (rt *Runtime) ReinterpretInt32ToFloat32(v uint32) (uint32, error) {
	iv, err := rt.int32Value(v)
	if err != nil {
		return 0, err
	}
	return rt.NewFloat32(math.Float32frombits(uint32(iv))), nil
}

// ReinterpretFloat32ToInt32 copies the bits of a Float32 box into an
// Int32 box.
func (rt *Runtime) ReinterpretFloat32ToInt32(v uint32) (uint32, error) {
	kind, ok := rt.HeapKindOf(v)
	if !ok || kind != tags.KindFloat32 {
		return 0, errors.InvalidArgument(errors.PhaseNumber, "%#x is not a float32 box", v)
	}
	return rt.NewInt32(int32(rt.readU32(v + tags.Scalar32PayloadOffset))), nil
}

// ReinterpretInt64ToFloat64 copies the bits of an Int64/Uint64 box into a
// Float64 box.
func (rt *Runtime) ReinterpretInt64ToFloat64(v uint32) (uint32, error) {
	iv, err := rt.int64Value(v)
	if err != nil {
		return 0, err
	}
	return rt.NewFloat64(math.Float64frombits(uint64(iv))), nil
}

// ReinterpretFloat64ToInt64 copies the bits of a Float64 box into an
// Int64 box.
func (rt *Runtime) ReinterpretFloat64ToInt64(v uint32) (uint32, error) {
	fv, err := rt.float64Value(v)
	if err != nil {
		return 0, err
	}
	return rt.NewInt64(int64(math.Float64bits(fv))), nil
}
