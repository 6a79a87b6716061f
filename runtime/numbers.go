package runtime

import (
	"math"
	"math/big"

	"github.com/wippyai/grain-runtime/errors"
	"github.com/wippyai/grain-runtime/tags"
)

// Numeric boxing. Number picks the smallest representation that fits:
// simple tagged integers, boxed int64/bigint/rational otherwise, float64
// whenever any input is float. The fixed-width boxes (Int32, Uint32,
// Float32, Int64, Uint64, Float64) are their own module types but share
// the numeric comparison tower.

// NewInt32 allocates a boxed Int32.
func (rt *Runtime) NewInt32(v int32) uint32 {
	ptr := rt.allocObject(tags.KindInt32, 8)
	rt.writeU32(ptr+tags.Scalar32PayloadOffset, uint32(v))
	return ptr
}

// NewUint32 allocates a boxed Uint32.
func (rt *Runtime) NewUint32(v uint32) uint32 {
	ptr := rt.allocObject(tags.KindUint32, 8)
	rt.writeU32(ptr+tags.Scalar32PayloadOffset, v)
	return ptr
}

// NewFloat32 allocates a boxed Float32.
func (rt *Runtime) NewFloat32(v float32) uint32 {
	ptr := rt.allocObject(tags.KindFloat32, 8)
	rt.writeU32(ptr+tags.Scalar32PayloadOffset, math.Float32bits(v))
	return ptr
}

func (rt *Runtime) allocBoxed(sub tags.BoxedKind, payloadBytes uint32) uint32 {
	ptr := rt.allocObject(tags.KindBoxedNumber, tags.BoxedPayloadOffset+payloadBytes)
	rt.writeU32(ptr+tags.BoxedSubTagOffset, uint32(sub))
	return ptr
}

// NewInt64 allocates a boxed Int64.
func (rt *Runtime) NewInt64(v int64) uint32 {
	ptr := rt.allocBoxed(tags.BoxedInt64, 8)
	rt.writeU64(ptr+tags.BoxedPayloadOffset, uint64(v))
	return ptr
}

// NewUint64 allocates a boxed Uint64.
func (rt *Runtime) NewUint64(v uint64) uint32 {
	ptr := rt.allocBoxed(tags.BoxedUint64, 8)
	rt.writeU64(ptr+tags.BoxedPayloadOffset, v)
	return ptr
}

// NewFloat64 allocates a boxed Float64.
func (rt *Runtime) NewFloat64(v float64) uint32 {
	ptr := rt.allocBoxed(tags.BoxedFloat64, 8)
	rt.writeU64(ptr+tags.BoxedPayloadOffset, math.Float64bits(v))
	return ptr
}

// NewBigInt allocates a boxed big integer. The magnitude is stored as
// little-endian 64-bit limbs, least significant first.
func (rt *Runtime) NewBigInt(v *big.Int) uint32 {
	mag := v.Bytes() // big-endian magnitude
	limbCount := (uint32(len(mag)) + 7) / 8
	ptr := rt.allocBoxed(tags.BoxedBigInt, 8+8*limbCount)
	sign := uint32(0)
	if v.Sign() < 0 {
		sign = 1
	}
	rt.writeU32(ptr+tags.BigIntSignOffset, sign)
	rt.writeU32(ptr+tags.BigIntCountOffset, limbCount)
	for i := uint32(0); i < limbCount; i++ {
		var limb uint64
		for b := uint32(0); b < 8; b++ {
			idx := int(len(mag)) - int(i*8+b) - 1
			if idx < 0 {
				break
			}
			limb |= uint64(mag[idx]) << (8 * b)
		}
		rt.writeU64(ptr+tags.BigIntLimbsOffset+8*i, limb)
	}
	return ptr
}

func (rt *Runtime) bigIntValue(ptr uint32) *big.Int {
	count := rt.readU32(ptr + tags.BigIntCountOffset)
	mag := make([]byte, 8*count)
	for i := uint32(0); i < count; i++ {
		limb := rt.readU64(ptr + tags.BigIntLimbsOffset + 8*i)
		for b := uint32(0); b < 8; b++ {
			mag[len(mag)-int(i*8+b)-1] = byte(limb >> (8 * b))
		}
	}
	v := new(big.Int).SetBytes(mag)
	if rt.readU32(ptr+tags.BigIntSignOffset) != 0 {
		v.Neg(v)
	}
	return v
}

// NewRational allocates the reduced rational num/den, collapsing to an
// integer representation when the reduced denominator is one. A zero
// denominator is a division-by-zero error.
func (rt *Runtime) NewRational(num, den *big.Int) (uint32, error) {
	if den.Sign() == 0 {
		return 0, errors.DivisionByZero(errors.PhaseNumber)
	}
	r := new(big.Rat).SetFrac(num, den)
	return rt.newRatValue(r), nil
}

func (rt *Runtime) newRatValue(r *big.Rat) uint32 {
	if r.IsInt() {
		return rt.NewBigNumber(r.Num())
	}
	numPtr := rt.NewBigInt(r.Num())
	denPtr := rt.NewBigInt(r.Denom())
	ptr := rt.allocBoxed(tags.BoxedRational, 8)
	rt.writeU32(ptr+tags.RationalNumOffset, numPtr)
	rt.writeU32(ptr+tags.RationalDenOffset, denPtr)
	return ptr
}

// NewBigNumber returns the smallest Number representation of an integer:
// a tagged simple number, a boxed int64, or a bigint.
func (rt *Runtime) NewBigNumber(v *big.Int) uint32 {
	if v.IsInt64() {
		return rt.ReducedInteger(v.Int64())
	}
	return rt.NewBigInt(v)
}

// ReducedInteger returns v as a tagged simple number when it fits in 31
// signed bits, and a boxed int64 otherwise.
func (rt *Runtime) ReducedInteger(v int64) uint32 {
	if tags.FitsSimple(v) {
		return tags.MakeSimple(int32(v))
	}
	return rt.NewInt64(v)
}

// number is the internal view of any numeric value.
type number struct {
	// rat is the exact value; nil when the value is a non-finite float.
	rat *big.Rat
	// f and isFloat are set when the source representation was floating
	// point (including the non-finite values rat cannot carry).
	f       float64
	isFloat bool
}

func (n number) nan() bool {
	return n.isFloat && math.IsNaN(n.f)
}

// numericOf decodes any Number or fixed-width numeric box. The second
// result is false for non-numeric values. Chars and the Int8..Uint16
// shorts are distinct fixed-width types, not Numbers.
func (rt *Runtime) numericOf(v uint32) (number, bool) {
	if tags.IsSimpleNumber(v) {
		return number{rat: new(big.Rat).SetInt64(int64(tags.SimpleValue(v)))}, true
	}
	kind, ok := rt.HeapKindOf(v)
	if !ok {
		return number{}, false
	}
	switch kind {
	case tags.KindInt32:
		return number{rat: new(big.Rat).SetInt64(int64(int32(rt.readU32(v + tags.Scalar32PayloadOffset))))}, true
	case tags.KindUint32:
		return number{rat: new(big.Rat).SetInt64(int64(rt.readU32(v + tags.Scalar32PayloadOffset)))}, true
	case tags.KindFloat32:
		return floatNumber(float64(math.Float32frombits(rt.readU32(v + tags.Scalar32PayloadOffset)))), true
	case tags.KindBoxedNumber:
		switch tags.BoxedKind(rt.readU32(v + tags.BoxedSubTagOffset)) {
		case tags.BoxedInt64:
			return number{rat: new(big.Rat).SetInt64(int64(rt.readU64(v + tags.BoxedPayloadOffset)))}, true
		case tags.BoxedUint64:
			return number{rat: new(big.Rat).SetInt(new(big.Int).SetUint64(rt.readU64(v + tags.BoxedPayloadOffset)))}, true
		case tags.BoxedFloat64:
			return floatNumber(math.Float64frombits(rt.readU64(v + tags.BoxedPayloadOffset))), true
		case tags.BoxedBigInt:
			return number{rat: new(big.Rat).SetInt(rt.bigIntValue(v))}, true
		case tags.BoxedRational:
			num := rt.bigIntValue(rt.readU32(v + tags.RationalNumOffset))
			den := rt.bigIntValue(rt.readU32(v + tags.RationalDenOffset))
			return number{rat: new(big.Rat).SetFrac(num, den)}, true
		}
	}
	return number{}, false
}

func floatNumber(f float64) number {
	n := number{f: f, isFloat: true}
	if !math.IsInf(f, 0) && !math.IsNaN(f) {
		n.rat = new(big.Rat).SetFloat64(f)
	}
	return n
}

// numericCompare orders two numeric values exactly. The second result is
// false when either side is NaN; NumberEqual treats that as unequal and
// Compare totalizes it by sorting NaN after +Inf.
func numericCompare(a, b number) (int, bool) {
	if a.nan() || b.nan() {
		return 0, false
	}
	// Infinities have no exact rational form.
	if a.rat == nil || b.rat == nil {
		av, bv := 0.0, 0.0
		if a.rat == nil {
			av = a.f
		}
		if b.rat == nil {
			bv = b.f
		}
		switch {
		case a.rat == nil && b.rat == nil:
			if av == bv {
				return 0, true
			} else if av < bv {
				return -1, true
			}
			return 1, true
		case a.rat == nil:
			if math.IsInf(av, 1) {
				return 1, true
			}
			return -1, true
		default:
			if math.IsInf(bv, 1) {
				return -1, true
			}
			return 1, true
		}
	}
	return a.rat.Cmp(b.rat), true
}

// NumberEqual reports exact mathematical equality across representations.
func (rt *Runtime) NumberEqual(a, b uint32) bool {
	na, ok := rt.numericOf(a)
	if !ok {
		return false
	}
	nb, ok := rt.numericOf(b)
	if !ok {
		return false
	}
	c, ok := numericCompare(na, nb)
	return ok && c == 0
}

// Coercions to WASM scalar types. Out-of-range integer narrowing is an
// overflow error; float conversions follow IEEE semantics.

func (rt *Runtime) numericExact(v uint32) (number, error) {
	n, ok := rt.numericOf(v)
	if !ok {
		return number{}, errors.InvalidArgument(errors.PhaseNumber, "%#x is not a number", v)
	}
	return n, nil
}

// NumberToI64 truncates toward zero.
func (rt *Runtime) NumberToI64(v uint32) (int64, error) {
	n, err := rt.numericExact(v)
	if err != nil {
		return 0, err
	}
	if n.rat == nil {
		return 0, errors.New(errors.PhaseNumber, errors.KindOverflow).
			Detail("non-finite float has no integer value").Build()
	}
	q := new(big.Int).Quo(n.rat.Num(), n.rat.Denom())
	if !q.IsInt64() {
		return 0, errors.New(errors.PhaseNumber, errors.KindOverflow).
			Detail("value does not fit in 64 bits").Build()
	}
	return q.Int64(), nil
}

// NumberToI32 truncates toward zero.
func (rt *Runtime) NumberToI32(v uint32) (int32, error) {
	i, err := rt.NumberToI64(v)
	if err != nil {
		return 0, err
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return 0, errors.New(errors.PhaseNumber, errors.KindOverflow).
			Detail("value %d does not fit in 32 bits", i).Build()
	}
	return int32(i), nil
}

// NumberToF64 converts to the nearest float64.
func (rt *Runtime) NumberToF64(v uint32) (float64, error) {
	n, err := rt.numericExact(v)
	if err != nil {
		return 0, err
	}
	if n.isFloat {
		return n.f, nil
	}
	f, _ := n.rat.Float64()
	return f, nil
}

// NumberToF32 converts to the nearest float32.
func (rt *Runtime) NumberToF32(v uint32) (float32, error) {
	f, err := rt.NumberToF64(v)
	return float32(f), err
}

// Number arithmetic. Operands promote to the wider representation; any
// float operand makes the result float64, otherwise arithmetic is exact
// and the result reduces to the smallest representation.

type numOp int

const (
	opAdd numOp = iota
	opSub
	opMul
	opDiv
)

func (rt *Runtime) numberArith(op numOp, a, b uint32) (uint32, error) {
	na, err := rt.numericExact(a)
	if err != nil {
		return 0, err
	}
	nb, err := rt.numericExact(b)
	if err != nil {
		return 0, err
	}

	if na.isFloat || nb.isFloat {
		af, _ := rt.floatOf(na)
		bf, _ := rt.floatOf(nb)
		var r float64
		switch op {
		case opAdd:
			r = af + bf
		case opSub:
			r = af - bf
		case opMul:
			r = af * bf
		case opDiv:
			r = af / bf
		}
		return rt.NewFloat64(r), nil
	}

	out := new(big.Rat)
	switch op {
	case opAdd:
		out.Add(na.rat, nb.rat)
	case opSub:
		out.Sub(na.rat, nb.rat)
	case opMul:
		out.Mul(na.rat, nb.rat)
	case opDiv:
		if nb.rat.Sign() == 0 {
			return 0, errors.DivisionByZero(errors.PhaseNumber)
		}
		out.Quo(na.rat, nb.rat)
	}
	return rt.newRatValue(out), nil
}

func (rt *Runtime) floatOf(n number) (float64, bool) {
	if n.isFloat {
		return n.f, true
	}
	f, exact := n.rat.Float64()
	return f, exact
}

// NumberAdd computes a+b.
func (rt *Runtime) NumberAdd(a, b uint32) (uint32, error) { return rt.numberArith(opAdd, a, b) }

// NumberSub computes a-b.
func (rt *Runtime) NumberSub(a, b uint32) (uint32, error) { return rt.numberArith(opSub, a, b) }

// NumberMul computes a*b.
func (rt *Runtime) NumberMul(a, b uint32) (uint32, error) { return rt.numberArith(opMul, a, b) }

// NumberDiv computes a/b. Integer operands produce a reduced rational,
// collapsed back to an integer when possible.
func (rt *Runtime) NumberDiv(a, b uint32) (uint32, error) { return rt.numberArith(opDiv, a, b) }
