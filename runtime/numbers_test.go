package runtime

import (
	"math"
	"math/big"
	"testing"

	"github.com/wippyai/grain-runtime/errors"
	"github.com/wippyai/grain-runtime/tags"
)

func TestReducedInteger(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	if v := rt.ReducedInteger(42); !tags.IsSimpleNumber(v) || tags.SimpleValue(v) != 42 {
		t.Errorf("ReducedInteger(42) = %#x", v)
	}
	if v := rt.ReducedInteger(int64(tags.SimpleMax)); !tags.IsSimpleNumber(v) {
		t.Error("SimpleMax must stay simple")
	}
	v := rt.ReducedInteger(int64(tags.SimpleMax) + 1)
	if tags.IsSimpleNumber(v) {
		t.Error("SimpleMax+1 must box")
	}
	i, err := rt.NumberToI64(v)
	if err != nil || i != int64(tags.SimpleMax)+1 {
		t.Errorf("boxed value reads back %d, %v", i, err)
	}
	if v := rt.ReducedInteger(int64(tags.SimpleMin)); !tags.IsSimpleNumber(v) {
		t.Error("SimpleMin must stay simple")
	}
}

func TestNumericEqualityAcrossRepresentations(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	one := tagSimple(1)
	oneF := rt.NewFloat64(1.0)
	oneI64 := rt.NewInt64(1)
	oneU64 := rt.NewUint64(1)
	oneBig := rt.NewBigInt(big.NewInt(1))
	oneI32 := rt.NewInt32(1)
	oneF32 := rt.NewFloat32(1.0)

	for _, other := range []uint32{oneF, oneI64, oneU64, oneBig, oneI32, oneF32} {
		if !rt.Equal(one, other) {
			t.Errorf("1 should equal representation %#x", other)
		}
		if rt.Compare(one, other) != 0 {
			t.Errorf("compare(1, %#x) != 0", other)
		}
	}
	if rt.Equal(one, tagSimple(2)) {
		t.Error("1 == 2")
	}
}

func TestRationalEqualsFloat(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	half := mustNumberDiv(t, rt, tagSimple(1), tagSimple(2))
	halfF := rt.NewFloat64(0.5)
	if !rt.Equal(half, halfF) {
		t.Error("1/2 must equal 0.5")
	}
	if rt.Compare(half, halfF) != 0 {
		t.Error("compare(1/2, 0.5) must be 0")
	}

	third := mustNumberDiv(t, rt, tagSimple(1), tagSimple(3))
	thirdF := rt.NewFloat64(1.0 / 3.0)
	if rt.Equal(third, thirdF) {
		t.Error("1/3 must not equal its float approximation")
	}
}

func TestDivisionProducesReducedRational(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	// 4/2 collapses to an integer.
	two := mustNumberDiv(t, rt, tagSimple(4), tagSimple(2))
	if !tags.IsSimpleNumber(two) || tags.SimpleValue(two) != 2 {
		t.Errorf("4/2 = %#x, want simple 2", two)
	}

	// 6/4 reduces to 3/2.
	r := mustNumberDiv(t, rt, tagSimple(6), tagSimple(4))
	s, err := rt.ToString(r)
	if err != nil || s != "3/2" {
		t.Errorf("toString(6/4) = %q, %v; want 3/2", s, err)
	}

	if _, err := rt.NumberDiv(tagSimple(1), tagSimple(0)); !errors.IsKind(err, errors.KindDivisionByZero) {
		t.Errorf("integer division by zero should error, got %v", err)
	}

	// Float division by zero follows IEEE.
	inf, err := rt.NumberDiv(tagSimple(1), rt.NewFloat64(0))
	if err != nil {
		t.Fatalf("float division by zero: %v", err)
	}
	f, _ := rt.NumberToF64(inf)
	if !math.IsInf(f, 1) {
		t.Errorf("1/0.0 = %v, want +Inf", f)
	}
}

func TestArithmeticPromotion(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	// int + int stays exact.
	v, err := rt.NumberAdd(tagSimple(2), tagSimple(3))
	if err != nil || !tags.IsSimpleNumber(v) || tags.SimpleValue(v) != 5 {
		t.Errorf("2+3 = %#x, %v", v, err)
	}

	// Overflow past the simple range boxes.
	big1 := rt.ReducedInteger(int64(tags.SimpleMax))
	v, err = rt.NumberAdd(big1, tagSimple(1))
	if err != nil {
		t.Fatal(err)
	}
	i, _ := rt.NumberToI64(v)
	if i != int64(tags.SimpleMax)+1 {
		t.Errorf("SimpleMax+1 = %d", i)
	}

	// Any float operand makes the result float.
	v, err = rt.NumberMul(tagSimple(2), rt.NewFloat64(0.25))
	if err != nil {
		t.Fatal(err)
	}
	f, _ := rt.NumberToF64(v)
	if f != 0.5 {
		t.Errorf("2*0.25 = %v", f)
	}

	// rational + rational: 1/2 + 1/2 = 1, collapsed.
	half := mustNumberDiv(t, rt, tagSimple(1), tagSimple(2))
	v, err = rt.NumberAdd(half, half)
	if err != nil {
		t.Fatal(err)
	}
	if !tags.IsSimpleNumber(v) || tags.SimpleValue(v) != 1 {
		t.Errorf("1/2 + 1/2 = %#x, want simple 1", v)
	}
}

func TestBigIntRoundTrip(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	cases := []string{
		"0",
		"9223372036854775808",                       // 2^63, past int64
		"-170141183460469231731687303715884105728",  // -2^127
		"340282366920938463463374607431768211455",   // 2^128-1
		"123456789012345678901234567890123456789",
	}
	for _, s := range cases {
		want, _ := new(big.Int).SetString(s, 10)
		ptr := rt.NewBigInt(want)
		got := rt.bigIntValue(ptr)
		if got.Cmp(want) != 0 {
			t.Errorf("bigint round trip of %s = %s", s, got)
		}
		str, err := rt.ToString(ptr)
		if err != nil || str != s {
			t.Errorf("toString(%s) = %q, %v", s, str, err)
		}
	}
}

func TestBigIntCanonicalizesWithInt64(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	a := rt.NewInt64(1 << 40)
	b := rt.NewBigInt(new(big.Int).Lsh(big.NewInt(1), 40))
	if !rt.Equal(a, b) {
		t.Error("bigint 2^40 must equal boxed int64 2^40")
	}
	h := HashMakeSeeded(7)
	if rt.Hash(h, a) != rt.Hash(h, b) {
		t.Error("equal numbers must hash equal across representations")
	}
}

func TestCoercions(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	i32, err := rt.NumberToI32(rt.NewFloat64(3.9))
	if err != nil || i32 != 3 {
		t.Errorf("NumberToI32(3.9) = %d, %v; want truncation to 3", i32, err)
	}
	if _, err := rt.NumberToI32(rt.NewInt64(math.MaxInt32 + 1)); !errors.IsKind(err, errors.KindOverflow) {
		t.Errorf("narrowing overflow should error, got %v", err)
	}
	f32, err := rt.NumberToF32(tagSimple(7))
	if err != nil || f32 != 7.0 {
		t.Errorf("NumberToF32(7) = %v, %v", f32, err)
	}
	if _, err := rt.NumberToI64(rt.NewFloat64(math.NaN())); err == nil {
		t.Error("NaN has no integer value")
	}
	if _, err := rt.NumberToI64(rt.NewString("nope")); err == nil {
		t.Error("non-number coercion must error")
	}
}

func TestNaNOrdering(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	nan := rt.NewFloat64(math.NaN())
	nan2 := rt.NewFloat64(math.NaN())
	if rt.Equal(nan, nan2) {
		// Distinct boxes holding NaN: IEEE says unequal.
		t.Error("NaN must not equal a distinct NaN box")
	}
	if !rt.Equal(nan, nan) {
		// The identical word short-circuits before numeric comparison.
		t.Error("a value must equal itself by identity")
	}
	inf := rt.NewFloat64(math.Inf(1))
	if rt.Compare(nan, inf) <= 0 {
		t.Error("NaN must sort after +Inf")
	}
	if rt.Compare(inf, rt.NewFloat64(math.Inf(-1))) <= 0 {
		t.Error("+Inf must sort after -Inf")
	}
	if rt.Compare(rt.NewFloat64(math.Inf(-1)), tagSimple(0)) >= 0 {
		t.Error("-Inf must sort below 0")
	}
}
