package runtime

import (
	"testing"

	"github.com/wippyai/grain-runtime/meta"
	"github.com/wippyai/grain-runtime/tags"
)

func TestEqualReflexive(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	ch, _ := rt.MakeChar('λ')
	values := []uint32{
		tagSimple(0), tagSimple(-5), tagSimple(42),
		tags.ValueTrue, tags.ValueFalse, tags.ValueVoid, tags.ValueUnit,
		ch,
		tags.MakeShort(tags.ShortInt8, 0x80),
		rt.NewString("reflexive"),
		rt.NewBytesFrom([]byte{1, 2, 3}),
		rt.NewTuple(tagSimple(1), tagSimple(2)),
		rt.NewArray(tagSimple(1)),
		rt.NewClosure(3, tagSimple(9)),
		rt.NewFloat64(2.75),
		rt.NewSome(tagSimple(1)),
	}
	for _, v := range values {
		if !rt.Equal(v, v) {
			t.Errorf("value %#x not equal to itself", v)
		}
		if rt.Compare(v, v) != 0 {
			t.Errorf("compare(%#x, %#x) != 0", v, v)
		}
	}
}

func TestEqualStructural(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	a := rt.NewTuple(tagSimple(1), rt.NewString("x"))
	b := rt.NewTuple(tagSimple(1), rt.NewString("x"))
	c := rt.NewTuple(tagSimple(1), rt.NewString("y"))
	if !rt.Equal(a, b) {
		t.Error("structurally identical tuples must be equal")
	}
	if rt.Equal(a, c) {
		t.Error("tuples with different fields must differ")
	}
	if rt.Equal(a, rt.NewTuple(tagSimple(1))) {
		t.Error("tuples with different arities must differ")
	}

	s1 := rt.NewString("hello")
	s2 := rt.NewString("hello")
	if !rt.Equal(s1, s2) {
		t.Error("equal strings must be equal")
	}
	b1, _ := rt.BytesFromString(s1)
	if rt.Equal(s1, b1) {
		t.Error("a string never equals a bytes object")
	}
}

func TestEqualRecordsAndVariants(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	hash := meta.HashTypeName("Point")
	r1 := rt.NewRecord(1, hash, tagSimple(3), tagSimple(4))
	r2 := rt.NewRecord(1, hash, tagSimple(3), tagSimple(4))
	r3 := rt.NewRecord(1, hash, tagSimple(3), tagSimple(5))
	r4 := rt.NewRecord(2, hash, tagSimple(3), tagSimple(4))
	if !rt.Equal(r1, r2) {
		t.Error("identical records must be equal")
	}
	if rt.Equal(r1, r3) || rt.Equal(r1, r4) {
		t.Error("records differing in fields or module hash must differ")
	}

	if !rt.Equal(rt.NewSome(tagSimple(1)), rt.NewSome(tagSimple(1))) {
		t.Error("Some(1) == Some(1)")
	}
	if rt.Equal(rt.NewSome(tagSimple(1)), rt.NewNone()) {
		t.Error("Some(1) != None")
	}
	if rt.Equal(rt.NewOk(tagSimple(1)), rt.NewSome(tagSimple(1))) {
		t.Error("different ADTs must differ")
	}
}

func TestClosuresCompareByIdentity(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	f := rt.NewClosure(1, tagSimple(10))
	g := rt.NewClosure(1, tagSimple(10))
	if !rt.Equal(f, f) {
		t.Error("a closure equals itself")
	}
	if rt.Equal(f, g) {
		t.Error("distinct closures are unequal even with identical captures")
	}
}

func TestEqualityOnCycles(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	// Two structurally identical self-referencing arrays.
	a := rt.NewArray(tagSimple(0))
	b := rt.NewArray(tagSimple(0))
	rt.IncRef(a)
	rt.IncRef(b)
	if err := rt.ArraySet(0, a, a); err != nil {
		t.Fatal(err)
	}
	if err := rt.ArraySet(0, b, b); err != nil {
		t.Fatal(err)
	}
	if !rt.Equal(a, b) {
		t.Error("bisimilar cyclic arrays must be equal")
	}
	if rt.Compare(a, b) != 0 {
		t.Error("bisimilar cyclic arrays must compare equal")
	}
}

func TestCompareTotalOrder(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	// Ordering within one class is lexicographic.
	if rt.Compare(rt.NewString("abc"), rt.NewString("abd")) >= 0 {
		t.Error(`"abc" < "abd"`)
	}
	if rt.Compare(rt.NewString("ab"), rt.NewString("abc")) >= 0 {
		t.Error(`"ab" < "abc"`)
	}
	if rt.Compare(tagSimple(-3), tagSimple(2)) >= 0 {
		t.Error("-3 < 2")
	}

	// Kind mismatch falls back to class rank, consistently.
	s := rt.NewString("s")
	n := tagSimple(1)
	if c1, c2 := rt.Compare(n, s), rt.Compare(s, n); c1 == 0 || c2 == 0 || (c1 < 0) == (c2 < 0) {
		t.Errorf("cross-kind compare must be antisymmetric, got %d and %d", c1, c2)
	}

	// Transitivity spot check.
	vals := []uint32{tagSimple(1), tagSimple(2), rt.NewString("a"), rt.NewString("b")}
	for _, a := range vals {
		for _, b := range vals {
			for _, c := range vals {
				if rt.Compare(a, b) <= 0 && rt.Compare(b, c) <= 0 && rt.Compare(a, c) > 0 {
					t.Fatalf("transitivity violated on %#x, %#x, %#x", a, b, c)
				}
			}
		}
	}
}

func TestShortsEqualWithinKindOnly(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	i8 := tags.MakeShort(tags.ShortInt8, 5)
	i8b := tags.MakeShort(tags.ShortInt8, 5)
	i16 := tags.MakeShort(tags.ShortInt16, 5)
	if !rt.Equal(i8, i8b) {
		t.Error("identical shorts must be equal")
	}
	if rt.Equal(i8, i16) {
		t.Error("Int8 and Int16 are distinct kinds")
	}
	if rt.Compare(i8, i16) == 0 {
		t.Error("distinct short kinds must not compare equal")
	}
}
