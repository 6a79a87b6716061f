package tags

import "testing"

func TestSimpleNumberRoundTrip(t *testing.T) {
	cases := []int32{0, 1, -1, 42, -42, SimpleMax, SimpleMin}
	for _, v := range cases {
		w := MakeSimple(v)
		if !IsSimpleNumber(w) {
			t.Fatalf("MakeSimple(%d) = %#x, not tagged as simple", v, w)
		}
		if got := SimpleValue(w); got != v {
			t.Errorf("SimpleValue(MakeSimple(%d)) = %d", v, got)
		}
	}
}

func TestFitsSimple(t *testing.T) {
	if !FitsSimple(int64(SimpleMax)) || !FitsSimple(int64(SimpleMin)) {
		t.Error("range endpoints must fit")
	}
	if FitsSimple(int64(SimpleMax)+1) || FitsSimple(int64(SimpleMin)-1) {
		t.Error("values outside the 31-bit range must not fit")
	}
}

func TestShortRoundTrip(t *testing.T) {
	tests := []struct {
		kind    ShortKind
		payload uint32
		signed  int32
	}{
		{ShortInt8, 0x7F, 127},
		{ShortInt8, 0x80, -128},
		{ShortUint8, 0xFF, 255},
		{ShortInt16, 0x7FFF, 32767},
		{ShortInt16, 0x8000, -32768},
		{ShortUint16, 0xFFFF, 65535},
		{ShortChar, 0, 0},
		{ShortChar, 0x10FFFF, 0x10FFFF},
	}
	for _, tt := range tests {
		w := MakeShort(tt.kind, tt.payload)
		if !IsShort(w) {
			t.Fatalf("MakeShort(%d, %#x) not tagged as short", tt.kind, tt.payload)
		}
		if got := ShortKindOf(w); got != tt.kind {
			t.Errorf("ShortKindOf = %d, want %d", got, tt.kind)
		}
		if got := ShortPayload(w); got != tt.payload {
			t.Errorf("ShortPayload = %#x, want %#x", got, tt.payload)
		}
		if got := ShortSigned(w); got != tt.signed {
			t.Errorf("ShortSigned(%d, %#x) = %d, want %d", tt.kind, tt.payload, got, tt.signed)
		}
	}
}

func TestConstantsDistinct(t *testing.T) {
	consts := []uint32{ValueFalse, ValueTrue, ValueVoid, ValueUnit}
	seen := map[uint32]bool{}
	for _, c := range consts {
		if !IsConst(c) {
			t.Errorf("constant %#x not in TagConst family", c)
		}
		if IsSimpleNumber(c) || IsPointer(c) || IsShort(c) {
			t.Errorf("constant %#x overlaps another kind", c)
		}
		if seen[c] {
			t.Errorf("constant %#x duplicated", c)
		}
		seen[c] = true
	}
}

func TestKindsDisjoint(t *testing.T) {
	// A heap pointer is 8-byte aligned; make sure aligned addresses never
	// read as simple, short, or const.
	for _, p := range []uint32{8, 64, 0x1000, 0xFFFFFF8} {
		if !IsPointer(p) {
			t.Errorf("aligned address %#x should be a pointer", p)
		}
		if IsSimpleNumber(p) || IsShort(p) || IsConst(p) {
			t.Errorf("pointer %#x overlaps another kind", p)
		}
	}
}
