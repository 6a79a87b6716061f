package usv

import (
	"testing"

	"github.com/wippyai/grain-runtime/errors"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	scalars := []rune{
		0, 'a', 0x7F, // 1 byte
		0x80, 0x7FF, // 2 bytes
		0x800, 0xD7FF, 0xE000, 0xFFFD, // 3 bytes
		0x10000, 0x1F600, 0x10FFFF, // 4 bytes
	}
	var buf [4]byte
	for _, r := range scalars {
		n := WriteCodePoint(buf[:], r)
		if n != EncodeLength(r) {
			t.Fatalf("U+%04X: wrote %d bytes, EncodeLength says %d", r, n, EncodeLength(r))
		}
		got, consumed, err := ReadCodePoint(buf[:n])
		if err != nil {
			t.Fatalf("U+%04X: decode error: %v", r, err)
		}
		if got != r || consumed != n {
			t.Errorf("U+%04X: decoded U+%04X consuming %d bytes (wrote %d)", r, got, consumed, n)
		}
	}
}

func TestByteCount(t *testing.T) {
	tests := []struct {
		first byte
		want  int
	}{
		{0x00, 1}, {0x7F, 1},
		{0xC2, 2}, {0xDF, 2},
		{0xE0, 3}, {0xEF, 3},
		{0xF0, 4}, {0xF4, 4},
	}
	for _, tt := range tests {
		got, err := ByteCount(tt.first)
		if err != nil || got != tt.want {
			t.Errorf("ByteCount(0x%02x) = %d, %v; want %d", tt.first, got, err, tt.want)
		}
	}

	for _, bad := range []byte{0x80, 0xBF, 0xF8, 0xFF} {
		if _, err := ByteCount(bad); !errors.IsKind(err, errors.KindMalformedUnicode) {
			t.Errorf("ByteCount(0x%02x) should be malformed, got %v", bad, err)
		}
	}
}

func TestReadCodePointMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"stray continuation", []byte{0x80}},
		{"truncated 2-byte", []byte{0xC2}},
		{"truncated 4-byte", []byte{0xF0, 0x9F, 0x98}},
		{"bad continuation", []byte{0xE0, 0xA0, 0x41}},
		{"overlong slash", []byte{0xC0, 0xAF}},
		{"overlong nul 3-byte", []byte{0xE0, 0x80, 0x80}},
		{"surrogate", []byte{0xED, 0xA0, 0x80}},
		{"above max", []byte{0xF4, 0x90, 0x80, 0x80}},
	}
	for _, tt := range tests {
		if _, _, err := ReadCodePoint(tt.in); !errors.IsKind(err, errors.KindMalformedUnicode) {
			t.Errorf("%s: want MalformedUnicode, got %v", tt.name, err)
		}
	}
}

func TestIsScalar(t *testing.T) {
	for _, r := range []rune{0, 0xD7FF, 0xE000, 0x10FFFF} {
		if !IsScalar(r) {
			t.Errorf("U+%04X should be a scalar", r)
		}
	}
	for _, r := range []rune{-1, 0xD800, 0xDFFF, 0x110000} {
		if IsScalar(r) {
			t.Errorf("U+%04X should not be a scalar", r)
		}
	}
}
