// Package usv implements the UTF-8 codec over Unicode scalar values.
//
// The alphabet is 0..0x10FFFF excluding the surrogate range. Unlike the
// standard library decoder, every malformed input (overlong encoding,
// surrogate, truncated or stray continuation byte) is reported as a
// distinct error so callers can surface MalformedUnicode exceptions with
// a useful message.
package usv

import (
	runtimeerrors "github.com/wippyai/grain-runtime/errors"
)

const (
	// MaxScalar is the highest Unicode scalar value.
	MaxScalar rune = 0x10FFFF

	surrogateMin rune = 0xD800
	surrogateMax rune = 0xDFFF
)

// IsScalar reports whether r is a Unicode scalar value.
func IsScalar(r rune) bool {
	return r >= 0 && r <= MaxScalar && (r < surrogateMin || r > surrogateMax)
}

// EncodeLength returns the number of bytes the UTF-8 encoding of r
// occupies (1..4). r must be a valid scalar.
func EncodeLength(r rune) int {
	switch {
	case r < 0x80:
		return 1
	case r < 0x800:
		return 2
	case r < 0x10000:
		return 3
	default:
		return 4
	}
}

// ByteCount classifies a leading byte into the total byte count of its
// sequence. Continuation bytes (10xxxxxx) and the 5-or-more-byte leading
// patterns are malformed.
func ByteCount(first byte) (int, error) {
	switch {
	case first&0x80 == 0x00:
		return 1, nil
	case first&0xE0 == 0xC0:
		return 2, nil
	case first&0xF0 == 0xE0:
		return 3, nil
	case first&0xF8 == 0xF0:
		return 4, nil
	case first&0xC0 == 0x80:
		return 0, runtimeerrors.MalformedUnicode("unexpected continuation byte 0x%02x", first)
	default:
		return 0, runtimeerrors.MalformedUnicode("invalid leading byte 0x%02x", first)
	}
}

// WriteCodePoint writes the UTF-8 encoding of r into dst and returns the
// byte count. The caller has ensured dst holds at least EncodeLength(r)
// bytes and that r is a valid scalar.
func WriteCodePoint(dst []byte, r rune) int {
	switch n := EncodeLength(r); n {
	case 1:
		dst[0] = byte(r)
		return 1
	case 2:
		dst[0] = 0xC0 | byte(r>>6)
		dst[1] = 0x80 | byte(r)&0x3F
		return 2
	case 3:
		dst[0] = 0xE0 | byte(r>>12)
		dst[1] = 0x80 | byte(r>>6)&0x3F
		dst[2] = 0x80 | byte(r)&0x3F
		return 3
	default:
		dst[0] = 0xF0 | byte(r>>18)
		dst[1] = 0x80 | byte(r>>12)&0x3F
		dst[2] = 0x80 | byte(r>>6)&0x3F
		dst[3] = 0x80 | byte(r)&0x3F
		return 4
	}
}

// minScalarFor is the smallest scalar encodable with n bytes; anything
// below it is an overlong encoding.
var minScalarFor = [5]rune{0, 0, 0x80, 0x800, 0x10000}

// ReadCodePoint decodes one scalar from the front of src. It returns the
// scalar and the byte count consumed.
func ReadCodePoint(src []byte) (rune, int, error) {
	if len(src) == 0 {
		return 0, 0, runtimeerrors.MalformedUnicode("empty input")
	}
	n, err := ByteCount(src[0])
	if err != nil {
		return 0, 0, err
	}
	if n == 1 {
		return rune(src[0]), 1, nil
	}
	if len(src) < n {
		return 0, 0, runtimeerrors.MalformedUnicode("truncated %d-byte sequence: have %d bytes", n, len(src))
	}
	r := rune(src[0] & (0x7F >> uint(n)))
	for i := 1; i < n; i++ {
		b := src[i]
		if b&0xC0 != 0x80 {
			return 0, 0, runtimeerrors.MalformedUnicode("byte %d of %d-byte sequence is not a continuation: 0x%02x", i, n, b)
		}
		r = r<<6 | rune(b&0x3F)
	}
	if r < minScalarFor[n] {
		return 0, 0, runtimeerrors.MalformedUnicode("overlong %d-byte encoding of U+%04X", n, r)
	}
	if r >= surrogateMin && r <= surrogateMax {
		return 0, 0, runtimeerrors.MalformedUnicode("surrogate U+%04X", r)
	}
	if r > MaxScalar {
		return 0, 0, runtimeerrors.MalformedUnicode("scalar U+%X above U+10FFFF", r)
	}
	return r, n, nil
}
