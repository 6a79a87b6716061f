package runtime

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/grain-runtime/errors"
	"github.com/wippyai/grain-runtime/tags"
	"github.com/wippyai/grain-runtime/usv"
)

// Byte container operations. Strings and Bytes share one layout and differ
// only in the kind tag; strings additionally maintain the invariant that
// their payload is well-formed UTF-8.

func (rt *Runtime) bytesLength(b uint32) (uint32, error) {
	kind, ok := rt.HeapKindOf(b)
	if !ok || (kind != tags.KindBytes && kind != tags.KindString) {
		return 0, errors.InvalidArgument(errors.PhaseBytes, "%#x is not a byte container", b)
	}
	return rt.readU32(b + tags.BytesLengthOffset), nil
}

// BytesMake allocates a zero-filled bytes object of length n.
func (rt *Runtime) BytesMake(n int64) (uint32, error) {
	if n < 0 {
		return 0, errors.InvalidArgument(errors.PhaseBytes, "negative size %d", n)
	}
	ptr := rt.allocObject(tags.KindBytes, tags.BytesPayloadOffset+uint32(n))
	rt.writeU32(ptr+tags.BytesLengthOffset, uint32(n))
	rt.writeBytes(ptr+tags.BytesPayloadOffset, make([]byte, n))
	return ptr, nil
}

// BytesLength reads the exact user byte length.
func (rt *Runtime) BytesLength(b uint32) (int64, error) {
	n, err := rt.bytesLength(b)
	return int64(n), err
}

// BytesCopy allocates a fresh container of equal length and content,
// preserving the kind tag.
func (rt *Runtime) BytesCopy(b uint32) (uint32, error) {
	n, err := rt.bytesLength(b)
	if err != nil {
		return 0, err
	}
	kind, _ := rt.HeapKindOf(b)
	ptr := rt.allocObject(kind, tags.BytesPayloadOffset+n)
	rt.writeU32(ptr+tags.BytesLengthOffset, n)
	rt.writeBytes(ptr+tags.BytesPayloadOffset, rt.readBytes(b+tags.BytesPayloadOffset, n))
	return ptr, nil
}

// BytesSlice copies the range [start, start+length) into a fresh object.
func (rt *Runtime) BytesSlice(start, length int64, b uint32) (uint32, error) {
	n, err := rt.bytesLength(b)
	if err != nil {
		return 0, err
	}
	if start < 0 || length < 0 || start+length > int64(n) {
		return 0, errors.InvalidArgument(errors.PhaseBytes,
			"slice [%d, +%d) out of range for length %d", start, length, n)
	}
	kind, _ := rt.HeapKindOf(b)
	ptr := rt.allocObject(kind, tags.BytesPayloadOffset+uint32(length))
	rt.writeU32(ptr+tags.BytesLengthOffset, uint32(length))
	rt.writeBytes(ptr+tags.BytesPayloadOffset,
		rt.readBytes(b+tags.BytesPayloadOffset+uint32(start), uint32(length)))
	return ptr, nil
}

// BytesResize allocates a container grown (or shrunk, for negative
// arguments) by left bytes at the front and right bytes at the back. New
// bytes are zero.
func (rt *Runtime) BytesResize(left, right int64, b uint32) (uint32, error) {
	n, err := rt.bytesLength(b)
	if err != nil {
		return 0, err
	}
	newLen := int64(n) + left + right
	if newLen < 0 {
		return 0, errors.InvalidArgument(errors.PhaseBytes,
			"resize of length %d by (%d, %d) yields negative length", n, left, right)
	}
	kind, _ := rt.HeapKindOf(b)
	ptr := rt.allocObject(kind, tags.BytesPayloadOffset+uint32(newLen))
	rt.writeU32(ptr+tags.BytesLengthOffset, uint32(newLen))

	payload := make([]byte, newLen)
	srcOff := int64(0)
	if left < 0 {
		srcOff = -left
	}
	dstOff := int64(0)
	if left > 0 {
		dstOff = left
	}
	count := int64(n) - srcOff
	if right < 0 {
		count += right
	}
	if count > newLen-dstOff {
		count = newLen - dstOff
	}
	if count > 0 {
		src := rt.readBytes(b+tags.BytesPayloadOffset+uint32(srcOff), uint32(count))
		copy(payload[dstOff:], src)
	}
	rt.writeBytes(ptr+tags.BytesPayloadOffset, payload)
	return ptr, nil
}

// BytesMove copies length bytes from src at srcOff to dst at dstOff.
// Overlap-safe, including a region moved onto itself.
func (rt *Runtime) BytesMove(srcOff, dstOff, length int64, src, dst uint32) error {
	srcLen, err := rt.bytesLength(src)
	if err != nil {
		return err
	}
	dstLen, err := rt.bytesLength(dst)
	if err != nil {
		return err
	}
	if srcOff < 0 || length < 0 || srcOff+length > int64(srcLen) {
		return errors.IndexOutOfBounds(errors.PhaseBytes, srcOff+length, int64(srcLen))
	}
	if dstOff < 0 || dstOff+length > int64(dstLen) {
		return errors.IndexOutOfBounds(errors.PhaseBytes, dstOff+length, int64(dstLen))
	}
	// The staging copy below makes the write independent of the read, so
	// overlapping ranges behave like memmove.
	data := make([]byte, length)
	copy(data, rt.readBytes(src+tags.BytesPayloadOffset+uint32(srcOff), uint32(length)))
	rt.writeBytes(dst+tags.BytesPayloadOffset+uint32(dstOff), data)
	return nil
}

// BytesConcat builds a+b through resize and move, preserving a's kind.
func (rt *Runtime) BytesConcat(a, b uint32) (uint32, error) {
	bLen, err := rt.bytesLength(b)
	if err != nil {
		return 0, err
	}
	out, err := rt.BytesResize(0, int64(bLen), a)
	if err != nil {
		return 0, err
	}
	aLen, _ := rt.bytesLength(a)
	if err := rt.BytesMove(0, int64(aLen), int64(bLen), b, out); err != nil {
		rt.DecRef(out)
		return 0, err
	}
	return out, nil
}

// BytesFill sets every byte to v.
func (rt *Runtime) BytesFill(v byte, b uint32) error {
	n, err := rt.bytesLength(b)
	if err != nil {
		return err
	}
	payload := make([]byte, n)
	for i := range payload {
		payload[i] = v
	}
	rt.writeBytes(b+tags.BytesPayloadOffset, payload)
	return nil
}

// BytesClear zeroes every byte.
func (rt *Runtime) BytesClear(b uint32) error {
	return rt.BytesFill(0, b)
}

// BytesFromString copies a string's payload into a bytes object.
func (rt *Runtime) BytesFromString(s uint32) (uint32, error) {
	kind, ok := rt.HeapKindOf(s)
	if !ok || kind != tags.KindString {
		return 0, errors.InvalidArgument(errors.PhaseBytes, "%#x is not a string", s)
	}
	n := rt.readU32(s + tags.BytesLengthOffset)
	ptr := rt.allocObject(tags.KindBytes, tags.BytesPayloadOffset+n)
	rt.writeU32(ptr+tags.BytesLengthOffset, n)
	rt.writeBytes(ptr+tags.BytesPayloadOffset, rt.readBytes(s+tags.BytesPayloadOffset, n))
	return ptr, nil
}

// BytesToString copies a bytes object's payload into a string object. The
// caller vouches for the UTF-8 invariant; codec users go through
// BytesGetChar first.
func (rt *Runtime) BytesToString(b uint32) (uint32, error) {
	kind, ok := rt.HeapKindOf(b)
	if !ok || kind != tags.KindBytes {
		return 0, errors.InvalidArgument(errors.PhaseBytes, "%#x is not a bytes object", b)
	}
	n := rt.readU32(b + tags.BytesLengthOffset)
	ptr := rt.allocObject(tags.KindString, tags.BytesPayloadOffset+n)
	rt.writeU32(ptr+tags.BytesLengthOffset, n)
	rt.writeBytes(ptr+tags.BytesPayloadOffset, rt.readBytes(b+tags.BytesPayloadOffset, n))
	return ptr, nil
}

// Fixed-width accessors. All reads and writes are little-endian and
// bounds-checked; this is the serialization contract for buffers
// exchanged with the host.

func (rt *Runtime) accessRange(off, width int64, b uint32) (uint32, error) {
	n, err := rt.bytesLength(b)
	if err != nil {
		return 0, err
	}
	if off < 0 || off+width > int64(n) {
		return 0, errors.IndexOutOfBounds(errors.PhaseBytes, off, int64(n))
	}
	return b + tags.BytesPayloadOffset + uint32(off), nil
}

func (rt *Runtime) BytesGetUint8(off int64, b uint32) (uint8, error) {
	addr, err := rt.accessRange(off, 1, b)
	if err != nil {
		return 0, err
	}
	return rt.readBytes(addr, 1)[0], nil
}

func (rt *Runtime) BytesGetInt8(off int64, b uint32) (int8, error) {
	v, err := rt.BytesGetUint8(off, b)
	return int8(v), err
}

func (rt *Runtime) BytesGetUint16(off int64, b uint32) (uint16, error) {
	addr, err := rt.accessRange(off, 2, b)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(rt.readBytes(addr, 2)), nil
}

func (rt *Runtime) BytesGetInt16(off int64, b uint32) (int16, error) {
	v, err := rt.BytesGetUint16(off, b)
	return int16(v), err
}

func (rt *Runtime) BytesGetUint32(off int64, b uint32) (uint32, error) {
	addr, err := rt.accessRange(off, 4, b)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(rt.readBytes(addr, 4)), nil
}

func (rt *Runtime) BytesGetInt32(off int64, b uint32) (int32, error) {
	v, err := rt.BytesGetUint32(off, b)
	return int32(v), err
}

func (rt *Runtime) BytesGetUint64(off int64, b uint32) (uint64, error) {
	addr, err := rt.accessRange(off, 8, b)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(rt.readBytes(addr, 8)), nil
}

func (rt *Runtime) BytesGetInt64(off int64, b uint32) (int64, error) {
	v, err := rt.BytesGetUint64(off, b)
	return int64(v), err
}

func (rt *Runtime) BytesGetFloat32(off int64, b uint32) (float32, error) {
	v, err := rt.BytesGetUint32(off, b)
	return math.Float32frombits(v), err
}

func (rt *Runtime) BytesGetFloat64(off int64, b uint32) (float64, error) {
	v, err := rt.BytesGetUint64(off, b)
	return math.Float64frombits(v), err
}

func (rt *Runtime) BytesSetUint8(off int64, v uint8, b uint32) error {
	addr, err := rt.accessRange(off, 1, b)
	if err != nil {
		return err
	}
	rt.writeBytes(addr, []byte{v})
	return nil
}

func (rt *Runtime) BytesSetInt8(off int64, v int8, b uint32) error {
	return rt.BytesSetUint8(off, uint8(v), b)
}

func (rt *Runtime) BytesSetUint16(off int64, v uint16, b uint32) error {
	addr, err := rt.accessRange(off, 2, b)
	if err != nil {
		return err
	}
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	rt.writeBytes(addr, buf[:])
	return nil
}

func (rt *Runtime) BytesSetInt16(off int64, v int16, b uint32) error {
	return rt.BytesSetUint16(off, uint16(v), b)
}

func (rt *Runtime) BytesSetUint32(off int64, v uint32, b uint32) error {
	addr, err := rt.accessRange(off, 4, b)
	if err != nil {
		return err
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	rt.writeBytes(addr, buf[:])
	return nil
}

func (rt *Runtime) BytesSetInt32(off int64, v int32, b uint32) error {
	return rt.BytesSetUint32(off, uint32(v), b)
}

func (rt *Runtime) BytesSetUint64(off int64, v uint64, b uint32) error {
	addr, err := rt.accessRange(off, 8, b)
	if err != nil {
		return err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	rt.writeBytes(addr, buf[:])
	return nil
}

func (rt *Runtime) BytesSetInt64(off int64, v int64, b uint32) error {
	return rt.BytesSetUint64(off, uint64(v), b)
}

func (rt *Runtime) BytesSetFloat32(off int64, v float32, b uint32) error {
	return rt.BytesSetUint32(off, math.Float32bits(v), b)
}

func (rt *Runtime) BytesSetFloat64(off int64, v float64, b uint32) error {
	return rt.BytesSetUint64(off, math.Float64bits(v), b)
}

// BytesGetChar decodes the UTF-8 scalar starting at byte offset i.
func (rt *Runtime) BytesGetChar(i int64, b uint32) (rune, error) {
	n, err := rt.bytesLength(b)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= int64(n) {
		return 0, errors.IndexOutOfBounds(errors.PhaseBytes, i, int64(n))
	}
	end := i + 4
	if end > int64(n) {
		end = int64(n)
	}
	window := rt.readBytes(b+tags.BytesPayloadOffset+uint32(i), uint32(end-i))
	r, _, err := usv.ReadCodePoint(window)
	return r, err
}

// BytesSetChar writes the UTF-8 encoding of c at byte offset i.
func (rt *Runtime) BytesSetChar(i int64, c rune, b uint32) error {
	if !usv.IsScalar(c) {
		return errors.InvalidArgument(errors.PhaseBytes,
			"U+%04X is not a Unicode scalar value", c)
	}
	n, err := rt.bytesLength(b)
	if err != nil {
		return err
	}
	need := int64(usv.EncodeLength(c))
	if i < 0 || i+need > int64(n) {
		return errors.IndexOutOfBounds(errors.PhaseBytes, i, int64(n))
	}
	var buf [4]byte
	written := usv.WriteCodePoint(buf[:], c)
	rt.writeBytes(b+tags.BytesPayloadOffset+uint32(i), buf[:written])
	return nil
}
