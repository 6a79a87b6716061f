package runtime

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/wippyai/grain-runtime/tags"
)

// Structural hashing: a MurmurHash3 (32-bit) walk that mirrors equality.
// Numbers canonicalize through their exact value first, so every
// representation of the same number hashes identically.

// maxHashDepth bounds the recursion. Children past this depth are not
// mixed in; hashing stays O(1) on long recursive structures, and equality
// remains the tiebreaker for the rare resulting collisions.
const maxHashDepth = 31

// HashInstance is an opaque seeded hashing instance.
type HashInstance struct {
	seed uint32
}

// HashMake returns the process-wide seeded instance. The seed is drawn
// once from the host's RNG on first use.
func (rt *Runtime) HashMake() HashInstance {
	if !rt.seeded {
		var buf [4]byte
		if _, err := rand.Read(buf[:]); err == nil {
			rt.seed = binary.LittleEndian.Uint32(buf[:])
		}
		rt.seeded = true
	}
	return HashInstance{seed: rt.seed}
}

// HashMakeSeeded wraps a caller-provided seed.
func HashMakeSeeded(seed uint32) HashInstance {
	return HashInstance{seed: seed}
}

// Hash computes the 32-bit structural hash of v under h.
func (rt *Runtime) Hash(h HashInstance, v uint32) uint32 {
	m := &mixer{h: h.seed}
	rt.hashValue(m, v, 0)
	return m.finalize()
}

// HashTagged returns the hash folded into a tagged simple number, the form
// compiled code receives.
func (rt *Runtime) HashTagged(h HashInstance, v uint32) uint32 {
	return tags.MakeSimple(int32(rt.Hash(h, v)<<1) >> 1)
}

// mixer is an incremental murmur3-32 state.
type mixer struct {
	h   uint32
	len uint32
}

const (
	murmurC1 = 0xcc9e2d51
	murmurC2 = 0x1b873593
)

func (m *mixer) mix(k uint32) {
	k *= murmurC1
	k = bits.RotateLeft32(k, 15)
	k *= murmurC2
	m.h ^= k
	m.h = bits.RotateLeft32(m.h, 13)
	m.h = m.h*5 + 0xe6546b64
	m.len += 4
}

// mixTail folds a partial word without the full round, matching the
// murmur3 tail treatment.
func (m *mixer) mixTail(k uint32, n uint32) {
	k *= murmurC1
	k = bits.RotateLeft32(k, 15)
	k *= murmurC2
	m.h ^= k
	m.len += n
}

func (m *mixer) mix64(v uint64) {
	m.mix(uint32(v))
	m.mix(uint32(v >> 32))
}

func (m *mixer) finalize() uint32 {
	h := m.h ^ m.len
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

func (rt *Runtime) hashValue(m *mixer, v uint32, depth int) {
	if depth >= maxHashDepth {
		return
	}

	if n, ok := rt.numericOf(v); ok {
		rt.hashNumber(m, n)
		return
	}
	if !tags.IsPointer(v) {
		// Shorts, chars, booleans, void, unit: the raw word.
		m.mix(v)
		return
	}

	kind := tags.HeapKind(rt.readU32(v))
	switch kind {
	case tags.KindString, tags.KindBytes:
		n := rt.readU32(v + tags.BytesLengthOffset)
		payload := rt.readBytes(v+tags.BytesPayloadOffset, n)
		i := uint32(0)
		for ; i+4 <= n; i += 4 {
			m.mix(binary.LittleEndian.Uint32(payload[i:]))
		}
		if rem := n - i; rem > 0 {
			var tail uint32
			for j := uint32(0); j < rem; j++ {
				tail |= uint32(payload[i+j]) << (8 * j)
			}
			m.mixTail(tail, rem)
		}
		m.mix(n)
	case tags.KindTuple, tags.KindArray:
		arity := rt.readU32(v + tags.TupleArityOffset)
		for i := uint32(0); i < arity; i++ {
			rt.hashValue(m, rt.readU32(v+tags.TuplePayloadOffset+4*i), depth+1)
		}
		m.mix(arity)
	case tags.KindLambda:
		arity := rt.readU32(v + tags.LambdaArityOffset)
		for i := uint32(0); i < arity; i++ {
			rt.hashValue(m, rt.readU32(v+tags.LambdaPayloadOffset+4*i), depth+1)
		}
		m.mix(arity)
	case tags.KindRecord:
		m.mix(rt.readU32(v + tags.RecordModuleHashOffset))
		m.mix(rt.readU32(v + tags.RecordTypeHashOffset))
		arity := rt.readU32(v + tags.RecordArityOffset)
		for i := uint32(0); i < arity; i++ {
			rt.hashValue(m, rt.readU32(v+tags.RecordPayloadOffset+4*i), depth+1)
		}
	case tags.KindADT:
		m.mix(rt.readU32(v + tags.ADTTypeHashOffset))
		m.mix(rt.readU32(v + tags.ADTVariantOffset))
		arity := rt.readU32(v + tags.ADTArityOffset)
		for i := uint32(0); i < arity; i++ {
			rt.hashValue(m, rt.readU32(v+tags.ADTPayloadOffset+4*i), depth+1)
		}
	}
}

// hashNumber mixes the canonical form of a number: integers that fit 64
// bits as one 64-bit word, wider integers as their limbs, rationals as
// numerator and denominator limbs, non-finite floats as their bit
// pattern. Equal numbers always mix identically regardless of their
// heap representation.
func (rt *Runtime) hashNumber(m *mixer, n number) {
	if n.rat == nil {
		m.mix64(math.Float64bits(n.f))
		return
	}
	if n.rat.IsInt() {
		num := n.rat.Num()
		if num.IsInt64() {
			m.mix64(uint64(num.Int64()))
			return
		}
		mixBigLimbs(m, num)
		return
	}
	mixBigLimbs(m, n.rat.Num())
	mixBigLimbs(m, n.rat.Denom())
}

func mixBigLimbs(m *mixer, v interface {
	Bytes() []byte
	Sign() int
}) {
	mag := v.Bytes()
	limbs := (len(mag) + 7) / 8
	for i := 0; i < limbs; i++ {
		var limb uint64
		for b := 0; b < 8; b++ {
			idx := len(mag) - (i*8 + b) - 1
			if idx < 0 {
				break
			}
			limb |= uint64(mag[idx]) << (8 * b)
		}
		m.mix64(limb)
	}
	m.mix(uint32(limbs))
	if v.Sign() < 0 {
		m.mix(1)
	}
}
