package tags

// HeapKind is the 32-bit kind tag at offset 0 of every heap object header.
type HeapKind uint32

const (
	KindString      HeapKind = 1
	KindBytes       HeapKind = 2
	KindTuple       HeapKind = 3
	KindArray       HeapKind = 4
	KindRecord      HeapKind = 5
	KindADT         HeapKind = 6
	KindLambda      HeapKind = 7
	KindBoxedNumber HeapKind = 8
	KindInt32       HeapKind = 9
	KindUint32      HeapKind = 10
	KindFloat32     HeapKind = 11
)

// BoxedKind is the sub-tag at offset 4 of a KindBoxedNumber object. The
// wide numeric representations share one top-level kind because their
// headers are larger than the 32-bit boxes.
type BoxedKind uint32

const (
	BoxedInt64    BoxedKind = 1
	BoxedFloat64  BoxedKind = 2
	BoxedBigInt   BoxedKind = 3
	BoxedRational BoxedKind = 4
	BoxedUint64   BoxedKind = 5
)

// Header field byte offsets, per heap kind. Every object starts with the
// 64-bit header pair (kind at 0, kind-specific metadata at 4); compound
// kinds extend the header before their payload words.
const (
	HeaderKindOffset = 0

	// String / Bytes: byte length at 4, raw bytes from 8.
	BytesLengthOffset  = 4
	BytesPayloadOffset = 8

	// Tuple / Array: arity at 4, fields from 8.
	TupleArityOffset   = 4
	TuplePayloadOffset = 8

	// Record: module hash at 4, type hash at 8, arity at 12, fields from 16.
	RecordModuleHashOffset = 4
	RecordTypeHashOffset   = 8
	RecordArityOffset      = 12
	RecordPayloadOffset    = 16

	// ADT variant: type hash at 4, type id at 8, variant id at 12,
	// arity at 16, fields from 20.
	ADTTypeHashOffset = 4
	ADTTypeIDOffset   = 8
	ADTVariantOffset  = 12
	ADTArityOffset    = 16
	ADTPayloadOffset  = 20

	// Lambda: arity at 4, function index at 8, captures from 12.
	LambdaArityOffset   = 4
	LambdaFuncOffset    = 8
	LambdaPayloadOffset = 12

	// Int32 / Uint32 / Float32: 32-bit payload at 4.
	Scalar32PayloadOffset = 4

	// Boxed numbers: sub-tag at 4, payload from 8.
	BoxedSubTagOffset  = 4
	BoxedPayloadOffset = 8

	// BigInt payload: sign word at 8, limb count at 12, 64-bit
	// little-endian limbs (least significant first) from 16.
	BigIntSignOffset  = 8
	BigIntCountOffset = 12
	BigIntLimbsOffset = 16

	// Rational payload: numerator pointer at 8, denominator pointer at 12.
	// Both point to boxed bigints; the denominator is always positive and
	// the pair is fully reduced.
	RationalNumOffset = 8
	RationalDenOffset = 12
)

// Built-in type ids. The compiler's @builtin.id and the runtime agree on
// these by sharing this block; the printer special-cases them.
const (
	BuiltinList   uint32 = 1
	BuiltinOption uint32 = 2
	BuiltinResult uint32 = 3
	BuiltinRange  uint32 = 4

	// BuiltinException is the type id of the Pervasives exception type.
	BuiltinException uint32 = 5
)

// Variant ids of the built-in ADTs, in declaration order.
const (
	VariantListNil  uint32 = 0
	VariantListCons uint32 = 1

	VariantOptionNone uint32 = 0
	VariantOptionSome uint32 = 1

	VariantResultOk  uint32 = 0
	VariantResultErr uint32 = 1

	VariantFailure          uint32 = 0
	VariantInvalidArgument  uint32 = 1
	VariantIndexOutOfBounds uint32 = 2
	VariantMalformedUnicode uint32 = 3
	VariantAssertionError   uint32 = 4
	VariantDivisionByZero   uint32 = 5
)
