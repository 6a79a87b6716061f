package meta

import (
	"encoding/binary"

	"github.com/wippyai/grain-runtime/errors"
)

// Variant describes one ADT constructor for the Builder. A non-nil Fields
// slice marks an inline-record constructor.
type Variant struct {
	ID     uint32
	Name   string
	Fields []string
}

type descriptor struct {
	typeHash uint32
	record   []string  // record descriptor when isRecord
	variants []Variant // ADT descriptor otherwise
	isRecord bool
}

// Builder serializes a type-metadata table. It is the compiler side of the
// contract Table reads.
type Builder struct {
	bucketCount uint32
	descs       []descriptor
}

// NewBuilder creates a builder with the given bucket count.
func NewBuilder(bucketCount uint32) *Builder {
	if bucketCount == 0 {
		bucketCount = 1
	}
	return &Builder{bucketCount: bucketCount}
}

// AddRecord registers a record type's field names under its type hash.
func (b *Builder) AddRecord(typeHash uint32, fields []string) {
	b.descs = append(b.descs, descriptor{typeHash: typeHash, record: fields, isRecord: true})
}

// AddADT registers an ADT's variants under its type hash.
func (b *Builder) AddADT(typeHash uint32, variants []Variant) {
	b.descs = append(b.descs, descriptor{typeHash: typeHash, variants: variants})
}

// Build serializes the table. All internal offsets are relative to the
// table base, so the blob can be written at any address.
func (b *Builder) Build() ([]byte, error) {
	// Bucket the entries.
	buckets := make([][]descriptor, b.bucketCount)
	for _, d := range b.descs {
		idx := d.typeHash % b.bucketCount
		buckets[idx] = append(buckets[idx], d)
	}

	headerSize := 4 + b.bucketCount*8
	entriesSize := uint32(len(b.descs)) * 8
	descBase := align8(headerSize + entriesSize)

	// Serialize descriptors first so the entry table can carry their
	// offsets.
	var descBlob []byte
	offsets := map[uint32]uint32{} // typeHash -> offset from base
	for _, bucket := range buckets {
		for _, d := range bucket {
			if _, dup := offsets[d.typeHash]; dup {
				return nil, errors.InvalidArgument(errors.PhaseMeta,
					"duplicate type hash %#x", d.typeHash)
			}
			offsets[d.typeHash] = descBase + uint32(len(descBlob))
			if d.isRecord {
				descBlob = append(descBlob, buildFieldBlock(d.record)...)
			} else {
				blob, err := buildADT(d.variants)
				if err != nil {
					return nil, err
				}
				descBlob = append(descBlob, blob...)
			}
			descBlob = pad8(descBlob)
		}
	}

	out := make([]byte, 0, int(descBase)+len(descBlob))
	out = appendU32(out, b.bucketCount)

	// Bucket headers: each names the offset of its packed entry group.
	entryOff := headerSize
	for _, bucket := range buckets {
		out = appendU32(out, entryOff)
		out = appendU32(out, uint32(len(bucket)))
		entryOff += uint32(len(bucket)) * 8
	}

	// Entry groups.
	for _, bucket := range buckets {
		for _, d := range bucket {
			out = appendU32(out, d.typeHash)
			out = appendU32(out, offsets[d.typeHash])
		}
	}

	out = pad8(out)
	out = append(out, descBlob...)
	return out, nil
}

// buildFieldBlock serializes a record field-name block: section length,
// then length-prefixed names padded to 8 bytes.
func buildFieldBlock(fields []string) []byte {
	var body []byte
	for _, f := range fields {
		body = appendU32(body, uint32(len(f)))
		body = append(body, f...)
		body = pad8(body)
	}
	out := appendU32(nil, uint32(len(body)))
	return append(out, body...)
}

func buildADT(variants []Variant) ([]byte, error) {
	var body []byte
	for _, v := range variants {
		block := appendU32(nil, 0) // block length patched below
		block = appendU32(block, 0) // field distance patched below
		block = appendU32(block, v.ID)
		block = appendU32(block, uint32(len(v.Name)))
		block = append(block, v.Name...)
		block = pad8(block)
		if v.Fields != nil {
			binary.LittleEndian.PutUint32(block[4:], uint32(len(block)))
			block = append(block, buildFieldBlock(v.Fields)...)
			block = pad8(block)
		}
		binary.LittleEndian.PutUint32(block[0:], uint32(len(block)))
		body = append(body, block...)
	}
	out := appendU32(nil, uint32(len(body)))
	return append(out, body...), nil
}

func appendU32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

func pad8(b []byte) []byte {
	for len(b)%8 != 0 {
		b = append(b, 0)
	}
	return b
}
