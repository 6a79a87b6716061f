package meta

import (
	grainruntime "github.com/wippyai/grain-runtime"
	"github.com/wippyai/grain-runtime/errors"
)

// HashTypeName derives the 31-bit type hash of a fully qualified type
// name. The compiler computes the same function statically; changing it
// requires a matching compiler release.
func HashTypeName(name string) uint32 {
	// FNV-1a masked to its low 31 bits.
	h := uint32(2166136261)
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= 16777619
	}
	return h & 0x7FFFFFFF
}

// Table is a read-only view of a type-metadata table in linear memory.
type Table struct {
	mem         grainruntime.Memory
	base        uint32
	bucketCount uint32
}

// Attach opens the table at base. The bucket count is validated eagerly;
// descriptor contents are validated lazily on access.
func Attach(mem grainruntime.Memory, base uint32) (*Table, error) {
	count, err := mem.ReadU32(base)
	if err != nil {
		return nil, errors.New(errors.PhaseMeta, errors.KindCorrupt).
			Detail("table header unreadable at %#x", base).Cause(err).Build()
	}
	if count == 0 {
		return nil, errors.New(errors.PhaseMeta, errors.KindCorrupt).
			Detail("zero bucket count at %#x", base).Build()
	}
	return &Table{mem: mem, base: base, bucketCount: count}, nil
}

func (t *Table) readU32(off uint32) (uint32, error) {
	v, err := t.mem.ReadU32(off)
	if err != nil {
		return 0, errors.New(errors.PhaseMeta, errors.KindCorrupt).
			Detail("table read out of range at %#x", off).Cause(err).Build()
	}
	return v, nil
}

func (t *Table) readName(off, length uint32) (string, error) {
	b, err := t.mem.Read(off, length)
	if err != nil {
		return "", errors.New(errors.PhaseMeta, errors.KindCorrupt).
			Detail("name of %d bytes unreadable at %#x", length, off).Cause(err).Build()
	}
	return string(b), nil
}

// Lookup resolves a type hash to the absolute offset of its descriptor.
// The second result is false when the hash is absent.
func (t *Table) Lookup(typeHash uint32) (uint32, bool) {
	idx := typeHash % t.bucketCount
	dataOff, err := t.readU32(t.base + 4 + idx*8)
	if err != nil {
		return 0, false
	}
	entryCount, err := t.readU32(t.base + 4 + idx*8 + 4)
	if err != nil {
		return 0, false
	}
	entry := t.base + dataOff
	for i := uint32(0); i < entryCount; i++ {
		hash, err := t.readU32(entry)
		if err != nil {
			return 0, false
		}
		if hash == typeHash {
			descOff, err := t.readU32(entry + 4)
			if err != nil {
				return 0, false
			}
			return t.base + descOff, true
		}
		entry += 8
	}
	return 0, false
}

// fieldBlock walks a packed field-name block: a section length followed by
// (length-prefixed, 8-byte padded) names.
func (t *Table) fieldBlock(off uint32) ([]string, error) {
	sectionLen, err := t.readU32(off)
	if err != nil {
		return nil, err
	}
	var fields []string
	cursor := off + 4
	end := off + 4 + sectionLen
	for cursor < end {
		nameLen, err := t.readU32(cursor)
		if err != nil {
			return nil, err
		}
		name, err := t.readName(cursor+4, nameLen)
		if err != nil {
			return nil, err
		}
		fields = append(fields, name)
		cursor += align8(4 + nameLen)
	}
	if cursor != end {
		return nil, errors.New(errors.PhaseMeta, errors.KindCorrupt).
			Detail("field block at %#x overruns its section length", off).Build()
	}
	return fields, nil
}

// RecordFields returns the field names of the record descriptor at
// descOff (as returned by Lookup).
func (t *Table) RecordFields(descOff uint32) ([]string, error) {
	return t.fieldBlock(descOff)
}

// VariantInfo describes one constructor of an ADT.
type VariantInfo struct {
	ID   uint32
	Name string
	// Fields holds the inline-record field names; nil for tuple
	// constructors.
	Fields []string
}

// Variant finds the variant with the given id in the ADT descriptor at
// descOff.
func (t *Table) Variant(descOff, variantID uint32) (VariantInfo, error) {
	sectionLen, err := t.readU32(descOff)
	if err != nil {
		return VariantInfo{}, err
	}
	cursor := descOff + 4
	end := descOff + 4 + sectionLen
	for cursor < end {
		blockLen, err := t.readU32(cursor)
		if err != nil {
			return VariantInfo{}, err
		}
		id, err := t.readU32(cursor + 8)
		if err != nil {
			return VariantInfo{}, err
		}
		if id == variantID {
			return t.readVariant(cursor)
		}
		cursor += blockLen
	}
	return VariantInfo{}, errors.NotFound(errors.PhaseMeta,
		"variant id %d absent from descriptor at %#x", variantID, descOff)
}

func (t *Table) readVariant(blockOff uint32) (VariantInfo, error) {
	fieldDist, err := t.readU32(blockOff + 4)
	if err != nil {
		return VariantInfo{}, err
	}
	id, err := t.readU32(blockOff + 8)
	if err != nil {
		return VariantInfo{}, err
	}
	nameLen, err := t.readU32(blockOff + 12)
	if err != nil {
		return VariantInfo{}, err
	}
	name, err := t.readName(blockOff+16, nameLen)
	if err != nil {
		return VariantInfo{}, err
	}
	v := VariantInfo{ID: id, Name: name}
	if fieldDist != 0 {
		v.Fields, err = t.fieldBlock(blockOff + fieldDist)
		if err != nil {
			return VariantInfo{}, err
		}
	}
	return v, nil
}

func align8(v uint32) uint32 {
	return (v + 7) &^ 7
}
