package grainruntime

// Memory represents WASM linear memory
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of WASM linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Grower grows linear memory by delta 64KiB pages. It reports the previous
// size in pages and whether the host granted the request. Linear memory
// never shrinks.
type Grower interface {
	Grow(deltaPages uint32) (previousPages uint32, ok bool)
}

// Allocator allocates blocks inside WASM linear memory
type Allocator interface {
	Malloc(size uint32) (uint32, error)
	Free(ptr uint32) error
}
