package grainruntime

import (
	"encoding/binary"
	"fmt"
)

// PageSize is the WASM linear memory page size in bytes.
const PageSize = 64 * 1024

// ArrayMemory is an in-process linear memory backed by a byte slice. It
// grows in 64KiB pages like real WASM memory and is used by tests and by
// hosts that run the runtime without a guest VM.
type ArrayMemory struct {
	data     []byte
	maxPages uint32
}

// NewArrayMemory creates a linear memory with the given number of initial
// pages and no growth limit.
func NewArrayMemory(initialPages uint32) *ArrayMemory {
	return &ArrayMemory{data: make([]byte, int(initialPages)*PageSize)}
}

// NewArrayMemoryWithLimit creates a linear memory that refuses to grow past
// maxPages. Used to exercise out-of-memory paths.
func NewArrayMemoryWithLimit(initialPages, maxPages uint32) *ArrayMemory {
	return &ArrayMemory{
		data:     make([]byte, int(initialPages)*PageSize),
		maxPages: maxPages,
	}
}

func (m *ArrayMemory) Size() uint32 {
	return uint32(len(m.data))
}

func (m *ArrayMemory) Grow(deltaPages uint32) (uint32, bool) {
	prev := uint32(len(m.data)) / PageSize
	if m.maxPages != 0 && prev+deltaPages > m.maxPages {
		return prev, false
	}
	m.data = append(m.data, make([]byte, int(deltaPages)*PageSize)...)
	return prev, true
}

func (m *ArrayMemory) check(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(len(m.data)) {
		return fmt.Errorf("memory access out of range: offset=%d length=%d size=%d",
			offset, length, len(m.data))
	}
	return nil
}

func (m *ArrayMemory) Read(offset uint32, length uint32) ([]byte, error) {
	if err := m.check(offset, length); err != nil {
		return nil, err
	}
	return m.data[offset : offset+length], nil
}

func (m *ArrayMemory) Write(offset uint32, data []byte) error {
	if err := m.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *ArrayMemory) ReadU8(offset uint32) (uint8, error) {
	if err := m.check(offset, 1); err != nil {
		return 0, err
	}
	return m.data[offset], nil
}

func (m *ArrayMemory) ReadU16(offset uint32) (uint16, error) {
	if err := m.check(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.data[offset:]), nil
}

func (m *ArrayMemory) ReadU32(offset uint32) (uint32, error) {
	if err := m.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.data[offset:]), nil
}

func (m *ArrayMemory) ReadU64(offset uint32) (uint64, error) {
	if err := m.check(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.data[offset:]), nil
}

func (m *ArrayMemory) WriteU8(offset uint32, value uint8) error {
	if err := m.check(offset, 1); err != nil {
		return err
	}
	m.data[offset] = value
	return nil
}

func (m *ArrayMemory) WriteU16(offset uint32, value uint16) error {
	if err := m.check(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.data[offset:], value)
	return nil
}

func (m *ArrayMemory) WriteU32(offset uint32, value uint32) error {
	if err := m.check(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[offset:], value)
	return nil
}

func (m *ArrayMemory) WriteU64(offset uint32, value uint64) error {
	if err := m.check(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.data[offset:], value)
	return nil
}
