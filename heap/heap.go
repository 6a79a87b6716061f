package heap

import (
	"fmt"

	"go.uber.org/zap"

	grainruntime "github.com/wippyai/grain-runtime"
	"github.com/wippyai/grain-runtime/errors"
)

const (
	// UnitSize is the allocation quantum in bytes.
	UnitSize = 64

	// BlockOverhead is the header plus footer size of every block.
	BlockOverhead = 16

	// DefaultReserved is the default gap between the start of heap memory
	// and the first allocatable block. The compiler's type-metadata table
	// and the free-list sentinels live in it.
	DefaultReserved = 2048

	// sentinelSpace is the tail of the reserved gap claimed by the two
	// list sentinels and the low guard footer.
	sentinelSpace = 48
)

// LinearMemory is the slice of the root memory contract the allocator
// needs.
type LinearMemory interface {
	grainruntime.Memory
	grainruntime.MemorySizer
}

// Config configures an Allocator.
type Config struct {
	Memory LinearMemory
	// Grower grows linear memory on demand. Nil means the heap is capped
	// at the memory's current size.
	Grower grainruntime.Grower
	// Base is the offset where heap memory begins. Compiled data sections
	// live below it.
	Base uint32
	// Reserved is the gap before the first allocatable block. Zero means
	// DefaultReserved; values below the sentinel space are rejected.
	Reserved uint32
	// Panic is the fatal-error sink. Out-of-memory and heap corruption
	// are not recoverable; the sink must not return. Nil means panic().
	Panic func(msg string)
}

// Allocator is the segregated free-list allocator. It implements the root
// Allocator interface.
type Allocator struct {
	mem    LinearMemory
	grower grainruntime.Grower
	fatal  func(msg string)

	base       uint32
	reserved   uint32
	smallHead  uint32 // sentinel of the 1-unit list
	largeHead  uint32 // sentinel of the >=2-unit list
	firstBlock uint32
	top        uint32 // end guard header position

	grows uint32
}

// New creates an allocator over mem. The region [Base, Base+Reserved) is
// left untouched except for its last 48 bytes, which hold the free-list
// sentinels and the low guard.
func New(cfg Config) (*Allocator, error) {
	if cfg.Memory == nil {
		return nil, errors.InvalidArgument(errors.PhaseAlloc, "nil memory")
	}
	reserved := cfg.Reserved
	if reserved == 0 {
		reserved = DefaultReserved
	}
	if reserved < sentinelSpace {
		return nil, errors.InvalidArgument(errors.PhaseAlloc, "reserved gap %d below minimum %d", reserved, sentinelSpace)
	}

	a := &Allocator{
		mem:      cfg.Memory,
		grower:   cfg.Grower,
		base:     cfg.Base,
		reserved: reserved,
		fatal:    cfg.Panic,
	}
	if a.fatal == nil {
		a.fatal = func(msg string) { panic("grain heap: " + msg) }
	}

	a.firstBlock = alignUp(a.base+a.reserved, UnitSize)
	a.smallHead = a.firstBlock - 48
	a.largeHead = a.firstBlock - 32
	a.top = a.firstBlock

	if a.mem.Size() < a.firstBlock+8 {
		if err := a.growMemoryTo(a.firstBlock + 8); err != nil {
			return nil, err
		}
	}
	a.resetLists()
	return a, nil
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}

// MetadataBase returns the start of the reserved region available to the
// compiler's tables.
func (a *Allocator) MetadataBase() uint32 {
	return a.base
}

// MetadataLimit returns the first byte past the usable reserved region.
func (a *Allocator) MetadataLimit() uint32 {
	return a.smallHead
}

// resetLists empties both free lists and rewrites the guard words.
func (a *Allocator) resetLists() {
	for _, s := range []uint32{a.smallHead, a.largeHead} {
		a.writeU32(s, 0)   // header size 0
		a.writeU32(s+8, 0) // footer size 0
		a.setPrev(s, s)
		a.setNext(s, s)
	}
	// Low guard footer directly below the first block, end guard header at
	// the top. Zero links read as in-use, stopping coalescing probes.
	a.writeU32(a.firstBlock-8, 0)
	a.writeU32(a.firstBlock-4, 0)
	a.writeU32(a.top, 0)
	a.writeU32(a.top+4, 0)
}

// Intrusive block accessors. A block's header is {size, prevFree} at its
// base, its footer {size, nextFree} in the last 8 bytes. Sentinels are
// size-0 pseudo-blocks whose footer sits directly after the header.

func (a *Allocator) readU32(off uint32) uint32 {
	v, err := a.mem.ReadU32(off)
	if err != nil {
		a.fatal(fmt.Sprintf("heap read out of range at %#x: %v", off, err))
	}
	return v
}

func (a *Allocator) writeU32(off, v uint32) {
	if err := a.mem.WriteU32(off, v); err != nil {
		a.fatal(fmt.Sprintf("heap write out of range at %#x: %v", off, err))
	}
}

func (a *Allocator) sizeOf(b uint32) uint32 { return a.readU32(b) }

func (a *Allocator) footerOf(b uint32) uint32 {
	if sz := a.sizeOf(b); sz != 0 {
		return b + sz*UnitSize - 8
	}
	return b + 8
}

func (a *Allocator) prev(b uint32) uint32 { return a.readU32(b + 4) }
func (a *Allocator) next(b uint32) uint32 { return a.readU32(a.footerOf(b) + 4) }

func (a *Allocator) setPrev(b, v uint32) { a.writeU32(b+4, v) }
func (a *Allocator) setNext(b, v uint32) { a.writeU32(a.footerOf(b)+4, v) }

func (a *Allocator) unlink(b uint32) {
	p := a.prev(b)
	n := a.next(b)
	a.setNext(p, n)
	a.setPrev(n, p)
	a.setPrev(b, 0)
	a.setNext(b, 0)
}

func (a *Allocator) push(head, b uint32) {
	n := a.next(head)
	a.setNext(head, b)
	a.setPrev(b, head)
	a.setNext(b, n)
	a.setPrev(n, b)
}

func (a *Allocator) listFor(units uint32) uint32 {
	if units == 1 {
		return a.smallHead
	}
	return a.largeHead
}

// Malloc returns an 8-byte-aligned address with at least n usable bytes.
// Failure to grow memory is fatal through the panic sink.
func (a *Allocator) Malloc(n uint32) (uint32, error) {
	units := (n + BlockOverhead + UnitSize - 1) / UnitSize

	var b uint32
	if units == 1 {
		b = a.popSmall()
	}
	if b == 0 {
		b = a.searchLarge(units)
	}
	if b == 0 {
		a.grow(units)
		if units == 1 {
			b = a.popSmall()
		}
		if b == 0 {
			b = a.searchLarge(units)
		}
		if b == 0 {
			a.fatal(fmt.Sprintf("allocation of %d bytes failed after growth", n))
			return 0, errors.New(errors.PhaseAlloc, errors.KindOutOfMemory).
				Detail("allocation of %d bytes failed", n).Build()
		}
	}

	// Mark in-use: size in both ends, zero links.
	a.writeU32(b, units)
	a.writeU32(b+4, 0)
	footer := b + units*UnitSize - 8
	a.writeU32(footer, units)
	a.writeU32(footer+4, 0)
	return b + 8, nil
}

func (a *Allocator) popSmall() uint32 {
	first := a.next(a.smallHead)
	if first == a.smallHead {
		return 0
	}
	a.unlink(first)
	return first
}

// searchLarge scans the large list for a perfect or one-unit-over fit,
// taking the whole block. Failing that, it splits the first strictly
// larger block, keeping the low end on the list. The one-off rule exists
// so a split can never strand a 1-unit residue on the large list.
func (a *Allocator) searchLarge(units uint32) uint32 {
	var firstLarger uint32
	for b := a.next(a.largeHead); b != a.largeHead; b = a.next(b) {
		sz := a.sizeOf(b)
		if sz == units || sz == units+1 {
			a.unlink(b)
			return b
		}
		if sz > units+1 && firstLarger == 0 {
			firstLarger = b
		}
	}
	if firstLarger == 0 {
		return 0
	}

	// Split: the low end keeps size-units and stays linked; the upper
	// chunk is returned. The low end's header (and its prev link) is
	// untouched; only the footer moves.
	sz := a.sizeOf(firstLarger)
	oldNext := a.next(firstLarger)
	lowSize := sz - units
	a.writeU32(firstLarger, lowSize)
	newFooter := firstLarger + lowSize*UnitSize - 8
	a.writeU32(newFooter, lowSize)
	a.writeU32(newFooter+4, oldNext)
	return firstLarger + lowSize*UnitSize
}

// Free releases the block whose payload begins at ptr. Freeing an address
// not previously returned by Malloc is undefined; the cheap structural
// checks here only catch gross misuse.
func (a *Allocator) Free(ptr uint32) error {
	if ptr < a.firstBlock+8 || ptr >= a.top || (ptr-8)%UnitSize != 0 {
		return errors.InvalidArgument(errors.PhaseAlloc, "free of %#x outside heap", ptr)
	}
	a.freeBlock(ptr - 8)
	return nil
}

// freeBlock coalesces b with free physical neighbors and pushes the
// result onto the list for its size. A neighbor is free exactly when its
// adjacent link word is non-zero; the guard words make the probes safe at
// both heap ends.
func (a *Allocator) freeBlock(b uint32) {
	sz := a.sizeOf(b)

	if a.readU32(b-4) != 0 { // previous block's footer next link
		prevSize := a.readU32(b - 8)
		pb := b - prevSize*UnitSize
		a.unlink(pb)
		b = pb
		sz += prevSize
	}

	q := b + sz*UnitSize
	if a.readU32(q+4) != 0 { // next block's header prev link
		nextSize := a.readU32(q)
		a.unlink(q)
		sz += nextSize
	}

	a.writeU32(b, sz)
	a.writeU32(b+sz*UnitSize-8, sz)
	a.push(a.listFor(sz), b)
}

// grow extends the heap by at least units, plus one unit of sentinel
// slack, and frees the new region into the lists. All space between the
// current top and the end of memory is claimed, so a tail free block
// coalesces with the new region.
func (a *Allocator) grow(units uint32) {
	need := a.top + (units+1)*UnitSize + 8
	if need > a.mem.Size() {
		if err := a.growMemoryTo(need); err != nil {
			a.fatal(err.Error())
			return
		}
	}

	blockUnits := (a.mem.Size() - a.top - 8) / UnitSize
	b := a.top
	a.top = b + blockUnits*UnitSize
	a.writeU32(a.top, 0) // new end guard
	a.writeU32(a.top+4, 0)
	a.writeU32(b, blockUnits)
	a.writeU32(b+4, 0)
	a.writeU32(b+blockUnits*UnitSize-8, blockUnits)
	a.writeU32(b+blockUnits*UnitSize-4, 0)
	a.grows++
	Logger().Debug("heap grown",
		zap.Uint32("units", blockUnits),
		zap.Uint32("top", a.top))
	a.freeBlock(b)
}

func (a *Allocator) growMemoryTo(need uint32) error {
	if a.grower == nil {
		return errors.New(errors.PhaseAlloc, errors.KindOutOfMemory).
			Detail("need %d bytes, have %d, no grower", need, a.mem.Size()).Build()
	}
	delta := (need - a.mem.Size() + grainruntime.PageSize - 1) / grainruntime.PageSize
	if _, ok := a.grower.Grow(delta); !ok {
		return errors.New(errors.PhaseAlloc, errors.KindOutOfMemory).
			Detail("host refused to grow memory by %d pages", delta).Build()
	}
	return nil
}

// LeakAll discards all free-list state without touching pages. The heap
// top resets to the first block, so every block handed out before the
// call is leaked and must not be freed or read after it. Testing hook.
func (a *Allocator) LeakAll() {
	a.top = a.firstBlock
	a.resetLists()
}
