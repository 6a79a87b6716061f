// Package heap implements the runtime's allocator over WASM linear memory.
//
// The heap is carved into 64-byte units. Every block spans a whole number
// of units and carries an 8-byte header and 8-byte footer of intrusive
// bookkeeping: both record the block size in units, the header holds the
// previous-free link and the footer the next-free link. A block is free
// exactly when its links are non-zero; the two free lists (one for 1-unit
// blocks, one for everything larger) are circular and run through sentinel
// nodes placed in the reserved gap below the first allocatable block, so a
// listed block's links can never be zero.
//
// Freeing coalesces with free physical neighbors in O(1) by inspecting the
// previous block's footer and the next block's header. Zeroed guard words
// at both ends of the heap make those probes safe without bounds checks.
//
// Growth requests pages from the host; the host refusing to grow is fatal
// through the configurable panic sink. There is no recoverable
// out-of-memory path.
package heap
