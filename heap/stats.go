package heap

// Stats is a read-only snapshot of allocator state, for diagnostics.
type Stats struct {
	// HeapUnits is the total number of units between the first block and
	// the current top.
	HeapUnits uint32
	// FreeUnits is the number of units currently on either free list.
	FreeUnits uint32
	// SmallBlocks and LargeBlocks count the entries of each free list.
	SmallBlocks uint32
	LargeBlocks uint32
	// Grows counts heap growth events since creation.
	Grows uint32
}

// Stats walks both free lists and reports the current state.
func (a *Allocator) Stats() Stats {
	st := Stats{
		HeapUnits: (a.top - a.firstBlock) / UnitSize,
		Grows:     a.grows,
	}
	for b := a.next(a.smallHead); b != a.smallHead; b = a.next(b) {
		st.SmallBlocks++
		st.FreeUnits += a.sizeOf(b)
	}
	for b := a.next(a.largeHead); b != a.largeHead; b = a.next(b) {
		st.LargeBlocks++
		st.FreeUnits += a.sizeOf(b)
	}
	return st
}

// InUseUnits returns the units neither free nor reserved.
func (s Stats) InUseUnits() uint32 {
	return s.HeapUnits - s.FreeUnits
}
