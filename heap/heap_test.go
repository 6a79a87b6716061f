package heap

import (
	"testing"

	grainruntime "github.com/wippyai/grain-runtime"
)

func newTestAllocator(t *testing.T) *Allocator {
	t.Helper()
	mem := grainruntime.NewArrayMemory(1)
	a, err := New(Config{Memory: mem, Grower: mem})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestMallocAlignment(t *testing.T) {
	a := newTestAllocator(t)
	for _, n := range []uint32{1, 8, 17, 48, 100, 1000} {
		p, err := a.Malloc(n)
		if err != nil {
			t.Fatalf("Malloc(%d): %v", n, err)
		}
		if p%8 != 0 {
			t.Errorf("Malloc(%d) = %#x, not 8-byte aligned", n, p)
		}
	}
}

func TestMallocNoOverlap(t *testing.T) {
	a := newTestAllocator(t)
	type block struct{ ptr, n uint32 }
	var blocks []block
	sizes := []uint32{1, 48, 48, 100, 7, 200, 48, 4000}
	for _, n := range sizes {
		p, err := a.Malloc(n)
		if err != nil {
			t.Fatalf("Malloc(%d): %v", n, err)
		}
		blocks = append(blocks, block{p, n})
	}
	for i, b1 := range blocks {
		for _, b2 := range blocks[i+1:] {
			lo, hi := b1, b2
			if lo.ptr > hi.ptr {
				lo, hi = hi, lo
			}
			if lo.ptr+lo.n > hi.ptr {
				t.Errorf("blocks overlap: [%#x,+%d) and [%#x,+%d)",
					lo.ptr, lo.n, hi.ptr, hi.n)
			}
		}
	}
}

func TestFreeAndReuse(t *testing.T) {
	a := newTestAllocator(t)
	p1, _ := a.Malloc(48)
	if err := a.Free(p1); err != nil {
		t.Fatalf("Free: %v", err)
	}
	p2, _ := a.Malloc(48)
	if p2 != p1 {
		t.Errorf("freed block not reused: first %#x, second %#x", p1, p2)
	}
}

func TestSmallListFastPath(t *testing.T) {
	a := newTestAllocator(t)
	// A 1-unit request holds at most UnitSize-BlockOverhead bytes. Pin
	// both physical neighbors so the freed unit cannot coalesce away.
	pin1, _ := a.Malloc(UnitSize - BlockOverhead)
	p1, _ := a.Malloc(UnitSize - BlockOverhead)
	pin2, _ := a.Malloc(UnitSize - BlockOverhead)
	a.Free(p1)
	st := a.Stats()
	if st.SmallBlocks != 1 {
		t.Fatalf("expected the freed unit on the small list, stats %+v", st)
	}
	p3, _ := a.Malloc(1)
	if p3 != p1 {
		t.Errorf("small-list pop returned %#x, want recycled %#x", p3, p1)
	}
	a.Free(pin1)
	a.Free(pin2)
}

func TestCoalescing(t *testing.T) {
	a := newTestAllocator(t)
	p1, _ := a.Malloc(100)
	p2, _ := a.Malloc(100)
	p3, _ := a.Malloc(100)
	before := a.Stats()

	// Freeing in 1,3,2 order exercises both neighbor merges: freeing p2
	// must fuse all three into one block.
	a.Free(p1)
	a.Free(p3)
	a.Free(p2)
	after := a.Stats()

	if after.FreeUnits <= before.FreeUnits {
		t.Fatalf("free units did not increase: before %d, after %d",
			before.FreeUnits, after.FreeUnits)
	}
	// The three merged with each other and with the trailing free space,
	// so the large list holds a single block.
	if after.SmallBlocks != 0 || after.LargeBlocks != 1 {
		t.Errorf("expected one coalesced large block, stats %+v", after)
	}
}

func TestConservation(t *testing.T) {
	a := newTestAllocator(t)
	initial := a.Stats()

	var ptrs []uint32
	for i := 0; i < 32; i++ {
		p, err := a.Malloc(uint32(16 + i*13))
		if err != nil {
			t.Fatalf("Malloc: %v", err)
		}
		ptrs = append(ptrs, p)
	}
	// Free in mixed order.
	for i := 0; i < len(ptrs); i += 2 {
		a.Free(ptrs[i])
	}
	for i := 1; i < len(ptrs); i += 2 {
		a.Free(ptrs[i])
	}

	final := a.Stats()
	if final.FreeUnits < initial.FreeUnits {
		t.Errorf("units lost: started with %d free, ended with %d",
			initial.FreeUnits, final.FreeUnits)
	}
	if final.InUseUnits() != 0 {
		t.Errorf("balanced malloc/free left %d units in use", final.InUseUnits())
	}
}

func TestGrowth(t *testing.T) {
	mem := grainruntime.NewArrayMemory(1)
	a, err := New(Config{Memory: mem, Grower: mem})
	if err != nil {
		t.Fatal(err)
	}
	// Demand more than one page.
	p, err := a.Malloc(3 * grainruntime.PageSize)
	if err != nil {
		t.Fatalf("Malloc across growth: %v", err)
	}
	if p == 0 {
		t.Fatal("nil pointer from grown heap")
	}
	if a.Stats().Grows == 0 {
		t.Error("expected at least one growth event")
	}
	// The grown block must be fully usable.
	if err := mem.WriteU8(p+3*grainruntime.PageSize-1, 0xAB); err != nil {
		t.Errorf("grown block not addressable at its end: %v", err)
	}
}

func TestGrowthRefusedIsFatal(t *testing.T) {
	mem := grainruntime.NewArrayMemoryWithLimit(1, 1)
	var msg string
	a, err := New(Config{
		Memory: mem,
		Grower: mem,
		Panic:  func(m string) { msg = m; panic(m) },
	})
	if err != nil {
		t.Fatal(err)
	}
	func() {
		defer func() { recover() }()
		a.Malloc(2 * grainruntime.PageSize)
		t.Error("Malloc past the page limit should hit the panic sink")
	}()
	if msg == "" {
		t.Error("panic sink never saw a message")
	}
}

func TestLeakAll(t *testing.T) {
	a := newTestAllocator(t)
	for i := 0; i < 8; i++ {
		p, _ := a.Malloc(128)
		a.Free(p)
	}
	a.LeakAll()
	st := a.Stats()
	if st.FreeUnits != 0 || st.SmallBlocks != 0 || st.LargeBlocks != 0 {
		t.Errorf("LeakAll left free-list state: %+v", st)
	}
	// A fresh allocation still succeeds by claiming space past the top.
	p, err := a.Malloc(256)
	if err != nil {
		t.Fatalf("Malloc after LeakAll: %v", err)
	}
	if p == 0 {
		t.Fatal("nil pointer after LeakAll")
	}
}

func TestFreeOutsideHeap(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.Free(4); err == nil {
		t.Error("Free below the heap should error")
	}
	if err := a.Free(a.top + 64); err == nil {
		t.Error("Free past the top should error")
	}
}

func TestOneOffFitTakenWhole(t *testing.T) {
	a := newTestAllocator(t)
	// Carve out a block of exactly 3 units, free it, then request 2
	// units: the 3-unit block is one off, so it must be taken whole
	// rather than split to strand a 1-unit residue on the large list.
	p1, _ := a.Malloc(3*UnitSize - BlockOverhead)
	pAfter, _ := a.Malloc(64) // pin so p1 cannot coalesce with the tail
	a.Free(p1)

	p2, _ := a.Malloc(2*UnitSize - BlockOverhead)
	if p2 != p1 {
		t.Errorf("one-off block not reused in place: got %#x, want %#x", p2, p1)
	}
	st := a.Stats()
	if st.SmallBlocks != 0 {
		t.Errorf("1-unit residue stranded: %+v", st)
	}
	a.Free(pAfter)
}

func TestMetadataRegion(t *testing.T) {
	a := newTestAllocator(t)
	if a.MetadataBase() != 0 {
		t.Errorf("MetadataBase = %d, want 0", a.MetadataBase())
	}
	if lim := a.MetadataLimit(); lim != DefaultReserved-48 {
		t.Errorf("MetadataLimit = %d, want %d", lim, DefaultReserved-48)
	}
}
