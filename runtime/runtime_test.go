package runtime

import (
	"bytes"
	"testing"

	grainruntime "github.com/wippyai/grain-runtime"
	"github.com/wippyai/grain-runtime/meta"
)

// newTestRuntime builds a runtime over a fresh in-process memory with
// stdout/stderr captured.
func newTestRuntime(t *testing.T) (*Runtime, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	mem := grainruntime.NewArrayMemory(2)
	var out, errOut bytes.Buffer
	rt, err := New(Config{
		Memory: mem,
		Grower: mem,
		Stdout: &out,
		Stderr: &errOut,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rt, &out, &errOut
}

// withMetadata writes a builder's table into the reserved region and
// attaches it.
func withMetadata(t *testing.T, rt *Runtime, b *meta.Builder) {
	t.Helper()
	blob, err := b.Build()
	if err != nil {
		t.Fatalf("metadata build: %v", err)
	}
	base := rt.Allocator().MetadataBase()
	if uint32(len(blob)) > rt.Allocator().MetadataLimit()-base {
		t.Fatalf("metadata blob of %d bytes exceeds reserved region", len(blob))
	}
	if err := rt.Memory().Write(base, blob); err != nil {
		t.Fatalf("metadata write: %v", err)
	}
	table, err := meta.Attach(rt.Memory(), base)
	if err != nil {
		t.Fatalf("metadata attach: %v", err)
	}
	rt.AttachMetadata(table)
}

func TestRefCountLifecycle(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	s := rt.NewString("payload")
	if rt.RefCount(s) != 1 {
		t.Fatalf("fresh object count = %d, want 1", rt.RefCount(s))
	}
	rt.IncRef(s)
	if rt.RefCount(s) != 2 {
		t.Fatalf("after IncRef count = %d, want 2", rt.RefCount(s))
	}
	rt.DecRef(s)
	if rt.RefCount(s) != 1 {
		t.Fatalf("after DecRef count = %d, want 1", rt.RefCount(s))
	}
	rt.DecRef(s)
	if rt.LiveObjects() != 0 {
		t.Errorf("object not destroyed at zero: %d live", rt.LiveObjects())
	}
}

func TestDecRefReleasesFields(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	inner := rt.NewString("inner")
	tup := rt.NewTuple(inner, rt.NewString("second"))
	if rt.LiveObjects() != 3 {
		t.Fatalf("expected 3 live objects, have %d", rt.LiveObjects())
	}
	rt.DecRef(tup)
	if rt.LiveObjects() != 0 {
		t.Errorf("fields not released recursively: %d live", rt.LiveObjects())
	}
}

func TestSharedFieldSurvives(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	shared := rt.NewString("shared")
	rt.IncRef(shared) // second owner for the second tuple
	t1 := rt.NewTuple(shared)
	t2 := rt.NewTuple(shared)
	rt.DecRef(t1)
	if rt.RefCount(shared) != 1 {
		t.Errorf("shared count = %d after one owner released, want 1", rt.RefCount(shared))
	}
	rt.DecRef(t2)
	if rt.LiveObjects() != 0 {
		t.Errorf("%d live objects remain", rt.LiveObjects())
	}
}

func TestIncDecRefSafeOnImmediates(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	for _, v := range []uint32{1, 0x7, 0x0E, 0x06, 0x16, 0x1E, 0x10A} {
		if got := rt.IncRef(v); got != v {
			t.Errorf("IncRef(%#x) = %#x", v, got)
		}
		rt.DecRef(v) // must not panic
	}
}

func TestFinalizerFiresOnce(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	obj := rt.NewBytesFrom([]byte{1, 2, 3})
	fired := 0
	if err := rt.SetFinalizer(obj, func(uint32) { fired++ }); err != nil {
		t.Fatalf("SetFinalizer: %v", err)
	}
	rt.IncRef(obj)
	rt.DecRef(obj)
	if fired != 0 {
		t.Fatal("finalizer fired before zero")
	}
	rt.DecRef(obj)
	if fired != 1 {
		t.Errorf("finalizer fired %d times, want 1", fired)
	}
}

func TestFinalizerOnImmediateRejected(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	if err := rt.SetFinalizer(tagSimple(5), func(uint32) {}); err == nil {
		t.Error("finalizer on a simple number must be rejected")
	}
}

func TestRationalReleasesLimbs(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	half := mustNumberDiv(t, rt, tagSimple(1), tagSimple(2))
	if rt.LiveObjects() != 3 { // rational + two bigints
		t.Fatalf("expected 3 live objects for a rational, have %d", rt.LiveObjects())
	}
	rt.DecRef(half)
	if rt.LiveObjects() != 0 {
		t.Errorf("rational children leaked: %d live", rt.LiveObjects())
	}
}

func tagSimple(v int32) uint32 {
	return uint32(v)<<1 | 1
}

func mustNumberDiv(t *testing.T, rt *Runtime, a, b uint32) uint32 {
	t.Helper()
	v, err := rt.NumberDiv(a, b)
	if err != nil {
		t.Fatalf("NumberDiv: %v", err)
	}
	return v
}

func TestArrayAccess(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	arr := rt.NewArray(tagSimple(10), tagSimple(20))
	n, err := rt.ArrayLength(arr)
	if err != nil || n != 2 {
		t.Fatalf("ArrayLength = %d, %v", n, err)
	}
	v, err := rt.ArrayGet(1, arr)
	if err != nil || v != tagSimple(20) {
		t.Errorf("ArrayGet(1) = %#x, %v", v, err)
	}
	if err := rt.ArraySet(0, tagSimple(99), arr); err != nil {
		t.Fatalf("ArraySet: %v", err)
	}
	v, _ = rt.ArrayGet(0, arr)
	if v != tagSimple(99) {
		t.Errorf("ArraySet did not stick: %#x", v)
	}
	if _, err := rt.ArrayGet(2, arr); err == nil {
		t.Error("out-of-bounds get must error")
	}
	if err := rt.ArraySet(-1, tagSimple(0), arr); err == nil {
		t.Error("negative index set must error")
	}
}
