package meta

import (
	"testing"

	grainruntime "github.com/wippyai/grain-runtime"
)

func writeTable(t *testing.T, b *Builder, base uint32) (*Table, grainruntime.Memory) {
	t.Helper()
	blob, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mem := grainruntime.NewArrayMemory(1)
	if err := mem.Write(base, blob); err != nil {
		t.Fatalf("write table: %v", err)
	}
	table, err := Attach(mem, base)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return table, mem
}

func TestHashTypeNameStable(t *testing.T) {
	h := HashTypeName("Pervasives.Option")
	if h != HashTypeName("Pervasives.Option") {
		t.Fatal("hash must be deterministic")
	}
	if h&0x80000000 != 0 {
		t.Error("hash must fit 31 bits")
	}
	if h == HashTypeName("Pervasives.Result") {
		t.Error("distinct names should not collide in the tests' vocabulary")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	b := NewBuilder(4)
	hash := HashTypeName("Point")
	b.AddRecord(hash, []string{"x", "y", "label"})

	table, _ := writeTable(t, b, 64)
	descOff, ok := table.Lookup(hash)
	if !ok {
		t.Fatal("Lookup missed a registered hash")
	}
	fields, err := table.RecordFields(descOff)
	if err != nil {
		t.Fatalf("RecordFields: %v", err)
	}
	want := []string{"x", "y", "label"}
	if len(fields) != len(want) {
		t.Fatalf("fields = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("field %d = %q, want %q", i, fields[i], want[i])
		}
	}
}

func TestADTRoundTrip(t *testing.T) {
	b := NewBuilder(8)
	hash := HashTypeName("Shape")
	b.AddADT(hash, []Variant{
		{ID: 0, Name: "Circle"},
		{ID: 1, Name: "Rect", Fields: []string{"width", "height"}},
		{ID: 2, Name: "Empty"},
	})

	table, _ := writeTable(t, b, 128)
	descOff, ok := table.Lookup(hash)
	if !ok {
		t.Fatal("Lookup missed a registered hash")
	}

	v, err := table.Variant(descOff, 0)
	if err != nil || v.Name != "Circle" || v.Fields != nil {
		t.Errorf("variant 0 = %+v, %v; want tuple constructor Circle", v, err)
	}

	v, err = table.Variant(descOff, 1)
	if err != nil {
		t.Fatalf("variant 1: %v", err)
	}
	if v.Name != "Rect" || len(v.Fields) != 2 || v.Fields[0] != "width" || v.Fields[1] != "height" {
		t.Errorf("variant 1 = %+v, want inline record Rect{width, height}", v)
	}

	v, err = table.Variant(descOff, 2)
	if err != nil || v.Name != "Empty" {
		t.Errorf("variant 2 = %+v, %v", v, err)
	}

	if _, err := table.Variant(descOff, 9); err == nil {
		t.Error("unknown variant id should not resolve")
	}
}

func TestLookupMiss(t *testing.T) {
	b := NewBuilder(2)
	b.AddRecord(HashTypeName("Known"), []string{"f"})
	table, _ := writeTable(t, b, 0)
	if _, ok := table.Lookup(HashTypeName("Unknown")); ok {
		t.Error("unknown hash should miss")
	}
}

func TestBucketCollisions(t *testing.T) {
	// One bucket forces every entry into the same chain.
	b := NewBuilder(1)
	names := []string{"A", "B", "C", "D", "E"}
	for _, n := range names {
		b.AddRecord(HashTypeName(n), []string{n + "Field"})
	}
	table, _ := writeTable(t, b, 256)
	for _, n := range names {
		descOff, ok := table.Lookup(HashTypeName(n))
		if !ok {
			t.Fatalf("collision chain lost %q", n)
		}
		fields, err := table.RecordFields(descOff)
		if err != nil || len(fields) != 1 || fields[0] != n+"Field" {
			t.Errorf("%q resolved to fields %v, %v", n, fields, err)
		}
	}
}

func TestDuplicateHashRejected(t *testing.T) {
	b := NewBuilder(4)
	b.AddRecord(42, []string{"a"})
	b.AddRecord(42, []string{"b"})
	if _, err := b.Build(); err == nil {
		t.Error("duplicate type hash should fail Build")
	}
}
