package host

import (
	"bytes"
	"testing"

	grainruntime "github.com/wippyai/grain-runtime"
)

func TestInitOrder(t *testing.T) {
	mods := []ModuleInfo{
		{Name: "main", Imports: []string{"List", "Pervasives"}},
		{Name: "List", Imports: []string{"Pervasives"}},
		{Name: "Bytes", Imports: []string{"Pervasives"}},
		{Name: "Pervasives"},
	}
	order, err := InitOrder(mods)
	if err != nil {
		t.Fatalf("InitOrder: %v", err)
	}
	pos := map[string]int{}
	for i, n := range order {
		pos[n] = i
	}
	if len(order) != 4 {
		t.Fatalf("order = %v", order)
	}
	if pos["Pervasives"] > pos["List"] || pos["Pervasives"] > pos["Bytes"] {
		t.Errorf("Pervasives must initialize before its importers: %v", order)
	}
	if pos["List"] > pos["main"] {
		t.Errorf("imports must initialize before the importer: %v", order)
	}

	// Stable across invocations.
	again, _ := InitOrder(mods)
	for i := range order {
		if order[i] != again[i] {
			t.Fatalf("order not stable: %v vs %v", order, again)
		}
	}
}

func TestInitOrderCycle(t *testing.T) {
	_, err := InitOrder([]ModuleInfo{
		{Name: "a", Imports: []string{"b"}},
		{Name: "b", Imports: []string{"a"}},
	})
	if err == nil {
		t.Error("cycle must be rejected")
	}
}

func TestInitOrderMissingImport(t *testing.T) {
	_, err := InitOrder([]ModuleInfo{{Name: "a", Imports: []string{"ghost"}}})
	if err == nil {
		t.Error("missing import must be rejected")
	}
}

func TestWriteIOVecs(t *testing.T) {
	mem := grainruntime.NewArrayMemory(1)

	// Two chunks: "Hello, " at 256 and "world" at 300, iovec array at 512.
	if err := mem.Write(256, []byte("Hello, ")); err != nil {
		t.Fatal(err)
	}
	if err := mem.Write(300, []byte("world")); err != nil {
		t.Fatal(err)
	}
	for i, pair := range [][2]uint32{{256, 7}, {300, 5}} {
		base := uint32(512 + i*8)
		mem.WriteU32(base, pair[0])
		mem.WriteU32(base+4, pair[1])
	}

	var out bytes.Buffer
	n, err := writeIOVecs(mem, &out, 512, 2)
	if err != nil {
		t.Fatalf("writeIOVecs: %v", err)
	}
	if n != 12 || out.String() != "Hello, world" {
		t.Errorf("wrote %d bytes, %q", n, out.String())
	}
}

func TestWriteIOVecsOutOfRange(t *testing.T) {
	mem := grainruntime.NewArrayMemory(1)
	// iovec pointing past the end of memory.
	mem.WriteU32(0, 0xFFFFFF00)
	mem.WriteU32(4, 64)
	var out bytes.Buffer
	if _, err := writeIOVecs(mem, &out, 0, 1); err == nil {
		t.Error("out-of-range chunk must error")
	}
}
