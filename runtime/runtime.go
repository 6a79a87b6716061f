package runtime

import (
	"fmt"
	"io"
	"os"

	grainruntime "github.com/wippyai/grain-runtime"
	"github.com/wippyai/grain-runtime/errors"
	"github.com/wippyai/grain-runtime/heap"
	"github.com/wippyai/grain-runtime/meta"
	"github.com/wippyai/grain-runtime/tags"
)

// Finalizer is invoked exactly once, after an object's fields have been
// released and before its block is freed. It must not resurrect the
// object.
type Finalizer func(ptr uint32)

// ExceptionPrinter renders an exception value. Returning false passes the
// value to the next printer on the stack.
type ExceptionPrinter func(rt *Runtime, v uint32) (string, bool)

// Config configures a Runtime.
type Config struct {
	Memory heap.LinearMemory
	// Grower grows linear memory on demand; nil caps the heap at the
	// memory's current size.
	Grower grainruntime.Grower
	// HeapBase is where the runtime-managed region begins. The reserved
	// gap (and the type-metadata table) sit at its start.
	HeapBase uint32
	// Reserved overrides the reserved gap size; zero means the default.
	Reserved uint32
	// Metadata is the compiler-emitted type table. Nil is valid until a
	// record or non-builtin variant must be printed, which is then fatal.
	Metadata *meta.Table
	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Runtime is the managed runtime's process-wide state.
type Runtime struct {
	mem   heap.LinearMemory
	alloc *heap.Allocator
	meta  *meta.Table

	refs       map[uint32]int32
	finalizers map[uint32]Finalizer
	printers   []ExceptionPrinter

	stdout io.Writer
	stderr io.Writer

	seed   uint32
	seeded bool
}

// FatalError carries a panic-path message. It is not an exception: nothing
// in compiled code can observe it.
type FatalError struct {
	Msg string
}

func (e *FatalError) Error() string {
	return "fatal: " + e.Msg
}

// New creates a runtime and installs the built-in exception printers.
func New(cfg Config) (*Runtime, error) {
	if cfg.Memory == nil {
		return nil, errors.InvalidArgument(errors.PhaseRuntime, "nil memory")
	}
	rt := &Runtime{
		mem:        cfg.Memory,
		meta:       cfg.Metadata,
		refs:       make(map[uint32]int32),
		finalizers: make(map[uint32]Finalizer),
		stdout:     cfg.Stdout,
		stderr:     cfg.Stderr,
	}
	if rt.stdout == nil {
		rt.stdout = os.Stdout
	}
	if rt.stderr == nil {
		rt.stderr = os.Stderr
	}

	alloc, err := heap.New(heap.Config{
		Memory:   cfg.Memory,
		Grower:   cfg.Grower,
		Base:     cfg.HeapBase,
		Reserved: cfg.Reserved,
		Panic:    rt.Panic,
	})
	if err != nil {
		return nil, err
	}
	rt.alloc = alloc

	rt.installBuiltinPrinters()
	return rt, nil
}

// Allocator exposes the heap for diagnostics and host wiring.
func (rt *Runtime) Allocator() *heap.Allocator {
	return rt.alloc
}

// Memory exposes the linear memory the runtime operates on.
func (rt *Runtime) Memory() heap.LinearMemory {
	return rt.mem
}

// Stdout returns the runtime's output stream.
func (rt *Runtime) Stdout() io.Writer {
	return rt.stdout
}

// Stderr returns the runtime's error stream.
func (rt *Runtime) Stderr() io.Writer {
	return rt.stderr
}

// Metadata returns the attached type table, or nil.
func (rt *Runtime) Metadata() *meta.Table {
	return rt.meta
}

// AttachMetadata installs the type table after construction. Used by hosts
// that write the table into the reserved region themselves.
func (rt *Runtime) AttachMetadata(t *meta.Table) {
	rt.meta = t
}

// Low-level heap access. Out-of-range access to a live object means the
// heap is corrupt, which is fatal, so these do not return errors.

func (rt *Runtime) readU32(off uint32) uint32 {
	v, err := rt.mem.ReadU32(off)
	if err != nil {
		rt.Panic(fmt.Sprintf("corrupt heap: read at %#x: %v", off, err))
	}
	return v
}

func (rt *Runtime) writeU32(off, v uint32) {
	if err := rt.mem.WriteU32(off, v); err != nil {
		rt.Panic(fmt.Sprintf("corrupt heap: write at %#x: %v", off, err))
	}
}

func (rt *Runtime) readU64(off uint32) uint64 {
	v, err := rt.mem.ReadU64(off)
	if err != nil {
		rt.Panic(fmt.Sprintf("corrupt heap: read at %#x: %v", off, err))
	}
	return v
}

func (rt *Runtime) writeU64(off uint32, v uint64) {
	if err := rt.mem.WriteU64(off, v); err != nil {
		rt.Panic(fmt.Sprintf("corrupt heap: write at %#x: %v", off, err))
	}
}

func (rt *Runtime) readBytes(off, n uint32) []byte {
	b, err := rt.mem.Read(off, n)
	if err != nil {
		rt.Panic(fmt.Sprintf("corrupt heap: read of %d bytes at %#x: %v", n, off, err))
	}
	return b
}

func (rt *Runtime) writeBytes(off uint32, b []byte) {
	if err := rt.mem.Write(off, b); err != nil {
		rt.Panic(fmt.Sprintf("corrupt heap: write of %d bytes at %#x: %v", len(b), off, err))
	}
}

// HeapKindOf reads the kind tag of a heap value. The second result is
// false when v is not a heap pointer.
func (rt *Runtime) HeapKindOf(v uint32) (tags.HeapKind, bool) {
	if !tags.IsPointer(v) {
		return 0, false
	}
	return tags.HeapKind(rt.readU32(v)), true
}

// allocObject allocates size bytes, stamps the kind tag, and registers the
// object with refcount one.
func (rt *Runtime) allocObject(kind tags.HeapKind, size uint32) uint32 {
	ptr, err := rt.alloc.Malloc(size)
	if err != nil {
		// The allocator's own failure path is fatal; reaching here means
		// a configured sink returned, which it must not.
		rt.Panic(err.Error())
	}
	rt.writeU32(ptr, uint32(kind))
	rt.refs[ptr] = 1
	return ptr
}
