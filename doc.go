// Package grainruntime provides the managed runtime for Grain programs
// compiled to 32-bit WebAssembly.
//
// The runtime owns the heap contract shared between compiled code and the
// host: the tagged 32-bit value encoding, the heap object layouts, the
// allocator, reference counting, and the structural operations (equality,
// ordering, hashing, printing) that every library module depends on.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	grain-runtime/       Root package with core Memory and Allocator interfaces
//	├── tags/            Tagged-word and heap-header bit contract
//	├── heap/            Segregated free-list allocator over linear memory
//	├── meta/            Compiler-emitted type-metadata table (reader + builder)
//	├── usv/             UTF-8 codec over Unicode scalar values
//	├── errors/          Structured error types shared by all packages
//	├── runtime/         Managed runtime: refcounting, bytes, numbers,
//	│                    equality, hashing, toString, exceptions
//	├── host/            wazero host-module wiring (fd_write, random_get,
//	│                    runtime primitive exports, module init order)
//	└── cmd/inspect/     Developer CLI and TUI over a live runtime
//
// # Quick Start
//
// Create a runtime over an in-process linear memory and build values:
//
//	mem := grainruntime.NewArrayMemory(4)
//	rt, err := runtime.New(runtime.Config{Memory: mem, Grower: mem})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s := rt.NewString("hello")
//	out, _ := rt.ToString(s)
//	fmt.Println(out) // hello
//
// # Memory Model
//
// The target VM is single-threaded and its linear memory can only grow,
// never shrink. Freed blocks are recycled through the allocator's free
// lists; pages are never returned to the host. Object lifetime is explicit
// reference counting with optional finalizers. There is no tracing
// collector.
//
// # Thread Safety
//
// A Runtime and everything reachable from it is NOT safe for concurrent
// use. The compiled-code model is strictly sequential; hosts that share a
// Runtime between goroutines must synchronize every call.
package grainruntime
