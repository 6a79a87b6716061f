// Package runtime implements the managed runtime compiled Grain programs
// link against: reference counting with finalizers, the byte container
// backing strings and Bytes, numeric boxing and coercion, structural
// equality and ordering, seeded structural hashing, toString, and the
// exception path.
//
// A Runtime owns one linear memory, the allocator inside it, and all
// process-wide mutable state the primitives need (refcounts, finalizer
// registry, exception-printer stack, hash seed). Values are tagged 32-bit
// words per the tags package; a value handed out by a constructor is owned
// by the caller with its count already at one.
//
// Everything here is single-threaded by contract, matching the target VM.
package runtime
