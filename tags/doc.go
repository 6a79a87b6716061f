// Package tags defines the bit-level contract between the runtime and
// compiled code: the tagged 32-bit word encoding, the heap object header
// layouts, and the built-in type ids.
//
// These constants are the wire format. Compiled programs hardcode them, so
// none of the values here may change without a matching compiler release.
package tags
