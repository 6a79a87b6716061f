// Package meta reads and writes the compiler-emitted type-metadata table.
//
// The table lives in the reserved region below the heap and maps 31-bit
// type hashes to descriptors: field-name lists for records, and variant
// name/id blocks (with optional inline-record field names) for ADTs.
// Lookup is a closed-addressing bucket structure indexed by
// type_hash mod bucket_count with linear scan inside a bucket.
//
// The Table reader is what the runtime's printer consults. The Builder is
// the compiler side of the same contract, kept in this package so the two
// serializations can never drift apart. The table is read-only after
// program start.
package meta
