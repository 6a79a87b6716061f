// Package host wires the runtime to a wazero guest.
//
// It provides the adapter from wazero's api.Memory to the root Memory
// contract, the host module exporting the runtime primitives compiled
// modules import (malloc, free, incRef, decRef, throw, fd_write,
// random_get, and the metadata base pointer), and the init-order runner
// that starts compiled modules in topological import order.
//
// The host module is registered before the guest exists, so its functions
// resolve the runtime through a Session bound after instantiation.
package host
