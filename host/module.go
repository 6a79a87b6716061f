package host

import (
	"context"
	"crypto/rand"
	"io"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	grainruntime "github.com/wippyai/grain-runtime"
	runtimepkg "github.com/wippyai/grain-runtime/runtime"
)

// ModuleName is the import namespace compiled modules use for the runtime
// primitives.
const ModuleName = "grainRuntime"

// WASI-style errno values surfaced by fd_write and random_get.
const (
	errnoSuccess uint32 = 0
	errnoBadf    uint32 = 8
	errnoInval   uint32 = 28
)

// Session carries the late-bound runtime. The host module must be
// registered before the guest (and its memory) exists, so handlers
// resolve the runtime through the session at call time.
type Session struct {
	rt *runtimepkg.Runtime
}

// NewSession creates an unbound session.
func NewSession() *Session {
	return &Session{}
}

// Bind attaches the runtime once the guest's memory is available.
func (s *Session) Bind(rt *runtimepkg.Runtime) {
	s.rt = rt
}

// Runtime returns the bound runtime, or nil.
func (s *Session) Runtime() *runtimepkg.Runtime {
	return s.rt
}

func (s *Session) must() *runtimepkg.Runtime {
	if s.rt == nil {
		panic("grain host: runtime not bound before guest call")
	}
	return s.rt
}

// Instantiate registers the runtime primitives as a host module. Traps
// (throw, allocator panics) propagate as host-function panics, which
// wazero converts into module errors.
func Instantiate(ctx context.Context, r wazero.Runtime, s *Session) (api.Module, error) {
	builder := r.NewHostModuleBuilder(ModuleName)

	i32 := api.ValueTypeI32

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			ptr, err := s.must().Allocator().Malloc(uint32(stack[0]))
			if err != nil {
				panic(err)
			}
			stack[0] = uint64(ptr)
		}), []api.ValueType{i32}, []api.ValueType{i32}).
		Export("malloc")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			if err := s.must().Allocator().Free(uint32(stack[0])); err != nil {
				panic(err)
			}
		}), []api.ValueType{i32}, nil).
		Export("free")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = uint64(s.must().IncRef(uint32(stack[0])))
		}), []api.ValueType{i32}, []api.ValueType{i32}).
		Export("incRef")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			s.must().DecRef(uint32(stack[0]))
		}), []api.ValueType{i32}, nil).
		Export("decRef")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			// Reports the exception and traps; compiled code never
			// resumes past a throw.
			panic(s.must().Throw(uint32(stack[0])))
		}), []api.ValueType{i32}, nil).
		Export("throw")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = uint64(s.must().Allocator().MetadataBase())
		}), nil, []api.ValueType{i32}).
		Export("metadataBase")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, mod api.Module, stack []uint64) {
			rt := s.must()
			fd := uint32(stack[0])
			var w io.Writer
			switch fd {
			case 1:
				w = rt.Stdout()
			case 2:
				w = rt.Stderr()
			default:
				stack[0] = uint64(errnoBadf)
				return
			}
			mem := NewWazeroMemory(mod.Memory())
			written, err := writeIOVecs(mem, w, uint32(stack[1]), uint32(stack[2]))
			if err != nil {
				stack[0] = uint64(errnoInval)
				return
			}
			if err := mem.WriteU32(uint32(stack[3]), written); err != nil {
				stack[0] = uint64(errnoInval)
				return
			}
			stack[0] = uint64(errnoSuccess)
		}), []api.ValueType{i32, i32, i32, i32}, []api.ValueType{i32}).
		Export("fd_write")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, mod api.Module, stack []uint64) {
			mem := NewWazeroMemory(mod.Memory())
			buf := make([]byte, uint32(stack[1]))
			if _, err := rand.Read(buf); err != nil {
				stack[0] = uint64(errnoInval)
				return
			}
			if err := mem.Write(uint32(stack[0]), buf); err != nil {
				stack[0] = uint64(errnoInval)
				return
			}
			stack[0] = uint64(errnoSuccess)
		}), []api.ValueType{i32, i32}, []api.ValueType{i32}).
		Export("random_get")

	return builder.Instantiate(ctx)
}

// writeIOVecs walks a WASI iovec array (pairs of pointer and length) and
// writes each chunk to w, returning the total byte count.
func writeIOVecs(mem grainruntime.Memory, w io.Writer, iovs, iovsLen uint32) (uint32, error) {
	var written uint32
	for i := uint32(0); i < iovsLen; i++ {
		base := iovs + i*8
		ptr, err := mem.ReadU32(base)
		if err != nil {
			return written, err
		}
		length, err := mem.ReadU32(base + 4)
		if err != nil {
			return written, err
		}
		chunk, err := mem.Read(ptr, length)
		if err != nil {
			return written, err
		}
		n, err := w.Write(chunk)
		written += uint32(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
