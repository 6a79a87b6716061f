package runtime

import (
	"fmt"

	"github.com/wippyai/grain-runtime/errors"
	"github.com/wippyai/grain-runtime/tags"
)

// The exception path. Exceptions are ordinary ADT values of the built-in
// exception type; throw prints through the printer registry and aborts
// the current computation. There is no catch mechanism in the core.

var exceptionVariantNames = [...]string{
	tags.VariantFailure:          "Failure",
	tags.VariantInvalidArgument:  "InvalidArgument",
	tags.VariantIndexOutOfBounds: "IndexOutOfBounds",
	tags.VariantMalformedUnicode: "MalformedUnicode",
	tags.VariantAssertionError:   "AssertionError",
	tags.VariantDivisionByZero:   "DivisionByZero",
}

func exceptionVariantName(id uint32) string {
	if int(id) < len(exceptionVariantNames) {
		return exceptionVariantNames[id]
	}
	return fmt.Sprintf("UnknownException%d", id)
}

// ThrownError surfaces a thrown exception to the host after it has been
// reported.
type ThrownError struct {
	Value   uint32
	Message string
}

func (e *ThrownError) Error() string {
	return e.Message
}

func (rt *Runtime) newException(variantID uint32, fields ...uint32) uint32 {
	return rt.NewVariant(builtinHashes.exception, tags.BuiltinException, variantID, fields...)
}

// NewFailure builds Failure(msg).
func (rt *Runtime) NewFailure(msg string) uint32 {
	return rt.newException(tags.VariantFailure, rt.NewString(msg))
}

// NewInvalidArgument builds InvalidArgument(msg).
func (rt *Runtime) NewInvalidArgument(msg string) uint32 {
	return rt.newException(tags.VariantInvalidArgument, rt.NewString(msg))
}

// NewIndexOutOfBounds builds IndexOutOfBounds.
func (rt *Runtime) NewIndexOutOfBounds() uint32 {
	return rt.newException(tags.VariantIndexOutOfBounds)
}

// NewMalformedUnicode builds MalformedUnicode(msg).
func (rt *Runtime) NewMalformedUnicode(msg string) uint32 {
	return rt.newException(tags.VariantMalformedUnicode, rt.NewString(msg))
}

// NewAssertionError builds AssertionError.
func (rt *Runtime) NewAssertionError() uint32 {
	return rt.newException(tags.VariantAssertionError)
}

// NewDivisionByZero builds DivisionByZero(msg).
func (rt *Runtime) NewDivisionByZero(msg string) uint32 {
	return rt.newException(tags.VariantDivisionByZero, rt.NewString(msg))
}

// ExceptionFromError converts a structured runtime error into the
// matching exception value, so that a primitive's Go error can cross
// into compiled code's world.
func (rt *Runtime) ExceptionFromError(err error) uint32 {
	e, ok := err.(*errors.Error)
	if !ok {
		return rt.NewFailure(err.Error())
	}
	switch e.Kind {
	case errors.KindInvalidArgument:
		return rt.NewInvalidArgument(e.Detail)
	case errors.KindIndexOutOfBounds:
		return rt.NewIndexOutOfBounds()
	case errors.KindMalformedUnicode:
		return rt.NewMalformedUnicode(e.Detail)
	case errors.KindAssertion:
		return rt.NewAssertionError()
	case errors.KindDivisionByZero:
		return rt.NewDivisionByZero(e.Detail)
	default:
		return rt.NewFailure(e.Detail)
	}
}

// PushExceptionPrinter pushes a custom printer. Printers are consulted
// most-recent-first; the base printer (toString) is the fallback.
func (rt *Runtime) PushExceptionPrinter(p ExceptionPrinter) {
	rt.printers = append(rt.printers, p)
}

// installBuiltinPrinters is the Pervasives init step: Failure and
// InvalidArgument render with their message unwrapped.
func (rt *Runtime) installBuiltinPrinters() {
	rt.PushExceptionPrinter(func(rt *Runtime, v uint32) (string, bool) {
		msg, ok := rt.exceptionMessage(v, tags.VariantFailure)
		if !ok {
			return "", false
		}
		return "Failure: " + msg, true
	})
	rt.PushExceptionPrinter(func(rt *Runtime, v uint32) (string, bool) {
		msg, ok := rt.exceptionMessage(v, tags.VariantInvalidArgument)
		if !ok {
			return "", false
		}
		return "Invalid argument: " + msg, true
	})
}

// exceptionMessage extracts the message of a unary builtin exception of
// the given variant.
func (rt *Runtime) exceptionMessage(v uint32, variantID uint32) (string, bool) {
	kind, ok := rt.HeapKindOf(v)
	if !ok || kind != tags.KindADT {
		return "", false
	}
	if rt.readU32(v+tags.ADTTypeIDOffset) != tags.BuiltinException ||
		rt.readU32(v+tags.ADTVariantOffset) != variantID ||
		rt.readU32(v+tags.ADTArityOffset) != 1 {
		return "", false
	}
	msg, err := rt.StringValue(rt.readU32(v + tags.ADTPayloadOffset))
	if err != nil {
		return "", false
	}
	return msg, true
}

// ExceptionToString renders an exception through the printer registry.
func (rt *Runtime) ExceptionToString(v uint32) string {
	for i := len(rt.printers) - 1; i >= 0; i-- {
		if s, ok := rt.printers[i](rt, v); ok {
			return s
		}
	}
	s, err := rt.ToString(v)
	if err != nil {
		return fmt.Sprintf("<unprintable exception %#x>", v)
	}
	return s
}

// Throw reports the exception on stderr and returns the abort error the
// host propagates. Compiled code never resumes past a throw.
func (rt *Runtime) Throw(v uint32) error {
	msg := rt.ExceptionToString(v)
	fmt.Fprintln(rt.stderr, msg)
	return &ThrownError{Value: v, Message: msg}
}

// Fail is shorthand for throwing Failure(msg).
func (rt *Runtime) Fail(msg string) error {
	return rt.Throw(rt.NewFailure(msg))
}

// Assert throws AssertionError when cond is false.
func (rt *Runtime) Assert(cond bool) error {
	if cond {
		return nil
	}
	return rt.Throw(rt.NewAssertionError())
}

// Panic is the infrastructure-level abort: allocator OOM, corrupt heap,
// metadata misses during printing. Not an exception and not catchable by
// compiled code.
func (rt *Runtime) Panic(msg string) {
	fmt.Fprintln(rt.stderr, "panic: "+msg)
	panic(&FatalError{Msg: msg})
}
