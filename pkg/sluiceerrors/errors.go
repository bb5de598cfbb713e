// Package sluiceerrors provides the shared failure taxonomy for Sluice.
// Every adapter wraps its underlying library failures into a single
// structured error type carrying a category, a message, the original
// cause, optional key-value details and the call stack captured at the
// point of creation.
//
// Categories are deliberately closed: one per format subsystem an
// adapter may surface, plus a small set of internal categories. Nothing
// at this layer is retried; retry policy, if any, belongs to the caller.
//
//	if err := sink.Write(v); err != nil {
//	    if sluiceerrors.IsType(err, sluiceerrors.ErrorTypeFormat) {
//	        // value well-formed but not representable in the target format
//	    }
//	}
package sluiceerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType identifies the subsystem or internal condition an error
// originates from.
type ErrorType string

// One category per format subsystem surfaced by any adapter.
const (
	ErrorTypeAvro           ErrorType = "avro"
	ErrorTypeJSON           ErrorType = "json"
	ErrorTypeYAML           ErrorType = "yaml"
	ErrorTypeYAMLScan       ErrorType = "yaml_scan"
	ErrorTypeTOMLDecode     ErrorType = "toml_decode"
	ErrorTypeTOMLEncode     ErrorType = "toml_encode"
	ErrorTypeCBOR           ErrorType = "cbor"
	ErrorTypeHJSON          ErrorType = "hjson"
	ErrorTypeMsgpackEncode  ErrorType = "msgpack_encode"
	ErrorTypeMsgpackDecode  ErrorType = "msgpack_decode"
	ErrorTypeProtobuf       ErrorType = "protobuf"
	ErrorTypeNativeProtobuf ErrorType = "native_protobuf"
	ErrorTypeSmile          ErrorType = "smile"
	ErrorTypeCSV            ErrorType = "csv"
	ErrorTypeGlob           ErrorType = "glob"
	ErrorTypeGlobPattern    ErrorType = "glob_pattern"
	ErrorTypeIO             ErrorType = "io"
	ErrorTypeUTF8           ErrorType = "utf8"
)

// Internal categories.
const (
	// ErrorTypeUnimplemented marks a recognized but not-yet-supported
	// construct in the input.
	ErrorTypeUnimplemented ErrorType = "unimplemented"
	// ErrorTypeIllegalState marks a violated invariant the component
	// itself is responsible for maintaining.
	ErrorTypeIllegalState ErrorType = "illegal_state"
	// ErrorTypeFormat marks a well-formed value that is not
	// representable in the target format.
	ErrorTypeFormat ErrorType = "format"
	// ErrorTypeInternal marks an unexpected-by-design condition.
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeMessage is a free-form escape hatch.
	ErrorTypeMessage ErrorType = "message"
)

// Error is a structured error with a category, an optional underlying
// cause and the stack captured at creation.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame is a single frame of the call stack recorded at error
// creation.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As
// over the full chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a key-value detail and returns the error for
// chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates an error of the given category.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates an error of the given category with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error, preserving it as the cause. If err is
// already a structured Error its stack is kept. Returns nil for a nil
// err.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existing.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// Unimplemented reports a recognized but unsupported construct.
func Unimplemented(message string) *Error {
	return &Error{
		Type:    ErrorTypeUnimplemented,
		Message: message,
		Stack:   captureStack(2),
	}
}

// IllegalState reports a violated internal invariant.
func IllegalState(message string) *Error {
	return &Error{
		Type:    ErrorTypeIllegalState,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Formatf reports a value that is not representable in the target
// format.
func Formatf(format string, args ...interface{}) *Error {
	return &Error{
		Type:    ErrorTypeFormat,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// IsType reports whether err (or anything in its chain) is a structured
// Error of the given category.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
