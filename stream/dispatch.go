package stream

import (
	"encoding/json"
	"fmt"
)

// Handler receives decoded records from a stream.
//
// OnRecord is called for records read from a successful (2xx) response,
// OnError for records read from an error response. Either may be nil.
// A callback that returns an error or panics does not stop the stream:
// Dispatch recovers and reports the failure as a *HandlerError.
type Handler[T, E any] struct {
	OnRecord func(T) error
	OnError  func(E) error
}

// DecodeError reports a record that is not a valid JSON document of the
// expected shape.
type DecodeError struct {
	Record string
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("stream: decode record: %v", e.Err)
}

// Unwrap returns the underlying decode error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// HandlerError reports a failed or panicking callback.
type HandlerError struct {
	// Panic holds the recovered value when the callback panicked.
	Panic any
	Err   error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("stream: handler panic: %v", e.Panic)
	}
	return fmt.Sprintf("stream: handler: %v", e.Err)
}

// Unwrap returns the error returned by the callback.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Dispatch decodes record as T when success is true and as E otherwise,
// then invokes the matching callback of h.
func Dispatch[T, E any](record string, success bool, h Handler[T, E]) error {
	if success {
		return decodeAndCall(record, h.OnRecord)
	}
	return decodeAndCall(record, h.OnError)
}

func decodeAndCall[V any](record string, fn func(V) error) (err error) {
	var v V
	if jsonErr := json.Unmarshal([]byte(record), &v); jsonErr != nil {
		return &DecodeError{Record: record, Err: jsonErr}
	}
	if fn == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{Panic: r}
		}
	}()
	if cbErr := fn(v); cbErr != nil {
		return &HandlerError{Err: cbErr}
	}
	return nil
}
