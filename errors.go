package dataflow

import (
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
)

var (
	// ErrScopeTerminated is returned by waits that end because the
	// context they watched was released
	ErrScopeTerminated = errors.New("dataflow: scope terminated")

	// ErrSourceDisabled is returned when a disabled source is asked for a
	// value
	ErrSourceDisabled = errors.New("dataflow: source disabled")
)

// SourceError wraps a failure raised while building a source value
type SourceError struct {
	Source     string
	Cause      error
	StackTrace []byte
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Cause)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

func newSourceError(source string, cause error) *SourceError {
	var se *SourceError
	if errors.As(cause, &se) && se.Source == source {
		return se
	}
	return &SourceError{
		Source:     source,
		Cause:      cause,
		StackTrace: debug.Stack(),
	}
}

// SafeTypeAssertion performs safe type assertion with proper error
func SafeTypeAssertion[T any](value any) (T, error) {
	if value == nil {
		var zero T
		return zero, nil
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("type assertion error: expected %v, got %T (value: %v)", TypeOf[T](), value, value)
	}

	return typed, nil
}

// cast is the unchecked form used on paths keyed by T's own type
func cast[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
