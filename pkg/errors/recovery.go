package errors

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// RecoverPanic turns a value returned by recover() into a PANIC error with
// the goroutine stack attached under "stack_trace". It returns nil for nil.
func RecoverPanic(r interface{}) *Error {
	if r == nil {
		return nil
	}

	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("%v", r)
	}

	return ErrPanic.
		WithCause(cause).
		WithDetail("stack_trace", string(debug.Stack()))
}

// StackTrace returns the stack captured by RecoverPanic, or "".
func StackTrace(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return ""
	}
	s, _ := appErr.Details["stack_trace"].(string)
	return s
}
