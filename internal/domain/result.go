package domain

import "errors"

// Failure codes carried by an errored Result. Zero means "no code".
const (
	CodeNotFound = 404
	CodeInternal = 500
)

// MsgReminderNotFound is the message of the Result returned for an unknown id.
const MsgReminderNotFound = "Reminder not found!"

// Unit is the payload of a successful Result that carries no value.
type Unit struct{}

// Failure is the error arm of a Result. It implements error and unwraps to
// the underlying cause, so errors.Is(f, ErrNotFound) works across the boundary.
type Failure struct {
	Message string
	Code    int
	cause   error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.cause }

// Result is a closed success/error variant. Operations that touch storage
// return a Result instead of a bare error so an expected miss is a value,
// not a fault. The zero value is not a valid Result; use Ok or Fail.
type Result[T any] struct {
	value   T
	failure *Failure
}

// Ok wraps v as a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail builds an errored Result with the given message and cause.
// cause may be nil.
func Fail[T any](message string, cause error) Result[T] {
	return Result[T]{failure: &Failure{Message: message, cause: cause, Code: codeFor(cause)}}
}

// FailErr builds an errored Result whose message is err's text.
func FailErr[T any](err error) Result[T] {
	return Fail[T](err.Error(), err)
}

// WithCode returns a copy of an errored Result with its code replaced.
// It is a no-op on a successful Result.
func (r Result[T]) WithCode(code int) Result[T] {
	if r.failure == nil {
		return r
	}
	f := *r.failure
	f.Code = code
	r.failure = &f
	return r
}

// IsSuccess reports whether r is the Success arm.
func (r Result[T]) IsSuccess() bool { return r.failure == nil }

// Value returns the success payload and true, or the zero value and false.
func (r Result[T]) Value() (T, bool) {
	if r.failure != nil {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Failure returns the error arm, or nil on success.
func (r Result[T]) Failure() *Failure { return r.failure }

// Err returns the error arm as an error, or nil on success.
func (r Result[T]) Err() error {
	if r.failure == nil {
		return nil
	}
	return r.failure
}

// Unwrap converts r into Go's (value, error) form.
func (r Result[T]) Unwrap() (T, error) {
	v, _ := r.Value()
	return v, r.Err()
}

func codeFor(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	default:
		return 0
	}
}
