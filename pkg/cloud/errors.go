package cloud

import (
	"errors"
	"fmt"
)

// ErrorKind classifies collaborator failures so callers can decide whether to
// retry, treat the call as already done, or fail the step immediately.
type ErrorKind int

const (
	// KindFatal is anything uncategorized; never retried.
	KindFatal ErrorKind = iota
	// KindTransient covers network timeouts, rate limits, and
	// eventual-consistency mismatches such as "not found" right after create.
	KindTransient
	// KindConflict means the target resource already exists from a prior
	// partial run. Idempotent executors treat this as success.
	KindConflict
	// KindConfig is invalid or missing input; fails the step immediately.
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindConflict:
		return "conflict"
	case KindConfig:
		return "config"
	default:
		return "fatal"
	}
}

// Error wraps a collaborator failure with its classification and the operation
// that produced it.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Op, e.Err, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Transient(op string, err error) error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

func Conflict(op string, err error) error {
	return &Error{Kind: KindConflict, Op: op, Err: err}
}

func Config(op string, err error) error {
	return &Error{Kind: KindConfig, Op: op, Err: err}
}

func Fatal(op string, err error) error {
	return &Error{Kind: KindFatal, Op: op, Err: err}
}

func Configf(op, format string, args ...interface{}) error {
	return Config(op, fmt.Errorf(format, args...))
}

// KindOf extracts the classification from err, defaulting to KindFatal for
// errors that did not come through this package.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindFatal
}

func IsRetryable(err error) bool {
	return KindOf(err) == KindTransient
}

func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

func IsConfig(err error) bool {
	return KindOf(err) == KindConfig
}
