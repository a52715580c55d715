// Package failure classifies the errors a run can end with so callers can
// branch on the kind instead of matching message text.
package failure

import (
	"errors"
	"fmt"
)

// Kind identifies the stage a run failed in.
type Kind uint8

const (
	Unknown Kind = iota
	Argument
	Connection
	NotFound
	Fetch
	Move
)

func (k Kind) String() string {
	switch k {
	case Argument:
		return "argument error"
	case Connection:
		return "connection error"
	case NotFound:
		return "not found"
	case Fetch:
		return "fetch error"
	case Move:
		return "move error"
	default:
		return "unknown error"
	}
}

// Error is a classified error. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a kind and operation. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Reason returns the text of the error wrapped by the outermost *Error,
// without the operation and kind prefix.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
