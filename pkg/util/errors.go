package util

import (
	"errors"
	"fmt"
)

// Fatal internal error kinds. None of them is recoverable: each one means a
// compiler defect or an unsupported construct, and aborts the compilation.
var (
	ErrUnsupportedConstant  = errors.New("unsupported constant type")
	ErrRoundTrip            = errors.New("constant round-trip mismatch")
	ErrDuplicateDeclaration = errors.New("duplicate declaration registration")
	ErrSymbolCollision      = errors.New("constant symbol collision")
)

type InternalError struct {
	Op      string // what was being done, e.g. "constant handle"
	Subject string // repr of the offending value or identity of the declaration
	Err     error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal compiler error: %s %s: %v", e.Op, e.Subject, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func Internal(op, subject string, err error) error {
	return &InternalError{Op: op, Subject: subject, Err: err}
}

func AsInternal(err error) (*InternalError, bool) {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
