package pointer

import (
	"errors"
	"fmt"
)

// ErrNil is the cause recorded when a null address is dereferenced.
var ErrNil = errors.New("null pointer")

// CorruptDataError reports target memory that is unreadable or inconsistent
// with its declared layout.
type CorruptDataError struct {
	Addr Address
	Type string // structure being decoded, if any
	Err  error
}

func (e *CorruptDataError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("corrupt data at %s (%s): %v", e.Addr, e.Type, e.Err)
	}
	return fmt.Sprintf("corrupt data at %s: %v", e.Addr, e.Err)
}

func (e *CorruptDataError) Unwrap() error {
	return e.Err
}

// Corrupt builds a CorruptDataError with a formatted cause.
func Corrupt(addr Address, typ string, format string, args ...any) *CorruptDataError {
	return &CorruptDataError{Addr: addr, Type: typ, Err: fmt.Errorf(format, args...)}
}

// IsCorrupt reports whether err is or wraps a CorruptDataError.
func IsCorrupt(err error) bool {
	var cde *CorruptDataError
	return errors.As(err, &cde)
}
