package binding

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies the errors that abort the generation of a single function.
type ErrorKind int

const (
	// UnknownType means a type lacks the representation or conversion needed for its role.
	UnknownType ErrorKind = iota + 1

	// UnsupportedCallingConvention means the function has two or more outputs, or no output and no
	// explicit return type.
	UnsupportedCallingConvention
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case UnknownType:
		return "UnknownType"
	case UnsupportedCallingConvention:
		return "UnsupportedCallingConvention"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a function-scoped generation error: the function is skipped (with an explanatory comment)
// and generation continues with the next one.
type Error struct {
	Kind ErrorKind

	// Function is the native name of the function being generated.
	Function string

	// Detail describes the cause.
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Function, e.Detail)
}

// Errorf returns a new *Error, with a stack trace attached.
func Errorf(kind ErrorKind, function, format string, args ...any) error {
	return errors.WithStack(&Error{Kind: kind, Function: function, Detail: fmt.Sprintf(format, args...)})
}

// KindOf returns the kind of a function-scoped error, looking through wrapped errors.
// It returns false if err is not (or doesn't wrap) an *Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
