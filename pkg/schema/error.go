package schema

import (
	"fmt"

	"github.com/fwupd/fustruct-go/pkg/diag"
)

// Error is a syntax-level failure with its source position.
type Error struct {
	Pos     diag.Pos
	Code    diag.Code
	Message string
}

func newError(pos diag.Pos, code diag.Code, format string, args ...any) *Error {
	return &Error{Pos: pos, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Diagnostic().String()
}

// Unwrap lets errors.Is match diag.ErrSchema.
func (e *Error) Unwrap() error {
	return diag.ErrSchema
}

// Diagnostic converts the error to an error-severity diagnostic.
func (e *Error) Diagnostic() diag.Diagnostic {
	return diag.Diagnostic{Pos: e.Pos, Severity: diag.SeverityError, Code: e.Code, Message: e.Message}
}
