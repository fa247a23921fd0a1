package regionresult

import (
	"errors"
	"fmt"
)

// ErrFormat is the sentinel all parse failures unwrap to, so callers can
// classify with errors.Is without inspecting the concrete type.
var ErrFormat = errors.New("regionresult: invalid format")

// FormatError describes a violation of the region-result grammar.
// Line is 1-based; 0 means the error is not tied to a single line.
type FormatError struct {
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// formatErrorf builds a FormatError for the given line.
func formatErrorf(line int, format string, args ...interface{}) *FormatError {
	return &FormatError{Line: line, Msg: fmt.Sprintf(format, args...)}
}
