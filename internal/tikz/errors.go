package tikz

import (
	"errors"
	"fmt"
)

// ErrRender is the sentinel all render failures unwrap to.
var ErrRender = errors.New("tikz: render failed")

// RenderError reports an unsatisfiable render request: a malformed
// configuration or a document the configuration cannot express.
type RenderError struct {
	Msg string
}

func (e *RenderError) Error() string { return e.Msg }

func (e *RenderError) Unwrap() error { return ErrRender }

func renderErrorf(format string, args ...interface{}) *RenderError {
	return &RenderError{Msg: fmt.Sprintf(format, args...)}
}
