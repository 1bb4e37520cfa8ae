package screen

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned for positions outside the grid. The write
// is dropped
var ErrOutOfBounds = errors.New("position out of bounds")

// RenderError reports a failed render. The shadow grid is invalidated,
// so the next Render redraws fully
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
