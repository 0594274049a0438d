package walker

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrStreamUnsupported is returned by Stream when a feature that needs the
	// whole tree (sorting, directory sizes) is enabled.
	ErrStreamUnsupported = errors.New("streaming output cannot be used with sorting or directory sizes")

	// ErrInvalidPath is returned when a path cannot be passed to the
	// operating system, such as a name containing a NUL byte.
	ErrInvalidPath = errors.New("invalid path")
)

// PartialSizeError reports directories whose recursive size could not be
// computed. The tree returned alongside it is complete except for those sizes.
type PartialSizeError struct {
	Errs *multierror.Error
}

func (e *PartialSizeError) Error() string {
	return fmt.Sprintf("directory sizes incomplete (%d failures): %v", len(e.Errs.Errors), e.Errs)
}

func (e *PartialSizeError) Unwrap() error {
	return e.Errs
}
