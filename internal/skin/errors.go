package skin

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the only error kind of this package. It is returned,
// wrapped with the offending detail, by the checked entry points.
var ErrInvalidInput = errors.New("skin: invalid input")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
