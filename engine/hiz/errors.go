package hiz

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-hiz/common"
)

// ErrInvalidBounds is the sentinel matched by errors.Is for every *InvalidBoundsError.
var ErrInvalidBounds = errors.New("invalid bounds")

// InvalidBoundsError reports a bounding box whose min exceeds its max on some axis (or contains NaN).
// It is fatal to a collection pass: Collect returns it and no result.
type InvalidBoundsError struct {
	// Key is the draw the malformed entry was being added to.
	Key DrawKey

	// Bounds is the offending box.
	Bounds common.AABB

	// Axis is the first malformed axis (0 = x, 1 = y, 2 = z).
	Axis int
}

func (e *InvalidBoundsError) Error() string {
	return fmt.Sprintf("invalid bounds for draw %s: min > max on axis %c %s", e.Key, "xyz"[e.Axis], e.Bounds)
}

// Is lets errors.Is(err, ErrInvalidBounds) match any InvalidBoundsError.
func (e *InvalidBoundsError) Is(target error) bool {
	return target == ErrInvalidBounds
}
