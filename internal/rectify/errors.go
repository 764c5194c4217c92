package rectify

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidImage is returned for nil or zero sized source images.
	ErrInvalidImage = errors.New("invalid source image")
	// ErrTooFewCorners is returned when fewer than 4 corners are supplied.
	ErrTooFewCorners = errors.New("rectification needs exactly 4 corners, got fewer")
	// ErrTooManyCorners is returned when more than 4 corners are supplied.
	ErrTooManyCorners = errors.New("rectification needs exactly 4 corners, got more")
	// ErrUnknownMode is returned for an unrecognised dimension mode.
	ErrUnknownMode = errors.New("unknown dimension mode")
	// ErrDegenerateQuad is returned for quads with (near) zero area or
	// collinear corners.
	ErrDegenerateQuad = errors.New("degenerate quadrilateral")
	// ErrSingularTransform is returned when the homography cannot be solved
	// reliably.
	ErrSingularTransform = errors.New("singular perspective transform")
	// ErrOutputTooLarge is returned when the output would exceed the
	// configured pixel budget.
	ErrOutputTooLarge = errors.New("rectified output too large")
)

// TransformError reports which rectification step failed.
type TransformError struct {
	Op  string
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("rectify %s: %v", e.Op, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// IsInputError reports whether err stems from invalid caller input rather
// than from the geometry of the quad.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidImage) || errors.Is(err, ErrTooFewCorners) ||
		errors.Is(err, ErrTooManyCorners) || errors.Is(err, ErrUnknownMode)
}
