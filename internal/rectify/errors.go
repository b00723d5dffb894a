package rectify

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// DegenerateQuadrilateralError reports corners that cannot define a nonzero-area
// rectification target: coincident or collinear points.
type DegenerateQuadrilateralError struct {
	Quad   geometry.Quad
	Reason string
}

func (e *DegenerateQuadrilateralError) Error() string {
	return fmt.Sprintf("degenerate quadrilateral %v: %s", e.Quad, e.Reason)
}

// Unwrap lets errors.Is(err, geometry.ErrDegenerate) match.
func (e *DegenerateQuadrilateralError) Unwrap() error {
	return geometry.ErrDegenerate
}

// OutOfBoundsError reports a quadrilateral that shares no area with the source.
type OutOfBoundsError struct {
	Quad   geometry.Quad
	Bounds image.Rectangle
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("quadrilateral %v lies outside image bounds %v", e.Quad, e.Bounds)
}

// Recoverable reports whether err is one of the per-frame rectification errors
// after which the caller should simply wait for the next detection.
func Recoverable(err error) bool {
	var degenerate *DegenerateQuadrilateralError
	var outside *OutOfBoundsError
	return errors.As(err, &degenerate) || errors.As(err, &outside)
}
