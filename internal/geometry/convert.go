package geometry

import (
	"fmt"
	"math"
	"strings"
)

// Convention names the origin corner used by a producer of normalized points.
type Convention int

const (
	// OriginBottomLeft has (0,0) at the bottom-left and Y growing upward. This is
	// what the platform rectangle detector reports.
	OriginBottomLeft Convention = iota
	// OriginTopLeft has (0,0) at the top-left and Y growing downward, matching
	// pixel space.
	OriginTopLeft
)

// String returns the config/JSON name of c.
func (c Convention) String() string {
	switch c {
	case OriginTopLeft:
		return "top-left"
	default:
		return "bottom-left"
	}
}

// ParseConvention parses "bottom-left" or "top-left". The empty string yields
// OriginBottomLeft.
func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bottom-left", "bottomleft":
		return OriginBottomLeft, nil
	case "top-left", "topleft":
		return OriginTopLeft, nil
	default:
		return OriginBottomLeft, fmt.Errorf("unknown origin convention: %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Convention) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Convention) UnmarshalText(text []byte) error {
	v, err := ParseConvention(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// NormalizedToPixel converts a normalized point into pixel space for an image
// of the given size.
//
// The conversion is the affine map
//
//	x = nx · W
//	y = (1 − ny) · H   (OriginBottomLeft)
//	y = ny · H         (OriginTopLeft)
//
// size must be Valid.
func NormalizedToPixel(p Point, size Size, conv Convention) Point {
	y := p.Y
	if conv == OriginBottomLeft {
		y = 1 - y
	}
	return Point{X: p.X * size.Width, Y: y * size.Height}
}

// PixelToNormalized is the inverse of NormalizedToPixel.
func PixelToNormalized(p Point, size Size, conv Convention) Point {
	n := Point{X: p.X / size.Width, Y: p.Y / size.Height}
	if conv == OriginBottomLeft {
		n.Y = 1 - n.Y
	}
	return n
}

// ToPixel converts a normalized quad into pixel space. Corner labels are kept:
// the detector labels corners semantically, so a vertical flip changes
// coordinates but not which corner is the top-left.
func (q Quad) ToPixel(size Size, conv Convention) (Quad, error) {
	if !size.Valid() {
		return Quad{}, fmt.Errorf("invalid image size %gx%g", size.Width, size.Height)
	}
	return q.Map(func(p Point) Point { return NormalizedToPixel(p, size, conv) }), nil
}

// ToNormalized converts a pixel-space quad into normalized coordinates.
func (q Quad) ToNormalized(size Size, conv Convention) (Quad, error) {
	if !size.Valid() {
		return Quad{}, fmt.Errorf("invalid image size %gx%g", size.Width, size.Height)
	}
	return q.Map(func(p Point) Point { return PixelToNormalized(p, size, conv) }), nil
}

// Gravity controls how a frame is fitted into a display viewport.
type Gravity int

const (
	// GravityResize stretches the frame to the viewport on both axes.
	GravityResize Gravity = iota
	// GravityAspectFill scales uniformly until the viewport is covered, cropping
	// the overflow equally on both sides. Camera previews default to this.
	GravityAspectFill
	// GravityAspectFit scales uniformly until the frame fits, letterboxing.
	GravityAspectFit
)

// String returns the config name of g.
func (g Gravity) String() string {
	switch g {
	case GravityAspectFill:
		return "aspect-fill"
	case GravityAspectFit:
		return "aspect-fit"
	default:
		return "resize"
	}
}

// ParseGravity parses "resize", "aspect-fill" or "aspect-fit".
func ParseGravity(s string) (Gravity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "resize", "stretch":
		return GravityResize, nil
	case "aspect-fill", "fill":
		return GravityAspectFill, nil
	case "aspect-fit", "fit":
		return GravityAspectFit, nil
	default:
		return GravityResize, fmt.Errorf("unknown gravity: %q", s)
	}
}

// Viewport describes the display layer an overlay is drawn on.
type Viewport struct {
	Size    Size
	Gravity Gravity
}

// ToDisplay maps a normalized quad into viewport coordinates for drawing an
// outline on top of a preview of a frame of size frame.
//
// With GravityResize this is the plain flip-and-scale by the viewport size.
// The fill/fit gravities first place the frame in the viewport, then scale.
func (q Quad) ToDisplay(frame Size, vp Viewport, conv Convention) (Quad, error) {
	if err := vp.check(frame); err != nil {
		return Quad{}, err
	}
	return q.Map(func(p Point) Point { return vp.place(p, frame, conv) }), nil
}

// ToDisplay maps a single normalized point into viewport coordinates, see
// Quad.ToDisplay.
func (vp Viewport) ToDisplay(p Point, frame Size, conv Convention) (Point, error) {
	if err := vp.check(frame); err != nil {
		return Point{}, err
	}
	return vp.place(p, frame, conv), nil
}

func (vp Viewport) check(frame Size) error {
	if !vp.Size.Valid() {
		return fmt.Errorf("invalid viewport size %gx%g", vp.Size.Width, vp.Size.Height)
	}
	if vp.Gravity != GravityResize && !frame.Valid() {
		return fmt.Errorf("invalid image size %gx%g", frame.Width, frame.Height)
	}
	return nil
}

func (vp Viewport) place(p Point, frame Size, conv Convention) Point {
	if vp.Gravity == GravityResize {
		return NormalizedToPixel(p, vp.Size, conv)
	}

	sx := vp.Size.Width / frame.Width
	sy := vp.Size.Height / frame.Height
	s := math.Min(sx, sy)
	if vp.Gravity == GravityAspectFill {
		s = math.Max(sx, sy)
	}
	off := Point{
		X: (vp.Size.Width - frame.Width*s) / 2,
		Y: (vp.Size.Height - frame.Height*s) / 2,
	}
	return NormalizedToPixel(p, frame, conv).Mul(s).Add(off)
}
