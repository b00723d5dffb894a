package imaging

import (
	"fmt"
	"image"
	"image/draw"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// Orientation is the clockwise rotation needed to turn a frame's pixels upright.
type Orientation int

const (
	// OrientationUp means the pixels are already upright.
	OrientationUp Orientation = iota
	// OrientationRight needs a 90° clockwise turn.
	OrientationRight
	// OrientationDown needs a 180° turn.
	OrientationDown
	// OrientationLeft needs a 90° counter-clockwise turn.
	OrientationLeft
)

// String returns the config name of o.
func (o Orientation) String() string {
	switch o {
	case OrientationRight:
		return "right"
	case OrientationDown:
		return "down"
	case OrientationLeft:
		return "left"
	default:
		return "up"
	}
}

// ParseOrientation parses "up", "right", "down" or "left". The empty string
// yields OrientationUp.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "up", "portrait":
		return OrientationUp, nil
	case "right":
		return OrientationRight, nil
	case "down", "portrait-upside-down":
		return OrientationDown, nil
	case "left":
		return OrientationLeft, nil
	default:
		return OrientationUp, fmt.Errorf("unknown orientation: %q", s)
	}
}

// Frame is one captured camera frame: 32-bit BGRA pixels, one byte per
// channel, rows Stride bytes apart. This is the layout camera pipelines hand
// out; everything downstream works on image.Image, converted with Image.
type Frame struct {
	ID        uuid.UUID
	Seq       uint64
	Timestamp time.Time

	Width  int
	Height int
	Stride int
	Pix    []byte

	Orientation Orientation
}

// NewFrame wraps a BGRA buffer. pix is not copied; the caller must not modify
// it while the frame is in use.
func NewFrame(width, height, stride int, pix []byte) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if stride < 4*width {
		return nil, fmt.Errorf("stride %d too small for width %d", stride, width)
	}
	if need := stride*(height-1) + 4*width; len(pix) < need {
		return nil, fmt.Errorf("frame buffer has %d bytes, need %d", len(pix), need)
	}
	return &Frame{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Width:     width,
		Height:    height,
		Stride:    stride,
		Pix:       pix,
	}, nil
}

// FrameFromImage converts img into a tightly packed BGRA frame.
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	swapRedBlue(rgba.Pix, rgba.Stride, b.Dx(), b.Dy())

	return &Frame{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Width:     b.Dx(),
		Height:    b.Dy(),
		Stride:    rgba.Stride,
		Pix:       rgba.Pix,
	}
}

// Size returns the frame size for coordinate conversion, before orientation is
// applied.
func (f *Frame) Size() geometry.Size {
	return geometry.Size{Width: float64(f.Width), Height: float64(f.Height)}
}

// UprightSize returns the size of the image Upright would produce.
func (f *Frame) UprightSize() geometry.Size {
	if f.Orientation == OrientationRight || f.Orientation == OrientationLeft {
		return geometry.Size{Width: float64(f.Height), Height: float64(f.Width)}
	}
	return f.Size()
}

// Image copies the frame into an *image.RGBA, swapping the blue and red
// channels. Camera BGRA buffers are premultiplied, so no alpha conversion is
// needed.
func (f *Frame) Image() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	rowBytes := 4 * f.Width

	parallel.Line(f.Height, func(start, end int) {
		for y := start; y < end; y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowBytes], f.Pix[y*f.Stride:y*f.Stride+rowBytes])
		}
	})
	swapRedBlue(dst.Pix, dst.Stride, f.Width, f.Height)
	return dst
}

// Upright returns the frame as an image rotated according to Orientation.
func (f *Frame) Upright() image.Image {
	img := f.Image()
	switch f.Orientation {
	case OrientationRight:
		return imaging.Rotate270(img)
	case OrientationDown:
		return imaging.Rotate180(img)
	case OrientationLeft:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// swapRedBlue exchanges bytes 0 and 2 of every pixel in place.
func swapRedBlue(pix []byte, stride, width, height int) {
	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			row := pix[y*stride : y*stride+4*width]
			for i := 0; i < len(row); i += 4 {
				row[i], row[i+2] = row[i+2], row[i]
			}
		}
	})
}
