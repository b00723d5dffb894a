package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// Style controls how a quadrilateral is drawn.
type Style struct {
	// Color is the outline color as "#RRGGBB" or "#RRGGBBAA". Empty means
	// DefaultColor.
	Color string `json:"color,omitempty" yaml:"color"`

	// Fill, if set, tints the quad interior ("#RRGGBBAA" with low alpha works
	// best).
	Fill string `json:"fill,omitempty" yaml:"fill"`

	// LineWidth is the outline thickness in pixels. Zero means 3.
	LineWidth int `json:"line_width,omitempty" yaml:"line_width"`

	// Labels draws each corner's name and pixel coordinates next to it.
	Labels bool `json:"labels,omitempty" yaml:"labels"`
}

// DefaultColor is the outline color used when Style.Color is empty.
const DefaultColor = "#FF3B30"

// DrawQuad returns a copy of img with q outlined on it.
//
// q is in img's pixel space (origin top-left). Corners are joined in ring
// order TL→TR→BR→BL, so a mislabeled quad shows up as a bow-tie. Outline and
// fill are alpha-composited over the image.
func DrawQuad(img image.Image, q geometry.Quad, style Style) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to draw on")
	}
	for _, p := range q.Corners() {
		if !p.IsFinite() {
			return nil, fmt.Errorf("quad has non-finite corner %v", p)
		}
	}

	stroke, err := ParseColor(orDefault(style.Color, DefaultColor))
	if err != nil {
		return nil, fmt.Errorf("invalid outline color: %w", err)
	}
	width := style.LineWidth
	if width <= 0 {
		width = 3
	}

	// Clone rebases the copy at (0,0).
	if off := img.Bounds().Min; off != (image.Point{}) {
		o := geometry.Pt(float64(off.X), float64(off.Y))
		q = q.Map(func(p geometry.Point) geometry.Point { return p.Sub(o) })
	}

	dst := imaging.Clone(img)
	bounds := dst.Bounds()

	if style.Fill != "" {
		fill, err := ParseColor(style.Fill)
		if err != nil {
			return nil, fmt.Errorf("invalid fill color: %w", err)
		}
		mask := image.NewAlpha(bounds)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				if q.Contains(geometry.Pt(float64(x)+0.5, float64(y)+0.5)) {
					mask.SetAlpha(x, y, color.Alpha{A: 255})
				}
			}
		}
		draw.DrawMask(dst, bounds, image.NewUniform(fill), image.Point{}, mask, bounds.Min, draw.Over)
	}

	mask := image.NewAlpha(bounds)
	ring := q.Ring()
	for i := range ring {
		strokeLine(mask, ring[i], ring[(i+1)%len(ring)], width)
	}
	draw.DrawMask(dst, bounds, image.NewUniform(stroke), image.Point{}, mask, bounds.Min, draw.Over)

	if style.Labels {
		fg := color.NRGBA{255, 255, 255, 255}
		bg := color.NRGBA{0, 0, 0, 180}
		names := [4]string{"TL", "TR", "BL", "BR"}
		for i, p := range q.Corners() {
			text := fmt.Sprintf("%s:%.0f,%.0f", names[i], p.X, p.Y)
			x, y := labelOrigin(p, text, bounds)
			drawLabel(dst, x, y, text, fg, bg)
		}
	}

	return dst, nil
}

// strokeLine marks a square brush of the given width along a→b in mask.
func strokeLine(mask *image.Alpha, a, b geometry.Point, width int) {
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	if steps < 1 {
		steps = 1
	}
	half := width / 2
	bounds := mask.Bounds()

	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		cx := int(math.Floor(a.X + (b.X-a.X)*t))
		cy := int(math.Floor(a.Y + (b.Y-a.Y)*t))
		brush := image.Rect(cx-half, cy-half, cx-half+width, cy-half+width).Intersect(bounds)
		for y := brush.Min.Y; y < brush.Max.Y; y++ {
			for x := brush.Min.X; x < brush.Max.X; x++ {
				mask.SetAlpha(x, y, color.Alpha{A: 255})
			}
		}
	}
}

// labelOrigin places a label just beside corner p, kept inside bounds.
func labelOrigin(p geometry.Point, text string, bounds image.Rectangle) (int, int) {
	w, h := labelSize(text)
	x := int(math.Round(p.X)) + 4
	y := int(math.Round(p.Y)) + 4
	if x+w > bounds.Max.X {
		x = int(math.Round(p.X)) - w - 4
	}
	if y+h > bounds.Max.Y {
		y = int(math.Round(p.Y)) - h - 4
	}
	x = max(bounds.Min.X+1, min(x, bounds.Max.X-w))
	y = max(bounds.Min.Y+1, min(y, bounds.Max.Y-h))
	return x, y
}

// ParseColor parses "#RRGGBB", "#RGB" or "#RRGGBBAA" (the leading '#' is
// optional) into a non-premultiplied color.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}

	alpha := uint8(255)
	if len(s) == 8 {
		a, err := strconv.ParseUint(s[6:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in %q: %w", s, err)
		}
		alpha = uint8(a)
		s = s[:6]
	}
	if len(s) != 3 && len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color length: %q", s)
	}

	c, err := colorful.Hex("#" + s)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
