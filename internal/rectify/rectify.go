package rectify

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// BorderPolicy decides what is sampled where the quadrilateral reaches outside
// the source image.
type BorderPolicy int

const (
	// BorderClamp extends the outermost source pixels (edge replication).
	BorderClamp BorderPolicy = iota
	// BorderTransparent treats everything outside the source as transparent black.
	BorderTransparent
	// BorderConstant treats everything outside the source as Options.BorderColor.
	BorderConstant
)

// String returns the config name of p.
func (p BorderPolicy) String() string {
	switch p {
	case BorderTransparent:
		return "transparent"
	case BorderConstant:
		return "constant"
	default:
		return "clamp"
	}
}

// ParseBorderPolicy parses "clamp", "transparent" or "constant". The empty
// string yields BorderClamp.
func ParseBorderPolicy(s string) (BorderPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp", "edge":
		return BorderClamp, nil
	case "transparent":
		return BorderTransparent, nil
	case "constant", "color":
		return BorderConstant, nil
	default:
		return BorderClamp, fmt.Errorf("unknown border policy: %q", s)
	}
}

// Options tune a rectification. The zero value is usable: automatic size,
// clamped borders.
type Options struct {
	// Width and Height force the output size. Zero means geometry.OutputSize.
	// Either both or neither must be set.
	Width  int
	Height int

	// MaxDimension, if positive, scales an automatic size down uniformly so that
	// neither side exceeds it.
	MaxDimension int

	Border BorderPolicy

	// BorderColor is used with BorderConstant. Nil means transparent.
	BorderColor color.Color
}

// Result is a rectified image and the parameters that produced it.
type Result struct {
	Image  image.Image
	Width  int
	Height int

	// Quad is the source quadrilateral in pixel space.
	Quad geometry.Quad

	// Transform maps unit-square coordinates onto Quad.
	Transform geometry.Homography
}

// Rectify maps the interior of q, given in src's pixel space, onto a new
// axis-aligned image.
//
// Parameters:
//   - src: the source image. It is only read.
//   - q: corners in pixel space (origin top-left). Convert detector output with
//     geometry.Quad.ToPixel first.
//   - opts: may be nil for defaults.
//
// Returns:
//   - *Result: the rectified image of the same family as src (see package docs).
//   - error: *DegenerateQuadrilateralError or *OutOfBoundsError for unusable
//     geometry, or a plain error for invalid options.
//
// The output is deterministic: identical inputs produce identical pixels.
func Rectify(src image.Image, q geometry.Quad, opts *Options) (*Result, error) {
	if src == nil {
		return nil, fmt.Errorf("rectify: nil source image")
	}
	if opts == nil {
		opts = &Options{}
	}

	if q.Degenerate() {
		return nil, &DegenerateQuadrilateralError{Quad: q, Reason: "corners are coincident or collinear"}
	}

	w, h, err := outputSize(q, opts)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	if !q.Intersects(bounds) {
		return nil, &OutOfBoundsError{Quad: q, Bounds: bounds}
	}

	hm, err := geometry.SquareToQuad(q)
	if err != nil {
		return nil, &DegenerateQuadrilateralError{Quad: q, Reason: err.Error()}
	}

	surf := surfaceFor(src)
	n := surf.channels()

	var border []float64
	if opts.Border != BorderClamp {
		border = make([]float64, n)
		c := opts.BorderColor
		if opts.Border == BorderTransparent || c == nil {
			c = color.Transparent
		}
		surf.convert(c, border)
	}

	dst, set := surf.alloc(w, h)
	fw, fh := float64(w), float64(h)

	parallel.Line(h, func(start, end int) {
		s := &sampler{surf: surf, bounds: bounds, border: border, n: n}
		s.init()
		px := make([]float64, n)

		for v := start; v < end; v++ {
			ny := (float64(v) + 0.5) / fh
			for u := 0; u < w; u++ {
				p, ok := hm.Apply(geometry.Point{X: (float64(u) + 0.5) / fw, Y: ny})
				if !ok || !p.IsFinite() {
					s.outside(px)
				} else {
					s.bilinear(p.X-0.5, p.Y-0.5, px)
				}
				set(u, v, px)
			}
		}
	})

	return &Result{
		Image:     dst,
		Width:     w,
		Height:    h,
		Quad:      q,
		Transform: hm,
	}, nil
}

// outputSize resolves the destination size from opts and q.
func outputSize(q geometry.Quad, opts *Options) (int, int, error) {
	if opts.Width < 0 || opts.Height < 0 {
		return 0, 0, fmt.Errorf("rectify: negative output size %dx%d", opts.Width, opts.Height)
	}
	if (opts.Width == 0) != (opts.Height == 0) {
		return 0, 0, fmt.Errorf("rectify: output width and height must be set together")
	}
	if opts.Width > 0 {
		return opts.Width, opts.Height, nil
	}

	w, h := geometry.OutputSize(q)
	if m := opts.MaxDimension; m > 0 && (w > m || h > m) {
		scale := float64(m) / float64(max(w, h))
		w = max(1, int(math.Round(float64(w)*scale)))
		h = max(1, int(math.Round(float64(h)*scale)))
	}
	return w, h, nil
}

// sampler holds per-goroutine scratch space for bilinear sampling.
type sampler struct {
	surf   surface
	bounds image.Rectangle
	border []float64 // nil means clamp to edge
	n      int

	c00, c10, c01, c11 []float64
}

func (s *sampler) init() {
	buf := make([]float64, 4*s.n)
	s.c00, s.c10, s.c01, s.c11 = buf[0:s.n], buf[s.n:2*s.n], buf[2*s.n:3*s.n], buf[3*s.n:]
}

// outside writes the value used for points that do not map into the plane.
func (s *sampler) outside(px []float64) {
	if s.border != nil {
		copy(px, s.border)
		return
	}
	for i := range px {
		px[i] = 0
	}
}

// pixel fetches (x, y), applying the border policy when it falls outside.
func (s *sampler) pixel(x, y int, px []float64) {
	b := s.bounds
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		if s.border != nil {
			copy(px, s.border)
			return
		}
		x = clamp(x, b.Min.X, b.Max.X-1)
		y = clamp(y, b.Min.Y, b.Max.Y-1)
	}
	s.surf.fetch(x, y, px)
}

// bilinear samples at (gx, gy) in pixel-index space, where integer coordinates
// are pixel centers. Weights are the fractional parts of the coordinate.
func (s *sampler) bilinear(gx, gy float64, px []float64) {
	fx := math.Floor(gx)
	fy := math.Floor(gy)
	tx := gx - fx
	ty := gy - fy
	x0, y0 := int(fx), int(fy)

	s.pixel(x0, y0, s.c00)
	s.pixel(x0+1, y0, s.c10)
	s.pixel(x0, y0+1, s.c01)
	s.pixel(x0+1, y0+1, s.c11)

	for i := 0; i < s.n; i++ {
		top := s.c00[i] + (s.c10[i]-s.c00[i])*tx
		bottom := s.c01[i] + (s.c11[i]-s.c01[i])*tx
		px[i] = top + (bottom-top)*ty
	}
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
