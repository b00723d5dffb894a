package rectify

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// patternNRGBA fills every pixel with a color derived from its position so that
// misplaced samples are visible.
func patternNRGBA(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(2 * y), uint8(x + y), 255})
		}
	}
	return img
}

func axisAlignedQuad() geometry.Quad {
	return geometry.Quad{
		TopLeft:     geometry.Pt(10, 10),
		TopRight:    geometry.Pt(110, 10),
		BottomLeft:  geometry.Pt(10, 60),
		BottomRight: geometry.Pt(110, 60),
	}
}

func skewedQuad() geometry.Quad {
	return geometry.Quad{
		TopLeft:     geometry.Pt(100, 50),
		TopRight:    geometry.Pt(300, 60),
		BottomLeft:  geometry.Pt(90, 250),
		BottomRight: geometry.Pt(310, 240),
	}
}

func TestRectify_IdentityMatchesCrop(t *testing.T) {
	src := patternNRGBA(200, 100)

	res, err := Rectify(src, axisAlignedQuad(), nil)
	require.NoError(t, err)
	require.Equal(t, 100, res.Width)
	require.Equal(t, 50, res.Height)

	got, ok := res.Image.(*image.NRGBA)
	require.True(t, ok, "NRGBA source should produce NRGBA output, got %T", res.Image)

	want := imaging.Crop(src, image.Rect(10, 10, 110, 60))
	assert.Equal(t, want.Bounds(), got.Bounds())
	assert.True(t, bytes.Equal(want.Pix, got.Pix), "rectified axis-aligned quad differs from crop")
}

func TestRectify_MirroredLabelsFlip(t *testing.T) {
	src := patternNRGBA(200, 100)
	q := axisAlignedQuad()
	q.TopLeft, q.TopRight = q.TopRight, q.TopLeft
	q.BottomLeft, q.BottomRight = q.BottomRight, q.BottomLeft

	res, err := Rectify(src, q, nil)
	require.NoError(t, err)

	want := imaging.FlipH(imaging.Crop(src, image.Rect(10, 10, 110, 60)))
	assert.True(t, bytes.Equal(want.Pix, res.Image.(*image.NRGBA).Pix))
}

func TestRectify_Deterministic(t *testing.T) {
	src := patternNRGBA(400, 300)

	a, err := Rectify(src, skewedQuad(), nil)
	require.NoError(t, err)
	b, err := Rectify(src, skewedQuad(), nil)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(a.Image.(*image.NRGBA).Pix, b.Image.(*image.NRGBA).Pix))
}

func TestRectify_ConcurrentCallsAgree(t *testing.T) {
	src := patternNRGBA(400, 300)
	ref, err := Rectify(src, skewedQuad(), nil)
	require.NoError(t, err)
	want := ref.Image.(*image.NRGBA).Pix

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := Rectify(src, skewedQuad(), nil)
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(want, res.Image.(*image.NRGBA).Pix) {
				errs <- errors.New("concurrent result differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestRectify_CornerMapping(t *testing.T) {
	q := skewedQuad()
	corners := map[string]color.NRGBA{
		"top-left":     {255, 0, 0, 255},
		"top-right":    {0, 255, 0, 255},
		"bottom-left":  {0, 0, 255, 255},
		"bottom-right": {255, 255, 0, 255},
	}
	positions := map[string]geometry.Point{
		"top-left":     q.TopLeft,
		"top-right":    q.TopRight,
		"bottom-left":  q.BottomLeft,
		"bottom-right": q.BottomRight,
	}

	src := patternNRGBA(400, 300)
	for name, p := range positions {
		c := corners[name]
		for y := int(p.Y) - 10; y < int(p.Y)+10; y++ {
			for x := int(p.X) - 10; x < int(p.X)+10; x++ {
				src.SetNRGBA(x, y, c)
			}
		}
	}

	res, err := Rectify(src, q, nil)
	require.NoError(t, err)

	w, h := res.Width, res.Height
	samples := map[string]image.Point{
		"top-left":     {0, 0},
		"top-right":    {w - 1, 0},
		"bottom-left":  {0, h - 1},
		"bottom-right": {w - 1, h - 1},
	}
	for name, at := range samples {
		want, _ := colorful.MakeColor(corners[name])
		got, ok := colorful.MakeColor(res.Image.At(at.X, at.Y))
		require.True(t, ok, "%s: transparent sample", name)
		assert.Less(t, want.DistanceRgb(got), 0.01, "%s at %v", name, at)
	}
}

// TestRectify_SkewedScenarioStraightEdges paints horizontal stripes on the
// document plane, projects them into a 400x300 frame through the skewed quad
// and checks that every rectified row inside a stripe is uniform.
func TestRectify_SkewedScenarioStraightEdges(t *testing.T) {
	q := skewedQuad()
	hm, err := geometry.SquareToQuad(q)
	require.NoError(t, err)
	inv, err := hm.Invert()
	require.NoError(t, err)

	const bands = 10
	src := image.NewGray(image.Rect(0, 0, 400, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 400; x++ {
			uv, ok := inv.Apply(geometry.Pt(float64(x)+0.5, float64(y)+0.5))
			if !ok {
				continue
			}
			if int(math.Floor(uv.Y*bands))%2 == 0 {
				src.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	res, err := Rectify(src, q, nil)
	require.NoError(t, err)
	require.Equal(t, 220, res.Width)
	require.Equal(t, 200, res.Height)

	out, ok := res.Image.(*image.Gray)
	require.True(t, ok, "gray source should produce gray output, got %T", res.Image)

	checked := 0
	for v := 0; v < res.Height; v++ {
		ny := (float64(v) + 0.5) / float64(res.Height) * bands
		frac := ny - math.Floor(ny)
		if frac < 0.2 || frac > 0.8 {
			continue
		}
		want := uint8(0)
		if int(math.Floor(ny))%2 == 0 {
			want = 255
		}
		for u := 2; u < res.Width-2; u++ {
			if got := out.GrayAt(u, v).Y; got != want {
				t.Fatalf("row %d col %d: got %d, want %d", v, u, got, want)
			}
		}
		checked++
	}
	assert.Greater(t, checked, 100)
}

func TestRectify_DegenerateRejected(t *testing.T) {
	src := patternNRGBA(50, 50)
	q := geometry.Quad{
		TopLeft:     geometry.Pt(0, 0),
		TopRight:    geometry.Pt(10, 0),
		BottomLeft:  geometry.Pt(5, 0),
		BottomRight: geometry.Pt(10, 10),
	}

	res, err := Rectify(src, q, nil)
	require.Error(t, err)
	assert.Nil(t, res)

	var degenerate *DegenerateQuadrilateralError
	assert.True(t, errors.As(err, &degenerate))
	assert.True(t, errors.Is(err, geometry.ErrDegenerate))
	assert.True(t, Recoverable(err))
}

func TestRectify_SubPixelQuad(t *testing.T) {
	src := patternNRGBA(10, 10)
	q := geometry.Quad{
		TopLeft:     geometry.Pt(5, 5),
		TopRight:    geometry.Pt(5.4, 5),
		BottomLeft:  geometry.Pt(5, 5.4),
		BottomRight: geometry.Pt(5.4, 5.4),
	}
	require.False(t, q.Degenerate())

	res, err := Rectify(src, q, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Width)
	assert.Equal(t, 1, res.Height)
	assert.Equal(t, image.Rect(0, 0, 1, 1), res.Image.Bounds())
}

func TestRectify_OutOfBounds(t *testing.T) {
	src := patternNRGBA(100, 100)
	q := geometry.Quad{
		TopLeft:     geometry.Pt(200, 200),
		TopRight:    geometry.Pt(300, 200),
		BottomLeft:  geometry.Pt(200, 300),
		BottomRight: geometry.Pt(300, 300),
	}

	_, err := Rectify(src, q, nil)
	require.Error(t, err)

	var outside *OutOfBoundsError
	require.True(t, errors.As(err, &outside))
	assert.Equal(t, src.Bounds(), outside.Bounds)
	assert.True(t, Recoverable(err))
}

func TestRectify_PartialOverlapBorders(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	// Left half of the quad hangs off the image.
	q := geometry.Quad{
		TopLeft:     geometry.Pt(-50, 0),
		TopRight:    geometry.Pt(50, 0),
		BottomLeft:  geometry.Pt(-50, 100),
		BottomRight: geometry.Pt(50, 100),
	}

	tests := []struct {
		name    string
		opts    Options
		outside color.NRGBA
	}{
		{"clamp", Options{Border: BorderClamp}, color.NRGBA{200, 200, 200, 200}},
		{"transparent", Options{Border: BorderTransparent}, color.NRGBA{}},
		{"constant", Options{Border: BorderConstant, BorderColor: color.NRGBA{255, 0, 0, 255}}, color.NRGBA{255, 0, 0, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Rectify(src, q, &tt.opts)
			require.NoError(t, err)
			img := res.Image.(*image.NRGBA)

			assert.Equal(t, tt.outside, img.NRGBAAt(10, 50), "outside sample")
			assert.Equal(t, color.NRGBA{200, 200, 200, 200}, img.NRGBAAt(80, 50), "inside sample")
		})
	}
}

func TestRectify_OutputTypes(t *testing.T) {
	q := axisAlignedQuad()

	rgba := image.NewRGBA(image.Rect(0, 0, 120, 70))
	res, err := Rectify(rgba, q, nil)
	require.NoError(t, err)
	assert.IsType(t, &image.RGBA{}, res.Image)

	rgba64 := image.NewRGBA64(image.Rect(0, 0, 120, 70))
	rgba64.SetRGBA64(10, 10, color.RGBA64{1000, 2000, 3000, 65535})
	res, err = Rectify(rgba64, q, nil)
	require.NoError(t, err)
	out, ok := res.Image.(*image.RGBA64)
	require.True(t, ok)
	assert.Equal(t, color.RGBA64{1000, 2000, 3000, 65535}, out.RGBA64At(0, 0))

	// Sub-image with a non-zero origin samples in absolute coordinates.
	sub := patternNRGBA(200, 100).SubImage(image.Rect(5, 5, 150, 90)).(*image.NRGBA)
	res, err = Rectify(sub, q, nil)
	require.NoError(t, err)
	assert.Equal(t, sub.NRGBAAt(10, 10), res.Image.(*image.NRGBA).NRGBAAt(0, 0))
}

func TestRectify_SizeOptions(t *testing.T) {
	src := patternNRGBA(400, 300)

	res, err := Rectify(src, skewedQuad(), &Options{Width: 85, Height: 110})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 85, 110), res.Image.Bounds())

	res, err = Rectify(src, skewedQuad(), &Options{MaxDimension: 110})
	require.NoError(t, err)
	assert.Equal(t, 110, res.Width)
	assert.Equal(t, 100, res.Height)

	_, err = Rectify(src, skewedQuad(), &Options{Width: 10})
	assert.Error(t, err)
	assert.False(t, Recoverable(err))

	_, err = Rectify(src, skewedQuad(), &Options{Width: -1, Height: -1})
	assert.Error(t, err)

	_, err = Rectify(nil, skewedQuad(), nil)
	assert.Error(t, err)
}

func TestParseBorderPolicy(t *testing.T) {
	for _, p := range []BorderPolicy{BorderClamp, BorderTransparent, BorderConstant} {
		got, err := ParseBorderPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParseBorderPolicy("mirror")
	assert.Error(t, err)
}
