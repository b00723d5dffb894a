//go:build gocv

package detection

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"

	"gocv.io/x/gocv"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// OpenCVDetector finds document quads with OpenCV: Canny edges, external
// contours and polygon approximation. It needs the gocv build tag and an
// OpenCV installation.
type OpenCVDetector struct {
	cfg Config
}

func init() {
	backends[BackendOpenCV] = func(cfg Config) (Detector, error) { return NewOpenCVDetector(cfg) }
}

// NewOpenCVDetector creates an OpenCV-backed detector.
func NewOpenCVDetector(cfg Config) (*OpenCVDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	return &OpenCVDetector{cfg: cfg}, nil
}

// Detect returns the largest qualifying quad, or nil.
func (d *OpenCVDetector) Detect(ctx context.Context, img image.Image) (*Observation, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to analyze")
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer src.Close()

	work := src
	if m := d.cfg.MaxDimension; m > 0 && (src.Cols() > m || src.Rows() > m) {
		scale := float64(m) / math.Max(float64(src.Cols()), float64(src.Rows()))
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(src, &resized, image.Point{}, scale, scale, gocv.InterpolationArea)
		work = resized
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(work, &gray, gocv.ColorRGBToGray)

	if d.cfg.BlurRadius > 0 {
		k := 2*int(math.Ceil(d.cfg.BlurRadius)) + 1
		gocv.GaussianBlur(gray, &gray, image.Point{X: k, Y: k}, 0, 0, gocv.BorderDefault)
	}

	edges := gocv.NewMat()
	defer edges.Close()
	t := float32(d.cfg.EdgeThreshold)
	gocv.Canny(gray, &edges, t, 3*t)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: 3, Y: 3})
	defer kernel.Close()
	gocv.Dilate(edges, &edges, kernel)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	size := geometry.Size{Width: float64(edges.Cols()), Height: float64(edges.Rows())}
	var obs []Observation
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		perimeter := gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, 0.02*perimeter, true)
		pts := approx.ToPoints()
		approx.Close()

		if len(pts) != 4 {
			continue
		}
		q := orderCorners(pts)
		if !d.cfg.accept(q, size) {
			continue
		}

		// Polygon fit quality: approximated area against the raw contour area.
		confidence := 1.0
		if a := q.Area(); a > 0 {
			confidence = math.Min(1, gocv.ContourArea(contour)/a)
		}
		if confidence < d.cfg.MinConfidence {
			continue
		}

		norm, err := q.ToNormalized(size, d.cfg.Convention)
		if err != nil {
			return nil, err
		}
		obs = append(obs, Observation{
			Quad:       norm,
			Confidence: confidence,
			Area:       q.Area() / (size.Width * size.Height),
			Convention: d.cfg.Convention,
		})
	}

	if len(obs) == 0 {
		return nil, nil
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Area > obs[j].Area })
	return &obs[0], nil
}

// orderCorners labels four polygon vertices by their diagonal extremes.
func orderCorners(pts []image.Point) geometry.Quad {
	px := make([]pixel, len(pts))
	for i, p := range pts {
		px[i] = pixel{X: p.X, Y: p.Y}
	}
	return extremeCorners(px)
}
