package detection

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// pixel is an integer position in the analysis image.
type pixel struct {
	X int
	Y int
}

func (p pixel) center() geometry.Point {
	return geometry.Pt(float64(p.X)+0.5, float64(p.Y)+0.5)
}

// ContourDetector is a pure-Go Detector built on edge contours.
//
// # Algorithm
//
//  1. Downscale to Config.MaxDimension and blur with Config.BlurRadius
//  2. Edge Detection: grayscale steps above Config.EdgeThreshold to the right
//     or below a pixel mark it as an edge
//  3. Contour Finding: flood-fill groups 8-connected edge pixels
//  4. Corners: the extreme points of each contour along x+y and x-y become
//     TL, BR, TR and BL
//  5. Filtering: size, aspect ratio, corner angles and edge support
//     (Config.MinConfidence)
//
// Candidates are ranked by area, largest first.
//
// # Limitations
//
// Corner extraction assumes the document is rotated less than 45 degrees in the
// frame. Documents touching the image border lose that edge and are usually
// rejected. Low-contrast backgrounds need a lower EdgeThreshold.
type ContourDetector struct {
	cfg Config
}

// NewContourDetector creates a detector with the given config.
func NewContourDetector(cfg Config) (*ContourDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	return &ContourDetector{cfg: cfg}, nil
}

// Detect returns the best candidate, or nil if none qualifies.
func (d *ContourDetector) Detect(ctx context.Context, img image.Image) (*Observation, error) {
	obs, err := d.Candidates(ctx, img)
	if err != nil || len(obs) == 0 {
		return nil, err
	}
	return &obs[0], nil
}

// Candidates returns up to Config.MaxObservations qualifying quads, largest
// first. MaxObservations of zero means no limit.
func (d *ContourDetector) Candidates(ctx context.Context, img image.Image) ([]Observation, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to analyze")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	work := img
	if m := d.cfg.MaxDimension; m > 0 {
		work = imaging.Fit(work, m, m, imaging.Linear)
	}
	if d.cfg.BlurRadius > 0 {
		work = blur.Gaussian(work, d.cfg.BlurRadius)
	}
	gray := effect.Grayscale(work)

	width, height := gray.Bounds().Dx(), gray.Bounds().Dy()
	if width < 3 || height < 3 {
		return nil, nil
	}
	size := geometry.Size{Width: float64(width), Height: float64(height)}

	edges := detectEdges(gray, d.cfg.EdgeThreshold)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	contours := findContours(edges, width, height)

	tol := math.Max(2.5, 0.01*math.Hypot(size.Width, size.Height))
	obs := make([]Observation, 0)
	for _, contour := range contours {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q := extremeCorners(contour)
		if !d.cfg.accept(q, size) {
			continue
		}
		confidence := edgeSupport(q, contour, tol)
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

	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].Area > obs[j].Area
	})
	if n := d.cfg.MaxObservations; n > 0 && len(obs) > n {
		obs = obs[:n]
	}
	return obs, nil
}

// extremeCorners picks the contour points furthest along the diagonals.
func extremeCorners(contour []pixel) geometry.Quad {
	tl, tr, bl, br := contour[0], contour[0], contour[0], contour[0]
	for _, p := range contour[1:] {
		if p.X+p.Y < tl.X+tl.Y {
			tl = p
		}
		if p.X+p.Y > br.X+br.Y {
			br = p
		}
		if p.X-p.Y > tr.X-tr.Y {
			tr = p
		}
		if p.X-p.Y < bl.X-bl.Y {
			bl = p
		}
	}
	return geometry.Quad{
		TopLeft:     tl.center(),
		TopRight:    tr.center(),
		BottomLeft:  bl.center(),
		BottomRight: br.center(),
	}
}

// detectEdges marks pixels whose grayscale value differs from the pixel to the
// right or below by more than threshold. Border pixels are never edges.
func detectEdges(gray *image.Gray, threshold float64) [][]bool {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	edges := make([][]bool, height)

	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		if y == 0 || y == height-1 {
			continue
		}
		for x := 1; x < width-1; x++ {
			c := float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			cx := float64(gray.GrayAt(b.Min.X+x+1, b.Min.Y+y).Y)
			cy := float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y+1).Y)

			if math.Abs(c-cx) > threshold || math.Abs(c-cy) > threshold {
				edges[y][x] = true
			}
		}
	}

	return edges
}

// findContours groups edge pixels into 8-connected components. Components
// smaller than 10 pixels are discarded as noise.
func findContours(edges [][]bool, width, height int) [][]pixel {
	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	contours := make([][]pixel, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges[y][x] && !visited[y][x] {
				contour := floodFill(edges, visited, x, y, width, height)
				if len(contour) >= 10 {
					contours = append(contours, contour)
				}
			}
		}
	}

	return contours
}

// floodFill collects the component containing (startX, startY) with an
// explicit stack.
func floodFill(edges, visited [][]bool, startX, startY, width, height int) []pixel {
	var contour []pixel
	stack := []pixel{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !edges[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		contour = append(contour, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, pixel{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return contour
}
