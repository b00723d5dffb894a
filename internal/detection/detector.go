package detection

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// Detector finds the dominant document quadrilateral in an image.
//
// Detect returns a nil Observation and a nil error when nothing qualifies.
// Implementations must be safe for concurrent use.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (*Observation, error)
}

// Observation is one detected quadrilateral.
type Observation struct {
	// Quad holds the corners in normalized [0,1] coordinates, using Convention.
	Quad geometry.Quad `json:"quad"`

	// Confidence is the fraction of the outline supported by edge pixels
	// (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Area is the quad's area as a fraction of the image area.
	Area float64 `json:"area"`

	Convention geometry.Convention `json:"convention"`
}

// PixelQuad converts the observation into the pixel space of an image of the
// given size.
func (o *Observation) PixelQuad(size geometry.Size) (geometry.Quad, error) {
	return o.Quad.ToPixel(size, o.Convention)
}

// Config holds the filters a candidate must pass. The defaults follow the
// platform rectangle detector used by camera scanning apps.
type Config struct {
	// MinSize is the shorter side of the quad as a fraction of the image's
	// shorter side.
	MinSize float64 `yaml:"min_size"`

	// MinAspectRatio and MaxAspectRatio bound short side / long side.
	MinAspectRatio float64 `yaml:"min_aspect_ratio"`
	MaxAspectRatio float64 `yaml:"max_aspect_ratio"`

	// MinConfidence drops candidates with weaker edge support.
	MinConfidence float64 `yaml:"min_confidence"`

	// QuadratureTolerance is the allowed deviation of each corner angle from
	// 90 degrees.
	QuadratureTolerance float64 `yaml:"quadrature_tolerance"`

	// EdgeThreshold is the grayscale step (0-255) between neighboring pixels
	// that counts as an edge.
	EdgeThreshold float64 `yaml:"edge_threshold"`

	// BlurRadius smooths the image before edge detection. Zero disables it.
	BlurRadius float64 `yaml:"blur_radius"`

	// MaxDimension downsizes larger images before detection. Zero keeps the
	// full resolution.
	MaxDimension int `yaml:"max_dimension"`

	// MaxObservations caps the number of candidates returned by Candidates.
	MaxObservations int `yaml:"max_observations"`

	// Convention is the origin convention of reported quads.
	Convention geometry.Convention `yaml:"convention"`

	// Backend selects the implementation, see New. Empty means "contour".
	Backend string `yaml:"backend"`
}

// DefaultConfig returns the detector defaults.
func DefaultConfig() Config {
	return Config{
		MinSize:             0.2,
		MinAspectRatio:      0.3,
		MaxAspectRatio:      1.0,
		MinConfidence:       0.0,
		QuadratureTolerance: 30,
		EdgeThreshold:       30,
		BlurRadius:          1.0,
		MaxDimension:        480,
		MaxObservations:     1,
		Convention:          geometry.OriginBottomLeft,
		Backend:             BackendContour,
	}
}

// Validate checks that the config values are usable.
func (c Config) Validate() error {
	if c.MinSize < 0 || c.MinSize > 1 {
		return fmt.Errorf("min_size must be in [0,1], got %g", c.MinSize)
	}
	if c.MinAspectRatio < 0 || c.MaxAspectRatio > 1 || c.MinAspectRatio > c.MaxAspectRatio {
		return fmt.Errorf("aspect ratio range [%g,%g] must lie within [0,1]", c.MinAspectRatio, c.MaxAspectRatio)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %g", c.MinConfidence)
	}
	if c.QuadratureTolerance < 0 || c.QuadratureTolerance > 45 {
		return fmt.Errorf("quadrature_tolerance must be in [0,45], got %g", c.QuadratureTolerance)
	}
	if c.EdgeThreshold <= 0 || c.EdgeThreshold > 255 {
		return fmt.Errorf("edge_threshold must be in (0,255], got %g", c.EdgeThreshold)
	}
	if c.BlurRadius < 0 || c.MaxDimension < 0 || c.MaxObservations < 0 {
		return fmt.Errorf("blur_radius, max_dimension and max_observations must not be negative")
	}
	return nil
}

// accept applies the shape filters to a pixel-space candidate found in an
// image of the given size.
func (c Config) accept(q geometry.Quad, size geometry.Size) bool {
	if q.Degenerate() || !q.Convex() {
		return false
	}

	top, bottom, left, right := q.Edges()
	w := (top + bottom) / 2
	h := (left + right) / 2
	short, long := math.Min(w, h), math.Max(w, h)
	if short < c.MinSize*math.Min(size.Width, size.Height) {
		return false
	}

	aspect := short / long
	if aspect < c.MinAspectRatio || aspect > c.MaxAspectRatio+1e-9 {
		return false
	}

	for _, a := range q.Angles() {
		if math.Abs(a-90) > c.QuadratureTolerance {
			return false
		}
	}
	return true
}

// edgeSupport scores how well the points lie on the quad outline: the share of
// points within tol of it, scaled down when the points are too few to cover
// the perimeter.
func edgeSupport(q geometry.Quad, pts []pixel, tol float64) float64 {
	if len(pts) == 0 {
		return 0
	}
	inliers := 0
	for _, p := range pts {
		if q.OutlineDistance(p.center()) <= tol {
			inliers++
		}
	}
	top, bottom, left, right := q.Edges()
	perimeter := top + bottom + left + right

	score := float64(inliers) / float64(len(pts))
	if coverage := float64(inliers) / perimeter; coverage < 1 {
		score *= coverage
	}
	return score
}
