package geometry

import (
	"errors"
	"image"
	"math"
)

// ErrDegenerate is returned when four corners cannot bound a nonzero area:
// two corners coincide or three of them are collinear.
var ErrDegenerate = errors.New("degenerate quadrilateral")

// collinearEpsilon is relative to the squared extent of the quad.
const collinearEpsilon = 1e-9

// Quad is a quadrilateral with semantically labeled corners.
//
// The labels matter: TopLeft is the corner that should land at the output origin,
// TopRight at the end of the first output row, and so on. Swapping labels
// mirrors or rotates the rectified result rather than producing an error.
type Quad struct {
	TopLeft     Point `json:"top_left"`
	TopRight    Point `json:"top_right"`
	BottomLeft  Point `json:"bottom_left"`
	BottomRight Point `json:"bottom_right"`
}

// Corners returns the corners in TL, TR, BL, BR order.
func (q Quad) Corners() [4]Point {
	return [4]Point{q.TopLeft, q.TopRight, q.BottomLeft, q.BottomRight}
}

// Ring returns the corners in boundary order (TL, TR, BR, BL), the order in
// which the outline is walked.
func (q Quad) Ring() [4]Point {
	return [4]Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

// Edges returns the lengths of the top, bottom, left and right edges.
func (q Quad) Edges() (top, bottom, left, right float64) {
	top = q.TopLeft.Dist(q.TopRight)
	bottom = q.BottomLeft.Dist(q.BottomRight)
	left = q.TopLeft.Dist(q.BottomLeft)
	right = q.TopRight.Dist(q.BottomRight)
	return
}

// Map applies f to every corner.
func (q Quad) Map(f func(Point) Point) Quad {
	return Quad{
		TopLeft:     f(q.TopLeft),
		TopRight:    f(q.TopRight),
		BottomLeft:  f(q.BottomLeft),
		BottomRight: f(q.BottomRight),
	}
}

// Degenerate reports whether any two corners coincide or any three corners are
// collinear, within a tolerance relative to the quad's extent.
func (q Quad) Degenerate() bool {
	c := q.Corners()
	for _, p := range c {
		if !p.IsFinite() {
			return true
		}
	}

	var extent float64
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			dx := c[i].X - c[j].X
			dy := c[i].Y - c[j].Y
			extent = math.Max(extent, dx*dx+dy*dy)
		}
	}
	if extent == 0 {
		return true
	}

	tol := collinearEpsilon * extent
	triples := [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	for _, t := range triples {
		if math.Abs(cross(c[t[0]], c[t[1]], c[t[2]])) <= tol {
			return true
		}
	}
	return false
}

// Area returns the absolute area enclosed by the ring TL, TR, BR, BL using the
// shoelace formula.
func (q Quad) Area() float64 {
	r := q.Ring()
	var sum float64
	for i := 0; i < 4; i++ {
		a, b := r[i], r[(i+1)%4]
		sum += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(sum) / 2
}

// Bounds returns the smallest integer rectangle containing all four corners.
func (q Quad) Bounds() image.Rectangle {
	c := q.Corners()
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := c[0].X, c[0].Y
	for _, p := range c[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// Convex reports whether the ring TL, TR, BR, BL turns the same way at every
// corner. A mislabeled quad (a bow-tie) is not convex.
func (q Quad) Convex() bool {
	r := q.Ring()
	var pos, neg bool
	for i := 0; i < 4; i++ {
		c := cross(r[i], r[(i+1)%4], r[(i+2)%4])
		pos = pos || c > 0
		neg = neg || c < 0
	}
	return pos != neg
}

// Angles returns the interior angles in degrees at TL, TR, BR and BL.
func (q Quad) Angles() [4]float64 {
	r := q.Ring()
	var out [4]float64
	for i := 0; i < 4; i++ {
		prev, cur, next := r[(i+3)%4], r[i], r[(i+1)%4]
		a, b := prev.Sub(cur), next.Sub(cur)
		cos := (a.X*b.X + a.Y*b.Y) / (math.Hypot(a.X, a.Y) * math.Hypot(b.X, b.Y))
		out[i] = math.Acos(math.Max(-1, math.Min(1, cos))) * 180 / math.Pi
	}
	return out
}

// OutlineDistance returns the distance from p to the nearest point on the
// quad's boundary.
func (q Quad) OutlineDistance(p Point) float64 {
	r := q.Ring()
	d := math.Inf(1)
	for i := 0; i < 4; i++ {
		d = math.Min(d, segmentDistance(p, r[i], r[(i+1)%4]))
	}
	return d
}

func segmentDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(a.Add(ab.Mul(t)))
}

// Contains reports whether p lies inside the ring TL, TR, BR, BL (even-odd rule).
func (q Quad) Contains(p Point) bool {
	r := q.Ring()
	inside := false
	for i, j := 0, 3; i < 4; j, i = i, i+1 {
		a, b := r[i], r[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Intersects reports whether the quad overlaps the rectangle r (in pixel space,
// r.Max exclusive). Overlap is any shared area: a corner of one inside the
// other, or crossing edges.
func (q Quad) Intersects(r image.Rectangle) bool {
	if r.Empty() {
		return false
	}
	minX, minY := float64(r.Min.X), float64(r.Min.Y)
	maxX, maxY := float64(r.Max.X), float64(r.Max.Y)

	for _, p := range q.Corners() {
		if p.X > minX && p.X < maxX && p.Y > minY && p.Y < maxY {
			return true
		}
	}

	rect := [4]Point{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}}
	for _, p := range rect {
		if q.Contains(p) {
			return true
		}
	}

	ring := q.Ring()
	for i := 0; i < 4; i++ {
		a, b := ring[i], ring[(i+1)%4]
		for j := 0; j < 4; j++ {
			if segmentsCross(a, b, rect[j], rect[(j+1)%4]) {
				return true
			}
		}
	}
	return false
}

// segmentsCross reports whether segments ab and cd properly intersect.
func segmentsCross(a, b, c, d Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// OutputSize returns the default rectified size for q:
//
//	W = max(|TR-TL|, |BR-BL|)
//	H = max(|BL-TL|, |BR-TR|)
//
// Both are rounded half away from zero and clamped to at least 1.
func OutputSize(q Quad) (w, h int) {
	top, bottom, left, right := q.Edges()
	w = int(math.Round(math.Max(top, bottom)))
	h = int(math.Round(math.Max(left, right)))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
