package geometry

import (
	"fmt"
	"math"
)

// Homography is a 3x3 projective transform in row-major order acting on
// column vectors:
//
//	[x' y' w']ᵀ = H · [x y 1]ᵀ,  result (x'/w', y'/w')
type Homography [9]float64

// Identity is the identity transform.
var Identity = Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}

// SquareToQuad returns the unique homography that maps the unit-square corners
// (0,0), (1,0), (0,1), (1,1) onto q's TopLeft, TopRight, BottomLeft and
// BottomRight respectively.
//
// The eight unknowns are solved in closed form. When the quad is a
// parallelogram the projective terms vanish and the result is affine.
//
// Returns ErrDegenerate (wrapped) when q.Degenerate() or the system is singular.
func SquareToQuad(q Quad) (Homography, error) {
	if q.Degenerate() {
		return Homography{}, fmt.Errorf("square to quad: %w", ErrDegenerate)
	}

	x0, y0 := q.TopLeft.X, q.TopLeft.Y
	x1, y1 := q.TopRight.X, q.TopRight.Y
	x2, y2 := q.BottomRight.X, q.BottomRight.Y
	x3, y3 := q.BottomLeft.X, q.BottomLeft.Y

	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3

	if dx3 == 0 && dy3 == 0 {
		return Homography{
			x1 - x0, x3 - x0, x0,
			y1 - y0, y3 - y0, y0,
			0, 0, 1,
		}, nil
	}

	dx1 := x1 - x2
	dx2 := x3 - x2
	dy1 := y1 - y2
	dy2 := y3 - y2

	den := dx1*dy2 - dx2*dy1
	if den == 0 || math.IsNaN(den) {
		return Homography{}, fmt.Errorf("square to quad: singular system: %w", ErrDegenerate)
	}

	g := (dx3*dy2 - dx2*dy3) / den
	h := (dx1*dy3 - dx3*dy1) / den

	return Homography{
		x1 - x0 + g*x1, x3 - x0 + h*x3, x0,
		y1 - y0 + g*y1, y3 - y0 + h*y3, y0,
		g, h, 1,
	}, nil
}

// QuadToQuad returns the homography mapping quad src onto quad dst, corner by
// corner.
func QuadToQuad(src, dst Quad) (Homography, error) {
	s, err := SquareToQuad(src)
	if err != nil {
		return Homography{}, err
	}
	d, err := SquareToQuad(dst)
	if err != nil {
		return Homography{}, err
	}
	inv, err := s.Invert()
	if err != nil {
		return Homography{}, err
	}
	return d.Times(inv), nil
}

// Apply maps p through h. The second result is false when p maps to infinity
// (p lies on the transform's vanishing line).
func (h Homography) Apply(p Point) (Point, bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return Point{}, false
	}
	return Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// Determinant returns det(h).
func (h Homography) Determinant() float64 {
	return h[0]*(h[4]*h[8]-h[5]*h[7]) -
		h[1]*(h[3]*h[8]-h[5]*h[6]) +
		h[2]*(h[3]*h[7]-h[4]*h[6])
}

// Adjoint returns the transpose of the cofactor matrix. Since homographies are
// defined up to scale, the adjoint is an inverse whenever det(h) != 0.
func (h Homography) Adjoint() Homography {
	return Homography{
		h[4]*h[8] - h[5]*h[7], h[2]*h[7] - h[1]*h[8], h[1]*h[5] - h[2]*h[4],
		h[5]*h[6] - h[3]*h[8], h[0]*h[8] - h[2]*h[6], h[2]*h[3] - h[0]*h[5],
		h[3]*h[7] - h[4]*h[6], h[1]*h[6] - h[0]*h[7], h[0]*h[4] - h[1]*h[3],
	}
}

// Invert returns the inverse of h normalized so that the bottom-right entry is 1
// when possible.
func (h Homography) Invert() (Homography, error) {
	det := h.Determinant()
	if det == 0 || math.IsNaN(det) {
		return Homography{}, fmt.Errorf("invert homography: %w", ErrDegenerate)
	}
	adj := h.Adjoint()
	scale := det
	if adj[8] != 0 {
		scale = adj[8]
	}
	for i := range adj {
		adj[i] /= scale
	}
	return adj, nil
}

// Times returns the composition h·o (o is applied first).
func (h Homography) Times(o Homography) Homography {
	var r Homography
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += h[row*3+k] * o[k*3+col]
			}
			r[row*3+col] = sum
		}
	}
	return r
}
