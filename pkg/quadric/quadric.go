// Package quadric implements the quadric error metric: symmetric 4×4
// matrices that measure squared distance to a set of planes, stored as ten
// coefficients and summed as vertices merge.
package quadric

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultMaxCondition is the largest condition number of the 3×3 system
// accepted by Optimal before callers fall back to a midpoint.
const DefaultMaxCondition = 1e7

// Quadric holds the upper triangle of the symmetric matrix
//
//	| a2 ab ac ad |
//	| ab b2 bc bd |
//	| ac bc c2 cd |
//	| ad bd cd d2 |
//
// in the order a2 ab ac ad b2 bc bd c2 cd d2.
type Quadric [10]float64

// FromPlane returns the quadric n nᵀ of the plane n·p + d = 0. The normal
// should be unit length so Eval yields squared distance.
func FromPlane(n r3.Vec, d float64) Quadric {
	return Quadric{
		n.X * n.X, n.X * n.Y, n.X * n.Z, n.X * d,
		n.Y * n.Y, n.Y * n.Z, n.Y * d,
		n.Z * n.Z, n.Z * d,
		d * d,
	}
}

// FromTriangle returns the plane quadric of triangle (a, b, c). The second
// result is false when the triangle has no area and defines no plane.
func FromTriangle(a, b, c r3.Vec) (Quadric, bool) {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	l := r3.Norm(n)
	if l == 0 {
		return Quadric{}, false
	}
	n = r3.Scale(1/l, n)
	return FromPlane(n, -r3.Dot(n, a)), true
}

// FromEdge returns the quadric of the plane that contains the edge a→b and
// is perpendicular to a face with normal faceNormal.
func FromEdge(a, b, faceNormal r3.Vec) (Quadric, bool) {
	n := r3.Cross(r3.Sub(b, a), faceNormal)
	l := r3.Norm(n)
	if l == 0 {
		return Quadric{}, false
	}
	n = r3.Scale(1/l, n)
	return FromPlane(n, -r3.Dot(n, a)), true
}

// Add returns q + o.
func (q Quadric) Add(o Quadric) Quadric {
	for i := range q {
		q[i] += o[i]
	}
	return q
}

// Merge returns the quadric of a vertex formed by collapsing two vertices.
func Merge(a, b Quadric) Quadric {
	return a.Add(b)
}

// Scale returns s·q.
func (q Quadric) Scale(s float64) Quadric {
	for i := range q {
		q[i] *= s
	}
	return q
}

// Eval returns pᵀ Q p for the homogeneous point (p, 1). Rounding can push
// the exact value of a positive semidefinite form slightly negative; the
// result is clamped at zero.
func (q Quadric) Eval(p r3.Vec) float64 {
	x, y, z := p.X, p.Y, p.Z
	v := q[0]*x*x + 2*q[1]*x*y + 2*q[2]*x*z + 2*q[3]*x +
		q[4]*y*y + 2*q[5]*y*z + 2*q[6]*y +
		q[7]*z*z + 2*q[8]*z +
		q[9]
	return math.Max(v, 0)
}

// Optimal returns the point minimizing Eval by solving A p = -b, where A is
// the upper-left 3×3 block and b the last column. It reports false when
// the system is singular or its condition number exceeds maxCond.
func (q Quadric) Optimal(maxCond float64) (r3.Vec, bool) {
	a := mat.NewDense(3, 3, []float64{
		q[0], q[1], q[2],
		q[1], q[4], q[5],
		q[2], q[5], q[7],
	})
	var lu mat.LU
	lu.Factorize(a)
	if c := lu.Cond(); math.IsInf(c, 0) || math.IsNaN(c) || c > maxCond {
		return r3.Vec{}, false
	}

	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, mat.NewVecDense(3, []float64{-q[3], -q[6], -q[8]})); err != nil {
		return r3.Vec{}, false
	}
	p := r3.Vec{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}
	if !finite(p) {
		return r3.Vec{}, false
	}
	return p, true
}

func finite(p r3.Vec) bool {
	for _, f := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
