package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// RecomputeNormals overwrites face normals with the normalized geometric
// normal of every live face and vertex normals with the angle-weighted
// average of the incident face normals.
func (m *Mesh) RecomputeNormals() {
	sums := make([]r3.Vec, len(m.Vertices))

	for fi := range m.Faces {
		f := &m.Faces[fi]
		if !f.Live {
			continue
		}
		n := m.FaceNormal(fi)
		f.Normal = n
		f.HasNormal = true

		p := [3]r3.Vec{}
		p[0], p[1], p[2] = m.Corners(fi)
		for c := 0; c < 3; c++ {
			angle := cornerAngle(p[c], p[(c+1)%3], p[(c+2)%3])
			sums[f.V[c]] = r3.Add(sums[f.V[c]], r3.Scale(angle, n))
		}
	}

	for vi := range m.Vertices {
		v := &m.Vertices[vi]
		if !v.Live {
			continue
		}
		if l := r3.Norm(sums[vi]); l > 1e-12 {
			v.Normal = r3.Scale(1/l, sums[vi])
		} else {
			v.Normal = r3.Vec{}
		}
		v.HasNormal = true
	}
}

// cornerAngle returns the interior angle at p between edges to a and b.
func cornerAngle(p, a, b r3.Vec) float64 {
	ea := r3.Sub(a, p)
	eb := r3.Sub(b, p)
	la, lb := r3.Norm(ea), r3.Norm(eb)
	if la == 0 || lb == 0 {
		return 0
	}
	cos := r3.Dot(ea, eb) / (la * lb)
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}
