package quadric

import (
	"github.com/chazu/lodsmith/pkg/mesh"
)

// Options controls which quadrics Initialize accumulates.
type Options struct {
	// BoundaryWeight scales the perpendicular-plane quadric added to both
	// endpoints of every boundary edge. Zero disables it.
	BoundaryWeight float64
	// QualityQuadric adds a perpendicular-plane quadric for every edge of
	// every face, which keeps aspect ratios good on flat regions.
	QualityQuadric       bool
	QualityQuadricWeight float64
	// AreaWeighted scales each face plane quadric by the face area.
	AreaWeighted bool
}

// Initialize returns one quadric per vertex slot of m. Each live vertex
// receives the plane quadrics of its incident faces plus any configured edge
// quadrics; dead slots stay zero. Faces without area contribute nothing.
func Initialize(m *mesh.Mesh, adj *mesh.Adjacency, opts Options) []Quadric {
	qs := make([]Quadric, len(m.Vertices))

	for fi := range m.Faces {
		f := &m.Faces[fi]
		if !f.Live {
			continue
		}
		a, b, c := m.Corners(fi)
		q, ok := FromTriangle(a, b, c)
		if !ok {
			continue
		}
		if opts.AreaWeighted {
			q = q.Scale(mesh.TriangleArea(a, b, c))
		}
		for _, v := range f.V {
			qs[v] = qs[v].Add(q)
		}

		if opts.BoundaryWeight <= 0 && !opts.QualityQuadric {
			continue
		}
		n := m.FaceNormal(fi)
		for k := 0; k < 3; k++ {
			u, w := f.V[k], f.V[(k+1)%3]
			eq, ok := FromEdge(m.Vertices[u].Pos, m.Vertices[w].Pos, n)
			if !ok {
				continue
			}
			var weight float64
			if opts.BoundaryWeight > 0 && adj.IsBoundaryEdge(mesh.MakeEdge(u, w)) {
				weight += opts.BoundaryWeight
			}
			if opts.QualityQuadric {
				weight += opts.QualityQuadricWeight
			}
			if weight == 0 {
				continue
			}
			eq = eq.Scale(weight)
			qs[u] = qs[u].Add(eq)
			qs[w] = qs[w].Add(eq)
		}
	}
	return qs
}
