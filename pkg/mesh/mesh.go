// Package mesh holds the mutable working representation used by the
// simplifier: an arena of vertices and faces addressed by stable integer
// indices. Removed entities are tombstoned rather than deleted so indices
// held by adjacency lists and queue entries stay valid until Compact.
package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vertex is one arena slot.
type Vertex struct {
	Pos       r3.Vec
	Normal    r3.Vec
	HasNormal bool
	Live      bool
}

// Face is a triangle referencing three vertex slots. A live face's three
// references are pairwise distinct and all refer to live vertices.
type Face struct {
	V         [3]int
	Normal    r3.Vec
	HasNormal bool
	Live      bool
}

// Has reports whether the face references vertex v.
func (f *Face) Has(v int) bool {
	return f.V[0] == v || f.V[1] == v || f.V[2] == v
}

// Corner returns the position of v within the face, or -1.
func (f *Face) Corner(v int) int {
	for i, x := range f.V {
		if x == v {
			return i
		}
	}
	return -1
}

// Degenerate reports whether two corners reference the same vertex.
func (f *Face) Degenerate() bool {
	return f.V[0] == f.V[1] || f.V[1] == f.V[2] || f.V[0] == f.V[2]
}

// Mesh is an indexed triangle mesh with tombstoned deletion.
type Mesh struct {
	Vertices []Vertex
	Faces    []Face

	liveVerts int
	liveFaces int
}

// New builds a mesh from positions and triangles without validation.
// Callers handling external data should use FromArrays instead.
func New(positions []r3.Vec, faces [][3]int) *Mesh {
	m := &Mesh{
		Vertices: make([]Vertex, len(positions)),
		Faces:    make([]Face, len(faces)),
	}
	for i, p := range positions {
		m.Vertices[i] = Vertex{Pos: p, Live: true}
	}
	for i, f := range faces {
		m.Faces[i] = Face{V: f, Live: true}
	}
	m.liveVerts = len(positions)
	m.liveFaces = len(faces)
	return m
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Vertices:  make([]Vertex, len(m.Vertices)),
		Faces:     make([]Face, len(m.Faces)),
		liveVerts: m.liveVerts,
		liveFaces: m.liveFaces,
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Faces, m.Faces)
	return c
}

// LiveVertexCount returns the number of vertices not tombstoned.
func (m *Mesh) LiveVertexCount() int { return m.liveVerts }

// LiveFaceCount returns the number of faces not tombstoned.
func (m *Mesh) LiveFaceCount() int { return m.liveFaces }

// KillFace tombstones face f. Killing a dead face is a no-op.
func (m *Mesh) KillFace(f int) {
	if !m.Faces[f].Live {
		return
	}
	m.Faces[f].Live = false
	m.liveFaces--
}

// KillVertex tombstones vertex v. Killing a dead vertex is a no-op.
func (m *Mesh) KillVertex(v int) {
	if !m.Vertices[v].Live {
		return
	}
	m.Vertices[v].Live = false
	m.liveVerts--
}

// Corners returns the three corner positions of face f.
func (m *Mesh) Corners(f int) (r3.Vec, r3.Vec, r3.Vec) {
	v := m.Faces[f].V
	return m.Vertices[v[0]].Pos, m.Vertices[v[1]].Pos, m.Vertices[v[2]].Pos
}

// FaceArea returns the area of face f.
func (m *Mesh) FaceArea(f int) float64 {
	return TriangleArea(m.Corners(f))
}

// FaceNormal returns the unit normal of face f, or the zero vector when the
// face has no area.
func (m *Mesh) FaceNormal(f int) r3.Vec {
	return TriangleNormal(m.Corners(f))
}

// Bounds returns the axis-aligned bounding box of the live vertices.
func (m *Mesh) Bounds() (min, max r3.Vec) {
	min = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	found := false
	for i := range m.Vertices {
		if !m.Vertices[i].Live {
			continue
		}
		found = true
		p := m.Vertices[i].Pos
		min = r3.Vec{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y), Z: math.Min(min.Z, p.Z)}
		max = r3.Vec{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y), Z: math.Max(max.Z, p.Z)}
	}
	if !found {
		return r3.Vec{}, r3.Vec{}
	}
	return min, max
}

// Compact removes tombstoned vertices and faces and renumbers the survivors
// densely from zero, preserving their relative order. It returns the old to
// new vertex index map; removed vertices map to -1.
func (m *Mesh) Compact() []int {
	remap := make([]int, len(m.Vertices))
	verts := make([]Vertex, 0, m.liveVerts)
	for i, v := range m.Vertices {
		if !v.Live {
			remap[i] = -1
			continue
		}
		remap[i] = len(verts)
		verts = append(verts, v)
	}

	faces := make([]Face, 0, m.liveFaces)
	for _, f := range m.Faces {
		if !f.Live {
			continue
		}
		for c := range f.V {
			f.V[c] = remap[f.V[c]]
		}
		faces = append(faces, f)
	}

	m.Vertices = verts
	m.Faces = faces
	m.liveVerts = len(verts)
	m.liveFaces = len(faces)
	return remap
}

// TriangleArea returns the area of the triangle (a, b, c).
func TriangleArea(a, b, c r3.Vec) float64 {
	return r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a))) / 2
}

// TriangleNormal returns the unit normal of (a, b, c) following the
// right-hand rule, or the zero vector for a degenerate triangle.
func TriangleNormal(a, b, c r3.Vec) r3.Vec {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	l := r3.Norm(n)
	if l == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/l, n)
}

// TriangleQuality returns a shape score in [0, 1]: 1 for an equilateral
// triangle and 0 for a degenerate one.
func TriangleQuality(a, b, c r3.Vec) float64 {
	sum := r3.Norm2(r3.Sub(b, a)) + r3.Norm2(r3.Sub(c, b)) + r3.Norm2(r3.Sub(a, c))
	if sum == 0 {
		return 0
	}
	doubleArea := r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
	return 2 * math.Sqrt(3) * doubleArea / sum
}
