package mesh

import (
	"sort"

	"github.com/samber/lo"
)

// Edge is an undirected vertex pair stored with A < B.
type Edge struct {
	A, B int
}

// MakeEdge returns the canonical edge between a and b.
func MakeEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// Other returns the endpoint that is not v.
func (e Edge) Other(v int) int {
	if e.A == v {
		return e.B
	}
	return e.A
}

// Less orders edges by A then B.
func (e Edge) Less(o Edge) bool {
	if e.A != o.A {
		return e.A < o.A
	}
	return e.B < o.B
}

// Adjacency indexes the live faces of a mesh by vertex and by edge. Face
// lists are kept sorted so every traversal is deterministic.
type Adjacency struct {
	vf [][]int
	ef map[Edge][]int

	// reg records the corners each face was registered under, so a face
	// can be unregistered after its corners have been rewritten.
	reg   [][3]int
	isReg []bool
}

// BuildAdjacency indexes every live face of m.
func BuildAdjacency(m *Mesh) *Adjacency {
	a := &Adjacency{
		vf:    make([][]int, len(m.Vertices)),
		ef:    make(map[Edge][]int, len(m.Faces)*3/2),
		reg:   make([][3]int, len(m.Faces)),
		isReg: make([]bool, len(m.Faces)),
	}
	for fi := range m.Faces {
		if m.Faces[fi].Live {
			a.register(fi, m.Faces[fi].V)
		}
	}
	return a
}

// Update re-indexes every face that was incident to any of the given
// vertices before the mesh was edited. Faces that are now dead are dropped;
// live ones are registered under their current corners. The cost is
// proportional to the size of the touched neighborhood.
func (a *Adjacency) Update(m *Mesh, vertices ...int) {
	var touched []int
	for _, v := range vertices {
		touched = append(touched, a.vf[v]...)
	}
	touched = lo.Uniq(touched)
	sort.Ints(touched)

	for _, fi := range touched {
		a.unregister(fi)
	}
	for _, fi := range touched {
		if m.Faces[fi].Live {
			a.register(fi, m.Faces[fi].V)
		}
	}
}

func (a *Adjacency) register(fi int, v [3]int) {
	a.reg[fi] = v
	a.isReg[fi] = true
	for c := 0; c < 3; c++ {
		a.vf[v[c]] = insertSorted(a.vf[v[c]], fi)
		e := MakeEdge(v[c], v[(c+1)%3])
		a.ef[e] = insertSorted(a.ef[e], fi)
	}
}

func (a *Adjacency) unregister(fi int) {
	if !a.isReg[fi] {
		return
	}
	v := a.reg[fi]
	a.isReg[fi] = false
	for c := 0; c < 3; c++ {
		a.vf[v[c]] = removeSorted(a.vf[v[c]], fi)
		e := MakeEdge(v[c], v[(c+1)%3])
		if rest := removeSorted(a.ef[e], fi); len(rest) > 0 {
			a.ef[e] = rest
		} else {
			delete(a.ef, e)
		}
	}
}

// VertexFaces returns the sorted live faces incident to v. The slice is
// owned by the index and must not be modified.
func (a *Adjacency) VertexFaces(v int) []int {
	return a.vf[v]
}

// EdgeFaces returns the sorted live faces containing e.
func (a *Adjacency) EdgeFaces(e Edge) []int {
	return a.ef[e]
}

// Neighbors returns the sorted vertices sharing a live face with v.
func (a *Adjacency) Neighbors(m *Mesh, v int) []int {
	var out []int
	for _, fi := range a.vf[v] {
		for _, u := range m.Faces[fi].V {
			if u != v {
				out = append(out, u)
			}
		}
	}
	out = lo.Uniq(out)
	sort.Ints(out)
	return out
}

// Edges returns every edge with at least one live face, in canonical order.
func (a *Adjacency) Edges() []Edge {
	edges := lo.Keys(a.ef)
	sort.Slice(edges, func(i, j int) bool { return edges[i].Less(edges[j]) })
	return edges
}

// IsBoundaryEdge reports whether e has exactly one incident face.
func (a *Adjacency) IsBoundaryEdge(e Edge) bool {
	return len(a.ef[e]) == 1
}

// IsBoundaryVertex reports whether v lies on at least one boundary edge.
func (a *Adjacency) IsBoundaryVertex(m *Mesh, v int) bool {
	for _, u := range a.Neighbors(m, v) {
		if a.IsBoundaryEdge(MakeEdge(v, u)) {
			return true
		}
	}
	return false
}

// OppositeVertices returns, for each face on e, the corner that is not an
// endpoint of e.
func (a *Adjacency) OppositeVertices(m *Mesh, e Edge) []int {
	faces := a.ef[e]
	out := make([]int, 0, len(faces))
	for _, fi := range faces {
		for _, u := range m.Faces[fi].V {
			if u != e.A && u != e.B {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

func insertSorted(s []int, x int) []int {
	i := sort.SearchInts(s, x)
	if i < len(s) && s[i] == x {
		return s
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = x
	return s
}

func removeSorted(s []int, x int) []int {
	i := sort.SearchInts(s, x)
	if i == len(s) || s[i] != x {
		return s
	}
	return append(s[:i], s[i+1:]...)
}
