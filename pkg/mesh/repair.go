package mesh

import "sort"

// DefaultAreaEpsilon is the area at or below which a face is degenerate.
const DefaultAreaEpsilon = 1e-12

// RepairOptions tunes Repair.
type RepairOptions struct {
	// AreaEpsilon is the degenerate-face area threshold. Zero selects
	// DefaultAreaEpsilon.
	AreaEpsilon float64
}

// RepairReport counts what Repair removed.
type RepairReport struct {
	DegenerateFaces      int
	DuplicateVertices    int
	UnreferencedVertices int
}

// Changed reports whether the repair modified anything.
func (r RepairReport) Changed() bool {
	return r.DegenerateFaces+r.DuplicateVertices+r.UnreferencedVertices > 0
}

// Repair removes degenerate faces, merges vertices with identical positions,
// drops vertices no face references and compacts the arena. Running it on an
// already repaired mesh reports nothing and changes nothing.
func Repair(m *Mesh, opts RepairOptions) RepairReport {
	eps := opts.AreaEpsilon
	if eps <= 0 {
		eps = DefaultAreaEpsilon
	}
	var rep RepairReport

	for fi := range m.Faces {
		f := &m.Faces[fi]
		if f.Live && (f.Degenerate() || m.FaceArea(fi) <= eps) {
			m.KillFace(fi)
			rep.DegenerateFaces++
		}
	}

	rep.DuplicateVertices = m.mergeCoincident()
	for fi := range m.Faces {
		if m.Faces[fi].Live && m.Faces[fi].Degenerate() {
			m.KillFace(fi)
			rep.DegenerateFaces++
		}
	}

	used := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		if f.Live {
			used[f.V[0]], used[f.V[1]], used[f.V[2]] = true, true, true
		}
	}
	for vi := range m.Vertices {
		if m.Vertices[vi].Live && !used[vi] {
			m.KillVertex(vi)
			rep.UnreferencedVertices++
		}
	}

	m.Compact()
	return rep
}

// mergeCoincident redirects every live vertex to the lowest-indexed live
// vertex at exactly the same position and returns how many were merged.
func (m *Mesh) mergeCoincident() int {
	order := make([]int, 0, m.liveVerts)
	for vi := range m.Vertices {
		if m.Vertices[vi].Live {
			order = append(order, vi)
		}
	}
	sort.Slice(order, func(i, j int) bool {
		p, q := m.Vertices[order[i]].Pos, m.Vertices[order[j]].Pos
		switch {
		case p.X != q.X:
			return p.X < q.X
		case p.Y != q.Y:
			return p.Y < q.Y
		case p.Z != q.Z:
			return p.Z < q.Z
		}
		return order[i] < order[j]
	})

	rep := make(map[int]int)
	for i := 1; i < len(order); i++ {
		prev, cur := order[i-1], order[i]
		if m.Vertices[prev].Pos != m.Vertices[cur].Pos {
			continue
		}
		root := prev
		if r, ok := rep[prev]; ok {
			root = r
		}
		rep[cur] = root
	}
	if len(rep) == 0 {
		return 0
	}

	for fi := range m.Faces {
		f := &m.Faces[fi]
		if !f.Live {
			continue
		}
		for c, v := range f.V {
			if r, ok := rep[v]; ok {
				f.V[c] = r
			}
		}
	}
	for v := range rep {
		m.KillVertex(v)
	}
	return len(rep)
}
