package mesh

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// brokenQuad is a unit square whose second triangle references a duplicate
// of corner (1,1,0), plus a zero-area sliver using an otherwise unused
// vertex.
func brokenQuad() *Mesh {
	return New(
		[]r3.Vec{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1},
			{X: 1, Y: 1},
			{X: 2, Y: 0},
		},
		[][3]int{
			{0, 1, 3},
			{0, 4, 2},
			{0, 1, 5},
		},
	)
}

func TestRepair(t *testing.T) {
	m := brokenQuad()
	rep := Repair(m, RepairOptions{})

	want := RepairReport{DegenerateFaces: 1, DuplicateVertices: 1, UnreferencedVertices: 1}
	if rep != want {
		t.Errorf("Repair() = %+v, want %+v", rep, want)
	}
	if len(m.Vertices) != 4 || len(m.Faces) != 2 {
		t.Fatalf("after Repair: %d vertices, %d faces, want 4 and 2", len(m.Vertices), len(m.Faces))
	}
	if m.Faces[1].V != [3]int{0, 3, 2} {
		t.Errorf("second face = %v, want [0 3 2]", m.Faces[1].V)
	}

	adj := BuildAdjacency(m)
	if n := len(adj.EdgeFaces(MakeEdge(0, 3))); n != 2 {
		t.Errorf("shared diagonal has %d faces, want 2", n)
	}
}

func TestRepairIdempotent(t *testing.T) {
	m := brokenQuad()
	Repair(m, RepairOptions{})
	before := m.Clone()

	rep := Repair(m, RepairOptions{})
	if rep.Changed() {
		t.Errorf("second Repair() = %+v, want no changes", rep)
	}
	if len(m.Vertices) != len(before.Vertices) || len(m.Faces) != len(before.Faces) {
		t.Fatal("second Repair changed the mesh size")
	}
	for i := range m.Faces {
		if m.Faces[i].V != before.Faces[i].V {
			t.Errorf("face %d changed: %v -> %v", i, before.Faces[i].V, m.Faces[i].V)
		}
	}
}

func TestRepairCleanMesh(t *testing.T) {
	m := mustCube(t)
	if rep := Repair(m, RepairOptions{}); rep.Changed() {
		t.Errorf("Repair(cube) = %+v, want no changes", rep)
	}
	if m.LiveFaceCount() != 12 || m.LiveVertexCount() != 8 {
		t.Errorf("cube changed: %d faces, %d vertices", m.LiveFaceCount(), m.LiveVertexCount())
	}
}

func TestRepairAreaEpsilon(t *testing.T) {
	m := New(
		[]r3.Vec{{}, {X: 1}, {Y: 1e-4}},
		[][3]int{{0, 1, 2}},
	)
	if rep := Repair(m.Clone(), RepairOptions{}); rep.DegenerateFaces != 0 {
		t.Errorf("default epsilon removed a thin face: %+v", rep)
	}
	rep := Repair(m, RepairOptions{AreaEpsilon: 1e-3})
	if rep.DegenerateFaces != 1 || rep.UnreferencedVertices != 3 {
		t.Errorf("Repair() = %+v, want 1 face and 3 vertices removed", rep)
	}
	if m.LiveFaceCount() != 0 {
		t.Errorf("LiveFaceCount() = %d, want 0", m.LiveFaceCount())
	}
}
