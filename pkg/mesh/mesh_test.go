package mesh

import (
	"math"
	"testing"

	"github.com/chazu/lodsmith/pkg/mesh/meshtest"
	"gonum.org/v1/gonum/spatial/r3"
)

func mustCube(t *testing.T) *Mesh {
	t.Helper()
	m, err := FromKernel(meshtest.Cube())
	if err != nil {
		t.Fatalf("FromKernel(cube): %v", err)
	}
	return m
}

func TestTriangleQuality(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c r3.Vec
		want    float64
	}{
		{"equilateral", r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: 0.5, Y: math.Sqrt(3) / 2}, 1},
		{"collinear", r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: 2}, 0},
		{"collapsed", r3.Vec{}, r3.Vec{}, r3.Vec{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TriangleQuality(tt.a, tt.b, tt.c); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TriangleQuality() = %v, want %v", got, tt.want)
			}
		})
	}

	right := TriangleQuality(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1})
	if right <= 0 || right >= 1 {
		t.Errorf("right triangle quality = %v, want in (0,1)", right)
	}
}

func TestTriangleNormal(t *testing.T) {
	n := TriangleNormal(r3.Vec{}, r3.Vec{X: 2}, r3.Vec{Y: 3})
	if n != (r3.Vec{Z: 1}) {
		t.Errorf("TriangleNormal() = %v, want +Z", n)
	}
	if got := TriangleNormal(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: 2}); got != (r3.Vec{}) {
		t.Errorf("degenerate normal = %v, want zero", got)
	}
	if got := TriangleArea(r3.Vec{}, r3.Vec{X: 2}, r3.Vec{Y: 3}); got != 3 {
		t.Errorf("TriangleArea() = %v, want 3", got)
	}
}

func TestKillCounts(t *testing.T) {
	m := mustCube(t)
	m.KillFace(0)
	m.KillFace(0)
	m.KillVertex(7)
	if got := m.LiveFaceCount(); got != 11 {
		t.Errorf("LiveFaceCount() = %d, want 11", got)
	}
	if got := m.LiveVertexCount(); got != 7 {
		t.Errorf("LiveVertexCount() = %d, want 7", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := mustCube(t)
	c := m.Clone()
	c.KillFace(3)
	c.Vertices[0].Pos = r3.Vec{X: 9}
	if m.LiveFaceCount() != 12 || !m.Faces[3].Live {
		t.Error("killing a face in the clone changed the original")
	}
	if m.Vertices[0].Pos != (r3.Vec{}) {
		t.Error("moving a vertex in the clone changed the original")
	}
}

func TestCompact(t *testing.T) {
	m := New(
		[]r3.Vec{{X: 0}, {X: 1}, {X: 2}, {X: 3}, {X: 4}},
		[][3]int{{0, 1, 2}, {2, 3, 4}},
	)
	m.KillFace(0)
	m.KillVertex(0)
	m.KillVertex(1)

	remap := m.Compact()
	want := []int{-1, -1, 0, 1, 2}
	for i := range want {
		if remap[i] != want[i] {
			t.Fatalf("remap = %v, want %v", remap, want)
		}
	}
	if len(m.Vertices) != 3 || len(m.Faces) != 1 {
		t.Fatalf("after Compact: %d vertices, %d faces, want 3 and 1", len(m.Vertices), len(m.Faces))
	}
	if m.Faces[0].V != [3]int{0, 1, 2} {
		t.Errorf("face = %v, want [0 1 2]", m.Faces[0].V)
	}
	if m.Vertices[0].Pos.X != 2 {
		t.Errorf("first survivor at x=%v, want 2", m.Vertices[0].Pos.X)
	}
}

func TestBounds(t *testing.T) {
	m := mustCube(t)
	lo, hi := m.Bounds()
	if lo != (r3.Vec{}) || hi != (r3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Errorf("Bounds() = %v, %v, want unit cube", lo, hi)
	}

	empty := New(nil, nil)
	lo, hi = empty.Bounds()
	if lo != (r3.Vec{}) || hi != (r3.Vec{}) {
		t.Errorf("empty Bounds() = %v, %v, want zero", lo, hi)
	}
}
