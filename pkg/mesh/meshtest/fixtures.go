// Package meshtest provides small procedural meshes shared by tests.
package meshtest

import (
	"math"

	"github.com/chazu/lodsmith/pkg/kernel"
)

// Cube returns the unit cube as 8 shared vertices and 12 outward-facing
// triangles.
func Cube() *kernel.Mesh {
	return &kernel.Mesh{
		Vertices: []float32{
			0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0,
			0, 0, 1, 1, 0, 1, 1, 1, 1, 0, 1, 1,
		},
		Indices: []uint32{
			0, 2, 1, 0, 3, 2, // z=0
			4, 5, 6, 4, 6, 7, // z=1
			0, 1, 5, 0, 5, 4, // y=0
			3, 7, 6, 3, 6, 2, // y=1
			0, 4, 7, 0, 7, 3, // x=0
			1, 2, 6, 1, 6, 5, // x=1
		},
		PartName: "cube",
	}
}

// Tetrahedron returns a closed four-face mesh.
func Tetrahedron() *kernel.Mesh {
	return &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1},
		Indices:  []uint32{0, 2, 1, 0, 1, 3, 0, 3, 2, 1, 2, 3},
	}
}

// Grid returns an open n×n square grid on the z=0 plane spanning [0,n] with
// 2n² triangles and a boundary loop of 4n edges.
func Grid(n int) *kernel.Mesh {
	km := &kernel.Mesh{PartName: "grid"}
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			km.Vertices = append(km.Vertices, float32(x), float32(y), 0)
		}
	}
	row := uint32(n + 1)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			a := uint32(y)*row + uint32(x)
			b, c, d := a+1, a+row+1, a+row
			km.Indices = append(km.Indices, a, b, c, a, c, d)
		}
	}
	return km
}

// Torus returns a closed torus with major×minor quads split into
// 2·major·minor triangles.
func Torus(major, minor int) *kernel.Mesh {
	const R, r = 2.0, 0.5
	km := &kernel.Mesh{PartName: "torus"}
	for i := 0; i < major; i++ {
		u := 2 * math.Pi * float64(i) / float64(major)
		for j := 0; j < minor; j++ {
			v := 2 * math.Pi * float64(j) / float64(minor)
			w := R + r*math.Cos(v)
			km.Vertices = append(km.Vertices,
				float32(w*math.Cos(u)), float32(w*math.Sin(u)), float32(r*math.Sin(v)))
		}
	}
	at := func(i, j int) uint32 {
		return uint32((i%major)*minor + j%minor)
	}
	for i := 0; i < major; i++ {
		for j := 0; j < minor; j++ {
			a, b, c, d := at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1)
			km.Indices = append(km.Indices, a, b, c, a, c, d)
		}
	}
	return km
}
