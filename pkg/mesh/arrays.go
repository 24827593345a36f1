package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/lodsmith/pkg/kernel"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidInput is wrapped by every validation failure reported by
// FromArrays and FromKernel.
var ErrInvalidInput = errors.New("invalid mesh input")

// FromKernel validates a flat-array mesh and loads it into an arena.
func FromKernel(km *kernel.Mesh) (*Mesh, error) {
	if km == nil {
		return nil, fmt.Errorf("%w: nil mesh", ErrInvalidInput)
	}
	return FromArrays(km.Indices, km.Vertices, km.Normals, km.FaceNormals)
}

// FromArrays validates raw triangle indices, xyz positions and optional
// per-vertex or per-face normals, then builds a mesh. Every problem found is
// reported in the returned error; no partial mesh is produced.
func FromArrays(indices []uint32, positions, vertexNormals, faceNormals []float32) (*Mesh, error) {
	if err := validateArrays(indices, positions, vertexNormals, faceNormals); err != nil {
		return nil, err
	}

	nv := len(positions) / 3
	nf := len(indices) / 3
	m := &Mesh{
		Vertices:  make([]Vertex, nv),
		Faces:     make([]Face, nf),
		liveVerts: nv,
		liveFaces: nf,
	}
	for i := 0; i < nv; i++ {
		v := Vertex{Pos: vec(positions, i), Live: true}
		if len(vertexNormals) > 0 {
			v.Normal = vec(vertexNormals, i)
			v.HasNormal = true
		}
		m.Vertices[i] = v
	}
	for i := 0; i < nf; i++ {
		f := Face{
			V:    [3]int{int(indices[i*3]), int(indices[i*3+1]), int(indices[i*3+2])},
			Live: true,
		}
		if len(faceNormals) > 0 {
			f.Normal = vec(faceNormals, i)
			f.HasNormal = true
		}
		m.Faces[i] = f
	}
	return m, nil
}

func validateArrays(indices []uint32, positions, vertexNormals, faceNormals []float32) error {
	var errs error
	invalid := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...))
	}

	if len(positions) == 0 {
		invalid("empty vertex list")
	}
	if len(indices) == 0 {
		invalid("empty face list")
	}
	if len(positions)%3 != 0 {
		invalid("position array length %d is not a multiple of 3", len(positions))
	}
	if len(indices)%3 != 0 {
		invalid("index array length %d is not a multiple of 3", len(indices))
	}
	if errs != nil {
		return errs
	}

	nv := len(positions) / 3
	if bad, first := countOutOfRange(indices, nv); bad > 0 {
		invalid("%d face indices out of range [0,%d), first at face %d", bad, nv, first/3)
	}
	if bad, first := countNonFinite(positions); bad > 0 {
		invalid("%d non-finite coordinates, first at vertex %d", bad, first/3)
	}

	if len(vertexNormals) > 0 {
		if len(vertexNormals) != len(positions) {
			invalid("vertex normal array length %d does not match position length %d",
				len(vertexNormals), len(positions))
		} else if bad, first := countNonFinite(vertexNormals); bad > 0 {
			invalid("%d non-finite vertex normal components, first at vertex %d", bad, first/3)
		}
	}
	if len(faceNormals) > 0 {
		if len(faceNormals) != len(indices) {
			invalid("face normal array length %d does not match face count %d",
				len(faceNormals), len(indices)/3)
		} else if bad, first := countNonFinite(faceNormals); bad > 0 {
			invalid("%d non-finite face normal components, first at face %d", bad, first/3)
		}
	}
	return errs
}

func countOutOfRange(indices []uint32, n int) (bad, first int) {
	first = -1
	for i, idx := range indices {
		if int(idx) >= n {
			if first < 0 {
				first = i
			}
			bad++
		}
	}
	return bad, first
}

func countNonFinite(values []float32) (bad, first int) {
	first = -1
	for i, f := range values {
		x := float64(f)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			if first < 0 {
				first = i
			}
			bad++
		}
	}
	return bad, first
}

func vec(a []float32, i int) r3.Vec {
	return r3.Vec{X: float64(a[i*3]), Y: float64(a[i*3+1]), Z: float64(a[i*3+2])}
}

// ToKernel extracts flat arrays from the live part of the mesh. Indices are
// renumbered densely from zero, face normals are recomputed from the
// triangle geometry and vertex normals are the angle-weighted average of
// incident face normals. The receiver is not modified.
func (m *Mesh) ToKernel(name string) *kernel.Mesh {
	c := m.Clone()
	c.Compact()
	c.RecomputeNormals()

	out := &kernel.Mesh{
		Vertices:    make([]float32, 0, len(c.Vertices)*3),
		Normals:     make([]float32, 0, len(c.Vertices)*3),
		FaceNormals: make([]float32, 0, len(c.Faces)*3),
		Indices:     make([]uint32, 0, len(c.Faces)*3),
		PartName:    name,
	}
	for _, v := range c.Vertices {
		out.Vertices = append(out.Vertices, float32(v.Pos.X), float32(v.Pos.Y), float32(v.Pos.Z))
		out.Normals = append(out.Normals, float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z))
	}
	for _, f := range c.Faces {
		out.Indices = append(out.Indices, uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2]))
		out.FaceNormals = append(out.FaceNormals, float32(f.Normal.X), float32(f.Normal.Y), float32(f.Normal.Z))
	}
	return out
}
