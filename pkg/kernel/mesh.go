package kernel

// Mesh is an indexed triangle mesh in flat-array form. It is the shape
// exchanged with everything outside the simplification core.
// Vertices has 3 floats per vertex (x,y,z), Normals has 3 floats per
// vertex, FaceNormals has 3 floats per triangle and Indices has 3 uint32s
// per triangle. Either normal array may be empty, meaning "derive from
// geometry".
type Mesh struct {
	Vertices    []float32 `json:"vertices"`              // [x0,y0,z0, x1,y1,z1, ...]
	Normals     []float32 `json:"normals"`               // [nx0,ny0,nz0, ...]
	FaceNormals []float32 `json:"faceNormals,omitempty"` // [fx0,fy0,fz0, ...]
	Indices     []uint32  `json:"indices"`               // [i0,i1,i2, ...] triangles
	PartName    string    `json:"partName"`              // source part or LOD level label
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0 || len(m.Indices) == 0
}

// HasVertexNormals reports whether Normals carries one normal per vertex.
func (m *Mesh) HasVertexNormals() bool {
	return len(m.Normals) > 0 && len(m.Normals) == len(m.Vertices)
}

// HasFaceNormals reports whether FaceNormals carries one normal per triangle.
func (m *Mesh) HasFaceNormals() bool {
	return len(m.FaceNormals) > 0 && len(m.FaceNormals) == len(m.Indices)
}
