package guraffic

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Dimensions represents the minimum and maximum corners of a Mesh's bounding box.
type Dimensions struct {
	Min, Max mgl64.Vec3
}

// Width returns the size of the box on the X axis.
func (dim Dimensions) Width() float64 {
	return dim.Max[0] - dim.Min[0]
}

// Height returns the size of the box on the Y axis.
func (dim Dimensions) Height() float64 {
	return dim.Max[1] - dim.Min[1]
}

// Depth returns the size of the box on the Z axis.
func (dim Dimensions) Depth() float64 {
	return dim.Max[2] - dim.Min[2]
}

// Center returns the center point inbetween the two corners of the dimension set.
func (dim Dimensions) Center() mgl64.Vec3 {
	return dim.Min.Add(dim.Max).Mul(0.5)
}

// MaxSpan returns the maximum span out of width, height, and depth.
func (dim Dimensions) MaxSpan() float64 {
	return math.Max(math.Max(dim.Width(), dim.Height()), dim.Depth())
}

// Corners returns the eight corners of the box.
func (dim Dimensions) Corners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	for i := range out {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				out[i][axis] = dim.Max[axis]
			} else {
				out[i][axis] = dim.Min[axis]
			}
		}
	}
	return out
}

// Mesh is indexed triangle geometry along with the Material it's drawn with. Vertex data is stored as float32, the
// way it'd be uploaded to a GPU. Normals, TexCoords, Tangents, and Binormals are either empty or have one entry per
// position.
type Mesh struct {
	ID   AssetID
	Name string

	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	TexCoords []mgl32.Vec2
	Tangents  []mgl32.Vec3
	Binormals []mgl32.Vec3
	Faces     [][3]uint32

	Material   *Material
	Dimensions Dimensions
}

// NewMesh creates a new Mesh from positions and triangle indices. Every index has to refer to a position, or
// NewMesh returns an error.
func NewMesh(name string, positions []mgl32.Vec3, faces [][3]uint32) (*Mesh, error) {

	for i, face := range faces {
		for _, index := range face {
			if int(index) >= len(positions) {
				return nil, fmt.Errorf("mesh %q: face %d refers to vertex %d of %d: %w", name, i, index, len(positions), ErrMalformedFile)
			}
		}
	}

	mesh := &Mesh{
		ID:        newAssetID(),
		Name:      name,
		Positions: positions,
		Faces:     faces,
		Material:  NewMaterial("default"),
	}

	mesh.UpdateBounds()

	return mesh, nil

}

// VertexCount returns the number of vertices in the mesh.
func (mesh *Mesh) VertexCount() int {
	return len(mesh.Positions)
}

// TriangleCount returns the number of triangles in the mesh.
func (mesh *Mesh) TriangleCount() int {
	return len(mesh.Faces)
}

// UpdateBounds recalculates the Mesh's Dimensions from its positions.
func (mesh *Mesh) UpdateBounds() {

	if len(mesh.Positions) == 0 {
		mesh.Dimensions = Dimensions{}
		return
	}

	min := vec32To64(mesh.Positions[0])
	max := min

	for _, p := range mesh.Positions[1:] {
		v := vec32To64(p)
		for axis := 0; axis < 3; axis++ {
			min[axis] = math.Min(min[axis], v[axis])
			max[axis] = math.Max(max[axis], v[axis])
		}
	}

	mesh.Dimensions = Dimensions{Min: min, Max: max}

}

// CalculateNormals recomputes the vertex normals by summing the (area-weighted) normals of the faces each vertex
// belongs to and normalizing. If the mesh has texture coordinates, tangents and binormals are computed the same way.
// Vertices that belong to no non-degenerate face get zero vectors.
func (mesh *Mesh) CalculateNormals() {

	hasUV := len(mesh.TexCoords) == len(mesh.Positions) && len(mesh.Positions) > 0

	normals := make([]mgl32.Vec3, len(mesh.Positions))

	var tangents, binormals []mgl32.Vec3
	if hasUV {
		tangents = make([]mgl32.Vec3, len(mesh.Positions))
		binormals = make([]mgl32.Vec3, len(mesh.Positions))
	}

	for _, face := range mesh.Faces {

		p0 := mesh.Positions[face[0]]
		a := mesh.Positions[face[1]].Sub(p0)
		b := mesh.Positions[face[2]].Sub(p0)

		faceNormal := a.Cross(b)

		var faceTangent, faceBinormal mgl32.Vec3
		if hasUV {
			t0 := mesh.TexCoords[face[0]]
			txa := mesh.TexCoords[face[1]].Sub(t0)
			txb := mesh.TexCoords[face[2]].Sub(t0)
			faceTangent = a.Mul(txb[0]).Sub(b.Mul(txa[0]))
			faceBinormal = a.Mul(-txb[1]).Add(b.Mul(txa[1]))
		}

		for _, index := range face {
			normals[index] = normals[index].Add(faceNormal)
			if hasUV {
				tangents[index] = tangents[index].Add(faceTangent)
				binormals[index] = binormals[index].Add(faceBinormal)
			}
		}

	}

	normalizeAll(normals)
	mesh.Normals = normals

	if hasUV {
		normalizeAll(tangents)
		normalizeAll(binormals)
		mesh.Tangents = tangents
		mesh.Binormals = binormals
	} else {
		mesh.Tangents = nil
		mesh.Binormals = nil
	}

}

// TriangleNormal returns the normalized geometric normal of the triangle at the given index.
func (mesh *Mesh) TriangleNormal(index int) mgl32.Vec3 {
	face := mesh.Faces[index]
	p0 := mesh.Positions[face[0]]
	n := mesh.Positions[face[1]].Sub(p0).Cross(mesh.Positions[face[2]].Sub(p0))
	if n.Len() == 0 {
		return n
	}
	return n.Normalize()
}

func normalizeAll(vecs []mgl32.Vec3) {
	for i, v := range vecs {
		if l := v.Len(); l > 0 {
			vecs[i] = v.Mul(1 / l)
		}
	}
}

func vec32To64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}
