package guraffic

import "github.com/go-gl/mathgl/mgl32"

type cubeSide struct {
	normal, u, v mgl32.Vec3
}

var cubeSides = []cubeSide{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
}

// NewCube creates a new 2x2x2 cube Mesh centered on the origin, with its own material (suitably named "Cube").
// Every side has its own four vertices so normals and texture coordinates stay flat per side.
func NewCube() *Mesh {

	mesh := &Mesh{ID: newAssetID(), Name: "Cube", Material: NewMaterial("Cube")}

	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	for _, side := range cubeSides {

		base := uint32(len(mesh.Positions))

		for _, c := range corners {
			mesh.Positions = append(mesh.Positions, side.normal.Add(side.u.Mul(c[0])).Add(side.v.Mul(c[1])))
			mesh.Normals = append(mesh.Normals, side.normal)
			mesh.TexCoords = append(mesh.TexCoords, mgl32.Vec2{(c[0] + 1) / 2, (c[1] + 1) / 2})
		}

		mesh.Faces = append(mesh.Faces, [3]uint32{base, base + 1, base + 2}, [3]uint32{base, base + 2, base + 3})

	}

	normals := mesh.Normals
	mesh.CalculateNormals()
	mesh.Normals = normals

	mesh.UpdateBounds()

	return mesh

}

// NewPlane creates a new 2x2 plane Mesh facing up (+Y), with its own material (suitably named "Plane").
func NewPlane() *Mesh {

	mesh := &Mesh{
		ID:   newAssetID(),
		Name: "Plane",
		Positions: []mgl32.Vec3{
			{-1, 0, 1}, {1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
		},
		TexCoords: []mgl32.Vec2{
			{0, 0}, {1, 0}, {1, 1}, {0, 1},
		},
		Faces:    [][3]uint32{{0, 1, 2}, {0, 2, 3}},
		Material: NewMaterial("Plane"),
	}

	mesh.CalculateNormals()
	mesh.UpdateBounds()

	return mesh

}
