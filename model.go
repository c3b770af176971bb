package guraffic

import "github.com/go-gl/mathgl/mgl64"

// Model draws a Mesh at an entity. The Model doesn't own the entity; destroying the entity through its Scene
// removes the Model as well.
type Model struct {
	graph  *Graph
	handle Handle

	Mesh   *Mesh
	Shader Shader
}

// Handle returns the entity the model is drawn at.
func (model *Model) Handle() Handle {
	return model.handle
}

// Name returns the name of the model's entity.
func (model *Model) Name() string {
	return model.graph.Name(model.handle)
}

// Transform returns the model's world pose.
func (model *Model) Transform() mgl64.Mat4 {
	return model.graph.WorldPose(model.handle)
}

// Visible returns whether the model's entity and all of its ancestors are visible.
func (model *Model) Visible() bool {
	return model.graph.VisibleInTree(model.handle)
}

// WorldDimensions returns the world-space axis-aligned box around the model's mesh.
func (model *Model) WorldDimensions() Dimensions {

	pose := model.Transform()
	corners := model.Mesh.Dimensions.Corners()

	first := pose.Mul4x1(corners[0].Vec4(1)).Vec3()
	dim := Dimensions{Min: first, Max: first}

	for _, c := range corners[1:] {
		p := pose.Mul4x1(c.Vec4(1)).Vec3()
		for axis := 0; axis < 3; axis++ {
			if p[axis] < dim.Min[axis] {
				dim.Min[axis] = p[axis]
			}
			if p[axis] > dim.Max[axis] {
				dim.Max[axis] = p[axis]
			}
		}
	}

	return dim

}
