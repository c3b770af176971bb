package guraffic

import (
	"github.com/go-gl/mathgl/mgl64"
)

// DrawItem is everything a backend needs to draw one Model.
type DrawItem struct {
	Model  *Model
	Mesh   *Mesh
	Shader Shader

	World  mgl64.Mat4 // The model's world pose
	Normal mgl64.Mat3 // Inverse transpose of World's upper 3x3
	PVM    mgl64.Mat4 // Projection * view * world; for skyboxes, the view has its translation removed
}

// FrameLight is a light as seen by a single frame.
type FrameLight struct {
	Light     *Light
	Position  mgl64.Vec3
	Direction mgl64.Vec3
}

// Frame is a snapshot of a scene taken from a camera. Building one reads every matrix it needs from the Graph
// once; after that, backends can draw it without touching the Graph.
type Frame struct {
	View           mgl64.Mat4
	Projection     mgl64.Mat4
	CameraPosition mgl64.Vec3
	Viewport       Viewport

	Lights []FrameLight
	Items  []DrawItem
}

// Backend draws frames. guraffic itself doesn't draw anything; see the ebitenview package for a backend.
type Backend interface {
	Render(frame *Frame) error
}

// ViewWithoutTranslation returns the view matrix with its translation column zeroed, leaving only rotation.
func ViewWithoutTranslation(view mgl64.Mat4) mgl64.Mat4 {
	view[12], view[13], view[14] = 0, 0, 0
	return view
}

// CubeFace identifies one face of a cube map.
type CubeFace int

const (
	CubeFacePositiveX CubeFace = iota
	CubeFaceNegativeX
	CubeFacePositiveY
	CubeFaceNegativeY
	CubeFacePositiveZ
	CubeFaceNegativeZ
)

var cubeFaceRotations = [6]mgl64.Quat{
	CubeFacePositiveX: mgl64.QuatRotate(-mgl64.DegToRad(90), WorldUp),
	CubeFaceNegativeX: mgl64.QuatRotate(mgl64.DegToRad(90), WorldUp),
	CubeFacePositiveY: mgl64.QuatRotate(mgl64.DegToRad(90), WorldRight),
	CubeFaceNegativeY: mgl64.QuatRotate(-mgl64.DegToRad(90), WorldRight),
	CubeFacePositiveZ: mgl64.QuatRotate(mgl64.DegToRad(180), WorldUp),
	CubeFaceNegativeZ: mgl64.QuatIdent(),
}

// EnvironmentViews returns the six view matrices used to render an environment (cube) map from the world position
// of the provided entity. Each one looks down the axis its CubeFace names; the entity's own rotation is ignored.
func EnvironmentViews(g *Graph, h Handle) [6]mgl64.Mat4 {
	eye := g.WorldPosition(h)
	var views [6]mgl64.Mat4
	for face, q := range cubeFaceRotations {
		views[face] = RigidInverse(eye, q)
	}
	return views
}

// EnvironmentProjection returns the square, 90 degree projection used for each face of an environment map.
func EnvironmentProjection(near, far float64) mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(90), 1, near, far)
}

// BuildFrame builds a Frame from the provided view and projection, drawing the given models. Invisible models are
// skipped. filter may be nil; when it isn't, only models it returns true for are drawn.
func BuildFrame(view, projection mgl64.Mat4, eye mgl64.Vec3, models []*Model, lights []*Light, filter func(*Model) bool) *Frame {

	frame := &Frame{
		View:           view,
		Projection:     projection,
		CameraPosition: eye,
		Items:          make([]DrawItem, 0, len(models)),
	}

	pv := projection.Mul4(view)
	pvSky := projection.Mul4(ViewWithoutTranslation(view))

	for _, model := range models {

		if model.Mesh == nil || !model.Visible() || (filter != nil && !filter(model)) {
			continue
		}

		world := model.Transform()

		item := DrawItem{
			Model:  model,
			Mesh:   model.Mesh,
			Shader: model.Shader,
			World:  world,
			Normal: NormalMatrix(world),
		}

		if model.Shader.ViewWithoutTranslation() {
			item.PVM = pvSky.Mul4(world)
		} else {
			item.PVM = pv.Mul4(world)
		}

		frame.Items = append(frame.Items, item)

	}

	for _, light := range lights {
		frame.Lights = append(frame.Lights, FrameLight{
			Light:     light,
			Position:  light.Position(),
			Direction: light.Direction(),
		})
	}

	return frame

}
