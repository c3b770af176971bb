package guraffic

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Viewport holds the projection settings a scene is drawn with.
type Viewport struct {
	Width, Height int     // Size of the render target in pixels
	FieldOfView   float64 // Vertical field of view in degrees. Defaults to 90.
	Near, Far     float64 // Near and far clipping planes. Default to 0.5 and 1700.
}

// NewViewport returns a Viewport of the given size with the default field of view and clipping planes.
func NewViewport(w, h int) Viewport {
	return Viewport{
		Width:       w,
		Height:      h,
		FieldOfView: 90,
		Near:        0.5,
		Far:         1700,
	}
}

// AspectRatio returns the viewport's width divided by its height.
func (vp Viewport) AspectRatio() float64 {
	if vp.Height == 0 {
		return 1
	}
	return float64(vp.Width) / float64(vp.Height)
}

// Projection returns the viewport's perspective projection matrix.
func (vp Viewport) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(vp.FieldOfView), vp.AspectRatio(), vp.Near, vp.Far)
}

// Input is the per-frame input state handed to camera controllers and the inspector. The window layer fills it
// in; nothing in guraffic reads devices directly.
type Input struct {
	MouseDelta mgl64.Vec2 // Mouse movement since the last frame, in pixels
	Wheel      float64    // Scroll wheel movement since the last frame; positive is away from the user
	Captured   bool       // Whether the mouse is captured by the 3D view (mouse look only applies while it is)

	Forward, Back, Left, Right, Up, Down bool
}

// MoveVector returns the movement requested by the pressed keys in camera space: -Z forwards, +X right, +Y up.
func (in Input) MoveVector() mgl64.Vec3 {
	var v mgl64.Vec3
	if in.Forward {
		v[2]--
	}
	if in.Back {
		v[2]++
	}
	if in.Left {
		v[0]--
	}
	if in.Right {
		v[0]++
	}
	if in.Up {
		v[1]++
	}
	if in.Down {
		v[1]--
	}
	return v
}

// CameraController moves a camera in response to input each frame.
type CameraController interface {
	Control(camera *Camera, input Input, dt float64) error
}

// Camera represents a viewpoint into a scene. It's bound to an entity in a Graph; the entity's world translation
// and world rotation position the camera, while its scale (and its ancestors' scales) are ignored.
type Camera struct {
	graph  *Graph
	handle Handle

	// Orbit is the distance the eye is pulled back from the camera's entity along its local +Z axis. It's 0 for
	// regular cameras, and is driven by OrbitCamera.
	Orbit float64

	// Controller is run by Scene.Update for the active camera. It may be nil.
	Controller CameraController
}

// NewCamera creates a camera bound to an existing entity.
func NewCamera(graph *Graph, handle Handle) *Camera {
	graph.entity(handle)
	return &Camera{graph: graph, handle: handle}
}

// Handle returns the camera's entity.
func (camera *Camera) Handle() Handle {
	return camera.handle
}

// Graph returns the Graph the camera's entity lives in.
func (camera *Camera) Graph() *Graph {
	return camera.graph
}

// Name returns the name of the camera's entity.
func (camera *Camera) Name() string {
	return camera.graph.Name(camera.handle)
}

// ViewMatrix returns the camera's view matrix: the inverse of its entity's WorldTranslation * WorldRotation (with
// the orbit distance applied afterwards). The base view is cached on the entity and rebuilt only when it, or one of
// its ancestors, changes.
func (camera *Camera) ViewMatrix() mgl64.Mat4 {
	view := camera.graph.rigidView(camera.handle)
	if camera.Orbit != 0 {
		view = Translation(mgl64.Vec3{0, 0, -camera.Orbit}).Mul4(view)
	}
	return view
}

// Position returns the eye's position in world space.
func (camera *Camera) Position() mgl64.Vec3 {
	g := camera.graph
	g.entity(camera.handle)
	g.updateTranslation(camera.handle)
	q := g.WorldQuat(camera.handle)
	eye := g.entities[camera.handle.index].worldOffset
	if camera.Orbit != 0 {
		eye = eye.Add(q.Rotate(mgl64.Vec3{0, 0, camera.Orbit}))
	}
	return eye
}

// Forwards returns the direction the camera looks in, in world space.
func (camera *Camera) Forwards() mgl64.Vec3 {
	return camera.graph.Forwards(camera.handle)
}

// LookAt rotates the camera's entity so that it faces the target point in world space. The eye is the rigid one the
// view matrix is built from, so ancestor scale doesn't throw the aim off. It does nothing if the target is where the
// camera already is.
func (camera *Camera) LookAt(target mgl64.Vec3) error {

	g := camera.graph
	eye := TranslationOf(g.WorldTranslation(camera.handle))
	dir := target.Sub(eye)

	if dir.Len() < degenerateEpsilon {
		return nil
	}

	up := WorldUp
	if math.Abs(dir.Normalize().Dot(up)) > 1-1e-6 {
		up = mgl64.Vec3{0, 0, -1}
	}

	forward := dir.Normalize()
	right := forward.Cross(up).Normalize()
	trueUp := right.Cross(forward)
	world := QuatFromMatrix(mgl64.Mat3FromCols(right, trueUp, forward.Mul(-1)).Mat4())

	parent := g.Parent(camera.handle)
	if !parent.IsNil() {
		world = g.WorldQuat(parent).Conjugate().Mul(world)
	}

	return g.SetRotation(camera.handle, world)

}

// mouseLook applies the mouse yaw (about the parent's up axis) and pitch (about the camera's horizontal axis) shared
// by both camera controllers. Both rotations happen in the parent's space, so a camera riding a turned parent still
// pitches rather than rolls. Angles are pixels * sensitivity / 10000 radians.
func mouseLook(camera *Camera, input Input, sensX, sensY float64) error {

	if !input.Captured || (input.MouseDelta[0] == 0 && input.MouseDelta[1] == 0) {
		return nil
	}

	g := camera.graph
	h := camera.handle

	xAngle := input.MouseDelta[0] * sensX / 10000
	yAngle := input.MouseDelta[1] * sensY / 10000

	// The pitch axis points to the camera's left, so moving the mouse down tilts the view down.
	pitchAxis := g.Rotation(h).Rotate(WorldForward).Cross(mgl64.Vec3{0, -1, 0})

	if pitchAxis.Len() > degenerateEpsilon && yAngle != 0 {
		if err := g.RotateParentSpace(h, pitchAxis, yAngle); err != nil {
			return err
		}
	}

	if xAngle != 0 {
		if err := g.RotateParentSpace(h, WorldUp, -xAngle); err != nil {
			return err
		}
	}

	return nil

}

// FreeCamera is a first-person camera controller: the mouse aims, and WASD / space / shift+space move the camera
// relative to the direction it faces.
type FreeCamera struct {
	MoveSpeed    float64 // World units per second. Defaults to 10.
	SensitivityX float64 // Defaults to 3.
	SensitivityY float64 // Defaults to 3.
}

// NewFreeCamera returns a FreeCamera with the default speed and sensitivity.
func NewFreeCamera() *FreeCamera {
	return &FreeCamera{MoveSpeed: 10, SensitivityX: 3, SensitivityY: 3}
}

// Control implements CameraController.
func (fc *FreeCamera) Control(camera *Camera, input Input, dt float64) error {

	if err := mouseLook(camera, input, fc.SensitivityX, fc.SensitivityY); err != nil {
		return fmt.Errorf("free camera: %w", err)
	}

	move := input.MoveVector()
	if move.Len() == 0 {
		return nil
	}

	g := camera.graph
	offset := g.Rotation(camera.handle).Rotate(move.Mul(fc.MoveSpeed * dt))

	if err := g.Move(camera.handle, offset); err != nil {
		return fmt.Errorf("free camera: %w", err)
	}

	return nil

}

// OrbitCamera is a camera controller that orbits around its entity's position at a distance: the mouse rotates
// around the pivot, and the scroll wheel moves the eye closer or further away.
type OrbitCamera struct {
	Distance     float64 // Distance of the eye from the pivot. Never drops below MinDistance through the wheel. Defaults to 5.
	MinDistance  float64 // Defaults to 1.
	SensitivityX float64 // Defaults to 3.
	SensitivityY float64 // Defaults to 3.
}

// NewOrbitCamera returns an OrbitCamera with the default distance and sensitivity.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{Distance: 5, MinDistance: 1, SensitivityX: 3, SensitivityY: 3}
}

// Control implements CameraController.
func (oc *OrbitCamera) Control(camera *Camera, input Input, dt float64) error {

	if err := mouseLook(camera, input, oc.SensitivityX, oc.SensitivityY); err != nil {
		return fmt.Errorf("orbit camera: %w", err)
	}

	if input.Captured && input.Wheel != 0 {
		oc.Distance -= input.Wheel
		if oc.Distance < oc.MinDistance {
			oc.Distance = oc.MinDistance
		}
	}

	camera.Orbit = oc.Distance

	return nil

}
