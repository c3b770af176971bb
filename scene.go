package guraffic

import (
	"fmt"
)

// Behavior is something that updates entities every frame, such as an AnimationPlayer, PathFollower or ClockHand.
type Behavior interface {
	Update(dt float64) error
}

// handled is implemented by behaviors bound to a single entity, so the scene can drop them when it's destroyed.
type handled interface {
	Handle() Handle
}

// Scene owns a Graph of entities, along with the models, lights, cameras and behaviors attached to them. Nothing in
// guraffic refers to a scene implicitly; the frame loop passes its scene to whatever needs it.
type Scene struct {
	Name  string
	Graph *Graph

	Models    []*Model
	Lights    []*Light
	Cameras   []*Camera
	Behaviors []Behavior
	Libraries []*Library

	// EnvironmentProbe is the entity environment maps are rendered from; Nil if the scene has none.
	EnvironmentProbe Handle

	activeCamera *Camera
}

// NewScene creates a new, empty Scene.
func NewScene(name string) *Scene {
	return &Scene{
		Name:  name,
		Graph: NewGraph(),
	}
}

// NewEntity creates an empty entity in the scene's Graph.
func (scene *Scene) NewEntity(name string, options ...EntityOption) (Handle, error) {
	return scene.Graph.NewEntity(name, options...)
}

// NewModel creates a new entity drawing the provided mesh with the provided shader.
func (scene *Scene) NewModel(name string, mesh *Mesh, shader Shader, options ...EntityOption) (*Model, error) {
	h, err := scene.Graph.NewEntity(name, append(options, WithType(NodeTypeModel))...)
	if err != nil {
		return nil, err
	}
	return scene.AttachModel(h, mesh, shader), nil
}

// AttachModel draws the provided mesh at an existing entity.
func (scene *Scene) AttachModel(h Handle, mesh *Mesh, shader Shader) *Model {
	scene.Graph.entity(h).nodeType = NodeTypeModel
	model := &Model{graph: scene.Graph, handle: h, Mesh: mesh, Shader: shader}
	scene.Models = append(scene.Models, model)
	return model
}

// Instantiate creates an entity named name (customized with options) with the library's node hierarchy beneath it.
// Every node with a mesh becomes a Model drawn with the provided shader. The library is kept in the scene's
// Libraries. Instantiate returns the new root entity along with the created models.
func (scene *Scene) Instantiate(lib *Library, name string, shader Shader, options ...EntityOption) (Handle, []*Model, error) {

	root, err := scene.Graph.NewEntity(name, options...)
	if err != nil {
		return Nil, nil, err
	}

	models, err := scene.InstantiateUnder(lib, root, shader)
	if err != nil {
		scene.Destroy(root)
		return Nil, nil, err
	}

	return root, models, nil

}

// InstantiateUnder creates the library's node hierarchy beneath an existing entity, as Instantiate does.
func (scene *Scene) InstantiateUnder(lib *Library, parent Handle, shader Shader) ([]*Model, error) {

	models := []*Model{}
	created := []Handle{}

	var build func(template *NodeTemplate, parent Handle) error

	build = func(template *NodeTemplate, parent Handle) error {

		opts := []EntityOption{
			WithParent(parent),
			WithPosition(template.Position),
			WithScaleVec(template.Scale),
			WithRotation(template.Rotation),
		}

		h, err := scene.Graph.NewEntity(template.Name, opts...)
		if err != nil {
			return fmt.Errorf("library %q, node %q: %w", lib.Name, template.Name, err)
		}

		created = append(created, h)

		if template.Mesh != nil {
			models = append(models, scene.AttachModel(h, template.Mesh, shader))
		}

		for _, child := range template.Children {
			if err := build(child, h); err != nil {
				return err
			}
		}

		return nil

	}

	for _, template := range lib.Nodes {
		if err := build(template, parent); err != nil {
			for i := len(created) - 1; i >= 0; i-- {
				scene.Destroy(created[i])
			}
			return nil, err
		}
	}

	scene.addLibrary(lib)

	logger.Debug("instantiated library", "library", lib.Name, "under", scene.Graph.Name(parent), "models", len(models))

	return models, nil

}

func (scene *Scene) addLibrary(lib *Library) {
	for _, l := range scene.Libraries {
		if l == lib {
			return
		}
	}
	scene.Libraries = append(scene.Libraries, lib)
}

// NewLight creates a new light entity. kind should be NodeTypeDirectionalLight or NodeTypePointLight.
func (scene *Scene) NewLight(name string, kind NodeType, options ...EntityOption) (*Light, error) {

	if !kind.Is(NodeTypeLight) {
		return nil, fmt.Errorf("light %q: %q isn't a light type: %w", name, kind, ErrMalformedFile)
	}

	h, err := scene.Graph.NewEntity(name, append(options, WithType(kind))...)
	if err != nil {
		return nil, err
	}

	light := &Light{
		graph:          scene.Graph,
		handle:         h,
		Ambient:        Gray(0.2),
		Diffuse:        Gray(0.5),
		Specular:       White(),
		ShadowDistance: 10,
	}

	scene.Lights = append(scene.Lights, light)

	return light, nil

}

// NewCamera creates a new camera entity run by the provided controller (which may be nil). The first camera added
// to a scene becomes its active camera.
func (scene *Scene) NewCamera(name string, controller CameraController, options ...EntityOption) (*Camera, error) {

	h, err := scene.Graph.NewEntity(name, append(options, WithType(NodeTypeCamera))...)
	if err != nil {
		return nil, err
	}

	camera := NewCamera(scene.Graph, h)
	camera.Controller = controller

	if oc, ok := controller.(*OrbitCamera); ok {
		camera.Orbit = oc.Distance
	}

	scene.Cameras = append(scene.Cameras, camera)

	if scene.activeCamera == nil {
		scene.activeCamera = camera
	}

	return camera, nil

}

// ActiveCamera returns the camera the scene is viewed through, or nil if it has none.
func (scene *Scene) ActiveCamera() *Camera {
	return scene.activeCamera
}

// SetActiveCamera sets the camera the scene is viewed through. The camera has to belong to the scene.
func (scene *Scene) SetActiveCamera(camera *Camera) error {
	for _, c := range scene.Cameras {
		if c == camera {
			scene.activeCamera = camera
			return nil
		}
	}
	return fmt.Errorf("camera %q isn't in scene %q: %w", camera.Name(), scene.Name, ErrUnknownEntity)
}

// CycleCamera switches to the next camera in the scene (wrapping around), returning it.
func (scene *Scene) CycleCamera() *Camera {
	if len(scene.Cameras) == 0 {
		return nil
	}
	next := 0
	for i, c := range scene.Cameras {
		if c == scene.activeCamera {
			next = (i + 1) % len(scene.Cameras)
		}
	}
	scene.activeCamera = scene.Cameras[next]
	return scene.activeCamera
}

// AddBehavior adds behaviors to run every Update, in the order they're added.
func (scene *Scene) AddBehavior(behaviors ...Behavior) {
	scene.Behaviors = append(scene.Behaviors, behaviors...)
}

// FindModel returns the first model whose entity has the provided name, or nil if there isn't one.
func (scene *Scene) FindModel(name string) *Model {
	for _, model := range scene.Models {
		if model.Name() == name {
			return model
		}
	}
	return nil
}

// FindCamera returns the first camera whose entity has the provided name, or nil if there isn't one.
func (scene *Scene) FindCamera(name string) *Camera {
	for _, camera := range scene.Cameras {
		if camera.Name() == name {
			return camera
		}
	}
	return nil
}

// Destroy destroys an entity, along with any model, light, camera or behavior attached to it. Its children are
// re-rooted. If the active camera is destroyed, the scene switches to its first remaining camera (if any).
func (scene *Scene) Destroy(h Handle) {

	scene.Graph.entity(h)

	models := scene.Models[:0]
	for _, m := range scene.Models {
		if m.handle != h {
			models = append(models, m)
		}
	}
	clearTail(scene.Models, len(models))
	scene.Models = models

	lights := scene.Lights[:0]
	for _, l := range scene.Lights {
		if l.handle != h {
			lights = append(lights, l)
		}
	}
	clearTail(scene.Lights, len(lights))
	scene.Lights = lights

	cameras := scene.Cameras[:0]
	for _, c := range scene.Cameras {
		if c.handle != h {
			cameras = append(cameras, c)
		}
	}
	clearTail(scene.Cameras, len(cameras))
	scene.Cameras = cameras

	behaviors := scene.Behaviors[:0]
	for _, b := range scene.Behaviors {
		if hb, ok := b.(handled); ok && hb.Handle() == h {
			continue
		}
		behaviors = append(behaviors, b)
	}
	clearTail(scene.Behaviors, len(behaviors))
	scene.Behaviors = behaviors

	if scene.activeCamera != nil && scene.activeCamera.handle == h {
		scene.activeCamera = nil
		if len(scene.Cameras) > 0 {
			scene.activeCamera = scene.Cameras[0]
		}
	}

	if scene.EnvironmentProbe == h {
		scene.EnvironmentProbe = Nil
	}

	scene.Graph.Destroy(h)

}

// DestroyTree destroys an entity and all of its descendants, as Destroy does.
func (scene *Scene) DestroyTree(h Handle) {
	descendants := scene.Graph.Descendants(h)
	for i := len(descendants) - 1; i >= 0; i-- {
		scene.Destroy(descendants[i])
	}
	scene.Destroy(h)
}

func clearTail[T any](s []T, from int) {
	var zero T
	for i := from; i < len(s); i++ {
		s[i] = zero
	}
}

// Update runs one frame of simulation: every behavior in order, then the active camera's controller. It stops at
// the first error.
func (scene *Scene) Update(input Input, dt float64) error {

	for _, b := range scene.Behaviors {
		if err := b.Update(dt); err != nil {
			return fmt.Errorf("scene %q: %w", scene.Name, err)
		}
	}

	if cam := scene.activeCamera; cam != nil && cam.Controller != nil {
		if err := cam.Controller.Control(cam, input, dt); err != nil {
			return fmt.Errorf("scene %q: %w", scene.Name, err)
		}
	}

	return nil

}

// Frame builds the Frame for the active camera using the provided viewport.
func (scene *Scene) Frame(vp Viewport) (*Frame, error) {

	cam := scene.activeCamera
	if cam == nil {
		return nil, fmt.Errorf("scene %q: %w", scene.Name, ErrNoActiveCamera)
	}

	frame := BuildFrame(cam.ViewMatrix(), vp.Projection(), cam.Position(), scene.Models, scene.Lights, nil)
	frame.Viewport = vp

	return frame, nil

}

// ShadowFrame builds the Frame a shadow map pass for the provided light draws: every shadow-casting model, seen from
// the light through an orthographic projection extent units wide in every direction.
func (scene *Scene) ShadowFrame(light *Light, extent, near, far float64) *Frame {
	return BuildFrame(light.ShadowView(), light.ShadowProjection(extent, near, far), light.Position(), scene.Models, scene.Lights,
		func(m *Model) bool { return m.Shader.CastsShadows() })
}

// EnvironmentFrames builds the six frames an environment map pass draws from the scene's EnvironmentProbe, indexed
// by CubeFace. Reflective models are left out.
func (scene *Scene) EnvironmentFrames(near, far float64) ([6]*Frame, error) {

	var frames [6]*Frame

	if scene.EnvironmentProbe.IsNil() {
		return frames, fmt.Errorf("scene %q has no environment probe: %w", scene.Name, ErrUnknownEntity)
	}

	views := EnvironmentViews(scene.Graph, scene.EnvironmentProbe)
	projection := EnvironmentProjection(near, far)
	eye := scene.Graph.WorldPosition(scene.EnvironmentProbe)

	for face, view := range views {
		frames[face] = BuildFrame(view, projection, eye, scene.Models, scene.Lights,
			func(m *Model) bool { return m.Shader.Reflected() })
	}

	return frames, nil

}

// Bounds returns the world-space box around every visible model in the scene, and false if there are none.
func (scene *Scene) Bounds() (Dimensions, bool) {

	var dim Dimensions
	found := false

	for _, m := range scene.Models {
		if m.Mesh == nil || !m.Visible() || m.Shader == ShaderSkyBox {
			continue
		}
		d := m.WorldDimensions()
		if !found {
			dim = d
			found = true
			continue
		}
		for axis := 0; axis < 3; axis++ {
			dim.Min[axis] = min(dim.Min[axis], d.Min[axis])
			dim.Max[axis] = max(dim.Max[axis], d.Max[axis])
		}
	}

	return dim, found

}
