package guraffic

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// SceneDesc is the parsed form of a scene description file: plain data, safe to build on any goroutine and hand to
// the frame loop. BuildScene turns it into a Scene.
type SceneDesc struct {
	Name             string          `yaml:"name"`
	ActiveCamera     string          `yaml:"active_camera"`     // Path of the camera to view through; defaults to the first
	EnvironmentProbe string          `yaml:"environment_probe"` // Path of the entity environment maps are rendered from
	Meshes           []MeshDesc      `yaml:"meshes"`
	Entities         []EntityDesc    `yaml:"entities"`
	Animations       []AnimationDesc `yaml:"animations"`
	Paths            []PathDesc      `yaml:"paths"`
	Clocks           []ClockDesc     `yaml:"clocks"`
}

// MeshDesc names a mesh source: an .obj, .gltf or .glb file relative to the scene file, or a built-in primitive
// ("cube" or "plane").
type MeshDesc struct {
	Name      string `yaml:"name"`
	File      string `yaml:"file"`
	Primitive string `yaml:"primitive"`
}

// EntityDesc describes one entity. Parent is the path of an entity declared earlier in the file. At most one of
// Model, Camera, and Light may be set.
type EntityDesc struct {
	Name     string       `yaml:"name"`
	Parent   string       `yaml:"parent"`
	Position Vec3         `yaml:"position"`
	Rotation RotationDesc `yaml:"rotation"`
	Scale    ScaleDesc    `yaml:"scale"`
	Hidden   bool         `yaml:"hidden"`

	Model  *ModelDesc  `yaml:"model"`
	Camera *CameraDesc `yaml:"camera"`
	Light  *LightDesc  `yaml:"light"`
}

// ModelDesc draws a mesh source at the entity. If Part is set, only the library mesh with that name is drawn;
// otherwise the source's whole node hierarchy is created beneath the entity.
type ModelDesc struct {
	Mesh   string `yaml:"mesh"`
	Part   string `yaml:"part"`
	Shader Shader `yaml:"shader"`
}

// CameraDesc makes the entity a camera. Controller is "free", "orbit" or "none". Zero values fall back to the
// config's controls.
type CameraDesc struct {
	Controller  string  `yaml:"controller"`
	MoveSpeed   float64 `yaml:"move_speed"`
	Sensitivity float64 `yaml:"sensitivity"`
	Distance    float64 `yaml:"distance"`
	LookAt      *Vec3   `yaml:"look_at"`
}

// LightDesc makes the entity a light. Type is "directional" or "point".
type LightDesc struct {
	Type           string    `yaml:"type"`
	Ambient        *ColorVal `yaml:"ambient"`
	Diffuse        *ColorVal `yaml:"diffuse"`
	Specular       *ColorVal `yaml:"specular"`
	ShadowDistance float64   `yaml:"shadow_distance"`
}

// AnimationDesc plays an animation on the entity at Root. The animation is either written out in Tracks, or taken
// from a mesh source's animations by Clip.
type AnimationDesc struct {
	Name   string      `yaml:"name"`
	Root   string      `yaml:"root"`
	Mesh   string      `yaml:"mesh"`
	Clip   string      `yaml:"clip"`
	Finish string      `yaml:"finish"` // "loop", "pingpong" or "stop"
	Speed  float64     `yaml:"speed"`
	Tracks []TrackDesc `yaml:"tracks"`
}

// TrackDesc is one animated property. Target is relative to the animation's root.
type TrackDesc struct {
	Target    string         `yaml:"target"`
	Property  string         `yaml:"property"`
	Keyframes []KeyframeDesc `yaml:"keyframes"`
}

// KeyframeDesc is a keyframe of a track; Value is used by position and scale tracks, Rotation by rotation tracks.
type KeyframeDesc struct {
	Time     float64       `yaml:"time"`
	Value    *Vec3         `yaml:"value"`
	Rotation *RotationDesc `yaml:"rotation"`
	Easing   string        `yaml:"easing"`
}

// PathDesc moves an entity along a B-spline through Points.
type PathDesc struct {
	Entity string  `yaml:"entity"`
	Degree int     `yaml:"degree"` // Defaults to 3
	Period float64 `yaml:"period"` // Seconds per lap; defaults to 30
	Points []Vec3  `yaml:"points"`
}

// ClockDesc turns an entity into the hour or minute hand of a clock whose face has the rotation Face.
type ClockDesc struct {
	Entity string       `yaml:"entity"`
	Hand   string       `yaml:"hand"`
	Face   RotationDesc `yaml:"face"`
}

// Vec3 is a vector written as a sequence of three numbers.
type Vec3 mgl64.Vec3

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Vec3) UnmarshalYAML(node *yaml.Node) error {
	values, err := decodeFloats(node, 3, 3)
	if err != nil {
		return err
	}
	*v = Vec3{values[0], values[1], values[2]}
	return nil
}

// RotationDesc is a rotation written as one of:
//
//	rotation: {euler: [yaw, pitch, roll]}      # degrees
//	rotation: {axis: [x, y, z], angle: 90}     # degrees
//	rotation: {quat: [x, y, z, w]}
//
// An unset rotation is the identity.
type RotationDesc struct {
	Quat mgl64.Quat
	set  bool
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *RotationDesc) UnmarshalYAML(node *yaml.Node) error {

	var raw struct {
		Euler *Vec3     `yaml:"euler"`
		Axis  *Vec3     `yaml:"axis"`
		Angle float64   `yaml:"angle"`
		Quat  []float64 `yaml:"quat"`
	}

	if err := node.Decode(&raw); err != nil {
		return err
	}

	given := 0
	for _, set := range []bool{raw.Euler != nil, raw.Axis != nil, raw.Quat != nil} {
		if set {
			given++
		}
	}
	if given != 1 {
		return fmt.Errorf("line %d: a rotation needs exactly one of euler, axis, or quat: %w", node.Line, ErrMalformedFile)
	}

	switch {
	case raw.Euler != nil:
		r.Quat = QuatFromEuler(mgl64.Vec3(*raw.Euler))
	case raw.Axis != nil:
		axis := mgl64.Vec3(*raw.Axis)
		if axis.Len() < degenerateEpsilon {
			return fmt.Errorf("line %d: rotation axis is zero: %w", node.Line, ErrDegenerateRotation)
		}
		r.Quat = QuatFromAxisAngle(axis, mgl64.DegToRad(raw.Angle))
	default:
		if len(raw.Quat) != 4 {
			return fmt.Errorf("line %d: quat needs 4 values, got %d: %w", node.Line, len(raw.Quat), ErrMalformedFile)
		}
		r.Quat = mgl64.Quat{W: raw.Quat[3], V: mgl64.Vec3{raw.Quat[0], raw.Quat[1], raw.Quat[2]}}
	}

	r.set = true

	return nil

}

// Rotation returns the described rotation, or the identity if none was given.
func (r RotationDesc) Rotation() mgl64.Quat {
	if !r.set {
		return mgl64.QuatIdent()
	}
	return r.Quat
}

// ScaleDesc is a scale written as a single number (uniform) or a sequence of three. An unset scale is 1.
type ScaleDesc struct {
	Vec mgl64.Vec3
	set bool
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *ScaleDesc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		s.Vec = mgl64.Vec3{v, v, v}
	} else {
		var v Vec3
		if err := v.UnmarshalYAML(node); err != nil {
			return err
		}
		s.Vec = mgl64.Vec3(v)
	}
	s.set = true
	return nil
}

// Scale returns the described scale, or {1, 1, 1} if none was given.
func (s ScaleDesc) Scale() mgl64.Vec3 {
	if !s.set {
		return mgl64.Vec3{1, 1, 1}
	}
	return s.Vec
}

// ColorVal is a color written as a single gray value or a sequence of three (RGB) or four (RGBA) numbers.
type ColorVal Color

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *ColorVal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v float32
		if err := node.Decode(&v); err != nil {
			return err
		}
		*c = ColorVal(Gray(v))
		return nil
	}
	values, err := decodeFloats(node, 3, 4)
	if err != nil {
		return err
	}
	alpha := 1.0
	if len(values) == 4 {
		alpha = values[3]
	}
	*c = ColorVal(NewColor(float32(values[0]), float32(values[1]), float32(values[2]), float32(alpha)))
	return nil
}

func decodeFloats(node *yaml.Node, least, most int) ([]float64, error) {
	var values []float64
	if err := node.Decode(&values); err != nil {
		return nil, err
	}
	if len(values) < least || len(values) > most {
		if least == most {
			return nil, fmt.Errorf("line %d: expected %d numbers, got %d: %w", node.Line, least, len(values), ErrMalformedFile)
		}
		return nil, fmt.Errorf("line %d: expected %d to %d numbers, got %d: %w", node.Line, least, most, len(values), ErrMalformedFile)
	}
	return values, nil
}

// ParseSceneDesc decodes a scene description. Unknown keys are an error.
func ParseSceneDesc(r io.Reader) (*SceneDesc, error) {

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	desc := &SceneDesc{}

	if err := dec.Decode(desc); err != nil {
		if errors.Is(err, io.EOF) {
			return desc, nil
		}
		if errors.Is(err, ErrMalformedFile) || errors.Is(err, ErrDegenerateRotation) || errors.Is(err, ErrUnknownShader) {
			return nil, fmt.Errorf("scene file: %w", err)
		}
		return nil, fmt.Errorf("scene file: %v: %w", err, ErrMalformedFile)
	}

	return desc, nil

}

// LoadSceneFile reads and decodes the scene description at name within fsys.
func LoadSceneFile(fsys fs.FS, name string) (*SceneDesc, error) {

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("scene file: %w", err)
	}

	desc, err := ParseSceneDesc(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return desc, nil

}

// BuildScene creates a Scene from a description. Mesh files are read from fsys relative to dir (the scene file's
// directory). Camera controllers and the graph's scale handling come from cfg where the description doesn't say.
// Errors name the entity (or mesh, animation, path, or clock) at fault.
func BuildScene(desc *SceneDesc, fsys fs.FS, dir string, cfg Config) (*Scene, error) {

	name := desc.Name
	if name == "" {
		name = "scene"
	}

	scene := NewScene(name)

	if err := cfg.ApplyGraph(scene.Graph); err != nil {
		return nil, err
	}

	b := &sceneBuilder{
		scene:     scene,
		fsys:      fsys,
		dir:       dir,
		cfg:       cfg,
		libraries: map[string]*Library{},
	}

	for _, md := range desc.Meshes {
		if err := b.loadMesh(md); err != nil {
			return nil, fmt.Errorf("mesh %q: %w", md.Name, err)
		}
	}

	for _, ed := range desc.Entities {
		if err := b.buildEntity(ed); err != nil {
			return nil, fmt.Errorf("entity %q: %w", ed.Name, err)
		}
	}

	for _, ad := range desc.Animations {
		if err := b.buildAnimation(ad); err != nil {
			return nil, fmt.Errorf("animation %q: %w", ad.Name, err)
		}
	}

	for _, pd := range desc.Paths {
		if err := b.buildPath(pd); err != nil {
			return nil, fmt.Errorf("path for %q: %w", pd.Entity, err)
		}
	}

	for _, cd := range desc.Clocks {
		if err := b.buildClock(cd); err != nil {
			return nil, fmt.Errorf("clock hand %q: %w", cd.Entity, err)
		}
	}

	if desc.ActiveCamera != "" {
		h := scene.Graph.Get(Nil, desc.ActiveCamera)
		cam := b.camera(h)
		if cam == nil {
			return nil, fmt.Errorf("active camera %q: %w", desc.ActiveCamera, ErrUnknownEntity)
		}
		if err := scene.SetActiveCamera(cam); err != nil {
			return nil, err
		}
	}

	if desc.EnvironmentProbe != "" {
		h := scene.Graph.Get(Nil, desc.EnvironmentProbe)
		if h.IsNil() {
			return nil, fmt.Errorf("environment probe %q: %w", desc.EnvironmentProbe, ErrUnknownEntity)
		}
		scene.EnvironmentProbe = h
	}

	logger.Debug("built scene", "scene", scene.Name, "entities", scene.Graph.Len(), "models", len(scene.Models),
		"cameras", len(scene.Cameras), "lights", len(scene.Lights), "behaviors", len(scene.Behaviors))

	return scene, nil

}

type sceneBuilder struct {
	scene     *Scene
	fsys      fs.FS
	dir       string
	cfg       Config
	libraries map[string]*Library
}

func (b *sceneBuilder) loadMesh(md MeshDesc) error {

	if md.Name == "" {
		return fmt.Errorf("meshes need a name: %w", ErrMalformedFile)
	}

	if _, exists := b.libraries[md.Name]; exists {
		return fmt.Errorf("declared twice: %w", ErrMalformedFile)
	}

	if (md.File == "") == (md.Primitive == "") {
		return fmt.Errorf("needs exactly one of file or primitive: %w", ErrMalformedFile)
	}

	var lib *Library

	if md.Primitive != "" {

		lib = NewLibrary(md.Name)

		switch strings.ToLower(md.Primitive) {
		case "cube":
			lib.Meshes = append(lib.Meshes, NewCube())
		case "plane":
			lib.Meshes = append(lib.Meshes, NewPlane())
		default:
			return fmt.Errorf("primitive %q: %w", md.Primitive, ErrUnknownMesh)
		}

		lib.flatNodes()

	} else {

		if b.fsys == nil {
			return fmt.Errorf("no file system to load %s from: %w", md.File, ErrUnknownMesh)
		}

		file := path.Join(b.dir, md.File)

		var err error
		switch strings.ToLower(path.Ext(file)) {
		case ".obj":
			lib, err = LoadOBJ(b.fsys, file)
		case ".gltf", ".glb":
			lib, err = LoadGLTF(b.fsys, file)
		default:
			err = fmt.Errorf("%s isn't an .obj, .gltf, or .glb file: %w", md.File, ErrUnknownMesh)
		}

		if err != nil {
			return err
		}

		lib.Name = md.Name

	}

	b.libraries[md.Name] = lib

	return nil

}

func (b *sceneBuilder) buildEntity(ed EntityDesc) error {

	if ed.Name == "" {
		return fmt.Errorf("entities need a name: %w", ErrMalformedFile)
	}

	if strings.Contains(ed.Name, "/") {
		return fmt.Errorf("names can't contain '/': %w", ErrMalformedFile)
	}

	components := 0
	for _, set := range []bool{ed.Model != nil, ed.Camera != nil, ed.Light != nil} {
		if set {
			components++
		}
	}
	if components > 1 {
		return fmt.Errorf("only one of model, camera, or light can be set: %w", ErrMalformedFile)
	}

	g := b.scene.Graph

	parent := Nil
	if ed.Parent != "" {
		parent = g.Get(Nil, ed.Parent)
		if parent.IsNil() {
			return fmt.Errorf("parent %q: %w", ed.Parent, ErrUnknownEntity)
		}
	}

	if existing := g.Get(parent, ed.Name); !existing.IsNil() {
		return fmt.Errorf("a sibling is already named %q: %w", ed.Name, ErrMalformedFile)
	}

	options := []EntityOption{
		WithParent(parent),
		WithPosition(mgl64.Vec3(ed.Position)),
		WithScaleVec(ed.Scale.Scale()),
		WithRotation(ed.Rotation.Rotation()),
	}

	var h Handle

	switch {

	case ed.Model != nil:

		var err error
		if h, err = b.scene.NewEntity(ed.Name, options...); err != nil {
			return err
		}
		if err := b.attachModel(h, ed.Model); err != nil {
			return err
		}

	case ed.Camera != nil:

		controller, err := b.controller(ed.Camera)
		if err != nil {
			return err
		}

		cam, err := b.scene.NewCamera(ed.Name, controller, options...)
		if err != nil {
			return err
		}
		h = cam.Handle()

		if ed.Camera.LookAt != nil {
			if err := cam.LookAt(mgl64.Vec3(*ed.Camera.LookAt)); err != nil {
				return err
			}
		}

	case ed.Light != nil:

		kind := NodeTypeDirectionalLight
		switch strings.ToLower(ed.Light.Type) {
		case "", "directional", "sun":
		case "point":
			kind = NodeTypePointLight
		default:
			return fmt.Errorf("light type %q: %w", ed.Light.Type, ErrMalformedFile)
		}

		light, err := b.scene.NewLight(ed.Name, kind, options...)
		if err != nil {
			return err
		}
		h = light.Handle()

		if c := ed.Light.Ambient; c != nil {
			light.Ambient = Color(*c)
		}
		if c := ed.Light.Diffuse; c != nil {
			light.Diffuse = Color(*c)
		}
		if c := ed.Light.Specular; c != nil {
			light.Specular = Color(*c)
		}
		if ed.Light.ShadowDistance > 0 {
			light.ShadowDistance = ed.Light.ShadowDistance
		}

	default:

		var err error
		if h, err = b.scene.NewEntity(ed.Name, options...); err != nil {
			return err
		}

	}

	if ed.Hidden {
		g.SetVisible(h, false, false)
	}

	return nil

}

func (b *sceneBuilder) attachModel(h Handle, md *ModelDesc) error {

	lib, ok := b.libraries[md.Mesh]
	if !ok {
		return fmt.Errorf("mesh %q: %w", md.Mesh, ErrUnknownMesh)
	}

	if md.Part != "" {
		mesh := lib.FindMesh(md.Part)
		if mesh == nil {
			return fmt.Errorf("mesh %q has no part %q: %w", md.Mesh, md.Part, ErrUnknownMesh)
		}
		b.scene.AttachModel(h, mesh, md.Shader)
		b.scene.addLibrary(lib)
		return nil
	}

	// A lone untransformed mesh is drawn at the entity itself rather than at a child.
	if len(lib.Nodes) == 1 && len(lib.Nodes[0].Children) == 0 && lib.Nodes[0].Mesh != nil && isIdentityTemplate(lib.Nodes[0]) {
		b.scene.AttachModel(h, lib.Nodes[0].Mesh, md.Shader)
		b.scene.addLibrary(lib)
		return nil
	}

	_, err := b.scene.InstantiateUnder(lib, h, md.Shader)
	return err

}

func isIdentityTemplate(t *NodeTemplate) bool {
	return t.Position == (mgl64.Vec3{}) && t.Scale == (mgl64.Vec3{1, 1, 1}) && QuatsEquivalent(t.Rotation, mgl64.QuatIdent(), 1e-12)
}

func (b *sceneBuilder) controller(cd *CameraDesc) (CameraController, error) {

	switch strings.ToLower(cd.Controller) {

	case "", "free":
		fc := b.cfg.FreeCamera()
		if cd.MoveSpeed > 0 {
			fc.MoveSpeed = cd.MoveSpeed
		}
		if cd.Sensitivity > 0 {
			fc.SensitivityX, fc.SensitivityY = cd.Sensitivity, cd.Sensitivity
		}
		return fc, nil

	case "orbit":
		oc := b.cfg.OrbitCamera()
		if cd.Distance > 0 {
			oc.Distance = max(cd.Distance, oc.MinDistance)
		}
		if cd.Sensitivity > 0 {
			oc.SensitivityX, oc.SensitivityY = cd.Sensitivity, cd.Sensitivity
		}
		return oc, nil

	case "none", "fixed":
		return nil, nil

	}

	return nil, fmt.Errorf("camera controller %q: %w", cd.Controller, ErrMalformedFile)

}

func (b *sceneBuilder) camera(h Handle) *Camera {
	if h.IsNil() {
		return nil
	}
	for _, c := range b.scene.Cameras {
		if c.Handle() == h {
			return c
		}
	}
	return nil
}

func (b *sceneBuilder) entity(p string) (Handle, error) {
	h := b.scene.Graph.Get(Nil, p)
	if h.IsNil() {
		return Nil, fmt.Errorf("entity %q: %w", p, ErrUnknownEntity)
	}
	return h, nil
}

func (b *sceneBuilder) buildAnimation(ad AnimationDesc) error {

	root, err := b.entity(ad.Root)
	if err != nil {
		return err
	}

	var anim *Animation

	if ad.Clip != "" {

		if len(ad.Tracks) > 0 {
			return fmt.Errorf("has both a clip and tracks: %w", ErrMalformedFile)
		}

		lib, ok := b.libraries[ad.Mesh]
		if !ok {
			return fmt.Errorf("mesh %q: %w", ad.Mesh, ErrUnknownMesh)
		}

		if anim = lib.FindAnimation(ad.Clip); anim == nil {
			return fmt.Errorf("mesh %q has no animation %q: %w", ad.Mesh, ad.Clip, ErrUnknownEntity)
		}

	} else {

		anim = NewAnimation(ad.Name)

		for i, td := range ad.Tracks {
			if err := addTrack(anim, td); err != nil {
				return fmt.Errorf("track %d (%q): %w", i, td.Target, err)
			}
		}

	}

	player := NewAnimationPlayer(b.scene.Graph, root)

	if player.FinishMode, err = ParseFinishMode(ad.Finish); err != nil {
		return err
	}

	if ad.Speed != 0 {
		player.PlaySpeed = ad.Speed
	}

	if err := player.Play(anim); err != nil {
		return err
	}

	b.scene.AddBehavior(player)

	return nil

}

func addTrack(anim *Animation, td TrackDesc) error {

	property, err := ParseTrackProperty(td.Property)
	if err != nil {
		return err
	}

	if len(td.Keyframes) == 0 {
		return fmt.Errorf("no keyframes: %w", ErrMalformedFile)
	}

	track := anim.AddTrack(td.Target, property)

	for _, kd := range td.Keyframes {

		easing, err := ParseEasing(kd.Easing)
		if err != nil {
			return err
		}

		key := Keyframe{Time: kd.Time, Easing: easing}

		if property == TrackRotation {
			if kd.Rotation == nil {
				return fmt.Errorf("keyframe at %v needs a rotation: %w", kd.Time, ErrMalformedFile)
			}
			key.Rotation = kd.Rotation.Rotation()
		} else {
			if kd.Value == nil {
				return fmt.Errorf("keyframe at %v needs a value: %w", kd.Time, ErrMalformedFile)
			}
			key.Vector = mgl64.Vec3(*kd.Value)
		}

		track.AddKeyframe(key)

	}

	return nil

}

func (b *sceneBuilder) buildPath(pd PathDesc) error {

	h, err := b.entity(pd.Entity)
	if err != nil {
		return err
	}

	degree := pd.Degree
	if degree == 0 {
		degree = 3
	}

	points := make([]mgl64.Vec3, len(pd.Points))
	for i, p := range pd.Points {
		points[i] = mgl64.Vec3(p)
	}

	curve, err := NewCurve(degree, points...)
	if err != nil {
		return err
	}

	follower := NewPathFollower(b.scene.Graph, h, curve)
	if pd.Period > 0 {
		follower.Period = pd.Period
	}

	b.scene.AddBehavior(follower)

	return nil

}

func (b *sceneBuilder) buildClock(cd ClockDesc) error {

	h, err := b.entity(cd.Entity)
	if err != nil {
		return err
	}

	kind, err := ParseClockHandKind(cd.Hand)
	if err != nil {
		return err
	}

	b.scene.AddBehavior(NewClockHand(b.scene.Graph, h, kind, cd.Face.Rotation()))

	return nil

}
