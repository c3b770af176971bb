package guraffic

import (
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDesc(t *testing.T, src string) *SceneDesc {
	t.Helper()
	desc, err := ParseSceneDesc(strings.NewReader(src))
	require.NoError(t, err)
	return desc
}

func TestSceneDescValueForms(t *testing.T) {

	desc := parseDesc(t, `
entities:
  - name: A
    position: [1, 2, 3]
    rotation: {euler: [90, 0, 0]}
    scale: 2
  - name: B
    rotation: {axis: [0, 1, 0], angle: 90}
    scale: [1, 2, 3]
  - name: C
    rotation: {quat: [0, 0, 0, 1]}
    light:
      ambient: 0.5
      diffuse: [1, 0, 0]
      specular: [1, 1, 1, 0.5]
  - name: D
`)

	require.Len(t, desc.Entities, 4)
	a, b, c, d := desc.Entities[0], desc.Entities[1], desc.Entities[2], desc.Entities[3]

	assert.Equal(t, Vec3{1, 2, 3}, a.Position)
	assert.True(t, QuatsEquivalent(QuatFromEuler(mgl64.Vec3{90, 0, 0}), a.Rotation.Rotation(), 1e-12))
	assert.Equal(t, mgl64.Vec3{2, 2, 2}, a.Scale.Scale())

	assert.True(t, QuatsEquivalent(b.Rotation.Rotation(), a.Rotation.Rotation(), 1e-9), "both describe a quarter turn about +Y")
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, b.Scale.Scale())

	assert.Equal(t, mgl64.QuatIdent(), c.Rotation.Rotation())
	require.NotNil(t, c.Light)
	assert.Equal(t, ColorVal(Gray(0.5)), *c.Light.Ambient)
	assert.Equal(t, ColorVal(NewColor(1, 0, 0, 1)), *c.Light.Diffuse)
	assert.Equal(t, ColorVal(NewColor(1, 1, 1, 0.5)), *c.Light.Specular)

	assert.Equal(t, mgl64.QuatIdent(), d.Rotation.Rotation(), "an unset rotation is the identity")
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, d.Scale.Scale(), "an unset scale is 1")

	empty, err := ParseSceneDesc(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Entities)

}

func TestSceneDescErrors(t *testing.T) {

	cases := map[string]struct {
		src string
		err error
	}{
		"unknown key":       {"entities:\n  - name: A\n    colour: red\n", ErrMalformedFile},
		"short vector":      {"entities:\n  - name: A\n    position: [1, 2]\n", ErrMalformedFile},
		"two rotations":     {"entities:\n  - name: A\n    rotation: {euler: [0, 0, 0], quat: [0, 0, 0, 1]}\n", ErrMalformedFile},
		"no rotation":       {"entities:\n  - name: A\n    rotation: {}\n", ErrMalformedFile},
		"zero axis":         {"entities:\n  - name: A\n    rotation: {axis: [0, 0, 0], angle: 10}\n", ErrDegenerateRotation},
		"three-number quat": {"entities:\n  - name: A\n    rotation: {quat: [0, 0, 1]}\n", ErrMalformedFile},
		"unknown shader":    {"entities:\n  - name: A\n    model: {mesh: cube, shader: toon}\n", ErrUnknownShader},
		"two-number color":  {"entities:\n  - name: A\n    light: {diffuse: [1, 1]}\n", ErrMalformedFile},
		"not yaml":          {"entities: [\n", ErrMalformedFile},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSceneDesc(strings.NewReader(c.src))
			assert.ErrorIs(t, err, c.err)
		})
	}

}

func TestBuildScene(t *testing.T) {

	fsys := fstest.MapFS{
		"scenes/zoo.yaml": {Data: []byte(`
name: zoo
active_camera: Keeper/Eye
environment_probe: Pen
meshes:
  - name: box
    primitive: cube
  - name: tri
    file: models/tri.obj
entities:
  - name: Pen
    position: [0, 0, -10]
    model: {mesh: box, shader: phong}
  - name: Tri
    parent: Pen
    position: [1, 0, 0]
    hidden: true
    model: {mesh: tri, shader: flat}
  - name: Spot
    light: {type: point, shadow_distance: 30}
  - name: Keeper
    position: [0, 2, 0]
  - name: Eye
    parent: Keeper
    camera: {controller: orbit, distance: 8, look_at: [0, 0, -10]}
  - name: Fixed
    camera: {controller: none}
  - name: Wanderer
animations:
  - name: bob
    root: Pen
    finish: stop
    speed: 2
    tracks:
      - target: Tri
        property: position
        keyframes:
          - {time: 0, value: [1, 0, 0]}
          - {time: 1, value: [1, 4, 0], easing: out-quad}
paths:
  - entity: Wanderer
    degree: 1
    period: 10
    points: [[0, 0, 0], [10, 0, 0]]
clocks:
  - entity: Keeper
    hand: minute
`)},
		"scenes/models/tri.obj": {Data: []byte("o Tri\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")},
	}

	desc, err := LoadSceneFile(fsys, "scenes/zoo.yaml")
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Graph.ScalePolicy = "clamp"

	scene, err := BuildScene(desc, fsys, "scenes", cfg)
	require.NoError(t, err)

	g := scene.Graph
	assert.Equal(t, "zoo", scene.Name)
	assert.Equal(t, ScaleClamp, g.ScalePolicy)

	pen := scene.FindModel("Pen")
	require.NotNil(t, pen)
	assert.Equal(t, ShaderPhong, pen.Shader)
	assert.Equal(t, pen.Handle(), scene.EnvironmentProbe)

	tri := scene.FindModel("Tri")
	require.NotNil(t, tri, "a lone untransformed mesh is drawn at the entity itself")
	assert.Equal(t, "Pen/Tri", g.Path(tri.Handle()))
	assert.False(t, g.Visible(tri.Handle()))

	require.Len(t, scene.Lights, 1)
	assert.Equal(t, NodeTypePointLight, g.Type(scene.Lights[0].Handle()))
	assert.Equal(t, 30.0, scene.Lights[0].ShadowDistance)

	eye := scene.ActiveCamera()
	require.NotNil(t, eye)
	assert.Equal(t, "Eye", eye.Name())
	assert.Equal(t, 8.0, eye.Orbit)
	assert.IsType(t, &OrbitCamera{}, eye.Controller)
	assertVec(t, mgl64.Vec3{0, -2, -10}.Normalize(), eye.Forwards())

	fixed := scene.FindCamera("Fixed")
	require.NotNil(t, fixed)
	assert.Nil(t, fixed.Controller)

	require.Len(t, scene.Behaviors, 3)

	require.NoError(t, scene.Update(Input{}, 0.25))
	assertVec(t, mgl64.Vec3{1, 3, 0}, g.Position(tri.Handle()), "halfway through an out-quad ease at double speed")
	assertVec(t, mgl64.Vec3{0.25, 0, 0}, g.Position(g.Get(Nil, "Wanderer")))

}

func TestBuildSceneErrors(t *testing.T) {

	cases := map[string]struct {
		src string
		err error
	}{
		"parent declared later": {
			"entities:\n  - name: A\n    parent: B\n  - name: B\n", ErrUnknownEntity,
		},
		"duplicate sibling": {
			"entities:\n  - name: A\n  - name: A\n", ErrMalformedFile,
		},
		"slash in name": {
			"entities:\n  - name: A/B\n", ErrMalformedFile,
		},
		"two components": {
			"meshes:\n  - {name: box, primitive: cube}\nentities:\n  - name: A\n    model: {mesh: box}\n    light: {}\n", ErrMalformedFile,
		},
		"unknown mesh": {
			"entities:\n  - name: A\n    model: {mesh: box}\n", ErrUnknownMesh,
		},
		"unknown primitive": {
			"meshes:\n  - {name: ball, primitive: sphere}\n", ErrUnknownMesh,
		},
		"mesh with file and primitive": {
			"meshes:\n  - {name: box, primitive: cube, file: box.obj}\n", ErrMalformedFile,
		},
		"unknown file type": {
			"meshes:\n  - {name: box, file: box.fbx}\n", ErrUnknownMesh,
		},
		"degenerate scale": {
			"entities:\n  - name: A\n    scale: 0\n", ErrDegenerateScale,
		},
		"unknown controller": {
			"entities:\n  - name: A\n    camera: {controller: drone}\n", ErrMalformedFile,
		},
		"unknown light": {
			"entities:\n  - name: A\n    light: {type: spot}\n", ErrMalformedFile,
		},
		"active camera isn't a camera": {
			"active_camera: A\nentities:\n  - name: A\n", ErrUnknownEntity,
		},
		"missing probe": {
			"environment_probe: Nowhere\n", ErrUnknownEntity,
		},
		"animation root": {
			"animations:\n  - name: x\n    root: Nobody\n", ErrUnknownEntity,
		},
		"track property": {
			"entities:\n  - name: A\nanimations:\n  - name: x\n    root: A\n    tracks:\n      - {target: '', property: colour, keyframes: [{time: 0, value: [0, 0, 0]}]}\n", ErrUnknownProperty,
		},
		"rotation keyframe without a rotation": {
			"entities:\n  - name: A\nanimations:\n  - name: x\n    root: A\n    tracks:\n      - {target: '', property: rotation, keyframes: [{time: 0, value: [0, 0, 0]}]}\n", ErrMalformedFile,
		},
		"easing": {
			"entities:\n  - name: A\nanimations:\n  - name: x\n    root: A\n    tracks:\n      - {target: '', property: position, keyframes: [{time: 0, value: [0, 0, 0], easing: wobble}]}\n", ErrUnknownEasing,
		},
		"path points": {
			"entities:\n  - name: A\npaths:\n  - entity: A\n    points: [[0, 0, 0]]\n", ErrMalformedFile,
		},
		"clock hand": {
			"entities:\n  - name: A\nclocks:\n  - entity: A\n    hand: second\n", ErrMalformedFile,
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			desc := parseDesc(t, c.src)
			_, err := BuildScene(desc, fstest.MapFS{}, ".", DefaultConfig())
			assert.ErrorIs(t, err, c.err)
		})
	}

}

func TestParkScene(t *testing.T) {

	fsys := os.DirFS("assets")

	desc, err := LoadSceneFile(fsys, "park.yaml")
	require.NoError(t, err)

	scene, err := BuildScene(desc, fsys, ".", DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, "FreeCam", scene.ActiveCamera().Name())
	assert.Len(t, scene.Cameras, 2)
	assert.Equal(t, "Ball/Probe", scene.Graph.Path(scene.EnvironmentProbe))
	assert.NotNil(t, scene.FindModel("Ground"))

	require.NoError(t, scene.Update(Input{}, 1.0/60))

	frame, err := scene.Frame(DefaultConfig().Viewport())
	require.NoError(t, err)
	assert.NotEmpty(t, frame.Items)

	for _, m := range scene.Models {
		assert.True(t, mat4Finite(m.Transform()), "%s", scene.Graph.Path(m.Handle()))
	}

}

func mat4Finite(m mgl64.Mat4) bool {
	for _, v := range m {
		if v != v || v > 1e300 || v < -1e300 {
			return false
		}
	}
	return true
}
