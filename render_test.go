package guraffic

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameMatrices(t *testing.T) {

	scene := NewScene("Park")

	cam, err := scene.NewCamera("Eye", nil, WithPosition(mgl64.Vec3{0, 0, 10}))
	require.NoError(t, err)

	box, err := scene.NewModel("Box", NewCube(), ShaderPhong, WithPosition(mgl64.Vec3{3, 0, 0}))
	require.NoError(t, err)
	_, err = scene.NewModel("Sky", NewCube(), ShaderSkyBox, WithScale(50))
	require.NoError(t, err)
	hidden, err := scene.NewModel("Ghost", NewCube(), ShaderFlat)
	require.NoError(t, err)
	scene.Graph.SetVisible(hidden.Handle(), false, false)

	sun, err := scene.NewLight("Sun", NodeTypeDirectionalLight, WithRotation(QuatFromAxisAngle(WorldRight, -math.Pi/2)))
	require.NoError(t, err)

	vp := NewViewport(640, 480)
	frame, err := scene.Frame(vp)
	require.NoError(t, err)

	require.Len(t, frame.Items, 2, "hidden models aren't drawn")
	assert.Equal(t, vp, frame.Viewport)
	assertVec(t, mgl64.Vec3{0, 0, 10}, frame.CameraPosition)
	assertMat(t, cam.ViewMatrix(), frame.View)

	boxItem := frame.Items[0]
	assert.Same(t, box, boxItem.Model)
	assertMat(t, vp.Projection().Mul4(cam.ViewMatrix()).Mul4(box.Transform()), boxItem.PVM)

	// The skybox stays centered on the eye.
	sky := frame.Items[1]
	assertMat(t, vp.Projection().Mul4(ScaleVec(mgl64.Vec3{50, 50, 50})), sky.PVM)

	require.Len(t, frame.Lights, 1)
	assert.Same(t, sun, frame.Lights[0].Light)
	assertVec(t, mgl64.Vec3{0, -1, 0}, frame.Lights[0].Direction)

}

func TestViewWithoutTranslation(t *testing.T) {
	view := RigidInverse(mgl64.Vec3{1, 2, 3}, QuatFromEuler(mgl64.Vec3{20, 10, 0}))
	stripped := ViewWithoutTranslation(view)
	assert.Equal(t, mgl64.Vec3{}, TranslationOf(stripped))
	assert.Equal(t, view.Mat3(), stripped.Mat3())
}

func TestShadowFrame(t *testing.T) {

	scene := NewScene("Park")

	_, err := scene.NewModel("Temple", NewCube(), ShaderShadowMapping)
	require.NoError(t, err)
	_, err = scene.NewModel("Sky", NewCube(), ShaderSkyBox)
	require.NoError(t, err)

	sun, err := scene.NewLight("Sun", NodeTypeDirectionalLight, WithPosition(mgl64.Vec3{0, 1, 0}), WithRotation(QuatFromAxisAngle(WorldRight, -math.Pi/2)))
	require.NoError(t, err)
	sun.ShadowDistance = 20

	frame := scene.ShadowFrame(sun, 15, 0.1, 100)

	require.Len(t, frame.Items, 1, "skyboxes don't cast shadows")
	assertMat(t, mgl64.Ortho(-15, 15, -15, 15, 0.1, 100), frame.Projection)

	// The sun looks straight down from 20 units above its entity.
	eye := frame.View.Mul4x1(mgl64.Vec4{0, 21, 0, 1}).Vec3()
	assertVec(t, mgl64.Vec3{0, 0, 0}, eye)
	ground := frame.View.Mul4x1(mgl64.Vec4{0, 0, 0, 1}).Vec3()
	assertVec(t, mgl64.Vec3{0, 0, -21}, ground)

	lamp, err := scene.NewLight("Lamp", NodeTypePointLight, WithPosition(mgl64.Vec3{2, 2, 2}))
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{}, lamp.ShadowView().Mul4x1(mgl64.Vec4{2, 2, 2, 1}).Vec3(), "point lights look out from where they are")

}

func TestEnvironmentFrames(t *testing.T) {

	scene := NewScene("Park")

	_, err := scene.EnvironmentFrames(0.1, 100)
	assert.ErrorIs(t, err, ErrUnknownEntity)

	ball, err := scene.NewModel("Ball", NewCube(), ShaderEnvironment, WithPosition(mgl64.Vec3{0, 1, 0}))
	require.NoError(t, err)
	_, err = scene.NewModel("Ground", NewPlane(), ShaderPhong)
	require.NoError(t, err)
	scene.EnvironmentProbe = ball.Handle()

	frames, err := scene.EnvironmentFrames(0.1, 100)
	require.NoError(t, err)

	for face, frame := range frames {
		require.NotNil(t, frame)
		assert.Len(t, frame.Items, 1, "face %d: reflective models aren't reflected", face)
		assertMat(t, EnvironmentProjection(0.1, 100), frame.Projection)
	}

	// Each face looks down its axis from the probe.
	directions := [6]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	for face, dir := range directions {
		p := frames[face].View.Mul4x1(mgl64.Vec3{0, 1, 0}.Add(dir).Vec4(1)).Vec3()
		assertVec(t, mgl64.Vec3{0, 0, -1}, p, "face %d", face)
	}

}
