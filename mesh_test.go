package guraffic

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCubeFacesOutwards(t *testing.T) {

	cube := NewCube()

	assert.Equal(t, 24, cube.VertexCount())
	assert.Equal(t, 12, cube.TriangleCount())
	assert.Equal(t, "Cube", cube.Material.Name)
	assert.Equal(t, Dimensions{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}, cube.Dimensions)
	assert.Len(t, cube.Tangents, 24)

	for i, face := range cube.Faces {
		// Every triangle's winding agrees with its vertices' normals.
		n := cube.TriangleNormal(i)
		assert.InDelta(t, 1, n.Dot(cube.Normals[face[0]]), 1e-6, "triangle %d faces inwards", i)
	}

}

func TestPlaneFacesUp(t *testing.T) {
	plane := NewPlane()
	assert.Equal(t, 2, plane.TriangleCount())
	for _, n := range plane.Normals {
		assert.Equal(t, mgl32.Vec3{0, 1, 0}, n)
	}
	assert.Equal(t, 2.0, plane.Dimensions.Width())
	assert.Zero(t, plane.Dimensions.Height())
}

func TestNewMeshValidatesIndices(t *testing.T) {

	positions := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}

	mesh, err := NewMesh("Tri", positions, [][3]uint32{{0, 1, 2}})
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{0.5, 0.5, 0}, mesh.Dimensions.Center())

	_, err = NewMesh("Broken", positions, [][3]uint32{{0, 1, 3}})
	assert.ErrorIs(t, err, ErrMalformedFile)

}

func TestCalculateNormalsSkipsDegenerateFaces(t *testing.T) {

	positions := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, -1}, {5, 5, 5}}
	mesh, err := NewMesh("Tri", positions, [][3]uint32{{0, 1, 2}, {3, 3, 3}})
	require.NoError(t, err)

	mesh.CalculateNormals()

	assert.Equal(t, mgl32.Vec3{0, 1, 0}, mesh.Normals[0])
	assert.Equal(t, mgl32.Vec3{}, mesh.Normals[3])
	assert.Nil(t, mesh.Tangents)
	assert.Equal(t, mgl32.Vec3{}, mesh.TriangleNormal(1))

}

func TestDimensions(t *testing.T) {
	dim := Dimensions{Min: mgl64.Vec3{-1, 0, -3}, Max: mgl64.Vec3{1, 4, 3}}
	assert.Equal(t, 2.0, dim.Width())
	assert.Equal(t, 4.0, dim.Height())
	assert.Equal(t, 6.0, dim.Depth())
	assert.Equal(t, 6.0, dim.MaxSpan())
	assert.Equal(t, mgl64.Vec3{0, 2, 0}, dim.Center())
	assert.Len(t, dim.Corners(), 8)
}

func TestShaderText(t *testing.T) {

	for i, name := range ShaderNames() {
		s, err := ParseShader(name)
		require.NoError(t, err)
		assert.Equal(t, Shader(i), s)
	}

	var s Shader
	require.NoError(t, s.UnmarshalText([]byte(" SkyBox ")))
	assert.Equal(t, ShaderSkyBox, s)

	text, err := ShaderShadowMapping.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "shadow", string(text))

	_, err = ParseShader("toon")
	assert.ErrorIs(t, err, ErrUnknownShader)
	_, err = Shader(42).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownShader)

	assert.True(t, ShaderSkyBox.ViewWithoutTranslation())
	assert.False(t, ShaderSkyBox.CastsShadows())
	assert.False(t, ShaderEnvironment.Reflected())
	assert.True(t, ShaderTextured.Lit())

}
