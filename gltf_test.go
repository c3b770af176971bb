package guraffic

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dinoGLTF returns a small .gltf document with an embedded buffer: a triangle mesh on a child node, a node placed
// by matrix, a node outside the default scene, and a stepped translation animation.
func dinoGLTF(t testing.TB) []byte {

	t.Helper()

	var buf bytes.Buffer
	write := func(data any) {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, data))
	}

	write([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0}) // positions, 36 bytes
	write([]uint16{0, 1, 2, 0})                 // indices plus padding, 8 bytes
	write([]float32{0, 1})                      // keyframe times, 8 bytes
	write([]float32{0, 0, 0, 0, 2, 0})          // keyframe translations, 24 bytes

	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	return []byte(fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [
    {"name": "Dino", "children": [1, 3], "translation": [0, 0, -5]},
    {"name": "Head", "mesh": 0, "translation": [0, 1, 0], "scale": [2, 2, 2]},
    {"name": "Orphan", "mesh": 0},
    {"name": "Tail", "matrix": [2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 2, 0, 1, 2, 3, 1]}
  ],
  "materials": [{"name": "Scales", "pbrMetallicRoughness": {"baseColorFactor": [1, 0.5, 0, 0.5]}}],
  "meshes": [{"name": "Tri", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}],
  "animations": [{
    "name": "nod",
    "channels": [{"sampler": 0, "target": {"node": 1, "path": "translation"}}],
    "samplers": [{"input": 2, "output": 3, "interpolation": "STEP"}]
  }],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"},
    {"bufferView": 2, "componentType": 5126, "count": 2, "type": "SCALAR", "min": [0], "max": [1]},
    {"bufferView": 3, "componentType": 5126, "count": 2, "type": "VEC3"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36, "target": 34962},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6, "target": 34963},
    {"buffer": 0, "byteOffset": 44, "byteLength": 8},
    {"buffer": 0, "byteOffset": 52, "byteLength": 24}
  ],
  "buffers": [{"byteLength": %d, "uri": %q}]
}`, buf.Len(), uri))

}

func TestLoadGLTF(t *testing.T) {

	fsys := fstest.MapFS{"models/dino.gltf": {Data: dinoGLTF(t)}}

	lib, err := LoadGLTF(fsys, "models/dino.gltf")
	require.NoError(t, err)

	require.Len(t, lib.Meshes, 1)
	tri := lib.Meshes[0]
	assert.Equal(t, "Tri", tri.Name)
	assert.Equal(t, [][3]uint32{{0, 1, 2}}, tri.Faces)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, tri.Normals[0], "missing normals are calculated")

	scales := tri.Material
	assert.Equal(t, "Scales", scales.Name)
	assert.Equal(t, NewColor(1, 0.5, 0, 1), scales.Diffuse)
	assert.Equal(t, 0.5, scales.Alpha)

	require.Len(t, lib.Nodes, 1, "only the default scene's nodes are roots")
	dino := lib.Nodes[0]
	assert.Equal(t, "Dino", dino.Name)
	require.Len(t, dino.Children, 2)

	head := dino.Children[0]
	assert.Same(t, tri, head.Mesh)
	assert.Equal(t, mgl64.Vec3{2, 2, 2}, head.Scale)

	tail := dino.Children[1]
	assertVec(t, mgl64.Vec3{1, 2, 3}, tail.Position)
	assertVec(t, mgl64.Vec3{2, 2, 2}, tail.Scale)
	assert.True(t, QuatsEquivalent(mgl64.QuatIdent(), tail.Rotation, 1e-9))

	nod := lib.FindAnimation("nod")
	require.NotNil(t, nod)
	require.Len(t, nod.Tracks, 1)
	track := nod.Tracks[0]
	assert.Equal(t, "Dino/Head", track.Target)
	assert.Equal(t, TrackPosition, track.Property)
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, track.VectorAt(0.9), "stepped keyframes hold until the next one")
	assert.Equal(t, mgl64.Vec3{0, 2, 0}, track.VectorAt(1))

}

func TestGLTFInstantiateAndAnimate(t *testing.T) {

	lib, err := DecodeGLTF(bytes.NewReader(dinoGLTF(t)), "dino.gltf", nil)
	require.NoError(t, err)

	scene := NewScene("Park")
	root, models, err := scene.Instantiate(lib, "Rex", ShaderPhong)
	require.NoError(t, err)
	require.Len(t, models, 1)

	head := scene.Graph.Get(root, "Dino/Head")
	require.False(t, head.IsNil())
	assertVec(t, mgl64.Vec3{0, 1, -5}, scene.Graph.WorldPosition(head))

	player := NewAnimationPlayer(scene.Graph, root)
	require.NoError(t, player.Play(lib.FindAnimation("nod")))
	scene.AddBehavior(player)

	require.NoError(t, scene.Update(Input{}, 1))
	assertVec(t, mgl64.Vec3{0, 2, -5}, scene.Graph.WorldPosition(head))

}

func TestGLTFErrors(t *testing.T) {

	_, err := DecodeGLTF(strings.NewReader("{not json"), "broken.gltf", nil)
	assert.ErrorIs(t, err, ErrMalformedFile)

	_, err = LoadGLTF(fstest.MapFS{}, "missing.glb")
	assert.Error(t, err)

	badSampler := strings.Replace(string(dinoGLTF(t)), `{"sampler": 0, "target"`, `{"sampler": 3, "target"`, 1)
	_, err = DecodeGLTF(strings.NewReader(badSampler), "sampler.gltf", nil)
	assert.ErrorIs(t, err, ErrMalformedFile)

	cyclic := strings.Replace(string(dinoGLTF(t)), `"mesh": 0, "translation"`, `"children": [1], "mesh": 0, "translation"`, 1)
	_, err = DecodeGLTF(strings.NewReader(cyclic), "cyclic.gltf", nil)
	assert.ErrorIs(t, err, ErrMalformedFile)

}

func BenchmarkDecodeGLTF(b *testing.B) {

	data := dinoGLTF(b)

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := DecodeGLTF(bytes.NewReader(data), "dino.gltf", nil); err != nil {
			b.Fatal(err)
		}
	}

}
