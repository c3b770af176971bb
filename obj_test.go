package guraffic

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadOBJ = `# a unit quad and a triangle
mtllib quad.mtl
o Quad
v 0 0 0
v 1 0 0
v 1 0 -1
v 0 0 -1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 1 0
usemtl Grass
f 1/1/1 2/2/1 3/3/1 4/4/1
o Tri
v 0 1 0
v 1 1 0
v 0 2 0
f -3 -2 -1
`

const quadMTL = `newmtl Grass
Ka 0.1 0.1 0.1
Kd 0.2 0.8 0.2
Ks 0 0 0
Ns 40
Tr 0.25
illum 1
map_Kd -s 1 1 1 textures/grass.png
`

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{0, 255, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoadOBJ(t *testing.T) {

	fsys := fstest.MapFS{
		"models/quad.obj":                {Data: []byte(quadOBJ)},
		"models/quad.mtl":                {Data: []byte(quadMTL)},
		"models/textures/grass.png":      {Data: pngBytes(t)},
		"models/textures/unrelated.jpeg": {Data: []byte("not used")},
	}

	lib, err := LoadOBJ(fsys, "models/quad.obj")
	require.NoError(t, err)

	require.Len(t, lib.Meshes, 2)
	require.Len(t, lib.Nodes, 2)

	quad := lib.FindMesh("Quad")
	require.NotNil(t, quad)
	assert.Equal(t, 4, quad.VertexCount(), "shared corners are only stored once")
	assert.Equal(t, [][3]uint32{{0, 1, 2}, {0, 2, 3}}, quad.Faces)
	assert.Equal(t, mgl32.Vec2{1, 1}, quad.TexCoords[2])
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, quad.Normals[3])
	assert.Len(t, quad.Tangents, 4)

	grass := quad.Material
	assert.Equal(t, "Grass", grass.Name)
	assert.Same(t, grass, lib.Materials.Get("Grass"))
	assert.Equal(t, NewColor(0.2, 0.8, 0.2, 1), grass.Diffuse)
	assert.Equal(t, 40.0, grass.Shininess)
	assert.InDelta(t, 0.75, grass.Alpha, 1e-6)
	assert.Equal(t, 1, grass.Illum)
	assert.Equal(t, "textures/grass.png", grass.TextureName)
	require.NotNil(t, grass.Texture)
	w, h := grass.Texture.Size()
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)

	tri := lib.FindMesh("Tri")
	require.NotNil(t, tri)
	assert.Equal(t, 1, tri.TriangleCount())
	assert.Nil(t, tri.TexCoords)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, tri.Normals[0], "missing normals are calculated")
	assert.Equal(t, 1.0, tri.Dimensions.Height())
	assert.Same(t, grass, tri.Material, "materials carry over into new objects")

	assert.Equal(t, 3, lib.TriangleCount())

}

func TestOBJMeshNaming(t *testing.T) {

	src := `v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
usemtl Missing
f 1 2 3
g
f 3 2 1
`

	lib, err := DecodeOBJ(strings.NewReader(src), "dir/thing.obj", nil)
	require.NoError(t, err)

	names := []string{}
	for _, m := range lib.Meshes {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"thing", "thing.2", "thing.3"}, names)
	assert.Equal(t, "default", lib.Meshes[1].Material.Name, "unknown materials fall back to a default")

}

func TestOBJErrors(t *testing.T) {

	cases := map[string]string{
		"zero index":     "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n",
		"out of range":   "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n",
		"bad number":     "v 0 zero 0\n",
		"short vertex":   "v 0 0\n",
		"short face":     "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"missing uv":     "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1 2/1 3/1\n",
		"bare usemtl":    "usemtl\n",
		"bad normal ref": "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf 1//1 2//2 3//1\n",
	}

	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeOBJ(strings.NewReader(src), "broken.obj", nil)
			assert.ErrorIs(t, err, ErrMalformedFile)
			assert.Contains(t, err.Error(), "broken.obj:")
		})
	}

}

func TestOBJToleratesMissingFiles(t *testing.T) {

	fsys := fstest.MapFS{
		"a.obj": {Data: []byte("mtllib gone.mtl\nmtllib b.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl Rock\nf 1 2 3\n")},
		"b.mtl": {Data: []byte("newmtl Rock\nmap_Kd rock.png\nfoo bar\n")},
	}

	lib, err := LoadOBJ(fsys, "a.obj")
	require.NoError(t, err)

	rock := lib.Meshes[0].Material
	assert.Equal(t, "Rock", rock.Name)
	assert.Equal(t, "rock.png", rock.TextureName)
	assert.Nil(t, rock.Texture)

	_, err = LoadOBJ(fsys, "nope.obj")
	assert.Error(t, err)

	_, err = DecodeOBJ(strings.NewReader("Kd 1 1 1\n"), "x.obj", nil)
	assert.NoError(t, err, "mtl keywords in an obj file are skipped")

	bad := fstest.MapFS{
		"c.obj": {Data: []byte("mtllib c.mtl\n")},
		"c.mtl": {Data: []byte("Kd 1 1 1\n")},
	}
	_, err = LoadOBJ(bad, "c.obj")
	assert.ErrorIs(t, err, ErrMalformedFile, "mtl statements need a newmtl first")

}

func BenchmarkDecodeOBJ(b *testing.B) {

	var src strings.Builder
	for i := 0; i < 1000; i++ {
		src.WriteString("v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nvn 0 0 1\nf -4//1 -3//1 -2//1 -1//1\n")
	}
	data := src.String()

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := DecodeOBJ(strings.NewReader(data), "bench.obj", nil); err != nil {
			b.Fatal(err)
		}
	}

}
