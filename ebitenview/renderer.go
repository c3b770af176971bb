package ebitenview

import (
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	guraffic "github.com/jonathanharg/guraffic-park"
)

var whiteImage = ebiten.NewImage(3, 3)

// whiteSubImage is an inner part of whiteImage, so sampling never bleeds past the image's edge.
var whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)

func init() {
	whiteImage.Fill(color.White)
}

// triangle is a projected triangle waiting to be drawn back to front.
type triangle struct {
	verts [3]ebiten.Vertex
	depth float64
	image *ebiten.Image
}

// Renderer is a software guraffic.Backend drawing frames onto an ebiten image. Triangles are shaded flat (one color
// per triangle, lit by the frame's first light) and sorted back to front, as there's no depth buffer. In Wireframe
// mode, triangle edges are stroked instead.
type Renderer struct {
	Target     *ebiten.Image
	Wireframe  bool
	Background color.Color

	// Triangles counts the triangles drawn by the last Render call.
	Triangles int

	tris     []triangle
	textures map[guraffic.AssetID]*ebiten.Image
	vertices []ebiten.Vertex
	indices  []uint16
}

// NewRenderer creates a new Renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		Background: color.RGBA{20, 25, 35, 255},
		textures:   map[guraffic.AssetID]*ebiten.Image{},
	}
}

// Render implements guraffic.Backend. The frame is drawn onto Target, which must be set.
func (r *Renderer) Render(frame *guraffic.Frame) error {

	if r.Target == nil {
		return nil
	}

	r.Target.Fill(r.Background)
	r.tris = r.tris[:0]

	bounds := r.Target.Bounds()
	width, height := float64(bounds.Dx()), float64(bounds.Dy())

	var light *guraffic.FrameLight
	if len(frame.Lights) > 0 {
		light = &frame.Lights[0]
	}

	for i := range frame.Items {
		r.project(&frame.Items[i], light, width, height)
	}

	slices.SortFunc(r.tris, func(a, b triangle) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		}
		return 0
	})

	r.Triangles = len(r.tris)

	if r.Wireframe {
		r.strokeTriangles()
	} else {
		r.fillTriangles()
	}

	return nil

}

func (r *Renderer) project(item *guraffic.DrawItem, light *guraffic.FrameLight, width, height float64) {

	mesh := item.Mesh
	skybox := item.Shader == guraffic.ShaderSkyBox

	var src *ebiten.Image
	var srcW, srcH float32
	if item.Shader.Textured() && mesh.Material != nil && mesh.Material.Texture != nil && len(mesh.TexCoords) == len(mesh.Positions) {
		src = r.texture(mesh.Material.Texture)
		b := src.Bounds()
		srcW, srcH = float32(b.Dx()), float32(b.Dy())
	}

	base := guraffic.White()
	if mesh.Material != nil {
		base = mesh.Material.Diffuse
		base.A = float32(mesh.Material.Alpha)
	}

	for f, face := range mesh.Faces {

		var clip [3]mgl64.Vec4
		behind := false

		for i, index := range face {
			p := mesh.Positions[index]
			clip[i] = item.PVM.Mul4x1(mgl64.Vec4{float64(p[0]), float64(p[1]), float64(p[2]), 1})
			if clip[i][3] <= 1e-3 {
				behind = true
			}
		}

		// Triangles crossing the near plane are dropped rather than clipped.
		if behind {
			continue
		}

		var ndc [3]mgl64.Vec2
		depth := 0.0
		for i, c := range clip {
			ndc[i] = mgl64.Vec2{c[0] / c[3], c[1] / c[3]}
			depth += c[3]
		}

		if ndcOutside(ndc) {
			continue
		}

		// Counter-clockwise triangles face the camera.
		area := ndc[1].Sub(ndc[0])[0]*ndc[2].Sub(ndc[0])[1] - ndc[1].Sub(ndc[0])[1]*ndc[2].Sub(ndc[0])[0]
		if area <= 0 && !skybox {
			continue
		}

		shade := float32(1)
		if item.Shader.Lit() && light != nil {
			shade = lambert(item, light, mesh.TriangleNormal(f), mesh.Positions[face[0]])
		}

		c := guraffic.NewColor(base.R*shade, base.G*shade, base.B*shade, base.A).Clamped()

		tri := triangle{depth: depth / 3, image: src}
		if skybox {
			tri.depth = math.Inf(1)
		}

		for i, index := range face {
			v := &tri.verts[i]
			v.DstX = float32((ndc[i][0]*0.5 + 0.5) * width)
			v.DstY = float32((0.5 - ndc[i][1]*0.5) * height)
			v.ColorR, v.ColorG, v.ColorB, v.ColorA = c.R, c.G, c.B, c.A
			if src != nil {
				uv := mesh.TexCoords[index]
				v.SrcX = uv[0] * srcW
				v.SrcY = (1 - uv[1]) * srcH
			} else {
				v.SrcX, v.SrcY = 1, 1
			}
		}

		r.tris = append(r.tris, tri)

	}

}

func ndcOutside(ndc [3]mgl64.Vec2) bool {
	for axis := 0; axis < 2; axis++ {
		if ndc[0][axis] < -1 && ndc[1][axis] < -1 && ndc[2][axis] < -1 {
			return true
		}
		if ndc[0][axis] > 1 && ndc[1][axis] > 1 && ndc[2][axis] > 1 {
			return true
		}
	}
	return false
}

// lambert returns the brightness of a triangle facing normal (in model space) under the light.
func lambert(item *guraffic.DrawItem, light *guraffic.FrameLight, normal, corner mgl32.Vec3) float32 {

	n := item.Normal.Mul3x1(mgl64.Vec3{float64(normal[0]), float64(normal[1]), float64(normal[2])})
	if n.Len() == 0 {
		return 1
	}
	n = n.Normalize()

	var toLight mgl64.Vec3
	if light.Light.Type().Is(guraffic.NodeTypePointLight) {
		p := item.World.Mul4x1(mgl64.Vec4{float64(corner[0]), float64(corner[1]), float64(corner[2]), 1}).Vec3()
		toLight = light.Position.Sub(p)
	} else {
		toLight = light.Direction.Mul(-1)
	}
	if toLight.Len() == 0 {
		return 1
	}

	ambient, _, _, _ := light.Light.Ambient.RGBA64()
	diffuse, _, _, _ := light.Light.Diffuse.RGBA64()

	return float32(ambient + diffuse*math.Max(0, n.Dot(toLight.Normalize())))

}

func (r *Renderer) texture(tex *guraffic.Texture) *ebiten.Image {
	if img, ok := r.textures[tex.ID]; ok {
		return img
	}
	img := ebiten.NewImageFromImage(tex.Image)
	r.textures[tex.ID] = img
	return img
}

func (r *Renderer) fillTriangles() {

	var current *ebiten.Image

	flush := func() {
		if len(r.vertices) == 0 {
			return
		}
		src := current
		if src == nil {
			src = whiteSubImage
		}
		r.Target.DrawTriangles(r.vertices, r.indices, src, nil)
		r.vertices = r.vertices[:0]
		r.indices = r.indices[:0]
	}

	for _, tri := range r.tris {

		if tri.image != current || len(r.vertices)+3 > math.MaxUint16 {
			flush()
			current = tri.image
		}

		base := uint16(len(r.vertices))
		r.vertices = append(r.vertices, tri.verts[:]...)
		r.indices = append(r.indices, base, base+1, base+2)

	}

	flush()

}

func (r *Renderer) strokeTriangles() {
	for _, tri := range r.tris {
		v := tri.verts
		c := color.NRGBA{uint8(v[0].ColorR * 255), uint8(v[0].ColorG * 255), uint8(v[0].ColorB * 255), 255}
		for i := 0; i < 3; i++ {
			a, b := v[i], v[(i+1)%3]
			vector.StrokeLine(r.Target, a.DstX, a.DstY, b.DstX, b.DstY, 1, c, true)
		}
	}
}
