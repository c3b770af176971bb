package guraffic

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// LoadGLTF loads a .gltf or .glb file from fsys into a Library. Meshes, materials (base color and base color
// texture), the node hierarchy of the default scene, and translation / rotation / scale animations are read.
// Buffers have to be embedded (as in .glb files, or as data URIs); textures may be embedded or sit next to the file.
func LoadGLTF(fsys fs.FS, name string) (*Library, error) {

	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("gltf %s: %w", name, err)
	}
	defer f.Close()

	return DecodeGLTF(f, name, fsys)

}

// DecodeGLTF decodes a .gltf or .glb file from r. name is used as the library name and as the base path for
// external textures, which are read from fsys; fsys may be nil, in which case external textures are skipped.
func DecodeGLTF(r io.Reader, name string, fsys fs.FS) (*Library, error) {

	doc := gltf.NewDocument()

	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("gltf %s: %v: %w", name, err, ErrMalformedFile)
	}

	loader := &gltfLoader{
		name:   name,
		fsys:   fsys,
		doc:    doc,
		lib:    NewLibrary(name),
		meshes: make([][]*Mesh, len(doc.Meshes)),
	}

	if err := loader.load(); err != nil {
		return nil, fmt.Errorf("gltf %s: %w", name, err)
	}

	logger.Debug("loaded gltf", "file", name, "meshes", len(loader.lib.Meshes), "nodes", len(doc.Nodes), "animations", len(loader.lib.Animations))

	return loader.lib, nil

}

type gltfLoader struct {
	name string
	fsys fs.FS
	doc  *gltf.Document
	lib  *Library

	materials []*Material
	meshes    [][]*Mesh // Per glTF mesh, one Mesh per primitive
	nodes     []*NodeTemplate
	paths     []string // Per glTF node, its path beneath the library's root
}

func (loader *gltfLoader) load() error {

	loader.loadMaterials()

	for i, gm := range loader.doc.Meshes {
		meshes, err := loader.loadMesh(gm)
		if err != nil {
			return fmt.Errorf("mesh %d (%q): %w", i, gm.Name, err)
		}
		loader.meshes[i] = meshes
		loader.lib.Meshes = append(loader.lib.Meshes, meshes...)
	}

	if err := loader.loadNodes(); err != nil {
		return err
	}

	for _, ga := range loader.doc.Animations {
		anim, err := loader.loadAnimation(ga)
		if err != nil {
			return fmt.Errorf("animation %q: %w", ga.Name, err)
		}
		loader.lib.Animations = append(loader.lib.Animations, anim)
	}

	return nil

}

func (loader *gltfLoader) loadMaterials() {

	doc := loader.doc

	for i, gm := range doc.Materials {

		name := gm.Name
		if name == "" {
			name = fmt.Sprintf("material.%d", i)
		}

		mat := NewMaterial(name)
		mat.Ambient = Gray(1)

		if pbr := gm.PBRMetallicRoughness; pbr != nil {

			color := pbr.BaseColorFactorOrDefault()
			mat.Diffuse = NewColor(float32(color[0]), float32(color[1]), float32(color[2]), 1)
			mat.Alpha = color[3]

			if info := pbr.BaseColorTexture; info != nil && int(info.Index) < len(doc.Textures) {
				if source := doc.Textures[info.Index].Source; source != nil {
					mat.Texture = loader.loadImage(int(*source))
					if mat.Texture != nil {
						mat.TextureName = mat.Texture.Name
					}
				}
			}

		}

		loader.materials = append(loader.materials, mat)
		loader.lib.Materials.Add(mat)

	}

}

// loadImage returns the texture for a glTF image, or nil (after logging a warning) if it can't be read.
func (loader *gltfLoader) loadImage(index int) *Texture {

	img := loader.doc.Images[index]

	if img.BufferView != nil {

		data, err := modeler.ReadBufferView(loader.doc, loader.doc.BufferViews[*img.BufferView])
		if err != nil {
			logger.Warn("skipping embedded texture", "file", loader.name, "image", index, "error", err)
			return nil
		}

		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			logger.Warn("skipping embedded texture", "file", loader.name, "image", index, "error", err)
			return nil
		}

		name := img.Name
		if name == "" {
			name = fmt.Sprintf("image.%d", index)
		}

		return &Texture{ID: newAssetID(), Name: name, Image: decoded}

	}

	if img.URI == "" || strings.HasPrefix(img.URI, "data:") || loader.fsys == nil {
		logger.Warn("skipping texture that isn't in a buffer or file", "file", loader.name, "image", index)
		return nil
	}

	tex, err := LoadTexture(loader.fsys, path.Join(path.Dir(loader.name), img.URI))
	if err != nil {
		logger.Warn("skipping texture", "file", loader.name, "image", index, "error", err)
		return nil
	}

	return tex

}

func (loader *gltfLoader) loadMesh(gm *gltf.Mesh) ([]*Mesh, error) {

	doc := loader.doc
	meshes := []*Mesh{}

	for p, prim := range gm.Primitives {

		if prim.Mode != gltf.PrimitiveTriangles {
			logger.Warn("skipping non-triangle primitive", "file", loader.name, "mesh", gm.Name, "primitive", p)
			continue
		}

		posAccessor, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			return nil, fmt.Errorf("primitive %d has no positions: %w", p, ErrMalformedFile)
		}

		positions, err := modeler.ReadPosition(doc, doc.Accessors[posAccessor], nil)
		if err != nil {
			return nil, err
		}

		var faces [][3]uint32

		if prim.Indices != nil {

			indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return nil, err
			}

			faces = make([][3]uint32, 0, len(indices)/3)
			for i := 0; i+2 < len(indices); i += 3 {
				faces = append(faces, [3]uint32{indices[i], indices[i+1], indices[i+2]})
			}

		} else {

			for i := 0; i+2 < len(positions); i += 3 {
				faces = append(faces, [3]uint32{uint32(i), uint32(i + 1), uint32(i + 2)})
			}

		}

		name := gm.Name
		if len(gm.Primitives) > 1 {
			name = fmt.Sprintf("%s.%d", gm.Name, p)
		}

		verts := make([]mgl32.Vec3, len(positions))
		for i, v := range positions {
			verts[i] = mgl32.Vec3(v)
		}

		mesh, err := NewMesh(name, verts, faces)
		if err != nil {
			return nil, err
		}

		if acc, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[acc], nil)
			if err != nil {
				return nil, err
			}
			mesh.TexCoords = make([]mgl32.Vec2, len(uvs))
			for i, uv := range uvs {
				// glTF's V axis runs down the image.
				mesh.TexCoords[i] = mgl32.Vec2{uv[0], 1 - uv[1]}
			}
		}

		if acc, ok := prim.Attributes[gltf.NORMAL]; ok {

			normals, err := modeler.ReadNormal(doc, doc.Accessors[acc], nil)
			if err != nil {
				return nil, err
			}

			if len(mesh.TexCoords) > 0 {
				mesh.CalculateNormals()
			}

			mesh.Normals = make([]mgl32.Vec3, len(normals))
			for i, n := range normals {
				mesh.Normals[i] = mgl32.Vec3(n)
			}

		} else {
			mesh.CalculateNormals()
		}

		if prim.Material != nil && int(*prim.Material) < len(loader.materials) {
			mesh.Material = loader.materials[*prim.Material]
		}

		meshes = append(meshes, mesh)

	}

	return meshes, nil

}

func (loader *gltfLoader) loadNodes() error {

	doc := loader.doc

	loader.nodes = make([]*NodeTemplate, len(doc.Nodes))
	loader.paths = make([]string, len(doc.Nodes))

	for i, node := range doc.Nodes {

		name := node.Name
		if name == "" {
			name = fmt.Sprintf("node.%d", i)
		}

		position := mgl64.Vec3(node.Translation)
		scale := mgl64.Vec3(node.Scale)
		rotation := mgl64.Quat{W: node.Rotation[3], V: mgl64.Vec3{node.Rotation[0], node.Rotation[1], node.Rotation[2]}}

		if m := mgl64.Mat4(node.Matrix); m != mgl64.Ident4() {
			position, scale, rotation = decompose(m)
		}

		template := &NodeTemplate{
			Name:     name,
			Position: position,
			Scale:    scale,
			Rotation: rotation,
		}

		if node.Mesh != nil {
			if int(*node.Mesh) >= len(loader.meshes) {
				return fmt.Errorf("node %q refers to mesh %d: %w", name, *node.Mesh, ErrUnknownMesh)
			}
			for p, mesh := range loader.meshes[*node.Mesh] {
				if p == 0 {
					template.Mesh = mesh
					continue
				}
				template.Children = append(template.Children, &NodeTemplate{
					Name:     mesh.Name,
					Scale:    mgl64.Vec3{1, 1, 1},
					Rotation: mgl64.QuatIdent(),
					Mesh:     mesh,
				})
			}
		}

		loader.nodes[i] = template

	}

	isChild := make([]bool, len(doc.Nodes))

	for i, node := range doc.Nodes {
		for _, child := range node.Children {
			if int(child) >= len(doc.Nodes) || isChild[child] || int(child) == i {
				return fmt.Errorf("node %q has an invalid child %d: %w", loader.nodes[i].Name, child, ErrMalformedFile)
			}
			isChild[child] = true
			loader.nodes[i].Children = append(loader.nodes[i].Children, loader.nodes[child])
		}
	}

	var roots []int

	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		for _, n := range doc.Scenes[*doc.Scene].Nodes {
			roots = append(roots, int(n))
		}
	} else {
		for i := range doc.Nodes {
			if !isChild[i] {
				roots = append(roots, i)
			}
		}
	}

	var setPaths func(index int, prefix string)
	setPaths = func(index int, prefix string) {
		loader.paths[index] = prefix + loader.nodes[index].Name
		for _, child := range doc.Nodes[index].Children {
			setPaths(int(child), loader.paths[index]+"/")
		}
	}

	for _, r := range roots {
		if r >= len(doc.Nodes) {
			return fmt.Errorf("scene refers to node %d: %w", r, ErrMalformedFile)
		}
		setPaths(r, "")
		loader.lib.Nodes = append(loader.lib.Nodes, loader.nodes[r])
	}

	return nil

}

// decompose splits a matrix without shear into position, scale, and rotation.
func decompose(m mgl64.Mat4) (mgl64.Vec3, mgl64.Vec3, mgl64.Quat) {

	position := TranslationOf(m)

	cols := [3]mgl64.Vec3{m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()}
	scale := mgl64.Vec3{cols[0].Len(), cols[1].Len(), cols[2].Len()}

	if m.Mat3().Det() < 0 {
		scale[0] = -scale[0]
	}

	var rot mgl64.Mat3
	for i := range cols {
		if scale[i] != 0 {
			cols[i] = cols[i].Mul(1 / scale[i])
		}
	}
	rot = mgl64.Mat3FromCols(cols[0], cols[1], cols[2])

	return position, scale, QuatFromMatrix(rot.Mat4())

}

func (loader *gltfLoader) loadAnimation(ga *gltf.Animation) (*Animation, error) {

	doc := loader.doc
	anim := NewAnimation(ga.Name)

	for _, channel := range ga.Channels {

		if channel.Target.Node == nil {
			continue
		}

		if channel.Sampler < 0 || channel.Sampler >= len(ga.Samplers) {
			return nil, fmt.Errorf("animation channel sampler %d out of range: %w", channel.Sampler, ErrMalformedFile)
		}

		target := int(*channel.Target.Node)
		if target >= len(loader.paths) || loader.paths[target] == "" {
			// Nodes outside of the default scene can't be instantiated, so neither can their tracks.
			continue
		}

		sampler := ga.Samplers[channel.Sampler]

		input, err := modeler.ReadAccessor(doc, doc.Accessors[sampler.Input], nil)
		if err != nil {
			return nil, err
		}
		output, err := modeler.ReadAccessor(doc, doc.Accessors[sampler.Output], nil)
		if err != nil {
			return nil, err
		}

		times, ok := input.([]float32)
		if !ok {
			return nil, fmt.Errorf("keyframe times aren't floats: %w", ErrMalformedFile)
		}

		var easing = easings["linear"]
		if sampler.Interpolation == gltf.InterpolationStep {
			easing = stepEasing
		}

		switch channel.Target.Path {

		case gltf.TRSTranslation, gltf.TRSScale:

			values, ok := output.([][3]float32)
			if !ok || len(values) < len(times) {
				return nil, fmt.Errorf("%v track has malformed values: %w", channel.Target.Path, ErrMalformedFile)
			}

			property := TrackPosition
			if channel.Target.Path == gltf.TRSScale {
				property = TrackScale
			}

			track := anim.AddTrack(loader.paths[target], property)
			for i, t := range times {
				v := values[i]
				track.AddKeyframe(Keyframe{
					Time:   float64(t),
					Vector: mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])},
					Easing: easing,
				})
			}

		case gltf.TRSRotation:

			values, ok := output.([][4]float32)
			if !ok || len(values) < len(times) {
				return nil, fmt.Errorf("rotation track has malformed values: %w", ErrMalformedFile)
			}

			track := anim.AddTrack(loader.paths[target], TrackRotation)
			for i, t := range times {
				v := values[i]
				track.AddKeyframe(Keyframe{
					Time:     float64(t),
					Rotation: mgl64.Quat{W: float64(v[3]), V: mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}}.Normalize(),
					Easing:   easing,
				})
			}

		default:
			logger.Warn("skipping unsupported animation channel", "file", loader.name, "animation", ga.Name, "path", channel.Target.Path)

		}

	}

	return anim, nil

}

// stepEasing holds the previous keyframe's value until the next keyframe is reached.
func stepEasing(t, b, c, d float32) float32 {
	return b
}
