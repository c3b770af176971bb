package guraffic

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// LoadOBJ loads a Wavefront .obj file from fsys, along with the .mtl material libraries and diffuse textures it
// references (which are looked up relative to the .obj file). Each object, group, or change of material in the file
// becomes its own Mesh. Missing material libraries and textures are logged and skipped; malformed geometry is an
// error.
func LoadOBJ(fsys fs.FS, name string) (*Library, error) {

	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("obj %s: %w", name, err)
	}
	defer f.Close()

	return DecodeOBJ(f, name, fsys)

}

// DecodeOBJ decodes an .obj file from r. name is used for error messages and as the base path for material
// libraries, which are read from fsys; fsys may be nil, in which case mtllib statements are ignored.
func DecodeOBJ(r io.Reader, name string, fsys fs.FS) (*Library, error) {

	dec := &objDecoder{
		name:     name,
		fsys:     fsys,
		dir:      path.Dir(name),
		lib:      NewLibrary(name),
		warned:   map[string]bool{},
		textures: map[string]*Texture{},
	}

	if err := dec.parse(r, dec.parseObjLine); err != nil {
		return nil, err
	}

	dec.finishMesh()
	dec.lib.flatNodes()

	logger.Debug("loaded obj", "file", name, "meshes", len(dec.lib.Meshes), "triangles", dec.lib.TriangleCount())

	return dec.lib, nil

}

type objCorner struct {
	v, vt, vn int
}

type objMeshBuilder struct {
	mesh  *Mesh
	index map[objCorner]uint32

	hasUV          bool
	missingNormals bool
}

type objDecoder struct {
	name string
	fsys fs.FS
	dir  string
	line int

	positions []mgl32.Vec3
	uvs       []mgl32.Vec2
	normals   []mgl32.Vec3

	lib      *Library
	object   string
	material *Material
	current  *objMeshBuilder
	mtl      *Material
	textures map[string]*Texture
	warned   map[string]bool
}

func (dec *objDecoder) parse(r io.Reader, parseLine func(fields []string) error) error {

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	dec.line = 0

	for scanner.Scan() {

		dec.line++

		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if err := parseLine(fields); err != nil {
			return err
		}

	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %w", dec.name, err)
	}

	return nil

}

func (dec *objDecoder) formatError(format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s: %w", dec.name, dec.line, fmt.Sprintf(format, args...), ErrMalformedFile)
}

func (dec *objDecoder) warnOnce(key string, msg string, args ...any) {
	if dec.warned[key] {
		return
	}
	dec.warned[key] = true
	logger.Warn(msg, append([]any{"file", dec.name, "line", dec.line}, args...)...)
}

func (dec *objDecoder) parseObjLine(fields []string) error {

	switch fields[0] {
	case "v":
		v, err := dec.parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		dec.positions = append(dec.positions, mgl32.Vec3{v[0], v[1], v[2]})
	case "vt":
		v, err := dec.parseFloats(fields[1:], 2)
		if err != nil {
			return err
		}
		dec.uvs = append(dec.uvs, mgl32.Vec2{v[0], v[1]})
	case "vn":
		v, err := dec.parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		dec.normals = append(dec.normals, mgl32.Vec3{v[0], v[1], v[2]})
	case "f":
		return dec.parseFace(fields[1:])
	case "o", "g":
		dec.finishMesh()
		if len(fields) > 1 {
			dec.object = strings.Join(fields[1:], " ")
		}
	case "usemtl":
		if len(fields) != 2 {
			return dec.formatError("usemtl needs a material name")
		}
		dec.finishMesh()
		dec.material = dec.lib.Materials.Get(fields[1])
		if dec.material == nil {
			dec.warnOnce("usemtl "+fields[1], "unknown material; using the default", "material", fields[1])
		}
	case "mtllib":
		if len(fields) < 2 {
			return dec.formatError("mtllib needs a file name")
		}
		for _, lib := range fields[1:] {
			if err := dec.loadMaterialLibrary(lib); err != nil {
				return err
			}
		}
	case "s", "l", "p":
		// Smoothing groups, lines, and points don't affect triangle meshes.
	default:
		dec.warnOnce("keyword "+fields[0], "skipping unsupported obj statement", "keyword", fields[0])
	}

	return nil

}

func (dec *objDecoder) parseFloats(fields []string, count int) ([]float32, error) {

	if len(fields) < count {
		return nil, dec.formatError("expected %d values, got %d", count, len(fields))
	}

	out := make([]float32, count)
	for i := 0; i < count; i++ {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, dec.formatError("%q isn't a number", fields[i])
		}
		out[i] = float32(v)
	}

	return out, nil

}

// resolveIndex turns a 1-based (or negative, relative to the end) .obj index into a 0-based one.
func (dec *objDecoder) resolveIndex(field string, count int, kind string) (int, error) {

	val, err := strconv.Atoi(field)
	if err != nil {
		return 0, dec.formatError("%s index %q isn't a number", kind, field)
	}

	index := val - 1
	if val < 0 {
		index = count + val
	} else if val == 0 {
		return 0, dec.formatError("%s index can't be 0", kind)
	}

	if index < 0 || index >= count {
		return 0, dec.formatError("%s index %d out of range (%d defined)", kind, val, count)
	}

	return index, nil

}

func (dec *objDecoder) parseFace(fields []string) error {

	if len(fields) < 3 {
		return dec.formatError("face needs at least 3 vertices, got %d", len(fields))
	}

	builder := dec.builder()
	corners := make([]uint32, len(fields))

	for i, f := range fields {

		parts := strings.Split(f, "/")
		corner := objCorner{v: -1, vt: -1, vn: -1}

		var err error
		if corner.v, err = dec.resolveIndex(parts[0], len(dec.positions), "vertex"); err != nil {
			return err
		}

		if len(parts) > 1 && parts[1] != "" {
			if corner.vt, err = dec.resolveIndex(parts[1], len(dec.uvs), "texture"); err != nil {
				return err
			}
		}

		if len(parts) > 2 && parts[2] != "" {
			if corner.vn, err = dec.resolveIndex(parts[2], len(dec.normals), "normal"); err != nil {
				return err
			}
		}

		corners[i] = builder.add(dec, corner)

	}

	// Quads and larger polygons are split into a fan of triangles around the first corner.
	for i := 1; i+1 < len(corners); i++ {
		builder.mesh.Faces = append(builder.mesh.Faces, [3]uint32{corners[0], corners[i], corners[i+1]})
	}

	return nil

}

func (dec *objDecoder) builder() *objMeshBuilder {

	if dec.current != nil {
		return dec.current
	}

	name := dec.object
	if name == "" {
		name = strings.TrimSuffix(path.Base(dec.name), path.Ext(dec.name))
	}
	if dec.lib.FindMesh(name) != nil && dec.material != nil {
		name += "_" + dec.material.Name
	}
	for base, n := name, 2; dec.lib.FindMesh(name) != nil; n++ {
		name = base + "." + strconv.Itoa(n)
	}

	material := dec.material
	if material == nil {
		material = NewMaterial("default")
	}

	dec.current = &objMeshBuilder{
		mesh: &Mesh{
			ID:       newAssetID(),
			Name:     name,
			Material: material,
		},
		index: map[objCorner]uint32{},
	}

	// Registered straight away so later builders see the name as taken.
	dec.lib.Meshes = append(dec.lib.Meshes, dec.current.mesh)

	return dec.current

}

func (b *objMeshBuilder) add(dec *objDecoder, corner objCorner) uint32 {

	if index, ok := b.index[corner]; ok {
		return index
	}

	mesh := b.mesh
	index := uint32(len(mesh.Positions))

	mesh.Positions = append(mesh.Positions, dec.positions[corner.v])

	if corner.vt >= 0 {
		b.hasUV = true
		mesh.TexCoords = append(mesh.TexCoords, dec.uvs[corner.vt])
	} else {
		mesh.TexCoords = append(mesh.TexCoords, mgl32.Vec2{})
	}

	if corner.vn >= 0 {
		mesh.Normals = append(mesh.Normals, dec.normals[corner.vn])
	} else {
		b.missingNormals = true
		mesh.Normals = append(mesh.Normals, mgl32.Vec3{})
	}

	b.index[corner] = index

	return index

}

// finishMesh completes the mesh being built (if any), so the next face starts a new one.
func (dec *objDecoder) finishMesh() {

	b := dec.current
	dec.current = nil

	if b == nil {
		return
	}

	mesh := b.mesh

	if len(mesh.Faces) == 0 {
		meshes := dec.lib.Meshes[:0]
		for _, m := range dec.lib.Meshes {
			if m != mesh {
				meshes = append(meshes, m)
			}
		}
		dec.lib.Meshes = meshes
		return
	}

	if !b.hasUV {
		mesh.TexCoords = nil
	}

	if b.missingNormals {
		mesh.CalculateNormals()
	} else if b.hasUV {
		// Tangents and binormals are only derived; the file's normals are kept.
		normals := mesh.Normals
		mesh.CalculateNormals()
		mesh.Normals = normals
	}

	mesh.UpdateBounds()

}

func (dec *objDecoder) loadMaterialLibrary(name string) error {

	if dec.fsys == nil {
		return nil
	}

	file := path.Join(dec.dir, name)

	f, err := dec.fsys.Open(file)
	if err != nil {
		dec.warnOnce("mtllib "+name, "skipping missing material library", "mtllib", file, "error", err)
		return nil
	}
	defer f.Close()

	objLine, objName := dec.line, dec.name
	dec.name = file
	dec.mtl = nil

	err = dec.parse(f, dec.parseMtlLine)

	dec.line, dec.name = objLine, objName
	dec.mtl = nil

	return err

}

func (dec *objDecoder) parseMtlLine(fields []string) error {

	if fields[0] == "newmtl" {
		if len(fields) < 2 {
			return dec.formatError("newmtl needs a material name")
		}
		dec.mtl = NewMaterial(strings.Join(fields[1:], " "))
		dec.lib.Materials.Add(dec.mtl)
		return nil
	}

	if dec.mtl == nil {
		return dec.formatError("%s before newmtl", fields[0])
	}

	mat := dec.mtl

	switch fields[0] {
	case "Ka", "Kd", "Ks":
		v, err := dec.parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		c := NewColor(v[0], v[1], v[2], 1)
		switch fields[0] {
		case "Ka":
			mat.Ambient = c
		case "Kd":
			mat.Diffuse = c
		case "Ks":
			mat.Specular = c
		}
	case "Ns":
		v, err := dec.parseFloats(fields[1:], 1)
		if err != nil {
			return err
		}
		mat.Shininess = float64(v[0])
	case "d":
		v, err := dec.parseFloats(fields[1:], 1)
		if err != nil {
			return err
		}
		mat.Alpha = float64(v[0])
	case "Tr":
		v, err := dec.parseFloats(fields[1:], 1)
		if err != nil {
			return err
		}
		mat.Alpha = 1 - float64(v[0])
	case "illum":
		v, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil || len(fields) != 2 {
			return dec.formatError("illum needs an integer")
		}
		mat.Illum = v
	case "map_Kd":
		if len(fields) < 2 {
			return dec.formatError("map_Kd needs a file name")
		}
		// Options like "-s 1 1 1" come before the file name.
		mat.TextureName = fields[len(fields)-1]
		mat.Texture = dec.loadTexture(mat.TextureName)
	default:
		dec.warnOnce("mtl "+fields[0], "skipping unsupported mtl statement", "keyword", fields[0])
	}

	return nil

}

func (dec *objDecoder) loadTexture(name string) *Texture {

	file := path.Join(path.Dir(dec.name), name)

	if tex, ok := dec.textures[file]; ok {
		return tex
	}

	tex, err := LoadTexture(dec.fsys, file)
	if err != nil {
		dec.warnOnce("texture "+file, "skipping texture", "texture", file, "error", err)
	}

	dec.textures[file] = tex

	return tex

}
