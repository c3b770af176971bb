package guraffic

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// AssetID uniquely identifies a loaded asset (a mesh, material, texture, or library).
type AssetID string

func newAssetID() AssetID {
	return AssetID(uuid.NewString())
}

// NodeTemplate describes an entity to be created when a Library is instantiated into a scene: its local
// transform, the mesh drawn at it (nil for empty transforms), and its children.
type NodeTemplate struct {
	Name     string
	Position mgl64.Vec3
	Scale    mgl64.Vec3
	Rotation mgl64.Quat
	Mesh     *Mesh
	Children []*NodeTemplate
}

// Library represents a collection of Meshes, Materials and the node hierarchy that places them, as loaded from a
// file (.obj or .gltf / .glb).
type Library struct {
	ID         AssetID
	Name       string
	Meshes     []*Mesh
	Materials  *MaterialLibrary
	Nodes      []*NodeTemplate // Top-level nodes
	Animations []*Animation    // Track targets are paths from the entity the library is instantiated as
}

// NewLibrary creates a new, empty Library.
func NewLibrary(name string) *Library {
	return &Library{
		ID:        newAssetID(),
		Name:      name,
		Meshes:    []*Mesh{},
		Materials: NewMaterialLibrary(),
	}
}

// FindMesh returns the mesh with the provided name, or nil if the library doesn't have one.
func (lib *Library) FindMesh(name string) *Mesh {
	for _, m := range lib.Meshes {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// FindAnimation returns the animation with the provided name, or nil if the library doesn't have one.
func (lib *Library) FindAnimation(name string) *Animation {
	for _, a := range lib.Animations {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// TriangleCount returns the total number of triangles across the library's meshes.
func (lib *Library) TriangleCount() int {
	count := 0
	for _, m := range lib.Meshes {
		count += m.TriangleCount()
	}
	return count
}

// flatNodes gives every mesh its own identity node; used by loaders for formats without a hierarchy.
func (lib *Library) flatNodes() {
	lib.Nodes = lib.Nodes[:0]
	for _, m := range lib.Meshes {
		lib.Nodes = append(lib.Nodes, &NodeTemplate{
			Name:     m.Name,
			Scale:    mgl64.Vec3{1, 1, 1},
			Rotation: mgl64.QuatIdent(),
			Mesh:     m,
		})
	}
}
