package guraffic

// Material holds the surface properties of a Mesh, as read from .mtl files (or glTF materials).
type Material struct {
	ID   AssetID
	Name string

	Ambient   Color   // Ka. Defaults to white.
	Diffuse   Color   // Kd. Defaults to white.
	Specular  Color   // Ks. Defaults to white.
	Shininess float64 // Ns, the specular exponent. Defaults to 10.
	Alpha     float64 // d (or 1 - Tr). Defaults to 1.
	Illum     int     // The illumination model number. Defaults to 2.

	TextureName string   // map_Kd, relative to the file the material was loaded from
	Texture     *Texture // The decoded diffuse texture, if TextureName was set and could be loaded
}

// NewMaterial creates a new Material with the name given.
func NewMaterial(name string) *Material {
	return &Material{
		ID:        newAssetID(),
		Name:      name,
		Ambient:   White(),
		Diffuse:   White(),
		Specular:  White(),
		Shininess: 10,
		Alpha:     1,
		Illum:     2,
	}
}

// Clone creates a clone of the specified Material with a new ID. The texture is shared.
func (material *Material) Clone() *Material {
	newMat := *material
	newMat.ID = newAssetID()
	return &newMat
}

// MaterialLibrary is an ordered set of materials, addressable by name.
type MaterialLibrary struct {
	Materials []*Material
	byName    map[string]*Material
}

// NewMaterialLibrary returns an empty MaterialLibrary.
func NewMaterialLibrary() *MaterialLibrary {
	return &MaterialLibrary{byName: map[string]*Material{}}
}

// Add adds a material to the library, replacing any existing material with the same name.
func (ml *MaterialLibrary) Add(material *Material) {
	if existing, ok := ml.byName[material.Name]; ok {
		for i, m := range ml.Materials {
			if m == existing {
				ml.Materials[i] = material
			}
		}
	} else {
		ml.Materials = append(ml.Materials, material)
	}
	ml.byName[material.Name] = material
}

// Get returns the material with the provided name, or nil if there isn't one.
func (ml *MaterialLibrary) Get(name string) *Material {
	return ml.byName[name]
}
