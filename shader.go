package guraffic

import (
	"fmt"
	"strings"
)

// Shader selects how a Model is drawn. It's resolved once, when the model is created (or its scene file is
// parsed), so backends switch on a small closed set instead of looking programs up by name every frame.
type Shader int

const (
	ShaderFlat          Shader = iota // Unlit, drawn with the material's diffuse color
	ShaderPhong                       // Per-pixel Phong lighting from the scene's lights
	ShaderTextured                    // Phong lighting with the material's diffuse texture
	ShaderEnvironment                 // Reflects the scene's environment map
	ShaderShadowMapping               // Phong lighting, shadowed by the scene's shadow map
	ShaderSkyBox                      // Drawn around the camera, ignoring its position
)

var shaderNames = [...]string{
	ShaderFlat:          "flat",
	ShaderPhong:         "phong",
	ShaderTextured:      "textured",
	ShaderEnvironment:   "environment",
	ShaderShadowMapping: "shadow",
	ShaderSkyBox:        "skybox",
}

// ShaderNames returns the textual names of every shader, in declaration order.
func ShaderNames() []string {
	return append([]string(nil), shaderNames[:]...)
}

func (s Shader) String() string {
	if s < 0 || int(s) >= len(shaderNames) {
		return fmt.Sprintf("Shader(%d)", int(s))
	}
	return shaderNames[s]
}

// ParseShader returns the Shader with the provided (case-insensitive) name.
func ParseShader(name string) (Shader, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range shaderNames {
		if n == name {
			return Shader(i), nil
		}
	}
	return ShaderFlat, fmt.Errorf("%q: %w", name, ErrUnknownShader)
}

// MarshalText implements encoding.TextMarshaler.
func (s Shader) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(shaderNames) {
		return nil, fmt.Errorf("%d: %w", int(s), ErrUnknownShader)
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Shader) UnmarshalText(text []byte) error {
	parsed, err := ParseShader(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Lit returns whether the shader uses the scene's lights.
func (s Shader) Lit() bool {
	return s == ShaderPhong || s == ShaderTextured || s == ShaderShadowMapping
}

// Textured returns whether the shader samples the material's diffuse texture.
func (s Shader) Textured() bool {
	return s == ShaderTextured
}

// ViewWithoutTranslation returns whether the shader draws with the camera's translation removed from the view, so
// the geometry stays centered on the eye.
func (s Shader) ViewWithoutTranslation() bool {
	return s == ShaderSkyBox
}

// CastsShadows returns whether models drawn with this shader are drawn into the shadow map.
func (s Shader) CastsShadows() bool {
	return s != ShaderSkyBox
}

// Reflected returns whether models drawn with this shader show up in environment maps. Reflective models don't,
// as they'd have no environment map of their own yet.
func (s Shader) Reflected() bool {
	return s != ShaderEnvironment
}
