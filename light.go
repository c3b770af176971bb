package guraffic

import "github.com/go-gl/mathgl/mgl64"

// Light is a light source bound to an entity. Directional lights shine along the entity's forwards vector, and point
// lights shine outwards from its world position.
type Light struct {
	graph  *Graph
	handle Handle

	Ambient  Color // Defaults to 0.2 gray.
	Diffuse  Color // Defaults to 0.5 gray.
	Specular Color // Defaults to white.

	// ShadowDistance is how far back along the light direction the shadow camera sits for directional lights.
	// Defaults to 10.
	ShadowDistance float64
}

// Handle returns the light's entity.
func (light *Light) Handle() Handle {
	return light.handle
}

// Name returns the name of the light's entity.
func (light *Light) Name() string {
	return light.graph.Name(light.handle)
}

// Type returns the light's NodeType (NodeTypeDirectionalLight or NodeTypePointLight).
func (light *Light) Type() NodeType {
	return light.graph.Type(light.handle)
}

// Position returns the light's world position.
func (light *Light) Position() mgl64.Vec3 {
	return light.graph.WorldPosition(light.handle)
}

// Direction returns the direction light travels in, in world space.
func (light *Light) Direction() mgl64.Vec3 {
	return light.graph.Forwards(light.handle)
}

// ShadowView returns the view matrix of the light's shadow camera. Point lights look out from their entity; directional
// lights are pulled back ShadowDistance units against their direction so the scene around the entity falls in front
// of them.
func (light *Light) ShadowView() mgl64.Mat4 {
	view := light.graph.rigidView(light.handle)
	if light.Type().Is(NodeTypeDirectionalLight) && light.ShadowDistance > 0 {
		view = Translation(mgl64.Vec3{0, 0, -light.ShadowDistance}).Mul4(view)
	}
	return view
}

// ShadowProjection returns an orthographic projection covering extent units in every direction from the light's
// axis, between near and far.
func (light *Light) ShadowProjection(extent, near, far float64) mgl64.Mat4 {
	return mgl64.Ortho(-extent, extent, -extent, extent, near, far)
}
