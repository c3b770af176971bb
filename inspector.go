package guraffic

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// InspectField is a transform property the Inspector can nudge.
type InspectField int

const (
	InspectPosition InspectField = iota
	InspectRotation
	InspectScale
)

func (f InspectField) String() string {
	switch f {
	case InspectPosition:
		return "position"
	case InspectRotation:
		return "rotation"
	case InspectScale:
		return "scale"
	}
	return fmt.Sprintf("InspectField(%d)", int(f))
}

// Inspector is a debugging aid that selects an entity in a Scene and displays or edits its local transform. Rotation
// is shown and edited as yaw / pitch / roll degrees (see QuatFromEuler). All edits go through the Graph's setters,
// so inspected entities are invalidated like any other.
type Inspector struct {
	Scene *Scene

	Field     InspectField // The field Nudge changes
	MoveStep  float64      // Position change per nudge step. Defaults to 0.1.
	AngleStep float64      // Rotation change per nudge step, in degrees. Defaults to 5.
	ScaleStep float64      // Scale change per nudge step. Defaults to 0.1.

	selected Handle
}

// NewInspector creates an Inspector for the scene, with the first entity (if any) selected.
func NewInspector(scene *Scene) *Inspector {
	ins := &Inspector{
		Scene:     scene,
		MoveStep:  0.1,
		AngleStep: 5,
		ScaleStep: 0.1,
	}
	ins.SelectNext()
	return ins
}

// order returns every entity in the scene, depth-first from each root.
func (ins *Inspector) order() []Handle {
	g := ins.Scene.Graph
	out := []Handle{}
	for _, root := range g.Roots() {
		out = append(out, root)
		out = append(out, g.Descendants(root)...)
	}
	return out
}

// Selected returns the selected entity; it's Nil if the scene is empty or the selection was destroyed.
func (ins *Inspector) Selected() Handle {
	if !ins.Scene.Graph.Valid(ins.selected) {
		ins.selected = Nil
	}
	return ins.selected
}

// Select selects the provided entity.
func (ins *Inspector) Select(h Handle) error {
	if !ins.Scene.Graph.Valid(h) {
		return fmt.Errorf("inspector: %v: %w", h, ErrUnknownEntity)
	}
	ins.selected = h
	return nil
}

// SelectNext selects the entity after the current selection (wrapping around), returning it.
func (ins *Inspector) SelectNext() Handle {
	return ins.step(1)
}

// SelectPrevious selects the entity before the current selection (wrapping around), returning it.
func (ins *Inspector) SelectPrevious() Handle {
	return ins.step(-1)
}

func (ins *Inspector) step(dir int) Handle {

	order := ins.order()
	if len(order) == 0 {
		ins.selected = Nil
		return Nil
	}

	current := -1
	selected := ins.Selected()
	for i, h := range order {
		if h == selected {
			current = i
			break
		}
	}

	if current < 0 {
		if dir > 0 {
			current = len(order) - 1
		} else {
			current = 0
		}
	}

	ins.selected = order[(current+dir+len(order))%len(order)]

	return ins.selected

}

// Transform returns the selected entity's local position, rotation as {yaw, pitch, roll} degrees, and scale. ok is
// false if nothing is selected.
func (ins *Inspector) Transform() (position, euler, scale mgl64.Vec3, ok bool) {
	h := ins.Selected()
	if h.IsNil() {
		return position, euler, scale, false
	}
	g := ins.Scene.Graph
	return g.Position(h), EulerFromQuat(g.Rotation(h)), g.Scale(h), true
}

// SetPosition sets the selected entity's local position.
func (ins *Inspector) SetPosition(position mgl64.Vec3) error {
	h, err := ins.mustSelected()
	if err != nil {
		return err
	}
	return ins.Scene.Graph.SetPosition(h, position)
}

// SetEuler sets the selected entity's local rotation from {yaw, pitch, roll} degrees.
func (ins *Inspector) SetEuler(euler mgl64.Vec3) error {
	h, err := ins.mustSelected()
	if err != nil {
		return err
	}
	if !vecFinite(euler) {
		return fmt.Errorf("inspector: euler angles %v: %w", euler, ErrNonFinite)
	}
	return ins.Scene.Graph.SetRotation(h, QuatFromEuler(euler))
}

// SetScale sets the selected entity's local scale.
func (ins *Inspector) SetScale(scale mgl64.Vec3) error {
	h, err := ins.mustSelected()
	if err != nil {
		return err
	}
	return ins.Scene.Graph.SetScaleVec(h, scale)
}

// Nudge changes one axis (0, 1, or 2) of the inspector's Field on the selected entity by steps increments.
func (ins *Inspector) Nudge(axis int, steps float64) error {

	if axis < 0 || axis > 2 {
		return fmt.Errorf("inspector: axis %d out of range", axis)
	}

	position, euler, scale, ok := ins.Transform()
	if !ok {
		return fmt.Errorf("inspector: nothing selected: %w", ErrUnknownEntity)
	}

	switch ins.Field {
	case InspectPosition:
		position[axis] += steps * ins.MoveStep
		return ins.SetPosition(position)
	case InspectRotation:
		euler[axis] += steps * ins.AngleStep
		return ins.SetEuler(euler)
	default:
		scale[axis] += steps * ins.ScaleStep
		return ins.SetScale(scale)
	}

}

// NextField cycles the field Nudge changes between position, rotation, and scale.
func (ins *Inspector) NextField() InspectField {
	ins.Field = (ins.Field + 1) % 3
	return ins.Field
}

// ToggleVisible flips the selected entity's visibility (and that of its descendants).
func (ins *Inspector) ToggleVisible() error {
	h, err := ins.mustSelected()
	if err != nil {
		return err
	}
	g := ins.Scene.Graph
	g.SetVisible(h, !g.Visible(h), true)
	return nil
}

// NextCamera switches the scene to its next camera, returning it.
func (ins *Inspector) NextCamera() *Camera {
	return ins.Scene.CycleCamera()
}

func (ins *Inspector) mustSelected() (Handle, error) {
	h := ins.Selected()
	if h.IsNil() {
		return Nil, fmt.Errorf("inspector: nothing selected: %w", ErrUnknownEntity)
	}
	return h, nil
}

// Lines returns the inspector's overlay text: scene and camera information, then the selected entity's transform.
func (ins *Inspector) Lines() []string {

	scene := ins.Scene
	g := scene.Graph
	stats := g.Stats()

	lines := []string{
		fmt.Sprintf("Scene: %s (%d entities, %d models)", scene.Name, g.Len(), len(scene.Models)),
		fmt.Sprintf("Matrix recomputes: %d, invalidations: %d", stats.Recomputes, stats.Invalidations),
	}

	if cam := scene.ActiveCamera(); cam != nil {
		lines = append(lines, fmt.Sprintf("Camera: %s at %s", cam.Name(), FormatVec(cam.Position(), 2)))
	} else {
		lines = append(lines, "Camera: none")
	}

	h := ins.Selected()
	if h.IsNil() {
		return append(lines, "Selected: none")
	}

	position, euler, scale, _ := ins.Transform()

	visible := ""
	if !g.VisibleInTree(h) {
		visible = " (hidden)"
	}

	lines = append(lines,
		fmt.Sprintf("Selected: [%s] %s%s", g.Type(h).Prefix(), g.Path(h), visible),
		fmt.Sprintf("Position: %s", FormatVec(position, 2)),
		fmt.Sprintf("Rotation: %s", FormatVec(euler, 1)),
		fmt.Sprintf("Scale: %s", FormatVec(scale, 2)),
		fmt.Sprintf("World position: %s", FormatVec(g.WorldPosition(h), 2)),
		fmt.Sprintf("Editing: %s", ins.Field),
	)

	return lines

}
