package guraffic

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// NodeType represents an entity's type. Node types are categorized, and can be said to extend or "be of" more
// general types. For example, a directional light has a type of NodeTypeDirectionalLight, which is also
// NodeTypeLight, but it isn't NodeTypePointLight.
type NodeType string

const (
	NodeTypeNode   NodeType = "Node"       // NodeTypeNode represents any generic entity
	NodeTypeModel  NodeType = "NodeModel"  // NodeTypeModel represents an entity a Model is attached to
	NodeTypeCamera NodeType = "NodeCamera" // NodeTypeCamera represents an entity a Camera is attached to

	NodeTypeLight            NodeType = "NodeLight"            // NodeTypeLight represents any generic light
	NodeTypeAmbientLight     NodeType = "NodeLightAmbient"     // NodeTypeAmbientLight represents specifically an ambient light
	NodeTypePointLight       NodeType = "NodeLightPoint"       // NodeTypePointLight represents specifically a point light
	NodeTypeDirectionalLight NodeType = "NodeLightDirectional" // NodeTypeDirectionalLight represents specifically a directional (sun) light
)

// Is returns true if a NodeType satisfies another NodeType category. A specific node type can be said to
// contain a more general one, but not vice-versa.
func (nt NodeType) Is(other NodeType) bool {
	if nt == other {
		return true
	}
	return strings.Contains(string(nt), string(other))
}

// Prefix returns the short label used when printing hierarchies ("MODEL", "CAM", and so on).
func (nt NodeType) Prefix() string {
	switch {
	case nt.Is(NodeTypeModel):
		return "MODEL"
	case nt.Is(NodeTypeCamera):
		return "CAM"
	case nt.Is(NodeTypeAmbientLight):
		return "AMB"
	case nt.Is(NodeTypeDirectionalLight):
		return "DIR"
	case nt.Is(NodeTypePointLight):
		return "POINT"
	case nt.Is(NodeTypeLight):
		return "LIGHT"
	}
	return "NODE"
}

// Handle addresses an entity within a Graph. Handles are small values that can be freely copied; when the entity
// they point to is destroyed, the handle goes stale, and using it afterwards panics. The zero Handle is Nil.
type Handle struct {
	index      uint32
	generation uint32
}

// Nil is the zero Handle. It never refers to an entity, and is used as the "no parent" value.
var Nil Handle

// IsNil returns whether the handle is Nil.
func (h Handle) IsNil() bool {
	return h.generation == 0
}

func (h Handle) String() string {
	if h.IsNil() {
		return "Handle(nil)"
	}
	return "Handle(" + strconv.FormatUint(uint64(h.index), 10) + "v" + strconv.FormatUint(uint64(h.generation), 10) + ")"
}

// ScalePolicy determines what happens when an entity is given a zero (or nearly zero) scale component.
type ScalePolicy int

const (
	// ScaleReject makes scale setters return ErrDegenerateScale for components smaller in magnitude than MinScale.
	ScaleReject ScalePolicy = iota
	// ScaleClamp snaps components smaller in magnitude than MinScale to +/- MinScale, keeping their sign.
	ScaleClamp
)

// DefaultMinScale is the default Graph.MinScale.
const DefaultMinScale = 1e-6

const degenerateEpsilon = 1e-9

type cacheFlags uint8

const (
	cacheTranslation cacheFlags = 1 << iota
	cacheRotation
	cachePose
	cacheView

	cacheAll = cacheTranslation | cacheRotation | cachePose | cacheView
)

type entity struct {
	generation uint32
	alive      bool

	name     string
	nodeType NodeType
	visible  bool
	data     any

	position mgl64.Vec3
	scale    mgl64.Vec3
	rotation mgl64.Quat

	parent   Handle
	children []Handle

	// Derived state; each field is only meaningful while its bit is set in valid.
	valid            cacheFlags
	worldOffset      mgl64.Vec3
	worldQuat        mgl64.Quat
	worldTranslation mgl64.Mat4
	worldRotation    mgl64.Mat4
	worldPose        mgl64.Mat4
	view             mgl64.Mat4
}

// GraphStats reports counters kept by a Graph.
type GraphStats struct {
	Live          int // Number of live entities
	Recomputes    int // Number of cached matrices rebuilt since the last ResetStats
	Invalidations int // Number of entities whose caches were cleared since the last ResetStats
}

// Graph is the arena (and registry) of every live entity in a scene. Entities are arranged in a forest by
// parenting; each one stores a local position, scale, and rotation relative to its parent, and caches the world
// matrices derived from them.
//
// Caches are invalidated precisely: every setter clears the caches of the entity it changes and of all of its
// descendants, and every getter rebuilds what it needs lazily. There is no per-frame sweep, so any code that changes
// a transform has to go through the Graph's setters (and it can't do otherwise, as the fields are unexported).
//
// A Graph isn't safe for concurrent use; it belongs to the goroutine that runs the frame loop.
type Graph struct {
	// ScalePolicy determines how zero scales are handled. Defaults to ScaleReject.
	ScalePolicy ScalePolicy
	// MinScale is the smallest scale magnitude considered non-degenerate. Defaults to DefaultMinScale.
	MinScale float64

	entities []entity
	free     []uint32
	live     int
	stats    GraphStats

	stack []Handle
}

// NewGraph returns a new, empty Graph.
func NewGraph() *Graph {
	return &Graph{
		ScalePolicy: ScaleReject,
		MinScale:    DefaultMinScale,
	}
}

// EntityOption customizes an entity created with Graph.NewEntity.
type EntityOption func(cfg *entityConfig)

type entityConfig struct {
	position mgl64.Vec3
	scale    mgl64.Vec3
	rotation mgl64.Quat
	parent   Handle
	nodeType NodeType
}

// WithPosition sets the new entity's local position.
func WithPosition(position mgl64.Vec3) EntityOption {
	return func(cfg *entityConfig) { cfg.position = position }
}

// WithScale sets the new entity's local scale uniformly. A scale of 0 is validated like any other (it isn't
// treated as "use the default").
func WithScale(scale float64) EntityOption {
	return func(cfg *entityConfig) { cfg.scale = mgl64.Vec3{scale, scale, scale} }
}

// WithScaleVec sets the new entity's local scale per-axis.
func WithScaleVec(scale mgl64.Vec3) EntityOption {
	return func(cfg *entityConfig) { cfg.scale = scale }
}

// WithRotation sets the new entity's local rotation.
func WithRotation(rotation mgl64.Quat) EntityOption {
	return func(cfg *entityConfig) { cfg.rotation = rotation }
}

// WithParent parents the new entity to the provided entity.
func WithParent(parent Handle) EntityOption {
	return func(cfg *entityConfig) { cfg.parent = parent }
}

// WithType sets the new entity's NodeType. Defaults to NodeTypeNode.
func WithType(nodeType NodeType) EntityOption {
	return func(cfg *entityConfig) { cfg.nodeType = nodeType }
}

// NewEntity creates a new entity with the provided name. Without options, it sits at the origin (of its parent, if
// it has one) with unit scale and no rotation. The initial values go through the same validation as the setters;
// if any of them are invalid, no entity is created and the error is returned.
func (g *Graph) NewEntity(name string, options ...EntityOption) (Handle, error) {

	cfg := entityConfig{
		scale:    mgl64.Vec3{1, 1, 1},
		rotation: mgl64.QuatIdent(),
		nodeType: NodeTypeNode,
	}

	for _, opt := range options {
		opt(&cfg)
	}

	if !vecFinite(cfg.position) {
		return Nil, fmt.Errorf("entity %q: position %v: %w", name, cfg.position, ErrNonFinite)
	}

	scale, err := g.checkScale(cfg.scale)
	if err != nil {
		return Nil, fmt.Errorf("entity %q: %w", name, err)
	}

	rotation, err := checkRotation(cfg.rotation)
	if err != nil {
		return Nil, fmt.Errorf("entity %q: %w", name, err)
	}

	if !cfg.parent.IsNil() {
		g.entity(cfg.parent) // Panics for stale parents before anything is allocated
	}

	var index uint32

	if len(g.free) > 0 {
		index = g.free[len(g.free)-1]
		g.free = g.free[:len(g.free)-1]
	} else {
		index = uint32(len(g.entities))
		g.entities = append(g.entities, entity{generation: 1})
	}

	e := &g.entities[index]
	*e = entity{
		generation: e.generation,
		alive:      true,
		name:       name,
		nodeType:   cfg.nodeType,
		visible:    true,
		position:   cfg.position,
		scale:      scale,
		rotation:   rotation,
		children:   e.children[:0],
	}

	handle := Handle{index: index, generation: e.generation}

	if !cfg.parent.IsNil() {
		e.parent = cfg.parent
		parent := g.entity(cfg.parent)
		parent.children = append(parent.children, handle)
	}

	g.live++

	return handle, nil

}

// Valid returns whether the handle refers to a live entity in this Graph.
func (g *Graph) Valid(h Handle) bool {
	if h.IsNil() || int(h.index) >= len(g.entities) {
		return false
	}
	e := &g.entities[h.index]
	return e.alive && e.generation == h.generation
}

// entity returns the entity a handle refers to, panicking if the handle is Nil or stale.
func (g *Graph) entity(h Handle) *entity {
	if !g.Valid(h) {
		panic(fmt.Sprintf("guraffic: use of invalid or stale entity handle %v", h))
	}
	return &g.entities[h.index]
}

// Len returns the number of live entities.
func (g *Graph) Len() int {
	return g.live
}

// Stats returns the Graph's counters.
func (g *Graph) Stats() GraphStats {
	s := g.stats
	s.Live = g.live
	return s
}

// ResetStats zeroes the Recomputes and Invalidations counters.
func (g *Graph) ResetStats() {
	g.stats = GraphStats{}
}

// Name returns the entity's name.
func (g *Graph) Name(h Handle) string {
	return g.entity(h).name
}

// SetName sets the entity's name.
func (g *Graph) SetName(h Handle, name string) {
	g.entity(h).name = name
}

// Type returns the entity's NodeType.
func (g *Graph) Type(h Handle) NodeType {
	return g.entity(h).nodeType
}

// Data returns user data stored on the entity.
func (g *Graph) Data(h Handle) any {
	return g.entity(h).data
}

// SetData stores arbitrary user data on the entity.
func (g *Graph) SetData(h Handle, data any) {
	g.entity(h).data = data
}

// Position returns the entity's local position (relative to its parent, or to the world origin for roots).
func (g *Graph) Position(h Handle) mgl64.Vec3 {
	return g.entity(h).position
}

// SetPosition sets the entity's local position. Non-finite values are rejected with ErrNonFinite.
func (g *Graph) SetPosition(h Handle, position mgl64.Vec3) error {
	e := g.entity(h)
	if !vecFinite(position) {
		return fmt.Errorf("%s: position %v: %w", e.name, position, ErrNonFinite)
	}
	e.position = position
	g.invalidate(h)
	return nil
}

// Scale returns the entity's local scale.
func (g *Graph) Scale(h Handle) mgl64.Vec3 {
	return g.entity(h).scale
}

// SetScale sets the entity's local scale uniformly. Zero scales are handled according to the Graph's ScalePolicy.
func (g *Graph) SetScale(h Handle, scale float64) error {
	return g.SetScaleVec(h, mgl64.Vec3{scale, scale, scale})
}

// SetScaleVec sets the entity's local scale per-axis. Zero scales are handled according to the Graph's ScalePolicy.
func (g *Graph) SetScaleVec(h Handle, scale mgl64.Vec3) error {
	e := g.entity(h)
	checked, err := g.checkScale(scale)
	if err != nil {
		return fmt.Errorf("%s: %w", e.name, err)
	}
	e.scale = checked
	g.invalidate(h)
	return nil
}

// Rotation returns the entity's local rotation, which is always a unit quaternion.
func (g *Graph) Rotation(h Handle) mgl64.Quat {
	return g.entity(h).rotation
}

// SetRotation sets the entity's local rotation. The quaternion is normalized before it's stored; zero-length
// quaternions are rejected with ErrDegenerateRotation.
func (g *Graph) SetRotation(h Handle, rotation mgl64.Quat) error {
	e := g.entity(h)
	checked, err := checkRotation(rotation)
	if err != nil {
		return fmt.Errorf("%s: %w", e.name, err)
	}
	e.rotation = checked
	g.invalidate(h)
	return nil
}

// Move moves the entity locally by the provided offset.
func (g *Graph) Move(h Handle, offset mgl64.Vec3) error {
	return g.SetPosition(h, g.entity(h).position.Add(offset))
}

// Rotate rotates the entity by angle radians about an axis in its own local space.
func (g *Graph) Rotate(h Handle, axis mgl64.Vec3, angle float64) error {
	if axis.Len() < degenerateEpsilon {
		return fmt.Errorf("%s: rotation axis %v: %w", g.entity(h).name, axis, ErrDegenerateRotation)
	}
	return g.SetRotation(h, g.entity(h).rotation.Mul(QuatFromAxisAngle(axis, angle)))
}

// RotateParentSpace rotates the entity by angle radians about an axis in its parent's space (world space, for roots).
func (g *Graph) RotateParentSpace(h Handle, axis mgl64.Vec3, angle float64) error {
	if axis.Len() < degenerateEpsilon {
		return fmt.Errorf("%s: rotation axis %v: %w", g.entity(h).name, axis, ErrDegenerateRotation)
	}
	return g.SetRotation(h, QuatFromAxisAngle(axis, angle).Mul(g.entity(h).rotation))
}

// Grow adds the provided vector to the entity's local scale.
func (g *Graph) Grow(h Handle, growth mgl64.Vec3) error {
	return g.SetScaleVec(h, g.entity(h).scale.Add(growth))
}

// SetWorldPosition sets the entity's local position such that its world position (the translation of its world
// pose) is the provided point.
func (g *Graph) SetWorldPosition(h Handle, position mgl64.Vec3) error {

	e := g.entity(h)

	if e.parent.IsNil() {
		return g.SetPosition(h, position)
	}

	parentPose := g.WorldPose(e.parent)
	if math.Abs(parentPose.Det()) < degenerateEpsilon {
		return fmt.Errorf("%s: parent pose is singular: %w", e.name, ErrDegenerateScale)
	}

	local := parentPose.Inv().Mul4x1(position.Vec4(1)).Vec3()
	return g.SetPosition(h, local)

}

// LocalPose returns Translation(position) * ScaleVec(scale) * RotationFromQuaternion(rotation) for the entity.
func (g *Graph) LocalPose(h Handle) mgl64.Mat4 {
	e := g.entity(h)
	return LocalPose(e.position, e.scale, e.rotation)
}

// WorldTranslation returns the translation of the entity's rigid (scale-free) world transform: the parent's world
// offset plus the entity's position rotated by the parent's world rotation. With unrotated ancestors, this is simply
// the parent's world translation times Translation(position). It deliberately differs from a pure chain of
// translations: the parent's rotation carries the offset around, so children of turning parents (follow cameras)
// stay attached. Ancestor scale doesn't affect it.
func (g *Graph) WorldTranslation(h Handle) mgl64.Mat4 {
	g.entity(h)
	g.updateTranslation(h)
	return g.entities[h.index].worldTranslation
}

// WorldRotation returns the parent's world rotation times the entity's own rotation.
func (g *Graph) WorldRotation(h Handle) mgl64.Mat4 {
	g.entity(h)
	g.updateRotation(h)
	return g.entities[h.index].worldRotation
}

// WorldQuat returns the entity's world rotation as a unit quaternion.
func (g *Graph) WorldQuat(h Handle) mgl64.Quat {
	g.entity(h)
	g.updateRotation(h)
	return g.entities[h.index].worldQuat
}

// WorldPose returns the parent's world pose times the entity's local pose, which is the full (scaled) transform from
// the entity's space into world space.
func (g *Graph) WorldPose(h Handle) mgl64.Mat4 {
	g.entity(h)
	g.updatePose(h)
	return g.entities[h.index].worldPose
}

// WorldPosition returns the translation column of the entity's world pose.
func (g *Graph) WorldPosition(h Handle) mgl64.Vec3 {
	return TranslationOf(g.WorldPose(h))
}

// rigidView returns the inverse of WorldTranslation * WorldRotation; cameras and lights look through it.
func (g *Graph) rigidView(h Handle) mgl64.Mat4 {

	e := g.entity(h)

	if e.valid&cacheView == 0 {
		g.updateTranslation(h)
		g.updateRotation(h)
		e.view = RigidInverse(e.worldOffset, e.worldQuat)
		e.valid |= cacheView
		g.stats.Recomputes++
	}

	return e.view

}

func (g *Graph) updateRotation(h Handle) {

	e := &g.entities[h.index]

	if e.valid&cacheRotation != 0 {
		return
	}

	q := e.rotation
	if !e.parent.IsNil() {
		g.updateRotation(e.parent)
		q = g.entities[e.parent.index].worldQuat.Mul(q).Normalize()
	}

	e.worldQuat = q
	e.worldRotation = q.Mat4()
	e.valid |= cacheRotation
	g.stats.Recomputes++

}

func (g *Graph) updateTranslation(h Handle) {

	e := &g.entities[h.index]

	if e.valid&cacheTranslation != 0 {
		return
	}

	offset := e.position
	if !e.parent.IsNil() {
		g.updateTranslation(e.parent)
		g.updateRotation(e.parent)
		parent := &g.entities[e.parent.index]
		offset = parent.worldOffset.Add(parent.worldQuat.Rotate(e.position))
	}

	e.worldOffset = offset
	e.worldTranslation = Translation(offset)
	e.valid |= cacheTranslation
	g.stats.Recomputes++

}

func (g *Graph) updatePose(h Handle) {

	e := &g.entities[h.index]

	if e.valid&cachePose != 0 {
		return
	}

	pose := LocalPose(e.position, e.scale, e.rotation)
	if !e.parent.IsNil() {
		g.updatePose(e.parent)
		pose = g.entities[e.parent.index].worldPose.Mul4(pose)
	}

	e.worldPose = pose
	e.valid |= cachePose
	g.stats.Recomputes++

}

// invalidate clears the caches of the entity and every descendant. A cache is only ever valid while its ancestors'
// caches are, so a subtree whose root is already fully invalid is skipped.
func (g *Graph) invalidate(h Handle) {

	stack := append(g.stack[:0], h)

	for len(stack) > 0 {

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		e := &g.entities[current.index]

		if e.valid == 0 {
			continue
		}

		e.valid = 0
		g.stats.Invalidations++

		stack = append(stack, e.children...)

	}

	g.stack = stack[:0]

}

// Forwards returns the direction the entity faces in world space: its world rotation applied to (0, 0, -1).
func (g *Graph) Forwards(h Handle) mgl64.Vec3 {
	return g.WorldQuat(h).Rotate(WorldForward)
}

// Right returns the entity's world-space right vector: its world rotation applied to (1, 0, 0).
func (g *Graph) Right(h Handle) mgl64.Vec3 {
	return g.WorldQuat(h).Rotate(WorldRight)
}

// Up returns the entity's world-space up vector: its world rotation applied to (0, 1, 0).
func (g *Graph) Up(h Handle) mgl64.Vec3 {
	return g.WorldQuat(h).Rotate(WorldUp)
}

// Facing returns the entity's forwards vector projected onto the horizontal (XZ) plane and normalized. If the entity
// is looking straight up or down, there's no horizontal direction; Facing then returns the zero vector and false.
func (g *Graph) Facing(h Handle) (mgl64.Vec3, bool) {
	f := g.Forwards(h)
	f[1] = 0
	if f.Len() < degenerateEpsilon {
		return mgl64.Vec3{}, false
	}
	return f.Normalize(), true
}

// Parent returns the entity's parent, or Nil if it's a root.
func (g *Graph) Parent(h Handle) Handle {
	return g.entity(h).parent
}

// Children returns a copy of the entity's children, in the order they were parented.
func (g *Graph) Children(h Handle) []Handle {
	return append([]Handle(nil), g.entity(h).children...)
}

// Descendants returns every recursive child of the entity (children, grandchildren, and so on) in depth-first order.
func (g *Graph) Descendants(h Handle) []Handle {

	out := []Handle{}

	var walk func(h Handle)
	walk = func(h Handle) {
		for _, child := range g.entities[h.index].children {
			out = append(out, child)
			walk(child)
		}
	}

	g.entity(h)
	walk(h)

	return out

}

// SetParent parents child to parent, keeping the child's local transform (so its world transform now follows the
// new parent). Passing Nil as the parent makes the child a root. Parenting an entity to itself or to one of its
// descendants would create a cycle; both panic.
func (g *Graph) SetParent(child, parent Handle) {

	c := g.entity(child)

	if child == parent {
		panic(fmt.Sprintf("guraffic: cannot parent %q to itself", c.name))
	}

	if !parent.IsNil() {
		for ancestor := parent; !ancestor.IsNil(); ancestor = g.entity(ancestor).parent {
			if ancestor == child {
				panic(fmt.Sprintf("guraffic: parenting %q to %q would create a cycle", c.name, g.entity(parent).name))
			}
		}
	}

	if c.parent == parent {
		return
	}

	if !c.parent.IsNil() {
		g.removeChild(c.parent, child)
	}

	c.parent = parent

	if !parent.IsNil() {
		p := g.entity(parent)
		p.children = append(p.children, child)
	}

	g.invalidate(child)

}

// Unparent makes the entity a root; it's shorthand for SetParent(h, Nil).
func (g *Graph) Unparent(h Handle) {
	g.SetParent(h, Nil)
}

func (g *Graph) removeChild(parent, child Handle) {
	p := g.entity(parent)
	for i, c := range p.children {
		if c == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			return
		}
	}
}

// Destroy removes the entity from the Graph. Its children are re-rooted (they keep their local transforms, which
// are now relative to the world origin), and the handle, along with any copies of it, goes stale.
func (g *Graph) Destroy(h Handle) {

	e := g.entity(h)

	if !e.parent.IsNil() {
		g.removeChild(e.parent, h)
	}

	children := e.children
	for _, child := range children {
		g.entities[child.index].parent = Nil
		g.invalidate(child)
	}

	e = &g.entities[h.index]
	e.alive = false
	e.data = nil
	e.children = children[:0]
	e.valid = 0
	e.generation++
	if e.generation == 0 {
		e.generation = 1
	}

	g.free = append(g.free, h.index)
	g.live--

}

// Visible returns the entity's own visibility flag.
func (g *Graph) Visible(h Handle) bool {
	return g.entity(h).visible
}

// VisibleInTree returns whether the entity and all of its ancestors are visible.
func (g *Graph) VisibleInTree(h Handle) bool {
	for ; !h.IsNil(); h = g.entity(h).parent {
		if !g.entity(h).visible {
			return false
		}
	}
	return true
}

// SetVisible sets the entity's visibility. If recursive is true, all recursive children have their visibility set
// the same way.
func (g *Graph) SetVisible(h Handle, visible bool, recursive bool) {
	g.entity(h).visible = visible
	if recursive {
		for _, child := range g.Descendants(h) {
			g.entities[child.index].visible = visible
		}
	}
}

// Each calls fn for every live entity in index order, stopping early if fn returns false.
func (g *Graph) Each(fn func(h Handle) bool) {
	for i := range g.entities {
		e := &g.entities[i]
		if !e.alive {
			continue
		}
		if !fn(Handle{index: uint32(i), generation: e.generation}) {
			return
		}
	}
}

// Roots returns every entity without a parent.
func (g *Graph) Roots() []Handle {
	roots := []Handle{}
	g.Each(func(h Handle) bool {
		if g.entities[h.index].parent.IsNil() {
			roots = append(roots, h)
		}
		return true
	})
	return roots
}

// Root returns the top-most ancestor of the entity (which is the entity itself for roots).
func (g *Graph) Root(h Handle) Handle {
	for {
		parent := g.entity(h).parent
		if parent.IsNil() {
			return h
		}
		h = parent
	}
}

// Find returns the first live entity with the provided name, or Nil if there isn't one.
func (g *Graph) Find(name string) Handle {
	found := Nil
	g.Each(func(h Handle) bool {
		if g.entities[h.index].name == name {
			found = h
			return false
		}
		return true
	})
	return found
}

// Get searches the hierarchy for an entity using a path of names separated by forward slashes, relative to the
// provided entity. As an example, if a cup was parented to a desk, which was parented to a room, the cup would be
// found at room.Get("Desk/Cup"). ".." goes up one level, so cup.Get("..") is the desk. If from is Nil, the first path
// element is matched against the roots. Get returns Nil if nothing matches.
func (g *Graph) Get(from Handle, path string) Handle {

	split := []string{}

	for _, s := range strings.Split(path, `/`) {
		if len(strings.TrimSpace(s)) > 0 {
			split = append(split, strings.TrimSpace(s))
		}
	}

	current := from

	for _, part := range split {

		if part == ".." {
			if current.IsNil() {
				return Nil
			}
			current = g.entity(current).parent
			continue
		}

		var candidates []Handle
		if current.IsNil() {
			candidates = g.Roots()
		} else {
			candidates = g.entity(current).children
		}

		next := Nil
		for _, c := range candidates {
			if g.entities[c.index].name == part {
				next = c
				break
			}
		}

		if next.IsNil() {
			return Nil
		}

		current = next

	}

	return current

}

// Path returns the absolute path to the entity: its ancestors' names and its own, separated by forward slashes.
// Passing it to Get(Nil, path) returns the entity (provided sibling names are unique).
func (g *Graph) Path(h Handle) string {

	e := g.entity(h)
	path := e.name

	for parent := e.parent; !parent.IsNil(); parent = g.entities[parent.index].parent {
		path = g.entities[parent.index].name + "/" + path
	}

	return path

}

// HierarchyAsString returns a string displaying the hierarchy of the entity and all recursive children, each line
// showing the entity's type prefix, name, and world position truncated to 2 decimals. Passing Nil prints every tree
// in the Graph.
func (g *Graph) HierarchyAsString(h Handle) string {

	var builder strings.Builder

	var printNode func(h Handle, level int)

	printNode = func(h Handle, level int) {

		e := g.entity(h)

		for i := 0; i < level; i++ {
			builder.WriteString("    |")
		}

		if level > 0 {
			builder.WriteString("-")
		}

		wp := g.WorldPosition(h)
		builder.WriteString(" [" + e.nodeType.Prefix() + "] " + e.name + " : " + FormatVec(wp, 2) + "\n")

		for _, child := range e.children {
			printNode(child, level+1)
		}

	}

	if h.IsNil() {
		for _, root := range g.Roots() {
			printNode(root, 0)
		}
	} else {
		printNode(h, 0)
	}

	return builder.String()

}

// FormatVec formats a vector as "[x, y, z]" with the provided number of decimals.
func FormatVec(v mgl64.Vec3, decimals int) string {
	return "[" + strconv.FormatFloat(v[0], 'f', decimals, 64) + ", " +
		strconv.FormatFloat(v[1], 'f', decimals, 64) + ", " +
		strconv.FormatFloat(v[2], 'f', decimals, 64) + "]"
}

func (g *Graph) checkScale(scale mgl64.Vec3) (mgl64.Vec3, error) {

	if !vecFinite(scale) {
		return scale, fmt.Errorf("scale %v: %w", scale, ErrNonFinite)
	}

	minScale := g.MinScale
	if minScale < 0 {
		minScale = 0
	}

	for i, c := range scale {

		if c != 0 && math.Abs(c) >= minScale {
			continue
		}

		if g.ScalePolicy != ScaleClamp || minScale == 0 {
			return scale, fmt.Errorf("scale %v: %w", scale, ErrDegenerateScale)
		}

		if c < 0 {
			scale[i] = -minScale
		} else {
			scale[i] = minScale
		}

	}

	return scale, nil

}

func checkRotation(rotation mgl64.Quat) (mgl64.Quat, error) {
	if !quatFinite(rotation) {
		return rotation, fmt.Errorf("rotation %v: %w", rotation, ErrNonFinite)
	}
	if rotation.Len() < degenerateEpsilon {
		return rotation, fmt.Errorf("rotation %v: %w", rotation, ErrDegenerateRotation)
	}
	return rotation.Normalize(), nil
}
