package game_object

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-hiz/common"
	"github.com/Carmen-Shannon/oxy-hiz/engine/hiz"
	"github.com/Carmen-Shannon/oxy-hiz/engine/model"
)

var (
	errForeignObject = errors.New("game object was not created by NewGameObject")
	errCycle         = errors.New("cannot parent a game object under itself or its descendant")
)

type gameObject struct {
	id      uint64
	name    string
	enabled atomic.Bool
	mdl     model.Model

	local model.Transform
	// matrix, when set, replaces the TRS local transform (e.g. a glTF node "matrix").
	matrix *common.Mat4

	parent   *gameObject
	children []*gameObject
}

// GameObject defines the interface for a node in a scene hierarchy. A GameObject has a local
// transform relative to its parent, ordered children, and an optional Model that makes it
// renderable. It satisfies hiz.SceneNode so any object can be handed to the draw collector
// as a collection root.
type GameObject interface {
	hiz.SceneNode

	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// Name returns the object's name. Names are not required to be unique.
	//
	// Returns:
	//   - string: the name
	Name() string

	// SetName sets the object's name.
	//
	// Parameters:
	//   - name: the name to assign
	SetName(name string)

	// Enabled returns whether this object is active. Disabled objects and their whole
	// subtree are excluded from Renderables.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled sets whether the object is active.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Model returns the Model associated with this object, or nil if not set.
	//
	// Returns:
	//   - model.Model: the associated model or nil
	Model() model.Model

	// SetModel assigns a Model to this object. Pass nil to remove it.
	//
	// Parameters:
	//   - m: the Model to associate
	SetModel(m model.Model)

	// Transform returns the local TRS transform.
	//
	// Returns:
	//   - model.Transform: the local transform
	Transform() model.Transform

	// SetPosition updates the local translation and clears any explicit local matrix.
	//
	// Parameters:
	//   - x, y, z: new position components
	SetPosition(x, y, z float32)

	// SetRotation updates the local rotation from Euler angles in radians (Y * X * Z order)
	// and clears any explicit local matrix.
	//
	// Parameters:
	//   - rx, ry, rz: new rotation angles
	SetRotation(rx, ry, rz float32)

	// SetRotationQuaternion updates the local rotation from a quaternion (x, y, z, w)
	// and clears any explicit local matrix.
	//
	// Parameters:
	//   - q: the rotation quaternion
	SetRotationQuaternion(q [4]float32)

	// SetScale updates the local scale and clears any explicit local matrix.
	//
	// Parameters:
	//   - sx, sy, sz: new scale factors
	SetScale(sx, sy, sz float32)

	// SetLocalMatrix sets an explicit local matrix that takes precedence over the TRS transform.
	//
	// Parameters:
	//   - m: the column-major local matrix
	SetLocalMatrix(m common.Mat4)

	// LocalMatrix returns the local-to-parent matrix.
	//
	// Returns:
	//   - common.Mat4: the local matrix
	LocalMatrix() common.Mat4

	// WorldMatrix returns the local-to-world matrix (parent world * local).
	//
	// Returns:
	//   - common.Mat4: the world matrix
	WorldMatrix() common.Mat4

	// Parent returns the parent object, or nil for a root.
	//
	// Returns:
	//   - GameObject: the parent or nil
	Parent() GameObject

	// Children returns the direct children in order.
	//
	// Returns:
	//   - []GameObject: the children
	Children() []GameObject

	// AddChild appends child to this object's children, detaching it from any previous parent.
	//
	// Parameters:
	//   - child: the object to attach
	//
	// Returns:
	//   - error: error if child is foreign or the attach would create a cycle
	AddChild(child GameObject) error

	// RemoveChild detaches child if it is a direct child of this object.
	//
	// Parameters:
	//   - child: the object to detach
	//
	// Returns:
	//   - bool: true if the child was removed
	RemoveChild(child GameObject) bool

	// FindChild resolves a "/"-separated path of child names relative to this object,
	// taking the first matching child at each level.
	//
	// Parameters:
	//   - path: the relative path, e.g. "Props/Crate"
	//
	// Returns:
	//   - GameObject: the object, or nil if any segment is missing
	FindChild(path string) GameObject

	// Path returns the "/"-separated names from the root down to this object.
	//
	// Returns:
	//   - string: the object path
	Path() string

	// Walk visits this object and its descendants depth-first pre-order, including disabled ones.
	// Returning false from fn stops descending into that object's children.
	//
	// Parameters:
	//   - fn: the visitor
	Walk(fn func(GameObject) bool)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new, enabled GameObject configured with the given options.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		local: model.IdentityTransform(),
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) Name() string {
	return g.name
}

func (g *gameObject) SetName(name string) {
	g.name = name
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) Model() model.Model {
	return g.mdl
}

func (g *gameObject) SetModel(m model.Model) {
	g.mdl = m
}

func (g *gameObject) Transform() model.Transform {
	return g.local
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.matrix = nil
	g.local.Translation = [3]float32{x, y, z}
}

func (g *gameObject) SetRotation(rx, ry, rz float32) {
	g.matrix = nil
	g.local.Rotation = common.EulerToQuaternion(rx, ry, rz)
}

func (g *gameObject) SetRotationQuaternion(q [4]float32) {
	g.matrix = nil
	g.local.Rotation = q
}

func (g *gameObject) SetScale(sx, sy, sz float32) {
	g.matrix = nil
	g.local.Scale = [3]float32{sx, sy, sz}
}

func (g *gameObject) SetLocalMatrix(m common.Mat4) {
	g.matrix = &m
}

func (g *gameObject) LocalMatrix() common.Mat4 {
	if g.matrix != nil {
		return *g.matrix
	}
	return g.local.Matrix()
}

func (g *gameObject) WorldMatrix() common.Mat4 {
	if g.parent == nil {
		return g.LocalMatrix()
	}
	return common.Mul4(g.parent.WorldMatrix(), g.LocalMatrix())
}

func (g *gameObject) Parent() GameObject {
	if g.parent == nil {
		return nil
	}
	return g.parent
}

func (g *gameObject) Children() []GameObject {
	out := make([]GameObject, len(g.children))
	for i, c := range g.children {
		out[i] = c
	}
	return out
}

func (g *gameObject) AddChild(child GameObject) error {
	c, ok := child.(*gameObject)
	if !ok || c == nil {
		return errForeignObject
	}
	for p := g; p != nil; p = p.parent {
		if p == c {
			return errCycle
		}
	}
	if c.parent != nil {
		c.parent.detach(c)
	}
	c.parent = g
	g.children = append(g.children, c)
	return nil
}

func (g *gameObject) RemoveChild(child GameObject) bool {
	c, ok := child.(*gameObject)
	if !ok || c == nil || c.parent != g {
		return false
	}
	g.detach(c)
	c.parent = nil
	return true
}

func (g *gameObject) detach(c *gameObject) {
	for i, existing := range g.children {
		if existing == c {
			g.children = append(g.children[:i], g.children[i+1:]...)
			return
		}
	}
}

func (g *gameObject) FindChild(path string) GameObject {
	cur := g
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment == "" {
			continue
		}
		var next *gameObject
		for _, c := range cur.children {
			if c.name == segment {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

func (g *gameObject) Path() string {
	if g.parent == nil {
		return g.name
	}
	return g.parent.Path() + "/" + g.name
}

func (g *gameObject) Walk(fn func(GameObject) bool) {
	if !fn(g) {
		return
	}
	for _, c := range g.children {
		c.Walk(fn)
	}
}

// Renderables returns a renderable for every enabled object carrying a Model in the subtree,
// depth-first pre-order in child order. A disabled object hides its whole subtree, so an object
// below a disabled ancestor yields nothing. World matrices are accumulated on the way down.
func (g *gameObject) Renderables() []hiz.Renderable {
	var out []hiz.Renderable
	for p := g.parent; p != nil; p = p.parent {
		if !p.Enabled() {
			return out
		}
	}
	var parentWorld common.Mat4
	if g.parent != nil {
		parentWorld = g.parent.WorldMatrix()
	} else {
		parentWorld = common.IdentityMat4()
	}
	g.collectRenderables(parentWorld, &out)
	return out
}

func (g *gameObject) collectRenderables(parentWorld common.Mat4, out *[]hiz.Renderable) {
	if !g.Enabled() {
		return
	}
	world := common.Mul4(parentWorld, g.LocalMatrix())
	if g.mdl != nil {
		*out = append(*out, &meshRenderer{mdl: g.mdl, world: world})
	}
	for _, c := range g.children {
		c.collectRenderables(world, out)
	}
}
