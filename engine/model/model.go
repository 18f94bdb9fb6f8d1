package model

import (
	"github.com/Carmen-Shannon/oxy-hiz/common"
)

// model is the implementation of the Model interface.
type model struct {
	name        string
	mesh        common.AssetRef
	materials   []common.AssetRef
	localBounds common.AABB
}

// Model defines the renderable component attached to a GameObject: a reference to a mesh asset,
// the ordered material slots used to draw it, and the mesh's bounds in its own (local) space.
// Mesh and material references are opaque identifiers; a Model never owns or loads asset data.
// Models are shared between every GameObject that instances the same mesh.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Mesh returns the mesh reference and whether one is set.
	// A Model without a mesh is present in the scene but cannot be drawn.
	//
	// Returns:
	//   - common.AssetRef: the mesh reference
	//   - bool: false if no mesh is assigned
	Mesh() (common.AssetRef, bool)

	// Materials returns the ordered material slots. The returned slice is a copy and may be empty.
	//
	// Returns:
	//   - []common.AssetRef: the material references
	Materials() []common.AssetRef

	// MaterialCount returns the number of material slots.
	//
	// Returns:
	//   - int: the material count
	MaterialCount() int

	// LocalBounds returns the mesh bounds in model space.
	//
	// Returns:
	//   - common.AABB: the local bounding box
	LocalBounds() common.AABB

	// SetMesh replaces the mesh reference. Pass common.NoAsset to clear it.
	//
	// Parameters:
	//   - ref: the new mesh reference
	SetMesh(ref common.AssetRef)

	// SetMaterials replaces the material slots.
	//
	// Parameters:
	//   - refs: the new material references
	SetMaterials(refs []common.AssetRef)

	// SetLocalBounds replaces the model-space bounds.
	//
	// Parameters:
	//   - bounds: the new local bounding box
	SetLocalBounds(bounds common.AABB)
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Mesh() (common.AssetRef, bool) {
	return m.mesh, m.mesh.Valid()
}

func (m *model) Materials() []common.AssetRef {
	out := make([]common.AssetRef, len(m.materials))
	copy(out, m.materials)
	return out
}

func (m *model) MaterialCount() int {
	return len(m.materials)
}

func (m *model) LocalBounds() common.AABB {
	return m.localBounds
}

func (m *model) SetMesh(ref common.AssetRef) {
	m.mesh = ref
}

func (m *model) SetMaterials(refs []common.AssetRef) {
	m.materials = append([]common.AssetRef(nil), refs...)
}

func (m *model) SetLocalBounds(bounds common.AABB) {
	m.localBounds = bounds
}
