package model

import (
	"github.com/Carmen-Shannon/oxy-hiz/common"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithMesh is an option builder that sets the mesh reference of the Model.
//
// Parameters:
//   - ref: the mesh asset reference
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh option to a model
func WithMesh(ref common.AssetRef) ModelBuilderOption {
	return func(m *model) {
		m.mesh = ref
	}
}

// WithMaterials is an option builder that sets the ordered material slots of the Model.
//
// Parameters:
//   - refs: the material asset references
//
// Returns:
//   - ModelBuilderOption: a function that applies the materials option to a model
func WithMaterials(refs ...common.AssetRef) ModelBuilderOption {
	return func(m *model) {
		m.materials = append([]common.AssetRef(nil), refs...)
	}
}

// WithLocalBounds is an option builder that sets the model-space bounding box.
//
// Parameters:
//   - bounds: the local bounding box
//
// Returns:
//   - ModelBuilderOption: a function that applies the bounds option to a model
func WithLocalBounds(bounds common.AABB) ModelBuilderOption {
	return func(m *model) {
		m.localBounds = bounds
	}
}
