package hiz

import (
	"github.com/Carmen-Shannon/oxy-hiz/common"
)

// SceneNode is the capability the collector needs from a host scene node: enumerate the
// renderables of its subtree. The collector never mutates or retains a SceneNode.
type SceneNode interface {
	// Renderables returns every renderable in the subtree rooted at the node (the node included),
	// depth-first pre-order, following the scene graph's child ordering.
	//
	// Returns:
	//   - []Renderable: the renderables in traversal order
	Renderables() []Renderable
}

// Renderable is one drawable component discovered under a SceneNode.
type Renderable interface {
	// Mesh returns the mesh reference and false when the component has no mesh.
	Mesh() (common.AssetRef, bool)

	// Materials returns the ordered material references; it may be empty.
	Materials() []common.AssetRef

	// WorldBounds returns the component's bounds already transformed into world space.
	WorldBounds() common.AABB

	// WorldTransform returns the local-to-world matrix of the owning node.
	WorldTransform() common.Mat4
}
