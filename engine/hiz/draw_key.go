package hiz

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-hiz/common"
)

// DrawKey identifies a draw bucket. Instances that share a mesh and the same number of material
// slots share a key, whatever the materials themselves are: two visually different materials of
// equal count collide into one bucket. The dataset format depends on this grouping, so it is kept.
type DrawKey struct {
	Mesh          common.AssetRef
	MaterialCount int
}

// NewDrawKey builds the key for a mesh drawn with the given material slots.
//
// Parameters:
//   - mesh: the mesh reference
//   - materials: the material slots (only the count is used)
//
// Returns:
//   - DrawKey: the key
func NewDrawKey(mesh common.AssetRef, materials []common.AssetRef) DrawKey {
	return DrawKey{Mesh: mesh, MaterialCount: len(materials)}
}

// String renders the key as "<mesh>_<materialCount>".
func (k DrawKey) String() string {
	return fmt.Sprintf("%s_%d", k.Mesh, k.MaterialCount)
}
