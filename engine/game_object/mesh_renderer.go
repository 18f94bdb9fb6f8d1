package game_object

import (
	"github.com/Carmen-Shannon/oxy-hiz/common"
	"github.com/Carmen-Shannon/oxy-hiz/engine/hiz"
	"github.com/Carmen-Shannon/oxy-hiz/engine/model"
)

// meshRenderer is the hiz.Renderable produced for a GameObject with a Model: the model's
// references paired with the owning object's world matrix at traversal time.
type meshRenderer struct {
	mdl   model.Model
	world common.Mat4
}

var _ hiz.Renderable = &meshRenderer{}

func (r *meshRenderer) Mesh() (common.AssetRef, bool) {
	return r.mdl.Mesh()
}

func (r *meshRenderer) Materials() []common.AssetRef {
	return r.mdl.Materials()
}

func (r *meshRenderer) WorldBounds() common.AABB {
	return r.mdl.LocalBounds().Transform(r.world)
}

func (r *meshRenderer) WorldTransform() common.Mat4 {
	return r.world
}
