package hiz

// TerrainOptions selects which terrain features would be converted into draw buckets.
// Terrain conversion is not implemented yet; the options are carried so callers can already
// express them through CollectTerrain.
type TerrainOptions struct {
	// ConvertTrees converts terrain tree instances into renderables.
	ConvertTrees bool

	// ConvertDetails converts terrain detail (grass/foliage) patches into renderables.
	ConvertDetails bool
}

// Enabled reports whether any terrain conversion is requested.
func (o TerrainOptions) Enabled() bool {
	return o.ConvertTrees || o.ConvertDetails
}
