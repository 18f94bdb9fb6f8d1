// package common contains common types that are used throughout the baker. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// AssetRef is an opaque identifier for a mesh or material asset (a path, a content hash, or a
// "<source>#<kind>/<name>" locator produced by the loader). It is only ever compared for equality;
// nothing in the baker dereferences it.
type AssetRef string

// NoAsset is the zero AssetRef. A renderable whose mesh is NoAsset cannot be drawn.
const NoAsset AssetRef = ""

// Valid reports whether the reference names an asset.
//
// Returns:
//   - bool: true if the reference is non-empty
func (r AssetRef) Valid() bool {
	return r != NoAsset
}

func (r AssetRef) String() string {
	return string(r)
}
