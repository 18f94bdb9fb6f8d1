package hiz

import (
	"github.com/Carmen-Shannon/oxy-hiz/common"
)

// DrawBucket groups every instance that shares a DrawKey. The canonical mesh and materials are
// taken from the first instance seen for the key.
type DrawBucket struct {
	*BoundsAccumulator

	Mesh      common.AssetRef
	Materials []common.AssetRef
}

func newDrawBucket(key DrawKey, mesh common.AssetRef, materials []common.AssetRef) *DrawBucket {
	return &DrawBucket{
		BoundsAccumulator: NewBoundsAccumulator(key),
		Mesh:              mesh,
		Materials:         append([]common.AssetRef{}, materials...),
	}
}

// CollectionResult maps each DrawKey to its DrawBucket. Keys are unique; Keys reports them
// in the order they were first seen, which is the order the dataset writer uses.
type CollectionResult struct {
	buckets map[DrawKey]*DrawBucket
	order   []DrawKey
}

// NewCollectionResult returns an empty result.
func NewCollectionResult() *CollectionResult {
	return &CollectionResult{buckets: make(map[DrawKey]*DrawBucket)}
}

// Len returns the number of buckets.
func (r *CollectionResult) Len() int {
	return len(r.order)
}

// Keys returns the bucket keys in first-seen order.
func (r *CollectionResult) Keys() []DrawKey {
	return append([]DrawKey{}, r.order...)
}

// Bucket looks up the bucket for a key.
//
// Parameters:
//   - key: the draw key
//
// Returns:
//   - *DrawBucket: the bucket, or nil
//   - bool: false if the key is not present
func (r *CollectionResult) Bucket(key DrawKey) (*DrawBucket, bool) {
	b, ok := r.buckets[key]
	return b, ok
}

// Buckets returns every bucket in first-seen key order.
func (r *CollectionResult) Buckets() []*DrawBucket {
	out := make([]*DrawBucket, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.buckets[k])
	}
	return out
}

// EntryCount returns the total number of cluster entries across all buckets.
func (r *CollectionResult) EntryCount() int {
	n := 0
	for _, b := range r.buckets {
		n += b.Len()
	}
	return n
}

// bucketFor returns the bucket for key, creating it from the given canonical references if absent.
func (r *CollectionResult) bucketFor(key DrawKey, mesh common.AssetRef, materials []common.AssetRef) *DrawBucket {
	if b, ok := r.buckets[key]; ok {
		return b
	}
	b := newDrawBucket(key, mesh, materials)
	r.buckets[key] = b
	r.order = append(r.order, key)
	return b
}

// merge appends every bucket of o, in o's key order, after the entries already present.
func (r *CollectionResult) merge(o *CollectionResult) {
	for _, k := range o.order {
		src := o.buckets[k]
		r.bucketFor(k, src.Mesh, src.Materials).absorb(src.BoundsAccumulator)
	}
}
