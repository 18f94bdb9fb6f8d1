package hiz

import (
	"github.com/Carmen-Shannon/oxy-hiz/common"
)

// ClusterEntry is one instance's contribution to a draw bucket: its world-space bounds and
// its local-to-world transform.
type ClusterEntry struct {
	Bounds    common.AABB
	Transform common.Mat4
}

// BoundsAccumulator owns the ordered cluster entries of exactly one draw key.
// No aggregate bound is maintained while entries are added; Bounds computes it on demand.
type BoundsAccumulator struct {
	key     DrawKey
	entries []ClusterEntry
}

// NewBoundsAccumulator creates an empty accumulator for the given key.
//
// Parameters:
//   - key: the draw key every entry belongs to
//
// Returns:
//   - *BoundsAccumulator: the accumulator
func NewBoundsAccumulator(key DrawKey) *BoundsAccumulator {
	return &BoundsAccumulator{key: key}
}

// Key returns the draw key of the accumulator.
func (a *BoundsAccumulator) Key() DrawKey {
	return a.key
}

// AddEntry appends a ClusterEntry. Bounds must be well formed (min <= max on every axis);
// otherwise an *InvalidBoundsError is returned and nothing is appended.
//
// Parameters:
//   - bounds: the instance's world-space bounding box
//   - transform: the instance's local-to-world matrix
//
// Returns:
//   - error: *InvalidBoundsError if bounds are malformed
func (a *BoundsAccumulator) AddEntry(bounds common.AABB, transform common.Mat4) error {
	if axis := bounds.InvalidAxis(); axis >= 0 {
		return &InvalidBoundsError{Key: a.key, Bounds: bounds, Axis: axis}
	}
	a.entries = append(a.entries, ClusterEntry{Bounds: bounds, Transform: transform})
	return nil
}

// Entries returns the entries in insertion order. The slice is a copy and is never nil.
//
// Returns:
//   - []ClusterEntry: the entries
func (a *BoundsAccumulator) Entries() []ClusterEntry {
	out := make([]ClusterEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Len returns the number of entries.
func (a *BoundsAccumulator) Len() int {
	return len(a.entries)
}

// Bounds returns the union of every entry's bounds. The second value is false when the
// accumulator is empty.
//
// Returns:
//   - common.AABB: the aggregate bound
//   - bool: false if there are no entries
func (a *BoundsAccumulator) Bounds() (common.AABB, bool) {
	if len(a.entries) == 0 {
		return common.AABB{}, false
	}
	agg := common.EmptyAABB()
	for _, e := range a.entries {
		agg = agg.Union(e.Bounds)
	}
	return agg, true
}

// absorb appends already validated entries from another accumulator of the same key.
func (a *BoundsAccumulator) absorb(o *BoundsAccumulator) {
	a.entries = append(a.entries, o.entries...)
}
