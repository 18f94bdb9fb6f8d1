package dataset

import (
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-hiz/common"
	"github.com/Carmen-Shannon/oxy-hiz/engine/hiz"
)

// Magic identifies a Hi-Z dataset file.
const Magic = "HIZD"

// FormatVersion is the binary layout version written by WriteTo.
const FormatVersion uint32 = 1

var (
	ErrNilResult      = errors.New("collection result is nil")
	ErrBadMagic       = errors.New("not a Hi-Z dataset")
	ErrBadVersion     = errors.New("unsupported dataset format version")
	ErrCorrupt        = errors.New("corrupt dataset")
	ErrTooManyItems   = errors.New("dataset exceeds 32-bit index range")
	ErrDigestMissing  = errors.New("manifest has no digest")
	ErrDigestMismatch = errors.New("dataset digest does not match manifest")
)

// Dataset is the runtime occlusion dataset: one draw per bucket, and per instance a cluster
// (world bounds) and a transform. Clusters[i] and Instances[i] describe the same instance; draw d
// owns the range [FirstCluster, FirstCluster+ClusterCount).
type Dataset struct {
	// Strings holds every distinct asset ref in first-use order.
	Strings []string

	// MaterialSlots are string table indices; each draw owns MaterialCount consecutive slots.
	MaterialSlots []uint32

	Draws     []GPUDrawData
	Clusters  []GPUClusterData
	Instances []GPUInstanceData
}

// Encode flattens a collection result into a Dataset. Draws follow the result's key order and
// clusters keep each bucket's insertion order, so identical input encodes identically.
//
// Parameters:
//   - result: the collected draw buckets
//
// Returns:
//   - *Dataset: the encoded dataset
//   - error: ErrNilResult, ErrTooManyItems, or an invalid bounds error
func Encode(result *hiz.CollectionResult) (*Dataset, error) {
	if result == nil {
		return nil, ErrNilResult
	}
	if uint64(result.EntryCount()) > math.MaxUint32 {
		return nil, ErrTooManyItems
	}

	d := &Dataset{
		Strings:       make([]string, 0),
		MaterialSlots: make([]uint32, 0),
		Draws:         make([]GPUDrawData, 0, result.Len()),
		Clusters:      make([]GPUClusterData, 0, result.EntryCount()),
		Instances:     make([]GPUInstanceData, 0, result.EntryCount()),
	}
	index := make(map[string]uint32)
	intern := func(s string) uint32 {
		if i, ok := index[s]; ok {
			return i
		}
		i := uint32(len(d.Strings))
		index[s] = i
		d.Strings = append(d.Strings, s)
		return i
	}

	for _, bucket := range result.Buckets() {
		draw := GPUDrawData{
			FirstCluster:  uint32(len(d.Clusters)),
			MaterialCount: uint32(len(bucket.Materials)),
			MeshName:      intern(string(bucket.Mesh)),
			FirstMaterial: uint32(len(d.MaterialSlots)),
		}
		for _, m := range bucket.Materials {
			d.MaterialSlots = append(d.MaterialSlots, intern(string(m)))
		}

		for _, e := range bucket.Entries() {
			d.Clusters = append(d.Clusters, NewGPUClusterData(e.Bounds))
			d.Instances = append(d.Instances, GPUInstanceData{Transform: e.Transform})
		}
		draw.ClusterCount = uint32(len(d.Clusters)) - draw.FirstCluster

		if bounds, ok := bucket.Bounds(); ok {
			if axis := bounds.InvalidAxis(); axis >= 0 {
				return nil, &hiz.InvalidBoundsError{Key: bucket.Key(), Bounds: bounds, Axis: axis}
			}
			draw.BoundsMin = bounds.Min
			draw.BoundsMax = bounds.Max
		}
		d.Draws = append(d.Draws, draw)
	}

	return d, nil
}

// Mesh returns the mesh ref of a draw.
func (d *Dataset) Mesh(draw int) string {
	return d.Strings[d.Draws[draw].MeshName]
}

// Materials returns the material refs of a draw in slot order.
func (d *Dataset) Materials(draw int) []string {
	dd := d.Draws[draw]
	out := make([]string, 0, dd.MaterialCount)
	for _, s := range d.MaterialSlots[dd.FirstMaterial : dd.FirstMaterial+dd.MaterialCount] {
		out = append(out, d.Strings[s])
	}
	return out
}

// DrawClusters returns the clusters owned by a draw.
func (d *Dataset) DrawClusters(draw int) []GPUClusterData {
	dd := d.Draws[draw]
	return d.Clusters[dd.FirstCluster : dd.FirstCluster+dd.ClusterCount]
}

// DrawKey rebuilds the bucket key of a draw.
func (d *Dataset) DrawKey(draw int) hiz.DrawKey {
	return hiz.DrawKey{
		Mesh:          common.AssetRef(d.Mesh(draw)),
		MaterialCount: int(d.Draws[draw].MaterialCount),
	}
}

// Validate checks that every index in the dataset is in range.
func (d *Dataset) Validate() error {
	if len(d.Clusters) != len(d.Instances) {
		return fmt.Errorf("%w: %d clusters but %d instances", ErrCorrupt, len(d.Clusters), len(d.Instances))
	}
	for _, s := range d.MaterialSlots {
		if int(s) >= len(d.Strings) {
			return fmt.Errorf("%w: material slot references string %d of %d", ErrCorrupt, s, len(d.Strings))
		}
	}
	for i, dd := range d.Draws {
		if int(dd.MeshName) >= len(d.Strings) {
			return fmt.Errorf("%w: draw %d mesh string %d of %d", ErrCorrupt, i, dd.MeshName, len(d.Strings))
		}
		if uint64(dd.FirstCluster)+uint64(dd.ClusterCount) > uint64(len(d.Clusters)) {
			return fmt.Errorf("%w: draw %d cluster range out of bounds", ErrCorrupt, i)
		}
		if uint64(dd.FirstMaterial)+uint64(dd.MaterialCount) > uint64(len(d.MaterialSlots)) {
			return fmt.Errorf("%w: draw %d material range out of bounds", ErrCorrupt, i)
		}
	}
	return nil
}
