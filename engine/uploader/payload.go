package uploader

import (
	"github.com/Carmen-Shannon/oxy-hiz/common"
	"github.com/Carmen-Shannon/oxy-hiz/engine/dataset"
)

// storageAlignment is the size granularity of storage buffer allocations.
const storageAlignment = 16

// payload is the packed bytes of one storage buffer.
type payload struct {
	label   string
	records int
	data    []byte
}

// allocSize rounds the payload up to the storage alignment. Empty payloads still get one
// aligned block so every binding has a buffer.
func (p payload) allocSize() uint64 {
	n := uint64(len(p.data))
	if n == 0 {
		return storageAlignment
	}
	return common.AlignUp(n, storageAlignment)
}

// storagePayloads packs the dataset arrays in binding order: clusters, instances, draws.
func storagePayloads(d *dataset.Dataset) []payload {
	clusters := make([]byte, 0, len(d.Clusters)*dataset.GPUClusterDataSize)
	for i := range d.Clusters {
		clusters = append(clusters, d.Clusters[i].Marshal()...)
	}
	instances := make([]byte, 0, len(d.Instances)*dataset.GPUInstanceDataSize)
	for i := range d.Instances {
		instances = append(instances, d.Instances[i].Marshal()...)
	}
	draws := make([]byte, 0, len(d.Draws)*dataset.GPUDrawDataSize)
	for i := range d.Draws {
		draws = append(draws, d.Draws[i].Marshal()...)
	}

	return []payload{
		{label: "Clusters", records: len(d.Clusters), data: clusters},
		{label: "Instances", records: len(d.Instances), data: instances},
		{label: "Draws", records: len(d.Draws), data: draws},
	}
}
