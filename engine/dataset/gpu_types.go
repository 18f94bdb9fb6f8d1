package dataset

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-hiz/common"
)

// GPUHiZDataSource is the canonical WGSL definition of the dataset records.
// GPUClusterData, GPUInstanceData and GPUDrawData match its structs exactly.
//
//go:embed assets/hiz_data.wgsl
var GPUHiZDataSource string

// GPUClusterDataSize is the std430 size of one GPUClusterData.
const GPUClusterDataSize = 32

// GPUInstanceDataSize is the std430 size of one GPUInstanceData.
const GPUInstanceDataSize = 64

// GPUDrawDataSize is the std430 size of one GPUDrawData.
const GPUDrawDataSize = 48

// GPUClusterData is the world-space bounding box of one instance.
// Size: 32 bytes (vec3 + pad, vec3 + pad).
type GPUClusterData struct {
	Min [3]float32 // offset  0: world-space minimum corner (12 bytes)
	_   float32    // offset 12: padding
	Max [3]float32 // offset 16: world-space maximum corner (12 bytes)
	_   float32    // offset 28: padding
}

// NewGPUClusterData converts an AABB into its GPU record.
func NewGPUClusterData(b common.AABB) GPUClusterData {
	return GPUClusterData{Min: b.Min, Max: b.Max}
}

// Bounds returns the record as an AABB.
func (g *GPUClusterData) Bounds() common.AABB {
	return common.AABB{Min: g.Min, Max: g.Max}
}

// Size returns the size of the GPUClusterData struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUClusterData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUClusterData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUClusterData) Marshal() []byte {
	buf := make([]byte, GPUClusterDataSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Min[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Min[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Min[2]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Max[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Max[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Max[2]))
	return buf
}

// Unmarshal reads the record from a 32-byte buffer produced by Marshal.
func (g *GPUClusterData) Unmarshal(buf []byte) {
	g.Min[0] = math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4]))
	g.Min[1] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8]))
	g.Min[2] = math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12]))
	g.Max[0] = math.Float32frombits(binary.LittleEndian.Uint32(buf[16:20]))
	g.Max[1] = math.Float32frombits(binary.LittleEndian.Uint32(buf[20:24]))
	g.Max[2] = math.Float32frombits(binary.LittleEndian.Uint32(buf[24:28]))
}

// GPUInstanceData is the column-major world transform of one instance.
// Size: 64 bytes (mat4x4<f32>).
type GPUInstanceData struct {
	Transform common.Mat4 // offset 0: world matrix (64 bytes)
}

// Size returns the size of the GPUInstanceData struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUInstanceData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUInstanceData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUInstanceData) Marshal() []byte {
	buf := make([]byte, GPUInstanceDataSize)
	for i, v := range g.Transform {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf
}

// Unmarshal reads the record from a 64-byte buffer produced by Marshal.
func (g *GPUInstanceData) Unmarshal(buf []byte) {
	for i := range g.Transform {
		g.Transform[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4 : i*4+4]))
	}
}

// GPUDrawData describes one draw bucket: a contiguous cluster range, its material slots and the
// union of its cluster bounds. MeshName indexes the string table and FirstMaterial indexes the
// material slot table.
// Size: 48 bytes (std430 aligned).
type GPUDrawData struct {
	FirstCluster  uint32     // offset  0: index of the first cluster/instance (4 bytes)
	ClusterCount  uint32     // offset  4: number of clusters (4 bytes)
	MaterialCount uint32     // offset  8: number of material slots (4 bytes)
	MeshName      uint32     // offset 12: string table index of the mesh ref (4 bytes)
	BoundsMin     [3]float32 // offset 16: aggregate minimum corner (12 bytes)
	FirstMaterial uint32     // offset 28: first material slot (4 bytes)
	BoundsMax     [3]float32 // offset 32: aggregate maximum corner (12 bytes)
	_             float32    // offset 44: padding
}

// Size returns the size of the GPUDrawData struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUDrawData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUDrawData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUDrawData) Marshal() []byte {
	buf := make([]byte, GPUDrawDataSize)
	binary.LittleEndian.PutUint32(buf[0:4], g.FirstCluster)
	binary.LittleEndian.PutUint32(buf[4:8], g.ClusterCount)
	binary.LittleEndian.PutUint32(buf[8:12], g.MaterialCount)
	binary.LittleEndian.PutUint32(buf[12:16], g.MeshName)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.BoundsMin[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.BoundsMin[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.BoundsMin[2]))
	binary.LittleEndian.PutUint32(buf[28:32], g.FirstMaterial)
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.BoundsMax[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.BoundsMax[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.BoundsMax[2]))
	return buf
}

// Unmarshal reads the record from a 48-byte buffer produced by Marshal.
func (g *GPUDrawData) Unmarshal(buf []byte) {
	g.FirstCluster = binary.LittleEndian.Uint32(buf[0:4])
	g.ClusterCount = binary.LittleEndian.Uint32(buf[4:8])
	g.MaterialCount = binary.LittleEndian.Uint32(buf[8:12])
	g.MeshName = binary.LittleEndian.Uint32(buf[12:16])
	g.BoundsMin[0] = math.Float32frombits(binary.LittleEndian.Uint32(buf[16:20]))
	g.BoundsMin[1] = math.Float32frombits(binary.LittleEndian.Uint32(buf[20:24]))
	g.BoundsMin[2] = math.Float32frombits(binary.LittleEndian.Uint32(buf[24:28]))
	g.FirstMaterial = binary.LittleEndian.Uint32(buf[28:32])
	g.BoundsMax[0] = math.Float32frombits(binary.LittleEndian.Uint32(buf[32:36]))
	g.BoundsMax[1] = math.Float32frombits(binary.LittleEndian.Uint32(buf[36:40]))
	g.BoundsMax[2] = math.Float32frombits(binary.LittleEndian.Uint32(buf[40:44]))
}

// Bounds returns the aggregate bounds as an AABB.
func (g *GPUDrawData) Bounds() common.AABB {
	return common.AABB{Min: g.BoundsMin, Max: g.BoundsMax}
}
