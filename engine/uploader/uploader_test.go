package uploader

import (
	"os"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-hiz/engine/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Strings:       []string{"rock", "stone"},
		MaterialSlots: []uint32{1},
		Draws:         []dataset.GPUDrawData{{FirstCluster: 0, ClusterCount: 2, MaterialCount: 1}},
		Clusters:      []dataset.GPUClusterData{{Min: [3]float32{-1, -1, -1}, Max: [3]float32{1, 1, 1}}, {}},
		Instances:     []dataset.GPUInstanceData{{}, {}},
	}
}

func TestStoragePayloadsBindingOrder(t *testing.T) {
	payloads := storagePayloads(sampleDataset())
	require.Len(t, payloads, 3)

	assert.Equal(t, "Clusters", payloads[0].label)
	assert.Len(t, payloads[0].data, 2*dataset.GPUClusterDataSize)
	assert.Equal(t, "Instances", payloads[1].label)
	assert.Len(t, payloads[1].data, 2*dataset.GPUInstanceDataSize)
	assert.Equal(t, "Draws", payloads[2].label)
	assert.Equal(t, 1, payloads[2].records)
	assert.Len(t, payloads[2].data, dataset.GPUDrawDataSize)
}

func TestPayloadAllocSize(t *testing.T) {
	assert.Equal(t, uint64(storageAlignment), payload{}.allocSize())
	assert.Equal(t, uint64(48), payload{data: make([]byte, 48)}.allocSize())
	assert.Equal(t, uint64(64), payload{data: make([]byte, 50)}.allocSize())
}

func TestReleaseUnpinsThreadOnce(t *testing.T) {
	locks, unlocks := 0, 0
	origLock, origUnlock := lockThread, unlockThread
	lockThread = func() { locks++ }
	unlockThread = func() { unlocks++ }
	defer func() { lockThread, unlockThread = origLock, origUnlock }()

	u := &uploader{mu: &sync.Mutex{}}
	lockThread()
	u.pinned = true

	u.Release()
	u.Release()
	assert.Equal(t, 1, locks)
	assert.Equal(t, 1, unlocks)
	assert.False(t, u.pinned)

	_, err := u.Upload(sampleDataset())
	assert.ErrorContains(t, err, "released")
}

func TestUploadOnDevice(t *testing.T) {
	if os.Getenv("HIZ_GPU_TESTS") == "" {
		t.Skip("set HIZ_GPU_TESTS=1 to run against a WebGPU adapter")
	}

	u, err := NewUploader(WithForceFallbackAdapter(true), WithLabel("Test"))
	require.NoError(t, err)
	defer u.Release()

	report, err := u.Upload(sampleDataset())
	require.NoError(t, err)
	require.Len(t, report.Buffers, 3)
	assert.Equal(t, uint64(2*32+2*64+48), report.TotalBytes())
}
