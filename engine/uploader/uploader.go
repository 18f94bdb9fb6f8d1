package uploader

import (
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-hiz/engine/dataset"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpu calls of one device must stay on one OS thread.
var (
	lockThread   = runtime.LockOSThread
	unlockThread = runtime.UnlockOSThread
)

// uploader is the implementation of the Uploader interface.
type uploader struct {
	mu *sync.Mutex

	// pinned is true while the creating goroutine holds its OS thread lock.
	pinned bool

	label                string
	forceFallbackAdapter bool

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// Uploader pushes a dataset into GPU storage buffers on a headless device. It is a check that
// the encoded records are accepted by the driver; the buffers are released after each upload.
type Uploader interface {
	// Upload compiles the dataset WGSL layout and writes the cluster, instance and draw arrays
	// into storage buffers.
	//
	// Parameters:
	//   - d: the dataset to upload
	//
	// Returns:
	//   - *Report: the bytes uploaded per buffer
	//   - error: error if shader compilation or buffer creation fails
	Upload(d *dataset.Dataset) (*Report, error)

	// Release frees the device and every other wgpu object held by the uploader, and unpins the
	// OS thread locked by NewUploader. Call it from the goroutine that created the uploader.
	Release()
}

// Report describes one upload.
type Report struct {
	Buffers []BufferReport
}

// BufferReport is the size of one uploaded storage buffer.
type BufferReport struct {
	Label   string
	Records int
	Bytes   uint64
}

// TotalBytes sums the sizes of all buffers in the report.
func (r *Report) TotalBytes() uint64 {
	var n uint64
	for _, b := range r.Buffers {
		n += b.Bytes
	}
	return n
}

var _ Uploader = &uploader{}

// NewUploader creates a headless WebGPU device with the given options applied.
//
// Parameters:
//   - options: a variadic list of UploaderBuilderOption functions
//
// Returns:
//   - Uploader: the uploader
//   - error: error if no adapter or device is available
func NewUploader(options ...UploaderBuilderOption) (Uploader, error) {
	u := &uploader{
		mu:    &sync.Mutex{},
		label: "HiZ Upload",
	}
	for _, option := range options {
		option(u)
	}

	lockThread()
	u.pinned = true
	u.instance = wgpu.CreateInstance(nil)

	a, err := u.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: u.forceFallbackAdapter,
	})
	if err != nil {
		u.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	u.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: u.label + " Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		u.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	u.device = d
	u.queue = d.GetQueue()

	return u, nil
}

func (u *uploader) Upload(d *dataset.Dataset) (*Report, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.device == nil {
		return nil, fmt.Errorf("uploader has been released")
	}

	module, err := u.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: u.label + " Layout",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: dataset.GPUHiZDataSource,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dataset layout rejected: %w", err)
	}
	defer module.Release()

	report := &Report{}
	for _, p := range storagePayloads(d) {
		buf, err := u.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            u.label + " " + p.label,
			Size:             p.allocSize(),
			Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s buffer: %w", p.label, err)
		}
		if len(p.data) > 0 {
			u.queue.WriteBuffer(buf, 0, p.data)
		}
		buf.Release()

		report.Buffers = append(report.Buffers, BufferReport{
			Label:   p.label,
			Records: p.records,
			Bytes:   uint64(len(p.data)),
		})
	}

	log.Printf("[Uploader] uploaded %d bytes in %d storage buffers", report.TotalBytes(), len(report.Buffers))
	return report, nil
}

func (u *uploader) Release() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.queue != nil {
		u.queue.Release()
		u.queue = nil
	}
	if u.device != nil {
		u.device.Release()
		u.device = nil
	}
	if u.adapter != nil {
		u.adapter.Release()
		u.adapter = nil
	}
	if u.instance != nil {
		u.instance.Release()
		u.instance = nil
	}
	if u.pinned {
		unlockThread()
		u.pinned = false
	}
}
