package baker

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-hiz/engine/config"
	"github.com/Carmen-Shannon/oxy-hiz/engine/dataset"
	"github.com/Carmen-Shannon/oxy-hiz/engine/hiz"
	"github.com/Carmen-Shannon/oxy-hiz/engine/loader"
	"github.com/Carmen-Shannon/oxy-hiz/engine/profiler"
	"github.com/Carmen-Shannon/oxy-hiz/engine/scene"
	"github.com/Carmen-Shannon/oxy-hiz/engine/uploader"
)

// UploaderFactory creates the uploader used by the GPU check.
type UploaderFactory func(cfg config.GPUConfig) (uploader.Uploader, error)

// baker is the implementation of the Baker interface.
type baker struct {
	loader      loader.Loader
	newUploader UploaderFactory
	silent      bool
}

// Baker turns a scene file into a Hi-Z dataset file.
type Baker interface {
	// Bake runs load, root resolution, collection, encoding and output for one configuration.
	// Nothing is written unless every stage before the write succeeds. The dataset and its
	// manifest are staged together and replaced as a unit.
	//
	// Parameters:
	//   - ctx: cancels the bake between stages
	//   - cfg: the bake configuration
	//
	// Returns:
	//   - *Report: what was written
	//   - error: error from the first failing stage
	Bake(ctx context.Context, cfg config.Config) (*Report, error)

	// Loader returns the scene loader, so callers can evict changed scenes.
	Loader() loader.Loader
}

// Report summarizes a finished bake.
type Report struct {
	Scene        string
	OutputPath   string
	ManifestPath string

	// MissingRoots are configured root paths that did not resolve.
	MissingRoots []string

	Draws    int
	Clusters int
	Bytes    int
	Digest   string

	Upload *uploader.Report
	Stages []profiler.Stage
}

var _ Baker = &baker{}

// NewBaker creates a Baker with the given options applied.
//
// Parameters:
//   - options: a variadic list of BakerBuilderOption functions
//
// Returns:
//   - Baker: the baker
func NewBaker(options ...BakerBuilderOption) Baker {
	b := &baker{
		newUploader: defaultUploader,
	}
	for _, option := range options {
		option(b)
	}
	if b.loader == nil {
		b.loader = loader.NewLoader(loader.BackendTypeGLTF)
	}
	return b
}

func defaultUploader(cfg config.GPUConfig) (uploader.Uploader, error) {
	return uploader.NewUploader(uploader.WithForceFallbackAdapter(cfg.ForceFallback))
}

func (b *baker) Loader() loader.Loader {
	return b.loader
}

func (b *baker) Bake(ctx context.Context, cfg config.Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prof := profiler.NewProfiler()
	if b.silent {
		prof.Silence()
	}
	report := &Report{
		Scene:        cfg.Scene,
		OutputPath:   cfg.OutputPath(),
		ManifestPath: cfg.ManifestPath(),
	}

	end := prof.Begin("load")
	s, err := b.loader.LoadScene(cfg.Scene)
	end()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	roots, missing := resolveRoots(s, cfg.Roots)
	for _, p := range missing {
		log.Printf("[Baker] root %q not found in %s, skipping", p, s.Name())
	}
	report.MissingRoots = missing

	opts := hiz.TerrainOptions{
		ConvertTrees:   cfg.Terrain.ConvertTrees,
		ConvertDetails: cfg.Terrain.ConvertDetails,
	}
	if opts.Enabled() {
		log.Printf("[Baker] terrain conversion is not supported, terrain objects are collected as regular renderables")
	}

	end = prof.Begin("collect")
	collector := hiz.NewDrawBucketCollector(hiz.WithWorkers(cfg.Workers))
	result, err := collector.CollectTerrain(roots, opts)
	end()
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", cfg.Scene, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	end = prof.Begin("encode")
	d, err := dataset.Encode(result)
	var encoded []byte
	if err == nil {
		encoded, err = d.MarshalBinary()
	}
	end()
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cfg.Scene, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	end = prof.Begin("write")
	outputs := []output{{path: report.OutputPath, data: encoded}}
	if report.ManifestPath != "" {
		var buf bytes.Buffer
		m := dataset.NewManifest(cfg.Scene, cfg.Roots, report.OutputPath, d, encoded)
		if _, err = m.WriteTo(&buf); err != nil {
			end()
			return nil, fmt.Errorf("encode manifest: %w", err)
		}
		outputs = append(outputs, output{path: report.ManifestPath, data: buf.Bytes()})
	}
	err = writeOutputs(outputs)
	end()
	if err != nil {
		return nil, err
	}

	report.Draws = len(d.Draws)
	report.Clusters = len(d.Clusters)
	report.Bytes = len(encoded)
	report.Digest = dataset.Digest(encoded)

	if cfg.GPU.Check {
		end = prof.Begin("gpu-check")
		report.Upload, err = b.gpuCheck(cfg.GPU, d)
		end()
		if err != nil {
			return nil, err
		}
	}

	log.Printf("[Baker] wrote %s: %d draws, %d clusters, %d bytes", report.OutputPath, report.Draws, report.Clusters, report.Bytes)
	report.Stages = prof.Stages()
	if !b.silent {
		prof.Summary()
	}
	return report, nil
}

func (b *baker) gpuCheck(cfg config.GPUConfig, d *dataset.Dataset) (*uploader.Report, error) {
	u, err := b.newUploader(cfg)
	if err != nil {
		return nil, fmt.Errorf("gpu check: %w", err)
	}
	defer u.Release()

	r, err := u.Upload(d)
	if err != nil {
		return nil, fmt.Errorf("gpu check: %w", err)
	}
	return r, nil
}

// resolveRoots maps configured root paths to scene nodes. No paths selects every scene root.
func resolveRoots(s scene.Scene, paths []string) ([]hiz.SceneNode, []string) {
	if len(paths) == 0 {
		objs := s.Roots()
		nodes := make([]hiz.SceneNode, len(objs))
		for i, o := range objs {
			nodes[i] = o
		}
		return nodes, nil
	}
	return s.ResolveRoots(paths)
}

// output is one file produced by a bake.
type output struct {
	path string
	data []byte
	tmp  string
}

// writeOutputs replaces every output as a unit. All files are staged as temp files first, so a
// failed write leaves every previous file untouched. They are then renamed in order; if a later
// rename fails, the files already renamed are removed so a dataset never sits next to a manifest
// that does not describe it.
func writeOutputs(outputs []output) (err error) {
	defer func() {
		for _, o := range outputs {
			if o.tmp != "" {
				os.Remove(o.tmp)
			}
		}
	}()

	for i := range outputs {
		if outputs[i].tmp, err = stageFile(outputs[i].path, outputs[i].data); err != nil {
			return err
		}
	}

	for i := range outputs {
		if err = os.Rename(outputs[i].tmp, outputs[i].path); err != nil {
			for _, done := range outputs[:i] {
				os.Remove(done.path)
			}
			return fmt.Errorf("failed to replace %s: %w", outputs[i].path, err)
		}
		outputs[i].tmp = ""
	}
	return nil
}

// stageFile writes data to a synced temp file beside path and returns the temp file's name.
func stageFile(path string, data []byte) (name string, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	return tmp.Name(), nil
}
