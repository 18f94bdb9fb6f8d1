package baker

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/Carmen-Shannon/oxy-hiz/engine/config"
	"github.com/Carmen-Shannon/oxy-hiz/engine/dataset"
	"github.com/Carmen-Shannon/oxy-hiz/engine/hiz"
	"github.com/Carmen-Shannon/oxy-hiz/engine/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forestGLTF has two rocks under World/Props and one pine under World/Trees. Bounds come from
// accessor min/max so no buffers are needed.
const forestGLTF = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"name": "Forest", "nodes": [0]}],
  "nodes": [
    {"name": "World", "children": [1, 2]},
    {"name": "Props", "children": [3, 4]},
    {"name": "Trees", "children": [5]},
    {"name": "RockA", "mesh": 0, "translation": [1, 0, 0]},
    {"name": "RockB", "mesh": 0, "translation": [-1, 0, 0]},
    {"name": "Pine", "mesh": 1, "translation": [0, 0, 4]}
  ],
  "materials": [{"name": "Stone"}, {"name": "Bark"}, {"name": "Needles"}],
  "meshes": [
    {"name": "Rock", "primitives": [{"attributes": {"POSITION": 0}, "material": 0}]},
    {"name": "Pine", "primitives": [
      {"attributes": {"POSITION": 1}, "material": 1},
      {"attributes": {"POSITION": 1}, "material": 2}
    ]}
  ],
  "accessors": [
    {"componentType": 5126, "count": 8, "type": "VEC3", "min": [-0.5, -0.5, -0.5], "max": [0.5, 0.5, 0.5]},
    {"componentType": 5126, "count": 8, "type": "VEC3", "min": [-1, 0, -1], "max": [1, 6, 1]}
  ]
}`

const invertedGLTF = `{
  "asset": {"version": "2.0"},
  "nodes": [{"name": "Broken", "mesh": 0}],
  "meshes": [{"name": "Bad", "primitives": [{"attributes": {"POSITION": 0}}]}],
  "accessors": [
    {"componentType": 5126, "count": 8, "type": "VEC3", "min": [1, 0, 0], "max": [-1, 1, 1]}
  ]
}`

func writeScene(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forest.gltf")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestBakeWritesDatasetAndManifest(t *testing.T) {
	scenePath := writeScene(t, forestGLTF)
	cfg := config.Config{Scene: scenePath, Workers: 2}

	report, err := NewBaker(WithQuiet(true)).Bake(context.Background(), cfg)
	require.NoError(t, err)

	dir := filepath.Dir(scenePath)
	assert.Equal(t, filepath.Join(dir, "forest_hiz_data.hiz"), report.OutputPath)
	assert.Equal(t, []string{"forest.gltf", "forest_hiz_data.hiz", "forest_hiz_data.manifest.yaml"}, dirEntries(t, dir))
	assert.Equal(t, 2, report.Draws)
	assert.Equal(t, 3, report.Clusters)
	assert.Empty(t, report.MissingRoots)
	assert.Len(t, report.Stages, 4)

	encoded, err := os.ReadFile(report.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, report.Bytes, len(encoded))

	d, err := dataset.Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, d.Draws, 2)
	assert.Equal(t, scenePath+"#mesh/0:Rock", d.Mesh(0))
	assert.Equal(t, []string{scenePath + "#material/0:Stone"}, d.Materials(0))
	assert.Equal(t, scenePath+"#mesh/1:Pine", d.Mesh(1))
	assert.Equal(t, uint32(2), d.Draws[1].MaterialCount)
	assert.Equal(t, [3]float32{-1.5, -0.5, -0.5}, d.Draws[0].BoundsMin)
	assert.Equal(t, [3]float32{1.5, 0.5, 0.5}, d.Draws[0].BoundsMax)

	mf, err := os.Open(report.ManifestPath)
	require.NoError(t, err)
	defer mf.Close()
	m, err := dataset.ReadManifest(mf)
	require.NoError(t, err)
	assert.NoError(t, m.Verify(encoded))
	assert.Equal(t, report.Digest, m.Digest)
	assert.Equal(t, 3, m.Totals.Clusters)
}

func TestBakeSkipsMissingRoots(t *testing.T) {
	cfg := config.Config{
		Scene:      writeScene(t, forestGLTF),
		Roots:      []string{"World/Props", "World/Nope", ""},
		Workers:    1,
		NoManifest: true,
	}

	report, err := NewBaker(WithQuiet(true)).Bake(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"World/Nope"}, report.MissingRoots)
	assert.Equal(t, 1, report.Draws)
	assert.Equal(t, 2, report.Clusters)
	assert.Empty(t, report.ManifestPath)
	assert.NoFileExists(t, config.ManifestPathFor(report.OutputPath))
}

func TestBakeInvalidBoundsWritesNothing(t *testing.T) {
	scenePath := writeScene(t, invertedGLTF)
	cfg := config.Config{Scene: scenePath, Workers: 1}

	_, err := NewBaker(WithQuiet(true)).Bake(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, hiz.ErrInvalidBounds))

	var ibe *hiz.InvalidBoundsError
	require.True(t, errors.As(err, &ibe))
	assert.Equal(t, 0, ibe.Axis)

	assert.Equal(t, []string{"forest.gltf"}, dirEntries(t, filepath.Dir(scenePath)))
}

func TestBakeReplacesExistingOutput(t *testing.T) {
	scenePath := writeScene(t, forestGLTF)
	out := config.DefaultOutputPath(scenePath)
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0o644))

	_, err := NewBaker(WithQuiet(true)).Bake(context.Background(), config.Config{Scene: scenePath, Workers: 1, NoManifest: true})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, dataset.Magic, string(data[:4]))
}

func TestBakeCancelledBeforeWrite(t *testing.T) {
	scenePath := writeScene(t, forestGLTF)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBaker(WithQuiet(true)).Bake(ctx, config.Config{Scene: scenePath, Workers: 1})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoFileExists(t, config.DefaultOutputPath(scenePath))
}

func TestBakeRejectsInvalidConfig(t *testing.T) {
	_, err := NewBaker().Bake(context.Background(), config.Config{Workers: 1})
	assert.True(t, errors.Is(err, config.ErrNoScene))
}

func TestBakeManifestFailureRemovesFreshDataset(t *testing.T) {
	scenePath := writeScene(t, forestGLTF)
	dir := filepath.Dir(scenePath)
	// A directory in the manifest's place makes its rename fail after the dataset is committed.
	require.NoError(t, os.Mkdir(config.ManifestPathFor(config.DefaultOutputPath(scenePath)), 0o755))

	_, err := NewBaker(WithQuiet(true)).Bake(context.Background(), config.Config{Scene: scenePath, Workers: 1})
	require.Error(t, err)

	assert.NoFileExists(t, config.DefaultOutputPath(scenePath))
	assert.Equal(t, []string{"forest.gltf", "forest_hiz_data.manifest.yaml"}, dirEntries(t, dir))
}

func TestWriteOutputsStagingFailureKeepsPreviousFiles(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "scene_hiz_data.hiz")
	require.NoError(t, os.WriteFile(dataPath, []byte("previous"), 0o644))
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := writeOutputs([]output{
		{path: dataPath, data: []byte("fresh")},
		{path: filepath.Join(blocker, "scene.manifest.yaml"), data: []byte("digest")},
	})
	require.Error(t, err)

	data, err := os.ReadFile(dataPath)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
	assert.Equal(t, []string{"blocker", "scene_hiz_data.hiz"}, dirEntries(t, dir))
}

type fakeUploader struct {
	uploaded *dataset.Dataset
	released bool
}

func (f *fakeUploader) Upload(d *dataset.Dataset) (*uploader.Report, error) {
	f.uploaded = d
	return &uploader.Report{Buffers: []uploader.BufferReport{{Label: "Clusters", Records: len(d.Clusters), Bytes: 96}}}, nil
}

func (f *fakeUploader) Release() { f.released = true }

func TestBakeGPUCheck(t *testing.T) {
	fake := &fakeUploader{}
	var gotCfg config.GPUConfig
	b := NewBaker(WithQuiet(true), WithUploaderFactory(func(cfg config.GPUConfig) (uploader.Uploader, error) {
		gotCfg = cfg
		return fake, nil
	}))

	cfg := config.Config{
		Scene:      writeScene(t, forestGLTF),
		Workers:    1,
		NoManifest: true,
		GPU:        config.GPUConfig{Check: true, ForceFallback: true},
	}
	report, err := b.Bake(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, gotCfg.ForceFallback)
	require.NotNil(t, fake.uploaded)
	assert.Len(t, fake.uploaded.Clusters, 3)
	assert.True(t, fake.released)
	require.NotNil(t, report.Upload)
	assert.Equal(t, uint64(96), report.Upload.TotalBytes())

	failing := NewBaker(WithQuiet(true), WithUploaderFactory(func(config.GPUConfig) (uploader.Uploader, error) {
		return nil, errors.New("no adapter")
	}))
	_, err = failing.Bake(context.Background(), cfg)
	assert.ErrorContains(t, err, "no adapter")
}

func TestBakeLoaderCachesUntilEvicted(t *testing.T) {
	scenePath := writeScene(t, forestGLTF)
	b := NewBaker(WithQuiet(true))
	cfg := config.Config{Scene: scenePath, Workers: 1, NoManifest: true}

	_, err := b.Bake(context.Background(), cfg)
	require.NoError(t, err)
	first := b.Loader().Get(scenePath)
	require.NotNil(t, first)

	_, err = b.Bake(context.Background(), cfg)
	require.NoError(t, err)
	assert.Same(t, first, b.Loader().Get(scenePath))

	assert.True(t, b.Loader().Evict(scenePath))
	_, err = b.Bake(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotSame(t, first, b.Loader().Get(scenePath))
}
