package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-hiz/common"
	"github.com/Carmen-Shannon/oxy-hiz/engine/hiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// positionsBuffer packs vec3 positions as little-endian float32.
func positionsBuffer(t *testing.T, positions ...[3]float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, positions))
	return buf.Bytes()
}

// levelJSON returns a two-instance scene. bufferURI empty means the GLB BIN chunk.
func levelJSON(version, bufferURI string, byteLength int) string {
	uri := ""
	if bufferURI != "" {
		uri = fmt.Sprintf(`"uri": %q,`, bufferURI)
	}
	return fmt.Sprintf(`{
  "asset": {"version": %q},
  "scene": 0,
  "scenes": [{"name": "Level", "nodes": [0]}],
  "nodes": [
    {"name": "Root", "children": [1, 2]},
    {"name": "RockA", "mesh": 0, "translation": [10, 0, 0]},
    {"name": "RockB", "mesh": 0, "matrix": [2,0,0,0, 0,2,0,0, 0,0,2,0, 0,0,0,1]}
  ],
  "materials": [{"name": "Stone"}],
  "meshes": [{"name": "Rock", "primitives": [
    {"attributes": {"POSITION": 0}, "material": 0},
    {"attributes": {"POSITION": 1}}
  ]}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 2, "type": "VEC3", "min": [-1, -1, -1], "max": [1, 1, 1]},
    {"bufferView": 0, "componentType": 5126, "count": 2, "type": "VEC3"}
  ],
  "bufferViews": [{"buffer": 0, "byteLength": %d}],
  "buffers": [{%s "byteLength": %d}]
}`, version, byteLength, uri, byteLength)
}

func dataURI(data []byte) string {
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(data)
}

func buildGLB(t *testing.T, jsonText string, bin []byte) []byte {
	t.Helper()
	jsonChunk := []byte(jsonText)
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}
	binChunk := append([]byte(nil), bin...)
	for len(binChunk)%4 != 0 {
		binChunk = append(binChunk, 0)
	}

	var buf bytes.Buffer
	total := uint32(12 + 8 + len(jsonChunk) + 8 + len(binChunk))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: total}))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonChunk)), ChunkType: gltfGLBChunkJSON}))
	buf.Write(jsonChunk)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(binChunk)), ChunkType: gltfGLBChunkBIN}))
	buf.Write(binChunk)
	return buf.Bytes()
}

func TestLoadSceneReaderBuildsHierarchy(t *testing.T) {
	bin := positionsBuffer(t, [3]float32{0, 0, 0}, [3]float32{2, 3, 4})
	doc := levelJSON("2.0", dataURI(bin), len(bin))

	l := NewLoader(BackendTypeGLTF)
	s, err := l.LoadSceneReader("level.gltf", strings.NewReader(doc), false)
	require.NoError(t, err)

	assert.Equal(t, "Level", s.Name())
	assert.Equal(t, "level.gltf", s.Source())
	assert.Equal(t, 3, s.ObjectCount())
	assert.Same(t, s, l.Get("level.gltf"))

	a := s.Find("Root/RockA")
	b := s.Find("Root/RockB")
	require.NotNil(t, a)
	require.NotNil(t, b)
	require.NotNil(t, a.Model())
	assert.Same(t, a.Model(), b.Model(), "instances of one mesh share a model")

	mesh, ok := a.Model().Mesh()
	require.True(t, ok)
	assert.Equal(t, common.AssetRef("level.gltf#mesh/0:Rock"), mesh)
	assert.Equal(t, []common.AssetRef{
		"level.gltf#material/0:Stone",
		"level.gltf#material/default",
	}, a.Model().Materials())

	local := a.Model().LocalBounds()
	assert.Equal(t, [3]float32{-1, -1, -1}, local.Min)
	assert.Equal(t, [3]float32{2, 3, 4}, local.Max)

	rs := a.Renderables()
	require.Len(t, rs, 1)
	world := rs[0].WorldBounds()
	assert.InDeltaSlice(t, []float32{9, -1, -1}, world.Min[:], 1e-5)
	assert.InDeltaSlice(t, []float32{12, 3, 4}, world.Max[:], 1e-5)

	rs = b.Renderables()
	require.Len(t, rs, 1)
	world = rs[0].WorldBounds()
	assert.InDeltaSlice(t, []float32{-2, -2, -2}, world.Min[:], 1e-5)
	assert.InDeltaSlice(t, []float32{4, 6, 8}, world.Max[:], 1e-5)
}

func TestLoadSceneReaderGLB(t *testing.T) {
	bin := positionsBuffer(t, [3]float32{0, 0, 0}, [3]float32{2, 3, 4})
	glb := buildGLB(t, levelJSON("2.0", "", len(bin)), bin)

	s, err := NewLoader(BackendTypeGLTF).LoadSceneReader("level.glb", bytes.NewReader(glb), true)
	require.NoError(t, err)
	require.NotNil(t, s.Find("Root/RockB"))

	mesh, ok := s.Find("Root/RockB").Model().Mesh()
	require.True(t, ok)
	assert.Equal(t, common.AssetRef("level.glb#mesh/0:Rock"), mesh)
}

func TestLoadSceneRejectsUnsupportedVersion(t *testing.T) {
	bin := positionsBuffer(t, [3]float32{0, 0, 0})
	for _, version := range []string{"1.0", "3.0", "", "banana"} {
		_, err := NewLoader(BackendTypeGLTF).LoadSceneReader("v.gltf", strings.NewReader(levelJSON(version, dataURI(bin), len(bin))), false)
		assert.True(t, errors.Is(err, ErrUnsupportedGLTFVersion), "version %q: %v", version, err)
	}

	_, err := NewLoader(BackendTypeGLTF).LoadSceneReader("v.gltf",
		strings.NewReader(levelJSON("2.1", dataURI(positionsBuffer(t, [3]float32{}, [3]float32{})), 24)), false)
	assert.NoError(t, err)
}

func TestLoadSceneFromDiskCachesAndEvicts(t *testing.T) {
	dir := t.TempDir()
	bin := positionsBuffer(t, [3]float32{0, 0, 0}, [3]float32{2, 3, 4})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "level.bin"), bin, 0o644))
	path := filepath.Join(dir, "level.gltf")
	require.NoError(t, os.WriteFile(path, []byte(levelJSON("2.0", "level.bin", len(bin))), 0o644))

	l := NewLoader(BackendTypeGLTF)
	first, err := l.LoadScene(path)
	require.NoError(t, err)
	second, err := l.LoadScene(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, l.Scenes(), 1)

	assert.True(t, l.Evict(path))
	assert.False(t, l.Evict(path))
	third, err := l.LoadScene(path)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestLoadSceneUnsupportedExtension(t *testing.T) {
	_, err := NewLoader(BackendTypeGLTF).LoadScene("level.obj")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scene format")
}

func TestImportRejectsReusedNode(t *testing.T) {
	doc := `{
  "asset": {"version": "2.0"},
  "nodes": [{"name": "A", "children": [1]}, {"name": "B"}, {"name": "C", "children": [1]}]
}`
	_, err := NewLoader(BackendTypeGLTF).LoadSceneReader("bad.gltf", strings.NewReader(doc), false)
	assert.True(t, errors.Is(err, errNodeReused))
}

func TestImportWithoutScenesUsesParentlessNodes(t *testing.T) {
	doc := `{
  "asset": {"version": "2.0"},
  "nodes": [{"children": [1]}, {"name": "Leaf"}, {"name": "Other"}]
}`
	s, err := NewLoader(BackendTypeGLTF).LoadSceneReader("dir/loose.gltf", strings.NewReader(doc), false)
	require.NoError(t, err)

	assert.Equal(t, "loose", s.Name())
	roots := s.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, "node_0", roots[0].Name())
	assert.Equal(t, "Other", roots[1].Name())
	assert.NotNil(t, s.Find("node_0/Leaf"))
}

func TestReadVec3AccessorBoundsChecked(t *testing.T) {
	bin := positionsBuffer(t, [3]float32{1, 2, 3})
	doc := `{
  "asset": {"version": "2.0"},
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 4, "type": "VEC3"}],
  "bufferViews": [{"buffer": 0, "byteLength": 12}],
  "buffers": [{"uri": "` + dataURI(bin) + `", "byteLength": 12}]
}`
	p := newGLTFParser()
	require.NoError(t, p.ParseReader(strings.NewReader(doc), false, ""))

	_, err := p.ReadVec3Accessor(0)
	assert.Error(t, err)
	_, err = p.ReadVec3Accessor(5)
	assert.Error(t, err)
}

func TestReadVec3AccessorSparse(t *testing.T) {
	base := positionsBuffer(t, [3]float32{0, 0, 0}, [3]float32{1, 1, 1}, [3]float32{2, 2, 2})
	indices := []byte{2, 0, 0, 0}
	values := positionsBuffer(t, [3]float32{-5, 9, 0.5})
	bin := append(append(append([]byte(nil), base...), indices...), values...)

	doc := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3",
     "sparse": {"count": 1, "indices": {"bufferView": 1, "componentType": 5121}, "values": {"bufferView": 2}}},
    {"componentType": 5126, "count": 2, "type": "VEC3",
     "sparse": {"count": 1, "indices": {"bufferView": 1, "componentType": 5121}, "values": {"bufferView": 2}}}
  ],
  "bufferViews": [
    {"buffer": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 4},
    {"buffer": 0, "byteOffset": 40, "byteLength": 12}
  ],
  "buffers": [{"uri": %q, "byteLength": %d}]
}`, dataURI(bin), len(bin))

	p := newGLTFParser()
	require.NoError(t, p.ParseReader(strings.NewReader(doc), false, ""))

	got, err := p.ReadVec3Accessor(0)
	require.NoError(t, err)
	assert.Equal(t, [][3]float32{{0, 0, 0}, {1, 1, 1}, {-5, 9, 0.5}}, got)

	// Without a bufferView the base is zero and index 2 is outside the two elements.
	_, err = p.ReadVec3Accessor(1)
	assert.ErrorContains(t, err, "out of range")
}

func TestSplitGLBRejectsTruncatedChunk(t *testing.T) {
	glb := buildGLB(t, `{"asset":{"version":"2.0"}}`, nil)
	_, _, err := splitGLB(glb[:len(glb)-2])
	assert.Error(t, err)

	_, _, err = splitGLB([]byte("glTF"))
	assert.ErrorIs(t, err, errGLBTooSmall)

	bad := append([]byte(nil), glb...)
	bad[0] = 'x'
	_, _, err = splitGLB(bad)
	assert.ErrorIs(t, err, errInvalidGLBMagic)
}

func TestGLTFCalculateBoundingBox(t *testing.T) {
	box := gltfCalculateBoundingBox([][3]float32{{1, -2, 3}, {-1, 5, 0}})
	assert.Equal(t, [3]float32{-1, -2, 0}, box.Min)
	assert.Equal(t, [3]float32{1, 5, 3}, box.Max)
}

func TestLoadSceneConcurrentCallsShareOneScene(t *testing.T) {
	dir := t.TempDir()
	bin := positionsBuffer(t, [3]float32{0, 0, 0}, [3]float32{2, 3, 4})
	path := filepath.Join(dir, "level.gltf")
	require.NoError(t, os.WriteFile(path, []byte(levelJSON("2.0", dataURI(bin), len(bin))), 0o644))

	l := NewLoader(BackendTypeGLTF)
	const callers = 8
	results := make([]any, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := l.LoadScene(path)
			assert.NoError(t, err)
			results[i] = s
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Len(t, l.Scenes(), 1)
}

func TestImportKeepsEquallyNamedMeshesApart(t *testing.T) {
	doc := `{
  "asset": {"version": "2.0"},
  "scenes": [{"nodes": [0, 1]}],
  "nodes": [{"name": "a", "mesh": 0}, {"name": "b", "mesh": 1}],
  "materials": [{"name": "Paint"}, {"name": "Paint"}],
  "meshes": [
    {"name": "Cube", "primitives": [{"attributes": {"POSITION": 0}, "material": 0}]},
    {"name": "Cube", "primitives": [{"attributes": {"POSITION": 1}, "material": 1}]}
  ],
  "accessors": [
    {"componentType": 5126, "count": 8, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 1]},
    {"componentType": 5126, "count": 8, "type": "VEC3", "min": [0, 0, 0], "max": [50, 50, 50]}
  ]
}`
	s, err := NewLoader(BackendTypeGLTF).LoadSceneReader("cubes.gltf", strings.NewReader(doc), false)
	require.NoError(t, err)

	a, b := s.Find("a"), s.Find("b")
	require.NotNil(t, a)
	require.NotNil(t, b)
	meshA, _ := a.Model().Mesh()
	meshB, _ := b.Model().Mesh()
	assert.Equal(t, common.AssetRef("cubes.gltf#mesh/0:Cube"), meshA)
	assert.Equal(t, common.AssetRef("cubes.gltf#mesh/1:Cube"), meshB)
	assert.Equal(t, []common.AssetRef{"cubes.gltf#material/1:Paint"}, b.Model().Materials())

	result, err := hiz.NewDrawBucketCollector().Collect([]hiz.SceneNode{a, b})
	require.NoError(t, err)
	require.Equal(t, 2, result.Len())

	for mesh, want := range map[common.AssetRef]float32{meshA: 1, meshB: 50} {
		bucket, ok := result.Bucket(hiz.DrawKey{Mesh: mesh, MaterialCount: 1})
		require.True(t, ok, mesh)
		bounds, ok := bucket.Bounds()
		require.True(t, ok)
		assert.Equal(t, [3]float32{want, want, want}, bounds.Max, mesh)
	}
}
