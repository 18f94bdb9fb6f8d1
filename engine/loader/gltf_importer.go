package loader

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-hiz/common"
	"github.com/Carmen-Shannon/oxy-hiz/engine/game_object"
	"github.com/Carmen-Shannon/oxy-hiz/engine/model"
	"github.com/Carmen-Shannon/oxy-hiz/engine/scene"
)

var errNodeReused = errors.New("node referenced more than once in the hierarchy")

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter turns a parsed glTF document into a scene of game objects.
type gltfImporter interface {
	// Import loads a glTF/GLB file and builds its default scene.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - scene.Scene: the imported scene, with Source set to path
	//   - error: error if parsing or hierarchy construction fails
	Import(path string) (scene.Scene, error)

	// ImportReader builds a scene from a glTF JSON or GLB stream.
	//
	// Parameters:
	//   - name: the source name used as the prefix of mesh and material refs
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - scene.Scene: the imported scene
	//   - error: error if import fails
	ImportReader(name string, r io.Reader, isGLB bool) (scene.Scene, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string) (scene.Scene, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return imp.importFromParser(parser, path)
}

func (imp *gltfImporterImpl) ImportReader(name string, r io.Reader, isGLB bool) (scene.Scene, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB, filepath.Dir(name)); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	return imp.importFromParser(parser, name)
}

// gltfSceneBuild holds the per-import state shared by the node walk.
type gltfSceneBuild struct {
	parser  gltfParser
	doc     *gltfDocument
	source  string
	models  map[int]model.Model
	visited map[int]bool
}

func (imp *gltfImporterImpl) importFromParser(parser gltfParser, source string) (scene.Scene, error) {
	doc := parser.Document()
	for _, ext := range doc.ExtensionsRequired {
		log.Printf("[Loader] %s requires extension %s; geometry bounds may be incomplete", source, ext)
	}

	b := &gltfSceneBuild{
		parser:  parser,
		doc:     doc,
		source:  filepath.ToSlash(source),
		models:  make(map[int]model.Model),
		visited: make(map[int]bool),
	}

	roots, err := gltfRootNodes(doc)
	if err != nil {
		return nil, err
	}

	objects := make([]game_object.GameObject, 0, len(roots))
	for _, idx := range roots {
		obj, err := b.buildNode(idx)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}

	return scene.NewScene(gltfExtractSceneName(doc, source),
		scene.WithSource(source),
		scene.WithObjects(objects...),
	), nil
}

// buildNode creates the game object for a node and its subtree.
func (b *gltfSceneBuild) buildNode(idx int) (game_object.GameObject, error) {
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if b.visited[idx] {
		return nil, fmt.Errorf("node %d: %w", idx, errNodeReused)
	}
	b.visited[idx] = true

	node := &b.doc.Nodes[idx]
	options := []game_object.GameObjectBuilderOption{
		game_object.WithName(gltfNodeName(node, idx)),
	}

	if node.Matrix != nil {
		options = append(options, game_object.WithLocalMatrix(common.Mat4(*node.Matrix)))
	} else {
		options = append(options, game_object.WithTransform(gltfExtractNodeTransform(node)))
	}

	if node.Mesh != nil {
		m, err := b.modelFor(*node.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", idx, err)
		}
		options = append(options, game_object.WithModel(m))
	}

	obj := game_object.NewGameObject(options...)
	for _, childIdx := range node.Children {
		child, err := b.buildNode(childIdx)
		if err != nil {
			return nil, err
		}
		if err := obj.AddChild(child); err != nil {
			return nil, fmt.Errorf("node %d child %d: %w", idx, childIdx, err)
		}
	}

	return obj, nil
}

// modelFor returns the shared model for a mesh, building it on first use.
func (b *gltfSceneBuild) modelFor(meshIdx int) (model.Model, error) {
	if m, ok := b.models[meshIdx]; ok {
		return m, nil
	}
	if meshIdx < 0 || meshIdx >= len(b.doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIdx)
	}

	mesh := &b.doc.Meshes[meshIdx]
	materials := make([]common.AssetRef, 0, len(mesh.Primitives))
	bounds := common.EmptyAABB()
	hasPositions := false
	for i := range mesh.Primitives {
		prim := &mesh.Primitives[i]
		materials = append(materials, b.materialRef(prim.Material))

		pb, ok, err := gltfPrimitiveBounds(b.parser, prim)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIdx, i, err)
		}
		if ok {
			bounds = bounds.Union(pb)
			hasPositions = true
		}
	}
	if !hasPositions {
		log.Printf("[Loader] mesh %q has no POSITION data, using a point at the origin", gltfLabel(mesh.Name, meshIdx))
		bounds = common.AABB{}
	}

	m := model.NewModel(
		model.WithName(gltfLabel(mesh.Name, meshIdx)),
		model.WithMesh(b.ref("mesh", mesh.Name, meshIdx)),
		model.WithMaterials(materials...),
		model.WithLocalBounds(bounds),
	)
	b.models[meshIdx] = m
	return m, nil
}

// materialRef names a primitive's material slot.
func (b *gltfSceneBuild) materialRef(idx *int) common.AssetRef {
	if idx == nil || *idx < 0 || *idx >= len(b.doc.Materials) {
		return common.AssetRef(b.source + "#material/default")
	}
	return b.ref("material", b.doc.Materials[*idx].Name, *idx)
}

// ref names a mesh or material by document index, so equally named entries stay distinct.
// The name, when present, follows the index: "<source>#mesh/3:Rock".
func (b *gltfSceneBuild) ref(kind, name string, idx int) common.AssetRef {
	id := strconv.Itoa(idx)
	if name != "" {
		id += ":" + name
	}
	return common.AssetRef(b.source + "#" + kind + "/" + id)
}

// gltfPrimitiveBounds returns the POSITION bounds of a primitive, preferring accessor min/max.
func gltfPrimitiveBounds(parser gltfParser, prim *gltfPrimitive) (common.AABB, bool, error) {
	accIdx, ok := prim.Attributes[gltfAttributePosition]
	if !ok {
		return common.AABB{}, false, nil
	}
	doc := parser.Document()
	if accIdx < 0 || accIdx >= len(doc.Accessors) {
		return common.AABB{}, false, fmt.Errorf("POSITION accessor %d out of range", accIdx)
	}

	acc := &doc.Accessors[accIdx]
	if len(acc.Min) == 3 && len(acc.Max) == 3 {
		return common.AABB{
			Min: [3]float32{acc.Min[0], acc.Min[1], acc.Min[2]},
			Max: [3]float32{acc.Max[0], acc.Max[1], acc.Max[2]},
		}, true, nil
	}

	positions, err := parser.ReadVec3Accessor(accIdx)
	if err != nil {
		return common.AABB{}, false, err
	}
	if len(positions) == 0 {
		return common.AABB{}, false, nil
	}
	return gltfCalculateBoundingBox(positions), true, nil
}

// gltfCalculateBoundingBox computes the bounds of a set of positions.
func gltfCalculateBoundingBox(positions [][3]float32) common.AABB {
	box := common.EmptyAABB()
	for _, p := range positions {
		box = box.Extend(p)
	}
	return box
}

// gltfRootNodes returns the root node indices of the default scene, or every
// parentless node when the document declares no scenes.
func gltfRootNodes(doc *gltfDocument) ([]int, error) {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil {
			idx = *doc.Scene
		}
		if idx < 0 || idx >= len(doc.Scenes) {
			return nil, fmt.Errorf("default scene index %d out of range", idx)
		}
		return doc.Scenes[idx].Nodes, nil
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	roots := make([]int, 0)
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

// gltfExtractNodeTransform reads the TRS of a node, defaulting absent parts to identity.
func gltfExtractNodeTransform(node *gltfNode) model.Transform {
	t := model.IdentityTransform()
	if node.Translation != nil {
		t.Translation = *node.Translation
	}
	if node.Rotation != nil {
		t.Rotation = *node.Rotation
	}
	if node.Scale != nil {
		t.Scale = *node.Scale
	}
	return t
}

// gltfExtractSceneName derives a scene name from the default scene or the source file name.
func gltfExtractSceneName(doc *gltfDocument, source string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}

	if source != "" {
		base := filepath.Base(source)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}

	return "unnamed_scene"
}

func gltfNodeName(node *gltfNode, idx int) string {
	if node.Name != "" {
		return node.Name
	}
	return "node_" + strconv.Itoa(idx)
}

func gltfLabel(name string, idx int) string {
	if name != "" {
		return name
	}
	return strconv.Itoa(idx)
}
