package loader

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// supportedGLTFVersions is the range of asset versions the parser accepts.
const supportedGLTFVersions = ">= 2.0, < 3.0"

// vec3Size is the byte size of one VEC3 FLOAT element.
const vec3Size = 12

var (
	ErrUnsupportedGLTFVersion = errors.New("unsupported glTF version")

	errGLBTooSmall        = errors.New("GLB file too small")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
	errNoDocument         = errors.New("no document loaded")
)

var gltfVersionConstraint = mustConstraint(supportedGLTFVersions)

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	baseDir  string
	document *gltfDocument
	binChunk []byte
}

// gltfParser reads glTF JSON or GLB data into a document with every buffer loaded, and decodes
// the accessors the importer needs for bounds.
type gltfParser interface {
	// Parse loads a glTF/GLB file. GLB is detected by extension or by the magic number.
	//
	// Parameters:
	//   - path: path to the glTF or GLB file
	//
	// Returns:
	//   - error: error if reading, decoding, version checks or buffer loading fail
	Parse(path string) error

	// ParseReader parses a glTF document from a reader.
	// External buffer URIs are resolved against baseDir.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//   - isGLB: true if the data is in GLB format
	//   - baseDir: directory used for relative buffer URIs, may be empty
	//
	// Returns:
	//   - error: error if parsing fails
	ParseReader(r io.Reader, isGLB bool, baseDir string) error

	// Document returns the parsed glTF document, or nil before a successful parse.
	Document() *gltfDocument

	// ReadVec3Accessor decodes a VEC3 FLOAT accessor, applying sparse substitution when present.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - [][3]float32: one element per accessor count
	//   - error: error if the accessor is not VEC3 FLOAT or reads outside its buffer
	ReadVec3Accessor(accessorIndex int) ([][3]float32, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser instance.
//
// Returns:
//   - gltfParser: a new parser instance
func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) Parse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	isGLB := strings.EqualFold(filepath.Ext(path), ".glb") ||
		(len(data) >= 4 && binary.LittleEndian.Uint32(data) == gltfGLBMagic)
	return p.parse(data, isGLB, filepath.Dir(path))
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool, baseDir string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	return p.parse(data, isGLB, baseDir)
}

// parse decodes the document, checks its version and resolves every buffer.
func (p *gltfParserImpl) parse(data []byte, isGLB bool, baseDir string) error {
	p.baseDir = baseDir
	p.binChunk = nil

	jsonData := data
	if isGLB {
		var err error
		if jsonData, p.binChunk, err = splitGLB(data); err != nil {
			return err
		}
	}

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if err := validateGLTFVersion(doc.Asset); err != nil {
		return err
	}
	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}

	p.document = &doc
	return nil
}

// splitGLB walks the chunks of a GLB container and returns the JSON chunk and the first BIN chunk.
// Unknown chunk types are skipped.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func splitGLB(data []byte) (jsonChunk, binChunk []byte, err error) {
	if len(data) < gltfGLBHeaderSize {
		return nil, nil, errGLBTooSmall
	}
	header := gltfGLBHeader{
		Magic:   binary.LittleEndian.Uint32(data[0:]),
		Version: binary.LittleEndian.Uint32(data[4:]),
		Length:  binary.LittleEndian.Uint32(data[8:]),
	}
	if header.Magic != gltfGLBMagic {
		return nil, nil, errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return nil, nil, errInvalidGLBVersion
	}
	if header.Length < gltfGLBHeaderSize {
		return nil, nil, errGLBTooSmall
	}
	if int64(header.Length) < int64(len(data)) {
		data = data[:header.Length]
	}

	rest := data[gltfGLBHeaderSize:]
	for len(rest) > 0 {
		if len(rest) < gltfGLBChunkHeaderSize {
			return nil, nil, fmt.Errorf("truncated chunk header: %d bytes left", len(rest))
		}
		chunk := gltfGLBChunkHeader{
			ChunkLength: binary.LittleEndian.Uint32(rest[0:]),
			ChunkType:   binary.LittleEndian.Uint32(rest[4:]),
		}
		rest = rest[gltfGLBChunkHeaderSize:]
		if int64(chunk.ChunkLength) > int64(len(rest)) {
			return nil, nil, fmt.Errorf("chunk length %d exceeds remaining %d bytes", chunk.ChunkLength, len(rest))
		}

		body := rest[:chunk.ChunkLength]
		rest = rest[chunk.ChunkLength:]
		switch {
		case chunk.ChunkType == gltfGLBChunkJSON && jsonChunk == nil:
			jsonChunk = body
		case chunk.ChunkType == gltfGLBChunkBIN && binChunk == nil:
			binChunk = body
		}
	}

	if jsonChunk == nil {
		return nil, nil, errMissingJSONChunk
	}
	return jsonChunk, binChunk, nil
}

// validateGLTFVersion checks asset.version and asset.minVersion against the supported range.
func validateGLTFVersion(asset gltfAsset) error {
	if asset.Version == "" {
		return fmt.Errorf("%w: asset.version is missing", ErrUnsupportedGLTFVersion)
	}
	for _, raw := range []string{asset.Version, asset.MinVersion} {
		if raw == "" {
			continue
		}
		v, err := semver.NewVersion(raw)
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrUnsupportedGLTFVersion, raw, err)
		}
		if !gltfVersionConstraint.Check(v) {
			return fmt.Errorf("%w: %s (want %s)", ErrUnsupportedGLTFVersion, v, supportedGLTFVersions)
		}
	}
	return nil
}

// loadBuffers fills Data for every buffer. A buffer without a URI is the GLB BIN chunk, which
// only the first buffer may reference.
func (p *gltfParserImpl) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		var err error
		switch {
		case buf.URI != "":
			buf.Data, err = p.loadBufferURI(buf.URI)
		case i == 0 && p.binChunk != nil:
			buf.Data = p.binChunk
		default:
			err = errors.New("no URI and no GLB binary chunk")
		}
		if err != nil {
			return fmt.Errorf("buffer %d: %w", i, err)
		}
		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w: have %d bytes, want %d", i, errBufferSizeMismatch, len(buf.Data), buf.ByteLength)
		}
	}
	return nil
}

// loadBufferURI returns the bytes behind a data: URI or a path relative to the document.
func (p *gltfParserImpl) loadBufferURI(uri string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(uri, "data:"); ok {
		// data:[<mediatype>][;base64],<data>
		header, payload, found := strings.Cut(rest, ",")
		if !found {
			return nil, errInvalidBufferURI
		}
		if !strings.HasSuffix(header, ";base64") {
			return nil, fmt.Errorf("unsupported data URI encoding: %s", header)
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(filepath.Join(p.baseDir, filepath.FromSlash(uri)))
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer file %q: %w", uri, err)
	}
	return data, nil
}

func (p *gltfParserImpl) ReadVec3Accessor(accessorIndex int) ([][3]float32, error) {
	if p.document == nil {
		return nil, errNoDocument
	}
	if accessorIndex < 0 || accessorIndex >= len(p.document.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}

	acc := &p.document.Accessors[accessorIndex]
	if acc.Type != gltfAccessorTypeVec3 || acc.ComponentType != gltfComponentTypeFloat {
		return nil, fmt.Errorf("accessor %d is not VEC3 FLOAT: type=%s, componentType=%d", accessorIndex, acc.Type, acc.ComponentType)
	}

	out := make([][3]float32, acc.Count)
	if acc.BufferView != nil {
		elems, err := p.strided(*acc.BufferView, acc.ByteOffset, vec3Size, acc.Count)
		if err != nil {
			return nil, fmt.Errorf("accessor %d: %w", accessorIndex, err)
		}
		for i := range out {
			out[i] = gltfDecodeVec3(elems.at(i))
		}
	}

	if acc.Sparse != nil {
		if err := p.applySparseVec3(acc.Sparse, out); err != nil {
			return nil, fmt.Errorf("accessor %d sparse: %w", accessorIndex, err)
		}
	}
	return out, nil
}

// applySparseVec3 overwrites the elements named by the sparse index list.
func (p *gltfParserImpl) applySparseVec3(sparse *gltfAccessorSparse, out [][3]float32) error {
	indexSize := gltfIndexSize(sparse.Indices.ComponentType)
	if indexSize == 0 {
		return fmt.Errorf("unsupported index componentType %d", sparse.Indices.ComponentType)
	}
	indices, err := p.strided(sparse.Indices.BufferView, sparse.Indices.ByteOffset, indexSize, sparse.Count)
	if err != nil {
		return fmt.Errorf("indices: %w", err)
	}
	values, err := p.strided(sparse.Values.BufferView, sparse.Values.ByteOffset, vec3Size, sparse.Count)
	if err != nil {
		return fmt.Errorf("values: %w", err)
	}

	for i := 0; i < sparse.Count; i++ {
		target := gltfDecodeIndex(indices.at(i))
		if target >= uint64(len(out)) {
			return fmt.Errorf("index %d out of range for %d elements", target, len(out))
		}
		out[target] = gltfDecodeVec3(values.at(i))
	}
	return nil
}

// stridedElements is a run of fixed-size elements inside a loaded buffer.
type stridedElements struct {
	data   []byte
	offset int
	stride int
	size   int
}

func (s stridedElements) at(i int) []byte {
	start := s.offset + i*s.stride
	return s.data[start : start+s.size]
}

// strided bounds-checks count elements of elemSize bytes starting at byteOffset into a buffer view.
// The view's byteStride applies when set.
func (p *gltfParserImpl) strided(viewIndex, byteOffset, elemSize, count int) (stridedElements, error) {
	doc := p.document
	if viewIndex < 0 || viewIndex >= len(doc.BufferViews) {
		return stridedElements{}, fmt.Errorf("bufferView index %d out of range", viewIndex)
	}
	bv := &doc.BufferViews[viewIndex]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return stridedElements{}, fmt.Errorf("buffer index %d out of range", bv.Buffer)
	}

	s := stridedElements{
		data:   doc.Buffers[bv.Buffer].Data,
		offset: bv.ByteOffset + byteOffset,
		stride: elemSize,
		size:   elemSize,
	}
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		s.stride = *bv.ByteStride
	}
	if s.offset < 0 || count < 0 {
		return stridedElements{}, fmt.Errorf("bufferView %d: negative offset or count", viewIndex)
	}
	if count > 0 && s.offset+(count-1)*s.stride+elemSize > len(s.data) {
		return stridedElements{}, fmt.Errorf("bufferView %d: reads past end of buffer %d", viewIndex, bv.Buffer)
	}
	return s, nil
}

func gltfDecodeVec3(b []byte) [3]float32 {
	return [3]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}

// gltfIndexSize returns the byte size of a sparse index component type, or 0 if it is not allowed.
func gltfIndexSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt:
		return 4
	default:
		return 0
	}
}

func gltfDecodeIndex(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	default:
		return uint64(binary.LittleEndian.Uint32(b))
	}
}
