package dataset

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

const digestPrefix = "blake2b-256:"

// Manifest is the human-readable companion of a dataset file.
type Manifest struct {
	Scene         string        `yaml:"scene"`
	Roots         []string      `yaml:"roots,omitempty"`
	Dataset       string        `yaml:"dataset"`
	FormatVersion uint32        `yaml:"format_version"`
	Bytes         int           `yaml:"bytes"`
	Digest        string        `yaml:"digest"`
	Totals        Totals        `yaml:"totals"`
	Draws         []DrawSummary `yaml:"draws"`
}

// Totals counts the records in a dataset.
type Totals struct {
	Draws     int `yaml:"draws"`
	Clusters  int `yaml:"clusters"`
	Materials int `yaml:"material_slots"`
	Strings   int `yaml:"strings"`
}

// DrawSummary describes one draw of a dataset.
type DrawSummary struct {
	Mesh      string     `yaml:"mesh"`
	Materials []string   `yaml:"materials,omitempty"`
	Clusters  int        `yaml:"clusters"`
	BoundsMin [3]float32 `yaml:"bounds_min,flow"`
	BoundsMax [3]float32 `yaml:"bounds_max,flow"`
}

// Digest returns the blake2b-256 digest of encoded dataset bytes in manifest form.
func Digest(encoded []byte) string {
	sum := blake2b.Sum256(encoded)
	return digestPrefix + hex.EncodeToString(sum[:])
}

// Summaries lists the draws of the dataset in file order.
func (d *Dataset) Summaries() []DrawSummary {
	out := make([]DrawSummary, 0, len(d.Draws))
	for i := range d.Draws {
		var materials []string
		if d.Draws[i].MaterialCount > 0 {
			materials = d.Materials(i)
		}
		out = append(out, DrawSummary{
			Mesh:      d.Mesh(i),
			Materials: materials,
			Clusters:  int(d.Draws[i].ClusterCount),
			BoundsMin: d.Draws[i].BoundsMin,
			BoundsMax: d.Draws[i].BoundsMax,
		})
	}
	return out
}

// Totals counts the records of the dataset.
func (d *Dataset) Totals() Totals {
	return Totals{
		Draws:     len(d.Draws),
		Clusters:  len(d.Clusters),
		Materials: len(d.MaterialSlots),
		Strings:   len(d.Strings),
	}
}

// NewManifest describes a dataset and the encoded bytes written for it.
//
// Parameters:
//   - scene: the source scene path
//   - roots: the configured root paths, in order
//   - datasetPath: where the dataset file was written
//   - d: the dataset
//   - encoded: the bytes produced by d.MarshalBinary
//
// Returns:
//   - *Manifest: the manifest
func NewManifest(scene string, roots []string, datasetPath string, d *Dataset, encoded []byte) *Manifest {
	return &Manifest{
		Scene:         scene,
		Roots:         append([]string(nil), roots...),
		Dataset:       datasetPath,
		FormatVersion: FormatVersion,
		Bytes:         len(encoded),
		Digest:        Digest(encoded),
		Totals:        d.Totals(),
		Draws:         d.Summaries(),
	}
}

// WriteTo writes the manifest as YAML.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return 0, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("failed to encode manifest: %w", err)
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// ReadManifest parses a YAML manifest.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

// Verify checks encoded dataset bytes against the manifest digest.
func (m *Manifest) Verify(encoded []byte) error {
	if m.Digest == "" {
		return ErrDigestMissing
	}
	if got := Digest(encoded); got != m.Digest {
		return fmt.Errorf("%w: manifest %s, data %s", ErrDigestMismatch, m.Digest, got)
	}
	return nil
}
