package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Carmen-Shannon/oxy-hiz/common"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

const (
	// DatasetSuffix is appended to the scene base name to form the default output file.
	DatasetSuffix = "_hiz_data.hiz"

	// ManifestSuffix replaces the dataset extension to form the manifest path.
	ManifestSuffix = ".manifest.yaml"
)

var (
	ErrNoScene     = errors.New("no scene configured")
	ErrBadWorkers  = errors.New("workers must be at least 1")
	ErrEmptyConfig = errors.New("config path is empty")
)

// Config describes one bake.
type Config struct {
	// Scene is the glTF/GLB file to bake.
	Scene string `toml:"scene"`

	// Roots are "A/B/C" object paths; an empty or unresolved path is an absent root.
	// No roots means every root of the scene.
	Roots []string `toml:"roots,omitempty"`

	// Out is the dataset path; empty derives <scene>_hiz_data.hiz next to the scene.
	Out string `toml:"out,omitempty"`

	// Workers is the number of collection workers.
	Workers int `toml:"workers,omitempty"`

	NoManifest bool `toml:"no_manifest,omitempty"`

	GPU     GPUConfig     `toml:"gpu"`
	Terrain TerrainConfig `toml:"terrain"`
}

// GPUConfig controls the optional upload check.
type GPUConfig struct {
	Check         bool `toml:"check"`
	ForceFallback bool `toml:"force_fallback"`
}

// TerrainConfig is forwarded to the terrain-aware collection entry point.
type TerrainConfig struct {
	ConvertTrees   bool `toml:"convert_trees"`
	ConvertDetails bool `toml:"convert_details"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Workers: runtime.NumCPU(),
	}
}

// Load reads a TOML config file. Unknown keys are rejected, "~" is expanded in every path and
// relative scene and output paths are resolved against the config file's directory.
//
// Parameters:
//   - path: the config file path, "~" allowed
//
// Returns:
//   - Config: the configuration with defaults filled in
//   - error: error if the file cannot be read or decoded
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, ErrEmptyConfig
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to expand %s: %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(expanded)
	cfg.Scene = resolve(base, cfg.Scene)
	cfg.Out = resolve(base, cfg.Out)
	return cfg, nil
}

// Parse decodes TOML config bytes and fills defaults. Paths are "~"-expanded but not resolved.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			keys := make([]string, 0, len(strict.Errors))
			for i := range strict.Errors {
				keys = append(keys, strings.Join(strict.Errors[i].Key(), "."))
			}
			return Config{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
		}
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	defaults := Default()
	cfg.Workers = common.Coalesce(cfg.Workers, defaults.Workers)

	var err error
	if cfg.Scene, err = expandHome(cfg.Scene); err != nil {
		return Config{}, err
	}
	if cfg.Out, err = expandHome(cfg.Out); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes the configuration as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate reports a configuration that cannot be baked.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Scene) == "" {
		return ErrNoScene
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: %d", ErrBadWorkers, c.Workers)
	}
	return nil
}

// OutputPath is Out, or the default dataset path derived from Scene.
func (c Config) OutputPath() string {
	return common.Coalesce(c.Out, DefaultOutputPath(c.Scene))
}

// ManifestPath is the manifest written next to the dataset, or "" when manifests are disabled.
func (c Config) ManifestPath() string {
	if c.NoManifest {
		return ""
	}
	return ManifestPathFor(c.OutputPath())
}

// DefaultOutputPath derives "<dir>/<name>_hiz_data.hiz" from a scene path.
func DefaultOutputPath(scene string) string {
	if scene == "" {
		return ""
	}
	base := filepath.Base(scene)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scene), name+DatasetSuffix)
}

// ManifestPathFor derives the manifest path of a dataset file.
func ManifestPathFor(datasetPath string) string {
	return strings.TrimSuffix(datasetPath, filepath.Ext(datasetPath)) + ManifestSuffix
}

func expandHome(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	out, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", p, err)
	}
	return out, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
