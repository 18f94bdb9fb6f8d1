package main

import (
	"github.com/Carmen-Shannon/oxy-hiz/engine/config"
	"github.com/spf13/cobra"
)

// bakeFlags are the command-line overrides of a config file.
type bakeFlags struct {
	configPath    string
	scene         string
	roots         []string
	out           string
	workers       int
	noManifest    bool
	gpuCheck      bool
	forceFallback bool
}

func (f *bakeFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "TOML config file")
	fs.StringVarP(&f.scene, "scene", "s", "", "glTF/GLB scene to bake")
	fs.StringArrayVarP(&f.roots, "root", "r", nil, "root object path (repeatable, \"\" keeps an absent slot)")
	fs.StringVarP(&f.out, "out", "o", "", "dataset output path (default <scene>_hiz_data.hiz)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "collection workers (default number of CPUs)")
	fs.BoolVar(&f.noManifest, "no-manifest", false, "do not write the YAML manifest")
	fs.BoolVar(&f.gpuCheck, "gpu-check", false, "upload the dataset to a headless WebGPU device")
	fs.BoolVar(&f.forceFallback, "force-fallback", false, "use the software adapter for --gpu-check")
}

// resolve loads the config file, if any, and applies every flag the user set.
func (f *bakeFlags) resolve(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if len(args) > 0 {
		cfg.Scene = args[0]
	}
	if changed("scene") {
		cfg.Scene = f.scene
	}
	if changed("root") {
		cfg.Roots = append([]string(nil), f.roots...)
	}
	if changed("out") {
		cfg.Out = f.out
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("no-manifest") {
		cfg.NoManifest = f.noManifest
	}
	if changed("gpu-check") {
		cfg.GPU.Check = f.gpuCheck
	}
	if changed("force-fallback") {
		cfg.GPU.ForceFallback = f.forceFallback
	}
	return cfg, nil
}
