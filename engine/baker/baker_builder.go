package baker

import (
	"github.com/Carmen-Shannon/oxy-hiz/engine/loader"
)

// BakerBuilderOption is a functional option for configuring a Baker via NewBaker.
type BakerBuilderOption func(*baker)

// WithLoader sets the scene loader. Defaults to a glTF loader.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - BakerBuilderOption: a function that applies the loader option to a baker
func WithLoader(l loader.Loader) BakerBuilderOption {
	return func(b *baker) {
		b.loader = l
	}
}

// WithUploaderFactory replaces how the GPU check creates its uploader.
//
// Parameters:
//   - f: the factory
//
// Returns:
//   - BakerBuilderOption: a function that applies the factory option to a baker
func WithUploaderFactory(f UploaderFactory) BakerBuilderOption {
	return func(b *baker) {
		if f != nil {
			b.newUploader = f
		}
	}
}

// WithQuiet turns off per-stage profiler logging.
func WithQuiet(quiet bool) BakerBuilderOption {
	return func(b *baker) {
		b.silent = quiet
	}
}
