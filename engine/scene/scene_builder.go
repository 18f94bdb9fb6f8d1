package scene

import (
	"github.com/Carmen-Shannon/oxy-hiz/engine/game_object"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithSource records the file path or stream name the scene was loaded from.
//
// Parameters:
//   - source: the scene source
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSource(source string) SceneBuilderOption {
	return func(s *scene) {
		s.source = source
	}
}

// WithObjects adds initial root objects to the scene.
// Objects (and descendants) without IDs will be assigned new IDs.
//
// Parameters:
//   - objects: the root objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			if obj != nil {
				s.addLocked(obj)
			}
		}
	}
}
