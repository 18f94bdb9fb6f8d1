package loader

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-hiz/engine/scene"
	"golang.org/x/sync/singleflight"
)

// LoaderBackendType identifies the scene file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	sceneCache map[string]scene.Scene

	// inflight collapses concurrent loads of the same path into one import.
	inflight singleflight.Group

	backend loaderBackend
}

// Loader defines the public-facing interface for loading and caching scenes.
// It abstracts the file format behind a backend and keeps every loaded scene
// until it is evicted.
type Loader interface {
	// LoadScene imports a scene file and caches the result by path. Concurrent calls for one path
	// share a single import. The backend is selected by extension (.gltf/.glb).
	//
	// Parameters:
	//   - path: the file path to the scene file
	//
	// Returns:
	//   - scene.Scene: the loaded scene, or the cached one for a repeated path
	//   - error: error if loading fails
	LoadScene(path string) (scene.Scene, error)

	// LoadSceneReader imports a scene from a reader stream and caches it by name.
	// Relative buffer URIs are resolved against the directory of name.
	//
	// Parameters:
	//   - name: the cache key and source name of the scene
	//   - r: the reader providing scene data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - scene.Scene: the loaded scene
	//   - error: error if loading fails
	LoadSceneReader(name string, r io.Reader, isGLB bool) (scene.Scene, error)

	// Get retrieves a cached scene by name. Returns nil if not found.
	Get(name string) scene.Scene

	// Scenes returns a copy of the scene cache keyed by name.
	Scenes() map[string]scene.Scene

	// Evict drops a cached scene so the next load reads it again.
	//
	// Parameters:
	//   - name: the cache key to drop
	//
	// Returns:
	//   - bool: true if a scene was cached under name
	Evict(name string) bool
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		sceneCache: make(map[string]scene.Scene),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) LoadScene(path string) (scene.Scene, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	v, err, _ := l.inflight.Do(path, func() (any, error) {
		if cached := l.Get(path); cached != nil {
			return cached, nil
		}

		s, err := backend.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		log.Printf("[Loader] loaded %s: %d roots, %d objects", path, len(s.Roots()), s.ObjectCount())

		l.mu.Lock()
		l.sceneCache[path] = s
		l.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(scene.Scene), nil
}

func (l *loader) LoadSceneReader(name string, r io.Reader, isGLB bool) (scene.Scene, error) {
	if l.backend == nil {
		return nil, fmt.Errorf("no loader backend configured")
	}

	s, err := l.backend.LoadReader(name, r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	l.mu.Lock()
	l.sceneCache[name] = s
	l.mu.Unlock()

	return s, nil
}

func (l *loader) Get(name string) scene.Scene {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sceneCache[name]
}

func (l *loader) Scenes() map[string]scene.Scene {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]scene.Scene, len(l.sceneCache))
	for k, v := range l.sceneCache {
		out[k] = v
	}
	return out
}

func (l *loader) Evict(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.sceneCache[name]
	delete(l.sceneCache, name)
	return ok
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		if l.backend == nil {
			return nil, fmt.Errorf("no loader backend configured for %s", ext)
		}
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported scene format: %s", ext)
	}
}
