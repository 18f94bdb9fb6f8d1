package scene

import (
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-hiz/engine/game_object"
	"github.com/Carmen-Shannon/oxy-hiz/engine/hiz"
)

// Scene holds a forest of root GameObjects loaded from a scene file (or built by hand) and
// resolves collection roots by path. It assigns IDs to objects as they are added.
// Thread-safe for concurrent access; the object hierarchy itself must not be mutated while a
// collection pass is running.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Source returns the path or name the scene was loaded from, or "" for hand-built scenes.
	Source() string

	// Roots returns the top-level objects in order.
	//
	// Returns:
	//   - []game_object.GameObject: the roots
	Roots() []game_object.GameObject

	// Add appends a root object and assigns IDs to it and every descendant with ID 0.
	//
	// Parameters:
	//   - obj: the root object to add
	Add(obj game_object.GameObject)

	// Find resolves a "/"-separated name path starting at a root name, e.g. "Level/Props".
	// When several objects share a name the first in order wins.
	//
	// Parameters:
	//   - path: the object path
	//
	// Returns:
	//   - game_object.GameObject: the object, or nil if the path does not resolve
	Find(path string) game_object.GameObject

	// ResolveRoots maps each path to a collection root. Empty or unresolved paths become nil
	// entries (absent roots), keeping the slot positions of the input.
	//
	// Parameters:
	//   - paths: the root paths
	//
	// Returns:
	//   - []hiz.SceneNode: one entry per path
	//   - []string: the paths that did not resolve (empty slots excluded)
	ResolveRoots(paths []string) ([]hiz.SceneNode, []string)

	// Walk visits every object of every root depth-first pre-order.
	//
	// Parameters:
	//   - fn: the visitor; returning false skips the object's children
	Walk(fn func(game_object.GameObject) bool)

	// ObjectCount returns the total number of objects in the scene.
	ObjectCount() int
}

type scene struct {
	mu     *sync.RWMutex
	name   string
	source string
	roots  []game_object.GameObject
	nextID uint64
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene with the given name and options.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:     &sync.RWMutex{},
		name:   name,
		nextID: 1,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

func (s *scene) Roots() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]game_object.GameObject(nil), s.roots...)
}

func (s *scene) Add(obj game_object.GameObject) {
	if obj == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(obj)
}

func (s *scene) addLocked(obj game_object.GameObject) {
	obj.Walk(func(o game_object.GameObject) bool {
		if o.ID() == 0 {
			o.SetID(s.nextID)
			s.nextID++
		}
		return true
	})
	s.roots = append(s.roots, obj)
}

func (s *scene) Find(path string) game_object.GameObject {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	head, rest, _ := strings.Cut(path, "/")

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, root := range s.roots {
		if root.Name() != head {
			continue
		}
		if rest == "" {
			return root
		}
		if found := root.FindChild(rest); found != nil {
			return found
		}
	}
	return nil
}

func (s *scene) ResolveRoots(paths []string) ([]hiz.SceneNode, []string) {
	nodes := make([]hiz.SceneNode, len(paths))
	var missing []string
	for i, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		// Assign only non-nil objects so a missing root stays a nil interface.
		if obj := s.Find(p); obj != nil {
			nodes[i] = obj
		} else {
			missing = append(missing, p)
		}
	}
	return nodes, missing
}

func (s *scene) Walk(fn func(game_object.GameObject) bool) {
	for _, root := range s.Roots() {
		root.Walk(fn)
	}
}

func (s *scene) ObjectCount() int {
	n := 0
	s.Walk(func(game_object.GameObject) bool {
		n++
		return true
	})
	return n
}
