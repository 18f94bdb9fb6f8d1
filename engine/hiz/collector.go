package hiz

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// drawBucketCollector is the implementation of the DrawBucketCollector interface.
type drawBucketCollector struct {
	workers int
}

// DrawBucketCollector walks a forest of scene roots and groups every renderable instance into
// draw buckets keyed by mesh and material count. Each call is independent: no state is kept
// between calls, no goroutine survives a call, and a fresh CollectionResult is returned.
type DrawBucketCollector interface {
	// Collect traverses the roots in order and returns the draw buckets.
	// Nil roots are skipped. Renderables without a mesh are skipped. A malformed world bound
	// aborts the pass: the error wraps an *InvalidBoundsError and the result is nil.
	//
	// Parameters:
	//   - roots: the scene roots, possibly containing nil entries
	//
	// Returns:
	//   - *CollectionResult: the buckets, or nil on error
	//   - error: wrapped *InvalidBoundsError if any bound is malformed
	Collect(roots []SceneNode) (*CollectionResult, error)

	// CollectTerrain is the terrain-aware entry point. Terrain conversion is not implemented;
	// the options are accepted and the result is identical to Collect.
	//
	// Parameters:
	//   - roots: the scene roots, possibly containing nil entries
	//   - opts: terrain conversion options
	//
	// Returns:
	//   - *CollectionResult: the buckets, or nil on error
	//   - error: wrapped *InvalidBoundsError if any bound is malformed
	CollectTerrain(roots []SceneNode, opts TerrainOptions) (*CollectionResult, error)

	// Workers returns the number of roots traversed concurrently (1 = sequential).
	Workers() int
}

var _ DrawBucketCollector = &drawBucketCollector{}

// NewDrawBucketCollector creates a collector configured with the given options.
// By default the collector is sequential.
//
// Parameters:
//   - options: functional options to configure the collector
//
// Returns:
//   - DrawBucketCollector: the collector
func NewDrawBucketCollector(options ...CollectorBuilderOption) DrawBucketCollector {
	c := &drawBucketCollector{
		workers: 1,
	}
	for _, option := range options {
		option(c)
	}
	if c.workers < 1 {
		c.workers = 1
	}
	return c
}

func (c *drawBucketCollector) Workers() int {
	return c.workers
}

func (c *drawBucketCollector) Collect(roots []SceneNode) (*CollectionResult, error) {
	if c.workers == 1 || countPresent(roots) < 2 {
		return c.collectSequential(roots)
	}
	return c.collectParallel(roots)
}

func (c *drawBucketCollector) CollectTerrain(roots []SceneNode, opts TerrainOptions) (*CollectionResult, error) {
	return c.Collect(roots)
}

func (c *drawBucketCollector) collectSequential(roots []SceneNode) (*CollectionResult, error) {
	result := NewCollectionResult()
	for i, root := range roots {
		if root == nil {
			continue
		}
		if err := collectRoot(result, root); err != nil {
			return nil, fmt.Errorf("collect root %d: %w", i, err)
		}
	}
	return result, nil
}

// collectParallel traverses each root into its own partial result on a worker pool owned by this
// call, then merges the partials in root order. The merged result is identical to the sequential
// pass: a key first seen in an earlier root is created first, and entries keep root order.
// The pool is stopped before returning, so no goroutine outlives the call.
func (c *drawBucketCollector) collectParallel(roots []SceneNode) (*CollectionResult, error) {
	pool := worker.NewDynamicWorkerPool(c.workers, len(roots)+c.workers, poolIdleTimeout)
	defer pool.Stop()

	partials := make([]*CollectionResult, len(roots))
	errs := make([]error, len(roots))

	var wg sync.WaitGroup
	for i, root := range roots {
		if root == nil {
			continue
		}
		wg.Add(1)
		idx, r := i, root // capture for closure
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				partial := NewCollectionResult()
				if err := collectRoot(partial, r); err != nil {
					errs[idx] = err
					return nil, nil
				}
				partials[idx] = partial
				return nil, nil
			},
		})
	}
	wg.Wait()

	// Report the first failing root in input order so the error does not depend on scheduling.
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("collect root %d: %w", i, err)
		}
	}

	result := NewCollectionResult()
	for _, partial := range partials {
		if partial != nil {
			result.merge(partial)
		}
	}
	return result, nil
}

// collectRoot routes every drawable renderable under root into result.
func collectRoot(result *CollectionResult, root SceneNode) error {
	for _, r := range root.Renderables() {
		if r == nil {
			continue
		}
		mesh, ok := r.Mesh()
		if !ok || !mesh.Valid() {
			continue
		}
		materials := r.Materials()
		key := NewDrawKey(mesh, materials)

		bucket := result.bucketFor(key, mesh, materials)
		if err := bucket.AddEntry(r.WorldBounds(), r.WorldTransform()); err != nil {
			return err
		}
	}
	return nil
}

func countPresent(roots []SceneNode) int {
	n := 0
	for _, r := range roots {
		if r != nil {
			n++
		}
	}
	return n
}
