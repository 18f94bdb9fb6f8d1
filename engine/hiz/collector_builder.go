package hiz

import (
	"time"
)

// poolIdleTimeout is handed to the per-call traversal pool. Workers exit when the pool is stopped
// at the end of the call.
const poolIdleTimeout = 1 * time.Second

// CollectorBuilderOption is a functional option for configuring a DrawBucketCollector.
type CollectorBuilderOption func(*drawBucketCollector)

// WithWorkers sets how many roots are traversed concurrently. Values below 1 are treated as 1
// (sequential). Output does not depend on the worker count.
//
// Parameters:
//   - n: the number of traversal workers
//
// Returns:
//   - CollectorBuilderOption: functional option to set the worker count
func WithWorkers(n int) CollectorBuilderOption {
	return func(c *drawBucketCollector) {
		c.workers = n
	}
}
