package profiler

import (
	"log"
	"runtime"
	"sync"
	"time"
)

// Stage is the measurement of one named bake stage.
type Stage struct {
	Name     string
	Duration time.Duration

	// AllocBytes is the heap allocated while the stage ran (TotalAlloc delta).
	AllocBytes uint64

	// GCs is the number of collections that completed while the stage ran.
	GCs uint32
}

// Profiler times the stages of a bake and records their allocation churn.
// Each finished stage is logged; Summary logs the whole run.
type Profiler struct {
	mu       sync.Mutex
	started  time.Time
	stages   []Stage
	memStats runtime.MemStats
	silent   bool
}

// NewProfiler creates a new Profiler whose run starts now.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		started:  time.Now(),
		memStats: runtime.MemStats{},
	}
}

// Silence stops per-stage logging. Stages are still recorded.
func (p *Profiler) Silence() *Profiler {
	p.silent = true
	return p
}

// Begin starts timing a stage. The returned function ends it; calling it more than once has no
// further effect.
//
// Parameters:
//   - name: the stage name
//
// Returns:
//   - func(): ends the stage and records it
func (p *Profiler) Begin(name string) func() {
	p.mu.Lock()
	runtime.ReadMemStats(&p.memStats)
	startAlloc := p.memStats.TotalAlloc
	startGC := p.memStats.NumGC
	p.mu.Unlock()

	start := time.Now()
	var once sync.Once
	return func() {
		once.Do(func() {
			elapsed := time.Since(start)

			p.mu.Lock()
			defer p.mu.Unlock()
			runtime.ReadMemStats(&p.memStats)
			s := Stage{
				Name:       name,
				Duration:   elapsed,
				AllocBytes: p.memStats.TotalAlloc - startAlloc,
				GCs:        p.memStats.NumGC - startGC,
			}
			p.stages = append(p.stages, s)

			if !p.silent {
				log.Printf("[Profiler] %s: %s | Alloc: %.2f MB | GC: %d",
					s.Name, s.Duration.Round(time.Microsecond), float64(s.AllocBytes)/1024/1024, s.GCs)
			}
		})
	}
}

// Stages returns the finished stages in completion order.
func (p *Profiler) Stages() []Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Stage(nil), p.stages...)
}

// Summary logs the total run time, the slowest stage and the process footprint.
//
// Returns:
//   - time.Duration: time since the profiler was created
func (p *Profiler) Summary() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := time.Since(p.started)
	runtime.ReadMemStats(&p.memStats)

	var slowest Stage
	for _, s := range p.stages {
		if s.Duration > slowest.Duration {
			slowest = s
		}
	}

	log.Printf("[Profiler] total: %s | stages: %d | slowest: %s (%s) | Heap: %.2f MB | Sys: %.2f MB",
		total.Round(time.Microsecond), len(p.stages), slowest.Name, slowest.Duration.Round(time.Microsecond),
		float64(p.memStats.Alloc)/1024/1024, float64(p.memStats.Sys)/1024/1024)
	return total
}
