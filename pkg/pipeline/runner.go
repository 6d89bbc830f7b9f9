package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/graphnist/graphnist/pkg/cache"
	"github.com/graphnist/graphnist/pkg/layout"
	"github.com/graphnist/graphnist/pkg/observability"
	"github.com/graphnist/graphnist/pkg/topology"
)

// =============================================================================
// Runner - Pipeline Execution with Caching
// =============================================================================

// Runner executes the diagram pipeline with caching support.
type Runner struct {
	// Cache for storing intermediate results.
	Cache cache.Cache

	// Keyer for generating cache keys.
	Keyer cache.Keyer

	// Logger for progress output.
	Logger *log.Logger
}

// NewRunner creates a pipeline runner with the given dependencies.
// If cache is nil, a NullCache is used (no caching).
// If keyer is nil, the default keyer is used.
// If logger is nil, a discard logger is used.
func NewRunner(c cache.Cache, k cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Cache:  c,
		Keyer:  k,
		Logger: logger,
	}
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger propagates the runner's logger into options that don't
// carry their own.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// =============================================================================
// Pipeline Execution
// =============================================================================

// Execute runs the complete pipeline: layout then render.
func (r *Runner) Execute(ctx context.Context, topo *topology.Topology, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
		Stats: Stats{
			DeviceCount:     topo.DeviceCount(),
			ConnectionCount: topo.ConnectionCount(),
		},
	}

	// Stage 1: Layout
	layoutStart := time.Now()
	positions, topoHash, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, topo, opts)
	if err != nil {
		return nil, fmt.Errorf("layout stage: %w", err)
	}
	result.Positions = positions
	result.TopologyHash = topoHash
	result.CacheInfo.LayoutHit = layoutHit
	result.Stats.LayoutTime = time.Since(layoutStart)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, topo, positions, opts)
	if err != nil {
		return nil, fmt.Errorf("render stage: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit
	result.Stats.RenderTime = time.Since(renderStart)

	return result, nil
}

// =============================================================================
// Layout Stage
// =============================================================================

// ComputeLayout computes device positions for the topology.
func (r *Runner) ComputeLayout(ctx context.Context, topo *topology.Topology, opts Options) (map[string]topology.Point, error) {
	positions, _, _, err := r.ComputeLayoutWithCacheInfo(ctx, topo, opts)
	return positions, err
}

// ComputeLayoutWithCacheInfo computes device positions and reports whether
// the result came from cache. The returned hash is the content hash of the
// input topology, which keys the layout and seeds the render stage key.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, topo *topology.Topology, opts Options) (map[string]topology.Point, string, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, "", false, err
	}

	encoded, err := topology.Marshal(topo)
	if err != nil {
		return nil, "", false, fmt.Errorf("encode topology: %w", err)
	}
	topoHash := cache.Hash(encoded)

	key := r.Keyer.LayoutKey(topoHash, r.layoutKeyOpts(opts))

	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			var positions map[string]topology.Point
			if err := unmarshalPositions(data, &positions); err == nil {
				opts.Logger.Debug("layout cache hit", "key", key)
				observability.Cache().OnCacheHit(ctx, "layout")
				return positions, topoHash, true, nil
			}
			// Corrupt entry: fall through and recompute.
			_ = r.Cache.Delete(ctx, key)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	strategy, err := layout.ParseStrategy(opts.Strategy)
	if err != nil {
		return nil, "", false, err
	}

	opts.Logger.Debug("computing layout",
		"strategy", opts.Strategy,
		"devices", topo.DeviceCount(),
		"connections", topo.ConnectionCount())

	observability.Pipeline().OnLayoutStart(ctx, opts.Strategy, topo.DeviceCount())
	start := time.Now()
	positions, err := layout.Compute(topo, strategy, opts.Viewport(), opts.LayoutParams())
	observability.Pipeline().OnLayoutComplete(ctx, opts.Strategy, time.Since(start), err)
	if err != nil {
		return nil, "", false, err
	}

	if data, err := marshalPositions(positions); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			opts.Logger.Debug("layout cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	return positions, topoHash, false, nil
}

// layoutKeyOpts translates pipeline options into the cache key fields.
func (r *Runner) layoutKeyOpts(opts Options) cache.LayoutKeyOpts {
	params := opts.LayoutParams()
	return cache.LayoutKeyOpts{
		Strategy:   opts.Strategy,
		Viewport:   [4]float64{0, 0, opts.Width, opts.Height},
		Iterations: params.Iterations,
		Spacing:    params.IdealSpacing,
		Margin:     params.Margin,
		Seed:       params.Seed,
		Scatter:    params.Scatter,
	}
}

// =============================================================================
// Render Stage
// =============================================================================

// Render generates artifacts for every requested format.
func (r *Runner) Render(ctx context.Context, topo *topology.Topology, positions map[string]topology.Point, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, topo, positions, opts)
	return artifacts, err
}

// RenderWithCacheInfo generates artifacts for every requested format and
// reports whether all of them came from cache. Artifacts are keyed by a
// hash of the positions so that re-layouts invalidate stale renders.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, topo *topology.Topology, positions map[string]topology.Point, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	posData, err := marshalPositions(positions)
	if err != nil {
		return nil, false, fmt.Errorf("encode positions: %w", err)
	}
	layoutHash := cache.Hash(posData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	allHits := true

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	for _, format := range opts.Formats {
		key := r.Keyer.RenderKey(layoutHash, cache.RenderKeyOpts{
			Format:   format,
			Detailed: opts.Detailed,
		})

		if !opts.Refresh {
			if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
				opts.Logger.Debug("render cache hit", "format", format, "key", key)
				observability.Cache().OnCacheHit(ctx, "render")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "render")
		}
		allHits = false

		opts.Logger.Debug("rendering artifact", "format", format)
		data, err := RenderFromPositions(ctx, topo, positions, format, opts)
		if err != nil {
			observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, false, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data

		if err := r.Cache.Set(ctx, key, data, cache.TTLRender); err != nil {
			opts.Logger.Debug("render cache write failed", "format", format, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "render", len(data))
		}
	}
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)

	return artifacts, allHits, nil
}
