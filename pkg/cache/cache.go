// Package cache provides content-addressed caching for layout results and
// rendered artifacts.
//
// Layout computation is deterministic, so a cache key derived from the
// topology content hash plus the layout options identifies a result exactly.
// Three backends are provided: FileCache for CLI usage, RedisCache for the
// HTTP server, and NullCache to disable caching.
package cache

import (
	"context"
	"time"
)

// Default lifetimes per cacheable stage. Layouts are pure functions of
// their key, so the TTLs exist to bound disk and Redis usage, not to
// guard against staleness.
const (
	TTLLayout = 7 * 24 * time.Hour
	TTLRender = 24 * time.Hour
)

// Cache is the storage interface shared by all backends. Get reports a miss
// with ok=false rather than an error; errors are reserved for backend
// failures.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys for the two cacheable stages.
type Keyer interface {
	// LayoutKey identifies a computed layout: topology content hash plus
	// every option that affects positions.
	LayoutKey(topoHash string, opts LayoutKeyOpts) string
	// RenderKey identifies a rendered artifact derived from a layout.
	RenderKey(layoutHash string, opts RenderKeyOpts) string
}

// LayoutKeyOpts are the options that change layout output. Anything that
// can alter a single coordinate must be in here, or stale results leak.
type LayoutKeyOpts struct {
	Strategy   string
	Viewport   [4]float64 // MinX, MinY, MaxX, MaxY
	Iterations int
	Spacing    float64
	Margin     float64
	Seed       uint64
	Scatter    bool
}

// RenderKeyOpts are the options that change rendered output.
type RenderKeyOpts struct {
	Format   string
	Detailed bool
}

// DefaultKeyer hashes option structs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for layout result caching.
func (k *DefaultKeyer) LayoutKey(topoHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", topoHash, opts)
}

// RenderKey generates a key for rendered artifact caching.
func (k *DefaultKeyer) RenderKey(layoutHash string, opts RenderKeyOpts) string {
	return hashKey("render", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
