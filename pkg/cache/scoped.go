package cache

// ScopedKeyer wraps a Keyer with a prefix so separate deployments or users
// sharing one Redis instance get isolated namespaces.
//
// Example usage:
//
//	// Per-workspace keys on a shared cache
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ws:lab-3:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed key for layout result caching.
func (k *ScopedKeyer) LayoutKey(topoHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(topoHash, opts)
}

// RenderKey generates a prefixed key for rendered artifact caching.
func (k *ScopedKeyer) RenderKey(layoutHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(layoutHash, opts)
}
