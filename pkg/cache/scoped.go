package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// The HTTP server scopes keys by workspace so that two workspaces sharing
// one Redis instance never read each other's entries.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ws:marketing:")
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

// MigrationKey generates a prefixed key for migrated documents.
func (k *ScopedKeyer) MigrationKey(recordsHash string, opts MigrationKeyOpts) string {
	return k.prefix + k.inner.MigrationKey(recordsHash, opts)
}

// RenderKey generates a prefixed key for rendered pages.
func (k *ScopedKeyer) RenderKey(docHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(docHash, opts)
}
