package cache

// ScopedKeyer wraps a Keyer with a prefix. The API client scopes keys by a
// hash of its bearer token so responses fetched with one account are never
// served to another.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "token:"+Hash([]byte(tok))[:16]+":")
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

// PageKey generates a prefixed page key.
func (k *ScopedKeyer) PageKey(resource, cursor string, limit int) string {
	return k.prefix + k.inner.PageKey(resource, cursor, limit)
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(itemsHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(itemsHash, opts)
}
