package cache

import "strconv"

// Keyer generates cache keys. Implementations must be deterministic: the
// same inputs always yield the same key.
type Keyer interface {
	// PageKey identifies one page of a resource. The empty cursor is the
	// first page.
	PageKey(resource, cursor string, limit int) string

	// LayoutKey identifies a computed masonry layout for a set of items.
	LayoutKey(itemsHash string, opts LayoutKeyOpts) string
}

// LayoutKeyOpts are the layout parameters that change the result.
type LayoutKeyOpts struct {
	ContainerWidth float64 `json:"container_width"`
	ColumnWidth    float64 `json:"column_width"`
	Gap            float64 `json:"gap"`
}

// DefaultKeyer is the unscoped [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns the unscoped keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PageKey returns "page:<resource>:<limit>:<cursor>". Resources are
// validated path segments and cursors are opaque, so the key stays readable
// in redis-cli.
func (DefaultKeyer) PageKey(resource, cursor string, limit int) string {
	return "page:" + resource + ":" + strconv.Itoa(limit) + ":" + cursor
}

// LayoutKey hashes the layout parameters together with the items hash.
func (DefaultKeyer) LayoutKey(itemsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", itemsHash, opts)
}
