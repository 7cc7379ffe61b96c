package api

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/mosaic/pkg/feed"
)

// PageOptions tune a [Pager].
type PageOptions struct {
	// Refresh bypasses the response cache.
	Refresh bool
}

// Pager returns a fetch function that pages through path and decodes each
// item as T. Items that do not decode as T make the page malformed.
func Pager[T any](c *Client, path string, opts PageOptions) feed.FetchFunc[T] {
	return func(ctx context.Context, cursor feed.Cursor) (feed.Page[T], error) {
		raw, err := c.Page(ctx, path, cursor, opts.Refresh)
		if err != nil {
			return feed.Page[T]{}, err
		}
		var items []T
		if err := json.Unmarshal(raw.Data, &items); err != nil {
			return feed.Page[T]{}, &feed.MalformedPageError{Reason: "decode items", Err: err}
		}
		if items == nil {
			items = []T{}
		}
		return feed.Page[T]{Items: items, Next: raw.Next}, nil
	}
}

// itemPager adapts a typed pager to the [Item] interface.
func itemPager[T Item](c *Client, path string, opts PageOptions) feed.FetchFunc[Item] {
	typed := Pager[T](c, path, opts)
	return func(ctx context.Context, cursor feed.Cursor) (feed.Page[Item], error) {
		page, err := typed(ctx, cursor)
		if err != nil {
			return feed.Page[Item]{}, err
		}
		items := make([]Item, len(page.Items))
		for i, it := range page.Items {
			items[i] = it
		}
		return feed.Page[Item]{Items: items, Next: page.Next}, nil
	}
}
