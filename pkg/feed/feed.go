package feed

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mosaic/pkg/observability"
)

// Page is one fetched batch of items. Pages are immutable once fetched.
type Page[T any] struct {
	Items []T
	Next  Cursor
}

// FetchFunc fetches the page that starts at cursor. The empty cursor requests
// the first page. Implementations report failures as [*FetchError] or
// [*MalformedPageError].
type FetchFunc[T any] func(ctx context.Context, cursor Cursor) (Page[T], error)

// Option configures a [Controller].
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the logger used for page, failure and stale-response events.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Controller accumulates the pages of one paginated resource.
//
// A Controller is safe for concurrent use. The fetch function runs without
// the controller's lock held, so accessors stay responsive while a page is
// in flight.
type Controller[T any] struct {
	fetch  FetchFunc[T]
	logger *log.Logger

	mu    sync.Mutex
	key   string
	gen   uint64 // bumped by Reset; fetches started under an older gen are discarded
	state State
	pages []Page[T]
	items []T // concatenation of pages[i].Items, extended on every append
	err   error

	inflight chan struct{} // closed when the outstanding fetch returns
}

// New creates an idle controller for key. fetch is called with the tail
// cursor each time another page is needed.
func New[T any](key string, fetch FetchFunc[T], opts ...Option) *Controller[T] {
	o := options{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller[T]{
		fetch:  fetch,
		logger: o.logger,
		key:    key,
	}
}

// LoadNext fetches the page after the current tail.
//
// It returns nil without fetching while another fetch is outstanding, after
// the last page has been fetched, or when the last failure is not retryable.
// From [StateError] it re-issues the failed request. A fetch failure is
// returned and moves the feed to [StateError]; already fetched items are kept.
func (c *Controller[T]) LoadNext(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateLoadingFirst, StateLoadingNext, StateExhausted:
		c.mu.Unlock()
		return nil
	case StateError:
		if !IsRetryable(c.err) {
			c.mu.Unlock()
			return nil
		}
	}
	return c.run(ctx)
}

// Retry re-issues the failed fetch with the same cursor. It returns
// [ErrNotFailed] unless the feed is in [StateError], and [ErrNotRetryable]
// when the failure was a [MalformedPageError]; the state is unchanged in both
// cases.
func (c *Controller[T]) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateError {
		c.mu.Unlock()
		return ErrNotFailed
	}
	if !IsRetryable(c.err) {
		err := c.err
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrNotRetryable, err)
	}
	return c.run(ctx)
}

// run performs one fetch. It must be called with c.mu held and releases it.
func (c *Controller[T]) run(ctx context.Context) error {
	if len(c.pages) == 0 {
		c.state = StateLoadingFirst
	} else {
		c.state = StateLoadingNext
	}
	c.err = nil
	gen, key, cursor := c.gen, c.key, c.tail()
	done := make(chan struct{})
	c.inflight = done
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.inflight == done {
			c.inflight = nil
		}
		c.mu.Unlock()
		close(done)
	}()

	hooks := observability.Feed()
	hooks.OnFetchStart(ctx, key, cursor.String())
	start := time.Now()

	page, err := c.fetch(ctx, cursor)
	elapsed := time.Since(start)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("discarded stale page", "key", key, "cursor", cursor)
		hooks.OnStale(ctx, key)
		return nil
	}
	if err != nil {
		c.state = StateError
		c.err = err
		c.mu.Unlock()
		hooks.OnFetchComplete(ctx, key, 0, elapsed, err)
		if IsRetryable(err) {
			c.logger.Debug("fetch failed", "key", key, "cursor", cursor, "err", err)
		} else {
			c.logger.Warn("malformed page", "key", key, "cursor", cursor, "err", err)
		}
		return err
	}

	page.Items = slices.Clone(page.Items)
	c.pages = append(c.pages, page)
	c.items = append(c.items, page.Items...)
	if page.Next.IsZero() {
		c.state = StateExhausted
	} else {
		c.state = StateIdle
	}
	total := len(c.items)
	c.mu.Unlock()

	hooks.OnFetchComplete(ctx, key, len(page.Items), elapsed, nil)
	c.logger.Debug("fetched page",
		"key", key,
		"items", len(page.Items),
		"total", total,
		"next", page.Next,
		"duration", elapsed.Round(time.Millisecond))
	return nil
}

// LoadPages calls [Controller.LoadNext] until n pages have been fetched in
// total or the feed is exhausted. A fetch started by another caller is
// waited for rather than counted as done. It stops at the first failure; a
// feed already failed with a [MalformedPageError] returns [ErrNotRetryable].
func (c *Controller[T]) LoadPages(ctx context.Context, n int) error {
	for first := true; ; first = false {
		c.mu.Lock()
		switch {
		case len(c.pages) >= n || c.state == StateExhausted:
			c.mu.Unlock()
			return nil
		case c.state == StateError && !IsRetryable(c.err):
			err := c.err
			c.mu.Unlock()
			return fmt.Errorf("%w: %v", ErrNotRetryable, err)
		case c.state == StateError && !first:
			err := c.err
			c.mu.Unlock()
			return err
		case c.state.Loading():
			wait := c.inflight
			c.mu.Unlock()
			if wait != nil {
				select {
				case <-wait:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			continue
		}
		c.mu.Unlock()

		if err := c.LoadNext(ctx); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Reset discards every page and returns to [StateIdle] under key. A fetch
// that is still outstanding is ignored when it completes.
func (c *Controller[T]) Reset(key string) {
	c.mu.Lock()
	old := c.key
	c.key = key
	c.gen++
	c.pages = nil
	c.items = nil
	c.err = nil
	c.state = StateIdle
	c.mu.Unlock()

	observability.Feed().OnReset(old, key)
	c.logger.Debug("reset feed", "from", old, "to", key)
}

// Items returns the items of all fetched pages in fetch order.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Len returns the number of fetched items.
func (c *Controller[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Pages returns the fetched pages in fetch order. The item slices are shared
// and must not be modified.
func (c *Controller[T]) Pages() []Page[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.pages)
}

// State returns the current fetch state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the failure that moved the feed to [StateError], or nil.
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Key returns the query key the feed currently belongs to.
func (c *Controller[T]) Key() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

// Cursor returns the cursor the next fetch will use.
func (c *Controller[T]) Cursor() Cursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tail()
}

func (c *Controller[T]) tail() Cursor {
	if len(c.pages) == 0 {
		return ""
	}
	return c.pages[len(c.pages)-1].Next
}
