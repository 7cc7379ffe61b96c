// Package feed implements cursor-paginated infinite feeds.
//
// A [Controller] owns the pages fetched for one query key (for example the
// gallery of a single community). It fetches pages on demand through an
// injected [FetchFunc], flattens them into a single ordered item list, and
// tracks loading, failure and exhaustion with a small state machine:
//
//	Idle ──LoadNext──▶ LoadingFirst ──▶ Idle | Exhausted | Error
//	Idle ──LoadNext──▶ LoadingNext  ──▶ Idle | Exhausted | Error
//	Error ──Retry───▶ LoadingNext  ──▶ ...
//
// At most one fetch is in flight per controller. Calling [Controller.LoadNext]
// while a fetch is outstanding is a no-op, so hosts can wire it directly to a
// noisy "near the end of the list" signal such as [Proximity].
//
// Items are kept in fetch order. The controller never sorts or de-duplicates;
// ordering belongs to the server.
//
// # Cursors
//
// A [Cursor] is an opaque token. The controller only passes the tail cursor
// back to the fetch function verbatim. [IDCursor] and [TimeIDCursor] build the
// numeric and composite forms some endpoints use.
//
// # Reset
//
// [Controller.Reset] switches the controller to a new key. Responses for the
// old key that arrive afterwards are dropped on arrival rather than applied.
// The underlying request is not cancelled; timeouts belong to the transport.
//
// # Usage
//
//	c := feed.New("communities/42/gallery", fetchGallery)
//	if err := c.LoadNext(ctx); err != nil {
//	    // c.State() == feed.StateError, items fetched so far are intact
//	    _ = c.Retry(ctx)
//	}
//	for _, m := range c.Items() {
//	    ...
//	}
package feed
