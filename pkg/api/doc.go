// Package api is the HTTP client for the remote events API.
//
// Every list endpoint returns the same envelope:
//
//	{"data": [...], "pagination": {"next": "<cursor>|null", "limit": 20}}
//
// [Client.Page] fetches one envelope. It handles retries, response caching,
// request ids and status classification. [Pager] turns a path into a
// [feed.FetchFunc] so a [feed.Controller] can page through it:
//
//	client, err := api.NewClient(cfg.API.BaseURL, api.WithCache(c, cfg.Cache.TTL))
//	ctrl := feed.New("gallery:42", api.Pager[api.Media](client, "communities/42/gallery", api.PageOptions{}))
//	err = ctrl.LoadNext(ctx)
//
// # Errors
//
// Non-2xx responses and transport failures are reported as
// [*feed.FetchError]; 404 responses also match [ErrNotFound]. A body without
// the envelope is a [*feed.MalformedPageError]. Transport failures, 429 and
// 5xx responses are retried with exponential backoff before they surface.
//
// # Resources
//
// [Resources] lists the endpoints mosaic knows how to page through, with the
// item type each one returns.
package api
