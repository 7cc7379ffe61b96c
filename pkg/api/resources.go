package api

import (
	"slices"
	"strings"

	"github.com/matzehuels/mosaic/pkg/errors"
	"github.com/matzehuels/mosaic/pkg/feed"
)

// Resource is a paginated endpoint of the API.
type Resource struct {
	// Name is the short name used on the command line and in service URLs.
	Name string
	// Pattern is the path relative to the API root. "{id}" is replaced by
	// the owning resource's id.
	Pattern string
	// Media is set for galleries, whose items can be laid out in columns.
	Media bool

	pager func(c *Client, path string, opts PageOptions) feed.FetchFunc[Item]
}

// Resources is the catalogue of endpoints mosaic pages through.
var Resources = []Resource{
	{Name: "communities", Pattern: "communities", pager: itemPager[Community]},
	{Name: "events", Pattern: "communities/{id}/events", pager: itemPager[Event]},
	{Name: "gallery", Pattern: "communities/{id}/gallery", Media: true, pager: itemPager[Media]},
	{Name: "event-gallery", Pattern: "events/{id}/gallery", Media: true, pager: itemPager[Media]},
	{Name: "games", Pattern: "games", pager: itemPager[Game]},
	{Name: "achievements", Pattern: "users/{id}/achievements", pager: itemPager[Achievement]},
	{Name: "tickets", Pattern: "users/{id}/tickets", pager: itemPager[Ticket]},
}

// Lookup finds a resource by name.
func Lookup(name string) (Resource, error) {
	for _, r := range Resources {
		if r.Name == name {
			return r, nil
		}
	}
	return Resource{}, errors.New(errors.ErrCodeInvalidResource,
		"unknown resource %q (available: %s)", name, strings.Join(Names(), ", "))
}

// Names returns the resource names in sorted order.
func Names() []string {
	names := make([]string, len(Resources))
	for i, r := range Resources {
		names[i] = r.Name
	}
	slices.Sort(names)
	return names
}

// NeedsID reports whether the resource is scoped to an owner id.
func (r Resource) NeedsID() bool {
	return strings.Contains(r.Pattern, "{id}")
}

// Path expands the pattern with id after validating it.
func (r Resource) Path(id string) (string, error) {
	if !r.NeedsID() {
		if id != "" {
			return "", errors.New(errors.ErrCodeInvalidInput, "resource %s does not take an id", r.Name)
		}
		return r.Pattern, nil
	}
	if err := errors.ValidateResourceID(id); err != nil {
		return "", err
	}
	return strings.ReplaceAll(r.Pattern, "{id}", id), nil
}

// Key identifies the feed for r and id; controllers are reset when it
// changes.
func (r Resource) Key(id string) string {
	if id == "" {
		return r.Name
	}
	return r.Name + ":" + id
}

// Fetcher returns a fetch function for the resource owned by id.
func (r Resource) Fetcher(c *Client, id string, opts PageOptions) (feed.FetchFunc[Item], error) {
	path, err := r.Path(id)
	if err != nil {
		return nil, err
	}
	return r.pager(c, path, opts), nil
}

// Feed creates a controller for the resource owned by id.
func (r Resource) Feed(c *Client, id string, opts PageOptions, feedOpts ...feed.Option) (*feed.Controller[Item], error) {
	fetch, err := r.Fetcher(c, id, opts)
	if err != nil {
		return nil, err
	}
	return feed.New(r.Key(id), fetch, feedOpts...), nil
}
