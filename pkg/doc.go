// Package pkg provides the core libraries for Mosaic.
//
// # Overview
//
// Mosaic pages through the cursor-paginated lists of a community events API
// (communities, events, galleries, achievements, tickets) and arranges gallery
// media into balanced masonry columns. The pkg directory is organized into:
//
//  1. [feed] - Pagination controller: cursor, fetch state, retry, reset
//  2. [masonry] - Column count, shortest-column distribution, placement
//  3. [api] - HTTP client, resource catalogue and typed models
//  4. [render] - JSON and SVG output for computed layouts
//  5. [cache], [config], [errors], [httputil], [observability] - Infrastructure
//
// # Architecture
//
// The typical data flow through Mosaic:
//
//	API page (data + pagination.next)
//	         ↓
//	    [api] package (fetch, retry, cache, decode)
//	         ↓
//	    [feed] package (accumulate pages, track the tail cursor)
//	         ↓
//	    [masonry] package (distribute media into columns)
//	         ↓
//	    [render] package (JSON or SVG)
//
// # Quick Start
//
// Load two pages of a gallery and lay them out for a 1200px container:
//
//	import (
//	    "github.com/matzehuels/mosaic/pkg/api"
//	    "github.com/matzehuels/mosaic/pkg/masonry"
//	    "github.com/matzehuels/mosaic/pkg/render"
//	)
//
//	client, _ := api.NewClient("https://events.example.org/api/v1")
//	res, _ := api.Lookup("gallery")
//	f, _ := res.Feed(client, "42", api.PageOptions{})
//	if err := f.LoadPages(ctx, 2); err != nil {
//	    return err
//	}
//
//	b := masonry.NewBalancer[api.Media](300, 16)
//	b.Resize(1200)
//	b.SetItems(api.MediaItems(f.Items()))
//	svg := render.RenderSVG(masonry.Place(b.Plan()))
//
// # Command-Line Interface
//
// The mosaic CLI (cmd/mosaic) wraps these packages:
//
//	mosaic fetch communities --pages 3
//	mosaic browse gallery 42
//	mosaic layout gallery.json -f svg -o gallery.svg
//	mosaic serve --listen :8090
package pkg
