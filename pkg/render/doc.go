// Package render draws a placed masonry layout.
//
// [RenderJSON] emits the tile rectangles for clients that draw their own
// grid; [RenderSVG] produces a standalone preview:
//
//	plan := masonry.Arrange(items, n, colWidth, gap)
//	svg := render.RenderSVG(masonry.Place(plan), render.WithImages())
//
// Items may implement [Identified], [Labeled] and [Imaged] to contribute an
// id, a caption and a thumbnail URL. Items that don't are identified by
// their input position.
package render
