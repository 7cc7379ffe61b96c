package render

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/mosaic/pkg/masonry"
)

const (
	fontFamily     = "system-ui, -apple-system, sans-serif"
	fontSize       = 12.0
	fontCharWidth  = 0.6
	labelPadding   = 6.0
	minLabelHeight = 2 * fontSize
)

// tilePalette colours tiles without images, cycling by column.
var tilePalette = []string{"#e8eef7", "#f7ede8", "#e9f5ec", "#f5f0e1"}

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	images     bool
	labels     bool
	background string
	padding    float64
}

// WithImages draws the thumbnail of [Imaged] items inside their tile.
func WithImages() SVGOption { return func(r *svgRenderer) { r.images = true } }

// WithoutLabels omits captions.
func WithoutLabels() SVGOption { return func(r *svgRenderer) { r.labels = false } }

// WithBackground sets the canvas colour.
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

// WithPadding adds a margin around the grid.
func WithPadding(px float64) SVGOption {
	return func(r *svgRenderer) { r.padding = max(px, 0) }
}

// RenderSVG draws the placement as a standalone SVG document.
func RenderSVG[T masonry.Sized](p masonry.Placement[T], opts ...SVGOption) []byte {
	r := svgRenderer{labels: true, background: "#ffffff"}
	for _, opt := range opts {
		opt(&r)
	}

	w := p.Width + 2*r.padding
	h := p.Height + 2*r.padding

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		w, h, w, h)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", EscapeXML(r.background))
	if r.padding > 0 {
		fmt.Fprintf(&buf, `  <g transform="translate(%.1f %.1f)">`+"\n", r.padding, r.padding)
	}

	for _, t := range Tiles(p) {
		r.renderTile(&buf, t)
	}

	if r.padding > 0 {
		buf.WriteString("  </g>\n")
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r svgRenderer) renderTile(buf *bytes.Buffer, t Tile) {
	fill := tilePalette[t.Column%len(tilePalette)]
	fmt.Fprintf(buf, `  <rect id="tile-%s" class="tile" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="4" fill="%s" stroke="#c8ced8"/>`+"\n",
		EscapeXML(t.ID), t.X, t.Y, t.Width, t.Height, fill)

	if r.images && t.Image != "" {
		fmt.Fprintf(buf, `  <image href="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" preserveAspectRatio="xMidYMid slice"/>`+"\n",
			EscapeXML(t.Image), t.X, t.Y, t.Width, t.Height)
	}

	if !r.labels || t.Label == "" || t.Height < minLabelHeight {
		return
	}
	label := Truncate(t.Label, t.Width-2*labelPadding)
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-family="%s" font-size="%.0f" fill="#333">%s</text>`+"\n",
		t.X+labelPadding, t.Y+t.Height-labelPadding, fontFamily, fontSize, EscapeXML(label))
}

// Truncate shortens label to fit width pixels at the caption font size.
func Truncate(label string, width float64) string {
	maxChars := max(int(width/(fontSize*fontCharWidth)), 3)
	runes := []rune(label)
	if len(runes) <= maxChars {
		return label
	}
	return string(runes[:maxChars-2]) + ".."
}

// EscapeXML escapes s for use in SVG text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
