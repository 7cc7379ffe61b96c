package render

import (
	"strconv"

	"github.com/matzehuels/mosaic/pkg/masonry"
)

// Identified items supply their own tile id.
type Identified interface{ ItemID() string }

// Labeled items supply a caption.
type Labeled interface{ Label() string }

// Imaged items supply an image URL for SVG previews.
type Imaged interface{ Thumbnail() string }

// Tile is one rendered rectangle.
type Tile struct {
	ID     string  `json:"id"`
	Label  string  `json:"label,omitempty"`
	Image  string  `json:"image,omitempty"`
	Column int     `json:"column"`
	Row    int     `json:"row"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Tiles flattens a placement into tiles in placement order.
func Tiles[T masonry.Sized](p masonry.Placement[T]) []Tile {
	tiles := make([]Tile, len(p.Items))
	for i, pl := range p.Items {
		t := Tile{
			ID:     strconv.Itoa(i),
			Column: pl.Column,
			Row:    pl.Row,
			X:      pl.Rect.X,
			Y:      pl.Rect.Y,
			Width:  pl.Rect.Width,
			Height: pl.Rect.Height,
		}
		var item any = pl.Item
		if v, ok := item.(Identified); ok && v.ItemID() != "" {
			t.ID = v.ItemID()
		}
		if v, ok := item.(Labeled); ok {
			t.Label = v.Label()
		}
		if v, ok := item.(Imaged); ok {
			t.Image = v.Thumbnail()
		}
		tiles[i] = t
	}
	return tiles
}
