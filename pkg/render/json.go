package render

import (
	"encoding/json"

	"github.com/matzehuels/mosaic/pkg/masonry"
)

// Layout is the JSON form of a placement.
type Layout struct {
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
	Columns     int       `json:"columns"`
	ColumnWidth float64   `json:"column_width"`
	Gap         float64   `json:"gap"`
	Heights     []float64 `json:"heights"`
	Tiles       []Tile    `json:"tiles"`
}

// NewLayout converts a plan into its JSON form.
func NewLayout[T masonry.Sized](plan masonry.Plan[T]) Layout {
	p := masonry.Place(plan)
	heights := plan.Heights
	if heights == nil {
		heights = []float64{}
	}
	return Layout{
		Width:       p.Width,
		Height:      p.Height,
		Columns:     p.Columns,
		ColumnWidth: plan.ColumnWidth,
		Gap:         plan.Gap,
		Heights:     heights,
		Tiles:       Tiles(p),
	}
}

// RenderJSON encodes the layout of plan as indented JSON.
func RenderJSON[T masonry.Sized](plan masonry.Plan[T]) ([]byte, error) {
	data, err := json.MarshalIndent(NewLayout(plan), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
