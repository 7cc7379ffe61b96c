package masonry

// Rect is an axis-aligned rectangle in pixels, origin top-left.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Placed is an item with its column, position within the column, and
// rectangle.
type Placed[T Sized] struct {
	Item   T    `json:"item"`
	Column int  `json:"column"`
	Row    int  `json:"row"`
	Rect   Rect `json:"rect"`
}

// Placement is a plan resolved to absolute coordinates.
type Placement[T Sized] struct {
	Width   float64     `json:"width"`
	Height  float64     `json:"height"`
	Columns int         `json:"columns"`
	Items   []Placed[T] `json:"items"`
}

// Place resolves p to rectangles. Columns are laid out left to right at
// ColumnWidth+Gap intervals; items stack top to bottom with Gap between them.
// Items are returned column by column.
func Place[T Sized](p Plan[T]) Placement[T] {
	n := len(p.Columns)
	out := Placement[T]{Columns: n, Height: p.Height(), Items: make([]Placed[T], 0)}
	if n > 0 {
		out.Width = float64(n)*p.ColumnWidth + float64(n-1)*p.Gap
	}

	for col, items := range p.Columns {
		x := float64(col) * (p.ColumnWidth + p.Gap)
		var y float64
		for row, item := range items {
			h := EstimateHeight(item, p.ColumnWidth)
			out.Items = append(out.Items, Placed[T]{
				Item:   item,
				Column: col,
				Row:    row,
				Rect:   Rect{X: x, Y: y, Width: p.ColumnWidth, Height: h},
			})
			y += h + p.Gap
		}
	}
	return out
}
