package masonry

import "math"

// maxColumns bounds ComputeColumnCount for absurd container widths.
const maxColumns = 1 << 12

// Sized is implemented by anything with intrinsic pixel dimensions.
type Sized interface {
	Size() (width, height int)
}

// ComputeColumnCount returns how many columns of targetColumnWidth separated
// by gap fit in containerWidth:
//
//	max(1, floor((containerWidth + gap) / (targetColumnWidth + gap)))
func ComputeColumnCount(containerWidth, targetColumnWidth, gap float64) int {
	step := targetColumnWidth + gap
	if !(step > 0) {
		return 1
	}
	n := math.Floor((containerWidth + gap) / step)
	switch {
	case math.IsNaN(n) || n < 1:
		return 1
	case n > maxColumns:
		return maxColumns
	}
	return int(n)
}

// ColumnWidth returns the width each of columnCount columns gets when
// containerWidth is shared between them with gap between neighbours.
func ColumnWidth(containerWidth float64, columnCount int, gap float64) float64 {
	n := max(columnCount, 1)
	w := (containerWidth - gap*float64(n-1)) / float64(n)
	return max(w, 0)
}

// EstimateHeight returns the rendered height of item at columnWidth. Items
// without a positive width, or with a negative height, are treated as square.
func EstimateHeight(item Sized, columnWidth float64) float64 {
	w, h := item.Size()
	if w <= 0 || h < 0 {
		return columnWidth
	}
	return columnWidth * float64(h) / float64(w)
}

// Plan is a computed column assignment.
type Plan[T Sized] struct {
	// Columns holds the items of each column in append order.
	Columns [][]T
	// Heights holds each column's accumulated height, including one trailing
	// gap per item.
	Heights []float64
	// ColumnWidth and Gap are the values the plan was computed with.
	ColumnWidth float64
	Gap         float64
}

// Height returns the height of the tallest column without its trailing gap.
func (p Plan[T]) Height() float64 {
	var tallest float64
	for i, h := range p.Heights {
		if len(p.Columns[i]) > 0 {
			tallest = max(tallest, h-p.Gap)
		}
	}
	return tallest
}

// Arrange distributes items into columnCount columns, shortest column first.
// A columnCount below 1 is treated as 1.
func Arrange[T Sized](items []T, columnCount int, columnWidth, gap float64) Plan[T] {
	n := max(columnCount, 1)
	p := Plan[T]{
		Columns:     make([][]T, n),
		Heights:     make([]float64, n),
		ColumnWidth: columnWidth,
		Gap:         gap,
	}
	for i := range p.Columns {
		p.Columns[i] = make([]T, 0, len(items)/n+1)
	}

	for _, item := range items {
		col := shortest(p.Heights)
		p.Columns[col] = append(p.Columns[col], item)
		p.Heights[col] += EstimateHeight(item, columnWidth) + gap
	}
	return p
}

// Distribute returns the columns of [Arrange].
func Distribute[T Sized](items []T, columnCount int, columnWidth, gap float64) [][]T {
	return Arrange(items, columnCount, columnWidth, gap).Columns
}

// shortest returns the index of the smallest height, lowest index on ties.
func shortest(heights []float64) int {
	best := 0
	for i := 1; i < len(heights); i++ {
		if heights[i] < heights[best] {
			best = i
		}
	}
	return best
}
