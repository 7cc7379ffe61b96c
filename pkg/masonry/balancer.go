package masonry

import (
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/mosaic/pkg/observability"
)

// Balancer keeps a column set in step with a changing item list and container
// width. Every change recomputes the layout from scratch.
//
// Once a container width is known, item heights are estimated at the resolved
// column width ([ColumnWidth] of the container), not at the target width. The
// gap is a fixed offset, so the columns can differ from
// Distribute(items, n, targetColumnWidth, gap).
type Balancer[T Sized] struct {
	targetWidth float64
	gap         float64

	mu    sync.Mutex
	width float64
	items []T
	plan  Plan[T]
}

// NewBalancer creates a balancer aiming for columns of targetColumnWidth with
// gap between them. Until the first [Balancer.Resize] it lays out a single
// column of targetColumnWidth.
func NewBalancer[T Sized](targetColumnWidth, gap float64) *Balancer[T] {
	b := &Balancer[T]{targetWidth: targetColumnWidth, gap: gap}
	b.recompute()
	return b
}

// Resize records a measured container width and recomputes the layout. It
// reports whether the number of columns changed.
func (b *Balancer[T]) Resize(containerWidth float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	before := len(b.plan.Columns)
	b.width = containerWidth
	b.recompute()
	return len(b.plan.Columns) != before
}

// SetItems replaces the item list and recomputes the layout.
func (b *Balancer[T]) SetItems(items []T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = slices.Clone(items)
	b.recompute()
}

// Columns returns the current columns.
func (b *Balancer[T]) Columns() [][]T {
	b.mu.Lock()
	defer b.mu.Unlock()
	cols := make([][]T, len(b.plan.Columns))
	for i, c := range b.plan.Columns {
		cols[i] = slices.Clone(c)
	}
	return cols
}

// ColumnCount returns the current number of columns.
func (b *Balancer[T]) ColumnCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.plan.Columns)
}

// Plan returns the current plan. The column slices must not be modified.
func (b *Balancer[T]) Plan() Plan[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.plan
}

func (b *Balancer[T]) recompute() {
	start := time.Now()
	n := 1
	colWidth := b.targetWidth
	if b.width > 0 {
		n = ComputeColumnCount(b.width, b.targetWidth, b.gap)
		if w := ColumnWidth(b.width, n, b.gap); w > 0 {
			colWidth = w
		}
	}
	b.plan = Arrange(b.items, n, colWidth, b.gap)
	observability.Layout().OnLayout(len(b.items), n, time.Since(start))
}
