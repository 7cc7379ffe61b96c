package feed

import "context"

// Proximity is the "near the end of the rendered list" signal hosts use to
// decide when to ask for another page.
type Proximity struct {
	// Threshold is how many items may remain below the last visible one
	// before the signal fires. Negative values are treated as 0.
	Threshold int
}

// Near reports whether lastVisible (a zero-based index) is within Threshold
// items of the end of a list of total items. An empty list is always near.
func (p Proximity) Near(lastVisible, total int) bool {
	if total == 0 {
		return true
	}
	return total-1-lastVisible <= max(p.Threshold, 0)
}

// LoadIfNear calls [Controller.LoadNext] when p fires for lastVisible.
func (c *Controller[T]) LoadIfNear(ctx context.Context, p Proximity, lastVisible int) error {
	if !p.Near(lastVisible, c.Len()) {
		return nil
	}
	return c.LoadNext(ctx)
}
