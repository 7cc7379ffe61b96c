// Package masonry balances items of varying height across columns.
//
// Items expose their intrinsic pixel size through [Sized]; only the aspect
// ratio matters. [Distribute] walks the items in input order and appends each
// one to the column with the smallest accumulated height, lowest index first
// on ties. The result is a greedy balance, not an optimal packing.
//
// Layout is always recomputed from scratch. Nothing is carried over between
// calls, so items may move between columns whenever the input changes.
//
// # Usage
//
//	n := masonry.ComputeColumnCount(containerWidth, 300, 16)
//	cols := masonry.Distribute(items, n, 300, 16)
//
// [Balancer] wraps the pure functions for hosts that deliver container widths
// from resize events, and [Place] turns a [Plan] into absolute rectangles for
// renderers.
package masonry
