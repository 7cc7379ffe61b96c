package masonry

import (
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/mosaic/pkg/observability"
)

type layoutRecorder struct {
	observability.NoopLayoutHooks
	calls   int
	columns int
}

func (r *layoutRecorder) OnLayout(items, columns int, _ time.Duration) {
	r.calls++
	r.columns = columns
}

func TestBalancerResize(t *testing.T) {
	b := NewBalancer[box](300, 16)
	if b.ColumnCount() != 1 {
		t.Fatalf("initial ColumnCount = %d, want 1", b.ColumnCount())
	}

	b.SetItems([]box{{"a", 300, 300}, {"b", 300, 150}, {"c", 300, 600}, {"d", 300, 100}})

	if !b.Resize(950) {
		t.Error("Resize(950) should change the column count")
	}
	if b.ColumnCount() != 3 {
		t.Errorf("ColumnCount = %d, want 3", b.ColumnCount())
	}
	if w := b.Plan().ColumnWidth; w != 306 {
		t.Errorf("ColumnWidth = %v, want 306", w)
	}

	if b.Resize(960) {
		t.Error("Resize(960) should keep 3 columns")
	}
	if !b.Resize(320) {
		t.Error("Resize(320) should drop to 1 column")
	}
	cols := b.Columns()
	if len(cols) != 1 || len(cols[0]) != 4 {
		t.Errorf("Columns = %v, want all items in one column", cols)
	}
}

func TestBalancerRecomputesOnItemChange(t *testing.T) {
	b := NewBalancer[box](100, 0)
	b.Resize(200)

	b.SetItems([]box{{"a", 100, 100}, {"b", 100, 50}, {"c", 100, 80}})
	cols := b.Columns()
	if len(cols[0]) != 1 || len(cols[1]) != 2 {
		t.Fatalf("Columns = %v, want [a] [b c]", cols)
	}

	// Prepending reflows everything.
	b.SetItems([]box{{"z", 100, 10}, {"a", 100, 100}, {"b", 100, 50}, {"c", 100, 80}})
	cols = b.Columns()
	if got := ids(cols[0]); !reflect.DeepEqual(got, []string{"z", "b", "c"}) {
		t.Errorf("column 0 = %v, want [z b c]", got)
	}
	if got := ids(cols[1]); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("column 1 = %v, want [a]", got)
	}
}

func TestBalancerUsesResolvedColumnWidth(t *testing.T) {
	items := []box{{"a", 100, 120}, {"b", 100, 50}, {"c", 100, 55}, {"d", 100, 100}}

	b := NewBalancer[box](100, 20)
	b.SetItems(items)
	b.Resize(300)

	plan := b.Plan()
	if len(plan.Columns) != 2 {
		t.Fatalf("ColumnCount = %d, want 2", len(plan.Columns))
	}
	if plan.ColumnWidth != 140 {
		t.Errorf("ColumnWidth = %v, want 140", plan.ColumnWidth)
	}
	if got := ids(plan.Columns[1]); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Errorf("column 1 = %v, want [b c d]", got)
	}

	// At the target width the gap weighs more and d lands on the other side.
	target := Distribute(items, 2, 100, 20)
	if got := ids(target[0]); !reflect.DeepEqual(got, []string{"a", "d"}) {
		t.Errorf("column 0 at target width = %v, want [a d]", got)
	}
}

func TestBalancerColumnsAreCopies(t *testing.T) {
	b := NewBalancer[box](100, 0)
	b.SetItems([]box{{"a", 1, 1}})
	cols := b.Columns()
	cols[0][0] = box{id: "mutated"}
	if b.Columns()[0][0].id != "a" {
		t.Error("Columns should return copies")
	}
}

func TestBalancerEmitsLayoutHook(t *testing.T) {
	rec := &layoutRecorder{}
	observability.SetLayoutHooks(rec)
	defer observability.Reset()

	b := NewBalancer[box](300, 16)
	b.Resize(950)
	if rec.calls != 2 {
		t.Errorf("OnLayout calls = %d, want 2", rec.calls)
	}
	if rec.columns != 3 {
		t.Errorf("OnLayout columns = %d, want 3", rec.columns)
	}
}
