package feed_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/mosaic/pkg/feed"
)

func ExampleController() {
	pages := map[feed.Cursor]feed.Page[string]{
		"":   {Items: []string{"launch party", "speedrun night"}, Next: "p2"},
		"p2": {Items: []string{"finals"}},
	}
	fetch := func(ctx context.Context, cursor feed.Cursor) (feed.Page[string], error) {
		return pages[cursor], nil
	}

	ctx := context.Background()
	c := feed.New("communities/42/events", fetch)
	for c.State() != feed.StateExhausted {
		if err := c.LoadNext(ctx); err != nil {
			fmt.Println("error:", err)
			return
		}
	}
	fmt.Println(c.Items())
	fmt.Println(c.State())
	// Output:
	// [launch party speedrun night finals]
	// exhausted
}

func ExampleProximity() {
	p := feed.Proximity{Threshold: 2}
	fmt.Println(p.Near(5, 10))
	fmt.Println(p.Near(7, 10))
	// Output:
	// false
	// true
}
