package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSource serves a fixed chain of pages keyed by cursor and records every
// cursor it is asked for.
type fakeSource struct {
	mu    sync.Mutex
	pages map[Cursor]Page[int]
	fail  map[Cursor]error // returned once, then cleared
	calls []Cursor
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages: map[Cursor]Page[int]{
			"":  {Items: []int{1, 2, 3}, Next: "a"},
			"a": {Items: []int{4, 5}, Next: "b"},
			"b": {Items: []int{6}},
		},
		fail: map[Cursor]error{},
	}
}

func (s *fakeSource) fetch(_ context.Context, c Cursor) (Page[int], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	if err, ok := s.fail[c]; ok {
		delete(s.fail, c)
		return Page[int]{}, err
	}
	p, ok := s.pages[c]
	if !ok {
		return Page[int]{}, &FetchError{Status: 404, Message: "no such page"}
	}
	return p, nil
}

func (s *fakeSource) cursors() []Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Cursor(nil), s.calls...)
}

func TestLoadNextConcatenatesPages(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	c := New("gallery", src.fetch)

	require.Equal(t, StateIdle, c.State())
	require.Empty(t, c.Items())

	require.NoError(t, c.LoadNext(ctx))
	require.Equal(t, StateIdle, c.State())
	require.Equal(t, []int{1, 2, 3}, c.Items())
	require.Equal(t, Cursor("a"), c.Cursor())

	require.NoError(t, c.LoadNext(ctx))
	require.NoError(t, c.LoadNext(ctx))

	require.Equal(t, []int{1, 2, 3, 4, 5, 6}, c.Items())
	require.Equal(t, StateExhausted, c.State())
	require.Equal(t, []Cursor{"", "a", "b"}, src.cursors())
	require.Len(t, c.Pages(), 3)
	require.Equal(t, 6, c.Len())
}

func TestLoadNextAfterExhaustionIsNoop(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	c := New("gallery", src.fetch)
	require.NoError(t, c.LoadPages(ctx, 10))
	require.Equal(t, StateExhausted, c.State())

	for range 3 {
		require.NoError(t, c.LoadNext(ctx))
	}
	require.Len(t, src.cursors(), 3)
	require.Equal(t, []int{1, 2, 3, 4, 5, 6}, c.Items())
	require.Equal(t, StateExhausted, c.State())
}

func TestLoadNextSingleInFlight(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	c := New("events", func(ctx context.Context, cur Cursor) (Page[string], error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		return Page[string]{Items: []string{"e1"}, Next: "n1"}, nil
	})

	done := make(chan error, 1)
	go func() { done <- c.LoadNext(ctx) }()
	<-started

	require.Equal(t, StateLoadingFirst, c.State())
	require.NoError(t, c.LoadNext(ctx))
	require.NoError(t, c.LoadNext(ctx))

	close(release)
	require.NoError(t, <-done)

	mu.Lock()
	require.Equal(t, 1, calls)
	mu.Unlock()
	require.Equal(t, []string{"e1"}, c.Items())
	require.Equal(t, StateIdle, c.State())
}

func TestFetchErrorKeepsItemsAndRetriesSameCursor(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.fail["a"] = &FetchError{Status: 503, Message: "unavailable"}
	c := New("tickets", src.fetch)

	require.NoError(t, c.LoadNext(ctx))

	err := c.LoadNext(ctx)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, 503, fe.Status)
	require.Equal(t, StateError, c.State())
	require.Equal(t, err, c.Err())
	require.Equal(t, []int{1, 2, 3}, c.Items())

	require.NoError(t, c.Retry(ctx))
	require.Equal(t, []Cursor{"", "a", "a"}, src.cursors())
	require.Equal(t, []int{1, 2, 3, 4, 5}, c.Items())
	require.Equal(t, StateIdle, c.State())
	require.NoError(t, c.Err())
}

func TestLoadNextFromErrorReissuesFailedFetch(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.fail[""] = &FetchError{Message: "connection refused"}
	c := New("games", src.fetch)

	require.Error(t, c.LoadNext(ctx))
	require.Equal(t, StateError, c.State())

	require.NoError(t, c.LoadNext(ctx))
	require.Equal(t, []Cursor{"", ""}, src.cursors())
	require.Equal(t, []int{1, 2, 3}, c.Items())
}

func TestRetryRequiresErrorState(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	c := New("games", src.fetch)

	require.ErrorIs(t, c.Retry(ctx), ErrNotFailed)
	require.NoError(t, c.LoadNext(ctx))
	require.ErrorIs(t, c.Retry(ctx), ErrNotFailed)
	require.Len(t, src.cursors(), 1)
}

func TestMalformedPageIsNotRetryable(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.fail[""] = &MalformedPageError{Reason: "missing pagination"}
	c := New("achievements", src.fetch)

	err := c.LoadNext(ctx)
	var me *MalformedPageError
	require.ErrorAs(t, err, &me)
	require.Equal(t, StateError, c.State())

	require.ErrorIs(t, c.Retry(ctx), ErrNotRetryable)
	require.NoError(t, c.LoadNext(ctx))
	require.Equal(t, StateError, c.State())
	require.Len(t, src.cursors(), 1)

	c.Reset("achievements")
	require.NoError(t, c.LoadNext(ctx))
	require.Equal(t, []int{1, 2, 3}, c.Items())
}

func TestResetClearsFeed(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	c := New("communities/1/gallery", src.fetch)
	require.NoError(t, c.LoadPages(ctx, 2))
	require.Len(t, c.Items(), 5)

	c.Reset("communities/2/gallery")
	require.Equal(t, "communities/2/gallery", c.Key())
	require.Equal(t, StateIdle, c.State())
	require.Empty(t, c.Items())
	require.Empty(t, c.Pages())
	require.True(t, c.Cursor().IsZero())

	require.NoError(t, c.LoadNext(ctx))
	require.Equal(t, []Cursor{"", "a", ""}, src.cursors())
	require.Equal(t, []int{1, 2, 3}, c.Items())
}

func TestResetDiscardsInFlightResponse(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	c := New("communities/1", func(ctx context.Context, cur Cursor) (Page[string], error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
			return Page[string]{Items: []string{"stale"}, Next: "x"}, nil
		}
		return Page[string]{Items: []string{"fresh"}}, nil
	})

	done := make(chan error, 1)
	go func() { done <- c.LoadNext(ctx) }()
	<-started

	c.Reset("communities/2")
	close(release)
	require.NoError(t, <-done)

	require.Empty(t, c.Items())
	require.Equal(t, StateIdle, c.State())

	require.NoError(t, c.LoadNext(ctx))
	require.Equal(t, []string{"fresh"}, c.Items())
	require.Equal(t, StateExhausted, c.State())
}

func TestStaleFailureIsDiscarded(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	c := New("tickets", func(ctx context.Context, cur Cursor) (Page[int], error) {
		close(started)
		<-release
		return Page[int]{}, &FetchError{Status: 500, Message: "boom"}
	})

	done := make(chan error, 1)
	go func() { done <- c.LoadNext(ctx) }()
	<-started
	c.Reset("tickets")
	close(release)

	require.NoError(t, <-done)
	require.Equal(t, StateIdle, c.State())
	require.NoError(t, c.Err())
}

func TestLoadPages(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	c := New("gallery", src.fetch)

	require.NoError(t, c.LoadPages(ctx, 2))
	require.Len(t, c.Pages(), 2)
	require.Equal(t, StateIdle, c.State())

	require.NoError(t, c.LoadPages(ctx, 2))
	require.Len(t, src.cursors(), 2)

	require.NoError(t, c.LoadPages(ctx, 100))
	require.Equal(t, StateExhausted, c.State())
	require.Len(t, c.Pages(), 3)
}

func TestLoadPagesStopsOnError(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.fail["b"] = &FetchError{Status: 502, Message: "bad gateway"}
	c := New("gallery", src.fetch)

	err := c.LoadPages(ctx, 5)
	require.Error(t, err)
	require.Equal(t, StateError, c.State())
	require.Equal(t, []int{1, 2, 3, 4, 5}, c.Items())
}

func TestLoadPagesAfterMalformedFailure(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.fail[""] = &MalformedPageError{Reason: "missing data"}
	c := New("gallery", src.fetch)

	var me *MalformedPageError
	require.ErrorAs(t, c.LoadNext(ctx), &me)

	done := make(chan error, 1)
	go func() { done <- c.LoadPages(ctx, 2) }()
	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrNotRetryable)
	case <-time.After(2 * time.Second):
		t.Fatal("LoadPages did not return for a malformed feed")
	}
	require.Equal(t, StateError, c.State())
	require.Len(t, src.cursors(), 1)
}

func TestLoadPagesWaitsForInFlightFetch(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	src := newFakeSource()
	c := New("gallery", func(ctx context.Context, cur Cursor) (Page[int], error) {
		if cur == "" {
			once.Do(func() { close(started) })
			<-release
		}
		return src.fetch(ctx, cur)
	})

	first := make(chan error, 1)
	go func() { first <- c.LoadNext(ctx) }()
	<-started

	pages := make(chan error, 1)
	go func() { pages <- c.LoadPages(ctx, 2) }()
	close(release)

	require.NoError(t, <-first)
	require.NoError(t, <-pages)
	require.Len(t, c.Pages(), 2)
	require.Equal(t, []Cursor{"", "a"}, src.cursors())
}

func TestLoadPagesHonoursContextWhileWaiting(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c := New("gallery", func(ctx context.Context, cur Cursor) (Page[int], error) {
		close(started)
		<-release
		return Page[int]{Items: []int{1}}, nil
	})

	first := make(chan error, 1)
	go func() { first <- c.LoadNext(context.Background()) }()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.LoadPages(ctx, 2), context.Canceled)

	close(release)
	require.NoError(t, <-first)
}

func TestItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	c := New("gallery", src.fetch)
	require.NoError(t, c.LoadNext(ctx))

	items := c.Items()
	items[0] = 99
	require.Equal(t, []int{1, 2, 3}, c.Items())
}

func TestPageItemsAreIsolatedFromFetcher(t *testing.T) {
	ctx := context.Background()
	backing := []int{1, 2}
	c := New("gallery", func(ctx context.Context, cur Cursor) (Page[int], error) {
		return Page[int]{Items: backing, Next: "n"}, nil
	})
	require.NoError(t, c.LoadNext(ctx))

	backing[0] = 42
	require.Equal(t, []int{1, 2}, c.Items())
	require.Equal(t, []int{1, 2}, c.Pages()[0].Items)
}

func TestLoadIfNear(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	c := New("gallery", src.fetch)
	p := Proximity{Threshold: 1}

	require.NoError(t, c.LoadIfNear(ctx, p, 0))
	require.Equal(t, 3, c.Len())

	// Item 0 of 3 is two away from the end.
	require.NoError(t, c.LoadIfNear(ctx, p, 0))
	require.Equal(t, 3, c.Len())

	require.NoError(t, c.LoadIfNear(ctx, p, 1))
	require.Equal(t, 5, c.Len())
}

func TestProximityNear(t *testing.T) {
	tests := []struct {
		name        string
		threshold   int
		lastVisible int
		total       int
		want        bool
	}{
		{"empty list", 3, 0, 0, true},
		{"last item visible", 0, 9, 10, true},
		{"one short without threshold", 0, 8, 10, false},
		{"within threshold", 3, 6, 10, true},
		{"outside threshold", 3, 5, 10, false},
		{"negative threshold", -2, 9, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Proximity{Threshold: tt.threshold}.Near(tt.lastVisible, tt.total)
			if got != tt.want {
				t.Errorf("Near(%d, %d) = %v, want %v", tt.lastVisible, tt.total, got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil error should not be retryable")
	}
	if !IsRetryable(&FetchError{Status: 500}) {
		t.Error("FetchError should be retryable")
	}
	if !IsRetryable(context.DeadlineExceeded) {
		t.Error("transport errors should be retryable")
	}
	wrapped := errors.Join(errors.New("decode"), &MalformedPageError{Reason: "no data"})
	if IsRetryable(wrapped) {
		t.Error("MalformedPageError should not be retryable")
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateIdle:         "idle",
		StateLoadingFirst: "loading_first",
		StateLoadingNext:  "loading_next",
		StateError:        "error",
		StateExhausted:    "exhausted",
		State(42):         "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
	if !StateLoadingNext.Loading() || StateIdle.Loading() {
		t.Error("Loading() should only be true for loading states")
	}
}
