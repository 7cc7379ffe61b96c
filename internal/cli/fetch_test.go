package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mosaic/pkg/config"
	"github.com/matzehuels/mosaic/pkg/errors"
)

// newTestCLI returns a CLI configured against srv with caching disabled.
func newTestCLI(t *testing.T, srv *httptest.Server) *CLI {
	t.Helper()
	cfg := config.Default()
	cfg.API.BaseURL = srv.URL + "/api/v1"
	cfg.Cache.Backend = "none"
	c := New(io.Discard, log.InfoLevel)
	c.cfg = &cfg
	return c
}

// eventsServer serves two pages of events for community 12 and 404 for
// everything else.
func eventsServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/communities/12/events", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "" {
			w.Write([]byte(`{"data":[{"id":1,"community_id":12,"title":"Kickoff","starts_at":"2026-01-02T18:00:00Z"}],"pagination":{"next":"p2"}}`))
			return
		}
		w.Write([]byte(`{"data":[{"id":2,"community_id":12,"title":"Finale","starts_at":"2026-02-02T18:00:00Z"}],"pagination":{"next":null}}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"no such community"}`))
	})
	return httptest.NewServer(mux)
}

func decodeResults(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestRunFetchJSON(t *testing.T) {
	srv := eventsServer()
	defer srv.Close()
	c := newTestCLI(t, srv)

	var buf bytes.Buffer
	err := c.runFetch(context.Background(), &buf, "events", []string{"12"}, fetchOpts{pages: 5, concurrency: 2, json: true})
	require.NoError(t, err)

	results := decodeResults(t, buf.Bytes())
	require.Len(t, results, 1)
	require.Equal(t, "events:12", results[0]["key"])
	require.Equal(t, "exhausted", results[0]["state"])
	require.Nil(t, results[0]["next"])
	require.Len(t, results[0]["items"], 2)
	require.NotContains(t, results[0], "error")
}

func TestRunFetchPageLimit(t *testing.T) {
	srv := eventsServer()
	defer srv.Close()
	c := newTestCLI(t, srv)

	var buf bytes.Buffer
	err := c.runFetch(context.Background(), &buf, "events", []string{"12"}, fetchOpts{pages: 1, concurrency: 1, json: true})
	require.NoError(t, err)

	results := decodeResults(t, buf.Bytes())
	require.Len(t, results, 1)
	require.Equal(t, "idle", results[0]["state"])
	require.Equal(t, "p2", results[0]["next"])
	require.Len(t, results[0]["items"], 1)
}

func TestRunFetchPartialFailure(t *testing.T) {
	srv := eventsServer()
	defer srv.Close()
	c := newTestCLI(t, srv)

	var buf bytes.Buffer
	err := c.runFetch(context.Background(), &buf, "events", []string{"12", "99"}, fetchOpts{pages: 2, concurrency: 2, json: true})
	require.NoError(t, err)

	results := decodeResults(t, buf.Bytes())
	require.Len(t, results, 2)
	require.Equal(t, "events:12", results[0]["key"])
	require.Equal(t, "events:99", results[1]["key"])
	require.Equal(t, "error", results[1]["state"])
	require.Contains(t, results[1]["error"], "404")
	require.Empty(t, results[1]["items"])
}

func TestRunFetchAllFailed(t *testing.T) {
	srv := eventsServer()
	defer srv.Close()
	c := newTestCLI(t, srv)

	err := c.runFetch(context.Background(), io.Discard, "events", []string{"99"}, fetchOpts{pages: 1, concurrency: 1})
	require.True(t, errors.Is(err, errors.ErrCodeNotFound), "got %v", err)

	var buf bytes.Buffer
	err = c.runFetch(context.Background(), &buf, "events", []string{"99", "98"}, fetchOpts{pages: 1, concurrency: 2, json: true})
	require.True(t, errors.Is(err, errors.ErrCodeNotFound), "got %v", err)

	results := decodeResults(t, buf.Bytes())
	require.Len(t, results, 2)
	require.Equal(t, "error", results[0]["state"])
	require.Equal(t, "error", results[1]["state"])
}

func TestRunFetchValidation(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)

	tests := []struct {
		name     string
		resource string
		ids      []string
		opts     fetchOpts
		code     errors.Code
	}{
		{"unknown resource", "planets", nil, fetchOpts{pages: 1}, errors.ErrCodeInvalidResource},
		{"missing id", "events", nil, fetchOpts{pages: 1}, errors.ErrCodeInvalidInput},
		{"zero pages", "communities", nil, fetchOpts{}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.runFetch(context.Background(), io.Discard, tt.resource, tt.ids, tt.opts)
			require.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestItemTable(t *testing.T) {
	out := itemTable(nil)
	require.Contains(t, out, "ID")
	require.Contains(t, out, "Label")
}
