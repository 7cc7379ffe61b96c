package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mosaic/pkg/api"
	"github.com/matzehuels/mosaic/pkg/buildinfo"
	"github.com/matzehuels/mosaic/pkg/cache"
	"github.com/matzehuels/mosaic/pkg/errors"
	"github.com/matzehuels/mosaic/pkg/feed"
	"github.com/matzehuels/mosaic/pkg/masonry"
	"github.com/matzehuels/mosaic/pkg/render"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

type resourceInfo struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
	NeedsID bool   `json:"needs_id"`
	Media   bool   `json:"media"`
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	out := make([]resourceInfo, 0, len(api.Resources))
	for _, name := range api.Names() {
		res, _ := api.Lookup(name)
		out = append(out, resourceInfo{
			Name:    res.Name,
			Pattern: res.Pattern,
			NeedsID: res.NeedsID(),
			Media:   res.Media,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// Feeds
// =============================================================================

type feedResponse struct {
	Resource string         `json:"resource"`
	Key      string         `json:"key"`
	State    string         `json:"state"`
	Pages    int            `json:"pages"`
	Next     feed.Cursor    `json:"next"`
	Items    []api.Item     `json:"items"`
	Layout   *render.Layout `json:"layout,omitempty"`
	Error    *errorBody     `json:"error,omitempty"`
}

// handleFeed pages through a resource. A failure after the first page is
// reported alongside the items already fetched.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if s.client == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInternal, "no API client configured"))
		return
	}
	res, err := api.Lookup(chi.URLParam(r, "resource"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	pages, err := intParam(q.Get("pages"), 1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pages = min(max(pages, 1), s.maxPages)
	width, err := floatParam(q.Get("width"), "width")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctrl, err := res.Feed(s.client, q.Get("id"), api.PageOptions{Refresh: q.Get("refresh") == "true"},
		feed.WithLogger(s.logger))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	fetchErr := ctrl.LoadPages(r.Context(), pages)
	if fetchErr != nil && ctrl.Len() == 0 {
		s.writeError(w, r, errors.FromFetch(fetchErr))
		return
	}

	items := ctrl.Items()
	resp := feedResponse{
		Resource: res.Name,
		Key:      ctrl.Key(),
		State:    ctrl.State().String(),
		Pages:    len(ctrl.Pages()),
		Next:     ctrl.Cursor(),
		Items:    items,
		Error:    toErrorBody(fetchErr),
	}
	if res.Media && width > 0 {
		media := api.MediaItems(items)
		n := masonry.ComputeColumnCount(width, s.layout.ColumnWidth, s.layout.Gap)
		layout := render.NewLayout(masonry.Arrange(media, n,
			masonry.ColumnWidth(width, n, s.layout.Gap), s.layout.Gap))
		resp.Layout = &layout
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Layout
// =============================================================================

type layoutItem struct {
	ID      string `json:"id"`
	Caption string `json:"label,omitempty"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

func (it layoutItem) Size() (int, int) { return it.Width, it.Height }
func (it layoutItem) ItemID() string    { return it.ID }
func (it layoutItem) Label() string     { return it.Caption }

type layoutRequest struct {
	Items          []layoutItem `json:"items"`
	ContainerWidth float64      `json:"container_width"`
	ColumnWidth    *float64     `json:"column_width,omitempty"`
	Gap            *float64     `json:"gap,omitempty"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid layout request"))
		return
	}

	colWidth, gap := s.layout.ColumnWidth, s.layout.Gap
	if req.ColumnWidth != nil {
		colWidth = *req.ColumnWidth
	}
	if req.Gap != nil {
		gap = *req.Gap
	}
	for _, check := range []error{
		errors.ValidateDimension("container_width", req.ContainerWidth, true),
		errors.ValidateDimension("column_width", colWidth, false),
		errors.ValidateDimension("gap", gap, true),
	} {
		if check != nil {
			s.writeError(w, r, check)
			return
		}
	}

	itemsJSON, _ := json.Marshal(req.Items)
	key := s.keyer.LayoutKey(cache.Hash(itemsJSON), cache.LayoutKeyOpts{
		ContainerWidth: req.ContainerWidth,
		ColumnWidth:    colWidth,
		Gap:            gap,
	})
	if data, ok, err := s.cache.Get(r.Context(), key); err == nil && ok {
		w.Header().Set("X-Cache", "hit")
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}

	n := masonry.ComputeColumnCount(req.ContainerWidth, colWidth, gap)
	plan := masonry.Arrange(req.Items, n, masonry.ColumnWidth(req.ContainerWidth, n, gap), gap)
	data, err := render.RenderJSON(plan)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cache.Set(r.Context(), key, data, s.ttl); err != nil {
		s.logger.Warn("layout cache write failed", "err", err)
	}

	w.Header().Set("X-Cache", "miss")
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid integer %q", v)
	}
	return n, nil
}

func floatParam(v, name string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", name, v)
	}
	return f, errors.ValidateDimension(name, f, true)
}
