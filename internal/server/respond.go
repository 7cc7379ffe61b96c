package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/mosaic/pkg/errors"
)

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError reports err with the status for its code. Errors without a
// code are internal and their text is not exposed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "err", err)
		code = errors.ErrCodeInternal
		msg = "internal error"
	}
	writeJSON(w, errors.HTTPStatus(code), map[string]errorBody{
		"error": {Code: code, Message: msg},
	})
}

func notFound(path string) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s", path)
}

// toErrorBody converts a fetch failure for embedding in a partial response.
func toErrorBody(err error) *errorBody {
	if err == nil {
		return nil
	}
	err = errors.FromFetch(err)
	return &errorBody{Code: errors.GetCode(err), Message: err.Error()}
}
