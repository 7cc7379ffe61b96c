package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cursor is an opaque pagination token returned by the server. The empty
// cursor requests the first page when sent and means "no more pages" when
// received.
type Cursor string

// IsZero reports whether c is the empty cursor.
func (c Cursor) IsZero() bool { return c == "" }

func (c Cursor) String() string { return string(c) }

// timeIDSep separates the timestamp from the id in composite cursors.
// RFC 3339 timestamps never contain it.
const timeIDSep = "_"

// IDCursor builds a cursor for endpoints that page by numeric id.
func IDCursor(id int64) Cursor {
	return Cursor(strconv.FormatInt(id, 10))
}

// TimeIDCursor builds a composite timestamp+id cursor.
func TimeIDCursor(ts time.Time, id string) Cursor {
	return Cursor(ts.UTC().Format(time.RFC3339Nano) + timeIDSep + id)
}

// ID parses a numeric cursor.
func (c Cursor) ID() (int64, bool) {
	id, err := strconv.ParseInt(string(c), 10, 64)
	return id, err == nil
}

// TimeID parses a composite timestamp+id cursor.
func (c Cursor) TimeID() (time.Time, string, bool) {
	ts, id, ok := strings.Cut(string(c), timeIDSep)
	if !ok {
		return time.Time{}, "", false
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, "", false
	}
	return t, id, true
}

// UnmarshalJSON accepts null, a string, or a number. Numbers keep their
// literal text so the token round-trips verbatim.
func (c *Cursor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Cursor(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("cursor: unsupported token %s", data)
		}
		*c = Cursor(n.String())
	}
	return nil
}

// MarshalJSON encodes the empty cursor as null.
func (c Cursor) MarshalJSON() ([]byte, error) {
	if c.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}
