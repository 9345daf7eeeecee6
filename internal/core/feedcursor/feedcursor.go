// Package feedcursor encodes opaque pagination cursors for the feed.
// A cursor pins the position (sort key plus post id as tie break) and
// the query scope it was minted under, so a token replayed against a
// different sort or filter is rejected instead of silently misreading
package feedcursor

import (
	"encoding/base64"
	"encoding/json"
	"strconv"

	perr "marketfeed/internal/platform/errors"
)

// Scope identifies the query a cursor belongs to
type Scope struct {
	Sort     string `json:"s"`
	Type     string `json:"t,omitempty"`
	Category string `json:"c,omitempty"`
}

// Cursor is the decoded pagination token
type Cursor struct {
	Scope Scope `json:"q"`

	// SortKey is the last item's sort value, rendered to string so the
	// token shape is stable across float and timestamp sorts
	SortKey string `json:"k"`
	// ID breaks ties between equal sort keys
	ID string `json:"id"`

	// SecondaryKey orders items whose primary keys tie, before the id
	// tie break. The rising sort puts creation time here so zero
	// velocity pages stay recency ordered
	SecondaryKey string `json:"k2,omitempty"`

	// ScoredAt pins the scoring instant, unix nanos. Later pages of the
	// same walk rank against this clock, not their own, keeping
	// time-decayed sort keys comparable across requests
	ScoredAt int64 `json:"at,omitempty"`
}

// Encode renders the cursor as an opaque URL-safe token
func Encode(c Cursor) string {
	raw, _ := json.Marshal(c) // struct of strings, cannot fail
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses a token and checks it was minted for scope.
// Errors carry ErrorCodeInvalidCursor; callers restart from page one
func Decode(token string, scope Scope) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, perr.InvalidCursorf("cursor: not base64")
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, perr.InvalidCursorf("cursor: malformed payload")
	}
	if c.ID == "" || c.SortKey == "" {
		return Cursor{}, perr.InvalidCursorf("cursor: missing position")
	}
	if c.Scope != scope {
		return Cursor{}, perr.InvalidCursorf("cursor: minted for a different query")
	}
	return c, nil
}

// FloatKey renders a float sort value as a cursor sort key
func FloatKey(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseFloatKey reads a float sort key back
func ParseFloatKey(c Cursor) (float64, error) {
	v, err := strconv.ParseFloat(c.SortKey, 64)
	if err != nil {
		return 0, perr.InvalidCursorf("cursor: bad sort key")
	}
	return v, nil
}

// ParseSecondaryIntKey reads the secondary integer key, ok=false when absent
func ParseSecondaryIntKey(c Cursor) (int64, bool, error) {
	if c.SecondaryKey == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(c.SecondaryKey, 10, 64)
	if err != nil {
		return 0, false, perr.InvalidCursorf("cursor: bad secondary key")
	}
	return v, true, nil
}

// IntKey renders an integer sort value, typically unix nanos, as a cursor sort key
func IntKey(v int64) string {
	return strconv.FormatInt(v, 10)
}

// ParseIntKey reads an integer sort key back
func ParseIntKey(c Cursor) (int64, error) {
	v, err := strconv.ParseInt(c.SortKey, 10, 64)
	if err != nil {
		return 0, perr.InvalidCursorf("cursor: bad sort key")
	}
	return v, nil
}
