package shared

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DefaultPageSize applies when a listing request does not name one.
const DefaultPageSize = 20

// MaxPageSize caps a single page.
const MaxPageSize = 100

// Cursor is a keyset continuation token: the sort key of the last row of
// the previous page plus its id as tiebreak.
type Cursor struct {
	Key string    `json:"k"`
	ID  uuid.UUID `json:"id"`
}

// Encode serialises the cursor into an opaque URL-safe token.
func (c Cursor) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses a token produced by Encode. An empty token yields
// ok=false, meaning start from the first page.
func DecodeCursor(token string) (Cursor, bool) {
	if token == "" {
		return Cursor{}, false
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, false
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, false
	}
	return c, true
}

// TimeKey formats a timestamp as a cursor sort key.
func TimeKey(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimeKey reverses TimeKey.
func ParseTimeKey(key string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, key)
}

// EncodeSeqCursor serialises a monotonic sequence cursor (history ids).
func EncodeSeqCursor(id int64) string {
	return strconv.FormatInt(id, 10)
}

// DecodeSeqCursor parses a sequence cursor. Empty or malformed tokens
// yield ok=false.
func DecodeSeqCursor(token string) (int64, bool) {
	if token == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ClampPageSize normalises a requested page size.
func ClampPageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// Page carries listing metadata alongside the rows: the total count
// matching the filter and the continuation token for the next page.
type Page struct {
	Total      int    `json:"total"`
	NextCursor string `json:"nextCursor,omitempty"`
}
