package history

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidCursor is returned for cursors this package did not produce
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor marks the last record of a page. Records are ordered by
// (finished_at, job_id) descending.
type Cursor struct {
	FinishedAt time.Time
	JobID      string
}

// DecodeCursor parses an opaque cursor. An empty string means the first page.
func DecodeCursor(cursorStr string) (*Cursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	nanos, jobID, ok := strings.Cut(string(decoded), "|")
	if !ok || jobID == "" {
		return nil, ErrInvalidCursor
	}

	ts, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad timestamp", ErrInvalidCursor)
	}

	return &Cursor{
		FinishedAt: time.Unix(0, ts).UTC(),
		JobID:      jobID,
	}, nil
}

// Encode returns the opaque form of the cursor
func (c *Cursor) Encode() string {
	cs := fmt.Sprintf("%d|%s", c.FinishedAt.UnixNano(), c.JobID)
	return base64.RawURLEncoding.EncodeToString([]byte(cs))
}
