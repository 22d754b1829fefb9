// Package pagination implements keyset paging for the ledger history
// streams. Entries list newest first, so a cursor marks the creation
// instant and row id of the last entry the client has already seen.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size when the caller does not pick one.
	DefaultLimit = 25
	// MaxLimit bounds how many entries a single history read may return.
	MaxLimit = 100
)

// Params carries the paging inputs of one history request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor marks the boundary entry of the previous page. Queries resume
// strictly after it, ordered by creation time with the row id breaking
// ties between entries created in the same instant.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps the requested page size to MaxLimit and
// substitutes DefaultLimit when the caller passed zero or less.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer asks for one row beyond the page so the repository can
// tell whether a further page exists without a second query.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor renders the cursor as an opaque token safe to carry in a
// query string.
func EncodeCursor(cursor Cursor) string {
	payload := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + cursor.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor reads a client-supplied token back into a Cursor. Blank
// input means the first page and yields a nil cursor without error.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("cursor is not a valid token: %w", err)
	}
	stamp, rawID, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, fmt.Errorf("cursor payload is malformed")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, fmt.Errorf("cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("cursor entry id: %w", err)
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
