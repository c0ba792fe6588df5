package store

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// PaginationParams contains cursor pagination request parameters.
type PaginationParams struct {
	Limit  int    // Items per page; defaults to 20, capped at 100
	Cursor string // Opaque cursor for the next page; empty for the first
}

// DefaultPaginationParams returns sensible defaults.
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{Limit: 20}
}

// Validate corrects out-of-range parameters.
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
}

// EncodeCursor creates an opaque cursor from a key.
func EncodeCursor(key string) string {
	if key == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor decodes a cursor back to a key.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("invalid cursor: %w", err)
	}
	return string(decoded), nil
}

// EncodeTimeCursor builds a cursor for feeds ordered by (time, id) descending.
func EncodeTimeCursor(t time.Time, id string) string {
	return EncodeCursor(t.UTC().Format(time.RFC3339Nano) + "|" + id)
}

// DecodeTimeCursor reverses EncodeTimeCursor. An empty cursor yields a zero
// time and empty id.
func DecodeTimeCursor(cursor string) (time.Time, string, error) {
	key, err := DecodeCursor(cursor)
	if err != nil || key == "" {
		return time.Time{}, "", err
	}

	ts, id, ok := strings.Cut(key, "|")
	if !ok || id == "" {
		return time.Time{}, "", fmt.Errorf("invalid cursor: malformed key")
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid cursor: %w", err)
	}
	return t, id, nil
}
