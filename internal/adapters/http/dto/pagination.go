package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrInvalidCursor is returned for cursors this service did not issue.
var ErrInvalidCursor = errors.New("invalid cursor")

// PaginationRequest is the query of a keyset-paginated listing. Cursor is
// the nextCursor of the previous page, empty for the first one.
type PaginationRequest struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit"  validate:"omitempty,gte=1,lte=100"`
}

// GetLimit applies DefaultLimit to an unset limit and caps it at MaxLimit.
func (p PaginationRequest) GetLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	return min(p.Limit, MaxLimit)
}

// AfterID is the last ID of the previous page, zero on the first page.
func (p PaginationRequest) AfterID() (int64, error) {
	return DecodeCursor(p.Cursor)
}

// PaginatedResponse is one page of items. NextCursor is omitted on the last
// page.
type PaginatedResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// NewPaginatedResponse builds a page whose successor starts after
// nextAfterID. Zero marks the last page. Nil items encode as [].
func NewPaginatedResponse[T any](items []T, nextAfterID int64) *PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}

	return &PaginatedResponse[T]{
		Items:      items,
		NextCursor: EncodeCursor(nextAfterID),
		HasMore:    nextAfterID > 0,
	}
}

// cursor is the payload behind the opaque token clients see.
type cursor struct {
	After int64 `json:"after"`
}

// EncodeCursor returns the token for the page after afterID, or "" for zero.
func EncodeCursor(afterID int64) string {
	if afterID <= 0 {
		return ""
	}

	// Marshalling a struct with a single int64 cannot fail.
	raw, _ := json.Marshal(cursor{After: afterID})

	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor reverses EncodeCursor. An empty token is the first page.
func DecodeCursor(token string) (int64, error) {
	if token == "" {
		return 0, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrInvalidCursor
	}

	var c cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.After <= 0 {
		return 0, ErrInvalidCursor
	}

	return c.After, nil
}
