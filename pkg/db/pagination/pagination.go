package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

const (
	defaultPageSize = 50
	maxPageSize     = 250
)

var ErrInvalidPageToken = errors.New("invalid_page_token")

// Pagination is the cursor page request bound from list query strings.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Limit clamps the requested page size into the allowed range.
func (p Pagination) Limit() int {
	switch {
	case p.PageSize <= 0:
		return defaultPageSize
	case p.PageSize > maxPageSize:
		return maxPageSize
	}
	return p.PageSize
}

// Cursor marks the last row of the previous page. Snowflake ids are
// time-ordered, so the id alone is a stable keyset position.
type Cursor struct {
	ID int64 `json:"id"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

func EncodeCursor(c Cursor) string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidPageToken
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, ErrInvalidPageToken
	}
	return &c, nil
}

// Trim cuts the probe row fetched beyond the limit and reports whether
// a next page exists. Callers fetch limit+1 rows.
func Trim[T any](rows []T, limit int, cursorOf func(T) Cursor) ([]T, *PageInfo) {
	if len(rows) <= limit {
		return rows, &PageInfo{HasMore: false}
	}
	rows = rows[:limit]
	return rows, &PageInfo{
		HasMore:       true,
		NextPageToken: EncodeCursor(cursorOf(rows[len(rows)-1])),
	}
}
