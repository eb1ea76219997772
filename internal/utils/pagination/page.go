package pagination

import (
	"encoding/json"
	"fmt"
	"math"
)

// HeaderName carries the pagination metadata, separate from the response body.
const HeaderName = "Pagination"

// Params is a normalized page request.
type Params struct {
	PageNumber int
	PageSize   int
}

// Normalize clamps a client-supplied page request.
//   - pageNumber < 1 becomes 1.
//   - pageSize < 1 becomes defaultSize; anything above maxSize becomes maxSize.
func Normalize(pageNumber, pageSize, defaultSize, maxSize int) Params {
	if maxSize < 1 {
		maxSize = 1
	}
	if defaultSize < 1 || defaultSize > maxSize {
		defaultSize = maxSize
	}
	if pageNumber < 1 {
		pageNumber = 1
	}
	switch {
	case pageSize < 1:
		pageSize = defaultSize
	case pageSize > maxSize:
		pageSize = maxSize
	}
	return Params{PageNumber: pageNumber, PageSize: pageSize}
}

// Offset is the number of rows skipped before this page.
// It saturates at math.MaxInt instead of wrapping for huge page numbers.
func (p Params) Offset() int {
	if p.PageNumber < 1 || p.PageSize < 1 {
		return 0
	}
	if p.PageNumber-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.PageNumber - 1) * p.PageSize
}

// BeyondEnd reports whether this page starts past the last of total rows.
func (p Params) BeyondEnd(total int64) bool {
	if p.PageNumber < 1 || p.PageSize < 1 {
		return total <= 0
	}
	if total <= 0 {
		return true
	}
	return int64(p.PageNumber-1) > (total-1)/int64(p.PageSize)
}

// Page is one slice of a filtered result set plus counts over the whole set.
type Page[T any] struct {
	Items       []T
	CurrentPage int
	PageSize    int
	TotalCount  int64
	TotalPages  int
}

// NewPage builds a page; TotalPages = ceil(total / pageSize).
func NewPage[T any](items []T, total int64, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		CurrentPage: p.PageNumber,
		PageSize:    p.PageSize,
		TotalCount:  total,
		TotalPages:  TotalPages(total, p.PageSize),
	}
}

func TotalPages(total int64, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// Header is the wire form of the pagination metadata.
type Header struct {
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalItems   int64 `json:"totalItems"`
	TotalPages   int   `json:"totalPages"`
}

func (p Page[T]) Header() Header {
	return Header{
		CurrentPage:  p.CurrentPage,
		ItemsPerPage: p.PageSize,
		TotalItems:   p.TotalCount,
		TotalPages:   p.TotalPages,
	}
}

// Encode renders the header value as compact JSON.
func (h Header) Encode() string {
	b, _ := json.Marshal(h)
	return string(b)
}

// DecodeHeader parses a header value produced by Encode.
func DecodeHeader(v string) (Header, error) {
	var h Header
	if err := json.Unmarshal([]byte(v), &h); err != nil {
		return Header{}, fmt.Errorf("invalid pagination header")
	}
	return h, nil
}
