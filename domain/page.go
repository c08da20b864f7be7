package domain

import (
	"math"

	"animeHub/errs"
)

// PageRequest asks for one page of a listing. Zero values are replaced by
// the defaults of the PageLimits the request is normalized against.
type PageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Offset returns the number of rows to skip. It assumes a normalized request.
// Offsets past math.MaxInt are capped, which still selects nothing.
func (r PageRequest) Offset() int {
	if r.Page <= 1 || r.PageSize <= 0 {
		return 0
	}
	if r.Page-1 > math.MaxInt/r.PageSize {
		return math.MaxInt
	}
	return (r.Page - 1) * r.PageSize
}

// PageLimits bounds the page size of every listing.
type PageLimits struct {
	Default int
	Max     int
}

// DefaultPageLimits are used when no limits are configured.
var DefaultPageLimits = PageLimits{Default: 20, Max: 100}

// Normalize fills in defaults and rejects out of range values.
func (l PageLimits) Normalize(r PageRequest) (PageRequest, error) {
	if r.Page == 0 {
		r.Page = 1
	}
	if r.PageSize == 0 {
		r.PageSize = l.Default
	}
	if r.Page < 0 {
		return r, errs.Errorf(errs.EINVALID, "The page must be at least 1.")
	}
	if r.PageSize < 0 || r.PageSize > l.Max {
		return r, errs.Errorf(errs.EINVALID, "The page size must be between 1 and %d.", l.Max)
	}
	return r, nil
}

// Page is one page of a listing together with the total size of the listing.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	HasMore  bool  `json:"hasMore"`
}

// NewPage builds a Page. Items is never nil, so an empty page encodes as [].
func NewPage[T any](items []T, total int64, r PageRequest) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:    items,
		Total:    total,
		Page:     r.Page,
		PageSize: r.PageSize,
		HasMore:  int64(r.Offset()) < total-int64(len(items)),
	}
}

// Order names the sort order of a listing.
type Order string

const (
	OrderLatest        Order = "latest"
	OrderOldest        Order = "oldest"
	OrderMostLiked     Order = "mostLiked"
	OrderMostCommented Order = "mostCommented"
	OrderHot           Order = "hot"
	OrderRandom        Order = "random"
)

// ParseOrder validates a sort order. The empty string means OrderLatest.
func ParseOrder(s string) (Order, error) {
	switch o := Order(s); o {
	case "":
		return OrderLatest, nil
	case OrderLatest, OrderOldest, OrderMostLiked, OrderMostCommented, OrderHot, OrderRandom:
		return o, nil
	}
	return "", errs.Errorf(errs.EINVALID, "Unknown sort order %q.", s)
}
