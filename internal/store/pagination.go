package store

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Page is offset/limit pagination. Offsets are not stable across writes.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the limit to (0, 100] and the offset to >= 0.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// PageResult is one page of items plus the total matching count.
type PageResult[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewPageResult builds a result for items fetched with p.
func NewPageResult[T any](items []T, total int, p Page) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{Items: items, Total: total, Limit: p.Limit, Offset: p.Offset}
}

// HasMore reports whether items remain past this page.
func (r PageResult[T]) HasMore() bool {
	return r.Offset+len(r.Items) < r.Total
}
