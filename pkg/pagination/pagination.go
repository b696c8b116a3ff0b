package pagination

const (
	// DefaultPageSize is the standard page size when one is not provided.
	DefaultPageSize = 20
	// MaxPageSize caps how many rows any list query can request.
	MaxPageSize = 100
)

// Params holds page pagination inputs from controllers or services.
// Pages are 1-indexed; a page past the end yields an empty page, not an error.
type Params struct {
	Page     int
	PageSize int
}

// Normalize clamps the page and page size into their allowed ranges.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// Limit returns the normalized page size.
func (p Params) Limit() int {
	return p.Normalize().PageSize
}

// Page wraps a page of rows with the total row count for the filter.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// NewPage builds a Page from normalized params, rows and the total count.
func NewPage[T any](params Params, items []T, total int64) *Page[T] {
	n := params.Normalize()
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:    items,
		Page:     n.Page,
		PageSize: n.PageSize,
		Total:    total,
	}
}
