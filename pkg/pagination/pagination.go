package pagination

const (
	// DefaultPageSize is the standard page size when one is not provided.
	DefaultPageSize = 20
	// MaxPageSize caps how many rows any list query can request.
	MaxPageSize = 200
)

// Params holds page pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Normalize enforces the configured defaults and maximums.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
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

// PageCount returns the number of pages needed for total rows, never below 1.
func PageCount(total int64, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pages < 1 {
		return 1
	}
	return pages
}

// Page wraps a list result with its pagination metadata.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	PageNumber int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPage assembles a Page from the raw query results.
func NewPage[T any](items []T, total int64, params Params) Page[T] {
	n := params.Normalize()
	return Page[T]{
		Items:      items,
		Total:      total,
		PageNumber: n.Page,
		PageSize:   n.PageSize,
		TotalPages: PageCount(total, n.PageSize),
	}
}
