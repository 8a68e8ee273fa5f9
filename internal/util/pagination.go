package util

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page struct {
	Page   int   `json:"page"`
	Size   int   `json:"size"`
	Total  int64 `json:"total"`
	Offset int   `json:"-"`
}

// Calculate normalizes page and size and returns the row offset.
func Calculate(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return Page{Page: page, Size: size, Offset: (page - 1) * size}
}
