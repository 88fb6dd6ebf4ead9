package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
	// Machine readable error key, when known.
	// example: idexists
	Key string `json:"key,omitempty" example:"idexists"`
}

// Page describes one slice of a paginated listing.
type Page struct {
	// Zero-based page index.
	Number int
	// Page size.
	Size int
}

// Offset returns the row offset of the page.
func (p Page) Offset() int { return p.Number * p.Size }

// PageResult is a page of items together with the total row count.
type PageResult[T any] struct {
	Items []T
	Total int64
	Page  Page
}

// TotalPages returns the number of pages needed to hold Total items.
func (r PageResult[T]) TotalPages() int {
	if r.Page.Size <= 0 {
		return 0
	}
	return int((r.Total + int64(r.Page.Size) - 1) / int64(r.Page.Size))
}
