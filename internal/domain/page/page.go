// Package page normalizes offset pagination parameters.
package page

// Request is a normalized page request.
type Request struct {
	page    int
	perPage int
}

// New clamps page to >= 1 and perPage to [1, maxPerPage], substituting defaultPerPage for 0.
func New(page, perPage, defaultPerPage, maxPerPage int) Request {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return Request{page: page, perPage: perPage}
}

// Page returns the 1-based page number.
func (r Request) Page() int { return r.page }

// PerPage returns the page size.
func (r Request) PerPage() int { return r.perPage }

// Offset returns the number of rows to skip.
func (r Request) Offset() int { return (r.page - 1) * r.perPage }

// Info describes a returned page.
type Info struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// InfoFor builds page info for a total row count.
func InfoFor(r Request, total int) Info {
	pages := 0
	if r.perPage > 0 {
		pages = (total + r.perPage - 1) / r.perPage
	}
	return Info{Page: r.page, PerPage: r.perPage, Total: total, TotalPages: pages}
}
