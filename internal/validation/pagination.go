package validation

import (
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// PageParams is a bounded pagination request parsed from query parameters.
type PageParams struct {
	Page    int
	PerPage int
}

// Offset returns the row offset for the page.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// ParsePageParams reads page/per_page query parameters, clamping per_page to
// the 1-100 range and page to >= 1.
func ParsePageParams(r *http.Request) PageParams {
	return ClampPageParams(
		atoiOrZero(r.URL.Query().Get("page")),
		atoiOrZero(r.URL.Query().Get("per_page")),
	)
}

// ClampPageParams normalizes raw pagination values into the allowed bounds.
func ClampPageParams(page, perPage int) PageParams {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
