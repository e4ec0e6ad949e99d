package core

import (
	"net/url"
	"strings"
)

// FilterParams narrows an expense listing. Empty fields are not sent.
type FilterParams struct {
	Category  string
	StartDate string
	EndDate   string
}

// ParseFilterParams reads the filter descriptor from a query string.
func ParseFilterParams(q url.Values) FilterParams {
	return FilterParams{
		Category:  strings.TrimSpace(q.Get("category")),
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
	}
}

// Query encodes only the non-empty fields.
func (f FilterParams) Query() url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	return q
}

// Active reports whether any filter is set.
func (f FilterParams) Active() bool {
	return f.Category != "" || f.StartDate != "" || f.EndDate != ""
}
