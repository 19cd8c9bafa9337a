package models

import (
	"net/url"
	"strconv"
)

const (
	// PageLimit is the fixed listing window; there is no next-page control.
	PageLimit  = 10
	PageOffset = 0
)

// FilterState is what the filter bar currently shows.
type FilterState struct {
	Entity     Entity
	Department string
	Major      string
	Search     string
}

// DefaultFilterState is the state of a freshly loaded panel.
func DefaultFilterState() FilterState {
	return FilterState{Entity: EntityStudents}
}

// ListQuery is the parameter set of a backend listing call.
type ListQuery struct {
	Limit      int
	Offset     int
	Department string
	Major      string
	Search     string
}

// Query composes the listing query for the filter state. Empty filters are
// left out and Major only applies to students.
func (f FilterState) Query() ListQuery {
	q := ListQuery{Limit: PageLimit, Offset: PageOffset, Department: f.Department, Search: f.Search}
	if f.Entity.SupportsMajor() {
		q.Major = f.Major
	}
	return q
}

// Values renders the query string parameters. The backend expects "Major"
// capitalised.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("offset", strconv.Itoa(q.Offset))
	if q.Department != "" {
		v.Set("department", q.Department)
	}
	if q.Major != "" {
		v.Set("Major", q.Major)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}
