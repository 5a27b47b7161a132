// Package listing filters and sorts in-memory entity lists for the table
// pages. Query state travels in the URL as q, sort and dir.
package listing

import (
	"net/url"
	"strings"
)

// Dir is a sort direction.
type Dir string

const (
	Asc  Dir = "asc"
	Desc Dir = "desc"
)

// Query is the table state requested by the user.
type Query struct {
	Search string
	SortBy string
	Dir    Dir
}

// ParseQuery reads q, sort and dir. Unknown directions fall back to Asc.
func ParseQuery(values url.Values) Query {
	q := Query{
		Search: strings.TrimSpace(values.Get("q")),
		SortBy: strings.TrimSpace(values.Get("sort")),
		Dir:    Asc,
	}
	if Dir(strings.ToLower(values.Get("dir"))) == Desc {
		q.Dir = Desc
	}
	return q
}

// Toggle returns the query after clicking the header for field: the active
// field flips direction, any other field starts ascending.
func (q Query) Toggle(field string) Query {
	next := q
	if q.SortBy == field {
		if q.Dir == Desc {
			next.Dir = Asc
		} else {
			next.Dir = Desc
		}
		return next
	}
	next.SortBy = field
	next.Dir = Asc
	return next
}

// Values encodes the query, omitting empty parts.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.SortBy != "" {
		v.Set("sort", q.SortBy)
		dir := q.Dir
		if dir == "" {
			dir = Asc
		}
		v.Set("dir", string(dir))
	}
	return v
}

// SortURL is the header link for field on the page at path.
func (q Query) SortURL(path, field string) string {
	encoded := q.Toggle(field).Values().Encode()
	if encoded == "" {
		return path
	}
	return path + "?" + encoded
}

// Arrow marks the active sort column.
func (q Query) Arrow(field string) string {
	if q.SortBy != field {
		return ""
	}
	if q.Dir == Desc {
		return "↓"
	}
	return "↑"
}
