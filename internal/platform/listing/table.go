package listing

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

type column[T any] struct {
	compare func(a, b T) int
}

// Table describes how one entity list is searched and sorted.
type Table[T any] struct {
	search  []func(T) string
	columns map[string]column[T]
}

// NewTable returns a table whose free-text search matches any of fields.
func NewTable[T any](fields ...func(T) string) *Table[T] {
	return &Table[T]{search: fields, columns: make(map[string]column[T])}
}

// Text registers a case-insensitive string column.
func (t *Table[T]) Text(key string, fn func(T) string) *Table[T] {
	t.columns[key] = column[T]{compare: func(a, b T) int {
		fold := cases.Fold()
		return strings.Compare(fold.String(fn(a)), fold.String(fn(b)))
	}}
	return t
}

// Time registers a column compared by instant.
func (t *Table[T]) Time(key string, fn func(T) time.Time) *Table[T] {
	t.columns[key] = column[T]{compare: func(a, b T) int {
		return fn(a).Compare(fn(b))
	}}
	return t
}

// Number registers a numeric column.
func (t *Table[T]) Number(key string, fn func(T) float64) *Table[T] {
	t.columns[key] = column[T]{compare: func(a, b T) int {
		x, y := fn(a), fn(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	}}
	return t
}

// Sortable reports whether key names a registered column.
func (t *Table[T]) Sortable(key string) bool {
	_, ok := t.columns[key]
	return ok
}

// Filter keeps the items where term is a case-insensitive substring of at
// least one search field. An empty term keeps everything. The input slice is
// never modified.
func (t *Table[T]) Filter(items []T, term string) []T {
	out := make([]T, 0, len(items))
	if strings.TrimSpace(term) == "" {
		return append(out, items...)
	}
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(term))
	for _, item := range items {
		for _, field := range t.search {
			if strings.Contains(fold.String(field(item)), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Sort returns a stably sorted copy of items. Unknown keys leave the order
// untouched.
func (t *Table[T]) Sort(items []T, key string, dir Dir) []T {
	out := append(make([]T, 0, len(items)), items...)
	col, ok := t.columns[key]
	if !ok {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if dir == Desc {
			return col.compare(out[j], out[i]) < 0
		}
		return col.compare(out[i], out[j]) < 0
	})
	return out
}

// Apply filters then sorts items according to q.
func (t *Table[T]) Apply(items []T, q Query) []T {
	return t.Sort(t.Filter(items, q.Search), q.SortBy, q.Dir)
}
