// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows shown in paged views.
const PageSize = 50

// MaxPageSize caps the "limit" query parameter.
const MaxPageSize = 500

// ParseStart extracts the human-friendly "from" query parameter (1-based index).
// "start" is left to date range filters.
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	return positive(query.Get(r, "from"), 1)
}

// ParseLimit extracts the "limit" query parameter, defaulting to PageSize
// and capped at MaxPageSize.
func ParseLimit(r *http.Request) int {
	n := positive(query.Get(r, "limit"), PageSize)
	if n > MaxPageSize {
		n = MaxPageSize
	}
	return n
}

func positive(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Range describes the window of rows shown, with 1-based positions.
type Range struct {
	First     int  `json:"first"`
	Last      int  `json:"last"`
	Total     int  `json:"total"`
	HasPrev   bool `json:"hasPrev"`
	HasNext   bool `json:"hasNext"`
	PrevStart int  `json:"prevStart,omitempty"`
	NextStart int  `json:"nextStart,omitempty"`
}

// Page returns the rows from start (1-based) up to size of them, and the
// range shown. A start past the end yields an empty page. The returned
// slice shares rows' backing array; callers must not modify it.
func Page[T any](rows []T, start, size int) ([]T, Range) {
	if start < 1 {
		start = 1
	}
	if size < 1 {
		size = PageSize
	}
	total := len(rows)
	rg := Range{Total: total}
	if start > total {
		rg.HasPrev = total > 0
		if rg.HasPrev {
			rg.PrevStart = max(1, total-size+1)
		}
		return rows[:0:0], rg
	}

	end := min(start-1+size, total)
	rg.First = start
	rg.Last = end
	rg.HasPrev = start > 1
	rg.HasNext = end < total
	if rg.HasPrev {
		rg.PrevStart = max(1, start-size)
	}
	if rg.HasNext {
		rg.NextStart = end + 1
	}
	return rows[start-1 : end], rg
}
