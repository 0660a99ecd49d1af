package httpserver

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// pageBounds turns 1-based page and size into a slice offset and length.
// Out-of-range values fall back to the first page and the default size.
// ok is false when the offset does not fit in an int.
func pageBounds(page, size int) (from, limit int, ok bool) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	if page-1 > math.MaxInt/size {
		return 0, size, false
	}
	return (page - 1) * size, size, true
}

// paginate applies ?page= and ?size= to items. Without either parameter the
// whole list is returned.
func paginate[T any](c echo.Context, items []T) []T {
	ps, ss := c.QueryParam("page"), c.QueryParam("size")
	if ps == "" && ss == "" {
		return items
	}
	page, _ := strconv.Atoi(ps)
	size, _ := strconv.Atoi(ss)
	from, limit, ok := pageBounds(page, size)
	if !ok || from >= len(items) {
		return items[:0]
	}
	end := from + limit
	if end > len(items) || end < from {
		end = len(items)
	}
	return items[from:end]
}
