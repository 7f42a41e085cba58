package shared

import (
	"net/http"
	"strconv"
)

// Pagination is a limit/offset window. A zero Limit means no limit.
type Pagination struct {
	Limit  int
	Offset int
}

func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	p := Pagination{Limit: defaultLimit}
	query := r.URL.Query()
	if v, err := strconv.Atoi(query.Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	if v, err := strconv.Atoi(query.Get("offset")); err == nil && v >= 0 {
		p.Offset = v
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}
