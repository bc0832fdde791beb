package main

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ListFilter enumerates the recognized list query parameters. Filters are a
// fixed struct, not a free-form map, so unknown keys are simply ignored.
type ListFilter struct {
	Page     int
	Limit    int
	Search   string
	IsActive *bool // nil means "both"
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func parseListFilter(c *gin.Context) ListFilter {
	f := ListFilter{Page: 1, Limit: defaultPageSize}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		f.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		f.Limit = v
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	f.Search = strings.TrimSpace(c.Query("search"))
	// The frontend sends isActive as the strings "true"/"false".
	if v := c.Query("isActive"); v != "" {
		b := v == "true"
		f.IsActive = &b
	}
	return f
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
