package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func filterFor(t *testing.T, query string) ListFilter {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var got ListFilter
	r := gin.New()
	r.GET("/list", func(c *gin.Context) {
		got = parseListFilter(c)
		c.Status(http.StatusOK)
	})
	req, _ := http.NewRequest(http.MethodGet, "/list"+query, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return got
}

func TestParseListFilterDefaults(t *testing.T) {
	f := filterFor(t, "")
	if f.Page != 1 || f.Limit != defaultPageSize {
		t.Errorf("defaults = page %d limit %d, want 1/%d", f.Page, f.Limit, defaultPageSize)
	}
	if f.Search != "" || f.IsActive != nil {
		t.Errorf("defaults: search=%q isActive=%v, want empty/nil", f.Search, f.IsActive)
	}
	if f.Offset() != 0 {
		t.Errorf("Offset() = %d, want 0", f.Offset())
	}
}

func TestParseListFilterValues(t *testing.T) {
	f := filterFor(t, "?page=3&limit=25&search=%20central%20&isActive=true")
	if f.Page != 3 || f.Limit != 25 {
		t.Errorf("page/limit = %d/%d, want 3/25", f.Page, f.Limit)
	}
	if f.Search != "central" {
		t.Errorf("search = %q, want trimmed %q", f.Search, "central")
	}
	if f.IsActive == nil || !*f.IsActive {
		t.Errorf("isActive = %v, want true", f.IsActive)
	}
	if f.Offset() != 50 {
		t.Errorf("Offset() = %d, want 50", f.Offset())
	}

	f = filterFor(t, "?isActive=false")
	if f.IsActive == nil || *f.IsActive {
		t.Errorf("isActive=false parsed as %v", f.IsActive)
	}
}

func TestParseListFilterBounds(t *testing.T) {
	f := filterFor(t, "?page=0&limit=-5")
	if f.Page != 1 || f.Limit != defaultPageSize {
		t.Errorf("invalid values: page/limit = %d/%d, want defaults", f.Page, f.Limit)
	}
	f = filterFor(t, "?limit=10000")
	if f.Limit != maxPageSize {
		t.Errorf("limit cap = %d, want %d", f.Limit, maxPageSize)
	}
	f = filterFor(t, "?page=abc&limit=xyz")
	if f.Page != 1 || f.Limit != defaultPageSize {
		t.Errorf("non-numeric: page/limit = %d/%d, want defaults", f.Page, f.Limit)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{100, 25, 4},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := totalPages(tc.total, tc.limit); got != tc.want {
			t.Errorf("totalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}
