package validation

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPageParams(t *testing.T) {
	tests := []struct {
		name        string
		page        int
		perPage     int
		wantPage    int
		wantPerPage int
	}{
		{"defaults", 0, 0, 1, 10},
		{"negative page", -5, 20, 1, 20},
		{"per_page over cap", 1, 500, 1, 100},
		{"per_page at cap", 2, 100, 2, 100},
		{"normal values", 3, 25, 3, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampPageParams(tt.page, tt.perPage)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantPerPage, got.PerPage)
		})
	}
}

func TestParsePageParams(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/teams?page=2&per_page=50", nil)
	got := ParsePageParams(r)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 50, got.PerPage)

	r = httptest.NewRequest("GET", "/api/v1/teams?page=abc&per_page=-1", nil)
	got = ParsePageParams(r)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 10, got.PerPage)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, PageParams{Page: 1, PerPage: 10}.Offset())
	assert.Equal(t, 40, PageParams{Page: 5, PerPage: 10}.Offset())
}
