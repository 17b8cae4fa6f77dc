package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext(t *testing.T) {
	cases := []struct {
		query              string
		wantLimit, wantOff int
	}{
		{"", DefaultLimit, 0},
		{"limit=50&offset=10", 50, 10},
		{"limit=0", DefaultLimit, 0},
		{"limit=-5&offset=-3", DefaultLimit, 0},
		{"limit=5000", MaxLimit, 0},
		{"limit=abc&offset=xyz", DefaultLimit, 0},
	}
	for _, c := range cases {
		p := paramsFor(t, c.query)
		if p.Limit != c.wantLimit || p.Offset != c.wantOff {
			t.Errorf("%q: got %d/%d, want %d/%d", c.query, p.Limit, p.Offset, c.wantLimit, c.wantOff)
		}
	}
}

func TestNewResponse(t *testing.T) {
	r := NewResponse([]int{1, 2, 3}, 10, 3, 0)
	if !r.HasMore {
		t.Error("expected has_more with 10 total and page of 3")
	}
	last := NewResponse([]int{1}, 10, 3, 9)
	if last.HasMore {
		t.Error("expected no more pages past the end")
	}
}

func TestParamsHelpers(t *testing.T) {
	p := Params{Limit: 20, Offset: 40}
	if p.SQL() != "LIMIT 20 OFFSET 40" {
		t.Errorf("sql = %q", p.SQL())
	}
	if !p.HasNext(100) {
		t.Error("expected next page at 60/100")
	}
	if p.HasNext(60) {
		t.Error("expected no next page at 60/60")
	}
	if p.NextOffset() != 60 {
		t.Errorf("next offset = %d, want 60", p.NextOffset())
	}
}
