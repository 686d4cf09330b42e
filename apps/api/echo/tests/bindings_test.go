package tests

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/mafunzo/apps/api/echo"
	"github.com/trezcool/mafunzo/core"
)

func Test_orderingBind(t *testing.T) {
	newCtx := func(rawOrdering string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/?ordering="+url.QueryEscape(rawOrdering), nil)
		return echo.New().NewContext(req, httptest.NewRecorder())
	}

	tests := []struct {
		name string
		raw  string
		want []core.DBOrdering
	}{
		{
			name: "Known fields pass through", raw: "title,-created_at",
			want: []core.DBOrdering{{Field: "title", Ascending: true}, {Field: "created_at", Ascending: false}},
		},
		{
			name: "Unknown fields are dropped", raw: "title,password_hash",
			want: []core.DBOrdering{{Field: "title", Ascending: true}},
		},
		{name: "SQL expressions are dropped", raw: "(SELECT 1),-title;DROP TABLE training"},
		{name: "Empty param", raw: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ord := new(Ordering)
			ord.Bind(newCtx(tt.raw), "title", "created_at")
			assert.Equal(t, tt.want, ord.Orderings)
		})
	}
}
