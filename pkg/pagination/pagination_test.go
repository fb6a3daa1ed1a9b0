package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name  string
		page  int
		limit int
		want  Params
	}{
		{"defaults apply", 0, 0, Params{Page: 1, Limit: 20, Offset: 0}},
		{"negative page", -3, 10, Params{Page: 1, Limit: 10, Offset: 0}},
		{"limit capped", 2, 500, Params{Page: 2, Limit: 100, Offset: 100}},
		{"offset computed", 3, 25, Params{Page: 3, Limit: 25, Offset: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.page, tt.limit))
		})
	}
}

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/items?page=2&limit=50", nil)

	p := Parse(c)
	assert.Equal(t, Params{Page: 2, Limit: 50, Offset: 50}, p)

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/items?page=abc&limit=", nil)

	p = Parse(c)
	assert.Equal(t, Params{Page: 1, Limit: 20, Offset: 0}, p)
}

func TestEnvelope(t *testing.T) {
	p := Clamp(2, 10)
	env := Envelope("tools", []string{"a", "b"}, 42, p)

	assert.Equal(t, []string{"a", "b"}, env["tools"])
	assert.Equal(t, int64(42), env["total"])
	assert.Equal(t, 2, env["page"])
	assert.Equal(t, 10, env["limit"])
}
