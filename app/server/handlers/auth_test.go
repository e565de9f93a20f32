package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/moonsunghun/blog-back-sub000/app/server/models"
	"github.com/moonsunghun/blog-back-sub000/app/server/types"
)

func contextWithAuth(header string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc123", bearerToken(contextWithAuth("Bearer abc123")))
	assert.Equal(t, "abc123", bearerToken(contextWithAuth("bearer abc123")))

	// 缺失或格式不对的头按访客处理
	assert.Empty(t, bearerToken(contextWithAuth("")))
	assert.Empty(t, bearerToken(contextWithAuth("abc123")))
	assert.Empty(t, bearerToken(contextWithAuth("Basic abc123")))
	assert.Empty(t, bearerToken(contextWithAuth("Bearer a b c")))
}

func TestMemberOf(t *testing.T) {
	user := models.User{IsAdmin: false}
	user.ID = 7
	assert.Equal(t, types.Member{ID: 7, Role: types.RoleUser}, memberOf(&user))

	admin := models.User{IsAdmin: true}
	admin.ID = 1
	assert.Equal(t, types.Member{ID: 1, Role: types.RoleAdmin}, memberOf(&admin))
}
