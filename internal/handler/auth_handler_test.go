package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"toolcrib/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuthService overrides only Logout; anything else panics via the
// embedded nil interface.
type stubAuthService struct {
	service.AuthService
	logoutFn func(ctx context.Context, sessionID, refreshToken string) error
}

func (s *stubAuthService) Logout(ctx context.Context, sessionID, refreshToken string) error {
	return s.logoutFn(ctx, sessionID, refreshToken)
}

func newAuthRouter(svc service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAuthHandler(svc)
	router.POST("/auth/logout", h.Logout)
	return router
}

func expiredAccessToken(t *testing.T, sid string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"sid": sid,
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)
	return signed
}

func TestLogoutDeletesSessionFromCookie(t *testing.T) {
	var gotSession, gotRefresh string
	svc := &stubAuthService{logoutFn: func(_ context.Context, sessionID, refreshToken string) error {
		gotSession = sessionID
		gotRefresh = refreshToken
		return nil
	}}
	router := newAuthRouter(svc)

	// The access token is expired and signed with a different secret; logout
	// must still recover the session ID from it.
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: expiredAccessToken(t, "sess-42")})
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "refresh-42"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-42", gotSession)
	assert.Equal(t, "refresh-42", gotRefresh)
}

func TestLogoutWithoutCookiesStillSucceeds(t *testing.T) {
	called := false
	svc := &stubAuthService{logoutFn: func(_ context.Context, sessionID, refreshToken string) error {
		called = true
		assert.Empty(t, sessionID)
		assert.Empty(t, refreshToken)
		return nil
	}}
	router := newAuthRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
