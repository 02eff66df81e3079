package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"useraccounts/internal/config"
	"useraccounts/internal/handlers"
	"useraccounts/internal/repository"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		Environment: "development",
		Store:       config.StoreConfig{Driver: config.StoreMemory},
		Security: config.SecurityConfig{
			AccessTokenSecret:  "access-secret",
			RefreshTokenSecret: "refresh-secret",
			AccessTokenExpire:  15,
			RefreshTokenExpire: 60,
		},
	}
	handlerSet := handlers.NewHandlerSet(zerolog.Nop(), cfg, repository.NewMemoryUserRepository(), nil, nil)
	return NewHTTPServer(cfg, zerolog.Nop(), handlerSet).Handler()
}

func TestServer_UnknownRoute(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Route /api/v1/nope not found"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestServer_TrailingSlashRedirects(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/me/", nil))

	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/api/v1/me", w.Header().Get("Location"))
}

func TestServer_WrongMethodIsUnknownRoute(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/me", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Route /api/v1/me not found")
}

func TestServer_TestRoute(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"API is working"}`, w.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `useraccounts_http_requests_total{method="GET",route="/test",status="200"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestServer_ProtectedRouteNeedsLogin(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"please login to access this resource"}`, w.Body.String())
}
