package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ChrisWondeFro/vivint-gateway/internal/authsvc"
	"github.com/ChrisWondeFro/vivint-gateway/internal/config"
	"github.com/ChrisWondeFro/vivint-gateway/internal/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMiddlewareTestService(t *testing.T) *authsvc.Service {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{}
	cfg.Auth.ServerSecret = "test-secret"
	cfg.Auth.AccessTokenExpire = time.Minute
	cfg.Auth.RefreshTokenExpire = time.Hour
	return authsvc.New(cfg, store.NewSessions(store.NewRedisKV(client)))
}

func TestAuthMiddleware_RejectsMissingBearer(t *testing.T) {
	svc := newMiddlewareTestService(t)
	mw := AuthMiddleware(svc, zap.NewNop())
	called := false
	handler := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/systems", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_AttachesUserIDOnValidToken(t *testing.T) {
	svc := newMiddlewareTestService(t)
	pair, err := svc.IssuePair(context.Background(), "user-1", "upstream-refresh")
	require.NoError(t, err)

	mw := AuthMiddleware(svc, zap.NewNop())
	var gotUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := requestUserID(r)
		gotUserID = id
	}))

	req := httptest.NewRequest(http.MethodGet, "/systems", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", gotUserID)
}

func TestAuthMiddleware_RejectsExpiredOrInvalidToken(t *testing.T) {
	svc := newMiddlewareTestService(t)
	mw := AuthMiddleware(svc, zap.NewNop())
	handler := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/systems", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
