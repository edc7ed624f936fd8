package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/ChrisWondeFro/vivint-gateway/internal/authsvc"
	"github.com/ChrisWondeFro/vivint-gateway/internal/config"
	"github.com/ChrisWondeFro/vivint-gateway/internal/gwerror"
	"github.com/ChrisWondeFro/vivint-gateway/internal/session"
	"github.com/ChrisWondeFro/vivint-gateway/internal/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFactory_Open_FailsWithAuthErrorWhenNoUpstreamBinding(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cfg := &config.Config{}
	cfg.Auth.ServerSecret = "test-secret"
	cfg.Auth.AccessTokenExpire = time.Minute
	cfg.Auth.RefreshTokenExpire = time.Hour

	sessions := store.NewSessions(store.NewRedisKV(client))
	authSvc := authsvc.New(cfg, sessions)
	factory := session.New(cfg, authSvc, zap.NewNop())

	_, err = factory.Open(context.Background(), "user-with-no-binding")
	require.Error(t, err)
	require.True(t, gwerror.Is(err, gwerror.KindAuthError))
}
