package authsvc_test

import (
	"context"
	"testing"
	"time"

	"github.com/ChrisWondeFro/vivint-gateway/internal/authsvc"
	"github.com/ChrisWondeFro/vivint-gateway/internal/config"
	"github.com/ChrisWondeFro/vivint-gateway/internal/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *authsvc.Service {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := store.NewSessions(store.NewRedisKV(client))
	cfg := &config.Config{}
	cfg.Auth.ServerSecret = "test-secret"
	cfg.Auth.AccessTokenExpire = time.Minute
	cfg.Auth.RefreshTokenExpire = time.Hour
	return authsvc.New(cfg, sessions)
}

func TestIssuePair_ThenValidateAccessReturnsLocalUserID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, "user-1", "upstream-refresh-xyz")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	userID, err := svc.ValidateAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestValidateAccess_RejectsRefreshTokenAsAccessToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, "user-1", "upstream-refresh-xyz")
	require.NoError(t, err)

	_, err = svc.ValidateAccess(ctx, pair.RefreshToken)
	require.Error(t, err)
}

func TestValidateAccess_UnaffectedByFailedRotationWithGarbageToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, "user-1", "upstream-refresh-xyz")
	require.NoError(t, err)

	// a refresh token that does not even parse is rejected before the
	// reuse-detection path runs, so no binding is revoked.
	_, err = svc.RotateRefresh(ctx, "garbage-token")
	require.Error(t, err)

	// the access token issued for user-1 is unaffected by a failed rotation
	// attempt using an unrelated garbage token.
	_, err = svc.ValidateAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
}

func TestValidateAccess_RejectsTokenAfterUpstreamBindingRotatesToNewValue(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, "user-1", "upstream-refresh-xyz")
	require.NoError(t, err)

	// reauth rotates the stored upstream refresh token to a new value
	// without the local user going through RotateRefresh.
	_, err = svc.IssuePair(ctx, "user-1", "upstream-refresh-rotated")
	require.NoError(t, err)

	// the old access token's pinned vivint_refresh_token claim no longer
	// matches the KV-stored value, so it must be rejected even though the
	// binding itself still exists.
	_, err = svc.ValidateAccess(ctx, pair.AccessToken)
	require.Error(t, err)
}

func TestUpstreamRefreshToken_ReturnsBoundToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.IssuePair(ctx, "user-1", "upstream-refresh-xyz")
	require.NoError(t, err)

	got, err := svc.UpstreamRefreshToken(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "upstream-refresh-xyz", got)
}

func TestRotateRefresh_IssuesFreshPairForValidToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	original, err := svc.IssuePair(ctx, "user-1", "upstream-refresh-xyz")
	require.NoError(t, err)

	rotated, err := svc.RotateRefresh(ctx, original.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, original.RefreshToken, rotated.RefreshToken)
}

func TestRotateRefresh_ReplayOfOldRefreshTokenRevokesSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	original, err := svc.IssuePair(ctx, "user-1", "upstream-refresh-xyz")
	require.NoError(t, err)

	// first rotation succeeds and supersedes original's jti
	_, err = svc.RotateRefresh(ctx, original.RefreshToken)
	require.NoError(t, err)

	// replaying the now-stale original refresh token is reuse: it must fail
	// and revoke the upstream binding entirely.
	_, err = svc.RotateRefresh(ctx, original.RefreshToken)
	require.Error(t, err)

	_, err = svc.UpstreamRefreshToken(ctx, "user-1")
	require.ErrorIs(t, err, store.ErrMiss)
}

func TestRotateRefresh_RejectsAccessTokenPresentedAsRefresh(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, "user-1", "upstream-refresh-xyz")
	require.NoError(t, err)

	_, err = svc.RotateRefresh(ctx, pair.AccessToken)
	require.Error(t, err)
}
