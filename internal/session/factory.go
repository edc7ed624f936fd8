// Package session implements the per-request upstream factory: given a
// validated local user id, build a short-lived upstream.Session bound to
// that user's upstream refresh token, hand it to the caller, and
// unconditionally tear it down afterward.
package session

import (
	"context"

	"github.com/ChrisWondeFro/vivint-gateway/internal/authsvc"
	"github.com/ChrisWondeFro/vivint-gateway/internal/config"
	"github.com/ChrisWondeFro/vivint-gateway/internal/gwerror"
	"github.com/ChrisWondeFro/vivint-gateway/internal/upstream"
	"go.uber.org/zap"
)

// Factory builds one upstream.Session per call, scoped to the lifetime of
// a single HTTP request or WebSocket connection.
type Factory struct {
	cfg    *config.Config
	auth   *authsvc.Service
	logger *zap.Logger
}

// New builds a Factory.
func New(cfg *config.Config, auth *authsvc.Service, logger *zap.Logger) *Factory {
	return &Factory{cfg: cfg, auth: auth, logger: logger}
}

// Open resolves localUserID's bound upstream refresh token, constructs a
// Session from it, and connects. A connect failure is surfaced as an auth
// error telling the caller their session has expired and they must
// re-login, rather than the raw upstream failure.
func (f *Factory) Open(ctx context.Context, localUserID string) (*upstream.Session, error) {
	refreshToken, err := f.auth.UpstreamRefreshToken(ctx, localUserID)
	if err != nil {
		return nil, gwerror.New(gwerror.KindAuthError, "session expired, please log in again")
	}
	sess := upstream.NewWithRefreshToken(f.cfg, f.logger, refreshToken)
	if err := sess.Connect(ctx); err != nil {
		return nil, gwerror.New(gwerror.KindAuthError, "session expired, please log in again")
	}
	return sess, nil
}

// WithSession opens a Session, passes it to fn, and disconnects
// unconditionally on return (success or error) — callers never need to
// remember to release it themselves.
func (f *Factory) WithSession(ctx context.Context, localUserID string, fn func(*upstream.Session) error) error {
	sess, err := f.Open(ctx, localUserID)
	if err != nil {
		return err
	}
	defer sess.Disconnect()
	return fn(sess)
}
