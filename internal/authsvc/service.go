package authsvc

import (
	"context"
	"time"

	"github.com/ChrisWondeFro/vivint-gateway/internal/config"
	"github.com/ChrisWondeFro/vivint-gateway/internal/gwerror"
	"github.com/ChrisWondeFro/vivint-gateway/internal/store"
	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// Service issues and validates the gateway's own access/refresh JWTs, and
// binds them to the upstream refresh token a local user's session needs.
// It never hands out the upstream refresh token itself — only its own
// tokens, whose validity is checked against the KV-stored binding on
// every access-token use.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	sessions   *store.Sessions
}

// New builds a Service from configuration.
func New(cfg *config.Config, sessions *store.Sessions) *Service {
	return &Service{
		secret:     []byte(cfg.Auth.ServerSecret),
		accessTTL:  cfg.Auth.AccessTokenExpire,
		refreshTTL: cfg.Auth.RefreshTokenExpire,
		sessions:   sessions,
	}
}

// Pair is one issued access/refresh JWT set.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// IssuePair binds localUserID to upstreamRefreshToken in the KV store and
// mints a fresh access/refresh pair for it.
func (s *Service) IssuePair(ctx context.Context, localUserID, upstreamRefreshToken string) (Pair, error) {
	if err := s.sessions.PutUpstreamRefreshToken(ctx, localUserID, upstreamRefreshToken); err != nil {
		return Pair{}, gwerror.Wrap(gwerror.KindTransportError, "failed to persist upstream binding", err)
	}
	return s.mintPair(ctx, localUserID, upstreamRefreshToken)
}

func (s *Service) mintPair(ctx context.Context, localUserID, upstreamRefreshToken string) (Pair, error) {
	now := time.Now()
	access, err := s.sign(Claims{
		Subject:            localUserID,
		TokenType:          typeAccess,
		VivintRefreshToken: upstreamRefreshToken,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.accessTTL).Unix(),
		},
	})
	if err != nil {
		return Pair{}, err
	}

	jti := uuid.NewString()
	refresh, err := s.sign(Claims{
		Subject:   localUserID,
		TokenType: typeRefresh,
		StandardClaims: jwt.StandardClaims{
			Id:        jti,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.refreshTTL).Unix(),
		},
	})
	if err != nil {
		return Pair{}, err
	}
	if err := s.sessions.PutRefreshJTI(ctx, localUserID, jti, s.refreshTTL); err != nil {
		return Pair{}, gwerror.Wrap(gwerror.KindTransportError, "failed to persist refresh token id", err)
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) sign(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", gwerror.Wrap(gwerror.KindTransportError, "failed to sign jwt", err)
	}
	return signed, nil
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, gwerror.New(gwerror.KindAuthError, "invalid or expired token")
	}
	return claims, nil
}

// ValidateAccess parses and checks an access JWT, then confirms the local
// user still has a live upstream refresh-token binding — a revoked
// binding invalidates every outstanding access token immediately, without
// waiting for JWT expiry.
func (s *Service) ValidateAccess(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.TokenType != typeAccess {
		return "", gwerror.New(gwerror.KindAuthError, "token is not an access token")
	}
	bound, err := s.sessions.GetUpstreamRefreshToken(ctx, claims.Subject)
	if err != nil {
		return "", gwerror.New(gwerror.KindAuthError, "session no longer bound to an upstream account")
	}
	if bound != claims.VivintRefreshToken {
		return "", gwerror.New(gwerror.KindAuthError, "upstream binding has rotated, please log in again")
	}
	return claims.Subject, nil
}

// UpstreamRefreshToken returns the upstream refresh token bound to the
// subject of an already-validated access token, for the per-request
// upstream factory to build a Session from.
func (s *Service) UpstreamRefreshToken(ctx context.Context, localUserID string) (string, error) {
	return s.sessions.GetUpstreamRefreshToken(ctx, localUserID)
}

// RotateRefresh exchanges a refresh JWT for a fresh pair. Presenting a
// refresh token whose jti doesn't match the one last issued for its
// subject is treated as token-reuse by an attacker holding a stale token:
// the entire session (upstream binding included) is revoked defensively
// and the rotation fails.
func (s *Service) RotateRefresh(ctx context.Context, tokenString string) (Pair, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return Pair{}, err
	}
	if claims.TokenType != typeRefresh {
		return Pair{}, gwerror.New(gwerror.KindAuthError, "token is not a refresh token")
	}

	live, err := s.sessions.GetRefreshJTI(ctx, claims.Subject)
	if err != nil || live != claims.Id {
		_ = s.sessions.DeleteUpstreamRefreshToken(ctx, claims.Subject)
		return Pair{}, gwerror.New(gwerror.KindAuthError, "refresh token reuse detected, session revoked")
	}

	upstreamRefreshToken, err := s.sessions.GetUpstreamRefreshToken(ctx, claims.Subject)
	if err != nil {
		return Pair{}, gwerror.New(gwerror.KindAuthError, "session no longer bound to an upstream account")
	}

	return s.mintPair(ctx, claims.Subject, upstreamRefreshToken)
}
