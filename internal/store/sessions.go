package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	mfaSessionTTL         = 5 * time.Minute
	upstreamRefreshTTL    = 90 * 24 * time.Hour
)

// MFASession is the blob parked between a password login that triggered
// an MFA challenge and the verify-mfa call that resolves it.
type MFASession struct {
	PKCEVerifier string `json:"pkce_verifier"`
	PKCEState    string `json:"pkce_state"`
	Username     string `json:"username"`
	MFAType      string `json:"mfa_type"`
}

func mfaKey(sessionID string) string        { return fmt.Sprintf("mfa:%s", sessionID) }
func upstreamKey(localUserID string) string { return fmt.Sprintf("upstream-refresh:%s", localUserID) }
func refreshJTIKey(localUserID string) string { return fmt.Sprintf("refresh-jti:%s", localUserID) }

// Sessions layers the domain operations the auth service and the
// per-request upstream factory need on top of the raw KV store: putting/
// getting an in-flight MFA challenge, and binding a local user to their
// current upstream refresh token.
type Sessions struct {
	kv KV
}

// NewSessions wraps a KV store.
func NewSessions(kv KV) *Sessions { return &Sessions{kv: kv} }

// PutMFASession parks an in-progress PKCE/MFA challenge for 5 minutes.
func (s *Sessions) PutMFASession(ctx context.Context, sessionID string, sess MFASession) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, mfaKey(sessionID), string(raw), mfaSessionTTL)
}

// GetMFASession retrieves and decodes a parked challenge. ErrMiss surfaces
// unchanged when the challenge has expired or never existed.
func (s *Sessions) GetMFASession(ctx context.Context, sessionID string) (MFASession, error) {
	raw, err := s.kv.Get(ctx, mfaKey(sessionID))
	if err != nil {
		return MFASession{}, err
	}
	var sess MFASession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return MFASession{}, err
	}
	return sess, nil
}

// DeleteMFASession clears a challenge once it has been resolved (success
// or abandonment).
func (s *Sessions) DeleteMFASession(ctx context.Context, sessionID string) error {
	return s.kv.Delete(ctx, mfaKey(sessionID))
}

// PutUpstreamRefreshToken binds a local user id to their current upstream
// refresh token, for up to 90 days.
func (s *Sessions) PutUpstreamRefreshToken(ctx context.Context, localUserID, refreshToken string) error {
	return s.kv.Set(ctx, upstreamKey(localUserID), refreshToken, upstreamRefreshTTL)
}

// GetUpstreamRefreshToken returns the upstream refresh token bound to a
// local user id. ErrMiss means the local session has no live upstream
// binding — the caller should treat this as "re-login required".
func (s *Sessions) GetUpstreamRefreshToken(ctx context.Context, localUserID string) (string, error) {
	return s.kv.Get(ctx, upstreamKey(localUserID))
}

// DeleteUpstreamRefreshToken drops the binding, used on logout and on the
// defensive-revocation path when a refresh token reuse is detected.
func (s *Sessions) DeleteUpstreamRefreshToken(ctx context.Context, localUserID string) error {
	return s.kv.Delete(ctx, upstreamKey(localUserID))
}

// PutRefreshJTI records the id of the single refresh token currently
// considered live for a local user, so a replayed older refresh token can
// be detected and treated as a reuse attempt.
func (s *Sessions) PutRefreshJTI(ctx context.Context, localUserID, jti string, ttl time.Duration) error {
	return s.kv.Set(ctx, refreshJTIKey(localUserID), jti, ttl)
}

// GetRefreshJTI returns the currently-live refresh token id for a user.
func (s *Sessions) GetRefreshJTI(ctx context.Context, localUserID string) (string, error) {
	return s.kv.Get(ctx, refreshJTIKey(localUserID))
}
