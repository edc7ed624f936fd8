package upstream

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChrisWondeFro/vivint-gateway/internal/gwerror"
	"github.com/ChrisWondeFro/vivint-gateway/internal/pkce"
)

// Connect drives one step of the auth state machine: a refresh-token grant
// when the session holds a refresh token, falling back to a fresh PKCE
// password login when that fails (or wasn't available) and a password is
// also held. A session that has neither is an auth error.
func (s *Session) Connect(ctx context.Context) error {
	if s.upstreamRefreshToken != "" {
		if err := s.refreshGrant(ctx); err == nil {
			s.state = Authenticated
			return nil
		} else if s.password == "" {
			return err
		}
	}
	if s.password == "" {
		return gwerror.New(gwerror.KindAuthError, "no credentials available to authenticate")
	}
	return s.passwordLogin(ctx)
}

// passwordLogin starts (or resumes) the PKCE authorization-code flow
// against the auth host. A response that comes back MFA-shaped leaves the
// session in MfaPending for the caller to resolve via VerifyMFA.
func (s *Session) passwordLogin(ctx context.Context) error {
	if s.pkcePair.Verifier == "" {
		pair, err := pkce.New()
		if err != nil {
			return gwerror.Wrap(gwerror.KindTransportError, "failed to generate pkce challenge", err)
		}
		s.pkcePair = pair
	}
	s.state = PkceStarted

	authorizeURL := s.cfg.Upstream.AuthHost + "/oauth/authorize"
	_, err := s.Do(ctx, "GET", authorizeURL, RequestOptions{
		Query: map[string]string{
			"client_id":             s.cfg.Upstream.ClientID,
			"redirect_uri":          s.cfg.Upstream.RedirectURI,
			"response_type":         "code",
			"code_challenge":        s.pkcePair.Challenge,
			"code_challenge_method": "S256",
			"state":                 s.pkcePair.State,
		},
	})
	if err != nil && gwerror.Is(err, gwerror.KindMfaRequired) {
		s.mfaType = "code"
		return err
	}
	if err != nil {
		return err
	}

	loginURL := s.cfg.Upstream.AuthHost + "/identity/login"
	resp, err := s.Do(ctx, "POST", loginURL, RequestOptions{
		Body: map[string]any{
			"username": s.username,
			"password": s.password,
			"state":    s.pkcePair.State,
		},
	})
	if err != nil {
		if gwerror.Is(err, gwerror.KindMfaRequired) {
			s.mfaType = "code"
		}
		return err
	}

	return s.exchangeAuthorizationCode(ctx, resp)
}

// VerifyMFA submits the user-entered code and, on success, completes the
// authorization-code exchange and marks the session Authenticated.
func (s *Session) VerifyMFA(ctx context.Context, code string) error {
	if s.state != MfaPending {
		return gwerror.New(gwerror.KindInconsistent, "no mfa challenge is pending")
	}
	verifyURL := s.cfg.Upstream.AuthHost + "/mfa/validate"
	resp, err := s.Do(ctx, "POST", verifyURL, RequestOptions{
		Body: map[string]any{
			"code":  code,
			"state": s.pkcePair.State,
		},
	})
	if err != nil {
		return err
	}
	return s.exchangeAuthorizationCode(ctx, resp)
}

// exchangeAuthorizationCode extracts the redirect location's authorization
// code and exchanges it (with the held PKCE verifier) for a token set. The
// verify response may carry the redirect directly as "location", or as a
// "url" that must itself be GET'd without following redirects to surface
// the real "location" carrying the code.
func (s *Session) exchangeAuthorizationCode(ctx context.Context, resp map[string]any) error {
	loc, _ := resp["location"].(string)
	if loc == "" {
		if url, ok := resp["url"].(string); ok && url != "" {
			redirectResp, err := s.Do(ctx, "GET", url, RequestOptions{})
			if err != nil {
				return err
			}
			loc, _ = redirectResp["location"].(string)
		}
	}
	code := extractQueryParam(loc, "code")
	if code == "" {
		return gwerror.New(gwerror.KindAuthError, "authorization redirect carried no code")
	}
	tokenURL := s.cfg.Upstream.AuthHost + "/oauth/token"
	tok, err := s.Do(ctx, "POST", tokenURL, RequestOptions{
		Body: map[string]any{
			"grant_type":    "authorization_code",
			"code":          code,
			"code_verifier": s.pkcePair.Verifier,
			"client_id":     s.cfg.Upstream.ClientID,
			"redirect_uri":  s.cfg.Upstream.RedirectURI,
		},
	})
	if err != nil {
		return err
	}
	s.applyTokenResponse(tok)
	s.state = Authenticated
	return nil
}

// refreshGrant exchanges the held upstream refresh token for a fresh
// access token, rotating the refresh token if the response carries one.
func (s *Session) refreshGrant(ctx context.Context) error {
	tokenURL := s.cfg.Upstream.AuthHost + "/oauth/token"
	tok, err := s.Do(ctx, "POST", tokenURL, RequestOptions{
		Body: map[string]any{
			"grant_type":    "refresh_token",
			"refresh_token": s.upstreamRefreshToken,
			"client_id":     s.cfg.Upstream.ClientID,
		},
	})
	if err != nil {
		return err
	}
	s.applyTokenResponse(tok)
	return nil
}

func (s *Session) applyTokenResponse(tok map[string]any) {
	access, _ := tok["access_token"].(string)
	refresh, _ := tok["refresh_token"].(string)
	id, _ := tok["id_token"].(string)
	s.token = &Token{AccessToken: access, RefreshToken: refresh, IDToken: id}
	if refresh != "" {
		s.upstreamRefreshToken = refresh
	}
}

func extractQueryParam(rawURL, key string) string {
	idx := strings.Index(rawURL, "?")
	if idx < 0 {
		return ""
	}
	for _, pair := range strings.Split(rawURL[idx+1:], "&") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 && kv[0] == key {
			return kv[1]
		}
	}
	return ""
}

// GetSiteData fetches one site's full device-graph payload.
func (s *Session) GetSiteData(ctx context.Context, panelID int) (map[string]any, error) {
	return s.Do(ctx, "GET", fmt.Sprintf("systems/%d", panelID), RequestOptions{})
}

// GetDeviceData fetches a single device's individual payload, used by the
// device-arrival settle task to pull its fully-populated record.
func (s *Session) GetDeviceData(ctx context.Context, panelID, deviceID int) (map[string]any, error) {
	return s.Do(ctx, "GET", fmt.Sprintf("systems/%d/devices/%d", panelID, deviceID), RequestOptions{})
}
