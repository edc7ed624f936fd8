// Package upstream implements the upstream transport and auth state
// machine: PKCE login, MFA handoff, refresh-token rotation, bearer
// injection, and auto-reauth on 401, over a REST client shared with the
// gRPC unary call wrapper.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ChrisWondeFro/vivint-gateway/internal/config"
	"github.com/ChrisWondeFro/vivint-gateway/internal/gwerror"
	"github.com/ChrisWondeFro/vivint-gateway/internal/pkce"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Session is a single upstream login: exactly one of {username+password,
// upstream refresh token} seeds it, and it carries the token set and auth
// state machine for its lifetime. A Session is built fresh per local
// request/connection — it is not safe for concurrent use by more than
// one goroutine at a time.
type Session struct {
	cfg    *config.Config
	http   *resty.Client
	logger *zap.Logger

	state State
	token *Token

	username             string
	password              string
	upstreamRefreshToken string

	mfaType    string // "code" after a password login meets an MFA gate
	mfaCookies []*http.Cookie
	pkcePair   pkce.Pair
}

// RequestOptions carries the optional pieces of a C2 request.
type RequestOptions struct {
	Headers map[string]string
	Query   map[string]string
	Body    any
}

// NewWithPassword builds a Session that will perform a fresh PKCE
// password login on first use.
func NewWithPassword(cfg *config.Config, logger *zap.Logger, username, password string) *Session {
	return newSession(cfg, logger, username, password, "")
}

// NewWithRefreshToken builds a Session that will attempt a refresh-token
// grant on first use (no MFA involved on the refresh-token path).
func NewWithRefreshToken(cfg *config.Config, logger *zap.Logger, refreshToken string) *Session {
	return newSession(cfg, logger, "", "", refreshToken)
}

func newSession(cfg *config.Config, logger *zap.Logger, username, password, refreshToken string) *Session {
	client := resty.New().
		SetRedirectPolicy(resty.NoRedirectPolicy()).
		SetHeader("Accept", "application/json")
	return &Session{
		cfg:                  cfg,
		http:                 client,
		logger:               logger,
		state:                Anonymous,
		token:                &Token{},
		username:             username,
		password:             password,
		upstreamRefreshToken: refreshToken,
	}
}

// NewFromMFA reconstructs a session sitting in MfaPending, carrying the
// PKCE pair and username an earlier Login call parked in the KV store, so
// a later VerifyMFA call can resume the exchange without ever having kept
// the original Session object alive across the HTTP request boundary.
func NewFromMFA(cfg *config.Config, logger *zap.Logger, username string, pair pkce.Pair, mfaType string) *Session {
	s := newSession(cfg, logger, username, "", "")
	s.pkcePair = pair
	s.mfaType = mfaType
	s.state = MfaPending
	return s
}

// State returns the session's current auth-state-machine phase.
func (s *Session) State() State { return s.state }

// PKCEPair returns the session's PKCE challenge pair, for callers that
// need to park it across a login/verify-mfa request boundary.
func (s *Session) PKCEPair() pkce.Pair { return s.pkcePair }

// MFAType returns the MFA challenge type recorded for this session. A
// password login that meets an MFA gate always records "code"; the shape
// of the challenge body is not inspected.
func (s *Session) MFAType() string { return s.mfaType }

// Token returns a copy of the session's current token set, for callers
// that need to persist the rotated upstream refresh token.
func (s *Session) Token() Token { return *s.token }

// Do is the C2 REST wrapper: bearer injection, MFA gating, status
// classification, and a single implicit reauth-and-retry on 401.
func (s *Session) Do(ctx context.Context, verb, target string, opts RequestOptions) (map[string]any, error) {
	return s.doInternal(ctx, verb, target, opts, true)
}

func (s *Session) doInternal(ctx context.Context, verb, target string, opts RequestOptions, allowReauth bool) (map[string]any, error) {
	isAuthHost := isFullyQualified(target)

	if !isAuthHost {
		if !s.token.IsValid(defaultSkew) {
			if err := s.Connect(ctx); err != nil {
				return nil, err
			}
		}
		if s.state == MfaPending && !looksLikeMfaSubmission(opts.Body) {
			return nil, gwerror.New(gwerror.KindMfaRequired, "mfa verification required")
		}
	}

	req := s.http.R().SetContext(ctx)
	for k, v := range opts.Headers {
		req.SetHeader(k, v)
	}
	for k, v := range opts.Query {
		req.SetQueryParam(k, v)
	}
	if opts.Body != nil {
		req.SetBody(opts.Body)
	}
	if !isAuthHost {
		req.SetHeader("Authorization", "Bearer "+s.token.AccessToken)
	}

	url := target
	if !isAuthHost {
		url = strings.TrimSuffix(s.cfg.Upstream.APIBase, "/") + "/" + strings.TrimPrefix(target, "/")
	}

	resp, err := execVerb(req, verb, url)
	if err != nil {
		return nil, gwerror.Wrap(gwerror.KindTransportError, "upstream request failed", err)
	}

	result, cerr := s.classify(resp, isAuthHost)
	if cerr != nil {
		if allowReauth && !isAuthHost && resp.StatusCode() == 401 {
			if rerr := s.Connect(ctx); rerr == nil {
				return s.doInternal(ctx, verb, target, opts, false)
			}
		}
		return nil, cerr
	}
	return result, nil
}

func execVerb(req *resty.Request, verb, url string) (*resty.Response, error) {
	switch strings.ToUpper(verb) {
	case "GET":
		return req.Get(url)
	case "POST":
		return req.Post(url)
	case "PUT":
		return req.Put(url)
	default:
		return nil, fmt.Errorf("unsupported verb %q", verb)
	}
}

// classify turns a raw HTTP response into either a decoded body or a
// classified error, based on status code and content type.
func (s *Session) classify(resp *resty.Response, isAuthHost bool) (map[string]any, error) {
	status := resp.StatusCode()
	ct := resp.Header().Get("Content-Type")
	body := resp.Body()

	switch {
	case status == 200 && strings.Contains(ct, "json"):
		var out map[string]any
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, gwerror.Wrap(gwerror.KindTransportError, "malformed json body", err)
		}
		return out, nil

	case status == 200:
		return map[string]any{"message": string(body)}, nil

	case status == 302:
		return map[string]any{"location": resp.Header().Get("Location")}, nil

	case status == 400 || status == 401 || status == 403:
		parsed := parseErrorBody(body)
		msg := errorMessage(parsed)
		if msg == "mfa_required" || looksMfaShaped(parsed) {
			s.state = MfaPending
			return nil, gwerror.New(gwerror.KindMfaRequired, "mfa challenge required")
		}
		if isAuthHost {
			return nil, gwerror.New(gwerror.KindAuthError, msg)
		}
		return nil, gwerror.New(gwerror.KindApiError, msg)

	default:
		return nil, gwerror.New(gwerror.KindTransportError, fmt.Sprintf("unexpected upstream status %d", status))
	}
}

func parseErrorBody(body []byte) map[string]any {
	var m map[string]any
	_ = json.Unmarshal(body, &m)
	return m
}

func errorMessage(m map[string]any) string {
	if m == nil {
		return ""
	}
	if msg, ok := m["message"].(string); ok && msg != "" {
		return msg
	}
	if errStr, ok := m["error"].(string); ok && errStr != "" {
		if desc, ok := m["error_description"].(string); ok && desc != "" {
			return errStr + ": " + desc
		}
		return errStr
	}
	return ""
}

func looksMfaShaped(m map[string]any) bool {
	if m == nil {
		return false
	}
	_, hasValidate := m["validate"]
	_, hasMfa := m["mfa"]
	return hasValidate || hasMfa
}

// looksLikeMfaSubmission reports whether a request body looks like an
// MFA code being submitted, so an otherwise-blocked request can still go
// through while the session is in MfaPending.
func looksLikeMfaSubmission(body any) bool {
	m, ok := body.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m["code"]
	return ok
}

func isFullyQualified(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// Disconnect drops the held tokens and closes owned resources. Calling it
// twice is a no-op.
func (s *Session) Disconnect() error {
	s.token = &Token{}
	s.state = Anonymous
	return nil
}
