package httpapi

import (
	"context"
	"net/http"

	"github.com/ChrisWondeFro/vivint-gateway/internal/authsvc"
	"github.com/ChrisWondeFro/vivint-gateway/internal/config"
	"github.com/ChrisWondeFro/vivint-gateway/internal/gwerror"
	"github.com/ChrisWondeFro/vivint-gateway/internal/pkce"
	"github.com/ChrisWondeFro/vivint-gateway/internal/store"
	"github.com/ChrisWondeFro/vivint-gateway/internal/upstream"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthHandler serves the login/verify-mfa/refresh-token endpoints.
type AuthHandler struct {
	cfg      *config.Config
	authSvc  *authsvc.Service
	sessions *store.Sessions
	logger   *zap.Logger
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(cfg *config.Config, authSvc *authsvc.Service, sessions *store.Sessions, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, authSvc: authSvc, sessions: sessions, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login tries the stored upstream refresh token for this user first,
// falling back to a fresh PKCE password login only if no binding exists
// or the refresh grant fails. A response carrying message:"MFA_REQUIRED"
// means the caller must POST mfa_code to /auth/verify-mfa with the
// returned mfa_session_id before any token is issued.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readBodyJSON(w, r, 1<<16, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Result[any]{OK: false, Message: "invalid request body"})
		return
	}

	ctx := r.Context()

	if storedRefreshToken, err := h.sessions.GetUpstreamRefreshToken(ctx, req.Username); err == nil {
		refreshSess := upstream.NewWithRefreshToken(h.cfg, h.logger, storedRefreshToken)
		if err := refreshSess.Connect(ctx); err == nil {
			h.issueTokens(w, ctx, req.Username, refreshSess)
			return
		}
	}

	sess := upstream.NewWithPassword(h.cfg, h.logger, req.Username, req.Password)
	err := sess.Connect(ctx)
	if err == nil {
		h.issueTokens(w, ctx, req.Username, sess)
		return
	}
	if !gwerror.Is(err, gwerror.KindMfaRequired) {
		writeError(w, err)
		return
	}

	mfaSessionID := uuid.NewString()
	mfaErr := h.sessions.PutMFASession(ctx, mfaSessionID, store.MFASession{
		PKCEVerifier: sess.PKCEPair().Verifier,
		PKCEState:    sess.PKCEPair().State,
		Username:     req.Username,
		MFAType:      sess.MFAType(),
	})
	if mfaErr != nil {
		writeError(w, mfaErr)
		return
	}
	writeJSON(w, http.StatusBadRequest, Result[any]{
		OK:      false,
		Message: "MFA_REQUIRED",
		Data:    map[string]any{"mfa_session_id": mfaSessionID, "mfa_type": sess.MFAType()},
	})
}

type verifyMFARequest struct {
	MFASessionID string `json:"mfa_session_id"`
	MFACode      string `json:"mfa_code"`
}

// VerifyMFA resumes a parked login with the user-entered code.
func (h *AuthHandler) VerifyMFA(w http.ResponseWriter, r *http.Request) {
	var req verifyMFARequest
	if err := readBodyJSON(w, r, 1<<16, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Result[any]{OK: false, Message: "invalid request body"})
		return
	}

	ctx := r.Context()
	parked, err := h.sessions.GetMFASession(ctx, req.MFASessionID)
	if err != nil {
		writeJSON(w, http.StatusGone, Result[any]{OK: false, Message: "mfa challenge expired or not found"})
		return
	}

	pair := pkce.Pair{Verifier: parked.PKCEVerifier, State: parked.PKCEState}
	sess := upstream.NewFromMFA(h.cfg, h.logger, parked.Username, pair, parked.MFAType)
	err = sess.VerifyMFA(ctx, req.MFACode)
	_ = h.sessions.DeleteMFASession(ctx, req.MFASessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.issueTokens(w, ctx, parked.Username, sess)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken rotates a local refresh JWT (not to be confused with the
// upstream refresh token it is bound to, which only ever lives in the KV
// store and Session objects).
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := readBodyJSON(w, r, 1<<16, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Result[any]{OK: false, Message: "invalid request body"})
		return
	}
	pair, err := h.authSvc.RotateRefresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]any{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// issueTokens binds the upstream refresh token the session just obtained
// to a local user id and mints the local access/refresh pair for it. The
// upstream username is reused as the local user id — this gateway has no
// separate local identity concept; one upstream account maps to one local
// session.
func (h *AuthHandler) issueTokens(w http.ResponseWriter, ctx context.Context, username string, sess *upstream.Session) {
	pair, err := h.authSvc.IssuePair(ctx, username, sess.Token().RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]any{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}
