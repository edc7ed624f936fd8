// Package authsvc implements the local token service: dual-token (access/
// refresh) JWT issuance and rotation for the gateway's own HTTP surface,
// independent of the upstream's own token set.
package authsvc

import (
	"github.com/dgrijalva/jwt-go"
)

// tokenType distinguishes an access JWT from a refresh JWT so one can
// never be replayed as the other.
type tokenType string

const (
	typeAccess  tokenType = "access"
	typeRefresh tokenType = "refresh"
)

// Claims is the payload carried by both the access and refresh JWTs. The
// access token additionally pins the upstream refresh token bound to its
// subject at issue time, so a protected request can be rejected the
// instant that binding rotates or is revoked, instead of only at JWT
// expiry.
type Claims struct {
	Subject            string    `json:"sub"`
	TokenType          tokenType `json:"token_type"`
	VivintRefreshToken string    `json:"vivint_refresh_token,omitempty"`
	jwt.StandardClaims
}
