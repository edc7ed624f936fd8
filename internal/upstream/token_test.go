package upstream

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fakeIDToken(t *testing.T, exp int64) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload, err := json.Marshal(idClaims{Exp: exp})
	require.NoError(t, err)
	body := base64.RawURLEncoding.EncodeToString(payload)
	return header + "." + body + ".sig"
}

func TestToken_IsValid_TrueForFutureExpiry(t *testing.T) {
	tok := &Token{IDToken: fakeIDToken(t, time.Now().Add(time.Hour).Unix())}
	require.True(t, tok.IsValid(defaultSkew))
}

func TestToken_IsValid_FalseForPastExpiry(t *testing.T) {
	tok := &Token{IDToken: fakeIDToken(t, time.Now().Add(-time.Hour).Unix())}
	require.False(t, tok.IsValid(defaultSkew))
}

func TestToken_IsValid_FalseForMalformedIDToken(t *testing.T) {
	tok := &Token{IDToken: "not-a-jwt"}
	require.False(t, tok.IsValid(defaultSkew))
}

func TestToken_IsValid_FalseForNilOrEmptyToken(t *testing.T) {
	require.False(t, (*Token)(nil).IsValid(defaultSkew))
	require.False(t, (&Token{}).IsValid(defaultSkew))
}
