package pkce_test

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/ChrisWondeFro/vivint-gateway/internal/pkce"
	"github.com/stretchr/testify/require"
)

func TestNew_ChallengeIsSHA256OfVerifier(t *testing.T) {
	pair, err := pkce.New()
	require.NoError(t, err)
	require.NotEmpty(t, pair.Verifier)
	require.NotEmpty(t, pair.State)

	sum := sha256.Sum256([]byte(pair.Verifier))
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	require.Equal(t, want, pair.Challenge)
}

func TestNew_GeneratesDistinctPairsEachCall(t *testing.T) {
	a, err := pkce.New()
	require.NoError(t, err)
	b, err := pkce.New()
	require.NoError(t, err)
	require.NotEqual(t, a.Verifier, b.Verifier)
	require.NotEqual(t, a.State, b.State)
}
