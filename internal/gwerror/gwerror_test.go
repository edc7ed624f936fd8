package gwerror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ChrisWondeFro/vivint-gateway/internal/gwerror"
	"github.com/stretchr/testify/require"
)

func TestIs_MatchesDirectKind(t *testing.T) {
	err := gwerror.New(gwerror.KindAuthError, "bad token")
	require.True(t, gwerror.Is(err, gwerror.KindAuthError))
	require.False(t, gwerror.Is(err, gwerror.KindMfaRequired))
}

func TestIs_MatchesThroughWrappedCause(t *testing.T) {
	cause := gwerror.New(gwerror.KindMfaRequired, "mfa needed")
	wrapped := gwerror.Wrap(gwerror.KindApiError, "login failed", cause)
	require.True(t, gwerror.Is(wrapped, gwerror.KindApiError))
	require.True(t, gwerror.Is(wrapped, gwerror.KindMfaRequired))
}

func TestIs_FalseForUnrelatedError(t *testing.T) {
	require.False(t, gwerror.Is(errors.New("plain error"), gwerror.KindAuthError))
	require.False(t, gwerror.Is(nil, gwerror.KindAuthError))
}

func TestError_FormatsCauseWhenPresent(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := gwerror.Wrap(gwerror.KindTransportError, "request failed", cause)
	require.Contains(t, err.Error(), "request failed")
	require.Contains(t, err.Error(), "boom")
}

func TestUnwrap_ReturnsCause(t *testing.T) {
	cause := errors.New("root")
	err := gwerror.Wrap(gwerror.KindTransportError, "wrapped", cause)
	require.ErrorIs(t, err, cause)
}
