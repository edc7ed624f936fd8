package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodePushPayload_ParsesValidJSON(t *testing.T) {
	m, err := decodePushPayload([]byte(`{"t":"account_partition","panid":5}`))
	require.NoError(t, err)
	require.Equal(t, "account_partition", m["t"])
	require.Equal(t, float64(5), m["panid"])
}

func TestDecodePushPayload_ErrorsOnMalformedJSON(t *testing.T) {
	_, err := decodePushPayload([]byte(`not json`))
	require.Error(t, err)
}
