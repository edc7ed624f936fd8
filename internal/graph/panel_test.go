package graph_test

import (
	"context"
	"testing"

	"github.com/ChrisWondeFro/vivint-gateway/internal/graph"
	"github.com/stretchr/testify/require"
)

func TestPanel_Credentials_FetchesOnceThenCaches(t *testing.T) {
	site := graph.NewSite(context.Background(), sitePayload(), nil, nil)
	panel := site.Panels[0]

	fetchCalls := 0
	fetch := func() (graph.Credentials, error) {
		fetchCalls++
		return graph.Credentials{User: "admin", Password: "secret"}, nil
	}

	c1, err := panel.Credentials(fetch)
	require.NoError(t, err)
	require.Equal(t, "admin", c1.User)

	c2, err := panel.Credentials(fetch)
	require.NoError(t, err)
	require.Equal(t, c1, c2)
	require.Equal(t, 1, fetchCalls, "a second call must reuse the cached credentials")
}

func TestPanel_RefreshCredentials_ForcesRefetch(t *testing.T) {
	site := graph.NewSite(context.Background(), sitePayload(), nil, nil)
	panel := site.Panels[0]

	fetchCalls := 0
	fetch := func() (graph.Credentials, error) {
		fetchCalls++
		return graph.Credentials{User: "admin"}, nil
	}

	_, err := panel.Credentials(fetch)
	require.NoError(t, err)
	panel.RefreshCredentials()
	_, err = panel.Credentials(fetch)
	require.NoError(t, err)
	require.Equal(t, 2, fetchCalls)
}

func TestDevice_TypeAndID(t *testing.T) {
	site := graph.NewSite(context.Background(), sitePayload(), nil, nil)
	device := site.Panels[0].Devices[0]
	require.Equal(t, 1, device.ID())
	require.Equal(t, "door_lock", string(device.Type()))
}
