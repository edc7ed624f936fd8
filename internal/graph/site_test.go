package graph_test

import (
	"context"
	"testing"

	"github.com/ChrisWondeFro/vivint-gateway/internal/graph"
	"github.com/stretchr/testify/require"
)

func sitePayload() map[string]any {
	return map[string]any{
		"panid": float64(100),
		"n":     "Home",
		"par": []any{
			map[string]any{
				"panid": float64(100),
				"parid": float64(1),
				"s":     "DISARMED",
				"d": []any{
					map[string]any{"_id": float64(1), "t": "door_lock", "on": true},
				},
			},
		},
		"u": []any{
			map[string]any{"id": "user-1", "n": "Jane"},
		},
	}
}

func TestNewSite_BuildsPanelsDevicesAndUsers(t *testing.T) {
	site := graph.NewSite(context.Background(), sitePayload(), nil, nil)
	require.Equal(t, 100, site.ID())
	require.Len(t, site.Panels, 1)
	require.Equal(t, 1, site.Panels[0].PartitionID())
	require.Len(t, site.Panels[0].Devices, 1)
	require.Len(t, site.Users, 1)
}

func TestSite_HandlePush_AccountPartitionRoutesToMatchingPanel(t *testing.T) {
	site := graph.NewSite(context.Background(), sitePayload(), nil, nil)

	var updateSeen map[string]any
	site.Panels[0].On("update", func(payload map[string]any) { updateSeen = payload })

	push := map[string]any{
		"t":     "account_partition",
		"panid": float64(100),
		"parid": float64(1),
		"op":    "u",
		"da":    map[string]any{"s": "ARMED_STAY"},
	}
	site.HandlePush(push)

	require.Equal(t, "ARMED_STAY", updateSeen["s"])
}

func TestSite_HandlePush_AccountPartitionIgnoresHeartbeatWithoutData(t *testing.T) {
	site := graph.NewSite(context.Background(), sitePayload(), nil, nil)
	called := false
	site.Panels[0].On("update", func(map[string]any) { called = true })

	site.HandlePush(map[string]any{
		"t":     "account_partition",
		"panid": float64(100),
		"parid": float64(1),
	})
	require.False(t, called)
}

func TestSite_HandlePush_AccountSystemUpdatesUsers(t *testing.T) {
	site := graph.NewSite(context.Background(), sitePayload(), nil, nil)

	push := map[string]any{
		"t":  "account_system",
		"op": "u",
		"da": map[string]any{
			"u": []any{map[string]any{"id": "user-1", "n": "Jane Updated"}},
		},
	}
	site.HandlePush(push)

	require.Equal(t, "user-1", site.Users[0].ID())
	require.Equal(t, "Jane Updated", site.Users[0].Raw()["n"])
}

func TestSite_HandlePush_UnrecognizedTypeIsDropped(t *testing.T) {
	site := graph.NewSite(context.Background(), sitePayload(), nil, nil)
	require.NotPanics(t, func() {
		site.HandlePush(map[string]any{"t": "something_else"})
	})
}

func TestPanel_HandlePush_DeviceScopedUpdateMergesIntoDeviceAndPanelSnapshot(t *testing.T) {
	site := graph.NewSite(context.Background(), sitePayload(), nil, nil)
	panel := site.Panels[0]

	panel.HandlePush(map[string]any{
		"op": "u",
		"da": map[string]any{
			"d": []any{
				map[string]any{"_id": float64(1), "on": false},
			},
		},
	}, nil)

	device := panel.Devices[0]
	require.Equal(t, false, device.Raw()["on"])
	require.Equal(t, false, panel.Raw()["d"].([]any)[0].(map[string]any)["on"])
}

func TestPanel_HandlePush_DeleteOpRemovesDeviceAndRecordsUnregistered(t *testing.T) {
	site := graph.NewSite(context.Background(), sitePayload(), nil, nil)
	panel := site.Panels[0]

	var deletedPayload map[string]any
	panel.On("device_deleted", func(payload map[string]any) { deletedPayload = payload })

	panel.HandlePush(map[string]any{
		"op": "delete",
		"da": map[string]any{
			"d": []any{
				map[string]any{"_id": float64(1)},
			},
		},
	}, nil)

	require.Empty(t, panel.Devices)
	require.NotNil(t, deletedPayload)
	require.Contains(t, panel.Unregistered, 1)
}
