package registry_test

import (
	"testing"

	"github.com/ChrisWondeFro/vivint-gateway/internal/model"
	"github.com/ChrisWondeFro/vivint-gateway/internal/registry"
	"github.com/stretchr/testify/require"
)

func TestLookup_FallsBackToDefaultHooksOnMiss(t *testing.T) {
	hooks := registry.Lookup(model.DeviceType("totally-unknown"))
	require.True(t, hooks.IsValid(nil))
	view, err := hooks.Revalidate(map[string]any{"_id": float64(1), "t": "x"})
	require.NoError(t, err)
	require.IsType(t, model.DeviceView{}, view)
}

func TestLookup_CameraHooksClassifyThumbnailReady(t *testing.T) {
	hooks := registry.Lookup(model.DeviceTypeCamera)
	var gotEvent string
	hooks.AfterPush(map[string]any{"thumbnail_date": "2026-01-01"}, func(event string, _ map[string]any) {
		gotEvent = event
	})
	require.Equal(t, "thumbnail_ready", gotEvent)
}

func TestLookup_CameraHooksClassifyDoorbellDing(t *testing.T) {
	hooks := registry.Lookup(model.DeviceTypeCamera)
	var gotEvent string
	hooks.AfterPush(map[string]any{"ding_dong": true}, func(event string, _ map[string]any) {
		gotEvent = event
	})
	require.Equal(t, "doorbell_ding", gotEvent)
}

func TestLookup_CameraHooksNoEventWhenNothingMatches(t *testing.T) {
	hooks := registry.Lookup(model.DeviceTypeCamera)
	called := false
	hooks.AfterPush(map[string]any{"unrelated": true}, func(string, map[string]any) { called = true })
	require.False(t, called)
}

func TestLookup_WirelessSensorHooksIsValid(t *testing.T) {
	hooks := registry.Lookup(model.DeviceTypeWirelessSensor)
	require.True(t, hooks.IsValid(map[string]any{"sn": "SN1", "eq": "DOOR", "st": "CONTACT"}))
	require.False(t, hooks.IsValid(map[string]any{"eq": "DOOR", "st": "CONTACT"}))
}
