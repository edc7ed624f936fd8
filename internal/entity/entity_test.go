package entity_test

import (
	"testing"

	"github.com/ChrisWondeFro/vivint-gateway/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DecodesInitialTypedView(t *testing.T) {
	revalidate := func(raw map[string]any) (any, error) {
		return raw["name"], nil
	}
	e := entity.New(map[string]any{"name": "panel-1"}, revalidate, nil)
	require.Equal(t, "panel-1", e.Model())
}

func TestUpdateData_MergesByDefault(t *testing.T) {
	e := entity.New(map[string]any{"a": 1, "b": 2}, nil, nil)
	e.UpdateData(map[string]any{"b": 3, "c": 4}, false)
	require.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, e.Raw())
}

func TestUpdateData_OverrideReplacesRawEntirely(t *testing.T) {
	e := entity.New(map[string]any{"a": 1, "b": 2}, nil, nil)
	e.UpdateData(map[string]any{"c": 5}, true)
	require.Equal(t, map[string]any{"c": 5}, e.Raw())
}

func TestUpdateData_KeepsStaleModelOnRevalidationFailure(t *testing.T) {
	calls := 0
	revalidate := func(raw map[string]any) (any, error) {
		calls++
		if calls > 1 {
			return nil, assert.AnError
		}
		return raw["name"], nil
	}
	e := entity.New(map[string]any{"name": "first"}, revalidate, nil)
	require.Equal(t, "first", e.Model())

	e.UpdateData(map[string]any{"name": "second"}, false)
	require.Equal(t, "first", e.Model(), "stale typed view must survive a failed revalidation")
}

func TestUpdateData_EmitsUpdateEventWithDelta(t *testing.T) {
	e := entity.New(map[string]any{}, nil, nil)
	var got map[string]any
	e.On("update", func(payload map[string]any) { got = payload })
	e.UpdateData(map[string]any{"x": 1}, false)
	require.Equal(t, map[string]any{"x": 1}, got)
}

func TestOn_UnsubscribeStopsFutureDelivery(t *testing.T) {
	e := entity.New(map[string]any{}, nil, nil)
	calls := 0
	unsub := e.On("ping", func(map[string]any) { calls++ })
	e.Emit("ping", nil)
	unsub()
	e.Emit("ping", nil)
	require.Equal(t, 1, calls)
}

func TestEmit_RecoversFromPanickingListener(t *testing.T) {
	e := entity.New(map[string]any{}, nil, nil)
	e.On("boom", func(map[string]any) { panic("listener exploded") })
	secondCalled := false
	e.On("boom", func(map[string]any) { secondCalled = true })

	require.NotPanics(t, func() { e.Emit("boom", nil) })
	require.True(t, secondCalled, "a later listener must still run after an earlier one panics")
}
