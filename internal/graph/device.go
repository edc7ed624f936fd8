// Package graph builds and mutates the site/panel/device tree and
// dispatches realtime push messages into it.
package graph

import (
	"github.com/ChrisWondeFro/vivint-gateway/internal/entity"
	"github.com/ChrisWondeFro/vivint-gateway/internal/model"
	"github.com/ChrisWondeFro/vivint-gateway/internal/registry"
	"go.uber.org/zap"
)

// Device is one node in a panel's device list. Panel is a non-owning back
// reference — ownership flows the other way: Site owns Panel, Panel owns
// Device.
type Device struct {
	*entity.Entity
	Panel *Panel
	hooks registry.Hooks
}

func newDevice(raw map[string]any, panel *Panel, logger *zap.Logger) *Device {
	typ := model.DeviceType(stringField(raw, "t", "type"))
	hooks := registry.Lookup(typ)
	d := &Device{Panel: panel, hooks: hooks}
	d.Entity = entity.New(raw, hooks.Revalidate, logger)
	return d
}

// ID returns the device's identity (unique within its panel).
func (d *Device) ID() int {
	return model.DecodeDeviceView(d.Raw()).ID
}

// Type returns the device's wire type tag.
func (d *Device) Type() model.DeviceType {
	return model.DeviceType(stringField(d.Raw(), "t", "type"))
}

// IsValid reports whether the device still counts as a live graph member;
// the device-arrival settle task polls this, and a sensor may flip false
// once marked unused.
func (d *Device) IsValid() bool {
	return d.hooks.IsValid(d.Raw())
}

// HandlePush applies the default entity merge, then gives the device's
// variant a chance to classify the push and emit its own domain event.
func (d *Device) HandlePush(message map[string]any) {
	d.UpdateData(message, false)
	d.hooks.AfterPush(message, d.Emit)
}

func stringField(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func intField(raw map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			switch n := v.(type) {
			case float64:
				return int(n), true
			case int:
				return n, true
			}
		}
	}
	return 0, false
}
