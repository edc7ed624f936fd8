// Package registry implements the static device-type -> variant hook
// lookup: a map from the wire type tag to the behavior that distinguishes
// one device variant from another, with a safe fallback to "unknown" on
// any miss.
package registry

import "github.com/ChrisWondeFro/vivint-gateway/internal/model"

// Hooks is the variant-specific behavior attached to a device's otherwise
// generic entity core. All methods have a sane default so a variant only
// needs to override what makes it different.
type Hooks interface {
	// Revalidate decodes the variant's typed view from the raw map.
	Revalidate(raw map[string]any) (any, error)
	// AfterPush runs after the entity's default merge+revalidate, giving
	// the variant a chance to classify and emit its own domain events.
	// emit is the device entity's Emit function, pre-bound by the caller.
	AfterPush(raw map[string]any, emit func(event string, payload map[string]any))
	// IsValid reports whether the device should be considered a live
	// member of the graph; the device-arrival settle task polls this.
	IsValid(raw map[string]any) bool
}

type defaultHooks struct{}

func (defaultHooks) Revalidate(raw map[string]any) (any, error) {
	return model.DecodeDeviceView(raw), nil
}
func (defaultHooks) AfterPush(map[string]any, func(string, map[string]any)) {}
func (defaultHooks) IsValid(map[string]any) bool                            { return true }

type cameraHooks struct{ defaultHooks }

func (cameraHooks) Revalidate(raw map[string]any) (any, error) {
	return model.DecodeCameraView(raw), nil
}

// AfterPush classifies the push into exactly one domain event using a set
// of disjoint predicates, or none if nothing matches.
func (cameraHooks) AfterPush(raw map[string]any, emit func(string, map[string]any)) {
	event, ok := classifyCameraPush(raw)
	if ok {
		emit(event, raw)
	}
}

func classifyCameraPush(raw map[string]any) (string, bool) {
	if _, ok := raw["thumbnail_date"]; ok {
		return "thumbnail_ready", true
	}
	if _, ok := raw["ding_dong"]; ok {
		return "doorbell_ding", true
	}
	if hasOnlyKeys(raw, "id", "type") || hasOnlyKeys(raw, "_id", "type") || hasOnlyKeys(raw, "_id", "t") {
		return "video_ready", true
	}
	if _, ok := raw["visitor_detected"]; ok {
		return "motion_detected", true
	}
	if hasOnlyKeys(raw, "_id", "actual_type", "state") || hasOnlyKeys(raw, "id", "actual_type", "state") {
		return "motion_detected", true
	}
	if hasOnlyKeys(raw, "_id", "deter_on_duty", "type") || hasOnlyKeys(raw, "id", "deter_on_duty", "type") {
		return "motion_detected", true
	}
	return "", false
}

func hasOnlyKeys(raw map[string]any, keys ...string) bool {
	if len(raw) != len(keys) {
		return false
	}
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	for k := range raw {
		if _, ok := want[k]; !ok {
			return false
		}
	}
	return true
}

type wirelessSensorHooks struct{ defaultHooks }

func (wirelessSensorHooks) Revalidate(raw map[string]any) (any, error) {
	return model.DecodeWirelessSensorView(raw), nil
}

func (wirelessSensorHooks) IsValid(raw map[string]any) bool {
	return model.DecodeWirelessSensorView(raw).IsValid()
}

var table = map[model.DeviceType]Hooks{
	model.DeviceTypeDoorLock:         defaultHooks{},
	model.DeviceTypeGarageDoor:       defaultHooks{},
	model.DeviceTypeBinarySwitch:     defaultHooks{},
	model.DeviceTypeMultilevelSwitch: defaultHooks{},
	model.DeviceTypeThermostat:       defaultHooks{},
	model.DeviceTypeCamera:           cameraHooks{},
	model.DeviceTypeWirelessSensor:   wirelessSensorHooks{},
}

// Lookup returns the hooks registered for typ, falling back to the
// default (unknown) hooks on any miss. It never panics.
func Lookup(typ model.DeviceType) Hooks {
	if h, ok := table[typ]; ok {
		return h
	}
	return defaultHooks{}
}
