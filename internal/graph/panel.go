package graph

import (
	"time"

	"github.com/ChrisWondeFro/vivint-gateway/internal/entity"
	"github.com/ChrisWondeFro/vivint-gateway/internal/model"
	"go.uber.org/zap"
)

// Credentials caches a panel's keypad login, fetched lazily on first use
// and refreshable thereafter.
type Credentials struct {
	User     string
	Password string
}

// Panel is one partition within a Site. Its identity is (panel id,
// partition id); site.id == panel.id by construction.
type Panel struct {
	*entity.Entity
	Devices      []*Device
	Unregistered map[int]model.UnregisteredDevice
	env          env
	creds        *Credentials
}

func newPanel(raw map[string]any, e env, logger *zap.Logger) *Panel {
	p := &Panel{
		Unregistered: model.DecodeUnregistered(raw),
		env:          e,
	}
	p.Entity = entity.New(raw, func(r map[string]any) (any, error) {
		return model.DecodePanelView(r), nil
	}, logger)
	for _, draw := range model.DevicePayloads(raw) {
		p.Devices = append(p.Devices, newDevice(draw, p, logger))
	}
	return p
}

// ID returns the panel id (equal to the owning site's id).
func (p *Panel) ID() int { return model.DecodePanelView(p.Raw()).PanelID }

// PartitionID returns this panel's partition id.
func (p *Panel) PartitionID() int { return model.DecodePanelView(p.Raw()).PartitionID }

// Credentials returns the cached panel login, lazily invoking fetch on
// first access.
func (p *Panel) Credentials(fetch func() (Credentials, error)) (Credentials, error) {
	if p.creds != nil {
		return *p.creds, nil
	}
	c, err := fetch()
	if err != nil {
		return Credentials{}, err
	}
	p.creds = &c
	return c, nil
}

// RefreshCredentials forces the next Credentials call to re-fetch.
func (p *Panel) RefreshCredentials() { p.creds = nil }

// deviceByID returns the device with the given id, or nil.
func (p *Panel) deviceByID(id int) *Device {
	for _, d := range p.Devices {
		if d.ID() == id {
			return d
		}
	}
	return nil
}

// Refresh rebuilds the panel from an incoming partition payload. When
// isNewDevice is false the panel's raw data is replaced wholesale and each
// incoming device is updated in place (or created if unseen). When
// isNewDevice is true, the incoming devices are appended without touching
// the panel's own raw map or existing devices — callers use this form
// exclusively for a `create` push.
func (p *Panel) Refresh(raw map[string]any, isNewDevice bool, logger *zap.Logger) []*Device {
	if !isNewDevice {
		p.UpdateData(raw, true)
		p.Unregistered = model.DecodeUnregistered(raw)
	}
	var created []*Device
	for _, draw := range model.DevicePayloads(raw) {
		id, ok := intField(draw, "_id", "id")
		if !ok {
			continue
		}
		if existing := p.deviceByID(id); existing != nil {
			if !isNewDevice {
				existing.UpdateData(draw, false)
			}
			continue
		}
		d := newDevice(draw, p, logger)
		p.Devices = append(p.Devices, d)
		created = append(created, d)
	}
	return created
}

// removeDevice removes id from Devices, records it under Unregistered,
// and returns the removed device (nil if not found).
func (p *Panel) removeDevice(id int) *Device {
	for i, d := range p.Devices {
		if d.ID() == id {
			view := model.DecodeDeviceView(d.Raw())
			p.Unregistered[id] = model.UnregisteredDevice{
				Name: stringField(d.Raw(), "n", "name"),
				Type: view.Type,
			}
			p.Devices = append(p.Devices[:i], p.Devices[i+1:]...)
			return d
		}
	}
	return nil
}

// HandlePush applies an upstream partition-scoped push message.
func (p *Panel) HandlePush(message map[string]any, logger *zap.Logger) {
	op, _ := message["op"].(string)
	data, _ := message["da"].(map[string]any)
	if data == nil {
		data, _ = message["data"].(map[string]any)
	}
	if data == nil {
		return
	}

	devices := model.DevicePayloads(data)
	if len(devices) == 0 {
		p.UpdateData(data, false)
		return
	}

	if op == "create" || op == "c" {
		created := p.Refresh(data, true, logger)
		for _, d := range created {
			p.launchArrivalSettle(d.ID(), logger)
		}
		return
	}

	for _, draw := range devices {
		id, ok := intField(draw, "_id", "id")
		if !ok {
			continue
		}
		d := p.deviceByID(id)
		if d == nil {
			continue
		}
		if op == "delete" || op == "d" {
			p.removeDevice(id)
			p.Emit("device_deleted", draw)
			continue
		}
		d.HandlePush(draw)
		mergeDeviceSnapshot(p.Raw(), id, draw)
	}
}

// mergeDeviceSnapshot keeps the panel's own raw device list in sync with
// a device-scoped push, so raw["d"]/raw["devices"] and the individual
// device's raw map never diverge: a device-scoped push both updates the
// device entity directly and patches the panel's own embedded copy of
// that device's attributes.
func mergeDeviceSnapshot(panelRaw map[string]any, id int, delta map[string]any) {
	for _, key := range []string{"d", "devices"} {
		list, ok := panelRaw[key].([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if existingID, ok := intField(m, "_id", "id"); ok && existingID == id {
				for k, v := range delta {
					m[k] = v
				}
			}
		}
	}
}

// launchArrivalSettle polls a newly-created device's IsValid until true
// (or it gets unregistered first), then fetches its individual payload
// and emits device_discovered.
func (p *Panel) launchArrivalSettle(deviceID int, logger *zap.Logger) {
	if p.env.client == nil {
		return
	}
	go func() {
		ctx := p.env.ctx
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if _, unregistered := p.Unregistered[deviceID]; unregistered {
				return
			}
			d := p.deviceByID(deviceID)
			if d == nil {
				return
			}
			if !d.IsValid() {
				continue
			}
			raw, err := p.env.client.GetDeviceData(ctx, p.ID(), deviceID)
			if err != nil {
				if logger != nil {
					logger.Warn("device-arrival settle: fetch failed", zap.Int("device_id", deviceID), zap.Error(err))
				}
				return
			}
			p.Refresh(map[string]any{"d": []any{raw}}, true, logger)
			p.Emit("device_discovered", raw)
			return
		}
	}()
}
