package model

// UnregisteredDevice is a (name, type) pair retained for a device id that
// was removed from a panel.
type UnregisteredDevice struct {
	Name string
	Type DeviceType
}

// PanelView is the typed projection of a panel's raw attribute map. The
// alarm-panel schema accepts both alias and descriptive wire keys, since
// the upstream sends either shape depending on which client it thinks
// it's talking to.
type PanelView struct {
	PanelID     int
	PartitionID int
	ArmedState  ArmedState
	MAC         string
	DeviceModel string
}

// DecodePanelView decodes a panel's typed view, accepting either the
// compact alias keys ("panid", "parid", "s", "mac", "m") or the
// descriptive ones ("panel_id", "partition_id", "state", "mac_address",
// "model").
func DecodePanelView(raw map[string]any) PanelView {
	v := PanelView{
		PanelID:     intVal(raw, 0, "panid", "panel_id"),
		PartitionID: intVal(raw, 0, "parid", "partition_id"),
		MAC:         str(raw, "mac", "mac_address"),
		DeviceModel: str(raw, "m", "model"),
	}
	if raw2, ok := anyVal(raw, "s", "state"); ok {
		v.ArmedState = DecodeArmedState(raw2)
	} else {
		v.ArmedState = ArmedUnknown
	}
	return v
}

// Encode round-trips the declared fields back to the compact alias wire
// shape. Unknown keys on the original raw map are not required to
// survive an encode.
func (v PanelView) Encode() map[string]any {
	return map[string]any{
		"panid": v.PanelID,
		"parid": v.PartitionID,
		"s":     v.ArmedState.String(),
		"mac":   v.MAC,
		"m":     v.DeviceModel,
	}
}

// DecodeUnregistered reads the panel's {id -> (name, type)} map from
// either the compact "ureg" wire key or its descriptive alias.
func DecodeUnregistered(raw map[string]any) map[int]UnregisteredDevice {
	m := mapOf(raw, "ureg", "unregistered")
	if m == nil {
		return map[int]UnregisteredDevice{}
	}
	out := make(map[int]UnregisteredDevice, len(m))
	for k, v := range m {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		id := atoiSafe(k)
		out[id] = UnregisteredDevice{
			Name: str(entry, "n", "name"),
			Type: DeviceType(str(entry, "t", "type")),
		}
	}
	return out
}

func atoiSafe(s string) int {
	n := 0
	neg := false
	for i, r := range s {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		n = -n
	}
	return n
}
