package model

// DeviceType is the wire tag selecting a device variant.
type DeviceType string

const (
	DeviceTypeDoorLock          DeviceType = "door_lock"
	DeviceTypeGarageDoor        DeviceType = "garage_door"
	DeviceTypeBinarySwitch      DeviceType = "binary_switch"
	DeviceTypeMultilevelSwitch  DeviceType = "multilevel_switch"
	DeviceTypeThermostat        DeviceType = "thermostat"
	DeviceTypeCamera            DeviceType = "camera"
	DeviceTypeWirelessSensor    DeviceType = "wireless_sensor"
	DeviceTypePanel             DeviceType = "panel"
	DeviceTypeUnknown           DeviceType = "unknown"
)

// Battery resolves a device's displayed battery level: an explicit level
// wins; otherwise the low-battery flag maps to 0/100; otherwise nil,
// meaning the device reports no battery information at all.
func Battery(level *int, lowBattery *bool) *int {
	if level != nil {
		return level
	}
	if lowBattery != nil {
		v := 100
		if *lowBattery {
			v = 0
		}
		return &v
	}
	return nil
}
