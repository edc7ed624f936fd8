package realtime

import "encoding/json"

// decodePushPayload parses one MQTT message body into the loose map shape
// the device graph's HandlePush methods expect.
func decodePushPayload(raw []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
