package model

// SiteView is the typed projection of a site's raw attribute map.
type SiteView struct {
	PanelID int
	Name    string
	IsAdmin bool
}

func DecodeSiteView(raw map[string]any) SiteView {
	return SiteView{
		PanelID: intVal(raw, 0, "panid", "panel_id"),
		Name:    str(raw, "n", "name"),
		IsAdmin: boolVal(raw, false, "ad", "is_admin"),
	}
}

// PartitionPayloads returns the raw partition (panel) entries embedded in
// a site payload, under either the compact or descriptive key.
func PartitionPayloads(raw map[string]any) []map[string]any {
	return listOf(raw, "par", "partitions", "panels")
}

// UserPayloads returns the raw site-user entries embedded in a site
// payload.
func UserPayloads(raw map[string]any) []map[string]any {
	return listOf(raw, "u", "users")
}

// DevicePayloads returns the raw device entries embedded in a partition
// payload.
func DevicePayloads(raw map[string]any) []map[string]any {
	return listOf(raw, "d", "devices")
}

// ListOfSystems returns the raw per-site entries embedded in a "list the
// account's systems" response.
func ListOfSystems(raw map[string]any) []map[string]any {
	return listOf(raw, "s", "systems", "sn")
}
