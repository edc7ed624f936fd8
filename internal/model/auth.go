package model

// SiteRef is the summary of a site embedded in the login payload's user
// object, before the full Site/Panel/Device tree is materialized.
type SiteRef struct {
	PanelID int
	Name    string
	IsAdmin bool
}

// DecodeSiteRef reads a SiteRef from its alias-keyed wire payload.
func DecodeSiteRef(raw map[string]any) SiteRef {
	return SiteRef{
		PanelID: intVal(raw, 0, "panid", "panel_id"),
		Name:    str(raw, "n", "name"),
		IsAdmin: boolVal(raw, false, "ad", "is_admin"),
	}
}

// Encode produces the wire-shaped map for a SiteRef (alias keys).
func (s SiteRef) Encode() map[string]any {
	return map[string]any{
		"panid": s.PanelID,
		"n":     s.Name,
		"ad":    s.IsAdmin,
	}
}

// AuthUser is the authenticated principal returned by a successful
// login, produced once per upstream session.
type AuthUser struct {
	ID               string
	Name             string
	BroadcastChannel string
	Sites            []SiteRef
}

// DecodeAuthUser reads an AuthUser from its wire payload, tolerating a
// singleton site object in place of a list.
func DecodeAuthUser(raw map[string]any) AuthUser {
	var sites []SiteRef
	for _, s := range listOf(raw, "u", "users", "sites") {
		sites = append(sites, DecodeSiteRef(s))
	}
	return AuthUser{
		ID:               str(raw, "id", "u_id", "user_id"),
		Name:             str(raw, "n", "name"),
		BroadcastChannel: str(raw, "mbc", "broadcast_channel"),
		Sites:            sites,
	}
}

// HasUsableChannel reports whether this user has enough identity to open
// a realtime subscription: at least one site, a broadcast channel, and an
// id.
func (u AuthUser) HasUsableChannel() bool {
	return len(u.Sites) > 0 && u.BroadcastChannel != "" && u.ID != ""
}
