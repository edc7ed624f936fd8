package graph

import (
	"context"

	"github.com/ChrisWondeFro/vivint-gateway/internal/entity"
	"github.com/ChrisWondeFro/vivint-gateway/internal/model"
	"go.uber.org/zap"
)

// lockIDsAddOneKey is the sentinel wire key that appends a single lock id
// to a user's lock_ids list instead of replacing it wholesale.
const lockIDsAddOneKey = "lock_ids.1"

// User is a site-level user entity (distinct from a Device variant).
type User struct {
	*entity.Entity
}

func newUser(raw map[string]any, logger *zap.Logger) *User {
	u := &User{}
	u.Entity = entity.New(raw, func(r map[string]any) (any, error) {
		return model.DecodeUserView(r), nil
	}, logger)
	return u
}

// ID returns the user's identity.
func (u *User) ID() string { return model.DecodeUserView(u.Raw()).ID }

// HandlePush applies the lock_ids-append sentinel before the default
// merge, then merges normally.
func (u *User) HandlePush(message map[string]any) {
	if v, ok := message[lockIDsAddOneKey]; ok {
		delete(message, lockIDsAddOneKey)
		if lockID, ok := toIntLoose(v); ok {
			view := model.DecodeUserView(u.Raw())
			ids := append(append([]int(nil), view.LockIDs...), lockID)
			anyIDs := make([]any, len(ids))
			for i, id := range ids {
				anyIDs[i] = id
			}
			message["lock_ids"] = anyIDs
		}
	}
	u.UpdateData(message, false)
}

func toIntLoose(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// Site is the root of one customer's device graph.
type Site struct {
	*entity.Entity
	Panels []*Panel
	Users  []*User
	env    env
}

// NewSite constructs a Site from a decoded site payload (C7 Construction):
// one Panel per partition, each device attached via the registry lookup.
// ctx bounds the lifetime of any background tasks (device-arrival settle)
// the graph spawns; it should be cancelled when the owning connection
// (WS relay, or a short-lived per-request session) tears down.
func NewSite(ctx context.Context, raw map[string]any, client UpstreamClient, logger *zap.Logger) *Site {
	e := env{ctx: ctx, client: client, logger: logger}
	s := &Site{env: e}
	s.Entity = entity.New(raw, func(r map[string]any) (any, error) {
		return model.DecodeSiteView(r), nil
	}, logger)
	for _, praw := range model.PartitionPayloads(raw) {
		s.Panels = append(s.Panels, newPanel(praw, e, logger))
	}
	for _, uraw := range model.UserPayloads(raw) {
		s.Users = append(s.Users, newUser(uraw, logger))
	}
	return s
}

// ID returns the site's panel id.
func (s *Site) ID() int { return model.DecodeSiteView(s.Raw()).PanelID }

func (s *Site) panelByPartition(panelID, partitionID int) *Panel {
	for _, p := range s.Panels {
		if p.ID() == panelID && p.PartitionID() == partitionID {
			return p
		}
	}
	return nil
}

func (s *Site) userByID(id string) *User {
	for _, u := range s.Users {
		if u.ID() == id {
			return u
		}
	}
	return nil
}

// Refresh re-fetches the site's upstream data and rebuilds panels/devices
// in place, matching existing panels by (panel id, partition id) and
// appending any new ones.
func (s *Site) Refresh(ctx context.Context) error {
	if s.env.client == nil {
		return nil
	}
	raw, err := s.env.client.GetSiteData(ctx, s.ID())
	if err != nil {
		return err
	}
	s.UpdateData(raw, true)
	for _, praw := range model.PartitionPayloads(raw) {
		pv := model.DecodePanelView(praw)
		if p := s.panelByPartition(pv.PanelID, pv.PartitionID); p != nil {
			p.Refresh(praw, false, s.env.logger)
			continue
		}
		s.Panels = append(s.Panels, newPanel(praw, s.env, s.env.logger))
	}
	return nil
}

// UpdateUsers routes each incoming user payload to its User entity by id,
// creating the entity if this is the first time this user is seen.
func (s *Site) UpdateUsers(users []map[string]any) {
	for _, uraw := range users {
		id := stringField(uraw, "id", "_id", "u_id")
		if id == "" {
			continue
		}
		if u := s.userByID(id); u != nil {
			u.HandlePush(uraw)
			continue
		}
		s.Users = append(s.Users, newUser(uraw, s.env.logger))
	}
}

// HandlePush dispatches one realtime push message into the graph.
// Malformed or unrecognized messages are logged and dropped; they never
// propagate an error up to the ingest pipeline.
func (s *Site) HandlePush(message map[string]any) {
	typ, _ := message["t"].(string)
	switch typ {
	case "account_system":
		s.handleAccountSystem(message)
	case "account_partition":
		s.handleAccountPartition(message)
	default:
		if s.env.logger != nil {
			s.env.logger.Warn("dropping push with unrecognized type", zap.String("type", typ))
		}
	}
}

func (s *Site) handleAccountSystem(message map[string]any) {
	op, _ := message["op"].(string)
	if op != "u" {
		return
	}
	data, _ := message["da"].(map[string]any)
	if data == nil {
		data, _ = message["data"].(map[string]any)
	}
	if data == nil {
		return
	}
	if users := model.UserPayloads(data); len(users) > 0 {
		s.UpdateUsers(users)
		delete(data, "u")
		delete(data, "users")
	}
	s.UpdateData(data, false)
}

// handleAccountPartition ignores the heartbeat shape (missing partition
// id or missing data key) but forwards an explicitly empty data mapping.
func (s *Site) handleAccountPartition(message map[string]any) {
	partitionID, hasPartition := intField(message, "parid", "partition_id")
	dataVal, hasData := anyValFromMessage(message, "da", "data")
	if !hasPartition || !hasData {
		return
	}
	data, _ := dataVal.(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	panelID, _ := intField(message, "panid", "panel_id")
	panel := s.panelByPartition(panelID, partitionID)
	if panel == nil {
		for _, p := range s.Panels {
			if p.PartitionID() == partitionID {
				panel = p
				break
			}
		}
	}
	if panel == nil {
		return
	}
	forward := map[string]any{"op": message["op"], "da": data}
	panel.HandlePush(forward, s.env.logger)
}

func anyValFromMessage(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}
