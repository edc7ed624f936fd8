package graph

import (
	"context"

	"go.uber.org/zap"
)

// UpstreamClient is the subset of the per-request upstream session that
// the graph needs to refresh itself and settle newly created devices. It
// is satisfied by *upstream.Session.
type UpstreamClient interface {
	GetSiteData(ctx context.Context, panelID int) (map[string]any, error)
	GetDeviceData(ctx context.Context, panelID, deviceID int) (map[string]any, error)
}

// env is the shared environment threaded through Site/Panel so background
// tasks (device-arrival settle) can reach the upstream client, a logger,
// and the lifetime context of the owning graph.
type env struct {
	ctx    context.Context
	client UpstreamClient
	logger *zap.Logger
}
