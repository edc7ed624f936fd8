package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ChrisWondeFro/vivint-gateway/internal/graph"
	"github.com/ChrisWondeFro/vivint-gateway/internal/gwerror"
	"github.com/ChrisWondeFro/vivint-gateway/internal/session"
	"github.com/ChrisWondeFro/vivint-gateway/internal/upstream"
	"github.com/ChrisWondeFro/vivint-gateway/internal/wsrelay"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SystemsHandler serves the device-graph read/action endpoints and the
// WebSocket event relay entrypoint.
type SystemsHandler struct {
	factory *session.Factory
	relay   *wsrelay.Relay
	logger  *zap.Logger
}

// NewSystemsHandler builds a SystemsHandler.
func NewSystemsHandler(factory *session.Factory, relay *wsrelay.Relay, logger *zap.Logger) *SystemsHandler {
	return &SystemsHandler{factory: factory, relay: relay, logger: logger}
}

func pathInt(r *http.Request, key string) (int, bool) {
	v := mux.Vars(r)[key]
	n, err := strconv.Atoi(v)
	return n, err == nil
}

// withSite opens a per-request upstream session, fetches the requested
// site, and runs fn against it — the session is always torn down before
// this returns.
func (h *SystemsHandler) withSite(r *http.Request, panelID int, fn func(ctx context.Context, site *graph.Site, sess *upstream.Session) error) error {
	userID, ok := requestUserID(r)
	if !ok {
		return gwerror.New(gwerror.KindAuthError, "no authenticated user on request")
	}
	ctx := r.Context()
	return h.factory.WithSession(ctx, userID, func(sess *upstream.Session) error {
		raw, err := sess.GetSiteData(ctx, panelID)
		if err != nil {
			return err
		}
		site := graph.NewSite(ctx, raw, sess, h.logger)
		return fn(ctx, site, sess)
	})
}

// ListSystems returns every site the authenticated upstream account can
// see. The upstream's own "list of sites" endpoint is a single REST call,
// not a per-site fetch.
func (h *SystemsHandler) ListSystems(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		writeError(w, gwerror.New(gwerror.KindAuthError, "no authenticated user on request"))
		return
	}
	ctx := r.Context()
	err := h.factory.WithSession(ctx, userID, func(sess *upstream.Session) error {
		raw, err := sess.Do(ctx, "GET", "systems", upstream.RequestOptions{})
		if err != nil {
			return err
		}
		writeOK(w, raw)
		return nil
	})
	if err != nil {
		writeError(w, err)
	}
}

// GetSystem returns one site's full device graph as decoded JSON.
func (h *SystemsHandler) GetSystem(w http.ResponseWriter, r *http.Request) {
	panelID, ok := pathInt(r, "id")
	if !ok {
		writeJSON(w, http.StatusNotFound, Result[any]{OK: false, Message: "invalid system id"})
		return
	}
	err := h.withSite(r, panelID, func(_ context.Context, site *graph.Site, _ *upstream.Session) error {
		writeOK(w, site.Raw())
		return nil
	})
	if err != nil {
		writeError(w, err)
	}
}

// GetPanel returns the first (only, in the supported topology) panel on
// the site.
func (h *SystemsHandler) GetPanel(w http.ResponseWriter, r *http.Request) {
	panelID, ok := pathInt(r, "id")
	if !ok {
		writeJSON(w, http.StatusNotFound, Result[any]{OK: false, Message: "invalid system id"})
		return
	}
	err := h.withSite(r, panelID, func(_ context.Context, site *graph.Site, _ *upstream.Session) error {
		if len(site.Panels) == 0 {
			return gwerror.New(gwerror.KindInconsistent, "site has no panel")
		}
		writeOK(w, site.Panels[0].Raw())
		return nil
	})
	if err != nil {
		writeError(w, err)
	}
}

func (h *SystemsHandler) panelAction(w http.ResponseWriter, r *http.Request, action string) {
	panelID, ok := pathInt(r, "id")
	if !ok {
		writeJSON(w, http.StatusNotFound, Result[any]{OK: false, Message: "invalid system id"})
		return
	}
	err := h.withSite(r, panelID, func(ctx context.Context, site *graph.Site, sess *upstream.Session) error {
		if len(site.Panels) == 0 {
			return gwerror.New(gwerror.KindInconsistent, "site has no panel")
		}
		partitionID := site.Panels[0].PartitionID()
		target := "systems/" + strconv.Itoa(panelID) + "/partitions/" + strconv.Itoa(partitionID) + "/" + action
		_, err := sess.Do(ctx, "POST", target, upstream.RequestOptions{})
		if err != nil {
			return err
		}
		writeOK(w, map[string]any{"status": "accepted"})
		return nil
	})
	if err != nil {
		writeError(w, err)
	}
}

func (h *SystemsHandler) ArmStay(w http.ResponseWriter, r *http.Request)  { h.panelAction(w, r, "armstay") }
func (h *SystemsHandler) ArmAway(w http.ResponseWriter, r *http.Request)  { h.panelAction(w, r, "armaway") }
func (h *SystemsHandler) Disarm(w http.ResponseWriter, r *http.Request)   { h.panelAction(w, r, "disarm") }
func (h *SystemsHandler) RebootPanel(w http.ResponseWriter, r *http.Request) {
	h.panelAction(w, r, "reboot")
}
func (h *SystemsHandler) TriggerEmergency(w http.ResponseWriter, r *http.Request) {
	h.panelAction(w, r, "emergency")
}

// ListDevices returns every device on the site's panel.
func (h *SystemsHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	panelID, ok := pathInt(r, "id")
	if !ok {
		writeJSON(w, http.StatusNotFound, Result[any]{OK: false, Message: "invalid system id"})
		return
	}
	err := h.withSite(r, panelID, func(_ context.Context, site *graph.Site, _ *upstream.Session) error {
		if len(site.Panels) == 0 {
			writeOK(w, []any{})
			return nil
		}
		out := make([]any, 0, len(site.Panels[0].Devices))
		for _, d := range site.Panels[0].Devices {
			out = append(out, d.Raw())
		}
		writeOK(w, out)
		return nil
	})
	if err != nil {
		writeError(w, err)
	}
}

// GetDevice returns one device's current raw payload.
func (h *SystemsHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	panelID, ok := pathInt(r, "id")
	deviceID, ok2 := pathInt(r, "deviceId")
	if !ok || !ok2 {
		writeJSON(w, http.StatusNotFound, Result[any]{OK: false, Message: "invalid id"})
		return
	}
	err := h.withSite(r, panelID, func(ctx context.Context, site *graph.Site, sess *upstream.Session) error {
		raw, err := sess.GetDeviceData(ctx, panelID, deviceID)
		if err != nil {
			return err
		}
		writeOK(w, raw)
		return nil
	})
	if err != nil {
		writeError(w, err)
	}
}

// DeviceSnapshot proxies a camera's current thumbnail.
func (h *SystemsHandler) DeviceSnapshot(w http.ResponseWriter, r *http.Request) {
	panelID, ok := pathInt(r, "id")
	deviceID, ok2 := pathInt(r, "deviceId")
	if !ok || !ok2 {
		writeJSON(w, http.StatusNotFound, Result[any]{OK: false, Message: "invalid id"})
		return
	}
	userID, ok := requestUserID(r)
	if !ok {
		writeError(w, gwerror.New(gwerror.KindAuthError, "no authenticated user on request"))
		return
	}
	ctx := r.Context()
	err := h.factory.WithSession(ctx, userID, func(sess *upstream.Session) error {
		target := "systems/" + strconv.Itoa(panelID) + "/devices/" + strconv.Itoa(deviceID) + "/thumbnail"
		raw, err := sess.Do(ctx, "GET", target, upstream.RequestOptions{})
		if err != nil {
			return err
		}
		writeOK(w, raw)
		return nil
	})
	if err != nil {
		writeError(w, err)
	}
}

// WebSocketEvents upgrades the connection and hands it to the relay.
// Token auth happens inside the relay via a query parameter, since the
// browser WebSocket API cannot set an Authorization header.
func (h *SystemsHandler) WebSocketEvents(w http.ResponseWriter, r *http.Request) {
	h.relay.ServeHTTP(w, r)
}
