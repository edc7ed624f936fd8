// Package wsrelay implements the WebSocket event relay: one upstream
// session and realtime subscription per browser connection, classified
// events pushed out with a bounded buffer and overflow policy.
package wsrelay

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ChrisWondeFro/vivint-gateway/internal/authsvc"
	"github.com/ChrisWondeFro/vivint-gateway/internal/config"
	"github.com/ChrisWondeFro/vivint-gateway/internal/graph"
	"github.com/ChrisWondeFro/vivint-gateway/internal/model"
	"github.com/ChrisWondeFro/vivint-gateway/internal/realtime"
	"github.com/ChrisWondeFro/vivint-gateway/internal/session"
	"github.com/ChrisWondeFro/vivint-gateway/internal/upstream"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	bufferCapacity  = 1000
	readTimeout     = 30 * time.Second
	disconnectDrain = 3 * time.Second
	overflowClose   = 1011
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Relay serves /ws/events connections.
type Relay struct {
	cfg     *config.Config
	authSvc *authsvc.Service
	factory *session.Factory
	logger  *zap.Logger
}

// New builds a Relay.
func New(cfg *config.Config, authSvc *authsvc.Service, factory *session.Factory, logger *zap.Logger) *Relay {
	return &Relay{cfg: cfg, authSvc: authSvc, factory: factory, logger: logger}
}

// classifiedEvent is the shape every realtime push is flattened into
// before being written to the socket.
type classifiedEvent struct {
	EventName string `json:"event_name"`
	PanelID   int    `json:"panel_id,omitempty"`
	DeviceID  int    `json:"device_id,omitempty"`
	Raw       any    `json:"raw,omitempty"`
}

// ServeHTTP upgrades the connection, authenticates via the "token" query
// parameter (browsers cannot set an Authorization header on a WebSocket
// handshake), opens a fresh upstream session with the full device graph
// loaded, subscribes to the realtime push channel, and relays classified
// events until the client disconnects or the buffer overflows.
func (rl *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	ctx := r.Context()
	userID, err := rl.authSvc.ValidateAccess(ctx, tokenString)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	systemFilter := r.URL.Query().Get("system_id")
	deviceFilter := r.URL.Query().Get("device_id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if rl.logger != nil {
			rl.logger.Warn("websocket upgrade failed", zap.Error(err))
		}
		return
	}
	defer conn.Close()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess, err := rl.factory.Open(connCtx, userID)
	if err != nil {
		_ = conn.WriteJSON(classifiedEvent{EventName: "error", Raw: err.Error()})
		return
	}
	defer sess.Disconnect()

	sites := rl.loadSites(connCtx, sess)

	broker, err := realtime.NewBroker(rl.cfg.MQTT.Broker, rl.cfg.MQTT.ChannelPrefix, userID, rl.logger)
	if err != nil {
		_ = conn.WriteJSON(classifiedEvent{EventName: "error", Raw: err.Error()})
		return
	}
	defer broker.Disconnect(uint(disconnectDrain.Milliseconds()))

	buf := make(chan classifiedEvent, bufferCapacity)
	overflowed := make(chan struct{}, 1)

	authUser := &model.AuthUser{ID: userID, BroadcastChannel: userID}
	for panelID := range sites {
		authUser.Sites = append(authUser.Sites, model.SiteRef{PanelID: panelID})
	}
	subErr := broker.Subscribe(authUser, func(message map[string]any) {
		if site := sites[panelIDOf(message)]; site != nil {
			site.HandlePush(message)
		}
		ev := classify(message)
		if !eventPasses(ev, systemFilter, deviceFilter) {
			return
		}
		select {
		case buf <- ev:
		default:
			select {
			case overflowed <- struct{}{}:
			default:
			}
		}
	})
	if subErr != nil {
		_ = conn.WriteJSON(classifiedEvent{EventName: "error", Raw: subErr.Error()})
		return
	}

	go readLoop(conn, cancel)

	ticker := time.NewTicker(readTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-connCtx.Done():
			return
		case <-overflowed:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(overflowClose, "event buffer overflow"),
				time.Now().Add(time.Second))
			return
		case ev := <-buf:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteJSON(classifiedEvent{EventName: "ping"}); err != nil {
				return
			}
		}
	}
}

// readLoop drains client-initiated control frames (pong, close) so the
// connection deadline machinery keeps working; the relay never expects
// application data from the client.
func readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// loadSites fetches every site the account can see and builds a device
// graph for each, so a push for any one of them can be routed and kept in
// sync. A fetch failure for one site is logged and skipped rather than
// aborting the whole connection.
func (rl *Relay) loadSites(ctx context.Context, sess *upstream.Session) map[int]*graph.Site {
	sites := make(map[int]*graph.Site)
	list, err := sess.Do(ctx, "GET", "systems", upstream.RequestOptions{})
	if err != nil {
		if rl.logger != nil {
			rl.logger.Warn("failed to list systems for websocket relay", zap.Error(err))
		}
		return sites
	}
	for _, entry := range model.ListOfSystems(list) {
		panelID, ok := entry["panid"].(float64)
		if !ok {
			if v, ok2 := entry["panel_id"].(float64); ok2 {
				panelID = v
			} else {
				continue
			}
		}
		raw, err := sess.GetSiteData(ctx, int(panelID))
		if err != nil {
			if rl.logger != nil {
				rl.logger.Warn("failed to fetch site for websocket relay", zap.Int("panel_id", int(panelID)), zap.Error(err))
			}
			continue
		}
		sites[int(panelID)] = graph.NewSite(ctx, raw, sess, rl.logger)
	}
	return sites
}

func panelIDOf(message map[string]any) int {
	if v, ok := message["panid"].(float64); ok {
		return int(v)
	}
	if v, ok := message["panel_id"].(float64); ok {
		return int(v)
	}
	return 0
}

func classify(message map[string]any) classifiedEvent {
	panelID, _ := message["panid"].(float64)
	if panelID == 0 {
		if v, ok := message["panel_id"].(float64); ok {
			panelID = v
		}
	}
	deviceID, _ := message["_id"].(float64)
	if deviceID == 0 {
		if v, ok := message["id"].(float64); ok {
			deviceID = v
		}
	}
	typ, _ := message["t"].(string)
	if typ == "" {
		typ = "push"
	}
	eventName := typ
	if op, ok := message["op"].(string); ok && op != "" {
		eventName = typ + ":" + op
	}
	return classifiedEvent{
		EventName: eventName,
		PanelID:   int(panelID),
		DeviceID:  int(deviceID),
		Raw:       message,
	}
}

func eventPasses(ev classifiedEvent, systemFilter, deviceFilter string) bool {
	if systemFilter != "" && strconv.Itoa(ev.PanelID) != systemFilter {
		return false
	}
	if deviceFilter != "" && strconv.Itoa(ev.DeviceID) != deviceFilter {
		return false
	}
	return true
}
