// Package httpapi implements the local HTTP surface: login/MFA/refresh
// endpoints backed by the local token service, and the systems/devices/
// panel-actions endpoints backed by the per-request upstream factory.
package httpapi

import (
	"net/http"

	"github.com/ChrisWondeFro/vivint-gateway/internal/authsvc"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter wires every local HTTP route onto a gorilla/mux router.
func NewRouter(auth *AuthHandler, systems *SystemsHandler, authSvc *authsvc.Service, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/auth/login", auth.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/verify-mfa", auth.VerifyMFA).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh-token", auth.RefreshToken).Methods(http.MethodPost)

	protected := r.NewRoute().Subrouter()
	protected.Use(AuthMiddleware(authSvc, logger))

	protected.HandleFunc("/systems", systems.ListSystems).Methods(http.MethodGet)
	protected.HandleFunc("/systems/{id}", systems.GetSystem).Methods(http.MethodGet)
	protected.HandleFunc("/systems/{id}/panel", systems.GetPanel).Methods(http.MethodGet)
	protected.HandleFunc("/systems/{id}/panel/arm-stay", systems.ArmStay).Methods(http.MethodPost)
	protected.HandleFunc("/systems/{id}/panel/arm-away", systems.ArmAway).Methods(http.MethodPost)
	protected.HandleFunc("/systems/{id}/panel/disarm", systems.Disarm).Methods(http.MethodPost)
	protected.HandleFunc("/systems/{id}/panel/emergency", systems.TriggerEmergency).Methods(http.MethodPost)
	protected.HandleFunc("/systems/{id}/panel/reboot", systems.RebootPanel).Methods(http.MethodPost)
	protected.HandleFunc("/systems/{id}/devices", systems.ListDevices).Methods(http.MethodGet)
	protected.HandleFunc("/systems/{id}/devices/{deviceId}", systems.GetDevice).Methods(http.MethodGet)
	protected.HandleFunc("/systems/{id}/devices/{deviceId}/snapshot", systems.DeviceSnapshot).Methods(http.MethodGet)

	r.HandleFunc("/ws/events", systems.WebSocketEvents)

	return r
}

// requestUserID reads the local user id AuthMiddleware attached to the
// request context.
func requestUserID(r *http.Request) (string, bool) {
	v := r.Context().Value(ctxUserIDKey{})
	id, ok := v.(string)
	return id, ok
}
