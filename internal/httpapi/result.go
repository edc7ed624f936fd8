package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/ChrisWondeFro/vivint-gateway/internal/gwerror"
)

// Result is the envelope every JSON response is wrapped in.
type Result[T any] struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

func ok[T any](data T) Result[T] {
	return Result[T]{OK: true, Data: data}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, ok(data))
}

// writeError maps a gwerror.Kind to an HTTP status and writes the
// envelope, per the error-handling design's status table.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case gwerror.Is(err, gwerror.KindMfaRequired):
		status = http.StatusBadRequest
	case gwerror.Is(err, gwerror.KindAuthError):
		status = http.StatusUnauthorized
	case gwerror.Is(err, gwerror.KindApiError):
		status = http.StatusBadRequest
	case gwerror.Is(err, gwerror.KindNotSupported):
		status = http.StatusBadRequest
	case gwerror.Is(err, gwerror.KindInconsistent):
		status = http.StatusInternalServerError
	case gwerror.Is(err, gwerror.KindQueueOverflow):
		status = http.StatusTooManyRequests
	case gwerror.Is(err, gwerror.KindTransportError):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, Result[any]{OK: false, Message: err.Error()})
}

func readBodyJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes)).Decode(v)
}
