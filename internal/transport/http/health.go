package http

import "net/http"

// HealthHandler reports process liveness. It deliberately does not touch
// the store: the service stays "up" while the backend is degraded, and the
// per-request 503s tell the rest of the story.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
