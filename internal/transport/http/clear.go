package http

import (
	"context"
	"encoding/json"
	"net/http"
)

// Resetter clears every reservation view for test isolation.
type Resetter interface {
	ResetAll(ctx context.Context) error
}

// HandleClear returns the handler for POST /clear. Administrative only;
// the clears are not atomic across views.
func HandleClear(svc Resetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		if err := svc.ResetAll(r.Context()); err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
