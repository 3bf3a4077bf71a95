package http

import "net/http"

// NotFoundHandler answers unknown routes with the same JSON error shape
// the real endpoints use, so clients never have to parse two formats.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "unknown path "+r.URL.Path)
	})
}
