package http

import (
	"log"
	"net/http"
	"time"
)

// RequestLogger logs one line per request. The query string is part of
// the line because the read endpoints carry their arguments there.
func RequestLogger(next http.Handler, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Printf(
			"request method=%s uri=%s status=%d remote=%s duration=%s",
			r.Method,
			r.URL.RequestURI(),
			rec.status,
			r.RemoteAddr,
			time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
