package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/samcaspus/tieredstore/log"
)

// requestLogger emits one structured log line per request, in place of
// the teacher's glog.Infoln(...) calls scattered through its handlers
// (ais/target.go) — centralized here so individual handlers stay free
// of logging concerns.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.WithComponent("api").Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("latency", time.Since(started)).
			Msg("request")
	})
}
