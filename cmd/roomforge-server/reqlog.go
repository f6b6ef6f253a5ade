package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tidegate/roomforge/internal/roomerr"
)

// withRequestLog stamps each request with an id via roomerr.WrapRequest and
// logs it alongside the method, path, and latency once the handler returns.
// The /ws endpoint logs its own connection lifecycle through wsroom; this is
// for the plain request/response side (/rooms).
func withRequestLog(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		req = roomerr.WrapRequest(req)
		start := time.Now()
		next.ServeHTTP(w, req)
		log.Info("handled request",
			slog.String("req_id", roomerr.ExtractReqID(req.Context())),
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Duration("took", time.Since(start)),
		)
	})
}
