package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"go-metric-engine/internal/logger"
)

// RequestIDHeader carries the request id back to the client.
const RequestIDHeader = "X-Request-ID"

// withRequestLogger tags each request with an id and stores a logger carrying it in the context.
func withRequestLogger(next http.Handler, base *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logger.WithContext(r.Context(), base.With(slog.String("request_id", id)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
