// Package api wires the HTTP routes of the metric service.
package api

import (
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-metric-engine/docs"
	"go-metric-engine/internal/api/handler"
	"go-metric-engine/internal/telemetry"
	"go-metric-engine/pkg/router"
)

// NewRouter returns the API handler: routes, Prometheus metrics from reg and the swagger UI.
func NewRouter(h *handler.Handler, reg *prom.Registry, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := router.New(logger)
	RegisterRoutes(r, h)

	metrics := telemetry.HTTPHandler(reg)
	r.GET("/metrics", metrics.ServeHTTP)
	r.Mount("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	return withRequestLogger(r, logger)
}

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.GET("/healthz", h.Healthz)
	r.POST("/api/v1/metrics/compute", h.ComputeMetrics)
	r.POST("/api/v1/records", h.IngestRecords)
	r.GET("/api/v1/records", h.ListRecords)
	r.DELETE("/api/v1/records/*", h.DeleteRecord)
	r.POST("/api/v1/dashboards", h.SaveDashboard)
	r.GET("/api/v1/dashboards", h.ListDashboards)
	// More specific routes first
	r.GET("/api/v1/dashboards/*/metrics", h.ComputeDashboard)
	r.GET("/api/v1/dashboards/*", h.GetDashboard)
}

// NewServer wraps the router in an http.Server with the given timeouts.
func NewServer(addr string, h http.Handler, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}
}
