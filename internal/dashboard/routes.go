package dashboard

import (
	"net/http"

	"github.com/ecocertain/metrics/internal/common/middleware"
)

// SetupRoutes registers the PUBLIC API (HTTPS + JWT for external clients)
func SetupRoutes(mux *http.ServeMux, handler *Handler, jwtSecret string) {
	// Health checks stay open for load balancers
	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.HandleFunc("GET /ready", handler.ReadinessCheck)

	protected := middleware.JWTAuth(jwtSecret)

	mux.Handle("GET /api/v1/metrics/dashboard", protected(http.HandlerFunc(handler.GetDashboardMetrics)))
	mux.Handle("GET /api/v1/metrics/telemetry", protected(http.HandlerFunc(handler.GetTelemetryMetrics)))
	mux.Handle("GET /api/v1/metrics/geo", protected(http.HandlerFunc(handler.GetGeoMetrics)))
}

// SetupInternalRoutes registers the INTERNAL API (mTLS only, no JWT needed)
func SetupInternalRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/v1/internal/metrics/dashboard", handler.GetDashboardMetrics)
	mux.HandleFunc("GET /api/v1/internal/metrics/telemetry", handler.GetTelemetryMetrics)
	mux.HandleFunc("GET /api/v1/internal/metrics/geo", handler.GetGeoMetrics)
}
