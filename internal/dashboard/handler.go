package dashboard

import (
	"encoding/json"
	"net/http"
	"time"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   err,
		Message: message,
	})
}

// GetDashboardMetrics handles GET /api/v1/metrics/dashboard
func (h *Handler) GetDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.GetDashboardMetrics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to build dashboard metrics")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Data: metrics,
	})
}

// GetTelemetryMetrics handles GET /api/v1/metrics/telemetry
func (h *Handler) GetTelemetryMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.GetTelemetryMetrics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to build telemetry metrics")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Data: metrics,
	})
}

// GetGeoMetrics handles GET /api/v1/metrics/geo
func (h *Handler) GetGeoMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.GetGeoMetrics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to build geo metrics")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Data: metrics,
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "metrics",
		"timestamp": time.Now().UTC(),
	})
}

// ReadinessCheck handles GET /ready
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ready",
		"service": "metrics",
	})
}
