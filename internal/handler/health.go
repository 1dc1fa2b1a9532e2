package handler

import (
	"net/http"
	"time"

	"github.com/campusworks/winter-registry/internal/service"
)

// HealthHandler reports service and database health.
type HealthHandler struct {
	report  *service.ReportService
	started time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(report *service.ReportService) *HealthHandler {
	return &HealthHandler{report: report, started: time.Now()}
}

// HandleHealth responds with service status and the registration count.
// GET /api/health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := h.report.Count(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":   "unhealthy",
			"database": "unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"registrationsCount": count,
		"database":           "connected",
		"uptime":             time.Since(h.started).Seconds(),
	})
}
