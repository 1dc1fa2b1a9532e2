package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/campusworks/winter-registry/internal/catalog"
	"github.com/campusworks/winter-registry/internal/service"
)

// AdminHandler serves the read-only reporting views and the wipe endpoint.
type AdminHandler struct {
	report  *service.ReportService
	catalog *catalog.Catalog
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(report *service.ReportService, cat *catalog.Catalog) *AdminHandler {
	return &AdminHandler{report: report, catalog: cat}
}

// HandleList returns all registrations as JSON, newest first.
// GET /api/registrations
func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	regs, err := h.report.List(r.Context())
	if err != nil {
		slog.Error("list registrations", "error", err)
		writeError(w, http.StatusInternalServerError, "Error reading data.")
		return
	}

	dtos := make([]AdminRegistrationDTO, 0, len(regs))
	for i := range regs {
		dtos = append(dtos, toAdminRegistrationDTO(&regs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(dtos),
		"data":    dtos,
	})
}

// HandleStats returns the aggregate statistics.
// GET /api/stats
func (h *AdminHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.report.Stats(r.Context())
	if err != nil {
		slog.Error("compute stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Error calculating stats.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"stats":       stats,
		"lastUpdated": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleDownload streams all registrations as a CSV attachment.
// GET /api/download
func (h *AdminHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	data, err := h.report.ExportCSV(r.Context())
	if err != nil {
		slog.Error("export csv", "error", err)
		writeError(w, http.StatusInternalServerError, "Error generating download.")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="winter-projects-registrations.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// HandleClear wipes every registration.
// DELETE /api/admin/clear
func (h *AdminHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.report.Clear(r.Context()); err != nil {
		slog.Error("clear registrations", "error", err)
		writeError(w, http.StatusInternalServerError, "Error clearing data.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All data cleared.",
		"count":   0,
	})
}

var adminViewTemplate = template.Must(template.New("adminView").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>Winter Projects - Registrations</title>
  <meta charset="UTF-8">
  <style>
    body { font-family: sans-serif; background: #f5f7fa; padding: 20px; }
    h1 { color: #1a6b4f; }
    .stats { margin-bottom: 20px; }
    .stats span { display: inline-block; background: white; padding: 10px 18px; margin-right: 10px; border-radius: 8px; }
    table { width: 100%; background: white; border-collapse: collapse; }
    th, td { padding: 10px; text-align: left; border-bottom: 1px solid #e0e0e0; }
    th { background: #1a6b4f; color: white; }
    .badge { background: #e3f2fd; color: #1976d2; padding: 2px 6px; border-radius: 4px; margin-right: 4px; font-size: 0.85em; }
  </style>
</head>
<body>
  <h1>Winter Projects Registrations</h1>
  <div class="stats">
    <span><b>{{.Stats.Total}}</b> total</span>
    <span><b>{{.Stats.WithProject}}</b> with projects</span>
    <span><b>{{.Stats.Last24h}}</b> in last 24h</span>
  </div>
  <table>
    <thead>
      <tr><th>ID</th><th>Identifier</th><th>Email</th><th>Roll Number</th><th>Phone</th><th>Projects</th><th>Registered At</th></tr>
    </thead>
    <tbody>
      {{range .Rows}}
      <tr>
        <td>{{.ID}}</td>
        <td>{{.Identifier}}</td>
        <td>{{if .Email}}{{.Email}}{{else}}&mdash;{{end}}</td>
        <td>{{if .RollNumber}}{{.RollNumber}}{{else}}&mdash;{{end}}</td>
        <td>{{.Phone}}</td>
        <td>{{range .Projects}}<span class="badge">{{.}}</span>{{else}}&mdash;{{end}}</td>
        <td>{{.RegisteredAt}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
</body>
</html>
`))

type adminViewRow struct {
	ID           int64
	Identifier   string
	Email        string
	RollNumber   string
	Phone        string
	Projects     []string
	RegisteredAt string
}

// HandleView renders the registrations as an HTML table with project titles
// resolved from the catalog.
// GET /admin/view
func (h *AdminHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	regs, err := h.report.List(r.Context())
	if err != nil {
		slog.Error("list registrations for view", "error", err)
		http.Error(w, "Error loading data", http.StatusInternalServerError)
		return
	}
	stats, err := h.report.Stats(r.Context())
	if err != nil {
		slog.Error("stats for view", "error", err)
		http.Error(w, "Error loading data", http.StatusInternalServerError)
		return
	}

	rows := make([]adminViewRow, 0, len(regs))
	for _, reg := range regs {
		titles := make([]string, 0, len(reg.ProjectIDs))
		for _, id := range reg.ProjectIDs {
			titles = append(titles, h.catalog.Title(id))
		}
		rows = append(rows, adminViewRow{
			ID:           reg.ID,
			Identifier:   reg.Identifier,
			Email:        reg.Email,
			RollNumber:   reg.RollNumber,
			Phone:        reg.Phone,
			Projects:     titles,
			RegisteredAt: reg.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := adminViewTemplate.Execute(w, map[string]any{
		"Stats": stats,
		"Rows":  rows,
	}); err != nil {
		slog.Error("render admin view", "error", err)
	}
}
