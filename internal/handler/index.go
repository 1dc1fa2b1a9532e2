package handler

import "net/http"

// HandleIndex responds with the service name and endpoint map.
// GET /
func HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Winter Projects API",
		"status":  "running",
		"endpoints": map[string]string{
			"health":           "/api/health",
			"register":         "POST /api/register",
			"getUser":          "GET /api/user/{identifier}",
			"session":          "GET /api/session",
			"projects":         "/api/projects",
			"allRegistrations": "/api/registrations",
			"stats":            "/api/stats",
			"download":         "/api/download",
			"adminView":        "/admin/view",
		},
	})
}
