package handler

import "net/http"

// RegisterRoutes sets up all HTTP routes on the given mux. adminKey gates
// the admin surface; an empty key disables it.
func RegisterRoutes(mux *http.ServeMux, reg *RegistrationHandler, admin *AdminHandler, cat *CatalogHandler, health *HealthHandler, adminKey string) {
	mux.HandleFunc("GET /", HandleIndex)
	mux.HandleFunc("GET /api/health", health.HandleHealth)
	mux.HandleFunc("GET /api/projects", cat.HandleProjects)

	mux.HandleFunc("POST /api/register", reg.HandleRegister)
	mux.HandleFunc("GET /api/user/{identifier}", reg.HandleGetUser)
	mux.HandleFunc("GET /api/session", reg.HandleSession)

	mux.HandleFunc("GET /api/stats", admin.HandleStats)

	mux.Handle("GET /api/registrations", RequireAdminKey(adminKey, http.HandlerFunc(admin.HandleList)))
	mux.Handle("GET /api/download", RequireAdminKey(adminKey, http.HandlerFunc(admin.HandleDownload)))
	mux.Handle("GET /admin/view", RequireAdminKey(adminKey, http.HandlerFunc(admin.HandleView)))
	mux.Handle("DELETE /api/admin/clear", RequireAdminKey(adminKey, http.HandlerFunc(admin.HandleClear)))
}
