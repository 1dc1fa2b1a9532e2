package handler

import (
	"net/http"

	"github.com/campusworks/winter-registry/internal/catalog"
)

// CatalogHandler serves the static project catalog.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// HandleProjects returns the full project catalog.
// GET /api/projects
func (h *CatalogHandler) HandleProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    h.catalog.Projects(),
	})
}
