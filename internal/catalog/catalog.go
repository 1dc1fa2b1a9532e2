// Package catalog serves the static project catalog shipped with the
// service. The catalog is read-only reference data; registrations point at
// it by opaque ID only.
package catalog

import (
	_ "embed"
	"fmt"

	"github.com/campusworks/winter-registry/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed projects.yaml
var projectsYAML []byte

// Catalog is an immutable, in-memory view of the project list.
type Catalog struct {
	projects []domain.Project
	byID     map[string]domain.Project
}

// Load parses the embedded project list.
func Load() (*Catalog, error) {
	var doc struct {
		Projects []domain.Project `yaml:"projects"`
	}
	if err := yaml.Unmarshal(projectsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse project catalog: %w", err)
	}

	byID := make(map[string]domain.Project, len(doc.Projects))
	for _, p := range doc.Projects {
		byID[p.ID] = p
	}
	return &Catalog{projects: doc.Projects, byID: byID}, nil
}

// Projects returns all catalog entries in file order.
func (c *Catalog) Projects() []domain.Project {
	return c.projects
}

// Title returns the display title for a project ID, or the ID itself when
// the ID is not in the catalog.
func (c *Catalog) Title(id string) string {
	if p, ok := c.byID[id]; ok {
		return p.Title
	}
	return id
}
