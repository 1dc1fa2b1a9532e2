package domain

// Project is an entry in the static catalog shipped with the service.
// The registration store references projects by opaque ID only and never
// validates that an ID exists in the catalog.
type Project struct {
	ID            string   `json:"id" yaml:"id"`
	Title         string   `json:"title" yaml:"title"`
	Category      string   `json:"category" yaml:"category"`
	Difficulty    string   `json:"difficulty" yaml:"difficulty"`
	Description   string   `json:"description" yaml:"description"`
	Objectives    string   `json:"objectives" yaml:"objectives"`
	Keypoints     []string `json:"keypoints" yaml:"keypoints"`
	Prerequisites []string `json:"prerequisites" yaml:"prerequisites"`
	Deliverables  []string `json:"deliverables" yaml:"deliverables"`
	Outcomes      string   `json:"outcomes" yaml:"outcomes"`
	Technologies  []string `json:"technologies" yaml:"technologies"`
}
