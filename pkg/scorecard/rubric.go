// Package scorecard implements the normalization pipeline that turns
// raw reproducibility assessment rows (cells of the form
// "Score: X | Notes: Y") into derived per-paper records with category
// aggregates, a normalized overall score, and a status label.
package scorecard

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Short criterion names used across the derived records.
const (
	CriterionPaperAvailability    = "Paper Availability"
	CriterionCodeAvailability     = "Code Availability"
	CriterionDatasetAvailability  = "Dataset Availability"
	CriterionComputerRequirements = "Computer Requirements"
	CriterionGPURequirements      = "GPU Requirements"
	CriterionDocumentationQuality = "Documentation Quality"
	CriterionEaseOfSetup          = "Ease of Setup"
	CriterionReproducibility      = "Reproducibility"
	CriterionOverallRating        = "Overall Rating"
)

// Category names.
const (
	CategoryCodeEnvironment = "Code & Environment"
	CategoryDocumentation   = "Documentation & Transparency"
	CategoryDataModelReuse  = "Data & Model Reuse"
	CategoryCommunity       = "Community Engagement"
)

// Criterion is one scored evaluation dimension. Column is the exact CSV
// header it is read from, Name the short name used everywhere else.
type Criterion struct {
	Column string `json:"column" yaml:"column"`
	Name   string `json:"name" yaml:"name"`
	Scale  int    `json:"scale" yaml:"scale"`
}

// Category aggregates a configured subset of criterion scores with its
// own maximum. The mapping is configuration, not derived from data:
// changing the scoring rubric means changing this table.
type Category struct {
	Name     string   `json:"name" yaml:"name"`
	Criteria []string `json:"criteria" yaml:"criteria"`
	Max      int      `json:"max" yaml:"max"`
}

// Rubric is the full scoring configuration: identity column, criteria,
// category mapping, and the presentation extras derived alongside the
// scores (conference labels, paper link template).
type Rubric struct {
	IdentityColumn string      `json:"identity_column" yaml:"identity_column"`
	Criteria       []Criterion `json:"criteria" yaml:"criteria"`
	Categories     []Category  `json:"categories" yaml:"categories"`

	// Conferences is a fixed label set assigned round-robin by row
	// position. Demo scaffolding, not real metadata.
	Conferences []string `json:"conferences" yaml:"conferences"`

	// PaperLinkTemplate must contain one %s verb for the paper id.
	PaperLinkTemplate string `json:"paper_link_template" yaml:"paper_link_template"`
}

// DefaultRubric returns the production scoring configuration.
func DefaultRubric() *Rubric {
	return &Rubric{
		IdentityColumn: "Paper File",
		Criteria: []Criterion{
			{Column: "Paper Availability", Name: CriterionPaperAvailability, Scale: 1},
			{Column: "Availability of Code and Software", Name: CriterionCodeAvailability, Scale: 3},
			{Column: "Availability of Datasets", Name: CriterionDatasetAvailability, Scale: 2},
			{Column: "Computer Requirements", Name: CriterionComputerRequirements, Scale: 1},
			{Column: "GPU Requirements", Name: CriterionGPURequirements, Scale: 1},
			{Column: "Documentation Quality", Name: CriterionDocumentationQuality, Scale: 1},
			{Column: "Ease of Setup", Name: CriterionEaseOfSetup, Scale: 1},
			{Column: "Reproducibility of Results", Name: CriterionReproducibility, Scale: 1},
			{Column: "Overall Rating", Name: CriterionOverallRating, Scale: 5},
		},
		Categories: []Category{
			{
				Name: CategoryCodeEnvironment,
				Criteria: []string{
					CriterionCodeAvailability,
					CriterionComputerRequirements,
					CriterionGPURequirements,
				},
				Max: 5,
			},
			{
				Name: CategoryDocumentation,
				Criteria: []string{
					CriterionDocumentationQuality,
					CriterionEaseOfSetup,
				},
				Max: 2,
			},
			{
				Name:     CategoryDataModelReuse,
				Criteria: []string{CriterionDatasetAvailability},
				Max:      2,
			},
			{
				// No input criterion maps here yet, so the category
				// score is always zero. The max still counts toward
				// the normalization denominator.
				Name:     CategoryCommunity,
				Criteria: []string{},
				Max:      1,
			},
		},
		Conferences:       []string{"ICSE 2023", "SC24"},
		PaperLinkTemplate: "https://example.com/papers/%s.pdf",
	}
}

// LoadRubric reads a rubric from a YAML file. An empty path returns the
// default rubric. The returned rubric is always validated.
func LoadRubric(path string) (*Rubric, error) {
	if path == "" {
		return DefaultRubric(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading rubric file: %s", path)
	}

	var r Rubric
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling rubric file: %s", path)
	}

	if err := r.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid rubric: %s", path)
	}

	return &r, nil
}

// Save writes the rubric to a YAML file.
func (r *Rubric) Save(path string) error {
	b, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "failed to marshal rubric")
	}
	if err := os.WriteFile(path, b, 0600); err != nil {
		return errors.Wrapf(err, "failed to write rubric file: %s", path)
	}
	return nil
}

// Validate checks the configuration invariants that must hold before
// any transformation runs. A non-positive total maximum would make the
// overall normalization divide by zero, so it is rejected here, at
// configuration time.
func (r *Rubric) Validate() error {
	if len(r.Criteria) == 0 {
		return errors.New("rubric has no criteria")
	}

	names := make(map[string]bool, len(r.Criteria))
	for _, c := range r.Criteria {
		if c.Column == "" || c.Name == "" {
			return errors.Errorf("criterion requires column and name: %+v", c)
		}
		if names[c.Name] {
			return errors.Errorf("duplicate criterion name: %s", c.Name)
		}
		names[c.Name] = true
	}

	for _, cat := range r.Categories {
		if cat.Max < 0 {
			return errors.Errorf("category %s has negative max", cat.Name)
		}
		for _, n := range cat.Criteria {
			if !names[n] {
				return errors.Errorf("category %s references unknown criterion: %s", cat.Name, n)
			}
		}
	}

	if r.TotalMax() <= 0 {
		return errors.New("category maxima must sum to a positive total")
	}

	return nil
}

// TotalMax is the normalization denominator: the sum of all category
// maxima.
func (r *Rubric) TotalMax() int {
	total := 0
	for _, c := range r.Categories {
		total += c.Max
	}
	return total
}

// CriterionColumn returns the CSV column for a short criterion name.
func (r *Rubric) CriterionColumn(name string) string {
	for _, c := range r.Criteria {
		if c.Name == name {
			return c.Column
		}
	}
	return ""
}
