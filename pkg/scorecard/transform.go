package scorecard

import (
	"fmt"
	"math"
	"strings"
)

// Status labels derived from the normalized overall score.
const (
	StatusHighlyReproducible    = "Highly Reproducible"
	StatusPartiallyReproducible = "Partially Reproducible"
	StatusIssuesPresent         = "Issues Present"
	StatusNotReproducible       = "Not Reproducible"
)

// Statuses lists all status labels in descending score order.
var Statuses = []string{
	StatusHighlyReproducible,
	StatusPartiallyReproducible,
	StatusIssuesPresent,
	StatusNotReproducible,
}

// CriterionScore is one parsed criterion cell. Defaulted marks cells
// that fell back to zero/empty because the column was absent from the
// input, preserved for data-quality auditing.
type CriterionScore struct {
	Name      string `json:"name" yaml:"name"`
	Score     int    `json:"score" yaml:"score"`
	Notes     string `json:"notes,omitempty" yaml:"notes,omitempty"`
	Defaulted bool   `json:"defaulted,omitempty" yaml:"defaulted,omitempty"`
}

// CategoryScore is one aggregated category sum.
type CategoryScore struct {
	Name  string `json:"name" yaml:"name"`
	Score int    `json:"score" yaml:"score"`
	Max   int    `json:"max" yaml:"max"`
}

// Paper is the fully derived per-paper record consumed by the query
// and presentation layers. Immutable after construction.
type Paper struct {
	ID         string `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Conference string `json:"conference" yaml:"conference"`

	Criteria   []CriterionScore `json:"criteria" yaml:"criteria"`
	Categories []CategoryScore  `json:"categories" yaml:"categories"`

	RawScore int     `json:"raw_score" yaml:"raw_score"`
	Score    float64 `json:"score" yaml:"score"`
	Status   string  `json:"status" yaml:"status"`

	PaperLink string `json:"paper_link" yaml:"paper_link"`
	CodeLink  string `json:"code_link" yaml:"code_link"`

	// DefaultedFields counts criterion cells that were defaulted
	// rather than parsed.
	DefaultedFields int `json:"defaulted_fields,omitempty" yaml:"defaulted_fields,omitempty"`
}

// Criterion returns the named criterion score, or nil.
func (p *Paper) Criterion(name string) *CriterionScore {
	for i := range p.Criteria {
		if p.Criteria[i].Name == name {
			return &p.Criteria[i]
		}
	}
	return nil
}

// Category returns the named category score, or nil.
func (p *Paper) Category(name string) *CategoryScore {
	for i := range p.Categories {
		if p.Categories[i].Name == name {
			return &p.Categories[i]
		}
	}
	return nil
}

// DeriveIdentity turns a source filename into the paper id and a
// human-readable title: trailing document extension stripped,
// separators normalized to spaces. Idempotent under re-application.
func DeriveIdentity(fileName string) (id, title string) {
	id = strings.TrimSpace(fileName)
	if strings.HasSuffix(strings.ToLower(id), ".pdf") {
		id = id[:len(id)-len(".pdf")]
	}
	title = strings.TrimSpace(strings.ReplaceAll(id, "_", " "))
	return id, title
}

// StatusFor classifies a normalized score into a status label. The
// ranges are half-open and cover [0, 100] with no gaps or overlaps.
func StatusFor(score float64) string {
	switch {
	case score >= 80:
		return StatusHighlyReproducible
	case score >= 50:
		return StatusPartiallyReproducible
	case score >= 20:
		return StatusIssuesPresent
	default:
		return StatusNotReproducible
	}
}

// Transform derives one Paper per raw row under the given rubric.
// Missing columns degrade to defaults, never errors: the pipeline is
// deliberately best-effort on malformed input.
func Transform(rows []map[string]string, ru *Rubric) []*Paper {
	papers := make([]*Paper, 0, len(rows))
	for i, row := range rows {
		papers = append(papers, transformRow(i, row, ru))
	}
	return papers
}

func transformRow(pos int, row map[string]string, ru *Rubric) *Paper {
	p := &Paper{
		Criteria:   make([]CriterionScore, 0, len(ru.Criteria)),
		Categories: make([]CategoryScore, 0, len(ru.Categories)),
	}

	if file, ok := row[ru.IdentityColumn]; ok {
		p.ID, p.Title = DeriveIdentity(file)
	} else {
		// Identity column missing entirely: synthesize placeholders
		// so the pipeline never fails outright on malformed input.
		p.ID = fmt.Sprintf("P%03d", pos+1)
		p.Title = fmt.Sprintf("Paper %d Title (Placeholder)", pos+1)
	}

	scores := make(map[string]int, len(ru.Criteria))
	for _, c := range ru.Criteria {
		cs := CriterionScore{Name: c.Name}
		if cell, ok := row[c.Column]; ok {
			cs.Score = ParseScore(cell)
			cs.Notes = ParseNotes(cell)
		} else {
			cs.Defaulted = true
			p.DefaultedFields++
		}
		scores[c.Name] = cs.Score
		p.Criteria = append(p.Criteria, cs)
	}

	for _, cat := range ru.Categories {
		sum := 0
		for _, n := range cat.Criteria {
			sum += scores[n]
		}
		p.Categories = append(p.Categories, CategoryScore{Name: cat.Name, Score: sum, Max: cat.Max})
		p.RawScore += sum
	}

	p.Score = normalize(p.RawScore, ru.TotalMax())
	p.Status = StatusFor(p.Score)

	if len(ru.Conferences) > 0 {
		p.Conference = ru.Conferences[pos%len(ru.Conferences)]
	}

	if ru.PaperLinkTemplate != "" {
		p.PaperLink = fmt.Sprintf(ru.PaperLinkTemplate, p.ID)
	}
	p.CodeLink = CodeLinkNotFound
	if cs := p.Criterion(CriterionCodeAvailability); cs != nil {
		p.CodeLink = ExtractURL(cs.Notes)
	}

	return p
}

// normalize scales a raw category sum to [0, 100] with one decimal.
// The clamp keeps the status invariant intact even under a rubric
// whose criterion sums can exceed the category maxima.
func normalize(raw, totalMax int) float64 {
	if totalMax <= 0 {
		return 0
	}
	s := math.Round(float64(raw)/float64(totalMax)*1000) / 10
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
