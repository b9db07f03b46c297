package validator

import (
	"errors"
	"fmt"

	"daicho/internal/domain"
	"daicho/internal/hierarchy"
)

// Report is the outcome of validating one master source.
type Report struct {
	Valid     bool      `json:"valid"`
	Division  string    `json:"division,omitempty"`
	LeafCount int       `json:"leafCount"`
	WorkTypes []string  `json:"workTypes,omitempty"`
	Errors    int       `json:"errors"`
	Warnings  int       `json:"warnings"`
	Findings  []Finding `json:"findings"`
}

// Engine runs registered rules over hierarchy masters.
type Engine struct {
	registry *Registry
}

// NewEngine creates a validation engine backed by the given registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// NewDefaultEngine creates an engine preloaded with the built-in rules.
func NewDefaultEngine() *Engine {
	r := NewRegistry()
	for _, rule := range BuiltinRules() {
		r.Register(rule)
	}
	return NewEngine(r)
}

// ValidateSource parses content in the given format and validates the
// result. A source that fails to parse yields a report with a single
// failed finding instead of an error, so callers always get a verdict
// to return.
func (e *Engine) ValidateSource(content []byte, format domain.MasterFormat) *Report {
	m, err := hierarchy.Load(content, format)
	if err != nil {
		msg := fmt.Sprintf("master does not parse: %v", err)
		if errors.Is(err, domain.ErrMasterEmpty) {
			msg = "master parses but contains no leaves"
		}
		return &Report{
			Valid:  false,
			Errors: 1,
			Findings: []Finding{{
				RuleKey:  "master.parse",
				Passed:   false,
				Severity: SeverityError,
				Message:  msg,
			}},
		}
	}
	return e.ValidateMaster(m)
}

// ValidateMaster runs every registered rule against a loaded master.
func (e *Engine) ValidateMaster(m *hierarchy.Master) *Report {
	report := &Report{
		Division:  m.Division(),
		LeafCount: m.LeafCount(),
		WorkTypes: m.WorkTypes(),
	}

	for _, rule := range e.registry.All() {
		findings := rule.Check(m)
		for _, f := range findings {
			if f.Passed {
				continue
			}
			switch f.Severity {
			case SeverityError:
				report.Errors++
			case SeverityWarning:
				report.Warnings++
			}
		}
		report.Findings = append(report.Findings, findings...)
	}

	report.Valid = report.Errors == 0
	return report
}
