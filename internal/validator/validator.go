// Package validator checks hierarchy masters before they are stored or
// used for classification. Rules live in a Registry and run through
// the Engine; each produces findings rather than hard errors, so a
// master with warnings still loads.
package validator

import (
	"daicho/internal/hierarchy"
)

// Severity grades a finding. Errors make the master invalid; warnings
// flag likely authoring mistakes the pipeline can live with.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one rule's verdict on one spot in the master.
type Finding struct {
	RuleKey  string   `json:"ruleKey"`
	Passed   bool     `json:"passed"`
	Severity Severity `json:"severity"`
	Leaf     string   `json:"leaf,omitempty"`
	Message  string   `json:"message"`
}

// Rule is the interface for a single built-in master check.
type Rule interface {
	Check(m *hierarchy.Master) []Finding
	RuleKey() string
	RuleName() string
	Severity() Severity
}
