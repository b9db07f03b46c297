package validator

import (
	"fmt"
	"strings"

	"daicho/internal/hierarchy"
)

// BuiltinRules returns the rules every default engine ships with, in
// report order.
func BuiltinRules() []Rule {
	return []Rule{
		&pathCompleteRule{},
		&leafUniqueRule{},
		&patternPresenceRule{},
		&patternDistinctRule{},
	}
}

// allClear is the single finding a rule emits when nothing is wrong.
func allClear(r Rule, message string) []Finding {
	return []Finding{{
		RuleKey:  r.RuleKey(),
		Passed:   true,
		Severity: r.Severity(),
		Message:  message,
	}}
}

func failure(r Rule, leaf, message string) Finding {
	return Finding{
		RuleKey:  r.RuleKey(),
		Passed:   false,
		Severity: r.Severity(),
		Leaf:     leaf,
		Message:  message,
	}
}

// leafPath renders the ancestor chain for messages.
func leafPath(leaf hierarchy.Leaf) string {
	parts := []string{leaf.Path.PhotoCategory, leaf.Path.WorkType, leaf.Path.Variety, leaf.Path.Subphase, leaf.Key}
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}

// pathCompleteRule checks that every leaf carries the remarks key,
// photo category and work type the ledger groups by.
type pathCompleteRule struct{}

func (r *pathCompleteRule) RuleKey() string    { return "master.path.complete" }
func (r *pathCompleteRule) RuleName() string   { return "leaf paths are complete" }
func (r *pathCompleteRule) Severity() Severity { return SeverityError }

func (r *pathCompleteRule) Check(m *hierarchy.Master) []Finding {
	var findings []Finding
	for _, leaf := range m.Leaves() {
		switch {
		case leaf.Key == "":
			findings = append(findings, failure(r, leafPath(leaf),
				fmt.Sprintf("leaf under %q has no remarks key", leaf.Path.WorkType)))
		case leaf.Path.PhotoCategory == "" || leaf.Path.WorkType == "":
			findings = append(findings, failure(r, leaf.Key,
				fmt.Sprintf("leaf %q is missing its photo category or work type", leaf.Key)))
		}
	}
	if findings == nil {
		return allClear(r, "every leaf carries a photo category and work type")
	}
	return findings
}

// leafUniqueRule checks that no two leaves share the same full path.
// Duplicates make classification order-dependent.
type leafUniqueRule struct{}

func (r *leafUniqueRule) RuleKey() string    { return "master.leaf.unique" }
func (r *leafUniqueRule) RuleName() string   { return "leaf paths are unique" }
func (r *leafUniqueRule) Severity() Severity { return SeverityError }

func (r *leafUniqueRule) Check(m *hierarchy.Master) []Finding {
	var findings []Finding
	seen := make(map[string]bool)
	for _, leaf := range m.Leaves() {
		path := leafPath(leaf)
		if seen[path] {
			findings = append(findings, failure(r, leaf.Key,
				fmt.Sprintf("leaf path %q appears more than once", path)))
			continue
		}
		seen[path] = true
	}
	if findings == nil {
		return allClear(r, "no duplicate leaf paths")
	}
	return findings
}

// patternPresenceRule flags leaves without search patterns. Such
// leaves only match when the recognized text contains their remarks
// key verbatim.
type patternPresenceRule struct{}

func (r *patternPresenceRule) RuleKey() string    { return "master.patterns.present" }
func (r *patternPresenceRule) RuleName() string   { return "leaves carry search patterns" }
func (r *patternPresenceRule) Severity() Severity { return SeverityWarning }

func (r *patternPresenceRule) Check(m *hierarchy.Master) []Finding {
	var findings []Finding
	for _, leaf := range m.Leaves() {
		patterns := 0
		for _, p := range leaf.Patterns {
			if strings.TrimSpace(p) != "" {
				patterns++
			}
		}
		if patterns == 0 {
			findings = append(findings, failure(r, leaf.Key,
				fmt.Sprintf("leaf %q has no search patterns and only matches its key verbatim", leaf.Key)))
		}
	}
	if findings == nil {
		return allClear(r, "every leaf carries at least one search pattern")
	}
	return findings
}

// patternDistinctRule flags search patterns shared between leaves.
// Shared patterns score identically, so the match falls back to
// traversal order.
type patternDistinctRule struct{}

func (r *patternDistinctRule) RuleKey() string    { return "master.patterns.distinct" }
func (r *patternDistinctRule) RuleName() string   { return "search patterns are distinct" }
func (r *patternDistinctRule) Severity() Severity { return SeverityWarning }

func (r *patternDistinctRule) Check(m *hierarchy.Master) []Finding {
	owner := make(map[string]string)
	var findings []Finding
	for _, leaf := range m.Leaves() {
		for _, p := range leaf.Patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if prev, ok := owner[p]; ok && prev != leaf.Key {
				findings = append(findings, failure(r, leaf.Key,
					fmt.Sprintf("pattern %q is shared with leaf %q", p, prev)))
				continue
			}
			owner[p] = leaf.Key
		}
	}
	if findings == nil {
		return allClear(r, "no search pattern is shared between leaves")
	}
	return findings
}
