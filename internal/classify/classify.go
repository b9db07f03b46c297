// Package classify resolves raw recognition output against a
// hierarchy master. Each record is matched independently over the
// master's leaf pattern sets; the winning leaf's ancestor path, never
// the leaf's own label, becomes the record's canonical classification.
package classify

import (
	"strings"
	"unicode/utf8"

	"daicho/internal/domain"
	"daicho/internal/hierarchy"
)

// Summary counts classification outcomes for a batch.
type Summary struct {
	Total     int `json:"total"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
}

// Classify resolves a single record. Patterns are matched as
// substrings of the record's search text and scored by rune length,
// so longer, more specific patterns outweigh short generic ones.
// Ties fall to the path agreeing most with the raw guesses, then to
// master traversal order. A nil or empty master, or a zero score,
// passes the raw guesses through with provenance "raw".
func Classify(rec domain.RawRecord, m *hierarchy.Master) domain.ClassifiedRecord {
	out := domain.ClassifiedRecord{RawRecord: rec, Provenance: domain.ProvenanceRaw}
	if m == nil || m.LeafCount() == 0 {
		return out
	}

	text := searchText(rec)
	if text == "" {
		return out
	}

	bestIdx := -1
	bestScore := 0
	bestAgreement := 0
	for i, leaf := range m.Leaves() {
		score := 0
		for _, pattern := range leaf.Patterns {
			if pattern == "" {
				continue
			}
			if strings.Contains(text, strings.ToLower(pattern)) {
				score += utf8.RuneCountInString(pattern)
			}
		}
		if score == 0 {
			continue
		}
		agree := agreement(rec, leaf.Path)
		if score > bestScore || (score == bestScore && agree > bestAgreement) {
			bestIdx, bestScore, bestAgreement = i, score, agree
		}
	}
	if bestIdx < 0 {
		return out
	}

	leaf := m.Leaves()[bestIdx]
	out.PhotoCategory = leaf.Path.PhotoCategory
	out.WorkType = leaf.Path.WorkType
	out.Variety = leaf.Path.Variety
	out.Subphase = leaf.Path.Subphase
	if out.Remarks == "" {
		out.Remarks = leaf.Key
	}
	// Sibling leaf keys under the matched variety, offered as review
	// alternatives when the winning pattern was a near miss.
	out.RemarksCandidates = m.RemarksFor(leaf.Path.WorkType, leaf.Path.Variety)
	out.Provenance = domain.ProvenanceMaster
	return out
}

// Batch classifies every record in input order. Records are
// independent, so a record that matches nothing degrades to
// pass-through without affecting the rest of the batch.
func Batch(records []domain.RawRecord, m *hierarchy.Master) ([]domain.ClassifiedRecord, Summary) {
	out := make([]domain.ClassifiedRecord, len(records))
	summary := Summary{Total: len(records)}
	for i, rec := range records {
		out[i] = Classify(rec, m)
		if out[i].Provenance == domain.ProvenanceMaster {
			summary.Matched++
		} else {
			summary.Unmatched++
		}
	}
	return out, summary
}

// searchText combines the board text, the description and the raw
// category, variety and subphase guesses, lowered for matching. The
// step-two description is preferred; the scene description stands in
// when it is absent.
func searchText(rec domain.RawRecord) string {
	desc := rec.Description
	if desc == "" {
		desc = rec.SceneDescription
	}
	parts := []string{rec.DetectedText, desc, rec.PhotoCategory, rec.Variety, rec.Subphase}
	return strings.ToLower(strings.TrimSpace(strings.Join(parts, " ")))
}

// agreement counts how many raw guess fields partially match the
// candidate path. Both sides must be non-empty; containment in either
// direction counts, mirroring how noisy guesses relate to canonical
// labels (品質管理 vs 品質管理写真).
func agreement(rec domain.RawRecord, path hierarchy.Path) int {
	n := 0
	pairs := [][2]string{
		{rec.PhotoCategory, path.PhotoCategory},
		{rec.WorkType, path.WorkType},
		{rec.Variety, path.Variety},
		{rec.Subphase, path.Subphase},
	}
	for _, p := range pairs {
		if partialMatch(p[0], p[1]) {
			n++
		}
	}
	return n
}

func partialMatch(guess, canonical string) bool {
	if guess == "" || canonical == "" {
		return false
	}
	guess = strings.ToLower(guess)
	canonical = strings.ToLower(canonical)
	return strings.Contains(canonical, guess) || strings.Contains(guess, canonical)
}
