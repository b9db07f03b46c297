package normalize

import (
	"fmt"
	"strings"

	"daicho/internal/domain"
)

// similarityMin is the Levenshtein similarity a value must have to the
// winning form before unification rewrites it. Anything below it is a
// genuinely different value, not a spelling variant, and stays as is.
const similarityMin = 0.5

// pathFields lists the classification fields subject to frequency
// unification, in rewrite order.
var pathFields = []struct {
	field domain.CorrectionField
	get   func(*domain.ClassifiedRecord) string
}{
	{domain.CorrectionWorkType, func(r *domain.ClassifiedRecord) string { return r.WorkType }},
	{domain.CorrectionVariety, func(r *domain.ClassifiedRecord) string { return r.Variety }},
	{domain.CorrectionSubphase, func(r *domain.ClassifiedRecord) string { return r.Subphase }},
}

func unifyPathFields(records []domain.ClassifiedRecord, threshold float64, protected map[string]bool) []domain.Correction {
	var corrections []domain.Correction
	for _, f := range pathFields {
		corrections = append(corrections, unifyField(records, threshold, protected, f.get, f.field)...)
	}
	return corrections
}

// unifyField rewrites one field toward the most frequent value when it
// holds at least threshold of the non-empty values. Votes are counted
// over whitespace-folded forms; the rewrite keeps the spelling of the
// first record with the winning form.
func unifyField(records []domain.ClassifiedRecord, threshold float64, protected map[string]bool, get func(*domain.ClassifiedRecord) string, field domain.CorrectionField) []domain.Correction {
	type vote struct {
		raw        string
		normalized string
	}
	var votes []vote
	for i := range records {
		v := get(&records[i])
		if v == "" {
			continue
		}
		votes = append(votes, vote{v, NormalizeWorkTypeName(v)})
	}
	if len(votes) == 0 {
		return nil
	}

	normalized := make([]string, len(votes))
	for i, v := range votes {
		normalized[i] = v.normalized
	}
	most, ratio, ok := mostFrequentWithRatio(normalized)
	if !ok || ratio < threshold {
		return nil
	}

	target := most
	for _, v := range votes {
		if v.normalized == most {
			target = v.raw
			break
		}
	}

	var corrections []domain.Correction
	for i := range records {
		v := get(&records[i])
		if v == "" || v == target || protected[records[i].FileName] {
			continue
		}
		if NormalizeWorkTypeName(v) != most && Similarity(v, target) < similarityMin {
			continue
		}
		corrections = append(corrections, domain.Correction{
			Index:     i,
			FileName:  records[i].FileName,
			Field:     field,
			Original:  v,
			Corrected: target,
			Reason:    fmt.Sprintf("最頻出の%s「%s」に統一（元: %s）", field.Label(), target, v),
		})
	}
	return corrections
}

// mostFrequentWithRatio returns the most frequent value and its share
// of the total. Ties resolve to the first-encountered value so repeat
// runs stay deterministic. ok is false for an empty input.
func mostFrequentWithRatio(values []string) (most string, ratio float64, ok bool) {
	if len(values) == 0 {
		return "", 0, false
	}
	counts := make(map[string]int, len(values))
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best, float64(counts[best]) / float64(len(values)), true
}

// NormalizeWorkTypeName folds a work-type label for comparison:
// fullwidth spaces become plain spaces, surrounding whitespace is
// trimmed and runs of spaces collapse to one.
func NormalizeWorkTypeName(name string) string {
	s := strings.ReplaceAll(name, "　", " ")
	s = strings.TrimSpace(s)
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return s
}

// Similarity scores how close two labels are on a 0 to 1 scale, based
// on rune-level edit distance over the longer length.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	return 1 - float64(levenshteinDistance(a, b))/float64(maxLen)
}

func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
