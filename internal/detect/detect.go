// Package detect proposes candidate work types for a photo batch by
// keyword matching over the raw recognized text. It is a recall
// oriented prefilter used to shrink the hierarchy master before
// classification: extra candidates are harmless, missed ones are not,
// so the keyword lists stay broad.
package detect

import (
	"sort"
	"strings"

	"daicho/internal/domain"
)

type rule struct {
	workType string
	keywords []string
}

// rules maps each known work type to the keywords that indicate it.
// Matching is substring based over the combined category, board text
// and scene description of every record in the batch.
var rules = []rule{
	{
		workType: "舗装工",
		keywords: []string{"温度", "転圧", "舗設", "敷均し", "乳剤", "路盤", "アスファルト", "フィニッシャー", "ローラー"},
	},
	{
		workType: "区画線工",
		keywords: []string{"区画線", "ライン", "白線"},
	},
	{
		workType: "構造物撤去工",
		keywords: []string{"取壊し", "取壊", "撤去", "解体"},
	},
	{
		workType: "道路土工",
		keywords: []string{"掘削", "路床", "バックホウ"},
	},
	{
		workType: "排水構造物工",
		keywords: []string{"側溝", "集水", "人孔", "マンホール"},
	},
	{
		workType: "人孔改良工",
		keywords: []string{"人孔改良", "マンホール蓋"},
	},
}

// Detect scans a raw record batch and returns the distinct work types
// whose keywords occur in any record, sorted for determinism. An empty
// result means the caller should fall back to the unfiltered master.
func Detect(records []domain.RawRecord) []string {
	found := make(map[string]struct{})
	for _, rec := range records {
		text := searchText(rec)
		if text == "" {
			continue
		}
		for _, r := range rules {
			if _, ok := found[r.workType]; ok {
				continue
			}
			for _, kw := range r.keywords {
				if strings.Contains(text, strings.ToLower(kw)) {
					found[r.workType] = struct{}{}
					break
				}
			}
		}
	}

	out := make([]string, 0, len(found))
	for wt := range found {
		out = append(out, wt)
	}
	sort.Strings(out)
	return out
}

func searchText(rec domain.RawRecord) string {
	parts := []string{rec.PhotoCategory, rec.DetectedText, rec.SceneDescription, rec.Description}
	return strings.ToLower(strings.TrimSpace(strings.Join(parts, " ")))
}
