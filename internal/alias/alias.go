// Package alias rewrites recognized field values into the site's
// ledger vocabulary before layout. Recognition output phrases the same
// work type many ways; an alias map pins each variant to the wording
// the ledger should print.
package alias

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"daicho/internal/domain"
)

// Map is one field's alias table: recognized phrasing → ledger term.
type Map map[string]string

// Config holds the alias maps per record field.
type Config struct {
	PhotoCategory Map `json:"photoCategory,omitempty"`
	WorkType      Map `json:"workType,omitempty"`
	Variety       Map `json:"variety,omitempty"`
	Subphase      Map `json:"subphase,omitempty"`
	Remarks       Map `json:"remarks,omitempty"`
}

// Built-in preset names.
const (
	PresetGeneral  = "general"
	PresetMarking  = "marking"
	PresetPavement = "pavement"
)

// PresetNames lists the built-in presets.
func PresetNames() []string {
	return []string{PresetGeneral, PresetMarking, PresetPavement}
}

// Preset returns a built-in alias set by name.
func Preset(name string) (Config, bool) {
	switch name {
	case PresetPavement:
		return Config{
			WorkType: Map{
				"As舗装":      "舗装工",
				"アスファルト舗装":  "舗装工",
				"舗装打換":      "舗装打換え工",
				"切削オーバーレイ":  "切削オーバーレイ工",
			},
			Variety: Map{
				"表層":   "表層工",
				"基層":   "基層工",
				"上層路盤": "上層路盤工",
				"下層路盤": "下層路盤工",
				"不陸整正": "不陸整正工",
			},
			Subphase: Map{
				"温度管理": "温度測定",
				"密度試験": "現場密度測定",
				"舗設":   "舗設状況",
			},
		}, true
	case PresetMarking:
		return Config{
			WorkType: Map{
				"区画線":  "区画線工",
				"路面標示": "区画線工",
				"ライン":  "区画線工",
			},
			Variety: Map{
				"溶融式":   "溶融式区画線",
				"ペイント式": "ペイント式区画線",
			},
			Subphase: Map{
				"ライン施工": "施工状況",
				"路面清掃":  "清掃状況",
			},
		}, true
	case PresetGeneral:
		return Config{
			PhotoCategory: Map{
				"品質管理":  "品質管理写真",
				"出来形":   "出来形管理写真",
				"出来形管理": "出来形管理写真",
				"安全管理":  "安全管理写真",
				"施工状況":  "施工状況写真",
			},
			Subphase: Map{
				"着手前": "施工前",
				"完了":  "施工後",
				"完成":  "施工後",
			},
		}, true
	}
	return Config{}, false
}

// LoadFile reads a JSON alias config from disk.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read alias config %q: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse alias config %q: %w", path, err)
	}
	return cfg, nil
}

// Merge returns a config with other's entries layered over c. Presets
// merged with a site config this way let the config override single
// entries without restating the preset.
func (c Config) Merge(other Config) Config {
	return Config{
		PhotoCategory: mergeMaps(c.PhotoCategory, other.PhotoCategory),
		WorkType:      mergeMaps(c.WorkType, other.WorkType),
		Variety:       mergeMaps(c.Variety, other.Variety),
		Subphase:      mergeMaps(c.Subphase, other.Subphase),
		Remarks:       mergeMaps(c.Remarks, other.Remarks),
	}
}

func mergeMaps(base, over Map) Map {
	if len(base) == 0 && len(over) == 0 {
		return nil
	}
	out := make(Map, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Apply rewrites record fields through the alias maps and returns a
// new slice; the input is never mutated. An exact key match wins;
// otherwise the longest key contained in the value does.
func (c Config) Apply(records []domain.ClassifiedRecord) []domain.ClassifiedRecord {
	out := make([]domain.ClassifiedRecord, len(records))
	copy(out, records)
	for i := range out {
		r := &out[i]
		rewrite(&r.PhotoCategory, c.PhotoCategory)
		rewrite(&r.WorkType, c.WorkType)
		rewrite(&r.Variety, c.Variety)
		rewrite(&r.Subphase, c.Subphase)
		rewrite(&r.Remarks, c.Remarks)
	}
	return out
}

func rewrite(field *string, m Map) {
	if to, ok := m.resolve(*field); ok {
		*field = to
	}
}

// resolve finds the replacement for value: exact first, then the
// longest contained key measured in runes. Equal-length candidates
// resolve to the lexicographically first key, keeping the rewrite
// deterministic.
func (m Map) resolve(value string) (string, bool) {
	if value == "" || len(m) == 0 {
		return "", false
	}
	if to, ok := m[value]; ok {
		return to, true
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := ""
	for _, k := range keys {
		if k == "" || !strings.Contains(value, k) {
			continue
		}
		if utf8.RuneCountInString(k) > utf8.RuneCountInString(best) {
			best = k
		}
	}
	if best == "" {
		return "", false
	}
	return m[best], true
}
