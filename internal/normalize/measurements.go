package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"daicho/internal/domain"
)

// MeasurementKind classifies an extracted numeric reading.
type MeasurementKind string

const (
	MeasurementTemperature MeasurementKind = "temperature"
	MeasurementDimension   MeasurementKind = "dimension"
	MeasurementDensity     MeasurementKind = "density"
)

// Measurement is a numeric reading extracted from recognized text.
type Measurement struct {
	Kind  MeasurementKind `json:"kind"`
	Value float64         `json:"value"`
	Unit  string          `json:"unit,omitempty"`
}

var (
	tempRe        = regexp.MustCompile(`(\d+\.?\d*)\s*[℃度]`)
	dimRe         = regexp.MustCompile(`[t=]?\s*(\d+\.?\d*)\s*(mm|cm|m)\b`)
	densityRe     = regexp.MustCompile(`(\d+\.?\d*)\s*%`)
	generalUnitRe = regexp.MustCompile(`\d+\.?\d*\s*(kg|g|L|kN|MPa)`)
	tempKeywordRe = regexp.MustCompile(`到着温度|敷均し温度|初期締固め|温度測定|温度計|出荷時|舗設温度`)
)

// ContainsMeasurement reports whether the text carries a numeric
// reading: a temperature, a dimension, a density percentage or a
// value with a weight or force unit. Records with such readings are
// protected from unification rewrites.
func ContainsMeasurement(text string) bool {
	if text == "" {
		return false
	}
	return tempRe.MatchString(text) ||
		dimRe.MatchString(text) ||
		densityRe.MatchString(text) ||
		generalUnitRe.MatchString(text)
}

// ExtractMeasurements pulls every recognizable reading out of the
// text, temperatures first, then dimensions, then densities.
func ExtractMeasurements(text string) []Measurement {
	var out []Measurement
	for _, m := range tempRe.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out = append(out, Measurement{Kind: MeasurementTemperature, Value: v, Unit: "℃"})
		}
	}
	for _, m := range dimRe.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out = append(out, Measurement{Kind: MeasurementDimension, Value: v, Unit: m[2]})
		}
	}
	for _, m := range densityRe.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out = append(out, Measurement{Kind: MeasurementDensity, Value: v, Unit: "%"})
		}
	}
	return out
}

// ExtractTemperature returns the first temperature reading in the text.
func ExtractTemperature(text string) (float64, bool) {
	m := tempRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ExtractDimensionMM returns the first length reading in the text,
// converted to millimeters.
func ExtractDimensionMM(text string) (float64, bool) {
	m := dimRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch m[2] {
	case "m":
		v *= 1000
	case "cm":
		v *= 10
	}
	return v, true
}

// IsTemperaturePhoto reports whether the text reads like a temperature
// management shot, by keyword or by carrying a temperature reading.
func IsTemperaturePhoto(text string) bool {
	return tempKeywordRe.MatchString(text) || tempRe.MatchString(text)
}

// backfillMeasurements fills an empty Measurements field from readings
// found in the record's own board text, so a value the model left in
// detectedText still lands in the ledger's measurement column.
func backfillMeasurements(records []domain.ClassifiedRecord) []domain.Correction {
	var corrections []domain.Correction
	for i := range records {
		if records[i].Measurements != "" {
			continue
		}
		ms := ExtractMeasurements(records[i].DetectedText)
		if len(ms) == 0 {
			continue
		}
		corrections = append(corrections, domain.Correction{
			Index:     i,
			FileName:  records[i].FileName,
			Field:     domain.CorrectionMeasurements,
			Corrected: formatMeasurements(ms),
			Reason:    "黒板テキストから数値を抽出",
		})
	}
	return corrections
}

func formatMeasurements(ms []Measurement) string {
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		parts = append(parts, strconv.FormatFloat(m.Value, 'f', -1, 64)+m.Unit)
	}
	return strings.Join(parts, " ")
}
